package aiops

import (
	"context"
	"math"
	"strings"

	"career-backend/internal/aiops/model"
	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
)

const parseJobSystemPrompt = `You are a hiring analyst that extracts structured job description data.
Return ONLY JSON matching the contract for the JobDescription model.

RULES:
- Extract ONLY information explicitly present in the job description.
- If a value is missing, return "" for strings or [] for arrays.
- Seniority level MUST be taken from explicit wording (e.g., "Senior", "Lead", "Director").
- roleSummary is a short 1-2 sentence synthesis of what the job focuses on.
- responsibilities are day-to-day tasks or ownership areas.
- requiredSkills are hard or soft skills explicitly mentioned.
- behaviours are attitudes or mindsets explicitly requested.
- successCriteria are measurable outcomes or expectations.
- explicitPains are problems the company is trying to solve.
- atsKeywords are the exact terms an applicant tracking system would screen for.
- No markdown, explanations, or additional commentary.`

const parseJobSchema = `{
  "title": "string",
  "seniorityLevel": "string",
  "roleSummary": "string",
  "responsibilities": ["string"],
  "requiredSkills": ["string"],
  "behaviours": ["string"],
  "successCriteria": ["string"],
  "explicitPains": ["string"],
  "atsKeywords": ["string"],
  "aiConfidenceScore": 0.85
}`

const (
	defaultJobConfidence = 0.6
	emptyJobConfidence   = 0.25
)

type ParseJobInput struct {
	JobText string `json:"jobText"`
}

// ParsedJobDescription is a job description with the model's confidence.
type ParsedJobDescription struct {
	model.JobDescription
	AIConfidenceScore float64 `json:"aiConfidenceScore"`
}

// ParseJobDescription extracts a structured job description from a posting.
func (s *Service) ParseJobDescription(ctx context.Context, in ParseJobInput) (ParsedJobDescription, error) {
	return handle(ctx, OpParseJobDescription, in,
		func(in ParseJobInput) map[string]any {
			return map[string]any{"jobTextPreview": TruncateForLog(in.JobText)}
		},
		func(ctx context.Context, in ParseJobInput) (ParsedJobDescription, error) {
			if strings.TrimSpace(in.JobText) == "" {
				return ParsedJobDescription{}, invalidInput(OpParseJobDescription, "jobText")
			}
			user := "Extract a structured JobDescription object from the following job post.\n\nJOB POST:\n\"\"\"\n" +
				in.JobText + "\n\"\"\"\n\nReturn ONLY valid JSON matching this schema:\n" + parseJobSchema
			return recovery.InvokeJSON(ctx, s.ctrl, recovery.JSONRequest[ParsedJobDescription]{
				Operation:    OpParseJobDescription,
				SystemPrompt: parseJobSystemPrompt,
				UserPrompt:   user,
				Schema:       parseJobSchema,
				Validate: func(v sanitize.Value) (ParsedJobDescription, error) {
					return validateJobDescription(v), nil
				},
			})
		})
}

func validateJobDescription(v sanitize.Value) ParsedJobDescription {
	job := model.JobDescription{
		Title:            sanitize.Text(v.Get("title")),
		SeniorityLevel:   sanitize.Text(v.Get("seniorityLevel")),
		RoleSummary:      sanitize.Text(v.Get("roleSummary")),
		Responsibilities: sanitize.Strings(v.Get("responsibilities")),
		RequiredSkills:   sanitize.Strings(v.Get("requiredSkills")),
		Behaviours:       sanitize.Strings(v.Get("behaviours")),
		SuccessCriteria:  sanitize.Strings(v.Get("successCriteria")),
		ExplicitPains:    sanitize.Strings(v.Get("explicitPains")),
		AtsKeywords:      sanitize.List(v.Get("atsKeywords"), sanitize.ListOptions{Dedupe: true}),
	}

	conf := sanitize.Confidence(v.Get("aiConfidenceScore"), defaultJobConfidence)
	if !hasJobContent(job) {
		conf = math.Min(conf, emptyJobConfidence)
	}
	return ParsedJobDescription{JobDescription: job, AIConfidenceScore: conf}
}

func hasJobContent(j model.JobDescription) bool {
	if j.Title != "" || j.SeniorityLevel != "" || j.RoleSummary != "" {
		return true
	}
	for _, list := range [][]string{j.Responsibilities, j.RequiredSkills, j.Behaviours, j.SuccessCriteria, j.ExplicitPains, j.AtsKeywords} {
		if len(list) > 0 {
			return true
		}
	}
	return false
}
