package aiops

import (
	"context"
	"fmt"
	"strings"

	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
)

const experiencesSystemPrompt = `You transform experience text into structured experience blocks.
Extract: title, company, dates, responsibilities, tasks.
Never infer seniority or technologies not present.
Return JSON only.

RULES:
- Extract only information explicitly stated in the text
- Dates should be in YYYY-MM-DD format or YYYY-MM if day is not specified
- If end_date is "Present" or missing, leave it null
- Responsibilities are high-level duties
- Tasks are specific actions or deliverables`

const experiencesSchema = `{
  "experiences": [
    {
      "title": "string",
      "company": "string",
      "start_date": "string",
      "end_date": "string | null",
      "responsibilities": ["string"],
      "tasks": ["string"]
    }
  ]
}`

const defaultCompanyName = "Unknown Company"

type ExtractExperiencesInput struct {
	ExperienceTextBlocks []string `json:"experienceTextBlocks"`
}

type ExtractedExperience struct {
	Title            string   `json:"title"`
	Company          string   `json:"company"`
	StartDate        string   `json:"start_date"`
	EndDate          *string  `json:"end_date"`
	Responsibilities []string `json:"responsibilities"`
	Tasks            []string `json:"tasks"`
}

type ExperiencesResult struct {
	Experiences []ExtractedExperience `json:"experiences"`
}

// ExtractExperienceBlocks turns raw experience sections into structured blocks.
func (s *Service) ExtractExperienceBlocks(ctx context.Context, in ExtractExperiencesInput) (ExperiencesResult, error) {
	return handle(ctx, OpExtractExperienceBlocks, in,
		func(in ExtractExperiencesInput) map[string]any {
			if len(in.ExperienceTextBlocks) > 1 {
				return map[string]any{"experience_text_blocks": fmt.Sprintf("%d experience blocks", len(in.ExperienceTextBlocks))}
			}
			first := ""
			if len(in.ExperienceTextBlocks) == 1 {
				first = in.ExperienceTextBlocks[0]
			}
			return map[string]any{"experience_text_blocks": TruncateForLog(first)}
		},
		func(ctx context.Context, in ExtractExperiencesInput) (ExperiencesResult, error) {
			blocks := nonBlank(in.ExperienceTextBlocks)
			if len(blocks) == 0 {
				return ExperiencesResult{}, invalidInput(OpExtractExperienceBlocks, "experienceTextBlocks")
			}
			return recovery.InvokeJSON(ctx, s.ctrl, recovery.JSONRequest[ExperiencesResult]{
				Operation:    OpExtractExperienceBlocks,
				SystemPrompt: experiencesSystemPrompt,
				UserPrompt:   experiencesPrompt(blocks),
				Schema:       experiencesSchema,
				Validate: func(v sanitize.Value) (ExperiencesResult, error) {
					return validateExperiences(ctx, v), nil
				},
			})
		})
}

func experiencesPrompt(blocks []string) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = fmt.Sprintf("[Experience %d]\n%s", i+1, b)
	}
	return "Convert the following CV experience sections into experience blocks:\n\n" +
		strings.Join(parts, "\n\n") +
		"\n\nReturn JSON matching:\n" + experiencesSchema
}

func validateExperiences(ctx context.Context, v sanitize.Value) ExperiencesResult {
	list := v.Get("experiences")
	if !list.IsArray() {
		recovery.Note(ctx, noteDefaultExperiences)
	}
	items := list.Items()
	out := make([]ExtractedExperience, 0, len(items))
	for i, item := range items {
		out = append(out, ExtractedExperience{
			Title:            sanitize.TextOr(item.Get("title"), fmt.Sprintf("Experience %d", i+1)),
			Company:          sanitize.TextOr(item.Get("company"), defaultCompanyName),
			StartDate:        sanitize.Text(item.Get("start_date")),
			EndDate:          sanitize.NullableText(item.Get("end_date")),
			Responsibilities: sanitize.Strings(item.Get("responsibilities")),
			Tasks:            sanitize.Strings(item.Get("tasks")),
		})
	}
	return ExperiencesResult{Experiences: out}
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
