package aiops

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"career-backend/internal/aiops/model"
	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
	"career-backend/internal/shared/telemetry"
)

const matchingSystemPrompt = `You are a skeptical talent-matching analyst evaluating job-candidate fit.

CRITICAL RULES:
1. Be honest and critical - do NOT assume a good match
2. Ground EVERY statement in the provided JSON data
3. NEVER invent companies, skills, experiences, or metrics
4. Respond with ONLY valid JSON matching the exact schema
5. If data is missing, reflect that in your assessment

SCORING:
- scoreBreakdown components must sum to overallScore
- Skills are weighted heavily (max 50 points)
- Experience depth matters (max 30 points)
- Interest alignment is a bonus (max 10 points)
- Unique edge/differentiators (max 10 points)

RECOMMENDATION:
- "apply" only if strong skill match + relevant experience + minimal risk
- "maybe" if some gaps but addressable
- "skip" if fundamental misalignment or too many critical missing skills`

const matchingSchema = `{
  "overallScore": 0,
  "scoreBreakdown": {
    "skillFit": 0,
    "experienceFit": 0,
    "interestFit": 0,
    "edge": 0
  },
  "recommendation": "apply | maybe | skip",
  "reasoningHighlights": ["string"],
  "strengthsForThisRole": ["string"],
  "skillMatch": ["[MATCH] skill: evidence"],
  "riskyPoints": ["Risk: issue. Mitigation: action."],
  "impactOpportunities": ["string"],
  "tailoringTips": ["string"]
}`

const (
	skillFitMax      = 50
	experienceFitMax = 30
	interestFitMax   = 10
	edgeMax          = 10

	matchingListMax = 6
	skillMatchMin   = 6
	skillMatchMax   = 12
	riskyPointsMin  = 3

	missingRatioSkip  = 0.55
	missingRatioMaybe = 0.4
	skillFitCapSkip   = 20
	skillFitCapMaybe  = 25

	missingSkillPrefix = "[MISSING]"
	skillMatchFiller   = "[MISSING] Additional skill analysis needed"
	riskyPointFiller   = "Risk: Limited data for full assessment. Mitigation: Review all requirements carefully."
)

var (
	skillTagPattern   = regexp.MustCompile(`^\[(MATCH|PARTIAL|MISSING|OVER)\]`)
	riskyPointPattern = regexp.MustCompile(`(?i)^Risk:.*Mitigation:`)
)

type ScoreBreakdown struct {
	SkillFit      int `json:"skillFit"`
	ExperienceFit int `json:"experienceFit"`
	InterestFit   int `json:"interestFit"`
	Edge          int `json:"edge"`
}

type MatchingSummary struct {
	OverallScore         int                  `json:"overallScore"`
	ScoreBreakdown       ScoreBreakdown       `json:"scoreBreakdown"`
	Recommendation       model.Recommendation `json:"recommendation"`
	ReasoningHighlights  []string             `json:"reasoningHighlights"`
	StrengthsForThisRole []string             `json:"strengthsForThisRole"`
	SkillMatch           []string             `json:"skillMatch"`
	RiskyPoints          []string             `json:"riskyPoints"`
	ImpactOpportunities  []string             `json:"impactOpportunities"`
	TailoringTips        []string             `json:"tailoringTips"`
	GeneratedAt          string               `json:"generatedAt"`
	NeedsUpdate          bool                 `json:"needsUpdate"`
}

// GenerateMatchingSummary scores how well the candidate fits the target job.
// When the model cannot produce usable output the result is an all-zero
// "skip" summary with NeedsUpdate set.
func (s *Service) GenerateMatchingSummary(ctx context.Context, in GroundingInput) (MatchingSummary, error) {
	return handle(ctx, OpGenerateMatchingSummary, in,
		func(in GroundingInput) map[string]any {
			fields := map[string]any{
				"userName":          in.Profile.FullName,
				"hasCompany":        in.Company != nil,
				"experienceCount":   len(in.Experiences),
				"jobSignalsPreview": previewJSON(in.JobDescription, logPreviewLength),
			}
			if in.JobDescription != nil {
				fields["jobTitle"] = in.JobDescription.Title
			}
			return fields
		},
		func(ctx context.Context, in GroundingInput) (MatchingSummary, error) {
			out, err := recovery.InvokeJSON(ctx, s.ctrl, recovery.JSONRequest[MatchingSummary]{
				Operation:    OpGenerateMatchingSummary,
				SystemPrompt: matchingSystemPrompt,
				UserPrompt:   matchingPrompt(in),
				Schema:       matchingSchema,
				Validate: func(v sanitize.Value) (MatchingSummary, error) {
					return validateMatchingSummary(v), nil
				},
			})
			if err != nil {
				if !fallbackAllowed(err) {
					return MatchingSummary{}, err
				}
				telemetry.Warn("ai.operation.fallback", map[string]any{
					"operation": OpGenerateMatchingSummary,
					"reason":    err.Error(),
				})
				recovery.Note(ctx, recovery.FallbackPayload)
				out = fallbackMatchingSummary()
			}
			out.GeneratedAt = s.now().UTC().Format(time.RFC3339)
			return out, nil
		})
}

func matchingPrompt(in GroundingInput) string {
	data, _ := json.MarshalIndent(in.untailoredSummary(), "", "  ")
	var jobSkills []string
	if in.JobDescription != nil {
		jobSkills = in.JobDescription.RequiredSkills
	}
	return "Analyze this job-candidate match with skepticism and honesty.\n\nUSER DATA:\n" + string(data) + `

CRITICAL INSTRUCTIONS:
1. Compare user skills/experience against EVERY required skill in the job
2. For each job skill, determine: [MATCH], [PARTIAL], [MISSING], or [OVER]
3. Be honest about gaps - if critical skills are missing, recommendation cannot be "apply"
4. Score conservatively: most candidates are not 80+ matches
5. riskyPoints must follow format: "Risk: <issue>. Mitigation: <action>."
6. NEVER invent skills, companies, or experiences not in the input

Required job skills to evaluate: ` + joinOr(jobSkills, "Review responsibilities") + `
User claims these skills: ` + joinOr(in.Profile.Skills, "None specified") + `

Return ONLY valid JSON matching this exact schema:
` + matchingSchema
}

// untailoredSummary drops any previous matching summary from the prompt data.
func (in GroundingInput) untailoredSummary() GroundingInput {
	in.MatchingSummary = nil
	return in
}

func joinOr(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, ", ")
}

func validateMatchingSummary(v sanitize.Value) MatchingSummary {
	b := v.Get("scoreBreakdown")
	skillFit := sanitize.ClampScore(sanitize.StrictNumber(b.Get("skillFit")), 0, skillFitMax)
	experienceFit := sanitize.ClampScore(sanitize.StrictNumber(b.Get("experienceFit")), 0, experienceFitMax)
	interestFit := sanitize.ClampScore(sanitize.StrictNumber(b.Get("interestFit")), 0, interestFitMax)
	edge := sanitize.ClampScore(sanitize.StrictNumber(b.Get("edge")), 0, edgeMax)

	list := func(key string, max int) []string {
		return sanitize.List(v.Get(key), sanitize.ListOptions{Max: max, Dedupe: true})
	}

	skillMatch := padTo(filterMatching(list("skillMatch", skillMatchMax), skillTagPattern), skillMatchMin, skillMatchFiller)
	riskyPoints := padTo(filterMatching(list("riskyPoints", matchingListMax), riskyPointPattern), riskyPointsMin, riskyPointFiller)

	recommendation := sanitize.Enum(v.Get("recommendation"), model.Recommendations, model.RecommendMaybe)
	recommendation, skillFit = applyMissingSkillGuardrails(recommendation, skillMatch, skillFit)

	return MatchingSummary{
		OverallScore: sanitize.ClampScore(float64(skillFit+experienceFit+interestFit+edge), 0, 100),
		ScoreBreakdown: ScoreBreakdown{
			SkillFit:      skillFit,
			ExperienceFit: experienceFit,
			InterestFit:   interestFit,
			Edge:          edge,
		},
		Recommendation:       recommendation,
		ReasoningHighlights:  list("reasoningHighlights", matchingListMax),
		StrengthsForThisRole: list("strengthsForThisRole", matchingListMax),
		SkillMatch:           skillMatch,
		RiskyPoints:          riskyPoints,
		ImpactOpportunities:  list("impactOpportunities", matchingListMax),
		TailoringTips:        list("tailoringTips", matchingListMax),
	}
}

func filterMatching(items []string, pattern *regexp.Regexp) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if pattern.MatchString(s) {
			out = append(out, s)
		}
	}
	return out
}

func padTo(items []string, min int, filler string) []string {
	for len(items) < min {
		items = append(items, filler)
	}
	return items
}

// missingRatio is the share of skill match entries tagged [MISSING].
func missingRatio(skillMatch []string) float64 {
	if len(skillMatch) == 0 {
		return 0
	}
	missing := 0
	for _, s := range skillMatch {
		if strings.HasPrefix(s, missingSkillPrefix) {
			missing++
		}
	}
	return float64(missing) / float64(len(skillMatch))
}

func applyMissingSkillGuardrails(rec model.Recommendation, skillMatch []string, skillFit int) (model.Recommendation, int) {
	ratio := missingRatio(skillMatch)
	switch {
	case ratio > missingRatioSkip:
		return model.RecommendSkip, min(skillFit, skillFitCapSkip)
	case ratio > missingRatioMaybe:
		if rec == model.RecommendApply {
			rec = model.RecommendMaybe
		}
		return rec, min(skillFit, skillFitCapMaybe)
	}
	return rec, skillFit
}

func fallbackMatchingSummary() MatchingSummary {
	return MatchingSummary{
		Recommendation:       model.RecommendSkip,
		ReasoningHighlights:  []string{},
		StrengthsForThisRole: []string{},
		SkillMatch:           []string{},
		RiskyPoints:          []string{},
		ImpactOpportunities:  []string{},
		TailoringTips:        []string{},
		NeedsUpdate:          true,
	}
}
