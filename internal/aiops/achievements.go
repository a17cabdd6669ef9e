package aiops

import (
	"context"
	"encoding/json"

	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
)

const achievementsSystemPrompt = `You generate achievements and KPIs strictly from the user's story.
Do not invent numbers. Use qualitative KPIs if necessary.
Return JSON only.

RULES:
- Extract only achievements and KPIs explicitly supported by the story
- If no numbers are available, provide qualitative KPIs (e.g., "Improved team efficiency")
- Achievements should be clear, concise accomplishments
- KPI suggestions should be measurable indicators of success`

const achievementsSchema = `{
  "achievements": ["string"],
  "kpiSuggestions": ["string"]
}`

var (
	defaultAchievements      = []string{"Successfully completed project"}
	defaultKPIs              = []string{"Project success metrics", "Performance improvement indicators"}
	defaultKPIsWhenAllAbsent = []string{"Project completion rate", "Team collaboration effectiveness"}
)

type AchievementsInput struct {
	StarStory StarStory `json:"starStory"`
}

type AchievementsResult struct {
	Achievements   []string `json:"achievements"`
	KPISuggestions []string `json:"kpiSuggestions"`
}

// GenerateAchievementsAndKpis derives achievements and KPI suggestions from a
// STAR story.
func (s *Service) GenerateAchievementsAndKpis(ctx context.Context, in AchievementsInput) (AchievementsResult, error) {
	return handle(ctx, OpGenerateAchievementsAndKpis, in,
		func(in AchievementsInput) map[string]any {
			return map[string]any{"starStory": previewJSON(in.StarStory, logPreviewLength)}
		},
		func(ctx context.Context, in AchievementsInput) (AchievementsResult, error) {
			story, _ := json.MarshalIndent(in.StarStory, "", "  ")
			user := "Generate achievements and KPIs based on this STAR story:\n\n" + string(story) +
				"\n\nReturn JSON matching:\n" + achievementsSchema
			return recovery.InvokeJSON(ctx, s.ctrl, recovery.JSONRequest[AchievementsResult]{
				Operation:    OpGenerateAchievementsAndKpis,
				SystemPrompt: achievementsSystemPrompt,
				UserPrompt:   user,
				Schema:       achievementsSchema,
				Validate: func(v sanitize.Value) (AchievementsResult, error) {
					return validateAchievements(ctx, v), nil
				},
			})
		})
}

func validateAchievements(ctx context.Context, v sanitize.Value) AchievementsResult {
	achievements := sanitize.Strings(v.Get("achievements"))
	kpis := sanitize.Strings(v.First("kpiSuggestions", "kpi_suggestions"))

	switch {
	case len(achievements) == 0 && len(kpis) == 0:
		recovery.Note(ctx, noteValidationFallbacks)
		achievements = append([]string(nil), defaultAchievements...)
		kpis = append([]string(nil), defaultKPIsWhenAllAbsent...)
	case len(achievements) == 0:
		recovery.Note(ctx, noteValidationFallbacks)
		achievements = append([]string(nil), defaultAchievements...)
	case len(kpis) == 0:
		recovery.Note(ctx, noteValidationFallbacks)
		kpis = append([]string(nil), defaultKPIs...)
	}
	return AchievementsResult{Achievements: achievements, KPISuggestions: kpis}
}
