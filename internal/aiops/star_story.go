package aiops

import (
	"context"
	"strings"

	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
)

const starStorySystemPrompt = `You create STAR stories (Situation, Task, Action, Result).
Follow the user's words closely. Do not invent missing details.
Return JSON only.`

const starStorySchema = `{
  "situation": "string",
  "task": "string",
  "action": "string",
  "result": "string"
}`

type StarStoryInput struct {
	SourceText string `json:"sourceText"`
}

type StarStory struct {
	Situation string `json:"situation"`
	Task      string `json:"task"`
	Action    string `json:"action"`
	Result    string `json:"result"`
}

// GenerateStarStory shapes free text into a single STAR story.
func (s *Service) GenerateStarStory(ctx context.Context, in StarStoryInput) (StarStory, error) {
	return handle(ctx, OpGenerateStarStory, in,
		func(in StarStoryInput) map[string]any {
			return map[string]any{"source_text": TruncateForLog(in.SourceText)}
		},
		func(ctx context.Context, in StarStoryInput) (StarStory, error) {
			if strings.TrimSpace(in.SourceText) == "" {
				return StarStory{}, invalidInput(OpGenerateStarStory, "sourceText")
			}
			user := "Generate a STAR story based on this input:\n\n" + in.SourceText +
				"\n\nReturn JSON matching:\n" + starStorySchema
			return recovery.InvokeJSON(ctx, s.ctrl, recovery.JSONRequest[StarStory]{
				Operation:    OpGenerateStarStory,
				SystemPrompt: starStorySystemPrompt,
				UserPrompt:   user,
				Schema:       starStorySchema,
				Validate: func(v sanitize.Value) (StarStory, error) {
					return validateStarStory(v), nil
				},
			})
		})
}

func validateStarStory(v sanitize.Value) StarStory {
	if v.IsArray() {
		items := v.Items()
		if len(items) > 0 {
			v = items[0]
		}
	}
	return StarStory{
		Situation: storyPart(v.Get("situation"), "No situation provided"),
		Task:      storyPart(v.Get("task"), "No task provided"),
		Action:    storyPart(v.Get("action"), "No action provided"),
		Result:    storyPart(v.Get("result"), "No result provided"),
	}
}

// storyPart keeps the model's wording untouched unless it is blank.
func storyPart(v sanitize.Value, def string) string {
	s, ok := v.Str()
	if !ok || strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
