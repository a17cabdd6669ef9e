package aiops

import (
	"context"
	"fmt"
	"strings"

	"career-backend/internal/aiops/markdown"
	"career-backend/internal/aiops/prompt"
	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
	"career-backend/internal/shared/telemetry"
)

const speechSystemPrompt = `You generate personal narrative speech based on user identity data.

If a target job description is provided, tailor phrasing to the role and job needs without inventing facts.
If it is absent, keep the speech generic (no job targeting).

Output must be:
- concise
- professional
- first-person voice
- motivational but realistic
- grounded in data provided
- no invented work history or skills
- Markdown with exactly three H2 sections`

const (
	headingElevatorPitch = "Elevator Pitch"
	headingCareerStory   = "Career Story"
	headingWhyMe         = "Why Me"

	elevatorPitchMaxWords = 80
	careerStoryMaxWords   = 160
	whyMeMaxWords         = 120
)

const speechRepairInstruction = "FORMAT FIX: Return ONLY Markdown with exactly these three sections, in this order: \"## Elevator Pitch\", \"## Career Story\", \"## Why Me\". No JSON. No code fences. No commentary."

type Speech struct {
	ElevatorPitch string `json:"elevatorPitch"`
	CareerStory   string `json:"careerStory"`
	WhyMe         string `json:"whyMe"`
	IsFallback    bool   `json:"isFallback"`
}

// GenerateSpeech writes an elevator pitch, career story and "why me" section.
// Job context is used when present, with or without a matching summary.
func (s *Service) GenerateSpeech(ctx context.Context, in GroundingInput) (Speech, error) {
	return handle(ctx, OpGenerateSpeech, in, GroundingInput.logFields,
		func(ctx context.Context, in GroundingInput) (Speech, error) {
			if !in.MatchingSummary.Valid() {
				in.MatchingSummary = nil
			}
			doc, err := s.ctrl.InvokeMarkdown(ctx, recovery.MarkdownRequest{
				Operation:         OpGenerateSpeech,
				SystemPrompt:      speechSystemPrompt,
				UserPrompt:        speechPrompt(in),
				Check:             checkSpeech,
				RepairInstruction: speechRepairInstruction,
			})
			if err != nil {
				if !fallbackAllowed(err) {
					return Speech{}, err
				}
				telemetry.Warn("ai.operation.fallback", map[string]any{
					"operation": OpGenerateSpeech,
					"reason":    err.Error(),
				})
				recovery.Note(ctx, recovery.FallbackPayload)
				return Speech{IsFallback: true}, nil
			}
			return parseSpeech(doc), nil
		})
}

func speechPrompt(in GroundingInput) string {
	return "Use the following data to create personal speech material.\n\n" +
		prompt.FormatInputContext(in.promptContext()) + fmt.Sprintf(`

Return Markdown with these sections:
## %s
(%d words max)

## %s
(%d words max)

## %s
(%d words max)`,
		headingElevatorPitch, elevatorPitchMaxWords,
		headingCareerStory, careerStoryMaxWords,
		headingWhyMe, whyMeMaxWords)
}

func checkSpeech(doc string) error {
	if err := recovery.CheckMarkdown(doc); err != nil {
		return err
	}
	sections := markdown.SplitH2(doc)
	var missing []string
	for _, h := range []string{headingElevatorPitch, headingCareerStory, headingWhyMe} {
		if body, ok := markdown.FindSection(sections, h); !ok || body == "" {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing sections: %s", strings.Join(missing, ", "))
	}
	return nil
}

func parseSpeech(doc string) Speech {
	sections := markdown.SplitH2(doc)
	section := func(heading string, maxWords int) string {
		body, _ := markdown.FindSection(sections, heading)
		return sanitize.LimitWords(body, maxWords)
	}
	return Speech{
		ElevatorPitch: section(headingElevatorPitch, elevatorPitchMaxWords),
		CareerStory:   section(headingCareerStory, careerStoryMaxWords),
		WhyMe:         section(headingWhyMe, whyMeMaxWords),
	}
}
