package aiops

import (
	"context"

	"career-backend/internal/aiops/prompt"
	"career-backend/internal/aiops/recovery"
)

const coverLetterSystemPrompt = `You generate professional cover letters based on user identity data.

If a target job description is provided, tailor the letter to demonstrate fit for that specific role.
If it is absent, create a generic cover letter showcasing the candidate's value proposition.

Output must be:
- professional and authentic
- first-person voice
- concise yet compelling (300-500 words)
- structured with clear paragraphs
- grounded in data provided
- no invented work history, skills, or achievements
- Markdown only, with no JSON and no code fences`

// GenerateCoverLetter writes a markdown cover letter. Without a valid matching
// summary the letter is generic.
func (s *Service) GenerateCoverLetter(ctx context.Context, in GroundingInput) (string, error) {
	return handle(ctx, OpGenerateCoverLetter, in, GroundingInput.logFields,
		func(ctx context.Context, in GroundingInput) (string, error) {
			in, tailored := tailoring(OpGenerateCoverLetter, in)
			return s.ctrl.InvokeMarkdown(ctx, recovery.MarkdownRequest{
				Operation:    OpGenerateCoverLetter,
				SystemPrompt: coverLetterSystemPrompt,
				UserPrompt:   coverLetterPrompt(in, tailored),
			})
		})
}

func coverLetterPrompt(in GroundingInput, tailored bool) string {
	instruction := "Create a generic cover letter showcasing the candidate's professional value."
	focus := "Focus on transferable value and professional identity."
	if tailored && in.JobDescription != nil {
		instruction = "Create a cover letter tailored to the target job description."
		focus = "Demonstrate specific fit for the role and company needs."
	}
	return instruction + "\n\n" + prompt.FormatInputContext(in.promptContext()) + `

Structure the cover letter with:
1. Opening paragraph: Express interest and briefly introduce yourself
2. Body paragraphs (2-3): Highlight relevant experience, achievements, and fit
3. Closing paragraph: Express enthusiasm and call to action

` + focus + `

Return ONLY the letter in Markdown.`
}
