package aiops

import (
	"context"
	"strings"

	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
)

const parseCVSystemPrompt = `You are a CV text parser.
You MUST return structured JSON only.
Extract distinct sections and normalize them.
Never invent information.`

const parseCVSchema = `{
  "sections": {
    "experiences": ["string"],
    "education": ["string"],
    "skills": ["string"],
    "certifications": ["string"],
    "raw_blocks": ["string"]
  },
  "confidence": 0.8
}`

const defaultParseCVConfidence = 0.5

type ParseCVInput struct {
	CVText string `json:"cvText"`
}

type CVSections struct {
	Experiences    []string `json:"experiences"`
	Education      []string `json:"education"`
	Skills         []string `json:"skills"`
	Certifications []string `json:"certifications"`
	RawBlocks      []string `json:"raw_blocks"`
}

type ParsedCV struct {
	Sections   CVSections `json:"sections"`
	Confidence float64    `json:"confidence"`
}

// ParseCVText splits raw CV text into normalized sections.
func (s *Service) ParseCVText(ctx context.Context, in ParseCVInput) (ParsedCV, error) {
	return handle(ctx, OpParseCvText, in,
		func(in ParseCVInput) map[string]any {
			return map[string]any{"cv_text": TruncateForLog(in.CVText)}
		},
		func(ctx context.Context, in ParseCVInput) (ParsedCV, error) {
			if strings.TrimSpace(in.CVText) == "" {
				return ParsedCV{}, invalidInput(OpParseCvText, "cvText")
			}
			return recovery.InvokeJSON(ctx, s.ctrl, recovery.JSONRequest[ParsedCV]{
				Operation:    OpParseCvText,
				SystemPrompt: parseCVSystemPrompt,
				UserPrompt:   "Extract structured sections from this CV text:\n\n" + in.CVText + "\n\nReturn JSON matching:\n" + parseCVSchema,
				Schema:       parseCVSchema,
				Validate: func(v sanitize.Value) (ParsedCV, error) {
					return validateParsedCV(ctx, v), nil
				},
			})
		})
}

func validateParsedCV(ctx context.Context, v sanitize.Value) ParsedCV {
	sections := v.Get("sections")
	if !sections.IsObject() {
		recovery.Note(ctx, noteDefaultSections)
	}

	conf := v.Get("confidence")
	if _, ok := conf.Num(); !ok {
		recovery.Note(ctx, noteDefaultConfidence)
	}

	return ParsedCV{
		Sections: CVSections{
			Experiences:    sanitize.Strings(sections.Get("experiences")),
			Education:      sanitize.Strings(sections.Get("education")),
			Skills:         sanitize.Strings(sections.Get("skills")),
			Certifications: sanitize.Strings(sections.Get("certifications")),
			RawBlocks:      sanitize.Strings(sections.Get("raw_blocks")),
		},
		Confidence: sanitize.Confidence(conf, defaultParseCVConfidence),
	}
}
