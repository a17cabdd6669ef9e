package aiops

import (
	"context"
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"

	"career-backend/internal/aiops/model"
	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
	"career-backend/internal/shared/telemetry"
)

const cvBlocksSystemPrompt = `You are an assistant that generates a tailored CV as a sequence of structured sections.

GOAL:
- Produce a coherent CV that fits in approximately 2 pages.
- Use ONLY the information provided in the input profile, experiences, stories, and job description.
- DO NOT invent new experiences, employers, or responsibilities.

CONTENT & STRUCTURE RULES:
- The CV is made of ordered sections ("blocks").
- Each section has a type, an optional title, content (plain text, basic markdown) and an optional experienceId.
- Use only these section types: "summary", "experience", "education", "skills", "languages", "certifications", "interests", "custom".
- For "summary": 3-5 concise sentences describing the user.
- For "experience"/"education": one block per selected experience.
- If there are MANY experiences (7 or more), shorten each experience description.

OUTPUT RULES:
- Return ONLY valid JSON, no markdown or extra text.
- Respect the exact JSON schema provided in the user prompt.`

const cvBlocksSchema = `{
  "sections": [
    {
      "type": "summary" | "experience" | "education" | "skills" | "languages" | "certifications" | "interests" | "custom",
      "title": "string | null",
      "content": "string",
      "experienceId": "string | null"
    }
  ]
}`

const (
	maxSectionLength   = 5000
	cvBlocksLogPreview = 50
)

type SectionType string

const (
	SectionSummary        SectionType = "summary"
	SectionExperience     SectionType = "experience"
	SectionEducation      SectionType = "education"
	SectionSkills         SectionType = "skills"
	SectionLanguages      SectionType = "languages"
	SectionCertifications SectionType = "certifications"
	SectionInterests      SectionType = "interests"
	SectionCustom         SectionType = "custom"
)

var sectionTypes = []SectionType{
	SectionSummary, SectionExperience, SectionEducation, SectionSkills,
	SectionLanguages, SectionCertifications, SectionInterests, SectionCustom,
}

var defaultSections = []SectionType{
	SectionSummary, SectionExperience, SectionSkills,
	SectionLanguages, SectionCertifications, SectionInterests,
}

// sectionTypeAliases maps case-folded heading names to section types.
var sectionTypeAliases = map[string]SectionType{
	"profile":          SectionSummary,
	"about":            SectionSummary,
	"bio":              SectionSummary,
	"work":             SectionExperience,
	"employment":       SectionExperience,
	"work experience":  SectionExperience,
	"school":           SectionEducation,
	"training":         SectionEducation,
	"technical skills": SectionSkills,
	"competencies":     SectionSkills,
	"language":         SectionLanguages,
	"certificates":     SectionCertifications,
	"hobbies":          SectionInterests,
	"other":            SectionCustom,
}

type CVBlocksInput struct {
	UserProfile         model.Profile      `json:"userProfile"`
	SelectedExperiences []model.Experience `json:"selectedExperiences"`
	Stories             []model.Story      `json:"stories,omitempty"`
	Skills              []string           `json:"skills,omitempty"`
	Languages           []string           `json:"languages,omitempty"`
	Certifications      []string           `json:"certifications,omitempty"`
	Interests           []string           `json:"interests,omitempty"`
	SectionsToGenerate  []SectionType      `json:"sectionsToGenerate,omitempty"`
	JobDescription      string             `json:"jobDescription,omitempty"`
}

type CVSection struct {
	Type         SectionType `json:"type"`
	Title        *string     `json:"title"`
	Content      string      `json:"content"`
	ExperienceID *string     `json:"experienceId"`
}

type CVBlocks struct {
	Sections []CVSection `json:"sections"`
}

// GenerateCvBlocks produces a CV as ordered, typed sections.
func (s *Service) GenerateCvBlocks(ctx context.Context, in CVBlocksInput) (CVBlocks, error) {
	return handle(ctx, OpGenerateCvBlocks, in,
		func(in CVBlocksInput) map[string]any {
			fields := map[string]any{
				"userProfile":        map[string]any{"fullName": in.UserProfile.FullName, "headline": in.UserProfile.Headline},
				"experienceCount":    len(in.SelectedExperiences),
				"storyCount":         len(in.Stories),
				"skillCount":         len(in.Skills),
				"hasJobDescription":  in.JobDescription != "",
				"sectionsToGenerate": in.sections(),
			}
			if in.JobDescription != "" {
				fields["jobDescriptionPreview"] = sanitize.TruncateWithEllipsis(in.JobDescription, cvBlocksLogPreview)
			}
			return fields
		},
		func(ctx context.Context, in CVBlocksInput) (CVBlocks, error) {
			return recovery.InvokeJSON(ctx, s.ctrl, recovery.JSONRequest[CVBlocks]{
				Operation:    OpGenerateCvBlocks,
				SystemPrompt: cvBlocksSystemPrompt,
				UserPrompt:   cvBlocksPrompt(in),
				Schema:       cvBlocksSchema,
				Validate: func(v sanitize.Value) (CVBlocks, error) {
					return validateCVBlocks(v), nil
				},
			})
		})
}

func (in CVBlocksInput) sections() []SectionType {
	if len(in.SectionsToGenerate) == 0 {
		return defaultSections
	}
	return in.SectionsToGenerate
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(b)
}

func listOrEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func cvBlocksPrompt(in CVBlocksInput) string {
	job := in.JobDescription
	if strings.TrimSpace(job) == "" {
		job = "None provided"
	}
	var b strings.Builder
	b.WriteString("Generate a tailored CV as ordered sections based on the following data.\n\n")
	b.WriteString("User profile:\n" + indentJSON(in.UserProfile) + "\n\n")
	b.WriteString("Selected experiences:\n" + indentJSON(listOrEmpty(in.SelectedExperiences)) + "\n\n")
	b.WriteString("Stories, achievements, and KPIs (optional, may be empty):\n" + indentJSON(listOrEmpty(in.Stories)) + "\n\n")
	b.WriteString("Skills:\n" + indentJSON(listOrEmpty(in.Skills)) + "\n\n")
	b.WriteString("Languages:\n" + indentJSON(listOrEmpty(in.Languages)) + "\n\n")
	b.WriteString("Certifications:\n" + indentJSON(listOrEmpty(in.Certifications)) + "\n\n")
	b.WriteString("Interests:\n" + indentJSON(listOrEmpty(in.Interests)) + "\n\n")
	b.WriteString("Job description (optional, may be empty):\n" + job + "\n\n")
	b.WriteString("Sections to generate (ordered list of section types):\n" + indentJSON(in.sections()) + "\n\n")
	b.WriteString("Remember:\n- Use ONLY the information provided above.\n- Respect the requested section order.\n- Keep the overall length around 2 pages.\n\n")
	b.WriteString("Return ONLY a JSON object with this exact structure:\n" + cvBlocksSchema)
	return b.String()
}

func validateCVBlocks(v sanitize.Value) CVBlocks {
	out := CVBlocks{Sections: []CVSection{}}
	for _, item := range v.Get("sections").Items() {
		typ := sanitize.Text(item.Get("type"))
		content, ok := item.Get("content").Str()
		if typ == "" || !ok || strings.TrimSpace(content) == "" {
			telemetry.Warn("ai.cv_blocks.section_dropped", map[string]any{"type": typ})
			continue
		}
		if len([]rune(content)) > maxSectionLength {
			content = string([]rune(content)[:maxSectionLength]) + "..."
		}
		out.Sections = append(out.Sections, CVSection{
			Type:         resolveSectionType(typ),
			Title:        sanitize.NullableText(item.Get("title")),
			Content:      content,
			ExperienceID: sanitize.NullableText(item.Get("experienceId")),
		})
	}
	return out
}

// resolveSectionType accepts known types as-is, maps common heading names
// through sectionTypeAliases and falls back to custom.
func resolveSectionType(raw string) SectionType {
	for _, t := range sectionTypes {
		if string(t) == raw {
			return t
		}
	}
	folded := cases.Fold().String(raw)
	if mapped, ok := sectionTypeAliases[folded]; ok {
		return mapped
	}
	for _, t := range sectionTypes {
		if string(t) == folded {
			return t
		}
	}
	return SectionCustom
}
