package aiops

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"career-backend/internal/aiops/model"
	"career-backend/internal/aiops/prompt"
	"career-backend/internal/aiops/recovery"
	"career-backend/internal/shared/telemetry"
)

const cvSystemPrompt = `You are an expert CV writer and career coach. Your task is to generate a professional, ATS-optimized CV in Markdown format.

CRITICAL REQUIREMENTS:
1. Output ONLY valid Markdown - no additional commentary
2. SYNTHESIZE and CONDENSE: Transform verbose input into concise, impactful statements
3. Use action verbs and quantifiable achievements
4. Use reverse chronological order
5. When a job description is provided, tailor the CV to highlight relevant skills and experiences
6. Structure sections logically: Summary, Work Experience, Education, Skills, Additional sections

FORMATTING GUIDELINES:
- Use # for name/header
- Use ## for section headers (Work Experience, Education, Skills, etc.)
- Use ### for job titles/institutions
- Use **bold** for company names, institutions, and key metrics
- Use - for bullet points (3-5 per position max)
- Separate Education from Work Experience - do NOT mix them

OUTPUT FORMAT:
Output ONLY pure Markdown text - no JSON, no code blocks, no wrapping.
Start directly with the CV content.
DO NOT add notes, disclaimers, or comments at the end of the CV.`

var experienceGroups = []struct {
	Type    model.ExperienceType
	Heading string
}{
	{model.ExperienceWork, "WORK EXPERIENCE"},
	{model.ExperienceEducation, "EDUCATION"},
	{model.ExperienceVolunteer, "VOLUNTEER EXPERIENCE"},
	{model.ExperienceProject, "PROJECTS"},
}

// tailoring returns in with job, company and summary context kept only when a
// valid matching summary backs it.
func tailoring(op string, in GroundingInput) (GroundingInput, bool) {
	if in.MatchingSummary.Valid() {
		return in, true
	}
	if in.JobDescription != nil || in.Company != nil || in.MatchingSummary != nil {
		telemetry.Warn("ai.operation.untailored", map[string]any{
			"operation": op,
			"reason":    "matching summary missing or invalid",
		})
	}
	return in.untailored(), false
}

// GenerateCv writes a markdown CV.
func (s *Service) GenerateCv(ctx context.Context, in GroundingInput) (string, error) {
	return handle(ctx, OpGenerateCv, in, GroundingInput.logFields,
		func(ctx context.Context, in GroundingInput) (string, error) {
			in, _ = tailoring(OpGenerateCv, in)
			return s.ctrl.InvokeMarkdown(ctx, recovery.MarkdownRequest{
				Operation:    OpGenerateCv,
				SystemPrompt: cvSystemPrompt,
				UserPrompt:   cvPrompt(in),
			})
		})
}

func cvPrompt(in GroundingInput) string {
	var b strings.Builder
	b.WriteString("Generate a professional, CONCISE CV in Markdown format.\n\n")
	b.WriteString("SYNTHESIS INSTRUCTIONS:\n")
	b.WriteString("- CONDENSE verbose descriptions into impactful 1-line bullets\n")
	b.WriteString("- EXTRACT key metrics and achievements from STAR stories\n")
	b.WriteString("- SELECT only the most relevant skills/interests (not all)\n")
	b.WriteString("- Professional summary: 2-3 lines maximum\n\n")

	writeCVProfile(&b, in.Profile)
	writeCVExperiences(&b, in.Experiences, in.Stories)

	p := in.Profile
	if len(p.Skills) > 0 {
		b.WriteString("## SKILLS (RAW LIST - SYNTHESIZE INTO CATEGORIES)\n")
		fmt.Fprintf(&b, "Available skills: %s\n", strings.Join(p.Skills, ", "))
		b.WriteString("Instructions: Organize into 2-4 categories (e.g., Technical, Languages, Soft Skills). Select only relevant skills.\n\n")
	}
	if len(p.Languages) > 0 {
		fmt.Fprintf(&b, "## LANGUAGES\n%s\n\n", strings.Join(p.Languages, ", "))
	}
	if len(p.Certifications) > 0 {
		b.WriteString("## CERTIFICATIONS\n" + bulletLines(p.Certifications) + "\n\n")
	}
	if len(p.Interests) > 0 {
		b.WriteString("## INTERESTS (RAW LIST - SELECT 3-5 MOST PROFESSIONAL)\n")
		fmt.Fprintf(&b, "Available interests: %s\n", strings.Join(p.Interests, ", "))
		b.WriteString("Instructions: Choose only 3-5 professional/relevant interests. Omit casual hobbies.\n\n")
	}

	if job := prompt.FormatJobDescription(in.JobDescription); job != "" {
		b.WriteString("## TARGET JOB DESCRIPTION\n" + job + "\n\n")
		if company := prompt.FormatCompany(in.Company); company != "" {
			b.WriteString("## TARGET COMPANY\n" + company + "\n\n")
		}
		b.WriteString("TAILORING INSTRUCTIONS:\n")
		b.WriteString("- Prioritize experiences and skills matching this job description\n")
		b.WriteString("- Use keywords from the job posting\n")
		b.WriteString("- Emphasize relevant achievements from STAR stories\n")
		b.WriteString("- Adjust professional summary to align with role\n\n")
		if len(in.MatchingSummary.TailoringTips) > 0 {
			b.WriteString("Tailoring tips from the matching summary:\n" + bulletLines(in.MatchingSummary.TailoringTips) + "\n\n")
		}
	}

	b.WriteString("CRITICAL REMINDERS:\n")
	b.WriteString("- Use ONLY the information provided above - do not invent data\n")
	b.WriteString("- Keep the CV CONCISE (1-2 pages worth)\n")
	b.WriteString("- Separate Education from Work Experience")
	return b.String()
}

func bulletLines(items []string) string {
	lines := make([]string, len(items))
	for i, s := range items {
		lines[i] = "- " + s
	}
	return strings.Join(lines, "\n")
}

func writeCVProfile(b *strings.Builder, p model.Profile) {
	b.WriteString("## USER PROFILE\n")
	name := p.FullName
	if strings.TrimSpace(name) == "" {
		name = "Not provided"
	}
	fmt.Fprintf(b, "Name: %s\n", name)
	if p.Headline != "" {
		fmt.Fprintf(b, "Professional Title: %s\n", p.Headline)
	}
	if p.Location != "" {
		fmt.Fprintf(b, "Location: %s\n", p.Location)
	}
	if p.SeniorityLevel != "" {
		fmt.Fprintf(b, "Seniority: %s\n", p.SeniorityLevel)
	}
	if len(p.Goals) > 0 {
		b.WriteString("\nCareer Goals:\n" + bulletLines(p.Goals) + "\n")
	}
	if len(p.Strengths) > 0 {
		b.WriteString("\nKey Strengths:\n" + bulletLines(p.Strengths) + "\n")
	}
	b.WriteString("\n")
}

func writeCVExperiences(b *strings.Builder, exps []model.Experience, stories []model.Story) {
	for _, g := range experienceGroups {
		var group []model.Experience
		for _, e := range exps {
			if e.Group() == g.Type {
				group = append(group, e)
			}
		}
		if len(group) == 0 {
			continue
		}
		// Most recent first.
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].StartDate > group[j].StartDate
		})
		b.WriteString("## " + g.Heading + "\n")
		for _, e := range group {
			writeCVExperience(b, e, stories)
		}
		b.WriteString("\n")
	}
}

func writeCVExperience(b *strings.Builder, e model.Experience, stories []model.Story) {
	title := e.Title
	if strings.TrimSpace(title) == "" {
		title = "Position"
	}
	fmt.Fprintf(b, "\n### %s\n", title)
	if e.CompanyName != "" {
		fmt.Fprintf(b, "**%s**\n", e.CompanyName)
	}
	if e.StartDate != "" {
		end := e.EndDate
		if end == "" {
			end = "Not specified"
			if e.IsCurrent {
				end = "Present"
			}
		}
		fmt.Fprintf(b, "%s - %s\n", e.StartDate, end)
	}
	if len(e.Responsibilities) > 0 {
		b.WriteString("\nResponsibilities:\n" + bulletLines(e.Responsibilities) + "\n")
	}
	if len(e.Tasks) > 0 {
		b.WriteString("\nKey Tasks:\n" + bulletLines(e.Tasks) + "\n")
	}

	var related []model.Story
	for _, st := range stories {
		if e.ID != "" && st.ExperienceID == e.ID {
			related = append(related, st)
		}
	}
	if len(related) == 0 {
		return
	}
	b.WriteString("\nKey Achievements (from STAR stories):\n")
	for _, st := range related {
		fmt.Fprintf(b, "- **Situation:** %s\n", st.Situation)
		fmt.Fprintf(b, "  **Task:** %s\n", st.Task)
		fmt.Fprintf(b, "  **Action:** %s\n", st.Action)
		fmt.Fprintf(b, "  **Result:** %s\n", st.Result)
		if len(st.Achievements) > 0 {
			fmt.Fprintf(b, "  **Highlights:** %s\n", strings.Join(st.Achievements, "; "))
		}
	}
}
