// Package prompt renders caller records into the plain-text grounding block
// that precedes every generation prompt.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"career-backend/internal/aiops/model"
)

// Context is everything an operation may ground its prompt on. Nil or empty
// parts are left out of the rendered block.
type Context struct {
	Language        model.Language
	Profile         *model.Profile
	Experiences     []model.Experience
	Stories         []model.Story
	PersonalCanvas  *model.PersonalCanvas
	JobDescription  *model.JobDescription
	MatchingSummary *model.MatchingSummaryContext
	Company         *model.CompanyProfile
}

// Section headings of the rendered block.
const (
	HeadingLanguage        = "LANGUAGE"
	HeadingProfile         = "PROFILE"
	HeadingExperiences     = "EXPERIENCES"
	HeadingStories         = "STORIES"
	HeadingPersonalCanvas  = "PERSONAL CANVAS"
	HeadingJobDescription  = "TARGET JOB DESCRIPTION"
	HeadingMatchingSummary = "MATCHING SUMMARY"
	HeadingCompany         = "COMPANY SUMMARY"
)

// FormatInputContext renders c as blank-line separated sections.
func FormatInputContext(c Context) string {
	lang := c.Language
	if lang == "" {
		lang = model.LanguageEN
	}
	sections := []string{HeadingLanguage + "\n" + string(lang)}
	add := func(heading, body string) {
		if body != "" {
			sections = append(sections, heading+"\n"+body)
		}
	}
	add(HeadingProfile, formatProfile(c.Profile))
	add(HeadingExperiences, formatExperiences(c.Experiences))
	add(HeadingStories, formatStories(c.Stories))
	add(HeadingPersonalCanvas, formatPersonalCanvas(c.PersonalCanvas))
	add(HeadingJobDescription, FormatJobDescription(c.JobDescription))
	add(HeadingMatchingSummary, formatMatchingSummary(c.MatchingSummary))
	add(HeadingCompany, FormatCompany(c.Company))
	return strings.Join(sections, "\n\n")
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func listLine(label string, values []string) string {
	values = nonEmpty(values)
	if len(values) == 0 {
		return ""
	}
	return label + ": " + strings.Join(values, ", ")
}

func labeled(label, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return label + ": " + value
}

func joinLines(sep string, lines ...string) string {
	return strings.Join(nonEmpty(lines), sep)
}

func formatProfile(p *model.Profile) string {
	if p == nil {
		return ""
	}
	return joinLines("\n",
		labeled("Name", p.FullName),
		labeled("Headline", p.Headline),
		labeled("Location", p.Location),
		labeled("Seniority", p.SeniorityLevel),
		labeled("Email", p.PrimaryEmail),
		labeled("Phone", p.PrimaryPhone),
		labeled("Work permit", p.WorkPermitInfo),
		listLine("Social links", p.SocialLinks),
		listLine("Goals", p.Goals),
		listLine("Aspirations", p.Aspirations),
		listLine("Personal values", p.PersonalValues),
		listLine("Strengths", p.Strengths),
		listLine("Interests", p.Interests),
		listLine("Skills", p.Skills),
		listLine("Certifications", p.Certifications),
		listLine("Languages", p.Languages),
	)
}

func formatExperiences(exps []model.Experience) string {
	if len(exps) == 0 {
		return ""
	}
	items := make([]string, 0, len(exps))
	for _, e := range exps {
		header := e.Title
		if strings.TrimSpace(e.CompanyName) != "" {
			header += " at " + e.CompanyName
		}
		if strings.TrimSpace(string(e.ExperienceType)) != "" {
			header += " (" + string(e.ExperienceType) + ")"
		}
		if dates := joinLines(" - ", e.StartDate, e.EndDate); dates != "" {
			header += " | " + dates
		}
		details := joinLines("\n  ",
			listLine("Responsibilities", e.Responsibilities),
			listLine("Tasks", e.Tasks),
			listLine("Achievements", e.Achievements),
			listLine("KPIs", e.KPISuggestions),
		)
		items = append(items, bullet(header, details))
	}
	return strings.Join(items, "\n")
}

func formatStories(stories []model.Story) string {
	if len(stories) == 0 {
		return ""
	}
	items := make([]string, 0, len(stories))
	for i, s := range stories {
		title := s.Title
		if strings.TrimSpace(title) == "" {
			title = fmt.Sprintf("Story %d", i+1)
		}
		details := joinLines("\n  ",
			labeled("Situation", s.Situation),
			labeled("Task", s.Task),
			labeled("Action", s.Action),
			labeled("Result", s.Result),
			listLine("Achievements", s.Achievements),
		)
		items = append(items, bullet(title, details))
	}
	return strings.Join(items, "\n")
}

func bullet(header, details string) string {
	if details == "" {
		return "- " + header
	}
	return "- " + header + "\n  " + details
}

func formatPersonalCanvas(c *model.PersonalCanvas) string {
	if c == nil {
		return ""
	}
	return joinLines("\n",
		listLine("Customer segments", c.CustomerSegments),
		listLine("Value proposition", c.ValueProposition),
		listLine("Channels", c.Channels),
		listLine("Customer relationships", c.CustomerRelationships),
		listLine("Key activities", c.KeyActivities),
		listLine("Key resources", c.KeyResources),
		listLine("Key partners", c.KeyPartners),
		listLine("Cost structure", c.CostStructure),
		listLine("Revenue streams", c.RevenueStreams),
	)
}

// FormatJobDescription renders a job description as labeled lines.
func FormatJobDescription(j *model.JobDescription) string {
	if j == nil {
		return ""
	}
	return joinLines("\n",
		labeled("Title", j.Title),
		labeled("Seniority", j.SeniorityLevel),
		labeled("Role summary", j.RoleSummary),
		listLine("Responsibilities", j.Responsibilities),
		listLine("Required skills", j.RequiredSkills),
		listLine("Behaviours", j.Behaviours),
		listLine("Success criteria", j.SuccessCriteria),
		listLine("Explicit pains", j.ExplicitPains),
		listLine("ATS keywords", j.AtsKeywords),
	)
}

func number(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatMatchingSummary(m *model.MatchingSummaryContext) string {
	if m == nil {
		return ""
	}
	b := m.ScoreBreakdown
	if b == nil {
		b = &model.ScoreBreakdownContext{}
	}
	return joinLines("\n",
		"Overall score: "+number(m.OverallScore),
		fmt.Sprintf("Score breakdown: skill %s, experience %s, interest %s, edge %s",
			number(b.SkillFit), number(b.ExperienceFit), number(b.InterestFit), number(b.Edge)),
		"Recommendation: "+string(m.Recommendation),
		listLine("Reasoning highlights", m.ReasoningHighlights),
		listLine("Strengths for this role", m.StrengthsForThisRole),
		listLine("Skill match notes", m.SkillMatch),
		listLine("Risky points", m.RiskyPoints),
		listLine("Impact opportunities", m.ImpactOpportunities),
		listLine("Tailoring tips", m.TailoringTips),
	)
}

// FormatCompany renders a company profile as labeled lines.
func FormatCompany(c *model.CompanyProfile) string {
	if c == nil {
		return ""
	}
	return joinLines("\n",
		labeled("Company", c.CompanyName),
		labeled("Industry", c.Industry),
		labeled("Size", c.SizeRange),
		labeled("Website", c.Website),
		labeled("Summary", c.Description),
		listLine("Products/services", c.ProductsServices),
		listLine("Target markets", c.TargetMarkets),
		listLine("Customer segments", c.CustomerSegments),
		labeled("Notes", c.RawNotes),
	)
}
