package aiops

import (
	"context"
	"fmt"
	"strings"

	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
)

const personalCanvasSystemPrompt = `You produce the Personal Business Model Canvas strictly from user data.
Analyze the user's profile, experiences, and stories to generate all 9 canvas sections.
No invented skills. No fictional strengths. Only facts from the provided data.
Return ONLY valid JSON with no markdown wrappers.

RULES:
- Value proposition should be grounded in actual achievements and experiences
- Target roles should align with demonstrated experience
- Strengths should come from actual accomplishments in stories`

const personalCanvasSchema = `{
  "valueProposition": ["string"],
  "keyActivities": ["string"],
  "strengthsAdvantage": ["string"],
  "targetRoles": ["string"],
  "channels": ["string"],
  "resources": ["string"],
  "careerDirection": ["string"],
  "painRelievers": ["string"],
  "gainCreators": ["string"]
}`

const profileLogLength = 200

type canvasField string

const (
	fieldValueProposition   canvasField = "valueProposition"
	fieldKeyActivities      canvasField = "keyActivities"
	fieldStrengthsAdvantage canvasField = "strengthsAdvantage"
	fieldTargetRoles        canvasField = "targetRoles"
	fieldChannels           canvasField = "channels"
	fieldResources          canvasField = "resources"
	fieldCareerDirection    canvasField = "careerDirection"
	fieldPainRelievers      canvasField = "painRelievers"
	fieldGainCreators       canvasField = "gainCreators"
)

// personalCanvasAliases maps each output field to the snake_case key models
// sometimes use instead.
var personalCanvasAliases = map[canvasField]string{
	fieldValueProposition:   "value_proposition",
	fieldKeyActivities:      "key_activities",
	fieldStrengthsAdvantage: "strengths_advantage",
	fieldTargetRoles:        "target_roles",
	fieldChannels:           "channels",
	fieldResources:          "resources",
	fieldCareerDirection:    "career_direction",
	fieldPainRelievers:      "pain_relievers",
	fieldGainCreators:       "gain_creators",
}

var personalCanvasFallbacks = map[canvasField][]string{
	fieldValueProposition:   {"Experienced professional with diverse background"},
	fieldKeyActivities:      {"Professional responsibilities and tasks"},
	fieldStrengthsAdvantage: {"Professional experience and skills"},
	fieldTargetRoles:        {"Roles aligned with experience"},
	fieldChannels:           {"Professional networks", "Job platforms"},
	fieldResources:          {"Skills", "Experience", "Network"},
	fieldCareerDirection:    {"Continue professional growth"},
	fieldPainRelievers:      {"Address organizational challenges"},
	fieldGainCreators:       {"Drive value through expertise"},
}

type CanvasProfile struct {
	FullName string `json:"fullName"`
	Headline string `json:"headline,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

type CanvasExperience struct {
	Title            string   `json:"title,omitempty"`
	Company          string   `json:"company,omitempty"`
	StartDate        string   `json:"startDate,omitempty"`
	EndDate          string   `json:"endDate,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	Tasks            []string `json:"tasks,omitempty"`
}

type CanvasStory struct {
	Situation      string   `json:"situation,omitempty"`
	Task           string   `json:"task,omitempty"`
	Action         string   `json:"action,omitempty"`
	Result         string   `json:"result,omitempty"`
	Achievements   []string `json:"achievements,omitempty"`
	KPISuggestions []string `json:"kpiSuggestions,omitempty"`
}

type PersonalCanvasInput struct {
	Profile     CanvasProfile      `json:"profile"`
	Experiences []CanvasExperience `json:"experiences"`
	Stories     []CanvasStory      `json:"stories"`
}

type PersonalCanvasResult struct {
	ValueProposition   []string `json:"valueProposition"`
	KeyActivities      []string `json:"keyActivities"`
	StrengthsAdvantage []string `json:"strengthsAdvantage"`
	TargetRoles        []string `json:"targetRoles"`
	Channels           []string `json:"channels"`
	Resources          []string `json:"resources"`
	CareerDirection    []string `json:"careerDirection"`
	PainRelievers      []string `json:"painRelievers"`
	GainCreators       []string `json:"gainCreators"`
}

// GeneratePersonalCanvas builds the nine-block personal business model canvas.
func (s *Service) GeneratePersonalCanvas(ctx context.Context, in PersonalCanvasInput) (PersonalCanvasResult, error) {
	return handle(ctx, OpGeneratePersonalCanvas, in,
		func(in PersonalCanvasInput) map[string]any {
			return map[string]any{
				"profile":          previewJSON(in.Profile, profileLogLength),
				"experiencesCount": len(in.Experiences),
				"storiesCount":     len(in.Stories),
			}
		},
		func(ctx context.Context, in PersonalCanvasInput) (PersonalCanvasResult, error) {
			return recovery.InvokeJSON(ctx, s.ctrl, recovery.JSONRequest[PersonalCanvasResult]{
				Operation:    OpGeneratePersonalCanvas,
				SystemPrompt: personalCanvasSystemPrompt,
				UserPrompt:   personalCanvasPrompt(in),
				Schema:       personalCanvasSchema,
				Validate: func(v sanitize.Value) (PersonalCanvasResult, error) {
					return validatePersonalCanvas(ctx, v), nil
				},
			})
		})
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func personalCanvasPrompt(in PersonalCanvasInput) string {
	var b strings.Builder
	b.WriteString("Generate the Personal Business Model Canvas from the following user data:\n\nPROFILE:\n")
	fmt.Fprintf(&b, "Name: %s\nHeadline: %s\nSummary: %s\n\nEXPERIENCES:\n",
		orNA(in.Profile.FullName), orNA(in.Profile.Headline), orNA(in.Profile.Summary))

	if len(in.Experiences) == 0 {
		b.WriteString("No experiences provided\n")
	}
	for i, e := range in.Experiences {
		end := e.EndDate
		if strings.TrimSpace(end) == "" {
			end = "Present"
		}
		fmt.Fprintf(&b, "Experience %d:\n- Title: %s\n- Company: %s\n- Duration: %s to %s\n- Responsibilities: %s\n- Tasks: %s\n\n",
			i+1, orNA(e.Title), orNA(e.Company), orNA(e.StartDate), end,
			orNA(strings.Join(e.Responsibilities, ", ")), orNA(strings.Join(e.Tasks, ", ")))
	}

	b.WriteString("\nSTORIES:\n")
	if len(in.Stories) == 0 {
		b.WriteString("No stories provided\n")
	}
	for i, st := range in.Stories {
		fmt.Fprintf(&b, "Story %d:\n- Situation: %s\n- Task: %s\n- Action: %s\n- Result: %s\n- Achievements: %s\n- KPIs: %s\n\n",
			i+1, orNA(st.Situation), orNA(st.Task), orNA(st.Action), orNA(st.Result),
			orNA(strings.Join(st.Achievements, "; ")), orNA(strings.Join(st.KPISuggestions, "; ")))
	}

	b.WriteString("\nAnalyze this data and generate all 9 sections of the Personal Business Model Canvas.\n")
	b.WriteString("Return ONLY valid JSON matching this schema:\n")
	b.WriteString(personalCanvasSchema)
	return b.String()
}

func validatePersonalCanvas(ctx context.Context, v sanitize.Value) PersonalCanvasResult {
	field := func(name canvasField) []string {
		raw := v.Get(string(name))
		if !raw.IsArray() {
			raw = v.Get(personalCanvasAliases[name])
		}
		list := sanitize.Strings(raw)
		if len(list) == 0 {
			recovery.Note(ctx, noteValidationFallbacks)
			return append([]string(nil), personalCanvasFallbacks[name]...)
		}
		return list
	}
	return PersonalCanvasResult{
		ValueProposition:   field(fieldValueProposition),
		KeyActivities:      field(fieldKeyActivities),
		StrengthsAdvantage: field(fieldStrengthsAdvantage),
		TargetRoles:        field(fieldTargetRoles),
		Channels:           field(fieldChannels),
		Resources:          field(fieldResources),
		CareerDirection:    field(fieldCareerDirection),
		PainRelievers:      field(fieldPainRelievers),
		GainCreators:       field(fieldGainCreators),
	}
}
