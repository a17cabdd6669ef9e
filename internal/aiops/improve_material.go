package aiops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"career-backend/internal/aiops/markdown"
	"career-backend/internal/aiops/model"
	"career-backend/internal/aiops/prompt"
	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
	"career-backend/internal/shared/telemetry"
)

// Error codes reported by improveMaterial.
const (
	ErrCodeImproveInvalidInput  = "ERR_IMPROVE_MATERIAL_INVALID_INPUT"
	ErrCodeImproveRetryFallback = "ERR_IMPROVE_MATERIAL_RETRY_FAILED_FALLBACK"
)

const (
	minImproveMarkdownLength = 200
	maxPriorityActions       = 5
	maxWeakDimensions        = 3
	weakDimensionThreshold   = 70

	defaultPriorityAction        = "Apply the user improvement instructions while preserving factual accuracy."
	defaultContextPriorityAction = "Improve clarity and role alignment using explicit evidence."
)

const improveSystemPrompt = `You are an expert editorial career coach improving an existing professional document.

Return ONLY the final improved document in valid Markdown.
Do not return JSON.
Do not include explanations or commentary.
Do not wrap output in code fences.

PRIORITY ORDER (STRICT):
1) Obey USER IMPROVEMENT INSTRUCTIONS exactly.
2) Preserve factual accuracy (no invention).
3) Apply improvement context and grounding context.
4) Maintain coherent language and structure.

HARD RULES:
- Never invent facts.
- Do not create new roles, employers, dates, tools, skills, achievements, metrics, or education.
- If no measurable metrics are available, do NOT fabricate numbers.
- Maintain the original language.

FORMAT RULES:
- materialType="cv": use concise, scan-friendly sections and impact bullets.
- materialType="coverLetter": write a coherent one-page letter with 3 to 4 short paragraphs.`

const improveRepairInstruction = `CRITICAL FORMAT ENFORCEMENT:
- Return ONLY valid Markdown.
- No JSON object.
- No JSON array.
- No code fences.
- No commentary.
- Return the full rewritten document only.`

var errMarkdownTooShort = errors.New("document shorter than 200 characters")

type MaterialType string

const (
	MaterialCV          MaterialType = "cv"
	MaterialCoverLetter MaterialType = "coverLetter"
)

type ImproveInstructions struct {
	Presets []string `json:"presets"`
	Note    string   `json:"note,omitempty"`
}

type ImproveMaterialInput struct {
	Language           model.Language                `json:"language"`
	MaterialType       MaterialType                  `json:"materialType"`
	CurrentMarkdown    string                        `json:"currentMarkdown"`
	Instructions       *ImproveInstructions          `json:"instructions"`
	ImprovementContext json.RawMessage               `json:"improvementContext,omitempty"`
	Profile            *model.Profile                `json:"profile"`
	Experiences        []model.Experience            `json:"experiences"`
	Stories            []model.Story                 `json:"stories,omitempty"`
	JobDescription     *model.JobDescription         `json:"jobDescription,omitempty"`
	MatchingSummary    *model.MatchingSummaryContext `json:"matchingSummary,omitempty"`
	Company            *model.CompanyProfile         `json:"company,omitempty"`
}

type ImprovedMaterial struct {
	Markdown   string `json:"markdown"`
	IsFallback bool   `json:"isFallback"`
}

type validatedImprove struct {
	in           ImproveMaterialInput
	presets      []string
	note         string
	improvements *ApplicationStrength
}

// ImproveMaterial rewrites an existing CV or cover letter following the
// user's instructions. When the model cannot return a usable document the
// original markdown is returned with IsFallback set.
func (s *Service) ImproveMaterial(ctx context.Context, in ImproveMaterialInput) (ImprovedMaterial, error) {
	return handle(ctx, OpImproveMaterial, in,
		func(in ImproveMaterialInput) map[string]any {
			presets := 0
			if in.Instructions != nil {
				presets = len(in.Instructions.Presets)
			}
			return map[string]any{
				"language":               strings.TrimSpace(string(in.Language)),
				"materialType":           strings.TrimSpace(string(in.MaterialType)),
				"currentMarkdownPreview": TruncateForLog(strings.TrimSpace(in.CurrentMarkdown)),
				"presetCount":            presets,
				"hasJobDescription":      in.JobDescription != nil,
				"hasMatchingSummary":     in.MatchingSummary != nil,
				"hasCompany":             in.Company != nil,
			}
		},
		func(ctx context.Context, in ImproveMaterialInput) (ImprovedMaterial, error) {
			v, err := validateImproveInput(in)
			if err != nil {
				return ImprovedMaterial{}, err
			}
			doc, err := s.ctrl.InvokeMarkdown(ctx, recovery.MarkdownRequest{
				Operation:         OpImproveMaterial,
				SystemPrompt:      improveSystemPrompt,
				UserPrompt:        improvePrompt(v),
				Check:             checkImprovedMarkdown,
				RepairInstruction: improveRepairInstruction,
			})
			if err != nil {
				if !recovery.IsRecoverable(err) {
					return ImprovedMaterial{}, err
				}
				telemetry.Error("ai.operation.fallback", map[string]any{
					"operation": OpImproveMaterial,
					"code":      ErrCodeImproveRetryFallback,
					"reason":    err.Error(),
				})
				recovery.Note(ctx, recovery.FallbackPayload)
				return ImprovedMaterial{Markdown: v.in.CurrentMarkdown, IsFallback: true}, nil
			}
			return ImprovedMaterial{Markdown: doc}, nil
		})
}

func improveInvalid(field string) error {
	return &InvalidInputError{Operation: OpImproveMaterial, Field: field, Code: ErrCodeImproveInvalidInput}
}

func validateImproveInput(in ImproveMaterialInput) (validatedImprove, error) {
	if in.MaterialType != MaterialCV && in.MaterialType != MaterialCoverLetter {
		return validatedImprove{}, improveInvalid("materialType")
	}
	if strings.TrimSpace(string(in.Language)) == "" {
		return validatedImprove{}, improveInvalid("language")
	}
	if in.Language != model.LanguageEN {
		return validatedImprove{}, improveInvalid("language.unsupported")
	}
	in.CurrentMarkdown = strings.TrimSpace(in.CurrentMarkdown)
	if in.CurrentMarkdown == "" {
		return validatedImprove{}, improveInvalid("currentMarkdown")
	}
	if in.Instructions == nil {
		return validatedImprove{}, improveInvalid("instructions")
	}
	presets := nonBlankTrimmed(in.Instructions.Presets)
	if len(presets) == 0 {
		return validatedImprove{}, improveInvalid("instructions.presets")
	}

	var improvements *ApplicationStrength
	if raw := strings.TrimSpace(string(in.ImprovementContext)); raw != "" && raw != "null" {
		ctxValue, err := normalizeImprovementContext(raw)
		if err != nil {
			return validatedImprove{}, err
		}
		improvements = &ctxValue
	}

	if in.Profile == nil {
		return validatedImprove{}, improveInvalid("profile")
	}
	if in.Experiences == nil {
		return validatedImprove{}, improveInvalid("experiences")
	}
	if len([]rune(in.CurrentMarkdown)) < minImproveMarkdownLength {
		return validatedImprove{}, improveInvalid("currentMarkdown.minLength")
	}
	return validatedImprove{
		in:           in,
		presets:      presets,
		note:         strings.TrimSpace(in.Instructions.Note),
		improvements: improvements,
	}, nil
}

func nonBlankTrimmed(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// finiteNumber coerces v the permissive way and rejects absent or
// non-finite values.
func finiteNumber(v sanitize.Value) (float64, bool) {
	if !v.Exists() {
		return 0, false
	}
	n := sanitize.Coerce(v)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// normalizeImprovementContext accepts a previous application strength
// evaluation. Scores must be present; improvements without a title or action
// are dropped and at least one must remain.
func normalizeImprovementContext(raw string) (ApplicationStrength, error) {
	v, err := sanitize.Parse(raw)
	if err != nil || !v.IsObject() {
		return ApplicationStrength{}, improveInvalid("improvementContext")
	}
	overall, ok := finiteNumber(v.Get("overallScore"))
	if !ok {
		return ApplicationStrength{}, improveInvalid("improvementContext.overallScore")
	}
	dims := v.Get("dimensionScores")
	if !dims.IsObject() {
		return ApplicationStrength{}, improveInvalid("improvementContext.dimensionScores")
	}
	var scores [4]float64
	for i, key := range []string{"atsReadiness", "clarityFocus", "targetedFitSignals", "evidenceStrength"} {
		n, ok := finiteNumber(dims.Get(key))
		if !ok {
			return ApplicationStrength{}, improveInvalid("improvementContext.dimensionScores.values")
		}
		scores[i] = n
	}

	improvements := []Improvement{}
	for _, item := range v.Get("topImprovements").Items() {
		if !item.IsObject() {
			continue
		}
		title := sanitize.Text(item.Get("title"))
		action := sanitize.Text(item.Get("action"))
		if title == "" && action == "" {
			continue
		}
		target := item.Get("target")
		doc := DocumentCV
		if sanitize.Text(target.Get("document")) == string(DocumentCoverLetter) {
			doc = DocumentCoverLetter
		}
		improvements = append(improvements, Improvement{
			Title:  title,
			Action: action,
			Impact: sanitize.Enum(item.Get("impact"), impacts, ImpactMedium),
			Target: ImprovementTarget{Document: doc, Anchor: sanitize.TextOr(target.Get("anchor"), defaultAnchor)},
		})
	}
	if len(improvements) == 0 {
		return ApplicationStrength{}, improveInvalid("improvementContext.topImprovements")
	}

	notes := v.Get("notes")
	return ApplicationStrength{
		OverallScore: sanitize.ClampScore(overall, 0, 100),
		DimensionScores: DimensionScores{
			AtsReadiness:       sanitize.ClampScore(scores[0], 0, 100),
			ClarityFocus:       sanitize.ClampScore(scores[1], 0, 100),
			TargetedFitSignals: sanitize.ClampScore(scores[2], 0, 100),
			EvidenceStrength:   sanitize.ClampScore(scores[3], 0, 100),
		},
		MissingSignals:  sanitize.Strings(v.Get("missingSignals")),
		TopImprovements: improvements,
		Notes: StrengthNotes{
			AtsNotes:         sanitize.Strings(notes.Get("atsNotes")),
			HumanReaderNotes: sanitize.Strings(notes.Get("humanReaderNotes")),
		},
	}, nil
}

func improvementSummary(a *ApplicationStrength) string {
	if a == nil {
		return fmt.Sprintf("overallScore: 0/100\nweakDimensions: none listed\nmissingSignals: none listed\npriorityActions:\n1. %s", defaultPriorityAction)
	}

	type dimension struct {
		key   string
		value int
	}
	dims := []dimension{
		{"atsReadiness", a.DimensionScores.AtsReadiness},
		{"clarityFocus", a.DimensionScores.ClarityFocus},
		{"targetedFitSignals", a.DimensionScores.TargetedFitSignals},
		{"evidenceStrength", a.DimensionScores.EvidenceStrength},
	}
	sort.SliceStable(dims, func(i, j int) bool { return dims[i].value < dims[j].value })
	var weak []string
	for i, d := range dims {
		if len(weak) == maxWeakDimensions {
			break
		}
		if d.value <= weakDimensionThreshold || i < 2 {
			weak = append(weak, d.key)
		}
	}

	var actions []string
	for _, imp := range a.TopImprovements {
		if len(actions) == maxPriorityActions {
			break
		}
		if act := strings.TrimSpace(imp.Action); act != "" {
			actions = append(actions, act)
		}
	}
	if len(actions) == 0 {
		actions = []string{defaultContextPriorityAction}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "overallScore: %d/100\n", a.OverallScore)
	fmt.Fprintf(&b, "weakDimensions: %s\n", joinOr(weak, "none listed"))
	fmt.Fprintf(&b, "missingSignals: %s\n", joinOr(a.MissingSignals, "none listed"))
	b.WriteString("priorityActions:\n" + numbered(actions))
	if len(a.Notes.HumanReaderNotes) > 0 {
		b.WriteString("\nreaderNotes:\n" + numbered(a.Notes.HumanReaderNotes))
	}
	return b.String()
}

func numbered(items []string) string {
	lines := make([]string, len(items))
	for i, s := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, s)
	}
	return strings.Join(lines, "\n")
}

func improvePrompt(v validatedImprove) string {
	instructions := append([]string(nil), v.presets...)
	if v.note != "" {
		instructions = append(instructions, v.note)
	}
	grounding := prompt.FormatInputContext(prompt.Context{
		Language:        v.in.Language,
		Profile:         v.in.Profile,
		Experiences:     v.in.Experiences,
		Stories:         v.in.Stories,
		JobDescription:  v.in.JobDescription,
		MatchingSummary: v.in.MatchingSummary,
		Company:         v.in.Company,
	})
	return fmt.Sprintf(`LANGUAGE:
%s

MATERIAL TYPE:
%s

MANDATORY USER IMPROVEMENT INSTRUCTIONS (HIGHEST PRIORITY):
%s

IMPROVEMENT CONTEXT (INTERNAL SUMMARY):
%s

CURRENT DOCUMENT:
"""
%s
"""

GROUNDING CONTEXT:
%s

MANDATORY COMPLIANCE CHECK (MUST SATISFY ALL):
%s

Rewrite the document accordingly and return only the final Markdown.`,
		v.in.Language, v.in.MaterialType, bulletLines(instructions),
		improvementSummary(v.improvements), v.in.CurrentMarkdown, grounding, numbered(instructions))
}

func checkImprovedMarkdown(doc string) error {
	if err := recovery.CheckMarkdown(doc); err != nil {
		return err
	}
	if len([]rune(doc)) < minImproveMarkdownLength {
		return errMarkdownTooShort
	}
	if strings.Contains(doc, "```") {
		return errors.New("document contains code fences")
	}
	if markdown.IsJSONShaped(doc) {
		return recovery.ErrJSONDocument
	}
	return nil
}
