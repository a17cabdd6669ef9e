package aiops

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"career-backend/internal/aiops/model"
	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
	"career-backend/internal/shared/telemetry"
)

const strengthSystemPrompt = `You are an application evaluator. You assess how strong a candidate's application is for a specific job, using ONLY:
- the structured job description fields provided
- the CV text provided
- the optional cover letter text provided

Return ONLY valid JSON with no markdown wrappers.

HARD RULES:
- Never invent facts about the candidate, company, or role.
- Do not claim the candidate has skills/experience unless the provided CV/letter text explicitly contains them.
- Output MUST match the schema exactly: all keys must exist, correct types only.
- Use "" for unknown strings, [] for empty arrays. Never output null.
- Use concise, actionable bullets (each <= 160 characters).

EVALUATION DIMENSIONS (0..100):
1) atsReadiness: likelihood the document passes automated screening.
2) keywordCoverage: presence of job-required skills/terms in the materials.
3) clarityFocus: clarity, specificity, and low fluff.
4) targetedFitSignals: tailoring to this role.
5) evidenceStrength: measurable outcomes and credible proof.

Return at least 2 improvements, preferably 3. If you cannot infer a section, use target.anchor = "general".`

const strengthSchema = `{
  "overallScore": [0-100],
  "dimensionScores": {
    "atsReadiness": [0-100],
    "keywordCoverage": [0-100],
    "clarityFocus": [0-100],
    "targetedFitSignals": [0-100],
    "evidenceStrength": [0-100]
  },
  "decision": {
    "label": "strong|borderline|risky",
    "readyToApply": true,
    "rationaleBullets": ["string"]
  },
  "missingSignals": ["string"],
  "topImprovements": [
    {
      "title": "string",
      "action": "string",
      "impact": "high|medium|low",
      "target": {
        "document": "cv|coverLetter",
        "anchor": "string"
      }
    }
  ],
  "notes": {
    "atsNotes": ["string"],
    "humanReaderNotes": ["string"]
  }
}`

const (
	rationaleMin          = 2
	rationaleMax          = 5
	strengthArrayMax      = 8
	maxBulletLength       = 160
	anchorMaxLength       = 80
	minImprovements       = 2
	preferredImprovements = 3

	strongScoreMin     = 75
	strongWeakestMin   = 55
	borderlineScoreMin = 50
	dimensionCount     = 5

	defaultImprovementTitle  = "Improve application quality"
	defaultImprovementAction = "Refine wording to better match role requirements and add concrete evidence."
	defaultAnchor            = "general"
)

type DecisionLabel string

const (
	DecisionStrong     DecisionLabel = "strong"
	DecisionBorderline DecisionLabel = "borderline"
	DecisionRisky      DecisionLabel = "risky"
)

type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

var impacts = []Impact{ImpactHigh, ImpactMedium, ImpactLow}

type TargetDocument string

const (
	DocumentCV          TargetDocument = "cv"
	DocumentCoverLetter TargetDocument = "coverLetter"
)

var rationaleFillers = []string{
	"Keyword coverage and evidence depth are limiting current application strength.",
	"Targeted edits can improve clarity and role alignment before applying.",
}

const rationaleLastFiller = "Refine key sections for stronger fit signals."

var defaultImprovements = []Improvement{
	{
		Title:  "Clarify professional summary",
		Action: "Add a focused 2-3 line summary aligned to this role and include core required skills.",
		Impact: ImpactHigh,
		Target: ImprovementTarget{Document: DocumentCV, Anchor: "summary"},
	},
	{
		Title:  "Strengthen skills alignment",
		Action: "Prioritize role-relevant skills and tools in a dedicated skills section using job terminology.",
		Impact: ImpactHigh,
		Target: ImprovementTarget{Document: DocumentCV, Anchor: "skills"},
	},
	{
		Title:  "Add measurable evidence",
		Action: "Rewrite recent experience bullets with measurable outcomes to prove impact and ownership for this role.",
		Impact: ImpactMedium,
		Target: ImprovementTarget{Document: DocumentCV, Anchor: "experience"},
	},
}

type ApplicationStrengthInput struct {
	Job             model.JobDescription `json:"job"`
	CVText          string               `json:"cvText"`
	CoverLetterText string               `json:"coverLetterText"`
	Language        model.Language       `json:"language"`
}

func (in ApplicationStrengthInput) hasCoverLetter() bool {
	return strings.TrimSpace(in.CoverLetterText) != ""
}

type DimensionScores struct {
	AtsReadiness       int `json:"atsReadiness"`
	KeywordCoverage    int `json:"keywordCoverage"`
	ClarityFocus       int `json:"clarityFocus"`
	TargetedFitSignals int `json:"targetedFitSignals"`
	EvidenceStrength   int `json:"evidenceStrength"`
}

func (d DimensionScores) weakest() int {
	return min(d.AtsReadiness, d.KeywordCoverage, d.ClarityFocus, d.TargetedFitSignals, d.EvidenceStrength)
}

func (d DimensionScores) average() int {
	sum := d.AtsReadiness + d.KeywordCoverage + d.ClarityFocus + d.TargetedFitSignals + d.EvidenceStrength
	return sanitize.ClampScore(float64(sum)/dimensionCount, 0, 100)
}

type Decision struct {
	Label            DecisionLabel `json:"label"`
	ReadyToApply     bool          `json:"readyToApply"`
	RationaleBullets []string      `json:"rationaleBullets"`
}

type ImprovementTarget struct {
	Document TargetDocument `json:"document"`
	Anchor   string         `json:"anchor"`
}

type Improvement struct {
	Title  string            `json:"title"`
	Action string            `json:"action"`
	Impact Impact            `json:"impact"`
	Target ImprovementTarget `json:"target"`
}

type StrengthNotes struct {
	AtsNotes         []string `json:"atsNotes"`
	HumanReaderNotes []string `json:"humanReaderNotes"`
}

type ApplicationStrength struct {
	OverallScore    int             `json:"overallScore"`
	DimensionScores DimensionScores `json:"dimensionScores"`
	Decision        Decision        `json:"decision"`
	MissingSignals  []string        `json:"missingSignals"`
	TopImprovements []Improvement   `json:"topImprovements"`
	Notes           StrengthNotes   `json:"notes"`
	IsFallback      bool            `json:"isFallback"`
}

// EvaluateApplicationStrength rates a CV (and optional cover letter) against a
// job. The decision label is always derived from the scores, never taken from
// the model.
func (s *Service) EvaluateApplicationStrength(ctx context.Context, in ApplicationStrengthInput) (ApplicationStrength, error) {
	return handle(ctx, OpEvaluateApplicationStrength, in,
		func(in ApplicationStrengthInput) map[string]any {
			return map[string]any{
				"jobTitle":       in.Job.Title,
				"language":       in.Language,
				"cvPreview":      TruncateForLog(in.CVText),
				"hasCoverLetter": in.hasCoverLetter(),
			}
		},
		func(ctx context.Context, in ApplicationStrengthInput) (ApplicationStrength, error) {
			if strings.TrimSpace(in.CVText) == "" {
				return ApplicationStrength{}, invalidInput(OpEvaluateApplicationStrength, "cvText")
			}
			hasLetter := in.hasCoverLetter()
			out, err := recovery.InvokeJSON(ctx, s.ctrl, recovery.JSONRequest[ApplicationStrength]{
				Operation:    OpEvaluateApplicationStrength,
				SystemPrompt: strengthSystemPrompt,
				UserPrompt:   strengthPrompt(in),
				Schema:       strengthSchema,
				Validate: func(v sanitize.Value) (ApplicationStrength, error) {
					return finalizeStrength(v, hasLetter), nil
				},
			})
			if err != nil {
				if !fallbackAllowed(err) {
					return ApplicationStrength{}, err
				}
				telemetry.Warn("ai.operation.fallback", map[string]any{
					"operation": OpEvaluateApplicationStrength,
					"reason":    err.Error(),
				})
				recovery.Note(ctx, recovery.FallbackPayload)
				return fallbackStrength(hasLetter), nil
			}
			return out, nil
		})
}

func strengthPrompt(in ApplicationStrengthInput) string {
	job, _ := json.MarshalIndent(in.Job, "", "  ")
	lang := in.Language
	if lang == "" {
		lang = model.LanguageEN
	}
	return fmt.Sprintf(`Evaluate the strength of this application for the given job.

Job (structured):
%s

CV text:
%s

Cover letter text (optional; may be empty string):
%s

Output language: %s

Return a JSON object with this exact structure:
%s

Important:
- Use only explicit evidence from the provided CV/cover letter text.
- If coverLetterText is empty: set document targets to "cv" and avoid letter-only criticism.
- rationaleBullets: 2 to 5 bullets, concise.
- anchor should be a common section label when possible (e.g., "summary", "skills", "experience", "education", "projects", "coverLetterBody", "general").
- Never output null.`, job, in.CVText, in.CoverLetterText, lang, strengthSchema)
}

func finalizeStrength(v sanitize.Value, hasCoverLetter bool) ApplicationStrength {
	d := v.Get("dimensionScores")
	dims := DimensionScores{
		AtsReadiness:       sanitize.Score(d.Get("atsReadiness"), 0, 100),
		KeywordCoverage:    sanitize.Score(d.Get("keywordCoverage"), 0, 100),
		ClarityFocus:       sanitize.Score(d.Get("clarityFocus"), 0, 100),
		TargetedFitSignals: sanitize.Score(d.Get("targetedFitSignals"), 0, 100),
		EvidenceStrength:   sanitize.Score(d.Get("evidenceStrength"), 0, 100),
	}

	overall := dims.average()
	if raw := v.Get("overallScore"); !raw.IsNull() {
		overall = sanitize.Score(raw, 0, 100)
	}

	label := deriveDecision(overall, dims.weakest())
	notes := v.Get("notes")
	return ApplicationStrength{
		OverallScore:    overall,
		DimensionScores: dims,
		Decision: Decision{
			Label:            label,
			ReadyToApply:     label == DecisionStrong,
			RationaleBullets: ensureRationale(bullets(v.Get("decision").Get("rationaleBullets"), rationaleMax)),
		},
		MissingSignals:  bullets(v.Get("missingSignals"), strengthArrayMax),
		TopImprovements: ensureMinImprovements(sanitizeImprovements(v.Get("topImprovements"), hasCoverLetter), hasCoverLetter, minImprovements),
		Notes: StrengthNotes{
			AtsNotes:         bullets(notes.Get("atsNotes"), strengthArrayMax),
			HumanReaderNotes: bullets(notes.Get("humanReaderNotes"), strengthArrayMax),
		},
	}
}

func deriveDecision(overall, weakest int) DecisionLabel {
	switch {
	case overall >= strongScoreMin && weakest >= strongWeakestMin:
		return DecisionStrong
	case overall >= borderlineScoreMin:
		return DecisionBorderline
	default:
		return DecisionRisky
	}
}

func bullets(v sanitize.Value, max int) []string {
	return sanitize.List(v, sanitize.ListOptions{Max: max, MaxLen: maxBulletLength})
}

func ensureRationale(items []string) []string {
	for len(items) < rationaleMin {
		if len(items) < len(rationaleFillers) {
			items = append(items, rationaleFillers[len(items)])
			continue
		}
		items = append(items, rationaleLastFiller)
	}
	return items
}

func sanitizeImprovements(v sanitize.Value, hasCoverLetter bool) []Improvement {
	out := []Improvement{}
	for _, item := range v.Items() {
		title := sanitize.Truncate(sanitize.Text(item.Get("title")), maxBulletLength)
		action := sanitize.Truncate(sanitize.Text(item.Get("action")), maxBulletLength)
		if title == "" && action == "" {
			continue
		}
		if title == "" {
			title = defaultImprovementTitle
		}
		if action == "" {
			action = defaultImprovementAction
		}
		target := item.Get("target")
		doc := DocumentCV
		if sanitize.Text(target.Get("document")) == string(DocumentCoverLetter) && hasCoverLetter {
			doc = DocumentCoverLetter
		}
		anchor := sanitize.Truncate(sanitize.Text(target.Get("anchor")), anchorMaxLength)
		if anchor == "" {
			anchor = defaultAnchor
		}
		out = append(out, Improvement{
			Title:  title,
			Action: action,
			Impact: sanitize.Enum(item.Get("impact"), impacts, ImpactMedium),
			Target: ImprovementTarget{Document: doc, Anchor: anchor},
		})
	}
	return out
}

// ensureMinImprovements pads the list from defaultImprovements, skipping any
// whose (document, anchor) is already present, then caps it.
func ensureMinImprovements(items []Improvement, hasCoverLetter bool, minCount int) []Improvement {
	if !hasCoverLetter {
		for i := range items {
			items[i].Target.Document = DocumentCV
			if items[i].Target.Anchor == "" {
				items[i].Target.Anchor = defaultAnchor
			}
		}
	}
	for _, d := range defaultImprovements {
		if len(items) >= minCount {
			break
		}
		exists := false
		for _, it := range items {
			if it.Target == d.Target {
				exists = true
				break
			}
		}
		if !exists {
			items = append(items, d)
		}
	}
	if limit := max(minCount, preferredImprovements); len(items) > limit {
		items = items[:limit]
	}
	return items
}

func fallbackStrength(hasCoverLetter bool) ApplicationStrength {
	raw, _ := json.Marshal(ApplicationStrength{
		Decision: Decision{
			Label: DecisionRisky,
			RationaleBullets: []string{
				"Evaluation failed due to unstable model output.",
				"Retry after reviewing CV and job data completeness.",
			},
		},
		MissingSignals:  []string{"Insufficient reliable output to assess missing signals."},
		TopImprovements: []Improvement{},
		Notes: StrengthNotes{
			AtsNotes:         []string{"Fallback response used after validation failure."},
			HumanReaderNotes: []string{"Run evaluation again to get role-specific recommendations."},
		},
	})
	v, _ := sanitize.Parse(string(raw))
	out := finalizeStrength(v, hasCoverLetter)
	out.IsFallback = true
	return out
}
