package aiops

import (
	"context"
	"encoding/json"

	"career-backend/internal/aiops/model"
	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
)

const companyCanvasSystemPrompt = `You are a strategy consultant building a Business Model Canvas.
Use only the provided company profile and notes.
Return concise bullet points (<= 20 words) for each of the 9 canonical blocks.
Leave blocks empty when the source contains no data.`

const companyCanvasSchema = `{
  "companyName": "string",
  "customerSegments": ["string"],
  "valuePropositions": ["string"],
  "channels": ["string"],
  "customerRelationships": ["string"],
  "revenueStreams": ["string"],
  "keyResources": ["string"],
  "keyActivities": ["string"],
  "keyPartners": ["string"],
  "costStructure": ["string"],
  "analysisSummary": "string",
  "confidence": 0.8
}`

const (
	maxCanvasBlockEntries   = 8
	defaultCanvasConfidence = 0.6
)

type CompanyCanvasInput struct {
	CompanyProfile  model.CompanyProfile `json:"companyProfile"`
	AdditionalNotes []string             `json:"additionalNotes,omitempty"`
}

type CompanyCanvas struct {
	CompanyName           string   `json:"companyName"`
	CustomerSegments      []string `json:"customerSegments"`
	ValuePropositions     []string `json:"valuePropositions"`
	Channels              []string `json:"channels"`
	CustomerRelationships []string `json:"customerRelationships"`
	RevenueStreams        []string `json:"revenueStreams"`
	KeyResources          []string `json:"keyResources"`
	KeyActivities         []string `json:"keyActivities"`
	KeyPartners           []string `json:"keyPartners"`
	CostStructure         []string `json:"costStructure"`
	AnalysisSummary       string   `json:"analysisSummary"`
	Confidence            float64  `json:"confidence"`
}

// GenerateCompanyCanvas builds a business model canvas for a company profile.
func (s *Service) GenerateCompanyCanvas(ctx context.Context, in CompanyCanvasInput) (CompanyCanvas, error) {
	return handle(ctx, OpGenerateCompanyCanvas, in,
		func(in CompanyCanvasInput) map[string]any {
			return map[string]any{
				"companyName":  in.CompanyProfile.CompanyName,
				"notesPreview": previewJSON(notesOrEmpty(in.AdditionalNotes), logPreviewLength),
			}
		},
		func(ctx context.Context, in CompanyCanvasInput) (CompanyCanvas, error) {
			profile, _ := json.MarshalIndent(in.CompanyProfile, "", "  ")
			notes, _ := json.MarshalIndent(notesOrEmpty(in.AdditionalNotes), "", "  ")
			user := "Build the Business Model Canvas using only the provided structured data.\n\nCompany Profile:\n" +
				string(profile) + "\n\nAdditional Notes:\n" + string(notes) + "\n\nReturn ONLY JSON:\n" + companyCanvasSchema
			return recovery.InvokeJSON(ctx, s.ctrl, recovery.JSONRequest[CompanyCanvas]{
				Operation:    OpGenerateCompanyCanvas,
				SystemPrompt: companyCanvasSystemPrompt,
				UserPrompt:   user,
				Schema:       companyCanvasSchema,
				Validate: func(v sanitize.Value) (CompanyCanvas, error) {
					return validateCompanyCanvas(v), nil
				},
			})
		})
}

func notesOrEmpty(notes []string) []string {
	if notes == nil {
		return []string{}
	}
	return notes
}

func validateCompanyCanvas(v sanitize.Value) CompanyCanvas {
	block := func(key string) []string {
		return sanitize.List(v.Get(key), sanitize.ListOptions{Max: maxCanvasBlockEntries, Dedupe: true})
	}
	return CompanyCanvas{
		CompanyName:           sanitize.Text(v.Get("companyName")),
		CustomerSegments:      block("customerSegments"),
		ValuePropositions:     block("valuePropositions"),
		Channels:              block("channels"),
		CustomerRelationships: block("customerRelationships"),
		RevenueStreams:        block("revenueStreams"),
		KeyResources:          block("keyResources"),
		KeyActivities:         block("keyActivities"),
		KeyPartners:           block("keyPartners"),
		CostStructure:         block("costStructure"),
		AnalysisSummary:       sanitize.Text(v.Get("analysisSummary")),
		Confidence:            sanitize.Confidence(v.Get("confidence"), defaultCanvasConfidence),
	}
}
