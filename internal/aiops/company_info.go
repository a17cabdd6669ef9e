package aiops

import (
	"context"
	"fmt"
	"strings"

	"career-backend/internal/aiops/model"
	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
)

const companyInfoSystemPrompt = `You are a market intelligence analyst. Extract only explicit facts about the company.
Return JSON describing the company profile (identity + offerings).
Never invent data. Leave strings empty and arrays [] when not present.`

const companyInfoSchema = `{
  "companyProfile": {
    "companyName": "string",
    "industry": "string",
    "sizeRange": "string",
    "website": "string",
    "productsServices": ["string"],
    "targetMarkets": ["string"],
    "customerSegments": ["string"],
    "description": "string"
  },
  "confidence": 0.8
}`

const defaultCompanyInfoConfidence = 0.55

type JobContext struct {
	Title   string `json:"title,omitempty"`
	Summary string `json:"summary,omitempty"`
}

type CompanyInfoInput struct {
	CompanyName string      `json:"companyName"`
	Industry    string      `json:"industry,omitempty"`
	Size        string      `json:"size,omitempty"`
	RawText     string      `json:"rawText"`
	JobContext  *JobContext `json:"jobContext,omitempty"`
}

type CompanyAnalysis struct {
	CompanyProfile model.CompanyProfile `json:"companyProfile"`
	Confidence     float64              `json:"confidence"`
}

// AnalyzeCompanyInfo extracts a company profile from research notes. The
// trimmed source text is kept as the profile's raw notes.
func (s *Service) AnalyzeCompanyInfo(ctx context.Context, in CompanyInfoInput) (CompanyAnalysis, error) {
	return handle(ctx, OpAnalyzeCompanyInfo, in,
		func(in CompanyInfoInput) map[string]any {
			return map[string]any{
				"companyName": in.CompanyName,
				"preview":     TruncateForLog(in.RawText),
			}
		},
		func(ctx context.Context, in CompanyInfoInput) (CompanyAnalysis, error) {
			rawText := strings.TrimSpace(in.RawText)
			if rawText == "" {
				return CompanyAnalysis{}, invalidInput(OpAnalyzeCompanyInfo, "rawText")
			}
			out, err := recovery.InvokeJSON(ctx, s.ctrl, recovery.JSONRequest[CompanyAnalysis]{
				Operation:    OpAnalyzeCompanyInfo,
				SystemPrompt: companyInfoSystemPrompt,
				UserPrompt:   companyInfoPrompt(in),
				Schema:       companyInfoSchema,
				Validate: func(v sanitize.Value) (CompanyAnalysis, error) {
					return validateCompanyAnalysis(v), nil
				},
			})
			if err != nil {
				return CompanyAnalysis{}, err
			}
			out.CompanyProfile.RawNotes = rawText
			return out, nil
		})
}

func companyInfoPrompt(in CompanyInfoInput) string {
	jobSection := ""
	if in.JobContext != nil {
		jobSection = fmt.Sprintf("Job Context:\nTitle: %s\nSummary: %s", in.JobContext.Title, in.JobContext.Summary)
	}
	return fmt.Sprintf(`Analyze the following company information. Extract only explicitly stated facts.

Company Name: %s
Industry: %s
Size: %s
%s

Source:
"""
%s
"""

Return JSON matching:
%s`, in.CompanyName, in.Industry, in.Size, jobSection, in.RawText, companyInfoSchema)
}

func validateCompanyAnalysis(v sanitize.Value) CompanyAnalysis {
	p := v.Get("companyProfile")
	list := func(key string) []string {
		return sanitize.List(p.Get(key), sanitize.ListOptions{Dedupe: true})
	}
	return CompanyAnalysis{
		CompanyProfile: model.CompanyProfile{
			CompanyName:      sanitize.Text(p.Get("companyName")),
			Industry:         sanitize.Text(p.Get("industry")),
			SizeRange:        sanitize.Text(p.Get("sizeRange")),
			Website:          sanitize.Text(p.Get("website")),
			Description:      sanitize.Text(p.Get("description")),
			ProductsServices: list("productsServices"),
			TargetMarkets:    list("targetMarkets"),
			CustomerSegments: list("customerSegments"),
			RawNotes:         sanitize.Text(p.Get("rawNotes")),
		},
		Confidence: sanitize.Confidence(v.Get("confidence"), defaultCompanyInfoConfidence),
	}
}
