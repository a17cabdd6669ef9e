// Package model holds the caller-supplied records that AI operations read:
// profile, experiences, stories, canvases, job and company descriptions.
package model

import "strings"

// Language is the output language of an operation. Only English is supported.
type Language string

const LanguageEN Language = "en"

type Profile struct {
	FullName       string   `json:"fullName"`
	Headline       string   `json:"headline,omitempty"`
	Location       string   `json:"location,omitempty"`
	SeniorityLevel string   `json:"seniorityLevel,omitempty"`
	PrimaryEmail   string   `json:"primaryEmail,omitempty"`
	PrimaryPhone   string   `json:"primaryPhone,omitempty"`
	WorkPermitInfo string   `json:"workPermitInfo,omitempty"`
	SocialLinks    []string `json:"socialLinks,omitempty"`
	Goals          []string `json:"goals,omitempty"`
	Aspirations    []string `json:"aspirations,omitempty"`
	PersonalValues []string `json:"personalValues,omitempty"`
	Strengths      []string `json:"strengths,omitempty"`
	Interests      []string `json:"interests,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	Certifications []string `json:"certifications,omitempty"`
	Languages      []string `json:"languages,omitempty"`
}

// ExperienceType groups experiences in generated documents.
type ExperienceType string

const (
	ExperienceWork      ExperienceType = "work"
	ExperienceEducation ExperienceType = "education"
	ExperienceVolunteer ExperienceType = "volunteer"
	ExperienceProject   ExperienceType = "project"
)

type Experience struct {
	ID               string         `json:"id,omitempty"`
	Title            string         `json:"title"`
	CompanyName      string         `json:"companyName"`
	StartDate        string         `json:"startDate,omitempty"`
	EndDate          string         `json:"endDate,omitempty"`
	IsCurrent        bool           `json:"isCurrent,omitempty"`
	ExperienceType   ExperienceType `json:"experienceType"`
	Responsibilities []string       `json:"responsibilities"`
	Tasks            []string       `json:"tasks"`
	Achievements     []string       `json:"achievements,omitempty"`
	KPISuggestions   []string       `json:"kpiSuggestions,omitempty"`
}

// Group returns the experience type, treating an empty type as work.
func (e Experience) Group() ExperienceType {
	switch ExperienceType(strings.ToLower(strings.TrimSpace(string(e.ExperienceType)))) {
	case ExperienceEducation:
		return ExperienceEducation
	case ExperienceVolunteer:
		return ExperienceVolunteer
	case ExperienceProject:
		return ExperienceProject
	default:
		return ExperienceWork
	}
}

// Story is a STAR story attached to an experience.
type Story struct {
	ExperienceID string   `json:"experienceId,omitempty"`
	Title        string   `json:"title,omitempty"`
	Situation    string   `json:"situation,omitempty"`
	Task         string   `json:"task,omitempty"`
	Action       string   `json:"action,omitempty"`
	Result       string   `json:"result,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

type PersonalCanvas struct {
	CustomerSegments      []string `json:"customerSegments,omitempty"`
	ValueProposition      []string `json:"valueProposition,omitempty"`
	Channels              []string `json:"channels,omitempty"`
	CustomerRelationships []string `json:"customerRelationships,omitempty"`
	KeyActivities         []string `json:"keyActivities,omitempty"`
	KeyResources          []string `json:"keyResources,omitempty"`
	KeyPartners           []string `json:"keyPartners,omitempty"`
	CostStructure         []string `json:"costStructure,omitempty"`
	RevenueStreams        []string `json:"revenueStreams,omitempty"`
}

type JobDescription struct {
	Title            string   `json:"title"`
	SeniorityLevel   string   `json:"seniorityLevel"`
	RoleSummary      string   `json:"roleSummary"`
	Responsibilities []string `json:"responsibilities"`
	RequiredSkills   []string `json:"requiredSkills"`
	Behaviours       []string `json:"behaviours"`
	SuccessCriteria  []string `json:"successCriteria"`
	ExplicitPains    []string `json:"explicitPains"`
	AtsKeywords      []string `json:"atsKeywords"`
}

type CompanyProfile struct {
	CompanyName      string   `json:"companyName"`
	Industry         string   `json:"industry"`
	SizeRange        string   `json:"sizeRange"`
	Website          string   `json:"website"`
	Description      string   `json:"description"`
	ProductsServices []string `json:"productsServices"`
	TargetMarkets    []string `json:"targetMarkets"`
	CustomerSegments []string `json:"customerSegments"`
	RawNotes         string   `json:"rawNotes"`
}

// Recommendation is the apply decision of a matching summary.
type Recommendation string

const (
	RecommendApply Recommendation = "apply"
	RecommendMaybe Recommendation = "maybe"
	RecommendSkip  Recommendation = "skip"
)

// Recommendations lists every valid Recommendation.
var Recommendations = []Recommendation{RecommendApply, RecommendMaybe, RecommendSkip}

// ScoreBreakdownContext uses pointers so absent scores can be told from zero.
type ScoreBreakdownContext struct {
	SkillFit      *float64 `json:"skillFit"`
	ExperienceFit *float64 `json:"experienceFit"`
	InterestFit   *float64 `json:"interestFit"`
	Edge          *float64 `json:"edge"`
}

// MatchingSummaryContext is a previously generated matching summary passed
// back in as tailoring context.
type MatchingSummaryContext struct {
	OverallScore         *float64               `json:"overallScore"`
	ScoreBreakdown       *ScoreBreakdownContext `json:"scoreBreakdown"`
	Recommendation       Recommendation         `json:"recommendation"`
	ReasoningHighlights  []string               `json:"reasoningHighlights"`
	StrengthsForThisRole []string               `json:"strengthsForThisRole"`
	SkillMatch           []string               `json:"skillMatch"`
	RiskyPoints          []string               `json:"riskyPoints"`
	ImpactOpportunities  []string               `json:"impactOpportunities"`
	TailoringTips        []string               `json:"tailoringTips"`
}

// Valid reports whether the summary carries every score and a known
// recommendation.
func (m *MatchingSummaryContext) Valid() bool {
	if m == nil || m.OverallScore == nil || m.ScoreBreakdown == nil {
		return false
	}
	b := m.ScoreBreakdown
	if b.SkillFit == nil || b.ExperienceFit == nil || b.InterestFit == nil || b.Edge == nil {
		return false
	}
	for _, r := range Recommendations {
		if m.Recommendation == r {
			return true
		}
	}
	return false
}
