package aiops

import (
	"career-backend/internal/aiops/model"
	"career-backend/internal/aiops/prompt"
)

// GroundingInput is the caller data that generation operations ground their
// prompts on.
type GroundingInput struct {
	Language        model.Language                `json:"language,omitempty"`
	Profile         model.Profile                 `json:"profile"`
	Experiences     []model.Experience            `json:"experiences"`
	Stories         []model.Story                 `json:"stories,omitempty"`
	PersonalCanvas  *model.PersonalCanvas         `json:"personalCanvas,omitempty"`
	JobDescription  *model.JobDescription         `json:"jobDescription,omitempty"`
	MatchingSummary *model.MatchingSummaryContext `json:"matchingSummary,omitempty"`
	Company         *model.CompanyProfile         `json:"company,omitempty"`
}

func (in GroundingInput) promptContext() prompt.Context {
	return prompt.Context{
		Language:        in.Language,
		Profile:         &in.Profile,
		Experiences:     in.Experiences,
		Stories:         in.Stories,
		PersonalCanvas:  in.PersonalCanvas,
		JobDescription:  in.JobDescription,
		MatchingSummary: in.MatchingSummary,
		Company:         in.Company,
	}
}

// untailored drops job, company and matching context.
func (in GroundingInput) untailored() GroundingInput {
	in.JobDescription = nil
	in.MatchingSummary = nil
	in.Company = nil
	return in
}

func (in GroundingInput) logFields() map[string]any {
	fields := map[string]any{
		"userName":           in.Profile.FullName,
		"experienceCount":    len(in.Experiences),
		"storyCount":         len(in.Stories),
		"hasJobDescription":  in.JobDescription != nil,
		"hasMatchingSummary": in.MatchingSummary != nil,
		"hasCompany":         in.Company != nil,
	}
	if in.JobDescription != nil {
		fields["jobTitle"] = in.JobDescription.Title
	}
	return fields
}
