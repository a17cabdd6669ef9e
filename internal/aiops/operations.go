package aiops

// Operation names, as exposed over HTTP, GraphQL, Lambda and the CLI.
const (
	OpParseCvText                 = "parseCvText"
	OpParseJobDescription         = "parseJobDescription"
	OpExtractExperienceBlocks     = "extractExperienceBlocks"
	OpGenerateStarStory           = "generateStarStory"
	OpGenerateAchievementsAndKpis = "generateAchievementsAndKpis"
	OpGeneratePersonalCanvas      = "generatePersonalCanvas"
	OpGenerateCompanyCanvas       = "generateCompanyCanvas"
	OpAnalyzeCompanyInfo          = "analyzeCompanyInfo"
	OpGenerateMatchingSummary     = "generateMatchingSummary"
	OpEvaluateApplicationStrength = "evaluateApplicationStrength"
	OpGenerateCvBlocks            = "generateCvBlocks"
	OpGenerateCv                  = "generateCv"
	OpGenerateCoverLetter         = "generateCoverLetter"
	OpGenerateSpeech              = "generateSpeech"
	OpImproveMaterial             = "improveMaterial"
)

// Validator notes recorded on the fallback trace.
const (
	noteDefaultConfidence   = "default_confidence"
	noteValidationFallbacks = "validation_fallbacks"
	noteDefaultSections     = "default_sections"
	noteDefaultExperiences  = "default_experiences"
)
