package aiops

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Runner decodes JSON arguments and runs one operation.
type Runner func(ctx context.Context, s *Service, args json.RawMessage) (any, error)

var registry = map[string]Runner{
	OpParseCvText:                 runner(OpParseCvText, (*Service).ParseCVText),
	OpParseJobDescription:         runner(OpParseJobDescription, (*Service).ParseJobDescription),
	OpExtractExperienceBlocks:     runner(OpExtractExperienceBlocks, (*Service).ExtractExperienceBlocks),
	OpGenerateStarStory:           runner(OpGenerateStarStory, (*Service).GenerateStarStory),
	OpGenerateAchievementsAndKpis: runner(OpGenerateAchievementsAndKpis, (*Service).GenerateAchievementsAndKpis),
	OpGeneratePersonalCanvas:      runner(OpGeneratePersonalCanvas, (*Service).GeneratePersonalCanvas),
	OpGenerateCompanyCanvas:       runner(OpGenerateCompanyCanvas, (*Service).GenerateCompanyCanvas),
	OpAnalyzeCompanyInfo:          runner(OpAnalyzeCompanyInfo, (*Service).AnalyzeCompanyInfo),
	OpGenerateMatchingSummary:     runner(OpGenerateMatchingSummary, (*Service).GenerateMatchingSummary),
	OpEvaluateApplicationStrength: runner(OpEvaluateApplicationStrength, (*Service).EvaluateApplicationStrength),
	OpGenerateCvBlocks:            runner(OpGenerateCvBlocks, (*Service).GenerateCvBlocks),
	OpGenerateCv:                  runner(OpGenerateCv, (*Service).GenerateCv),
	OpGenerateCoverLetter:         runner(OpGenerateCoverLetter, (*Service).GenerateCoverLetter),
	OpGenerateSpeech:              runner(OpGenerateSpeech, (*Service).GenerateSpeech),
	OpImproveMaterial:             runner(OpImproveMaterial, (*Service).ImproveMaterial),
}

func runner[In, Out any](op string, fn func(*Service, context.Context, In) (Out, error)) Runner {
	return func(ctx context.Context, s *Service, args json.RawMessage) (any, error) {
		var in In
		if len(args) > 0 && string(args) != "null" {
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, &InvalidInputError{Operation: op, Field: "arguments", Err: err}
			}
		}
		return fn(s, ctx, in)
	}
}

// Operations lists the registered operation names in sorted order.
func Operations() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether op is a registered operation.
func Known(op string) bool {
	_, ok := registry[op]
	return ok
}

// Run decodes args into the input type of op and runs it.
func (s *Service) Run(ctx context.Context, op string, args json.RawMessage) (any, error) {
	r, ok := registry[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	return r(ctx, s, args)
}
