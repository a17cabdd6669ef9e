package aiops

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"career-backend/internal/aiops/model"
	"career-backend/internal/aiops/recovery"
	"career-backend/internal/llm"
	"career-backend/internal/llm/llmtest"
	"career-backend/internal/shared/metrics"
)

const longCV = `# Jane Smith

## Summary

Backend engineer with eight years of experience building payment systems in Go and PostgreSQL.

## Experience

- Led the migration of the billing platform to event-driven services, cutting invoice latency.
- Mentored four engineers and introduced contract testing across teams.`

func groundingInput() GroundingInput {
	return GroundingInput{
		Language: model.LanguageEN,
		Profile: model.Profile{
			FullName: "Jane Smith",
			Headline: "Backend engineer",
			Skills:   []string{"Go", "PostgreSQL"},
		},
		Experiences: []model.Experience{{
			ID:             "exp-1",
			Title:          "Senior Engineer",
			CompanyName:    "Acme Payments",
			StartDate:      "2021-01",
			IsCurrent:      true,
			ExperienceType: model.ExperienceWork,
		}},
		JobDescription: &model.JobDescription{Title: "Staff Ledger Engineer", RequiredSkills: []string{"Go", "Kafka"}},
	}
}

func validSummaryContext() *model.MatchingSummaryContext {
	return &model.MatchingSummaryContext{
		OverallScore: floatPtr(72),
		ScoreBreakdown: &model.ScoreBreakdownContext{
			SkillFit:      floatPtr(38),
			ExperienceFit: floatPtr(22),
			InterestFit:   floatPtr(6),
			Edge:          floatPtr(6),
		},
		Recommendation: model.RecommendMaybe,
		TailoringTips:  []string{"Lead with ledger work"},
	}
}

func TestParseCVTextRejectsBlankInput(t *testing.T) {
	gw := llmtest.Texts()
	_, err := newTestService(gw).ParseCVText(context.Background(), ParseCVInput{CVText: "  \n"})

	var invalid *InvalidInputError
	if !errors.As(err, &invalid) || invalid.Field != "cvText" {
		t.Fatalf("expected InvalidInputError for cvText, got %v", err)
	}
	if gw.CallCount() != 0 {
		t.Fatalf("invalid input must not reach the model, got %d calls", gw.CallCount())
	}
}

func TestParseCVTextRetryEscalation(t *testing.T) {
	gw := llmtest.Texts(
		"Here are the sections you asked for: experiences and skills.",
		"```json\n{\"sections\": {\"skills\": [\"Go\", \" \", \"SQL\"]}, \"confidence\": 1.7}\n```",
	)
	got, err := newTestService(gw).ParseCVText(context.Background(), ParseCVInput{CVText: longCV})
	if err != nil {
		t.Fatalf("ParseCVText: %v", err)
	}
	if gw.CallCount() != 2 {
		t.Fatalf("expected exactly two gateway calls, got %d", gw.CallCount())
	}
	if gw.Calls[1].Temperature != recovery.DefaultRetryTemperature || !strings.Contains(gw.Calls[1].UserPrompt, "CRITICAL: Return ONLY valid JSON") {
		t.Fatalf("unexpected retry invocation %+v", gw.Calls[1])
	}
	if len(got.Sections.Skills) != 2 || got.Confidence != 1 {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.Sections.Experiences == nil {
		t.Fatalf("absent lists should be empty, not nil")
	}
}

func TestParseCVTextUnstable(t *testing.T) {
	gw := llmtest.Texts("not json", "still not json")
	_, err := newTestService(gw).ParseCVText(context.Background(), ParseCVInput{CVText: longCV})

	var unstable *recovery.UnstableModelOutputError
	if !errors.As(err, &unstable) {
		t.Fatalf("expected UnstableModelOutputError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "AI cannot produce a stable answer. Last error:") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestGatewayErrorPropagatesWithoutRetry(t *testing.T) {
	boom := errors.New("connection reset")
	gw := &llmtest.Scripted{Replies: []llmtest.Reply{{Err: boom}}}
	_, err := newTestService(gw).ParseCVText(context.Background(), ParseCVInput{CVText: longCV})
	if !errors.Is(err, boom) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if gw.CallCount() != 1 {
		t.Fatalf("gateway errors are not retried here, got %d calls", gw.CallCount())
	}
}

func TestFallbackOperationsAbsorbGatewayErrors(t *testing.T) {
	throttled := func() *llmtest.Scripted {
		return &llmtest.Scripted{Replies: []llmtest.Reply{{Err: &llm.GatewayError{Reason: llm.ReasonTransport, Err: errors.New("ThrottlingException")}}}}
	}

	summary, err := newTestService(throttled()).GenerateMatchingSummary(context.Background(), groundingInput())
	if err != nil || !summary.NeedsUpdate {
		t.Fatalf("matching summary should fall back, got %+v, %v", summary, err)
	}

	strength, err := newTestService(throttled()).EvaluateApplicationStrength(context.Background(), ApplicationStrengthInput{
		Job:    model.JobDescription{Title: "Staff Ledger Engineer"},
		CVText: longCV,
	})
	if err != nil || !strength.IsFallback {
		t.Fatalf("application strength should fall back, got %+v, %v", strength, err)
	}

	speech, err := newTestService(throttled()).GenerateSpeech(context.Background(), groundingInput())
	if err != nil || !speech.IsFallback {
		t.Fatalf("speech should fall back, got %+v, %v", speech, err)
	}
}

func TestFallbackOperationsKeepInputErrors(t *testing.T) {
	gw := llmtest.Texts()
	_, err := newTestService(gw).EvaluateApplicationStrength(context.Background(), ApplicationStrengthInput{})
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if gw.CallCount() != 0 {
		t.Fatalf("input errors must not reach the model, got %d calls", gw.CallCount())
	}
}

func TestMatchingSummaryFallbackIsDistinguishable(t *testing.T) {
	gw := llmtest.Texts("no", "no again")
	got, err := newTestService(gw).GenerateMatchingSummary(context.Background(), groundingInput())
	if err != nil {
		t.Fatalf("GenerateMatchingSummary: %v", err)
	}
	if !got.NeedsUpdate || got.Recommendation != model.RecommendSkip || got.OverallScore != 0 {
		t.Fatalf("unexpected fallback %+v", got)
	}
	if got.SkillMatch == nil || len(got.SkillMatch) != 0 {
		t.Fatalf("fallback lists should be empty, got %v", got.SkillMatch)
	}
	if got.GeneratedAt != testNow.Format(time.RFC3339) {
		t.Fatalf("unexpected generatedAt %q", got.GeneratedAt)
	}
}

func TestMatchingSummarySuccessIsNotMarked(t *testing.T) {
	gw := llmtest.Texts(`{"scoreBreakdown": {"skillFit": 30, "experienceFit": 20, "interestFit": 5, "edge": 5}, "recommendation": "maybe",
		"skillMatch": ["[MATCH] a: x", "[MATCH] b: x", "[MATCH] c: x", "[MATCH] d: x", "[MATCH] e: x", "[PARTIAL] f: x"]}`)
	got, err := newTestService(gw).GenerateMatchingSummary(context.Background(), groundingInput())
	if err != nil {
		t.Fatalf("GenerateMatchingSummary: %v", err)
	}
	if got.NeedsUpdate || got.OverallScore != 60 {
		t.Fatalf("unexpected summary %+v", got)
	}
	if strings.Contains(gw.Calls[0].UserPrompt, `"matchingSummary"`) {
		t.Fatalf("previous summary should not be sent back to the model")
	}
}

func TestEvaluateApplicationStrengthFallback(t *testing.T) {
	gw := llmtest.Texts("oops", "oops")
	got, err := newTestService(gw).EvaluateApplicationStrength(context.Background(), ApplicationStrengthInput{
		Job:    model.JobDescription{Title: "Staff Ledger Engineer"},
		CVText: longCV,
	})
	if err != nil {
		t.Fatalf("EvaluateApplicationStrength: %v", err)
	}
	if !got.IsFallback || got.Decision.Label != DecisionRisky || got.OverallScore != 0 {
		t.Fatalf("unexpected fallback %+v", got)
	}
	if len(got.TopImprovements) < minImprovements || len(got.Decision.RationaleBullets) < rationaleMin {
		t.Fatalf("fallback must still satisfy cardinality %+v", got)
	}
}

func TestEvaluateApplicationStrengthRequiresCV(t *testing.T) {
	_, err := newTestService(llmtest.Texts()).EvaluateApplicationStrength(context.Background(), ApplicationStrengthInput{})
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) || invalid.Field != "cvText" {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
}

func TestGenerateSpeech(t *testing.T) {
	doc := "Sure! Here it is:\n\n## Elevator Pitch\nI build payment systems.\n\n## Career Story\nStarted in support, moved to backend.\n\n## Why Me\nI ship reliable ledgers."
	gw := llmtest.Texts(doc)
	got, err := newTestService(gw).GenerateSpeech(context.Background(), groundingInput())
	if err != nil {
		t.Fatalf("GenerateSpeech: %v", err)
	}
	if got.IsFallback || got.ElevatorPitch != "I build payment systems." || got.WhyMe != "I ship reliable ledgers." {
		t.Fatalf("unexpected speech %+v", got)
	}
	if !strings.Contains(gw.Calls[0].UserPrompt, "Staff Ledger Engineer") {
		t.Fatalf("speech keeps job context without a matching summary")
	}
}

func TestGenerateSpeechRepairThenFallback(t *testing.T) {
	gw := llmtest.Texts("## Elevator Pitch\nOnly one section", `{"elevatorPitch": "json"}`)
	got, err := newTestService(gw).GenerateSpeech(context.Background(), groundingInput())
	if err != nil {
		t.Fatalf("GenerateSpeech: %v", err)
	}
	if !got.IsFallback || got.ElevatorPitch != "" {
		t.Fatalf("expected empty fallback speech, got %+v", got)
	}
	if gw.CallCount() != 2 || !strings.Contains(gw.Calls[1].UserPrompt, speechRepairInstruction) {
		t.Fatalf("expected one repair attempt, got %d calls", gw.CallCount())
	}
}

func TestGenerateCvTailoring(t *testing.T) {
	cv := "# Jane Smith\n\n## Experience\n\nSenior Engineer at Acme Payments"

	gw := llmtest.Texts(cv)
	if _, err := newTestService(gw).GenerateCv(context.Background(), groundingInput()); err != nil {
		t.Fatalf("GenerateCv: %v", err)
	}
	if strings.Contains(gw.Calls[0].UserPrompt, "Staff Ledger Engineer") {
		t.Fatalf("job context must be dropped without a valid matching summary")
	}

	in := groundingInput()
	in.MatchingSummary = validSummaryContext()
	gw = llmtest.Texts(cv)
	out, err := newTestService(gw).GenerateCv(context.Background(), in)
	if err != nil {
		t.Fatalf("GenerateCv: %v", err)
	}
	p := gw.Calls[0].UserPrompt
	if !strings.Contains(p, "Staff Ledger Engineer") || !strings.Contains(p, "Lead with ledger work") {
		t.Fatalf("tailored prompt should carry job and tips:\n%s", p)
	}
	if out != cv {
		t.Fatalf("unexpected cv %q", out)
	}
}

func TestGenerateCvStructuralFailurePropagates(t *testing.T) {
	gw := llmtest.Texts(`{"cv": "x"}`, "```\n\n```")
	_, err := newTestService(gw).GenerateCv(context.Background(), groundingInput())
	var structural *recovery.StructuralFormatError
	if !errors.As(err, &structural) {
		t.Fatalf("expected StructuralFormatError, got %v", err)
	}
}

func improveInput() ImproveMaterialInput {
	return ImproveMaterialInput{
		Language:        model.LanguageEN,
		MaterialType:    MaterialCV,
		CurrentMarkdown: "  " + longCV + "  ",
		Instructions:    &ImproveInstructions{Presets: []string{"Make it more concise"}},
		Profile:         &model.Profile{FullName: "Jane Smith"},
		Experiences:     []model.Experience{},
	}
}

func TestImproveMaterialInputCodes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ImproveMaterialInput)
		field  string
	}{
		{name: "material type", mutate: func(in *ImproveMaterialInput) { in.MaterialType = "resume" }, field: "materialType"},
		{name: "language missing", mutate: func(in *ImproveMaterialInput) { in.Language = "" }, field: "language"},
		{name: "language unsupported", mutate: func(in *ImproveMaterialInput) { in.Language = "fr" }, field: "language.unsupported"},
		{name: "markdown blank", mutate: func(in *ImproveMaterialInput) { in.CurrentMarkdown = " " }, field: "currentMarkdown"},
		{name: "instructions missing", mutate: func(in *ImproveMaterialInput) { in.Instructions = nil }, field: "instructions"},
		{name: "presets blank", mutate: func(in *ImproveMaterialInput) { in.Instructions.Presets = []string{" "} }, field: "instructions.presets"},
		{name: "context not object", mutate: func(in *ImproveMaterialInput) { in.ImprovementContext = []byte(`[1]`) }, field: "improvementContext"},
		{name: "context score", mutate: func(in *ImproveMaterialInput) { in.ImprovementContext = []byte(`{"overallScore": "abc"}`) }, field: "improvementContext.overallScore"},
		{name: "profile missing", mutate: func(in *ImproveMaterialInput) { in.Profile = nil }, field: "profile"},
		{name: "experiences missing", mutate: func(in *ImproveMaterialInput) { in.Experiences = nil }, field: "experiences"},
		{name: "markdown short", mutate: func(in *ImproveMaterialInput) { in.CurrentMarkdown = "# Short" }, field: "currentMarkdown.minLength"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := improveInput()
			tt.mutate(&in)
			gw := llmtest.Texts()
			_, err := newTestService(gw).ImproveMaterial(context.Background(), in)
			want := ErrCodeImproveInvalidInput + ":" + tt.field
			if err == nil || err.Error() != want {
				t.Fatalf("got %v, want %s", err, want)
			}
			if gw.CallCount() != 0 {
				t.Fatalf("invalid input must not reach the model")
			}
		})
	}
}

func TestImproveMaterialFallsBackToOriginal(t *testing.T) {
	gw := llmtest.Texts(`{"markdown": "x"}`, "too short")
	got, err := newTestService(gw).ImproveMaterial(context.Background(), improveInput())
	if err != nil {
		t.Fatalf("ImproveMaterial: %v", err)
	}
	if !got.IsFallback || got.Markdown != longCV {
		t.Fatalf("expected trimmed original markdown, got %+v", got)
	}
}

func TestImproveMaterialUsesContext(t *testing.T) {
	in := improveInput()
	in.ImprovementContext = []byte(`{
		"overallScore": 58,
		"dimensionScores": {"atsReadiness": 80, "clarityFocus": "45", "targetedFitSignals": 60, "evidenceStrength": 90},
		"topImprovements": [{"title": "", "action": ""}, {"title": "Quantify", "action": "Add numbers to the billing migration"}]
	}`)
	improved := longCV + "\n- Reduced invoice latency by moving to event-driven services."
	gw := llmtest.Texts(improved)
	got, err := newTestService(gw).ImproveMaterial(context.Background(), in)
	if err != nil {
		t.Fatalf("ImproveMaterial: %v", err)
	}
	if got.IsFallback || got.Markdown != improved {
		t.Fatalf("unexpected result %+v", got)
	}
	p := gw.Calls[0].UserPrompt
	for _, want := range []string{"overallScore: 58/100", "weakDimensions: clarityFocus, targetedFitSignals", "1. Add numbers to the billing migration", "1. Make it more concise"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestShellLogsFallbacksAndMetrics(t *testing.T) {
	logs := captureLogs(t)
	gw := llmtest.Texts(`{"sections": {"skills": ["Go"]}}`)
	if _, err := newTestService(gw).ParseCVText(context.Background(), ParseCVInput{CVText: strings.Repeat("a", 150)}); err != nil {
		t.Fatalf("ParseCVText: %v", err)
	}

	lines := logLines(t, logs, "ai.operation")
	if len(lines) != 1 {
		t.Fatalf("expected one ai.operation line, got %d:\n%s", len(lines), logs.String())
	}
	entry := lines[0]
	if entry["operation"] != OpParseCvText || entry["level"] != "info" {
		t.Fatalf("unexpected entry %v", entry)
	}
	used, _ := entry["fallbacksUsed"].([]any)
	if len(used) != 1 || used[0] != noteDefaultConfidence {
		t.Fatalf("unexpected fallbacksUsed %v", entry["fallbacksUsed"])
	}
	input, _ := entry["input"].(map[string]any)
	if preview, _ := input["cv_text"].(string); preview != strings.Repeat("a", logPreviewLength)+"..." {
		t.Fatalf("unexpected preview %q", preview)
	}
	if !strings.Contains(metrics.Render(), `ai_operation_total{operation="parseCvText",outcome="ok"}`) {
		t.Fatalf("operation outcome not recorded")
	}
}

func TestShellLogsErrors(t *testing.T) {
	logs := captureLogs(t)
	_, _ = newTestService(llmtest.Texts()).ParseCVText(context.Background(), ParseCVInput{})

	lines := logLines(t, logs, "ai.operation.error")
	if len(lines) != 1 || lines[0]["level"] != "error" {
		t.Fatalf("expected one error line, got %s", logs.String())
	}
	if len(logLines(t, logs, "ai.operation")) != 0 {
		t.Fatalf("failed operations must not log success")
	}
	if !strings.Contains(metrics.Render(), `ai_operation_total{operation="parseCvText",outcome="error"}`) {
		t.Fatalf("error outcome not recorded")
	}
}

func TestShellMarksFallbackOutcome(t *testing.T) {
	captureLogs(t)
	if _, err := newTestService(llmtest.Texts("x", "y")).GenerateSpeech(context.Background(), groundingInput()); err != nil {
		t.Fatalf("GenerateSpeech: %v", err)
	}
	if !strings.Contains(metrics.Render(), `ai_operation_total{operation="generateSpeech",outcome="fallback"}`) {
		t.Fatalf("fallback outcome not recorded")
	}
}
