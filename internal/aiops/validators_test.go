package aiops

import (
	"context"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"career-backend/internal/aiops/model"
	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
	"career-backend/internal/llm/llmtest"
)

func TestValidatorsAreTotal(t *testing.T) {
	ctx := context.Background()
	for _, raw := range garbage {
		v := mustValue(t, raw)

		ms := validateMatchingSummary(v)
		if ms.Recommendation == "" || len(ms.SkillMatch) < skillMatchMin || len(ms.RiskyPoints) < riskyPointsMin {
			t.Fatalf("%s: incomplete matching summary %+v", raw, ms)
		}
		st := finalizeStrength(v, false)
		if st.Decision.Label == "" || len(st.TopImprovements) < minImprovements || len(st.Decision.RationaleBullets) < rationaleMin {
			t.Fatalf("%s: incomplete strength %+v", raw, st)
		}
		if blocks := validateCVBlocks(v); blocks.Sections == nil {
			t.Fatalf("%s: nil sections", raw)
		}
		canvas := validatePersonalCanvas(ctx, v)
		if len(canvas.ValueProposition) == 0 || len(canvas.KeyActivities) == 0 {
			t.Fatalf("%s: personal canvas left empty %+v", raw, canvas)
		}
		story := validateStarStory(v)
		if story.Situation == "" || story.Result == "" {
			t.Fatalf("%s: star story left empty %+v", raw, story)
		}
		ach := validateAchievements(ctx, v)
		if len(ach.Achievements) == 0 || len(ach.KPISuggestions) == 0 {
			t.Fatalf("%s: achievements left empty %+v", raw, ach)
		}
		job := validateJobDescription(v)
		if job.AIConfidenceScore < 0 || job.AIConfidenceScore > 1 {
			t.Fatalf("%s: confidence out of range %v", raw, job.AIConfidenceScore)
		}
		cc := validateCompanyCanvas(v)
		if cc.Confidence < 0 || cc.Confidence > 1 {
			t.Fatalf("%s: confidence out of range %v", raw, cc.Confidence)
		}
		ca := validateCompanyAnalysis(v)
		if ca.Confidence < 0 || ca.Confidence > 1 {
			t.Fatalf("%s: confidence out of range %v", raw, ca.Confidence)
		}
	}
}

func TestMissingTopLevelKeysUseDefaults(t *testing.T) {
	for _, raw := range []string{`{}`, `null`, `{"confidence": 0.9}`, `{"sections": "nope", "experiences": {"a": 1}}`} {
		ctx, trace := recovery.WithTrace(context.Background())
		v := mustValue(t, raw)

		cv := validateParsedCV(ctx, v)
		if cv.Sections.Experiences == nil || cv.Sections.Skills == nil || cv.Sections.RawBlocks == nil {
			t.Fatalf("%s: sections should default to empty lists, got %+v", raw, cv.Sections)
		}
		if cv.Confidence < 0 || cv.Confidence > 1 {
			t.Fatalf("%s: confidence out of range %v", raw, cv.Confidence)
		}
		exp := validateExperiences(ctx, v)
		if exp.Experiences == nil || len(exp.Experiences) != 0 {
			t.Fatalf("%s: experiences should default to an empty list, got %+v", raw, exp)
		}

		notes := strings.Join(trace.Fallbacks(), ",")
		if !strings.Contains(notes, noteDefaultSections) || !strings.Contains(notes, noteDefaultExperiences) {
			t.Fatalf("%s: expected default notes, got %q", raw, notes)
		}
	}
}

func TestParseCVTextWithoutSectionsSucceeds(t *testing.T) {
	gw := llmtest.Texts(`{"confidence": 0.9}`)
	got, err := newTestService(gw).ParseCVText(context.Background(), ParseCVInput{CVText: longCV})
	if err != nil {
		t.Fatalf("ParseCVText: %v", err)
	}
	if gw.CallCount() != 1 || got.Sections.Skills == nil || got.Confidence != 0.9 {
		t.Fatalf("unexpected result %+v after %d calls", got, gw.CallCount())
	}
}

func TestValidatorsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		validate func(sanitize.Value) any
		raw      string
	}{
		{
			name:     "parsed cv",
			validate: func(v sanitize.Value) any { return validateParsedCV(ctx, v) },
			raw:      `{"sections": {"experiences": [" Acme 2020-2024 ", ""], "skills": ["Go", 3, "SQL"]}, "confidence": 1.4}`,
		},
		{
			name:     "experiences",
			validate: func(v sanitize.Value) any { return validateExperiences(ctx, v) },
			raw:      `{"experiences": [{"title": " Engineer ", "start_date": "2020-01", "end_date": "Present", "tasks": ["Ship", " "]}, {}]}`,
		},
		{
			name:     "star story",
			validate: func(v sanitize.Value) any { return validateStarStory(v) },
			raw:      `[{"situation": "Legacy billing", "task": " ", "action": "Rewrote it", "result": 5}]`,
		},
		{
			name:     "job description",
			validate: func(v sanitize.Value) any { return validateJobDescription(v) },
			raw:      `{"title": "Platform Engineer", "requiredSkills": ["Go", "Go"], "atsKeywords": ["Go", "Go", "k8s"], "aiConfidenceScore": "high"}`,
		},
		{
			name:     "cv blocks",
			validate: func(v sanitize.Value) any { return validateCVBlocks(v) },
			raw:      `{"sections": [{"type": "Work Experience", "title": " Acme ", "content": "Built things"}, {"type": "skills", "content": ""}]}`,
		},
		{
			name:     "achievements",
			validate: func(v sanitize.Value) any { return validateAchievements(ctx, v) },
			raw:      `{"achievements": ["Cut latency 40%"], "kpi_suggestions": []}`,
		},
		{
			name:     "personal canvas",
			validate: func(v sanitize.Value) any { return validatePersonalCanvas(ctx, v) },
			raw:      `{"valueProposition": ["Reliable payments"], "key_activities": ["Design", " "], "channels": "LinkedIn"}`,
		},
		{
			name:     "company canvas",
			validate: func(v sanitize.Value) any { return validateCompanyCanvas(v) },
			raw:      `{"companyName": " Acme ", "channels": ["web", "web", "partners"], "confidence": -2}`,
		},
		{
			name:     "company analysis",
			validate: func(v sanitize.Value) any { return validateCompanyAnalysis(v) },
			raw:      `{"companyProfile": {"companyName": "Acme", "productsServices": ["Billing", "Billing"]}, "confidence": 0.7}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, raw := range append([]string{tt.raw}, garbage...) {
				first := tt.validate(mustValue(t, raw))
				second := tt.validate(roundTrip(t, first))
				if !reflect.DeepEqual(first, second) {
					t.Fatalf("%s: not idempotent:\nfirst  %+v\nsecond %+v", raw, first, second)
				}
			}
		})
	}
}

func TestMatchingSummaryIdempotent(t *testing.T) {
	v := mustValue(t, `{
		"scoreBreakdown": {"skillFit": 80, "experienceFit": 22.6, "interestFit": -3, "edge": "9"},
		"recommendation": "APPLY",
		"reasoningHighlights": ["Strong Go background", "Strong Go background", "  "],
		"skillMatch": ["[MATCH] Go: 6 years", "Kubernetes", "[PARTIAL] AWS: some EC2"],
		"riskyPoints": ["No on-call experience", "Risk: no Terraform. Mitigation: show Pulumi work."],
		"tailoringTips": ["Lead with the payments migration"]
	}`)
	first := validateMatchingSummary(v)
	second := validateMatchingSummary(roundTrip(t, first))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestMatchingSummaryRanges(t *testing.T) {
	v := mustValue(t, `{
		"scoreBreakdown": {"skillFit": 80, "experienceFit": 22.6, "interestFit": -3, "edge": "9"},
		"recommendation": "APPLY",
		"reasoningHighlights": ["a", "a", "b", "c", "d", "e", "f", "g"],
		"skillMatch": ["[MATCH] Go: 6 years", "Kubernetes", "[MATCH] SQL: 4 years", "[OVER] Rust: hobby", "[PARTIAL] AWS: EC2", "[MATCH] gRPC: services", "[MATCH] Redis: caching"]
	}`)
	got := validateMatchingSummary(v)

	b := got.ScoreBreakdown
	if b.SkillFit != 50 || b.ExperienceFit != 23 || b.InterestFit != 0 || b.Edge != 0 {
		t.Fatalf("unexpected breakdown %+v", b)
	}
	if got.OverallScore != b.SkillFit+b.ExperienceFit+b.InterestFit+b.Edge {
		t.Fatalf("overall %d is not the breakdown sum", got.OverallScore)
	}
	if got.Recommendation != model.RecommendMaybe {
		t.Fatalf("unknown recommendation should default to maybe, got %q", got.Recommendation)
	}
	if len(got.ReasoningHighlights) != matchingListMax || got.ReasoningHighlights[1] != "b" {
		t.Fatalf("expected deduped list capped at %d, got %v", matchingListMax, got.ReasoningHighlights)
	}
	if len(got.SkillMatch) != 6 || got.SkillMatch[1] != "[MATCH] SQL: 4 years" {
		t.Fatalf("untagged entries should be dropped, got %v", got.SkillMatch)
	}
	if len(got.RiskyPoints) != riskyPointsMin || got.RiskyPoints[0] != riskyPointFiller {
		t.Fatalf("unexpected risky points %v", got.RiskyPoints)
	}
}

func TestMatchingSummaryPadsSkillMatch(t *testing.T) {
	got := validateMatchingSummary(mustValue(t, `{"scoreBreakdown": {"skillFit": 40}, "recommendation": "apply", "skillMatch": ["[MATCH] Go: 6 years"]}`))
	if len(got.SkillMatch) != skillMatchMin || got.SkillMatch[1] != skillMatchFiller {
		t.Fatalf("expected padding to %d, got %v", skillMatchMin, got.SkillMatch)
	}
	if got.Recommendation != model.RecommendSkip || got.ScoreBreakdown.SkillFit != skillFitCapSkip {
		t.Fatalf("padded entries count as missing skills, got %s/%d", got.Recommendation, got.ScoreBreakdown.SkillFit)
	}
}

func TestMatchingSummaryMissingSkillGuardrails(t *testing.T) {
	tests := []struct {
		name      string
		missing   int
		rec       string
		wantRec   model.Recommendation
		wantSkill int
	}{
		{name: "mostly missing forces skip", missing: 5, rec: "apply", wantRec: model.RecommendSkip, wantSkill: skillFitCapSkip},
		{name: "half missing demotes apply", missing: 3, rec: "apply", wantRec: model.RecommendMaybe, wantSkill: skillFitCapMaybe},
		{name: "half missing keeps skip", missing: 3, rec: "skip", wantRec: model.RecommendSkip, wantSkill: skillFitCapMaybe},
		{name: "few missing untouched", missing: 1, rec: "apply", wantRec: model.RecommendApply, wantSkill: 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entries []string
			for i := 0; i < 6; i++ {
				if i < tt.missing {
					entries = append(entries, `"[MISSING] skill`+string(rune('a'+i))+`"`)
				} else {
					entries = append(entries, `"[MATCH] skill`+string(rune('a'+i))+`: evidence"`)
				}
			}
			v := mustValue(t, `{"scoreBreakdown": {"skillFit": 45}, "recommendation": "`+tt.rec+`", "skillMatch": [`+strings.Join(entries, ",")+`]}`)
			got := validateMatchingSummary(v)
			if got.Recommendation != tt.wantRec || got.ScoreBreakdown.SkillFit != tt.wantSkill {
				t.Fatalf("got %s/%d, want %s/%d", got.Recommendation, got.ScoreBreakdown.SkillFit, tt.wantRec, tt.wantSkill)
			}
		})
	}
}

func TestApplicationStrengthIdempotent(t *testing.T) {
	v := mustValue(t, `{
		"overallScore": "81",
		"dimensionScores": {"atsReadiness": 90, "keywordCoverage": 70, "clarityFocus": 66.5, "targetedFitSignals": 60, "evidenceStrength": 140},
		"decision": {"label": "risky", "readyToApply": false, "rationaleBullets": ["Clear impact"]},
		"missingSignals": ["Terraform"],
		"topImprovements": [{"title": "Quantify", "action": "", "impact": "huge", "target": {"document": "coverLetter", "anchor": ""}}]
	}`)
	first := finalizeStrength(v, false)
	second := finalizeStrength(roundTrip(t, first), false)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestApplicationStrengthDecision(t *testing.T) {
	tests := []struct {
		name    string
		overall string
		dim     int
		want    DecisionLabel
	}{
		{name: "strong", overall: "80", dim: 60, want: DecisionStrong},
		{name: "weak dimension blocks strong", overall: "80", dim: 40, want: DecisionBorderline},
		{name: "borderline", overall: "60", dim: 60, want: DecisionBorderline},
		{name: "risky", overall: "30", dim: 60, want: DecisionRisky},
		{name: "average used when overall missing", overall: "null", dim: 76, want: DecisionStrong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := strconv.Itoa(tt.dim)
			v := mustValue(t, `{"overallScore": `+tt.overall+`, "decision": {"label": "strong"}, "dimensionScores": {"atsReadiness": `+d+`, "keywordCoverage": `+d+`, "clarityFocus": `+d+`, "targetedFitSignals": `+d+`, "evidenceStrength": `+d+`}}`)
			got := finalizeStrength(v, true)
			if got.Decision.Label != tt.want {
				t.Fatalf("got %s, want %s", got.Decision.Label, tt.want)
			}
			if got.Decision.ReadyToApply != (tt.want == DecisionStrong) {
				t.Fatalf("readyToApply inconsistent with label %+v", got.Decision)
			}
		})
	}
}

func TestApplicationStrengthCardinality(t *testing.T) {
	many := `{"title": "T%d", "action": "A", "impact": "high", "target": {"document": "cv", "anchor": "a%d"}}`
	var items []string
	for i := 0; i < 6; i++ {
		items = append(items, strings.ReplaceAll(many, "%d", strconv.Itoa(i)))
	}
	v := mustValue(t, `{"decision": {"rationaleBullets": ["1","2","3","4","5","6","7"]}, "topImprovements": [`+strings.Join(items, ",")+`]}`)
	got := finalizeStrength(v, true)
	if len(got.TopImprovements) != preferredImprovements {
		t.Fatalf("expected %d improvements, got %d", preferredImprovements, len(got.TopImprovements))
	}
	if len(got.Decision.RationaleBullets) != rationaleMax {
		t.Fatalf("expected %d rationale bullets, got %d", rationaleMax, len(got.Decision.RationaleBullets))
	}

	empty := finalizeStrength(mustValue(t, `{}`), false)
	if len(empty.TopImprovements) != minImprovements {
		t.Fatalf("expected padding to %d improvements, got %+v", minImprovements, empty.TopImprovements)
	}
	if empty.TopImprovements[0].Target.Anchor != "summary" || empty.TopImprovements[1].Target.Anchor != "skills" {
		t.Fatalf("unexpected default improvements %+v", empty.TopImprovements)
	}
	if len(empty.Decision.RationaleBullets) != rationaleMin || empty.Decision.RationaleBullets[0] != rationaleFillers[0] {
		t.Fatalf("unexpected rationale %v", empty.Decision.RationaleBullets)
	}
}

func TestApplicationStrengthWithoutCoverLetterTargetsCV(t *testing.T) {
	v := mustValue(t, `{"topImprovements": [
		{"title": "Open stronger", "action": "Lead with the migration", "target": {"document": "coverLetter", "anchor": "coverLetterBody"}},
		{"title": "Skills", "action": "Group tools", "target": {"document": "cv", "anchor": "skills"}}
	]}`)
	for _, imp := range finalizeStrength(v, false).TopImprovements {
		if imp.Target.Document != DocumentCV {
			t.Fatalf("improvement should target the CV: %+v", imp)
		}
	}
	withLetter := finalizeStrength(v, true)
	if withLetter.TopImprovements[0].Target.Document != DocumentCoverLetter {
		t.Fatalf("cover letter target should survive: %+v", withLetter.TopImprovements[0])
	}
	if withLetter.TopImprovements[0].Impact != ImpactMedium {
		t.Fatalf("missing impact should default to medium, got %q", withLetter.TopImprovements[0].Impact)
	}
}

func TestCVBlocksValidation(t *testing.T) {
	long := strings.Repeat("x", maxSectionLength+20)
	v := mustValue(t, `{"sections": [
		{"type": "summary", "title": null, "content": "Engineer."},
		{"type": "Work Experience", "title": "Acme", "content": "Built things", "experienceId": "exp-1"},
		{"type": "HOBBIES", "content": "Climbing"},
		{"type": "awards", "content": "Hackathon winner"},
		{"type": "skills", "content": "   "},
		{"content": "orphan"},
		{"type": "custom", "content": "`+long+`"}
	]}`)
	got := validateCVBlocks(v)
	want := []SectionType{SectionSummary, SectionExperience, SectionInterests, SectionCustom, SectionCustom}
	if len(got.Sections) != len(want) {
		t.Fatalf("expected %d sections, got %+v", len(want), got.Sections)
	}
	for i, typ := range want {
		if got.Sections[i].Type != typ {
			t.Fatalf("section %d: got %s, want %s", i, got.Sections[i].Type, typ)
		}
	}
	if got.Sections[0].Title != nil || got.Sections[1].ExperienceID == nil || *got.Sections[1].ExperienceID != "exp-1" {
		t.Fatalf("unexpected nullable fields %+v %+v", got.Sections[0], got.Sections[1])
	}
	if n := len([]rune(got.Sections[4].Content)); n != maxSectionLength+3 {
		t.Fatalf("expected truncated content, got %d runes", n)
	}

	again := validateCVBlocks(roundTrip(t, got))
	if !reflect.DeepEqual(got, again) {
		t.Fatalf("not idempotent")
	}
}

func TestStarStoryTakesFirstArrayItem(t *testing.T) {
	got := validateStarStory(mustValue(t, `[{"situation": "Legacy billing", "task": "", "action": "Rewrote", "result": "Cut costs"}, {"situation": "other"}]`))
	if got.Situation != "Legacy billing" || got.Action != "Rewrote" {
		t.Fatalf("unexpected story %+v", got)
	}
	if got.Task == "" {
		t.Fatalf("blank task should get a default")
	}
}

func TestJobDescriptionConfidenceWithoutContent(t *testing.T) {
	got := validateJobDescription(mustValue(t, `{"aiConfidenceScore": 0.9}`))
	if got.AIConfidenceScore > 0.25 {
		t.Fatalf("empty job description should have low confidence, got %v", got.AIConfidenceScore)
	}
	full := validateJobDescription(mustValue(t, `{"title": "Platform Engineer", "requiredSkills": ["Go"], "atsKeywords": ["Go", "Go", "Kubernetes"]}`))
	if len(full.AtsKeywords) != 2 {
		t.Fatalf("ats keywords should be deduped, got %v", full.AtsKeywords)
	}
}
