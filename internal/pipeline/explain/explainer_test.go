package explain

import (
	"strings"
	"testing"

	"claims-platform/internal/pipeline/common"
)

func intp(n int) *int { return &n }

func TestExplainApproved(t *testing.T) {
	ex := NewExplainer()
	out := ex.Explain(&Input{
		Status:     common.DecisionApproved,
		Amount:     50000,
		Confidence: 0.89,
		Parsed: &common.ParsedQuery{
			Entities: common.Entities{Procedure: "knee surgery", Age: intp(46)},
		},
		Reasoning:   &common.ReasoningResult{Justification: "All reasoning chains support coverage"},
		Consistency: &common.ConsistencyReport{Score: 1.0, Consistent: true},
	})

	if !strings.Contains(out.Text, "knee surgery") {
		t.Errorf("text missing procedure: %s", out.Text)
	}
	if !strings.Contains(out.Text, "₹50000") {
		t.Errorf("text missing amount: %s", out.Text)
	}
	if !strings.Contains(out.Text, "89%") {
		t.Errorf("text missing confidence percent: %s", out.Text)
	}
	if out.ComplexityLevel != "low" {
		t.Errorf("complexity = %q, want low", out.ComplexityLevel)
	}
	want := (0.89 + 1.0) / 2
	if diff := out.ConfidenceBreakdown - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence breakdown = %v, want %v", out.ConfidenceBreakdown, want)
	}
	if len(out.NextActions) == 0 {
		t.Error("next actions empty for approved decision")
	}
}

func TestExplainUnclearListsMissingInfo(t *testing.T) {
	ex := NewExplainer()
	out := ex.Explain(&Input{
		Status:     common.DecisionUnclear,
		Confidence: 0.2,
		Parsed:     &common.ParsedQuery{},
	})

	if !strings.Contains(out.Text, "procedure") || !strings.Contains(out.Text, "age") {
		t.Errorf("text missing the missing-info list: %s", out.Text)
	}
	if out.Summary == "" {
		t.Error("summary empty")
	}
}

func TestExplainUnknownStatusFallsBackToUnclear(t *testing.T) {
	ex := NewExplainer()
	out := ex.Explain(&Input{Status: "weird", Confidence: 0.5})

	if !strings.Contains(out.Text, "could not reach a determination") {
		t.Errorf("text = %s, want unclear template", out.Text)
	}
}

func TestExplainRiskAndComplexity(t *testing.T) {
	ex := NewExplainer()
	out := ex.Explain(&Input{
		Status:     common.DecisionConditional,
		Amount:     100000,
		Confidence: 0.6,
		Parsed: &common.ParsedQuery{
			Entities: common.Entities{
				Procedure:        "heart bypass",
				Age:              intp(70),
				MedicalCondition: "diabetes",
				Urgency:          "high",
				CoverageType:     "premium",
			},
		},
	})

	if out.ComplexityLevel != "high" {
		t.Errorf("complexity = %q, want high", out.ComplexityLevel)
	}
	if len(out.RiskFactors) < 3 {
		t.Errorf("risk factors = %v, want condition, urgency and age flagged", out.RiskFactors)
	}
	if !strings.Contains(out.Text, "Risk factors:") {
		t.Errorf("text missing risk block: %s", out.Text)
	}
}
