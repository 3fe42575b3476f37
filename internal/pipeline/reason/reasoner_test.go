package reason

import (
	"math"
	"testing"

	"claims-platform/internal/pipeline/common"
)

func intp(n int) *int { return &n }

func TestReasonApprovedKneeSurgery(t *testing.T) {
	r := NewReasoner()
	parsed := &common.ParsedQuery{
		Entities: common.Entities{
			Age:                  intp(46),
			Gender:               "M",
			Procedure:            "knee surgery",
			Location:             "pune",
			PolicyDurationMonths: intp(3),
		},
	}

	result := r.Reason(parsed)
	if result.Decision != common.DecisionApproved {
		t.Fatalf("decision = %q, want approved (chains: %+v)", result.Decision, result.Chains)
	}
	if result.Amount != 50000 {
		t.Errorf("amount = %d, want 50000", result.Amount)
	}
	if len(result.Chains) != 3 {
		t.Errorf("chains = %d, want demographic, procedure and policy", len(result.Chains))
	}
	want := (1.0 + 2.0/3.0 + 1.0) / 3.0
	if math.Abs(result.Confidence-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", result.Confidence, want)
	}
	if len(result.SupportingChains) != 3 || len(result.OpposingChains) != 0 {
		t.Errorf("supporting = %v, opposing = %v", result.SupportingChains, result.OpposingChains)
	}
}

func TestReasonExclusionRejects(t *testing.T) {
	r := NewReasoner()
	parsed := &common.ParsedQuery{
		Entities: common.Entities{
			Age:       intp(30),
			Procedure: "cosmetic surgery",
			Location:  "mumbai",
		},
	}

	result := r.Reason(parsed)
	if result.Decision != common.DecisionRejected {
		t.Fatalf("decision = %q, want rejected", result.Decision)
	}
	found := false
	for _, name := range result.OpposingChains {
		if name == ChainProcedure {
			found = true
		}
	}
	if !found {
		t.Errorf("opposing chains = %v, want procedure_coverage", result.OpposingChains)
	}
}

func TestReasonMalePregnancyIneligible(t *testing.T) {
	r := NewReasoner()
	parsed := &common.ParsedQuery{
		Entities: common.Entities{
			Age:       intp(35),
			Gender:    "M",
			Procedure: "ivf",
		},
	}

	result := r.Reason(parsed)
	if result.Decision != common.DecisionRejected {
		t.Fatalf("decision = %q, want rejected for male pregnancy-related claim", result.Decision)
	}
}

func TestReasonShortPolicyConditional(t *testing.T) {
	r := NewReasoner()
	parsed := &common.ParsedQuery{
		Entities: common.Entities{
			Age:                  intp(40),
			Procedure:            "cataract surgery",
			Location:             "delhi",
			PolicyDurationMonths: intp(1),
		},
	}

	result := r.Reason(parsed)
	if result.Decision != common.DecisionConditional {
		t.Fatalf("decision = %q, want conditional for policy under waiting period", result.Decision)
	}
}

func TestReasonNoEntitiesUnclear(t *testing.T) {
	r := NewReasoner()
	result := r.Reason(&common.ParsedQuery{})

	if result.Decision != common.DecisionUnclear {
		t.Fatalf("decision = %q, want unclear", result.Decision)
	}
	if result.Confidence != 0.0 {
		t.Errorf("confidence = %v, want 0.0", result.Confidence)
	}
	if len(result.Chains) != 0 {
		t.Errorf("chains = %d, want none activated", len(result.Chains))
	}
}

func TestChainVerdictPriority(t *testing.T) {
	steps := []common.ReasoningStep{
		{Status: common.StepEligible},
		{Status: common.StepRestricted},
		{Status: common.StepExcluded},
	}
	if got := chainVerdict(steps); got != common.StepExcluded {
		t.Errorf("verdict = %q, want excluded to dominate", got)
	}

	steps = []common.ReasoningStep{
		{Status: common.StepCovered},
		{Status: common.StepConditional},
	}
	if got := chainVerdict(steps); got != common.StepEligible {
		t.Errorf("verdict = %q, want eligible over conditional", got)
	}
}

func TestCoverageLimitPremium(t *testing.T) {
	e := &common.Entities{Procedure: "heart bypass", CoverageType: "premium"}
	if got := CoverageLimit(e); got != 100000 {
		t.Errorf("limit = %d, want 100000", got)
	}
	e = &common.Entities{Procedure: "fracture treatment"}
	if got := CoverageLimit(e); got != 25000 {
		t.Errorf("limit = %d, want 25000", got)
	}
}
