package query

import (
	"testing"

	"claims-platform/internal/pipeline/common"
)

func TestAnalyzeCompactQuery(t *testing.T) {
	a := NewAnalyzer()
	parsed := a.Analyze(&common.ClaimQuery{ID: "q1", Text: "46M, knee surgery in Pune, 3-month-old insurance policy"})

	if !parsed.Valid {
		t.Fatalf("expected valid query, errors = %v", parsed.Errors)
	}
	if parsed.Entities.Age == nil || *parsed.Entities.Age != 46 {
		t.Errorf("age = %v, want 46", parsed.Entities.Age)
	}
	if parsed.Entities.Gender != "M" {
		t.Errorf("gender = %q, want M", parsed.Entities.Gender)
	}
	if parsed.Entities.Procedure != "knee surgery" {
		t.Errorf("procedure = %q, want knee surgery", parsed.Entities.Procedure)
	}
	if parsed.Entities.Location != "pune" {
		t.Errorf("location = %q, want pune", parsed.Entities.Location)
	}
	if parsed.Entities.PolicyDurationMonths == nil || *parsed.Entities.PolicyDurationMonths != 3 {
		t.Errorf("policy duration = %v, want 3", parsed.Entities.PolicyDurationMonths)
	}
	if parsed.ClarityLevel != "high" {
		t.Errorf("clarity = %q, want high", parsed.ClarityLevel)
	}
	if parsed.Complexity != "simple" {
		t.Errorf("complexity = %q, want simple", parsed.Complexity)
	}
	want := 0.85
	if diff := parsed.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence = %v, want %v", parsed.Confidence, want)
	}
}

func TestAnalyzeInvalidQuery(t *testing.T) {
	a := NewAnalyzer()
	parsed := a.Analyze(&common.ClaimQuery{ID: "q2", Text: "hi"})

	if parsed.Valid {
		t.Fatal("expected invalid query")
	}
	if len(parsed.Errors) != 2 {
		t.Errorf("errors = %v, want length and procedure errors", parsed.Errors)
	}
	if parsed.Confidence >= 0.3 {
		t.Errorf("confidence = %v, want below validity bonus", parsed.Confidence)
	}
}

func TestAnalyzeComplexUrgentQuery(t *testing.T) {
	a := NewAnalyzer()
	parsed := a.Analyze(&common.ClaimQuery{ID: "q3", Text: "emergency heart bypass for 70 year old man in Delhi"})

	if parsed.Entities.Urgency != "high" {
		t.Errorf("urgency = %q, want high", parsed.Entities.Urgency)
	}
	if parsed.Entities.Gender != "M" {
		t.Errorf("gender = %q, want M", parsed.Entities.Gender)
	}
	if parsed.Entities.Age == nil || *parsed.Entities.Age != 70 {
		t.Errorf("age = %v, want 70", parsed.Entities.Age)
	}
	if parsed.Complexity != "complex" {
		t.Errorf("complexity = %q, want complex", parsed.Complexity)
	}
	if parsed.MedicalDomain != "cardiology" {
		t.Errorf("medical domain = %q, want cardiology", parsed.MedicalDomain)
	}

	foundGeriatric := false
	for _, c := range parsed.RelatedConcepts {
		if c == "geriatric care" {
			foundGeriatric = true
		}
	}
	if !foundGeriatric {
		t.Errorf("related concepts = %v, want geriatric care included", parsed.RelatedConcepts)
	}
}

func TestAnalyzeVagueProcedure(t *testing.T) {
	a := NewAnalyzer()
	parsed := a.Analyze(&common.ClaimQuery{ID: "q4", Text: "need surgery next month, what is covered?"})

	if parsed.Valid {
		t.Fatal("expected invalid: no specific procedure recognized")
	}
	foundVague := false
	for _, amb := range parsed.Ambiguities {
		if amb.Type == "vague_procedure" {
			foundVague = true
		}
	}
	if !foundVague {
		t.Errorf("ambiguities = %v, want vague_procedure", parsed.Ambiguities)
	}
	if parsed.ClarityLevel == "high" {
		t.Errorf("clarity = %q, want degraded", parsed.ClarityLevel)
	}
}

func TestExtractDurationYears(t *testing.T) {
	months := extractDuration("policy taken 2 years ago")
	if months == nil || *months != 24 {
		t.Fatalf("duration = %v, want 24 months", months)
	}
}
