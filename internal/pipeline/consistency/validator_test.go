package consistency

import (
	"testing"

	"claims-platform/internal/pipeline/common"
)

func intp(n int) *int { return &n }

func kneeParsed() *common.ParsedQuery {
	return &common.ParsedQuery{
		Entities: common.Entities{
			Age:                  intp(46),
			Gender:               "M",
			Procedure:            "knee surgery",
			Location:             "pune",
			PolicyDurationMonths: intp(6),
		},
	}
}

func TestCheckConsistentApproval(t *testing.T) {
	v := NewValidator()
	report := v.Check(&Input{
		Status:     common.DecisionApproved,
		Amount:     50000,
		Confidence: 0.85,
		Parsed:     kneeParsed(),
	})

	if len(report.Warnings) != 0 {
		t.Fatalf("warnings = %v, want none", report.Warnings)
	}
	if len(report.Anomalies) != 0 {
		t.Fatalf("anomalies = %v, want none", report.Anomalies)
	}
	if report.PatternMatches != 2 {
		t.Errorf("pattern matches = %d, want age and procedure patterns", report.PatternMatches)
	}
	if !report.Consistent {
		t.Errorf("consistent = false, score = %v", report.Score)
	}
}

func TestCheckAmountAnomaly(t *testing.T) {
	v := NewValidator()
	report := v.Check(&Input{
		Status:     common.DecisionApproved,
		Amount:     200000,
		Confidence: 0.85,
		Parsed:     kneeParsed(),
	})

	if len(report.Anomalies) == 0 {
		t.Fatal("expected amount anomaly for ₹200000 knee surgery")
	}
	if report.Consistent {
		t.Error("consistent = true, want false with anomalies present")
	}
}

func TestCheckGeriatricApprovalWarns(t *testing.T) {
	v := NewValidator()
	parsed := kneeParsed()
	parsed.Entities.Age = intp(78)

	report := v.Check(&Input{
		Status:     common.DecisionApproved,
		Amount:     50000,
		Confidence: 0.85,
		Parsed:     parsed,
	})

	if len(report.Warnings) == 0 {
		t.Fatal("expected warning: approval atypical for geriatric bracket")
	}
}

func TestSimilarCasesTopFiveAboveThreshold(t *testing.T) {
	v := NewValidator()
	var history []common.HistoricalCase
	for i := 0; i < 8; i++ {
		history = append(history, common.HistoricalCase{
			ID:                   string(rune('a' + i)),
			Age:                  intp(46),
			Gender:               "M",
			Procedure:            "knee surgery",
			Location:             "pune",
			PolicyDurationMonths: intp(6),
			Decision:             common.DecisionApproved,
		})
	}
	history = append(history, common.HistoricalCase{
		ID: "z", Age: intp(90), Gender: "F", Procedure: "ivf", Location: "delhi", Decision: common.DecisionRejected,
	})

	cases := v.findSimilarCases(&kneeParsed().Entities, history)
	if len(cases) != 5 {
		t.Fatalf("similar cases = %d, want capped at 5", len(cases))
	}
	for _, c := range cases {
		if c.Similarity <= 0.7 {
			t.Errorf("case %s similarity = %v, want above 0.7", c.CaseID, c.Similarity)
		}
	}
}

func TestHistoricalDivergenceWarns(t *testing.T) {
	v := NewValidator()
	var history []common.HistoricalCase
	for i := 0; i < 4; i++ {
		history = append(history, common.HistoricalCase{
			ID:                   string(rune('a' + i)),
			Age:                  intp(46),
			Gender:               "M",
			Procedure:            "knee surgery",
			Location:             "pune",
			PolicyDurationMonths: intp(6),
			Decision:             common.DecisionRejected,
		})
	}

	report := v.Check(&Input{
		Status:     common.DecisionApproved,
		Amount:     50000,
		Confidence: 0.85,
		Parsed:     kneeParsed(),
		History:    history,
	})

	found := false
	for _, w := range report.Warnings {
		if len(w) > 0 && w[0] == 'd' {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v, want historical divergence warning", report.Warnings)
	}
}

func TestScoreClamping(t *testing.T) {
	report := &common.ConsistencyReport{
		Warnings:  make([]string, 10),
		Anomalies: make([]string, 10),
	}
	if got := score(report); got != 0.0 {
		t.Errorf("score = %v, want clamped to 0", got)
	}

	report = &common.ConsistencyReport{PatternMatches: 10}
	if got := score(report); got != 1.0 {
		t.Errorf("score = %v, want capped at 1", got)
	}
}
