package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"claims-platform/pkg/log"
)

func newTestTrail(t *testing.T) *Trail {
	t.Helper()
	logger, err := log.NewLogger(nil)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	return NewTrail(NewMemoryStore(), logger)
}

func TestSanitizeRedactsSensitiveFields(t *testing.T) {
	out := SanitizeMap(map[string]interface{}{
		"api_keys":      "sk-secret",
		"Passwords":     []string{"p1"},
		"personal_data": map[string]string{"name": "x"},
		"status":        "approved",
	})

	for _, key := range []string{"api_keys", "Passwords", "personal_data"} {
		if out[key] != "[REDACTED]" {
			t.Errorf("%s = %v, want redacted", key, out[key])
		}
	}
	if out["status"] != "approved" {
		t.Errorf("status = %v", out["status"])
	}
}

func TestSanitizeTruncatesLongStrings(t *testing.T) {
	long := strings.Repeat("x", 300)
	out := SanitizeMap(map[string]interface{}{
		"root":   long,
		"nested": map[string]interface{}{"inner": long},
	})

	root := out["root"].(string)
	if len(root) != maxScalarLen+3 || !strings.HasSuffix(root, "...") {
		t.Errorf("root length = %d", len(root))
	}
	inner := out["nested"].(map[string]interface{})["inner"].(string)
	if len(inner) != maxNestedLen+3 {
		t.Errorf("inner length = %d", len(inner))
	}
}

func TestLogDecisionAndRetrieve(t *testing.T) {
	ctx := context.Background()
	tr := newTestTrail(t)

	decision := map[string]interface{}{"status": "approved", "amount": 50000, "confidence": 0.89}
	queryCtx := map[string]interface{}{
		"entities": map[string]interface{}{"age": 46, "gender": "M", "procedure": "knee surgery", "location": "pune"},
	}

	auditID, err := tr.LogDecision(ctx, "sess-1", "user-1", "46M knee surgery", decision, queryCtx, nil, nil)
	if err != nil {
		t.Fatalf("LogDecision: %v", err)
	}
	if auditID == "" {
		t.Fatal("empty audit id")
	}

	entries, err := tr.Entries(ctx, Filter{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Action != ActionDecisionMade || e.AuditID != auditID {
		t.Errorf("entry = %+v", e)
	}
	if e.Metadata["decision_id"] != "dec_"+auditID[:8] {
		t.Errorf("decision_id = %v", e.Metadata["decision_id"])
	}

	history, err := tr.DecisionHistory(ctx, Filter{}, 10)
	if err != nil {
		t.Fatalf("DecisionHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history = %d, want 1", len(history))
	}
	rec := history[0]
	if rec.Status != "approved" || rec.Amount != 50000 {
		t.Errorf("record = %+v", rec)
	}
	if !strings.Contains(rec.QuerySummary, "Procedure: knee surgery") {
		t.Errorf("query summary = %q", rec.QuerySummary)
	}
}

func TestEntriesFilterByAction(t *testing.T) {
	ctx := context.Background()
	tr := newTestTrail(t)

	if _, err := tr.LogActivity(ctx, "sess-1", "user-1", "document_uploaded", map[string]string{"file": "policy.pdf"}); err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	if _, err := tr.LogError(ctx, "sess-1", "user-1", "parse_error", "bad query", nil); err != nil {
		t.Fatalf("LogError: %v", err)
	}

	errs, err := tr.Entries(ctx, Filter{Action: ActionErrorOccurred})
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(errs) != 1 || errs[0].ErrorType != "parse_error" {
		t.Errorf("errors = %+v", errs)
	}
}

func TestSessionSummary(t *testing.T) {
	ctx := context.Background()
	tr := newTestTrail(t)

	decision := map[string]interface{}{"status": "approved"}
	_, _ = tr.LogDecision(ctx, "sess-9", "user-1", "q1", decision, nil, nil, nil)
	_, _ = tr.LogDecision(ctx, "sess-9", "user-1", "q2", map[string]interface{}{"status": "rejected"}, nil, nil, nil)
	_, _ = tr.LogError(ctx, "sess-9", "user-1", "timeout", "upstream slow", nil)

	summary, err := tr.SessionSummary(ctx, "sess-9")
	if err != nil {
		t.Fatalf("SessionSummary: %v", err)
	}
	if summary.TotalEntries != 3 || summary.DecisionsMade != 2 || summary.ErrorsOccurred != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.DecisionBreakdown["approved"] != 1 || summary.DecisionBreakdown["rejected"] != 1 {
		t.Errorf("breakdown = %v", summary.DecisionBreakdown)
	}

	if _, err := tr.SessionSummary(ctx, "absent"); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestMemoryStoreTrim(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	old := Entry{AuditID: "old", Timestamp: time.Now().AddDate(-2, 0, 0), Action: "a"}
	recent := Entry{AuditID: "recent", Timestamp: time.Now(), Action: "a"}
	_ = s.Append(ctx, &old)
	_ = s.Append(ctx, &recent)

	cutoff := time.Now().AddDate(0, 0, -DefaultRetentionDays)
	if err := s.Trim(ctx, cutoff, DefaultMaxEntries); err != nil {
		t.Fatalf("Trim: %v", err)
	}
	entries, _ := s.List(ctx, Filter{})
	if len(entries) != 1 || entries[0].AuditID != "recent" {
		t.Errorf("entries = %+v, want only recent", entries)
	}

	// 容量上限：最旧优先淘汰
	for i := 0; i < 5; i++ {
		e := Entry{AuditID: string(rune('a' + i)), Timestamp: time.Now().Add(time.Duration(i) * time.Second), Action: "a"}
		_ = s.Append(ctx, &e)
	}
	if err := s.Trim(ctx, cutoff, 3); err != nil {
		t.Fatalf("Trim: %v", err)
	}
	entries, _ = s.List(ctx, Filter{})
	if len(entries) != 3 {
		t.Errorf("entries after cap = %d, want 3", len(entries))
	}
}

func TestExportReportFormats(t *testing.T) {
	ctx := context.Background()
	tr := newTestTrail(t)

	decision := map[string]interface{}{"status": "approved", "amount": 50000, "confidence": 0.9}
	_, _ = tr.LogDecision(ctx, "sess-1", "user-1", "knee surgery claim", decision, nil, nil, nil)
	_, _ = tr.LogError(ctx, "sess-2", "user-2", "timeout", "slow", nil)

	jsonReport, err := tr.ExportReport(ctx, Filter{}, "json")
	if err != nil {
		t.Fatalf("ExportReport json: %v", err)
	}
	if !strings.Contains(jsonReport, `"total_decisions": 1`) || !strings.Contains(jsonReport, `"unique_sessions": 2`) {
		t.Errorf("json report missing summary: %s", jsonReport)
	}

	csvReport, err := tr.ExportReport(ctx, Filter{}, "csv")
	if err != nil {
		t.Fatalf("ExportReport csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(csvReport), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want header + 1 decision row", len(lines))
	}
	if !strings.Contains(lines[1], "approved") || !strings.Contains(lines[1], "50000") {
		t.Errorf("csv row = %s", lines[1])
	}
}
