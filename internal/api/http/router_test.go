package http

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"

	"claims-platform/internal/api/http/middleware"
	appsvc "claims-platform/internal/app"
	"claims-platform/internal/audit"
	"claims-platform/internal/pipeline/common"
	"claims-platform/internal/pipeline/decision"
	"claims-platform/internal/storage/cache"
)

func buildRouterForTest(t *testing.T) (*server.Hertz, appsvc.DocumentService) {
	t.Helper()
	cacheMgr := cache.NewManager(cache.NewMemoryStore())
	trail := audit.NewTrail(audit.NewMemoryStore(), nil)
	engine := decision.NewEngine(decision.Options{Cache: cacheMgr, Trail: trail})
	docs := appsvc.NewDocumentService()

	h := NewHandler(engine, docs)
	h.SetTrail(trail)
	h.SetCache(cacheMgr)
	r := NewRouter(h, middleware.NewMiddleware())
	return r.Build(":0"), docs
}

func uploadPolicyForTest(t *testing.T, docs appsvc.DocumentService) string {
	t.Helper()
	doc := &common.PolicyDocument{
		ID: "policy-1",
		Content: "Section 4.1: Knee surgery is covered for insured members aged 18 to 65.\n\n" +
			"Section 9.2: Cosmetic surgery is not covered under any plan.",
		Source:    "policy.pdf",
		Metadata:  map[string]interface{}{"format": "pdf"},
		CreatedAt: time.Now(),
	}
	if err := docs.AddDocument(context.Background(), doc); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	return doc.ID
}

func postJSON(s *server.Hertz, path string, payload interface{}) *ut.ResponseRecorder {
	body, _ := json.Marshal(payload)
	return ut.PerformRequest(s.Engine, "POST", path,
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
}

func TestRouter_Health(t *testing.T) {
	s, _ := buildRouterForTest(t)

	w := ut.PerformRequest(s.Engine, "GET", "/health", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("GET /health status = %d, want 200", got)
	}
	if !bytes.Contains(w.Result().Body(), []byte(`"status":"ok"`)) {
		t.Fatalf("body = %s", w.Result().Body())
	}
}

func TestRouter_DecideClaimRequiresQuery(t *testing.T) {
	s, _ := buildRouterForTest(t)

	w := postJSON(s, "/api/v1/claims/decide", map[string]string{})
	if got := w.Result().StatusCode(); got != 400 {
		t.Fatalf("status = %d, want 400", got)
	}
	if !bytes.Contains(w.Result().Body(), []byte("query is required")) {
		t.Fatalf("body = %s", w.Result().Body())
	}
}

func TestRouter_DecideClaimFlow(t *testing.T) {
	s, docs := buildRouterForTest(t)

	uploadPolicyForTest(t, docs)

	w := postJSON(s, "/api/v1/claims/decide", map[string]string{
		"query":      "46M, knee surgery in Pune, 3-month-old insurance policy",
		"session_id": "sess_router",
		"user_id":    "user_1",
	})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("status = %d, body = %s", got, w.Result().Body())
	}

	var resp struct {
		Status string  `json:"status"`
		Amount float64 `json:"amount"`
	}
	if err := json.Unmarshal(w.Result().Body(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "approved" {
		t.Errorf("status = %q, want approved", resp.Status)
	}
	if resp.Amount != 50000 {
		t.Errorf("amount = %v, want 50000", resp.Amount)
	}
}

func TestRouter_AnalyzeQuery(t *testing.T) {
	s, _ := buildRouterForTest(t)

	w := postJSON(s, "/api/v1/claims/query", map[string]string{
		"query": "46M, knee surgery in Pune, 3-month-old insurance policy",
	})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("status = %d, body = %s", got, w.Result().Body())
	}
	body := w.Result().Body()
	if !bytes.Contains(body, []byte(`"age":46`)) || !bytes.Contains(body, []byte(`"procedure":"knee surgery"`)) {
		t.Fatalf("body = %s", body)
	}
}

func TestRouter_AuditEntriesAfterDecision(t *testing.T) {
	s, docs := buildRouterForTest(t)
	uploadPolicyForTest(t, docs)

	_ = postJSON(s, "/api/v1/claims/decide", map[string]string{
		"query":      "46M, knee surgery in Pune, 3-month-old insurance policy",
		"session_id": "sess_audit",
	})

	w := ut.PerformRequest(s.Engine, "GET", "/api/v1/audit/entries?session_id=sess_audit&action=decision_made",
		&ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("status = %d", got)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Result().Body(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}
}

func TestRouter_CacheStatsAndInvalidate(t *testing.T) {
	s, docs := buildRouterForTest(t)
	uploadPolicyForTest(t, docs)

	_ = postJSON(s, "/api/v1/claims/decide", map[string]string{
		"query": "46M, knee surgery in Pune, 3-month-old insurance policy",
	})

	w := ut.PerformRequest(s.Engine, "GET", "/api/v1/cache/stats", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("stats status = %d", got)
	}
	var stats struct {
		Entries map[string]int `json:"entries"`
	}
	if err := json.Unmarshal(w.Result().Body(), &stats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if stats.Entries[cache.CategoryDecision] == 0 {
		t.Fatalf("decision cache empty: %+v", stats.Entries)
	}

	w = ut.PerformRequest(s.Engine, "DELETE", "/api/v1/cache/"+cache.CategoryDecision, &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("invalidate status = %d", got)
	}
	if !bytes.Contains(w.Result().Body(), []byte(`"removed":1`)) {
		t.Fatalf("body = %s", w.Result().Body())
	}
}

func TestRouter_DocumentLifecycle(t *testing.T) {
	s, docs := buildRouterForTest(t)
	id := uploadPolicyForTest(t, docs)

	w := ut.PerformRequest(s.Engine, "GET", "/api/v1/documents", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("list status = %d", got)
	}
	if !bytes.Contains(w.Result().Body(), []byte(`"total":1`)) {
		t.Fatalf("body = %s", w.Result().Body())
	}

	w = ut.PerformRequest(s.Engine, "DELETE", "/api/v1/documents/"+id, &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("delete status = %d", got)
	}

	w = ut.PerformRequest(s.Engine, "GET", "/api/v1/documents/"+id, &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 404 {
		t.Fatalf("get deleted status = %d, want 404", got)
	}
}

func TestRouter_AuditExportCSV(t *testing.T) {
	s, docs := buildRouterForTest(t)
	uploadPolicyForTest(t, docs)

	_ = postJSON(s, "/api/v1/claims/decide", map[string]string{
		"query": "46M, knee surgery in Pune, 3-month-old insurance policy",
	})

	w := postJSON(s, "/api/v1/audit/export", map[string]string{"format": "csv"})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("status = %d, body = %s", got, w.Result().Body())
	}
	body := string(w.Result().Body())
	if !strings.HasPrefix(body, "Timestamp, Action, User ID") {
		t.Fatalf("csv header missing: %q", body)
	}
}
