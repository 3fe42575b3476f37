package decision

import (
	"context"
	"testing"
	"time"

	"claims-platform/internal/audit"
	"claims-platform/internal/model/llm"
	"claims-platform/internal/pipeline/common"
	"claims-platform/internal/storage/cache"
	"claims-platform/pkg/log"
)

type fakeLLM struct {
	answer string
	err    error
	calls  int
}

func (f *fakeLLM) Generate(prompt string, options llm.GenerateOptions) (string, error) {
	return f.GenerateWithContext(context.Background(), prompt, options)
}

func (f *fakeLLM) GenerateWithContext(ctx context.Context, prompt string, options llm.GenerateOptions) (string, error) {
	f.calls++
	return f.answer, f.err
}

func (f *fakeLLM) Chat(messages []llm.Message, options llm.GenerateOptions) (string, error) {
	return f.answer, f.err
}

func (f *fakeLLM) ChatWithContext(ctx context.Context, messages []llm.Message, options llm.GenerateOptions) (string, error) {
	return f.answer, f.err
}

func (f *fakeLLM) Model() string    { return "fake" }
func (f *fakeLLM) Provider() string { return "fake" }
func (f *fakeLLM) SetModel(string)  {}
func (f *fakeLLM) SetAPIKey(string) {}

func newTestEngine(t *testing.T, client llm.Client) (*Engine, *audit.Trail) {
	t.Helper()
	logger, err := log.NewLogger(nil)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	trail := audit.NewTrail(audit.NewMemoryStore(), logger)
	return NewEngine(Options{
		Cache:  cache.NewManager(cache.NewMemoryStore()),
		Trail:  trail,
		LLM:    client,
		Logger: logger,
	}), trail
}

func policyDocs() []common.PolicyDocument {
	return []common.PolicyDocument{{
		ID: "policy-1",
		Content: "Section 4.1: Knee surgery is covered for insured members aged 18 to 65.\n\n" +
			"Section 9.2: Cosmetic surgery is not covered under any plan.",
		Source:    "policy.pdf",
		CreatedAt: time.Now(),
	}}
}

func TestDecideApprovedFlow(t *testing.T) {
	ctx := context.Background()
	e, trail := newTestEngine(t, nil)

	d := e.Decide(ctx, "46M, knee surgery in Pune, 3-month-old insurance policy", "sess-1", "user-1", policyDocs())

	if d.Status != common.DecisionApproved {
		t.Fatalf("status = %q, want approved (justification: %s)", d.Status, d.Justification)
	}
	if d.Amount != 50000 {
		t.Errorf("amount = %d, want 50000", d.Amount)
	}
	if d.Parsed == nil || d.Evidence == nil || d.Reasoning == nil || d.Consistency == nil || d.Explanation == nil {
		t.Error("decision missing stage results")
	}
	if d.ID == "" || d.ProcessTime <= 0 {
		t.Errorf("decision metadata incomplete: id=%q process_time=%v", d.ID, d.ProcessTime)
	}

	entries, err := trail.Entries(ctx, audit.Filter{Action: audit.ActionDecisionMade})
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("audit decision entries = %d, want 1", len(entries))
	}
	if entries[0].SessionID != "sess-1" {
		t.Errorf("audit session = %q", entries[0].SessionID)
	}
}

func TestDecideServedFromCache(t *testing.T) {
	ctx := context.Background()
	e, trail := newTestEngine(t, nil)
	queryText := "46M, knee surgery in Pune, 3-month-old insurance policy"

	first := e.Decide(ctx, queryText, "sess-1", "user-1", policyDocs())
	second := e.Decide(ctx, queryText, "sess-2", "user-2", policyDocs())

	if second.ID != first.ID || second.Status != first.Status {
		t.Errorf("cached decision differs: %q vs %q", second.ID, first.ID)
	}

	// 缓存命中时不再写第二条决策审计
	entries, _ := trail.Entries(ctx, audit.Filter{Action: audit.ActionDecisionMade})
	if len(entries) != 1 {
		t.Errorf("audit decision entries = %d, want 1", len(entries))
	}
}

func TestDecideUnclearWithoutFallback(t *testing.T) {
	ctx := context.Background()
	e, trail := newTestEngine(t, nil)

	d := e.Decide(ctx, "please check my claim", "sess-3", "user-1", nil)

	if d.Status != common.DecisionUnclear {
		t.Errorf("status = %q, want unclear", d.Status)
	}
	if d.Explanation == nil {
		t.Error("explanation missing for unclear decision")
	}

	entries, _ := trail.Entries(ctx, audit.Filter{SessionID: "sess-3"})
	if len(entries) == 0 {
		t.Error("unclear decision should still be audited")
	}
}

func TestDecideLLMFallbackResolvesUnclear(t *testing.T) {
	ctx := context.Background()
	client := &fakeLLM{answer: "Based on the clauses, this treatment is covered up to ₹75,000."}
	e, _ := newTestEngine(t, client)

	d := e.Decide(ctx, "please check my claim", "sess-4", "user-1", policyDocs())

	if client.calls == 0 {
		t.Fatal("fallback LLM was not consulted")
	}
	if d.Status != common.DecisionApproved {
		t.Errorf("status = %q, want approved from fallback", d.Status)
	}
	if d.Amount != 75000 {
		t.Errorf("amount = %d, want 75000", d.Amount)
	}
	if d.Confidence != fallbackConfidence {
		t.Errorf("confidence = %v, want %v", d.Confidence, fallbackConfidence)
	}
}

func TestDecideEvidenceRejectionOverridesChains(t *testing.T) {
	ctx := context.Background()
	client := &fakeLLM{answer: "covered up to ₹10,000"}
	e, _ := newTestEngine(t, client)
	docs := []common.PolicyDocument{{
		ID:        "policy-2",
		Content:   "Teeth whitening is considered cosmetic and not covered.",
		Source:    "dental.pdf",
		CreatedAt: time.Now(),
	}}

	// procedure 未入词表，procedure 链不激活；排除条款仍须拒赔
	d := e.Decide(ctx, "teeth whitening for 30-year-old female with 1-year policy", "sess-6", "user-1", docs)

	if d.Evidence == nil || d.Evidence.Decision != common.DecisionRejected {
		t.Fatalf("evidence decision = %+v, want rejected", d.Evidence)
	}
	if d.Status != common.DecisionRejected {
		t.Fatalf("status = %q, want rejected (justification: %s)", d.Status, d.Justification)
	}
	if d.Amount != 0 {
		t.Errorf("amount = %d, want 0", d.Amount)
	}
	if d.Justification == "" {
		t.Error("rejection should carry the exclusion clause as justification")
	}
	if client.calls != 0 {
		t.Errorf("LLM fallback consulted %d times, want 0 for evidence rejection", client.calls)
	}
}

func TestDecideHistoryFeedsConsistency(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, nil)

	seed := make([]common.HistoricalCase, 0, 12)
	age := 46
	for i := 0; i < 12; i++ {
		seed = append(seed, common.HistoricalCase{
			ID: "h", Age: &age, Gender: "M", Procedure: "knee surgery", Location: "pune",
			Decision: common.DecisionApproved, Amount: 50000,
		})
	}
	e.SeedHistory(seed)

	d := e.Decide(ctx, "46M, knee surgery in Pune, 3-month-old insurance policy", "sess-5", "user-1", policyDocs())

	if d.Consistency == nil {
		t.Fatal("consistency report missing")
	}
	if len(d.Consistency.SimilarCases) == 0 {
		t.Error("expected similar cases from seeded history")
	}
	if len(d.Consistency.SimilarCases) > 5 {
		t.Errorf("similar cases = %d, want at most 5", len(d.Consistency.SimilarCases))
	}
}
