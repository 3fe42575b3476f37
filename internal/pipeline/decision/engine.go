// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package decision

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"claims-platform/internal/audit"
	"claims-platform/internal/model/llm"
	"claims-platform/internal/pipeline/common"
	"claims-platform/internal/pipeline/consistency"
	"claims-platform/internal/pipeline/evidence"
	"claims-platform/internal/pipeline/explain"
	"claims-platform/internal/pipeline/query"
	"claims-platform/internal/pipeline/reason"
	"claims-platform/internal/storage/cache"
	"claims-platform/pkg/log"
	"claims-platform/pkg/metrics"
)

// Engine 理赔决策编排器：按阶段顺序执行并在边界处读写缓存。
// 任一阶段失败降级为 unclear 决策，不向外抛 panic；审计始终落盘。
type Engine struct {
	name      string
	analyzer  *query.Analyzer
	mapper    *evidence.Mapper
	reasoner  *reason.Reasoner
	validator *consistency.Validator
	explainer *explain.Explainer

	cacheMgr *cache.Manager
	trail    *audit.Trail
	fallback *Fallback
	logger   *log.Logger

	mu      sync.Mutex
	history []common.HistoricalCase
}

// Options 引擎依赖；Cache 与 LLM 可为空
type Options struct {
	Cache  *cache.Manager
	Trail  *audit.Trail
	LLM    llm.Client
	Logger *log.Logger
}

// NewEngine 创建决策引擎
func NewEngine(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger, _ = log.NewLogger(nil)
	}
	e := &Engine{
		name:      "decision_engine",
		analyzer:  query.NewAnalyzer(),
		mapper:    evidence.NewMapper(),
		reasoner:  reason.NewReasoner(),
		validator: consistency.NewValidator(),
		explainer: explain.NewExplainer(),
		cacheMgr:  opts.Cache,
		trail:     opts.Trail,
		logger:    logger,
	}
	if opts.LLM != nil {
		e.fallback = NewFallback(opts.LLM)
	}
	return e
}

// Decide 执行一次完整理赔决策。
// 阶段错误不返回给调用方，而是产出带错误说明的 unclear 决策。
func (e *Engine) Decide(ctx context.Context, queryText, sessionID, userID string, docs []common.PolicyDocument) *common.Decision {
	start := time.Now()
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	if cached := e.cachedDecision(ctx, queryText); cached != nil {
		e.logger.Info("decision served from cache", "session_id", sessionID)
		return cached
	}

	d := e.run(ctx, queryText, sessionID, docs)
	d.ProcessTime = time.Since(start)

	metrics.DecisionTotal.WithLabelValues(d.Status).Inc()
	metrics.DecisionDuration.Observe(d.ProcessTime.Seconds())

	e.appendHistory(d)
	e.putDecisionCache(ctx, queryText, d)
	e.logDecision(ctx, sessionID, userID, queryText, d)
	return d
}

// run 阶段顺序：分析 → 证据 → 推理(+兜底) → 校验 → 解释
func (e *Engine) run(ctx context.Context, queryText, sessionID string, docs []common.PolicyDocument) *common.Decision {
	d := &common.Decision{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Query:     queryText,
		CreatedAt: time.Now(),
	}

	pctx := common.NewPipelineContext(ctx, d.ID)
	pctx.SessionID = sessionID

	parsed, err := e.analyze(pctx, queryText, sessionID)
	if err != nil {
		return e.degrade(ctx, d, "query_analyzer", err)
	}
	d.Parsed = parsed

	ev, err := e.mapEvidence(pctx, parsed, docs)
	if err != nil {
		return e.degrade(ctx, d, "evidence_mapper", err)
	}
	d.Evidence = ev

	reasoning, err := e.reason(pctx, parsed)
	if err != nil {
		return e.degrade(ctx, d, "multi_hop_reasoner", err)
	}

	// 否定条款证据占优时拒绝优先，先于链综合与 LLM 兜底生效。
	// 链可能因未提取到 procedure 而未激活，此时排除条款仍须拒赔。
	if ev.Decision == common.DecisionRejected && ev.Confidence >= rejectionEvidenceFloor &&
		reasoning.Decision != common.DecisionRejected {
		reasoning.Decision = common.DecisionRejected
		reasoning.Amount = 0
		reasoning.Confidence = ev.Confidence
		reasoning.Justification = rejectionJustification(ev)
	}

	if reasoning.Decision == common.DecisionUnclear && e.fallback != nil {
		if res, ferr := e.fallback.Resolve(ctx, queryText, ev.Clauses); ferr != nil {
			e.logger.Warn("LLM fallback failed", "error", ferr)
		} else if res != nil {
			reasoning.Decision = res.Status
			reasoning.Justification = res.Justification
			reasoning.Confidence = res.Confidence
			if res.Amount > 0 {
				reasoning.Amount = res.Amount
			}
		}
	}
	d.Reasoning = reasoning
	d.Status = reasoning.Decision
	d.Amount = reasoning.Amount
	d.Justification = reasoning.Justification
	d.Confidence = reasoning.Confidence

	report, err := e.validate(pctx, d)
	if err != nil {
		return e.degrade(ctx, d, "consistency_validator", err)
	}
	d.Consistency = report

	explanation, err := e.explain(pctx, d)
	if err != nil {
		return e.degrade(ctx, d, "decision_explainer", err)
	}
	d.Explanation = explanation

	pctx.Status = "completed"
	pctx.EndTime = time.Now()
	return d
}

// analyze 查询分析，query 类别缓存在此读写
func (e *Engine) analyze(pctx *common.PipelineContext, queryText, sessionID string) (*common.ParsedQuery, error) {
	ctx := pctx.Context
	if e.cacheMgr != nil {
		var cached common.ParsedQuery
		if hit, _ := e.cacheMgr.Get(ctx, cache.CategoryQuery, queryText, &cached); hit {
			metrics.CacheHitTotal.WithLabelValues(cache.CategoryQuery).Inc()
			return &cached, nil
		}
		metrics.CacheMissTotal.WithLabelValues(cache.CategoryQuery).Inc()
	}

	out, err := e.executeStage(pctx, e.analyzer, &common.ClaimQuery{
		ID:        uuid.New().String(),
		Text:      queryText,
		SessionID: sessionID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}
	parsed := out.(*common.ParsedQuery)

	if e.cacheMgr != nil {
		_ = e.cacheMgr.Put(ctx, cache.CategoryQuery, queryText, parsed)
	}
	return parsed, nil
}

func (e *Engine) mapEvidence(pctx *common.PipelineContext, parsed *common.ParsedQuery, docs []common.PolicyDocument) (*common.EvidenceResult, error) {
	out, err := e.executeStage(pctx, e.mapper, &evidence.Input{Parsed: parsed, Documents: docs})
	if err != nil {
		return nil, err
	}
	return out.(*common.EvidenceResult), nil
}

// reason 多跳推理，reasoning 类别按实体签名缓存
func (e *Engine) reason(pctx *common.PipelineContext, parsed *common.ParsedQuery) (*common.ReasoningResult, error) {
	ctx := pctx.Context
	key := entityKey(&parsed.Entities)
	if e.cacheMgr != nil {
		var cached common.ReasoningResult
		if hit, _ := e.cacheMgr.Get(ctx, cache.CategoryReasoning, key, &cached); hit {
			metrics.CacheHitTotal.WithLabelValues(cache.CategoryReasoning).Inc()
			return &cached, nil
		}
		metrics.CacheMissTotal.WithLabelValues(cache.CategoryReasoning).Inc()
	}

	out, err := e.executeStage(pctx, e.reasoner, parsed)
	if err != nil {
		return nil, err
	}
	result := out.(*common.ReasoningResult)

	if e.cacheMgr != nil {
		_ = e.cacheMgr.Put(ctx, cache.CategoryReasoning, key, result)
	}
	return result, nil
}

func (e *Engine) validate(pctx *common.PipelineContext, d *common.Decision) (*common.ConsistencyReport, error) {
	out, err := e.executeStage(pctx, e.validator, &consistency.Input{
		Status:     d.Status,
		Amount:     d.Amount,
		Confidence: d.Confidence,
		Parsed:     d.Parsed,
		History:    e.snapshotHistory(),
	})
	if err != nil {
		return nil, err
	}
	return out.(*common.ConsistencyReport), nil
}

func (e *Engine) explain(pctx *common.PipelineContext, d *common.Decision) (*common.Explanation, error) {
	out, err := e.executeStage(pctx, e.explainer, &explain.Input{
		Status:      d.Status,
		Amount:      d.Amount,
		Confidence:  d.Confidence,
		Parsed:      d.Parsed,
		Evidence:    d.Evidence,
		Reasoning:   d.Reasoning,
		Consistency: d.Consistency,
	})
	if err != nil {
		return nil, err
	}
	return out.(*common.Explanation), nil
}

// executeStage 单阶段执行：计时、失败计数、panic 捕获
func (e *Engine) executeStage(pctx *common.PipelineContext, stage common.PipelineStage, input interface{}) (out interface{}, err error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(stage.Name()).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			metrics.StageFailTotal.WithLabelValues(stage.Name()).Inc()
			err = common.NewPipelineError(stage.Name(), "阶段执行 panic", common.ErrInternal)
		}
	}()

	out, err = stage.Execute(pctx, input)
	if err != nil {
		metrics.StageFailTotal.WithLabelValues(stage.Name()).Inc()
		return nil, err
	}
	return out, nil
}

// degrade 阶段失败降级：unclear 决策附错误说明，并记录错误审计
func (e *Engine) degrade(ctx context.Context, d *common.Decision, stage string, err error) *common.Decision {
	e.logger.Error("pipeline stage failed", "stage", stage, "error", err)

	d.Status = common.DecisionUnclear
	d.Amount = 0
	d.Confidence = 0
	d.Justification = "decision could not be completed: " + stage + " failed"

	if e.trail != nil {
		if _, aerr := e.trail.LogError(ctx, d.SessionID, "", stage+"_failure", err.Error(),
			map[string]interface{}{"decision_id": d.ID, "query": d.Query}); aerr != nil {
			e.logger.Error("audit log failed", "error", aerr)
		}
		metrics.AuditEntryTotal.WithLabelValues(audit.ActionErrorOccurred).Inc()
	}
	return d
}

// logDecision 决策审计，失败仅记日志
func (e *Engine) logDecision(ctx context.Context, sessionID, userID, queryText string, d *common.Decision) {
	if e.trail == nil {
		return
	}
	decisionView := map[string]interface{}{
		"id":         d.ID,
		"status":     d.Status,
		"amount":     d.Amount,
		"confidence": d.Confidence,
	}
	if _, err := e.trail.LogDecision(ctx, sessionID, userID, queryText,
		decisionView, d.Parsed, d.Reasoning, d.Consistency); err != nil {
		e.logger.Error("audit log failed", "error", err)
		return
	}
	metrics.AuditEntryTotal.WithLabelValues(audit.ActionDecisionMade).Inc()
}

// cachedDecision decision 类别缓存读取
func (e *Engine) cachedDecision(ctx context.Context, queryText string) *common.Decision {
	if e.cacheMgr == nil {
		return nil
	}
	var cached common.Decision
	hit, err := e.cacheMgr.Get(ctx, cache.CategoryDecision, queryText, &cached)
	if err != nil || !hit {
		metrics.CacheMissTotal.WithLabelValues(cache.CategoryDecision).Inc()
		return nil
	}
	metrics.CacheHitTotal.WithLabelValues(cache.CategoryDecision).Inc()
	return &cached
}

func (e *Engine) putDecisionCache(ctx context.Context, queryText string, d *common.Decision) {
	if e.cacheMgr == nil {
		return
	}
	if err := e.cacheMgr.Put(ctx, cache.CategoryDecision, queryText, d); err != nil {
		e.logger.Warn("decision cache write failed", "error", err)
	}
}

// appendHistory 决策入史，供后续一致性校验比对
func (e *Engine) appendHistory(d *common.Decision) {
	if d.Parsed == nil {
		return
	}
	entities := d.Parsed.Entities
	e.mu.Lock()
	e.history = append(e.history, common.HistoricalCase{
		ID:                   d.ID,
		Age:                  entities.Age,
		Gender:               entities.Gender,
		Procedure:            entities.Procedure,
		Location:             entities.Location,
		PolicyDurationMonths: entities.PolicyDurationMonths,
		Decision:             d.Status,
		Amount:               d.Amount,
	})
	e.mu.Unlock()
}

func (e *Engine) snapshotHistory() []common.HistoricalCase {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]common.HistoricalCase, len(e.history))
	copy(out, e.history)
	return out
}

// SeedHistory 预载历史案例（启动时从审计存储恢复）
func (e *Engine) SeedHistory(cases []common.HistoricalCase) {
	e.mu.Lock()
	e.history = append(e.history, cases...)
	e.mu.Unlock()
}

// rejectionEvidenceFloor 证据拒绝裁定覆盖链综合所需的最低置信度
const rejectionEvidenceFloor = 0.7

// rejectionJustification 取最相关的否定条款作为拒绝理由；条款已按相关性降序
func rejectionJustification(ev *common.EvidenceResult) string {
	for _, c := range ev.Clauses {
		if c.Impact == common.ImpactRejection {
			return "policy exclusion applies (clause " + c.ClauseID + "): " + c.Text
		}
	}
	return "policy exclusion applies"
}

// entityKey 推理缓存键：实体的稳定序列化
func entityKey(entities *common.Entities) string {
	data, err := json.Marshal(entities)
	if err != nil {
		return ""
	}
	return string(data)
}
