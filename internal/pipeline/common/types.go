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

package common

import (
	"context"
	"time"
)

// PipelineContext Pipeline 执行上下文
type PipelineContext struct {
	Context   context.Context
	ID        string
	SessionID string
	Metadata  map[string]interface{}
	StartTime time.Time
	EndTime   time.Time
	Status    string
	Error     error
}

// NewPipelineContext 创建新的 Pipeline 上下文
func NewPipelineContext(ctx context.Context, id string) *PipelineContext {
	return &PipelineContext{
		Context:   ctx,
		ID:        id,
		Metadata:  make(map[string]interface{}),
		StartTime: time.Now(),
		Status:    "running",
	}
}

// ClaimQuery 理赔查询原文
type ClaimQuery struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	SessionID string    `json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Entities 从查询中抽取的结构化实体；指针字段区分「未提及」与零值
type Entities struct {
	Age                  *int   `json:"age,omitempty"`
	Gender               string `json:"gender,omitempty"` // M | F
	Procedure            string `json:"procedure,omitempty"`
	Location             string `json:"location,omitempty"`
	PolicyDurationMonths *int   `json:"policy_duration_months,omitempty"`
	MedicalCondition     string `json:"medical_condition,omitempty"`
	Urgency              string `json:"urgency,omitempty"` // high | normal
	CoverageType         string `json:"coverage_type,omitempty"`
}

// Count 已抽取实体数
func (e *Entities) Count() int {
	n := 0
	if e.Age != nil {
		n++
	}
	if e.Gender != "" {
		n++
	}
	if e.Procedure != "" {
		n++
	}
	if e.Location != "" {
		n++
	}
	if e.PolicyDurationMonths != nil {
		n++
	}
	if e.MedicalCondition != "" {
		n++
	}
	if e.Urgency != "" {
		n++
	}
	if e.CoverageType != "" {
		n++
	}
	return n
}

// Ambiguity 查询中的歧义项（仅提示，不阻断流程）
type Ambiguity struct {
	Type       string `json:"type"` // vague_procedure | missing_age | missing_location | age_procedure_mismatch
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ParsedQuery 查询分析结果：实体 + 校验 + 语义扩展 + 歧义报告
type ParsedQuery struct {
	Query           *ClaimQuery `json:"query"`
	Entities        Entities    `json:"entities"`
	Valid           bool        `json:"valid"`
	Errors          []string    `json:"errors,omitempty"`
	Warnings        []string    `json:"warnings,omitempty"`
	Completeness    float64     `json:"completeness"`
	Confidence      float64     `json:"confidence"`
	ExpandedTerms   []string    `json:"expanded_terms,omitempty"`
	RelatedConcepts []string    `json:"related_concepts,omitempty"`
	Ambiguities     []Ambiguity `json:"ambiguities,omitempty"`
	ClarityLevel    string      `json:"clarity_level"` // high | medium | low
	MedicalDomain   string      `json:"medical_domain,omitempty"`
	Complexity      string      `json:"complexity"` // simple | medium | complex
}

// PolicyDocument 保单条款文档（上传解析后的文本）
type PolicyDocument struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Source    string                 `json:"source,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// 条款影响方向
const (
	ImpactApproval    = "approval"
	ImpactRejection   = "rejection"
	ImpactConditional = "conditional"
	ImpactNeutral     = "neutral"
)

// EvidenceClause 单条证据条款及其评分
type EvidenceClause struct {
	ClauseID         string   `json:"clause_id"`
	Text             string   `json:"text"`
	Impact           string   `json:"impact"`
	Relevance        float64  `json:"relevance"`
	DecisionRelevance string  `json:"decision_relevance"` // high | medium | low
	EvidenceStrength string   `json:"evidence_strength"`  // strong | moderate | weak
	MatchedKeywords  []string `json:"matched_keywords,omitempty"`
	Source           string   `json:"source,omitempty"`
}

// EvidenceResult 证据映射结果：排序后的条款 + 基于证据的初步结论
type EvidenceResult struct {
	Clauses    []EvidenceClause `json:"clauses"`
	Decision   string           `json:"decision"` // approved | rejected | unclear
	Confidence float64          `json:"confidence"`
}

// 推理步骤状态
const (
	StepEligible     = "eligible"
	StepCovered      = "covered"
	StepIneligible   = "ineligible"
	StepExcluded     = "excluded"
	StepRestricted   = "restricted"
	StepConditional  = "conditional"
	StepNoExclusions = "no_exclusions"
	StepUnknown      = "unknown"
)

// ReasoningStep 单步推理结论
type ReasoningStep struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ReasoningChain 一条独立推理链
type ReasoningChain struct {
	Name       string          `json:"name"`
	Steps      []ReasoningStep `json:"steps"`
	Verdict    string          `json:"verdict"`
	Confidence float64         `json:"confidence"`
}

// ReasoningResult 多链推理综合结果
type ReasoningResult struct {
	Chains           []ReasoningChain `json:"chains"`
	Decision         string           `json:"decision"` // approved | rejected | conditional | unclear
	Justification    string           `json:"justification"`
	Confidence       float64          `json:"confidence"`
	Amount           int              `json:"amount,omitempty"` // 推理得出的给付上限（卢比），0 表示未确定
	SupportingChains []string         `json:"supporting_chains,omitempty"`
	OpposingChains   []string         `json:"opposing_chains,omitempty"`
}

// SimilarCase 历史相似案例
type SimilarCase struct {
	CaseID     string  `json:"case_id"`
	Similarity float64 `json:"similarity"`
	Decision   string  `json:"decision"`
}

// HistoricalCase 历史决策记录（一致性校验用）
type HistoricalCase struct {
	ID                   string `json:"id"`
	Age                  *int   `json:"age,omitempty"`
	Gender               string `json:"gender,omitempty"`
	Procedure            string `json:"procedure,omitempty"`
	Location             string `json:"location,omitempty"`
	PolicyDurationMonths *int   `json:"policy_duration_months,omitempty"`
	Decision             string `json:"decision"`
	Amount               int    `json:"amount,omitempty"`
}

// ConsistencyReport 一致性校验报告
type ConsistencyReport struct {
	Warnings       []string      `json:"warnings,omitempty"`
	Anomalies      []string      `json:"anomalies,omitempty"`
	PatternMatches int           `json:"pattern_matches"`
	SimilarCases   []SimilarCase `json:"similar_cases,omitempty"`
	Score          float64       `json:"score"`
	Consistent     bool          `json:"consistent"`
}

// 决策状态
const (
	DecisionApproved    = "approved"
	DecisionRejected    = "rejected"
	DecisionConditional = "conditional"
	DecisionUnclear     = "unclear"
)

// Explanation 面向用户的决策解释
type Explanation struct {
	Text                string   `json:"text"`
	Summary             string   `json:"summary"`
	KeyFactors          []string `json:"key_factors,omitempty"`
	EvidenceSummary     string   `json:"evidence_summary,omitempty"`
	ConfidenceBreakdown float64  `json:"confidence_breakdown"`
	NextActions         []string `json:"next_actions,omitempty"`
	RiskFactors         []string `json:"risk_factors,omitempty"`
	ComplexityLevel     string   `json:"complexity_level,omitempty"`
}

// Decision 最终决策记录
type Decision struct {
	ID            string             `json:"id"`
	SessionID     string             `json:"session_id,omitempty"`
	Query         string             `json:"query"`
	Status        string             `json:"status"`
	Amount        int                `json:"amount,omitempty"`
	Justification string             `json:"justification"`
	Confidence    float64            `json:"confidence"`
	Parsed        *ParsedQuery       `json:"parsed,omitempty"`
	Evidence      *EvidenceResult    `json:"evidence,omitempty"`
	Reasoning     *ReasoningResult   `json:"reasoning,omitempty"`
	Consistency   *ConsistencyReport `json:"consistency,omitempty"`
	Explanation   *Explanation       `json:"explanation,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	ProcessTime   time.Duration      `json:"process_time"`
}

// PipelineStage Pipeline 阶段
type PipelineStage interface {
	Name() string
	Execute(ctx *PipelineContext, input interface{}) (interface{}, error)
	Validate(input interface{}) error
}
