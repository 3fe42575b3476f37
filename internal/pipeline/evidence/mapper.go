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

package evidence

import (
	"fmt"
	"sort"
	"strings"

	"claims-platform/internal/pipeline/common"
)

// Mapper 证据映射器：从保单文档提取条款、分类影响方向、按相关性排序并给出初步结论
type Mapper struct {
	name string
}

// NewMapper 创建新的证据映射器
func NewMapper() *Mapper {
	return &Mapper{name: "evidence_mapper"}
}

// Name 返回组件名称
func (m *Mapper) Name() string {
	return m.name
}

// Input Execute 的输入（解析结果 + 保单文档）
type Input struct {
	Parsed    *common.ParsedQuery
	Documents []common.PolicyDocument
}

// Execute 执行证据映射
func (m *Mapper) Execute(ctx *common.PipelineContext, input interface{}) (interface{}, error) {
	if err := m.Validate(input); err != nil {
		return nil, common.NewPipelineError(m.name, "输入验证失败", err)
	}
	in := input.(*Input)
	return m.Map(in.Parsed, in.Documents), nil
}

// Validate 验证输入
func (m *Mapper) Validate(input interface{}) error {
	if input == nil {
		return common.ErrInvalidInput
	}
	in, ok := input.(*Input)
	if !ok {
		return fmt.Errorf("不支持的输入类型: %T", input)
	}
	if in.Parsed == nil {
		return common.NewValidationError("parsed", "解析结果为空")
	}
	return nil
}

// Map 提取条款并给出基于证据的初步结论；无文档时返回 unclear/0.5
func (m *Mapper) Map(parsed *common.ParsedQuery, docs []common.PolicyDocument) *common.EvidenceResult {
	queryTerms := collectQueryTerms(parsed)

	var clauses []common.EvidenceClause
	idx := 0
	for _, doc := range docs {
		for _, text := range splitClauses(doc.Content) {
			clause := m.scoreClause(text, idx, doc.Source, queryTerms)
			clauses = append(clauses, clause)
			idx++
		}
	}

	// 相关性降序，同分保持提取顺序
	sort.SliceStable(clauses, func(i, j int) bool {
		return clauses[i].Relevance > clauses[j].Relevance
	})

	decision, confidence := decideFromClauses(clauses)
	for i := range clauses {
		clauses[i].DecisionRelevance = decisionRelevance(clauses[i].Impact, decision)
	}
	return &common.EvidenceResult{
		Clauses:    clauses,
		Decision:   decision,
		Confidence: confidence,
	}
}

// collectQueryTerms 查询侧匹配词：项目 + 扩展词 + 病症 + 保障类型
func collectQueryTerms(parsed *common.ParsedQuery) []string {
	var terms []string
	if parsed.Entities.Procedure != "" {
		terms = append(terms, parsed.Entities.Procedure)
	}
	terms = append(terms, parsed.ExpandedTerms...)
	if parsed.Entities.MedicalCondition != "" {
		terms = append(terms, parsed.Entities.MedicalCondition)
	}
	if parsed.Entities.CoverageType != "" {
		terms = append(terms, parsed.Entities.CoverageType)
	}
	return terms
}

// splitClauses 按空行拆分文档为候选条款
func splitClauses(content string) []string {
	var out []string
	for _, part := range strings.Split(content, "\n\n") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// scoreClause 单条款打分：编号提取、影响分类、相关性与强度
func (m *Mapper) scoreClause(text string, idx int, source string, queryTerms []string) common.EvidenceClause {
	lower := strings.ToLower(text)

	clauseID := fmt.Sprintf("doc_%d", idx)
	if match := clauseIDPattern.FindStringSubmatch(text); match != nil {
		clauseID = match[1]
	}

	impact, matched := classifyImpact(lower)

	// 查询词命中也计入关键词密度
	for _, term := range queryTerms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			matched = append(matched, term)
		}
	}

	words := len(strings.Fields(lower))
	relevance := 0.0
	if words > 0 {
		density := float64(len(matched)) / float64(words)
		lengthFactor := float64(words) / 100.0
		if lengthFactor > 1.0 {
			lengthFactor = 1.0
		}
		relevance = 0.7*density + 0.3*lengthFactor
		if relevance > 1.0 {
			relevance = 1.0
		}
	}

	return common.EvidenceClause{
		ClauseID:         clauseID,
		Text:             text,
		Impact:           impact,
		Relevance:        relevance,
		EvidenceStrength: strengthBucket(relevance),
		MatchedKeywords:  matched,
		Source:           source,
	}
}

// classifyImpact 影响分类；否定 > 肯定 > 条件 > 中性
func classifyImpact(lower string) (string, []string) {
	if hits := keywordHits(lower, rejectionKeywords); len(hits) > 0 {
		return common.ImpactRejection, hits
	}
	if hits := keywordHits(lower, approvalKeywords); len(hits) > 0 {
		return common.ImpactApproval, hits
	}
	if hits := keywordHits(lower, conditionalKeywords); len(hits) > 0 {
		return common.ImpactConditional, hits
	}
	return common.ImpactNeutral, nil
}

func keywordHits(lower string, keywords []string) []string {
	var hits []string
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			hits = append(hits, k)
		}
	}
	return hits
}

// decisionRelevance 条款影响与结论方向一致为 high，中性为 medium，其余 low
func decisionRelevance(impact, decision string) string {
	switch {
	case decision == common.DecisionApproved && impact == common.ImpactApproval:
		return "high"
	case decision == common.DecisionRejected && impact == common.ImpactRejection:
		return "high"
	case impact == common.ImpactNeutral:
		return "medium"
	default:
		return "low"
	}
}

func strengthBucket(r float64) string {
	switch {
	case r >= 0.8:
		return "strong"
	case r >= 0.5:
		return "moderate"
	default:
		return "weak"
	}
}

// decideFromClauses 相关性质量对比：哪一侧证据质量大即为初步结论，置信度为占比；无差异时 unclear/0.5
func decideFromClauses(clauses []common.EvidenceClause) (string, float64) {
	var approvalMass, rejectionMass, total float64
	for _, c := range clauses {
		switch c.Impact {
		case common.ImpactApproval:
			approvalMass += c.Relevance
		case common.ImpactRejection:
			rejectionMass += c.Relevance
		}
		total += c.Relevance
	}

	if total == 0 || (approvalMass == 0 && rejectionMass == 0) || approvalMass == rejectionMass {
		return common.DecisionUnclear, 0.5
	}
	if rejectionMass > approvalMass {
		return common.DecisionRejected, rejectionMass / total
	}
	return common.DecisionApproved, approvalMass / total
}
