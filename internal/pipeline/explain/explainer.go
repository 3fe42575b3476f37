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

package explain

import (
	"fmt"
	"strings"

	"claims-platform/internal/pipeline/common"
)

// Explainer 决策解释器：按状态模板生成说明，附风险因素与复杂度
type Explainer struct {
	name string
}

// NewExplainer 创建新的决策解释器
func NewExplainer() *Explainer {
	return &Explainer{name: "decision_explainer"}
}

// Name 返回组件名称
func (ex *Explainer) Name() string {
	return ex.name
}

// Input 解释输入：决策要素 + 各阶段结果
type Input struct {
	Status      string
	Amount      int
	Confidence  float64
	Parsed      *common.ParsedQuery
	Evidence    *common.EvidenceResult
	Reasoning   *common.ReasoningResult
	Consistency *common.ConsistencyReport
}

// Execute 执行解释生成
func (ex *Explainer) Execute(ctx *common.PipelineContext, input interface{}) (interface{}, error) {
	if err := ex.Validate(input); err != nil {
		return nil, common.NewPipelineError(ex.name, "输入验证失败", err)
	}
	in := input.(*Input)
	return ex.Explain(in), nil
}

// Validate 验证输入
func (ex *Explainer) Validate(input interface{}) error {
	if input == nil {
		return common.ErrInvalidInput
	}
	in, ok := input.(*Input)
	if !ok {
		return fmt.Errorf("不支持的输入类型: %T", input)
	}
	if in.Status == "" {
		return common.NewValidationError("status", "决策状态为空")
	}
	return nil
}

// Explain 生成完整解释；未知状态按 unclear 处理
func (ex *Explainer) Explain(in *Input) *common.Explanation {
	status := in.Status
	if _, ok := statusTemplates[status]; !ok {
		status = common.DecisionUnclear
	}

	keyFactors := ex.keyFactors(in)
	risks := ex.riskFactors(in)
	complexity := ex.complexityLevel(in)

	text := ex.render(status, in, keyFactors)
	if len(risks) > 0 {
		text += " Risk factors: " + strings.Join(risks, "; ") + "."
	}
	text += " Case complexity: " + complexity + "."

	out := &common.Explanation{
		Text:            text,
		Summary:         ex.summary(status, in),
		KeyFactors:      keyFactors,
		EvidenceSummary: ex.evidenceSummary(in),
		NextActions:     nextActionsByStatus[status],
		RiskFactors:     risks,
		ComplexityLevel: complexity,
	}
	out.ConfidenceBreakdown = ex.confidenceBreakdown(in)
	return out
}

// render 填充状态模板
func (ex *Explainer) render(status string, in *Input, keyFactors []string) string {
	procedure := defaultProcedure
	if in.Parsed != nil && in.Parsed.Entities.Procedure != "" {
		procedure = in.Parsed.Entities.Procedure
	}
	amount := defaultAmount
	if in.Amount > 0 {
		amount = fmt.Sprintf("₹%d", in.Amount)
	}
	factors := defaultFactors
	if len(keyFactors) > 0 {
		factors = strings.Join(keyFactors, "; ")
	}
	evidence := defaultEvidence
	if in.Evidence != nil && len(in.Evidence.Clauses) > 0 {
		evidence = "clause " + in.Evidence.Clauses[0].ClauseID
	}

	r := strings.NewReplacer(
		"{procedure}", procedure,
		"{amount}", amount,
		"{factors}", factors,
		"{evidence}", evidence,
		"{confidence}", fmt.Sprintf("%.0f", in.Confidence*100),
		"{next_steps}", defaultNextSteps,
		"{missing_info}", ex.missingInfo(in),
		"{recommendations}", defaultRecommend,
	)
	return r.Replace(statusTemplates[status])
}

// summary 单句结论
func (ex *Explainer) summary(status string, in *Input) string {
	procedure := defaultProcedure
	if in.Parsed != nil && in.Parsed.Entities.Procedure != "" {
		procedure = in.Parsed.Entities.Procedure
	}
	switch status {
	case common.DecisionApproved:
		if in.Amount > 0 {
			return fmt.Sprintf("Claim approved: %s, up to ₹%d", procedure, in.Amount)
		}
		return "Claim approved: " + procedure
	case common.DecisionRejected:
		return "Claim rejected: " + procedure
	case common.DecisionConditional:
		return "Claim conditionally approved: " + procedure
	default:
		return "Claim decision pending further information: " + procedure
	}
}

// keyFactors 推理链结论与校验告警中的关键因素
func (ex *Explainer) keyFactors(in *Input) []string {
	var out []string
	if in.Reasoning != nil {
		if in.Reasoning.Justification != "" {
			out = append(out, in.Reasoning.Justification)
		}
		for _, name := range in.Reasoning.OpposingChains {
			out = append(out, "opposed by "+name)
		}
	}
	if in.Consistency != nil {
		out = append(out, in.Consistency.Warnings...)
	}
	return out
}

// evidenceSummary 证据条款概览
func (ex *Explainer) evidenceSummary(in *Input) string {
	if in.Evidence == nil || len(in.Evidence.Clauses) == 0 {
		return "no policy clauses were available for this decision"
	}
	strong := 0
	for _, c := range in.Evidence.Clauses {
		if c.EvidenceStrength == "strong" {
			strong++
		}
	}
	return fmt.Sprintf("%d clauses reviewed, %d strong", len(in.Evidence.Clauses), strong)
}

// confidenceBreakdown 决策置信度与一致性得分的均值
func (ex *Explainer) confidenceBreakdown(in *Input) float64 {
	if in.Consistency == nil {
		return in.Confidence
	}
	return (in.Confidence + in.Consistency.Score) / 2
}

// missingInfo 缺失项列表（unclear 模板用）
func (ex *Explainer) missingInfo(in *Input) string {
	if in.Parsed == nil {
		return defaultMissing
	}
	var missing []string
	e := &in.Parsed.Entities
	if e.Procedure == "" {
		missing = append(missing, "procedure")
	}
	if e.Age == nil {
		missing = append(missing, "age")
	}
	if e.PolicyDurationMonths == nil {
		missing = append(missing, "policy duration")
	}
	if len(missing) == 0 {
		return defaultMissing
	}
	return strings.Join(missing, ", ")
}

// riskFactors 实体中的风险信号
func (ex *Explainer) riskFactors(in *Input) []string {
	if in.Parsed == nil {
		return nil
	}
	e := &in.Parsed.Entities
	var out []string
	if e.MedicalCondition != "" {
		out = append(out, "pre-existing condition: "+e.MedicalCondition)
	}
	if e.Urgency == "high" {
		out = append(out, "emergency treatment")
	}
	if e.Age != nil && (*e.Age < 18 || *e.Age > 65) {
		out = append(out, fmt.Sprintf("age %d outside standard bracket", *e.Age))
	}
	if e.PolicyDurationMonths != nil && *e.PolicyDurationMonths < 3 {
		out = append(out, "policy within initial waiting period")
	}
	return out
}

// complexityLevel 复杂因素计数：既往病症、高紧急度、premium 保障；≥2 高，0 低
func (ex *Explainer) complexityLevel(in *Input) string {
	if in.Parsed == nil {
		return "low"
	}
	e := &in.Parsed.Entities
	count := 0
	if e.MedicalCondition != "" {
		count++
	}
	if e.Urgency == "high" {
		count++
	}
	if e.CoverageType == "premium" {
		count++
	}
	switch {
	case count >= 2:
		return "high"
	case count == 0:
		return "low"
	default:
		return "medium"
	}
}
