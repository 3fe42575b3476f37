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

package consistency

import (
	"fmt"
	"sort"
	"strings"

	"claims-platform/internal/pipeline/common"
)

// Validator 一致性校验器：决策模式、金额区间、决策频率与历史相似案例比对
type Validator struct {
	name string
}

// NewValidator 创建新的一致性校验器
func NewValidator() *Validator {
	return &Validator{name: "consistency_validator"}
}

// Name 返回组件名称
func (v *Validator) Name() string {
	return v.name
}

// Input 校验输入：草稿决策 + 解析实体 + 历史案例
type Input struct {
	Status     string
	Amount     int
	Confidence float64
	Parsed     *common.ParsedQuery
	History    []common.HistoricalCase
}

// Execute 执行一致性校验
func (v *Validator) Execute(ctx *common.PipelineContext, input interface{}) (interface{}, error) {
	if err := v.Validate(input); err != nil {
		return nil, common.NewPipelineError(v.name, "输入验证失败", err)
	}
	in := input.(*Input)
	return v.Check(in), nil
}

// Validate 验证输入
func (v *Validator) Validate(input interface{}) error {
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

// Check 运行全部检查并计算一致性得分
func (v *Validator) Check(in *Input) *common.ConsistencyReport {
	report := &common.ConsistencyReport{}
	e := &in.Parsed.Entities

	v.checkAgePattern(in, e, report)
	v.checkProcedurePattern(in, e, report)
	v.checkAmountRange(in, e, report)
	v.checkDurationRisk(in, e, report)
	v.checkDecisionFrequency(in, report)
	report.SimilarCases = v.findSimilarCases(e, in.History)
	v.checkHistoricalDivergence(in, report)

	report.Score = score(report)
	report.Consistent = len(report.Warnings) == 0 && len(report.Anomalies) == 0 && report.Score > 0.7
	return report
}

// checkAgePattern 决策是否落在年龄段的典型集合内
func (v *Validator) checkAgePattern(in *Input, e *common.Entities, report *common.ConsistencyReport) {
	if e.Age == nil {
		return
	}
	for _, b := range ageBrackets {
		if *e.Age < b.min || *e.Age > b.max {
			continue
		}
		for _, d := range b.typical {
			if d == in.Status {
				report.PatternMatches++
				return
			}
		}
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("decision %q atypical for %s age bracket", in.Status, b.name))
		return
	}
}

// checkProcedurePattern 金额与置信度是否符合项目经验模式
func (v *Validator) checkProcedurePattern(in *Input, e *common.Entities, report *common.ConsistencyReport) {
	pattern, key := matchProcedurePattern(e.Procedure)
	if key == "" {
		return
	}
	matched := true
	if in.Status == common.DecisionApproved && in.Amount != 0 && in.Amount != pattern.amount {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("amount ₹%d differs from expected ₹%d for %s", in.Amount, pattern.amount, key))
		matched = false
	}
	if in.Confidence < pattern.confLow || in.Confidence > pattern.confHigh {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("confidence %.2f outside expected range [%.1f, %.1f] for %s",
				in.Confidence, pattern.confLow, pattern.confHigh, key))
		matched = false
	}
	if matched {
		report.PatternMatches++
	}
}

func matchProcedurePattern(procedure string) (procedurePattern, string) {
	for key, p := range procedurePatterns {
		if strings.Contains(procedure, key) {
			return p, key
		}
	}
	return procedurePattern{}, ""
}

// checkAmountRange 金额是否落在项目合理区间
func (v *Validator) checkAmountRange(in *Input, e *common.Entities, report *common.ConsistencyReport) {
	if in.Amount == 0 {
		return
	}
	for key, r := range amountRanges {
		if !strings.Contains(e.Procedure, key) {
			continue
		}
		if in.Amount < r.low || in.Amount > r.high {
			report.Anomalies = append(report.Anomalies,
				fmt.Sprintf("amount ₹%d outside plausible range [₹%d, ₹%d] for %s", in.Amount, r.low, r.high, key))
		}
		return
	}
}

// checkDurationRisk 等待期内批准视为风险信号
func (v *Validator) checkDurationRisk(in *Input, e *common.Entities, report *common.ConsistencyReport) {
	if e.PolicyDurationMonths == nil {
		return
	}
	if *e.PolicyDurationMonths < 3 && in.Status == common.DecisionApproved {
		report.Warnings = append(report.Warnings, "approval during typical waiting period")
	}
}

// checkDecisionFrequency 样本充足时检查决策类型占比
func (v *Validator) checkDecisionFrequency(in *Input, report *common.ConsistencyReport) {
	if len(in.History) < minHistoryForFrequency {
		return
	}
	if _, known := expectedShare[in.Status]; !known {
		return
	}
	count := 0
	for _, h := range in.History {
		if h.Decision == in.Status {
			count++
		}
	}
	freq := float64(count) / float64(len(in.History))
	if freq < frequencyFloor {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("decision type %q rare in recent history (%.0f%%)", in.Status, freq*100))
	}
}

// findSimilarCases 字段相似度 > 0.7 的历史案例，取前 5
func (v *Validator) findSimilarCases(e *common.Entities, history []common.HistoricalCase) []common.SimilarCase {
	var out []common.SimilarCase
	for _, h := range history {
		sim := similarity(e, &h)
		if sim > 0.7 {
			out = append(out, common.SimilarCase{CaseID: h.ID, Similarity: sim, Decision: h.Decision})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

// similarity 逐字段比对：完全一致计 1 分，年龄相差 10 岁以内计 0.5 分
func similarity(e *common.Entities, h *common.HistoricalCase) float64 {
	fields := 0
	score := 0.0

	if e.Age != nil && h.Age != nil {
		fields++
		diff := *e.Age - *h.Age
		if diff < 0 {
			diff = -diff
		}
		switch {
		case diff == 0:
			score += 1.0
		case diff <= 10:
			score += 0.5
		}
	}
	for _, pair := range [][2]string{
		{e.Gender, h.Gender},
		{e.Procedure, h.Procedure},
		{e.Location, h.Location},
	} {
		if pair[0] != "" && pair[1] != "" {
			fields++
			if pair[0] == pair[1] {
				score += 1.0
			}
		}
	}
	if e.PolicyDurationMonths != nil && h.PolicyDurationMonths != nil {
		fields++
		if *e.PolicyDurationMonths == *h.PolicyDurationMonths {
			score += 1.0
		}
	}

	if fields == 0 {
		return 0
	}
	return score / float64(fields)
}

// checkHistoricalDivergence 与多数相似案例结论不一致时告警
func (v *Validator) checkHistoricalDivergence(in *Input, report *common.ConsistencyReport) {
	if len(report.SimilarCases) == 0 {
		return
	}
	differing := 0
	for _, c := range report.SimilarCases {
		if c.Decision != in.Status {
			differing++
		}
	}
	if differing*2 > len(report.SimilarCases) {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("decision diverges from %d of %d similar historical cases", differing, len(report.SimilarCases)))
	}
}

// score = 1 − min(0.5, 0.1*warnings) − min(0.5, 0.2*anomalies) + min(0.2, 0.05*matches)，裁剪到 [0,1]
func score(report *common.ConsistencyReport) float64 {
	warnPenalty := 0.1 * float64(len(report.Warnings))
	if warnPenalty > 0.5 {
		warnPenalty = 0.5
	}
	anomalyPenalty := 0.2 * float64(len(report.Anomalies))
	if anomalyPenalty > 0.5 {
		anomalyPenalty = 0.5
	}
	bonus := 0.05 * float64(report.PatternMatches)
	if bonus > 0.2 {
		bonus = 0.2
	}
	s := 1.0 - warnPenalty - anomalyPenalty + bonus
	if s > 1.0 {
		s = 1.0
	}
	if s < 0.0 {
		s = 0.0
	}
	return s
}
