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

package reason

import (
	"fmt"
	"strings"
	"sync"

	"claims-platform/internal/pipeline/common"
)

// 推理链名称
const (
	ChainDemographic = "demographic_eligibility"
	ChainProcedure   = "procedure_coverage"
	ChainMedical     = "medical_complexity"
	ChainPolicy      = "policy_analysis"
)

// chainDef 链定义：激活条件 + 步骤序列
type chainDef struct {
	name     string
	activate func(e *common.Entities) bool
	steps    []stepFunc
}

// chainDefs 固定顺序的链定义表；结果顺序与此一致
var chainDefs = []chainDef{
	{
		name:     ChainDemographic,
		activate: func(e *common.Entities) bool { return e.Age != nil || e.Gender != "" },
		steps:    []stepFunc{ageVerification, genderSpecificCoverage, policyDurationCheck},
	},
	{
		name:     ChainProcedure,
		activate: func(e *common.Entities) bool { return e.Procedure != "" },
		steps:    []stepFunc{procedureEligibility, preAuthorizationRequirements, networkCoverageCheck},
	},
	{
		name:     ChainMedical,
		activate: func(e *common.Entities) bool { return e.MedicalCondition != "" || e.Urgency == "high" },
		steps:    []stepFunc{conditionAssessment, comorbidityAnalysis, riskFactorEvaluation},
	},
	{
		name:     ChainPolicy,
		activate: func(e *common.Entities) bool { return e.PolicyDurationMonths != nil || e.CoverageType != "" },
		steps:    []stepFunc{waitingPeriodCheck, exclusionVerification, coverageLimitAnalysis},
	},
}

// Reasoner 多链推理器：按实体激活独立推理链，并行执行后按固定优先级综合
type Reasoner struct {
	name string
}

// NewReasoner 创建新的推理器
func NewReasoner() *Reasoner {
	return &Reasoner{name: "multi_hop_reasoner"}
}

// Name 返回组件名称
func (r *Reasoner) Name() string {
	return r.name
}

// Execute 执行推理
func (r *Reasoner) Execute(ctx *common.PipelineContext, input interface{}) (interface{}, error) {
	if err := r.Validate(input); err != nil {
		return nil, common.NewPipelineError(r.name, "输入验证失败", err)
	}
	parsed := input.(*common.ParsedQuery)
	return r.Reason(parsed), nil
}

// Validate 验证输入
func (r *Reasoner) Validate(input interface{}) error {
	if input == nil {
		return common.ErrInvalidInput
	}
	if _, ok := input.(*common.ParsedQuery); !ok {
		return fmt.Errorf("不支持的输入类型: %T", input)
	}
	return nil
}

// Reason 执行所有激活链并综合结论；无激活链时返回 unclear/0.0
func (r *Reasoner) Reason(parsed *common.ParsedQuery) *common.ReasoningResult {
	e := &parsed.Entities

	var active []chainDef
	for _, def := range chainDefs {
		if def.activate(e) {
			active = append(active, def)
		}
	}

	// 链之间相互独立，可并行；按定义顺序写入固定槽位保证结果可复现
	chains := make([]common.ReasoningChain, len(active))
	var wg sync.WaitGroup
	for i, def := range active {
		wg.Add(1)
		go func(i int, def chainDef) {
			defer wg.Done()
			chains[i] = runChain(def, e)
		}(i, def)
	}
	wg.Wait()

	return synthesize(chains, e)
}

// runChain 顺序执行链内步骤并给出链级结论
func runChain(def chainDef, e *common.Entities) common.ReasoningChain {
	chain := common.ReasoningChain{Name: def.name}
	for _, step := range def.steps {
		chain.Steps = append(chain.Steps, step(e))
	}
	chain.Verdict = chainVerdict(chain.Steps)
	chain.Confidence = chainConfidence(chain.Steps)
	return chain
}

// chainVerdict 链级结论，优先级 excluded > ineligible > restricted > eligible > conditional
func chainVerdict(steps []common.ReasoningStep) string {
	hasEligible := false
	hasRestricted := false
	for _, s := range steps {
		switch s.Status {
		case common.StepExcluded:
			return common.StepExcluded
		case common.StepIneligible:
			return common.StepIneligible
		case common.StepRestricted:
			hasRestricted = true
		case common.StepEligible, common.StepCovered, common.StepNoExclusions:
			hasEligible = true
		}
	}
	if hasRestricted {
		return common.StepRestricted
	}
	if hasEligible {
		return common.StepEligible
	}
	return common.StepConditional
}

// chainConfidence 正向步骤占比
func chainConfidence(steps []common.ReasoningStep) float64 {
	if len(steps) == 0 {
		return 0
	}
	positive := 0
	for _, s := range steps {
		switch s.Status {
		case common.StepEligible, common.StepCovered, common.StepNoExclusions:
			positive++
		}
	}
	return float64(positive) / float64(len(steps))
}

// synthesize 综合所有链；优先级 excluded > ineligible > 全部正向 > restricted > unclear
func synthesize(chains []common.ReasoningChain, e *common.Entities) *common.ReasoningResult {
	result := &common.ReasoningResult{Chains: chains}

	if len(chains) == 0 {
		result.Decision = common.DecisionUnclear
		result.Justification = "insufficient information to activate any reasoning chain"
		result.Confidence = 0.0
		return result
	}

	hasExcluded := false
	hasIneligible := false
	hasRestricted := false
	allEligible := true
	var confSum float64
	for _, c := range chains {
		confSum += c.Confidence
		switch c.Verdict {
		case common.StepExcluded:
			hasExcluded = true
		case common.StepIneligible:
			hasIneligible = true
		case common.StepRestricted:
			hasRestricted = true
		}
		if c.Verdict != common.StepEligible {
			allEligible = false
		}
		switch c.Verdict {
		case common.StepEligible:
			result.SupportingChains = append(result.SupportingChains, c.Name)
		case common.StepExcluded, common.StepIneligible:
			result.OpposingChains = append(result.OpposingChains, c.Name)
		}
	}
	result.Confidence = confSum / float64(len(chains))

	switch {
	case hasExcluded:
		result.Decision = common.DecisionRejected
		result.Justification = "Exclusions apply: " + strings.Join(result.OpposingChains, ", ")
	case hasIneligible:
		result.Decision = common.DecisionRejected
		result.Justification = "Eligibility criteria not met: " + strings.Join(result.OpposingChains, ", ")
	case allEligible:
		result.Decision = common.DecisionApproved
		result.Justification = "All reasoning chains support coverage"
		result.Amount = CoverageLimit(e)
	case hasRestricted:
		result.Decision = common.DecisionConditional
		result.Justification = "One or more chains require manual review"
		result.Amount = CoverageLimit(e)
	default:
		result.Decision = common.DecisionUnclear
		result.Justification = "Reasoning chains inconclusive"
	}

	return result
}
