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

	"claims-platform/internal/pipeline/common"
)

// 承保与除外项目表
var (
	coveredProcedures  = []string{"knee surgery", "cataract", "angioplasty", "delivery"}
	excludedProcedures = []string{"cosmetic", "experimental"}
	preAuthProcedures  = []string{"surgery", "angioplasty", "bypass", "ivf"}
	pregnancyRelated   = []string{"delivery", "ivf", "abortion"}
)

// networkCities 网络医院覆盖城市
var networkCities = []string{
	"pune", "mumbai", "delhi", "bangalore", "bengaluru", "chennai",
	"kolkata", "hyderabad", "ahmedabad", "jaipur",
}

// 给付上限（卢比）
const (
	limitPremiumSurgery = 100000
	limitSurgery        = 50000
	limitDefault        = 25000
)

// stepFunc 单步推理；只读实体，结论可复现
type stepFunc func(e *common.Entities) common.ReasoningStep

func ageVerification(e *common.Entities) common.ReasoningStep {
	s := common.ReasoningStep{Name: "age_verification"}
	switch {
	case e.Age == nil:
		s.Status = common.StepConditional
		s.Detail = "age not provided"
	case *e.Age < 18:
		s.Status = common.StepRestricted
		s.Detail = "pediatric case requires manual review"
	case *e.Age > 65:
		s.Status = common.StepRestricted
		s.Detail = "geriatric case requires manual review"
	default:
		s.Status = common.StepEligible
		s.Detail = fmt.Sprintf("age %d within standard range", *e.Age)
	}
	return s
}

func genderSpecificCoverage(e *common.Entities) common.ReasoningStep {
	s := common.ReasoningStep{Name: "gender_specific_coverage", Status: common.StepEligible}
	if e.Gender == "M" {
		for _, p := range pregnancyRelated {
			if strings.Contains(e.Procedure, p) {
				s.Status = common.StepIneligible
				s.Detail = "pregnancy-related procedure for male patient"
				return s
			}
		}
	}
	s.Detail = "no gender-specific restriction"
	return s
}

func policyDurationCheck(e *common.Entities) common.ReasoningStep {
	s := common.ReasoningStep{Name: "policy_duration_check"}
	switch {
	case e.PolicyDurationMonths == nil:
		s.Status = common.StepConditional
		s.Detail = "policy duration not provided"
	case *e.PolicyDurationMonths < 3:
		s.Status = common.StepRestricted
		s.Detail = "policy younger than 3 months, waiting period may apply"
	default:
		s.Status = common.StepEligible
		s.Detail = fmt.Sprintf("policy active for %d months", *e.PolicyDurationMonths)
	}
	return s
}

func procedureEligibility(e *common.Entities) common.ReasoningStep {
	s := common.ReasoningStep{Name: "procedure_eligibility"}
	for _, p := range excludedProcedures {
		if strings.Contains(e.Procedure, p) {
			s.Status = common.StepExcluded
			s.Detail = "procedure is in the exclusion list: " + p
			return s
		}
	}
	for _, p := range coveredProcedures {
		if strings.Contains(e.Procedure, p) {
			s.Status = common.StepCovered
			s.Detail = "procedure is in the covered list: " + p
			return s
		}
	}
	s.Status = common.StepConditional
	s.Detail = "procedure not in the standard covered list"
	return s
}

func preAuthorizationRequirements(e *common.Entities) common.ReasoningStep {
	s := common.ReasoningStep{Name: "pre_authorization_requirements", Status: common.StepEligible, Detail: "no pre-authorization required"}
	for _, p := range preAuthProcedures {
		if strings.Contains(e.Procedure, p) {
			s.Status = common.StepConditional
			s.Detail = "pre-authorization required for " + p
			return s
		}
	}
	return s
}

func networkCoverageCheck(e *common.Entities) common.ReasoningStep {
	s := common.ReasoningStep{Name: "network_coverage_check"}
	if e.Location == "" {
		s.Status = common.StepConditional
		s.Detail = "treatment location not provided"
		return s
	}
	for _, city := range networkCities {
		if e.Location == city {
			s.Status = common.StepCovered
			s.Detail = "network hospital available in " + city
			return s
		}
	}
	s.Status = common.StepConditional
	s.Detail = "non-network location, reimbursement basis"
	return s
}

func conditionAssessment(e *common.Entities) common.ReasoningStep {
	s := common.ReasoningStep{Name: "condition_assessment"}
	switch e.MedicalCondition {
	case "":
		s.Status = common.StepEligible
		s.Detail = "no chronic condition reported"
	case "cancer", "heart disease":
		s.Status = common.StepRestricted
		s.Detail = "serious condition requires medical review: " + e.MedicalCondition
	default:
		s.Status = common.StepConditional
		s.Detail = "manageable condition: " + e.MedicalCondition
	}
	return s
}

func comorbidityAnalysis(e *common.Entities) common.ReasoningStep {
	s := common.ReasoningStep{Name: "comorbidity_analysis"}
	switch {
	case e.MedicalCondition != "" && e.Age != nil && *e.Age > 65:
		s.Status = common.StepRestricted
		s.Detail = "chronic condition combined with advanced age"
	case e.MedicalCondition != "":
		s.Status = common.StepConditional
		s.Detail = "single chronic condition, monitor comorbidities"
	default:
		s.Status = common.StepNoExclusions
		s.Detail = "no comorbidity indicators"
	}
	return s
}

func riskFactorEvaluation(e *common.Entities) common.ReasoningStep {
	s := common.ReasoningStep{Name: "risk_factor_evaluation"}
	if e.Urgency == "high" {
		s.Status = common.StepConditional
		s.Detail = "emergency case, expedited review applies"
		return s
	}
	s.Status = common.StepEligible
	s.Detail = "no elevated risk factors"
	return s
}

func waitingPeriodCheck(e *common.Entities) common.ReasoningStep {
	s := common.ReasoningStep{Name: "waiting_period_check"}
	switch {
	case e.PolicyDurationMonths == nil:
		s.Status = common.StepConditional
		s.Detail = "cannot verify waiting period without policy duration"
	case *e.PolicyDurationMonths < 3:
		s.Status = common.StepRestricted
		s.Detail = "initial waiting period in effect"
	default:
		s.Status = common.StepEligible
		s.Detail = "waiting period completed"
	}
	return s
}

func exclusionVerification(e *common.Entities) common.ReasoningStep {
	s := common.ReasoningStep{Name: "exclusion_verification"}
	for _, p := range excludedProcedures {
		if strings.Contains(e.Procedure, p) {
			s.Status = common.StepExcluded
			s.Detail = "policy exclusion applies: " + p
			return s
		}
	}
	s.Status = common.StepNoExclusions
	s.Detail = "no policy exclusions apply"
	return s
}

func coverageLimitAnalysis(e *common.Entities) common.ReasoningStep {
	amount := CoverageLimit(e)
	return common.ReasoningStep{
		Name:   "coverage_limit_analysis",
		Status: common.StepEligible,
		Detail: fmt.Sprintf("coverage limit ₹%d", amount),
	}
}

// CoverageLimit 按项目与保障类型确定给付上限
func CoverageLimit(e *common.Entities) int {
	surgical := false
	for _, p := range []string{"surgery", "bypass", "angioplasty"} {
		if strings.Contains(e.Procedure, p) {
			surgical = true
			break
		}
	}
	if surgical {
		if e.CoverageType == "premium" {
			return limitPremiumSurgery
		}
		return limitSurgery
	}
	return limitDefault
}
