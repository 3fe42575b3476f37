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

// 状态模板；占位符由 render 按序替换
var statusTemplates = map[string]string{
	"approved": "Your claim for {procedure} has been approved for {amount}. " +
		"Key factors: {factors}. Supporting evidence: {evidence}. Decision confidence: {confidence}%.",
	"rejected": "Your claim for {procedure} has been rejected. " +
		"Reason: {factors}. Supporting evidence: {evidence}. Decision confidence: {confidence}%.",
	"conditional": "Your claim for {procedure} is approved subject to conditions. " +
		"Conditions: {factors}. Next steps: {next_steps}. Decision confidence: {confidence}%.",
	"unclear": "We could not reach a determination for {procedure}. " +
		"Missing information: {missing_info}. Recommendations: {recommendations}.",
}

// 槽位缺省值
const (
	defaultProcedure = "the requested procedure"
	defaultAmount    = "the applicable limit"
	defaultFactors   = "policy terms and submitted details"
	defaultEvidence  = "applicable policy clauses"
	defaultNextSteps = "submit the requested documents"
	defaultMissing   = "procedure, age and policy details"
	defaultRecommend = "provide the missing details and resubmit"
)

// nextActionsByStatus 各状态的后续动作
var nextActionsByStatus = map[string][]string{
	"approved": {
		"submit original hospital bills and discharge summary",
		"claim settlement within standard turnaround time",
	},
	"rejected": {
		"review the exclusion clauses cited in the decision",
		"file an appeal with additional documentation if applicable",
	},
	"conditional": {
		"obtain pre-authorization before hospitalization",
		"submit the documents requested for manual review",
	},
	"unclear": {
		"provide the missing claim details",
		"resubmit the query with procedure, age and policy duration",
	},
}
