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

import "regexp"

// 条款影响分类关键词；否定词先于肯定词匹配（"not covered" 含 "covered"）

var rejectionKeywords = []string{
	"not covered", "not eligible", "not payable", "not admissible",
	"excluded from coverage", "excluded", "rejected", "declined",
	"denied", "prohibited", "restricted",
}

var approvalKeywords = []string{
	"covered", "eligible", "approved", "included", "admissible",
	"payable", "reimbursable", "authorized", "permitted", "allowed",
}

var conditionalKeywords = []string{
	"subject to", "conditional upon", "depends on", "may be",
	"if approved", "pending", "under review", "requires",
}

// clauseIDPattern 条款编号写法，如 "Section 4.2" / "Clause 12"
var clauseIDPattern = regexp.MustCompile(`(?i)(?:section|clause|article|paragraph)\s+(\d+(?:\.\d+)*)`)
