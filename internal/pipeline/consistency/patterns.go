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

// ageBracket 年龄段与典型决策集合
type ageBracket struct {
	name     string
	min, max int
	typical  []string
}

var ageBrackets = []ageBracket{
	{name: "pediatric", min: 0, max: 17, typical: []string{"approved", "conditional"}},
	{name: "adult", min: 18, max: 64, typical: []string{"approved", "rejected", "conditional"}},
	{name: "geriatric", min: 65, max: 200, typical: []string{"conditional", "rejected"}},
}

// procedurePattern 项目的期望金额与置信区间
type procedurePattern struct {
	amount  int
	confLow float64
	confHigh float64
}

var procedurePatterns = map[string]procedurePattern{
	"knee surgery": {amount: 50000, confLow: 0.7, confHigh: 1.0},
	"heart bypass": {amount: 100000, confLow: 0.8, confHigh: 1.0},
	"cataract":     {amount: 25000, confLow: 0.6, confHigh: 0.9},
	"cosmetic":     {amount: 0, confLow: 0.9, confHigh: 1.0},
}

// amountRange 项目合理金额区间（卢比）
type amountRange struct {
	low, high int
}

var amountRanges = map[string]amountRange{
	"knee surgery": {40000, 60000},
	"heart bypass": {80000, 120000},
	"cataract":     {20000, 30000},
}

// expectedShare 决策类型的经验占比
var expectedShare = map[string]float64{
	"approved":    0.65,
	"rejected":    0.25,
	"conditional": 0.10,
}

// frequencyFloor 占比低于该值视为异常决策类型
const frequencyFloor = 0.1

// minHistoryForFrequency 频率检查所需最少历史样本
const minHistoryForFrequency = 10
