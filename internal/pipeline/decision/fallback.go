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
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"claims-platform/internal/model/llm"
	"claims-platform/internal/pipeline/common"
)

// 否定短语优先于肯定短语判断
var negativePhrases = []string{"not covered", "not eligible", "rejected", "denied", "excluded"}

var positivePhrases = []string{"covered", "eligible", "approved"}

var unclearPhrases = []string{"depends", "cannot determine", "unclear", "insufficient"}

// amountPattern 金额：₹/$/Rs 前缀 + 千分组数字
var amountPattern = regexp.MustCompile(`(?:₹|\$|Rs\.?)\s?(\d{1,3}(?:,\d{3})*|\d+)`)

const fallbackConfidence = 0.6

// Fallback 规则推理不明时的 LLM 兜底：把查询与证据条款交给模型，
// 再从自由文本回答中抽取决策与金额
type Fallback struct {
	client llm.Client
}

// NewFallback 创建 LLM 兜底解析器
func NewFallback(client llm.Client) *Fallback {
	return &Fallback{client: client}
}

// Resolution 兜底解析结果
type Resolution struct {
	Status        string
	Amount        int
	Justification string
	Confidence    float64
}

// Resolve 询问模型并抽取决策；抽不出决策时返回 nil
func (f *Fallback) Resolve(ctx context.Context, queryText string, clauses []common.EvidenceClause) (*Resolution, error) {
	prompt := buildPrompt(queryText, clauses)
	answer, err := f.client.GenerateWithContext(ctx, prompt, llm.GenerateOptions{
		Temperature: 0.2,
		MaxTokens:   256,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 兜底调用失败: %w", err)
	}

	status := ExtractDecision(answer)
	if status == "" {
		return nil, nil
	}
	return &Resolution{
		Status:        status,
		Amount:        ExtractAmount(answer),
		Justification: strings.TrimSpace(answer),
		Confidence:    fallbackConfidence,
	}, nil
}

// buildPrompt 查询 + 最相关条款
func buildPrompt(queryText string, clauses []common.EvidenceClause) string {
	var b strings.Builder
	b.WriteString("You are an insurance claim assessor. Based on the policy clauses below, ")
	b.WriteString("state whether the claim is covered, not covered, or cannot be determined, ")
	b.WriteString("and the payable amount if any.\n\nClaim: ")
	b.WriteString(queryText)
	b.WriteString("\n\nPolicy clauses:\n")
	limit := 5
	if len(clauses) < limit {
		limit = len(clauses)
	}
	for i := 0; i < limit; i++ {
		b.WriteString("- ")
		b.WriteString(clauses[i].Text)
		b.WriteString("\n")
	}
	return b.String()
}

// ExtractDecision 从回答文本抽取决策状态；否定短语最先匹配
func ExtractDecision(answer string) string {
	lower := strings.ToLower(answer)
	for _, phrase := range negativePhrases {
		if strings.Contains(lower, phrase) {
			return common.DecisionRejected
		}
	}
	for _, phrase := range positivePhrases {
		if strings.Contains(lower, phrase) {
			return common.DecisionApproved
		}
	}
	for _, phrase := range unclearPhrases {
		if strings.Contains(lower, phrase) {
			return common.DecisionUnclear
		}
	}
	return ""
}

// ExtractAmount 从回答文本抽取首个货币金额；无则为 0
func ExtractAmount(answer string) int {
	m := amountPattern.FindStringSubmatch(answer)
	if m == nil {
		return 0
	}
	digits := strings.ReplaceAll(m[1], ",", "")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
