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

package query

import (
	"fmt"
	"strconv"
	"strings"

	"claims-platform/internal/pipeline/common"
)

const (
	minQueryLength = 5
	maxQueryLength = 500
	totalEntityFields = 8
)

// Analyzer 查询分析器：实体抽取 + 校验 + 语义扩展 + 歧义检测，纯规则实现
type Analyzer struct {
	name string
}

// NewAnalyzer 创建新的查询分析器
func NewAnalyzer() *Analyzer {
	return &Analyzer{name: "query_analyzer"}
}

// Name 返回组件名称
func (a *Analyzer) Name() string {
	return a.name
}

// Execute 执行查询分析
func (a *Analyzer) Execute(ctx *common.PipelineContext, input interface{}) (interface{}, error) {
	if err := a.Validate(input); err != nil {
		return nil, common.NewPipelineError(a.name, "输入验证失败", err)
	}
	q := input.(*common.ClaimQuery)
	return a.Analyze(q), nil
}

// Validate 验证输入
func (a *Analyzer) Validate(input interface{}) error {
	if input == nil {
		return common.ErrInvalidInput
	}
	if _, ok := input.(*common.ClaimQuery); !ok {
		return fmt.Errorf("不支持的输入类型: %T", input)
	}
	return nil
}

// Analyze 分析查询文本；总是返回结果，校验失败体现在 Valid/Errors 中
func (a *Analyzer) Analyze(q *common.ClaimQuery) *common.ParsedQuery {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	parsed := &common.ParsedQuery{
		Query:    q,
		Entities: a.extractEntities(text),
	}

	a.validateParsed(parsed, text)
	parsed.Completeness = float64(parsed.Entities.Count()) / float64(totalEntityFields)
	parsed.Confidence = a.confidence(parsed)
	parsed.ExpandedTerms, parsed.RelatedConcepts = expand(&parsed.Entities, text)
	parsed.Ambiguities, parsed.ClarityLevel = disambiguate(&parsed.Entities, text)
	parsed.MedicalDomain = medicalDomainMap[parsed.Entities.Procedure]
	parsed.Complexity = a.assessComplexity(&parsed.Entities)

	return parsed
}

// extractEntities 按规则词表抽取实体
func (a *Analyzer) extractEntities(text string) common.Entities {
	var e common.Entities

	// 保单时长先于年龄，避免 "3-month policy" 中的数字被误判
	e.PolicyDurationMonths = extractDuration(text)
	e.Age = extractAge(text)
	e.Gender = extractGender(text)
	e.Procedure = matchSynonym(text, procedureSynonyms)
	e.MedicalCondition = matchSynonym(text, conditionSynonyms)
	e.Location = extractLocation(text)
	e.CoverageType = matchKeyword(text, coverageKeywords)

	if matchKeyword(text, urgencyKeywords) != "" {
		e.Urgency = "high"
	}

	return e
}

// extractAge 抽取年龄，范围 (0,120)
func extractAge(text string) *int {
	for _, p := range agePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n <= 0 || n >= 120 {
				continue
			}
			return &n
		}
	}
	return nil
}

// extractGender 抽取性别；紧凑写法优先（"46m"），再按关键词
func extractGender(text string) string {
	if m := compactGenderPattern.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[2])
	}
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		if g, ok := genderKeywords[word]; ok {
			return g
		}
	}
	return ""
}

// extractDuration 抽取保单时长并归一化为月
func extractDuration(text string) *int {
	for _, p := range durationPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n <= 0 {
				continue
			}
			if strings.HasPrefix(m[2], "year") {
				n *= 12
			}
			return &n
		}
	}
	return nil
}

// matchSynonym 在同义词表中查找，返回规范名；按别名长度降序保证最长匹配优先
func matchSynonym(text string, table map[string][]string) string {
	best := ""
	bestLen := 0
	for canonical, aliases := range table {
		for _, alias := range aliases {
			if strings.Contains(text, alias) && len(alias) > bestLen {
				best = canonical
				bestLen = len(alias)
			}
		}
	}
	return best
}

// matchKeyword 返回第一个命中的关键词
func matchKeyword(text string, keywords []string) string {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return k
		}
	}
	return ""
}

// extractLocation 在城市词表中查找
func extractLocation(text string) string {
	for _, city := range knownCities {
		if strings.Contains(text, city) {
			return city
		}
	}
	return ""
}

// validateParsed 长度与字段校验；errors 使 Valid=false，warnings 仅提示
func (a *Analyzer) validateParsed(parsed *common.ParsedQuery, text string) {
	if len(text) < minQueryLength {
		parsed.Errors = append(parsed.Errors, "query too short: minimum 5 characters")
	}
	if len(text) > maxQueryLength {
		parsed.Errors = append(parsed.Errors, "query too long: maximum 500 characters")
	}
	if parsed.Entities.Procedure == "" {
		parsed.Errors = append(parsed.Errors, "missing required field: procedure")
	}
	if parsed.Entities.Age != nil && (*parsed.Entities.Age < 0 || *parsed.Entities.Age > 120) {
		parsed.Errors = append(parsed.Errors, "age out of valid range [0,120]")
	}
	if parsed.Entities.PolicyDurationMonths != nil {
		d := *parsed.Entities.PolicyDurationMonths
		if d < 1 || d > 60 {
			parsed.Warnings = append(parsed.Warnings, "policy duration outside typical range [1,60] months")
		}
	}
	parsed.Valid = len(parsed.Errors) == 0
}

// confidence = 0.3*有效 + 0.4*完整度 + min(实体数/8, 0.3)，上限 1.0
func (a *Analyzer) confidence(parsed *common.ParsedQuery) float64 {
	c := 0.0
	if parsed.Valid {
		c += 0.3
	}
	c += 0.4 * parsed.Completeness
	bonus := float64(parsed.Entities.Count()) / float64(totalEntityFields)
	if bonus > 0.3 {
		bonus = 0.3
	}
	c += bonus
	if c > 1.0 {
		c = 1.0
	}
	return c
}

// assessComplexity 复杂度评分：年龄越界 +1，复杂项目 +2，既往病症 +1，高紧急度 +1
func (a *Analyzer) assessComplexity(e *common.Entities) string {
	score := 0
	if e.Age != nil && (*e.Age < 18 || *e.Age > 65) {
		score++
	}
	if complexProcedures[e.Procedure] {
		score += 2
	}
	if e.MedicalCondition != "" {
		score++
	}
	if e.Urgency == "high" {
		score++
	}
	switch {
	case score >= 3:
		return "complex"
	case score >= 1:
		return "medium"
	default:
		return "simple"
	}
}
