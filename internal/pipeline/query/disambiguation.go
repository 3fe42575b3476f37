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
	"strings"

	"claims-platform/internal/pipeline/common"
)

// disambiguate 歧义检测：模糊表述、缺失字段、年龄与项目不匹配；结果仅作提示
func disambiguate(e *common.Entities, text string) ([]common.Ambiguity, string) {
	var out []common.Ambiguity

	// 仅有 "surgery" 这类泛词而未识别出具体项目
	if e.Procedure == "" {
		for _, vague := range vagueProcedureTerms {
			if strings.Contains(text, vague) {
				out = append(out, common.Ambiguity{
					Type:       "vague_procedure",
					Message:    "procedure term is too generic: " + vague,
					Suggestion: "specify the exact procedure, e.g. knee surgery, cataract surgery",
				})
				break
			}
		}
	}

	if e.Age == nil {
		out = append(out, common.Ambiguity{
			Type:       "missing_age",
			Message:    "age not specified",
			Suggestion: "include patient age for eligibility checks",
		})
	}
	if e.Location == "" {
		out = append(out, common.Ambiguity{
			Type:       "missing_location",
			Message:    "location not specified",
			Suggestion: "include treatment city for network coverage checks",
		})
	}

	// 年龄与项目的组合合理性
	if e.Age != nil {
		if *e.Age < 18 && (e.Procedure == "delivery" || e.Procedure == "ivf") {
			out = append(out, common.Ambiguity{
				Type:    "age_procedure_mismatch",
				Message: "procedure unusual for a minor: " + e.Procedure,
			})
		}
		if *e.Age > 65 && e.Procedure == "delivery" {
			out = append(out, common.Ambiguity{
				Type:    "age_procedure_mismatch",
				Message: "delivery claim at age above 65",
			})
		}
	}

	level := "high"
	switch {
	case len(out) >= 3:
		level = "low"
	case len(out) >= 1:
		level = "medium"
	}
	return out, level
}
