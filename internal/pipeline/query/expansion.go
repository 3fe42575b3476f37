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

// expand 语义扩展：同义词展开 + 关联概念 + 年龄段概念
func expand(e *common.Entities, text string) (terms []string, concepts []string) {
	if e.Procedure != "" {
		for _, alias := range procedureSynonyms[e.Procedure] {
			if alias != e.Procedure {
				terms = append(terms, alias)
			}
		}
	}
	if e.MedicalCondition != "" {
		for _, alias := range conditionSynonyms[e.MedicalCondition] {
			if alias != e.MedicalCondition {
				terms = append(terms, alias)
			}
		}
	}

	for trigger, related := range relatedConceptMap {
		if strings.Contains(text, trigger) || strings.Contains(e.Procedure, trigger) {
			concepts = append(concepts, related...)
		}
	}

	if e.Age != nil {
		if *e.Age < 18 {
			concepts = append(concepts, "pediatric coverage", "minor treatment")
		} else if *e.Age > 65 {
			concepts = append(concepts, "geriatric care", "senior citizen benefits")
		}
	}

	return terms, concepts
}
