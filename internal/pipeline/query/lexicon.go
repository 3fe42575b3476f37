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

import "regexp"

// 实体抽取使用的规则词表；全部小写匹配，保证结果可复现

// agePatterns 年龄的常见写法；第一个捕获组为年龄数字
var agePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,3})\s*[- ]?(?:year|yr)s?[- ]?old`),
	regexp.MustCompile(`(\d{1,3})\s*y/o`),
	regexp.MustCompile(`aged?\s*[:]?\s*(\d{1,3})`),
	regexp.MustCompile(`(\d{1,3})\s*(?:m|f)\b`), // 紧凑写法，如 "46m"
}

// compactGenderPattern 紧凑写法 "46M"/"46F"，同时给出年龄与性别
var compactGenderPattern = regexp.MustCompile(`(\d{1,3})\s*(m|f)\b`)

// genderKeywords 性别关键词 -> 规范值
var genderKeywords = map[string]string{
	"male": "M", "man": "M", "gentleman": "M", "he": "M", "him": "M", "his": "M",
	"female": "F", "woman": "F", "lady": "F", "she": "F", "her": "F",
}

// durationPatterns 保单时长；第一个捕获组为数值，第二个为单位
var durationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2})\s*[- ]?(month|year)s?[- ]?old\s+(?:insurance\s+)?policy`),
	regexp.MustCompile(`policy\s+(?:of|for|since|taken)?\s*(\d{1,2})\s*[- ]?(month|year)s?`),
	regexp.MustCompile(`(\d{1,2})\s*[- ]?(month|year)s?\s+(?:insurance\s+)?policy`),
	regexp.MustCompile(`(\d{1,2})\s*[- ]?(month|year)s?\s+(?:ago|back|before)`),
}

// procedureSynonyms 诊疗项目同义词表；key 为规范名
var procedureSynonyms = map[string][]string{
	"knee surgery":       {"knee surgery", "knee replacement", "knee operation", "tkr", "total knee replacement", "knee arthroscopy"},
	"hip replacement":    {"hip replacement", "hip surgery", "thr", "total hip replacement"},
	"cataract surgery":   {"cataract surgery", "cataract operation", "cataract", "lens replacement"},
	"angioplasty":        {"angioplasty", "stent", "stenting", "ptca"},
	"heart bypass":       {"heart bypass", "bypass surgery", "cabg", "coronary bypass", "open heart surgery"},
	"appendectomy":       {"appendectomy", "appendix surgery", "appendix removal", "appendicitis surgery"},
	"delivery":           {"delivery", "childbirth", "c-section", "cesarean", "caesarean", "normal delivery", "maternity"},
	"fracture treatment": {"fracture treatment", "fracture", "broken bone", "bone surgery"},
	"ivf":                {"ivf", "in vitro fertilization", "fertility treatment"},
	"abortion":           {"abortion", "pregnancy termination", "mtp"},
	"cosmetic surgery":   {"cosmetic surgery", "plastic surgery", "aesthetic surgery", "rhinoplasty", "liposuction"},
}

// conditionSynonyms 既往病症同义词表
var conditionSynonyms = map[string][]string{
	"diabetes":      {"diabetes", "diabetic", "blood sugar", "type 2 diabetes", "type 1 diabetes"},
	"hypertension":  {"hypertension", "high blood pressure", "high bp", "hypertensive"},
	"asthma":        {"asthma", "asthmatic", "breathing problem"},
	"cancer":        {"cancer", "tumor", "tumour", "malignancy", "carcinoma", "oncology"},
	"heart disease": {"heart disease", "cardiac condition", "heart condition", "heart problem", "cardiac disease"},
}

// urgencyKeywords 紧急程度关键词（命中任一即为 high）
var urgencyKeywords = []string{"emergency", "urgent", "immediate", "immediately", "critical", "acute"}

// coverageKeywords 保障类型关键词
var coverageKeywords = []string{"comprehensive", "basic", "premium"}

// knownCities 常见城市词表（location 抽取）
var knownCities = []string{
	"pune", "mumbai", "delhi", "bangalore", "bengaluru", "chennai",
	"kolkata", "hyderabad", "ahmedabad", "jaipur", "lucknow", "nagpur",
}

// relatedConceptMap 语义扩展的关联概念
var relatedConceptMap = map[string][]string{
	"surgery": {"pre-operative care", "post-operative care", "surgical procedure", "recovery"},
	"heart":   {"cardiology", "cardiovascular", "cardiac care"},
	"eye":     {"ophthalmology", "vision care"},
}

// medicalDomainMap 诊疗项目 -> 医学领域
var medicalDomainMap = map[string]string{
	"knee surgery":       "orthopedics",
	"hip replacement":    "orthopedics",
	"fracture treatment": "orthopedics",
	"cataract surgery":   "ophthalmology",
	"angioplasty":        "cardiology",
	"heart bypass":       "cardiology",
	"delivery":           "obstetrics",
	"abortion":           "obstetrics",
	"ivf":                "reproductive_medicine",
	"appendectomy":       "general_surgery",
	"cosmetic surgery":   "general_surgery",
}

// complexProcedures 复杂度评估中计 2 分的项目
var complexProcedures = map[string]bool{
	"heart bypass": true,
	"angioplasty":  true,
	"ivf":          true,
	"cancer":       true,
}

// vagueProcedureTerms 单独出现时视为模糊表述的词
var vagueProcedureTerms = []string{"surgery", "operation", "treatment", "procedure"}
