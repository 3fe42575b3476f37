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

package audit

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	redactedMarker = "[REDACTED]"
	maxNestedLen   = 100
	maxScalarLen   = 200
	maxDepth       = 8
)

// sensitiveFields 写入前整体脱敏的字段名（小写匹配）
var sensitiveFields = map[string]bool{
	"api_keys":      true,
	"passwords":     true,
	"personal_data": true,
}

// SanitizeMap 将任意结构体或 map 转为可安全落盘的 map：
// 敏感字段脱敏，嵌套深度受限，超长字符串截断。
func SanitizeMap(v interface{}) map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{"_unserializable": truncate(fmt.Sprint(v), maxScalarLen)}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]interface{}{"_value": truncate(string(data), maxScalarLen)}
	}
	out, _ := sanitizeValue(m, 0).(map[string]interface{})
	if out == nil {
		return map[string]interface{}{}
	}
	return out
}

// sanitizeValue 深度受限的递归拷贝
func sanitizeValue(v interface{}, depth int) interface{} {
	if depth > maxDepth {
		return truncate(fmt.Sprint(v), maxNestedLen)
	}
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			if sensitiveFields[strings.ToLower(k)] {
				out[k] = redactedMarker
				continue
			}
			out[k] = sanitizeValue(item, depth+1)
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(val))
		for _, item := range val {
			out = append(out, sanitizeValue(item, depth+1))
		}
		return out
	case string:
		if depth == 0 {
			return truncate(val, maxScalarLen)
		}
		return truncate(val, maxNestedLen)
	default:
		return val
	}
}

// truncate 截断字符串并追加省略标记
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
