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

	"claims-platform/internal/audit"
	"claims-platform/internal/pipeline/common"
)

// RestoreHistory 从审计链回放已落档的决策，作为一致性校验的比对基线。
// 进程重启后调用一次即可。
func RestoreHistory(ctx context.Context, e *Engine, trail *audit.Trail) error {
	entries, err := trail.Entries(ctx, audit.Filter{Action: audit.ActionDecisionMade})
	if err != nil {
		return err
	}
	cases := make([]common.HistoricalCase, 0, len(entries))
	for _, entry := range entries {
		hc := common.HistoricalCase{ID: entry.AuditID}
		if entry.Decision != nil {
			if s, ok := entry.Decision["status"].(string); ok {
				hc.Decision = s
			}
			if a, ok := entry.Decision["amount"].(float64); ok {
				hc.Amount = int(a)
			}
		}
		if hc.Decision == "" {
			continue
		}
		if entities, ok := entry.Context["entities"].(map[string]interface{}); ok {
			if age, ok := entities["age"].(float64); ok {
				v := int(age)
				hc.Age = &v
			}
			if g, ok := entities["gender"].(string); ok {
				hc.Gender = g
			}
			if p, ok := entities["procedure"].(string); ok {
				hc.Procedure = p
			}
			if l, ok := entities["location"].(string); ok {
				hc.Location = l
			}
			if d, ok := entities["policy_duration_months"].(float64); ok {
				v := int(d)
				hc.PolicyDurationMonths = &v
			}
		}
		cases = append(cases, hc)
	}
	e.SeedHistory(cases)
	return nil
}
