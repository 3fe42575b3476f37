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
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"claims-platform/pkg/log"
)

const systemVersion = "1.0.0"

// Trail 审计链：决策、活动与错误的追加式记录。
// 每次写入后按保留天数与容量上限裁剪存储。
type Trail struct {
	store         Store
	logger        *log.Logger
	retentionDays int
	maxEntries    int
}

// NewTrail 创建审计链，使用默认保留策略
func NewTrail(store Store, logger *log.Logger) *Trail {
	if logger == nil {
		logger, _ = log.NewLogger(nil)
	}
	return &Trail{
		store:         store,
		logger:        logger,
		retentionDays: DefaultRetentionDays,
		maxEntries:    DefaultMaxEntries,
	}
}

// SetRetention 调整保留策略；非正值保持当前设置
func (t *Trail) SetRetention(retentionDays, maxEntries int) {
	if retentionDays > 0 {
		t.retentionDays = retentionDays
	}
	if maxEntries > 0 {
		t.maxEntries = maxEntries
	}
}

// LogDecision 记录一次完整决策及其上下文，返回审计 ID
func (t *Trail) LogDecision(ctx context.Context, sessionID, userID, query string,
	decision, queryContext, reasoning, consistency interface{}) (string, error) {

	auditID := uuid.New().String()
	entry := &Entry{
		AuditID:   auditID,
		Timestamp: time.Now(),
		Action:    ActionDecisionMade,
		UserID:    userID,
		SessionID: sessionID,
		Query:     query,
		Decision:  SanitizeMap(decision),
		Context:   SanitizeMap(queryContext),
		Reasoning: SanitizeMap(reasoning),
		Metadata: map[string]interface{}{
			"decision_id":    "dec_" + auditID[:8],
			"system_version": systemVersion,
		},
	}
	if consistency != nil {
		entry.Consistency = SanitizeMap(consistency)
	}

	if err := t.append(ctx, entry); err != nil {
		return "", err
	}
	t.logger.Info("decision logged", "audit_id", auditID, "session_id", sessionID)
	return auditID, nil
}

// LogActivity 记录一般系统活动，返回审计 ID
func (t *Trail) LogActivity(ctx context.Context, sessionID, userID, action string, details interface{}) (string, error) {
	auditID := uuid.New().String()
	entry := &Entry{
		AuditID:   auditID,
		Timestamp: time.Now(),
		Action:    action,
		UserID:    userID,
		SessionID: sessionID,
		Details:   SanitizeMap(details),
		Metadata: map[string]interface{}{
			"activity_id":    "act_" + auditID[:8],
			"system_version": systemVersion,
		},
	}

	if err := t.append(ctx, entry); err != nil {
		return "", err
	}
	t.logger.Info("activity logged", "action", action, "audit_id", auditID)
	return auditID, nil
}

// LogError 记录系统错误，返回审计 ID
func (t *Trail) LogError(ctx context.Context, sessionID, userID, errorType, errorMessage string, errCtx interface{}) (string, error) {
	auditID := uuid.New().String()
	entry := &Entry{
		AuditID:   auditID,
		Timestamp: time.Now(),
		Action:    ActionErrorOccurred,
		UserID:    userID,
		SessionID: sessionID,
		ErrorType: errorType,
		ErrorMsg:  errorMessage,
		Context:   SanitizeMap(errCtx),
		Metadata: map[string]interface{}{
			"error_id":       "err_" + auditID[:8],
			"system_version": systemVersion,
		},
	}

	if err := t.append(ctx, entry); err != nil {
		return "", err
	}
	t.logger.Error("error logged", "error_type", errorType, "audit_id", auditID)
	return auditID, nil
}

// append 写入并应用保留策略
func (t *Trail) append(ctx context.Context, e *Entry) error {
	if err := t.store.Append(ctx, e); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	cutoff := time.Now().AddDate(0, 0, -t.retentionDays)
	if err := t.store.Trim(ctx, cutoff, t.maxEntries); err != nil {
		t.logger.Error("audit trim failed", "error", err)
	}
	return nil
}

// Entries 按条件检索审计条目
func (t *Trail) Entries(ctx context.Context, f Filter) ([]Entry, error) {
	return t.store.List(ctx, f)
}

// DecisionHistory 返回决策历史的精简视图，最多 limit 条
func (t *Trail) DecisionHistory(ctx context.Context, f Filter, limit int) ([]DecisionRecord, error) {
	f.Action = ActionDecisionMade
	entries, err := t.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	records := make([]DecisionRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, DecisionRecord{
			AuditID:      e.AuditID,
			Timestamp:    e.Timestamp,
			Status:       stringField(e.Decision, "status"),
			Amount:       intField(e.Decision, "amount"),
			Confidence:   floatField(e.Decision, "confidence"),
			QuerySummary: querySummary(e.Context),
		})
		if len(records) >= limit {
			break
		}
	}
	return records, nil
}

// SessionSummary 汇总某会话的审计活动
func (t *Trail) SessionSummary(ctx context.Context, sessionID string) (*SessionSummary, error) {
	entries, err := t.store.BySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("session %s: no audit entries", sessionID)
	}

	summary := &SessionSummary{
		SessionID:         sessionID,
		TotalEntries:      len(entries),
		DecisionBreakdown: make(map[string]int),
		FirstActivity:     entries[0].Timestamp,
		LastActivity:      entries[len(entries)-1].Timestamp,
	}
	for _, e := range entries {
		switch e.Action {
		case ActionDecisionMade:
			summary.DecisionsMade++
			status := stringField(e.Decision, "status")
			if status == "" {
				status = "unknown"
			}
			summary.DecisionBreakdown[status]++
		case ActionErrorOccurred:
			summary.ErrorsOccurred++
		}
	}
	summary.Duration = summary.LastActivity.Sub(summary.FirstActivity).String()
	return summary, nil
}

// ExportReport 导出审计报告；format 支持 json 与 csv，其余按 json 处理
func (t *Trail) ExportReport(ctx context.Context, f Filter, format string) (string, error) {
	entries, err := t.store.List(ctx, f)
	if err != nil {
		return "", err
	}

	users := make(map[string]struct{})
	sessions := make(map[string]struct{})
	decisions, errorsSeen := 0, 0
	for _, e := range entries {
		users[e.UserID] = struct{}{}
		sessions[e.SessionID] = struct{}{}
		switch e.Action {
		case ActionDecisionMade:
			decisions++
		case ActionErrorOccurred:
			errorsSeen++
		}
	}

	report := Report{
		Metadata: ReportMetadata{
			GeneratedAt:  time.Now(),
			Start:        f.Start,
			End:          f.End,
			TotalEntries: len(entries),
			Format:       format,
		},
		Summary: ReportSummary{
			TotalDecisions: decisions,
			TotalErrors:    errorsSeen,
			UniqueUsers:    len(users),
			UniqueSessions: len(sessions),
		},
		Entries: entries,
	}

	if strings.EqualFold(format, "csv") {
		return reportToCSV(&report)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal audit report: %w", err)
	}
	return string(data), nil
}

// Close 关闭底层存储
func (t *Trail) Close() error {
	return t.store.Close()
}

// reportToCSV 仅导出决策行
func reportToCSV(report *Report) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Timestamp", "Action", "User ID", "Session ID", "Decision Status", "Amount", "Confidence", "Query"}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, e := range report.Entries {
		if e.Action != ActionDecisionMade {
			continue
		}
		row := []string{
			e.Timestamp.Format(time.RFC3339),
			e.Action,
			e.UserID,
			e.SessionID,
			stringField(e.Decision, "status"),
			fmt.Sprintf("%d", intField(e.Decision, "amount")),
			fmt.Sprintf("%.2f", floatField(e.Decision, "confidence")),
			truncate(e.Query, maxNestedLen),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// querySummary 由查询上下文提取实体摘要
func querySummary(ctx map[string]interface{}) string {
	entities, _ := ctx["entities"].(map[string]interface{})
	if entities == nil {
		return "No details available"
	}
	var parts []string
	if v := fmt.Sprint(entities["age"]); v != "" && v != "<nil>" {
		parts = append(parts, "Age: "+v)
	}
	if v, _ := entities["gender"].(string); v != "" {
		parts = append(parts, "Gender: "+v)
	}
	if v, _ := entities["procedure"].(string); v != "" {
		parts = append(parts, "Procedure: "+v)
	}
	if v, _ := entities["location"].(string); v != "" {
		parts = append(parts, "Location: "+v)
	}
	if len(parts) == 0 {
		return "No details available"
	}
	return strings.Join(parts, " | ")
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func floatField(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
