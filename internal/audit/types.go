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
	"context"
	"time"
)

// 审计动作类型
const (
	ActionDecisionMade  = "decision_made"
	ActionErrorOccurred = "error_occurred"
)

// 保留策略默认值
const (
	DefaultRetentionDays = 365
	DefaultMaxEntries    = 10000
)

// Entry 审计条目：追加后不可变
type Entry struct {
	AuditID     string                 `json:"audit_id"`
	Timestamp   time.Time              `json:"timestamp"`
	Action      string                 `json:"action"`
	UserID      string                 `json:"user_id"`
	SessionID   string                 `json:"session_id"`
	Query       string                 `json:"query,omitempty"`
	Decision    map[string]interface{} `json:"decision,omitempty"`
	Context     map[string]interface{} `json:"query_context,omitempty"`
	Reasoning   map[string]interface{} `json:"reasoning_result,omitempty"`
	Consistency map[string]interface{} `json:"consistency_validation,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
	ErrorType   string                 `json:"error_type,omitempty"`
	ErrorMsg    string                 `json:"error_message,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Filter 审计检索过滤条件；零值字段不过滤
type Filter struct {
	SessionID string
	UserID    string
	Action    string
	Start     time.Time
	End       time.Time
}

// Matches 判断条目是否满足过滤条件
func (f Filter) Matches(e *Entry) bool {
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if !f.Start.IsZero() && e.Timestamp.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && e.Timestamp.After(f.End) {
		return false
	}
	return true
}

// DecisionRecord 决策历史的精简视图
type DecisionRecord struct {
	AuditID      string    `json:"audit_id"`
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"decision"`
	Amount       int       `json:"amount"`
	Confidence   float64   `json:"confidence"`
	QuerySummary string    `json:"query_summary"`
}

// SessionSummary 会话审计汇总
type SessionSummary struct {
	SessionID         string         `json:"session_id"`
	TotalEntries      int            `json:"total_entries"`
	DecisionsMade     int            `json:"decisions_made"`
	ErrorsOccurred    int            `json:"errors_occurred"`
	DecisionBreakdown map[string]int `json:"decision_breakdown"`
	Duration          string         `json:"session_duration"`
	FirstActivity     time.Time      `json:"first_activity"`
	LastActivity      time.Time      `json:"last_activity"`
}

// Report 导出报告结构
type Report struct {
	Metadata ReportMetadata `json:"report_metadata"`
	Summary  ReportSummary  `json:"summary"`
	Entries  []Entry        `json:"audit_trail"`
}

// ReportMetadata 报告元信息
type ReportMetadata struct {
	GeneratedAt  time.Time `json:"generated_at"`
	Start        time.Time `json:"start_date,omitempty"`
	End          time.Time `json:"end_date,omitempty"`
	TotalEntries int       `json:"total_entries"`
	Format       string    `json:"format"`
}

// ReportSummary 报告汇总指标
type ReportSummary struct {
	TotalDecisions int `json:"total_decisions"`
	TotalErrors    int `json:"total_errors"`
	UniqueUsers    int `json:"unique_users"`
	UniqueSessions int `json:"unique_sessions"`
}

// Store 审计存储接口：追加写，按条件读，按保留策略裁剪
type Store interface {
	// Append 追加条目
	Append(ctx context.Context, e *Entry) error
	// List 按过滤条件返回条目，时间升序；损坏条目跳过
	List(ctx context.Context, f Filter) ([]Entry, error)
	// BySession 返回某会话的全部条目，时间升序
	BySession(ctx context.Context, sessionID string) ([]Entry, error)
	// Trim 删除早于 cutoff 的条目；超出 max 时按最旧优先删除
	Trim(ctx context.Context, cutoff time.Time, max int) error
	// Close 释放资源
	Close() error
}
