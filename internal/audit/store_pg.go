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
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StorePg Postgres 实现的审计存储。
type StorePg struct {
	pool *pgxpool.Pool
}

// 初次连接时建表，避免全新部署首写失败
var auditSchema = []string{
	`CREATE TABLE IF NOT EXISTS audit_entries (
		audit_id   text PRIMARY KEY,
		ts         timestamptz NOT NULL,
		action     text NOT NULL,
		user_id    text,
		session_id text,
		entry      jsonb NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS audit_entries_ts_idx ON audit_entries (ts)`,
	`CREATE INDEX IF NOT EXISTS audit_entries_session_idx ON audit_entries (session_id)`,
}

// NewStorePg 创建基于 PostgreSQL 的审计存储，并确保表结构存在
func NewStorePg(ctx context.Context, dsn string) (*StorePg, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	for _, ddl := range auditSchema {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &StorePg{pool: pool}, nil
}

// Append 追加条目；重复 audit_id 忽略，保持追加式语义
func (s *StorePg) Append(ctx context.Context, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO audit_entries (audit_id, ts, action, user_id, session_id, entry)
		 VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), $6)
		 ON CONFLICT (audit_id) DO NOTHING`,
		e.AuditID, e.Timestamp, e.Action, e.UserID, e.SessionID, data)
	return err
}

// List 按过滤条件返回条目，时间升序；JSON 损坏的行跳过
func (s *StorePg) List(ctx context.Context, f Filter) ([]Entry, error) {
	q := `SELECT entry FROM audit_entries WHERE 1=1`
	args := []any{}
	n := 0
	add := func(clause string, v any) {
		n++
		args = append(args, v)
		q += clause + argPlaceholder(n)
	}
	if f.SessionID != "" {
		add(` AND session_id = `, f.SessionID)
	}
	if f.UserID != "" {
		add(` AND user_id = `, f.UserID)
	}
	if f.Action != "" {
		add(` AND action = `, f.Action)
	}
	if !f.Start.IsZero() {
		add(` AND ts >= `, f.Start)
	}
	if !f.End.IsZero() {
		add(` AND ts <= `, f.End)
	}
	q += ` ORDER BY ts ASC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// BySession 返回某会话的全部条目
func (s *StorePg) BySession(ctx context.Context, sessionID string) ([]Entry, error) {
	return s.List(ctx, Filter{SessionID: sessionID})
}

// Trim 删除早于 cutoff 的条目，再按最旧优先裁剪到 max
func (s *StorePg) Trim(ctx context.Context, cutoff time.Time, max int) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM audit_entries WHERE ts <= $1`, cutoff); err != nil {
		return err
	}
	if max <= 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM audit_entries WHERE audit_id IN (
		   SELECT audit_id FROM audit_entries ORDER BY ts DESC OFFSET $1
		 )`, max)
	return err
}

// Close 关闭连接池
func (s *StorePg) Close() error {
	s.pool.Close()
	return nil
}

func argPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}
