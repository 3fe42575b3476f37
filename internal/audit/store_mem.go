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
	"sync"
	"time"
)

// MemoryStore 内存审计存储：条目按写入顺序保存
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStore 创建内存审计存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append 追加条目；深拷贝防止调用方后续修改
func (s *MemoryStore) Append(ctx context.Context, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	var cp Entry
	if err := json.Unmarshal(data, &cp); err != nil {
		return err
	}

	s.mu.Lock()
	s.entries = append(s.entries, cp)
	s.mu.Unlock()
	return nil
}

// List 按过滤条件返回条目
func (s *MemoryStore) List(ctx context.Context, f Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for i := range s.entries {
		if f.Matches(&s.entries[i]) {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

// BySession 返回某会话的全部条目
func (s *MemoryStore) BySession(ctx context.Context, sessionID string) ([]Entry, error) {
	return s.List(ctx, Filter{SessionID: sessionID})
}

// Trim 删除过期条目；超容量时丢弃最旧条目
func (s *MemoryStore) Trim(ctx context.Context, cutoff time.Time, max int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for i := range s.entries {
		if s.entries[i].Timestamp.After(cutoff) {
			kept = append(kept, s.entries[i])
		}
	}
	s.entries = kept

	if max > 0 && len(s.entries) > max {
		s.entries = s.entries[len(s.entries)-max:]
	}
	return nil
}

// Close 无资源可释放
func (s *MemoryStore) Close() error {
	return nil
}
