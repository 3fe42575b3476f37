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

package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"claims-platform/pkg/metrics"
)

// 缓存类别
const (
	CategoryDocument  = "document"
	CategoryQuery     = "query"
	CategoryDecision  = "decision"
	CategoryReasoning = "reasoning"
)

// categoryTTL 各类别的过期时间
var categoryTTL = map[string]time.Duration{
	CategoryDocument:  3600 * time.Second,
	CategoryQuery:     1800 * time.Second,
	CategoryDecision:  7200 * time.Second,
	CategoryReasoning: 3600 * time.Second,
}

// categoryPrefix 各类别的键前缀
var categoryPrefix = map[string]string{
	CategoryDocument:  "doc_",
	CategoryQuery:     "query_",
	CategoryDecision:  "decision_",
	CategoryReasoning: "reasoning_",
}

const (
	defaultMaxEntries   = 1000
	defaultCleanupEvery = 300 * time.Second
	defaultTTL          = 3600 * time.Second
)

// entryMeta 条目元数据，用于淘汰与统计
type entryMeta struct {
	category    string
	accessCount int64
	storedAt    time.Time
	expireAt    time.Time
}

// Stats 缓存统计
type Stats struct {
	Hits      int64          `json:"hits"`
	Misses    int64          `json:"misses"`
	Evictions int64          `json:"evictions"`
	Entries   map[string]int `json:"entries"`
}

// HitRate 命中率；无访问时为 0
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Manager 分类缓存管理器：内容哈希键、类别级 TTL 与容量上限、命中统计。
// 淘汰在超限的类别内部进行，互不挤占；元数据在本地维护，底层 Store 可以是内存或 Redis。
type Manager struct {
	store Store

	mu           sync.Mutex
	meta         map[string]*entryMeta
	hits         int64
	misses       int64
	evictions    int64
	defaultLimit int
	limits       map[string]int
	ttls         map[string]time.Duration
	cleanupGap   time.Duration
	lastCleanup  time.Time
}

// NewManager 创建缓存管理器
func NewManager(store Store) *Manager {
	return NewManagerWithLimit(store, defaultMaxEntries)
}

// NewManagerWithLimit 创建缓存管理器，maxEntries 为各类别的默认容量上限
func NewManagerWithLimit(store Store, maxEntries int) *Manager {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Manager{
		store:        store,
		meta:         make(map[string]*entryMeta),
		defaultLimit: maxEntries,
		limits:       make(map[string]int),
		ttls:         make(map[string]time.Duration),
		cleanupGap:   defaultCleanupEvery,
		lastCleanup:  time.Now(),
	}
}

// Configure 设置某类别的 TTL 与容量上限；非正值保留当前默认
func (m *Manager) Configure(category string, ttl time.Duration, maxEntries int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl > 0 {
		m.ttls[category] = ttl
	}
	if maxEntries > 0 {
		m.limits[category] = maxEntries
	}
}

// Key 由类别前缀和内容摘要构造缓存键
func Key(category, content string) string {
	sum := md5.Sum([]byte(content))
	return categoryPrefix[category] + hex.EncodeToString(sum[:])
}

// TTLFor 返回类别的过期时间；未知类别用默认值
func TTLFor(category string) time.Duration {
	if ttl, ok := categoryTTL[category]; ok {
		return ttl
	}
	return defaultTTL
}

// Put 写入缓存；类别达到容量上限时按 (访问次数, 写入时间) 淘汰类别内最冷条目
func (m *Manager) Put(ctx context.Context, category, content string, value interface{}) error {
	key := Key(category, content)

	m.mu.Lock()
	ttl := m.ttlForLocked(category)
	m.cleanupLocked(time.Now())
	if _, exists := m.meta[key]; !exists {
		m.evictLocked(ctx, category)
	}
	m.meta[key] = &entryMeta{
		category: category,
		storedAt: time.Now(),
		expireAt: time.Now().Add(ttl),
	}
	m.mu.Unlock()

	if err := m.store.Set(ctx, key, value, ttl); err != nil {
		m.mu.Lock()
		delete(m.meta, key)
		m.mu.Unlock()
		return err
	}
	return nil
}

// Get 读取缓存；返回是否命中
func (m *Manager) Get(ctx context.Context, category, content string, dest interface{}) (bool, error) {
	key := Key(category, content)

	m.mu.Lock()
	m.cleanupLocked(time.Now())
	m.mu.Unlock()

	err := m.store.Get(ctx, key, dest)
	if err != nil {
		m.mu.Lock()
		m.misses++
		delete(m.meta, key)
		m.mu.Unlock()
		if errors.Is(err, ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}

	m.mu.Lock()
	m.hits++
	if e, ok := m.meta[key]; ok {
		e.accessCount++
	}
	m.mu.Unlock()
	return true, nil
}

// InvalidateCategory 失效某类别的全部条目，返回删除数量
func (m *Manager) InvalidateCategory(ctx context.Context, category string) (int, error) {
	return m.invalidate(ctx, func(key string, e *entryMeta) bool {
		return e.category == category
	})
}

// InvalidatePattern 失效键包含子串的条目，返回删除数量
func (m *Manager) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	return m.invalidate(ctx, func(key string, e *entryMeta) bool {
		return strings.Contains(key, pattern)
	})
}

func (m *Manager) invalidate(ctx context.Context, match func(string, *entryMeta) bool) (int, error) {
	m.mu.Lock()
	var keys []string
	for key, e := range m.meta {
		if match(key, e) {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		delete(m.meta, key)
	}
	m.mu.Unlock()

	for _, key := range keys {
		if err := m.store.Delete(ctx, key); err != nil {
			return len(keys), err
		}
	}
	return len(keys), nil
}

// Clear 清空全部缓存与统计
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.meta = make(map[string]*entryMeta)
	m.hits, m.misses, m.evictions = 0, 0, 0
	m.mu.Unlock()
	return m.store.Clear(ctx)
}

// Stats 返回当前统计快照
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make(map[string]int)
	for _, e := range m.meta {
		entries[e.category]++
	}
	return Stats{
		Hits:      m.hits,
		Misses:    m.misses,
		Evictions: m.evictions,
		Entries:   entries,
	}
}

// Close 关闭底层存储
func (m *Manager) Close() error {
	return m.store.Close()
}

// evictLocked 类别达到容量上限时，淘汰该类别内访问最少、最早写入的条目
func (m *Manager) evictLocked(ctx context.Context, category string) {
	max := m.limitForLocked(category)
	for m.countLocked(category) >= max {
		var victim string
		var victimMeta *entryMeta
		for key, e := range m.meta {
			if e.category != category {
				continue
			}
			if victimMeta == nil ||
				e.accessCount < victimMeta.accessCount ||
				(e.accessCount == victimMeta.accessCount && e.storedAt.Before(victimMeta.storedAt)) {
				victim = key
				victimMeta = e
			}
		}
		if victimMeta == nil {
			return
		}
		delete(m.meta, victim)
		_ = m.store.Delete(ctx, victim)
		m.evictions++
		metrics.CacheEvictionTotal.Inc()
	}
}

func (m *Manager) limitForLocked(category string) int {
	if v, ok := m.limits[category]; ok {
		return v
	}
	return m.defaultLimit
}

func (m *Manager) ttlForLocked(category string) time.Duration {
	if v, ok := m.ttls[category]; ok {
		return v
	}
	return TTLFor(category)
}

func (m *Manager) countLocked(category string) int {
	n := 0
	for _, e := range m.meta {
		if e.category == category {
			n++
		}
	}
	return n
}

// cleanupLocked 周期性清理过期元数据；实际值由底层 TTL 淘汰
func (m *Manager) cleanupLocked(now time.Time) {
	if now.Sub(m.lastCleanup) < m.cleanupGap {
		return
	}
	m.lastCleanup = now
	for key, e := range m.meta {
		if e.expireAt.Before(now) {
			delete(m.meta, key)
		}
	}
}
