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

package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LLMLimitConfig 单个 provider 的限流配置
type LLMLimitConfig struct {
	TokensPerMinute   int     `yaml:"tokens_per_minute"`   // 每分钟 token 配额
	RequestsPerMinute float64 `yaml:"requests_per_minute"` // 每分钟请求数
	MaxConcurrent     int     `yaml:"max_concurrent"`      // 最大并发请求数
}

// LLMRateLimiter 按 provider 维度限流：token budget + RPS + 并发数
type LLMRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*llmLimiter
	defaults LLMLimitConfig
}

type llmLimiter struct {
	requestLimiter *rate.Limiter
	tokenLimiter   *rate.Limiter
	semaphore      chan struct{}
	config         LLMLimitConfig

	mu               sync.Mutex
	tokensUsedMinute int
	minuteStart      time.Time
}

// NewLLMRateLimiter 创建 LLM 限流器；defaults 为 nil 时用 OpenAI Tier-1 量级的保守默认值
func NewLLMRateLimiter(configs map[string]LLMLimitConfig, defaults *LLMLimitConfig) *LLMRateLimiter {
	d := LLMLimitConfig{
		TokensPerMinute:   90000,
		RequestsPerMinute: 3500,
		MaxConcurrent:     50,
	}
	if defaults != nil {
		d = *defaults
	}

	l := &LLMRateLimiter{
		limiters: make(map[string]*llmLimiter, len(configs)),
		defaults: d,
	}
	for provider, cfg := range configs {
		l.limiters[provider] = newLimiter(cfg)
	}
	return l
}

// newLimiter 把按分钟的配额换算成 rate.Limiter（burst 取两秒配额）
func newLimiter(cfg LLMLimitConfig) *llmLimiter {
	lim := &llmLimiter{
		config:      cfg,
		minuteStart: time.Now(),
	}
	if cfg.RequestsPerMinute > 0 {
		rps := cfg.RequestsPerMinute / 60.0
		burst := int(rps * 2)
		if burst < 1 {
			burst = 1
		}
		lim.requestLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	if cfg.TokensPerMinute > 0 {
		tps := float64(cfg.TokensPerMinute) / 60.0
		burst := cfg.TokensPerMinute / 30
		if burst < 1 {
			burst = 1
		}
		lim.tokenLimiter = rate.NewLimiter(rate.Limit(tps), burst)
	}
	if cfg.MaxConcurrent > 0 {
		lim.semaphore = make(chan struct{}, cfg.MaxConcurrent)
	}
	return lim
}

// getOrCreate 取 provider 的限流器，未配置时按默认值惰性创建
func (l *LLMRateLimiter) getOrCreate(provider string) *llmLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[provider]; ok {
		return lim
	}
	lim := newLimiter(l.defaults)
	l.limiters[provider] = lim
	return lim
}

// Wait 阻塞直到取得执行许可；成功后必须配对调用 Release
func (l *LLMRateLimiter) Wait(ctx context.Context, provider string, estimatedTokens int) error {
	limiter := l.getOrCreate(provider)

	if limiter.requestLimiter != nil {
		if err := limiter.requestLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("request rate limit wait failed: %w", err)
		}
	}

	// token budget 按预估值预扣
	if limiter.tokenLimiter != nil && estimatedTokens > 0 {
		if err := limiter.tokenLimiter.WaitN(ctx, estimatedTokens); err != nil {
			return fmt.Errorf("token budget wait failed: %w", err)
		}
	}

	if limiter.semaphore != nil {
		select {
		case limiter.semaphore <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	limiter.recordTokens(estimatedTokens)
	return nil
}

// Release 归还并发 slot，在 LLM 调用结束后调用
func (l *LLMRateLimiter) Release(provider string) {
	l.mu.Lock()
	limiter, ok := l.limiters[provider]
	l.mu.Unlock()

	if !ok || limiter.semaphore == nil {
		return
	}
	select {
	case <-limiter.semaphore:
	default:
	}
}

// RecordTokenUsage 记录实际消耗的 tokens，用于修正分钟统计
func (l *LLMRateLimiter) RecordTokenUsage(provider string, actualTokens int) {
	l.mu.Lock()
	limiter, ok := l.limiters[provider]
	l.mu.Unlock()

	if ok {
		limiter.recordTokens(actualTokens)
	}
}

// recordTokens 累加当前分钟窗口的 token 计数，窗口过期则重置
func (lim *llmLimiter) recordTokens(n int) {
	lim.mu.Lock()
	defer lim.mu.Unlock()

	now := time.Now()
	if now.Sub(lim.minuteStart) > time.Minute {
		lim.tokensUsedMinute = n
		lim.minuteStart = now
		return
	}
	lim.tokensUsedMinute += n
}

// GetStats 返回 provider 的限流统计；未知 provider 返回 nil
func (l *LLMRateLimiter) GetStats(provider string) map[string]interface{} {
	l.mu.Lock()
	limiter, ok := l.limiters[provider]
	l.mu.Unlock()

	if !ok {
		return nil
	}

	limiter.mu.Lock()
	tokensUsed := limiter.tokensUsedMinute
	limiter.mu.Unlock()

	stats := map[string]interface{}{
		"requests_per_minute": limiter.config.RequestsPerMinute,
		"tokens_per_minute":   limiter.config.TokensPerMinute,
		"tokens_used_minute":  tokensUsed,
		"max_concurrent":      limiter.config.MaxConcurrent,
	}
	if limiter.semaphore != nil {
		stats["current_concurrent"] = len(limiter.semaphore)
		stats["available_slots"] = cap(limiter.semaphore) - len(limiter.semaphore)
	}
	return stats
}

// Allow 非阻塞检查；返回 true 时已占用并发 slot，调用方仍需 Release
func (l *LLMRateLimiter) Allow(provider string, estimatedTokens int) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[provider]
	l.mu.Unlock()

	if !ok {
		return true
	}

	if limiter.requestLimiter != nil && !limiter.requestLimiter.Allow() {
		return false
	}
	if limiter.tokenLimiter != nil && estimatedTokens > 0 {
		if !limiter.tokenLimiter.AllowN(time.Now(), estimatedTokens) {
			return false
		}
	}
	if limiter.semaphore != nil {
		select {
		case limiter.semaphore <- struct{}{}:
		default:
			return false
		}
	}
	return true
}
