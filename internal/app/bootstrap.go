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

package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"claims-platform/internal/audit"
	"claims-platform/internal/model/llm"
	"claims-platform/internal/storage/cache"
	"claims-platform/pkg/config"
	"claims-platform/pkg/log"
	"claims-platform/pkg/secrets"
)

// Bootstrap 统一初始化：缓存、审计链、保单文档与可选 LLM，供 api 与 cli 复用
type Bootstrap struct {
	Config       *config.Config
	Logger       *log.Logger
	CacheManager *cache.Manager
	AuditTrail   *audit.Trail
	Documents    DocumentService
	LLM          llm.Client
}

// NewBootstrap 根据配置创建 Bootstrap
func NewBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	logCfg := &log.Config{}
	if cfg != nil {
		logCfg.Level = cfg.Log.Level
		logCfg.Format = cfg.Log.Format
		logCfg.File = cfg.Log.File
	}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("初始化日志failed: %w", err)
	}

	b := &Bootstrap{
		Config:    cfg,
		Logger:    logger,
		Documents: NewDocumentService(),
	}

	// secret:// 引用经 Secret Store 解析（vault/k8s/env/memory）
	if cfg != nil && cfg.Secrets.Provider != "" {
		store, err := secrets.NewStore(secrets.Config{Provider: cfg.Secrets.Provider, Config: cfg.Secrets.Config})
		if err != nil {
			return nil, fmt.Errorf("初始化 Secret Store failed: %w", err)
		}
		cfg.Model.APIKey = resolveSecret(ctx, store, cfg.Model.APIKey, logger)
		cfg.Cache.Password = resolveSecret(ctx, store, cfg.Cache.Password, logger)
		cfg.Audit.DSN = resolveSecret(ctx, store, cfg.Audit.DSN, logger)
		cfg.API.Middleware.JWTKey = resolveSecret(ctx, store, cfg.API.Middleware.JWTKey, logger)
	}

	var cacheStore cache.Store
	if cfg != nil && cfg.Cache.Type == "redis" {
		cacheStore, err = cache.NewRedisStore(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			return nil, fmt.Errorf("初始化 Redis 缓存failed: %w", err)
		}
	} else {
		cacheStore = cache.NewMemoryStore()
	}
	if cfg != nil && cfg.Cache.MaxEntries > 0 {
		b.CacheManager = cache.NewManagerWithLimit(cacheStore, cfg.Cache.MaxEntries)
	} else {
		b.CacheManager = cache.NewManager(cacheStore)
	}
	if cfg != nil {
		for category, cc := range cfg.Cache.Categories {
			b.CacheManager.Configure(category, time.Duration(cc.TTLSeconds)*time.Second, cc.MaxEntries)
		}
	}

	var auditStore audit.Store
	if cfg != nil && cfg.Audit.Store == "postgres" {
		auditStore, err = audit.NewStorePg(ctx, cfg.Audit.DSN)
		if err != nil {
			return nil, fmt.Errorf("初始化审计存储failed: %w", err)
		}
	} else {
		auditStore = audit.NewMemoryStore()
	}
	b.AuditTrail = audit.NewTrail(auditStore, logger.Named("audit"))
	if cfg != nil {
		b.AuditTrail.SetRetention(cfg.Audit.RetentionDays, cfg.Audit.MaxEntries)
	}

	if cfg != nil && cfg.Model.Enable {
		client, err := llm.NewClient(cfg.Model.Provider, cfg.Model.Model, cfg.Model.APIKey, cfg.Model.BaseURL)
		if err != nil {
			logger.Warn("LLM 客户端初始化failed，兜底判定停用", "error", err)
		} else {
			b.LLM = client
			if len(cfg.RateLimits.LLM) > 0 {
				limits := make(map[string]llm.LLMLimitConfig, len(cfg.RateLimits.LLM))
				for provider, lc := range cfg.RateLimits.LLM {
					limits[provider] = llm.LLMLimitConfig{
						TokensPerMinute:   lc.TokensPerMinute,
						RequestsPerMinute: lc.RequestsPerMinute,
						MaxConcurrent:     lc.MaxConcurrent,
					}
				}
				b.LLM = llm.NewRateLimitedClient(client, llm.NewLLMRateLimiter(limits, nil))
			}
		}
	}

	return b, nil
}

// resolveSecret 解析 secret://<key> 形式的引用；非引用原样返回
func resolveSecret(ctx context.Context, store secrets.Store, v string, logger *log.Logger) string {
	const prefix = "secret://"
	if !strings.HasPrefix(v, prefix) {
		return v
	}
	key := strings.TrimPrefix(v, prefix)
	val, err := store.Get(ctx, key)
	if err != nil {
		logger.Warn("secret 解析failed", "key", key, "error", err)
		return v
	}
	return val
}

// Close 释放 Bootstrap 持有的资源
func (b *Bootstrap) Close() error {
	var firstErr error
	if b.CacheManager != nil {
		if err := b.CacheManager.Close(); err != nil {
			firstErr = err
		}
	}
	if b.AuditTrail != nil {
		if err := b.AuditTrail.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
