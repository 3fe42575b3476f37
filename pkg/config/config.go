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

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Model      ModelConfig      `mapstructure:"model"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	RateLimits RateLimitsConfig `mapstructure:"rate_limits"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// SecretsConfig Secret Store 配置；api_key 等使用 secret:// 引用时生效
type SecretsConfig struct {
	Provider string            `mapstructure:"provider"` // vault | k8s | env | memory
	Config   map[string]string `mapstructure:"config"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Port       int              `mapstructure:"port"`
	Host       string           `mapstructure:"host"`
	Timeout    string           `mapstructure:"timeout"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Middleware MiddlewareConfig `mapstructure:"middleware"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	Enable       bool     `mapstructure:"enable"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// MiddlewareConfig 中间件配置
type MiddlewareConfig struct {
	Auth          bool   `mapstructure:"auth"`
	AccessAudit   bool   `mapstructure:"access_audit"` // 为 true 时 API 访问写入审计链
	JWTKey        string `mapstructure:"jwt_key"`
	JWTTimeout    string `mapstructure:"jwt_timeout"`     // 如 "1h"
	JWTMaxRefresh string `mapstructure:"jwt_max_refresh"` // 如 "1h"
}

// ModelConfig LLM 兜底判定配置
type ModelConfig struct {
	// Enable 为 false 时规则引擎单独工作，unclear 结果不经 LLM 复核
	Enable      bool    `mapstructure:"enable"`
	Provider    string  `mapstructure:"provider"` // openai | qwen | gemini
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"` // 支持 ${ENV_VAR} 占位
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// CacheConfig 决策缓存配置
type CacheConfig struct {
	Type       string                         `mapstructure:"type"` // memory | redis
	Addr       string                         `mapstructure:"addr"`
	DB         int                            `mapstructure:"db"`
	Password   string                         `mapstructure:"password"`
	MaxEntries int                            `mapstructure:"max_entries"` // 各类别默认容量上限，<=0 使用默认 1000
	Categories map[string]CacheCategoryConfig `mapstructure:"categories"`  // 按类别覆盖 TTL 与容量
}

// CacheCategoryConfig 单个缓存类别的 TTL 与容量配置；非正值保留默认
type CacheCategoryConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
	MaxEntries int `mapstructure:"max_entries"`
}

// AuditConfig 审计链存储配置
type AuditConfig struct {
	Store         string `mapstructure:"store"` // memory | postgres
	DSN           string `mapstructure:"dsn"`   // Postgres 连接串，store=postgres 时必填
	RetentionDays int    `mapstructure:"retention_days"`
	MaxEntries    int    `mapstructure:"max_entries"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// TracingConfig 链路追踪配置（OpenTelemetry）
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
	Port   int  `mapstructure:"port"`
}

// RateLimitsConfig LLM Provider 限流配置
type RateLimitsConfig struct {
	LLM map[string]LLMRateLimitConfig `mapstructure:"llm"`
}

// LLMRateLimitConfig 单个 LLM Provider 的限流配置
type LLMRateLimitConfig struct {
	TokensPerMinute   int     `mapstructure:"tokens_per_minute"`
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
	MaxConcurrent     int     `mapstructure:"max_concurrent"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	replaceEnvVars(&config)

	return &config, nil
}

// replaceEnvVars 替换配置中的 ${ENV_VAR} 占位
func replaceEnvVars(config *Config) {
	config.Model.APIKey = expandEnv(config.Model.APIKey)
	config.Cache.Password = expandEnv(config.Cache.Password)
	config.Audit.DSN = expandEnv(config.Audit.DSN)
	config.API.Middleware.JWTKey = expandEnv(config.API.Middleware.JWTKey)
}

func expandEnv(v string) string {
	if !strings.HasPrefix(v, "${") || !strings.HasSuffix(v, "}") {
		return v
	}
	envVar := strings.TrimPrefix(strings.TrimSuffix(v, "}"), "${")
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return v
}

// LoadAPIConfig 加载 API 配置（仅 configs/api.yaml）
func LoadAPIConfig() (*Config, error) {
	return LoadConfig("configs/api.yaml")
}
