package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		DecisionDuration, DecisionTotal, StageDuration, StageFailTotal,
		CacheHitTotal, CacheMissTotal, CacheEvictionTotal,
		AuditEntryTotal, LLMTokensTotal, RateLimitWaitSeconds,
	)
}

// DecisionDuration 决策全流程耗时（秒）
var DecisionDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "claims_decision_duration_seconds",
		Help:    "决策全流程耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
)

// DecisionTotal 决策总数（按状态）
var DecisionTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claims_decision_total",
		Help: "决策总数（按状态）",
	},
	[]string{"status"}, // approved | rejected | conditional | unclear
)

// StageDuration 各流水线阶段耗时（秒）
var StageDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "claims_stage_duration_seconds",
		Help:    "流水线阶段耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"stage"},
)

// StageFailTotal 阶段失败总数
var StageFailTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claims_stage_fail_total",
		Help: "流水线阶段失败总数",
	},
	[]string{"stage"},
)

// CacheHitTotal 缓存命中总数（按类别）
var CacheHitTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claims_cache_hit_total",
		Help: "缓存命中总数（按类别）",
	},
	[]string{"category"},
)

// CacheMissTotal 缓存未命中总数（按类别）
var CacheMissTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claims_cache_miss_total",
		Help: "缓存未命中总数（按类别）",
	},
	[]string{"category"},
)

// CacheEvictionTotal 缓存淘汰总数
var CacheEvictionTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "claims_cache_eviction_total",
		Help: "缓存淘汰总数",
	},
)

// AuditEntryTotal 审计条目总数（按动作）
var AuditEntryTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claims_audit_entry_total",
		Help: "审计条目总数（按动作）",
	},
	[]string{"action"},
)

// LLMTokensTotal LLM 调用 token 数
var LLMTokensTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claims_llm_tokens_total",
		Help: "LLM 调用 token 总数",
	},
	[]string{"direction"}, // input | output
)

// RateLimitWaitSeconds 限流等待耗时（秒）
var RateLimitWaitSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "claims_rate_limit_wait_seconds",
		Help:    "限流等待耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"component", "provider"},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
