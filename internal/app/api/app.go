package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"
	"github.com/hertz-contrib/obs-opentelemetry/provider"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"claims-platform/internal/api/http"
	"claims-platform/internal/api/http/middleware"
	"claims-platform/internal/app"
	"claims-platform/internal/pipeline/decision"
)

// otelProviderShutdown 用于优雅关闭时关闭 OpenTelemetry provider
type otelProviderShutdown interface {
	Shutdown(ctx context.Context) error
}

// App API 应用（装配 HTTP Router、Handler、Middleware；仅依赖 Engine + DocumentService）
type App struct {
	bootstrap    *app.Bootstrap
	engine       *decision.Engine
	router       *http.Router
	hertz        *server.Hertz
	otelProvider otelProviderShutdown
}

// NewApp 创建 API 应用（由 cmd/api 调用）
func NewApp(bootstrap *app.Bootstrap) (*App, error) {
	engine := decision.NewEngine(decision.Options{
		Cache:  bootstrap.CacheManager,
		Trail:  bootstrap.AuditTrail,
		LLM:    bootstrap.LLM,
		Logger: bootstrap.Logger.Named("decision"),
	})

	// 启动时回放历史决策，供一致性校验比对
	if bootstrap.AuditTrail != nil {
		if err := decision.RestoreHistory(context.Background(), engine, bootstrap.AuditTrail); err != nil {
			bootstrap.Logger.Warn("历史决策恢复failed", "error", err)
		}
	}

	handler := http.NewHandler(engine, bootstrap.Documents)
	handler.SetTrail(bootstrap.AuditTrail)
	handler.SetCache(bootstrap.CacheManager)

	mw := middleware.NewMiddleware()
	mw.SetLogger(bootstrap.Logger)
	router := http.NewRouter(handler, mw)

	if bootstrap.Config != nil && bootstrap.Config.API.Middleware.AccessAudit && bootstrap.AuditTrail != nil {
		router.SetAuditMiddleware(middleware.NewAuditMiddleware(bootstrap.AuditTrail))
	}

	if bootstrap.Config != nil && bootstrap.Config.API.Middleware.Auth && bootstrap.Config.API.Middleware.JWTKey != "" {
		timeout := parseDuration(bootstrap.Config.API.Middleware.JWTTimeout, time.Hour)
		maxRefresh := parseDuration(bootstrap.Config.API.Middleware.JWTMaxRefresh, time.Hour)
		jwtAuth, err := middleware.NewJWTAuth([]byte(bootstrap.Config.API.Middleware.JWTKey), timeout, maxRefresh)
		if err != nil {
			bootstrap.Logger.Warn("JWT 初始化failed，将跳过认证", "error", err)
		} else {
			router.SetJWT(jwtAuth)
			bootstrap.Logger.Info("JWT 认证已启用")
		}
	}

	return &App{
		bootstrap: bootstrap,
		engine:    engine,
		router:    router,
	}, nil
}

// Run 启动 HTTP 服务，addr 如 ":8080"
func (a *App) Run(addr string) error {
	a.bootstrap.Logger.Info("API 服务启动", "addr", addr)

	// 使用 Hertz slog 扩展，与 bootstrap 配置对齐
	output := os.Stdout
	if a.bootstrap.Config != nil && a.bootstrap.Config.Log.File != "" {
		f, err := os.OpenFile(a.bootstrap.Config.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("打开日志文件failed: %w", err)
		}
		output = f
	}
	levelVar := &slog.LevelVar{}
	if a.bootstrap.Config != nil && a.bootstrap.Config.Log.Level != "" {
		switch a.bootstrap.Config.Log.Level {
		case "debug":
			levelVar.Set(slog.LevelDebug)
		case "warn":
			levelVar.Set(slog.LevelWarn)
		case "error":
			levelVar.Set(slog.LevelError)
		default:
			levelVar.Set(slog.LevelInfo)
		}
	} else {
		levelVar.Set(slog.LevelInfo)
	}
	hertzLogger := hertzslog.NewLogger(
		hertzslog.WithOutput(output),
		hertzslog.WithLevel(levelVar),
	)
	hlog.SetLogger(hertzLogger)

	// 可选：启用链路追踪（OpenTelemetry）
	if a.bootstrap.Config != nil && a.bootstrap.Config.Monitoring.Tracing.Enable {
		serviceName := a.bootstrap.Config.Monitoring.Tracing.ServiceName
		if serviceName == "" {
			serviceName = "claims-api"
		}
		exportEndpoint := a.bootstrap.Config.Monitoring.Tracing.ExportEndpoint
		if exportEndpoint == "" {
			exportEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		}
		if exportEndpoint != "" {
			opts := []provider.Option{
				provider.WithServiceName(serviceName),
				provider.WithExportEndpoint(exportEndpoint),
			}
			if a.bootstrap.Config.Monitoring.Tracing.Insecure {
				opts = append(opts, provider.WithInsecure())
			}
			p := provider.NewOpenTelemetryProvider(opts...)
			a.otelProvider = p
			tracerOpt, cfg := hertztracing.NewServerTracer()
			a.hertz = a.router.Build(addr, tracerOpt)
			a.hertz.Use(hertztracing.ServerMiddleware(cfg))
			a.bootstrap.Logger.Info("链路追踪已启用", "service_name", serviceName, "endpoint", exportEndpoint)
		} else {
			a.hertz = a.router.Build(addr)
		}
	} else {
		a.hertz = a.router.Build(addr)
	}
	return a.hertz.Run()
}

// Shutdown 优雅关闭（传入 ctx 以支持超时，如 cmd 层 WithTimeout）
func (a *App) Shutdown(ctx context.Context) error {
	if a.otelProvider != nil {
		_ = a.otelProvider.Shutdown(ctx)
	}
	if a.hertz != nil {
		if err := a.hertz.Shutdown(ctx); err != nil {
			return err
		}
	}
	return a.bootstrap.Close()
}

// parseDuration 解析时长字符串，无效或空时返回 defaultVal
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
