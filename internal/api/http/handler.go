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

package http

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"

	appsvc "claims-platform/internal/app"
	"claims-platform/internal/audit"
	"claims-platform/internal/ingest"
	"claims-platform/internal/pipeline/common"
	"claims-platform/internal/pipeline/decision"
	"claims-platform/internal/pipeline/query"
	"claims-platform/internal/storage/cache"
	"claims-platform/pkg/metrics"
)

// Handler HTTP 处理器：理赔决策、保单文档、审计与缓存管理
type Handler struct {
	engine    *decision.Engine
	analyzer  *query.Analyzer
	processor *ingest.Processor
	docs      appsvc.DocumentService
	trail     *audit.Trail
	cacheMgr  *cache.Manager
}

// NewHandler 创建 HTTP 处理器
func NewHandler(engine *decision.Engine, docs appsvc.DocumentService) *Handler {
	return &Handler{
		engine:    engine,
		analyzer:  query.NewAnalyzer(),
		processor: ingest.NewProcessor(nil),
		docs:      docs,
	}
}

// SetTrail 注入审计链
func (h *Handler) SetTrail(trail *audit.Trail) {
	h.trail = trail
}

// SetCache 注入缓存管理器
func (h *Handler) SetCache(mgr *cache.Manager) {
	h.cacheMgr = mgr
}

// Health 健康检查
func (h *Handler) Health(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{"status": "ok", "time": time.Now().Format(time.RFC3339)})
}

// Metrics Prometheus 指标暴露
func (h *Handler) Metrics(ctx context.Context, c *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	c.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}

type decideRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// DecideClaim 对当前保单库执行一次完整理赔决策
func (h *Handler) DecideClaim(ctx context.Context, c *app.RequestContext) {
	if h.engine == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "decision engine not ready"})
		return
	}
	var req decideRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}
	if req.Query == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "query is required"})
		return
	}

	var docs []common.PolicyDocument
	if h.docs != nil {
		var err error
		docs, err = h.docs.ActiveDocuments(ctx)
		if err != nil {
			c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
	}

	d := h.engine.Decide(ctx, req.Query, req.SessionID, req.UserID, docs)
	c.JSON(consts.StatusOK, d)
}

type analyzeRequest struct {
	Query string `json:"query"`
}

// AnalyzeQuery 仅执行查询解析，不产出决策
func (h *Handler) AnalyzeQuery(ctx context.Context, c *app.RequestContext) {
	var req analyzeRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}
	if req.Query == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "query is required"})
		return
	}

	parsed := h.analyzer.Analyze(&common.ClaimQuery{
		ID:        uuid.New().String(),
		Text:      req.Query,
		CreatedAt: time.Now(),
	})
	c.JSON(consts.StatusOK, parsed)
}

// UploadDocument 上传保单文档（multipart 字段 file）
func (h *Handler) UploadDocument(ctx context.Context, c *app.RequestContext) {
	if h.docs == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "document service not ready"})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	doc, err := h.processor.Process(fh.Filename, data)
	if err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}
	if err := h.docs.AddDocument(ctx, doc); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	// 保单集已变更，文档类缓存整体失效
	if h.cacheMgr != nil {
		_, _ = h.cacheMgr.InvalidateCategory(ctx, cache.CategoryDocument)
	}
	c.JSON(consts.StatusCreated, utils.H{"id": doc.ID, "source": doc.Source, "chars": len(doc.Content)})
}

// ListDocuments 保单文档列表
func (h *Handler) ListDocuments(ctx context.Context, c *app.RequestContext) {
	if h.docs == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "document service not ready"})
		return
	}
	infos, err := h.docs.ListDocuments(ctx)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"documents": infos, "total": len(infos)})
}

// GetDocument 获取单个保单文档
func (h *Handler) GetDocument(ctx context.Context, c *app.RequestContext) {
	if h.docs == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "document service not ready"})
		return
	}
	doc, err := h.docs.GetDocument(ctx, c.Param("id"))
	if err != nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": "document not found"})
		return
	}
	c.JSON(consts.StatusOK, doc)
}

// DeleteDocument 删除保单文档
func (h *Handler) DeleteDocument(ctx context.Context, c *app.RequestContext) {
	if h.docs == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "document service not ready"})
		return
	}
	id := c.Param("id")
	if err := h.docs.DeleteDocument(ctx, id); err != nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": "document not found"})
		return
	}
	if h.cacheMgr != nil {
		_, _ = h.cacheMgr.InvalidateCategory(ctx, cache.CategoryDocument)
	}
	c.JSON(consts.StatusOK, utils.H{"deleted": id})
}

// AuditEntries 审计条目检索，支持 session_id / user_id / action / start / end 过滤
func (h *Handler) AuditEntries(ctx context.Context, c *app.RequestContext) {
	if h.trail == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "audit trail not ready"})
		return
	}
	f := audit.Filter{
		SessionID: c.Query("session_id"),
		UserID:    c.Query("user_id"),
		Action:    c.Query("action"),
	}
	if v := c.Query("start"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			f.Start = ts
		}
	}
	if v := c.Query("end"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			f.End = ts
		}
	}

	entries, err := h.trail.Entries(ctx, f)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"entries": entries, "total": len(entries)})
}

// AuditSession 会话审计汇总
func (h *Handler) AuditSession(ctx context.Context, c *app.RequestContext) {
	if h.trail == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "audit trail not ready"})
		return
	}
	summary, err := h.trail.SessionSummary(ctx, c.Param("id"))
	if err != nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, summary)
}

type exportRequest struct {
	Format string `json:"format"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// AuditExport 导出审计报告（json 或 csv）
func (h *Handler) AuditExport(ctx context.Context, c *app.RequestContext) {
	if h.trail == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "audit trail not ready"})
		return
	}
	var req exportRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}
	f := audit.Filter{}
	if req.Start != "" {
		if ts, err := time.Parse(time.RFC3339, req.Start); err == nil {
			f.Start = ts
		}
	}
	if req.End != "" {
		if ts, err := time.Parse(time.RFC3339, req.End); err == nil {
			f.End = ts
		}
	}

	report, err := h.trail.ExportReport(ctx, f, req.Format)
	if err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}
	contentType := "application/json; charset=utf-8"
	if req.Format == "csv" {
		contentType = "text/csv; charset=utf-8"
	}
	c.Data(consts.StatusOK, contentType, []byte(report))
}

// CacheStats 缓存统计
func (h *Handler) CacheStats(ctx context.Context, c *app.RequestContext) {
	if h.cacheMgr == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "cache not ready"})
		return
	}
	stats := h.cacheMgr.Stats()
	c.JSON(consts.StatusOK, utils.H{
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"evictions": stats.Evictions,
		"hit_rate":  stats.HitRate(),
		"entries":   stats.Entries,
	})
}

// CacheInvalidate 按类别失效缓存
func (h *Handler) CacheInvalidate(ctx context.Context, c *app.RequestContext) {
	if h.cacheMgr == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "cache not ready"})
		return
	}
	category := c.Param("category")
	removed, err := h.cacheMgr.InvalidateCategory(ctx, category)
	if err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"category": category, "removed": removed})
}
