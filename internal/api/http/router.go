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
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"

	"claims-platform/internal/api/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	handler *Handler
	mw      *middleware.Middleware
	auditMW *middleware.AuditMiddleware
	jwt     *middleware.JWTAuth
}

// NewRouter 创建 HTTP 路由器
func NewRouter(handler *Handler, mw *middleware.Middleware) *Router {
	return &Router{handler: handler, mw: mw}
}

// SetAuditMiddleware 启用 API 访问审计
func (r *Router) SetAuditMiddleware(a *middleware.AuditMiddleware) {
	r.auditMW = a
}

// SetJWT 启用 JWT 认证；未设置时 API 路由不做认证
func (r *Router) SetJWT(j *middleware.JWTAuth) {
	r.jwt = j
}

// Build 组装 Hertz 服务器并注册全部路由
func (r *Router) Build(addr string, opts ...config.Option) *server.Hertz {
	allOpts := append([]config.Option{server.WithHostPorts(addr)}, opts...)
	s := server.Default(allOpts...)

	s.Use(r.mw.CORS())
	s.Use(r.mw.AccessLog())

	s.GET("/health", r.handler.Health)
	s.GET("/metrics", r.handler.Metrics)

	api := s.Group("/api/v1")
	if r.auditMW != nil {
		api.Use(r.auditMW.AuditAccess())
	}
	if r.jwt != nil {
		s.POST("/api/v1/auth/login", r.jwt.LoginHandler())
		api.Use(r.jwt.MiddlewareFunc())
		api.POST("/auth/refresh", r.jwt.RefreshHandler())
	}

	claims := api.Group("/claims")
	{
		claims.POST("/decide", r.handler.DecideClaim)
		claims.POST("/query", r.handler.AnalyzeQuery)
	}

	documents := api.Group("/documents")
	{
		documents.POST("", r.handler.UploadDocument)
		documents.GET("", r.handler.ListDocuments)
		documents.GET("/:id", r.handler.GetDocument)
		documents.DELETE("/:id", r.handler.DeleteDocument)
	}

	auditGroup := api.Group("/audit")
	{
		auditGroup.GET("/entries", r.handler.AuditEntries)
		auditGroup.GET("/sessions/:id", r.handler.AuditSession)
		auditGroup.POST("/export", r.handler.AuditExport)
	}

	cacheGroup := api.Group("/cache")
	{
		cacheGroup.GET("/stats", r.handler.CacheStats)
		cacheGroup.DELETE("/:category", r.handler.CacheInvalidate)
	}

	return s
}
