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

package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
)

// ActivityLogger 审计活动写入接口（audit.Trail 实现）
type ActivityLogger interface {
	LogActivity(ctx context.Context, sessionID, userID, action string, details interface{}) (string, error)
}

// AuditMiddleware API 访问审计中间件
type AuditMiddleware struct {
	trail ActivityLogger
}

// NewAuditMiddleware 创建访问审计中间件
func NewAuditMiddleware(trail ActivityLogger) *AuditMiddleware {
	return &AuditMiddleware{trail: trail}
}

// AuditAccess 记录 API 访问（异步，不阻塞请求）
func (a *AuditMiddleware) AuditAccess() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)

		method := string(c.Method())
		path := string(c.Path())
		sessionID := string(c.GetHeader("X-Session-ID"))
		userID := string(c.GetHeader("X-User-ID"))
		status := c.Response.StatusCode()

		go func() {
			_, _ = a.trail.LogActivity(context.Background(), sessionID, userID, determineAction(method, path),
				map[string]interface{}{
					"method":      method,
					"path":        path,
					"status":      status,
					"success":     status < 400,
					"duration_ms": time.Since(start).Milliseconds(),
				})
		}()
	}
}

// determineAction 根据 HTTP 方法和路径确定操作类型
func determineAction(method string, path string) string {
	switch {
	case strings.Contains(path, "/claims/decide"):
		return "decide_claim"
	case strings.Contains(path, "/claims/query"):
		return "analyze_query"
	case strings.Contains(path, "/documents"):
		if method == "POST" {
			return "upload_document"
		}
		if method == "DELETE" {
			return "delete_document"
		}
		return "view_documents"
	case strings.Contains(path, "/audit/export"):
		return "export_audit"
	case strings.Contains(path, "/audit"):
		return "view_audit"
	case strings.Contains(path, "/cache"):
		if method == "DELETE" {
			return "invalidate_cache"
		}
		return "view_cache"
	}
	return "unknown"
}
