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
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/hertz-contrib/jwt"
)

const identityKey = "user_id"

// JWTAuth JWT 认证封装
type JWTAuth struct {
	mw *jwt.HertzJWTMiddleware
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// NewJWTAuth 创建 JWT 认证中间件。
// 登录凭据取 CLAIMS_API_USER / CLAIMS_API_PASSWORD 环境变量。
func NewJWTAuth(key []byte, timeout, maxRefresh time.Duration) (*JWTAuth, error) {
	mw, err := jwt.New(&jwt.HertzJWTMiddleware{
		Realm:       "claims-platform",
		Key:         key,
		Timeout:     timeout,
		MaxRefresh:  maxRefresh,
		IdentityKey: identityKey,
		PayloadFunc: func(data interface{}) jwt.MapClaims {
			if userID, ok := data.(string); ok {
				return jwt.MapClaims{identityKey: userID}
			}
			return jwt.MapClaims{}
		},
		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims := jwt.ExtractClaims(ctx, c)
			return claims[identityKey]
		},
		Authenticator: func(ctx context.Context, c *app.RequestContext) (interface{}, error) {
			var req loginRequest
			if err := c.BindAndValidate(&req); err != nil {
				return nil, jwt.ErrMissingLoginValues
			}
			user := os.Getenv("CLAIMS_API_USER")
			pass := os.Getenv("CLAIMS_API_PASSWORD")
			if user == "" || req.Username != user || req.Password != pass {
				return nil, jwt.ErrFailedAuthentication
			}
			return req.Username, nil
		},
		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			c.JSON(code, utils.H{"error": message})
		},
	})
	if err != nil {
		return nil, err
	}
	return &JWTAuth{mw: mw}, nil
}

// LoginHandler 登录签发 token
func (j *JWTAuth) LoginHandler() app.HandlerFunc {
	return j.mw.LoginHandler
}

// RefreshHandler 刷新 token
func (j *JWTAuth) RefreshHandler() app.HandlerFunc {
	return j.mw.RefreshHandler
}

// MiddlewareFunc 路由保护中间件
func (j *JWTAuth) MiddlewareFunc() app.HandlerFunc {
	return j.mw.MiddlewareFunc()
}
