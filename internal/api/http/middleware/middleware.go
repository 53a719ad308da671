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
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"golang.org/x/time/rate"

	"car-identifier/pkg/metrics"
)

// Middleware 中间件管理器
type Middleware struct {
	allowOrigins []string
	limiter      *rate.Limiter
}

// Option 中间件选项
type Option func(*Middleware)

// WithAllowOrigins 设置 CORS 允许的来源；空或包含 "*" 时允许任意来源
func WithAllowOrigins(origins []string) Option {
	return func(m *Middleware) { m.allowOrigins = origins }
}

// WithRateLimit 每秒 rps 个请求、突发 burst；rps<=0 表示不限流
func WithRateLimit(rps float64, burst int) Option {
	return func(m *Middleware) {
		if rps <= 0 {
			m.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		m.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewMiddleware 创建新的中间件管理器
func NewMiddleware(opts ...Option) *Middleware {
	m := &Middleware{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CORS CORS 中间件
func (m *Middleware) CORS() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		origin := string(c.GetHeader("Origin"))
		if allowed := m.allowOrigin(origin); allowed != "" {
			c.Header("Access-Control-Allow-Origin", allowed)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Request-ID")
			c.Header("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if string(c.Method()) == consts.MethodOptions {
			c.AbortWithStatus(consts.StatusNoContent)
			return
		}

		c.Next(ctx)
	}
}

func (m *Middleware) allowOrigin(origin string) string {
	if len(m.allowOrigins) == 0 {
		return "*"
	}
	for _, o := range m.allowOrigins {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

// RateLimit 令牌桶限流，超出时返回 429
func (m *Middleware) RateLimit() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if m.limiter != nil && !m.limiter.Allow() {
			metrics.RateLimitRejectedTotal.Inc()
			c.JSON(consts.StatusTooManyRequests, map[string]string{
				"error": "请求过于频繁，请稍后再试",
				"kind":  "rate_limited",
			})
			c.Abort()
			return
		}

		c.Next(ctx)
	}
}

// AccessLog 访问日志与请求计数
func (m *Middleware) AccessLog() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()

		c.Next(ctx)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		code := c.Response.StatusCode()
		metrics.HTTPRequestTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
		hlog.CtxInfof(ctx, "%s %s %d %s request_id=%s",
			c.Method(), c.Path(), code, time.Since(start), c.Response.Header.Get("X-Request-ID"))
	}
}
