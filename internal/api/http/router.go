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
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"

	"car-identifier/internal/api/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	handler        *Handler
	middleware     *middleware.Middleware
	metricsEnabled bool
	maxBodyBytes   int
	global         []app.HandlerFunc
}

// NewRouter 创建新的 HTTP 路由器
func NewRouter(handler *Handler, mw *middleware.Middleware) *Router {
	return &Router{handler: handler, middleware: mw}
}

// SetMetricsEnabled 是否暴露 GET /metrics
func (r *Router) SetMetricsEnabled(enabled bool) {
	r.metricsEnabled = enabled
}

// SetMaxBodyBytes 请求体上限，0 使用 hertz 默认
func (r *Router) SetMaxBodyBytes(n int) {
	r.maxBodyBytes = n
}

// Use 追加全局中间件（如链路追踪）；Build 时先于路由注册挂载
func (r *Router) Use(handlers ...app.HandlerFunc) {
	r.global = append(r.global, handlers...)
}

// Build 创建 Hertz 实例并注册路由；opts 用于追加 tracer 等服务端选项
func (r *Router) Build(addr string, opts ...config.Option) *server.Hertz {
	serverOpts := []config.Option{server.WithHostPorts(addr)}
	if r.maxBodyBytes > 0 {
		// base64 膨胀约 4/3，另留 JSON 与 multipart 开销
		serverOpts = append(serverOpts, server.WithMaxRequestBodySize(r.maxBodyBytes*2))
	}
	serverOpts = append(serverOpts, opts...)

	h := server.Default(serverOpts...)
	// hertz 在注册路由时固化处理链，全局中间件须在此之前挂载
	if len(r.global) > 0 {
		h.Use(r.global...)
	}
	h.Use(r.middleware.AccessLog(), r.middleware.CORS())

	api := h.Group("/api")
	api.GET("/health", r.handler.HealthCheck)
	api.POST("/identify", r.middleware.RateLimit(), r.handler.Identify)

	if r.metricsEnabled {
		h.GET("/metrics", r.handler.Metrics)
	}
	return h
}
