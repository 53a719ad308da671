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

package api

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"
	"github.com/hertz-contrib/obs-opentelemetry/provider"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"car-identifier/internal/api/http"
	"car-identifier/internal/api/http/middleware"
	"car-identifier/internal/app"
)

// otelProviderShutdown 用于优雅关闭时关闭 OpenTelemetry provider
type otelProviderShutdown interface {
	Shutdown(ctx context.Context) error
}

// App API 应用（装配 HTTP Router、Handler、Middleware）
type App struct {
	config       *app.Bootstrap
	router       *http.Router
	hertz        *server.Hertz
	otelProvider otelProviderShutdown
}

// NewApp 创建 API 应用（由 cmd/api 调用）
func NewApp(bootstrap *app.Bootstrap) (*App, error) {
	if bootstrap == nil || bootstrap.Identifier == nil {
		return nil, fmt.Errorf("bootstrap 未装配 Identifier")
	}
	cfg := bootstrap.Config.API

	var opts []middleware.Option
	if cfg.CORS.Enable {
		opts = append(opts, middleware.WithAllowOrigins(cfg.CORS.AllowOrigins))
	}
	if cfg.RateLimit.Enable {
		opts = append(opts, middleware.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	mw := middleware.NewMiddleware(opts...)

	handler := http.NewHandler(bootstrap.Identifier, int64(cfg.MaxBodyBytes))
	router := http.NewRouter(handler, mw)
	router.SetMetricsEnabled(bootstrap.Config.Monitoring.Prometheus.Enable)
	router.SetMaxBodyBytes(cfg.MaxBodyBytes)

	return &App{config: bootstrap, router: router}, nil
}

// Run 启动 HTTP 服务，addr 如 ":8080"
func (a *App) Run(addr string) error {
	a.config.Logger.Info("API 服务启动", "addr", addr, "provider", a.config.Identifier.Name())

	// 使用 Hertz slog 扩展，与 bootstrap 的输出与级别对齐
	hertzLogger := hertzslog.NewLogger(
		hertzslog.WithOutput(a.config.Logger.Output()),
		hertzslog.WithLevel(a.config.Logger.Level()),
	)
	hlog.SetLogger(hertzLogger)

	a.hertz = a.build(addr)
	return a.hertz.Run()
}

// build 按配置决定是否挂载 OpenTelemetry server tracer
func (a *App) build(addr string) *server.Hertz {
	tracing := a.config.Config.Monitoring.Tracing
	if !tracing.Enable {
		return a.router.Build(addr)
	}
	serviceName := tracing.ServiceName
	if serviceName == "" {
		serviceName = "car-identifier"
	}
	exportEndpoint := tracing.ExportEndpoint
	if exportEndpoint == "" {
		exportEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if exportEndpoint == "" {
		a.config.Logger.Warn("链路追踪已开启但未配置 export_endpoint，跳过")
		return a.router.Build(addr)
	}

	opts := []provider.Option{
		provider.WithServiceName(serviceName),
		provider.WithExportEndpoint(exportEndpoint),
	}
	if tracing.Insecure {
		opts = append(opts, provider.WithInsecure())
	}
	a.otelProvider = provider.NewOpenTelemetryProvider(opts...)
	tracerOpt, cfg := hertztracing.NewServerTracer()
	a.router.Use(hertztracing.ServerMiddleware(cfg))
	h := a.router.Build(addr, tracerOpt)
	a.config.Logger.Info("链路追踪已启用", "service_name", serviceName, "endpoint", exportEndpoint)
	return h
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
	return nil
}
