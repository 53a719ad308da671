// Copyright 2026 fanjia1024
// OpenTelemetry integration for vehicle identification

package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "car-identifier"

// OTelConfig OpenTelemetry 配置
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	ExportEndpoint string // host:port，不含 scheme
	Insecure       bool
	// SampleRatio (0,1] 按比例采样，0 表示全量
	SampleRatio float64
}

// InitTracer 初始化全局 TracerProvider（CLI 等非 hertz 入口使用；API 由 hertz provider 负责）
func InitTracer(ctx context.Context, config OTelConfig) (*sdktrace.TracerProvider, error) {
	if config.ExportEndpoint == "" {
		return nil, fmt.Errorf("tracing: export endpoint is required")
	}
	if config.ServiceName == "" {
		config.ServiceName = tracerName
	}

	clientOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(config.ExportEndpoint)}
	if config.Insecure {
		clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(clientOpts...))
	if err != nil {
		return nil, fmt.Errorf("tracing: create otlp exporter: %w", err)
	}

	attrs := []attribute.KeyValue{semconv.ServiceName(config.ServiceName)}
	if config.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(config.ServiceVersion))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("tracing: build resource: %w", err)
	}

	sampler := sdktrace.AlwaysSample()
	if config.SampleRatio > 0 && config.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.SampleRatio))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}

// StartIdentifySpan 开始一次车辆识别 span
func StartIdentifySpan(ctx context.Context, provider string, requestID string, payloadLen int) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, "vision.identify",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("vision.provider", provider),
			attribute.String("request.id", requestID),
			attribute.Int("image.base64_len", payloadLen),
		),
	)
}

// EndSpan 按 kind 记录结果并结束 span；kind 为空表示成功
func EndSpan(span trace.Span, kind string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		span.SetAttributes(attribute.String("identify.error_kind", kind))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
