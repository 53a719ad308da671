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

package vision

import (
	"context"
	"time"

	"github.com/google/uuid"

	"car-identifier/pkg/errors"
	"car-identifier/pkg/log"
	"car-identifier/pkg/metrics"
	"car-identifier/pkg/tracing"
)

// InstrumentedIdentifier 包装任意 Identifier，记录指标、span 与日志；不改变结果，不重试
type InstrumentedIdentifier struct {
	inner  Identifier
	logger *log.Logger
}

var _ Identifier = (*InstrumentedIdentifier)(nil)

// NewInstrumentedIdentifier 创建带观测的 Identifier；logger 为 nil 时不写日志
func NewInstrumentedIdentifier(inner Identifier, logger *log.Logger) *InstrumentedIdentifier {
	return &InstrumentedIdentifier{inner: inner, logger: logger}
}

// Name 返回底层提供商名称
func (i *InstrumentedIdentifier) Name() string { return i.inner.Name() }

// Identify 实现 Identifier.Identify
func (i *InstrumentedIdentifier) Identify(ctx context.Context, image string) (string, error) {
	provider := i.inner.Name()
	requestID := RequestIDFrom(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = WithRequestID(ctx, requestID)
	}

	ctx, span := tracing.StartIdentifySpan(ctx, provider, requestID, len(image))
	inFlight := metrics.IdentifyInFlight.WithLabelValues(provider)
	inFlight.Inc()
	start := time.Now()

	text, err := i.inner.Identify(ctx, image)

	elapsed := time.Since(start)
	inFlight.Dec()
	metrics.IdentifyDuration.WithLabelValues(provider).Observe(elapsed.Seconds())

	outcome := "ok"
	if err != nil {
		outcome = string(errors.KindOf(err))
		if outcome == "" {
			outcome = "unknown"
		}
	}
	metrics.IdentifyTotal.WithLabelValues(provider, outcome).Inc()
	tracing.EndSpan(span, outcomeKind(outcome), err)

	if i.logger != nil {
		if err != nil {
			i.logger.Warn("车辆识别失败",
				"request_id", requestID, "provider", provider, "kind", outcome,
				"elapsed_ms", elapsed.Milliseconds(), "error", err)
		} else {
			i.logger.Info("车辆识别完成",
				"request_id", requestID, "provider", provider,
				"elapsed_ms", elapsed.Milliseconds(), "text_len", len(text))
		}
	}
	return text, err
}

func outcomeKind(outcome string) string {
	if outcome == "ok" {
		return ""
	}
	return outcome
}
