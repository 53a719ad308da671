package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		IdentifyTotal, IdentifyDuration, IdentifyInFlight,
		HTTPRequestTotal, RateLimitRejectedTotal,
	)
}

// IdentifyTotal 识别请求总数（按结果）
var IdentifyTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "carid_identify_total",
		Help: "车辆识别请求总数",
	},
	[]string{"provider", "outcome"}, // ok | invalid_input | bad_request | ... | empty_result
)

// IdentifyDuration 单次识别耗时（秒），含上游往返
var IdentifyDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "carid_identify_duration_seconds",
		Help:    "车辆识别耗时（秒）",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	},
	[]string{"provider"},
)

// IdentifyInFlight 当前进行中的识别请求数
var IdentifyInFlight = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "carid_identify_in_flight",
		Help: "进行中的识别请求数",
	},
	[]string{"provider"},
)

// HTTPRequestTotal API 请求总数
var HTTPRequestTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "carid_http_requests_total",
		Help: "API 请求总数",
	},
	[]string{"path", "code"},
)

// RateLimitRejectedTotal 被入站限流拒绝的请求数
var RateLimitRejectedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "carid_rate_limit_rejected_total",
		Help: "被入站限流拒绝的请求数",
	},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// ContentType /metrics 响应的 Content-Type
func ContentType() string {
	return string(expfmt.NewFormat(expfmt.TypeTextPlain))
}
