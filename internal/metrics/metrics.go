// Package metrics 定义 Prometheus 指标
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codespark_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	aiSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codespark_ai_sessions_total",
			Help: "AI requests by operation and final status",
		},
		[]string{"operation", "status"},
	)
	aiTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codespark_ai_tokens_total",
			Help: "Tokens reported by the model provider",
		},
		[]string{"operation", "model"},
	)
	aiLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codespark_ai_gateway_duration_seconds",
			Help:    "Model gateway call duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"operation"},
	)
	authAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codespark_auth_attempts_total",
			Help: "Auth attempts by event and outcome",
		},
		[]string{"event", "success"},
	)
)

// ObserveHTTPRequest 记录一次 HTTP 请求耗时
func ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	if path == "" {
		path = "unmatched"
	}
	httpRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(d.Seconds())
}

// RecordAISession 记录一次 AI 调用的结果
func RecordAISession(operation, status string) {
	aiSessions.WithLabelValues(operation, status).Inc()
}

// RecordTokens 累加模型消耗的 token
func RecordTokens(operation, model string, tokens int) {
	if tokens <= 0 {
		return
	}
	aiTokens.WithLabelValues(operation, model).Add(float64(tokens))
}

// ObserveGateway 记录模型调用耗时
func ObserveGateway(operation string, d time.Duration) {
	aiLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordAuthAttempt 记录认证事件
func RecordAuthAttempt(event string, success bool) {
	authAttempts.WithLabelValues(event, strconv.FormatBool(success)).Inc()
}
