package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 使用独立的 registry，不注册到全局默认 registry
type Metrics struct {
	Registry *prometheus.Registry

	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	predictions     *prometheus.CounterVec
	predictionRows  prometheus.Histogram
	lastF1          prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wine_http_requests_total",
				Help: "Total number of HTTP requests",
			}, []string{"path", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wine_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			}, []string{"path"},
		),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wine_predictions_total",
				Help: "Prediction requests by outcome",
			}, []string{"outcome"},
		),
		predictionRows: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wine_prediction_rows",
				Help:    "Rows per evaluated upload",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		lastF1: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wine_last_f1_score",
				Help: "F1 score of the most recent successful evaluation",
			},
		),
	}
	m.Registry.MustRegister(
		m.requestCount,
		m.requestDuration,
		m.predictions,
		m.predictionRows,
		m.lastF1,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveRequest(path, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

func (m *Metrics) ObservePrediction(outcome string, rows int, f1 *float64) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(outcome).Inc()
	if outcome != OutcomeSuccess {
		return
	}
	m.predictionRows.Observe(float64(rows))
	if f1 != nil {
		m.lastF1.Set(*f1)
	}
}

// Handler 以 Prometheus 文本格式输出指标
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
