package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for inbound HTTP requests and the
// advice pipeline.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	modelCalls      *prometheus.CounterVec
	modelLatency    *prometheus.HistogramVec
	recommendations prometheus.Counter
	tradesExecuted  *prometheus.CounterVec
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stocksage",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stocksage",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	modelCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stocksage",
		Subsystem: "llm",
		Name:      "calls_total",
		Help:      "Total number of model calls by operation and outcome.",
	}, []string{"operation", "status"})

	modelLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stocksage",
		Subsystem: "llm",
		Name:      "call_duration_seconds",
		Help:      "Latency distribution for model calls.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"operation"})

	recommendations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stocksage",
		Subsystem: "advisor",
		Name:      "recommendations_total",
		Help:      "Total validated recommendations served, ERROR placeholders included.",
	})

	tradesExecuted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stocksage",
		Subsystem: "portfolio",
		Name:      "trades_executed_total",
		Help:      "Total simulated trades executed, by direction.",
	}, []string{"type"})

	for _, c := range []prometheus.Collector{
		requestDuration, requestTotal, modelCalls, modelLatency, recommendations, tradesExecuted,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		modelCalls:      modelCalls,
		modelLatency:    modelLatency,
		recommendations: recommendations,
		tradesExecuted:  tradesExecuted,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// RecordModelCall records one model call outcome. Safe on a nil collector.
func (c *Collector) RecordModelCall(operation, status string, latency time.Duration) {
	if c == nil {
		return
	}
	c.modelCalls.WithLabelValues(operation, status).Inc()
	c.modelLatency.WithLabelValues(operation).Observe(latency.Seconds())
}

// RecordRecommendations counts recommendations served in an advice response.
func (c *Collector) RecordRecommendations(count int) {
	if c == nil {
		return
	}
	c.recommendations.Add(float64(count))
}

// RecordTrade counts one executed simulated trade.
func (c *Collector) RecordTrade(tradeType string) {
	if c == nil {
		return
	}
	c.tradesExecuted.WithLabelValues(tradeType).Inc()
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
