// Package metrics provides Prometheus instrumentation for the scoring API.
package metrics

import (
	"strconv"

	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "risk"

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// PredictionsTotal counts served predictions by risk band and label.
	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total predictions served by risk band and predicted label.",
		},
		[]string{"band", "label"},
	)

	// PredictionProbability observes the distribution of served probabilities.
	PredictionProbability = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "prediction_probability",
		Help:      "Risk probability of served predictions.",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
	})

	// BatchRows observes the size of uploaded batch files.
	BatchRows = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_rows",
		Help:      "Rows per batch prediction request.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	// ScoringErrorsTotal counts rejected or failed scoring requests.
	ScoringErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_errors_total",
			Help:      "Total scoring requests that failed, by reason.",
		},
		[]string{"reason"},
	)

	// ModelFeatures reports the input width of the loaded model.
	ModelFeatures = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "model_features",
		Help:      "Number of features the loaded model expects.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		PredictionsTotal,
		PredictionProbability,
		BatchRows,
		ScoringErrorsTotal,
		ModelFeatures,
	)
}

// ObservePrediction records one served prediction. It matches the engine's
// observer signature.
func ObservePrediction(p model.Prediction) {
	PredictionsTotal.WithLabelValues(string(p.Band), strconv.Itoa(p.Label)).Inc()
	PredictionProbability.Observe(p.Probability)
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
