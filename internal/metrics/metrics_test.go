package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusBucket(t *testing.T) {
	tests := []struct {
		want string
		code int
	}{
		{"1xx", 100},
		{"2xx", 200},
		{"2xx", 201},
		{"3xx", 301},
		{"4xx", 401},
		{"4xx", 404},
		{"5xx", 500},
		{"5xx", 503},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusBucket(tt.code), "code %d", tt.code)
	}
}

func scrape(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", Handler())

	// Gauges always appear; counters and histograms only after first observation.
	assert.Contains(t, scrape(t, r), "risk_model_features")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	ObservePrediction(model.Prediction{Probability: 0.8, Label: 1, Band: model.RiskHigh})

	body := scrape(t, r)
	assert.Contains(t, body, `risk_http_requests_total{method="GET",path="/ping",status="2xx"}`)
	assert.Contains(t, body, `risk_predictions_total{band="High",label="1"}`)
	assert.Contains(t, body, "risk_prediction_probability_bucket")
}
