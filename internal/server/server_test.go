package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/engine"
	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/Veraticus/credit-risk-model/internal/predlog"
	"github.com/Veraticus/credit-risk-model/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "supersecretkey"

func init() {
	gin.SetMode(gin.TestMode)
}

type panicScorer struct{}

func (panicScorer) ScoreOne(context.Context, model.Transaction) (model.Prediction, error) {
	panic("boom")
}

func (panicScorer) ScoreTable(context.Context, *dataset.Table) (*dataset.Table, error) {
	return nil, errors.New("storage offline")
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	out := testutil.TrainOutcome(t)
	logPath := filepath.Join(t.TempDir(), "logs", "predictions_log.csv")
	log, err := predlog.Open(logPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	a := &engine.Artifacts{Pipeline: out.Pipeline, Model: out.Model}
	e, err := engine.New(a.Pipeline, a.Model, engine.WithLog(log), engine.WithExplainer(a.Explainer(8)))
	require.NoError(t, err)

	s, err := New(Config{APIKey: testKey}, e)
	require.NoError(t, err)
	return s, logPath
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func jsonRequest(t *testing.T, method, path string, body any, key string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	return req
}

func examplePayload() map[string]any {
	r := testutil.ExampleRecord
	return map[string]any{
		"CustomerId":           r.CustomerID,
		"Amount":               r.Amount,
		"Value":                r.Value,
		"ProductCategory":      r.ProductCategory,
		"ChannelId":            r.ChannelID,
		"ProviderId":           r.ProviderID,
		"TransactionStartTime": r.StartTime,
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{}, panicScorer{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		key  string
		want int
	}{
		{name: "missing key", key: "", want: http.StatusUnauthorized},
		{name: "wrong key", key: "nope", want: http.StatusUnauthorized},
		{name: "prefix of key", key: testKey[:4], want: http.StatusUnauthorized},
		{name: "valid key", key: testKey, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, jsonRequest(t, http.MethodGet, "/api/", nil, tt.key))
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, "unauthorized", body["error"])
				assert.NotEmpty(t, body["message"])
			}
		})
	}

	// Health and metrics stay reachable without a key.
	assert.Equal(t, http.StatusOK, do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusOK, do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)
}

func TestPredict(t *testing.T) {
	s, logPath := newTestServer(t)

	w := do(s, jsonRequest(t, http.MethodPost, "/api/predict", examplePayload(), testKey))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, resp.RiskProbability, 0.0)
	assert.LessOrEqual(t, resp.RiskProbability, 1.0)
	assert.Equal(t, model.LabelFor(resp.RiskProbability), resp.PredictedLabel)
	assert.Equal(t, model.BandFor(resp.RiskProbability), resp.RiskBand)
	assert.Len(t, resp.TopFeatures, engine.DefaultTopFeatures)

	logged, err := dataset.ReadFile(logPath)
	require.NoError(t, err)
	require.Equal(t, 1, logged.Len())
	assert.Equal(t, testutil.ExampleRecord.CustomerID, logged.Cell(0, model.ColCustomerID))
}

func TestPredict_BadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	missing := examplePayload()
	delete(missing, "Amount")
	negative := examplePayload()
	negative["Value"] = -1
	text := examplePayload()
	text["Amount"] = "lots"

	for name, body := range map[string]any{"missing field": missing, "negative value": negative, "non-numeric": text} {
		t.Run(name, func(t *testing.T) {
			w := do(s, jsonRequest(t, http.MethodPost, "/api/predict", body, testKey))
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader("{not json"))
	req.Header.Set(APIKeyHeader, testKey)
	assert.Equal(t, http.StatusBadRequest, do(s, req).Code)
}

func batchRequest(t *testing.T, csv string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "batch.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/predict_batch", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(APIKeyHeader, testKey)
	return req
}

func TestPredictBatch(t *testing.T) {
	s, logPath := newTestServer(t)

	csv := strings.Join(model.InputColumns, ",") + "\n" +
		"CustomerId_1,95000,10,loan,ChannelId_2,ProviderId_3,2018-11-15 03:12:00+00:00\n" +
		"CustomerId_2,-500,500,airtime,ChannelId_3,ProviderId_6,2018-12-01T10:00:00Z\n" +
		"CustomerId_3,,,,,,\n"
	w := do(s, batchRequest(t, csv))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Rows)
	assert.Equal(t, append(append([]string(nil), model.InputColumns...),
		predlog.ColProbability, predlog.ColLabel, predlog.ColBand), resp.Columns)

	logged, err := dataset.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, 3, logged.Len())
}

func TestPredictBatch_BadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/predict_batch", nil)
	req.Header.Set(APIKeyHeader, testKey)
	assert.Equal(t, http.StatusBadRequest, do(s, req).Code)

	w := do(s, batchRequest(t, "ProductCategory\nairtime\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), model.ColCustomerID)

	assert.Equal(t, http.StatusBadRequest, do(s, batchRequest(t, "")).Code)
}

func TestFailuresDoNotCrash(t *testing.T) {
	s, err := New(Config{APIKey: testKey}, panicScorer{})
	require.NoError(t, err)

	w := do(s, jsonRequest(t, http.MethodPost, "/api/predict", examplePayload(), testKey))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")

	w = do(s, batchRequest(t, strings.Join(model.InputColumns, ",")+"\n"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "storage offline")

	// The server keeps serving after both failures.
	assert.Equal(t, http.StatusOK, do(s, jsonRequest(t, http.MethodGet, "/api/", nil, testKey)).Code)
}
