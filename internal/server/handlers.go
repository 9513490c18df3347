package server

import (
	"errors"
	"net/http"

	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/metrics"
	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/gin-gonic/gin"
)

// PredictRequest is the body of POST /api/predict.
type PredictRequest struct {
	Amount               *float64 `json:"Amount" binding:"required"`
	Value                *float64 `json:"Value" binding:"required"`
	CustomerID           string   `json:"CustomerId" binding:"required"`
	ProductCategory      string   `json:"ProductCategory" binding:"required"`
	ChannelID            string   `json:"ChannelId" binding:"required"`
	ProviderID           string   `json:"ProviderId" binding:"required"`
	TransactionStartTime string   `json:"TransactionStartTime" binding:"required"`
}

// Transaction converts the request into a record.
func (r PredictRequest) Transaction() model.Transaction {
	return model.Transaction{
		CustomerID:      r.CustomerID,
		Amount:          *r.Amount,
		Value:           *r.Value,
		ProductCategory: r.ProductCategory,
		ChannelID:       r.ChannelID,
		ProviderID:      r.ProviderID,
		StartTime:       r.TransactionStartTime,
	}
}

// PredictResponse is the body returned by POST /api/predict.
type PredictResponse struct {
	RiskBand        model.RiskBand       `json:"risk_band"`
	TopFeatures     []model.Contribution `json:"top_features"`
	RiskProbability float64              `json:"risk_probability"`
	PredictedLabel  int                  `json:"predicted_label"`
}

// BatchResponse is the body returned by POST /api/predict_batch.
type BatchResponse struct {
	Message string   `json:"message"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

func (s *Server) rootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Credit Risk API is running."})
}

func (s *Server) predictHandler(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.ScoringErrorsTotal.WithLabelValues("invalid_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	pred, err := s.scorer.ScoreOne(c.Request.Context(), req.Transaction())
	if err != nil {
		s.scoringFailed(c, "Prediction failed", err)
		return
	}

	top := pred.TopFeatures
	if top == nil {
		top = []model.Contribution{}
	}
	c.JSON(http.StatusOK, PredictResponse{
		PredictedLabel:  pred.Label,
		RiskProbability: pred.Probability,
		RiskBand:        pred.Band,
		TopFeatures:     top,
	})
}

func (s *Server) predictBatchHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		metrics.ScoringErrorsTotal.WithLabelValues("invalid_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "multipart field 'file' with a CSV upload is required",
		})
		return
	}
	f, err := header.Open()
	if err != nil {
		s.scoringFailed(c, "Batch prediction failed", err)
		return
	}
	defer func() { _ = f.Close() }()

	table, err := dataset.Read(f)
	if err != nil {
		s.scoringFailed(c, "Batch prediction failed", errors.Join(common.ErrInvalidInput, err))
		return
	}
	metrics.BatchRows.Observe(float64(table.Len()))

	scored, err := s.scorer.ScoreTable(c.Request.Context(), table)
	if err != nil {
		s.scoringFailed(c, "Batch prediction failed", err)
		return
	}

	c.JSON(http.StatusOK, BatchResponse{
		Message: "Batch predictions completed",
		Rows:    scored.Len(),
		Columns: scored.Header,
	})
}

// scoringFailed maps input problems to 400 and everything else to 500.
func (s *Server) scoringFailed(c *gin.Context, msg string, err error) {
	status, code := http.StatusInternalServerError, "prediction_failed"
	switch {
	case errors.Is(err, model.ErrInvalidTransaction),
		errors.Is(err, dataset.ErrMissingColumns),
		errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrEmptyDataset):
		status, code = http.StatusBadRequest, "invalid_input"
	}
	metrics.ScoringErrorsTotal.WithLabelValues(code).Inc()
	s.logger.Warn(msg, "error", err, "request_id", c.GetString("request_id"))
	c.JSON(status, gin.H{
		"error":   code,
		"message": msg + ": " + err.Error(),
	})
}
