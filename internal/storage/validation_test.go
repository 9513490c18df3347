package storage

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
	}{
		{name: "valid string", str: "run-1", wantErr: false},
		{name: "empty string", str: "", wantErr: true},
		{name: "whitespace only", str: "  \t", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, "id")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrEmptyString) {
				t.Errorf("validateString() error = %v, want ErrEmptyString", err)
			}
		})
	}
}

func TestValidateRun(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		modify  func(*model.TrainingRun)
		wantErr error
		name    string
	}{
		{name: "valid run", modify: func(*model.TrainingRun) {}},
		{name: "missing id", modify: func(r *model.TrainingRun) { r.ID = "" }, wantErr: ErrInvalidRun},
		{name: "missing start", modify: func(r *model.TrainingRun) { r.StartedAt = time.Time{} }, wantErr: ErrInvalidRun},
		{
			name:    "finished before start",
			modify:  func(r *model.TrainingRun) { r.FinishedAt = r.StartedAt.Add(-time.Second) },
			wantErr: ErrInvalidRun,
		},
		{name: "missing model path", modify: func(r *model.TrainingRun) { r.ModelPath = "" }, wantErr: ErrInvalidRun},
		{
			name:    "infinite metric",
			modify:  func(r *model.TrainingRun) { r.Metrics["log_loss"] = math.Inf(1) },
			wantErr: ErrInvalidRun,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := testRun("run-1", start)
			tt.modify(run)
			err := validateRun(run)
			if tt.wantErr == nil && err != nil {
				t.Errorf("validateRun() unexpected error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("validateRun() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := validateRun(nil); !errors.Is(err, ErrNilParameter) {
		t.Errorf("validateRun(nil) error = %v, want ErrNilParameter", err)
	}
}

func TestValidateLabels(t *testing.T) {
	tests := []struct {
		name    string
		labels  []model.CustomerLabel
		wantErr bool
	}{
		{name: "empty set", labels: nil},
		{
			name:   "valid",
			labels: []model.CustomerLabel{{RFM: model.RFM{CustomerID: "c1", Frequency: 1}}},
		},
		{
			name:    "blank customer",
			labels:  []model.CustomerLabel{{RFM: model.RFM{CustomerID: " ", Frequency: 1}}},
			wantErr: true,
		},
		{
			name:    "zero frequency",
			labels:  []model.CustomerLabel{{RFM: model.RFM{CustomerID: "c1"}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLabels(tt.labels)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateLabels() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidLabel) {
				t.Errorf("validateLabels() error = %v, want ErrInvalidLabel", err)
			}
		})
	}
}
