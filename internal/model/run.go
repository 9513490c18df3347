package model

import "time"

// TrainingRun is the registry record of one training invocation.
type TrainingRun struct {
	StartedAt     time.Time          `json:"started_at"`
	FinishedAt    time.Time          `json:"finished_at"`
	Snapshot      time.Time          `json:"snapshot"`
	Params        map[string]any     `json:"params"`
	Metrics       map[string]float64 `json:"metrics"`
	ID            string             `json:"id"`
	DataPath      string             `json:"data_path"`
	PipelinePath  string             `json:"pipeline_path"`
	ModelPath     string             `json:"model_path"`
	Rows          int                `json:"rows"`
	Customers     int                `json:"customers"`
	HighRisk      int                `json:"high_risk"`
	RiskCluster   int                `json:"risk_cluster"`
	BestIteration int                `json:"best_iteration"`
}

// Duration returns how long the run took.
func (r TrainingRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
