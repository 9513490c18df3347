package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/credit-risk-model/internal/model"
)

const runColumns = `id, started_at, finished_at, snapshot, data_path, pipeline_path, model_path,
	row_count, customers, high_risk, risk_cluster, best_iteration, params`

// SaveRun records a training run and its metrics. Saving an existing ID
// replaces the previous record.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *model.TrainingRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("failed to encode run parameters: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO training_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			snapshot = excluded.snapshot,
			data_path = excluded.data_path,
			pipeline_path = excluded.pipeline_path,
			model_path = excluded.model_path,
			row_count = excluded.row_count,
			customers = excluded.customers,
			high_risk = excluded.high_risk,
			risk_cluster = excluded.risk_cluster,
			best_iteration = excluded.best_iteration,
			params = excluded.params
	`, run.ID, run.StartedAt, run.FinishedAt, run.Snapshot, run.DataPath, run.PipelinePath, run.ModelPath,
		run.Rows, run.Customers, run.HighRisk, run.RiskCluster, run.BestIteration, string(params))
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_metrics WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear run metrics: %w", err)
	}
	for name, value := range run.Metrics {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_metrics (run_id, name, value) VALUES (?, ?, ?)
		`, run.ID, name, value); err != nil {
			return fmt.Errorf("failed to save metric %s: %w", name, err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID. Unknown IDs yield ErrNotFound.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*model.TrainingRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM training_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if run.Metrics, err = s.runMetrics(ctx, s.db, id); err != nil {
		return nil, err
	}
	return run, nil
}

// LatestRun returns the most recently started run.
func (s *SQLiteStorage) LatestRun(ctx context.Context) (*model.TrainingRun, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	return &runs[0], nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.TrainingRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM training_runs
		ORDER BY started_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.TrainingRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	for i := range runs {
		if runs[i].Metrics, err = s.runMetrics(ctx, s.db, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// DeleteRun removes a run together with its metrics and labels.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM training_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.TrainingRun, error) {
	var run model.TrainingRun
	var params string
	err := row.Scan(
		&run.ID,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Snapshot,
		&run.DataPath,
		&run.PipelinePath,
		&run.ModelPath,
		&run.Rows,
		&run.Customers,
		&run.HighRisk,
		&run.RiskCluster,
		&run.BestIteration,
		&params,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &run.Params); err != nil {
		return nil, fmt.Errorf("failed to decode parameters of run %s: %w", run.ID, err)
	}
	return &run, nil
}

func (s *SQLiteStorage) runMetrics(ctx context.Context, q queryable, runID string) (map[string]float64, error) {
	rows, err := q.QueryContext(ctx, `SELECT name, value FROM run_metrics WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	metrics := make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		metrics[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metrics: %w", err)
	}
	return metrics, nil
}
