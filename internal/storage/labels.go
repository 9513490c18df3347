package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/credit-risk-model/internal/model"
)

// SaveLabels stores the RFM summary and proxy label of every customer in a
// run, replacing any labels previously saved for it. The run must exist.
func (s *SQLiteStorage) SaveLabels(ctx context.Context, runID string, labels []model.CustomerLabel) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}
	if err := validateLabels(labels); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM training_runs WHERE id = ?)`, runID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check run existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM customer_labels WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear labels: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO customer_labels (run_id, customer_id, recency, frequency, monetary, cluster, is_high_risk)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, l := range labels {
		if _, err := stmt.ExecContext(ctx, runID, l.CustomerID, l.Recency, l.Frequency, l.Monetary, l.Cluster, l.IsHighRisk); err != nil {
			return fmt.Errorf("failed to save label for %s: %w", l.CustomerID, err)
		}
	}

	return tx.Commit()
}

// GetLabels returns the labels of a run ordered by customer. With
// highRiskOnly set, only flagged customers are returned.
func (s *SQLiteStorage) GetLabels(ctx context.Context, runID string, highRiskOnly bool) ([]model.CustomerLabel, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	query := `
		SELECT customer_id, recency, frequency, monetary, cluster, is_high_risk
		FROM customer_labels
		WHERE run_id = ?`
	if highRiskOnly {
		query += ` AND is_high_risk = 1`
	}
	query += ` ORDER BY customer_id`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get labels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var labels []model.CustomerLabel
	for rows.Next() {
		var l model.CustomerLabel
		if err := rows.Scan(&l.CustomerID, &l.Recency, &l.Frequency, &l.Monetary, &l.Cluster, &l.IsHighRisk); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labels: %w", err)
	}
	return labels, nil
}
