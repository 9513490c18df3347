package rfm

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/model"
	"gonum.org/v1/gonum/stat"
)

// ErrTooFewCustomers is returned when there are fewer distinct customers than
// requested clusters.
var ErrTooFewCustomers = errors.New("fewer customers than clusters")

// ClusterStats summarizes one cluster on the original (unscaled) RFM scale.
type ClusterStats struct {
	Cluster       int     `json:"cluster"`
	Size          int     `json:"size"`
	MeanRecency   float64 `json:"mean_recency"`
	MeanFrequency float64 `json:"mean_frequency"`
	MeanMonetary  float64 `json:"mean_monetary"`
}

// Score is the quantity minimized when choosing the high-risk cluster.
func (s ClusterStats) Score() float64 {
	return (s.MeanFrequency + s.MeanMonetary) / 2
}

// Result is the outcome of labeling one training run.
type Result struct {
	Labels      map[string]int
	Assignments []model.CustomerLabel
	Stats       []ClusterStats
	RiskCluster int
}

// HighRiskCount returns the number of customers flagged high risk.
func (r Result) HighRiskCount() int {
	n := 0
	for _, a := range r.Assignments {
		if a.IsHighRisk {
			n++
		}
	}
	return n
}

// Label clusters the RFM rows and flags the members of the cluster with the
// lowest mean of frequency and monetary value. The scaler is fitted on rows
// every call; nothing is carried between runs.
func Label(rows []model.RFM, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	if len(rows) < cfg.Clusters {
		return Result{}, fmt.Errorf("%w: %d customers, %d clusters", ErrTooFewCustomers, len(rows), cfg.Clusters)
	}

	points := standardize(rows)
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible clustering
	c := kMeans(points, cfg.Clusters, cfg.NInit, cfg.MaxIter, cfg.Tolerance, rng)

	stats := clusterStats(rows, c.labels, cfg.Clusters)
	risk := riskiest(stats)

	result := Result{
		Labels:      make(map[string]int, len(rows)),
		Assignments: make([]model.CustomerLabel, len(rows)),
		Stats:       stats,
		RiskCluster: risk,
	}
	for i, row := range rows {
		high := c.labels[i] == risk
		result.Assignments[i] = model.CustomerLabel{RFM: row, Cluster: c.labels[i], IsHighRisk: high}
		result.Labels[row.CustomerID] = result.Assignments[i].Label()
	}

	slog.Debug("RFM clustering complete",
		"customers", len(rows),
		"clusters", cfg.Clusters,
		"risk_cluster", risk,
		"inertia", c.inertia,
		"high_risk", result.HighRiskCount())
	return result, nil
}

// standardize scales each RFM dimension to zero mean and unit population
// standard deviation. A constant dimension is centered only.
func standardize(rows []model.RFM) [][]float64 {
	cols := [3][]float64{
		make([]float64, len(rows)),
		make([]float64, len(rows)),
		make([]float64, len(rows)),
	}
	for i, r := range rows {
		cols[0][i] = float64(r.Recency)
		cols[1][i] = float64(r.Frequency)
		cols[2][i] = r.Monetary
	}

	points := make([][]float64, len(rows))
	for i := range points {
		points[i] = make([]float64, len(cols))
	}
	for d, col := range cols {
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for i, v := range col {
			points[i][d] = (v - mean) / std
		}
	}
	return points
}

func clusterStats(rows []model.RFM, labels []int, k int) []ClusterStats {
	stats := make([]ClusterStats, k)
	for j := range stats {
		stats[j].Cluster = j
	}
	for i, r := range rows {
		s := &stats[labels[i]]
		s.Size++
		s.MeanRecency += float64(r.Recency)
		s.MeanFrequency += float64(r.Frequency)
		s.MeanMonetary += r.Monetary
	}
	for j := range stats {
		if stats[j].Size == 0 {
			continue
		}
		n := float64(stats[j].Size)
		stats[j].MeanRecency /= n
		stats[j].MeanFrequency /= n
		stats[j].MeanMonetary /= n
	}
	return stats
}

// riskiest returns the non-empty cluster with the lowest Score.
func riskiest(stats []ClusterStats) int {
	best, bestScore := -1, math.Inf(1)
	for _, s := range stats {
		if s.Size == 0 {
			continue
		}
		if score := s.Score(); score < bestScore {
			best, bestScore = s.Cluster, score
		}
	}
	return best
}
