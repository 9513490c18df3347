package boost

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/evaluation"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const minHessian = 1e-16

// Progress reports the state after one boosting round.
type Progress struct {
	Round     int
	Rounds    int
	BestRound int
	TrainLoss float64
	// ValidLoss is NaN when training without a validation set.
	ValidLoss float64
}

// Option configures Train.
type Option func(*trainOptions)

type trainOptions struct {
	progress func(Progress)
}

// WithProgress calls fn after every round.
func WithProgress(fn func(Progress)) Option {
	return func(o *trainOptions) {
		o.progress = fn
	}
}

// Result is a trained model plus the split it was trained and validated on.
type Result struct {
	Model            *Model
	TrainRows        []int
	ValidRows        []int
	ValidProbs       []float64
	ValidLabels      []float64
	RoundsRun        int
	StoppedEarly     bool
	BestValidLogLoss float64
}

// Train fits a boosted ensemble to x and 0/1 labels y. When
// cfg.ValidationFraction is positive a stratified share of rows is held out for
// early stopping and returned in the result. Labels with a single class fail
// with ErrSingleClass before any fitting.
func Train(ctx context.Context, x mat.Matrix, y []float64, features []string, cfg Config, opts ...Option) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	r, c := x.Dims()
	if r != len(y) {
		return nil, fmt.Errorf("%w: %d rows but %d labels", common.ErrInvalidInput, r, len(y))
	}
	if c != len(features) {
		return nil, fmt.Errorf("%w: %d columns but %d feature names", common.ErrInvalidInput, c, len(features))
	}
	if err := checkLabels(y); err != nil {
		return nil, err
	}

	o := trainOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	res := &Result{BestValidLogLoss: math.NaN()}
	if cfg.ValidationFraction > 0 {
		res.TrainRows, res.ValidRows = StratifiedSplit(y, cfg.ValidationFraction, cfg.Seed)
	} else {
		res.TrainRows = make([]int, r)
		for i := range res.TrainRows {
			res.TrainRows[i] = i
		}
	}

	data := newBinned(x, res.TrainRows, cfg.MaxBins)
	n := len(res.TrainRows)
	labels := make([]float64, n)
	for k, row := range res.TrainRows {
		labels[k] = y[row]
	}
	validX := make([][]float64, len(res.ValidRows))
	res.ValidLabels = make([]float64, len(res.ValidRows))
	for k, row := range res.ValidRows {
		validX[k] = mat.Row(nil, row, x)
		res.ValidLabels[k] = y[row]
	}

	m := &Model{
		Version:    ModelVersion,
		Features:   append([]string(nil), features...),
		Config:     cfg,
		Background: columnMeans(x),
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible sampling
	trainMargin := make([]float64, n)
	validMargin := make([]float64, len(validX))
	grad := make([]float64, n)
	hess := make([]float64, n)
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	nFeatures := max(1, int(math.Round(cfg.ColSample*float64(c))))

	var trees []Tree
	best, bestLoss := 0, math.Inf(1)
	for round := 0; round < cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("training cancelled after %d rounds: %w", round, err)
		}

		for i := range all {
			p := Sigmoid(trainMargin[i])
			grad[i] = p - labels[i]
			hess[i] = math.Max(p*(1-p), minHessian)
		}

		g := &grower{
			data:     data,
			grad:     grad,
			hess:     hess,
			cfg:      cfg,
			features: sampleFeatures(rng, c, nFeatures),
		}
		g.grow(sampleRows(rng, all, cfg.Subsample), 0)
		tree := Tree{Nodes: g.nodes}
		trees = append(trees, tree)

		for i := range trainMargin {
			trainMargin[i] += tree.predictBinned(data, i)
		}
		for i, row := range validX {
			validMargin[i] += tree.Predict(row)
		}

		p := Progress{
			Round:     round + 1,
			Rounds:    cfg.Rounds,
			TrainLoss: marginLogLoss(trainMargin, labels),
			ValidLoss: math.NaN(),
		}
		if len(validX) > 0 {
			p.ValidLoss = marginLogLoss(validMargin, res.ValidLabels)
			if p.ValidLoss < bestLoss {
				best, bestLoss = round, p.ValidLoss
			}
		} else {
			best = round
		}
		p.BestRound = best + 1
		res.RoundsRun = round + 1
		if o.progress != nil {
			o.progress(p)
		}

		if len(validX) > 0 && cfg.EarlyStoppingRounds > 0 && round-best >= cfg.EarlyStoppingRounds {
			res.StoppedEarly = true
			break
		}
	}

	m.Trees = trees[:best+1]
	m.BestIteration = best
	m.TrainedAt = time.Now().UTC()
	res.Model = m

	if len(validX) > 0 {
		res.BestValidLogLoss = bestLoss
		res.ValidProbs = make([]float64, len(validX))
		for i, row := range validX {
			res.ValidProbs[i] = m.PredictProba(row)
		}
	}

	slog.Debug("Boosting complete",
		"rounds_run", res.RoundsRun,
		"best_iteration", best,
		"stopped_early", res.StoppedEarly,
		"train_rows", n,
		"valid_rows", len(validX))
	return res, nil
}

// checkLabels requires 0/1 labels containing both classes.
func checkLabels(y []float64) error {
	var pos, neg int
	for i, v := range y {
		switch v {
		case 0:
			neg++
		case 1:
			pos++
		default:
			return fmt.Errorf("%w: label %d is %g, want 0 or 1", common.ErrInvalidInput, i, v)
		}
	}
	if pos == 0 || neg == 0 {
		return fmt.Errorf("%w: %d positive, %d negative", ErrSingleClass, pos, neg)
	}
	return nil
}

func sampleRows(rng *rand.Rand, all []int, fraction float64) []int {
	if fraction >= 1 {
		return all
	}
	rows := make([]int, 0, int(float64(len(all))*fraction)+1)
	for _, r := range all {
		if rng.Float64() < fraction {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return all
	}
	return rows
}

func sampleFeatures(rng *rand.Rand, total, n int) []int {
	perm := rng.Perm(total)[:n]
	sort.Ints(perm)
	return perm
}

func columnMeans(x mat.Matrix) []float64 {
	_, c := x.Dims()
	means := make([]float64, c)
	for j := range means {
		means[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}
	return means
}

func marginLogLoss(margins, labels []float64) float64 {
	probs := make([]float64, len(margins))
	for i, m := range margins {
		probs[i] = Sigmoid(m)
	}
	return evaluation.LogLoss(probs, labels)
}
