package cli

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/Veraticus/credit-risk-model/internal/boost"
	"github.com/schollz/progressbar/v3"
)

// TrainingProgress draws a progress bar over boosting rounds.
type TrainingProgress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	last   boost.Progress
	seen   bool
}

// NewTrainingProgress creates a bar for up to rounds boosting rounds.
func NewTrainingProgress(writer io.Writer, rounds int) *TrainingProgress {
	if writer == nil {
		writer = os.Stderr
	}
	p := &TrainingProgress{writer: writer}
	p.bar = progressbar.NewOptions(rounds,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Boosting...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Observe records one finished round. Pass it to boost.WithProgress.
func (p *TrainingProgress) Observe(pr boost.Progress) {
	p.last, p.seen = pr, true
	desc := fmt.Sprintf("[cyan][bold]Boosting[reset] train %.4f", pr.TrainLoss)
	if !math.IsNaN(pr.ValidLoss) {
		desc += fmt.Sprintf(" valid %.4f", pr.ValidLoss)
	}
	p.bar.Describe(desc)
	if err := p.bar.Set(pr.Round); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Option returns the boost option that feeds this bar.
func (p *TrainingProgress) Option() boost.Option {
	return boost.WithProgress(p.Observe)
}

// Last returns the most recent round observed and whether any was.
func (p *TrainingProgress) Last() (boost.Progress, bool) {
	return p.last, p.seen
}

// Finish completes the bar. Early stopping leaves it short of the maximum,
// so it is filled before closing.
func (p *TrainingProgress) Finish() {
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
