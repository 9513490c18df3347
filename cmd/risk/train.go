package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/cli"
	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/Veraticus/credit-risk-model/internal/training"
	"github.com/spf13/cobra"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Label customers and train the risk model",
		Long: `Clean the transaction file, derive a high-risk label for every customer
from RFM clusters, fit the feature pipeline and train the boosted-tree
classifier. Both artifacts are written under models/ and the run is
recorded in the registry.`,
		RunE: runTrain,
	}

	cmd.Flags().String("data", "", "transactions CSV (default: data/raw/data.csv)")
	cmd.Flags().String("snapshot", "", "date recency is measured from, YYYY-MM-DD (default: latest transaction)")
	cmd.Flags().Bool("no-clean", false, "train on the file as-is, without cleaning")
	cmd.Flags().Bool("no-record", false, "do not record the run in the registry")
	cmd.Flags().Int("rounds", 0, "override the maximum number of boosting rounds")

	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	overridePath(cmd, "data", &s.Paths.RawData)

	cfg := training.DefaultConfig()
	cfg.Labeling = s.Labeling
	cfg.Boost = s.Training
	cfg.SkipClean, _ = cmd.Flags().GetBool("no-clean")
	if rounds, _ := cmd.Flags().GetInt("rounds"); rounds > 0 {
		cfg.Boost.Rounds = rounds
	}
	if raw, _ := cmd.Flags().GetString("snapshot"); raw != "" {
		snapshot, ok := model.ParseTimestamp(raw)
		if !ok {
			return common.NewUserError("invalid --snapshot "+raw+", expected YYYY-MM-DD", common.ErrInvalidInput)
		}
		cfg.Snapshot = snapshot
	}

	table, err := dataset.ReadFile(s.Paths.RawData)
	if err != nil {
		return common.NewUserError("could not read training data", err)
	}

	out := cmd.OutOrStdout()
	interrupts := cli.NewInterruptHandler(out, "Training", "No artifacts were written.")
	ctx := interrupts.HandleInterrupts(cmd.Context())

	progress := cli.NewTrainingProgress(cmd.ErrOrStderr(), cfg.Boost.Rounds)
	outcome, err := training.Fit(ctx, table, cfg, progress.Option())
	progress.Finish()
	if err != nil {
		if interrupts.WasInterrupted() {
			return nil
		}
		return fmt.Errorf("training failed: %w", err)
	}

	if err := outcome.Save(s.Paths.PipelineArtifact, s.Paths.ModelArtifact); err != nil {
		return err
	}

	if !outcome.Config.SkipClean {
		fmt.Fprintln(out, cli.RenderCleanReport(outcome.Clean))
	}
	fmt.Fprintln(out, cli.RenderEvaluation(outcome.Report, outcome.EvaluatedOn))
	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d of %d customers labeled high risk (snapshot %s)",
		outcome.Labels.HighRiskCount(), len(outcome.Labels.Assignments), outcome.Snapshot.Format(time.DateOnly))))
	fmt.Fprintln(out, cli.FormatSuccess("Pipeline saved to "+s.Paths.PipelineArtifact))
	fmt.Fprintln(out, cli.FormatSuccess("Model saved to "+s.Paths.ModelArtifact))

	if noRecord, _ := cmd.Flags().GetBool("no-record"); noRecord {
		return nil
	}
	store, err := initStorage(ctx, s.Paths.Database)
	if err != nil {
		// The artifacts are already saved; losing the record is not fatal.
		slog.Warn("Run registry unavailable, run not recorded", "database", s.Paths.Database, "error", err)
		return nil
	}
	defer func() { _ = store.Close() }()

	run, err := training.Record(ctx, store, outcome, training.Paths{
		Data:     s.Paths.RawData,
		Pipeline: s.Paths.PipelineArtifact,
		Model:    s.Paths.ModelArtifact,
	})
	if err != nil {
		slog.Warn("Failed to record run", "error", err)
		return nil
	}
	fmt.Fprintln(out, cli.FormatSuccess("Run recorded as "+run.ID))
	return nil
}
