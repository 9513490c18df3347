package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/credit-risk-model/internal/cli"
	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/engine"
	"github.com/spf13/cobra"
)

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score every row of a CSV file",
		Long: `Score a transaction CSV with the saved artifacts. The output keeps every
input column and appends risk_probability, predicted_label and risk_band.`,
		RunE: runPredict,
	}

	cmd.Flags().String("input", "", "transactions CSV (default: data/processed/cleaned_transactions.csv)")
	cmd.Flags().String("output", "", "scored CSV (default: data/predictions/predictions.csv)")
	cmd.Flags().Bool("histogram", true, "print the distribution of risk probabilities")

	return cmd
}

func runPredict(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	inputPath := s.Paths.CleanedData
	overridePath(cmd, "input", &inputPath)
	overridePath(cmd, "output", &s.Paths.Predictions)

	input, err := dataset.ReadFile(inputPath)
	if err != nil {
		return common.NewUserError("could not read input", err)
	}

	sc, err := initEngine(s)
	if err != nil {
		return err
	}
	defer sc.Close()

	interrupts := cli.NewInterruptHandler(cmd.OutOrStdout(), "Scoring", "")
	ctx := interrupts.HandleInterrupts(cmd.Context())

	scored, err := sc.engine.ScoreTable(ctx, input)
	if err != nil {
		return fmt.Errorf("batch prediction failed: %w", err)
	}
	if err := scored.WriteFile(s.Paths.Predictions); err != nil {
		return fmt.Errorf("failed to write predictions: %w", err)
	}
	slog.Info("Scored batch", "rows", scored.Len(), "output", s.Paths.Predictions)

	out := cmd.OutOrStdout()
	if show, _ := cmd.Flags().GetBool("histogram"); show {
		probs, err := engine.Probabilities(scored)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, cli.RenderDistribution(probs, 10))
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Predictions for %d rows saved to %s", scored.Len(), s.Paths.Predictions)))
	return nil
}

func exportHighRiskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-high-risk",
		Short: "Export scored rows above a probability threshold",
		RunE:  runExportHighRisk,
	}

	cmd.Flags().Float64("threshold", 0.5, "keep rows with risk_probability strictly above this value")
	cmd.Flags().String("input", "", "scored CSV (default: data/predictions/predictions.csv)")
	cmd.Flags().String("output", "data/predictions/high_risk_customers.csv", "output CSV")

	return cmd
}

func runExportHighRisk(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	overridePath(cmd, "input", &s.Paths.Predictions)
	output, _ := cmd.Flags().GetString("output")
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	scored, err := dataset.ReadFile(s.Paths.Predictions)
	if err != nil {
		return common.NewUserError("could not read predictions; run `risk predict` first", err)
	}
	high, err := engine.HighRisk(scored, threshold)
	if err != nil {
		return common.NewUserError("could not filter predictions", err)
	}
	if err := high.WriteFile(output); err != nil {
		return fmt.Errorf("failed to write high-risk customers: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d high-risk rows to %s", high.Len(), output)))
	return nil
}
