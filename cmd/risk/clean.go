package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/credit-risk-model/internal/cli"
	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/spf13/cobra"
)

func cleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean a raw transaction file",
		Long: `Drop duplicate rows, fill missing values, cap Amount and Value outliers
and decompose transaction timestamps into hour, day and weekday.

When a variable definitions file is present, columns it lists but the raw
file lacks are reported as warnings.`,
		RunE: runClean,
	}

	cmd.Flags().String("input", "", "raw transactions CSV (default: data/raw/data.csv)")
	cmd.Flags().String("output", "", "cleaned CSV (default: data/processed/cleaned_transactions.csv)")
	cmd.Flags().String("definitions", "", "variable definitions CSV")

	return cmd
}

func runClean(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	overridePath(cmd, "input", &s.Paths.RawData)
	overridePath(cmd, "output", &s.Paths.CleanedData)
	overridePath(cmd, "definitions", &s.Paths.Definitions)

	raw, err := dataset.ReadFile(s.Paths.RawData)
	if err != nil {
		return common.NewUserError("could not read raw data", err)
	}
	slog.Info("Loaded raw transactions", "path", s.Paths.RawData, "rows", raw.Len())

	checkDefinitions(raw, s.Paths.Definitions)

	cleaned, report := dataset.Clean(raw)
	if err := cleaned.WriteFile(s.Paths.CleanedData); err != nil {
		return fmt.Errorf("failed to write cleaned data: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderCleanReport(report))
	fmt.Fprintln(out, cli.FormatSuccess("Cleaned data saved to "+s.Paths.CleanedData))
	return nil
}

// checkDefinitions warns about columns the definitions file expects but the
// table lacks. A missing definitions file is not an error.
func checkDefinitions(t *dataset.Table, path string) {
	if path == "" || !common.FileExists(path) {
		slog.Debug("No variable definitions file, skipping schema check", "path", path)
		return
	}
	defs, err := dataset.ReadFile(path)
	if err != nil {
		slog.Warn("Could not read variable definitions", "path", path, "error", err)
		return
	}
	missing, err := dataset.CheckDefinitions(t, defs)
	if err != nil {
		slog.Warn("Could not check variable definitions", "path", path, "error", err)
		return
	}
	if len(missing) > 0 {
		slog.Warn("Raw data is missing documented columns", "columns", strings.Join(missing, ", "))
	}
}
