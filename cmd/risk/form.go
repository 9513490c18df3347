package main

import (
	"log/slog"

	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/tui"
	"github.com/spf13/cobra"
)

func formCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "form",
		Short: "Score transactions in an interactive form",
		Long: `Open a terminal form for scoring one transaction at a time. Customer,
channel, provider and category suggestions come from the cleaned data
when it is available.`,
		RunE: runForm,
	}

	cmd.Flags().String("theme", "default", "color theme (default, catppuccin-mocha)")

	return cmd
}

func runForm(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	sc, err := initEngine(s)
	if err != nil {
		return err
	}
	defer sc.Close()

	opts := tui.DefaultOptions()
	if common.FileExists(s.Paths.CleanedData) {
		cleaned, err := dataset.ReadFile(s.Paths.CleanedData)
		if err != nil {
			slog.Warn("Could not load suggestions from cleaned data", "path", s.Paths.CleanedData, "error", err)
		} else {
			opts = tui.OptionsFromTable(cleaned)
		}
	}

	theme, _ := cmd.Flags().GetString("theme")
	return tui.Run(cmd.Context(), tui.Config{
		Scorer:  sc.engine,
		Theme:   theme,
		Options: opts,
	})
}
