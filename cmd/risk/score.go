package main

import (
	"fmt"

	"github.com/Veraticus/credit-risk-model/internal/cli"
	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/spf13/cobra"
)

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a single transaction and explain the result",
		Long: `Score one transaction given by flags. Without flags the reference
transaction is scored, which makes a quick end-to-end check of the saved
artifacts.`,
		RunE: runScore,
	}

	cmd.Flags().String("customer", "CustomerId_1999", "customer ID")
	cmd.Flags().Float64("amount", 95000, "transaction amount (negative for credits)")
	cmd.Flags().Float64("value", 10, "absolute transaction value")
	cmd.Flags().String("category", "loan", "product category")
	cmd.Flags().String("channel", "ChannelId_2", "channel ID")
	cmd.Flags().String("provider", "ProviderId_3", "provider ID")
	cmd.Flags().String("time", "2018-11-15 03:12:00+00:00", "transaction start time")

	return cmd
}

func runScore(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	var record model.Transaction
	record.CustomerID, _ = flags.GetString("customer")
	record.Amount, _ = flags.GetFloat64("amount")
	record.Value, _ = flags.GetFloat64("value")
	record.ProductCategory, _ = flags.GetString("category")
	record.ChannelID, _ = flags.GetString("channel")
	record.ProviderID, _ = flags.GetString("provider")
	record.StartTime, _ = flags.GetString("time")

	sc, err := initEngine(s)
	if err != nil {
		return err
	}
	defer sc.Close()

	pred, err := sc.engine.ScoreOne(cmd.Context(), record)
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderPrediction(pred))
	return nil
}
