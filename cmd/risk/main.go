package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Veraticus/credit-risk-model/internal/cli"
	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "risk",
		Short: "📊 Credit risk scoring from transaction histories",
		Long: `risk: labels customers by recency, frequency and monetary behavior,
trains a boosted-tree classifier on those labels, and scores new
transactions from the command line, an HTTP API or an interactive form.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/risk/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("pipeline", "", "fitted pipeline artifact (default: models/fitted_pipeline.json)")
	rootCmd.PersistentFlags().String("model", "", "model artifact (default: models/model.json)")
	rootCmd.PersistentFlags().String("db", "", "run registry database (default: ~/.config/risk/risk.db)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("paths.pipeline_artifact", rootCmd.PersistentFlags().Lookup("pipeline"))
	_ = viper.BindPFlag("paths.model_artifact", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("paths.database", rootCmd.PersistentFlags().Lookup("db"))

	// Add commands
	rootCmd.AddCommand(cleanCmd())
	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(exportHighRiskCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(formCmd())
	rootCmd.AddCommand(runsCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Set up signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop() // Always cleanup

	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, cli.FormatError(userErr.UserMessage))
		} else {
			fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	config.SetDefaults(viper.GetViper())

	// Set up config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Search for config in standard locations
		viper.AddConfigPath(fmt.Sprintf("%s/.config/risk", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("RISK")
	viper.SetEnvKeyReplacer(config.EnvKeyReplacer())
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Set up logging
	if err := setupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func setupLogging() error {
	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}
	logger, err := common.NewLogger(os.Stderr, level, viper.GetString("logging.format"))
	if err != nil {
		return err
	}

	// Set default logger
	slog.SetDefault(logger)

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			slog.Info("risk version", "version", version)
		},
	}
}
