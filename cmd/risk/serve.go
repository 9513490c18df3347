package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/Veraticus/credit-risk-model/internal/config"
	"github.com/Veraticus/credit-risk-model/internal/engine"
	"github.com/Veraticus/credit-risk-model/internal/metrics"
	"github.com/Veraticus/credit-risk-model/internal/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve predictions over HTTP",
		Long: `Serve the saved artifacts over an authenticated HTTP API.

Every /api route requires the X-API-Key header. The key is read from
RISK_SERVER_API_KEY, which may be set in the environment or in the .env
file; the server refuses to start without it.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default: :8000)")
	cmd.Flags().String("env-file", "", "dotenv file to load before reading settings (default: .env)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	envFile := config.ExpandPath(viper.GetString("server.env_file"))
	overridePath(cmd, "env-file", &envFile)
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		slog.Debug("No env file", "path", envFile)
	}

	s, err := loadSettings()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		s.Server.Addr = addr
	}

	sc, err := initEngine(s, engine.WithObserver(metrics.ObservePrediction))
	if err != nil {
		return err
	}
	defer sc.Close()
	metrics.ModelFeatures.Set(float64(len(sc.engine.Features())))

	srv, err := server.New(server.Config{
		Addr:   s.Server.Addr,
		APIKey: s.Server.APIKey,
	}, sc.engine)
	if err != nil {
		return err
	}
	return srv.Run(cmd.Context())
}
