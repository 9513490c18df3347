package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/credit-risk-model/internal/config"
	"github.com/Veraticus/credit-risk-model/internal/engine"
	"github.com/Veraticus/credit-risk-model/internal/predlog"
	"github.com/Veraticus/credit-risk-model/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func loadSettings() (config.Settings, error) {
	s, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, nil
}

// initStorage opens and migrates the run registry.
func initStorage(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// scoring bundles an engine with the resources it holds open.
type scoring struct {
	engine *engine.Engine
	log    *predlog.Log
}

func (s *scoring) Close() {
	if s.log == nil {
		return
	}
	if err := s.log.Close(); err != nil {
		slog.Warn("Failed to close prediction log", "path", s.log.Path(), "error", err)
	}
}

// initEngine loads both artifacts and builds an engine that appends to the
// prediction log and, when enabled, explains each prediction.
func initEngine(s config.Settings, opts ...engine.Option) (*scoring, error) {
	artifacts, err := engine.LoadArtifacts(s.Paths.PipelineArtifact, s.Paths.ModelArtifact)
	if err != nil {
		return nil, err
	}

	log, err := predlog.Open(s.Paths.PredictionLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open prediction log: %w", err)
	}

	opts = append([]engine.Option{
		engine.WithLog(log),
		engine.WithTopFeatures(s.Inference.TopFeatures),
	}, opts...)
	if s.Inference.Explain {
		opts = append(opts, engine.WithExplainer(artifacts.Explainer(s.Inference.AttributionSamples)))
	}

	e, err := engine.New(artifacts.Pipeline, artifacts.Model, opts...)
	if err != nil {
		_ = log.Close()
		return nil, err
	}
	return &scoring{engine: e, log: log}, nil
}

// overridePath replaces *dst with the named flag when it was given.
func overridePath(cmd *cobra.Command, flag string, dst *string) {
	if v, err := cmd.Flags().GetString(flag); err == nil && v != "" {
		*dst = config.ExpandPath(v)
	}
}
