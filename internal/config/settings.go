package config

import (
	"fmt"
	"strings"

	"github.com/Veraticus/credit-risk-model/internal/boost"
	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/rfm"
	"github.com/spf13/viper"
)

// Paths locates every file the pipeline reads or writes.
type Paths struct {
	RawData          string
	Definitions      string
	CleanedData      string
	Predictions      string
	PipelineArtifact string
	ModelArtifact    string
	PredictionLog    string
	Database         string
}

// Inference controls the optional parts of scoring.
type Inference struct {
	TopFeatures        int
	AttributionSamples int
	Explain            bool
}

// Server configures the HTTP API.
type Server struct {
	Addr    string
	APIKey  string
	EnvFile string
}

// Settings is the fully resolved application configuration.
type Settings struct {
	Server    Server
	Paths     Paths
	Labeling  rfm.Config
	Training  boost.Config
	Inference Inference
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		Paths: Paths{
			RawData:          "data/raw/data.csv",
			Definitions:      "data/raw/Xente_Variable_Definitions.csv",
			CleanedData:      "data/processed/cleaned_transactions.csv",
			Predictions:      "data/predictions/predictions.csv",
			PipelineArtifact: "models/fitted_pipeline.json",
			ModelArtifact:    "models/model.json",
			PredictionLog:    "logs/predictions_log.csv",
			Database:         "~/.config/risk/risk.db",
		},
		Labeling: rfm.DefaultConfig(),
		Training: boost.DefaultConfig(),
		Inference: Inference{
			Explain:            true,
			TopFeatures:        3,
			AttributionSamples: 64,
		},
		Server: Server{
			Addr:    ":8000",
			EnvFile: ".env",
		},
	}
}

// SetDefaults registers Default() with v so that config files and RISK_ env
// variables override individual keys.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("paths.raw_data", d.Paths.RawData)
	v.SetDefault("paths.definitions", d.Paths.Definitions)
	v.SetDefault("paths.cleaned_data", d.Paths.CleanedData)
	v.SetDefault("paths.predictions", d.Paths.Predictions)
	v.SetDefault("paths.pipeline_artifact", d.Paths.PipelineArtifact)
	v.SetDefault("paths.model_artifact", d.Paths.ModelArtifact)
	v.SetDefault("paths.prediction_log", d.Paths.PredictionLog)
	v.SetDefault("paths.database", d.Paths.Database)

	v.SetDefault("labeling.clusters", d.Labeling.Clusters)
	v.SetDefault("labeling.seed", d.Labeling.Seed)
	v.SetDefault("labeling.n_init", d.Labeling.NInit)
	v.SetDefault("labeling.max_iter", d.Labeling.MaxIter)

	v.SetDefault("training.rounds", d.Training.Rounds)
	v.SetDefault("training.max_depth", d.Training.MaxDepth)
	v.SetDefault("training.learning_rate", d.Training.LearningRate)
	v.SetDefault("training.subsample", d.Training.Subsample)
	v.SetDefault("training.colsample", d.Training.ColSample)
	v.SetDefault("training.lambda", d.Training.Lambda)
	v.SetDefault("training.min_child_weight", d.Training.MinChildWeight)
	v.SetDefault("training.max_bins", d.Training.MaxBins)
	v.SetDefault("training.early_stopping_rounds", d.Training.EarlyStoppingRounds)
	v.SetDefault("training.validation_fraction", d.Training.ValidationFraction)
	v.SetDefault("training.seed", d.Training.Seed)

	v.SetDefault("inference.explain", d.Inference.Explain)
	v.SetDefault("inference.top_features", d.Inference.TopFeatures)
	v.SetDefault("inference.attribution_samples", d.Inference.AttributionSamples)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.api_key", d.Server.APIKey)
	v.SetDefault("server.env_file", d.Server.EnvFile)
}

// EnvKeyReplacer maps nested keys onto RISK_ variable names, so
// server.api_key is read from RISK_SERVER_API_KEY.
func EnvKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// Load resolves Settings from v. Paths are expanded and the result is validated.
func Load(v *viper.Viper) (Settings, error) {
	s := Default()

	s.Paths = Paths{
		RawData:          ExpandPath(v.GetString("paths.raw_data")),
		Definitions:      ExpandPath(v.GetString("paths.definitions")),
		CleanedData:      ExpandPath(v.GetString("paths.cleaned_data")),
		Predictions:      ExpandPath(v.GetString("paths.predictions")),
		PipelineArtifact: ExpandPath(v.GetString("paths.pipeline_artifact")),
		ModelArtifact:    ExpandPath(v.GetString("paths.model_artifact")),
		PredictionLog:    ExpandPath(v.GetString("paths.prediction_log")),
		Database:         ExpandPath(v.GetString("paths.database")),
	}

	s.Labeling.Clusters = v.GetInt("labeling.clusters")
	s.Labeling.Seed = v.GetInt64("labeling.seed")
	s.Labeling.NInit = v.GetInt("labeling.n_init")
	s.Labeling.MaxIter = v.GetInt("labeling.max_iter")

	s.Training.Rounds = v.GetInt("training.rounds")
	s.Training.MaxDepth = v.GetInt("training.max_depth")
	s.Training.LearningRate = v.GetFloat64("training.learning_rate")
	s.Training.Subsample = v.GetFloat64("training.subsample")
	s.Training.ColSample = v.GetFloat64("training.colsample")
	s.Training.Lambda = v.GetFloat64("training.lambda")
	s.Training.MinChildWeight = v.GetFloat64("training.min_child_weight")
	s.Training.MaxBins = v.GetInt("training.max_bins")
	s.Training.EarlyStoppingRounds = v.GetInt("training.early_stopping_rounds")
	s.Training.ValidationFraction = v.GetFloat64("training.validation_fraction")
	s.Training.Seed = v.GetInt64("training.seed")

	s.Inference.Explain = v.GetBool("inference.explain")
	s.Inference.TopFeatures = v.GetInt("inference.top_features")
	s.Inference.AttributionSamples = v.GetInt("inference.attribution_samples")

	s.Server.Addr = v.GetString("server.addr")
	s.Server.APIKey = v.GetString("server.api_key")
	s.Server.EnvFile = ExpandPath(v.GetString("server.env_file"))

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks that the settings are usable.
func (s Settings) Validate() error {
	if err := s.Labeling.Validate(); err != nil {
		return fmt.Errorf("%w: labeling: %v", common.ErrInvalidConfig, err)
	}
	if err := s.Training.Validate(); err != nil {
		return fmt.Errorf("%w: training: %v", common.ErrInvalidConfig, err)
	}
	if s.Inference.TopFeatures < 0 {
		return fmt.Errorf("%w: inference.top_features must be >= 0", common.ErrInvalidConfig)
	}
	if s.Paths.PipelineArtifact == "" || s.Paths.ModelArtifact == "" {
		return fmt.Errorf("%w: artifact paths are required", common.ErrMissingConfig)
	}
	return nil
}
