package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	s, err := Load(v)
	require.NoError(t, err)

	d := Default()
	assert.Equal(t, d.Labeling, s.Labeling)
	assert.Equal(t, d.Training, s.Training)
	assert.Equal(t, 3, s.Inference.TopFeatures)
	assert.Equal(t, "models/fitted_pipeline.json", s.Paths.PipelineArtifact)
	assert.Equal(t, 0.2, s.Training.ValidationFraction)
}

func TestLoad_FromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
labeling:
  clusters: 4
training:
  rounds: 50
paths:
  model_artifact: $RISK_TEST_DIR/model.json
`), 0600))

	t.Setenv("RISK_TEST_DIR", dir)
	t.Setenv("RISK_SERVER_API_KEY", "from-env")

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(cfgPath)
	v.SetEnvPrefix("RISK")
	v.SetEnvKeyReplacer(EnvKeyReplacer())
	v.AutomaticEnv()
	require.NoError(t, v.ReadInConfig())

	s, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Labeling.Clusters)
	assert.Equal(t, 50, s.Training.Rounds)
	assert.Equal(t, filepath.Join(dir, "model.json"), s.Paths.ModelArtifact)
	assert.Equal(t, "from-env", s.Server.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("labeling.clusters", 0)

	_, err := Load(v)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("RISK_DIR", "/tmp/risk")
	assert.Equal(t, filepath.Join(home, "models"), ExpandPath("~/models"))
	assert.Equal(t, "/tmp/risk/model.json", ExpandPath("$RISK_DIR/model.json"))
	assert.Equal(t, "", ExpandPath(""))
}
