package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/vestige/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	clearVestigeEnv(t)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "./data/vestige.db", cfg.Storage.DataPath)
	assert.Equal(t, 0.5, cfg.Fusion.Keyword)
	assert.Equal(t, 0.5, cfg.Fusion.Vector)
	assert.Equal(t, 60.0, cfg.Fusion.K)
	assert.Equal(t, 3, cfg.Fusion.CandidateMultiplier)
	assert.Equal(t, 0.9, cfg.Scheduler.DesiredRetention)
	assert.Equal(t, 5*time.Second, cfg.Embedder.Timeout)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearVestigeEnv(t)
	t.Setenv("VESTIGE_DATA_PATH", "/tmp/custom.db")
	t.Setenv("VESTIGE_FUSION_KEYWORD_WEIGHT", "0.7")
	t.Setenv("VESTIGE_FUSION_VECTOR_WEIGHT", "0.3")
	t.Setenv("VESTIGE_DESIRED_RETENTION", "0.85")
	t.Setenv("VESTIGE_IMPORTANCE_RECENCY_HALF_LIFE_DAYS", "21")
	t.Setenv("VESTIGE_EMBEDDER_TIMEOUT", "2s")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.Storage.DataPath)
	assert.Equal(t, 0.7, cfg.Fusion.Keyword)
	assert.Equal(t, 0.3, cfg.Fusion.Vector)
	assert.Equal(t, 0.85, cfg.Scheduler.DesiredRetention)
	assert.Equal(t, 21.0, cfg.Importance.RecencyHalfLifeDays)
	assert.Equal(t, "2s", cfg.Embedder.Timeout.String())
}

func TestLoadConfig_InvalidEnvValueFallsBackToDefault(t *testing.T) {
	clearVestigeEnv(t)
	t.Setenv("VESTIGE_FUSION_RRF_K", "not-an-int")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 60.0, cfg.Fusion.K)
}

func TestLoadConfig_WeightsFileOverridesSchedulerAndRerank(t *testing.T) {
	clearVestigeEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "weights.yaml")
	doc := `
desired_retention: 0.95
fsrs_weights: [0.41, 1.18, 4.93, 15.47, 5, 1, -1.5, 3, 0.05, 0.25, 0.5, 1.08, 1.98, 0.1, 0.3, 0.7, 1.3, 0, 0, 0, 0.15]
rerank:
  recency_half_life_days: 45
  mmr_lambda: 0.6
  keyword_boost: ["urgent", "security"]
  keyword_boost_factor: 1.5
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	t.Setenv("VESTIGE_WEIGHTS_FILE", path)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 0.95, cfg.Scheduler.DesiredRetention)
	assert.InDelta(t, 0.41, cfg.Scheduler.Weights[0], 1e-9)
	assert.Equal(t, 45.0, cfg.Rerank.RecencyHalfLifeDays)
	assert.Equal(t, 0.6, cfg.Rerank.MMRLambda)
	assert.Equal(t, []string{"urgent", "security"}, cfg.Rerank.KeywordBoost)
	assert.Equal(t, 1.5, cfg.Rerank.KeywordBoostFactor)
}

func TestLoadConfig_MissingWeightsFileIsAnError(t *testing.T) {
	clearVestigeEnv(t)
	t.Setenv("VESTIGE_WEIGHTS_FILE", "/does/not/exist.yaml")

	_, err := config.LoadConfig()
	assert.Error(t, err)
}

func clearVestigeEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"VESTIGE_DATA_PATH", "VESTIGE_FUSION_KEYWORD_WEIGHT", "VESTIGE_FUSION_VECTOR_WEIGHT",
		"VESTIGE_FUSION_RRF_K", "VESTIGE_FUSION_CANDIDATE_MULTIPLIER", "VESTIGE_DESIRED_RETENTION",
		"VESTIGE_SCHEDULER_ENABLE_FUZZ", "VESTIGE_SCHEDULER_ENABLE_SENTIMENT_BOOST",
		"VESTIGE_SCHEDULER_SENTIMENT_BOOST_K", "VESTIGE_SCHEDULER_SENTIMENT_THRESHOLD",
		"VESTIGE_IMPORTANCE_RECENCY_HALF_LIFE_DAYS", "VESTIGE_IMPORTANCE_USAGE_GRACE_DAYS",
		"VESTIGE_IMPORTANCE_USAGE_DECAY_RATE", "VESTIGE_IMPORTANCE_RING_CAPACITY",
		"VESTIGE_RERANK_RECENCY_HALF_LIFE_DAYS", "VESTIGE_RERANK_RETENTION_MAX_BOOST",
		"VESTIGE_RERANK_ENABLE_MMR", "VESTIGE_RERANK_MMR_LAMBDA",
		"VESTIGE_RERANK_ENABLE_SOURCE_INTERLEAVING", "VESTIGE_EMBEDDER_TIMEOUT", "VESTIGE_WEIGHTS_FILE",
	}
	for _, v := range vars {
		t.Setenv(v, "")
		require.NoError(t, os.Unsetenv(v))
	}
}
