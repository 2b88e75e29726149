// Package config provides configuration management for Vestige.
// It loads settings from environment variables with the VESTIGE_ prefix
// and provides sensible defaults for every tunable the engine reads:
// storage path, search fusion weights, the FSRS scheduler, the importance
// tracker's half-lives, the reranker, and the embedder timeout.
//
// The FSRS weight vector and reranker toggles are naturally file-shaped
// rather than env-var-shaped (21 floats don't fit comfortably in a single
// environment variable), so VESTIGE_WEIGHTS_FILE names an optional YAML
// file that overrides them on top of the env-driven base config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/vestige/internal/engine"
	"github.com/scrypster/vestige/internal/importance"
	"github.com/scrypster/vestige/internal/scheduler"
	"github.com/scrypster/vestige/internal/storage"
)

// Config holds all configuration settings for the Vestige engine.
type Config struct {
	Storage    StorageConfig
	Fusion     storage.FusionWeights
	Scheduler  scheduler.Config
	Importance importance.Config
	Rerank     engine.RerankConfig
	Embedder   EmbedderConfig
}

// StorageConfig contains the sqlite data file location.
type StorageConfig struct {
	DataPath string // Path to the sqlite database file (default: ./data/vestige.db)
}

// EmbedderConfig contains the tunables for the pluggable embedder.
type EmbedderConfig struct {
	Timeout time.Duration // Per-call embed timeout (default: 5s)
}

// LoadConfig loads configuration from environment variables with sensible
// defaults, then applies a VESTIGE_WEIGHTS_FILE override if one is named.
// All environment variables use the VESTIGE_ prefix.
func LoadConfig() (*Config, error) {
	cfg := buildBaseConfig()

	if path := os.Getenv("VESTIGE_WEIGHTS_FILE"); path != "" {
		if err := applyWeightsFile(cfg, path); err != nil {
			return nil, fmt.Errorf("config: failed to apply weights file %q: %w", path, err)
		}
	}

	return cfg, nil
}

// weightsFile is the shape of the optional VESTIGE_WEIGHTS_FILE YAML
// document. Every field is a pointer so an absent key leaves the
// env-derived default untouched.
type weightsFile struct {
	FSRSWeights      *scheduler.Weights `yaml:"fsrs_weights"`
	DesiredRetention *float64           `yaml:"desired_retention"`
	Rerank           *rerankOverride    `yaml:"rerank"`
}

type rerankOverride struct {
	RecencyHalfLifeDays *float64  `yaml:"recency_half_life_days"`
	RetentionMaxBoost   *float64  `yaml:"retention_max_boost"`
	MMRLambda           *float64  `yaml:"mmr_lambda"`
	KeywordBoost        *[]string `yaml:"keyword_boost"`
	KeywordBoostFactor  *float64  `yaml:"keyword_boost_factor"`
}

func applyWeightsFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var wf weightsFile
	if err := yaml.Unmarshal(raw, &wf); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	if wf.FSRSWeights != nil {
		cfg.Scheduler.Weights = *wf.FSRSWeights
	}
	if wf.DesiredRetention != nil {
		cfg.Scheduler.DesiredRetention = *wf.DesiredRetention
	}
	if wf.Rerank != nil {
		if wf.Rerank.RecencyHalfLifeDays != nil {
			cfg.Rerank.RecencyHalfLifeDays = *wf.Rerank.RecencyHalfLifeDays
		}
		if wf.Rerank.RetentionMaxBoost != nil {
			cfg.Rerank.RetentionMaxBoost = *wf.Rerank.RetentionMaxBoost
		}
		if wf.Rerank.MMRLambda != nil {
			cfg.Rerank.MMRLambda = *wf.Rerank.MMRLambda
		}
		if wf.Rerank.KeywordBoost != nil {
			cfg.Rerank.KeywordBoost = *wf.Rerank.KeywordBoost
		}
		if wf.Rerank.KeywordBoostFactor != nil {
			cfg.Rerank.KeywordBoostFactor = *wf.Rerank.KeywordBoostFactor
		}
	}

	return nil
}

// buildBaseConfig constructs a Config with values from environment
// variables layered on top of each subsystem's documented defaults.
func buildBaseConfig() *Config {
	sched := scheduler.DefaultConfig()
	sched.DesiredRetention = getEnvFloat("VESTIGE_DESIRED_RETENTION", sched.DesiredRetention)
	sched.EnableFuzz = getEnvBool("VESTIGE_SCHEDULER_ENABLE_FUZZ", sched.EnableFuzz)
	sched.EnableSentimentBoost = getEnvBool("VESTIGE_SCHEDULER_ENABLE_SENTIMENT_BOOST", sched.EnableSentimentBoost)
	sched.SentimentBoostK = getEnvFloat("VESTIGE_SCHEDULER_SENTIMENT_BOOST_K", sched.SentimentBoostK)
	sched.SentimentThreshold = getEnvFloat("VESTIGE_SCHEDULER_SENTIMENT_THRESHOLD", sched.SentimentThreshold)

	imp := importance.DefaultConfig()
	imp.RecencyHalfLifeDays = getEnvFloat("VESTIGE_IMPORTANCE_RECENCY_HALF_LIFE_DAYS", imp.RecencyHalfLifeDays)
	imp.UsageGraceDays = getEnvFloat("VESTIGE_IMPORTANCE_USAGE_GRACE_DAYS", imp.UsageGraceDays)
	imp.UsageDecayRate = getEnvFloat("VESTIGE_IMPORTANCE_USAGE_DECAY_RATE", imp.UsageDecayRate)
	imp.RingCapacity = getEnvInt("VESTIGE_IMPORTANCE_RING_CAPACITY", imp.RingCapacity)

	rerank := engine.DefaultRerankConfig()
	rerank.RecencyHalfLifeDays = getEnvFloat("VESTIGE_RERANK_RECENCY_HALF_LIFE_DAYS", rerank.RecencyHalfLifeDays)
	rerank.RetentionMaxBoost = getEnvFloat("VESTIGE_RERANK_RETENTION_MAX_BOOST", rerank.RetentionMaxBoost)
	rerank.EnableMMRDiversity = getEnvBool("VESTIGE_RERANK_ENABLE_MMR", rerank.EnableMMRDiversity)
	rerank.MMRLambda = getEnvFloat("VESTIGE_RERANK_MMR_LAMBDA", rerank.MMRLambda)
	rerank.EnableSourceInterleaving = getEnvBool("VESTIGE_RERANK_ENABLE_SOURCE_INTERLEAVING", rerank.EnableSourceInterleaving)

	return &Config{
		Storage: StorageConfig{
			DataPath: getEnv("VESTIGE_DATA_PATH", "./data/vestige.db"),
		},
		Fusion: storage.FusionWeights{
			Keyword:             getEnvFloat("VESTIGE_FUSION_KEYWORD_WEIGHT", 0.5),
			Vector:              getEnvFloat("VESTIGE_FUSION_VECTOR_WEIGHT", 0.5),
			K:                   float64(getEnvInt("VESTIGE_FUSION_RRF_K", 60)),
			CandidateMultiplier: getEnvInt("VESTIGE_FUSION_CANDIDATE_MULTIPLIER", 3),
		},
		Scheduler:  sched,
		Importance: imp,
		Rerank:     rerank,
		Embedder: EmbedderConfig{
			Timeout: getEnvDuration("VESTIGE_EMBEDDER_TIMEOUT", 5*time.Second),
		},
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (Go duration
// syntax, e.g. "5s") or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false, each
// in lower, Title or UPPER case.
// If the environment variable exists but cannot be parsed as a boolean,
// it returns the default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
