// Package config resolves the potato CLI settings from ~/.potato/config.toml and
// POTATO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/potato-cli/internal/logging"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".potato"
	envPrefix  = "POTATO"

	KeyStoreDir         = "store.dir"
	KeyOperatorsPath    = "operators.path"
	KeySessionPath      = "session.path"
	KeySecretsDir       = "secrets.dir"
	KeyBatchConcurrency = "batch.concurrency"
	KeySuccessRate      = "remote.success_rate"
	KeyLatency          = "remote.latency"
	KeySeed             = "remote.seed"
	KeyIDStrategy       = "ids.strategy"
	KeyLogLevel         = "log.level"

	IDStrategyULID = "ulid"
	IDStrategyUUID = "uuid"

	defaultSuccessRate = 0.8
	maxConcurrency     = 64
)

type Config struct {
	Dir           string
	StoreDir      string
	OperatorsPath string
	SessionPath   string
	SecretsDir    string
	Batch         BatchConfig
	Remote        RemoteConfig
	IDStrategy    string
	LogLevel      string
}

type BatchConfig struct {
	Concurrency int
}

// RemoteConfig tunes the simulated remote services. Seed 0 means time based.
type RemoteConfig struct {
	SuccessRate float64
	Latency     time.Duration
	Seed        uint64
}

// Load reads the config file (optional) and environment overrides into cfg.
func Load(cfg *viper.Viper) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	baseDir := filepath.Join(homeDir, configDir)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(baseDir)
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault(KeyStoreDir, filepath.Join(baseDir, "data"))
	cfg.SetDefault(KeyOperatorsPath, filepath.Join(baseDir, "operators.toml"))
	cfg.SetDefault(KeySessionPath, filepath.Join(baseDir, "session.toml"))
	cfg.SetDefault(KeySecretsDir, filepath.Join(baseDir, "secrets"))
	cfg.SetDefault(KeyBatchConcurrency, 1)
	cfg.SetDefault(KeySuccessRate, defaultSuccessRate)
	cfg.SetDefault(KeyLatency, time.Duration(0))
	cfg.SetDefault(KeySeed, 0)
	cfg.SetDefault(KeyIDStrategy, IDStrategyULID)
	cfg.SetDefault(KeyLogLevel, logging.DefaultLevel)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	out := Config{
		Dir:        baseDir,
		Batch:      BatchConfig{Concurrency: cfg.GetInt(KeyBatchConcurrency)},
		IDStrategy: strings.ToLower(strings.TrimSpace(cfg.GetString(KeyIDStrategy))),
		LogLevel:   cfg.GetString(KeyLogLevel),
		Remote: RemoteConfig{
			SuccessRate: cfg.GetFloat64(KeySuccessRate),
			Latency:     cfg.GetDuration(KeyLatency),
			Seed:        cfg.GetUint64(KeySeed),
		},
	}

	paths := []struct {
		key  string
		dest *string
	}{
		{key: KeyStoreDir, dest: &out.StoreDir},
		{key: KeyOperatorsPath, dest: &out.OperatorsPath},
		{key: KeySessionPath, dest: &out.SessionPath},
		{key: KeySecretsDir, dest: &out.SecretsDir},
	}
	for _, p := range paths {
		resolved, err := normalizePath(cfg.GetString(p.key))
		if err != nil {
			return Config{}, fmt.Errorf("resolve %s: %w", p.key, err)
		}
		*p.dest = resolved
	}

	if err := out.Validate(); err != nil {
		return Config{}, err
	}

	return out, nil
}

func (c Config) Validate() error {
	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > maxConcurrency {
		return fmt.Errorf("%s must be between 1 and %d, got %d", KeyBatchConcurrency, maxConcurrency, c.Batch.Concurrency)
	}
	if c.Remote.SuccessRate < 0 || c.Remote.SuccessRate > 1 {
		return fmt.Errorf("%s must be within [0,1], got %g", KeySuccessRate, c.Remote.SuccessRate)
	}
	if c.Remote.Latency < 0 {
		return fmt.Errorf("%s must be >= 0, got %s", KeyLatency, c.Remote.Latency)
	}
	switch c.IDStrategy {
	case IDStrategyULID, IDStrategyUUID:
	default:
		return fmt.Errorf("unsupported %s %q (ulid|uuid)", KeyIDStrategy, c.IDStrategy)
	}

	return nil
}

func normalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("path is empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return filepath.Clean(absPath), nil
}
