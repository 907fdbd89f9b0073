package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

type Config struct {
	DataDir      string `env:"MOVECACHE_DATA_DIR" envDefault:"./data"`
	ArtifactPath string `env:"MOVECACHE_ARTIFACT_PATH"`
	ExportDBPath string `env:"MOVECACHE_EXPORT_DB_PATH"`
	Depth        int    `env:"MOVECACHE_DEPTH" envDefault:"4"`
	Workers      int    `env:"MOVECACHE_WORKERS" envDefault:"0"`
	StartFEN     string `env:"MOVECACHE_START_FEN"`
	LogLevel     string `env:"MOVECACHE_LOG_LEVEL" envDefault:"info"`
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ArtifactPath == "" {
		c.ArtifactPath = filepath.Join(c.DataDir, "starting_moves.pak")
	}
	if c.ExportDBPath == "" {
		c.ExportDBPath = filepath.Join(c.DataDir, "movecache.sqlite")
	}
	if c.StartFEN == "" {
		c.StartFEN = StartFEN
	}
}

func (c Config) Validate() error {
	if c.Depth < 0 {
		return fmt.Errorf("invalid depth %d", c.Depth)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers %d", c.Workers)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}
