package config

import (
	"fmt"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config is read from CANVAS_* environment variables.
type Config struct {
	DataDir    string `envconfig:"DATA_DIR" default:"./data"`
	DBPath     string `envconfig:"DB_PATH"`
	MaxHistory int    `envconfig:"MAX_HISTORY" default:"100"`
	Autosave   string `envconfig:"AUTOSAVE" default:"@every 30s"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty  bool   `envconfig:"LOG_PRETTY" default:"false"`
	ImportFile string `envconfig:"IMPORT_FILE"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("canvas", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "canvas.db")
	}
	if cfg.MaxHistory <= 0 {
		return nil, fmt.Errorf("load config: CANVAS_MAX_HISTORY must be positive, got %d", cfg.MaxHistory)
	}
	return &cfg, nil
}
