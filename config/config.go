package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Cloud  CloudConfig  `yaml:"cloud"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
}

type CloudConfig struct {
	// Host overrides for testing against a local relay; empty uses the
	// built-in endpoints.
	KasaHost string `yaml:"kasa_host"`
	TapoHost string `yaml:"tapo_host"`
	// TimeoutSeconds bounds every outbound call.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type OutputConfig struct {
	Format string `yaml:"format"` // json or table
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the optional config file, expanding ${VAR} references from
// the environment first. A missing file yields defaults. A .env in the
// working directory is folded into the environment so credentials can
// live there during development.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Cloud.TimeoutSeconds == 0 {
		c.Cloud.TimeoutSeconds = 15
	}
	if c.Output.Format == "" {
		c.Output.Format = "json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
