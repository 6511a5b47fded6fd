// Package config provides configuration for the assistant backend.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full backend configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Bridge BridgeConfig `mapstructure:"bridge"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// StoreConfig selects the session store backend.
// Driver is "memory" (default) or "sqlite".
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// BridgeConfig holds child-process settings for the computation units.
type BridgeConfig struct {
	// Python is the interpreter used to run the units.
	Python string `mapstructure:"python"`
	// ScriptsDir is the directory containing the unit scripts.
	ScriptsDir string `mapstructure:"scripts_dir"`
	// Timeout bounds a single unit invocation; the child is killed on expiry.
	Timeout time.Duration `mapstructure:"timeout"`
	// DocumentPath is the source document for one-shot preprocessing.
	DocumentPath string `mapstructure:"document_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration with the precedence: defaults < config file < env.
// Environment variables use the STG_ prefix, e.g. STG_SERVER_PORT=9090.
// A missing config file is not an error; defaults and env still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "file:assistant.db?cache=shared&mode=rwc")
	v.SetDefault("bridge.python", "python3")
	v.SetDefault("bridge.scripts_dir", "./scripts")
	v.SetDefault("bridge.timeout", "120s")
	v.SetDefault("bridge.document_path", "./attached_assets/pharmacy_guide.docx")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix("STG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	switch cfg.Store.Driver {
	case "memory", "sqlite":
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	return &cfg, nil
}
