// Package config loads the starpack client configuration.
//
// Configuration lives in a YAML file inside the per-user application
// directory and may be overridden from the environment. Load returns an
// immutable Config value; nothing in this package keeps global state.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/bdobrica/starpack/common/environment"
)

const (
	// AppName names the application directory.
	AppName = "starpack"
	// FileName is the configuration file inside the application directory.
	FileName = "config.yaml"

	DefaultEngineHost     = "http://localhost"
	DefaultEnginePort     = 1976
	DefaultEngineImage    = "starpack/starpack-engine:latest"
	DefaultHealthAttempts = 5
	DefaultHealthInterval = time.Second
	DefaultRequestTimeout = 5 * time.Minute
	DefaultLogLevel       = "warn"
)

// Environment variable names. STARPACK_HOME relocates the application
// directory; the others override individual file settings.
const (
	EnvHome           = "STARPACK_HOME"
	EnvEngineHost     = "STARPACK_ENGINE_HOST"
	EnvEnginePort     = "STARPACK_ENGINE_PORT"
	EnvEngineImage    = "STARPACK_ENGINE_IMAGE"
	EnvLogLevel       = "STARPACK_LOG_LEVEL"
	EnvHealthAttempts = "STARPACK_HEALTH_ATTEMPTS"
	EnvHealthInterval = "STARPACK_HEALTH_INTERVAL"
)

// Config is the resolved client configuration.
type Config struct {
	// EngineHost is the scheme and host used to reach the engine.
	EngineHost string `yaml:"engine_host" validate:"required,url"`
	// EnginePort is the host port the engine is published on. Zero lets the
	// runtime pick one; the realized port is read back after start.
	EnginePort int `yaml:"engine_port" validate:"gte=0,lte=65535"`
	// EngineImage is the engine container image reference.
	EngineImage string `yaml:"engine_image" validate:"required"`
	// HealthAttempts is the readiness probe budget.
	HealthAttempts int `yaml:"health_attempts" validate:"gte=1,lte=600"`
	// HealthInterval is the wait between readiness probes.
	HealthInterval time.Duration `yaml:"health_interval" validate:"gte=0"`
	// RequestTimeout bounds a single engine API call.
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// AppDir is the directory the configuration was loaded from.
	AppDir string `yaml:"-"`
}

// Default returns the built-in configuration rooted at appDir.
func Default(appDir string) Config {
	return Config{
		EngineHost:     DefaultEngineHost,
		EnginePort:     DefaultEnginePort,
		EngineImage:    DefaultEngineImage,
		HealthAttempts: DefaultHealthAttempts,
		HealthInterval: DefaultHealthInterval,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       DefaultLogLevel,
		AppDir:         appDir,
	}
}

// Path returns the configuration file path.
func (c Config) Path() string { return filepath.Join(c.AppDir, FileName) }

// PluginsDir is bind-mounted into the engine container.
func (c Config) PluginsDir() string { return filepath.Join(c.AppDir, "plugins") }

// HistoryPath is the local command history database.
func (c Config) HistoryPath() string { return filepath.Join(c.AppDir, "history.db") }

// IsLocal reports whether the engine host resolves to this machine.
func (c Config) IsLocal() bool {
	return IsLocalURL(c.EngineHost)
}

// IsLocalURL reports whether raw points at this machine.
func IsLocalURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Hostname()) {
	case "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return true
	default:
		return false
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// DefaultAppDir resolves the per-user application directory.
func DefaultAppDir() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Load reads the configuration in appDir, creating the directory, the
// plugins directory and a default file on first use, then applies
// environment overrides and validates the result.
func Load(appDir string) (Config, error) {
	cfg := Default(appDir)

	if err := os.MkdirAll(cfg.PluginsDir(), 0o755); err != nil {
		return Config{}, fmt.Errorf("config: create %s: %w", cfg.PluginsDir(), err)
	}

	data, err := os.ReadFile(cfg.Path())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := Save(cfg); err != nil {
			return Config{}, err
		}
	case err != nil:
		return Config{}, fmt.Errorf("config: read %s: %w", cfg.Path(), err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", cfg.Path(), err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to its file.
func Save(cfg Config) error {
	out, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfg.Path(), out, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", cfg.Path(), err)
	}
	return nil
}

// Marshal renders cfg as YAML, as shown by `config view`.
func Marshal(cfg Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	return out, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := environment.String(EnvEngineHost); ok {
		cfg.EngineHost = v
	}
	if v, ok := environment.String(EnvEngineImage); ok {
		cfg.EngineImage = v
	}
	if v, ok := environment.String(EnvLogLevel); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if n, ok, err := environment.Int(EnvEnginePort); err != nil {
		return fmt.Errorf("config: %w", err)
	} else if ok {
		cfg.EnginePort = n
	}
	if n, ok, err := environment.Int(EnvHealthAttempts); err != nil {
		return fmt.Errorf("config: %w", err)
	} else if ok {
		cfg.HealthAttempts = n
	}
	if d, ok, err := environment.Duration(EnvHealthInterval); err != nil {
		return fmt.Errorf("config: %w", err)
	} else if ok {
		cfg.HealthInterval = d
	}
	return nil
}
