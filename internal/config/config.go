// Package config loads runtime configuration from environment variables
// with sensible defaults, validated once at startup. It also reads a JSON
// overlay from a directory named by DIGITALTWIN_HOME before falling back
// to defaults, since an environment variable naming a home directory is
// part of the core's own configuration surface rather than something
// bootstrap wires around it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds every recognized configuration key.
type Config struct {
	ListenAuthority           string
	AskTimeoutMS              int
	ManagedSubscribeEnabled   bool
	ManagedSubscribeBrokerURI string
	NameServiceURI            string
	GraphEnabled              bool
	RegistryEnabled           bool
	LogLevel                  string
	MetricsAuthority          string
}

// AskTimeout returns AskTimeoutMS as a time.Duration.
func (c *Config) AskTimeout() time.Duration {
	return time.Duration(c.AskTimeoutMS) * time.Millisecond
}

func defaults() Config {
	return Config{
		ListenAuthority:           ":7700",
		AskTimeoutMS:              5000,
		ManagedSubscribeEnabled:   false,
		ManagedSubscribeBrokerURI: "tcp://localhost:1883",
		NameServiceURI:            "",
		GraphEnabled:              true,
		RegistryEnabled:           true,
		LogLevel:                  "info",
		MetricsAuthority:          ":9090",
	}
}

// fileOverlay is the shape of the optional DIGITALTWIN_HOME/config.json
// overlay; snake_case keys match the environment variable vocabulary.
type fileOverlay struct {
	ListenAuthority           *string `json:"listen_authority"`
	AskTimeoutMS              *int    `json:"ask_timeout_ms"`
	ManagedSubscribeEnabled   *bool   `json:"managed_subscribe_enabled"`
	ManagedSubscribeBrokerURI *string `json:"managed_subscribe_broker_uri"`
	NameServiceURI            *string `json:"name_service_uri"`
	GraphEnabled              *bool   `json:"graph_enabled"`
	RegistryEnabled           *bool   `json:"registry_enabled"`
	LogLevel                  *string `json:"log_level"`
	MetricsAuthority          *string `json:"metrics_authority"`
}

func (o fileOverlay) apply(c *Config) {
	if o.ListenAuthority != nil {
		c.ListenAuthority = *o.ListenAuthority
	}
	if o.AskTimeoutMS != nil {
		c.AskTimeoutMS = *o.AskTimeoutMS
	}
	if o.ManagedSubscribeEnabled != nil {
		c.ManagedSubscribeEnabled = *o.ManagedSubscribeEnabled
	}
	if o.ManagedSubscribeBrokerURI != nil {
		c.ManagedSubscribeBrokerURI = *o.ManagedSubscribeBrokerURI
	}
	if o.NameServiceURI != nil {
		c.NameServiceURI = *o.NameServiceURI
	}
	if o.GraphEnabled != nil {
		c.GraphEnabled = *o.GraphEnabled
	}
	if o.RegistryEnabled != nil {
		c.RegistryEnabled = *o.RegistryEnabled
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.MetricsAuthority != nil {
		c.MetricsAuthority = *o.MetricsAuthority
	}
}

const (
	envListenAuthority           = "LISTEN_AUTHORITY"
	envAskTimeoutMS              = "ASK_TIMEOUT_MS"
	envManagedSubscribeEnabled   = "MANAGED_SUBSCRIBE_ENABLED"
	envManagedSubscribeBrokerURI = "MANAGED_SUBSCRIBE_BROKER_URI"
	envNameServiceURI            = "NAME_SERVICE_URI"
	envGraphEnabled              = "GRAPH_ENABLED"
	envRegistryEnabled           = "REGISTRY_ENABLED"
	envLogLevel                  = "LOG_LEVEL"
	envMetricsAuthority          = "METRICS_AUTHORITY"
	envHomeDir                   = "DIGITALTWIN_HOME"
)

// Load builds a Config with precedence environment override → JSON
// overlay under DIGITALTWIN_HOME → built-in defaults.
func Load() (*Config, error) {
	cfg := defaults()

	if home := os.Getenv(envHomeDir); home != "" {
		if err := loadOverlay(filepath.Join(home, "config.json"), &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if cfg.AskTimeoutMS <= 0 {
		return nil, fmt.Errorf("invalid %s: must be positive", envAskTimeoutMS)
	}
	if cfg.ListenAuthority == "" {
		return nil, fmt.Errorf("missing %s", envListenAuthority)
	}
	return &cfg, nil
}

func loadOverlay(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config overlay %s: %w", path, err)
	}
	var overlay fileOverlay
	if err := json.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config overlay %s: %w", path, err)
	}
	overlay.apply(cfg)
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(envListenAuthority); v != "" {
		cfg.ListenAuthority = v
	}
	if v := os.Getenv(envAskTimeoutMS); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envAskTimeoutMS, err)
		}
		cfg.AskTimeoutMS = n
	}
	if v := os.Getenv(envManagedSubscribeEnabled); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envManagedSubscribeEnabled, err)
		}
		cfg.ManagedSubscribeEnabled = b
	}
	if v := os.Getenv(envManagedSubscribeBrokerURI); v != "" {
		cfg.ManagedSubscribeBrokerURI = v
	}
	if v := os.Getenv(envNameServiceURI); v != "" {
		cfg.NameServiceURI = v
	}
	if v := os.Getenv(envGraphEnabled); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envGraphEnabled, err)
		}
		cfg.GraphEnabled = b
	}
	if v := os.Getenv(envRegistryEnabled); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envRegistryEnabled, err)
		}
		cfg.RegistryEnabled = b
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(envMetricsAuthority); v != "" {
		cfg.MetricsAuthority = v
	}
	return nil
}
