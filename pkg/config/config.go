package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

// Defaults applied when neither the file nor the environment sets a value.
const (
	DefaultPort     = 8080
	DefaultBackend  = "sqlite"
	DefaultDataPath = "./db/keyval.db"
	DefaultLogLevel = "info"
)

type Config struct {
	Port     int    `yaml:"port"`
	Backend  string `yaml:"backend"`
	DataPath string `yaml:"data_path"`
	// GRPCAddr enables the gRPC listener when non-empty.
	GRPCAddr string `yaml:"grpc_addr"`
	Metrics  bool   `yaml:"metrics"`
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

// LoadConfig loads configuration from a YAML file if path is provided,
// then applies KEYVAL_* environment overrides and defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Config{Metrics: true}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Backend {
	case "sqlite", "bolt", "memory":
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Backend != "memory" && c.DataPath == "" {
		return fmt.Errorf("data_path is required for backend %q", c.Backend)
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}

// ParsePort parses the positional port argument.
func ParsePort(arg string) (int, error) {
	port, err := strconv.Atoi(arg)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", arg)
	}
	return port, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Backend == "" {
		cfg.Backend = DefaultBackend
	}
	if cfg.DataPath == "" {
		cfg.DataPath = DefaultDataPath
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}

// applyEnvOverrides allows environment variables to override YAML config values
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("KEYVAL_PORT"); v != "" {
		port, err := ParsePort(v)
		if err != nil {
			return fmt.Errorf("invalid KEYVAL_PORT value: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("KEYVAL_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("KEYVAL_DATA_PATH"); v != "" {
		cfg.DataPath = v
	}
	if v := os.Getenv("KEYVAL_GRPC_ADDR"); v != "" {
		cfg.GRPCAddr = v
	}
	if v := os.Getenv("KEYVAL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("KEYVAL_METRICS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid KEYVAL_METRICS value: %w", err)
		}
		cfg.Metrics = b
	}
	if v := os.Getenv("KEYVAL_LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid KEYVAL_LOG_JSON value: %w", err)
		}
		cfg.LogJSON = b
	}
	return nil
}
