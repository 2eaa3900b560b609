package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"gprspc/domain/spc"
	"gprspc/internal/controlchart"
	"gprspc/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Data     DataConfig     `yaml:"data"`
	SPC      SPCConfig      `yaml:"spc"`
	Paths    PathConfig     `yaml:"paths"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

// DatabaseConfig holds database connection settings. An empty URL disables
// database persistence of elimination logs.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// DataConfig names the default QA export
type DataConfig struct {
	File  string `yaml:"file"`
	Sheet string `yaml:"sheet"`
}

// SPCConfig holds calculation defaults
type SPCConfig struct {
	Confidence string `yaml:"confidence"`
	Method     string `yaml:"method"`
}

// PathConfig holds file system paths
type PathConfig struct {
	LogDir    string `yaml:"log_dir"`
	LogFormat string `yaml:"log_format"` // xlsx or csv
}

// Load reads configuration from environment variables, overlays the YAML
// file named by SPC_CONFIG_FILE when set, and validates the result
func Load() (*Config, error) {
	config := fromEnv()

	if path := os.Getenv("SPC_CONFIG_FILE"); path != "" {
		if err := overlayFile(config, path); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, err)
		}
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func fromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			URL:          getEnvOrDefault("DATABASE_URL", ""),
			MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 5),
		},
		Data: DataConfig{
			File:  getEnvOrDefault("DATA_FILE", ""),
			Sheet: getEnvOrDefault("DATA_SHEET", "data"),
		},
		SPC: SPCConfig{
			Confidence: getEnvOrDefault("SPC_CONFIDENCE", string(spc.DefaultConfidence)),
			Method:     getEnvOrDefault("SPC_METHOD", string(spc.MethodShewhart)),
		},
		Paths: PathConfig{
			LogDir:    getEnvOrDefault("LOG_DIR", "./elimination_logs"),
			LogFormat: getEnvOrDefault("LOG_FORMAT", "xlsx"),
		},
	}
}

// overlayFile replaces every field the YAML document sets
func overlayFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("server port %q is not a number", config.Server.Port))
	}
	if _, err := spc.ParseMethod(config.SPC.Method); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if _, err := controlchart.ParseConfidenceLevel(config.SPC.Confidence); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	switch config.Paths.LogFormat {
	case "xlsx", "csv":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("log format %q must be xlsx or csv", config.Paths.LogFormat))
	}
	return nil
}

// DefaultMethod returns the validated default method
func (c *Config) DefaultMethod() spc.Method {
	m, _ := spc.ParseMethod(c.SPC.Method)
	return m
}

// DefaultConfidence returns the validated default confidence level
func (c *Config) DefaultConfidence() spc.ConfidenceLevel {
	level, _ := controlchart.ParseConfidenceLevel(c.SPC.Confidence)
	return level
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
