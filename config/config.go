// Package config loads application configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level application configuration.
type Config struct {
	DataDir string        `mapstructure:"data_dir"`
	API     APIConfig     `mapstructure:"api"`
	Auth    AuthConfig    `mapstructure:"auth"`
	MDR     MDRConfig     `mapstructure:"mdr"`
	Storage StorageConfig `mapstructure:"storage"`
}

// APIConfig configures the HTTP API server.
type APIConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
}

// AuthConfig configures token validation for the API.
type AuthConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTExpiry time.Duration `mapstructure:"jwt_expiry"`
}

// MDRConfig configures escalation to the managed detection and response
// provider.
type MDRConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Endpoint     string        `mapstructure:"endpoint"`
	APIKey       string        `mapstructure:"api_key"`
	Organization string        `mapstructure:"organization"`
	Source       string        `mapstructure:"source"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects and configures the event and assignment stores.
type StorageConfig struct {
	Backend    string `mapstructure:"backend"` // memory or sqlite
	SQLitePath string `mapstructure:"sqlite_path"`
}

// LoadConfig reads configuration from the given file (optional) and the
// environment. Environment variables use the AEGIS_ prefix with underscores,
// e.g. AEGIS_API_PORT, AEGIS_MDR_API_KEY.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("AEGIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("aegis")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/aegis")
		if err := v.ReadInConfig(); err != nil {
			// Missing config file is fine, defaults and env apply.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "./data")

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.allowed_origins", []string{"*"})
	v.SetDefault("api.rate_limit_rps", 50.0)
	v.SetDefault("api.rate_limit_burst", 100)

	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expiry", "24h")

	v.SetDefault("mdr.enabled", false)
	v.SetDefault("mdr.endpoint", "")
	v.SetDefault("mdr.api_key", "")
	v.SetDefault("mdr.organization", "MOFA")
	v.SetDefault("mdr.source", "NAFATH_SSO")
	v.SetDefault("mdr.timeout", "10s")

	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.sqlite_path", "")
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api.port: %d", c.API.Port)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when auth is enabled")
	}
	switch c.Storage.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown storage.backend: %s (expected memory or sqlite)", c.Storage.Backend)
	}
	if c.MDR.Enabled && c.MDR.Endpoint == "" {
		return fmt.Errorf("mdr.endpoint is required when mdr is enabled")
	}
	return nil
}
