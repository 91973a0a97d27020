// Package config loads server configuration from file, environment and
// defaults, in that order of increasing precedence for the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every configurable aspect of the server.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Uploads      UploadsConfig      `mapstructure:"uploads"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Store        StoreConfig        `mapstructure:"store"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Authenticity AuthenticityConfig `mapstructure:"authenticity"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type UploadsConfig struct {
	// Root is the directory artifact files are stored under, one
	// subdirectory per access scope.
	Root string `mapstructure:"root" validate:"required"`
	// MaxBodyBytes caps the whole multipart request body; it must leave
	// headroom above the per-file limit for the other form fields.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" validate:"gt=0"`
}

type AuthConfig struct {
	// TokenSecret signs session tokens. No default: the server refuses
	// to start without one.
	TokenSecret string        `mapstructure:"token_secret" validate:"required,min=16"`
	TokenTTL    time.Duration `mapstructure:"token_ttl" validate:"gt=0"`

	// CredentialsFile optionally replaces the built-in credential table
	// with one loaded from a JSON file (username to secret and role).
	CredentialsFile string `mapstructure:"credentials_file" validate:"omitempty,filepath"`
	// PermissionsFile optionally replaces the built-in permission table
	// with one loaded from a JSON file (role to permission set).
	PermissionsFile string `mapstructure:"permissions_file" validate:"omitempty,filepath"`
}

// StoreConfig selects the metadata store backend. Only the section
// matching Backend is used.
type StoreConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=memory file badger postgres"`

	// File is the append-only log path, used when Backend = "file".
	File string `mapstructure:"file"`

	// BadgerDir is the database directory, used when Backend = "badger".
	BadgerDir string `mapstructure:"badger_dir"`

	// PostgresDSN is the connection string, used when Backend = "postgres".
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps" validate:"gte=0"`
	Burst   int     `mapstructure:"burst" validate:"gte=0"`
}

type AuthenticityConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	APIToken string        `mapstructure:"api_token"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`

	BlendThreshold     float64 `mapstructure:"blend_threshold" validate:"gte=0,lte=1"`
	HeuristicThreshold int     `mapstructure:"heuristic_threshold" validate:"gte=0,lte=100"`
	ClassifierWeight   float64 `mapstructure:"classifier_weight" validate:"gte=0,lte=1"`

	// FailOpen admits uploads when the classifier is unreachable; the
	// heuristic score still applies either way.
	FailOpen bool `mapstructure:"fail_open"`
}

// Load reads configuration from the given file (optional), SEEDVAULT_*
// environment variables and built-in defaults, then validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("SEEDVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true; ApplyDefaults cannot tell an
	// explicit false from an unset field.
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("authenticity.fail_open", true)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range knownKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

var knownKeys = []string{
	"server.addr",
	"server.read_timeout",
	"server.write_timeout",
	"server.idle_timeout",
	"server.shutdown_timeout",
	"uploads.root",
	"uploads.max_body_bytes",
	"auth.token_secret",
	"auth.token_ttl",
	"auth.credentials_file",
	"auth.permissions_file",
	"store.backend",
	"store.file",
	"store.badger_dir",
	"store.postgres_dsn",
	"rate_limit.enabled",
	"rate_limit.rps",
	"rate_limit.burst",
	"authenticity.enabled",
	"authenticity.endpoint",
	"authenticity.model",
	"authenticity.api_token",
	"authenticity.timeout",
	"authenticity.blend_threshold",
	"authenticity.heuristic_threshold",
	"authenticity.classifier_weight",
	"authenticity.fail_open",
}
