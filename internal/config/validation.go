package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags plus the backend-specific rules that tags
// cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	switch cfg.Store.Backend {
	case "file":
		if cfg.Store.File == "" {
			return fmt.Errorf("store.file: required for the file backend")
		}
	case "badger":
		if cfg.Store.BadgerDir == "" {
			return fmt.Errorf("store.badger_dir: required for the badger backend")
		}
	case "postgres":
		if cfg.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn: required for the postgres backend")
		}
	}

	if cfg.RateLimit.Enabled && (cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit: rps and burst must be positive when enabled")
	}

	if cfg.Authenticity.Enabled {
		if cfg.Authenticity.Endpoint == "" || cfg.Authenticity.Model == "" {
			return fmt.Errorf("authenticity: endpoint and model are required when enabled")
		}
	}

	return nil
}

func formatValidationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		e := verrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
