package config

import "time"

// ApplyDefaults fills unset fields with working values. The token secret
// has no default on purpose.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Uploads.Root == "" {
		cfg.Uploads.Root = "./data/artifacts"
	}
	if cfg.Uploads.MaxBodyBytes == 0 {
		// 10 MiB file limit plus headroom for multipart framing and
		// the metadata fields.
		cfg.Uploads.MaxBodyBytes = 12 << 20
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}
	if cfg.Store.File == "" {
		cfg.Store.File = "./data/artifacts.log"
	}
	if cfg.Store.BadgerDir == "" {
		cfg.Store.BadgerDir = "./data/badger"
	}

	if cfg.RateLimit.RPS == 0 {
		cfg.RateLimit.RPS = 10
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 20
	}

	if cfg.Authenticity.Endpoint == "" {
		cfg.Authenticity.Endpoint = "https://api-inference.huggingface.co"
	}
	if cfg.Authenticity.Model == "" {
		cfg.Authenticity.Model = "openai-community/roberta-base-openai-detector"
	}
	if cfg.Authenticity.Timeout == 0 {
		cfg.Authenticity.Timeout = 10 * time.Second
	}
	if cfg.Authenticity.BlendThreshold == 0 {
		cfg.Authenticity.BlendThreshold = 0.85
	}
	if cfg.Authenticity.HeuristicThreshold == 0 {
		cfg.Authenticity.HeuristicThreshold = 70
	}
	if cfg.Authenticity.ClassifierWeight == 0 {
		cfg.Authenticity.ClassifierWeight = 0.6
	}
}
