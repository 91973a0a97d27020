package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"seedvault.org/internal/artifact"
	"seedvault.org/internal/auth"
	"seedvault.org/internal/authenticity"
	"seedvault.org/internal/config"
	"seedvault.org/internal/httpapi"
	"seedvault.org/internal/obs"
	badgerstore "seedvault.org/internal/store/badger"
	pgstore "seedvault.org/internal/store/pg"
	"seedvault.org/internal/stream"
	"seedvault.org/internal/upload"
)

var version = "0.3.0"

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	flag.Parse()

	obs.Init()
	obs.InitBuildInfo(version, "")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, ping, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	creds, perms, err := loadAuthTables(cfg)
	if err != nil {
		log.Fatalf("auth tables: %v", err)
	}
	authn, err := auth.NewAuthenticator(creds, perms)
	if err != nil {
		log.Fatalf("authenticator: %v", err)
	}
	tokens, err := auth.NewTokenIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	eval, err := auth.NewEvaluator(perms)
	if err != nil {
		log.Fatalf("evaluator: %v", err)
	}

	var gate *authenticity.Gate
	if cfg.Authenticity.Enabled {
		classifier, err := authenticity.NewClassifier(
			cfg.Authenticity.Endpoint,
			cfg.Authenticity.Model,
			cfg.Authenticity.APIToken,
			cfg.Authenticity.Timeout,
		)
		if err != nil {
			log.Fatalf("authenticity classifier: %v", err)
		}
		gate = authenticity.NewGate(classifier, authenticity.Config{
			BlendThreshold:     cfg.Authenticity.BlendThreshold,
			HeuristicThreshold: cfg.Authenticity.HeuristicThreshold,
			ClassifierWeight:   cfg.Authenticity.ClassifierWeight,
			FailOpen:           cfg.Authenticity.FailOpen,
		})
	}

	events := stream.New()

	uploads, err := upload.NewService(eval, store, gate, events, cfg.Uploads.Root)
	if err != nil {
		log.Fatalf("upload service: %v", err)
	}

	api, err := httpapi.New(httpapi.Config{
		Version:          version,
		Ready:            httpapi.ReadyProbe{Ping: ping},
		Authenticator:    authn,
		Tokens:           tokens,
		Evaluator:        eval,
		Uploads:          uploads,
		Store:            store,
		Stream:           events,
		FilesRoot:        cfg.Uploads.Root,
		MaxBodyBytes:     cfg.Uploads.MaxBodyBytes,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimitRPS:     cfg.RateLimit.RPS,
		RateLimitBurst:   cfg.RateLimit.Burst,
	})
	if err != nil {
		log.Fatalf("http api: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	log.Printf("Starting seedvault-api %s on %s (store=%s)", version, srv.Addr, cfg.Store.Backend)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if closeStore != nil {
		_ = closeStore()
	}
	log.Println("Stopped")
}

// loadAuthTables resolves the credential and permission tables, following
// the configured file overrides when set and the built-ins otherwise.
func loadAuthTables(cfg *config.Config) (auth.Credentials, auth.Permissions, error) {
	creds := auth.DefaultCredentials()
	if cfg.Auth.CredentialsFile != "" {
		loaded, err := auth.LoadCredentials(cfg.Auth.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		creds = loaded
	}
	perms := auth.DefaultPermissions()
	if cfg.Auth.PermissionsFile != "" {
		loaded, err := auth.LoadPermissions(cfg.Auth.PermissionsFile)
		if err != nil {
			return nil, nil, err
		}
		perms = loaded
	}
	return creds, perms, nil
}

// openStore builds the configured metadata store. The returned ping is
// used by the readiness probe; close releases backend resources.
func openStore(cfg *config.Config) (artifact.Store, func(context.Context) error, func() error, error) {
	switch cfg.Store.Backend {
	case "memory":
		return artifact.NewInMemory(), nil, nil, nil
	case "file":
		fl, err := artifact.OpenFileLog(cfg.Store.File)
		if err != nil {
			return nil, nil, nil, err
		}
		return fl, nil, fl.Close, nil
	case "badger":
		bs, err := badgerstore.Open(cfg.Store.BadgerDir)
		if err != nil {
			return nil, nil, nil, err
		}
		return bs, nil, bs.Close, nil
	case "postgres":
		ps, err := pgstore.Open(cfg.Store.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return ps, ps.DB().PingContext, ps.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
