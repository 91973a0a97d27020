package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"seedvault.org/internal/artifact"
	"seedvault.org/internal/audit"
	"seedvault.org/internal/auth"
	"seedvault.org/internal/obs"
	"seedvault.org/internal/stream"
	"seedvault.org/internal/upload"
)

// ReadyProbe is a readiness check, typically a store ping.
type ReadyProbe struct {
	Ping func(ctx context.Context) error
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Ping == nil {
		return nil
	}
	return rp.Ping(ctx)
}

// Config wires the HTTP layer to the rest of the service.
type Config struct {
	Version       string
	Ready         ReadyProbe
	Authenticator *auth.Authenticator
	Tokens        *auth.TokenIssuer
	Evaluator     *auth.Evaluator
	Uploads       *upload.Service
	Store         artifact.Store
	Stream        *stream.Stream
	FilesRoot     string

	MaxBodyBytes int64

	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	authn   *auth.Authenticator
	tokens  *auth.TokenIssuer
	eval    *auth.Evaluator
	uploads *upload.Service
	store   artifact.Store
	stream  *stream.Stream
	root    string

	maxBodyBytes int64
	rateEnabled  bool
	rateRPS      float64
	rateBurst    int
}

func New(cfg Config) (*API, error) {
	if cfg.Authenticator == nil || cfg.Tokens == nil || cfg.Evaluator == nil {
		return nil, errors.New("httpapi: authenticator, tokens and evaluator are required")
	}
	if cfg.Uploads == nil || cfg.Store == nil {
		return nil, errors.New("httpapi: upload service and store are required")
	}
	a := &API{
		mux:          http.NewServeMux(),
		readyProbe:   cfg.Ready,
		version:      cfg.Version,
		authn:        cfg.Authenticator,
		tokens:       cfg.Tokens,
		eval:         cfg.Evaluator,
		uploads:      cfg.Uploads,
		store:        cfg.Store,
		stream:       cfg.Stream,
		root:         cfg.FilesRoot,
		maxBodyBytes: cfg.MaxBodyBytes,
		rateEnabled:  cfg.RateLimitEnabled,
		rateRPS:      cfg.RateLimitRPS,
		rateBurst:    cfg.RateLimitBurst,
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = 12 << 20
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// auth
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)

	// artifacts
	a.mux.HandleFunc("/v1/artifacts", a.handleArtifactsCollection)
	a.mux.HandleFunc("/v1/artifacts/", a.handleArtifactResource)

	// live upload feed
	a.mux.HandleFunc("/v1/events", a.Events)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a, nil
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	if a.rateEnabled {
		h = RateLimit(h, a.rateBurst, a.rateRPS)
	}
	h = LoggingJSON(h)
	h = RequestID(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "seedvault-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "seedvault-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) audit(ctx context.Context, event string, fields map[string]any) {
	_ = audit.LogEvent(ctx, event, fields)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
