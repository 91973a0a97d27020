package authenticity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClassifier(t *testing.T, handler http.HandlerFunc) *Classifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClassifier(srv.URL, "detector-base", "", 2*time.Second)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return c
}

func respond(t *testing.T, w http.ResponseWriter, preds []Classification) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode([][]Classification{preds}); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestGateFlagsOnClassifierLabel(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, []Classification{{Label: "generated", Score: 0.55}})
	})
	gate := NewGate(c, DefaultConfig())

	res, err := gate.Assess(context.Background(), naturalSample)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if !res.Flagged {
		t.Fatalf("expected flag on generated label: %+v", res)
	}
}

func TestGateFlagsOnBlendThreshold(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, []Classification{{Label: "human", Score: 0.99}})
	})
	cfg := DefaultConfig()
	cfg.BlendThreshold = 0.5
	gate := NewGate(c, cfg)

	res, err := gate.Assess(context.Background(), naturalSample)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if !res.Flagged {
		t.Fatalf("expected flag above blend threshold: %+v", res)
	}
	if res.ClassifierScore != 0.99 {
		t.Fatalf("unexpected classifier score: %v", res.ClassifierScore)
	}
}

func TestGatePassesCleanText(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, []Classification{{Label: "human", Score: 0.1}})
	})
	gate := NewGate(c, DefaultConfig())

	res, err := gate.Assess(context.Background(), naturalSample)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if res.Flagged {
		t.Fatalf("clean text was flagged: %+v", res)
	}
}

func TestGateFailsOpenOnClassifierError(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	gate := NewGate(c, DefaultConfig())

	res, err := gate.Assess(context.Background(), generatedSample)
	if err != nil {
		t.Fatalf("fail-open gate returned error: %v", err)
	}
	if res.Flagged {
		t.Fatalf("fail-open gate flagged content: %+v", res)
	}
	if res.Label != "classifier_unavailable" {
		t.Fatalf("unexpected label: %s", res.Label)
	}
}

func TestGateFailsClosedWhenConfigured(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	cfg := DefaultConfig()
	cfg.FailOpen = false
	gate := NewGate(c, cfg)

	_, err := gate.Assess(context.Background(), naturalSample)
	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
}

func TestGateHeuristicOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeuristicThreshold = 5
	gate := NewGate(nil, cfg)

	res, err := gate.Assess(context.Background(), generatedSample)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if !res.Flagged {
		t.Fatalf("expected heuristic-only flag: %+v", res)
	}
	if res.Label != "heuristic_only" {
		t.Fatalf("unexpected label: %s", res.Label)
	}
}

func TestClassifierDecodesFlatResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]Classification{
			{Label: "human", Score: 0.2},
			{Label: "generated", Score: 0.8},
		})
	}))
	defer srv.Close()

	c, err := NewClassifier(srv.URL, "detector-base", "", time.Second)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	pred, err := c.Classify(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if pred.Label != "generated" || pred.Score != 0.8 {
		t.Fatalf("expected top prediction, got %+v", pred)
	}
}
