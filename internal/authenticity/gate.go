package authenticity

import (
	"context"
	"fmt"
	"strings"

	"seedvault.org/internal/obs"
)

// Assessment is the gate's verdict on one piece of text.
type Assessment struct {
	Flagged         bool    `json:"flagged"`
	Confidence      float64 `json:"confidence"`
	Label           string  `json:"label"`
	HeuristicScore  int     `json:"heuristic_score"`
	ClassifierScore float64 `json:"classifier_score,omitempty"`
	ClassifierLabel string  `json:"classifier_label,omitempty"`
}

// ErrUnavailable marks a fail-closed gate whose classifier could not be
// reached; the caller turns it into a rejection.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("authenticity: classifier unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Config carries the tunable gate parameters. The source material never
// settled on a single threshold, so none of them is a constant here.
type Config struct {
	// BlendThreshold flags text when the weighted blend of classifier and
	// heuristic confidence reaches it. Range 0..1.
	BlendThreshold float64
	// HeuristicThreshold flags text on heuristic evidence alone. Range 0..100.
	HeuristicThreshold int
	// ClassifierWeight is the classifier share of the blend. Range 0..1.
	ClassifierWeight float64
	// FailOpen admits content when the classifier errors out instead of
	// rejecting it. Availability-over-precision; the shipped default.
	FailOpen bool
}

// DefaultConfig returns the gate defaults.
func DefaultConfig() Config {
	return Config{
		BlendThreshold:     0.85,
		HeuristicThreshold: 70,
		ClassifierWeight:   0.6,
		FailOpen:           true,
	}
}

// Gate combines the deterministic heuristic scorer with the external
// classifier into one pass/fail decision.
type Gate struct {
	classifier *Classifier // nil means heuristic-only operation
	cfg        Config
}

// NewGate builds a gate. classifier may be nil.
func NewGate(classifier *Classifier, cfg Config) *Gate {
	if cfg.BlendThreshold <= 0 || cfg.BlendThreshold > 1 {
		cfg.BlendThreshold = DefaultConfig().BlendThreshold
	}
	if cfg.HeuristicThreshold <= 0 || cfg.HeuristicThreshold > 100 {
		cfg.HeuristicThreshold = DefaultConfig().HeuristicThreshold
	}
	if cfg.ClassifierWeight <= 0 || cfg.ClassifierWeight > 1 {
		cfg.ClassifierWeight = DefaultConfig().ClassifierWeight
	}
	return &Gate{classifier: classifier, cfg: cfg}
}

// Assess scores text. Final confidence is the maximum of the weighted blend
// and the heuristic-alone score; the text is flagged when the classifier
// label indicates generated content, or either threshold is crossed. On a
// classifier error the gate fails open (not flagged) unless configured
// fail-closed, in which case it returns *UnavailableError.
func (g *Gate) Assess(ctx context.Context, text string) (Assessment, error) {
	heuristic := HeuristicScore(text)
	hConf := float64(heuristic) / 100

	if g.classifier == nil {
		flagged := heuristic >= g.cfg.HeuristicThreshold
		observe(flagged)
		return Assessment{
			Flagged:        flagged,
			Confidence:     hConf,
			Label:          "heuristic_only",
			HeuristicScore: heuristic,
		}, nil
	}

	pred, err := g.classifier.Classify(ctx, text)
	if err != nil {
		if !g.cfg.FailOpen {
			obs.ObserveAuthenticity("unavailable")
			return Assessment{}, &UnavailableError{Err: err}
		}
		obs.ObserveAuthenticity("unavailable")
		return Assessment{
			Flagged:        false,
			Confidence:     hConf,
			Label:          "classifier_unavailable",
			HeuristicScore: heuristic,
		}, nil
	}

	blend := g.cfg.ClassifierWeight*pred.Score + (1-g.cfg.ClassifierWeight)*hConf
	confidence := blend
	if hConf > confidence {
		confidence = hConf
	}

	flagged := labelIndicatesGenerated(pred.Label) ||
		blend >= g.cfg.BlendThreshold ||
		heuristic >= g.cfg.HeuristicThreshold

	observe(flagged)
	return Assessment{
		Flagged:         flagged,
		Confidence:      confidence,
		Label:           pred.Label,
		HeuristicScore:  heuristic,
		ClassifierScore: pred.Score,
		ClassifierLabel: pred.Label,
	}, nil
}

func observe(flagged bool) {
	if flagged {
		obs.ObserveAuthenticity("flagged")
	} else {
		obs.ObserveAuthenticity("passed")
	}
}

func labelIndicatesGenerated(label string) bool {
	l := strings.ToLower(label)
	for _, marker := range []string{"generated", "machine", "fake", "synthetic"} {
		if strings.Contains(l, marker) {
			return true
		}
	}
	// Binary detectors commonly emit LABEL_1 for the generated class.
	return l == "label_1" || l == "ai"
}
