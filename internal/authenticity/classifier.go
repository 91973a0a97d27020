package authenticity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Classification is the label/score pair returned by the external model.
type Classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier calls a hosted text-classification inference endpoint. The
// model itself is an external collaborator; only the request/response
// contract lives here.
type Classifier struct {
	endpoint string
	model    string
	apiToken string
	client   *http.Client
}

// maxClassifierInput truncates oversized inputs before sending them to the
// model, which has a bounded context anyway.
const maxClassifierInput = 2000

// NewClassifier builds a classifier client. timeout bounds each call; when
// it elapses the gate treats the classifier as unavailable.
func NewClassifier(endpoint, model, apiToken string, timeout time.Duration) (*Classifier, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("authenticity: classifier endpoint is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("authenticity: classifier model is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Classifier{
		endpoint: endpoint,
		model:    model,
		apiToken: strings.TrimSpace(apiToken),
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Classify sends text to the inference endpoint and returns the top
// prediction.
func (c *Classifier) Classify(ctx context.Context, text string) (Classification, error) {
	if len(text) > maxClassifierInput {
		text = text[:maxClassifierInput]
	}

	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return Classification{}, err
	}

	reqURL := c.endpoint + "/models/" + url.PathEscape(c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return Classification{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Classification{}, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Classification{}, fmt.Errorf("classifier status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Classification{}, err
	}
	return decodePrediction(data)
}

// decodePrediction accepts both the nested ([[{label,score}]]) and flat
// ([{label,score}]) response shapes inference servers return.
func decodePrediction(data []byte) (Classification, error) {
	var nested [][]Classification
	if err := json.Unmarshal(data, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return top(nested[0]), nil
	}
	var flat []Classification
	if err := json.Unmarshal(data, &flat); err == nil && len(flat) > 0 {
		return top(flat), nil
	}
	return Classification{}, errors.New("classifier response has no predictions")
}

func top(preds []Classification) Classification {
	best := preds[0]
	for _, p := range preds[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best
}
