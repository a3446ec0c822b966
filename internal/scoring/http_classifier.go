package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClassifier calls a model-serving endpoint over HTTP. The endpoint
// accepts {"features": [...]} and answers {"probability": 0.0131}.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

// NewHTTPClassifier creates a classifier that POSTs to the given URL.
func NewHTTPClassifier(url string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type scoreRequest struct {
	Features []float64 `json:"features"`
}

type scoreResponse struct {
	Probability float64 `json:"probability"`
}

func (h *HTTPClassifier) Score(ctx context.Context, features []float64) (float64, error) {
	body, err := json.Marshal(scoreRequest{Features: features})
	if err != nil {
		return 0, fmt.Errorf("encode score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call model endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("model endpoint returned %d: %s", resp.StatusCode, payload)
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode score response: %w", err)
	}
	if out.Probability < 0 || out.Probability > 1 {
		return 0, fmt.Errorf("model returned probability out of range: %v", out.Probability)
	}
	return out.Probability, nil
}

var _ Classifier = (*HTTPClassifier)(nil)
