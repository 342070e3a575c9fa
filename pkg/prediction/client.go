package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/neuroread/neuroread-api/pkg/config"
)

// Result holds the parsed prediction service response.
type Result struct {
	AdjustedDyslexiaScore float64 `json:"adjusted_dyslexia_score"`
	RiskLevel             string  `json:"risk_level,omitempty"`
	Interpretation        string  `json:"interpretation,omitempty"`
}

// UpstreamError reports a non-2xx upstream response.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("prediction service returned %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("prediction service returned %d", e.Status)
}

// Client calls the external dyslexia prediction HTTP endpoint.
type Client struct {
	url             string
	defaultLanguage string
	httpClient      *http.Client
}

// NewClient builds a prediction client from configuration.
func NewClient(cfg config.PredictionConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	lang := strings.TrimSpace(cfg.DefaultLanguage)
	if lang == "" {
		lang = "en"
	}
	return &Client{
		url:             strings.TrimSpace(cfg.URL),
		defaultLanguage: lang,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	ImageURL string `json:"image_url"`
	Language string `json:"language"`
}

// Predict submits an image URL for analysis and returns the parsed score.
func (c *Client) Predict(ctx context.Context, imageURL, language string) (*Result, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, fmt.Errorf("image url required")
	}
	if strings.TrimSpace(language) == "" {
		language = c.defaultLanguage
	}

	body, err := json.Marshal(predictRequest{ImageURL: imageURL, Language: language})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prediction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return nil, &UpstreamError{Status: resp.StatusCode, Body: errBody.Detail}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode prediction response: %w", err)
	}
	return &result, nil
}
