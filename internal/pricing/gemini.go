package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"rental-api/pkg/config"
)

// ErrNotConfigured is returned when no API key is set; callers degrade to
// the rule-based computation.
var ErrNotConfigured = errors.New("generative pricing service not configured")

// GeminiClient calls the generative-language API over plain HTTP.
type GeminiClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiClient creates a client from configuration. The HTTP client
// timeout is the hard ceiling on how long a pricing call may block.
func NewGeminiClient(cfg *config.AIConfig) *GeminiClient {
	return &GeminiClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether the external service is configured.
func (g *GeminiClient) Enabled() bool {
	return g != nil && g.apiKey != ""
}

// generateContent request/response wire shapes, trimmed to what we use.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateContent sends a prompt and returns the model's text output.
func (g *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if !g.Enabled() {
		return "", ErrNotConfigured
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pricing service returned %d: %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", err
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("pricing service returned no candidates")
	}

	return genResp.Candidates[0].Content.Parts[0].Text, nil
}
