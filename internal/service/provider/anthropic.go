package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// anthropicBackend complete协议后端
type anthropicBackend struct{}

func (b *anthropicBackend) defaultURL() string {
	return "https://api.anthropic.com/v1/complete"
}

func (b *anthropicBackend) buildRequest(ctx context.Context, p CallParams, prompt string) (*http.Request, error) {
	payload := map[string]interface{}{
		"model":                p.Model,
		"prompt":               fmt.Sprintf("\n\nHuman: %s\n\nAssistant:", prompt),
		"max_tokens_to_sample": p.MaxTokens,
		"temperature":          p.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	return req, nil
}

func (b *anthropicBackend) extractText(body []byte) (string, error) {
	var resp struct {
		Completion string `json:"completion"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unexpected response shape: %w", err)
	}
	if resp.Completion == "" {
		return "", fmt.Errorf("response has no completion")
	}
	return resp.Completion, nil
}
