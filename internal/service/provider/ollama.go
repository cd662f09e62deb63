package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ollamaBackend 本地generate协议后端,无需认证
type ollamaBackend struct{}

func (b *ollamaBackend) defaultURL() string {
	return "http://localhost:11434/api/generate"
}

func (b *ollamaBackend) buildRequest(ctx context.Context, p CallParams, prompt string) (*http.Request, error) {
	payload := map[string]interface{}{
		"model":  p.Model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": p.Temperature,
			"num_predict": p.MaxTokens,
		},
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
	return req, nil
}

func (b *ollamaBackend) extractText(body []byte) (string, error) {
	var resp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unexpected response shape: %w", err)
	}
	if resp.Response == "" {
		return "", fmt.Errorf("response has no output")
	}
	return resp.Response, nil
}
