package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	invmodel "neoinventory/internal/model/inventory"
)

// openAICompatibleBackend chat-completions协议后端
// openai/groq/deepseek 共用同一套协议,只有默认地址不同
type openAICompatibleBackend struct {
	provider string
}

func (b *openAICompatibleBackend) defaultURL() string {
	switch b.provider {
	case invmodel.ProviderGroq:
		return "https://api.groq.com/openai/v1/chat/completions"
	case invmodel.ProviderDeepSeek:
		return "https://api.deepseek.com/v1/chat/completions"
	default:
		return "https://api.openai.com/v1/chat/completions"
	}
}

func (b *openAICompatibleBackend) buildRequest(ctx context.Context, p CallParams, prompt string) (*http.Request, error) {
	payload := map[string]interface{}{
		"model": p.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": p.Temperature,
		"max_tokens":  p.MaxTokens,
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
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	return req, nil
}

func (b *openAICompatibleBackend) extractText(body []byte) (string, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unexpected response shape: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
