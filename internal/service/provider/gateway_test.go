package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/model/system"
	"neoinventory/internal/pkg/crypto"
)

func newTestGateway(t *testing.T) (*Gateway, *crypto.SecretSealer) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sealer, err := crypto.NewSecretSealer(key)
	require.NoError(t, err)
	return NewGateway(sealer, 5*time.Second), sealer
}

func testItem() *invmodel.InventoryItem {
	return &invmodel.InventoryItem{
		TenantID: "tenant-a",
		Hostname: "web-01",
		OS:       "Ubuntu",
		Source:   "cmdb",
	}
}

// openAI chat-completions格式的成功响应
func openAIResponse(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

// TestClassifyWithParams_OpenAISuccess openai协议全链路
func TestClassifyWithParams_OpenAISuccess(t *testing.T) {
	g, _ := newTestGateway(t)

	var gotAuth string
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(openAIResponse(`{"decision":"approved","comments":"looks fine","confidence":0.9,"suggested_tags":["verified"]}`)))
	}))
	defer srv.Close()

	c, err := g.ClassifyWithParams(context.Background(), CallParams{
		Provider:       invmodel.ProviderOpenAI,
		APIURL:         srv.URL,
		APIKey:         "sk-test",
		Model:          "gpt-4o-mini",
		PromptTemplate: "review {hostname}",
		Temperature:    0.1,
		MaxTokens:      500,
	}, testItem())
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotPayload["model"])
	// 渲染后的提示词进入请求体
	messages := gotPayload["messages"].([]interface{})
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "review web-01", first["content"])

	assert.Equal(t, "approved", c.Decision)
	assert.Equal(t, "looks fine", c.Comments)
	assert.InDelta(t, 0.9, c.Confidence, 0.001)
	assert.Equal(t, []string{"verified"}, c.SuggestedTags)
	assert.NotEmpty(t, c.RawResponse)
	assert.GreaterOrEqual(t, c.LatencyMS, int64(0))
}

// TestClassifyWithParams_AnthropicBackend complete协议与x-api-key认证
func TestClassifyWithParams_AnthropicBackend(t *testing.T) {
	g, _ := newTestGateway(t)

	var gotKey, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		body, _ := json.Marshal(map[string]string{
			"completion": ` {"decision":"flag","comments":"needs review","confidence":0.4}`,
		})
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c, err := g.ClassifyWithParams(context.Background(), CallParams{
		Provider: invmodel.ProviderAnthropic,
		APIURL:   srv.URL,
		APIKey:   "ak-test",
		Model:    "claude-2",
	}, testItem())
	require.NoError(t, err)

	assert.Equal(t, "ak-test", gotKey)
	assert.Equal(t, "2023-06-01", gotVersion)
	assert.Equal(t, "flag", c.Decision)
}

// TestClassifyWithParams_OllamaBackend generate协议,无认证头
func TestClassifyWithParams_OllamaBackend(t *testing.T) {
	g, _ := newTestGateway(t)

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := json.Marshal(map[string]interface{}{
			"response": `{"decision":"rejected","comments":"unknown device","confidence":0.8}`,
			"done":     true,
		})
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c, err := g.ClassifyWithParams(context.Background(), CallParams{
		Provider: invmodel.ProviderOllama,
		APIURL:   srv.URL,
		Model:    "llama3",
	}, testItem())
	require.NoError(t, err)

	assert.Empty(t, gotAuth)
	assert.Equal(t, "rejected", c.Decision)
}

// TestClassifyWithParams_StatusMapping HTTP状态码到失败分类
func TestClassifyWithParams_StatusMapping(t *testing.T) {
	g, _ := newTestGateway(t)

	tests := []struct {
		status int
		kind   system.ProviderErrorKind
	}{
		{http.StatusUnauthorized, system.ProviderErrorAuth},
		{http.StatusForbidden, system.ProviderErrorAuth},
		{http.StatusTooManyRequests, system.ProviderErrorUnavailable},
		{http.StatusInternalServerError, system.ProviderErrorUnavailable},
		{http.StatusBadGateway, system.ProviderErrorUnavailable},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		}))

		_, err := g.ClassifyWithParams(context.Background(), CallParams{
			Provider: invmodel.ProviderOpenAI,
			APIURL:   srv.URL,
			APIKey:   "sk-test",
		}, testItem())
		srv.Close()

		var pe *system.ProviderError
		require.True(t, errors.As(err, &pe), "status %d", tt.status)
		assert.Equal(t, tt.kind, pe.Kind, "status %d", tt.status)
		// 原始响应体留存供日志落库
		assert.Equal(t, `{"error":"nope"}`, pe.Raw)
	}
}

// TestClassifyWithParams_Timeout 超时归类为timeout
func TestClassifyWithParams_Timeout(t *testing.T) {
	g, _ := newTestGateway(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(openAIResponse(`{"decision":"approved"}`)))
	}))
	defer srv.Close()

	_, err := g.ClassifyWithParams(context.Background(), CallParams{
		Provider: invmodel.ProviderOpenAI,
		APIURL:   srv.URL,
		APIKey:   "sk-test",
		Timeout:  50 * time.Millisecond,
	}, testItem())

	var pe *system.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, system.ProviderErrorTimeout, pe.Kind)
}

// TestClassifyWithParams_MalformedOutput 模型输出不可解析时不静默兜底
func TestClassifyWithParams_MalformedOutput(t *testing.T) {
	g, _ := newTestGateway(t)

	tests := []struct {
		name    string
		content string
	}{
		{"无JSON", "I think this device looks fine."},
		{"JSON不合法", `{"decision": approved}`},
		{"decision非法值", `{"decision":"maybe","comments":"hmm"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(openAIResponse(tt.content)))
			}))
			defer srv.Close()

			_, err := g.ClassifyWithParams(context.Background(), CallParams{
				Provider: invmodel.ProviderOpenAI,
				APIURL:   srv.URL,
				APIKey:   "sk-test",
			}, testItem())

			var pe *system.ProviderError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, system.ProviderErrorMalformed, pe.Kind)
		})
	}
}

// TestClassifyWithParams_ProseAroundJSON 首个'{'到末尾'}'之间提取决策
func TestClassifyWithParams_ProseAroundJSON(t *testing.T) {
	g, _ := newTestGateway(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := "Sure, here is my review:\n```json\n{\"decision\":\"pending\",\"comments\":\"need more data\",\"confidence\":0.3}\n```\nLet me know if you need anything else."
		_, _ = w.Write([]byte(openAIResponse(content)))
	}))
	defer srv.Close()

	c, err := g.ClassifyWithParams(context.Background(), CallParams{
		Provider: invmodel.ProviderOpenAI,
		APIURL:   srv.URL,
		APIKey:   "sk-test",
	}, testItem())
	require.NoError(t, err)
	assert.Equal(t, "pending", c.Decision)
}

// TestClassifyWithParams_ConfidenceClamp 置信度夹在[0,1]
func TestClassifyWithParams_ConfidenceClamp(t *testing.T) {
	g, _ := newTestGateway(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(openAIResponse(`{"decision":"approved","confidence":3.5}`)))
	}))
	defer srv.Close()

	c, err := g.ClassifyWithParams(context.Background(), CallParams{
		Provider: invmodel.ProviderOpenAI,
		APIURL:   srv.URL,
		APIKey:   "sk-test",
	}, testItem())
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.Confidence)
}

// TestClassifyWithParams_UnsupportedProvider 未注册的后端类型
func TestClassifyWithParams_UnsupportedProvider(t *testing.T) {
	g, _ := newTestGateway(t)

	_, err := g.ClassifyWithParams(context.Background(), CallParams{Provider: "bard"}, testItem())

	var pe *system.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, system.ProviderErrorUnavailable, pe.Kind)
}

// TestClassify_UnsealsStoredKey 存储配置路径解封密钥后调用
func TestClassify_UnsealsStoredKey(t *testing.T) {
	g, sealer := newTestGateway(t)

	sealed, err := sealer.Seal("sk-secret")
	require.NoError(t, err)

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(openAIResponse(`{"decision":"approved","comments":"ok"}`)))
	}))
	defer srv.Close()

	cfg := &invmodel.AIProviderConfig{
		TenantID:       "tenant-a",
		Provider:       invmodel.ProviderOpenAI,
		APIURL:         srv.URL,
		APIKeySealed:   sealed,
		Model:          "gpt-4o-mini",
		TimeoutSeconds: 5,
	}

	c, err := g.Classify(context.Background(), cfg, testItem())
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-secret", gotAuth)
	assert.Equal(t, "approved", c.Decision)
}

// TestClassify_UnsealFailureIsAuthError 密文损坏归类为认证失败
func TestClassify_UnsealFailureIsAuthError(t *testing.T) {
	g, _ := newTestGateway(t)

	cfg := &invmodel.AIProviderConfig{
		Provider:     invmodel.ProviderOpenAI,
		APIKeySealed: "bm90LWEtcmVhbC1zZWFsZWQtdmFsdWUtYXQtYWxs", // 合法base64但不是secretbox密文
	}

	_, err := g.Classify(context.Background(), cfg, testItem())

	var pe *system.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, system.ProviderErrorAuth, pe.Kind)
}

// TestClassify_NilConfig 空配置直接报不可用
func TestClassify_NilConfig(t *testing.T) {
	g, _ := newTestGateway(t)

	_, err := g.Classify(context.Background(), nil, testItem())

	var pe *system.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, system.ProviderErrorUnavailable, pe.Kind)
}
