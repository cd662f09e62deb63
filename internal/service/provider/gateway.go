/**
 * 服务:AI网关
 * @description: 统一的AI后端调用入口,按配置分发到具体后端策略
 * @func: Classify/ClassifyWithParams,所有失败都归为*system.ProviderError
 */
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/model/system"
	"neoinventory/internal/pkg/crypto"
	"neoinventory/internal/pkg/logger"
)

// CallParams 单次调用的展开参数
// APIKey 是明文,只存在于调用栈上,从不落库
type CallParams struct {
	Provider       string
	APIURL         string
	APIKey         string
	Model          string
	PromptTemplate string
	Temperature    float64
	MaxTokens      int
	Timeout        time.Duration
}

// backend 后端策略
// 每种AI后端实现自己的请求构造和响应文本提取
type backend interface {
	// buildRequest 构造HTTP请求
	buildRequest(ctx context.Context, p CallParams, prompt string) (*http.Request, error)
	// extractText 从成功响应体中取出模型输出的文本
	extractText(body []byte) (string, error)
	// defaultURL 后端默认地址
	defaultURL() string
}

// Gateway AI网关
// 持有后端策略注册表;调用超时由配置决定,网关本身不重试
type Gateway struct {
	client         *http.Client
	sealer         *crypto.SecretSealer
	defaultTimeout time.Duration
	backends       map[string]backend
}

// NewGateway 创建AI网关
func NewGateway(sealer *crypto.SecretSealer, defaultTimeout time.Duration) *Gateway {
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}
	return &Gateway{
		// 单次调用超时用context控制,客户端本身不设超时
		client:         &http.Client{},
		sealer:         sealer,
		defaultTimeout: defaultTimeout,
		backends: map[string]backend{
			invmodel.ProviderOpenAI:    &openAICompatibleBackend{provider: invmodel.ProviderOpenAI},
			invmodel.ProviderGroq:      &openAICompatibleBackend{provider: invmodel.ProviderGroq},
			invmodel.ProviderDeepSeek:  &openAICompatibleBackend{provider: invmodel.ProviderDeepSeek},
			invmodel.ProviderAnthropic: &anthropicBackend{},
			invmodel.ProviderOllama:    &ollamaBackend{},
		},
	}
}

// Classify 用存储的配置对资产做一次分类调用
// API密钥在这里解封,明文只在本次调用的内存中存在
func (g *Gateway) Classify(ctx context.Context, cfg *invmodel.AIProviderConfig, item *invmodel.InventoryItem) (*invmodel.Classification, error) {
	if cfg == nil {
		return nil, system.NewProviderError(system.ProviderErrorUnavailable, "", "no provider config")
	}

	apiKey := ""
	if cfg.APIKeySealed != "" {
		plain, err := g.sealer.Open(cfg.APIKeySealed)
		if err != nil {
			pe := system.NewProviderError(system.ProviderErrorAuth, cfg.Provider, "failed to unseal api key")
			pe.Err = err
			return nil, pe
		}
		apiKey = plain
	}

	timeout := g.defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return g.ClassifyWithParams(ctx, CallParams{
		Provider:       cfg.Provider,
		APIURL:         cfg.APIURL,
		APIKey:         apiKey,
		Model:          cfg.Model,
		PromptTemplate: cfg.PromptTemplate,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
		Timeout:        timeout,
	}, item)
}

// ClassifyWithParams 用展开参数调用(配置测试接口直接传明文密钥)
func (g *Gateway) ClassifyWithParams(ctx context.Context, p CallParams, item *invmodel.InventoryItem) (*invmodel.Classification, error) {
	be, ok := g.backends[p.Provider]
	if !ok {
		return nil, system.NewProviderError(system.ProviderErrorUnavailable, p.Provider, "unsupported provider")
	}

	if p.APIURL == "" {
		p.APIURL = be.defaultURL()
	}
	if p.Timeout <= 0 {
		p.Timeout = g.defaultTimeout
	}

	prompt := RenderPrompt(p.PromptTemplate, item)

	callCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	req, err := be.buildRequest(callCtx, p, prompt)
	if err != nil {
		pe := system.NewProviderError(system.ProviderErrorUnavailable, p.Provider, "failed to build request")
		pe.Err = err
		return nil, pe
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		pe := g.mapTransportError(p.Provider, err)
		logger.LogProviderCall("", p.Provider, p.Model, "", latency, pe, nil)
		return nil, pe
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		pe := system.NewProviderError(system.ProviderErrorUnavailable, p.Provider, "failed to read response body")
		pe.Err = err
		return nil, pe
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		pe := g.mapStatusError(p.Provider, resp.StatusCode)
		pe.Raw = string(body)
		logger.LogProviderCall("", p.Provider, p.Model, "", latency, pe, map[string]interface{}{
			"status_code": resp.StatusCode,
		})
		return nil, pe
	}

	text, err := be.extractText(body)
	if err != nil {
		pe := system.NewProviderError(system.ProviderErrorMalformed, p.Provider, err.Error())
		pe.Raw = string(body)
		return nil, pe
	}

	classification, err := parseClassification(p.Provider, text)
	if err != nil {
		var pe *system.ProviderError
		if errors.As(err, &pe) {
			pe.Raw = string(body)
		}
		return nil, err
	}

	classification.RawResponse = string(body)
	classification.LatencyMS = latency
	logger.LogProviderCall("", p.Provider, p.Model, classification.Decision, latency, nil, nil)
	return classification, nil
}

// mapTransportError 传输层错误分类
func (g *Gateway) mapTransportError(providerName string, err error) *system.ProviderError {
	kind := system.ProviderErrorUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = system.ProviderErrorTimeout
	}
	pe := system.NewProviderError(kind, providerName, err.Error())
	pe.Err = err
	return pe
}

// mapStatusError HTTP状态码分类: 401/403认证失败,429与5xx不可用
func (g *Gateway) mapStatusError(providerName string, status int) *system.ProviderError {
	kind := system.ProviderErrorUnavailable
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		kind = system.ProviderErrorAuth
	}
	return system.NewProviderError(kind, providerName, fmt.Sprintf("unexpected status %d", status))
}

// parseClassification 从模型输出文本中提取决策JSON
// 取第一个 '{' 到最后一个 '}' 之间的内容解析;
// 解析失败或decision非法都按 malformed_response 处理,绝不静默兜底
func parseClassification(providerName, text string) (*invmodel.Classification, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, system.NewProviderError(system.ProviderErrorMalformed, providerName, "no JSON object in model output")
	}

	var classification invmodel.Classification
	if err := json.Unmarshal([]byte(text[start:end+1]), &classification); err != nil {
		pe := system.NewProviderError(system.ProviderErrorMalformed, providerName, "model output is not valid JSON")
		pe.Err = err
		return nil, pe
	}

	if !invmodel.IsValidDecision(classification.Decision) {
		return nil, system.NewProviderError(system.ProviderErrorMalformed, providerName,
			fmt.Sprintf("invalid decision %q", classification.Decision))
	}

	if classification.Confidence < 0 {
		classification.Confidence = 0
	}
	if classification.Confidence > 1 {
		classification.Confidence = 1
	}

	return &classification, nil
}
