package provider

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	invmodel "neoinventory/internal/model/inventory"
)

// TestRenderPrompt_Substitution 占位符替换为资产字段
func TestRenderPrompt_Substitution(t *testing.T) {
	item := &invmodel.InventoryItem{
		Hostname:      "web-01",
		IPAddress:     "10.0.0.15",
		OS:            "Ubuntu",
		OSVersion:     "22.04",
		AssetCategory: "server",
		Owner:         "infra-team",
		RiskScore:     42,
		Source:        "cmdb",
		ExternalID:    "x-1001",
		Tags:          `["prod","web"]`,
	}

	out := RenderPrompt("host={hostname} ip={ip_address} os={os} {os_version} tags={tags} risk={risk_score} src={source}", item)
	assert.Equal(t, "host=web-01 ip=10.0.0.15 os=Ubuntu 22.04 tags=prod, web risk=42 src=cmdb", out)
}

// TestRenderPrompt_EmptyTemplateUsesDefault 空模板落到默认提示词
func TestRenderPrompt_EmptyTemplateUsesDefault(t *testing.T) {
	item := &invmodel.InventoryItem{Hostname: "web-01"}

	out := RenderPrompt("", item)
	assert.Contains(t, out, "asset admission reviewer")
	assert.Contains(t, out, "Hostname: web-01")
	// 默认模板不留未替换的已知占位符
	assert.NotContains(t, out, "{hostname}")
}

// TestRenderPrompt_UnknownPlaceholderRendersEmpty 未知占位符渲染为空串
func TestRenderPrompt_UnknownPlaceholderRendersEmpty(t *testing.T) {
	item := &invmodel.InventoryItem{Hostname: "web-01"}

	out := RenderPrompt("a={hostname} b={no_such_field} c", item)
	assert.Equal(t, "a=web-01 b= c", out)
}

// TestRenderPrompt_NilItem nil资产渲染为全空值,不崩溃
func TestRenderPrompt_NilItem(t *testing.T) {
	out := RenderPrompt("host={hostname}", nil)
	assert.Equal(t, "host=", out)
}

// TestRenderPrompt_MalformedTagsPassThrough 非JSON标签原样输出
func TestRenderPrompt_MalformedTagsPassThrough(t *testing.T) {
	item := &invmodel.InventoryItem{Tags: "not-json"}

	out := RenderPrompt("tags={tags}", item)
	assert.Equal(t, "tags=not-json", out)
}

// TestDefaultPromptTemplate_RequestsJSONOnly 默认模板要求纯JSON输出
func TestDefaultPromptTemplate_RequestsJSONOnly(t *testing.T) {
	assert.True(t, strings.Contains(DefaultPromptTemplate, `"decision"`))
	assert.True(t, strings.Contains(DefaultPromptTemplate, "approved|rejected|pending|flag"))
}
