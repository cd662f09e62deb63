/**
 * 服务:提示词模板
 * @description: AI分类提示词的占位符渲染
 * @func: RenderPrompt纯替换,未知占位符渲染为空串
 */
package provider

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	invmodel "neoinventory/internal/model/inventory"
)

// DefaultPromptTemplate 默认分类提示词
// 配置未提供模板时使用,要求模型只返回JSON
const DefaultPromptTemplate = `You are an IT asset admission reviewer. Review the following device record and decide whether it should be admitted into the inventory.

Device record:
- Hostname: {hostname}
- IP address: {ip_address}
- MAC address: {mac_address}
- Operating system: {os} {os_version}
- Asset category: {asset_category}
- Manufacturer: {manufacturer}
- Model: {model}
- Serial number: {serial_number}
- Location: {location}
- Department: {department}
- Owner: {owner}
- Tags: {tags}
- Source: {source}

Respond with a single JSON object and nothing else, using exactly this shape:
{"decision": "approved|rejected|pending|flag", "comments": "...", "confidence": 0.0, "suggested_tags": [], "suggested_risk_score": 0, "suggested_asset_category": "..."}`

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// RenderPrompt 把模板中的 {placeholder} 替换为资产字段值
// 未知占位符渲染为空串，渲染永不失败
func RenderPrompt(template string, item *invmodel.InventoryItem) string {
	if template == "" {
		template = DefaultPromptTemplate
	}
	values := placeholderValues(item)

	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.Trim(match, "{}")
		return values[name]
	})
}

// placeholderValues 资产字段到占位符名的映射
func placeholderValues(item *invmodel.InventoryItem) map[string]string {
	if item == nil {
		return map[string]string{}
	}
	return map[string]string{
		"hostname":       item.Hostname,
		"ip_address":     item.IPAddress,
		"mac_address":    item.MACAddress,
		"os":             item.OS,
		"os_version":     item.OSVersion,
		"asset_category": item.AssetCategory,
		"manufacturer":   item.Manufacturer,
		"model":          item.Model,
		"serial_number":  item.SerialNumber,
		"location":       item.Location,
		"department":     item.Department,
		"owner":          item.Owner,
		"tags":           tagsAsText(item.Tags),
		"risk_score":     strconv.Itoa(item.RiskScore),
		"source":         item.Source,
		"external_id":    item.ExternalID,
	}
}

// tagsAsText JSON数组标签转为逗号分隔文本
func tagsAsText(tagsJSON string) string {
	if tagsJSON == "" {
		return ""
	}
	var tags []string
	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return tagsJSON
	}
	return strings.Join(tags, ", ")
}
