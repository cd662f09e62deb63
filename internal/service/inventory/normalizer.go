/**
 * 服务:规范化器
 * @description: 把上游推送的任意结构设备记录转换为统一的资产模型
 * @func: Normalize纯函数,无副作用,不访问存储
 */
package inventory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/model/system"
	"neoinventory/internal/pkg/utils"
)

// Normalizer 规范化器
// 纯转换,同样的输入永远产生同样的输出
type Normalizer struct{}

// NewNormalizer 创建规范化器
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize 把原始记录规范化为资产模型
// hostname / ip_address / external_id 至少要有一个，否则返回 *system.ValidationError
func (n *Normalizer) Normalize(raw map[string]interface{}, tenantID, defaultSource string) (*invmodel.InventoryItem, error) {
	if raw == nil {
		return nil, system.NewValidationError("", "record is empty")
	}

	hostname := strings.TrimSpace(asString(raw["hostname"]))
	ipAddress := utils.NormalizeIP(strings.TrimSpace(asString(raw["ip_address"])))
	externalID := strings.TrimSpace(asString(raw["external_id"]))

	if hostname == "" && ipAddress == "" && externalID == "" {
		return nil, system.NewValidationError("identity", "at least one of hostname, ip_address, external_id is required")
	}

	source := strings.TrimSpace(asString(raw["source"]))
	if source == "" {
		source = defaultSource
	}

	category := strings.TrimSpace(asString(raw["asset_category"]))
	if category == "" {
		// 上游老字段名兼容
		category = strings.TrimSpace(asString(raw["asset_type"]))
	}
	if category == "" {
		category = "unknown"
	}

	now := time.Now()
	item := &invmodel.InventoryItem{
		TenantID:      tenantID,
		Source:        source,
		ExternalID:    externalID,
		Hostname:      hostname,
		IPAddress:     ipAddress,
		MACAddress:    utils.NormalizeMAC(asString(raw["mac_address"])),
		OS:            strings.TrimSpace(asString(raw["os"])),
		OSVersion:     strings.TrimSpace(asString(raw["os_version"])),
		AssetCategory: strings.ToLower(category),
		Manufacturer:  strings.TrimSpace(asString(raw["manufacturer"])),
		Model:         strings.TrimSpace(asString(raw["model"])),
		SerialNumber:  strings.TrimSpace(asString(raw["serial_number"])),
		Location:      strings.TrimSpace(asString(raw["location"])),
		Department:    strings.TrimSpace(asString(raw["department"])),
		Owner:         strings.TrimSpace(asString(raw["owner"])),
		RiskScore:     clampRiskScore(raw["risk_score"]),
		Status:        invmodel.ItemStatusPending,
		FirstSeenAt:   now,
		LastSeenAt:    now,
	}

	item.Tags = marshalJSON(normalizeTags(raw["tags"]))
	item.Metadata = marshalJSON(extractMetadata(raw))
	item.RawData = marshalJSON(raw)

	return item, nil
}

// asString 把任意标量转成字符串，非标量返回空串
func asString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON数字统一是float64，整数值不带小数位输出
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// normalizeTags 标签统一为小写、去空、去重、排序
// 接受JSON数组或逗号分隔字符串
func normalizeTags(v interface{}) []string {
	var rawTags []string

	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			rawTags = append(rawTags, asString(item))
		}
	case []string:
		rawTags = t
	case string:
		rawTags = strings.Split(t, ",")
	default:
		return []string{}
	}

	seen := make(map[string]struct{}, len(rawTags))
	tags := make([]string, 0, len(rawTags))
	for _, tag := range rawTags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// clampRiskScore 解析风险评分并夹在 [0,100]
func clampRiskScore(v interface{}) int {
	var score int
	switch t := v.(type) {
	case float64:
		score = int(t)
	case int:
		score = t
	case int64:
		score = int(t)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		score = parsed
	default:
		return 0
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// extractMetadata 收集显式metadata键和所有未识别的键
func extractMetadata(raw map[string]interface{}) map[string]interface{} {
	known := map[string]struct{}{
		"hostname": {}, "ip_address": {}, "mac_address": {}, "os": {}, "os_version": {},
		"asset_category": {}, "asset_type": {}, "manufacturer": {}, "model": {},
		"serial_number": {}, "location": {}, "department": {}, "owner": {},
		"tags": {}, "risk_score": {}, "source": {}, "external_id": {}, "metadata": {},
	}

	metadata := make(map[string]interface{})

	// 显式metadata对象先并入
	if m, ok := raw["metadata"].(map[string]interface{}); ok {
		for k, v := range m {
			metadata[k] = v
		}
	}

	// 未识别的顶层键折叠进metadata，保留上游的全部信息
	for k, v := range raw {
		if _, ok := known[k]; ok {
			continue
		}
		metadata[k] = v
	}

	return metadata
}

// marshalJSON 序列化为JSON字符串，失败时返回空对象
func marshalJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprintf("unserializable: %v", err))
	}
	return string(data)
}
