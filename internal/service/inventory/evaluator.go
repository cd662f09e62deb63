/**
 * 服务:规则评估器
 * @description: 确定性的准入规则匹配,AI不可用或未启用自动处理时的决策来源
 * @func: Evaluate纯函数,首条命中即生效
 */
package inventory

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	invmodel "neoinventory/internal/model/inventory"
)

// Evaluator 规则评估器
// 纯计算,不访问存储;规则顺序 (priority asc, id asc),首条命中生效
type Evaluator struct{}

// NewEvaluator 创建规则评估器
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate 对资产评估规则集
// 返回命中动作与命中的规则;没有任何规则命中时 ok=false,由调用方决定默认行为
func (e *Evaluator) Evaluate(item *invmodel.InventoryItem, rules []*invmodel.Rule) (string, *invmodel.Rule, bool) {
	if item == nil || len(rules) == 0 {
		return "", nil, false
	}

	// 入参顺序不可信,评估前强制排序
	ordered := make([]*invmodel.Rule, 0, len(rules))
	for _, rule := range rules {
		if rule != nil && rule.Enabled {
			ordered = append(ordered, rule)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, rule := range ordered {
		if e.matches(item, rule) {
			return rule.Action, rule, true
		}
	}

	return "", nil, false
}

// matches 单条规则匹配
func (e *Evaluator) matches(item *invmodel.InventoryItem, rule *invmodel.Rule) bool {
	fieldValue, ok := itemFieldValue(item, rule.Field)
	if !ok {
		return false
	}

	target := strings.TrimSpace(rule.Value)

	switch rule.Operator {
	case invmodel.OperatorEq:
		return strings.EqualFold(fieldValue, target)
	case invmodel.OperatorContains:
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(target))
	case invmodel.OperatorNotContains:
		return !strings.Contains(strings.ToLower(fieldValue), strings.ToLower(target))
	case invmodel.OperatorGt:
		fv, tv, numOK := toNumbers(fieldValue, target)
		return numOK && fv > tv
	case invmodel.OperatorLt:
		fv, tv, numOK := toNumbers(fieldValue, target)
		return numOK && fv < tv
	case invmodel.OperatorIn:
		for _, candidate := range strings.Split(target, ",") {
			if strings.EqualFold(fieldValue, strings.TrimSpace(candidate)) {
				return true
			}
		}
		return false
	default:
		// 未知操作符永不命中
		return false
	}
}

// itemFieldValue 取资产的可匹配字段值
func itemFieldValue(item *invmodel.InventoryItem, field string) (string, bool) {
	switch field {
	case "hostname":
		return item.Hostname, true
	case "ip_address":
		return item.IPAddress, true
	case "mac_address":
		return item.MACAddress, true
	case "os":
		return item.OS, true
	case "os_version":
		return item.OSVersion, true
	case "asset_category":
		return item.AssetCategory, true
	case "manufacturer":
		return item.Manufacturer, true
	case "model":
		return item.Model, true
	case "serial_number":
		return item.SerialNumber, true
	case "location":
		return item.Location, true
	case "department":
		return item.Department, true
	case "owner":
		return item.Owner, true
	case "source":
		return item.Source, true
	case "external_id":
		return item.ExternalID, true
	case "risk_score":
		return strconv.Itoa(item.RiskScore), true
	case "tags":
		return joinedTags(item.Tags), true
	default:
		return "", false
	}
}

// joinedTags 把JSON数组形式的标签拼成逗号分隔串用于匹配
func joinedTags(tagsJSON string) string {
	if tagsJSON == "" {
		return ""
	}
	var tags []string
	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return tagsJSON
	}
	return strings.Join(tags, ",")
}

// toNumbers 把两侧都转为数值,任一侧失败则不可比较
func toNumbers(a, b string) (float64, float64, bool) {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	return fa, fb, true
}
