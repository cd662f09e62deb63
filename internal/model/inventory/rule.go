package inventory

import (
	"neoinventory/internal/model/basemodel"
)

// 规则操作符
const (
	OperatorEq          = "eq"           // 等于(字符串不区分大小写)
	OperatorContains    = "contains"     // 包含
	OperatorNotContains = "not_contains" // 不包含
	OperatorGt          = "gt"           // 大于(数值比较)
	OperatorLt          = "lt"           // 小于(数值比较)
	OperatorIn          = "in"           // 属于集合(逗号分隔)
)

// 规则动作
const (
	RuleActionApprove = "approve" // 准入
	RuleActionReject  = "reject"  // 拒绝
	RuleActionFlag    = "flag"    // 标记
)

// IsValidOperator 检查操作符是否合法
func IsValidOperator(op string) bool {
	switch op {
	case OperatorEq, OperatorContains, OperatorNotContains, OperatorGt, OperatorLt, OperatorIn:
		return true
	}
	return false
}

// IsValidRuleAction 检查规则动作是否合法
func IsValidRuleAction(action string) bool {
	switch action {
	case RuleActionApprove, RuleActionReject, RuleActionFlag:
		return true
	}
	return false
}

// Rule 准入规则表
// 规则按 priority 升序评估，priority 相同时按创建顺序(id 升序)，首条命中即生效
type Rule struct {
	basemodel.BaseModel

	TenantID string `json:"tenant_id" gorm:"size:64;not null;index;comment:租户标识"`
	Name     string `json:"name" gorm:"size:100;not null;comment:规则名称"`
	Priority int    `json:"priority" gorm:"default:100;index;comment:优先级(越小越先评估)"`
	Field    string `json:"field" gorm:"size:50;not null;comment:匹配字段(hostname/ip_address/os/asset_category/tags/risk_score等)"`
	Operator string `json:"operator" gorm:"size:20;not null;comment:操作符(eq/contains/not_contains/gt/lt/in)"`
	Value    string `json:"value" gorm:"size:255;not null;comment:匹配值"`
	Action   string `json:"action" gorm:"size:20;not null;comment:命中动作(approve/reject/flag)"`
	Enabled  bool   `json:"enabled" gorm:"default:true;comment:是否启用"`
}

// TableName 定义数据库表名
func (Rule) TableName() string {
	return "inventory_rules"
}
