package inventory

import (
	"time"

	"neoinventory/internal/model/basemodel"
)

// ItemStatus 资产准入状态
type ItemStatus string

const (
	ItemStatusPending  ItemStatus = "pending"  // 待处理
	ItemStatusApproved ItemStatus = "approved" // 已准入
	ItemStatusRejected ItemStatus = "rejected" // 已拒绝
	ItemStatusFlag     ItemStatus = "flag"     // 已标记(需人工关注)
	ItemStatusArchived ItemStatus = "archived" // 已归档(终态,自动流程不再评估)
)

// IsValid 检查状态是否合法
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusPending, ItemStatusApproved, ItemStatusRejected, ItemStatusFlag, ItemStatusArchived:
		return true
	}
	return false
}

// 决策来源
const (
	ProcessedByAI     = "ai"     // AI后端决策
	ProcessedByRule   = "rule"   // 规则引擎决策
	ProcessedByManual = "manual" // 人工决策
)

// InventoryItem 资产台账表
// 存储从外部源(webhook/定时拉取)导入并规范化后的设备记录
// (tenant_id, source, external_id) 在 external_id 非空时构成逻辑唯一键;
// 无外部键的记录每次导入都新建,唯一性由引擎的键级互斥锁在应用层保证
type InventoryItem struct {
	basemodel.BaseModel

	TenantID      string     `json:"tenant_id" gorm:"size:64;not null;index:idx_tenant_status;index:idx_external_key;comment:租户标识"`
	Source        string     `json:"source" gorm:"size:100;index:idx_external_key;comment:数据来源标识"`
	ExternalID    string     `json:"external_id" gorm:"size:128;index:idx_external_key;comment:外部唯一标识(可为空)"`
	Hostname      string     `json:"hostname" gorm:"size:255;index;comment:主机名"`
	IPAddress     string     `json:"ip_address" gorm:"size:64;index;comment:IP地址(规范化)"`
	MACAddress    string     `json:"mac_address" gorm:"size:32;comment:MAC地址(规范化)"`
	OS            string     `json:"os" gorm:"size:100;comment:操作系统"`
	OSVersion     string     `json:"os_version" gorm:"size:100;comment:操作系统版本"`
	AssetCategory string     `json:"asset_category" gorm:"size:50;default:'unknown';comment:资产类别"`
	Manufacturer  string     `json:"manufacturer" gorm:"size:100;comment:制造商"`
	Model         string     `json:"model" gorm:"size:100;comment:型号"`
	SerialNumber  string     `json:"serial_number" gorm:"size:100;comment:序列号"`
	Location      string     `json:"location" gorm:"size:100;comment:位置"`
	Department    string     `json:"department" gorm:"size:100;comment:部门"`
	Owner         string     `json:"owner" gorm:"size:100;comment:负责人"`
	Tags          string     `json:"tags" gorm:"type:json;comment:标签(JSON数组,小写去重)"`
	RiskScore     int        `json:"risk_score" gorm:"default:0;comment:风险评分(0-100)"`
	Status        ItemStatus `json:"status" gorm:"size:20;default:'pending';index:idx_tenant_status;comment:准入状态(pending/approved/rejected/flag/archived)"`
	DecisionReason string    `json:"decision_reason" gorm:"type:text;comment:决策依据"`
	ProcessedBy   string     `json:"processed_by" gorm:"size:20;comment:决策来源(ai/rule/manual)"`
	ProcessedAt   *time.Time `json:"processed_at" gorm:"comment:决策时间"`
	FirstSeenAt   time.Time  `json:"first_seen_at" gorm:"comment:首次出现时间"`
	LastSeenAt    time.Time  `json:"last_seen_at" gorm:"comment:最近出现时间"`
	Metadata      string     `json:"metadata" gorm:"type:json;comment:扩展元数据(JSON)"`
	RawData       string     `json:"raw_data" gorm:"type:json;comment:原始提交数据(JSON)"`
}

// TableName 定义数据库表名
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// HasExternalKey 是否携带外部唯一键
// 无外部键的记录每次导入都新建，不参与幂等合并
func (i *InventoryItem) HasExternalKey() bool {
	return i.ExternalID != ""
}

// IsArchived 是否已归档
func (i *InventoryItem) IsArchived() bool {
	return i.Status == ItemStatusArchived
}

// Identifier 对外展示的最佳标识:优先external_id,其次hostname,再次ip
func (i *InventoryItem) Identifier() string {
	if i.ExternalID != "" {
		return i.ExternalID
	}
	if i.Hostname != "" {
		return i.Hostname
	}
	return i.IPAddress
}
