package inventory

import (
	"neoinventory/internal/model/basemodel"
)

// ProcessingLogEntry 处理日志表
// 每次自动评估或人工决策追加一条，只增不改，用于审计溯源
type ProcessingLogEntry struct {
	basemodel.BaseModel

	ItemID      uint64  `json:"item_id" gorm:"not null;index;comment:资产ID"`
	TenantID    string  `json:"tenant_id" gorm:"size:64;not null;index;comment:租户标识"`
	Prompt      string  `json:"prompt" gorm:"type:text;comment:发送给AI的完整提示词"`
	Provider    string  `json:"provider" gorm:"size:20;comment:后端类型"`
	Model       string  `json:"model" gorm:"size:100;comment:模型名称"`
	RawResponse string  `json:"raw_response" gorm:"type:text;comment:AI原始响应体"`
	Decision    string  `json:"decision" gorm:"size:20;comment:决策结果"`
	Confidence  float64 `json:"confidence" gorm:"comment:置信度(0-1)"`
	LatencyMS   int64   `json:"latency_ms" gorm:"comment:调用耗时(毫秒)"`
	Error       string  `json:"error" gorm:"type:text;comment:失败原因(成功时为空)"`
	Actor       string  `json:"actor" gorm:"size:100;comment:操作者(人工决策时记录)"`
	ProcessedBy string  `json:"processed_by" gorm:"size:20;comment:决策来源(ai/rule/manual)"`
}

// TableName 定义数据库表名
func (ProcessingLogEntry) TableName() string {
	return "processing_logs"
}
