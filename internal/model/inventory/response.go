/**
 * 模型:响应模型
 * @description: 资产准入相关的API响应结构体与流水线内部结果类型
 * @func: Classification/ItemOutcome/BatchResult等结构体定义
 */
package inventory

// 导入结果类型
const (
	OutcomeCreated             = "created"                // 新建
	OutcomeUpdated             = "updated"                // 已存在,合并更新
	OutcomeRejectedValidation  = "rejected_at_validation" // 规范化失败,未落库
)

// Classification AI后端返回的结构化决策
// decision 必须落在四个合法值之内，否则网关按 malformed_response 处理
type Classification struct {
	Decision               string   `json:"decision"`                 // approved/rejected/pending/flag
	Comments               string   `json:"comments"`                 // 决策说明
	Confidence             float64  `json:"confidence"`               // 置信度(0-1)
	SuggestedTags          []string `json:"suggested_tags"`           // 建议标签
	SuggestedRiskScore     *int     `json:"suggested_risk_score"`     // 建议风险评分
	SuggestedAssetCategory string   `json:"suggested_asset_category"` // 建议资产类别
	RawResponse            string   `json:"-"`                        // 原始响应体(留存日志)
	LatencyMS              int64    `json:"-"`                        // 调用耗时(毫秒)
}

// IsValidDecision 检查决策值是否合法
func IsValidDecision(decision string) bool {
	switch decision {
	case string(ItemStatusApproved), string(ItemStatusRejected), string(ItemStatusPending), string(ItemStatusFlag):
		return true
	}
	return false
}

// ItemOutcome 批次中单条记录的处理结果
type ItemOutcome struct {
	Identifier      string     `json:"identifier"`                 // 记录标识(external_id或hostname或ip)
	Outcome         string     `json:"status"`                     // created/updated/rejected_at_validation
	ItemID          uint64     `json:"item_id,omitempty"`          // 落库后的资产ID
	InventoryStatus ItemStatus `json:"inventory_status,omitempty"` // 处理后的准入状态
	DecisionReason  string     `json:"decision_reason,omitempty"`  // 决策依据
	Error           string     `json:"error,omitempty"`            // 该条记录的错误信息
}

// BatchResult webhook批量导入响应
type BatchResult struct {
	BatchID  string        `json:"batch_id"` // 批次标识
	Total    int           `json:"total"`    // 提交总数
	Created  int           `json:"created"`  // 新建数
	Updated  int           `json:"updated"`  // 更新数
	Rejected int           `json:"rejected"` // 校验拒绝数
	Outcomes []ItemOutcome `json:"outcomes"` // 逐条结果(与提交顺序一致)
}

// ItemStats 按状态统计
type ItemStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Flag     int64 `json:"flag"`
	Archived int64 `json:"archived"`
}
