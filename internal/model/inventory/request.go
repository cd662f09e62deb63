/**
 * 模型:请求模型
 * @description: 资产准入相关的API请求结构体
 * @func: 各种Request结构体定义
 */
package inventory

// IngestRequest webhook批量导入请求
// items 中每条是一个任意结构的原始设备记录，由规范化器解释
type IngestRequest struct {
	BatchID string                   `json:"batch_id"` // 批次标识(可为空,为空时服务端生成)
	Items   []map[string]interface{} `json:"items" binding:"required"`
}

// DecisionRequest 人工决策请求(approve/reject/flag)
type DecisionRequest struct {
	Comment string `json:"comment"` // 决策备注(可为空)
}

// CreateAIConfigRequest 创建AI配置请求
type CreateAIConfigRequest struct {
	Name           string  `json:"name" binding:"required"`
	Provider       string  `json:"provider" binding:"required"`
	APIURL         string  `json:"api_url"`
	APIKey         string  `json:"api_key"` // 明文仅存在于请求中,入库前加密
	Model          string  `json:"model"`
	PromptTemplate string  `json:"prompt_template"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	TimeoutSeconds int     `json:"timeout_seconds"`
	Enabled        *bool   `json:"enabled"`
	AutoProcess    *bool   `json:"auto_process"`
	WebhookURL     string  `json:"webhook_url"`
}

// UpdateAIConfigRequest 更新AI配置请求
// 指针字段为 nil 表示不修改；APIKey 为空字符串表示保留原密钥
type UpdateAIConfigRequest struct {
	Name           *string  `json:"name"`
	Provider       *string  `json:"provider"`
	APIURL         *string  `json:"api_url"`
	APIKey         string   `json:"api_key"`
	Model          *string  `json:"model"`
	PromptTemplate *string  `json:"prompt_template"`
	Temperature    *float64 `json:"temperature"`
	MaxTokens      *int     `json:"max_tokens"`
	TimeoutSeconds *int     `json:"timeout_seconds"`
	Enabled        *bool    `json:"enabled"`
	AutoProcess    *bool    `json:"auto_process"`
	WebhookURL     *string  `json:"webhook_url"`
}

// TestAIConfigRequest 配置连通性测试请求
// 不落库,直接用请求中的参数对合成样本发起一次真实调用
type TestAIConfigRequest struct {
	Provider       string  `json:"provider" binding:"required"`
	APIURL         string  `json:"api_url"`
	APIKey         string  `json:"api_key"`
	Model          string  `json:"model"`
	PromptTemplate string  `json:"prompt_template"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	TimeoutSeconds int     `json:"timeout_seconds"`
}

// CreateRuleRequest 创建规则请求
type CreateRuleRequest struct {
	Name     string `json:"name" binding:"required"`
	Priority int    `json:"priority"`
	Field    string `json:"field" binding:"required"`
	Operator string `json:"operator" binding:"required"`
	Value    string `json:"value" binding:"required"`
	Action   string `json:"action" binding:"required"`
	Enabled  *bool  `json:"enabled"`
}

// UpdateRuleRequest 更新规则请求
type UpdateRuleRequest struct {
	Name     *string `json:"name"`
	Priority *int    `json:"priority"`
	Field    *string `json:"field"`
	Operator *string `json:"operator"`
	Value    *string `json:"value"`
	Action   *string `json:"action"`
	Enabled  *bool   `json:"enabled"`
}

// CreateSourceRequest 创建数据源请求
type CreateSourceRequest struct {
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type" binding:"required"`
	Endpoint string `json:"endpoint"`
	Schedule string `json:"schedule"`
	Enabled  *bool  `json:"enabled"`
}

// UpdateSourceRequest 更新数据源请求
type UpdateSourceRequest struct {
	Name     *string `json:"name"`
	Type     *string `json:"type"`
	Endpoint *string `json:"endpoint"`
	Schedule *string `json:"schedule"`
	Enabled  *bool   `json:"enabled"`
}

// ItemListQuery 资产列表查询参数
type ItemListQuery struct {
	Status        string `form:"status"`         // 按状态过滤
	AssetCategory string `form:"asset_category"` // 按类别过滤
	Source        string `form:"source"`         // 按来源过滤
	Keyword       string `form:"keyword"`        // hostname/ip/owner 模糊搜索
	Page          int    `form:"page"`
	PageSize      int    `form:"page_size"`
}
