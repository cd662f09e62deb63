package inventory

import (
	"neoinventory/internal/model/basemodel"
)

// AI后端类型
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderGroq      = "groq"
	ProviderDeepSeek  = "deepseek"
)

// IsValidProvider 检查后端类型是否受支持
func IsValidProvider(provider string) bool {
	switch provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderGroq, ProviderDeepSeek:
		return true
	}
	return false
}

// AIProviderConfig AI后端配置表
// 每租户可保存多份配置，但任一时刻最多一份处于激活状态(由服务层保证)
// API密钥只存储加密后的密文，明文从不落库
type AIProviderConfig struct {
	basemodel.BaseModel

	TenantID       string  `json:"tenant_id" gorm:"size:64;not null;index;comment:租户标识"`
	Name           string  `json:"name" gorm:"size:100;not null;comment:配置名称"`
	Provider       string  `json:"provider" gorm:"size:20;not null;comment:后端类型(openai/anthropic/ollama/groq/deepseek)"`
	APIURL         string  `json:"api_url" gorm:"size:255;comment:API地址(为空时用后端默认地址)"`
	APIKeySealed   string  `json:"-" gorm:"type:text;comment:API密钥密文(secretbox)"`
	Model          string  `json:"model" gorm:"size:100;comment:模型名称"`
	PromptTemplate string  `json:"prompt_template" gorm:"type:text;comment:提示词模板({placeholder}替换)"`
	Temperature    float64 `json:"temperature" gorm:"default:0.1;comment:采样温度"`
	MaxTokens      int     `json:"max_tokens" gorm:"default:500;comment:最大生成token数"`
	TimeoutSeconds int     `json:"timeout_seconds" gorm:"default:30;comment:单次调用超时(秒)"`
	Enabled        bool    `json:"enabled" gorm:"default:true;comment:是否可用"`
	AutoProcess    bool    `json:"auto_process" gorm:"default:true;comment:导入时是否自动调用AI评估"`
	Active         bool    `json:"active" gorm:"default:false;index;comment:是否为当前激活配置"`
	WebhookURL     string  `json:"webhook_url" gorm:"size:255;comment:处理结果回调地址(可为空)"`
}

// TableName 定义数据库表名
func (AIProviderConfig) TableName() string {
	return "ai_provider_configs"
}

// ShouldAutoProcess 激活且启用且开启自动处理时，导入走AI评估
func (c *AIProviderConfig) ShouldAutoProcess() bool {
	return c != nil && c.Active && c.Enabled && c.AutoProcess
}
