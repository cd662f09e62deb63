/**
 * 模型:错误定义
 * @description: 系统错误常量和错误类型定义
 * @func: 各种错误常量、ValidationError/ProviderError等错误结构体
 */
package system

import (
	"errors"
	"fmt"
)

// 资产准入相关错误
var (
	// 业务逻辑错误
	ErrItemNotFound       = errors.New("资产不存在")
	ErrItemArchived       = errors.New("资产已归档,禁止操作")
	ErrItemNotArchived    = errors.New("资产未归档,无需恢复")
	ErrConfigNotFound     = errors.New("AI配置不存在")
	ErrNoActiveConfig     = errors.New("租户没有启用的AI配置")
	ErrRuleNotFound       = errors.New("规则不存在")
	ErrSourceNotFound     = errors.New("数据源不存在")
	ErrDuplicateItem      = errors.New("资产已存在")
	ErrEmptyBatch         = errors.New("批次为空")
	ErrTenantMismatch     = errors.New("租户不匹配")

	// 认证错误
	ErrTokenExpired     = errors.New("令牌已过期")
	ErrTokenInvalid     = errors.New("令牌无效")
	ErrUnauthorized     = errors.New("未授权访问")
	ErrPermissionDenied = errors.New("权限不足")
)

// ValidationError 验证错误结构体
// 规范化失败时返回，调用方据此把该条记录标记为 rejected_at_validation
type ValidationError struct {
	Field   string `json:"field"`   // 字段名
	Message string `json:"message"` // 错误消息
}

// NewValidationError 创建验证错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError 检查是否为验证错误
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ProviderErrorKind AI调用失败分类
type ProviderErrorKind string

const (
	ProviderErrorTimeout     ProviderErrorKind = "timeout"            // 调用超时
	ProviderErrorAuth        ProviderErrorKind = "auth"               // 认证失败(401/403)
	ProviderErrorMalformed   ProviderErrorKind = "malformed_response" // 响应无法解析为合法决策
	ProviderErrorUnavailable ProviderErrorKind = "unavailable"        // 服务不可用(5xx/429/连接失败)
)

// ProviderError AI后端调用错误
// 网关的所有失败都归入此类型，引擎据此记录日志并回退到规则
type ProviderError struct {
	Kind     ProviderErrorKind `json:"kind"`     // 失败分类
	Provider string            `json:"provider"` // 后端类型
	Message  string            `json:"message"`  // 错误消息
	Raw      string            `json:"-"`        // 原始响应体(留存到处理日志)
	Err      error             `json:"-"`        // 底层错误
}

// NewProviderError 创建AI调用错误
func NewProviderError(kind ProviderErrorKind, provider, message string) *ProviderError {
	return &ProviderError{
		Kind:     kind,
		Provider: provider,
		Message:  message,
	}
}

// Error 实现error接口
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %s", e.Provider, e.Kind, e.Message)
}

// Unwrap 返回底层错误
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError 检查是否为AI调用错误
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// ConfigurationError 配置错误结构体
// AI配置缺失或字段非法时返回
type ConfigurationError struct {
	Message string `json:"message"` // 错误消息
}

// NewConfigurationError 创建配置错误
func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{Message: message}
}

// Error 实现error接口
func (e *ConfigurationError) Error() string {
	return e.Message
}
