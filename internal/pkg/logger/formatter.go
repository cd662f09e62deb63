// 自定义日志格式化器与分类型日志辅助函数
package logger

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// FormatTimestamp 格式化时间戳为统一的毫秒精度格式
// 返回格式："2006-01-02 15:04:05.000"
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000")
}

// NowFormatted 返回当前时间的格式化字符串
func NowFormatted() string {
	return FormatTimestamp(time.Now())
}

// LogType 日志类型枚举
type LogType string

const (
	// AccessLog 访问日志 - 记录HTTP请求和API调用
	AccessLog LogType = "access"
	// BusinessLog 业务日志 - 记录业务操作（导入、决策等）
	BusinessLog LogType = "business"
	// ErrorLog 错误日志 - 记录系统错误和异常
	ErrorLog LogType = "error"
	// SystemLog 系统日志 - 记录系统运行状态
	SystemLog LogType = "system"
	// ProviderLog AI调用日志 - 记录对AI后端的每次请求
	ProviderLog LogType = "provider"
	// DebugLog 调试日志 - 记录开发调试信息
	DebugLog LogType = "debug"
	// AuditLog 审计日志 - 记录人工决策等安全相关操作
	AuditLog LogType = "audit"
)

// LogAccessRequest 记录HTTP访问日志
// 用于记录所有HTTP请求的详细信息，包括请求参数、响应时间、状态码等
func LogAccessRequest(c *gin.Context, startTime time.Time, requestID, tenantID string) {
	if LoggerInstance == nil {
		return
	}

	responseTime := time.Since(startTime).Milliseconds()

	LoggerInstance.logger.WithFields(logrus.Fields{
		"type":          AccessLog,
		"method":        c.Request.Method,
		"path":          c.Request.URL.Path,
		"query":         c.Request.URL.RawQuery,
		"status_code":   c.Writer.Status(),
		"response_time": responseTime,
		"client_ip":     c.ClientIP(),
		"user_agent":    c.Request.UserAgent(),
		"tenant_id":     tenantID,
		"request_id":    requestID,
		"request_size":  c.Request.ContentLength,
		"response_size": int64(c.Writer.Size()),
	}).Info("HTTP request processed")
}

// LogBusinessOperation 记录业务操作日志
// 用于记录批次导入、资产状态流转等业务操作
func LogBusinessOperation(operation, tenantID, actor, clientIP, requestID, result, message string, extraFields map[string]interface{}) {
	if LoggerInstance == nil {
		return
	}

	fields := logrus.Fields{
		"type":       BusinessLog,
		"operation":  operation,
		"tenant_id":  tenantID,
		"actor":      actor,
		"client_ip":  clientIP,
		"result":     result,
		"message":    message,
		"request_id": requestID,
	}

	// 添加额外字段
	for k, v := range extraFields {
		fields[k] = v
	}

	// 根据结果选择日志级别
	if result == "success" {
		LoggerInstance.logger.WithFields(fields).Info(fmt.Sprintf("Business operation: %s", operation))
	} else {
		LoggerInstance.logger.WithFields(fields).Warn(fmt.Sprintf("Business operation failed: %s", operation))
	}
}

// LogError 记录错误日志
// 用于记录系统错误、异常和业务错误
func LogError(err error, requestID, tenantID, clientIP, path, method string, extraFields map[string]interface{}) {
	if LoggerInstance == nil {
		return
	}

	if err == nil {
		return
	}

	fields := logrus.Fields{
		"type":       ErrorLog,
		"level":      "error",
		"error":      err.Error(),
		"request_id": requestID,
		"tenant_id":  tenantID,
		"client_ip":  clientIP,
		"path":       path,
		"method":     method,
	}

	// 添加额外字段
	for k, v := range extraFields {
		fields[k] = v
	}

	LoggerInstance.logger.WithFields(fields).Errorf("System error occurred: %s", err.Error())
}

// LogSystemEvent 记录系统事件日志
// 用于记录系统启动、关闭、组件状态变化等系统级事件
func LogSystemEvent(component, event, message string, level logrus.Level, extraFields map[string]interface{}) {
	if LoggerInstance == nil {
		return
	}

	fields := logrus.Fields{
		"type":      SystemLog,
		"component": component,
		"event":     event,
		"message":   message,
		"level":     level.String(),
	}

	// 添加额外字段
	for k, v := range extraFields {
		fields[k] = v
	}

	// 根据级别记录日志
	switch level {
	case logrus.DebugLevel:
		LoggerInstance.logger.WithFields(fields).Debug(fmt.Sprintf("System event: %s - %s", component, event))
	case logrus.InfoLevel:
		LoggerInstance.logger.WithFields(fields).Info(fmt.Sprintf("System event: %s - %s", component, event))
	case logrus.WarnLevel:
		LoggerInstance.logger.WithFields(fields).Warn(fmt.Sprintf("System event: %s - %s", component, event))
	case logrus.ErrorLevel:
		LoggerInstance.logger.WithFields(fields).Error(fmt.Sprintf("System event: %s - %s", component, event))
	case logrus.FatalLevel:
		LoggerInstance.logger.WithFields(fields).Fatal(fmt.Sprintf("System event: %s - %s", component, event))
	default:
		LoggerInstance.logger.WithFields(fields).Info(fmt.Sprintf("System event: %s - %s", component, event))
	}
}

// LogProviderCall 记录AI后端调用日志
// 每次对AI后端的请求记录一条，包含耗时与结果，失败时附带错误分类
func LogProviderCall(tenantID, provider, model, decision string, latencyMS int64, callErr error, extraFields map[string]interface{}) {
	if LoggerInstance == nil {
		return
	}

	fields := logrus.Fields{
		"type":       ProviderLog,
		"tenant_id":  tenantID,
		"provider":   provider,
		"model":      model,
		"decision":   decision,
		"latency_ms": latencyMS,
	}

	for k, v := range extraFields {
		fields[k] = v
	}

	if callErr != nil {
		fields["error"] = callErr.Error()
		LoggerInstance.logger.WithFields(fields).Warnf("Provider call failed: %s", provider)
		return
	}

	LoggerInstance.logger.WithFields(fields).Infof("Provider call completed: %s", provider)
}

// LogAuditOperation 记录审计日志
// 用于记录人工决策、配置变更等需要留痕的操作
func LogAuditOperation(tenantID, actor, action, resource, result, clientIP, userAgent, requestID string, extraFields map[string]interface{}) {
	if LoggerInstance == nil {
		return
	}

	fields := logrus.Fields{
		"type":       AuditLog,
		"tenant_id":  tenantID,
		"actor":      actor,
		"action":     action,
		"resource":   resource,
		"result":     result,
		"client_ip":  clientIP,
		"user_agent": userAgent,
		"request_id": requestID,
	}

	// 添加额外字段
	for k, v := range extraFields {
		fields[k] = v
	}

	LoggerInstance.logger.WithFields(fields).Info(fmt.Sprintf("Audit: %s performed %s on %s", actor, action, resource))
}
