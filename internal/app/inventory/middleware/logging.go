/**
 * 中间件:日志相关中间件
 * @description: 定义日志中间件
 * @func:
 *   - GinLoggingMiddleware Gin日志中间件[同时把客户端IP存储到Gin上下文,供后续使用]
 */
package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"neoinventory/internal/pkg/logger"
	"neoinventory/internal/pkg/utils"
)

// GinLoggingMiddleware Gin日志中间件
// 记录所有HTTP请求的访问日志和错误日志
// 使用方式: router.Use(middlewareManager.GinLoggingMiddleware())
func (m *MiddlewareManager) GinLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// 提取并格式化客户端IP
		clientIP := utils.GetClientIP(c)
		XRequestID := c.GetHeader("X-Request-ID")
		userAgent := c.GetHeader("User-Agent")

		// 存储到Gin上下文,这个是标准化后的可以用作业务使用的客户端IP
		c.Set("client_ip", clientIP)

		// 处理请求
		c.Next()

		// 记录访问日志,认证中间件在本中间件之后设置租户信息
		tenantID := c.GetString("tenant_id")
		logger.LogAccessRequest(c, start, XRequestID, tenantID)

		// 如果是错误状态码，记录错误日志
		statusCode := c.Writer.Status()
		if statusCode >= 400 {
			errorMsg := ""
			if errs := c.Errors; len(errs) > 0 {
				errorMsg = errs.String()
			} else {
				errorMsg = http.StatusText(statusCode)
			}

			logger.LogError(fmt.Errorf("HTTP %d: %s", statusCode, errorMsg), XRequestID, tenantID, clientIP, c.Request.URL.String(), c.Request.Method, map[string]interface{}{
				"operation":    "http_request",
				"method":       c.Request.Method,
				"status_code":  statusCode,
				"client_ip":    clientIP,
				"user_agent":   userAgent,
				"X-Request-ID": XRequestID,
				"timestamp":    logger.NowFormatted(),
			})
		}
	}
}
