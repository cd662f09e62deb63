/**
 * 中间件:认证相关中间件
 * @description: 定义认证相关中间件
 * @func:
 *   - GinJWTAuthMiddleware: Gin JWT认证中间件,校验令牌并把租户身份写入上下文
 *   - GinRequireAnyRole: 检查令牌是否携带任意指定角色
 */
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"neoinventory/internal/model/system"
	"neoinventory/internal/pkg/auth"
	"neoinventory/internal/pkg/logger"
	"neoinventory/internal/pkg/utils"
)

// GinJWTAuthMiddleware Gin JWT认证中间件
// 验证请求头中的JWT令牌，并将租户信息存储到Gin上下文中
// 使用方式: router.Use(middlewareManager.GinJWTAuthMiddleware())
func (m *MiddlewareManager) GinJWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := utils.GetClientIP(c)
		XRequestID := c.GetHeader("X-Request-ID")
		userAgent := c.GetHeader("User-Agent")

		// 从请求头中提取访问令牌
		accessToken := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if accessToken == "" {
			c.JSON(http.StatusUnauthorized, system.APIResponse{
				Code:    http.StatusUnauthorized,
				Status:  "failed",
				Message: "missing or invalid authorization header",
				Error:   system.ErrUnauthorized.Error(),
			})
			c.Abort()
			return
		}

		// 验证令牌 accessToken
		claims, err := m.jwtManager.ValidateAccessToken(accessToken)
		if err != nil {
			tokenPrefix := accessToken
			if len(tokenPrefix) > 10 {
				tokenPrefix = tokenPrefix[:10] + "..."
			}
			logger.LogError(err, XRequestID, "", clientIP, "token_validation", "GET", map[string]interface{}{
				"operation":    "token_validation",
				"token_prefix": tokenPrefix,
				"client_ip":    clientIP,
				"user_agent":   userAgent,
				"X-Request-ID": XRequestID,
				"timestamp":    logger.NowFormatted(),
			})
			c.JSON(http.StatusUnauthorized, system.APIResponse{
				Code:    http.StatusUnauthorized,
				Status:  "failed",
				Message: "invalid or expired token",
				Error:   err.Error(),
			})
			c.Abort()
			return
		}

		// 将租户信息添加到Gin上下文,后续handler通过c.GetString("tenant_id")获取
		c.Set("tenant_id", claims.TenantID)
		c.Set("actor", claims.Actor)
		c.Set("roles", claims.Roles)
		c.Set("claims", claims)

		c.Next()
	}
}

// GinRequireAnyRole Gin任意角色验证中间件
// 令牌携带的角色中任意一个命中即通过
// 使用方式: router.Use(middlewareManager.GinRequireAnyRole("admin", "operator"))
func (m *MiddlewareManager) GinRequireAnyRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("roles")
		if !exists {
			c.JSON(http.StatusUnauthorized, system.APIResponse{
				Code:    http.StatusUnauthorized,
				Status:  "failed",
				Message: "tenant not authenticated",
			})
			c.Abort()
			return
		}

		granted, _ := value.([]string)
		for _, need := range roles {
			for _, have := range granted {
				if need == have {
					c.Next()
					return
				}
			}
		}

		c.JSON(http.StatusForbidden, system.APIResponse{
			Code:    http.StatusForbidden,
			Status:  "failed",
			Message: "insufficient role privileges",
		})
		c.Abort()
	}
}
