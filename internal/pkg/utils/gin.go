package utils

import "github.com/gin-gonic/gin"

// GetClientIP 获取规范化后的客户端IP
func GetClientIP(c *gin.Context) string {
	return NormalizeIP(c.ClientIP())
}
