package inventory

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// 中间件写入gin上下文的键
const (
	ContextKeyTenantID = "tenant_id"
	ContextKeyActor    = "actor"
)

// tenantFrom 从上下文取租户标识(认证中间件写入)
func tenantFrom(c *gin.Context) string {
	return c.GetString(ContextKeyTenantID)
}

// actorFrom 从上下文取操作者标识
func actorFrom(c *gin.Context) string {
	return c.GetString(ContextKeyActor)
}

// parseID 解析路径中的数字ID
func parseID(c *gin.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
