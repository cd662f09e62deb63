/**
 * 路由:资产准入路由
 * @description: 批量导入、资产查询与人工决策、AI配置、规则、数据源的路由注册
 * @func:
 */
package router

import (
	"github.com/gin-gonic/gin"
)

// setupInventoryRoutes 设置资产准入路由
// 全部路由需要JWT认证,管理类路由额外要求admin角色
func (r *Router) setupInventoryRoutes(v1 *gin.RouterGroup) {
	inventory := v1.Group("/inventory")
	inventory.Use(r.middlewareManager.GinJWTAuthMiddleware())
	{
		// 批量导入入口,按租户+来源限流
		inventory.POST("/webhook/:source",
			r.middlewareManager.GinIngestRateLimitMiddleware(),
			r.module.IngestHandler.Ingest)

		// 资产查询
		items := inventory.Group("/items")
		{
			items.GET("", r.module.ItemHandler.List)
			items.GET("/stats", r.module.ItemHandler.Stats)
			items.GET("/:id", r.module.ItemHandler.Get)
			items.GET("/:id/logs", r.module.ItemHandler.Logs)

			// 人工决策
			items.POST("/:id/approve", r.module.ItemHandler.Approve)
			items.POST("/:id/reject", r.module.ItemHandler.Reject)
			items.POST("/:id/flag", r.module.ItemHandler.Flag)

			// 生命周期
			items.POST("/:id/archive", r.module.ItemHandler.Archive)
			items.POST("/:id/restore", r.module.ItemHandler.Restore)
		}

		// AI配置管理(admin角色)
		configs := inventory.Group("/configs")
		configs.Use(r.middlewareManager.GinRequireAnyRole("admin"))
		{
			configs.POST("", r.module.AIConfigHandler.Create)
			configs.GET("", r.module.AIConfigHandler.List)
			configs.POST("/test", r.module.AIConfigHandler.Test)
			configs.GET("/:id", r.module.AIConfigHandler.Get)
			configs.PUT("/:id", r.module.AIConfigHandler.Update)
			configs.DELETE("/:id", r.module.AIConfigHandler.Delete)
			configs.POST("/:id/activate", r.module.AIConfigHandler.Activate)
		}

		// 准入规则管理(admin角色)
		rules := inventory.Group("/rules")
		rules.Use(r.middlewareManager.GinRequireAnyRole("admin"))
		{
			rules.POST("", r.module.RuleHandler.Create)
			rules.GET("", r.module.RuleHandler.List)
			rules.PUT("/:id", r.module.RuleHandler.Update)
			rules.DELETE("/:id", r.module.RuleHandler.Delete)
		}

		// 数据源管理(admin角色)
		sources := inventory.Group("/sources")
		sources.Use(r.middlewareManager.GinRequireAnyRole("admin"))
		{
			sources.POST("", r.module.SourceHandler.Create)
			sources.GET("", r.module.SourceHandler.List)
			sources.PUT("/:id", r.module.SourceHandler.Update)
			sources.DELETE("/:id", r.module.SourceHandler.Delete)
		}
	}
}
