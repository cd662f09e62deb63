/**
 * 初始化
 * @description: 包含inventory程序初始化相关的类型定义
 * @func: Handler 本身包含 Service,但是Service本身又重新暴露一遍,方便调用
 */
package setup

import (
	invHandler "neoinventory/internal/handler/inventory"
	invRepo "neoinventory/internal/repo/mysql/inventory"
	invService "neoinventory/internal/service/inventory"
	"neoinventory/internal/service/provider"
	sourceService "neoinventory/internal/service/source"
)

// InventoryModule 是资产准入模块的聚合输出
// 设计目的：
// - 将准入流水线相关的 Handler 与 Service 作为一个整体进行初始化与对外暴露，便于 router_manager 进行路由与中间件装配。
// - 保持层级约束（Handler → Service → Repository），setup 层仅负责"依赖装配"，不侵入业务逻辑。
//
// 字段说明：
// - IngestHandler/ItemHandler/AIConfigHandler/RuleHandler/SourceHandler：对外用于路由注册的处理器。
// - Engine/AdminService/Scheduler/Gateway：对应的业务服务实例，Scheduler 由应用层负责启停。
type InventoryModule struct {
	// Handlers（准入相关处理器）
	IngestHandler   *invHandler.IngestHandler
	ItemHandler     *invHandler.ItemHandler
	AIConfigHandler *invHandler.AIConfigHandler
	RuleHandler     *invHandler.RuleHandler
	SourceHandler   *invHandler.SourceHandler

	// Services（对外暴露以供 router_manager 及其他模块使用）
	Engine       *invService.Engine
	AdminService *invService.AdminService
	Scheduler    *sourceService.Scheduler
	Gateway      *provider.Gateway

	// Repositories（迁移工具和测试需要直接访问）
	ItemRepo *invRepo.ItemRepository
}
