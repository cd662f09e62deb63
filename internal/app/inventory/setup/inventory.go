/**
 * 初始化:资产准入模块装配
 * @description: Repository → Service → Handler 的依赖装配
 * @func: BuildInventoryModule
 */
package setup

import (
	"fmt"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"neoinventory/internal/config"
	invHandler "neoinventory/internal/handler/inventory"
	"neoinventory/internal/pkg/crypto"
	invRepo "neoinventory/internal/repo/mysql/inventory"
	redisRepo "neoinventory/internal/repo/redis"
	invService "neoinventory/internal/service/inventory"
	"neoinventory/internal/service/provider"
	sourceService "neoinventory/internal/service/source"
)

// BuildInventoryModule 装配资产准入模块
// redisClient 可为 nil,此时配置与规则不走缓存,每个批次直接查库
func BuildInventoryModule(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) (*InventoryModule, error) {
	// 凭据加密器,API密钥只以密文落库
	sealer, err := crypto.NewSecretSealer(cfg.Security.CredentialKey)
	if err != nil {
		return nil, fmt.Errorf("初始化凭据加密器失败: %w", err)
	}

	// AI网关
	gateway := provider.NewGateway(sealer, cfg.Inventory.ProviderTimeout)

	// Repository 层
	itemRepo := invRepo.NewItemRepository(db)
	configRepo := invRepo.NewAIConfigRepository(db)
	ruleRepo := invRepo.NewRuleRepository(db)
	logRepo := invRepo.NewProcessingLogRepository(db)
	sourceRepo := invRepo.NewSourceRepository(db)

	var cache *redisRepo.ConfigCache
	if redisClient != nil {
		cache = redisRepo.NewConfigCache(redisClient, cfg.Inventory.ConfigCacheTTL)
	}

	// Service 层
	engine := invService.NewEngine(invService.EngineOptions{
		Items:           itemRepo,
		Configs:         configRepo,
		Rules:           ruleRepo,
		Cache:           cache,
		Gateway:         gateway,
		MaxConcurrent:   cfg.Inventory.MaxConcurrentCalls,
		ResetOnReingest: cfg.Inventory.ResetOnReingest,
	})

	adminService := invService.NewAdminService(configRepo, ruleRepo, sourceRepo, logRepo, cache, sealer, gateway)

	scheduler := sourceService.NewScheduler(sourceRepo, engine, 0)

	// Handler 层
	ingestHandler := invHandler.NewIngestHandler(engine)
	itemHandler := invHandler.NewItemHandler(engine, itemRepo, adminService)
	aiConfigHandler := invHandler.NewAIConfigHandler(adminService)
	ruleHandler := invHandler.NewRuleHandler(adminService)
	sourceHandler := invHandler.NewSourceHandler(adminService, scheduler)

	return &InventoryModule{
		IngestHandler:   ingestHandler,
		ItemHandler:     itemHandler,
		AIConfigHandler: aiConfigHandler,
		RuleHandler:     ruleHandler,
		SourceHandler:   sourceHandler,

		Engine:       engine,
		AdminService: adminService,
		Scheduler:    scheduler,
		Gateway:      gateway,

		ItemRepo: itemRepo,
	}, nil
}
