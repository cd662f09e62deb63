/**
 * 应用:资产准入服务
 * @description: 应用程序生命周期管理,配置加载、依赖初始化、启动与优雅停止
 * @func: NewApp/Start/Stop
 */
package inventory

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"neoinventory/internal/app/inventory/router"
	"neoinventory/internal/config"
	"neoinventory/internal/pkg/database"
	"neoinventory/internal/pkg/logger"
)

// App 应用程序结构体
type App struct {
	configPath  string
	env         string
	config      *config.Config
	router      *router.Router
	db          *gorm.DB
	redisClient *redis.Client
}

// NewApp 创建新的应用程序实例
// configPath 为空时使用默认的configs目录,env 为空时从环境变量推断
func NewApp(configPath, env string) (*App, error) {
	// 加载配置
	cfg, err := config.LoadConfig(configPath, env)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	// 初始化日志
	if _, err := logger.InitLogger(&cfg.Log); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	// 初始化MySQL连接
	db, err := database.NewMySQLConnection(&cfg.Database.MySQL)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	// 初始化Redis连接
	// Redis不可用时降级运行:配置与规则不走缓存,每个批次直接查库
	redisClient, err := database.NewRedisConnection(&cfg.Database.Redis)
	if err != nil {
		logger.Warnf("连接Redis失败,配置缓存降级为直接查库: %v", err)
		redisClient = nil
	}

	// 初始化路由器
	r, err := router.NewRouter(db, redisClient, cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化路由失败: %w", err)
	}
	r.SetupRoutes()

	return &App{
		configPath:  configPath,
		env:         env,
		config:      cfg,
		router:      r,
		db:          db,
		redisClient: redisClient,
	}, nil
}

// GetConfig 获取配置实例
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetRouter 获取路由器实例
func (a *App) GetRouter() *router.Router {
	return a.router
}

// Start 启动后台组件:配置热更新监听和pull数据源调度器
func (a *App) Start(ctx context.Context) error {
	// 配置文件热更新
	if err := config.StartConfigWatcher(a.configPath, a.env); err != nil {
		logger.Warnf("启动配置监听失败,热更新不可用: %v", err)
	} else {
		if err := config.AddConfigReloadCallback(config.InventoryConfigReloadCallback); err != nil {
			logger.Warnf("注册配置回调失败: %v", err)
		}
		// 并发度与重评估开关热更新到引擎,日志配置热更新到日志管理器
		engine := a.router.GetModule().Engine
		_ = config.AddConfigReloadCallback(func(oldCfg, newCfg *config.Config) error {
			engine.UpdateLimits(newCfg.Inventory.MaxConcurrentCalls, newCfg.Inventory.ResetOnReingest)
			if logger.LoggerInstance != nil {
				if err := logger.LoggerInstance.UpdateConfig(&newCfg.Log); err != nil {
					return err
				}
			}
			return nil
		})
	}

	// pull数据源调度器
	if err := a.router.GetModule().Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("启动数据源调度器失败: %w", err)
	}

	logger.LogSystemEvent("app", "started", "资产准入服务启动完成", logrus.InfoLevel, nil)
	return nil
}

// Stop 停止后台组件并关闭连接
func (a *App) Stop() error {
	a.router.GetModule().Scheduler.Stop()

	if err := config.StopConfigWatcher(); err != nil {
		logger.Warnf("停止配置监听失败: %v", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logger.Warnf("关闭Redis连接失败: %v", err)
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warnf("关闭MySQL连接失败: %v", err)
			}
		}
	}

	logger.LogSystemEvent("app", "stopped", "资产准入服务已停止", logrus.InfoLevel, nil)
	return nil
}
