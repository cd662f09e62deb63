/**
 * 路由:路由管理器
 * @description: 路由管理器，包含Router结构体、NewRouter函数和SetupRoutes主函数
 * @func:
 */
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"neoinventory/internal/app/inventory/middleware"
	"neoinventory/internal/app/inventory/setup"
	"neoinventory/internal/config"
	authPkg "neoinventory/internal/pkg/auth"

	// 统一使用项目封装的日志模块，便于采集规范字段与统一输出
	"neoinventory/internal/pkg/logger"
)

// Router 路由管理器
type Router struct {
	config            *config.Config
	engine            *gin.Engine
	db                *gorm.DB
	redisClient       *redis.Client
	middlewareManager *middleware.MiddlewareManager
	module            *setup.InventoryModule
}

// NewRouter 创建路由管理器实例
func NewRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) (*Router, error) {
	// 初始化工具包
	jwtManager := authPkg.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer, cfg.Security.JWT.AccessTokenExpire)

	// 初始化中间件管理器
	middlewareManager := middleware.NewMiddlewareManager(jwtManager, &cfg.Security)

	// 装配业务模块(Repository → Service → Handler)
	module, err := setup.BuildInventoryModule(db, redisClient, cfg)
	if err != nil {
		return nil, err
	}

	// 创建Gin引擎
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	return &Router{
		config:            cfg,
		engine:            engine,
		db:                db,
		redisClient:       redisClient,
		middlewareManager: middlewareManager,
		module:            module,
	}, nil
}

// SetupRoutes 设置全局中间件和路由
// 在这里配置调用各个路由模块
func (r *Router) SetupRoutes() {
	// 1) 全局中间件注册
	r.registerGlobalMiddleware()

	// 2) 路由注册
	r.registerRoutes()
}

// GetEngine 获取Gin引擎实例
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// GetModule 获取业务模块,应用层用来启停调度器和接入配置热更新
func (r *Router) GetModule() *setup.InventoryModule {
	return r.module
}

// registerGlobalMiddleware 注册全局中间件
// 将全局中间件的挂载集中在一个方法中，便于统一管理与测试（只需在此处验证链条顺序）
func (r *Router) registerGlobalMiddleware() {
	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerGlobalMiddleware",
		"operation": "register_global_middleware",
		"func_name": "router.registerGlobalMiddleware",
	}).Info("开始注册全局中间件")

	// 系统恢复中间件，防止 panic 直接导致进程崩溃
	r.engine.Use(gin.Recovery())

	if r.middlewareManager != nil {
		// 请求ID中间件,最先执行保证后续日志都带request_id
		r.engine.Use(r.middlewareManager.GinRequestIDMiddleware())
		// CORS 中间件
		r.engine.Use(r.middlewareManager.GinCORSMiddleware())
		// 安全响应头中间件
		r.engine.Use(r.middlewareManager.GinSecurityHeadersMiddleware())
		// 统一日志中间件
		r.engine.Use(r.middlewareManager.GinLoggingMiddleware())
		// 限流中间件
		r.engine.Use(r.middlewareManager.GinRateLimitMiddleware())
	}

	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerGlobalMiddleware",
		"operation": "register_global_middleware",
		"func_name": "router.registerGlobalMiddleware",
	}).Info("全局中间件注册完成")
}

// registerRoutes 注册路由
// 将"中间件注册"和"各模块路由注册"的步骤分离，提升可维护性与可测试性
func (r *Router) registerRoutes() {
	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerRoutes",
		"operation": "register_routes",
		"func_name": "router.registerRoutes",
	}).Info("开始注册路由")

	// API 版本路由组：/api/v1
	api := r.engine.Group("/api")
	v1 := api.Group("/v1")

	// 具体模块路由注册
	// 资产准入路由（需要 JWT 认证）
	r.setupInventoryRoutes(v1)
	// 健康检查路由
	r.setupHealthRoutes(api)

	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerRoutes",
		"operation": "register_routes",
		"func_name": "router.registerRoutes",
	}).Info("路由注册完成")
}
