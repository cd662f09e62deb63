/*
*
  - 数据库迁移工具
  - @description: 数据库模型迁移和演示数据初始化工具
  - @usage: go run main.go -env=test -seed=true -drop=true
    -drop
    是否先删除表（危险操作）
    -env string
    环境标识 (test, dev, prod) (default "test")
    -seed
    是否填充演示数据 (default true)
    -verbose
    是否显示详细日志

示例:
main.exe -env=test -seed=true    # 测试环境迁移并填充数据
main.exe -env=prod -seed=false   # 生产环境仅迁移表结构
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"neoinventory/internal/config"
	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/pkg/crypto"
	"neoinventory/internal/pkg/database"
	"neoinventory/internal/pkg/logger"
)

// MigrateOptions 迁移选项配置
type MigrateOptions struct {
	Environment string // 环境标识: test, dev, prod
	SeedData    bool   // 是否填充演示数据
	DropFirst   bool   // 是否先删除表（危险操作）
	Verbose     bool   // 是否显示详细日志
}

// DataSeeder 演示数据填充器
type DataSeeder struct {
	db     *gorm.DB
	env    string
	sealer *crypto.SecretSealer
	log    *logger.LoggerManager
}

func main() {
	// 解析命令行参数
	opts := parseFlags()

	// 加载配置
	cfg, err := config.LoadConfig("", opts.Environment)
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	// 初始化日志管理器
	logManager, err := logger.InitLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}

	logManager.GetLogger().WithFields(logrus.Fields{
		"path":        "cmd/migrate/main.go",
		"operation":   "database_migration",
		"func_name":   "main",
		"environment": opts.Environment,
		"seed_data":   opts.SeedData,
		"drop_first":  opts.DropFirst,
	}).Info("开始数据库迁移")

	// 初始化数据库连接
	db, err := database.NewMySQLConnection(&cfg.Database.MySQL)
	if err != nil {
		logManager.GetLogger().WithFields(logrus.Fields{
			"path":      "cmd/migrate/main.go",
			"operation": "database_connection",
			"func_name": "main",
			"error":     err.Error(),
		}).Fatal("数据库连接失败")
	}

	// 凭据加密器,演示AI配置的API密钥需要密文落库
	sealer, err := crypto.NewSecretSealer(cfg.Security.CredentialKey)
	if err != nil {
		logManager.GetLogger().WithFields(logrus.Fields{
			"path":      "cmd/migrate/main.go",
			"operation": "sealer_init",
			"func_name": "main",
			"error":     err.Error(),
		}).Fatal("凭据加密器初始化失败")
	}

	// 执行迁移
	if err := performMigration(db, sealer, opts, logManager); err != nil {
		logManager.GetLogger().WithFields(logrus.Fields{
			"path":      "cmd/migrate/main.go",
			"operation": "database_migration",
			"func_name": "main",
			"error":     err.Error(),
		}).Fatal("数据库迁移失败")
	}

	logManager.GetLogger().WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "database_migration",
		"func_name": "main",
	}).Info("数据库迁移完成")
}

// parseFlags 解析命令行参数
func parseFlags() *MigrateOptions {
	opts := &MigrateOptions{}

	flag.StringVar(&opts.Environment, "env", "test", "环境标识 (test, dev, prod)")
	flag.BoolVar(&opts.SeedData, "seed", true, "是否填充演示数据")
	flag.BoolVar(&opts.DropFirst, "drop", false, "是否先删除表（危险操作）")
	flag.BoolVar(&opts.Verbose, "verbose", false, "是否显示详细日志")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "NeoInventory 数据库迁移工具\n\n")
		fmt.Fprintf(os.Stderr, "用法: %s [选项]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "选项:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n示例:\n")
		fmt.Fprintf(os.Stderr, "  %s -env=test -seed=true    # 测试环境迁移并填充数据\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -env=prod -seed=false   # 生产环境仅迁移表结构\n", os.Args[0])
	}

	flag.Parse()
	return opts
}

// performMigration 执行数据库迁移
func performMigration(db *gorm.DB, sealer *crypto.SecretSealer, opts *MigrateOptions, logManager *logger.LoggerManager) error {
	// 1. 删除表（如果指定）
	if opts.DropFirst {
		if err := dropTables(db, logManager); err != nil {
			return fmt.Errorf("删除表失败: %w", err)
		}
	}

	// 2. 执行模型迁移
	if err := migrateModels(db, logManager); err != nil {
		return fmt.Errorf("模型迁移失败: %w", err)
	}

	// 3. 填充演示数据（如果指定）
	if opts.SeedData {
		seeder := NewDataSeeder(db, opts.Environment, sealer, logManager)
		if err := seeder.SeedAll(); err != nil {
			return fmt.Errorf("数据填充失败: %w", err)
		}
	}

	return nil
}

// dropTables 删除所有表
// 危险操作，仅用于开发环境重置
func dropTables(db *gorm.DB, logManager *logger.LoggerManager) error {
	logManager.GetLogger().WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "drop_tables",
		"func_name": "dropTables",
	}).Warn("开始删除数据库表")

	// 按依赖关系逆序删除
	models := []interface{}{
		&invmodel.ProcessingLogEntry{},
		&invmodel.InventoryItem{},
		&invmodel.Rule{},
		&invmodel.AIProviderConfig{},
		&invmodel.Source{},
	}

	for _, model := range models {
		if err := db.Migrator().DropTable(model); err != nil {
			logManager.GetLogger().WithFields(logrus.Fields{
				"path":      "cmd/migrate/main.go",
				"operation": "drop_table",
				"func_name": "dropTables",
				"model":     fmt.Sprintf("%T", model),
				"error":     err.Error(),
			}).Error("删除表失败")
		}
	}

	return nil
}

// migrateModels 执行模型迁移
func migrateModels(db *gorm.DB, loggerMgr *logger.LoggerManager) error {
	loggerMgr.GetLogger().Info("开始执行模型迁移...")

	// 定义所有需要迁移的模型
	models := []interface{}{
		&invmodel.InventoryItem{},
		&invmodel.AIProviderConfig{},
		&invmodel.Rule{},
		&invmodel.ProcessingLogEntry{},
		&invmodel.Source{},
	}

	// 执行自动迁移
	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("迁移模型 %T 失败: %w", model, err)
		}
		loggerMgr.GetLogger().WithField("model", fmt.Sprintf("%T", model)).Info("模型迁移成功")
	}

	loggerMgr.GetLogger().Info("所有模型迁移完成")
	return nil
}

// NewDataSeeder 创建数据填充器
func NewDataSeeder(db *gorm.DB, env string, sealer *crypto.SecretSealer, logManager *logger.LoggerManager) *DataSeeder {
	return &DataSeeder{
		db:     db,
		env:    env,
		sealer: sealer,
		log:    logManager,
	}
}

// SeedAll 填充所有演示数据
func (s *DataSeeder) SeedAll() error {
	s.log.GetLogger().WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "seed_data",
		"func_name": "DataSeeder.SeedAll",
		"env":       s.env,
	}).Info("开始填充演示数据")

	seedFunctions := []struct {
		name string
		fn   func() error
	}{
		{"准入规则数据", s.seedRuleData},
		{"数据源数据", s.seedSourceData},
		{"AI配置数据", s.seedAIConfigData},
	}

	for _, seed := range seedFunctions {
		s.log.GetLogger().WithFields(logrus.Fields{
			"path":      "cmd/migrate/main.go",
			"operation": "seed_module",
			"option":    seed.name,
			"func_name": "DataSeeder.SeedAll",
		}).Info("填充数据模块")

		if err := seed.fn(); err != nil {
			return fmt.Errorf("填充%s失败: %w", seed.name, err)
		}
	}

	s.log.GetLogger().WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "seed_data",
		"func_name": "DataSeeder.SeedAll",
	}).Info("演示数据填充完成")

	return nil
}

// seedRuleData 填充默认准入规则
func (s *DataSeeder) seedRuleData() error {
	rules := []invmodel.Rule{
		{
			TenantID: "demo",
			Name:     "reject-legacy-windows",
			Priority: 10,
			Field:    "os",
			Operator: invmodel.OperatorContains,
			Value:    "windows xp",
			Action:   invmodel.RuleActionReject,
			Enabled:  true,
		},
		{
			TenantID: "demo",
			Name:     "flag-high-risk",
			Priority: 20,
			Field:    "risk_score",
			Operator: invmodel.OperatorGt,
			Value:    "80",
			Action:   invmodel.RuleActionFlag,
			Enabled:  true,
		},
		{
			TenantID: "demo",
			Name:     "approve-known-datacenter",
			Priority: 100,
			Field:    "location",
			Operator: invmodel.OperatorIn,
			Value:    "dc-east,dc-west",
			Action:   invmodel.RuleActionApprove,
			Enabled:  true,
		},
	}

	for _, rule := range rules {
		if err := s.db.Where("tenant_id = ? AND name = ?", rule.TenantID, rule.Name).FirstOrCreate(&rule).Error; err != nil {
			return fmt.Errorf("创建规则失败: %w", err)
		}
		s.log.GetLogger().WithField("rule", rule.Name).Info("规则创建成功")
	}

	return nil
}

// seedSourceData 填充演示数据源
func (s *DataSeeder) seedSourceData() error {
	sources := []invmodel.Source{
		{
			TenantID: "demo",
			Name:     "cmdb-webhook",
			Type:     invmodel.SourceTypeWebhook,
			Enabled:  true,
		},
	}

	// 仅在test环境填充pull类型数据源
	if s.env == "test" {
		sources = append(sources, invmodel.Source{
			TenantID: "demo",
			Name:     "edr-pull",
			Type:     invmodel.SourceTypePull,
			Endpoint: "http://127.0.0.1:18080/api/assets",
			Schedule: "0 2 * * *",
			Enabled:  true,
		})
	}

	for _, src := range sources {
		if err := s.db.Where("tenant_id = ? AND name = ?", src.TenantID, src.Name).FirstOrCreate(&src).Error; err != nil {
			return fmt.Errorf("创建数据源失败: %w", err)
		}
		s.log.GetLogger().WithField("source", src.Name).Info("数据源创建成功")
	}

	return nil
}

// seedAIConfigData 填充演示AI配置（仅test环境,密钥为占位符）
func (s *DataSeeder) seedAIConfigData() error {
	if s.env != "test" {
		return nil
	}

	sealed, err := s.sealer.Seal("sk-placeholder-change-me")
	if err != nil {
		return fmt.Errorf("加密演示密钥失败: %w", err)
	}

	cfg := invmodel.AIProviderConfig{
		TenantID:       "demo",
		Name:           "local-ollama",
		Provider:       invmodel.ProviderOllama,
		Model:          "llama3",
		APIKeySealed:   sealed,
		Temperature:    0.1,
		MaxTokens:      500,
		TimeoutSeconds: 30,
		Enabled:        true,
		AutoProcess:    true,
		Active:         true,
	}

	if err := s.db.Where("tenant_id = ? AND name = ?", cfg.TenantID, cfg.Name).FirstOrCreate(&cfg).Error; err != nil {
		return fmt.Errorf("创建AI配置失败: %w", err)
	}
	s.log.GetLogger().WithField("config", cfg.Name).Info("AI配置创建成功")

	return nil
}
