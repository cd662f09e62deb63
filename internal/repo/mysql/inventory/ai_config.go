package inventory

import (
	"context"
	"errors"

	"gorm.io/gorm"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/pkg/logger"
)

// AIConfigRepository AI后端配置仓库
type AIConfigRepository struct {
	db *gorm.DB
}

// NewAIConfigRepository 创建 AIConfigRepository 实例
func NewAIConfigRepository(db *gorm.DB) *AIConfigRepository {
	return &AIConfigRepository{db: db}
}

// Create 创建AI配置
func (r *AIConfigRepository) Create(ctx context.Context, cfg *invmodel.AIProviderConfig) error {
	if cfg == nil {
		return errors.New("ai config is nil")
	}
	err := r.db.WithContext(ctx).Create(cfg).Error
	if err != nil {
		logger.LogError(err, "", cfg.TenantID, "", "create_ai_config", "REPO", map[string]interface{}{
			"operation": "create_ai_config",
			"provider":  cfg.Provider,
		})
		return err
	}
	return nil
}

// GetByID 根据ID获取AI配置(租户隔离)
func (r *AIConfigRepository) GetByID(ctx context.Context, tenantID string, id uint64) (*invmodel.AIProviderConfig, error) {
	var cfg invmodel.AIProviderConfig
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.LogError(err, "", tenantID, "", "get_ai_config_by_id", "REPO", map[string]interface{}{
			"operation": "get_ai_config_by_id",
			"id":        id,
		})
		return nil, err
	}
	return &cfg, nil
}

// GetActive 获取租户当前激活的AI配置，没有则返回 (nil, nil)
func (r *AIConfigRepository) GetActive(ctx context.Context, tenantID string) (*invmodel.AIProviderConfig, error) {
	var cfg invmodel.AIProviderConfig
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.LogError(err, "", tenantID, "", "get_active_ai_config", "REPO", map[string]interface{}{
			"operation": "get_active_ai_config",
		})
		return nil, err
	}
	return &cfg, nil
}

// List 获取租户的全部AI配置
func (r *AIConfigRepository) List(ctx context.Context, tenantID string) ([]*invmodel.AIProviderConfig, error) {
	var cfgs []*invmodel.AIProviderConfig
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id asc").
		Find(&cfgs).Error
	if err != nil {
		logger.LogError(err, "", tenantID, "", "list_ai_configs", "REPO", map[string]interface{}{
			"operation": "list_ai_configs",
		})
		return nil, err
	}
	return cfgs, nil
}

// Update 保存AI配置的全部字段
func (r *AIConfigRepository) Update(ctx context.Context, cfg *invmodel.AIProviderConfig) error {
	if cfg == nil {
		return errors.New("ai config is nil")
	}
	err := r.db.WithContext(ctx).Save(cfg).Error
	if err != nil {
		logger.LogError(err, "", cfg.TenantID, "", "update_ai_config", "REPO", map[string]interface{}{
			"operation": "update_ai_config",
			"id":        cfg.ID,
		})
		return err
	}
	return nil
}

// Delete 删除AI配置
func (r *AIConfigRepository) Delete(ctx context.Context, tenantID string, id uint64) error {
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&invmodel.AIProviderConfig{}).Error
	if err != nil {
		logger.LogError(err, "", tenantID, "", "delete_ai_config", "REPO", map[string]interface{}{
			"operation": "delete_ai_config",
			"id":        id,
		})
		return err
	}
	return nil
}

// Activate 激活指定配置并取消同租户其他配置的激活状态
// 单事务完成，保证任一时刻至多一份激活配置
func (r *AIConfigRepository) Activate(ctx context.Context, tenantID string, id uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先清除其他激活配置
		if err := tx.Model(&invmodel.AIProviderConfig{}).
			Where("tenant_id = ? AND active = ?", tenantID, true).
			Update("active", false).Error; err != nil {
			return err
		}

		result := tx.Model(&invmodel.AIProviderConfig{}).
			Where("tenant_id = ? AND id = ?", tenantID, id).
			Update("active", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		logger.LogError(err, "", tenantID, "", "activate_ai_config", "REPO", map[string]interface{}{
			"operation": "activate_ai_config",
			"id":        id,
		})
		return err
	}
	return nil
}
