package inventory

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/pkg/logger"
)

// SourceRepository 数据源仓库
type SourceRepository struct {
	db *gorm.DB
}

// NewSourceRepository 创建 SourceRepository 实例
func NewSourceRepository(db *gorm.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// Create 创建数据源
func (r *SourceRepository) Create(ctx context.Context, source *invmodel.Source) error {
	if source == nil {
		return errors.New("source is nil")
	}
	err := r.db.WithContext(ctx).Create(source).Error
	if err != nil {
		logger.LogError(err, "", source.TenantID, "", "create_source", "REPO", map[string]interface{}{
			"operation": "create_source",
			"name":      source.Name,
		})
		return err
	}
	return nil
}

// GetByID 根据ID获取数据源(租户隔离)
func (r *SourceRepository) GetByID(ctx context.Context, tenantID string, id uint64) (*invmodel.Source, error) {
	var source invmodel.Source
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&source).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.LogError(err, "", tenantID, "", "get_source_by_id", "REPO", map[string]interface{}{
			"operation": "get_source_by_id",
			"id":        id,
		})
		return nil, err
	}
	return &source, nil
}

// List 获取租户的全部数据源
func (r *SourceRepository) List(ctx context.Context, tenantID string) ([]*invmodel.Source, error) {
	var sources []*invmodel.Source
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id asc").
		Find(&sources).Error
	if err != nil {
		logger.LogError(err, "", tenantID, "", "list_sources", "REPO", map[string]interface{}{
			"operation": "list_sources",
		})
		return nil, err
	}
	return sources, nil
}

// ListEnabledPull 获取全部租户中启用的pull类型数据源(调度器装载用)
func (r *SourceRepository) ListEnabledPull(ctx context.Context) ([]*invmodel.Source, error) {
	var sources []*invmodel.Source
	err := r.db.WithContext(ctx).
		Where("type = ? AND enabled = ?", invmodel.SourceTypePull, true).
		Order("id asc").
		Find(&sources).Error
	if err != nil {
		logger.LogError(err, "", "", "", "list_enabled_pull_sources", "REPO", map[string]interface{}{
			"operation": "list_enabled_pull_sources",
		})
		return nil, err
	}
	return sources, nil
}

// Update 保存数据源的全部字段
func (r *SourceRepository) Update(ctx context.Context, source *invmodel.Source) error {
	if source == nil {
		return errors.New("source is nil")
	}
	err := r.db.WithContext(ctx).Save(source).Error
	if err != nil {
		logger.LogError(err, "", source.TenantID, "", "update_source", "REPO", map[string]interface{}{
			"operation": "update_source",
			"id":        source.ID,
		})
		return err
	}
	return nil
}

// Delete 删除数据源
func (r *SourceRepository) Delete(ctx context.Context, tenantID string, id uint64) error {
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&invmodel.Source{}).Error
	if err != nil {
		logger.LogError(err, "", tenantID, "", "delete_source", "REPO", map[string]interface{}{
			"operation": "delete_source",
			"id":        id,
		})
		return err
	}
	return nil
}

// UpdateSyncResult 记录一次同步的结果
func (r *SourceRepository) UpdateSyncResult(ctx context.Context, tenantID string, id uint64, status, syncErr string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"last_sync_at":     &now,
		"last_sync_status": status,
		"last_sync_error":  syncErr,
	}
	err := r.db.WithContext(ctx).Model(&invmodel.Source{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(updates).Error
	if err != nil {
		logger.LogError(err, "", tenantID, "", "update_source_sync_result", "REPO", map[string]interface{}{
			"operation": "update_source_sync_result",
			"id":        id,
			"status":    status,
		})
		return err
	}
	return nil
}
