package inventory

import (
	"context"
	"errors"

	"gorm.io/gorm"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/pkg/logger"
)

// ProcessingLogRepository 处理日志仓库
// 日志只增不改不删，仓库只暴露追加和查询
type ProcessingLogRepository struct {
	db *gorm.DB
}

// NewProcessingLogRepository 创建 ProcessingLogRepository 实例
func NewProcessingLogRepository(db *gorm.DB) *ProcessingLogRepository {
	return &ProcessingLogRepository{db: db}
}

// Create 追加处理日志
func (r *ProcessingLogRepository) Create(ctx context.Context, entry *invmodel.ProcessingLogEntry) error {
	if entry == nil {
		return errors.New("log entry is nil")
	}
	err := r.db.WithContext(ctx).Create(entry).Error
	if err != nil {
		logger.LogError(err, "", entry.TenantID, "", "create_processing_log", "REPO", map[string]interface{}{
			"operation": "create_processing_log",
			"item_id":   entry.ItemID,
		})
		return err
	}
	return nil
}

// ListByItem 按资产倒序返回处理日志
func (r *ProcessingLogRepository) ListByItem(ctx context.Context, tenantID string, itemID uint64, page, pageSize int) ([]*invmodel.ProcessingLogEntry, int64, error) {
	var entries []*invmodel.ProcessingLogEntry
	var total int64

	q := r.db.WithContext(ctx).Model(&invmodel.ProcessingLogEntry{}).
		Where("tenant_id = ? AND item_id = ?", tenantID, itemID)

	err := q.Count(&total).Error
	if err != nil {
		logger.LogError(err, "", tenantID, "", "list_processing_logs_count", "REPO", map[string]interface{}{
			"operation": "list_processing_logs_count",
			"item_id":   itemID,
		})
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize
	err = q.Offset(offset).Limit(pageSize).Order("id desc").Find(&entries).Error
	if err != nil {
		logger.LogError(err, "", tenantID, "", "list_processing_logs_find", "REPO", map[string]interface{}{
			"operation": "list_processing_logs_find",
			"item_id":   itemID,
		})
		return nil, 0, err
	}

	return entries, total, nil
}
