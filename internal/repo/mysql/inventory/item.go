package inventory

import (
	"context"
	"errors"

	"gorm.io/gorm"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/pkg/logger"
)

// ItemRepository 资产台账仓库
// 所有查询都以 tenantID 为作用域，隔离在数据访问边界完成
type ItemRepository struct {
	db *gorm.DB
}

// NewItemRepository 创建 ItemRepository 实例
func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// DB 返回底层连接(引擎的事务写入使用)
func (r *ItemRepository) DB() *gorm.DB {
	return r.db
}

// Create 创建资产记录
func (r *ItemRepository) Create(ctx context.Context, item *invmodel.InventoryItem) error {
	if item == nil {
		return errors.New("inventory item is nil")
	}
	err := r.db.WithContext(ctx).Create(item).Error
	if err != nil {
		logger.LogError(err, "", item.TenantID, "", "create_item", "REPO", map[string]interface{}{
			"operation":   "create_item",
			"source":      item.Source,
			"external_id": item.ExternalID,
		})
		return err
	}
	return nil
}

// GetByID 根据ID获取资产记录(租户隔离)
func (r *ItemRepository) GetByID(ctx context.Context, tenantID string, id uint64) (*invmodel.InventoryItem, error) {
	var item invmodel.InventoryItem
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.LogError(err, "", tenantID, "", "get_item_by_id", "REPO", map[string]interface{}{
			"operation": "get_item_by_id",
			"id":        id,
		})
		return nil, err
	}
	return &item, nil
}

// FindByExternalKey 根据逻辑唯一键 (tenant_id, source, external_id) 查找资产
// external_id 为空的记录不参与幂等合并，调用方不应传空
func (r *ItemRepository) FindByExternalKey(ctx context.Context, tenantID, source, externalID string) (*invmodel.InventoryItem, error) {
	var item invmodel.InventoryItem
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source = ? AND external_id = ?", tenantID, source, externalID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.LogError(err, "", tenantID, "", "find_item_by_external_key", "REPO", map[string]interface{}{
			"operation":   "find_item_by_external_key",
			"source":      source,
			"external_id": externalID,
		})
		return nil, err
	}
	return &item, nil
}

// Update 保存资产记录的全部字段
func (r *ItemRepository) Update(ctx context.Context, item *invmodel.InventoryItem) error {
	if item == nil {
		return errors.New("inventory item is nil")
	}
	err := r.db.WithContext(ctx).Save(item).Error
	if err != nil {
		logger.LogError(err, "", item.TenantID, "", "update_item", "REPO", map[string]interface{}{
			"operation": "update_item",
			"id":        item.ID,
		})
		return err
	}
	return nil
}

// SaveWithLog 在一个事务中保存资产并追加处理日志
// 两者要么都落库要么都不落库，保证审计链完整
func (r *ItemRepository) SaveWithLog(ctx context.Context, item *invmodel.InventoryItem, entries ...*invmodel.ProcessingLogEntry) error {
	if item == nil {
		return errors.New("inventory item is nil")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(item).Error; err != nil {
			return err
		}
		for _, entry := range entries {
			if entry == nil {
				continue
			}
			entry.ItemID = item.ID
			entry.TenantID = item.TenantID
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.LogError(err, "", item.TenantID, "", "save_item_with_log", "REPO", map[string]interface{}{
			"operation": "save_item_with_log",
			"id":        item.ID,
		})
		return err
	}
	return nil
}

// List 获取资产列表 (支持状态/类别/来源过滤和模糊搜索)
func (r *ItemRepository) List(ctx context.Context, tenantID string, query *invmodel.ItemListQuery) ([]*invmodel.InventoryItem, int64, error) {
	var items []*invmodel.InventoryItem
	var total int64

	q := r.db.WithContext(ctx).Model(&invmodel.InventoryItem{}).
		Where("tenant_id = ?", tenantID)

	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}
	if query.AssetCategory != "" {
		q = q.Where("asset_category = ?", query.AssetCategory)
	}
	if query.Source != "" {
		q = q.Where("source = ?", query.Source)
	}
	if query.Keyword != "" {
		like := "%" + query.Keyword + "%"
		q = q.Where("hostname LIKE ? OR ip_address LIKE ? OR owner LIKE ?", like, like, like)
	}

	err := q.Count(&total).Error
	if err != nil {
		logger.LogError(err, "", tenantID, "", "list_items_count", "REPO", map[string]interface{}{
			"operation": "list_items_count",
		})
		return nil, 0, err
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 || pageSize > 500 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize
	err = q.Offset(offset).Limit(pageSize).Order("id desc").Find(&items).Error
	if err != nil {
		logger.LogError(err, "", tenantID, "", "list_items_find", "REPO", map[string]interface{}{
			"operation": "list_items_find",
		})
		return nil, 0, err
	}

	return items, total, nil
}

// CountByStatus 按状态统计资产数量
func (r *ItemRepository) CountByStatus(ctx context.Context, tenantID string) (*invmodel.ItemStats, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row

	err := r.db.WithContext(ctx).Model(&invmodel.InventoryItem{}).
		Select("status, COUNT(*) as count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		logger.LogError(err, "", tenantID, "", "count_items_by_status", "REPO", map[string]interface{}{
			"operation": "count_items_by_status",
		})
		return nil, err
	}

	stats := &invmodel.ItemStats{}
	for _, rw := range rows {
		stats.Total += rw.Count
		switch invmodel.ItemStatus(rw.Status) {
		case invmodel.ItemStatusPending:
			stats.Pending = rw.Count
		case invmodel.ItemStatusApproved:
			stats.Approved = rw.Count
		case invmodel.ItemStatusRejected:
			stats.Rejected = rw.Count
		case invmodel.ItemStatusFlag:
			stats.Flag = rw.Count
		case invmodel.ItemStatusArchived:
			stats.Archived = rw.Count
		}
	}
	return stats, nil
}
