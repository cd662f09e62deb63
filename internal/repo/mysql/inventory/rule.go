package inventory

import (
	"context"
	"errors"

	"gorm.io/gorm"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/pkg/logger"
)

// RuleRepository 准入规则仓库
type RuleRepository struct {
	db *gorm.DB
}

// NewRuleRepository 创建 RuleRepository 实例
func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// Create 创建规则
func (r *RuleRepository) Create(ctx context.Context, rule *invmodel.Rule) error {
	if rule == nil {
		return errors.New("rule is nil")
	}
	err := r.db.WithContext(ctx).Create(rule).Error
	if err != nil {
		logger.LogError(err, "", rule.TenantID, "", "create_rule", "REPO", map[string]interface{}{
			"operation": "create_rule",
			"name":      rule.Name,
		})
		return err
	}
	return nil
}

// GetByID 根据ID获取规则(租户隔离)
func (r *RuleRepository) GetByID(ctx context.Context, tenantID string, id uint64) (*invmodel.Rule, error) {
	var rule invmodel.Rule
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.LogError(err, "", tenantID, "", "get_rule_by_id", "REPO", map[string]interface{}{
			"operation": "get_rule_by_id",
			"id":        id,
		})
		return nil, err
	}
	return &rule, nil
}

// List 获取租户的全部规则
func (r *RuleRepository) List(ctx context.Context, tenantID string) ([]*invmodel.Rule, error) {
	var rules []*invmodel.Rule
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("priority asc, id asc").
		Find(&rules).Error
	if err != nil {
		logger.LogError(err, "", tenantID, "", "list_rules", "REPO", map[string]interface{}{
			"operation": "list_rules",
		})
		return nil, err
	}
	return rules, nil
}

// ListEnabled 获取租户启用的规则，按评估顺序 (priority asc, id asc) 返回
func (r *RuleRepository) ListEnabled(ctx context.Context, tenantID string) ([]*invmodel.Rule, error) {
	var rules []*invmodel.Rule
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND enabled = ?", tenantID, true).
		Order("priority asc, id asc").
		Find(&rules).Error
	if err != nil {
		logger.LogError(err, "", tenantID, "", "list_enabled_rules", "REPO", map[string]interface{}{
			"operation": "list_enabled_rules",
		})
		return nil, err
	}
	return rules, nil
}

// Update 保存规则的全部字段
func (r *RuleRepository) Update(ctx context.Context, rule *invmodel.Rule) error {
	if rule == nil {
		return errors.New("rule is nil")
	}
	err := r.db.WithContext(ctx).Save(rule).Error
	if err != nil {
		logger.LogError(err, "", rule.TenantID, "", "update_rule", "REPO", map[string]interface{}{
			"operation": "update_rule",
			"id":        rule.ID,
		})
		return err
	}
	return nil
}

// Delete 删除规则
func (r *RuleRepository) Delete(ctx context.Context, tenantID string, id uint64) error {
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&invmodel.Rule{}).Error
	if err != nil {
		logger.LogError(err, "", tenantID, "", "delete_rule", "REPO", map[string]interface{}{
			"operation": "delete_rule",
			"id":        id,
		})
		return err
	}
	return nil
}
