/**
 * 服务:人工决策
 * @description: 资产的人工准入/拒绝/标记与归档生命周期操作
 * @func: Approve/Reject/Flag/Archive/Restore
 */
package inventory

import (
	"context"
	"time"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/model/system"
	"neoinventory/internal/pkg/logger"
)

// Approve 人工准入
func (e *Engine) Approve(ctx context.Context, tenantID string, itemID uint64, actor, comment string) (*invmodel.InventoryItem, error) {
	return e.manualDecision(ctx, tenantID, itemID, actor, comment, invmodel.ItemStatusApproved)
}

// Reject 人工拒绝
func (e *Engine) Reject(ctx context.Context, tenantID string, itemID uint64, actor, comment string) (*invmodel.InventoryItem, error) {
	return e.manualDecision(ctx, tenantID, itemID, actor, comment, invmodel.ItemStatusRejected)
}

// Flag 人工标记
func (e *Engine) Flag(ctx context.Context, tenantID string, itemID uint64, actor, comment string) (*invmodel.InventoryItem, error) {
	return e.manualDecision(ctx, tenantID, itemID, actor, comment, invmodel.ItemStatusFlag)
}

// manualDecision 人工决策通用路径
// 人工决策覆盖任何非归档状态,归档资产必须先Restore
func (e *Engine) manualDecision(ctx context.Context, tenantID string, itemID uint64, actor, comment string, status invmodel.ItemStatus) (*invmodel.InventoryItem, error) {
	item, err := e.items.GetByID(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, system.ErrItemNotFound
	}
	if item.IsArchived() {
		return nil, system.ErrItemArchived
	}

	now := time.Now()
	item.Status = status
	item.DecisionReason = comment
	item.ProcessedBy = invmodel.ProcessedByManual
	item.ProcessedAt = &now

	entry := &invmodel.ProcessingLogEntry{
		Decision:    string(status),
		Actor:       actor,
		ProcessedBy: invmodel.ProcessedByManual,
	}

	if err := e.items.SaveWithLog(ctx, item, entry); err != nil {
		return nil, err
	}

	logger.LogAuditOperation(tenantID, actor, "manual_"+string(status), item.Identifier(), "success", "", "", "", map[string]interface{}{
		"item_id": item.ID,
		"comment": comment,
	})

	return item, nil
}

// Archive 归档资产,重复归档是幂等的
// 归档后自动导入只推进LastSeen,不再评估
func (e *Engine) Archive(ctx context.Context, tenantID string, itemID uint64, actor string) (*invmodel.InventoryItem, error) {
	item, err := e.items.GetByID(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, system.ErrItemNotFound
	}
	if item.IsArchived() {
		return item, nil
	}

	item.Status = invmodel.ItemStatusArchived

	entry := &invmodel.ProcessingLogEntry{
		Decision:    string(invmodel.ItemStatusArchived),
		Actor:       actor,
		ProcessedBy: invmodel.ProcessedByManual,
	}

	if err := e.items.SaveWithLog(ctx, item, entry); err != nil {
		return nil, err
	}

	logger.LogAuditOperation(tenantID, actor, "archive", item.Identifier(), "success", "", "", "", map[string]interface{}{
		"item_id": item.ID,
	})

	return item, nil
}

// Restore 把归档资产恢复为pending
// 这是唯一能离开归档态的路径,自动导入无法触发
func (e *Engine) Restore(ctx context.Context, tenantID string, itemID uint64, actor string) (*invmodel.InventoryItem, error) {
	item, err := e.items.GetByID(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, system.ErrItemNotFound
	}
	if !item.IsArchived() {
		return nil, system.ErrItemNotArchived
	}

	item.Status = invmodel.ItemStatusPending
	item.DecisionReason = ""
	item.ProcessedBy = ""
	item.ProcessedAt = nil

	entry := &invmodel.ProcessingLogEntry{
		Decision:    string(invmodel.ItemStatusPending),
		Actor:       actor,
		ProcessedBy: invmodel.ProcessedByManual,
	}

	if err := e.items.SaveWithLog(ctx, item, entry); err != nil {
		return nil, err
	}

	logger.LogAuditOperation(tenantID, actor, "restore", item.Identifier(), "success", "", "", "", map[string]interface{}{
		"item_id": item.ID,
	})

	return item, nil
}
