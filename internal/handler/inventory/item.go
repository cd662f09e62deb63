/**
 * 处理器:资产
 * @description: 资产查询与人工决策接口
 * @func: List/Get/Stats/Logs/Approve/Reject/Flag/Archive/Restore
 */
package inventory

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/model/system"
	"neoinventory/internal/pkg/logger"
	"neoinventory/internal/pkg/utils"
	invrepo "neoinventory/internal/repo/mysql/inventory"
	invservice "neoinventory/internal/service/inventory"
)

// ItemHandler 资产处理器
type ItemHandler struct {
	engine *invservice.Engine
	items  *invrepo.ItemRepository
	admin  *invservice.AdminService
}

// NewItemHandler 创建 ItemHandler 实例
func NewItemHandler(engine *invservice.Engine, items *invrepo.ItemRepository, admin *invservice.AdminService) *ItemHandler {
	return &ItemHandler{
		engine: engine,
		items:  items,
		admin:  admin,
	}
}

// List 资产列表
// GET /api/v1/inventory/items
func (h *ItemHandler) List(c *gin.Context) {
	tenantID := tenantFrom(c)

	var query invmodel.ItemListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid query parameters",
			Error:   err.Error(),
		})
		return
	}

	items, total, err := h.items.List(c.Request.Context(), tenantID, &query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, system.APIResponse{
			Code:    http.StatusInternalServerError,
			Status:  "failed",
			Message: "Failed to list items",
			Error:   err.Error(),
		})
		return
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 || pageSize > 500 {
		pageSize = 20
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   system.NewPaginationResponse(total, page, pageSize, items),
	})
}

// Get 资产详情
// GET /api/v1/inventory/items/:id
func (h *ItemHandler) Get(c *gin.Context) {
	tenantID := tenantFrom(c)

	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid ID",
			Error:   err.Error(),
		})
		return
	}

	item, err := h.items.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, system.APIResponse{
			Code:    http.StatusInternalServerError,
			Status:  "failed",
			Message: "Failed to get item",
			Error:   err.Error(),
		})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, system.APIResponse{
			Code:    http.StatusNotFound,
			Status:  "failed",
			Message: "Item not found",
		})
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   item,
	})
}

// Stats 按状态统计
// GET /api/v1/inventory/items/stats
func (h *ItemHandler) Stats(c *gin.Context) {
	tenantID := tenantFrom(c)

	stats, err := h.items.CountByStatus(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, system.APIResponse{
			Code:    http.StatusInternalServerError,
			Status:  "failed",
			Message: "Failed to compute stats",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   stats,
	})
}

// Logs 资产处理日志
// GET /api/v1/inventory/items/:id/logs
func (h *ItemHandler) Logs(c *gin.Context) {
	tenantID := tenantFrom(c)

	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid ID",
			Error:   err.Error(),
		})
		return
	}

	var pq struct {
		Page     int `form:"page"`
		PageSize int `form:"page_size"`
	}
	_ = c.ShouldBindQuery(&pq)

	entries, total, err := h.admin.ListProcessingLogs(c.Request.Context(), tenantID, id, pq.Page, pq.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, system.APIResponse{
			Code:    http.StatusInternalServerError,
			Status:  "failed",
			Message: "Failed to list processing logs",
			Error:   err.Error(),
		})
		return
	}

	page := pq.Page
	if page < 1 {
		page = 1
	}
	pageSize := pq.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   system.NewPaginationResponse(total, page, pageSize, entries),
	})
}

// Approve 人工准入
// POST /api/v1/inventory/items/:id/approve
func (h *ItemHandler) Approve(c *gin.Context) {
	h.decision(c, "approve", h.engine.Approve)
}

// Reject 人工拒绝
// POST /api/v1/inventory/items/:id/reject
func (h *ItemHandler) Reject(c *gin.Context) {
	h.decision(c, "reject", h.engine.Reject)
}

// Flag 人工标记
// POST /api/v1/inventory/items/:id/flag
func (h *ItemHandler) Flag(c *gin.Context) {
	h.decision(c, "flag", h.engine.Flag)
}

// decisionFunc 人工决策函数签名
type decisionFunc func(ctx context.Context, tenantID string, itemID uint64, actor, comment string) (*invmodel.InventoryItem, error)

// decision 人工决策通用处理
func (h *ItemHandler) decision(c *gin.Context, action string, fn decisionFunc) {
	clientIP := utils.GetClientIP(c)
	requestID := c.GetHeader("X-Request-ID")
	tenantID := tenantFrom(c)
	actor := actorFrom(c)

	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid ID",
			Error:   err.Error(),
		})
		return
	}

	var req invmodel.DecisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, system.APIResponse{
				Code:    http.StatusBadRequest,
				Status:  "failed",
				Message: "Invalid request body",
				Error:   err.Error(),
			})
			return
		}
	}

	item, err := fn(c.Request.Context(), tenantID, id, actor, req.Comment)
	if err != nil {
		h.writeDecisionError(c, requestID, tenantID, clientIP, action, id, err)
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Decision applied",
		Data:    item,
	})
}

// Archive 归档资产
// POST /api/v1/inventory/items/:id/archive
func (h *ItemHandler) Archive(c *gin.Context) {
	h.lifecycle(c, "archive", h.engine.Archive)
}

// Restore 恢复归档资产
// POST /api/v1/inventory/items/:id/restore
func (h *ItemHandler) Restore(c *gin.Context) {
	h.lifecycle(c, "restore", h.engine.Restore)
}

// lifecycleFunc 生命周期操作函数签名
type lifecycleFunc func(ctx context.Context, tenantID string, itemID uint64, actor string) (*invmodel.InventoryItem, error)

// lifecycle 归档/恢复通用处理
func (h *ItemHandler) lifecycle(c *gin.Context, action string, fn lifecycleFunc) {
	clientIP := utils.GetClientIP(c)
	requestID := c.GetHeader("X-Request-ID")
	tenantID := tenantFrom(c)
	actor := actorFrom(c)

	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid ID",
			Error:   err.Error(),
		})
		return
	}

	item, err := fn(c.Request.Context(), tenantID, id, actor)
	if err != nil {
		h.writeDecisionError(c, requestID, tenantID, clientIP, action, id, err)
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Lifecycle operation applied",
		Data:    item,
	})
}

// writeDecisionError 人工操作错误到HTTP状态码的映射
func (h *ItemHandler) writeDecisionError(c *gin.Context, requestID, tenantID, clientIP, action string, id uint64, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, system.ErrItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, system.ErrItemArchived), errors.Is(err, system.ErrItemNotArchived):
		status = http.StatusConflict
	}

	logger.LogError(err, requestID, tenantID, clientIP, c.Request.URL.String(), "POST", map[string]interface{}{
		"operation": action,
		"item_id":   id,
	})

	c.JSON(status, system.APIResponse{
		Code:    status,
		Status:  "failed",
		Message: "Failed to apply " + action,
		Error:   err.Error(),
	})
}
