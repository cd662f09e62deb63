/**
 * 处理器:数据源
 * @description: 数据源的管理接口,pull类型变更后触发调度器重建计划
 * @func: CRUD
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
	invservice "neoinventory/internal/service/inventory"
)

// ScheduleReloader 调度器重载抽象
type ScheduleReloader interface {
	Reload(ctx context.Context) error
}

// SourceHandler 数据源处理器
type SourceHandler struct {
	admin    *invservice.AdminService
	reloader ScheduleReloader // 可为nil(未启用调度器时)
}

// NewSourceHandler 创建 SourceHandler 实例
func NewSourceHandler(admin *invservice.AdminService, reloader ScheduleReloader) *SourceHandler {
	return &SourceHandler{
		admin:    admin,
		reloader: reloader,
	}
}

// reloadSchedule 数据源变更后重建拉取计划,失败只记日志
func (h *SourceHandler) reloadSchedule(ctx context.Context) {
	if h.reloader == nil {
		return
	}
	if err := h.reloader.Reload(ctx); err != nil {
		logger.Warnf("Failed to reload source schedule: %v", err)
	}
}

// Create 创建数据源
// POST /api/v1/inventory/sources
func (h *SourceHandler) Create(c *gin.Context) {
	tenantID := tenantFrom(c)

	var req invmodel.CreateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	source, err := h.admin.CreateSource(c.Request.Context(), tenantID, &req)
	if err != nil {
		h.writeError(c, "create_source", err)
		return
	}
	h.reloadSchedule(c.Request.Context())

	logger.LogAuditOperation(tenantID, actorFrom(c), "create_source", source.Name, "success",
		utils.GetClientIP(c), c.Request.UserAgent(), c.GetHeader("X-Request-ID"), map[string]interface{}{
			"source_id": source.ID,
			"type":      source.Type,
		})

	c.JSON(http.StatusCreated, system.APIResponse{
		Code:    http.StatusCreated,
		Status:  "success",
		Message: "Source created",
		Data:    source,
	})
}

// Update 更新数据源
// PUT /api/v1/inventory/sources/:id
func (h *SourceHandler) Update(c *gin.Context) {
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

	var req invmodel.UpdateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	source, err := h.admin.UpdateSource(c.Request.Context(), tenantID, id, &req)
	if err != nil {
		h.writeError(c, "update_source", err)
		return
	}
	h.reloadSchedule(c.Request.Context())

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Source updated",
		Data:    source,
	})
}

// List 列出数据源
// GET /api/v1/inventory/sources
func (h *SourceHandler) List(c *gin.Context) {
	tenantID := tenantFrom(c)

	sources, err := h.admin.ListSources(c.Request.Context(), tenantID)
	if err != nil {
		h.writeError(c, "list_sources", err)
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   sources,
	})
}

// Delete 删除数据源
// DELETE /api/v1/inventory/sources/:id
func (h *SourceHandler) Delete(c *gin.Context) {
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

	if err := h.admin.DeleteSource(c.Request.Context(), tenantID, id); err != nil {
		h.writeError(c, "delete_source", err)
		return
	}
	h.reloadSchedule(c.Request.Context())

	logger.LogAuditOperation(tenantID, actorFrom(c), "delete_source", c.Param("id"), "success",
		utils.GetClientIP(c), c.Request.UserAgent(), c.GetHeader("X-Request-ID"), nil)

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Source deleted",
	})
}

// writeError 错误到HTTP状态码的映射
func (h *SourceHandler) writeError(c *gin.Context, operation string, err error) {
	status := http.StatusInternalServerError
	var ve *system.ValidationError
	switch {
	case errors.Is(err, system.ErrSourceNotFound):
		status = http.StatusNotFound
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	}

	logger.LogError(err, c.GetHeader("X-Request-ID"), tenantFrom(c), utils.GetClientIP(c),
		c.Request.URL.String(), c.Request.Method, map[string]interface{}{
			"operation": operation,
		})

	c.JSON(status, system.APIResponse{
		Code:    status,
		Status:  "failed",
		Message: "Operation failed",
		Error:   err.Error(),
	})
}
