/**
 * 处理器:AI配置
 * @description: AI后端配置的管理接口
 * @func: CRUD/Activate/Test
 */
package inventory

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/model/system"
	"neoinventory/internal/pkg/logger"
	"neoinventory/internal/pkg/utils"
	invservice "neoinventory/internal/service/inventory"
)

// AIConfigHandler AI配置处理器
type AIConfigHandler struct {
	admin *invservice.AdminService
}

// NewAIConfigHandler 创建 AIConfigHandler 实例
func NewAIConfigHandler(admin *invservice.AdminService) *AIConfigHandler {
	return &AIConfigHandler{
		admin: admin,
	}
}

// Create 创建AI配置
// POST /api/v1/inventory/configs
func (h *AIConfigHandler) Create(c *gin.Context) {
	tenantID := tenantFrom(c)

	var req invmodel.CreateAIConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	cfg, err := h.admin.CreateAIConfig(c.Request.Context(), tenantID, &req)
	if err != nil {
		h.writeError(c, "create_ai_config", err)
		return
	}

	logger.LogAuditOperation(tenantID, actorFrom(c), "create_ai_config", cfg.Name, "success",
		utils.GetClientIP(c), c.Request.UserAgent(), c.GetHeader("X-Request-ID"), map[string]interface{}{
			"config_id": cfg.ID,
			"provider":  cfg.Provider,
		})

	c.JSON(http.StatusCreated, system.APIResponse{
		Code:    http.StatusCreated,
		Status:  "success",
		Message: "Config created",
		Data:    cfg,
	})
}

// Update 更新AI配置
// PUT /api/v1/inventory/configs/:id
func (h *AIConfigHandler) Update(c *gin.Context) {
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

	var req invmodel.UpdateAIConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	cfg, err := h.admin.UpdateAIConfig(c.Request.Context(), tenantID, id, &req)
	if err != nil {
		h.writeError(c, "update_ai_config", err)
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Config updated",
		Data:    cfg,
	})
}

// Get 获取AI配置
// GET /api/v1/inventory/configs/:id
func (h *AIConfigHandler) Get(c *gin.Context) {
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

	cfg, err := h.admin.GetAIConfig(c.Request.Context(), tenantID, id)
	if err != nil {
		h.writeError(c, "get_ai_config", err)
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   cfg,
	})
}

// List 列出AI配置
// GET /api/v1/inventory/configs
func (h *AIConfigHandler) List(c *gin.Context) {
	tenantID := tenantFrom(c)

	cfgs, err := h.admin.ListAIConfigs(c.Request.Context(), tenantID)
	if err != nil {
		h.writeError(c, "list_ai_configs", err)
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   cfgs,
	})
}

// Delete 删除AI配置
// DELETE /api/v1/inventory/configs/:id
func (h *AIConfigHandler) Delete(c *gin.Context) {
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

	if err := h.admin.DeleteAIConfig(c.Request.Context(), tenantID, id); err != nil {
		h.writeError(c, "delete_ai_config", err)
		return
	}

	logger.LogAuditOperation(tenantID, actorFrom(c), "delete_ai_config", c.Param("id"), "success",
		utils.GetClientIP(c), c.Request.UserAgent(), c.GetHeader("X-Request-ID"), nil)

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Config deleted",
	})
}

// Activate 激活AI配置
// POST /api/v1/inventory/configs/:id/activate
func (h *AIConfigHandler) Activate(c *gin.Context) {
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

	if err := h.admin.ActivateAIConfig(c.Request.Context(), tenantID, id); err != nil {
		h.writeError(c, "activate_ai_config", err)
		return
	}

	logger.LogAuditOperation(tenantID, actorFrom(c), "activate_ai_config", c.Param("id"), "success",
		utils.GetClientIP(c), c.Request.UserAgent(), c.GetHeader("X-Request-ID"), nil)

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Config activated",
	})
}

// Test 配置连通性测试
// POST /api/v1/inventory/configs/test
// 真实调用一次AI后端,结果(包括失败的原始错误文本)原样返回,不落库
func (h *AIConfigHandler) Test(c *gin.Context) {
	var req invmodel.TestAIConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	classification, err := h.admin.TestAIConfig(c.Request.Context(), &req)
	if err != nil {
		// 测试接口的失败是正常业务结果,返回200并附带错误原文
		c.JSON(http.StatusOK, system.APIResponse{
			Code:    http.StatusOK,
			Status:  "failed",
			Message: "Provider call failed",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Provider call succeeded",
		Data:    classification,
	})
}

// writeError 错误到HTTP状态码的映射
func (h *AIConfigHandler) writeError(c *gin.Context, operation string, err error) {
	status := http.StatusInternalServerError
	var ce *system.ConfigurationError
	switch {
	case errors.Is(err, system.ErrConfigNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.As(err, &ce):
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
