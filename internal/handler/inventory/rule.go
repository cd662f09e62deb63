/**
 * 处理器:规则
 * @description: 准入规则的管理接口
 * @func: CRUD
 */
package inventory

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/model/system"
	"neoinventory/internal/pkg/logger"
	"neoinventory/internal/pkg/utils"
	invservice "neoinventory/internal/service/inventory"
)

// RuleHandler 规则处理器
type RuleHandler struct {
	admin *invservice.AdminService
}

// NewRuleHandler 创建 RuleHandler 实例
func NewRuleHandler(admin *invservice.AdminService) *RuleHandler {
	return &RuleHandler{
		admin: admin,
	}
}

// Create 创建规则
// POST /api/v1/inventory/rules
func (h *RuleHandler) Create(c *gin.Context) {
	tenantID := tenantFrom(c)

	var req invmodel.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	rule, err := h.admin.CreateRule(c.Request.Context(), tenantID, &req)
	if err != nil {
		h.writeError(c, "create_rule", err)
		return
	}

	logger.LogAuditOperation(tenantID, actorFrom(c), "create_rule", rule.Name, "success",
		utils.GetClientIP(c), c.Request.UserAgent(), c.GetHeader("X-Request-ID"), map[string]interface{}{
			"rule_id": rule.ID,
		})

	c.JSON(http.StatusCreated, system.APIResponse{
		Code:    http.StatusCreated,
		Status:  "success",
		Message: "Rule created",
		Data:    rule,
	})
}

// Update 更新规则
// PUT /api/v1/inventory/rules/:id
func (h *RuleHandler) Update(c *gin.Context) {
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

	var req invmodel.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	rule, err := h.admin.UpdateRule(c.Request.Context(), tenantID, id, &req)
	if err != nil {
		h.writeError(c, "update_rule", err)
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Rule updated",
		Data:    rule,
	})
}

// List 列出规则
// GET /api/v1/inventory/rules
func (h *RuleHandler) List(c *gin.Context) {
	tenantID := tenantFrom(c)

	rules, err := h.admin.ListRules(c.Request.Context(), tenantID)
	if err != nil {
		h.writeError(c, "list_rules", err)
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   rules,
	})
}

// Delete 删除规则
// DELETE /api/v1/inventory/rules/:id
func (h *RuleHandler) Delete(c *gin.Context) {
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

	if err := h.admin.DeleteRule(c.Request.Context(), tenantID, id); err != nil {
		h.writeError(c, "delete_rule", err)
		return
	}

	logger.LogAuditOperation(tenantID, actorFrom(c), "delete_rule", c.Param("id"), "success",
		utils.GetClientIP(c), c.Request.UserAgent(), c.GetHeader("X-Request-ID"), nil)

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Rule deleted",
	})
}

// writeError 错误到HTTP状态码的映射
func (h *RuleHandler) writeError(c *gin.Context, operation string, err error) {
	status := http.StatusInternalServerError
	var ve *system.ValidationError
	switch {
	case errors.Is(err, system.ErrRuleNotFound):
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
