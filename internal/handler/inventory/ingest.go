/**
 * 处理器:批量导入
 * @description: webhook批量导入入口,批次级部分成功
 * @func: Ingest
 */
package inventory

import (
	"net/http"

	"github.com/gin-gonic/gin"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/model/system"
	"neoinventory/internal/pkg/logger"
	"neoinventory/internal/pkg/utils"
	invservice "neoinventory/internal/service/inventory"
)

// IngestHandler 导入处理器
type IngestHandler struct {
	engine *invservice.Engine
}

// NewIngestHandler 创建 IngestHandler 实例
func NewIngestHandler(engine *invservice.Engine) *IngestHandler {
	return &IngestHandler{
		engine: engine,
	}
}

// Ingest 处理批量导入
// POST /api/v1/inventory/webhook/:source
// 只有报文整体非法才返回400;单条记录的失败落在逐条结果里,批次本身返回200
func (h *IngestHandler) Ingest(c *gin.Context) {
	clientIP := utils.GetClientIP(c)
	requestID := c.GetHeader("X-Request-ID")
	tenantID := tenantFrom(c)
	actor := actorFrom(c)
	source := c.Param("source")

	var req invmodel.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.LogError(err, requestID, tenantID, clientIP, c.Request.URL.String(), "POST", map[string]interface{}{
			"operation": "ingest_batch",
			"error":     "invalid_json",
		})
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Batch contains no items",
			Error:   system.ErrEmptyBatch.Error(),
		})
		return
	}

	result, err := h.engine.ProcessBatch(c.Request.Context(), tenantID, actor, source, req.BatchID, req.Items)
	if err != nil {
		logger.LogError(err, requestID, tenantID, clientIP, c.Request.URL.String(), "POST", map[string]interface{}{
			"operation": "ingest_batch",
			"source":    source,
		})
		c.JSON(http.StatusInternalServerError, system.APIResponse{
			Code:    http.StatusInternalServerError,
			Status:  "failed",
			Message: "Failed to process batch",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Batch processed",
		Data:    result,
	})
}
