/**
 * 服务:结果回调
 * @description: 处理结果的异步webhook通知,fire-and-forget
 * @func: NotifyOutcome
 */
package inventory

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/pkg/logger"
)

// WebhookNotifier 处理结果回调器
// 回调失败不影响流水线,只记日志
type WebhookNotifier struct {
	client *http.Client
}

// NewWebhookNotifier 创建回调器
func NewWebhookNotifier(timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		client: &http.Client{Timeout: timeout},
	}
}

// NotifyOutcome 异步推送单条处理结果
func (n *WebhookNotifier) NotifyOutcome(webhookURL, tenantID string, outcome invmodel.ItemOutcome) {
	go func() {
		payload, err := json.Marshal(map[string]interface{}{
			"tenant_id": tenantID,
			"outcome":   outcome,
		})
		if err != nil {
			return
		}

		resp, err := n.client.Post(webhookURL, "application/json", bytes.NewReader(payload))
		if err != nil {
			logger.Warnf("Outcome webhook delivery failed for tenant %s: %v", tenantID, err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			logger.Warnf("Outcome webhook returned status %d for tenant %s", resp.StatusCode, tenantID)
		}
	}()
}
