package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/model/system"
	invrepo "neoinventory/internal/repo/mysql/inventory"
	invservice "neoinventory/internal/service/inventory"
)

// stubGateway 测试中不应被调用的AI网关
type stubGateway struct{}

func (stubGateway) Classify(ctx context.Context, cfg *invmodel.AIProviderConfig, item *invmodel.InventoryItem) (*invmodel.Classification, error) {
	return nil, system.NewProviderError(system.ProviderErrorUnavailable, "stub", "not wired in test")
}

func newIngestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&invmodel.InventoryItem{},
		&invmodel.AIProviderConfig{},
		&invmodel.Rule{},
		&invmodel.ProcessingLogEntry{},
	))

	engine := invservice.NewEngine(invservice.EngineOptions{
		Items:         invrepo.NewItemRepository(db),
		Configs:       invrepo.NewAIConfigRepository(db),
		Rules:         invrepo.NewRuleRepository(db),
		Gateway:       stubGateway{},
		MaxConcurrent: 2,
	})

	r := gin.New()
	// 认证中间件在测试中用直接注入身份替代
	r.POST("/api/v1/inventory/webhook/:source", func(c *gin.Context) {
		c.Set(ContextKeyTenantID, "tenant-a")
		c.Set(ContextKeyActor, "webhook")
		c.Next()
	}, NewIngestHandler(engine).Ingest)

	return r, db
}

func doIngest(t *testing.T, r *gin.Engine, source, body string) (*httptest.ResponseRecorder, *system.APIResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/webhook/"+source, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var resp system.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, &resp
}

// TestIngest_ValidBatch 正常批次返回200与逐条结果
func TestIngest_ValidBatch(t *testing.T) {
	r, db := newIngestRouter(t)

	w, resp := doIngest(t, r, "cmdb", `{
		"items": [
			{"hostname": "web-01", "external_id": "x-1"},
			{"os": "no identity here"}
		]
	}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result invmodel.BatchResult
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Rejected)
	assert.NotEmpty(t, result.BatchID)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, invmodel.OutcomeCreated, result.Outcomes[0].Outcome)
	assert.Equal(t, invmodel.OutcomeRejectedValidation, result.Outcomes[1].Outcome)

	// 合法记录已落库且绑定了路径中的source
	var count int64
	require.NoError(t, db.Model(&invmodel.InventoryItem{}).
		Where("tenant_id = ? AND source = ?", "tenant-a", "cmdb").
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// TestIngest_ClientBatchIDEchoed 客户端批次标识原样返回
func TestIngest_ClientBatchIDEchoed(t *testing.T) {
	r, _ := newIngestRouter(t)

	w, resp := doIngest(t, r, "cmdb", `{"batch_id": "batch-42", "items": [{"hostname": "h1"}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	data, _ := json.Marshal(resp.Data)
	var result invmodel.BatchResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "batch-42", result.BatchID)
}

// TestIngest_InvalidJSON 报文整体非法返回400
func TestIngest_InvalidJSON(t *testing.T) {
	r, _ := newIngestRouter(t)

	w, resp := doIngest(t, r, "cmdb", `{"items": [`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "failed", resp.Status)
	assert.NotEmpty(t, resp.Error)
}

// TestIngest_EmptyBatch 空批次返回400
// items为空数组时被binding拦下,缺失items字段时走空批次分支,两者都是400
func TestIngest_EmptyBatch(t *testing.T) {
	r, _ := newIngestRouter(t)

	for _, body := range []string{`{"items": []}`, `{"batch_id": "b-1"}`} {
		w, resp := doIngest(t, r, "cmdb", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "failed", resp.Status, body)
	}
}
