package inventory

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/model/system"
	invrepo "neoinventory/internal/repo/mysql/inventory"
)

// fakeGateway 可编程的AI网关测试替身
type fakeGateway struct {
	classification *invmodel.Classification
	err            error
	calls          int32
}

func (f *fakeGateway) Classify(ctx context.Context, cfg *invmodel.AIProviderConfig, item *invmodel.InventoryItem) (*invmodel.Classification, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.classification, nil
}

// fakeNotifier 记录回调而不发HTTP
type fakeNotifier struct {
	outcomes []invmodel.ItemOutcome
}

func (f *fakeNotifier) NotifyOutcome(webhookURL string, tenantID string, outcome invmodel.ItemOutcome) {
	f.outcomes = append(f.outcomes, outcome)
}

type engineFixture struct {
	engine  *Engine
	items   *invrepo.ItemRepository
	configs *invrepo.AIConfigRepository
	rules   *invrepo.RuleRepository
	logs    *invrepo.ProcessingLogRepository
	db      *gorm.DB
	gateway *fakeGateway
}

func newEngineFixture(t *testing.T, gw *fakeGateway) *engineFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// 内存库在多连接下各连接看到的是不同的库,强制单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&invmodel.InventoryItem{},
		&invmodel.AIProviderConfig{},
		&invmodel.Rule{},
		&invmodel.ProcessingLogEntry{},
		&invmodel.Source{},
	))

	items := invrepo.NewItemRepository(db)
	configs := invrepo.NewAIConfigRepository(db)
	rules := invrepo.NewRuleRepository(db)
	logs := invrepo.NewProcessingLogRepository(db)

	engine := NewEngine(EngineOptions{
		Items:           items,
		Configs:         configs,
		Rules:           rules,
		Gateway:         gw,
		Notifier:        &fakeNotifier{},
		MaxConcurrent:   4,
		ResetOnReingest: true,
	})

	return &engineFixture{
		engine:  engine,
		items:   items,
		configs: configs,
		rules:   rules,
		logs:    logs,
		db:      db,
		gateway: gw,
	}
}

func (f *engineFixture) seedActiveConfig(t *testing.T, tenantID string) *invmodel.AIProviderConfig {
	t.Helper()
	cfg := &invmodel.AIProviderConfig{
		TenantID:       tenantID,
		Name:           "test-config",
		Provider:       invmodel.ProviderOpenAI,
		Model:          "gpt-4o-mini",
		APIKeySealed:   "sealed",
		Temperature:    0.1,
		MaxTokens:      500,
		TimeoutSeconds: 5,
		Enabled:        true,
		AutoProcess:    true,
		Active:         true,
	}
	require.NoError(t, f.configs.Create(context.Background(), cfg))
	return cfg
}

func (f *engineFixture) seedRule(t *testing.T, tenantID string, priority int, field, op, value, action string) *invmodel.Rule {
	t.Helper()
	r := &invmodel.Rule{
		TenantID: tenantID,
		Name:     action + "-" + field,
		Priority: priority,
		Field:    field,
		Operator: op,
		Value:    value,
		Action:   action,
		Enabled:  true,
	}
	require.NoError(t, f.rules.Create(context.Background(), r))
	return r
}

// TestProcessBatch_CreatesAndClassifies AI决策直接落到资产状态
func TestProcessBatch_CreatesAndClassifies(t *testing.T) {
	f := newEngineFixture(t, &fakeGateway{
		classification: &invmodel.Classification{
			Decision:   "approved",
			Comments:   "known corporate asset",
			Confidence: 0.92,
		},
	})
	f.seedActiveConfig(t, "tenant-a")

	result, err := f.engine.ProcessBatch(context.Background(), "tenant-a", "tester", "cmdb", "", []map[string]interface{}{
		{"hostname": "web-01", "external_id": "x-1", "os": "Ubuntu"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Created)
	assert.NotEmpty(t, result.BatchID)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, invmodel.OutcomeCreated, result.Outcomes[0].Outcome)
	assert.Equal(t, invmodel.ItemStatusApproved, result.Outcomes[0].InventoryStatus)

	item, err := f.items.GetByID(context.Background(), "tenant-a", result.Outcomes[0].ItemID)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, invmodel.ItemStatusApproved, item.Status)
	assert.Equal(t, "known corporate asset", item.DecisionReason)
	assert.Equal(t, invmodel.ProcessedByAI, item.ProcessedBy)
	require.NotNil(t, item.ProcessedAt)

	// AI决策留痕
	entries, total, err := f.logs.ListByItem(context.Background(), "tenant-a", item.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "approved", entries[0].Decision)
	assert.Equal(t, invmodel.ProcessedByAI, entries[0].ProcessedBy)
}

// TestProcessBatch_IdempotentUpsert 同一外部键重复导入不产生重复记录
func TestProcessBatch_IdempotentUpsert(t *testing.T) {
	f := newEngineFixture(t, &fakeGateway{
		classification: &invmodel.Classification{Decision: "approved", Comments: "ok"},
	})
	f.seedActiveConfig(t, "tenant-a")

	raw := map[string]interface{}{"hostname": "web-01", "external_id": "x-1"}

	first, err := f.engine.ProcessBatch(context.Background(), "tenant-a", "tester", "cmdb", "", []map[string]interface{}{raw})
	require.NoError(t, err)
	require.Equal(t, 1, first.Created)

	item1, err := f.items.FindByExternalKey(context.Background(), "tenant-a", "cmdb", "x-1")
	require.NoError(t, err)
	require.NotNil(t, item1)
	firstSeen := item1.FirstSeenAt

	second, err := f.engine.ProcessBatch(context.Background(), "tenant-a", "tester", "cmdb", "", []map[string]interface{}{raw})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Updated)

	var count int64
	require.NoError(t, f.db.Model(&invmodel.InventoryItem{}).Where("tenant_id = ?", "tenant-a").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	item2, err := f.items.FindByExternalKey(context.Background(), "tenant-a", "cmdb", "x-1")
	require.NoError(t, err)
	assert.Equal(t, item1.ID, item2.ID)
	assert.Equal(t, firstSeen.Unix(), item2.FirstSeenAt.Unix())
	assert.False(t, item2.LastSeenAt.Before(item1.LastSeenAt))
}

// TestProcessBatch_ProviderFailureFallsBackToRules AI失败留痕并回退规则
func TestProcessBatch_ProviderFailureFallsBackToRules(t *testing.T) {
	f := newEngineFixture(t, &fakeGateway{
		err: &system.ProviderError{
			Kind:     system.ProviderErrorTimeout,
			Provider: invmodel.ProviderOpenAI,
			Message:  "request timed out",
		},
	})
	f.seedActiveConfig(t, "tenant-a")
	f.seedRule(t, "tenant-a", 10, "os", invmodel.OperatorContains, "windows xp", invmodel.RuleActionReject)

	result, err := f.engine.ProcessBatch(context.Background(), "tenant-a", "tester", "cmdb", "", []map[string]interface{}{
		{"hostname": "legacy-01", "external_id": "x-9", "os": "Windows XP SP3"},
	})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Empty(t, result.Outcomes[0].Error)

	item, err := f.items.FindByExternalKey(context.Background(), "tenant-a", "cmdb", "x-9")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, invmodel.ItemStatusRejected, item.Status)
	assert.Equal(t, invmodel.ProcessedByRule, item.ProcessedBy)

	// 失败日志和规则决策日志都在
	entries, total, err := f.logs.ListByItem(context.Background(), "tenant-a", item.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	decisions := []string{entries[0].Decision, entries[1].Decision}
	assert.Contains(t, decisions, "rejected")
	hasFailure := entries[0].Error != "" || entries[1].Error != ""
	assert.True(t, hasFailure)
}

// TestProcessBatch_NoMatchStaysPending 无AI无规则命中时保持pending,不算错误
func TestProcessBatch_NoMatchStaysPending(t *testing.T) {
	f := newEngineFixture(t, &fakeGateway{})

	result, err := f.engine.ProcessBatch(context.Background(), "tenant-a", "tester", "cmdb", "", []map[string]interface{}{
		{"hostname": "mystery-01", "external_id": "x-2"},
	})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Empty(t, result.Outcomes[0].Error)
	assert.Equal(t, invmodel.ItemStatusPending, result.Outcomes[0].InventoryStatus)

	// 没有激活配置时不应调用AI
	assert.EqualValues(t, 0, atomic.LoadInt32(&f.gateway.calls))
}

// TestProcessBatch_ValidationRejectedNotPersisted 校验失败的记录不落库
func TestProcessBatch_ValidationRejectedNotPersisted(t *testing.T) {
	f := newEngineFixture(t, &fakeGateway{})

	result, err := f.engine.ProcessBatch(context.Background(), "tenant-a", "tester", "cmdb", "", []map[string]interface{}{
		{"os": "Ubuntu"},
		{"hostname": "ok-01"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 1, result.Created)

	var count int64
	require.NoError(t, f.db.Model(&invmodel.InventoryItem{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// TestProcessBatch_ArchivedOnlyAdvancesLastSeen 归档资产不被自动导入复活
func TestProcessBatch_ArchivedOnlyAdvancesLastSeen(t *testing.T) {
	f := newEngineFixture(t, &fakeGateway{
		classification: &invmodel.Classification{Decision: "approved", Comments: "ok"},
	})
	f.seedActiveConfig(t, "tenant-a")

	raw := map[string]interface{}{"hostname": "web-01", "external_id": "x-1"}
	_, err := f.engine.ProcessBatch(context.Background(), "tenant-a", "tester", "cmdb", "", []map[string]interface{}{raw})
	require.NoError(t, err)

	item, err := f.items.FindByExternalKey(context.Background(), "tenant-a", "cmdb", "x-1")
	require.NoError(t, err)

	_, err = f.engine.Archive(context.Background(), "tenant-a", item.ID, "admin")
	require.NoError(t, err)

	calls := atomic.LoadInt32(&f.gateway.calls)

	result, err := f.engine.ProcessBatch(context.Background(), "tenant-a", "tester", "cmdb", "", []map[string]interface{}{raw})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	reloaded, err := f.items.GetByID(context.Background(), "tenant-a", item.ID)
	require.NoError(t, err)
	assert.Equal(t, invmodel.ItemStatusArchived, reloaded.Status)
	// 归档资产不再触发AI评估
	assert.Equal(t, calls, atomic.LoadInt32(&f.gateway.calls))
}

// TestProcessBatch_TenantIsolation 不同租户的同名外部键互不影响
func TestProcessBatch_TenantIsolation(t *testing.T) {
	f := newEngineFixture(t, &fakeGateway{})

	raw := []map[string]interface{}{{"hostname": "shared", "external_id": "x-1"}}

	_, err := f.engine.ProcessBatch(context.Background(), "tenant-a", "tester", "cmdb", "", raw)
	require.NoError(t, err)
	_, err = f.engine.ProcessBatch(context.Background(), "tenant-b", "tester", "cmdb", "", raw)
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&invmodel.InventoryItem{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	itemA, err := f.items.FindByExternalKey(context.Background(), "tenant-a", "cmdb", "x-1")
	require.NoError(t, err)
	itemB, err := f.items.FindByExternalKey(context.Background(), "tenant-b", "cmdb", "x-1")
	require.NoError(t, err)
	assert.NotEqual(t, itemA.ID, itemB.ID)

	// 跨租户读取拿不到对方数据
	cross, err := f.items.GetByID(context.Background(), "tenant-a", itemB.ID)
	require.NoError(t, err)
	assert.Nil(t, cross)
}

// TestProcessBatch_EmptyBatch 空批次直接拒绝
func TestProcessBatch_EmptyBatch(t *testing.T) {
	f := newEngineFixture(t, &fakeGateway{})

	_, err := f.engine.ProcessBatch(context.Background(), "tenant-a", "tester", "cmdb", "", nil)
	assert.ErrorIs(t, err, system.ErrEmptyBatch)
}

// TestManualDecision_Lifecycle 人工决策与归档生命周期
func TestManualDecision_Lifecycle(t *testing.T) {
	f := newEngineFixture(t, &fakeGateway{})

	_, err := f.engine.ProcessBatch(context.Background(), "tenant-a", "tester", "cmdb", "", []map[string]interface{}{
		{"hostname": "web-01", "external_id": "x-1"},
	})
	require.NoError(t, err)

	item, err := f.items.FindByExternalKey(context.Background(), "tenant-a", "cmdb", "x-1")
	require.NoError(t, err)

	// 人工准入覆盖pending
	approved, err := f.engine.Approve(context.Background(), "tenant-a", item.ID, "alice", "verified by hand")
	require.NoError(t, err)
	assert.Equal(t, invmodel.ItemStatusApproved, approved.Status)
	assert.Equal(t, invmodel.ProcessedByManual, approved.ProcessedBy)
	assert.Equal(t, "verified by hand", approved.DecisionReason)

	// 归档
	archived, err := f.engine.Archive(context.Background(), "tenant-a", item.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, invmodel.ItemStatusArchived, archived.Status)

	// 重复归档幂等
	_, err = f.engine.Archive(context.Background(), "tenant-a", item.ID, "alice")
	require.NoError(t, err)

	// 归档态拒绝人工决策
	_, err = f.engine.Reject(context.Background(), "tenant-a", item.ID, "alice", "")
	assert.ErrorIs(t, err, system.ErrItemArchived)

	// 恢复回pending并清空决策字段
	restored, err := f.engine.Restore(context.Background(), "tenant-a", item.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, invmodel.ItemStatusPending, restored.Status)
	assert.Empty(t, restored.DecisionReason)
	assert.Empty(t, restored.ProcessedBy)
	assert.Nil(t, restored.ProcessedAt)

	// 非归档态不能恢复
	_, err = f.engine.Restore(context.Background(), "tenant-a", item.ID, "alice")
	assert.ErrorIs(t, err, system.ErrItemNotArchived)

	// 不存在的资产
	_, err = f.engine.Approve(context.Background(), "tenant-a", 999999, "alice", "")
	assert.ErrorIs(t, err, system.ErrItemNotFound)
}

// TestUpdateLimits 热更新并发度后下一个批次生效
func TestUpdateLimits(t *testing.T) {
	f := newEngineFixture(t, &fakeGateway{})

	f.engine.UpdateLimits(2, false)

	// reset_on_reingest 关闭后,重复导入保留已有决策
	_, err := f.engine.ProcessBatch(context.Background(), "tenant-a", "tester", "cmdb", "", []map[string]interface{}{
		{"hostname": "web-01", "external_id": "x-1"},
	})
	require.NoError(t, err)

	item, err := f.items.FindByExternalKey(context.Background(), "tenant-a", "cmdb", "x-1")
	require.NoError(t, err)

	_, err = f.engine.Approve(context.Background(), "tenant-a", item.ID, "alice", "manual ok")
	require.NoError(t, err)

	_, err = f.engine.ProcessBatch(context.Background(), "tenant-a", "tester", "cmdb", "", []map[string]interface{}{
		{"hostname": "web-01", "external_id": "x-1"},
	})
	require.NoError(t, err)

	reloaded, err := f.items.GetByID(context.Background(), "tenant-a", item.ID)
	require.NoError(t, err)
	assert.Equal(t, invmodel.ItemStatusApproved, reloaded.Status)
	assert.Equal(t, "manual ok", reloaded.DecisionReason)
}
