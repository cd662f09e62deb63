package inventory

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	invmodel "neoinventory/internal/model/inventory"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&invmodel.InventoryItem{},
		&invmodel.ProcessingLogEntry{},
	))
	return db
}

func newItem(tenantID, source, externalID, hostname string) *invmodel.InventoryItem {
	now := time.Now()
	return &invmodel.InventoryItem{
		TenantID:    tenantID,
		Source:      source,
		ExternalID:  externalID,
		Hostname:    hostname,
		Status:      invmodel.ItemStatusPending,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
}

// TestItemRepository_CreateAndGet 基本写读与租户隔离
func TestItemRepository_CreateAndGet(t *testing.T) {
	repo := NewItemRepository(newTestDB(t))
	ctx := context.Background()

	item := newItem("tenant-a", "cmdb", "x-1", "web-01")
	require.NoError(t, repo.Create(ctx, item))
	require.NotZero(t, item.ID)

	got, err := repo.GetByID(ctx, "tenant-a", item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "web-01", got.Hostname)

	// 其他租户读不到
	cross, err := repo.GetByID(ctx, "tenant-b", item.ID)
	require.NoError(t, err)
	assert.Nil(t, cross)

	// 不存在返回nil而不是错误
	missing, err := repo.GetByID(ctx, "tenant-a", 999999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// TestItemRepository_FindByExternalKey 逻辑唯一键查找
func TestItemRepository_FindByExternalKey(t *testing.T) {
	repo := NewItemRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newItem("tenant-a", "cmdb", "x-1", "web-01")))

	got, err := repo.FindByExternalKey(ctx, "tenant-a", "cmdb", "x-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "web-01", got.Hostname)

	// source不同视为不同键
	miss, err := repo.FindByExternalKey(ctx, "tenant-a", "edr", "x-1")
	require.NoError(t, err)
	assert.Nil(t, miss)

	// 租户隔离
	miss, err = repo.FindByExternalKey(ctx, "tenant-b", "cmdb", "x-1")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

// TestItemRepository_SaveWithLog 资产与日志同事务落库
func TestItemRepository_SaveWithLog(t *testing.T) {
	db := newTestDB(t)
	repo := NewItemRepository(db)
	logs := NewProcessingLogRepository(db)
	ctx := context.Background()

	item := newItem("tenant-a", "cmdb", "x-1", "web-01")
	item.Status = invmodel.ItemStatusApproved

	entries := []*invmodel.ProcessingLogEntry{
		{Decision: "approved", ProcessedBy: invmodel.ProcessedByAI, Provider: "openai"},
		nil, // nil条目跳过而不是报错
		{Decision: "approved", Actor: "alice", ProcessedBy: invmodel.ProcessedByManual},
	}
	require.NoError(t, repo.SaveWithLog(ctx, item, entries...))
	require.NotZero(t, item.ID)

	// ItemID和TenantID由仓库回填
	got, total, err := logs.ListByItem(ctx, "tenant-a", item.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, e := range got {
		assert.Equal(t, item.ID, e.ItemID)
		assert.Equal(t, "tenant-a", e.TenantID)
	}

	// 无日志条目时退化为普通保存
	item.DecisionReason = "updated"
	require.NoError(t, repo.SaveWithLog(ctx, item))
	reloaded, err := repo.GetByID(ctx, "tenant-a", item.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated", reloaded.DecisionReason)
}

// TestItemRepository_List 过滤、搜索与分页
func TestItemRepository_List(t *testing.T) {
	repo := NewItemRepository(newTestDB(t))
	ctx := context.Background()

	seed := []*invmodel.InventoryItem{
		newItem("tenant-a", "cmdb", "x-1", "web-01"),
		newItem("tenant-a", "cmdb", "x-2", "web-02"),
		newItem("tenant-a", "edr", "x-3", "db-01"),
		newItem("tenant-b", "cmdb", "x-1", "web-01"),
	}
	seed[0].Status = invmodel.ItemStatusApproved
	seed[1].Status = invmodel.ItemStatusApproved
	seed[2].Status = invmodel.ItemStatusRejected
	seed[2].Owner = "dba-team"
	for _, it := range seed {
		require.NoError(t, repo.Create(ctx, it))
	}

	// 租户作用域下全量
	items, total, err := repo.List(ctx, "tenant-a", &invmodel.ItemListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, items, 3)

	// 状态过滤
	items, total, err = repo.List(ctx, "tenant-a", &invmodel.ItemListQuery{Status: "approved"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// 来源过滤
	_, total, err = repo.List(ctx, "tenant-a", &invmodel.ItemListQuery{Source: "edr"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	// owner模糊搜索
	items, total, err = repo.List(ctx, "tenant-a", &invmodel.ItemListQuery{Keyword: "dba"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "db-01", items[0].Hostname)

	// 分页,id倒序
	items, total, err = repo.List(ctx, "tenant-a", &invmodel.ItemListQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, "web-01", items[0].Hostname)
}

// TestItemRepository_CountByStatus 状态统计
func TestItemRepository_CountByStatus(t *testing.T) {
	repo := NewItemRepository(newTestDB(t))
	ctx := context.Background()

	statuses := []invmodel.ItemStatus{
		invmodel.ItemStatusPending,
		invmodel.ItemStatusApproved,
		invmodel.ItemStatusApproved,
		invmodel.ItemStatusRejected,
		invmodel.ItemStatusArchived,
	}
	for i, s := range statuses {
		// 无外部键的记录允许重复
		it := newItem("tenant-a", "cmdb", "", "host-"+strconv.Itoa(i))
		it.Status = s
		require.NoError(t, repo.Create(ctx, it))
	}
	// 其他租户不计入
	other := newItem("tenant-b", "cmdb", "x-1", "other")
	require.NoError(t, repo.Create(ctx, other))

	stats, err := repo.CountByStatus(ctx, "tenant-a")
	require.NoError(t, err)
	assert.EqualValues(t, 5, stats.Total)
	assert.EqualValues(t, 1, stats.Pending)
	assert.EqualValues(t, 2, stats.Approved)
	assert.EqualValues(t, 1, stats.Rejected)
	assert.EqualValues(t, 0, stats.Flag)
	assert.EqualValues(t, 1, stats.Archived)
}

// TestProcessingLogRepository_ListByItem 日志倒序与分页
func TestProcessingLogRepository_ListByItem(t *testing.T) {
	db := newTestDB(t)
	items := NewItemRepository(db)
	logs := NewProcessingLogRepository(db)
	ctx := context.Background()

	item := newItem("tenant-a", "cmdb", "x-1", "web-01")
	require.NoError(t, items.Create(ctx, item))

	for _, d := range []string{"pending", "approved", "rejected"} {
		require.NoError(t, logs.Create(ctx, &invmodel.ProcessingLogEntry{
			TenantID: "tenant-a",
			ItemID:   item.ID,
			Decision: d,
		}))
	}

	got, total, err := logs.ListByItem(ctx, "tenant-a", item.ID, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, got, 2)
	// 最新的在前
	assert.Equal(t, "rejected", got[0].Decision)
	assert.Equal(t, "approved", got[1].Decision)

	// 租户隔离
	_, total, err = logs.ListByItem(ctx, "tenant-b", item.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}
