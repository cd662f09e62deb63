package inventory

import (
	"time"

	"neoinventory/internal/model/basemodel"
)

// 数据源类型
const (
	SourceTypeWebhook = "webhook" // 上游主动推送
	SourceTypePull    = "pull"    // 按cron计划定时拉取
)

// 同步状态
const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// Source 数据源表
// webhook 类型只做标识登记；pull 类型由调度器按 Schedule 定时拉取
type Source struct {
	basemodel.BaseModel

	TenantID       string     `json:"tenant_id" gorm:"size:64;not null;index;comment:租户标识"`
	Name           string     `json:"name" gorm:"size:100;not null;comment:数据源名称(作为导入记录的source标识)"`
	Type           string     `json:"type" gorm:"size:20;not null;default:'webhook';comment:类型(webhook/pull)"`
	Endpoint       string     `json:"endpoint" gorm:"size:255;comment:拉取地址(pull类型必填)"`
	Schedule       string     `json:"schedule" gorm:"size:100;comment:cron表达式(pull类型必填)"`
	Enabled        bool       `json:"enabled" gorm:"default:true;comment:是否启用"`
	LastSyncAt     *time.Time `json:"last_sync_at" gorm:"comment:最近同步时间"`
	LastSyncStatus string     `json:"last_sync_status" gorm:"size:20;comment:最近同步状态(success/failed)"`
	LastSyncError  string     `json:"last_sync_error" gorm:"type:text;comment:最近同步失败原因"`
}

// TableName 定义数据库表名
func (Source) TableName() string {
	return "inventory_sources"
}
