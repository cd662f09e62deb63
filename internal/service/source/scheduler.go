/**
 * 服务:数据源同步调度器
 * @description: 按cron计划从pull类型数据源拉取设备记录,送入同一条准入流水线
 * @func: Start/Stop/Reload,每次同步结果回写数据源状态
 */
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/pkg/logger"
	invrepo "neoinventory/internal/repo/mysql/inventory"
	invservice "neoinventory/internal/service/inventory"
)

// schedulerActor 调度器触发的批次在审计链中的操作者标识
const schedulerActor = "source-scheduler"

// Scheduler 数据源同步调度器
// 启动时装载全部启用的pull数据源;数据源增删改后调用Reload重建计划
type Scheduler struct {
	sources *invrepo.SourceRepository
	engine  *invservice.Engine
	client  *http.Client

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewScheduler 创建调度器
func NewScheduler(sources *invrepo.SourceRepository, engine *invservice.Engine, pullTimeout time.Duration) *Scheduler {
	if pullTimeout <= 0 {
		pullTimeout = 60 * time.Second
	}
	return &Scheduler{
		sources: sources,
		engine:  engine,
		client:  &http.Client{Timeout: pullTimeout},
	}
}

// Start 启动调度器并装载数据源
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	c, err := s.buildCron(ctx)
	if err != nil {
		return err
	}

	s.cron = c
	s.cron.Start()
	s.running = true

	logger.LogSystemEvent("scheduler", "startup", "source sync scheduler started", logrus.InfoLevel, nil)
	return nil
}

// Stop 停止调度器,等待进行中的同步结束
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	s.running = false

	logger.LogSystemEvent("scheduler", "shutdown", "source sync scheduler stopped", logrus.InfoLevel, nil)
}

// Reload 数据源变更后重建cron计划
func (s *Scheduler) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return fmt.Errorf("scheduler is not running")
	}

	c, err := s.buildCron(ctx)
	if err != nil {
		return err
	}

	<-s.cron.Stop().Done()
	s.cron = c
	s.cron.Start()

	logger.LogSystemEvent("scheduler", "reload", "source sync schedule rebuilt", logrus.InfoLevel, nil)
	return nil
}

// buildCron 从存储装载启用的pull数据源并注册任务
func (s *Scheduler) buildCron(ctx context.Context) (*cron.Cron, error) {
	sources, err := s.sources.ListEnabledPull(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pull sources: %w", err)
	}

	c := cron.New()
	for _, src := range sources {
		src := src
		if _, err := c.AddFunc(src.Schedule, func() {
			s.syncSource(src)
		}); err != nil {
			logger.Warnf("Skipping source %s (tenant %s): invalid schedule %q: %v",
				src.Name, src.TenantID, src.Schedule, err)
		}
	}
	return c, nil
}

// syncSource 执行一次同步:拉取、解析、送入流水线、回写结果
func (s *Scheduler) syncSource(src *invmodel.Source) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	raws, err := s.fetch(ctx, src.Endpoint)
	if err != nil {
		s.recordResult(ctx, src, invmodel.SyncStatusFailed, err)
		return
	}
	if len(raws) == 0 {
		s.recordResult(ctx, src, invmodel.SyncStatusSuccess, nil)
		return
	}

	if _, err := s.engine.ProcessBatch(ctx, src.TenantID, schedulerActor, src.Name, "", raws); err != nil {
		s.recordResult(ctx, src, invmodel.SyncStatusFailed, err)
		return
	}

	s.recordResult(ctx, src, invmodel.SyncStatusSuccess, nil)
}

// fetch 从数据源endpoint拉取JSON记录
// 接受 {"items":[...]} 或裸数组两种返回形式
func (s *Scheduler) fetch(ctx context.Context, endpoint string) ([]map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Items []map[string]interface{} `json:"items"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Items != nil {
		return wrapped.Items, nil
	}

	var raws []map[string]interface{}
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("source returned unparseable payload: %w", err)
	}
	return raws, nil
}

// recordResult 回写同步状态
func (s *Scheduler) recordResult(ctx context.Context, src *invmodel.Source, status string, syncErr error) {
	errMsg := ""
	if syncErr != nil {
		errMsg = syncErr.Error()
		logger.Warnf("Source sync failed for %s (tenant %s): %v", src.Name, src.TenantID, syncErr)
	}
	if err := s.sources.UpdateSyncResult(ctx, src.TenantID, src.ID, status, errMsg); err != nil {
		logger.Warnf("Failed to record sync result for source %s: %v", src.Name, err)
	}
}
