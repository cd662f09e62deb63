/**
 * 服务:决策引擎
 * @description: 资产准入流水线的编排核心:规范化->幂等合并->AI评估->规则回退->事务落库
 * @func: ProcessBatch批量处理,Approve/Reject/Flag/Archive/Restore人工操作
 */
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/model/system"
	"neoinventory/internal/pkg/keymutex"
	"neoinventory/internal/pkg/logger"
	invrepo "neoinventory/internal/repo/mysql/inventory"
	redisrepo "neoinventory/internal/repo/redis"
	"neoinventory/internal/service/provider"
)

// ClassifierGateway AI网关抽象(测试替身友好)
type ClassifierGateway interface {
	Classify(ctx context.Context, cfg *invmodel.AIProviderConfig, item *invmodel.InventoryItem) (*invmodel.Classification, error)
}

// Notifier 处理结果回调抽象
type Notifier interface {
	NotifyOutcome(webhookURL string, tenantID string, outcome invmodel.ItemOutcome)
}

// Engine 决策引擎
// 批次内逐条并发处理,并发度受每租户信号量约束;
// 同一逻辑资产 (tenant|source|external_id) 的并发提交由键级互斥锁串行化
type Engine struct {
	items   *invrepo.ItemRepository
	configs *invrepo.AIConfigRepository
	rules   *invrepo.RuleRepository
	cache   *redisrepo.ConfigCache

	gateway    ClassifierGateway
	notifier   Notifier
	normalizer *Normalizer
	evaluator  *Evaluator
	keys       *keymutex.KeyMutex

	mu              sync.Mutex
	semaphores      map[string]chan struct{}
	maxConcurrent   int
	resetOnReingest bool
}

// EngineOptions 引擎构造参数
type EngineOptions struct {
	Items           *invrepo.ItemRepository
	Configs         *invrepo.AIConfigRepository
	Rules           *invrepo.RuleRepository
	Cache           *redisrepo.ConfigCache // 可为nil(测试或无redis环境)
	Gateway         ClassifierGateway
	Notifier        Notifier // 可为nil,默认fire-and-forget HTTP回调
	MaxConcurrent   int
	ResetOnReingest bool
}

// NewEngine 创建决策引擎
func NewEngine(opts EngineOptions) *Engine {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 8
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NewWebhookNotifier(0)
	}
	return &Engine{
		items:           opts.Items,
		configs:         opts.Configs,
		rules:           opts.Rules,
		cache:           opts.Cache,
		gateway:         opts.Gateway,
		notifier:        notifier,
		normalizer:      NewNormalizer(),
		evaluator:       NewEvaluator(),
		keys:            keymutex.New(),
		semaphores:      make(map[string]chan struct{}),
		maxConcurrent:   opts.MaxConcurrent,
		resetOnReingest: opts.ResetOnReingest,
	}
}

// UpdateLimits 应用热更新的并发与重评估配置
// 对进行中的批次不生效,下一个批次开始使用新值
func (e *Engine) UpdateLimits(maxConcurrent int, resetOnReingest bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if maxConcurrent > 0 && maxConcurrent != e.maxConcurrent {
		e.maxConcurrent = maxConcurrent
		// 丢弃旧信号量,下个批次按新并发度重建
		e.semaphores = make(map[string]chan struct{})
	}
	e.resetOnReingest = resetOnReingest
}

// tenantSemaphore 取租户的并发信号量
func (e *Engine) tenantSemaphore(tenantID string) chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	sem, ok := e.semaphores[tenantID]
	if !ok {
		sem = make(chan struct{}, e.maxConcurrent)
		e.semaphores[tenantID] = sem
	}
	return sem
}

// ProcessBatch 处理一个导入批次
// 激活配置与规则集在批次开始时读取一次,批次中途不再回源,
// 配置变更对下一个批次可见
func (e *Engine) ProcessBatch(ctx context.Context, tenantID, actor, source, batchID string, raws []map[string]interface{}) (*invmodel.BatchResult, error) {
	if len(raws) == 0 {
		return nil, system.ErrEmptyBatch
	}
	if batchID == "" {
		batchID = uuid.NewString()
	}

	cfg, err := e.loadActiveConfig(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active config: %w", err)
	}
	rules, err := e.loadRules(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	sem := e.tenantSemaphore(tenantID)
	outcomes := make([]invmodel.ItemOutcome, len(raws))

	var wg sync.WaitGroup
	for i, raw := range raws {
		wg.Add(1)
		go func(idx int, record map[string]interface{}) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[idx] = e.processOne(ctx, tenantID, actor, source, record, cfg, rules)
		}(i, raw)
	}
	wg.Wait()

	result := &invmodel.BatchResult{
		BatchID:  batchID,
		Total:    len(raws),
		Outcomes: outcomes,
	}
	for _, o := range outcomes {
		switch o.Outcome {
		case invmodel.OutcomeCreated:
			result.Created++
		case invmodel.OutcomeUpdated:
			result.Updated++
		case invmodel.OutcomeRejectedValidation:
			result.Rejected++
		}
	}

	logger.LogBusinessOperation("process_batch", tenantID, actor, "", batchID, "success",
		fmt.Sprintf("batch processed: %d total, %d created, %d updated, %d rejected",
			result.Total, result.Created, result.Updated, result.Rejected),
		map[string]interface{}{"source": source})

	return result, nil
}

// processOne 处理批次中的单条记录
func (e *Engine) processOne(ctx context.Context, tenantID, actor, source string, raw map[string]interface{}, cfg *invmodel.AIProviderConfig, rules []*invmodel.Rule) invmodel.ItemOutcome {
	item, err := e.normalizer.Normalize(raw, tenantID, source)
	if err != nil {
		// 校验失败的记录不落库,只在批次结果中报告
		return invmodel.ItemOutcome{
			Identifier: identifierOf(raw),
			Outcome:    invmodel.OutcomeRejectedValidation,
			Error:      err.Error(),
		}
	}

	// 同一逻辑资产的并发提交串行化;无外部键的记录各自独立,不加锁
	if item.HasExternalKey() {
		key := tenantID + "|" + item.Source + "|" + item.ExternalID
		e.keys.Lock(key)
		defer e.keys.Unlock(key)
	}

	outcome, existing, err := e.upsert(ctx, item)
	if err != nil {
		return invmodel.ItemOutcome{
			Identifier: item.Identifier(),
			Outcome:    outcome,
			Error:      err.Error(),
		}
	}

	// 归档资产只记录LastSeen,不重新评估
	if existing != nil && existing.IsArchived() {
		return invmodel.ItemOutcome{
			Identifier:      existing.Identifier(),
			Outcome:         invmodel.OutcomeUpdated,
			ItemID:          existing.ID,
			InventoryStatus: existing.Status,
			DecisionReason:  existing.DecisionReason,
		}
	}

	target := item
	if existing != nil {
		target = existing
	}

	entries := e.decide(ctx, tenantID, target, cfg, rules)

	if err := e.items.SaveWithLog(ctx, target, entries...); err != nil {
		return invmodel.ItemOutcome{
			Identifier: target.Identifier(),
			Outcome:    outcome,
			Error:      "failed to persist item: " + err.Error(),
		}
	}

	result := invmodel.ItemOutcome{
		Identifier:      target.Identifier(),
		Outcome:         outcome,
		ItemID:          target.ID,
		InventoryStatus: target.Status,
		DecisionReason:  target.DecisionReason,
	}

	// 处理结果异步回调,失败只记日志
	if cfg != nil && cfg.WebhookURL != "" {
		e.notifier.NotifyOutcome(cfg.WebhookURL, tenantID, result)
	}

	return result
}

// upsert 幂等合并
// 返回 (outcome, 既有记录或nil, error);新记录保持未落库状态,由decide后统一落库
func (e *Engine) upsert(ctx context.Context, item *invmodel.InventoryItem) (string, *invmodel.InventoryItem, error) {
	if !item.HasExternalKey() {
		// 无外部键,总是新建
		return invmodel.OutcomeCreated, nil, nil
	}

	existing, err := e.items.FindByExternalKey(ctx, item.TenantID, item.Source, item.ExternalID)
	if err != nil {
		return invmodel.OutcomeCreated, nil, err
	}
	if existing == nil {
		return invmodel.OutcomeCreated, nil, nil
	}

	// 归档是终态,自动导入只推进LastSeen
	if existing.IsArchived() {
		existing.LastSeenAt = item.LastSeenAt
		if err := e.items.Update(ctx, existing); err != nil {
			return invmodel.OutcomeUpdated, existing, err
		}
		return invmodel.OutcomeUpdated, existing, nil
	}

	mergeItem(existing, item)

	e.mu.Lock()
	reset := e.resetOnReingest
	e.mu.Unlock()
	if reset {
		// 重复导入重置决策字段,重新走评估
		existing.Status = invmodel.ItemStatusPending
		existing.DecisionReason = ""
		existing.ProcessedBy = ""
		existing.ProcessedAt = nil
	}

	return invmodel.OutcomeUpdated, existing, nil
}

// mergeItem 把新导入的可变字段并入既有记录
// 身份字段与FirstSeenAt保持不变
func mergeItem(existing, incoming *invmodel.InventoryItem) {
	existing.Hostname = incoming.Hostname
	existing.IPAddress = incoming.IPAddress
	existing.MACAddress = incoming.MACAddress
	existing.OS = incoming.OS
	existing.OSVersion = incoming.OSVersion
	existing.AssetCategory = incoming.AssetCategory
	existing.Manufacturer = incoming.Manufacturer
	existing.Model = incoming.Model
	existing.SerialNumber = incoming.SerialNumber
	existing.Location = incoming.Location
	existing.Department = incoming.Department
	existing.Owner = incoming.Owner
	existing.Tags = incoming.Tags
	existing.RiskScore = incoming.RiskScore
	existing.Metadata = incoming.Metadata
	existing.RawData = incoming.RawData
	existing.LastSeenAt = incoming.LastSeenAt
}

// decide 对资产执行自动评估,返回应与资产同事务落库的日志条目
// AI失败永远记录失败日志并回退规则;规则无命中时资产保持pending,这不是错误
func (e *Engine) decide(ctx context.Context, tenantID string, item *invmodel.InventoryItem, cfg *invmodel.AIProviderConfig, rules []*invmodel.Rule) []*invmodel.ProcessingLogEntry {
	if cfg.ShouldAutoProcess() {
		classification, err := e.gateway.Classify(ctx, cfg, item)
		if err == nil {
			return []*invmodel.ProcessingLogEntry{e.applyClassification(item, cfg, classification)}
		}

		// 失败留痕后回退规则,两条日志与资产同事务落库
		failEntry := &invmodel.ProcessingLogEntry{
			TenantID:    tenantID,
			Prompt:      provider.RenderPrompt(cfg.PromptTemplate, item),
			Provider:    cfg.Provider,
			Model:       cfg.Model,
			Error:       err.Error(),
			ProcessedBy: invmodel.ProcessedByAI,
		}
		var pe *system.ProviderError
		if errors.As(err, &pe) {
			failEntry.RawResponse = pe.Raw
		}
		logger.LogSystemEvent("engine", "provider_fallback",
			fmt.Sprintf("provider call failed, falling back to rules: %v", err),
			logrus.WarnLevel, map[string]interface{}{"tenant_id": tenantID, "item": item.Identifier()})

		entries := []*invmodel.ProcessingLogEntry{failEntry}
		if ruleEntry := e.applyRules(item, rules); ruleEntry != nil {
			entries = append(entries, ruleEntry)
		}
		return entries
	}

	if entry := e.applyRules(item, rules); entry != nil {
		return []*invmodel.ProcessingLogEntry{entry}
	}
	return nil
}

// applyClassification 把AI决策写到资产上
func (e *Engine) applyClassification(item *invmodel.InventoryItem, cfg *invmodel.AIProviderConfig, c *invmodel.Classification) *invmodel.ProcessingLogEntry {
	now := time.Now()
	// 决策到状态一一对应
	item.Status = invmodel.ItemStatus(c.Decision)
	item.DecisionReason = c.Comments
	item.ProcessedBy = invmodel.ProcessedByAI
	item.ProcessedAt = &now

	if c.SuggestedRiskScore != nil {
		score := *c.SuggestedRiskScore
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		item.RiskScore = score
	}
	if c.SuggestedAssetCategory != "" {
		item.AssetCategory = c.SuggestedAssetCategory
	}
	if len(c.SuggestedTags) > 0 {
		item.Tags = mergeTags(item.Tags, c.SuggestedTags)
	}

	return &invmodel.ProcessingLogEntry{
		TenantID:    item.TenantID,
		Prompt:      provider.RenderPrompt(cfg.PromptTemplate, item),
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		RawResponse: c.RawResponse,
		Decision:    c.Decision,
		Confidence:  c.Confidence,
		LatencyMS:   c.LatencyMS,
		ProcessedBy: invmodel.ProcessedByAI,
	}
}

// applyRules 规则回退评估,无命中时返回nil且不改动资产
func (e *Engine) applyRules(item *invmodel.InventoryItem, rules []*invmodel.Rule) *invmodel.ProcessingLogEntry {
	action, rule, ok := e.evaluator.Evaluate(item, rules)
	if !ok {
		return nil
	}

	now := time.Now()
	switch action {
	case invmodel.RuleActionApprove:
		item.Status = invmodel.ItemStatusApproved
	case invmodel.RuleActionReject:
		item.Status = invmodel.ItemStatusRejected
	case invmodel.RuleActionFlag:
		item.Status = invmodel.ItemStatusFlag
	default:
		return nil
	}
	item.DecisionReason = fmt.Sprintf("rule matched: %s", rule.Name)
	item.ProcessedBy = invmodel.ProcessedByRule
	item.ProcessedAt = &now

	return &invmodel.ProcessingLogEntry{
		TenantID:    item.TenantID,
		Decision:    string(item.Status),
		ProcessedBy: invmodel.ProcessedByRule,
	}
}

// loadActiveConfig 批次开始时读取一次激活配置(redis短TTL缓存)
func (e *Engine) loadActiveConfig(ctx context.Context, tenantID string) (*invmodel.AIProviderConfig, error) {
	if e.cache != nil {
		if cfg, hit, err := e.cache.GetActiveConfig(ctx, tenantID); err == nil && hit {
			return cfg, nil
		}
	}

	cfg, err := e.configs.GetActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.SetActiveConfig(ctx, tenantID, cfg); err != nil {
			logger.Warnf("Failed to cache active config for tenant %s: %v", tenantID, err)
		}
	}
	return cfg, nil
}

// loadRules 批次开始时读取一次启用规则集(redis短TTL缓存)
func (e *Engine) loadRules(ctx context.Context, tenantID string) ([]*invmodel.Rule, error) {
	if e.cache != nil {
		if rules, hit, err := e.cache.GetRules(ctx, tenantID); err == nil && hit {
			return rules, nil
		}
	}

	rules, err := e.rules.ListEnabled(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.SetRules(ctx, tenantID, rules); err != nil {
			logger.Warnf("Failed to cache rules for tenant %s: %v", tenantID, err)
		}
	}
	return rules, nil
}

// mergeTags 把AI建议标签并入既有标签集(小写去重排序)
func mergeTags(tagsJSON string, suggested []string) string {
	var tags []string
	if tagsJSON != "" {
		_ = json.Unmarshal([]byte(tagsJSON), &tags)
	}
	merged := normalizeTags(append(tags, suggested...))
	return marshalJSON(merged)
}

// identifierOf 校验失败记录的最佳标识
func identifierOf(raw map[string]interface{}) string {
	for _, key := range []string{"external_id", "hostname", "ip_address"} {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	return "(unidentified)"
}
