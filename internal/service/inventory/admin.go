/**
 * 服务:管理端
 * @description: AI配置/规则/数据源的管理操作,写入后失效租户缓存
 * @func: 配置CRUD与激活、连通性测试、规则CRUD、数据源CRUD
 */
package inventory

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/model/system"
	"neoinventory/internal/pkg/crypto"
	"neoinventory/internal/pkg/logger"
	invrepo "neoinventory/internal/repo/mysql/inventory"
	redisrepo "neoinventory/internal/repo/redis"
	"neoinventory/internal/service/provider"
)

// AdminService 管理端服务
// 任何配置或规则写入都会失效对应租户的redis缓存,
// 保证变更对下一个批次可见
type AdminService struct {
	configs *invrepo.AIConfigRepository
	rules   *invrepo.RuleRepository
	sources *invrepo.SourceRepository
	logs    *invrepo.ProcessingLogRepository
	cache   *redisrepo.ConfigCache
	sealer  *crypto.SecretSealer
	gateway *provider.Gateway
}

// NewAdminService 创建管理端服务
func NewAdminService(
	configs *invrepo.AIConfigRepository,
	rules *invrepo.RuleRepository,
	sources *invrepo.SourceRepository,
	logs *invrepo.ProcessingLogRepository,
	cache *redisrepo.ConfigCache,
	sealer *crypto.SecretSealer,
	gateway *provider.Gateway,
) *AdminService {
	return &AdminService{
		configs: configs,
		rules:   rules,
		sources: sources,
		logs:    logs,
		cache:   cache,
		sealer:  sealer,
		gateway: gateway,
	}
}

// invalidate 失效租户缓存,失败只记日志
func (s *AdminService) invalidate(ctx context.Context, tenantID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tenantID); err != nil {
		logger.Warnf("Failed to invalidate cache for tenant %s: %v", tenantID, err)
	}
}

// -----------------------------------------------------------------------------
// AI配置
// -----------------------------------------------------------------------------

// CreateAIConfig 创建AI配置,明文密钥入库前加密
func (s *AdminService) CreateAIConfig(ctx context.Context, tenantID string, req *invmodel.CreateAIConfigRequest) (*invmodel.AIProviderConfig, error) {
	if !invmodel.IsValidProvider(req.Provider) {
		return nil, system.NewConfigurationError("unsupported provider: " + req.Provider)
	}

	cfg := &invmodel.AIProviderConfig{
		TenantID:       tenantID,
		Name:           req.Name,
		Provider:       req.Provider,
		APIURL:         req.APIURL,
		Model:          req.Model,
		PromptTemplate: req.PromptTemplate,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		TimeoutSeconds: req.TimeoutSeconds,
		Enabled:        true,
		AutoProcess:    true,
		WebhookURL:     req.WebhookURL,
	}
	if req.Enabled != nil {
		cfg.Enabled = *req.Enabled
	}
	if req.AutoProcess != nil {
		cfg.AutoProcess = *req.AutoProcess
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}

	if req.APIKey != "" {
		sealed, err := s.sealer.Seal(req.APIKey)
		if err != nil {
			return nil, err
		}
		cfg.APIKeySealed = sealed
	}

	if err := s.configs.Create(ctx, cfg); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenantID)
	return cfg, nil
}

// UpdateAIConfig 更新AI配置,空APIKey保留原密钥
func (s *AdminService) UpdateAIConfig(ctx context.Context, tenantID string, id uint64, req *invmodel.UpdateAIConfigRequest) (*invmodel.AIProviderConfig, error) {
	cfg, err := s.configs.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, system.ErrConfigNotFound
	}

	if req.Provider != nil {
		if !invmodel.IsValidProvider(*req.Provider) {
			return nil, system.NewConfigurationError("unsupported provider: " + *req.Provider)
		}
		cfg.Provider = *req.Provider
	}
	if req.Name != nil {
		cfg.Name = *req.Name
	}
	if req.APIURL != nil {
		cfg.APIURL = *req.APIURL
	}
	if req.Model != nil {
		cfg.Model = *req.Model
	}
	if req.PromptTemplate != nil {
		cfg.PromptTemplate = *req.PromptTemplate
	}
	if req.Temperature != nil {
		cfg.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		cfg.MaxTokens = *req.MaxTokens
	}
	if req.TimeoutSeconds != nil {
		cfg.TimeoutSeconds = *req.TimeoutSeconds
	}
	if req.Enabled != nil {
		cfg.Enabled = *req.Enabled
	}
	if req.AutoProcess != nil {
		cfg.AutoProcess = *req.AutoProcess
	}
	if req.WebhookURL != nil {
		cfg.WebhookURL = *req.WebhookURL
	}
	if req.APIKey != "" {
		sealed, err := s.sealer.Seal(req.APIKey)
		if err != nil {
			return nil, err
		}
		cfg.APIKeySealed = sealed
	}

	if err := s.configs.Update(ctx, cfg); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenantID)
	return cfg, nil
}

// GetAIConfig 获取AI配置
func (s *AdminService) GetAIConfig(ctx context.Context, tenantID string, id uint64) (*invmodel.AIProviderConfig, error) {
	cfg, err := s.configs.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, system.ErrConfigNotFound
	}
	return cfg, nil
}

// ListAIConfigs 列出租户AI配置
func (s *AdminService) ListAIConfigs(ctx context.Context, tenantID string) ([]*invmodel.AIProviderConfig, error) {
	return s.configs.List(ctx, tenantID)
}

// DeleteAIConfig 删除AI配置
func (s *AdminService) DeleteAIConfig(ctx context.Context, tenantID string, id uint64) error {
	cfg, err := s.configs.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if cfg == nil {
		return system.ErrConfigNotFound
	}
	if err := s.configs.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID)
	return nil
}

// ActivateAIConfig 激活配置,同租户其他配置同事务取消激活
func (s *AdminService) ActivateAIConfig(ctx context.Context, tenantID string, id uint64) error {
	if err := s.configs.Activate(ctx, tenantID, id); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID)
	return nil
}

// TestAIConfig 用请求中的参数对合成样本发起一次真实调用
// 不落库,原始结果(包括错误文本)原样返回给调用方
func (s *AdminService) TestAIConfig(ctx context.Context, req *invmodel.TestAIConfigRequest) (*invmodel.Classification, error) {
	timeout := time.Duration(req.TimeoutSeconds) * time.Second
	sample := &invmodel.InventoryItem{
		Hostname:      "test-host-01",
		IPAddress:     "192.0.2.10",
		MACAddress:    "aa:bb:cc:dd:ee:ff",
		OS:            "Ubuntu",
		OSVersion:     "22.04",
		AssetCategory: "server",
		Manufacturer:  "Dell",
		Model:         "PowerEdge R740",
		Location:      "dc-1",
		Department:    "it",
		Owner:         "ops",
		Source:        "config-test",
	}

	return s.gateway.ClassifyWithParams(ctx, provider.CallParams{
		Provider:       req.Provider,
		APIURL:         req.APIURL,
		APIKey:         req.APIKey,
		Model:          req.Model,
		PromptTemplate: req.PromptTemplate,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		Timeout:        timeout,
	}, sample)
}

// -----------------------------------------------------------------------------
// 规则
// -----------------------------------------------------------------------------

// CreateRule 创建规则
func (s *AdminService) CreateRule(ctx context.Context, tenantID string, req *invmodel.CreateRuleRequest) (*invmodel.Rule, error) {
	if !invmodel.IsValidOperator(req.Operator) {
		return nil, system.NewValidationError("operator", "unsupported operator: "+req.Operator)
	}
	if !invmodel.IsValidRuleAction(req.Action) {
		return nil, system.NewValidationError("action", "unsupported action: "+req.Action)
	}

	rule := &invmodel.Rule{
		TenantID: tenantID,
		Name:     req.Name,
		Priority: req.Priority,
		Field:    req.Field,
		Operator: req.Operator,
		Value:    req.Value,
		Action:   req.Action,
		Enabled:  true,
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
	if rule.Priority == 0 {
		rule.Priority = 100
	}

	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenantID)
	return rule, nil
}

// UpdateRule 更新规则
func (s *AdminService) UpdateRule(ctx context.Context, tenantID string, id uint64, req *invmodel.UpdateRuleRequest) (*invmodel.Rule, error) {
	rule, err := s.rules.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, system.ErrRuleNotFound
	}

	if req.Operator != nil {
		if !invmodel.IsValidOperator(*req.Operator) {
			return nil, system.NewValidationError("operator", "unsupported operator: "+*req.Operator)
		}
		rule.Operator = *req.Operator
	}
	if req.Action != nil {
		if !invmodel.IsValidRuleAction(*req.Action) {
			return nil, system.NewValidationError("action", "unsupported action: "+*req.Action)
		}
		rule.Action = *req.Action
	}
	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.Field != nil {
		rule.Field = *req.Field
	}
	if req.Value != nil {
		rule.Value = *req.Value
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	if err := s.rules.Update(ctx, rule); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenantID)
	return rule, nil
}

// ListRules 列出租户规则
func (s *AdminService) ListRules(ctx context.Context, tenantID string) ([]*invmodel.Rule, error) {
	return s.rules.List(ctx, tenantID)
}

// DeleteRule 删除规则
func (s *AdminService) DeleteRule(ctx context.Context, tenantID string, id uint64) error {
	rule, err := s.rules.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if rule == nil {
		return system.ErrRuleNotFound
	}
	if err := s.rules.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID)
	return nil
}

// -----------------------------------------------------------------------------
// 数据源
// -----------------------------------------------------------------------------

// CreateSource 创建数据源,pull类型校验endpoint与cron表达式
func (s *AdminService) CreateSource(ctx context.Context, tenantID string, req *invmodel.CreateSourceRequest) (*invmodel.Source, error) {
	source := &invmodel.Source{
		TenantID: tenantID,
		Name:     req.Name,
		Type:     req.Type,
		Endpoint: req.Endpoint,
		Schedule: req.Schedule,
		Enabled:  true,
	}
	if req.Enabled != nil {
		source.Enabled = *req.Enabled
	}

	if err := validateSource(source); err != nil {
		return nil, err
	}

	if err := s.sources.Create(ctx, source); err != nil {
		return nil, err
	}
	return source, nil
}

// UpdateSource 更新数据源
func (s *AdminService) UpdateSource(ctx context.Context, tenantID string, id uint64, req *invmodel.UpdateSourceRequest) (*invmodel.Source, error) {
	source, err := s.sources.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, system.ErrSourceNotFound
	}

	if req.Name != nil {
		source.Name = *req.Name
	}
	if req.Type != nil {
		source.Type = *req.Type
	}
	if req.Endpoint != nil {
		source.Endpoint = *req.Endpoint
	}
	if req.Schedule != nil {
		source.Schedule = *req.Schedule
	}
	if req.Enabled != nil {
		source.Enabled = *req.Enabled
	}

	if err := validateSource(source); err != nil {
		return nil, err
	}

	if err := s.sources.Update(ctx, source); err != nil {
		return nil, err
	}
	return source, nil
}

// ListSources 列出租户数据源
func (s *AdminService) ListSources(ctx context.Context, tenantID string) ([]*invmodel.Source, error) {
	return s.sources.List(ctx, tenantID)
}

// DeleteSource 删除数据源
func (s *AdminService) DeleteSource(ctx context.Context, tenantID string, id uint64) error {
	source, err := s.sources.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if source == nil {
		return system.ErrSourceNotFound
	}
	return s.sources.Delete(ctx, tenantID, id)
}

// ListProcessingLogs 查看资产处理日志
func (s *AdminService) ListProcessingLogs(ctx context.Context, tenantID string, itemID uint64, page, pageSize int) ([]*invmodel.ProcessingLogEntry, int64, error) {
	return s.logs.ListByItem(ctx, tenantID, itemID, page, pageSize)
}

// validateSource 数据源合法性校验
func validateSource(source *invmodel.Source) error {
	if source.Type != invmodel.SourceTypeWebhook && source.Type != invmodel.SourceTypePull {
		return system.NewValidationError("type", "type must be webhook or pull")
	}
	if source.Type == invmodel.SourceTypePull {
		if source.Endpoint == "" {
			return system.NewValidationError("endpoint", "endpoint is required for pull sources")
		}
		if source.Schedule == "" {
			return system.NewValidationError("schedule", "schedule is required for pull sources")
		}
		if _, err := cron.ParseStandard(source.Schedule); err != nil {
			return system.NewValidationError("schedule", "invalid cron expression: "+err.Error())
		}
	}
	return nil
}
