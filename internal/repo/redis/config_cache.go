/**
 * 仓库:配置缓存
 * @description: 租户激活AI配置与规则集的Redis短TTL缓存
 * @func: 批次开始时读取一次,管理端写入时失效
 */
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/pkg/logger"
)

const (
	activeConfigKeyPrefix = "neoinventory:active_config:"
	rulesKeyPrefix        = "neoinventory:rules:"
)

// ConfigCache 租户配置缓存
// TTL 不超过一个批次的时长，保证配置变更对下一个批次可见；
// 管理端的任何写入都会主动失效对应租户的缓存
type ConfigCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewConfigCache 创建 ConfigCache 实例
func NewConfigCache(client *redis.Client, ttl time.Duration) *ConfigCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ConfigCache{
		client: client,
		ttl:    ttl,
	}
}

// GetActiveConfig 读取租户激活配置缓存
// 缓存未命中返回 (nil, false, nil)；缓存了"无激活配置"时返回 (nil, true, nil)
func (c *ConfigCache) GetActiveConfig(ctx context.Context, tenantID string) (*invmodel.AIProviderConfig, bool, error) {
	data, err := c.client.Get(ctx, activeConfigKeyPrefix+tenantID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read active config cache: %w", err)
	}

	// 空值哨兵表示"该租户无激活配置"
	if len(data) == 0 || string(data) == "null" {
		return nil, true, nil
	}

	var cfg invmodel.AIProviderConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		// 缓存损坏按未命中处理，调用方回源后覆盖
		logger.Warnf("Corrupted active config cache for tenant %s: %v", tenantID, err)
		return nil, false, nil
	}
	return &cfg, true, nil
}

// SetActiveConfig 写入租户激活配置缓存，cfg 为 nil 时缓存空值哨兵
func (c *ConfigCache) SetActiveConfig(ctx context.Context, tenantID string, cfg *invmodel.AIProviderConfig) error {
	var data []byte
	if cfg == nil {
		data = []byte("null")
	} else {
		var err error
		data, err = json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal active config: %w", err)
		}
	}

	if err := c.client.Set(ctx, activeConfigKeyPrefix+tenantID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write active config cache: %w", err)
	}
	return nil
}

// GetRules 读取租户启用规则集缓存
func (c *ConfigCache) GetRules(ctx context.Context, tenantID string) ([]*invmodel.Rule, bool, error) {
	data, err := c.client.Get(ctx, rulesKeyPrefix+tenantID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read rules cache: %w", err)
	}

	var rules []*invmodel.Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		logger.Warnf("Corrupted rules cache for tenant %s: %v", tenantID, err)
		return nil, false, nil
	}
	return rules, true, nil
}

// SetRules 写入租户启用规则集缓存
func (c *ConfigCache) SetRules(ctx context.Context, tenantID string, rules []*invmodel.Rule) error {
	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("failed to marshal rules: %w", err)
	}
	if err := c.client.Set(ctx, rulesKeyPrefix+tenantID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write rules cache: %w", err)
	}
	return nil
}

// Invalidate 失效租户的配置与规则缓存(管理端写入后调用)
func (c *ConfigCache) Invalidate(ctx context.Context, tenantID string) error {
	if err := c.client.Del(ctx, activeConfigKeyPrefix+tenantID, rulesKeyPrefix+tenantID).Err(); err != nil {
		return fmt.Errorf("failed to invalidate config cache: %w", err)
	}
	return nil
}
