package options

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

// OverrideSource 读取租户的自定义容差，由 repository 实现
type OverrideSource interface {
	GetStakeholderOptionOverrides(ctx context.Context, tenantID int64) (map[string]int, error)
}

// Cache 是 provider 用到的 redis 命令子集，*redis.Client 直接满足
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Provider 先读 redis，未命中时从数据库读取覆盖项并与默认值合并后回写
type Provider struct {
	source   OverrideSource
	rdb      Cache
	defaults domain.StakeholderOptions
	ttl      time.Duration
	logger   *slog.Logger
}

func NewProvider(source OverrideSource, rdb Cache, defaults domain.StakeholderOptions, ttl time.Duration, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{source: source, rdb: rdb, defaults: defaults, ttl: ttl, logger: logger}
}

func cacheKey(tenantID int64) string {
	return fmt.Sprintf("stakeholder_options_%d", tenantID)
}

func (p *Provider) Options(ctx context.Context, tenantID int64) (domain.StakeholderOptions, error) {
	key := cacheKey(tenantID)

	if p.rdb != nil {
		raw, err := p.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var cached domain.StakeholderOptions
			if err := json.Unmarshal(raw, &cached); err == nil && Validate(cached) == nil {
				return cached, nil
			}
			// 缓存内容损坏时忽略，重新从数据库读取
			p.logger.Warn("容差缓存内容无效", slog.String("key", key))
		case errors.Is(err, redis.Nil):
		default:
			// redis 不可用时直接回源
			p.logger.Warn("无法读取容差缓存", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	overrides, err := p.source.GetStakeholderOptionOverrides(ctx, tenantID)
	if err != nil {
		return domain.StakeholderOptions{}, err
	}

	merged, err := Merge(p.defaults, overrides)
	if err != nil {
		return domain.StakeholderOptions{}, err
	}

	if p.rdb != nil {
		raw, err := json.Marshal(merged)
		if err == nil {
			if err := p.rdb.Set(ctx, key, raw, p.ttl).Err(); err != nil {
				p.logger.Warn("无法写入容差缓存", slog.String("key", key), slog.String("error", err.Error()))
			}
		}
	}

	return merged, nil
}

// Invalidate 在租户修改容差之后调用
func (p *Provider) Invalidate(ctx context.Context, tenantID int64) error {
	if p.rdb == nil {
		return nil
	}
	return p.rdb.Del(ctx, cacheKey(tenantID)).Err()
}
