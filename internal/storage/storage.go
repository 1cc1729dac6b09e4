// Package storage 选择并创建进程级的状态存储
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mailrelay/backend/internal/config"
	"mailrelay/backend/internal/domain"
	"mailrelay/backend/internal/security"
	"mailrelay/backend/internal/storage/memory"
	"mailrelay/backend/internal/storage/redis"
)

// Mode 存储模式，展示在状态页
type Mode string

const (
	ModeRedis       Mode = "redis"
	ModeMemory      Mode = "memory"
	ModeUnavailable Mode = "unavailable"
)

// Open 按配置打开状态存储
//
// 未配置 Redis 地址时使用内存存储；Redis 连接失败时返回 Unavailable 存储，
// 依赖存储的命令会立即回复“存储不可用”，其余功能照常运行。
// 只有密钥配置错误会返回 error。
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (domain.StateStore, Mode, error) {
	sealer, err := security.NewSealer(cfg.Store.SecretKey)
	if err != nil {
		return nil, "", fmt.Errorf("create sealer: %w", err)
	}

	if cfg.Redis.Address == "" {
		log.Warn("redis address not configured, using in-memory state store")
		return memory.NewStore(cfg.Redis.WizardTTL), ModeMemory, nil
	}

	client, err := redis.New(ctx, cfg.Redis, log)
	if err != nil {
		log.Error("state store unavailable", zap.Error(err))
		return Unavailable(err), ModeUnavailable, nil
	}

	return redis.NewStateStore(client, cfg.Redis.KeyPrefix, cfg.Redis.WizardTTL, sealer), ModeRedis, nil
}

// unavailableStore 所有操作都返回 domain.ErrStoreUnavailable
type unavailableStore struct {
	cause error
}

// Unavailable 返回始终报告不可用的存储
func Unavailable(cause error) domain.StateStore {
	return unavailableStore{cause: cause}
}

func (u unavailableStore) err() error {
	if u.cause == nil {
		return domain.ErrStoreUnavailable
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, u.cause)
}

func (u unavailableStore) SaveCredential(context.Context, int64, string) error { return u.err() }

func (u unavailableStore) GetCredential(context.Context, int64) (string, error) { return "", u.err() }

func (u unavailableStore) SaveWizardState(context.Context, int64, domain.WizardState) error {
	return u.err()
}

func (u unavailableStore) GetWizardState(context.Context, int64) (domain.WizardState, error) {
	return nil, u.err()
}

func (u unavailableStore) ClearWizardState(context.Context, int64) error { return u.err() }

func (u unavailableStore) Ping(context.Context) error { return u.err() }

func (u unavailableStore) Close() error { return nil }
