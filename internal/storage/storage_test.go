package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailrelay/backend/internal/config"
	"mailrelay/backend/internal/domain"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("未配置Redis使用内存存储", func(t *testing.T) {
		store, mode, err := Open(ctx, &config.Config{}, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, ModeMemory, mode)
		assert.NoError(t, store.Ping(ctx))
	})

	t.Run("连接Redis", func(t *testing.T) {
		m := miniredis.RunT(t)
		cfg := &config.Config{Redis: config.RedisConfig{Address: m.Addr(), KeyPrefix: "t:", WizardTTL: time.Hour}}

		store, mode, err := Open(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })

		assert.Equal(t, ModeRedis, mode)
		require.NoError(t, store.SaveCredential(ctx, 5, "k"))
		assert.True(t, m.Exists("t:unsend_api_keys:5"))
	})

	t.Run("Redis不可达降级为不可用存储", func(t *testing.T) {
		m := miniredis.RunT(t)
		addr := m.Addr()
		m.Close()

		store, mode, err := Open(ctx, &config.Config{Redis: config.RedisConfig{Address: addr}}, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, ModeUnavailable, mode)
		assert.ErrorIs(t, store.Ping(ctx), domain.ErrStoreUnavailable)
	})

	t.Run("密钥长度错误", func(t *testing.T) {
		_, _, err := Open(ctx, &config.Config{Store: config.StoreConfig{SecretKey: []byte("x")}}, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestUnavailable(t *testing.T) {
	ctx := context.Background()
	store := Unavailable(errors.New("dial tcp: refused"))

	assert.ErrorIs(t, store.SaveCredential(ctx, 1, "k"), domain.ErrStoreUnavailable)
	_, err := store.GetCredential(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	_, err = store.GetWizardState(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, store.ClearWizardState(ctx, 1), domain.ErrStoreUnavailable)
	assert.NoError(t, store.Close())
}
