package redis

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailrelay/backend/internal/config"
	"mailrelay/backend/internal/domain"
	"mailrelay/backend/internal/security"
)

func newTestStore(t *testing.T, ttl time.Duration, sealer *security.Sealer) (*StateStore, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)

	client, err := New(context.Background(), config.RedisConfig{Address: m.Addr()}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewStateStore(client, "mailrelay:", ttl, sealer), m
}

func TestStateStoreCredential(t *testing.T) {
	ctx := context.Background()

	t.Run("保存并读取API Key", func(t *testing.T) {
		store, m := newTestStore(t, time.Hour, nil)

		require.NoError(t, store.SaveCredential(ctx, 42, "key-1"))
		got, err := store.GetCredential(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "key-1", got)
		assert.True(t, m.Exists("mailrelay:unsend_api_keys:42"))
		assert.Zero(t, m.TTL("mailrelay:unsend_api_keys:42"))
	})

	t.Run("覆盖旧值", func(t *testing.T) {
		store, _ := newTestStore(t, time.Hour, nil)

		require.NoError(t, store.SaveCredential(ctx, 42, "old"))
		require.NoError(t, store.SaveCredential(ctx, 42, "new"))
		got, err := store.GetCredential(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "new", got)
	})

	t.Run("不存在返回ErrNotFound", func(t *testing.T) {
		store, _ := newTestStore(t, time.Hour, nil)

		_, err := store.GetCredential(ctx, 7)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("配置密钥后加密存储", func(t *testing.T) {
		sealer, err := security.NewSealer(bytes.Repeat([]byte{1}, 32))
		require.NoError(t, err)
		store, m := newTestStore(t, time.Hour, sealer)

		require.NoError(t, store.SaveCredential(ctx, 42, "plain-key"))
		raw, err := m.Get("mailrelay:unsend_api_keys:42")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(raw, "sb1:"))

		got, err := store.GetCredential(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "plain-key", got)
	})
}

func TestStateStoreWizard(t *testing.T) {
	ctx := context.Background()

	t.Run("保存读取与清除", func(t *testing.T) {
		store, _ := newTestStore(t, time.Hour, nil)
		state := domain.DomainStep{Prefix: "alice", Duration: domain.DurationOneDay}

		require.NoError(t, store.SaveWizardState(ctx, 42, state))
		got, err := store.GetWizardState(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, state, got)

		require.NoError(t, store.ClearWizardState(ctx, 42))
		_, err = store.GetWizardState(ctx, 42)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("清除不存在的状态不报错", func(t *testing.T) {
		store, _ := newTestStore(t, time.Hour, nil)
		assert.NoError(t, store.ClearWizardState(ctx, 99))
	})

	t.Run("清除向导状态不影响API Key", func(t *testing.T) {
		store, _ := newTestStore(t, time.Hour, nil)
		require.NoError(t, store.SaveCredential(ctx, 42, "k"))
		require.NoError(t, store.SaveWizardState(ctx, 42, domain.PrefixStep{}))

		require.NoError(t, store.ClearWizardState(ctx, 42))
		got, err := store.GetCredential(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "k", got)
	})

	t.Run("状态过期", func(t *testing.T) {
		store, m := newTestStore(t, time.Hour, nil)
		require.NoError(t, store.SaveWizardState(ctx, 42, domain.PrefixStep{}))

		m.FastForward(2 * time.Hour)
		_, err := store.GetWizardState(ctx, 42)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("损坏的状态", func(t *testing.T) {
		store, m := newTestStore(t, time.Hour, nil)
		require.NoError(t, m.Set("mailrelay:email_creation_state:42", `{"step":"confirm"}`))

		_, err := store.GetWizardState(ctx, 42)
		assert.ErrorIs(t, err, domain.ErrBrokenState)

		require.NoError(t, m.Set("mailrelay:email_creation_state:42", `not json`))
		_, err = store.GetWizardState(ctx, 42)
		assert.ErrorIs(t, err, domain.ErrBrokenState)
	})
}

func TestStateStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	store, m := newTestStore(t, time.Hour, nil)
	m.SetError("ERR store offline")

	assert.ErrorIs(t, store.SaveCredential(ctx, 1, "k"), domain.ErrStoreUnavailable)
	_, err := store.GetCredential(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, store.SaveWizardState(ctx, 1, domain.PrefixStep{}), domain.ErrStoreUnavailable)
	_, err = store.GetWizardState(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, store.ClearWizardState(ctx, 1), domain.ErrStoreUnavailable)
	assert.ErrorIs(t, store.Ping(ctx), domain.ErrStoreUnavailable)
}

func TestNewConnectionFailure(t *testing.T) {
	m := miniredis.RunT(t)
	addr := m.Addr()
	m.Close()

	_, err := New(context.Background(), config.RedisConfig{Address: addr}, zap.NewNop())
	assert.ErrorContains(t, err, "failed to connect to Redis")
}
