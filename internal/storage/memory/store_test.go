package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailrelay/backend/internal/domain"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("API Key存取", func(t *testing.T) {
		s := NewStore(0)
		_, err := s.GetCredential(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, s.SaveCredential(ctx, 1, "k"))
		got, err := s.GetCredential(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "k", got)
	})

	t.Run("向导状态存取与清除", func(t *testing.T) {
		s := NewStore(0)
		state := domain.ConfirmStep{Prefix: "p", Duration: domain.DurationOneHour, Domain: "a.dev"}

		require.NoError(t, s.SaveWizardState(ctx, 1, state))
		got, err := s.GetWizardState(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, state, got)

		require.NoError(t, s.ClearWizardState(ctx, 1))
		require.NoError(t, s.ClearWizardState(ctx, 1))
		_, err = s.GetWizardState(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("向导状态过期", func(t *testing.T) {
		s := NewStore(time.Minute)
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		s.now = func() time.Time { return now }

		require.NoError(t, s.SaveWizardState(ctx, 1, domain.PrefixStep{}))
		now = now.Add(30 * time.Second)
		_, err := s.GetWizardState(ctx, 1)
		require.NoError(t, err)

		now = now.Add(time.Minute)
		_, err = s.GetWizardState(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
