package security

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealer(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 32)

	t.Run("加密后可解密", func(t *testing.T) {
		s, err := NewSealer(key)
		require.NoError(t, err)

		sealed, err := s.Seal("api-key-123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sealed, "sb1:"))
		assert.NotContains(t, sealed, "api-key-123")

		plain, err := s.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, "api-key-123", plain)
	})

	t.Run("每次加密结果不同", func(t *testing.T) {
		s, _ := NewSealer(key)
		a, _ := s.Seal("same")
		b, _ := s.Seal("same")
		assert.NotEqual(t, a, b)
	})

	t.Run("明文值仍可读取", func(t *testing.T) {
		s, _ := NewSealer(key)
		plain, err := s.Open("legacy-plain-key")
		require.NoError(t, err)
		assert.Equal(t, "legacy-plain-key", plain)
	})

	t.Run("未配置密钥时原样存取", func(t *testing.T) {
		s, err := NewSealer(nil)
		require.NoError(t, err)
		assert.Nil(t, s)

		sealed, err := s.Seal("k")
		require.NoError(t, err)
		assert.Equal(t, "k", sealed)
	})

	t.Run("未配置密钥读取加密值失败", func(t *testing.T) {
		s, _ := NewSealer(key)
		sealed, _ := s.Seal("k")

		var none *Sealer
		_, err := none.Open(sealed)
		assert.ErrorIs(t, err, ErrSealedWithoutKey)
	})

	t.Run("密钥不匹配失败", func(t *testing.T) {
		s, _ := NewSealer(key)
		sealed, _ := s.Seal("k")

		other, _ := NewSealer(bytes.Repeat([]byte{8}, 32))
		_, err := other.Open(sealed)
		assert.ErrorIs(t, err, ErrOpenFailed)
	})

	t.Run("密钥长度错误", func(t *testing.T) {
		_, err := NewSealer([]byte("short"))
		assert.Error(t, err)
	})
}
