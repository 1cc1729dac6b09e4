package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailrelay/backend/internal/config"
)

func TestNewLogger(t *testing.T) {
	t.Run("控制台日志", func(t *testing.T) {
		log, err := NewLogger(config.LogConfig{Level: "debug", Development: true})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(-1))
	})

	t.Run("无效日志级别失败", func(t *testing.T) {
		_, err := NewLogger(config.LogConfig{Level: "loud"})
		assert.ErrorContains(t, err, "parse log level")
	})

	t.Run("写入滚动日志文件", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "relay.log")
		log, err := NewLogger(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1})
		require.NoError(t, err)

		log.Info("relay started")
		_ = log.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "relay started")
	})
}
