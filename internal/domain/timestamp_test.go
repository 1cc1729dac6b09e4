package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampUnmarshal(t *testing.T) {
	want := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{"毫秒数字", `1700000000000`, false},
		{"毫秒字符串", `"1700000000000"`, false},
		{"ISO字符串", `"2023-11-14T22:13:20.000Z"`, false},
		{"null", `null`, true},
		{"空字符串", `""`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			if tt.zero {
				assert.True(t, ts.IsZero())
				return
			}
			assert.True(t, want.Equal(ts.Time))
		})
	}

	t.Run("无效格式", func(t *testing.T) {
		var ts Timestamp
		assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	})
}

func TestMailboxNeverExpires(t *testing.T) {
	var mb Mailbox
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","address":"a@b.c","expiresAt":"9999-01-01T00:00:00.000Z"}`), &mb))
	assert.True(t, mb.NeverExpires())

	var legacy Mailbox
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","email":"a@b.c","expiresAt":1700000000000}`), &legacy))
	assert.False(t, legacy.NeverExpires())
	assert.Equal(t, "a@b.c", legacy.DisplayAddress())
}
