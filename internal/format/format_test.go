package format

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"

	"mailrelay/backend/internal/domain"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;Tom &amp; Jerry&lt;/b&gt;", Escape("<b>Tom & Jerry</b>"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "he...", Truncate("hello", 2))
	assert.Equal(t, "你好...", Truncate("你好世界", 2))
}

func TestTime(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	assert.NoError(t, err)

	assert.Equal(t, "2023-11-15 06:13:20", Time(domain.FromMillis(1700000000000), loc))
	assert.Equal(t, "未知", Time(domain.Timestamp{}, loc))
}

func TestExpiry(t *testing.T) {
	loc := time.UTC
	forever := domain.Mailbox{ExpiresAt: domain.Timestamp{Time: time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)}}
	assert.Equal(t, "永久", Expiry(forever, loc))

	soon := domain.Mailbox{ExpiresAt: domain.FromMillis(1700000000000)}
	assert.Equal(t, "2023-11-14 22:13:20", Expiry(soon, loc))
}
