package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Timestamp 兼容上游返回的毫秒时间戳与 ISO-8601 字符串两种格式
type Timestamp struct {
	time.Time
}

// FromMillis 由毫秒时间戳构造 Timestamp
func FromMillis(ms int64) Timestamp {
	return Timestamp{Time: time.UnixMilli(ms).UTC()}
}

// UnmarshalJSON 接受数字毫秒、数字字符串、RFC3339 字符串以及 null
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] != '"' {
		var ms json.Number
		if err := json.Unmarshal(data, &ms); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		f, err := ms.Float64()
		if err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		*t = FromMillis(int64(f))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*t = FromMillis(ms)
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON 以毫秒时间戳输出
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.UnixMilli(), 10)), nil
}
