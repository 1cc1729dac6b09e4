// Package format 生成 Telegram HTML 消息中使用的文本片段
package format

import (
	"strings"
	"time"

	"mailrelay/backend/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape 转义 Telegram HTML 模式下的特殊字符
func Escape(s string) string {
	return escaper.Replace(s)
}

// Truncate 按字符截断，超出部分以 "..." 结尾
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// Time 按时区格式化时间，零值返回 "未知"
func Time(ts domain.Timestamp, loc *time.Location) string {
	if ts.IsZero() {
		return "未知"
	}
	return ts.In(loc).Format(timeLayout)
}

// Expiry 格式化邮箱过期时间，永久邮箱返回 "永久"
func Expiry(mb domain.Mailbox, loc *time.Location) string {
	if mb.NeverExpires() {
		return "永久"
	}
	return Time(mb.ExpiresAt, loc)
}
