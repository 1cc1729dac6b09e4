package domain

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// canonicalIDLength 带连字符的 UUID 文本长度
const canonicalIDLength = 36

var prefixRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,20}$`)

// ValidateMailboxPrefix 校验自定义邮箱前缀：1-20 位字母、数字、下划线或连字符
func ValidateMailboxPrefix(prefix string) error {
	if !prefixRegex.MatchString(prefix) {
		return fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	return nil
}

// IsCanonicalID 报告 s 是否为 36 位带连字符的十六进制 ID
//
// uuid.Parse 还接受 urn 与花括号形式，这里只允许标准形式。
func IsCanonicalID(s string) bool {
	if len(s) != canonicalIDLength {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
