package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMailboxPrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		valid  bool
	}{
		{"字母数字", "alice42", true},
		{"下划线和连字符", "a_b-c", true},
		{"单个字符", "x", true},
		{"二十个字符", "abcdefghijklmnopqrst", true},
		{"超过二十个字符", "abcdefghijklmnopqrstu", false},
		{"空字符串", "", false},
		{"包含点", "a.b", false},
		{"包含空格", "a b", false},
		{"包含中文", "邮箱", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMailboxPrefix(tt.prefix)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidPrefix)
			}
		})
	}
}

func TestIsCanonicalID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"小写", "0f8fad5b-d9cb-469f-a165-70867728950e", true},
		{"大写", "0F8FAD5B-D9CB-469F-A165-70867728950E", true},
		{"无连字符", "0f8fad5bd9cb469fa16570867728950e", false},
		{"花括号", "{0f8fad5b-d9cb-469f-a165-70867728950e}", false},
		{"urn", "urn:uuid:0f8fad5b-d9cb-469f-a165-70867728950e", false},
		{"非十六进制", "0f8fad5b-d9cb-469f-a165-70867728950z", false},
		{"连字符错位", "0f8fad5bd-9cb-469f-a165-70867728950e", false},
		{"空字符串", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsCanonicalID(tt.id))
		})
	}
}
