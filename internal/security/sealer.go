package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealedPrefix = "sb1:"
	nonceSize    = 24
	keySize      = 32
)

var (
	// ErrSealedWithoutKey 读到加密值但未配置密钥
	ErrSealedWithoutKey = errors.New("value is sealed but no secret key is configured")
	// ErrOpenFailed 密钥不匹配或数据损坏
	ErrOpenFailed = errors.New("cannot open sealed value")
)

// Sealer 用 NaCl secretbox 加密存储的 API Key
//
// nil Sealer 原样存取明文；已有的明文值在配置密钥后仍可读取。
type Sealer struct {
	key [keySize]byte
}

// NewSealer 创建 Sealer，key 为空时返回 nil
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) == 0 {
		return nil, nil
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", keySize, len(key))
	}
	s := &Sealer{}
	copy(s.key[:], key)
	return s, nil
}

// Seal 加密明文，输出 "sb1:" + base64(nonce || box)
func (s *Sealer) Seal(plain string) (string, error) {
	if s == nil {
		return plain, nil
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	box := secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key)
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(box), nil
}

// Open 解密 Seal 的输出，不带前缀的值视为明文
func (s *Sealer) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}
	if s == nil {
		return "", ErrSealedWithoutKey
	}

	box, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return "", ErrOpenFailed
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrOpenFailed
	}
	return string(plain), nil
}
