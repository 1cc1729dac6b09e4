package domain

import "errors"

var (
	// ErrNotFound 键不存在或已过期
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable 状态存储不可用
	ErrStoreUnavailable = errors.New("state store unavailable")
	// ErrInvalidSelection 向导收到与当前步骤不匹配的操作
	ErrInvalidSelection = errors.New("invalid selection for current step")
	// ErrInvalidPrefix 自定义前缀格式不正确
	ErrInvalidPrefix = errors.New("invalid mailbox prefix")
	// ErrBrokenState 持久化的向导状态缺少当前步骤要求的字段
	ErrBrokenState = errors.New("broken wizard state")
)
