package domain

import "context"

// StateStore 按聊天用户 ID 保存两类互相独立的状态：API Key 与创建向导状态
//
// 存储不可用时所有方法返回包装了 ErrStoreUnavailable 的错误；
// Get 系列在键不存在时返回 ErrNotFound。
type StateStore interface {
	SaveCredential(ctx context.Context, userID int64, credential string) error
	GetCredential(ctx context.Context, userID int64) (string, error)

	SaveWizardState(ctx context.Context, userID int64, state WizardState) error
	GetWizardState(ctx context.Context, userID int64) (WizardState, error)
	ClearWizardState(ctx context.Context, userID int64) error

	Ping(ctx context.Context) error
	Close() error
}
