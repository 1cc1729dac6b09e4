package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"mailrelay/backend/internal/domain"
	"mailrelay/backend/internal/security"
)

const (
	credentialSpace = "unsend_api_keys"
	wizardSpace     = "email_creation_state"
)

// StateStore 基于 Redis 的 domain.StateStore 实现
//
// 键布局: <prefix>unsend_api_keys:<userID> 保存 API Key，
// <prefix>email_creation_state:<userID> 保存向导状态 JSON。
type StateStore struct {
	client    *Client
	prefix    string
	wizardTTL time.Duration
	sealer    *security.Sealer
}

var _ domain.StateStore = (*StateStore)(nil)

// NewStateStore 创建状态存储，wizardTTL 为 0 表示向导状态不过期，sealer 可为 nil
func NewStateStore(client *Client, prefix string, wizardTTL time.Duration, sealer *security.Sealer) *StateStore {
	return &StateStore{
		client:    client,
		prefix:    prefix,
		wizardTTL: wizardTTL,
		sealer:    sealer,
	}
}

func (s *StateStore) key(space string, userID int64) string {
	return s.prefix + space + ":" + strconv.FormatInt(userID, 10)
}

// SaveCredential 保存 API Key，覆盖旧值且不过期
func (s *StateStore) SaveCredential(ctx context.Context, userID int64, credential string) error {
	sealed, err := s.sealer.Seal(credential)
	if err != nil {
		return fmt.Errorf("seal credential: %w", err)
	}
	if err := s.client.rdb.Set(ctx, s.key(credentialSpace, userID), sealed, 0).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// GetCredential 读取 API Key，不存在时返回 domain.ErrNotFound
func (s *StateStore) GetCredential(ctx context.Context, userID int64) (string, error) {
	raw, err := s.client.rdb.Get(ctx, s.key(credentialSpace, userID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", domain.ErrNotFound
		}
		return "", unavailable(err)
	}
	credential, err := s.sealer.Open(raw)
	if err != nil {
		return "", fmt.Errorf("open credential: %w", err)
	}
	return credential, nil
}

// SaveWizardState 覆盖保存向导状态
func (s *StateStore) SaveWizardState(ctx context.Context, userID int64, state domain.WizardState) error {
	data, err := json.Marshal(domain.EncodeWizardState(state))
	if err != nil {
		return fmt.Errorf("marshal wizard state: %w", err)
	}
	if err := s.client.rdb.Set(ctx, s.key(wizardSpace, userID), data, s.wizardTTL).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// GetWizardState 读取向导状态，不存在或已过期时返回 domain.ErrNotFound
func (s *StateStore) GetWizardState(ctx context.Context, userID int64) (domain.WizardState, error) {
	data, err := s.client.rdb.Get(ctx, s.key(wizardSpace, userID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, unavailable(err)
	}

	var record domain.WizardRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBrokenState, err)
	}
	return record.Decode()
}

// ClearWizardState 删除向导状态，键不存在不是错误
func (s *StateStore) ClearWizardState(ctx context.Context, userID int64) error {
	if err := s.client.rdb.Del(ctx, s.key(wizardSpace, userID)).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Ping 检查 Redis 连接
func (s *StateStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

// Close 关闭底层连接
func (s *StateStore) Close() error {
	return s.client.Close()
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
