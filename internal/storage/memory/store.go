package memory

import (
	"context"
	"sync"
	"time"

	"mailrelay/backend/internal/domain"
)

// Store 使用内存保存 API Key 与向导状态，主要用于本地开发，进程重启后数据丢失。
type Store struct {
	mu          sync.RWMutex
	credentials map[int64]string
	wizards     map[int64]wizardEntry
	wizardTTL   time.Duration
	now         func() time.Time
}

type wizardEntry struct {
	record    domain.WizardRecord
	expiresAt time.Time // 零值表示不过期
}

var _ domain.StateStore = (*Store)(nil)

// NewStore 创建内存存储，wizardTTL 为 0 表示向导状态不过期
func NewStore(wizardTTL time.Duration) *Store {
	return &Store{
		credentials: make(map[int64]string),
		wizards:     make(map[int64]wizardEntry),
		wizardTTL:   wizardTTL,
		now:         time.Now,
	}
}

func (s *Store) SaveCredential(_ context.Context, userID int64, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[userID] = credential
	return nil
}

func (s *Store) GetCredential(_ context.Context, userID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	credential, ok := s.credentials[userID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return credential, nil
}

func (s *Store) SaveWizardState(_ context.Context, userID int64, state domain.WizardState) error {
	entry := wizardEntry{record: domain.EncodeWizardState(state)}
	if s.wizardTTL > 0 {
		entry.expiresAt = s.now().Add(s.wizardTTL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.wizards[userID] = entry
	return nil
}

func (s *Store) GetWizardState(_ context.Context, userID int64) (domain.WizardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.wizards[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.wizards, userID)
		return nil, domain.ErrNotFound
	}
	return entry.record.Decode()
}

func (s *Store) ClearWizardState(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.wizards, userID)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
