package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"commoni-api/internal/model"
	"commoni-api/internal/password"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) ExistsByLoginID(ctx context.Context, loginID string) (bool, error) {
	args := m.Called(ctx, loginID)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserStore) FindByLoginID(ctx context.Context, loginID string) (model.User, error) {
	args := m.Called(ctx, loginID)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserStore) Create(ctx context.Context, u *model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserStore) Update(ctx context.Context, loginID string, upd model.UserUpdate) error {
	args := m.Called(ctx, loginID, upd)
	return args.Error(0)
}

func (m *mockUserStore) SoftDelete(ctx context.Context, loginID string) error {
	args := m.Called(ctx, loginID)
	return args.Error(0)
}

// memoryStore mirrors the repository's soft delete rules in memory.
type memoryStore struct {
	mu     sync.Mutex
	nextNo int64
	users  map[string]model.User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[string]model.User)}
}

func (s *memoryStore) ExistsByLoginID(_ context.Context, loginID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[loginID]
	return ok, nil
}

func (s *memoryStore) FindByLoginID(_ context.Context, loginID string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[loginID]
	if !ok || u.Deleted {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memoryStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.LoginID]; ok {
		return model.ErrUserAlreadyExists
	}
	s.nextNo++
	now := time.Now().UTC()
	u.NumericID = s.nextNo
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.LoginID] = *u
	return nil
}

func (s *memoryStore) Update(_ context.Context, loginID string, upd model.UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[loginID]
	if !ok || u.Deleted {
		return model.ErrUserNotFound
	}
	if upd.IsEmpty() {
		return nil
	}
	u.PasswordDigest = *upd.PasswordDigest
	u.UpdatedAt = time.Now().UTC()
	s.users[loginID] = u
	return nil
}

func (s *memoryStore) SoftDelete(_ context.Context, loginID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[loginID]
	if !ok || u.Deleted {
		return model.ErrUserNotFound
	}
	u.Deleted = true
	s.users[loginID] = u
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", password.ErrTooLong
	}
	return "hashed:" + plaintext, nil
}

func (plainHasher) Verify(plaintext string, digest string) bool {
	return strings.TrimPrefix(digest, "hashed:") == plaintext && strings.HasPrefix(digest, "hashed:")
}

// clock is a settable time source shared by a codec under test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
