package repo

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tazhibayda/account-service/internal/domain"
	"github.com/tazhibayda/account-service/internal/helper"
)

// Memory is a process-local user directory with the same semantics as Store.
// Used by tests and by STORE=memory for local development.
type Memory struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*domain.User
}

func NewMemory() *Memory {
	return &Memory{users: make(map[primitive.ObjectID]*domain.User)}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	email = helper.NormalizeEmail(email)
	return m.find(func(u *domain.User) bool { return u.Email == email }), nil
}

func (m *Memory) FindUserByResetToken(_ context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, nil
	}
	return m.find(func(u *domain.User) bool {
		return u.ResetPasswordToken != nil && *u.ResetPasswordToken == token
	}), nil
}

func (m *Memory) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[oid]; ok {
		return clone(u), nil
	}
	return nil, nil
}

func (m *Memory) CreateUser(_ context.Context, u *domain.User) error {
	prepareNewUser(u)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrEmailExists
		}
	}
	u.ID = primitive.NewObjectID()
	m.users[u.ID] = clone(u)
	return nil
}

func (m *Memory) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	return m.update(id, func(u *domain.User) { u.Password = hash })
}

func (m *Memory) UpdateResetToken(_ context.Context, id primitive.ObjectID, token *string, expiresAt *time.Time) error {
	return m.update(id, func(u *domain.User) {
		u.ResetPasswordToken = cloneStr(token)
		u.ResetPasswordTokenExpired = cloneTime(expiresAt)
	})
}

func (m *Memory) find(match func(*domain.User) bool) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			return clone(u)
		}
	}
	return nil
}

func (m *Memory) update(id primitive.ObjectID, fn func(*domain.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func clone(u *domain.User) *domain.User {
	c := *u
	c.ResetPasswordToken = cloneStr(u.ResetPasswordToken)
	c.ResetPasswordTokenExpired = cloneTime(u.ResetPasswordTokenExpired)
	return &c
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
