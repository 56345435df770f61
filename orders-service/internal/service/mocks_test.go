package service

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_bookstore/orders-service/internal/domain"
	r "github.com/fjod/go_bookstore/orders-service/internal/repository"
)

type MockUserRepository struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	CreateErr error
	UpdateErr error
}

func newMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: map[string]*domain.User{}}
}

func (m *MockUserRepository) CreateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return r.ErrUserExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, r.ErrUserNotFound
}

func (m *MockUserRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, r.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) UpdateProfile(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	u, ok := m.users[user.ID]
	if !ok {
		return r.ErrUserNotFound
	}
	u.Name, u.Phone, u.Address, u.Bio, u.AvatarURL = user.Name, user.Phone, user.Address, user.Bio, user.AvatarURL
	return nil
}

type MockOrderRepository struct {
	Created   []*domain.Order
	CreateErr error
	ListErr   error
}

func (m *MockOrderRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Created = append(m.Created, order)
	return nil
}

func (m *MockOrderRepository) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := []*domain.Order{}
	for _, o := range m.Created {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

type MockIssuer struct {
	Err    error
	Issued []string
}

func (m *MockIssuer) Issue(userID string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Issued = append(m.Issued, userID)
	return "token-" + userID, nil
}

var errDatabase = errors.New("database unavailable")
