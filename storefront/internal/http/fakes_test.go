package http

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_bookstore/storefront/internal/cache"
	"github.com/fjod/go_bookstore/storefront/internal/catalog"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
	"github.com/fjod/go_bookstore/storefront/internal/repository"
)

type memRepo struct {
	mu    sync.Mutex
	carts map[string]domain.CartSnapshot
}

func newMemRepo() *memRepo { return &memRepo{carts: map[string]domain.CartSnapshot{}} }

func (m *memRepo) GetCart(_ context.Context, userID string) (*domain.CartSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return &c, nil
}

func (m *memRepo) UpsertCart(_ context.Context, c *domain.CartSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[c.UserID] = *c
	return nil
}

func (m *memRepo) RemoveOrderedLines(context.Context, string, []string, time.Time) error { return nil }
func (m *memRepo) Ping(context.Context) error                                          { return nil }

type nopCache struct{}

func (nopCache) Get(context.Context, string) (*domain.CartSnapshot, error) {
	return nil, cache.ErrCacheMiss
}
func (nopCache) Set(context.Context, string, *domain.CartSnapshot) error { return nil }
func (nopCache) Delete(context.Context, string) error                    { return nil }
func (nopCache) Ping(context.Context) error                              { return nil }

// fakeCatalog answers searches with the query echoed back.
type fakeCatalog struct {
	mu      sync.Mutex
	err     error
	volumes map[string]domain.CatalogItem
	queries []catalog.Query
}

func (f *fakeCatalog) Search(_ context.Context, q catalog.Query) (catalog.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return catalog.Page{}, f.err
	}
	return catalog.Page{
		Items:      []domain.CatalogItem{{ID: "b1", VolumeInfo: domain.VolumeInfo{Title: "Go in Action"}}},
		TotalItems: 100,
		Query:      q,
	}, nil
}

func (f *fakeCatalog) Volume(_ context.Context, id string) (domain.CatalogItem, error) {
	v, ok := f.volumes[id]
	if !ok {
		return domain.CatalogItem{}, catalog.ErrVolumeNotFound
	}
	return v, nil
}

type fakeOrders struct {
	receipt *domain.OrderReceipt
	err     error
	token   string
}

func (f *fakeOrders) CreateOrder(_ context.Context, token string, _ domain.OrderRequest) (*domain.OrderReceipt, error) {
	f.token = token
	return f.receipt, f.err
}

type fakeAccounts struct {
	err   error
	token string
}

func (f *fakeAccounts) Register(_ context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AuthResult{Token: "tok", User: domain.User{ID: "u1", Name: reg.Name, Email: reg.Email}}, nil
}

func (f *fakeAccounts) Login(_ context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AuthResult{Token: "tok", User: domain.User{ID: "u1", Email: creds.Email}}, nil
}

func (f *fakeAccounts) Profile(_ context.Context, token string) (*domain.User, error) {
	f.token = token
	return &domain.User{ID: "u1", Name: "Ada"}, f.err
}

func (f *fakeAccounts) UpdateProfile(_ context.Context, token string, upd domain.ProfileUpdate) (*domain.User, error) {
	f.token = token
	if f.err != nil {
		return nil, f.err
	}
	return &domain.User{ID: "u1", Name: upd.Name}, nil
}

func (f *fakeAccounts) ListOrders(_ context.Context, token string) ([]domain.OrderReceipt, error) {
	f.token = token
	return nil, f.err
}
