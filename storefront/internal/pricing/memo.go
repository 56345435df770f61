package pricing

import (
	"context"
	"sync"
)

// Memo stores derived pseudo-prices by seed. Entries are never evicted.
type Memo interface {
	Get(ctx context.Context, seed string) (string, bool, error)
	// PutIfAbsent stores price unless the seed already has one, and returns
	// whichever value is stored afterwards.
	PutIfAbsent(ctx context.Context, seed, price string) (string, error)
}

type MemoryMemo struct {
	mu     sync.RWMutex
	prices map[string]string
}

func NewMemoryMemo() *MemoryMemo {
	return &MemoryMemo{prices: make(map[string]string)}
}

func (m *MemoryMemo) Get(_ context.Context, seed string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prices[seed]
	return p, ok, nil
}

func (m *MemoryMemo) PutIfAbsent(_ context.Context, seed, price string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.prices[seed]; ok {
		return existing, nil
	}
	m.prices[seed] = price
	return price, nil
}

func (m *MemoryMemo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.prices)
}
