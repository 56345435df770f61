// Package cart holds the in-memory cart owned by a storefront session.
package cart

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_bookstore/pkg/money"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

// Observer receives the cart state after every effective mutation. Observers
// run in mutation order and must not mutate the store they observe.
type Observer func(state domain.CartState)

// MemoryStore implements CartStore.
type MemoryStore struct {
	mu     sync.RWMutex
	lines  []domain.CartLine
	isOpen bool
	now    Clock

	notifyMu  sync.Mutex
	observers map[int]Observer
	nextObsID int
}

type Option func(*MemoryStore)

func WithClock(now Clock) Option {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		now:       time.Now,
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers an observer and returns a func that removes it.
func (s *MemoryStore) Subscribe(o Observer) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = o
	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.observers, id)
	}
}

// Restore replaces the whole state without notifying observers. It is used
// when a persisted cart is loaded.
func (s *MemoryStore) Restore(state domain.CartState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = cloneLines(state.Lines)
	s.isOpen = state.IsOpen
}

func (s *MemoryStore) AddToCart(item domain.CatalogItem, unitPrice, currency string) {
	identity := item.Identity()
	s.mutate(func() bool {
		s.isOpen = true
		if i := s.indexOf(identity); i >= 0 {
			s.lines[i].Quantity++
			return true
		}
		s.lines = append(s.lines, domain.CartLine{
			Identity:  identity,
			Item:      item,
			UnitPrice: unitPrice,
			Currency:  currency,
			Quantity:  1,
			AddedAt:   s.now(),
		})
		return true
	})
}

func (s *MemoryStore) RemoveFromCart(identity string) {
	s.mutate(func() bool {
		i := s.indexOf(identity)
		if i < 0 {
			return false
		}
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
		return true
	})
}

func (s *MemoryStore) IncreaseQuantity(identity string) {
	s.mutate(func() bool {
		i := s.indexOf(identity)
		if i < 0 {
			return false
		}
		s.lines[i].Quantity++
		return true
	})
}

func (s *MemoryStore) DecreaseQuantity(identity string) {
	s.mutate(func() bool {
		i := s.indexOf(identity)
		if i < 0 {
			return false
		}
		s.lines[i].Quantity = max(0, s.lines[i].Quantity-1)
		kept := s.lines[:0]
		for _, l := range s.lines {
			if l.Quantity > 0 {
				kept = append(kept, l)
			}
		}
		s.lines = kept
		return true
	})
}

func (s *MemoryStore) ClearCart() {
	s.mutate(func() bool {
		if len(s.lines) == 0 {
			return false
		}
		s.lines = nil
		return true
	})
}

func (s *MemoryStore) OpenCart() {
	s.mutate(func() bool {
		changed := !s.isOpen
		s.isOpen = true
		return changed
	})
}

func (s *MemoryStore) CloseCart() {
	s.mutate(func() bool {
		changed := s.isOpen
		s.isOpen = false
		return changed
	})
}

// RemoveOrdered drops lines for the given identities that were added no
// later than placedAt. Lines added afterwards belong to a newer shopping
// round and are kept. It returns the number of removed lines.
func (s *MemoryStore) RemoveOrdered(identities []string, placedAt time.Time) int {
	ordered := make(map[string]struct{}, len(identities))
	for _, id := range identities {
		ordered[id] = struct{}{}
	}
	removed := 0
	s.mutate(func() bool {
		kept := s.lines[:0]
		for _, l := range s.lines {
			if _, ok := ordered[l.Identity]; ok && !l.AddedAt.After(placedAt) {
				removed++
				continue
			}
			kept = append(kept, l)
		}
		s.lines = kept
		return removed > 0
	})
	return removed
}

func (s *MemoryStore) CalculateTotal() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return money.Format(total(s.lines))
}

func (s *MemoryStore) Lines() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLines(s.lines)
}

func (s *MemoryStore) State() domain.CartState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// mutate applies fn under the write lock and, if fn reports a change,
// notifies observers before the next mutation can notify.
func (s *MemoryStore) mutate(fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	state := s.stateLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, o := range s.observers {
		o(state)
	}
}

func (s *MemoryStore) stateLocked() domain.CartState {
	return domain.CartState{Lines: cloneLines(s.lines), IsOpen: s.isOpen}
}

func (s *MemoryStore) indexOf(identity string) int {
	for i := range s.lines {
		if s.lines[i].Identity == identity {
			return i
		}
	}
	return -1
}

// Total sums a set of lines the same way CalculateTotal does.
func Total(lines []domain.CartLine) string {
	return money.Format(total(lines))
}

func total(lines []domain.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		sum = sum.Add(money.Parse(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	if len(lines) == 0 {
		return []domain.CartLine{}
	}
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}
