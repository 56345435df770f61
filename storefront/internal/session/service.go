// Package session owns the per-user storefront state: the cart, the catalog
// browse session and the checkout in progress.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_bookstore/storefront/internal/cache"
	"github.com/fjod/go_bookstore/storefront/internal/cart"
	"github.com/fjod/go_bookstore/storefront/internal/catalog"
	"github.com/fjod/go_bookstore/storefront/internal/checkout"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
	"github.com/fjod/go_bookstore/storefront/internal/pricing"
	"github.com/fjod/go_bookstore/storefront/internal/repository"
)

const (
	DefaultIdleTTL         = 30 * time.Minute
	DefaultJanitorInterval = time.Minute
	persistTimeout         = 2 * time.Second
)

var ErrNoCheckout = errors.New("no checkout in progress")

type CatalogClient interface {
	catalog.Searcher
	Volume(ctx context.Context, id string) (domain.CatalogItem, error)
}

type Service struct {
	repo     repository.CartRepository
	cache    cache.CartCache
	resolver *pricing.Resolver
	catalog  CatalogClient
	orders   checkout.OrderService
	logger   *zap.Logger

	idleTTL         time.Duration
	janitorInterval time.Duration
	submitTimeout   time.Duration
	now             func() time.Time

	sfg      singleflight.Group
	mu       sync.Mutex
	sessions map[string]*Session
}

type Option func(*Service)

func WithIdleTTL(d time.Duration) Option {
	return func(s *Service) { s.idleTTL = d }
}

func WithJanitorInterval(d time.Duration) Option {
	return func(s *Service) { s.janitorInterval = d }
}

func WithSubmitTimeout(d time.Duration) Option {
	return func(s *Service) { s.submitTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	repo repository.CartRepository,
	cartCache cache.CartCache,
	resolver *pricing.Resolver,
	catalogClient CatalogClient,
	orders checkout.OrderService,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		repo:            repo,
		cache:           cartCache,
		resolver:        resolver,
		catalog:         catalogClient,
		orders:          orders,
		logger:          logger,
		idleTTL:         DefaultIdleTTL,
		janitorInterval: DefaultJanitorInterval,
		submitTimeout:   15 * time.Second,
		now:             time.Now,
		sessions:        make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns the user's resident session, restoring the cart from the
// cache or the repository on first access.
func (s *Service) Session(ctx context.Context, userID string) (*Session, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[userID]; ok {
		s.mu.Unlock()
		sess.touch(s.now())
		return sess, nil
	}
	s.mu.Unlock()

	snap, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		sess.touch(s.now())
		return sess, nil
	}

	store := cart.NewMemoryStore(cart.WithClock(s.now))
	store.Restore(domain.CartState{Lines: snap.Lines, IsOpen: snap.IsOpen})
	store.Subscribe(func(state domain.CartState) {
		s.persist(userID, state)
	})

	sess := &Session{
		UserID:   userID,
		cart:     store,
		browser:  catalog.NewBrowser(s.catalog, s.logger.With(zap.String("user_id", userID))),
		lastSeen: s.now(),
	}
	s.sessions[userID] = sess
	return sess, nil
}

func (s *Service) loadCart(ctx context.Context, userID string) (*domain.CartSnapshot, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		snap, err := s.cache.Get(ctx, userID)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cache get error", zap.String("user_id", userID), zap.Error(err))
		}

		snap, err = s.repo.GetCart(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			return &domain.CartSnapshot{UserID: userID, Lines: []domain.CartLine{}}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}

		go func(snap *domain.CartSnapshot) {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := s.cache.Set(ctx, userID, snap); err != nil {
				s.logger.Warn("cache set error", zap.String("user_id", userID), zap.Error(err))
			}
		}(snap)

		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CartSnapshot), nil
}

// persist writes the cart through to the repository and drops the cached
// copy. Failures are logged; the in-memory cart stays authoritative.
func (s *Service) persist(userID string, state domain.CartState) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	err := s.repo.UpsertCart(ctx, &domain.CartSnapshot{
		UserID: userID,
		Lines:  state.Lines,
		IsOpen: state.IsOpen,
	})
	if err != nil {
		s.logger.Error("failed to persist cart", zap.String("user_id", userID), zap.Error(err))
	}
	s.invalidateCache(ctx, userID)
}

func (s *Service) invalidateCache(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("cache invalidate error", zap.String("user_id", userID), zap.Error(err))
	}
}

// AddToCart prices the item and adds it to the user's cart. An item sent
// with only an id is looked up in the catalog first.
func (s *Service) AddToCart(ctx context.Context, userID string, item domain.CatalogItem) (domain.CartLine, error) {
	sess, err := s.Session(ctx, userID)
	if err != nil {
		return domain.CartLine{}, err
	}

	if item.ID != "" && item.VolumeInfo.Title == "" {
		fetched, err := s.catalog.Volume(ctx, item.ID)
		if err != nil {
			return domain.CartLine{}, fmt.Errorf("lookup volume %s: %w", item.ID, err)
		}
		item = fetched
	}

	price := s.resolver.Resolve(ctx, item)
	sess.cart.AddToCart(item, price.Amount, price.Currency)

	identity := item.Identity()
	for _, l := range sess.cart.Lines() {
		if l.Identity == identity {
			return l, nil
		}
	}
	return domain.CartLine{}, fmt.Errorf("line %s vanished after add", identity)
}

// BeginCheckout starts a fresh checkout, abandoning any previous one.
func (s *Service) BeginCheckout(ctx context.Context, userID string) (*checkout.Controller, error) {
	sess, err := s.Session(ctx, userID)
	if err != nil {
		return nil, err
	}
	c := checkout.NewController(sess.cart, s.orders,
		s.logger.With(zap.String("user_id", userID)),
		checkout.WithClock(s.now),
		checkout.WithSubmitTimeout(s.submitTimeout),
	)
	sess.replaceCheckout(c)
	return c, nil
}

func (s *Service) Checkout(ctx context.Context, userID string) (*checkout.Controller, error) {
	sess, err := s.Session(ctx, userID)
	if err != nil {
		return nil, err
	}
	c, ok := sess.Checkout()
	if !ok {
		return nil, ErrNoCheckout
	}
	return c, nil
}

// LeaveCheckout destroys the checkout state. Leaving twice is fine.
func (s *Service) LeaveCheckout(ctx context.Context, userID string) error {
	sess, err := s.Session(ctx, userID)
	if err != nil {
		return err
	}
	sess.replaceCheckout(nil)
	return nil
}

// ApplyOrderPlaced removes ordered lines from the user's cart, in memory
// when the session is resident and in storage otherwise.
func (s *Service) ApplyOrderPlaced(ctx context.Context, ev domain.OrderPlacedEvent) error {
	ids := make([]string, 0, len(ev.Items))
	for _, it := range ev.Items {
		ids = append(ids, it.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	sess, ok := s.sessions[ev.UserID]
	s.mu.Unlock()

	if ok {
		removed := sess.cart.RemoveOrdered(ids, ev.OrderDate)
		s.logger.Debug("removed ordered lines from resident cart",
			zap.String("user_id", ev.UserID), zap.String("order_id", ev.OrderID), zap.Int("removed", removed))
		return nil
	}

	err := s.repo.RemoveOrderedLines(ctx, ev.UserID, ids, ev.OrderDate)
	if errors.Is(err, repository.ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.invalidateCache(ctx, ev.UserID)
	return nil
}

// Run evicts idle sessions until ctx is done. Evicting a session abandons
// its checkout; the cart is already persisted.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.janitorInterval)
	defer ticker.Stop()

	s.logger.Info("session janitor started", zap.Duration("idle_ttl", s.idleTTL))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session janitor stopped")
			return
		case <-ticker.C:
			s.EvictIdle()
		}
	}
}

// EvictIdle drops sessions idle for at least the idle TTL. Their checkouts
// are abandoned after s.mu is released.
func (s *Service) EvictIdle() int {
	now := s.now()

	var idle []*Session
	s.mu.Lock()
	for userID, sess := range s.sessions {
		if sess.idleSince(now) < s.idleTTL {
			continue
		}
		idle = append(idle, sess)
		delete(s.sessions, userID)
	}
	s.mu.Unlock()

	for _, sess := range idle {
		sess.replaceCheckout(nil)
	}
	if len(idle) > 0 {
		s.logger.Info("evicted idle sessions", zap.Int("count", len(idle)))
	}
	return len(idle)
}
