package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

const FetchErrorMessage = "Failed to fetch books. Please try again later."

type Searcher interface {
	Search(ctx context.Context, q Query) (Page, error)
}

// Result is the outcome of one search. Stale results were overtaken by a
// newer search and did not change the visible page.
type Result struct {
	Page  Page `json:"page"`
	Stale bool `json:"stale"`
}

// Browser keeps the page a session is looking at. Every search takes a
// sequence number and only the most recently issued one may replace the
// visible page.
type Browser struct {
	searcher Searcher
	logger   *zap.Logger

	mu      sync.Mutex
	issued  uint64
	current Page
	last    Query
}

func NewBrowser(searcher Searcher, logger *zap.Logger) *Browser {
	return &Browser{searcher: searcher, logger: logger}
}

func (b *Browser) Search(ctx context.Context, q Query) (Result, error) {
	nq, err := q.Normalize()
	if err != nil {
		return Result{}, err
	}

	b.mu.Lock()
	b.issued++
	seq := b.issued
	b.mu.Unlock()

	page, err := b.searcher.Search(ctx, nq)
	page.Seq = seq
	page.Query = nq

	b.mu.Lock()
	defer b.mu.Unlock()

	if seq != b.issued {
		b.logger.Debug("dropping stale search result", zap.Uint64("seq", seq), zap.Uint64("latest", b.issued))
		return Result{Page: page, Stale: true}, err
	}

	b.last = nq
	if err != nil {
		b.logger.Warn("catalog search failed", zap.String("q", nq.Q), zap.Error(err))
		b.current = Page{Items: []domain.CatalogItem{}, Query: nq, Seq: seq, Error: FetchErrorMessage}
		return Result{Page: b.current}, err
	}
	b.current = page
	return Result{Page: page}, nil
}

// Next re-issues the last query one page further.
func (b *Browser) Next(ctx context.Context) (Result, error) {
	q := b.lastQuery()
	q.StartIndex += q.MaxResults
	return b.Search(ctx, q)
}

func (b *Browser) Previous(ctx context.Context) (Result, error) {
	q := b.lastQuery()
	q.StartIndex = max(0, q.StartIndex-q.MaxResults)
	return b.Search(ctx, q)
}

func (b *Browser) Current() Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *Browser) lastQuery() Query {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last.Q == "" {
		q, _ := Query{}.Normalize()
		return q
	}
	return b.last
}
