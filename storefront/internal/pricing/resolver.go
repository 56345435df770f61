// Package pricing derives the unit price a catalog item is added to the cart
// with.
package pricing

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/pkg/money"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

const DefaultCurrency = "USD"

var (
	minPrice      = decimal.NewFromInt(5)
	halfFactor    = decimal.NewFromFloat(0.5)
	perturbation  = decimal.NewFromInt(7)
	pagesDivisor  = decimal.NewFromInt(10)
	fallbackTitle = 10
	fallbackPages = 50
)

type Price struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type Resolver struct {
	memo   Memo
	random func() float64
	logger *zap.Logger
}

type Option func(*Resolver)

// WithRandom replaces the [0,1) source used for the perturbation.
func WithRandom(fn func() float64) Option {
	return func(r *Resolver) { r.random = fn }
}

func NewResolver(memo Memo, logger *zap.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		memo:   memo,
		random: rand.Float64,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve never fails. Memo errors are logged and the freshly derived price
// is returned.
func (r *Resolver) Resolve(ctx context.Context, item domain.CatalogItem) Price {
	if offer, ok := item.SaleOffer(); ok {
		currency := offer.CurrencyCode
		if currency == "" {
			currency = DefaultCurrency
		}
		return Price{Amount: money.Format(decimal.NewFromFloat(offer.Amount)), Currency: currency}
	}

	seed, stable := r.seed(item)
	if stable {
		if p, ok, err := r.memo.Get(ctx, seed); err != nil {
			r.logger.Warn("price memo lookup failed", zap.String("seed", seed), zap.Error(err))
		} else if ok {
			return Price{Amount: p, Currency: DefaultCurrency}
		}
	}

	amount := r.derive(item)
	if !stable {
		return Price{Amount: amount, Currency: DefaultCurrency}
	}

	stored, err := r.memo.PutIfAbsent(ctx, seed, amount)
	if err != nil {
		r.logger.Warn("price memo store failed", zap.String("seed", seed), zap.Error(err))
		return Price{Amount: amount, Currency: DefaultCurrency}
	}
	return Price{Amount: stored, Currency: DefaultCurrency}
}

// seed returns the memo key and whether it is stable across calls. Items with
// neither id nor title get a random, unmemoized seed.
func (r *Resolver) seed(item domain.CatalogItem) (string, bool) {
	if id := strings.TrimSpace(item.ID); id != "" {
		return id, true
	}
	if title := item.VolumeInfo.Title; title != "" {
		return title, true
	}
	return strconv.FormatFloat(r.random(), 'f', -1, 64), false
}

func (r *Resolver) derive(item domain.CatalogItem) string {
	titleLen := utf8.RuneCountInString(item.VolumeInfo.Title)
	if titleLen == 0 {
		titleLen = fallbackTitle
	}
	pages := item.VolumeInfo.PageCount
	if pages == 0 {
		pages = fallbackPages
	}

	base := decimal.NewFromInt(int64(titleLen)).
		Add(decimal.NewFromInt(int64(pages)).Div(pagesDivisor)).
		Mul(halfFactor)
	price := base.Add(decimal.NewFromFloat(r.random()).Mul(perturbation))

	return money.Format(decimal.Max(price, minPrice))
}
