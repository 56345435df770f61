// Package catalog talks to the Google Books volumes API and keeps the
// search results a session is looking at.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/pkg/circuitbreaker"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

var (
	ErrVolumeNotFound = errors.New("volume not found")
	ErrInvalidQuery   = errors.New("invalid catalog query")
)

// Page is one page of search results.
type Page struct {
	Items      []domain.CatalogItem `json:"items"`
	TotalItems int                  `json:"totalItems"`
	Query      Query                `json:"query"`
	Seq        uint64               `json:"seq"`
	Error      string               `json:"error,omitempty"`
}

type volumesResponse struct {
	TotalItems int                  `json:"totalItems"`
	Items      []domain.CatalogItem `json:"items"`
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("catalog: status %d: %s", e.code, e.body)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker[[]byte]
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	cfg := circuitbreaker.DefaultConfig()
	cfg.IsSuccessful = func(err error) bool {
		var se *statusError
		return err == nil || errors.Is(err, ErrVolumeNotFound) || (errors.As(err, &se) && se.code < 500)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[[]byte]("catalog", cfg, logger),
	}
}

// Search expects a normalized query.
func (c *Client) Search(ctx context.Context, q Query) (Page, error) {
	params := q.Values()
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	body, err := c.get(ctx, c.baseURL+"/volumes?"+params.Encode())
	if err != nil {
		return Page{}, err
	}

	var resp volumesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page{}, fmt.Errorf("decode volumes: %w", err)
	}
	items := resp.Items
	if items == nil {
		items = []domain.CatalogItem{}
	}
	return Page{Items: items, TotalItems: resp.TotalItems, Query: q}, nil
}

func (c *Client) Volume(ctx context.Context, id string) (domain.CatalogItem, error) {
	u := c.baseURL + "/volumes/" + url.PathEscape(id)
	if c.apiKey != "" {
		u += "?key=" + url.QueryEscape(c.apiKey)
	}
	body, err := c.get(ctx, u)
	if err != nil {
		return domain.CatalogItem{}, err
	}

	var item domain.CatalogItem
	if err := json.Unmarshal(body, &item); err != nil {
		return domain.CatalogItem{}, fmt.Errorf("decode volume: %w", err)
	}
	return item, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read catalog response: %w", err)
		}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrVolumeNotFound
		case resp.StatusCode != http.StatusOK:
			return nil, &statusError{code: resp.StatusCode, body: string(body)}
		}
		return body, nil
	})
}
