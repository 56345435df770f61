// Package backend is the storefront's client for the orders service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/pkg/auth"
	"github.com/fjod/go_bookstore/pkg/circuitbreaker"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker[[]byte]
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	cfg := circuitbreaker.DefaultConfig()
	cfg.IsSuccessful = func(err error) bool {
		var be *domain.BackendError
		return err == nil || (errors.As(err, &be) && be.StatusCode < 500)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[[]byte]("orders", cfg, logger),
	}
}

func (c *Client) CreateOrder(ctx context.Context, token string, req domain.OrderRequest) (*domain.OrderReceipt, error) {
	var receipt domain.OrderReceipt
	if err := c.do(ctx, http.MethodPost, "/api/orders", token, req, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (c *Client) ListOrders(ctx context.Context, token string) ([]domain.OrderReceipt, error) {
	orders := []domain.OrderReceipt{}
	if err := c.do(ctx, http.MethodGet, "/api/orders/my", token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	var res domain.AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", reg, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	var res domain.AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", creds, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Profile(ctx context.Context, token string) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodGet, "/api/user/profile", token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, upd domain.ProfileUpdate) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodPut, "/api/user/profile", token, upd, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set(auth.HeaderToken, token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= 300 {
			return nil, decodeError(resp.StatusCode, b)
		}
		return b, nil
	})
	if err != nil {
		return err
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	be := &domain.BackendError{StatusCode: status}
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		be.Code = er.Code
		be.Reason = er.Error
		be.Message = er.Message
	}
	if be.Reason == "" {
		be.Reason = http.StatusText(status)
	}
	return be
}
