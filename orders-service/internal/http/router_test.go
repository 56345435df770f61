package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fjod/go_bookstore/orders-service/internal/domain"
	"github.com/fjod/go_bookstore/orders-service/internal/repository"
	"github.com/fjod/go_bookstore/orders-service/internal/service"
	"github.com/fjod/go_bookstore/pkg/auth"
)

type testServer struct {
	*httptest.Server
	repo *repository.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo, err := repository.NewRepository(&repository.Credentials{
		Driver: repository.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "orders.db"),
	})
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations())
	t.Cleanup(func() { _ = repo.Close() })

	issuer := auth.NewIssuer("test-secret", time.Hour)
	router := NewRouter(RouterConfig{
		Logger:         zap.NewNop(),
		Verifier:       issuer,
		Accounts:       service.NewAccountService(repo, issuer, zap.NewNop(), service.WithBcryptCost(bcrypt.MinCost)),
		Orders:         service.NewOrderService(repo, zap.NewNop()),
		DB:             repo,
		RequestTimeout: 5 * time.Second,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(auth.HeaderToken, token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (s *testServer) register(t *testing.T, email string) service.AuthResult {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Ada Lovelace",
		"email":    email,
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[service.AuthResult](t, resp)
}

func orderBody(date string) map[string]any {
	body := map[string]any{
		"shippingInfo": map[string]string{
			"fullName":      "Ada Lovelace",
			"address1":      "12 St James's Square",
			"city":          "London",
			"stateProvince": "London",
			"zipPostal":     "SW1Y 4JH",
			"country":       "UK",
			"email":         "ada@example.com",
		},
		"paymentMethod": "credit_card",
		"items": []map[string]any{
			{"id": "b1", "title": "Go in Action", "quantity": 2, "price": "3.00"},
		},
		"totalAmount": "6.00",
	}
	if date != "" {
		body["orderDate"] = date
	}
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	reg := s.register(t, "Ada@Example.com")
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "ada@example.com", reg.User.Email)
	assert.Equal(t, domain.DefaultAvatarURL, reg.User.AvatarURL)

	resp := s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequestDTO{Email: "ada@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[map[string]any](t, resp)
	assert.NotEmpty(t, login["token"])
	user := login["user"].(map[string]any)
	assert.Equal(t, reg.User.ID, user["id"])
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "PasswordHash")
}

func TestAccountErrors(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ada@example.com")

	tests := []struct {
		name    string
		path    string
		body    any
		message string
	}{
		{"duplicate", "/api/auth/register", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "secret1"}, "User already exists"},
		{"unknown user", "/api/auth/login", LoginRequestDTO{Email: "bob@example.com", Password: "secret1"}, "User does not exist"},
		{"wrong password", "/api/auth/login", LoginRequestDTO{Email: "ada@example.com", Password: "nope-nope"}, "Invalid credentials"},
		{"invalid name", "/api/auth/register", map[string]string{"name": "R2D2", "email": "r2@example.com", "password": "secret1"}, "Name may only contain letters and spaces."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decode[ErrorResponse](t, resp)
			assert.Equal(t, tt.message, body.Error)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "ada@example.com")

	resp := s.do(t, http.MethodGet, "/api/user/profile", reg.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ada Lovelace", decode[domain.User](t, resp).Name)

	resp = s.do(t, http.MethodPut, "/api/user/profile", reg.Token, service.ProfileUpdate{
		Name:  "Augusta Ada King",
		Phone: "0123456789",
		Bio:   "Analyst",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[domain.User](t, resp)
	assert.Equal(t, "Augusta Ada King", updated.Name)
	assert.Equal(t, "ada@example.com", updated.Email)

	resp = s.do(t, http.MethodPut, "/api/user/profile", reg.Token, service.ProfileUpdate{Phone: "123"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_failed", decode[ErrorResponse](t, resp).Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/user/profile", "/api/orders/my"} {
		resp := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)

		resp = s.do(t, http.MethodGet, path, "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestBearerTokenAccepted(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "ada@example.com")

	req, err := http.NewRequest(http.MethodGet, s.URL+"/api/orders/my", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOrders(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "ada@example.com")

	resp := s.do(t, http.MethodGet, "/api/orders/my", reg.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]domain.Order](t, resp))

	resp = s.do(t, http.MethodPost, "/api/orders", reg.Token, orderBody("2026-01-01T10:00:00Z"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decode[domain.Order](t, resp)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, reg.User.ID, first.UserID)
	assert.Equal(t, "6.00", first.TotalAmount.StringFixed(2))

	resp = s.do(t, http.MethodPost, "/api/orders", reg.Token, orderBody(""))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	second := decode[domain.Order](t, resp)
	assert.WithinDuration(t, time.Now(), second.OrderDate, time.Minute)

	resp = s.do(t, http.MethodGet, "/api/orders/my", reg.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	orders := decode[[]domain.Order](t, resp)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)

	events, err := s.repo.GetUnprocessedEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestCreateOrder_Validation(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "ada@example.com")

	body := orderBody("")
	body["paymentMethod"] = "cash"
	resp := s.do(t, http.MethodPost, "/api/orders", reg.Token, body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	er := decode[ErrorResponse](t, resp)
	assert.Equal(t, "Order creation failed", er.Error)
	assert.Equal(t, "Please select a payment method.", er.Message)
}

type failingOrders struct{}

func (failingOrders) PlaceOrder(context.Context, string, service.PlaceOrderRequest) (*domain.Order, error) {
	return nil, errors.New("disk full")
}

func (failingOrders) ListOrders(context.Context, string) ([]*domain.Order, error) {
	return nil, errors.New("disk full")
}

func TestOrders_UnexpectedFailures(t *testing.T) {
	issuer := auth.NewIssuer("test-secret", time.Hour)
	router := NewRouter(RouterConfig{
		Logger:         zap.NewNop(),
		Verifier:       issuer,
		Orders:         failingOrders{},
		RequestTimeout: time.Second,
	})
	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(`{}`))
	req.Header.Set(auth.HeaderToken, token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Order creation failed"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/orders/my", nil)
	req.Header.Set(auth.HeaderToken, token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not retrieve orders")
}
