package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Logger         *zap.Logger
	Verifier       TokenVerifier
	Accounts       Accounts
	Orders         Orders
	DB             Pinger
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	accountHandler := NewAccountHandler(cfg.Accounts, cfg.Logger, cfg.RequestTimeout)
	orderHandler := NewOrderHandler(cfg.Orders, cfg.Logger, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(AccessLog(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.DB.Ping(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "not_ready", "database unavailable")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", accountHandler.Register)
		r.Post("/auth/login", accountHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(cfg.Verifier))

			r.Get("/user/profile", accountHandler.GetProfile)
			r.Put("/user/profile", accountHandler.UpdateProfile)

			r.Post("/orders", orderHandler.CreateOrder)
			r.Get("/orders/my", orderHandler.ListMyOrders)
		})
	})

	return r
}
