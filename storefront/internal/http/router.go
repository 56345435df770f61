package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Logger         *zap.Logger
	Verifier       TokenVerifier
	Sessions       Sessions
	Catalog        CatalogClient
	Accounts       Accounts
	Readiness      map[string]Check
	RequestTimeout time.Duration
	// SubmitTimeout bounds the place-order route, which outlives the
	// regular request timeout.
	SubmitTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	catalogHandler := NewCatalogHandler(cfg.Catalog, cfg.Sessions, cfg.Logger, cfg.RequestTimeout)
	cartHandler := NewCartHandler(cfg.Sessions, cfg.Logger)
	checkoutHandler := NewCheckoutHandler(cfg.Sessions, cfg.Logger)
	accountHandler := NewAccountHandler(cfg.Accounts, cfg.Logger, cfg.RequestTimeout)
	healthHandler := NewHealthHandler(cfg.Readiness, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestContext)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/health", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	requestTimeout := middleware.Timeout(cfg.RequestTimeout)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			r.Use(requestTimeout)
			r.Use(OptionalAuth(cfg.Verifier))
			r.Get("/", catalogHandler.Search)
			r.Get("/next", catalogHandler.Next)
			r.Get("/previous", catalogHandler.Previous)
			r.Get("/{id}", catalogHandler.GetVolume)
		})

		r.With(requestTimeout).Post("/auth/register", accountHandler.Register)
		r.With(requestTimeout).Post("/auth/login", accountHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(cfg.Verifier))

			r.Group(func(r chi.Router) {
				r.Use(requestTimeout)
				r.Get("/profile", accountHandler.GetProfile)
				r.Put("/profile", accountHandler.UpdateProfile)
				r.Get("/orders", accountHandler.ListOrders)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Use(requestTimeout)
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/open", cartHandler.OpenCart)
				r.Post("/close", cartHandler.CloseCart)
				r.Post("/items", cartHandler.AddItem)
				r.Delete("/items/{identity}", cartHandler.RemoveItem)
				r.Post("/items/{identity}/increase", cartHandler.IncreaseQuantity)
				r.Post("/items/{identity}/decrease", cartHandler.DecreaseQuantity)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(requestTimeout)
					r.Post("/", checkoutHandler.Begin)
					r.Get("/", checkoutHandler.Get)
					r.Delete("/", checkoutHandler.Leave)
					r.Put("/shipping", checkoutHandler.UpdateShipping)
					r.Put("/payment", checkoutHandler.SelectPayment)
					r.Post("/next", checkoutHandler.Next)
					r.Post("/previous", checkoutHandler.Previous)
				})
				r.With(middleware.Timeout(cfg.SubmitTimeout+cfg.RequestTimeout)).
					Post("/orders", checkoutHandler.PlaceOrder)
			})
		})
	})

	return r
}
