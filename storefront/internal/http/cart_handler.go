package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/storefront/internal/cart"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

type CartHandler struct {
	sessions Sessions
	logger   *zap.Logger
}

func NewCartHandler(sessions Sessions, logger *zap.Logger) *CartHandler {
	return &CartHandler{sessions: sessions, logger: logger}
}

// CartView is what the rendering layer draws the cart panel and badge from.
type CartView struct {
	Lines     []domain.CartLine `json:"lines"`
	IsOpen    bool              `json:"isOpen"`
	Total     string            `json:"total"`
	ItemCount int               `json:"itemCount"`
}

// AddItemRequestDTO carries either a full catalog item or just its id.
type AddItemRequestDTO struct {
	ID   string              `json:"id"`
	Item *domain.CatalogItem `json:"item"`
}

func newCartView(store cart.CartStore) CartView {
	state := store.State()
	lines := state.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return CartView{
		Lines:     lines,
		IsOpen:    state.IsOpen,
		Total:     cart.Total(lines),
		ItemCount: count,
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, http.StatusOK, func(cart.CartStore) {})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var item domain.CatalogItem
	switch {
	case req.Item != nil:
		item = *req.Item
	case req.ID != "":
		item = domain.CatalogItem{ID: req.ID}
	default:
		respondError(w, http.StatusBadRequest, "invalid_item", "id or item is required")
		return
	}
	if item.Identity() == "|" {
		respondError(w, http.StatusBadRequest, "invalid_item", "item needs an id or a title")
		return
	}

	userID := getUserIDFromContext(r.Context())
	if _, err := h.sessions.AddToCart(r.Context(), userID, item); err != nil {
		handleError(w, logger.WithContext(r.Context(), h.logger), err)
		return
	}
	h.withCart(w, r, http.StatusCreated, func(cart.CartStore) {})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	h.withCart(w, r, http.StatusOK, func(s cart.CartStore) { s.RemoveFromCart(identity) })
}

func (h *CartHandler) IncreaseQuantity(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	h.withCart(w, r, http.StatusOK, func(s cart.CartStore) { s.IncreaseQuantity(identity) })
}

func (h *CartHandler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	h.withCart(w, r, http.StatusOK, func(s cart.CartStore) { s.DecreaseQuantity(identity) })
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, http.StatusOK, cart.CartStore.ClearCart)
}

func (h *CartHandler) OpenCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, http.StatusOK, cart.CartStore.OpenCart)
}

func (h *CartHandler) CloseCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, http.StatusOK, cart.CartStore.CloseCart)
}

// withCart applies op to the caller's cart and answers with the resulting view.
func (h *CartHandler) withCart(w http.ResponseWriter, r *http.Request, status int, op func(cart.CartStore)) {
	sess, err := h.sessions.Session(r.Context(), getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, logger.WithContext(r.Context(), h.logger), err)
		return
	}
	store := sess.Cart()
	op(store)
	respondJSON(w, status, newCartView(store))
}
