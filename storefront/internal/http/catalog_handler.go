package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/storefront/internal/catalog"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

// CatalogClient is the part of the catalog client the handlers need.
type CatalogClient interface {
	catalog.Searcher
	Volume(ctx context.Context, id string) (domain.CatalogItem, error)
}

// CatalogHandler serves book search. Signed-in users search through their
// session's browser so next/previous and stale detection work; anonymous
// searches are one-off.
type CatalogHandler struct {
	client   CatalogClient
	sessions Sessions
	logger   *zap.Logger
	timeout  time.Duration
}

func NewCatalogHandler(client CatalogClient, sessions Sessions, logger *zap.Logger, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{client: client, sessions: sessions, logger: logger, timeout: timeout}
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	browser, err := h.browser(ctx)
	if err != nil {
		handleError(w, logger.WithContext(r.Context(), h.logger), err)
		return
	}
	res, err := browser.Search(ctx, q)
	h.respondResult(w, r, res, err)
}

func (h *CatalogHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, (*catalog.Browser).Next)
}

func (h *CatalogHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, (*catalog.Browser).Previous)
}

func (h *CatalogHandler) page(w http.ResponseWriter, r *http.Request, move func(*catalog.Browser, context.Context) (catalog.Result, error)) {
	if getUserIDFromContext(r.Context()) == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "paging requires a signed-in session")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	browser, err := h.browser(ctx)
	if err != nil {
		handleError(w, logger.WithContext(r.Context(), h.logger), err)
		return
	}
	res, err := move(browser, ctx)
	h.respondResult(w, r, res, err)
}

func (h *CatalogHandler) GetVolume(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	item, err := h.client.Volume(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, logger.WithContext(r.Context(), h.logger), err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *CatalogHandler) browser(ctx context.Context) (*catalog.Browser, error) {
	userID := getUserIDFromContext(ctx)
	if userID == "" {
		return catalog.NewBrowser(h.client, h.logger), nil
	}
	sess, err := h.sessions.Session(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sess.Browser(), nil
}

func (h *CatalogHandler) respondResult(w http.ResponseWriter, r *http.Request, res catalog.Result, err error) {
	switch {
	case err == nil, res.Stale:
		respondJSON(w, http.StatusOK, res)
	case errors.Is(err, catalog.ErrInvalidQuery):
		respondError(w, http.StatusBadRequest, "invalid_query", err.Error())
	default:
		logger.WithContext(r.Context(), h.logger).Warn("catalog search failed", zap.Error(err))
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   err.Error(),
			Code:    "catalog_unavailable",
			Message: catalog.FetchErrorMessage,
		})
	}
}

func queryFromRequest(r *http.Request) (catalog.Query, error) {
	v := r.URL.Query()
	q := catalog.Query{
		Q:            v.Get("q"),
		PrintType:    v.Get("printType"),
		OrderBy:      v.Get("orderBy"),
		LangRestrict: v.Get("langRestrict"),
		Filter:       v.Get("filter"),
	}
	var err error
	if s := v.Get("startIndex"); s != "" {
		if q.StartIndex, err = strconv.Atoi(s); err != nil {
			return q, errors.New("startIndex must be an integer")
		}
	}
	if s := v.Get("maxResults"); s != "" {
		if q.MaxResults, err = strconv.Atoi(s); err != nil {
			return q, errors.New("maxResults must be an integer")
		}
	}
	return q, nil
}
