package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/shopstate/internal/domain"
	"github.com/utafrali/shopstate/internal/service"
	"github.com/utafrali/shopstate/internal/wishlist"
)

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	service *service.ShopService
	logger  *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(svc *service.ShopService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{
		service: svc,
		logger:  logger,
	}
}

// view runs fn against the device's wishlist and writes whatever it returns.
func (h *WishlistHandler) view(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, sess *service.Session) any) {
	var data any
	err := h.service.WithSession(r.Context(), deviceIDFromContext(r.Context()), func(ctx context.Context, sess *service.Session) error {
		data = fn(ctx, sess)
		return nil
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: data})
}

func fullWishlist(ctx context.Context, sess *service.Session) wishlistResponse {
	store := sess.Wishlist()
	return wishlistResponse{
		Scope:      sess.Scope(ctx),
		Items:      newWishlistItems(store.Items()),
		TotalItems: store.TotalItems(),
	}
}

func filteredWishlist(ctx context.Context, sess *service.Session, pick func(*wishlist.Store) []domain.WishlistItem) wishlistResponse {
	items := pick(sess.Wishlist())
	return wishlistResponse{
		Scope:      sess.Scope(ctx),
		Items:      newWishlistItems(items),
		TotalItems: len(items),
	}
}

// --- Handlers ---

// GetWishlist handles GET /api/v1/wishlist
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, func(ctx context.Context, sess *service.Session) any {
		return fullWishlist(ctx, sess)
	})
}

// AddItem handles POST /api/v1/wishlist/items
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req WishlistItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.view(w, r, func(ctx context.Context, sess *service.Session) any {
		sess.Wishlist().AddItem(ctx, req.item())
		return fullWishlist(ctx, sess)
	})
}

// RemoveItem handles DELETE /api/v1/wishlist/items/{id}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.view(w, r, func(ctx context.Context, sess *service.Session) any {
		sess.Wishlist().RemoveItem(ctx, id)
		return fullWishlist(ctx, sess)
	})
}

// Toggle handles POST /api/v1/wishlist/toggle
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req WishlistItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.view(w, r, func(ctx context.Context, sess *service.Session) any {
		added := sess.Wishlist().ToggleItem(ctx, req.item())
		return map[string]any{
			"added":    added,
			"wishlist": fullWishlist(ctx, sess),
		}
	})
}

// Contains handles GET /api/v1/wishlist/items/{id}
func (h *WishlistHandler) Contains(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.view(w, r, func(_ context.Context, sess *service.Session) any {
		return map[string]bool{"in_wishlist": sess.Wishlist().IsInWishlist(id)}
	})
}

// PriceDropAlerts handles GET /api/v1/wishlist/alerts
func (h *WishlistHandler) PriceDropAlerts(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, func(ctx context.Context, sess *service.Session) any {
		return filteredWishlist(ctx, sess, (*wishlist.Store).PriceDropAlerts)
	})
}

// InStock handles GET /api/v1/wishlist/in-stock
func (h *WishlistHandler) InStock(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, func(ctx context.Context, sess *service.Session) any {
		return filteredWishlist(ctx, sess, (*wishlist.Store).InStockItems)
	})
}

// Clear handles DELETE /api/v1/wishlist
func (h *WishlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, func(ctx context.Context, sess *service.Session) any {
		sess.Wishlist().Clear(ctx)
		return fullWishlist(ctx, sess)
	})
}
