package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/shopstate/internal/service"
	apperrors "github.com/utafrali/shopstate/pkg/errors"
	"github.com/utafrali/shopstate/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.ShopService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.ShopService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// respond runs op against the device's session and renders the resulting cart.
func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, sess *service.Session) error) {
	var resp cartResponse
	err := h.service.WithSession(r.Context(), deviceIDFromContext(r.Context()), func(ctx context.Context, sess *service.Session) error {
		if op != nil {
			if err := op(ctx, sess); err != nil {
				return err
			}
		}
		store := sess.Cart()
		resp = newCartResponse(sess.Scope(ctx), store.State(), store.Totals())
		return nil
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: resp})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, nil)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, r, func(ctx context.Context, sess *service.Session) error {
		sess.Cart().AddItem(ctx, req.item(), req.quantity())
		return nil
	})
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{id}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateQuantityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, r, func(ctx context.Context, sess *service.Session) error {
		sess.Cart().UpdateQuantity(ctx, id, req.Quantity.value())
		return nil
	})
}

// RemoveItem handles DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.respond(w, r, func(ctx context.Context, sess *service.Session) error {
		sess.Cart().RemoveItem(ctx, id)
		return nil
	})
}

// RefreshStock handles PUT /api/v1/cart/items/{id}/stock
func (h *CartHandler) RefreshStock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req RefreshStockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, r, func(ctx context.Context, sess *service.Session) error {
		sess.Cart().RefreshStock(ctx, id, req.StockLimit)
		return nil
	})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(ctx context.Context, sess *service.Session) error {
		sess.Cart().ClearCart(ctx)
		return nil
	})
}

// OpenDrawer handles POST /api/v1/cart/drawer/open
func (h *CartHandler) OpenDrawer(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(_ context.Context, sess *service.Session) error {
		sess.Cart().OpenDrawer()
		return nil
	})
}

// CloseDrawer handles POST /api/v1/cart/drawer/close
func (h *CartHandler) CloseDrawer(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(_ context.Context, sess *service.Session) error {
		sess.Cart().CloseDrawer()
		return nil
	})
}

// ApplyDiscount handles POST /api/v1/cart/discount
func (h *CartHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req ApplyDiscountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, r, func(ctx context.Context, sess *service.Session) error {
		if !sess.Cart().ApplyDiscount(ctx, req.Code) {
			return apperrors.Unprocessable("INVALID_DISCOUNT", "discount code is not valid for this cart")
		}
		return nil
	})
}

// ApplyRewardCoupon handles POST /api/v1/cart/reward-coupon
func (h *CartHandler) ApplyRewardCoupon(w http.ResponseWriter, r *http.Request) {
	var req RewardCouponRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, r, func(ctx context.Context, sess *service.Session) error {
		if !sess.Cart().ApplyRewardCoupon(ctx, req.Code, req.Amount) {
			return apperrors.Unprocessable("INVALID_REWARD", "reward coupon has no value for this cart")
		}
		return nil
	})
}

// RemoveDiscount handles DELETE /api/v1/cart/discount
func (h *CartHandler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(ctx context.Context, sess *service.Session) error {
		sess.Cart().RemoveDiscount(ctx)
		return nil
	})
}
