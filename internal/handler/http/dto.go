package http

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/utafrali/shopstate/internal/domain"
)

// --- Request DTOs ---

// AddCartItemRequest is the JSON request body for adding an item to the cart.
// Quantity is optional and defaults to 1; prices and quantities are
// normalized by the cart rather than rejected.
type AddCartItemRequest struct {
	ID                string   `json:"id" validate:"required,max=128"`
	Name              string   `json:"name" validate:"max=500"`
	UnitPrice         float64  `json:"unit_price"`
	OriginalUnitPrice *float64 `json:"original_unit_price"`
	ImageRef          string   `json:"image_ref"`
	Category          string   `json:"category"`
	StockLimit        int      `json:"stock_limit"`
	DeliveryDays      *int     `json:"delivery_days"`
	Quantity          looseQuantity `json:"quantity"`
}

func (r AddCartItemRequest) item() domain.Item {
	return domain.Item{
		ID:                r.ID,
		Name:              r.Name,
		UnitPrice:         r.UnitPrice,
		OriginalUnitPrice: r.OriginalUnitPrice,
		ImageRef:          r.ImageRef,
		Category:          r.Category,
		StockLimit:        r.StockLimit,
		DeliveryDays:      r.DeliveryDays,
	}
}

func (r AddCartItemRequest) quantity() int {
	return r.Quantity.value()
}

// UpdateQuantityRequest is the JSON request body for changing a line quantity.
type UpdateQuantityRequest struct {
	Quantity looseQuantity `json:"quantity"`
}

// looseQuantity accepts any JSON value for a quantity. Numbers and numeric
// strings are normalized; anything else, including a missing field, is 1.
type looseQuantity int

func (q *looseQuantity) UnmarshalJSON(b []byte) error {
	*q = 1
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case float64:
		*q = looseQuantity(domain.QuantityFromFloat(x))
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			*q = looseQuantity(domain.QuantityFromFloat(f))
		}
	}
	return nil
}

func (q looseQuantity) value() int {
	return domain.NormalizeQuantity(int(q))
}

// ApplyDiscountRequest is the JSON request body for applying a discount code.
type ApplyDiscountRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

// RewardCouponRequest is the JSON request body for applying a loyalty reward.
type RewardCouponRequest struct {
	Code   string  `json:"code" validate:"required,max=64"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// RefreshStockRequest carries fresh catalog stock for a cart line.
type RefreshStockRequest struct {
	StockLimit int `json:"stock_limit"`
}

// WishlistItemRequest is the JSON request body for wishlist additions and toggles.
type WishlistItemRequest struct {
	ID                   string   `json:"id" validate:"required,max=128"`
	Name                 string   `json:"name" validate:"max=500"`
	Price                float64  `json:"price"`
	OriginalPrice        *float64 `json:"original_price"`
	ImageRef             string   `json:"image_ref"`
	Category             string   `json:"category"`
	InStock              bool     `json:"in_stock"`
	PriceDropProbability *float64 `json:"price_drop_probability" validate:"omitempty,gte=0,lte=100"`
}

func (r WishlistItemRequest) item() domain.WishlistItem {
	return domain.WishlistItem{
		ID:                   r.ID,
		Name:                 r.Name,
		Price:                r.Price,
		OriginalPrice:        r.OriginalPrice,
		ImageRef:             r.ImageRef,
		Category:             r.Category,
		InStock:              r.InStock,
		PriceDropProbability: r.PriceDropProbability,
	}
}

// --- Response DTOs ---

type cartLineResponse struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	UnitPrice         float64  `json:"unit_price"`
	OriginalUnitPrice *float64 `json:"original_unit_price,omitempty"`
	ImageRef          string   `json:"image_ref"`
	Category          string   `json:"category"`
	Quantity          int      `json:"quantity"`
	StockLimit        int      `json:"stock_limit"`
	DeliveryDays      *int     `json:"delivery_days,omitempty"`
	LineTotal         float64  `json:"line_total"`
}

type totalsResponse struct {
	TotalItems int     `json:"total_items"`
	Subtotal   float64 `json:"subtotal"`
	Discount   float64 `json:"discount"`
	Shipping   float64 `json:"shipping"`
	Tax        float64 `json:"tax"`
	Total      float64 `json:"total"`
}

type cartResponse struct {
	Scope          string             `json:"scope"`
	Items          []cartLineResponse `json:"items"`
	DiscountCode   *string            `json:"discount_code"`
	DiscountAmount float64            `json:"discount_amount"`
	DrawerOpen     bool               `json:"drawer_open"`
	Totals         totalsResponse     `json:"totals"`
}

func newCartResponse(scope string, c domain.Cart, t domain.Totals) cartResponse {
	items := make([]cartLineResponse, len(c.Lines))
	for i, l := range c.Lines {
		items[i] = cartLineResponse{
			ID:                l.ID,
			Name:              l.Name,
			UnitPrice:         l.UnitPrice,
			OriginalUnitPrice: l.OriginalUnitPrice,
			ImageRef:          l.ImageRef,
			Category:          l.Category,
			Quantity:          l.Quantity,
			StockLimit:        l.StockLimit,
			DeliveryDays:      l.DeliveryDays,
			LineTotal:         domain.RoundCents(l.LineTotal()),
		}
	}
	var code *string
	if c.Discount.Active() {
		v := c.Discount.Code
		code = &v
	}
	return cartResponse{
		Scope:          scope,
		Items:          items,
		DiscountCode:   code,
		DiscountAmount: t.Discount,
		DrawerOpen:     c.DrawerOpen,
		Totals: totalsResponse{
			TotalItems: t.TotalItems,
			Subtotal:   t.Subtotal,
			Discount:   t.Discount,
			Shipping:   t.Shipping,
			Tax:        t.Tax,
			Total:      t.Total,
		},
	}
}

type wishlistItemResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Price                float64   `json:"price"`
	OriginalPrice        *float64  `json:"original_price,omitempty"`
	ImageRef             string    `json:"image_ref"`
	Category             string    `json:"category"`
	InStock              bool      `json:"in_stock"`
	AddedAt              time.Time `json:"added_at"`
	PriceDropProbability *float64  `json:"price_drop_probability,omitempty"`
	PriceDropAlert       bool      `json:"price_drop_alert"`
}

type wishlistResponse struct {
	Scope      string                 `json:"scope"`
	Items      []wishlistItemResponse `json:"items"`
	TotalItems int                    `json:"total_items"`
}

func newWishlistItems(items []domain.WishlistItem) []wishlistItemResponse {
	out := make([]wishlistItemResponse, len(items))
	for i, w := range items {
		out[i] = wishlistItemResponse{
			ID:                   w.ID,
			Name:                 w.Name,
			Price:                w.Price,
			OriginalPrice:        w.OriginalPrice,
			ImageRef:             w.ImageRef,
			Category:             w.Category,
			InStock:              w.InStock,
			AddedAt:              w.AddedAt,
			PriceDropProbability: w.PriceDropProbability,
			PriceDropAlert:       w.HasPriceDropAlert(),
		}
	}
	return out
}

type sessionResponse struct {
	DeviceID string `json:"device_id"`
	Scope    string `json:"scope"`
}
