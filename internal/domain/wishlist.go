package domain

import (
	"slices"
	"strings"
	"time"
)

// PriceDropAlertThreshold is the minimum price-drop probability (0-100) for an
// item to appear in the alert list.
const PriceDropAlertThreshold = 70

// WishlistItem is a saved-for-later product.
type WishlistItem struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Price                float64   `json:"price"`
	OriginalPrice        *float64  `json:"originalPrice,omitempty"`
	ImageRef             string    `json:"imageRef"`
	Category             string    `json:"category"`
	InStock              bool      `json:"inStock"`
	AddedAt              time.Time `json:"addedAt"`
	PriceDropProbability *float64  `json:"priceDropProbability,omitempty"`
}

// HasPriceDropAlert reports whether the item's price-drop probability reaches
// the alert threshold.
func (w WishlistItem) HasPriceDropAlert() bool {
	return w.PriceDropProbability != nil && ToFiniteOrDefault(*w.PriceDropProbability, 0) >= PriceDropAlertThreshold
}

// WishlistSnapshot is the persisted shape of a wishlist.
type WishlistSnapshot struct {
	Items []WishlistItem `json:"items"`
}

// Restore returns the snapshot's items with blank ids and duplicates removed.
// The first occurrence of an id wins, matching the newest-first order.
func (s WishlistSnapshot) Restore() []WishlistItem {
	items := make([]WishlistItem, 0, len(s.Items))
	for _, it := range s.Items {
		it.ID = strings.TrimSpace(it.ID)
		if it.ID == "" {
			continue
		}
		if slices.ContainsFunc(items, func(w WishlistItem) bool { return w.ID == it.ID }) {
			continue
		}
		it.Price = NormalizePrice(it.Price)
		items = append(items, it)
	}
	return items
}
