package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/shopstate/internal/cart"
	"github.com/utafrali/shopstate/internal/domain"
	"github.com/utafrali/shopstate/internal/wishlist"
	pkgkafka "github.com/utafrali/shopstate/pkg/kafka"
	"github.com/utafrali/shopstate/pkg/logger"
)

// Kafka topic constants for shopstate events.
const (
	TopicCartUpdated     = "shopstate.cart.updated"
	TopicWishlistUpdated = "shopstate.wishlist.updated"
)

// Aggregate type constants.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeWishlist = "wishlist"
)

// SourceShopstate identifies events originating from this service.
const SourceShopstate = "shopstate"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	DeviceID       string         `json:"device_id"`
	Scope          string         `json:"scope"`
	Operation      string         `json:"operation"`
	Items          []CartItemData `json:"items"`
	DiscountCode   *string        `json:"discount_code"`
	DiscountAmount float64        `json:"discount_amount"`
	Totals         domain.Totals  `json:"totals"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// WishlistUpdatedData is the payload for a wishlist.updated event.
type WishlistUpdatedData struct {
	DeviceID   string   `json:"device_id"`
	Scope      string   `json:"scope"`
	Operation  string   `json:"operation"`
	ProductIDs []string `json:"product_ids"`
	ItemCount  int      `json:"item_count"`
}

// Publisher is the subset of pkgkafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes shopstate change events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// aggregateID keys events so that one device/scope pair stays on one partition.
func aggregateID(deviceID, scope string) string {
	return deviceID + "/" + scope
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, deviceID, scope string, change cart.Change) error {
	items := make([]CartItemData, len(change.Snapshot.Items))
	for i, line := range change.Snapshot.Items {
		items[i] = CartItemData{
			ProductID: line.ID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		}
	}

	data := CartUpdatedData{
		DeviceID:       deviceID,
		Scope:          scope,
		Operation:      change.Op,
		Items:          items,
		DiscountCode:   change.Snapshot.DiscountCode,
		DiscountAmount: change.Snapshot.DiscountAmount,
		Totals:         change.Totals,
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, aggregateID(deviceID, scope), AggregateTypeCart, SourceShopstate, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}
	event.WithMetadata("device_id", deviceID).WithMetadata("scope", scope)
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("device_id", deviceID),
		slog.Int("item_count", change.Totals.TotalItems),
	)

	return nil
}

// PublishWishlistUpdated publishes a wishlist.updated event.
func (p *Producer) PublishWishlistUpdated(ctx context.Context, deviceID, scope string, change wishlist.Change) error {
	ids := make([]string, len(change.Snapshot.Items))
	for i, it := range change.Snapshot.Items {
		ids[i] = it.ID
	}

	data := WishlistUpdatedData{
		DeviceID:   deviceID,
		Scope:      scope,
		Operation:  change.Op,
		ProductIDs: ids,
		ItemCount:  len(ids),
	}

	event, err := pkgkafka.NewEvent(TopicWishlistUpdated, aggregateID(deviceID, scope), AggregateTypeWishlist, SourceShopstate, data)
	if err != nil {
		return fmt.Errorf("create wishlist.updated event: %w", err)
	}
	event.WithMetadata("device_id", deviceID).WithMetadata("scope", scope)
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, TopicWishlistUpdated, event); err != nil {
		return fmt.Errorf("publish wishlist.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published wishlist.updated event",
		slog.String("device_id", deviceID),
		slog.Int("item_count", len(ids)),
	)

	return nil
}

// ScopeFunc reports the identity a device is currently scoped to.
type ScopeFunc func(ctx context.Context) string

// CartHook adapts PublishCartUpdated into a cart store hook. Publish failures
// are logged and dropped.
func (p *Producer) CartHook(deviceID string, scope ScopeFunc) cart.Hook {
	return func(ctx context.Context, change cart.Change) {
		if err := p.PublishCartUpdated(ctx, deviceID, scope(ctx), change); err != nil {
			p.logger.WarnContext(ctx, "failed to publish cart event",
				slog.String("device_id", deviceID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// WishlistHook adapts PublishWishlistUpdated into a wishlist store hook.
func (p *Producer) WishlistHook(deviceID string, scope ScopeFunc) wishlist.Hook {
	return func(ctx context.Context, change wishlist.Change) {
		if err := p.PublishWishlistUpdated(ctx, deviceID, scope(ctx), change); err != nil {
			p.logger.WarnContext(ctx, "failed to publish wishlist event",
				slog.String("device_id", deviceID),
				slog.String("error", err.Error()),
			)
		}
	}
}
