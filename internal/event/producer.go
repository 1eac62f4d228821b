package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/domain"
	pkgkafka "github.com/scottjosephstudio/sohcahtoa-sub000/pkg/kafka"
)

// Kafka topic constants for checkout domain events.
const (
	TopicCartUpdated       = "sohcahtoa.cart.updated"
	TopicCartCleared       = "sohcahtoa.cart.cleared"
	TopicStageChanged      = "sohcahtoa.checkout.stage_changed"
	TopicPurchaseCompleted = "sohcahtoa.purchase.completed"
)

// Aggregate type constant.
const AggregateTypeCart = "cart"

// Source identifier for events originating from the checkout service.
const SourceCheckoutService = "checkout-service"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	CartID          string   `json:"cart_id"`
	OwnerID         string   `json:"owner_id"`
	SelectedPackage string   `json:"selected_package,omitempty"`
	Customizing     bool     `json:"customizing"`
	FontCount       int      `json:"font_count"`
	CheckedFontIDs  []string `json:"checked_font_ids"`
	TotalAmount     int64    `json:"total_amount"`
	Currency        string   `json:"currency"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	CartID  string `json:"cart_id"`
	OwnerID string `json:"owner_id"`
}

// StageChangedData is the payload for a checkout.stage_changed event.
// Interested consumers (analytics, the storefront's scroll reset) subscribe
// to this instead of the wizard reaching into them.
type StageChangedData struct {
	CartID    string `json:"cart_id"`
	OwnerID   string `json:"owner_id"`
	FromStage int    `json:"from_stage"`
	ToStage   int    `json:"to_stage"`
	State     string `json:"state"`
}

// PurchaseCompletedData is the payload for a purchase.completed event.
type PurchaseCompletedData struct {
	PurchaseID      string `json:"purchase_id"`
	UserID          string `json:"user_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	PaymentIntentID string `json:"payment_intent_id"`
	FontCount       int    `json:"font_count"`
}

// Producer publishes checkout domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the checkout service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart, total int64) error {
	data := CartUpdatedData{
		CartID:          cart.ID,
		OwnerID:         cart.OwnerID,
		SelectedPackage: cart.SelectedPackage,
		Customizing:     cart.Customizing,
		FontCount:       len(cart.SelectedFonts),
		CheckedFontIDs:  cart.CheckedFontIDs,
		TotalAmount:     total,
		Currency:        cart.Currency,
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, cart.ID, AggregateTypeCart, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("cart_id", cart.ID),
		slog.Int("font_count", len(cart.SelectedFonts)),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, cartID, ownerID string) error {
	data := CartClearedData{CartID: cartID, OwnerID: ownerID}

	event, err := pkgkafka.NewEvent(TopicCartCleared, cartID, AggregateTypeCart, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("cart_id", cartID),
	)

	return nil
}

// PublishStageChanged publishes a checkout.stage_changed event.
func (p *Producer) PublishStageChanged(ctx context.Context, cart *domain.Cart, fromStage int) error {
	data := StageChangedData{
		CartID:    cart.ID,
		OwnerID:   cart.OwnerID,
		FromStage: fromStage,
		ToStage:   cart.Stage(),
		State:     string(cart.State),
	}

	event, err := pkgkafka.NewEvent(TopicStageChanged, cart.ID, AggregateTypeCart, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create stage_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicStageChanged, event); err != nil {
		return fmt.Errorf("publish stage_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.stage_changed event",
		slog.String("cart_id", cart.ID),
		slog.Int("from_stage", fromStage),
		slog.Int("to_stage", cart.Stage()),
	)

	return nil
}

// PublishPurchaseCompleted publishes a purchase.completed event.
func (p *Producer) PublishPurchaseCompleted(ctx context.Context, purchase *domain.Purchase) error {
	data := PurchaseCompletedData{
		PurchaseID:      purchase.ID,
		UserID:          purchase.UserID,
		Amount:          purchase.Amount,
		Currency:        purchase.Currency,
		PaymentIntentID: purchase.PaymentIntentID,
		FontCount:       len(purchase.Fonts),
	}

	event, err := pkgkafka.NewEvent(TopicPurchaseCompleted, purchase.ID, AggregateTypeCart, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create purchase.completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPurchaseCompleted, event); err != nil {
		return fmt.Errorf("publish purchase.completed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published purchase.completed event",
		slog.String("purchase_id", purchase.ID),
		slog.String("user_id", purchase.UserID),
	)

	return nil
}
