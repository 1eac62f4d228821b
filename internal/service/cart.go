package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/domain"
	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/event"
	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/provider"
	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/repository"
	apperrors "github.com/scottjosephstudio/sohcahtoa-sub000/pkg/errors"
)

// MaxFontsPerCart bounds the selection to prevent abuse.
const MaxFontsPerCart = 50

// UsageInput holds the stage-2 usage declaration.
type UsageInput struct {
	Usage         string `json:"usage" validate:"required,oneof=personal client"`
	ClientCompany string `json:"client_company" validate:"max=200"`
	EULAAccepted  bool   `json:"eula_accepted"`
}

// ConfirmPaymentInput holds the stage-3 confirmation parameters.
type ConfirmPaymentInput struct {
	IntentID     string                `json:"intent_id" validate:"required"`
	ClientSecret string                `json:"client_secret" validate:"required"`
	Method       string                `json:"method" validate:"required"`
	Address      domain.BillingAddress `json:"address"`
}

// CartView is the cart plus its derived checkout state, as returned to the
// storefront after every operation.
type CartView struct {
	Cart             *domain.Cart          `json:"cart"`
	Stage            int                   `json:"stage"`
	Price            domain.PriceBreakdown `json:"price"`
	CheckoutDisabled bool                  `json:"checkout_disabled"`
	ClientSecret     string                `json:"client_secret,omitempty"`
}

// CartService implements the checkout wizard. Every operation loads the cart,
// applies a domain transition, and saves with optimistic locking so two tabs
// racing on the same cart cannot lose writes.
type CartService struct {
	repo      repository.CartRepository
	fonts     repository.FontRepository
	purchases repository.PurchaseRepository
	gateway   provider.Provider
	producer  *event.Producer
	logger    *slog.Logger
	pricing   domain.PricingConfig
	cartTTL   time.Duration
}

// NewCartService creates a new checkout cart service.
func NewCartService(
	repo repository.CartRepository,
	fonts repository.FontRepository,
	purchases repository.PurchaseRepository,
	gateway provider.Provider,
	producer *event.Producer,
	logger *slog.Logger,
	pricing domain.PricingConfig,
	cartTTL time.Duration,
) *CartService {
	return &CartService{
		repo:      repo,
		fonts:     fonts,
		purchases: purchases,
		gateway:   gateway,
		producer:  producer,
		logger:    logger,
		pricing:   pricing,
		cartTTL:   cartTTL,
	}
}

// GetCart retrieves the cart for an owner at session open, creating an empty
// one if none exists. Persisted carts are rehydrated conservatively.
func (s *CartService) GetCart(ctx context.Context, ownerID string, authenticated bool) (*CartView, error) {
	if ownerID == "" {
		return nil, apperrors.InvalidInput("owner id is required")
	}

	cart, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.view(s.newEmptyCart(ownerID), authenticated), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if cart.Rehydrate(authenticated) {
		// Persist the normalized snapshot so the next mutation starts from it.
		if _, err := s.save(ctx, cart, cart.Version); err != nil {
			return nil, err
		}
	}
	return s.view(cart, authenticated), nil
}

// SelectPackage toggles the package tier.
func (s *CartService) SelectPackage(ctx context.Context, ownerID, tier string, authenticated bool) (*CartView, error) {
	return s.mutate(ctx, ownerID, authenticated, func(cart *domain.Cart) error {
		return cart.SelectPackage(tier)
	})
}

// SelectCustomLicense toggles one custom-license category tier.
func (s *CartService) SelectCustomLicense(ctx context.Context, ownerID, category, tier string, authenticated bool) (*CartView, error) {
	return s.mutate(ctx, ownerID, authenticated, func(cart *domain.Cart) error {
		return cart.SelectCustomLicense(category, tier)
	})
}

// ToggleCustomizing enters or exits custom-licensing mode.
func (s *CartService) ToggleCustomizing(ctx context.Context, ownerID string, authenticated bool) (*CartView, error) {
	return s.mutate(ctx, ownerID, authenticated, func(cart *domain.Cart) error {
		cart.ToggleCustomizing()
		return nil
	})
}

// AddFont adds a catalog font to the selection.
func (s *CartService) AddFont(ctx context.Context, ownerID, fontID string, styles []string, authenticated bool) (*CartView, error) {
	font, err := s.fonts.GetByID(ctx, fontID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, ownerID, authenticated, func(cart *domain.Cart) error {
		if len(cart.SelectedFonts) >= MaxFontsPerCart {
			return apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d fonts", MaxFontsPerCart))
		}
		return cart.AddFont(*font, styles)
	})
}

// ToggleFont checks or unchecks a font in the selection.
func (s *CartService) ToggleFont(ctx context.Context, ownerID, fontID string, authenticated bool) (*CartView, error) {
	font, err := s.fonts.GetByID(ctx, fontID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, ownerID, authenticated, func(cart *domain.Cart) error {
		return cart.ToggleFont(*font)
	})
}

// ToggleFontStyle adds or removes one style from a selected font.
func (s *CartService) ToggleFontStyle(ctx context.Context, ownerID, fontID, style string, authenticated bool) (*CartView, error) {
	return s.mutate(ctx, ownerID, authenticated, func(cart *domain.Cart) error {
		font, err := s.fonts.GetByID(ctx, fontID)
		if err != nil {
			return err
		}
		if !font.HasStyle(style) {
			return apperrors.InvalidInput("font " + font.Family + " has no style " + style)
		}
		_, err = cart.ToggleFontStyle(fontID, style)
		return err
	})
}

// RemovePackage removes the package from the summary.
func (s *CartService) RemovePackage(ctx context.Context, ownerID string, authenticated bool) (*CartView, error) {
	return s.mutate(ctx, ownerID, authenticated, func(cart *domain.Cart) error {
		cart.RemovePackage()
		return nil
	})
}

// RemoveLicense removes one custom-license category from the summary.
func (s *CartService) RemoveLicense(ctx context.Context, ownerID, category string, authenticated bool) (*CartView, error) {
	return s.mutate(ctx, ownerID, authenticated, func(cart *domain.Cart) error {
		return cart.RemoveLicense(category)
	})
}

// DeclareUsage records the stage-2 usage declaration.
func (s *CartService) DeclareUsage(ctx context.Context, ownerID string, input UsageInput, authenticated bool) (*CartView, error) {
	return s.mutate(ctx, ownerID, authenticated, func(cart *domain.Cart) error {
		return cart.DeclareUsage(input.Usage, input.ClientCompany, input.EULAAccepted)
	})
}

// SelectPaymentMethod records the buyer's payment method choice.
func (s *CartService) SelectPaymentMethod(ctx context.Context, ownerID, method string, authenticated bool) (*CartView, error) {
	if !domain.ValidPaymentMethod(method) {
		return nil, apperrors.InvalidInput("unknown payment method: " + method)
	}

	return s.mutate(ctx, ownerID, authenticated, func(cart *domain.Cart) error {
		if cart.Payment.Processing {
			return apperrors.Conflict("payment is already processing")
		}
		cart.Payment.SelectedMethod = method
		return nil
	})
}

// Proceed advances the wizard one step. Entering the payment stage creates a
// payment intent for the current total; if intent creation fails the wizard
// stays where it was with the method reset to the default.
func (s *CartService) Proceed(ctx context.Context, ownerID string, authenticated bool) (*CartView, error) {
	cart, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	expectedVersion := cart.Version
	fromStage := cart.Stage()

	moved, err := cart.Proceed(authenticated)
	if err != nil {
		return nil, err
	}

	if cart.State == domain.StatePaying {
		if err := s.ensureIntent(ctx, cart); err != nil {
			// Save the reset payment state so the form reopens cleanly.
			if _, saveErr := s.save(ctx, cart, expectedVersion); saveErr != nil {
				s.logger.ErrorContext(ctx, "failed to save cart after intent failure",
					slog.String("owner_id", ownerID),
					slog.String("error", saveErr.Error()),
				)
			}
			return nil, err
		}
	}

	view, err := s.save(ctx, cart, expectedVersion)
	if err != nil {
		return nil, err
	}
	view.CheckoutDisabled = cart.CheckoutDisabled(authenticated)

	if moved {
		s.publishStageChanged(ctx, cart, fromStage)
	}
	s.logger.InfoContext(ctx, "checkout proceed",
		slog.String("owner_id", ownerID),
		slog.Bool("moved", moved),
		slog.String("state", string(cart.State)),
	)

	return view, nil
}

// GoToStage jumps the wizard to a stage number, subject to the navigation
// guards. Entering the payment stage creates a fresh intent.
func (s *CartService) GoToStage(ctx context.Context, ownerID string, stage int, authenticated bool) (*CartView, error) {
	cart, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	expectedVersion := cart.Version
	fromStage := cart.Stage()

	if err := cart.GoToStage(stage, authenticated); err != nil {
		return nil, err
	}

	if cart.State == domain.StatePaying {
		if err := s.ensureIntent(ctx, cart); err != nil {
			if _, saveErr := s.save(ctx, cart, expectedVersion); saveErr != nil {
				s.logger.ErrorContext(ctx, "failed to save cart after intent failure",
					slog.String("owner_id", ownerID),
					slog.String("error", saveErr.Error()),
				)
			}
			return nil, err
		}
	}

	view, err := s.save(ctx, cart, expectedVersion)
	if err != nil {
		return nil, err
	}
	view.CheckoutDisabled = cart.CheckoutDisabled(authenticated)

	if fromStage != cart.Stage() {
		s.publishStageChanged(ctx, cart, fromStage)
	}

	return view, nil
}

// ConfirmPayment settles the cart's payment intent and records the purchase.
// The submitted intent must match the cart's current one: a stale form that
// survived a selection change is rejected before any money moves.
func (s *CartService) ConfirmPayment(ctx context.Context, ownerID string, input ConfirmPaymentInput, authenticated bool) (*CartView, error) {
	if !authenticated {
		return nil, apperrors.Unauthorized("payment requires an authenticated session")
	}

	cart, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if cart.State != domain.StatePaying {
		return nil, apperrors.Conflict("cart is not in the payment stage")
	}
	if cart.Payment.IntentID == "" || cart.Payment.IntentID != input.IntentID {
		return nil, apperrors.Conflict("payment intent is no longer current")
	}
	total := domain.Total(s.pricing, cart)
	if cart.Payment.IntentAmount != total {
		// The order changed under the payment form. Never settle a stale amount.
		return nil, apperrors.Conflict("order total changed, refresh the payment form")
	}
	if cart.Payment.Processing {
		return nil, apperrors.Conflict("payment is already processing")
	}

	// Double-invocation guard: mark the cart processing before calling out.
	expectedVersion := cart.Version
	cart.Payment.Processing = true
	cart.Payment.SelectedMethod = input.Method
	cart.Payment.Address = input.Address
	if _, err := s.save(ctx, cart, expectedVersion); err != nil {
		return nil, err
	}

	result, err := s.gateway.ConfirmPayment(ctx, &provider.ConfirmInput{
		IntentID:     input.IntentID,
		ClientSecret: input.ClientSecret,
		Method:       input.Method,
	})
	if err != nil {
		s.releaseProcessing(ctx, cart, "")
		return nil, err
	}

	if result.Status != provider.IntentStatusSucceeded {
		s.logger.WarnContext(ctx, "payment confirmation failed",
			slog.String("owner_id", ownerID),
			slog.String("intent_id", input.IntentID),
			slog.String("reason", result.FailureReason),
			slog.Bool("retryable", result.Retryable),
		)
		if !result.Retryable {
			// Terminal decline: drop the intent and reset to the default
			// method so the buyer starts over cleanly.
			cart.Payment.Reset()
			cart.Payment.SelectedMethod = domain.DefaultPaymentMethod
			cart.Payment.Error = result.FailureReason
			view, saveErr := s.save(ctx, cart, cart.Version)
			if saveErr != nil {
				return nil, saveErr
			}
			return view, nil
		}
		s.releaseProcessing(ctx, cart, result.FailureReason)
		view := s.view(cart, authenticated)
		return view, nil
	}

	return s.completePurchase(ctx, cart, result, authenticated)
}

// ClearCart removes the owner's cart entirely.
func (s *CartService) ClearCart(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return apperrors.InvalidInput("owner id is required")
	}

	cart, err := s.repo.Get(ctx, ownerID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("get cart for clear: %w", err)
	}

	if err := s.repo.Delete(ctx, ownerID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	cartID := ""
	if cart != nil {
		cartID = cart.ID
	}
	if err := s.producer.PublishCartCleared(ctx, cartID, ownerID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("owner_id", ownerID),
	)

	return nil
}

// AttachCart moves a session cart onto an authenticated user and advances
// past registration. freshRegistration distinguishes a just-registered buyer
// (usage and EULA auto-confirmed) from a login.
func (s *CartService) AttachCart(ctx context.Context, sessionID, userID string, freshRegistration bool) (*CartView, error) {
	if sessionID == "" || userID == "" {
		return nil, apperrors.InvalidInput("session id and user id are required")
	}

	cart, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			cart = s.newEmptyCart(userID)
		} else {
			return nil, fmt.Errorf("get cart for attach: %w", err)
		}
	}

	fromStage := cart.Stage()
	cart.AttachUser(userID, freshRegistration)

	now := time.Now().UTC()
	cart.UpdatedAt = now
	cart.ExpiresAt = now.Add(s.cartTTL)
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save attached cart: %w", err)
	}
	if sessionID != userID {
		if err := s.repo.Delete(ctx, sessionID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete session cart after attach",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
	}

	if fromStage != cart.Stage() {
		s.publishStageChanged(ctx, cart, fromStage)
	}

	s.logger.InfoContext(ctx, "cart attached to user",
		slog.String("user_id", userID),
		slog.Bool("fresh_registration", freshRegistration),
	)

	return s.view(cart, true), nil
}

// GetPrice computes the itemized price for the owner's cart.
func (s *CartService) GetPrice(ctx context.Context, ownerID string) (*domain.PriceBreakdown, error) {
	cart, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	bd := domain.Price(s.pricing, cart)
	return &bd, nil
}

// --- Internals ---

// mutate runs a selection transition under optimistic locking and publishes
// the resulting cart state.
func (s *CartService) mutate(ctx context.Context, ownerID string, authenticated bool, fn func(cart *domain.Cart) error) (*CartView, error) {
	if ownerID == "" {
		return nil, apperrors.InvalidInput("owner id is required")
	}

	cart, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			cart = s.newEmptyCart(ownerID)
		} else {
			return nil, fmt.Errorf("get cart: %w", err)
		}
	}

	expectedVersion := cart.Version
	fromStage := cart.Stage()

	if err := fn(cart); err != nil {
		return nil, err
	}

	view, err := s.save(ctx, cart, expectedVersion)
	if err != nil {
		return nil, err
	}
	view.CheckoutDisabled = cart.CheckoutDisabled(authenticated)

	total := view.Price.Total
	if err := s.producer.PublishCartUpdated(ctx, cart, total); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
	}
	if fromStage != cart.Stage() {
		s.publishStageChanged(ctx, cart, fromStage)
	}

	return view, nil
}

func (s *CartService) load(ctx context.Context, ownerID string) (*domain.Cart, error) {
	if ownerID == "" {
		return nil, apperrors.InvalidInput("owner id is required")
	}
	cart, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("cart", ownerID)
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) save(ctx context.Context, cart *domain.Cart, expectedVersion int) (*CartView, error) {
	now := time.Now().UTC()
	cart.UpdatedAt = now
	cart.ExpiresAt = now.Add(s.cartTTL)

	ok, err := s.repo.SaveIfVersion(ctx, cart, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	if !ok {
		return nil, apperrors.Conflict("cart was modified concurrently, please retry")
	}

	return s.view(cart, cart.UserID != ""), nil
}

// ensureIntent makes sure the cart carries a payment intent matching the
// current total, creating one when missing or stale. On gateway failure the
// payment state resets with the default method and an error for the form.
func (s *CartService) ensureIntent(ctx context.Context, cart *domain.Cart) error {
	total := domain.Total(s.pricing, cart)
	if total <= 0 {
		return apperrors.InvalidInput("cart has nothing to pay for")
	}

	if cart.Payment.IntentID != "" && cart.Payment.IntentAmount == total && cart.Payment.ClientSecret != "" {
		return nil
	}

	method := cart.Payment.SelectedMethod
	if method == "" {
		method = domain.DefaultPaymentMethod
	}

	intent, err := s.gateway.CreateIntent(ctx, &provider.IntentInput{
		Amount:   total,
		Currency: cart.Currency,
		Method:   method,
		Metadata: map[string]string{"cart_id": cart.ID},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "payment intent creation failed",
			slog.String("cart_id", cart.ID),
			slog.Int64("amount", total),
			slog.String("error", err.Error()),
		)
		cart.Payment.Reset()
		cart.Payment.SelectedMethod = domain.DefaultPaymentMethod
		cart.Payment.Error = "payment could not be initialized"
		return apperrors.ServiceUnavailable("payment gateway")
	}

	cart.Payment.IntentID = intent.ID
	cart.Payment.ClientSecret = intent.ClientSecret
	cart.Payment.IntentAmount = total
	cart.Payment.SelectedMethod = method
	cart.Payment.Error = ""

	s.logger.InfoContext(ctx, "payment intent created",
		slog.String("cart_id", cart.ID),
		slog.String("intent_id", intent.ID),
		slog.Int64("amount", total),
	)

	return nil
}

// completePurchase records the receipt, clears the cart, and publishes the
// completion event. Recording is idempotent on the intent ID so a duplicate
// confirmation of an already-settled intent cannot double-book.
func (s *CartService) completePurchase(ctx context.Context, cart *domain.Cart, result *provider.ConfirmResult, authenticated bool) (*CartView, error) {
	if existing, err := s.purchases.GetByIntentID(ctx, result.IntentID); err == nil && existing != nil {
		cart.Complete()
		return s.view(cart, authenticated), nil
	}

	fonts := make([]domain.PurchasedFont, 0, len(cart.CheckedFontIDs))
	for _, f := range cart.CheckedFonts() {
		fonts = append(fonts, domain.PurchasedFont{
			FontID: f.FontID,
			Family: f.Family,
			Styles: append([]string{}, cart.SelectedStyles[f.FontID]...),
		})
	}

	purchase := &domain.Purchase{
		ID:              uuid.New().String(),
		UserID:          cart.UserID,
		Amount:          cart.Payment.IntentAmount,
		Currency:        cart.Currency,
		PaymentIntentID: result.IntentID,
		Package:         cart.SelectedPackage,
		CustomLicenses:  cart.CustomLicenses,
		Usage:           cart.SelectedUsage,
		Fonts:           fonts,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.purchases.Create(ctx, purchase); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			cart.Complete()
			return s.view(cart, authenticated), nil
		}
		return nil, fmt.Errorf("record purchase: %w", err)
	}

	fromStage := cart.Stage()
	cart.Complete()

	if err := s.repo.Delete(ctx, cart.OwnerID); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete cart after purchase",
			slog.String("owner_id", cart.OwnerID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishPurchaseCompleted(ctx, purchase); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish purchase.completed event",
			slog.String("purchase_id", purchase.ID),
			slog.String("error", err.Error()),
		)
	}
	s.publishStageChanged(ctx, cart, fromStage)

	s.logger.InfoContext(ctx, "purchase completed",
		slog.String("purchase_id", purchase.ID),
		slog.String("user_id", purchase.UserID),
		slog.Int64("amount", purchase.Amount),
	)

	return s.view(cart, authenticated), nil
}

// releaseProcessing clears the processing flag after a failed confirmation so
// the buyer can retry. Best effort: the flag is not persisted as stuck.
func (s *CartService) releaseProcessing(ctx context.Context, cart *domain.Cart, failureReason string) {
	cart.Payment.Processing = false
	cart.Payment.Error = failureReason
	if _, err := s.save(ctx, cart, cart.Version); err != nil {
		s.logger.ErrorContext(ctx, "failed to release payment processing flag",
			slog.String("owner_id", cart.OwnerID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *CartService) publishStageChanged(ctx context.Context, cart *domain.Cart, fromStage int) {
	if err := s.producer.PublishStageChanged(ctx, cart, fromStage); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish stage_changed event",
			slog.String("cart_id", cart.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *CartService) view(cart *domain.Cart, authenticated bool) *CartView {
	return &CartView{
		Cart:             cart,
		Stage:            cart.Stage(),
		Price:            domain.Price(s.pricing, cart),
		CheckoutDisabled: cart.CheckoutDisabled(authenticated),
		ClientSecret:     cart.Payment.ClientSecret,
	}
}

func (s *CartService) newEmptyCart(ownerID string) *domain.Cart {
	cart := domain.NewCart(uuid.New().String(), ownerID, s.cartTTL)
	return cart
}
