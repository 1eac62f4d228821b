package repository

import (
	"context"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/domain"
)

// CartRepository defines the interface for checkout cart persistence. The
// cart service depends on this interface only, so the backing store can be
// swapped without touching the wizard logic.
type CartRepository interface {
	// Get retrieves a cart by its owner key (session ID or user ID).
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)

	// Save persists a cart, overwriting any existing cart for the owner.
	Save(ctx context.Context, cart *domain.Cart) error

	// SaveIfVersion persists the cart only if the stored version still equals
	// expectedVersion (0 for a cart that must not exist yet). It returns false
	// without error when a concurrent write won.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error)

	// Delete removes a cart by its owner key.
	Delete(ctx context.Context, ownerID string) error
}

// FontRepository defines read access to the font catalog.
type FontRepository interface {
	// List returns the catalog in display order.
	List(ctx context.Context) ([]domain.Font, error)

	// GetByID retrieves a single font.
	GetByID(ctx context.Context, id string) (*domain.Font, error)

	// GetBySlug retrieves a single font by its URL slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Font, error)
}

// UserRepository defines the interface for user account persistence.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error

	CreatePasswordReset(ctx context.Context, pr *domain.PasswordReset) error
	GetPasswordResetByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordReset, error)
	MarkPasswordResetUsed(ctx context.Context, id string) error
}

// PurchaseRepository defines the interface for the purchase ledger.
type PurchaseRepository interface {
	// Create appends a purchase record. Purchases are never updated.
	Create(ctx context.Context, p *domain.Purchase) error

	// ListByUser returns a page of the user's purchases, most recent first,
	// along with the total count.
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Purchase, int, error)

	// GetByIntentID retrieves a purchase by its payment intent, used to make
	// payment confirmation idempotent.
	GetByIntentID(ctx context.Context, intentID string) (*domain.Purchase, error)
}
