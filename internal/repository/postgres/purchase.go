package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/domain"
	apperrors "github.com/scottjosephstudio/sohcahtoa-sub000/pkg/errors"
)

// PurchaseRepository implements repository.PurchaseRepository using
// PostgreSQL. License and font details are stored as JSONB so a receipt stays
// exactly as purchased even if the catalog changes later.
type PurchaseRepository struct {
	db DB
}

// NewPurchaseRepository creates a new PostgreSQL-backed purchase ledger.
func NewPurchaseRepository(db DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

const purchaseColumns = "id, user_id, amount, currency, payment_intent_id, package, custom_licenses, usage_type, fonts, created_at"

// Create appends a purchase record.
func (r *PurchaseRepository) Create(ctx context.Context, p *domain.Purchase) error {
	licenses, err := json.Marshal(p.CustomLicenses)
	if err != nil {
		return fmt.Errorf("marshal licenses: %w", err)
	}
	fonts, err := json.Marshal(p.Fonts)
	if err != nil {
		return fmt.Errorf("marshal fonts: %w", err)
	}

	query := `
		INSERT INTO purchases (` + purchaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.Amount,
		p.Currency,
		p.PaymentIntentID,
		p.Package,
		licenses,
		p.Usage,
		fonts,
		p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("purchase", "payment_intent_id", p.PaymentIntentID)
		}
		return fmt.Errorf("insert purchase: %w", err)
	}

	return nil
}

// ListByUser returns a page of the user's purchases, most recent first, along
// with the total count. A ledger is unbounded per user, so it is never read
// whole.
func (r *PurchaseRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Purchase, int, error) {
	query := `
		SELECT ` + purchaseColumns + `,
		       count(*) OVER() AS total_count
		FROM purchases
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var (
		purchases  []domain.Purchase
		totalCount int
	)
	for rows.Next() {
		var (
			p        domain.Purchase
			licenses []byte
			fonts    []byte
		)
		err := rows.Scan(
			&p.ID, &p.UserID, &p.Amount, &p.Currency, &p.PaymentIntentID,
			&p.Package, &licenses, &p.Usage, &fonts, &p.CreatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan purchase: %w", err)
		}
		if err := json.Unmarshal(licenses, &p.CustomLicenses); err != nil {
			return nil, 0, fmt.Errorf("unmarshal licenses: %w", err)
		}
		if err := json.Unmarshal(fonts, &p.Fonts); err != nil {
			return nil, 0, fmt.Errorf("unmarshal fonts: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate purchases: %w", err)
	}

	return purchases, totalCount, nil
}

// GetByIntentID retrieves a purchase by its payment intent ID.
func (r *PurchaseRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Purchase, error) {
	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE payment_intent_id = $1`

	row := r.db.QueryRow(ctx, query, intentID)
	p, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("purchase", intentID)
		}
		return nil, err
	}
	return p, nil
}

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	var (
		p        domain.Purchase
		licenses []byte
		fonts    []byte
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.Amount, &p.Currency, &p.PaymentIntentID,
		&p.Package, &licenses, &p.Usage, &fonts, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan purchase: %w", err)
	}

	if err := json.Unmarshal(licenses, &p.CustomLicenses); err != nil {
		return nil, fmt.Errorf("unmarshal licenses: %w", err)
	}
	if err := json.Unmarshal(fonts, &p.Fonts); err != nil {
		return nil, fmt.Errorf("unmarshal fonts: %w", err)
	}

	return &p, nil
}
