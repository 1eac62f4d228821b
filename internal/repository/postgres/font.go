package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/domain"
	apperrors "github.com/scottjosephstudio/sohcahtoa-sub000/pkg/errors"
)

// FontRepository implements repository.FontRepository using PostgreSQL.
type FontRepository struct {
	db DB
}

// NewFontRepository creates a new PostgreSQL-backed font catalog repository.
func NewFontRepository(db DB) *FontRepository {
	return &FontRepository{db: db}
}

const fontColumns = "id, family, slug, base_price, styles, created_at, updated_at"

// List returns the catalog ordered by family name.
func (r *FontRepository) List(ctx context.Context) ([]domain.Font, error) {
	query := `
		SELECT ` + fontColumns + `
		FROM fonts
		ORDER BY family`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query fonts: %w", err)
	}
	defer rows.Close()

	var fonts []domain.Font
	for rows.Next() {
		var f domain.Font
		if err := rows.Scan(&f.ID, &f.Family, &f.Slug, &f.BasePrice, &f.Styles, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan font: %w", err)
		}
		fonts = append(fonts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fonts: %w", err)
	}

	return fonts, nil
}

// GetByID retrieves a single font.
func (r *FontRepository) GetByID(ctx context.Context, id string) (*domain.Font, error) {
	query := `
		SELECT ` + fontColumns + `
		FROM fonts
		WHERE id = $1`

	return r.scanFont(ctx, query, id)
}

// GetBySlug retrieves a single font by its URL slug.
func (r *FontRepository) GetBySlug(ctx context.Context, slug string) (*domain.Font, error) {
	query := `
		SELECT ` + fontColumns + `
		FROM fonts
		WHERE slug = $1`

	return r.scanFont(ctx, query, slug)
}

func (r *FontRepository) scanFont(ctx context.Context, query string, arg any) (*domain.Font, error) {
	var f domain.Font
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&f.ID, &f.Family, &f.Slug, &f.BasePrice, &f.Styles, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("font", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("query font: %w", err)
	}
	return &f, nil
}
