package service

import (
	"context"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/domain"
	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/repository"
	apperrors "github.com/scottjosephstudio/sohcahtoa-sub000/pkg/errors"
	"github.com/scottjosephstudio/sohcahtoa-sub000/pkg/pagination"
)

// CatalogService exposes the font catalog to the storefront.
type CatalogService struct {
	fonts repository.FontRepository
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(fonts repository.FontRepository) *CatalogService {
	return &CatalogService{fonts: fonts}
}

// ListFonts returns the catalog in display order.
func (s *CatalogService) ListFonts(ctx context.Context) ([]domain.Font, error) {
	return s.fonts.List(ctx)
}

// GetFont retrieves one font by slug.
func (s *CatalogService) GetFont(ctx context.Context, slug string) (*domain.Font, error) {
	if slug == "" {
		return nil, apperrors.InvalidInput("slug is required")
	}
	return s.fonts.GetBySlug(ctx, slug)
}

// PurchaseService exposes the purchase ledger.
type PurchaseService struct {
	purchases repository.PurchaseRepository
}

// NewPurchaseService creates a new purchase history service.
func NewPurchaseService(purchases repository.PurchaseRepository) *PurchaseService {
	return &PurchaseService{purchases: purchases}
}

// ListPurchases returns a page of the user's purchase history, most recent
// first.
func (s *PurchaseService) ListPurchases(ctx context.Context, userID string, params pagination.Params) (*pagination.Result[domain.Purchase], error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	purchases, total, err := s.purchases.ListByUser(ctx, userID, params.Offset, params.PerPage)
	if err != nil {
		return nil, err
	}

	result := pagination.NewResult(purchases, total, params)
	return &result, nil
}
