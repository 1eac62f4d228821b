package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/service"
	"github.com/scottjosephstudio/sohcahtoa-sub000/pkg/httputil"
	"github.com/scottjosephstudio/sohcahtoa-sub000/pkg/pagination"
)

// CatalogHandler serves the public font catalog.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// ListFonts handles GET /api/v1/fonts.
func (h *CatalogHandler) ListFonts(w http.ResponseWriter, r *http.Request) {
	fonts, err := h.catalog.ListFonts(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: fonts})
}

// GetFont handles GET /api/v1/fonts/{slug}.
func (h *CatalogHandler) GetFont(w http.ResponseWriter, r *http.Request) {
	font, err := h.catalog.GetFont(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: font})
}

// PurchaseHandler serves the buyer's purchase history.
type PurchaseHandler struct {
	purchases *service.PurchaseService
	logger    *slog.Logger
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(purchases *service.PurchaseService, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases, logger: logger}
}

// ListPurchases handles GET /api/v1/purchases.
func (h *PurchaseHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	params := pagination.FromRequest(r)

	result, err := h.purchases.ListPurchases(r.Context(), ident.UserID, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
