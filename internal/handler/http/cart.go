package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/service"
	apperrors "github.com/scottjosephstudio/sohcahtoa-sub000/pkg/errors"
	"github.com/scottjosephstudio/sohcahtoa-sub000/pkg/httputil"
	"github.com/scottjosephstudio/sohcahtoa-sub000/pkg/validator"
)

// CartHandler serves the checkout wizard endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: service, logger: logger}
}

type selectPackageRequest struct {
	Tier string `json:"tier" validate:"required,oneof=small medium large"`
}

type selectCustomLicenseRequest struct {
	Category string `json:"category" validate:"required,oneof=print web app social"`
	Tier     string `json:"tier" validate:"required,oneof=small medium large"`
}

type addFontRequest struct {
	FontID string   `json:"font_id" validate:"required"`
	Styles []string `json:"styles" validate:"omitempty,dive,required"`
}

type selectPaymentMethodRequest struct {
	Method string `json:"method" validate:"required,oneof=card bank_transfer wallet"`
}

// GetCart handles GET /api/v1/cart.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	view, err := h.service.GetCart(r.Context(), ident.OwnerID, ident.Authenticated)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// ClearCart handles DELETE /api/v1/cart.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	if err := h.service.ClearCart(r.Context(), ident.OwnerID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectPackage handles POST /api/v1/cart/package.
func (h *CartHandler) SelectPackage(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	var req selectPackageRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.SelectPackage(r.Context(), ident.OwnerID, req.Tier, ident.Authenticated)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// RemovePackage handles DELETE /api/v1/cart/package.
func (h *CartHandler) RemovePackage(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	view, err := h.service.RemovePackage(r.Context(), ident.OwnerID, ident.Authenticated)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// SelectCustomLicense handles POST /api/v1/cart/custom-license.
func (h *CartHandler) SelectCustomLicense(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	var req selectCustomLicenseRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.SelectCustomLicense(r.Context(), ident.OwnerID, req.Category, req.Tier, ident.Authenticated)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// ToggleCustomizing handles POST /api/v1/cart/customizing.
func (h *CartHandler) ToggleCustomizing(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	view, err := h.service.ToggleCustomizing(r.Context(), ident.OwnerID, ident.Authenticated)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// RemoveLicense handles DELETE /api/v1/cart/licenses/{category}.
func (h *CartHandler) RemoveLicense(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	category := chi.URLParam(r, "category")

	view, err := h.service.RemoveLicense(r.Context(), ident.OwnerID, category, ident.Authenticated)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// AddFont handles POST /api/v1/cart/fonts.
func (h *CartHandler) AddFont(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	var req addFontRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.AddFont(r.Context(), ident.OwnerID, req.FontID, req.Styles, ident.Authenticated)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// ToggleFont handles POST /api/v1/cart/fonts/{fontID}/toggle.
func (h *CartHandler) ToggleFont(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	fontID := chi.URLParam(r, "fontID")

	view, err := h.service.ToggleFont(r.Context(), ident.OwnerID, fontID, ident.Authenticated)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// ToggleFontStyle handles POST /api/v1/cart/fonts/{fontID}/styles/{style}/toggle.
func (h *CartHandler) ToggleFontStyle(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	fontID := chi.URLParam(r, "fontID")
	style := chi.URLParam(r, "style")

	view, err := h.service.ToggleFontStyle(r.Context(), ident.OwnerID, fontID, style, ident.Authenticated)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// Proceed handles POST /api/v1/cart/proceed.
func (h *CartHandler) Proceed(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	view, err := h.service.Proceed(r.Context(), ident.OwnerID, ident.Authenticated)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// GoToStage handles POST /api/v1/cart/stage/{stage}.
func (h *CartHandler) GoToStage(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	stage, err := strconv.Atoi(chi.URLParam(r, "stage"))
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("stage must be a number"), h.logger)
		return
	}

	view, err := h.service.GoToStage(r.Context(), ident.OwnerID, stage, ident.Authenticated)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// DeclareUsage handles POST /api/v1/cart/usage.
func (h *CartHandler) DeclareUsage(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	var req service.UsageInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.DeclareUsage(r.Context(), ident.OwnerID, req, ident.Authenticated)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// SelectPaymentMethod handles POST /api/v1/cart/payment/method.
func (h *CartHandler) SelectPaymentMethod(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	var req selectPaymentMethodRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.SelectPaymentMethod(r.Context(), ident.OwnerID, req.Method, ident.Authenticated)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// ConfirmPayment handles POST /api/v1/cart/payment/confirm.
func (h *CartHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	var req service.ConfirmPaymentInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.ConfirmPayment(r.Context(), ident.OwnerID, req, ident.Authenticated)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// GetPrice handles GET /api/v1/cart/price.
func (h *CartHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	price, err := h.service.GetPrice(r.Context(), ident.OwnerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: price})
}
