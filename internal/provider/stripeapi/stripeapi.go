package stripeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/provider"
	apperrors "github.com/scottjosephstudio/sohcahtoa-sub000/pkg/errors"
	"github.com/scottjosephstudio/sohcahtoa-sub000/pkg/httpclient"
)

// Config holds the Stripe-compatible gateway configuration.
type Config struct {
	BaseURL string
	APIKey  string
	// CallTimeout bounds every gateway call regardless of the caller's
	// context, so a hung provider never holds a checkout request open.
	CallTimeout time.Duration
}

// Provider talks to a Stripe-compatible payment intents API over HTTP. All
// calls go through a retrying client wrapped in a circuit breaker.
type Provider struct {
	cfg    Config
	client *httpclient.CircuitBreakerClient
	logger *slog.Logger
}

// NewProvider creates a gateway against cfg.BaseURL.
func NewProvider(cfg Config, logger *slog.Logger) *Provider {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}

	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.CallTimeout
	client := httpclient.New(clientCfg)

	return &Provider{
		cfg:    cfg,
		client: httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("payment-gateway"), logger),
		logger: logger,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stripe"
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	LastError    struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent registers a pending payment with the gateway.
func (p *Provider) CreateIntent(ctx context.Context, input *provider.IntentInput) (*provider.Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(input.Amount, 10))
	form.Set("currency", strings.ToLower(input.Currency))
	form.Set("payment_method_types[]", input.Method)
	for k, v := range input.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var out intentResponse
	if err := p.call(ctx, "/v1/payment_intents", form, &out); err != nil {
		return nil, err
	}

	return &provider.Intent{
		ID:           out.ID,
		ClientSecret: out.ClientSecret,
		Amount:       out.Amount,
		Currency:     strings.ToUpper(out.Currency),
		Status:       provider.IntentStatusRequiresConfirmation,
	}, nil
}

// ConfirmPayment settles a previously created intent.
func (p *Provider) ConfirmPayment(ctx context.Context, input *provider.ConfirmInput) (*provider.ConfirmResult, error) {
	form := url.Values{}
	form.Set("client_secret", input.ClientSecret)
	form.Set("payment_method", input.Method)

	var out intentResponse
	err := p.call(ctx, "/v1/payment_intents/"+input.IntentID+"/confirm", form, &out)
	if err != nil {
		var declined *declineError
		if errors.As(err, &declined) {
			return &provider.ConfirmResult{
				IntentID:      input.IntentID,
				Status:        provider.IntentStatusFailed,
				FailureReason: declined.code,
				Retryable:     false,
			}, nil
		}
		return nil, err
	}

	if out.Status != "succeeded" {
		return &provider.ConfirmResult{
			IntentID:      out.ID,
			Status:        provider.IntentStatusFailed,
			FailureReason: out.LastError.Code,
			Retryable:     true,
		}, nil
	}

	return &provider.ConfirmResult{
		IntentID: out.ID,
		Status:   provider.IntentStatusSucceeded,
	}, nil
}

// declineError carries a card decline out of call so ConfirmPayment can turn
// it into a terminal result instead of an error.
type declineError struct {
	code    string
	message string
}

func (e *declineError) Error() string {
	return fmt.Sprintf("payment declined: %s (%s)", e.message, e.code)
}

func (p *Provider) call(ctx context.Context, path string, form url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		p.logger.ErrorContext(ctx, "payment gateway call failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return apperrors.ServiceUnavailable("payment gateway")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
		return nil

	case resp.StatusCode == http.StatusPaymentRequired:
		var er errorResponse
		if err := json.Unmarshal(body, &er); err != nil {
			return &declineError{code: "card_declined", message: "payment declined"}
		}
		return &declineError{code: er.Error.Code, message: er.Error.Message}

	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return apperrors.ServiceUnavailable("payment gateway")

	default:
		var er errorResponse
		if err := json.Unmarshal(body, &er); err == nil && er.Error.Message != "" {
			return apperrors.PaymentFailed(er.Error.Message)
		}
		return apperrors.PaymentFailed(fmt.Sprintf("gateway returned status %d", resp.StatusCode))
	}
}
