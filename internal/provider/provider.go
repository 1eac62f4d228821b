package provider

import (
	"context"
)

// Intent statuses reported by the gateway.
const (
	IntentStatusRequiresConfirmation = "requires_confirmation"
	IntentStatusSucceeded            = "succeeded"
	IntentStatusFailed               = "failed"
)

// IntentInput holds the parameters for creating a payment intent.
type IntentInput struct {
	Amount   int64
	Currency string
	Method   string
	Metadata map[string]string
}

// Intent is a provider-side payment intent. The client secret is handed to
// the payment form and must accompany the confirmation call.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       string
}

// ConfirmInput holds the parameters for confirming a payment intent.
type ConfirmInput struct {
	IntentID     string
	ClientSecret string
	Method       string
}

// ConfirmResult holds the outcome of a confirmation attempt.
type ConfirmResult struct {
	IntentID      string
	Status        string // "succeeded" or "failed"
	FailureReason string
	// Retryable marks a failure the buyer may retry with the same or another
	// method (network blip, provider hiccup). A declined card is not retryable
	// against the same method.
	Retryable bool
}

// Provider defines the interface for payment gateway integrations.
type Provider interface {
	// Name returns the provider name (e.g., "mock", "stripe").
	Name() string

	// CreateIntent registers a pending payment for the given amount.
	CreateIntent(ctx context.Context, input *IntentInput) (*Intent, error)

	// ConfirmPayment settles a previously created intent.
	ConfirmPayment(ctx context.Context, input *ConfirmInput) (*ConfirmResult, error)
}
