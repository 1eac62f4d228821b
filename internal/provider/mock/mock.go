package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/provider"
	apperrors "github.com/scottjosephstudio/sohcahtoa-sub000/pkg/errors"
)

// Provider is an in-memory payment gateway for development and testing.
// Intents live in a map; confirmation succeeds unless the amount ends in .99,
// which simulates a decline.
type Provider struct {
	mu      sync.Mutex
	intents map[string]*provider.Intent
}

// NewProvider creates a new mock payment gateway.
func NewProvider() *Provider {
	return &Provider{intents: make(map[string]*provider.Intent)}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

// CreateIntent registers a pending payment in memory.
func (p *Provider) CreateIntent(_ context.Context, input *provider.IntentInput) (*provider.Intent, error) {
	// Simulate a small processing delay.
	time.Sleep(20 * time.Millisecond)

	id := "mock_pi_" + uuid.New().String()
	intent := &provider.Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.New().String(),
		Amount:       input.Amount,
		Currency:     input.Currency,
		Status:       provider.IntentStatusRequiresConfirmation,
	}

	p.mu.Lock()
	p.intents[id] = intent
	p.mu.Unlock()

	return intent, nil
}

// ConfirmPayment settles an intent. Amounts ending in 99 minor units are
// declined so the failure path can be exercised end to end.
func (p *Provider) ConfirmPayment(_ context.Context, input *provider.ConfirmInput) (*provider.ConfirmResult, error) {
	time.Sleep(20 * time.Millisecond)

	p.mu.Lock()
	intent, ok := p.intents[input.IntentID]
	p.mu.Unlock()

	if !ok {
		return nil, apperrors.NotFound("payment intent", input.IntentID)
	}
	if !strings.HasPrefix(input.ClientSecret, intent.ID) || input.ClientSecret != intent.ClientSecret {
		return nil, apperrors.InvalidInput("client secret does not match intent")
	}

	if intent.Amount%100 == 99 {
		return &provider.ConfirmResult{
			IntentID:      intent.ID,
			Status:        provider.IntentStatusFailed,
			FailureReason: "card_declined",
			Retryable:     false,
		}, nil
	}

	p.mu.Lock()
	intent.Status = provider.IntentStatusSucceeded
	p.mu.Unlock()

	return &provider.ConfirmResult{
		IntentID: intent.ID,
		Status:   provider.IntentStatusSucceeded,
	}, nil
}
