package domain

// Payment method constants. Card is the default the form reverts to after an
// intent-creation failure.
const (
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodWallet       = "wallet"
)

// DefaultPaymentMethod is the method preselected when the payment form opens.
const DefaultPaymentMethod = PaymentMethodCard

// ValidPaymentMethod reports whether method names a supported payment method.
func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodWallet:
		return true
	}
	return false
}

// BillingAddress accompanies a payment confirmation.
type BillingAddress struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// PaymentState is the stage-3 state. The intent reference survives across
// requests so confirmation can be matched to it, but the client secret is
// never persisted: it is handed to the payment form exactly once at intent
// creation and a re-entered payment stage gets a fresh intent.
type PaymentState struct {
	ClientSecret   string         `json:"-"`
	IntentID       string         `json:"intent_id,omitempty"`
	IntentAmount   int64          `json:"intent_amount,omitempty"`
	SelectedMethod string         `json:"selected_method,omitempty"`
	Processing     bool           `json:"processing"`
	Address        BillingAddress `json:"address"`
	Error          string         `json:"error,omitempty"`
}

// Reset clears the payment state back to its zero value.
func (p *PaymentState) Reset() {
	*p = PaymentState{}
}
