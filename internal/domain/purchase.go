package domain

import "time"

// PurchasedFont is one typeface line on a receipt.
type PurchasedFont struct {
	FontID string   `json:"font_id"`
	Family string   `json:"family"`
	Styles []string `json:"styles"`
}

// Purchase is an append-only receipt recorded after a successful payment.
type Purchase struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	PaymentIntentID string          `json:"payment_intent_id"`
	Package         string          `json:"package,omitempty"`
	CustomLicenses  CustomLicenses  `json:"custom_licenses,omitempty"`
	Usage           string          `json:"usage"`
	Fonts           []PurchasedFont `json:"fonts"`
	CreatedAt       time.Time       `json:"created_at"`
}
