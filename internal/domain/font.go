package domain

import "time"

// Font is a catalog typeface available for licensing.
type Font struct {
	ID        string    `json:"id"`
	Family    string    `json:"family"`
	Slug      string    `json:"slug"`
	BasePrice int64     `json:"base_price"` // minor currency units, single style, single category
	Styles    []string  `json:"styles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasStyle reports whether the catalog font offers the given style.
func (f *Font) HasStyle(style string) bool {
	for _, s := range f.Styles {
		if s == style {
			return true
		}
	}
	return false
}

// SelectedFont is a typeface placed in the cart. The catalog price is copied
// in so the order total stays stable if the catalog changes mid-session.
type SelectedFont struct {
	FontID    string `json:"font_id"`
	Family    string `json:"family"`
	BasePrice int64  `json:"base_price"`
}
