package domain

import "math"

// PricingConfig holds every number the price calculator uses. Amounts are in
// minor currency units. The defaults ship in code; deployments override them
// with a JSON file so a price change never needs a rebuild.
type PricingConfig struct {
	// PackageMultipliers scale each checked font's base price in package mode.
	PackageMultipliers map[string]float64 `json:"package_multipliers"`
	// PackagePrices are the flat package prices charged when a package is
	// selected but no font is checked yet.
	PackagePrices map[string]int64 `json:"package_prices"`
	// StyleMultipliers scale the base price per selected style, keyed by style
	// name. Styles absent from the table count at 1.0, so every selected style
	// adds a full base price unless the table says otherwise.
	StyleMultipliers map[string]float64 `json:"style_multipliers"`
	// CustomTierMultipliers scale a font's base price per licensed category in
	// custom mode, keyed by the category's tier.
	CustomTierMultipliers map[string]float64 `json:"custom_tier_multipliers"`
	// CustomBasePrices are the flat per-category prices charged in custom mode
	// with no font checked, keyed by tier.
	CustomBasePrices map[string]int64 `json:"custom_base_prices"`
	// VolumeDiscounts maps checked-font count to a fractional discount. Counts
	// above the largest key use the largest key's rate.
	VolumeDiscounts map[int]float64 `json:"volume_discounts"`
}

// DefaultPricingConfig returns the built-in price book.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		PackageMultipliers: map[string]float64{
			PackageSmall:  1.0,
			PackageMedium: 2.0,
			PackageLarge:  4.0,
		},
		PackagePrices: map[string]int64{
			PackageSmall:  200_00,
			PackageMedium: 400_00,
			PackageLarge:  800_00,
		},
		StyleMultipliers: map[string]float64{
			WeightOptionDisplay: 1.0,
		},
		CustomTierMultipliers: map[string]float64{
			PackageSmall:  0.5,
			PackageMedium: 1.0,
			PackageLarge:  2.0,
		},
		CustomBasePrices: map[string]int64{
			PackageSmall:  100_00,
			PackageMedium: 200_00,
			PackageLarge:  400_00,
		},
		VolumeDiscounts: map[int]float64{
			1: 0,
			2: 0.10,
			3: 0.15,
			4: 0.20,
			5: 0.25,
		},
	}
}

// FontLine is one checked font's contribution to the pre-discount subtotal.
type FontLine struct {
	FontID string `json:"font_id"`
	Family string `json:"family"`
	Styles int    `json:"styles"`
	Amount int64  `json:"amount"`
}

// PriceBreakdown is the itemized result of a price calculation.
type PriceBreakdown struct {
	Lines        []FontLine `json:"lines,omitempty"`
	Subtotal     int64      `json:"subtotal"`
	DiscountRate float64    `json:"discount_rate"`
	Discount     int64      `json:"discount"`
	Total        int64      `json:"total"`
	Currency     string     `json:"currency"`
}

// Price computes the cart's itemized total.
//
// Each checked font's base price is summed over its selected styles (scaled
// by the style multiplier table), then package mode applies the package
// multiplier while custom mode is additive: the styled base price times the
// tier multiplier of every licensed category. Either mode with no
// checked fonts falls back to the flat license price, so the buyer sees a
// price the moment a license is picked. Volume discount applies to the font
// subtotal only, keyed by the number of checked fonts.
func Price(cfg PricingConfig, cart *Cart) PriceBreakdown {
	bd := PriceBreakdown{Currency: cart.Currency}
	if !cart.HasLicenseSelected() {
		return bd
	}

	checked := cart.CheckedFonts()
	if len(checked) == 0 {
		bd.Subtotal = flatPrice(cfg, cart)
		bd.Total = bd.Subtotal
		return bd
	}

	for _, f := range checked {
		line := FontLine{
			FontID: f.FontID,
			Family: f.Family,
			Styles: len(cart.SelectedStyles[f.FontID]),
			Amount: fontPrice(cfg, cart, f),
		}
		bd.Lines = append(bd.Lines, line)
		bd.Subtotal += line.Amount
	}

	bd.DiscountRate = discountFor(cfg, len(checked))
	bd.Discount = int64(math.Round(float64(bd.Subtotal) * bd.DiscountRate))
	bd.Total = bd.Subtotal - bd.Discount
	return bd
}

// Total is the single-number form of Price.
func Total(cfg PricingConfig, cart *Cart) int64 {
	return Price(cfg, cart).Total
}

func fontPrice(cfg PricingConfig, cart *Cart, f SelectedFont) int64 {
	base := float64(f.BasePrice) * styleSum(cfg, cart.SelectedStyles[f.FontID])

	if cart.SelectedPackage != "" {
		return int64(math.Round(base * cfg.PackageMultipliers[cart.SelectedPackage]))
	}

	var amount int64
	for _, cat := range cart.CustomLicenses.Active() {
		tier := cart.CustomLicenses.Get(cat)
		amount += int64(math.Round(base * cfg.CustomTierMultipliers[tier]))
	}
	return amount
}

// styleSum totals the style multipliers for a font's selected styles. Styles
// missing from the table count at 1.0.
func styleSum(cfg PricingConfig, styles []string) float64 {
	var sum float64
	for _, s := range styles {
		if m, ok := cfg.StyleMultipliers[s]; ok {
			sum += m
		} else {
			sum += 1.0
		}
	}
	return sum
}

func flatPrice(cfg PricingConfig, cart *Cart) int64 {
	if cart.SelectedPackage != "" {
		return cfg.PackagePrices[cart.SelectedPackage]
	}

	var amount int64
	for _, cat := range cart.CustomLicenses.Active() {
		amount += cfg.CustomBasePrices[cart.CustomLicenses.Get(cat)]
	}
	return amount
}

// discountFor returns the volume discount rate for n checked fonts. Counts
// past the largest configured bracket keep the largest bracket's rate.
func discountFor(cfg PricingConfig, n int) float64 {
	if rate, ok := cfg.VolumeDiscounts[n]; ok {
		return rate
	}
	best, rate := 0, 0.0
	for count, r := range cfg.VolumeDiscounts {
		if count <= n && count > best {
			best, rate = count, r
		}
	}
	return rate
}
