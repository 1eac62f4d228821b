package domain

// Weight option constants. "display" is the default style tier applied when
// the first font is added without an explicit choice.
const (
	WeightOptionDisplay = "display"
)

// Package tier constants. A package bundles all four usage categories at a
// fixed limit.
const (
	PackageSmall  = "small"
	PackageMedium = "medium"
	PackageLarge  = "large"
)

// License category constants for custom (à la carte) licensing.
const (
	CategoryPrint  = "print"
	CategoryWeb    = "web"
	CategoryApp    = "app"
	CategorySocial = "social"
)

// Usage type constants declared at checkout.
const (
	UsagePersonal = "personal"
	UsageClient   = "client"
)

// ValidPackageTier reports whether tier names a known package.
func ValidPackageTier(tier string) bool {
	return tier == PackageSmall || tier == PackageMedium || tier == PackageLarge
}

// ValidCategory reports whether category names a known license category.
func ValidCategory(category string) bool {
	switch category {
	case CategoryPrint, CategoryWeb, CategoryApp, CategorySocial:
		return true
	}
	return false
}

// ValidUsage reports whether usage names a known usage type.
func ValidUsage(usage string) bool {
	return usage == UsagePersonal || usage == UsageClient
}

// LicenseCategories returns the four custom-license categories in display order.
func LicenseCategories() []string {
	return []string{CategoryPrint, CategoryWeb, CategoryApp, CategorySocial}
}

// CustomLicenses holds the per-category tier selections for custom licensing.
// An empty string means the category is unlicensed.
type CustomLicenses struct {
	Print  string `json:"print,omitempty"`
	Web    string `json:"web,omitempty"`
	App    string `json:"app,omitempty"`
	Social string `json:"social,omitempty"`
}

// Get returns the selected tier for the category, or "".
func (c *CustomLicenses) Get(category string) string {
	switch category {
	case CategoryPrint:
		return c.Print
	case CategoryWeb:
		return c.Web
	case CategoryApp:
		return c.App
	case CategorySocial:
		return c.Social
	}
	return ""
}

// Set assigns the tier for the category. An empty tier clears it.
func (c *CustomLicenses) Set(category, tier string) {
	switch category {
	case CategoryPrint:
		c.Print = tier
	case CategoryWeb:
		c.Web = tier
	case CategoryApp:
		c.App = tier
	case CategorySocial:
		c.Social = tier
	}
}

// ActiveCount returns the number of licensed categories.
func (c *CustomLicenses) ActiveCount() int {
	count := 0
	for _, cat := range LicenseCategories() {
		if c.Get(cat) != "" {
			count++
		}
	}
	return count
}

// Active returns the licensed categories in display order.
func (c *CustomLicenses) Active() []string {
	var active []string
	for _, cat := range LicenseCategories() {
		if c.Get(cat) != "" {
			active = append(active, cat)
		}
	}
	return active
}

// Clear removes every category selection.
func (c *CustomLicenses) Clear() {
	*c = CustomLicenses{}
}
