package domain

import (
	"time"

	apperrors "github.com/scottjosephstudio/sohcahtoa-sub000/pkg/errors"
)

// Cart is the checkout wizard aggregate: the buyer's in-progress licensing
// order plus the wizard position. Every mutation goes through the methods
// below; handlers and repositories never modify fields directly.
type Cart struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"` // session key, or the user ID once attached
	UserID  string `json:"user_id,omitempty"`

	// Selection.
	WeightOption    string              `json:"weight_option,omitempty"`
	SelectedPackage string              `json:"selected_package,omitempty"`
	Customizing     bool                `json:"customizing"`
	CustomLicenses  CustomLicenses      `json:"custom_licenses"`
	SelectedFonts   []SelectedFont      `json:"selected_fonts"` // insertion order
	SelectedStyles  map[string][]string `json:"selected_styles"`
	CheckedFontIDs  []string            `json:"checked_font_ids"`

	// Wizard position and stage-gating flags.
	State                WizardState `json:"state"`
	RegistrationComplete bool        `json:"registration_complete"`
	SelectedUsage        string      `json:"selected_usage,omitempty"`
	ClientCompany        string      `json:"client_company,omitempty"`
	EULAAccepted         bool        `json:"eula_accepted"`
	SummaryModified      bool        `json:"summary_modified"`
	ProceedClicked       bool        `json:"proceed_clicked"`
	ReturnedToSelection  bool        `json:"returned_to_selection"`

	Payment PaymentState `json:"payment"`

	Currency  string    `json:"currency"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewCart creates an empty cart for the given owner key.
func NewCart(id, ownerID string, ttl time.Duration) *Cart {
	now := time.Now().UTC()
	return &Cart{
		ID:             id,
		OwnerID:        ownerID,
		SelectedFonts:  []SelectedFont{},
		SelectedStyles: map[string][]string{},
		CheckedFontIDs: []string{},
		State:          StateBrowsing,
		Currency:       "GBP",
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(ttl),
	}
}

// --- Derived state ---

// Stage returns the wizard display stage (1, 2, or 3).
func (c *Cart) Stage() int {
	return StageOf(c.State)
}

// HasLicenseSelected reports whether a package is chosen or at least one
// custom category is licensed while customizing.
func (c *Cart) HasLicenseSelected() bool {
	if c.SelectedPackage != "" {
		return true
	}
	return c.Customizing && c.CustomLicenses.ActiveCount() > 0
}

// IsEmpty reports whether the cart holds no priced selection and no fonts.
func (c *Cart) IsEmpty() bool {
	return !c.HasLicenseSelected() && len(c.SelectedFonts) == 0
}

// IsChecked reports whether the font is in the checked (purchased) subset.
func (c *Cart) IsChecked(fontID string) bool {
	for _, id := range c.CheckedFontIDs {
		if id == fontID {
			return true
		}
	}
	return false
}

// CheckedFonts returns the checked fonts in insertion order.
func (c *Cart) CheckedFonts() []SelectedFont {
	var checked []SelectedFont
	for _, f := range c.SelectedFonts {
		if c.IsChecked(f.FontID) {
			checked = append(checked, f)
		}
	}
	return checked
}

// CheckoutDisabled reports whether the proceed control should be inert, per
// the current stage's validity predicate.
func (c *Cart) CheckoutDisabled(authenticated bool) bool {
	if !c.HasLicenseSelected() {
		return true
	}
	switch c.State {
	case StateBrowsing:
		return false
	case StateRegistering:
		// The registration form advances through its own submit, not proceed.
		return true
	case StateSelectingUsage:
		return c.SelectedUsage == "" || !c.EULAAccepted
	case StatePaying:
		return c.Payment.SelectedMethod == "" || c.Payment.Processing
	default:
		return true
	}
}

// CanGoToStage implements the backward/forward stage-number navigation guards.
func (c *Cart) CanGoToStage(stage int, authenticated bool) bool {
	switch stage {
	case 1:
		return true
	case 2:
		if !c.HasLicenseSelected() {
			return false
		}
		if c.State == StateRegistering || c.State == StateSelectingUsage {
			return true
		}
		return c.RegistrationComplete || (c.ProceedClicked && !c.SummaryModified)
	case 3:
		return c.RegistrationComplete
	default:
		return false
	}
}

// --- Transitions: selection ---

// SelectPackage toggles the package tier. Re-selecting the active tier
// deselects it. Selecting a package leaves custom-licensing mode, and any
// change to the priced selection invalidates downstream confirmations.
func (c *Cart) SelectPackage(tier string) error {
	if !ValidPackageTier(tier) {
		return apperrors.InvalidInput("unknown package tier: " + tier)
	}

	if c.SelectedPackage == tier {
		c.SelectedPackage = ""
	} else {
		c.SelectedPackage = tier
		c.Customizing = false
		c.CustomLicenses.Clear()
	}

	c.invalidatePricedSelection()
	return nil
}

// SelectCustomLicense toggles one category's tier. Re-clicking the active
// tier clears the category; clearing the last active category leaves
// customizing mode.
func (c *Cart) SelectCustomLicense(category, tier string) error {
	if !ValidCategory(category) {
		return apperrors.InvalidInput("unknown license category: " + category)
	}
	if !ValidPackageTier(tier) {
		return apperrors.InvalidInput("unknown license tier: " + tier)
	}

	if c.CustomLicenses.Get(category) == tier {
		c.CustomLicenses.Set(category, "")
	} else {
		c.CustomLicenses.Set(category, tier)
		c.Customizing = true
		c.SelectedPackage = ""
	}

	if c.CustomLicenses.ActiveCount() == 0 {
		c.Customizing = false
	}

	c.invalidatePricedSelection()
	return nil
}

// ToggleCustomizing enters or exits custom-licensing mode. Entering clears
// the package; exiting clears all four categories.
func (c *Cart) ToggleCustomizing() {
	if c.Customizing {
		c.Customizing = false
		c.CustomLicenses.Clear()
	} else {
		c.Customizing = true
		c.SelectedPackage = ""
	}

	c.invalidatePricedSelection()
}

// AddFont appends a catalog font with an initial style set and marks it
// checked. With no styles given, the font's first available style is used.
// Adding the first font defaults the weight option.
func (c *Cart) AddFont(font Font, styles []string) error {
	if font.ID == "" {
		return apperrors.InvalidInput("font id is required")
	}
	if len(font.Styles) == 0 {
		return apperrors.InvalidInput("font has no available styles")
	}

	if c.indexOfFont(font.ID) >= 0 {
		// Already present: just make sure it is checked.
		if !c.IsChecked(font.ID) {
			c.CheckedFontIDs = append(c.CheckedFontIDs, font.ID)
			c.invalidatePricedSelection()
		}
		return nil
	}

	if len(styles) == 0 {
		styles = []string{font.Styles[0]}
	}
	for _, s := range styles {
		if !font.HasStyle(s) {
			return apperrors.InvalidInput("font " + font.Family + " has no style " + s)
		}
	}

	if c.WeightOption == "" {
		c.WeightOption = WeightOptionDisplay
	}

	c.SelectedFonts = append(c.SelectedFonts, SelectedFont{
		FontID:    font.ID,
		Family:    font.Family,
		BasePrice: font.BasePrice,
	})
	if c.SelectedStyles == nil {
		c.SelectedStyles = map[string][]string{}
	}
	c.SelectedStyles[font.ID] = append([]string{}, styles...)
	c.CheckedFontIDs = append(c.CheckedFontIDs, font.ID)

	c.invalidatePricedSelection()
	return nil
}

// ToggleFont checks or unchecks a font. Unchecking prunes the font from the
// selection entirely; pruning the last font clears the whole order.
func (c *Cart) ToggleFont(font Font) error {
	if c.IsChecked(font.ID) {
		c.pruneFont(font.ID)
		if len(c.SelectedFonts) == 0 {
			c.ResetOrder()
			return nil
		}
		c.invalidatePricedSelection()
		return nil
	}

	return c.AddFont(font, nil)
}

// ToggleFontStyle adds or removes one style from a selected font. Removing
// the last style is rejected as a no-op: every selected font keeps at least
// one style. Returns whether the cart changed.
func (c *Cart) ToggleFontStyle(fontID, style string) (bool, error) {
	if c.indexOfFont(fontID) < 0 {
		return false, apperrors.NotFound("selected font", fontID)
	}

	styles := c.SelectedStyles[fontID]
	for i, s := range styles {
		if s == style {
			if len(styles) == 1 {
				return false, nil
			}
			c.SelectedStyles[fontID] = append(styles[:i:i], styles[i+1:]...)
			c.invalidatePricedSelection()
			return true, nil
		}
	}

	c.SelectedStyles[fontID] = append(styles, style)
	c.invalidatePricedSelection()
	return true, nil
}

// RemovePackage removes the package. If it was the last pricing component the
// order fully resets to stage 1.
func (c *Cart) RemovePackage() {
	c.SelectedPackage = ""
	if !c.HasLicenseSelected() {
		c.ResetOrder()
		return
	}
	c.invalidatePricedSelection()
}

// RemoveLicense removes one custom-license category. If it was the last
// pricing component the order fully resets to stage 1.
func (c *Cart) RemoveLicense(category string) error {
	if !ValidCategory(category) {
		return apperrors.InvalidInput("unknown license category: " + category)
	}

	c.CustomLicenses.Set(category, "")
	if c.CustomLicenses.ActiveCount() == 0 {
		c.Customizing = false
	}

	if !c.HasLicenseSelected() {
		c.ResetOrder()
		return nil
	}
	c.invalidatePricedSelection()
	return nil
}

// --- Transitions: wizard ---

// Proceed advances the wizard one step per the current state and auth. It is
// a guarded no-op when the current stage's validity predicate fails, and
// returns whether the wizard moved.
func (c *Cart) Proceed(authenticated bool) (bool, error) {
	switch c.State {
	case StateBrowsing:
		if !c.HasLicenseSelected() {
			return false, nil
		}
		c.ProceedClicked = true
		if !authenticated {
			c.State = StateRegistering
			return true, nil
		}
		if c.RegistrationComplete || c.ReturnedToSelection {
			// Returning buyer: usage and EULA were already confirmed, skip
			// straight to payment.
			c.State = StatePaying
			c.SummaryModified = false
			return true, nil
		}
		c.State = StateSelectingUsage
		return true, nil

	case StateRegistering:
		// Registration advances through AttachUser, not proceed.
		return false, nil

	case StateSelectingUsage:
		if c.SelectedUsage == "" || !c.EULAAccepted {
			return false, nil
		}
		c.RegistrationComplete = true
		c.State = StatePaying
		c.SummaryModified = false
		return true, nil

	case StatePaying:
		// Confirmation runs through the payment service; there is no further
		// step to advance to from here, so the wizard never moves.
		return false, nil

	default:
		return false, apperrors.Conflict("checkout already completed")
	}
}

// GoToStage implements stage-number navigation. Moving back to stage 1 from
// payment flags the summary as modified, invalidating the earlier proceed.
func (c *Cart) GoToStage(stage int, authenticated bool) error {
	if stage < 1 || stage > 3 {
		return apperrors.InvalidInput("stage must be 1, 2, or 3")
	}
	if !c.CanGoToStage(stage, authenticated) {
		return apperrors.Forbidden("stage is not reachable from the current checkout state")
	}

	switch stage {
	case 1:
		if c.State != StateBrowsing {
			if c.State == StatePaying {
				c.SummaryModified = true
			}
			c.ReturnedToSelection = true
			c.State = StateBrowsing
			c.Payment.Reset()
		}
	case 2:
		if c.State != StateSelectingUsage && c.State != StateRegistering {
			c.State = StateSelectingUsage
			c.Payment.Reset()
		}
	case 3:
		if c.State != StatePaying {
			c.State = StatePaying
		}
	}
	return nil
}

// DeclareUsage records the usage type, optional client company, and EULA
// acceptance from the stage-2 form.
func (c *Cart) DeclareUsage(usage, clientCompany string, eulaAccepted bool) error {
	if !ValidUsage(usage) {
		return apperrors.InvalidInput("unknown usage type: " + usage)
	}
	if usage == UsageClient && clientCompany == "" {
		return apperrors.InvalidInput("client company is required for client usage")
	}

	c.SelectedUsage = usage
	c.ClientCompany = clientCompany
	c.EULAAccepted = eulaAccepted
	return nil
}

// AttachUser binds the cart to an authenticated account and advances past
// registration. A fresh registration stands in for the usage/EULA
// confirmation: usage defaults to personal and the EULA is accepted. Login
// advances without that auto-set.
func (c *Cart) AttachUser(userID string, freshRegistration bool) {
	c.UserID = userID
	c.OwnerID = userID

	if freshRegistration {
		c.SelectedUsage = UsagePersonal
		c.EULAAccepted = true
	}

	if c.State == StateRegistering || (c.State == StateBrowsing && c.HasLicenseSelected() && c.ProceedClicked) {
		c.State = StateSelectingUsage
	}
}

// --- Resets ---

// ResetOrder clears the entire order and returns the wizard to stage 1.
// Authentication is untouched: removing items never logs the buyer out.
func (c *Cart) ResetOrder() {
	c.WeightOption = ""
	c.SelectedPackage = ""
	c.Customizing = false
	c.CustomLicenses.Clear()
	c.SelectedFonts = []SelectedFont{}
	c.SelectedStyles = map[string][]string{}
	c.CheckedFontIDs = []string{}
	c.State = StateBrowsing
	c.RegistrationComplete = false
	c.SelectedUsage = ""
	c.ClientCompany = ""
	c.EULAAccepted = false
	c.SummaryModified = false
	c.ProceedClicked = false
	c.ReturnedToSelection = false
	c.Payment.Reset()
}

// Rehydrate normalizes a cart loaded from the store at the start of a new
// session. Registration completion is conservative: it only survives a
// session gap when the buyer had explicitly returned to stage 1, and an
// unauthenticated session goes through registration again whatever the
// persisted flag says. In-flight payment form state is always discarded;
// re-entering the payment stage creates a fresh intent. It reports whether
// the persisted snapshot changed.
func (c *Cart) Rehydrate(authenticated bool) bool {
	c.Payment.Reset()

	if c.State == StateCompleted {
		c.ResetOrder()
		return true
	}

	changed := false

	if authenticated {
		if c.RegistrationComplete && !c.ReturnedToSelection {
			c.RegistrationComplete = false
			changed = true
		}
		return changed
	}

	if c.RegistrationComplete {
		c.RegistrationComplete = false
		changed = true
	}
	if c.UserID != "" {
		c.UserID = ""
		changed = true
	}
	if c.State != StateBrowsing {
		c.State = StateBrowsing
		c.ReturnedToSelection = true
		changed = true
	}
	return changed
}

// Complete marks the checkout finished after a confirmed payment.
func (c *Cart) Complete() {
	c.State = StateCompleted
	c.Payment.Processing = false
}

// --- Internal ---

// invalidatePricedSelection is the single downstream-invalidation rule: any
// change to the priced selection after the wizard has advanced regresses to
// stage 1, clears the usage/EULA confirmations and client data, and marks the
// summary as modified. Authentication and the buyer's account are untouched.
func (c *Cart) invalidatePricedSelection() {
	advanced := c.State != StateBrowsing || c.RegistrationComplete
	if !advanced {
		c.Payment.Reset()
		return
	}

	c.State = StateBrowsing
	c.SelectedUsage = ""
	c.ClientCompany = ""
	c.EULAAccepted = false
	c.SummaryModified = true
	c.Payment.Reset()
}

func (c *Cart) indexOfFont(fontID string) int {
	for i := range c.SelectedFonts {
		if c.SelectedFonts[i].FontID == fontID {
			return i
		}
	}
	return -1
}

// pruneFont removes a font from the checked set, the ordered selection, and
// the style map. Unchecking is pruning: an unchecked font does not linger.
func (c *Cart) pruneFont(fontID string) {
	for i, id := range c.CheckedFontIDs {
		if id == fontID {
			c.CheckedFontIDs = append(c.CheckedFontIDs[:i:i], c.CheckedFontIDs[i+1:]...)
			break
		}
	}
	if i := c.indexOfFont(fontID); i >= 0 {
		c.SelectedFonts = append(c.SelectedFonts[:i:i], c.SelectedFonts[i+1:]...)
	}
	delete(c.SelectedStyles, fontID)
}
