package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFont(id, family string) Font {
	return Font{
		ID:        id,
		Family:    family,
		Slug:      family,
		BasePrice: 200_00,
		Styles:    []string{"regular", "italic", "bold"},
	}
}

func testCart() *Cart {
	return NewCart("cart-1", "sess-1", 24*time.Hour)
}

// ============================================================================
// Cart.SelectPackage Tests
// ============================================================================

func TestSelectPackage_Selects(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	assert.Equal(t, PackageMedium, c.SelectedPackage)
	assert.True(t, c.HasLicenseSelected())
}

func TestSelectPackage_ToggleDeselects(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	require.NoError(t, c.SelectPackage(PackageMedium))
	assert.Empty(t, c.SelectedPackage)
	assert.False(t, c.HasLicenseSelected())
}

func TestSelectPackage_ReplacesPrevious(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageSmall))
	require.NoError(t, c.SelectPackage(PackageLarge))
	assert.Equal(t, PackageLarge, c.SelectedPackage)
}

func TestSelectPackage_ExitsCustomizing(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectCustomLicense(CategoryPrint, PackageSmall))
	require.True(t, c.Customizing)

	require.NoError(t, c.SelectPackage(PackageMedium))
	assert.False(t, c.Customizing)
	assert.Zero(t, c.CustomLicenses.ActiveCount())
}

func TestSelectPackage_UnknownTier(t *testing.T) {
	c := testCart()
	assert.Error(t, c.SelectPackage("jumbo"))
}

// ============================================================================
// Cart.SelectCustomLicense Tests
// ============================================================================

func TestSelectCustomLicense_EntersCustomizing(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))

	require.NoError(t, c.SelectCustomLicense(CategoryWeb, PackageSmall))
	assert.True(t, c.Customizing)
	assert.Empty(t, c.SelectedPackage)
	assert.Equal(t, PackageSmall, c.CustomLicenses.Web)
}

func TestSelectCustomLicense_ToggleClearsCategory(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectCustomLicense(CategoryWeb, PackageSmall))
	require.NoError(t, c.SelectCustomLicense(CategoryWeb, PackageSmall))
	assert.Empty(t, c.CustomLicenses.Web)
}

func TestSelectCustomLicense_ClearingLastExitsCustomizing(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectCustomLicense(CategoryWeb, PackageSmall))
	require.NoError(t, c.SelectCustomLicense(CategoryWeb, PackageSmall))
	assert.False(t, c.Customizing)
	assert.False(t, c.HasLicenseSelected())
}

func TestSelectCustomLicense_ReplacingTierKeepsCategory(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectCustomLicense(CategoryApp, PackageSmall))
	require.NoError(t, c.SelectCustomLicense(CategoryApp, PackageLarge))
	assert.Equal(t, PackageLarge, c.CustomLicenses.App)
	assert.True(t, c.Customizing)
}

// ============================================================================
// Cart.ToggleCustomizing Tests
// ============================================================================

func TestToggleCustomizing_EnterClearsPackage(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))

	c.ToggleCustomizing()
	assert.True(t, c.Customizing)
	assert.Empty(t, c.SelectedPackage)
}

func TestToggleCustomizing_ExitClearsCategories(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectCustomLicense(CategoryPrint, PackageSmall))
	require.NoError(t, c.SelectCustomLicense(CategoryWeb, PackageMedium))

	c.ToggleCustomizing()
	assert.False(t, c.Customizing)
	assert.Zero(t, c.CustomLicenses.ActiveCount())
	assert.False(t, c.HasLicenseSelected())
}

// ============================================================================
// Cart.AddFont Tests
// ============================================================================

func TestAddFont_DefaultsFirstStyle(t *testing.T) {
	c := testCart()
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), nil))

	require.Len(t, c.SelectedFonts, 1)
	assert.Equal(t, []string{"regular"}, c.SelectedStyles["f1"])
	assert.True(t, c.IsChecked("f1"))
}

func TestAddFont_FirstAddDefaultsWeightOption(t *testing.T) {
	c := testCart()
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), nil))
	assert.Equal(t, WeightOptionDisplay, c.WeightOption)
}

func TestAddFont_ExplicitStyles(t *testing.T) {
	c := testCart()
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), []string{"italic", "bold"}))
	assert.Equal(t, []string{"italic", "bold"}, c.SelectedStyles["f1"])
}

func TestAddFont_UnknownStyle(t *testing.T) {
	c := testCart()
	assert.Error(t, c.AddFont(testFont("f1", "Alpha"), []string{"ultrathin"}))
	assert.Empty(t, c.SelectedFonts)
}

func TestAddFont_DuplicateIsIdempotent(t *testing.T) {
	c := testCart()
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), nil))
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), []string{"bold"}))

	require.Len(t, c.SelectedFonts, 1)
	// Styles from the first add are kept.
	assert.Equal(t, []string{"regular"}, c.SelectedStyles["f1"])
}

func TestAddFont_PreservesInsertionOrder(t *testing.T) {
	c := testCart()
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), nil))
	require.NoError(t, c.AddFont(testFont("f2", "Beta"), nil))
	require.NoError(t, c.AddFont(testFont("f3", "Gamma"), nil))

	assert.Equal(t, "Alpha", c.SelectedFonts[0].Family)
	assert.Equal(t, "Beta", c.SelectedFonts[1].Family)
	assert.Equal(t, "Gamma", c.SelectedFonts[2].Family)
}

// ============================================================================
// Cart.ToggleFont Tests
// ============================================================================

func TestToggleFont_UncheckPrunes(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), nil))
	require.NoError(t, c.AddFont(testFont("f2", "Beta"), nil))

	require.NoError(t, c.ToggleFont(testFont("f1", "Alpha")))
	assert.False(t, c.IsChecked("f1"))
	assert.Len(t, c.SelectedFonts, 1)
	_, ok := c.SelectedStyles["f1"]
	assert.False(t, ok, "pruned font must not keep a style entry")
}

func TestToggleFont_RemovingLastFontResetsOrder(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), nil))
	c.State = StatePaying
	c.RegistrationComplete = true

	require.NoError(t, c.ToggleFont(testFont("f1", "Alpha")))
	assert.Empty(t, c.SelectedFonts)
	assert.Empty(t, c.SelectedPackage)
	assert.Equal(t, StateBrowsing, c.State)
	assert.False(t, c.RegistrationComplete)
	assert.False(t, c.EULAAccepted)
}

func TestToggleFont_ReAddAfterUncheck(t *testing.T) {
	c := testCart()
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), nil))
	require.NoError(t, c.AddFont(testFont("f2", "Beta"), nil))
	require.NoError(t, c.ToggleFont(testFont("f1", "Alpha")))
	require.NoError(t, c.ToggleFont(testFont("f1", "Alpha")))

	assert.True(t, c.IsChecked("f1"))
	// Re-added font moves to the end of the selection.
	assert.Equal(t, "Alpha", c.SelectedFonts[1].Family)
}

// ============================================================================
// Cart.ToggleFontStyle Tests
// ============================================================================

func TestToggleFontStyle_AddsStyle(t *testing.T) {
	c := testCart()
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), nil))

	changed, err := c.ToggleFontStyle("f1", "bold")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"regular", "bold"}, c.SelectedStyles["f1"])
}

func TestToggleFontStyle_RemovesStyle(t *testing.T) {
	c := testCart()
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), []string{"regular", "bold"}))

	changed, err := c.ToggleFontStyle("f1", "regular")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"bold"}, c.SelectedStyles["f1"])
}

func TestToggleFontStyle_LastStyleIsKept(t *testing.T) {
	c := testCart()
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), []string{"regular"}))

	changed, err := c.ToggleFontStyle("f1", "regular")
	require.NoError(t, err)
	assert.False(t, changed, "removing the only style must be a no-op")
	assert.Equal(t, []string{"regular"}, c.SelectedStyles["f1"])
}

func TestToggleFontStyle_UnknownFont(t *testing.T) {
	c := testCart()
	_, err := c.ToggleFontStyle("nope", "regular")
	assert.Error(t, err)
}

// ============================================================================
// Cart.RemovePackage / RemoveLicense Tests
// ============================================================================

func TestRemovePackage_LastComponentResetsOrder(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), nil))
	c.State = StateSelectingUsage
	c.SelectedUsage = UsagePersonal
	c.EULAAccepted = true

	c.RemovePackage()
	assert.Equal(t, StateBrowsing, c.State)
	assert.Empty(t, c.SelectedFonts)
	assert.Empty(t, c.SelectedUsage)
	assert.False(t, c.EULAAccepted)
}

func TestRemoveLicense_OneOfSeveralKeepsOrder(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectCustomLicense(CategoryPrint, PackageSmall))
	require.NoError(t, c.SelectCustomLicense(CategoryWeb, PackageMedium))
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), nil))

	require.NoError(t, c.RemoveLicense(CategoryPrint))
	assert.True(t, c.HasLicenseSelected())
	assert.Len(t, c.SelectedFonts, 1)
}

func TestRemoveLicense_LastComponentResetsOrder(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectCustomLicense(CategoryPrint, PackageSmall))
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), nil))
	c.RegistrationComplete = true

	require.NoError(t, c.RemoveLicense(CategoryPrint))
	assert.Equal(t, StateBrowsing, c.State)
	assert.Empty(t, c.SelectedFonts)
	assert.False(t, c.RegistrationComplete)
	assert.False(t, c.Customizing)
}

// ============================================================================
// Downstream Invalidation Tests
// ============================================================================

func TestInvalidation_SelectionChangeAfterAdvanceRegresses(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), nil))
	c.State = StatePaying
	c.RegistrationComplete = true
	c.SelectedUsage = UsagePersonal
	c.EULAAccepted = true
	c.UserID = "user-1"
	c.Payment.ClientSecret = "cs_123"

	require.NoError(t, c.AddFont(testFont("f2", "Beta"), nil))

	assert.Equal(t, StateBrowsing, c.State)
	assert.True(t, c.SummaryModified)
	assert.Empty(t, c.SelectedUsage)
	assert.False(t, c.EULAAccepted)
	assert.Empty(t, c.Payment.ClientSecret)
	// Authentication survives every invalidation.
	assert.Equal(t, "user-1", c.UserID)
	// Registration completion survives so a returning buyer skips stage 2.
	assert.True(t, c.RegistrationComplete)
}

func TestInvalidation_SelectionChangeWhileBrowsingIsQuiet(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	assert.False(t, c.SummaryModified)
	assert.Equal(t, StateBrowsing, c.State)
}

// ============================================================================
// Cart.Proceed Tests
// ============================================================================

func TestProceed_NoLicenseIsNoop(t *testing.T) {
	c := testCart()
	moved, err := c.Proceed(false)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, StateBrowsing, c.State)
}

func TestProceed_AnonymousGoesToRegistration(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))

	moved, err := c.Proceed(false)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, StateRegistering, c.State)
	assert.True(t, c.ProceedClicked)
}

func TestProceed_AuthenticatedFirstTimeGoesToUsage(t *testing.T) {
	c := testCart()
	c.UserID = "user-1"
	require.NoError(t, c.SelectPackage(PackageMedium))

	moved, err := c.Proceed(true)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, StateSelectingUsage, c.State)
}

func TestProceed_RegistrationCompleteSkipsToPayment(t *testing.T) {
	c := testCart()
	c.UserID = "user-1"
	c.RegistrationComplete = true
	require.NoError(t, c.SelectPackage(PackageMedium))
	c.SummaryModified = true

	moved, err := c.Proceed(true)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, StatePaying, c.State)
	assert.False(t, c.SummaryModified, "a fresh proceed re-validates the summary")
}

func TestProceed_UsageStageRequiresEULA(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	c.State = StateSelectingUsage
	c.SelectedUsage = UsagePersonal

	moved, err := c.Proceed(true)
	require.NoError(t, err)
	assert.False(t, moved)

	c.EULAAccepted = true
	moved, err = c.Proceed(true)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, StatePaying, c.State)
	assert.True(t, c.RegistrationComplete)
}

func TestProceed_FromPaymentStageDoesNotMove(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	c.State = StatePaying
	c.RegistrationComplete = true
	c.Payment.SelectedMethod = DefaultPaymentMethod

	moved, err := c.Proceed(true)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, StatePaying, c.State)
}

func TestProceed_CompletedIsConflict(t *testing.T) {
	c := testCart()
	c.State = StateCompleted
	_, err := c.Proceed(true)
	assert.Error(t, err)
}

// ============================================================================
// Cart.GoToStage Tests
// ============================================================================

func TestGoToStage_BackToOneFlagsSummaryModified(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	c.State = StatePaying
	c.RegistrationComplete = true
	c.Payment.ClientSecret = "cs_123"

	require.NoError(t, c.GoToStage(1, true))
	assert.Equal(t, StateBrowsing, c.State)
	assert.True(t, c.SummaryModified)
	assert.True(t, c.ReturnedToSelection)
	assert.Empty(t, c.Payment.ClientSecret)
}

func TestGoToStage_TwoWithoutLicense(t *testing.T) {
	c := testCart()
	err := c.GoToStage(2, true)
	assert.Error(t, err)
}

func TestGoToStage_TwoAfterModifiedSummary(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	c.ProceedClicked = true
	c.SummaryModified = true

	err := c.GoToStage(2, true)
	assert.Error(t, err, "a modified summary must force a fresh proceed")
}

func TestGoToStage_ThreeRequiresRegistrationComplete(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	assert.Error(t, c.GoToStage(3, true))

	c.RegistrationComplete = true
	require.NoError(t, c.GoToStage(3, true))
	assert.Equal(t, StatePaying, c.State)
}

func TestGoToStage_OutOfRange(t *testing.T) {
	c := testCart()
	assert.Error(t, c.GoToStage(0, true))
	assert.Error(t, c.GoToStage(4, true))
}

// ============================================================================
// Cart.DeclareUsage / AttachUser Tests
// ============================================================================

func TestDeclareUsage_ClientRequiresCompany(t *testing.T) {
	c := testCart()
	assert.Error(t, c.DeclareUsage(UsageClient, "", true))
	require.NoError(t, c.DeclareUsage(UsageClient, "Acme Ltd", true))
	assert.Equal(t, "Acme Ltd", c.ClientCompany)
}

func TestAttachUser_FreshRegistrationAutoConfirms(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	_, err := c.Proceed(false)
	require.NoError(t, err)
	require.Equal(t, StateRegistering, c.State)

	c.AttachUser("user-1", true)
	assert.Equal(t, "user-1", c.UserID)
	assert.Equal(t, UsagePersonal, c.SelectedUsage)
	assert.True(t, c.EULAAccepted)
	assert.Equal(t, StateSelectingUsage, c.State)
}

func TestAttachUser_LoginDoesNotAutoConfirm(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	_, err := c.Proceed(false)
	require.NoError(t, err)

	c.AttachUser("user-1", false)
	assert.Empty(t, c.SelectedUsage)
	assert.False(t, c.EULAAccepted)
	assert.Equal(t, StateSelectingUsage, c.State)
}

// ============================================================================
// Cart.CheckoutDisabled Tests
// ============================================================================

func TestCheckoutDisabled_NoLicense(t *testing.T) {
	c := testCart()
	assert.True(t, c.CheckoutDisabled(false))
}

func TestCheckoutDisabled_PayingNeedsMethod(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	c.State = StatePaying
	assert.True(t, c.CheckoutDisabled(true))

	c.Payment.SelectedMethod = PaymentMethodCard
	assert.False(t, c.CheckoutDisabled(true))

	c.Payment.Processing = true
	assert.True(t, c.CheckoutDisabled(true))
}

// ============================================================================
// Cart.Rehydrate Tests
// ============================================================================

func TestRehydrate_UnauthenticatedDropsRegistration(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	c.State = StatePaying
	c.RegistrationComplete = true
	c.UserID = "user-1"
	c.Payment.IntentID = "pi_1"

	c.Rehydrate(false)
	assert.False(t, c.RegistrationComplete)
	assert.Empty(t, c.UserID)
	assert.Equal(t, StateBrowsing, c.State)
	assert.True(t, c.ReturnedToSelection)
	assert.Empty(t, c.Payment.IntentID)
	// The order itself survives the reopen.
	assert.Equal(t, PackageMedium, c.SelectedPackage)
}

func TestRehydrate_AuthenticatedKeepsPosition(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	c.State = StateSelectingUsage
	c.UserID = "user-1"

	changed := c.Rehydrate(true)
	assert.False(t, changed)
	assert.Equal(t, StateSelectingUsage, c.State)
	assert.Equal(t, "user-1", c.UserID)
}

func TestRehydrate_AuthenticatedDropsStaleRegistration(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	c.RegistrationComplete = true
	c.UserID = "user-1"

	changed := c.Rehydrate(true)
	assert.True(t, changed)
	assert.False(t, c.RegistrationComplete)

	// The reopened session must go back through usage/EULA, not straight to
	// payment off the stale flag.
	moved, err := c.Proceed(true)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, StateSelectingUsage, c.State)
}

func TestRehydrate_ReturnedToSelectionKeepsRegistration(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	c.RegistrationComplete = true
	c.ReturnedToSelection = true
	c.UserID = "user-1"

	changed := c.Rehydrate(true)
	assert.False(t, changed)
	assert.True(t, c.RegistrationComplete)
}

func TestRehydrate_CompletedCartResets(t *testing.T) {
	c := testCart()
	require.NoError(t, c.SelectPackage(PackageMedium))
	c.State = StateCompleted

	c.Rehydrate(true)
	assert.Equal(t, StateBrowsing, c.State)
	assert.Empty(t, c.SelectedPackage)
}

// ============================================================================
// Cart.ResetOrder Tests
// ============================================================================

func TestResetOrder_ClearsEverythingButIdentity(t *testing.T) {
	c := testCart()
	c.UserID = "user-1"
	require.NoError(t, c.SelectPackage(PackageMedium))
	require.NoError(t, c.AddFont(testFont("f1", "Alpha"), nil))
	c.State = StatePaying
	c.RegistrationComplete = true

	c.ResetOrder()
	assert.Empty(t, c.SelectedPackage)
	assert.Empty(t, c.SelectedFonts)
	assert.Empty(t, c.WeightOption)
	assert.Equal(t, StateBrowsing, c.State)
	assert.Equal(t, "user-1", c.UserID)
	assert.Equal(t, "cart-1", c.ID)
}
