package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/domain"
	apperrors "github.com/scottjosephstudio/sohcahtoa-sub000/pkg/errors"
)

func setupTestRedis(t *testing.T) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewCartRepository(client, 24*time.Hour)
	return repo, mr
}

func sampleCart() *domain.Cart {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Cart{
		ID:              "cart-001",
		OwnerID:         "sess-001",
		WeightOption:    domain.WeightOptionDisplay,
		SelectedPackage: domain.PackageMedium,
		SelectedFonts: []domain.SelectedFont{
			{FontID: "f-1", Family: "Alpha", BasePrice: 200_00},
		},
		SelectedStyles: map[string][]string{"f-1": {"regular", "bold"}},
		CheckedFontIDs: []string{"f-1"},
		State:          domain.StateBrowsing,
		Currency:       "GBP",
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(24 * time.Hour),
	}
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestCartRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	data, err := json.Marshal(cart)
	require.NoError(t, err)

	require.NoError(t, mr.Set("checkout:cart:"+cart.OwnerID, string(data)))

	got, err := repo.Get(context.Background(), cart.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, got.ID)
	assert.Equal(t, cart.OwnerID, got.OwnerID)
	assert.Equal(t, domain.PackageMedium, got.SelectedPackage)
	assert.Equal(t, cart.Version, got.Version)
	require.Len(t, got.SelectedFonts, 1)
	assert.Equal(t, "Alpha", got.SelectedFonts[0].Family)
	assert.Equal(t, []string{"regular", "bold"}, got.SelectedStyles["f-1"])
	assert.Equal(t, []string{"f-1"}, got.CheckedFontIDs)
}

func TestCartRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	_, err := repo.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Get_ClientSecretNeverStored(t *testing.T) {
	repo, _ := setupTestRedis(t)

	cart := sampleCart()
	cart.Payment.ClientSecret = "cs_secret"
	cart.Payment.IntentID = "pi_123"
	cart.Payment.IntentAmount = 400_00
	require.NoError(t, repo.Save(context.Background(), cart))

	got, err := repo.Get(context.Background(), cart.OwnerID)
	require.NoError(t, err)
	assert.Empty(t, got.Payment.ClientSecret)
	assert.Equal(t, "pi_123", got.Payment.IntentID)
	assert.Equal(t, int64(400_00), got.Payment.IntentAmount)
}

// ---------------------------------------------------------------------------
// Save
// ---------------------------------------------------------------------------

func TestCartRepository_Save_RoundTrip(t *testing.T) {
	repo, _ := setupTestRedis(t)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))

	got, err := repo.Get(context.Background(), cart.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, got.ID)
	assert.Equal(t, cart.State, got.State)
}

func TestCartRepository_Save_SetsTTL(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))

	ttl := mr.TTL("checkout:cart:" + cart.OwnerID)
	assert.True(t, ttl > 23*time.Hour, "expected TTL > 23h, got %v", ttl)
	assert.True(t, ttl <= 24*time.Hour, "expected TTL <= 24h, got %v", ttl)
}

// ---------------------------------------------------------------------------
// SaveIfVersion
// ---------------------------------------------------------------------------

func TestCartRepository_SaveIfVersion_Success(t *testing.T) {
	repo, _ := setupTestRedis(t)

	cart := sampleCart()
	cart.Version = 1
	require.NoError(t, repo.Save(context.Background(), cart))

	cart.SelectedPackage = domain.PackageLarge
	ok, err := repo.SaveIfVersion(context.Background(), cart, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.Get(context.Background(), cart.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, domain.PackageLarge, got.SelectedPackage)
}

func TestCartRepository_SaveIfVersion_VersionMismatch(t *testing.T) {
	repo, _ := setupTestRedis(t)

	cart := sampleCart()
	cart.Version = 1
	require.NoError(t, repo.Save(context.Background(), cart))

	ok, err := repo.SaveIfVersion(context.Background(), cart, 99)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.Get(context.Background(), cart.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
}

func TestCartRepository_SaveIfVersion_NewCart(t *testing.T) {
	repo, _ := setupTestRedis(t)

	cart := sampleCart()
	cart.Version = 0

	ok, err := repo.SaveIfVersion(context.Background(), cart, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.Get(context.Background(), cart.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
}

func TestCartRepository_SaveIfVersion_NewCartVersionMismatch(t *testing.T) {
	repo, _ := setupTestRedis(t)

	cart := sampleCart()

	ok, err := repo.SaveIfVersion(context.Background(), cart, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Get(context.Background(), cart.OwnerID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestCartRepository_Delete_Success(t *testing.T) {
	repo, _ := setupTestRedis(t)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))
	require.NoError(t, repo.Delete(context.Background(), cart.OwnerID))

	_, err := repo.Get(context.Background(), cart.OwnerID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Delete_MissingKeyIsQuiet(t *testing.T) {
	repo, _ := setupTestRedis(t)
	assert.NoError(t, repo.Delete(context.Background(), "missing"))
}
