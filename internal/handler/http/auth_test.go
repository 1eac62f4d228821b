package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/domain"
	apperrors "github.com/scottjosephstudio/sohcahtoa-sub000/pkg/errors"
)

func storedUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		FirstName:    "Alice",
		LastName:     "Smith",
		IsActive:     true,
	}
}

func TestRegister_Success_AttachesSessionCart(t *testing.T) {
	f := newRouterFixture()

	f.users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	// The anonymous session cart is migrated onto the new account.
	f.carts.On("Get", mock.Anything, "sess-1").Return(nil, notFoundCart("sess-1"))
	f.carts.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Cart) bool {
		return c.UserID != "" && c.OwnerID == c.UserID
	})).Return(nil)
	f.carts.On("Delete", mock.Anything, "sess-1").Return(nil)

	body := map[string]any{
		"email":      "alice@example.com",
		"password":   "Passw0rd!",
		"first_name": "Alice",
		"last_name":  "Smith",
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", jsonBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "sess-1")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var auth struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(data, &auth))
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, "alice@example.com", auth.User.Email)
	f.carts.AssertExpectations(t)
}

func TestRegister_DuplicateEmail_Returns409(t *testing.T) {
	f := newRouterFixture()

	f.users.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.AlreadyExists("user", "email", "alice@example.com"))

	body := map[string]any{
		"email":      "alice@example.com",
		"password":   "Passw0rd!",
		"first_name": "Alice",
		"last_name":  "Smith",
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", jsonBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_MissingEmail_ValidationError(t *testing.T) {
	f := newRouterFixture()

	body := map[string]any{
		"password":   "Passw0rd!",
		"first_name": "Alice",
		"last_name":  "Smith",
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", jsonBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "Email")
}

func TestLogin_Success_AttachesSessionCart(t *testing.T) {
	f := newRouterFixture()

	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(storedUser(t, "Passw0rd!"), nil)
	f.carts.On("Get", mock.Anything, "sess-1").Return(nil, notFoundCart("sess-1"))
	f.carts.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Cart) bool {
		return c.UserID == "user-1"
	})).Return(nil)
	f.carts.On("Delete", mock.Anything, "sess-1").Return(nil)

	body := map[string]any{"email": "alice@example.com", "password": "Passw0rd!"}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", jsonBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "sess-1")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	f.carts.AssertExpectations(t)
}

func TestLogin_WrongPassword_FieldError(t *testing.T) {
	f := newRouterFixture()

	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(storedUser(t, "Passw0rd!"), nil)

	body := map[string]any{"email": "alice@example.com", "password": "wrong"}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", jsonBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Fields, "password")
}

func TestLogin_UnknownEmail_FieldError(t *testing.T) {
	f := newRouterFixture()

	f.users.On("GetByEmail", mock.Anything, "nobody@example.com").
		Return(nil, apperrors.NotFound("user", "nobody@example.com"))

	body := map[string]any{"email": "nobody@example.com", "password": "Passw0rd!"}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", jsonBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Fields, "email")
}

func TestGetProfile_RequiresUser(t *testing.T) {
	f := newRouterFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("X-Session-ID", "sess-1")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetProfile_Success(t *testing.T) {
	f := newRouterFixture()

	f.users.On("GetByID", mock.Anything, "user-1").Return(storedUser(t, "Passw0rd!"), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", f.bearerToken(t, "user-1"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestPasswordReset_UnknownEmail_StillAccepted(t *testing.T) {
	f := newRouterFixture()

	f.users.On("GetByEmail", mock.Anything, "nobody@example.com").
		Return(nil, apperrors.NotFound("user", "nobody@example.com"))

	body := map[string]any{"email": "nobody@example.com"}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/password-reset/request", jsonBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}
