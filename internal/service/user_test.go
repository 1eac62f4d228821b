package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/auth"
	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/domain"
	apperrors "github.com/scottjosephstudio/sohcahtoa-sub000/pkg/errors"
)

// --- Mock user repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepository) CreatePasswordReset(ctx context.Context, pr *domain.PasswordReset) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}

func (m *mockUserRepository) GetPasswordResetByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordReset, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PasswordReset), args.Error(1)
}

func (m *mockUserRepository) MarkPasswordResetUsed(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newUserService(repo *mockUserRepository) *UserService {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	return NewUserService(repo, jwtManager, newTestLogger())
}

func activeUser(password string) *domain.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &domain.User{
		ID:           "u-1",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		FirstName:    "Alice",
		LastName:     "Smith",
		IsActive:     true,
	}
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newUserService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "alice@example.com" && u.PasswordHash != "" && u.PasswordHash != "Passw0rd!"
	})).Return(nil)

	user, token, err := svc.Register(ctx, RegisterInput{
		Email:     "alice@example.com",
		Password:  "Passw0rd!",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, token)
	repo.AssertExpectations(t)
}

func TestRegister_WeakPassword(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newUserService(repo)

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:     "alice@example.com",
		Password:  "short",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newUserService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).
		Return(apperrors.AlreadyExists("user", "email", "alice@example.com"))

	_, _, err := svc.Register(ctx, RegisterInput{
		Email:     "alice@example.com",
		Password:  "Passw0rd!",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newUserService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "alice@example.com").Return(activeUser("Passw0rd!"), nil)

	user, token, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "Passw0rd!"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.NotEmpty(t, token)
}

func TestLogin_UnknownEmailHasFieldError(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newUserService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "nobody@example.com").
		Return(nil, apperrors.NotFound("user", "nobody@example.com"))

	_, _, err := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "Passw0rd!"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "email")
	assert.NotContains(t, appErr.Fields, "password")
}

func TestLogin_WrongPasswordHasFieldError(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newUserService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "alice@example.com").Return(activeUser("Passw0rd!"), nil)

	_, _, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-pass"})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "password")
	assert.NotContains(t, appErr.Fields, "email")
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newUserService(repo)
	ctx := context.Background()

	u := activeUser("Passw0rd!")
	u.IsActive = false
	repo.On("GetByEmail", ctx, "alice@example.com").Return(u, nil)

	_, _, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "Passw0rd!"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// --- Password reset ---

func TestRequestPasswordReset_UnknownEmailIsQuiet(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newUserService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "nobody@example.com").
		Return(nil, apperrors.NotFound("user", "nobody@example.com"))

	token, err := svc.RequestPasswordReset(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)
	repo.AssertNotCalled(t, "CreatePasswordReset", mock.Anything, mock.Anything)
}

func TestRequestPasswordReset_IssuesToken(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newUserService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "alice@example.com").Return(activeUser("Passw0rd!"), nil)
	repo.On("CreatePasswordReset", ctx, mock.MatchedBy(func(pr *domain.PasswordReset) bool {
		return pr.UserID == "u-1" && pr.TokenHash != ""
	})).Return(nil)

	token, err := svc.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	repo.AssertExpectations(t)
}

func TestResetPassword_Success(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newUserService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "alice@example.com").Return(activeUser("OldPass1!"), nil)
	repo.On("CreatePasswordReset", ctx, mock.Anything).Return(nil)

	token, err := svc.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)

	now := time.Now().UTC()
	pr := &domain.PasswordReset{
		ID:        "pr-1",
		UserID:    "u-1",
		TokenHash: hashToken(token),
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	repo.On("GetPasswordResetByTokenHash", ctx, hashToken(token)).Return(pr, nil)
	repo.On("GetByID", ctx, "u-1").Return(activeUser("OldPass1!"), nil)
	repo.On("Update", ctx, mock.Anything).Return(nil)
	repo.On("MarkPasswordResetUsed", ctx, "pr-1").Return(nil)

	err = svc.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "NewPass1!"})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newUserService(repo)
	ctx := context.Background()

	now := time.Now().UTC()
	pr := &domain.PasswordReset{
		ID:        "pr-1",
		UserID:    "u-1",
		TokenHash: hashToken("tok"),
		ExpiresAt: now.Add(-time.Minute),
		CreatedAt: now.Add(-2 * time.Hour),
	}
	repo.On("GetPasswordResetByTokenHash", ctx, hashToken("tok")).Return(pr, nil)

	err := svc.ResetPassword(ctx, ResetPasswordInput{Token: "tok", NewPassword: "NewPass1!"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
