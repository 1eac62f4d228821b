package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/auth"
	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/domain"
	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/repository"
	apperrors "github.com/scottjosephstudio/sohcahtoa-sub000/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// passwordResetTTL is how long a reset token stays redeemable.
const passwordResetTTL = time.Hour

// RegisterInput holds the parameters for registering a new buyer.
type RegisterInput struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Street       string `json:"street" validate:"max=200"`
	City         string `json:"city" validate:"max=100"`
	PostalCode   string `json:"postal_code" validate:"max=20"`
	Country      string `json:"country" validate:"max=2"`
	NewsletterIn bool   `json:"newsletter_opt_in"`
}

// LoginInput holds the parameters for logging in.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetPasswordInput holds the parameters for redeeming a reset token.
type ResetPasswordInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// UserService implements account and authentication logic.
type UserService struct {
	users      repository.UserRepository
	jwtManager *auth.JWTManager
	logger     *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, jwtManager *auth.JWTManager, logger *slog.Logger) *UserService {
	return &UserService{
		users:      users,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Register creates a new account, hashes the password, and returns the user
// with a signed access token.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, error) {
	if input.Email == "" {
		return nil, "", apperrors.InvalidInput("email is required")
	}
	if input.FirstName == "" {
		return nil, "", apperrors.InvalidInput("first name is required")
	}
	if input.LastName == "" {
		return nil, "", apperrors.InvalidInput("last name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, "", err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Street:       input.Street,
		City:         input.City,
		PostalCode:   input.PostalCode,
		Country:      input.Country,
		NewsletterIn: input.NewsletterIn,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, token, nil
}

// Login authenticates a buyer. Failures carry a field-level message so the
// form can point at the offending input rather than showing a generic banner.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.User, string, error) {
	if input.Email == "" {
		return nil, "", apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, "", apperrors.InvalidInput("password is required")
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, "", apperrors.Unauthorized("login failed").WithField("email", "no account found with this email")
	}

	if !user.IsActive {
		return nil, "", apperrors.Unauthorized("account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", apperrors.Unauthorized("login failed").WithField("password", "incorrect password")
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return user, token, nil
}

// GetProfile returns the user's account details.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	return s.users.GetByID(ctx, userID)
}

// RequestPasswordReset issues a single-use reset token for the account. The
// plain token is returned so the caller can deliver it; an unknown email
// reports success without issuing anything, so the endpoint cannot be used to
// probe which addresses have accounts.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", apperrors.InvalidInput("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.InfoContext(ctx, "password reset requested for unknown email")
		return "", nil
	}

	token, err := randomToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	now := time.Now().UTC()
	pr := &domain.PasswordReset{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: now.Add(passwordResetTTL),
		CreatedAt: now,
	}
	if err := s.users.CreatePasswordReset(ctx, pr); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset issued",
		slog.String("user_id", user.ID),
	)

	return token, nil
}

// ResetPassword redeems a reset token and replaces the account password.
func (s *UserService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if input.Token == "" {
		return apperrors.InvalidInput("token is required")
	}
	if err := validatePassword(input.NewPassword); err != nil {
		return err
	}

	pr, err := s.users.GetPasswordResetByTokenHash(ctx, hashToken(input.Token))
	if err != nil {
		return apperrors.Unauthorized("invalid or expired reset token")
	}
	if !pr.IsUsable(time.Now().UTC()) {
		return apperrors.Unauthorized("invalid or expired reset token")
	}

	user, err := s.users.GetByID(ctx, pr.UserID)
	if err != nil {
		return fmt.Errorf("get user for reset: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashedPassword)

	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.users.MarkPasswordResetUsed(ctx, pr.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark reset token used",
			slog.String("reset_id", pr.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// validatePassword enforces the minimum password policy.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
