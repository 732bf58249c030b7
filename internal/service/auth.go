package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ztas-io/analytics-api/internal/domain"
	"github.com/ztas-io/analytics-api/internal/dto"
	"github.com/ztas-io/analytics-api/internal/repository"
	"github.com/ztas-io/analytics-api/internal/utils"
)

// authService implements AuthService interface
type authService struct {
	users            repository.UserRepository
	resetTokens      repository.ResetTokenRepository
	sites            SiteService
	jwtManager       *utils.JWTManager
	bcryptCost       int
	trialPeriod      time.Duration
	resetTokenExpiry time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repository.UserRepository,
	resetTokens repository.ResetTokenRepository,
	sites SiteService,
	jwtManager *utils.JWTManager,
	bcryptCost int,
	trialPeriod time.Duration,
	resetTokenExpiry time.Duration,
) AuthService {
	return &authService{
		users:            users,
		resetTokens:      resetTokens,
		sites:            sites,
		jwtManager:       jwtManager,
		bcryptCost:       bcryptCost,
		trialPeriod:      trialPeriod,
		resetTokenExpiry: resetTokenExpiry,
	}
}

// Register creates a new account with a trial and, when a domain is given,
// the user's first tracked site.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if !utils.ValidateEmail(req.Email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
	}

	if !utils.ValidatePassword(req.Password) {
		return nil, fmt.Errorf("%w: password must be at least 8 characters long and contain uppercase, lowercase, and number", ErrValidation)
	}

	plan := req.Plan
	if !domain.ValidPlan(plan) {
		plan = domain.PlanPro
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        utils.SanitizeEmail(req.Email),
		PasswordHash: passwordHash,
		Plan:         plan,
		TrialEndsAt:  time.Now().Add(s.trialPeriod),
	}

	// The unique constraint is the duplicate check; a get-then-create
	// sequence would race between concurrent registrations.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if req.Domain != "" {
		// Account creation already succeeded; the site can be added later.
		_, _ = s.sites.Create(ctx, user.ID, req.Domain, "")
	}

	return s.authResponse(user)
}

// Login authenticates a user
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.PasswordHash == "" || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.authResponse(user)
}

// ForgotPassword issues a reset token when the account exists. The caller
// gets the same outward answer either way, so the endpoint cannot be used to
// enumerate accounts; the token only travels through the email pipeline.
func (s *authService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = utils.SanitizeEmail(email)

	_, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	record := &domain.PasswordResetToken{
		TokenHash: hashToken(token),
		Email:     email,
		ExpiresAt: time.Now().Add(s.resetTokenExpiry),
	}

	if err := s.resetTokens.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	return token, nil
}

// VerifyResetToken checks a token without consuming it.
func (s *authService) VerifyResetToken(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	record, err := s.resetTokens.GetByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	if time.Now().After(record.ExpiresAt) {
		return nil, ErrResetTokenInvalid
	}

	return record, nil
}

// ResetPassword consumes a reset token and replaces the user's password.
// The token is deleted before the new hash is written, so a concurrent
// replay finds nothing.
func (s *authService) ResetPassword(ctx context.Context, token, password string) error {
	if !utils.ValidatePassword(password) {
		return fmt.Errorf("%w: password must be at least 8 characters long and contain uppercase, lowercase, and number", ErrValidation)
	}

	record, err := s.VerifyResetToken(ctx, token)
	if err != nil {
		return err
	}

	if err := s.resetTokens.DeleteByTokenHash(ctx, record.TokenHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	passwordHash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, record.Email, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// GetUser gets a user by id
func (s *authService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Status computes the user's entitlement view.
func (s *authService) Status(ctx context.Context, userID string) (*domain.User, *domain.AccessStatus, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	status := user.Access(time.Now())
	return user, &status, nil
}

// ValidateToken validates a session token
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error) {
	return s.jwtManager.Validate(token)
}

func (s *authService) authResponse(user *domain.User) (*dto.AuthResponse, error) {
	token, err := s.jwtManager.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &dto.AuthResponse{
		Success: true,
		Token:   token,
		User: dto.UserInfo{
			ID:          user.ID,
			Email:       user.Email,
			Plan:        user.Plan,
			TrialEndsAt: user.TrialEndsAt.Format(time.RFC3339),
		},
	}, nil
}

// hashToken hashes a token using SHA256
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
