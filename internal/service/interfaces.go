package service

import (
	"context"

	"github.com/ztas-io/analytics-api/internal/domain"
	"github.com/ztas-io/analytics-api/internal/dto"
)

// AuthService defines methods for account and session management
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	VerifyResetToken(ctx context.Context, token string) (*domain.PasswordResetToken, error)
	ResetPassword(ctx context.Context, token, password string) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	Status(ctx context.Context, userID string) (*domain.User, *domain.AccessStatus, error)
	ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error)
}

// OAuthService drives the provider authorization flow. State identifiers are
// single use: ConsumeState invalidates on first sight.
type OAuthService interface {
	Begin(ctx context.Context, provider, plan string) (string, error)
	ConsumeState(ctx context.Context, provider, stateID string) (*domain.OAuthState, error)
	Callback(ctx context.Context, provider, code, plan string) (string, error)
}

// SiteService defines methods for site registration and management
type SiteService interface {
	Create(ctx context.Context, userID, siteDomain, nickname string) (*domain.Site, error)
	Get(ctx context.Context, siteID string) (*domain.Site, error)
	List(ctx context.Context, userID string) ([]*domain.Site, error)
	Update(ctx context.Context, userID string, req *dto.UpdateSiteRequest) (*domain.Site, error)
}

// APIKeyService defines methods for programmatic credential management
type APIKeyService interface {
	Create(ctx context.Context, userID string, req *dto.CreateAPIKeyRequest) (*dto.APIKeyResponse, error)
	List(ctx context.Context, userID string) ([]*domain.APIKey, error)
	Rename(ctx context.Context, userID string, req *dto.RenameAPIKeyRequest) (*domain.APIKey, error)
	Revoke(ctx context.Context, userID, keyID string) error
}

// BillingService defines the Stripe-backed subscription operations.
type BillingService interface {
	Checkout(ctx context.Context, userID string) (string, error)
	Portal(ctx context.Context, userID string) (string, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}
