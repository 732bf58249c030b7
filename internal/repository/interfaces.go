package repository

import (
	"context"
	"time"

	"github.com/ztas-io/analytics-api/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, email, passwordHash string) error
	UpdateOAuthProvider(ctx context.Context, email, provider, providerID string) error
	UpdateSubscription(ctx context.Context, userID string, sub *domain.Subscription) error
}

// SiteRepository defines methods for site operations
type SiteRepository interface {
	Create(ctx context.Context, site *domain.Site) error
	GetByID(ctx context.Context, id string) (*domain.Site, error)
	ListByUserID(ctx context.Context, userID string) ([]*domain.Site, error)
	Update(ctx context.Context, site *domain.Site) error
}

// APIKeyRepository defines methods for API key operations
type APIKeyRepository interface {
	Create(ctx context.Context, key *domain.APIKey) error
	ListByUserID(ctx context.Context, userID string) ([]*domain.APIKey, error)
	Rename(ctx context.Context, keyID, userID, name string) (*domain.APIKey, error)
	Delete(ctx context.Context, keyID, userID string) error
}

// ResetTokenRepository defines methods for password-reset token operations.
// Tokens are stored hashed and consumed at most once.
type ResetTokenRepository interface {
	Create(ctx context.Context, token *domain.PasswordResetToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, before time.Time) error
}
