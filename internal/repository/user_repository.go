package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/ztas-io/analytics-api/internal/domain"
	"github.com/ztas-io/analytics-api/pkg/database"
)

const userColumns = `id, email, password_hash, name, plan, trial_ends_at,
	oauth_provider, oauth_provider_id,
	subscription_status, stripe_customer_id, stripe_subscription_id, current_period_end,
	created_at, updated_at`

// userRepository implements UserRepository interface
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, plan, trial_ends_at,
			oauth_provider, oauth_provider_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	// Generate UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Plan,
		user.TrialEndsAt,
		user.OAuthProvider,
		user.OAuthProviderID,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		// Check for unique constraint violation (duplicate email)
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("user with email %s already exists: %w", user.Email, ErrDuplicateEmail)
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)

	user, err := r.scanUser(r.db.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	user, err := r.scanUser(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// GetByStripeCustomerID retrieves the user owning a Stripe customer. Used by
// webhook handlers, which only know the billing provider's identifier.
func (r *userRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE stripe_customer_id = $1`, userColumns)

	user, err := r.scanUser(r.db.DB.QueryRowContext(ctx, query, customerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with stripe customer %s not found: %w", customerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by stripe customer: %w", err)
	}

	return user, nil
}

// UpdatePasswordHash replaces the stored password hash for the given email.
func (r *userRepository) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = $3
		WHERE email = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, email, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return r.requireRow(result, fmt.Sprintf("user with email %s", email))
}

// UpdateOAuthProvider attaches an OAuth identity to an existing user.
func (r *userRepository) UpdateOAuthProvider(ctx context.Context, email, provider, providerID string) error {
	query := `
		UPDATE users
		SET oauth_provider = $2, oauth_provider_id = $3, updated_at = $4
		WHERE email = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, email, provider, providerID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update oauth provider: %w", err)
	}

	return r.requireRow(result, fmt.Sprintf("user with email %s", email))
}

// UpdateSubscription overwrites the user's billing state. A nil sub clears it.
func (r *userRepository) UpdateSubscription(ctx context.Context, userID string, sub *domain.Subscription) error {
	query := `
		UPDATE users
		SET subscription_status = $2, stripe_customer_id = $3,
			stripe_subscription_id = $4, current_period_end = $5, updated_at = $6
		WHERE id = $1
	`

	var status, customerID, subscriptionID sql.NullString
	var periodEnd sql.NullTime
	if sub != nil {
		status = sql.NullString{String: sub.Status, Valid: true}
		customerID = sql.NullString{String: sub.CustomerID, Valid: sub.CustomerID != ""}
		subscriptionID = sql.NullString{String: sub.SubscriptionID, Valid: sub.SubscriptionID != ""}
		if sub.CurrentPeriodEnd != nil {
			periodEnd = sql.NullTime{Time: *sub.CurrentPeriodEnd, Valid: true}
		}
	}

	result, err := r.db.DB.ExecContext(ctx, query, userID, status, customerID, subscriptionID, periodEnd, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	return r.requireRow(result, fmt.Sprintf("user with id %s", userID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *userRepository) scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var name, provider, providerID sql.NullString
	var subStatus, customerID, subscriptionID sql.NullString
	var periodEnd sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&name,
		&user.Plan,
		&user.TrialEndsAt,
		&provider,
		&providerID,
		&subStatus,
		&customerID,
		&subscriptionID,
		&periodEnd,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Name = name.String
	if provider.Valid {
		user.OAuthProvider = &provider.String
	}
	if providerID.Valid {
		user.OAuthProviderID = &providerID.String
	}
	if subStatus.Valid {
		user.Subscription = &domain.Subscription{
			Status:         subStatus.String,
			CustomerID:     customerID.String,
			SubscriptionID: subscriptionID.String,
		}
		if periodEnd.Valid {
			user.Subscription.CurrentPeriodEnd = &periodEnd.Time
		}
	}

	return user, nil
}

func (r *userRepository) requireRow(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s not found: %w", what, ErrNotFound)
	}

	return nil
}
