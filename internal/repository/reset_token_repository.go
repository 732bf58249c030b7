package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/ztas-io/analytics-api/internal/domain"
	"github.com/ztas-io/analytics-api/pkg/database"
)

// resetTokenRepository implements ResetTokenRepository interface
type resetTokenRepository struct {
	db *database.Postgres
}

// NewResetTokenRepository creates a new reset token repository
func NewResetTokenRepository(db *database.Postgres) ResetTokenRepository {
	return &resetTokenRepository{db: db}
}

// Create stores a new password-reset token
func (r *resetTokenRepository) Create(ctx context.Context, token *domain.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (token_hash, email, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		token.TokenHash,
		token.Email,
		token.ExpiresAt,
		token.CreatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("reset token already exists: %w", ErrDuplicateToken)
			}
		}
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	return nil
}

// GetByTokenHash retrieves a reset token by its hash
func (r *resetTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error) {
	query := `
		SELECT token_hash, email, expires_at, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1
	`

	token := &domain.PasswordResetToken{}

	err := r.db.DB.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.TokenHash,
		&token.Email,
		&token.ExpiresAt,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reset token not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	return token, nil
}

// DeleteByTokenHash removes a reset token. Single use: callers delete on
// consumption so a second reset with the same token fails lookup.
func (r *resetTokenRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	query := `DELETE FROM password_reset_tokens WHERE token_hash = $1`

	result, err := r.db.DB.ExecContext(ctx, query, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to delete reset token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("reset token not found: %w", ErrNotFound)
	}

	return nil
}

// DeleteExpired removes all tokens past the given instant
func (r *resetTokenRepository) DeleteExpired(ctx context.Context, before time.Time) error {
	query := `DELETE FROM password_reset_tokens WHERE expires_at < $1`

	_, err := r.db.DB.ExecContext(ctx, query, before)
	if err != nil {
		return fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}

	return nil
}
