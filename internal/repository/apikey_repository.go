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

// apiKeyRepository implements APIKeyRepository interface
type apiKeyRepository struct {
	db *database.Postgres
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(db *database.Postgres) APIKeyRepository {
	return &apiKeyRepository{db: db}
}

// Create stores a new API key. Only the secret hash is persisted.
func (r *apiKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	query := `
		INSERT INTO api_keys (id, user_id, name, prefix, secret_hash, permissions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if key.ID == "" {
		key.ID = uuid.New().String()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		key.ID,
		key.UserID,
		key.Name,
		key.Prefix,
		key.SecretHash,
		pq.Array(key.Permissions),
		key.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	return nil
}

// ListByUserID retrieves all keys owned by a user
func (r *apiKeyRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.APIKey, error) {
	query := `
		SELECT id, user_id, name, prefix, secret_hash, permissions, created_at, last_used_at
		FROM api_keys
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*domain.APIKey
	for rows.Next() {
		key := &domain.APIKey{}
		var lastUsedAt sql.NullTime

		err := rows.Scan(
			&key.ID,
			&key.UserID,
			&key.Name,
			&key.Prefix,
			&key.SecretHash,
			pq.Array(&key.Permissions),
			&key.CreatedAt,
			&lastUsedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}

		if lastUsedAt.Valid {
			key.LastUsedAt = &lastUsedAt.Time
		}

		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate api keys: %w", err)
	}

	return keys, nil
}

// Rename updates a key's name, scoped to its owner.
func (r *apiKeyRepository) Rename(ctx context.Context, keyID, userID, name string) (*domain.APIKey, error) {
	query := `
		UPDATE api_keys
		SET name = $3
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, prefix, secret_hash, permissions, created_at, last_used_at
	`

	key := &domain.APIKey{}
	var lastUsedAt sql.NullTime

	err := r.db.DB.QueryRowContext(ctx, query, keyID, userID, name).Scan(
		&key.ID,
		&key.UserID,
		&key.Name,
		&key.Prefix,
		&key.SecretHash,
		pq.Array(&key.Permissions),
		&key.CreatedAt,
		&lastUsedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("api key with id %s not found: %w", keyID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to rename api key: %w", err)
	}

	if lastUsedAt.Valid {
		key.LastUsedAt = &lastUsedAt.Time
	}

	return key, nil
}

// Delete revokes a key, scoped to its owner.
func (r *apiKeyRepository) Delete(ctx context.Context, keyID, userID string) error {
	query := `DELETE FROM api_keys WHERE id = $1 AND user_id = $2`

	result, err := r.db.DB.ExecContext(ctx, query, keyID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("api key with id %s not found: %w", keyID, ErrNotFound)
	}

	return nil
}
