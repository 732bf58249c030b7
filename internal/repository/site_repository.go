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

// siteRepository implements SiteRepository interface
type siteRepository struct {
	db *database.Postgres
}

// NewSiteRepository creates a new site repository
func NewSiteRepository(db *database.Postgres) SiteRepository {
	return &siteRepository{db: db}
}

// Create registers a new site
func (r *siteRepository) Create(ctx context.Context, site *domain.Site) error {
	query := `
		INSERT INTO sites (id, user_id, domain, nickname, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if site.CreatedAt.IsZero() {
		site.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		site.ID,
		site.UserID,
		site.Domain,
		site.Nickname,
		site.CreatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("site %s already exists: %w", site.ID, ErrDuplicateSite)
			}
		}
		return fmt.Errorf("failed to create site: %w", err)
	}

	return nil
}

// GetByID retrieves a site by its public identifier
func (r *siteRepository) GetByID(ctx context.Context, id string) (*domain.Site, error) {
	query := `
		SELECT id, user_id, domain, nickname, created_at
		FROM sites
		WHERE id = $1
	`

	site := &domain.Site{}
	var nickname sql.NullString

	err := r.db.DB.QueryRowContext(ctx, query, id).Scan(
		&site.ID,
		&site.UserID,
		&site.Domain,
		&nickname,
		&site.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("site with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get site by id: %w", err)
	}

	if nickname.Valid {
		site.Nickname = &nickname.String
	}

	return site, nil
}

// ListByUserID retrieves all sites owned by a user
func (r *siteRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Site, error) {
	query := `
		SELECT id, user_id, domain, nickname, created_at
		FROM sites
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites by user id: %w", err)
	}
	defer rows.Close()

	var sites []*domain.Site
	for rows.Next() {
		site := &domain.Site{}
		var nickname sql.NullString

		err := rows.Scan(
			&site.ID,
			&site.UserID,
			&site.Domain,
			&nickname,
			&site.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}

		if nickname.Valid {
			site.Nickname = &nickname.String
		}

		sites = append(sites, site)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sites: %w", err)
	}

	return sites, nil
}

// Update rewrites a site's mutable fields (domain and nickname)
func (r *siteRepository) Update(ctx context.Context, site *domain.Site) error {
	query := `
		UPDATE sites
		SET domain = $2, nickname = $3
		WHERE id = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, site.ID, site.Domain, site.Nickname)
	if err != nil {
		return fmt.Errorf("failed to update site: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("site with id %s not found: %w", site.ID, ErrNotFound)
	}

	return nil
}
