package repository

import (
	"github.com/ztas-io/analytics-api/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User       UserRepository
	Site       SiteRepository
	APIKey     APIKeyRepository
	ResetToken ResetTokenRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Site:       NewSiteRepository(db),
		APIKey:     NewAPIKeyRepository(db),
		ResetToken: NewResetTokenRepository(db),
	}
}
