package domain

import "time"

// API key permissions.
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
	PermissionAdmin = "admin"
)

// APIKey is a programmatic credential. Only the SHA-256 of the secret is
// stored; the plaintext is surfaced exactly once, at creation.
type APIKey struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"-" db:"user_id"`
	Name        string     `json:"name" db:"name"`
	Prefix      string     `json:"prefix" db:"prefix"`
	SecretHash  string     `json:"-" db:"secret_hash"`
	Permissions []string   `json:"permissions" db:"permissions"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
}

// FilterPermissions drops unknown permission names and defaults an empty
// result to read-only, matching the creation contract.
func FilterPermissions(requested []string) []string {
	var perms []string
	for _, p := range requested {
		switch p {
		case PermissionRead, PermissionWrite, PermissionAdmin:
			perms = append(perms, p)
		}
	}
	if len(perms) == 0 {
		perms = []string{PermissionRead}
	}
	return perms
}
