package domain

import "time"

// TokenClaims represents the session JWT claims.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
}

// IsExpired checks if the token is expired
func (tc TokenClaims) IsExpired() bool {
	return time.Now().Unix() > tc.Exp
}

// PasswordResetToken is a single-use, time-bounded credential. Only the
// SHA-256 of the token is stored.
type PasswordResetToken struct {
	TokenHash string    `json:"-" db:"token_hash"`
	Email     string    `json:"email" db:"email"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// OAuthState is the server-side record behind an in-flight authorization
// attempt, keyed by the opaque state identifier sent to the provider.
// It validates successfully at most once.
type OAuthState struct {
	CSRF      string    `json:"csrf"`
	Plan      string    `json:"plan"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}
