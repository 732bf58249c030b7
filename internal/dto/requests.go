package dto

// RegisterRequest represents a registration request. Domain optionally
// registers the user's first site in the same call.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Plan     string `json:"plan"`
	Domain   string `json:"domain"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest asks for a password-reset token to be issued.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest consumes a reset token and sets a new password.
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// CreateSiteRequest registers a site for tracking.
type CreateSiteRequest struct {
	Domain   string `json:"domain" binding:"required"`
	Nickname string `json:"nickname"`
}

// UpdateSiteRequest mutates a site's domain and/or nickname. A nickname of
// "" clears it; a nil Nickname leaves it untouched.
type UpdateSiteRequest struct {
	SiteID   string  `json:"siteId" binding:"required"`
	Domain   string  `json:"domain"`
	Nickname *string `json:"nickname"`
}

// CreateAPIKeyRequest creates a programmatic credential.
type CreateAPIKeyRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// RenameAPIKeyRequest renames an existing key.
type RenameAPIKeyRequest struct {
	KeyID string `json:"keyId" binding:"required"`
	Name  string `json:"name" binding:"required"`
}

// TrackRequest is one event from the browser snippet. Type defaults to
// pageview, which is also the legacy untyped payload.
type TrackRequest struct {
	Type     string `json:"type"`
	SiteID   string `json:"siteId" binding:"required"`
	Path     string `json:"path"`
	Referrer string `json:"referrer"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// AuthResponse represents an authentication response
type AuthResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    UserInfo `json:"user"`
}

// UserInfo represents user information in response
type UserInfo struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Plan        string `json:"plan"`
	TrialEndsAt string `json:"trialEndsAt,omitempty"`
}

// APIKeyResponse carries a freshly created key; Secret is only ever set here.
type APIKeyResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Prefix      string   `json:"prefix"`
	Permissions []string `json:"permissions"`
	Secret      string   `json:"secret"`
	Message     string   `json:"message"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the failure envelope: a human message, a stable machine
// code, and optional structured detail.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}
