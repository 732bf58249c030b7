package service

import "errors"

// Service-level sentinel errors. Handlers map these onto the response
// envelope; everything unrecognized degrades to an internal error.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses do not reveal which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when registering an address that exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrValidation marks rejected input; the wrapping message is safe to
	// show to the client.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned when an authenticated user touches a
	// resource they do not own.
	ErrForbidden = errors.New("access denied")

	// ErrResetTokenInvalid covers expired, consumed and forged reset tokens.
	ErrResetTokenInvalid = errors.New("invalid or expired reset link")

	// ErrStateInvalid covers expired, consumed and forged OAuth state.
	ErrStateInvalid = errors.New("oauth state invalid or already used")

	// ErrProviderMismatch is returned when a state issued for one provider
	// arrives on another provider's callback.
	ErrProviderMismatch = errors.New("oauth provider mismatch")

	// ErrProviderNotConfigured is returned when a provider's credentials
	// are absent from the configuration.
	ErrProviderNotConfigured = errors.New("oauth provider not configured")

	// ErrNoEmail is returned when the provider yields no usable email.
	ErrNoEmail = errors.New("could not retrieve email from provider")

	// ErrAlreadySubscribed rejects checkout for an active subscriber.
	ErrAlreadySubscribed = errors.New("already subscribed")

	// ErrNoSubscription rejects portal access without a billing customer.
	ErrNoSubscription = errors.New("no active subscription")

	// ErrInvalidSignature is returned for webhook payloads that fail
	// signature verification.
	ErrInvalidSignature = errors.New("webhook signature verification failed")
)
