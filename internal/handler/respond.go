package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ztas-io/analytics-api/internal/dto"
	"github.com/ztas-io/analytics-api/internal/repository"
	"github.com/ztas-io/analytics-api/internal/service"
)

// Stable machine-readable error codes carried in the failure envelope.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_ERROR"
)

// One constructor per error kind so every handler emits the same envelope.

func badRequest(c *gin.Context, msg string, details any) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg, Code: CodeValidation, Details: details})
}

func unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: msg, Code: CodeUnauthorized})
}

func tokenExpired(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Token expired", Code: CodeTokenExpired})
}

func forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: msg, Code: CodeForbidden})
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: msg, Code: CodeNotFound})
}

func conflict(c *gin.Context, msg string) {
	c.JSON(http.StatusConflict, dto.ErrorResponse{Error: msg, Code: CodeConflict})
}

// MethodNotAllowed is the router-level 405 handler.
func MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, dto.ErrorResponse{Error: "Method not allowed", Code: CodeMethodNotAllowed})
}

// NotFound is the router-level fallback for unmatched paths. Preflights pass
// through here after the CORS middleware has already answered them.
func NotFound(c *gin.Context) {
	if c.Writer.Written() {
		return
	}
	c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Not found", Code: CodeNotFound})
}

func rateLimited(c *gin.Context, retryAfter int) {
	c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{
		Error:   "Too many requests, please try again later",
		Code:    CodeRateLimited,
		Details: gin.H{"retryAfterSeconds": retryAfter},
	})
}

// internalError hides the cause from the client; the caller logs it.
func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error", Code: CodeInternal})
}

// serviceError maps known service sentinels onto envelope responses and
// degrades everything else to a generic internal error.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		badRequest(c, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		unauthorized(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		forbidden(c, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		conflict(c, err.Error())
	case errors.Is(err, service.ErrResetTokenInvalid):
		badRequest(c, err.Error(), nil)
	case errors.Is(err, service.ErrAlreadySubscribed), errors.Is(err, service.ErrNoSubscription):
		badRequest(c, err.Error(), nil)
	case errors.Is(err, repository.ErrNotFound):
		notFound(c, "Not found")
	case errors.Is(err, repository.ErrDuplicateEmail):
		conflict(c, "Email already registered")
	case errors.Is(err, repository.ErrDuplicateSite):
		conflict(c, "Site already registered")
	default:
		internalError(c)
	}
}
