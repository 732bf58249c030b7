package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ztas-io/analytics-api/internal/dto"
	"github.com/ztas-io/analytics-api/internal/service"
	"go.uber.org/zap"
)

// AuthHandler handles registration, login and the password-reset flow.
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Register a new user, optionally with a first tracked site
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Validation failed", err.Error())
		return
	}

	response, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.logger.Debug("registration rejected", zap.Error(err))
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// Login handles user login
// @Summary Login user
// @Description Authenticate user with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Validation failed", err.Error())
		return
	}

	response, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ForgotPassword issues a password-reset token. The answer is identical
// whether or not the account exists.
// @Summary Request a password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Forgot password request"
// @Success 200 {object} dto.SuccessResponse
// @Router /api/auth/forgot [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Validation failed", err.Error())
		return
	}

	if _, err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.logger.Error("failed to issue reset token", zap.Error(err))
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Success: true,
		Message: "If that email is registered, a reset link is on its way",
	})
}

// VerifyResetToken checks a reset token without consuming it.
// @Summary Verify a password-reset token
// @Tags auth
// @Produce json
// @Param token query string true "Reset token"
// @Success 200 {object} map[string]any
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/auth/verify-reset-token [get]
func (h *AuthHandler) VerifyResetToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		badRequest(c, "Token is required", nil)
		return
	}

	record, err := h.authService.VerifyResetToken(c.Request.Context(), token)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":     true,
		"expiresAt": record.ExpiresAt.Format(time.RFC3339),
	})
}

// ResetPassword consumes a reset token and sets a new password.
// @Summary Reset password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Reset password request"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/auth/reset [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Validation failed", err.Error())
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Success: true,
		Message: "Password updated",
	})
}

// UserStatus reports the authenticated user's plan and entitlement.
// @Summary Get subscription status
// @Tags user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.AccessStatus
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/user/status [get]
func (h *AuthHandler) UserStatus(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		unauthorized(c, "User ID not found in context")
		return
	}

	_, status, err := h.authService.Status(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
