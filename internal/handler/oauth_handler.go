package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ztas-io/analytics-api/internal/service"
	"go.uber.org/zap"
)

// OAuthHandler drives the browser-facing provider login flow. Success and
// failure both end in a redirect back to the front end.
type OAuthHandler struct {
	oauthService service.OAuthService
	frontendURL  string
	logger       *zap.Logger
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(oauthService service.OAuthService, frontendURL string, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{
		oauthService: oauthService,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
		logger:       logger,
	}
}

// Begin redirects the browser to the provider's authorization page with a
// fresh one-time state.
// @Summary Start provider login
// @Tags auth
// @Param provider path string true "Provider (github or google)"
// @Param plan query string false "Selected pricing plan"
// @Success 302
// @Router /api/auth/{provider} [get]
func (h *OAuthHandler) Begin(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authURL, err := h.oauthService.Begin(c.Request.Context(), provider, c.Query("plan"))
		if err != nil {
			if errors.Is(err, service.ErrProviderNotConfigured) {
				h.redirectError(c, "Login with "+provider+" is not available")
				return
			}
			h.logger.Error("failed to begin oauth flow",
				zap.String("provider", provider),
				zap.Error(err))
			h.redirectError(c, "Could not start login, please try again")
			return
		}

		c.Redirect(http.StatusFound, authURL)
	}
}

// Callback completes the provider login. The state is consumed before
// anything else is trusted: a replayed or forged state never reaches the
// code exchange.
// @Summary Provider login callback
// @Tags auth
// @Param provider path string true "Provider (github or google)"
// @Success 302
// @Router /api/auth/callback/{provider} [get]
func (h *OAuthHandler) Callback(c *gin.Context) {
	provider := c.Param("provider")

	if errParam := c.Query("error"); errParam != "" {
		h.redirectError(c, "Login was cancelled or denied")
		return
	}

	code := c.Query("code")
	if code == "" {
		h.redirectError(c, "Missing authorization code")
		return
	}

	stateID := c.Query("state")
	if stateID == "" {
		h.redirectError(c, "Missing state parameter")
		return
	}

	state, err := h.oauthService.ConsumeState(c.Request.Context(), provider, stateID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStateInvalid):
			h.redirectError(c, "Login session expired, please try again")
		case errors.Is(err, service.ErrProviderMismatch):
			h.redirectError(c, "Login session does not match this provider")
		default:
			h.logger.Error("failed to consume oauth state",
				zap.String("provider", provider),
				zap.Error(err))
			h.redirectError(c, "Could not complete login, please try again")
		}
		return
	}

	token, err := h.oauthService.Callback(c.Request.Context(), provider, code, state.Plan)
	if err != nil {
		if errors.Is(err, service.ErrNoEmail) {
			h.redirectError(c, "Could not retrieve an email address from "+provider)
			return
		}
		h.logger.Error("oauth callback failed",
			zap.String("provider", provider),
			zap.Error(err))
		h.redirectError(c, "Could not complete login, please try again")
		return
	}

	c.Redirect(http.StatusFound, h.frontendURL+"/dashboard/?auth_token="+url.QueryEscape(token))
}

func (h *OAuthHandler) redirectError(c *gin.Context, msg string) {
	c.Redirect(http.StatusFound, h.frontendURL+"/login/?error="+url.QueryEscape(msg))
}
