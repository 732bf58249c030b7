package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ztas-io/analytics-api/internal/dto"
	"github.com/ztas-io/analytics-api/internal/service"
)

// APIKeyHandler manages programmatic credentials.
type APIKeyHandler struct {
	keyService service.APIKeyService
}

// NewAPIKeyHandler creates a new API key handler
func NewAPIKeyHandler(keyService service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{keyService: keyService}
}

// List returns the user's keys without secrets.
// @Summary List API keys
// @Tags keys
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/keys [get]
func (h *APIKeyHandler) List(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		unauthorized(c, "User ID not found in context")
		return
	}

	keys, err := h.keyService.List(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// Create mints a new key; the plaintext secret appears in this response and
// nowhere else.
// @Summary Create an API key
// @Tags keys
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateAPIKeyRequest true "Key"
// @Success 201 {object} dto.APIKeyResponse
// @Router /api/keys [post]
func (h *APIKeyHandler) Create(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		unauthorized(c, "User ID not found in context")
		return
	}

	var req dto.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Validation failed", err.Error())
		return
	}

	resp, err := h.keyService.Create(c.Request.Context(), id, &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Rename changes a key's display name.
// @Summary Rename an API key
// @Tags keys
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.RenameAPIKeyRequest true "Rename"
// @Success 200 {object} domain.APIKey
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/keys [patch]
func (h *APIKeyHandler) Rename(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		unauthorized(c, "User ID not found in context")
		return
	}

	var req dto.RenameAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Validation failed", err.Error())
		return
	}

	key, err := h.keyService.Rename(c.Request.Context(), id, &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, key)
}

// Revoke deletes a key.
// @Summary Revoke an API key
// @Tags keys
// @Security BearerAuth
// @Produce json
// @Param keyId query string true "Key id"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/keys [delete]
func (h *APIKeyHandler) Revoke(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		unauthorized(c, "User ID not found in context")
		return
	}

	keyID := c.Query("keyId")
	if keyID == "" {
		badRequest(c, "keyId is required", nil)
		return
	}

	if err := h.keyService.Revoke(c.Request.Context(), id, keyID); err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "Key revoked"})
}
