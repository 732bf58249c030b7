package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ztas-io/analytics-api/internal/dto"
	"github.com/ztas-io/analytics-api/internal/service"
)

// SiteHandler handles site registration and management.
type SiteHandler struct {
	siteService service.SiteService
}

// NewSiteHandler creates a new site handler
func NewSiteHandler(siteService service.SiteService) *SiteHandler {
	return &SiteHandler{siteService: siteService}
}

// Create registers a new site for the authenticated user.
// @Summary Register a site
// @Tags sites
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateSiteRequest true "Site"
// @Success 201 {object} domain.Site
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/sites/create [post]
func (h *SiteHandler) Create(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		unauthorized(c, "User ID not found in context")
		return
	}

	var req dto.CreateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Validation failed", err.Error())
		return
	}

	site, err := h.siteService.Create(c.Request.Context(), id, req.Domain, req.Nickname)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, site)
}

// List returns the authenticated user's sites.
// @Summary List sites
// @Tags sites
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/sites/list [get]
func (h *SiteHandler) List(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		unauthorized(c, "User ID not found in context")
		return
	}

	sites, err := h.siteService.List(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sites": sites})
}

// Update changes a site's domain or nickname.
// @Summary Update a site
// @Tags sites
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.UpdateSiteRequest true "Site update"
// @Success 200 {object} domain.Site
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sites/update [post]
func (h *SiteHandler) Update(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		unauthorized(c, "User ID not found in context")
		return
	}

	var req dto.UpdateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Validation failed", err.Error())
		return
	}

	site, err := h.siteService.Update(c.Request.Context(), id, &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, site)
}
