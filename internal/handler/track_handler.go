package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ztas-io/analytics-api/internal/dto"
	"github.com/ztas-io/analytics-api/internal/service"
	"github.com/ztas-io/analytics-api/internal/utils"
	"go.uber.org/zap"
)

// TrackHandler ingests events from the browser snippet. The endpoint is
// deliberately open to any origin at the CORS level; instead of an
// allow-list, the request Origin is checked against the target site's
// registered domain.
type TrackHandler struct {
	statsService *service.StatsService
	siteService  service.SiteService
	logger       *zap.Logger
}

// NewTrackHandler creates a new tracking handler
func NewTrackHandler(statsService *service.StatsService, siteService service.SiteService, logger *zap.Logger) *TrackHandler {
	return &TrackHandler{
		statsService: statsService,
		siteService:  siteService,
		logger:       logger,
	}
}

// CORS answers the snippet's preflight and stamps the open-origin headers
// on every tracking response.
func (h *TrackHandler) CORS(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	c.Next()
}

// Track records one pageview or custom event.
// @Summary Ingest a tracking event
// @Tags track
// @Accept json
// @Produce json
// @Param request body dto.TrackRequest true "Event"
// @Success 200 {object} dto.SuccessResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/track [post]
func (h *TrackHandler) Track(c *gin.Context) {
	var req dto.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Validation failed", err.Error())
		return
	}

	site, err := h.siteService.Get(c.Request.Context(), req.SiteID)
	if err != nil {
		serviceError(c, err)
		return
	}

	// A missing Origin is allowed: server-side and native clients do not
	// send one. A present Origin must match the registered domain.
	if origin := c.Request.Header.Get("Origin"); origin != "" {
		if !originMatchesDomain(origin, site.Domain) {
			forbidden(c, "Origin does not match the registered site domain")
			return
		}
	}

	visitor := service.VisitorHash(c.ClientIP(), c.Request.UserAgent(), site.ID)

	switch req.Type {
	case "event":
		err = h.statsService.RecordEvent(c.Request.Context(), site.ID, visitor, req.Category, req.Action)
	default:
		// Untyped legacy payloads and unknown types count as pageviews.
		err = h.statsService.Record(c.Request.Context(), site.ID, visitor, req.Path, utils.NormalizeDomain(req.Referrer))
	}
	if err != nil {
		h.logger.Error("failed to record event",
			zap.String("site_id", site.ID),
			zap.Error(err))
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// originMatchesDomain accepts an exact host match or the www variant in
// either direction.
func originMatchesDomain(origin, siteDomain string) bool {
	host := utils.NormalizeDomain(origin)
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	if host == siteDomain {
		return true
	}
	return strings.TrimPrefix(host, "www.") == strings.TrimPrefix(siteDomain, "www.")
}
