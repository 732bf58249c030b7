package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ztas-io/analytics-api/internal/service"
	"go.uber.org/zap"
)

// StatsHandler serves aggregated per-site analytics.
type StatsHandler struct {
	statsService *service.StatsService
	siteService  service.SiteService
	logger       *zap.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *service.StatsService, siteService service.SiteService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		siteService:  siteService,
		logger:       logger,
	}
}

// Summary returns totals and the per-day series for one site. Explicit
// startDate/endDate win over the period preset; a start after end yields
// zero totals and an empty series.
// @Summary Get site stats
// @Tags stats
// @Security BearerAuth
// @Produce json
// @Param siteId query string true "Site id"
// @Param period query string false "Preset: 24h, 7d, 30d, 90d, 365d"
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD"
// @Success 200 {object} domain.StatsSummary
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/stats [get]
func (h *StatsHandler) Summary(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		unauthorized(c, "User ID not found in context")
		return
	}

	siteID := c.Query("siteId")
	if siteID == "" {
		badRequest(c, "siteId is required", nil)
		return
	}

	site, err := h.siteService.Get(c.Request.Context(), siteID)
	if err != nil {
		serviceError(c, err)
		return
	}
	if site.UserID != id {
		forbidden(c, "You do not own this site")
		return
	}

	start, end, err := resolveRange(c.Query("period"), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		badRequest(c, "Dates must be formatted YYYY-MM-DD", nil)
		return
	}

	summary, err := h.statsService.Summary(c.Request.Context(), siteID, start, end)
	if err != nil {
		h.logger.Error("failed to read stats",
			zap.String("site_id", siteID),
			zap.Error(err))
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// resolveRange picks explicit dates when both are present, otherwise falls
// back to the period preset.
func resolveRange(period, startDate, endDate string) (time.Time, time.Time, error) {
	if startDate != "" && endDate != "" {
		start, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, end, nil
	}

	start, end := service.PeriodRange(period, time.Now().UTC())
	return start, end, nil
}
