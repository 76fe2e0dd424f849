package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/SergeiKhy/linktrack/internal/middleware"
	"github.com/SergeiKhy/linktrack/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatsHandler serves GET /api/v1/stats - the aggregate report over
// all links of the authenticated owner.
type StatsHandler struct {
	analytics service.AnalyticsService
	logger    *zap.Logger
}

func NewStatsHandler(analytics service.AnalyticsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{analytics: analytics, logger: logger}
}

// GetStats builds the report for the requested range: the current week
// starting Monday (default) or a specific calendar month. The timezone
// of the day buckets is request-supplied, UTC when omitted.
func (h *StatsHandler) GetStats(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Owner identity is missing"})
		return
	}

	loc := time.UTC
	if tz := c.Query("tz"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_timezone",
				Message: "tz must be a valid IANA timezone name",
			})
			return
		}
		loc = parsed
	}

	now := time.Now().In(loc)

	var tr service.TimeRange
	switch c.DefaultQuery("range", "week") {
	case "week":
		tr = service.WeekRange(now, loc)
	case "month":
		year := now.Year()
		month := int(now.Month())
		if q := c.Query("year"); q != "" {
			parsed, err := strconv.Atoi(q)
			if err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_year", Message: "year must be a number"})
				return
			}
			year = parsed
		}
		if q := c.Query("month"); q != "" {
			parsed, err := strconv.Atoi(q)
			if err != nil || parsed < 1 || parsed > 12 {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_month", Message: "month must be 1-12"})
				return
			}
			month = parsed
		}
		tr = service.MonthRange(year, time.Month(month), loc)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_range",
			Message: "range must be week or month",
		})
		return
	}

	report, err := h.analytics.Aggregate(c.Request.Context(), ownerID, tr)
	if err != nil {
		h.logger.Error("Failed to aggregate stats", zap.String("owner_id", ownerID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to aggregate stats",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
