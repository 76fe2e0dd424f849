package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/linktrack/internal/models"
	"github.com/SergeiKhy/linktrack/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TrackHandler serves POST /api/track - the synchronous tracking
// ingress used when tracking is decoupled from the redirect itself.
type TrackHandler struct {
	clickProcessor service.ClickProcessor
	geo            *service.GeoService
	logger         *zap.Logger
}

func NewTrackHandler(clickProcessor service.ClickProcessor, geo *service.GeoService, logger *zap.Logger) *TrackHandler {
	return &TrackHandler{
		clickProcessor: clickProcessor,
		geo:            geo,
		logger:         logger,
	}
}

type TrackRequest struct {
	LinkID string `json:"linkId"`
}

// Track records one click event for the given link id.
func (h *TrackHandler) Track(c *gin.Context) {
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LinkID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "linkId is required",
		})
		return
	}

	linkID, err := uuid.Parse(req.LinkID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "linkId must be a UUID",
		})
		return
	}

	hints := h.geo.HintsFromHeader(c.Request.Header)
	event := &models.ClickEvent{
		LinkID:    linkID,
		IPAddress: service.ClientIP(c.Request),
		UserAgent: c.Request.UserAgent(),
		City:      hints.City,
		Country:   hints.Country,
	}

	if _, err := h.clickProcessor.Track(c.Request.Context(), event); err != nil {
		if errors.Is(err, service.ErrGeoRequired) {
			c.JSON(http.StatusBadGateway, ErrorResponse{
				Error:   "geo_unavailable",
				Message: "Geolocation is required but unavailable",
			})
			return
		}
		h.logger.Error("Failed to track click", zap.String("link_id", req.LinkID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to track click",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
