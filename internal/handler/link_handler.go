package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/SergeiKhy/linktrack/internal/middleware"
	"github.com/SergeiKhy/linktrack/internal/models"
	"github.com/SergeiKhy/linktrack/internal/repository"
	"github.com/SergeiKhy/linktrack/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LinkHandler struct {
	service        service.LinkService
	clickProcessor service.ClickProcessor
	geo            *service.GeoService
	baseURL        string
	// fallbackURL, when set, turns the not-found response into a
	// redirect to a landing page. The policy is fixed at deployment.
	fallbackURL string
	logger      *zap.Logger
}

func NewLinkHandler(
	linkService service.LinkService,
	clickProcessor service.ClickProcessor,
	geo *service.GeoService,
	baseURL string,
	fallbackURL string,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		service:        linkService,
		clickProcessor: clickProcessor,
		geo:            geo,
		baseURL:        baseURL,
		fallbackURL:    fallbackURL,
		logger:         logger,
	}
}

type CreateLinkRequest struct {
	URL        string `json:"url" binding:"required"`
	CustomSlug string `json:"custom_slug,omitempty"`
}

type LinkResponse struct {
	ID          uuid.UUID `json:"id"`
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type UpdateLinkRequest struct {
	URL       *string `json:"url,omitempty"`
	ShortCode *string `json:"short_code,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *LinkHandler) linkResponse(link *models.Link) LinkResponse {
	return LinkResponse{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		ShortURL:    h.baseURL + "/r/" + link.ShortCode,
		OriginalURL: link.OriginalURL,
		CreatedAt:   link.CreatedAt,
	}
}

// CreateLink handles POST /api/v1/links
func (h *LinkHandler) CreateLink(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Owner identity is missing"})
		return
	}

	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	input := &models.CreateLinkInput{OriginalURL: req.URL}
	if req.CustomSlug != "" {
		input.CustomSlug = &req.CustomSlug
	}

	link, err := h.service.CreateLink(c.Request.Context(), ownerID, input)
	if err != nil {
		h.writeLinkError(c, err, "Failed to create link")
		return
	}

	c.JSON(http.StatusCreated, h.linkResponse(link))
}

// ListLinks handles GET /api/v1/links
func (h *LinkHandler) ListLinks(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Owner identity is missing"})
		return
	}

	links, err := h.service.ListLinks(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("Failed to list links", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list links",
		})
		return
	}

	response := make([]LinkResponse, 0, len(links))
	for i := range links {
		response = append(response, h.linkResponse(&links[i]))
	}
	c.JSON(http.StatusOK, response)
}

// UpdateLink handles PATCH /api/v1/links/:id
func (h *LinkHandler) UpdateLink(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Owner identity is missing"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_id", Message: "Link id must be a UUID"})
		return
	}

	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	input := &models.UpdateLinkInput{
		OriginalURL: req.URL,
		ShortCode:   req.ShortCode,
	}

	link, err := h.service.UpdateLink(c.Request.Context(), ownerID, id, input)
	if err != nil {
		h.writeLinkError(c, err, "Failed to update link")
		return
	}

	c.JSON(http.StatusOK, h.linkResponse(link))
}

// DeleteLink handles DELETE /api/v1/links/:id. Click events of the
// deleted link are kept: history outlives the link.
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Owner identity is missing"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_id", Message: "Link id must be a UUID"})
		return
	}

	if err := h.service.DeleteLink(c.Request.Context(), ownerID, id); err != nil {
		h.writeLinkError(c, err, "Failed to delete link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Link deleted successfully"})
}

// GetLinkStats handles GET /api/v1/links/:id/stats. The id is accepted
// even for a deleted link, so retained ids keep their history.
func (h *LinkHandler) GetLinkStats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_id", Message: "Link id must be a UUID"})
		return
	}

	stats, err := h.clickProcessor.GetLinkStats(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get link stats", zap.String("link_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get link stats",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Redirect handles GET /r/:code. Tracking is fire-and-forget and can
// never change the outcome of the redirect; a storage failure on
// resolve is the one infrastructure error surfaced to the user.
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	link, err := h.service.Resolve(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			h.notFound(c, code)
			return
		}
		h.logger.Error("Resolve failed", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "storage_unavailable",
			Message: "Unable to resolve link",
		})
		return
	}

	hints := h.geo.HintsFromHeader(c.Request.Header)
	event := &models.ClickEvent{
		LinkID:    link.ID,
		IPAddress: service.ClientIP(c.Request),
		UserAgent: c.Request.UserAgent(),
		City:      hints.City,
		Country:   hints.Country,
	}
	if err := h.clickProcessor.Record(c.Request.Context(), event); err != nil {
		h.logger.Debug("Failed to enqueue click (non-blocking)", zap.Error(err))
	}

	c.Redirect(http.StatusFound, link.OriginalURL)
}

func (h *LinkHandler) notFound(c *gin.Context, code string) {
	h.logger.Warn("Link not found", zap.String("code", code))
	if h.fallbackURL != "" {
		c.Redirect(http.StatusFound, h.fallbackURL)
		return
	}
	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: "Link not found",
	})
}

func (h *LinkHandler) writeLinkError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_url",
			Message: "URL must be absolute with http or https scheme",
		})
	case errors.Is(err, service.ErrInvalidSlug):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_slug",
			Message: "Custom slug must be 4-32 URL-safe characters",
		})
	case errors.Is(err, repository.ErrCodeExists):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "code_exists",
			Message: "This short code is already in use",
		})
	case errors.Is(err, service.ErrNotOwner):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: "Link belongs to another owner",
		})
	case errors.Is(err, repository.ErrLinkNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Link not found",
		})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: logMsg,
		})
	}
}
