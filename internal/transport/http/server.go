package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"gallery_api/internal/lib/jwt"
	"gallery_api/internal/lib/logger/sl"
	"gallery_api/internal/notification"
	services "gallery_api/internal/services/gallery_service"
	"gallery_api/internal/transport/http/dto"
	"gallery_api/internal/transport/http/dto/response"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const maxNotificationSize = 256 << 10

type GalleryService interface {
	CreateGallery(ctx context.Context, ownerID string, req dto.CreateGalleryRequest) (*dto.GalleryResponse, error)
	GetGallery(ctx context.Context, ownerID, itemID string) (*dto.GalleryResponse, error)
	ListGalleries(ctx context.Context, ownerID string, limit int, pageToken string) (dto.ListGalleriesResponse, error)
	GetBatch(ctx context.Context, ids map[string]string) ([]dto.GalleryResponse, error)
	DeleteGallery(ctx context.Context, ownerID, itemID string) error
	UpsertImage(ctx context.Context, ownerID, itemID string, req dto.UpsertImageRequest) (dto.UpsertImageResult, error)
}

type NotificationListener interface {
	Handle(ctx context.Context, raw []byte) notification.Outcome
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Routers struct {
	log            *slog.Logger
	GalleryService GalleryService
	Listener       NotificationListener
	health         []HealthChecker
}

func NewRouter(log *slog.Logger, galleryService GalleryService, listener NotificationListener, health ...HealthChecker) *Routers {
	return &Routers{
		log:            log,
		GalleryService: galleryService,
		Listener:       listener,
		health:         health,
	}
}

// Health reports whether every backing store answers.
func (r *Routers) Health(c echo.Context) error {
	const op = "http.routers.Health"

	for _, h := range r.health {
		if err := h.HealthCheck(c.Request().Context()); err != nil {
			r.log.Warn("health check failed", slog.String("op", op), sl.Err(err))
			return c.JSON(http.StatusServiceUnavailable, response.ErrorResponseWithDetails("unhealthy", err.Error()))
		}
	}

	return c.JSON(http.StatusOK, response.Response{Status: "success", Message: "ok"})
}

func (r *Routers) CreateGallery(c echo.Context) error {
	const op = "http.routers.CreateGallery"

	log := r.log.With(
		slog.String("op", op),
	)

	ownerID, err := ownerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	var req dto.CreateGalleryRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid create gallery request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	gallery, err := r.GalleryService.CreateGallery(c.Request().Context(), ownerID, req)
	if err != nil {
		return r.galleryError(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(gallery))
}

func (r *Routers) GetGallery(c echo.Context) error {
	const op = "http.routers.GetGallery"

	log := r.log.With(
		slog.String("op", op),
	)

	ownerID, err := ownerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	gallery, err := r.GalleryService.GetGallery(c.Request().Context(), ownerID, c.Param("item_id"))
	if err != nil {
		return r.galleryError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(gallery))
}

// ListGalleries pages through the caller's galleries. Query: limit, next_token.
func (r *Routers) ListGalleries(c echo.Context) error {
	const op = "http.routers.ListGalleries"

	log := r.log.With(
		slog.String("op", op),
	)

	ownerID, err := ownerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "limit must be a positive integer"))
		}
	}

	page, err := r.GalleryService.ListGalleries(c.Request().Context(), ownerID, limit, c.QueryParam("next_token"))
	if err != nil {
		return r.galleryError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(page))
}

// GetBatch loads galleries across owners for internal callers. Any token with
// a uid claim may read any listed owner's galleries; the caller is logged.
func (r *Routers) GetBatch(c echo.Context) error {
	const op = "http.routers.GetBatch"

	log := r.log.With(
		slog.String("op", op),
	)

	callerID, err := ownerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	var req dto.BatchGalleryRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid batch request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	log.Info("batch lookup", slog.String("caller_id", callerID), slog.Int("galleries", len(req.Galleries)))

	galleries, err := r.GalleryService.GetBatch(c.Request().Context(), req.Galleries)
	if err != nil {
		return r.galleryError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(galleries))
}

func (r *Routers) DeleteGallery(c echo.Context) error {
	const op = "http.routers.DeleteGallery"

	log := r.log.With(
		slog.String("op", op),
	)

	ownerID, err := ownerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	if err := r.GalleryService.DeleteGallery(c.Request().Context(), ownerID, c.Param("item_id")); err != nil {
		return r.galleryError(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// UpsertImage adds an image to the gallery, or replaces the image named by
// the body's id.
func (r *Routers) UpsertImage(c echo.Context) error {
	const op = "http.routers.UpsertImage"

	log := r.log.With(
		slog.String("op", op),
	)

	ownerID, err := ownerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	var req dto.UpsertImageRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid upsert request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	result, err := r.GalleryService.UpsertImage(c.Request().Context(), ownerID, c.Param("item_id"), req)
	if err != nil {
		return r.galleryError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(result))
}

// PubSubListener receives SNS HTTP deliveries.
func (r *Routers) PubSubListener(c echo.Context) error {
	const op = "http.routers.PubSubListener"

	log := r.log.With(
		slog.String("op", op),
	)

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxNotificationSize))
	if err != nil {
		log.Warn("failed to read notification body", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidNotification)
	}

	switch r.Listener.Handle(c.Request().Context(), body) {
	case notification.OutcomeOK:
		return c.JSON(http.StatusOK, response.Response{Status: "success"})
	case notification.OutcomeBadRequest:
		return c.JSON(http.StatusBadRequest, response.ErrInvalidNotification)
	default:
		return c.JSON(http.StatusBadGateway, response.ErrNotificationNotProcessed)
	}
}

func (r *Routers) galleryError(c echo.Context, log *slog.Logger, err error) error {
	switch {
	case errors.Is(err, services.ErrGalleryNotFound):
		return c.JSON(http.StatusNotFound, response.ErrGalleryNotFound)
	case errors.Is(err, services.ErrGalleryExists):
		return c.JSON(http.StatusConflict, response.ErrGalleryExists)
	case errors.Is(err, services.ErrConcurrentUpdate):
		return c.JSON(http.StatusConflict, response.ErrConcurrentUpdate)
	case errors.Is(err, services.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	log.Error("gallery operation failed", sl.Err(err))
	return c.JSON(http.StatusInternalServerError, response.ErrInternal)
}

// ownerFromContext reads the caller id from the token stored by the JWT
// middleware.
func ownerFromContext(c echo.Context) (string, error) {
	token, _ := c.Get("user").(*jwtlib.Token)
	return jwt.OwnerID(token)
}
