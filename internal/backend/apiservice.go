package backend

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jo-hoe/sitelog/internal/backend/analysis"
	"github.com/jo-hoe/sitelog/internal/backend/commands"
	"github.com/jo-hoe/sitelog/internal/backend/gallery"
	"github.com/jo-hoe/sitelog/internal/common"
	"github.com/jo-hoe/sitelog/internal/core"
)

// PortalKeyHeader carries the portal passphrase on mutating requests
const PortalKeyHeader = "X-Portal-Key"

type APIService struct {
	coreService *core.CoreService
}

type createImageRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Image       string `json:"image" validate:"required"`
}

type analysisRequest struct {
	Frame string `json:"frame" validate:"required"`
}

type analysisResponse struct {
	Report string `json:"report"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func NewAPIService(coreService *core.CoreService) *APIService {
	return &APIService{
		coreService: coreService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/probe", func(c echo.Context) error {
		return c.String(http.StatusOK, "API Service is running")
	})

	e.GET("/api/images", s.listImagesHandler)
	e.POST("/api/images", s.createImageHandler, s.requirePortalKey)
	e.DELETE("/api/images/:id", s.deleteImageHandler, s.requirePortalKey)
	e.POST("/api/analysis", s.analysisHandler)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func (s *APIService) requirePortalKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.coreService.Authorized(c.Request().Header.Get(PortalKeyHeader)) {
			slog.Warn("api: rejected request without valid portal key",
				"status", http.StatusUnauthorized, "route", c.Path())
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: core.MessageAccessDenied})
		}
		return next(c)
	}
}

func (s *APIService) listImagesHandler(c echo.Context) error {
	images := s.coreService.ListImages(c.Request().Context(), c.QueryParam("category"))
	setNoCache(c)
	return c.JSON(http.StatusOK, images)
}

func (s *APIService) createImageHandler(c echo.Context) error {
	var req createImageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: core.MessageIncomplete})
	}

	_, image, err := common.ParseDataURI(req.Image)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: core.MessageDecodeFailure})
	}

	record, err := s.coreService.AddImage(c.Request().Context(), core.NewUpload{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Image:       image,
	})
	if err != nil {
		status := createStatus(err)
		slog.Error("api: failed to create image", "status", status, "error", err)
		return c.JSON(status, errorResponse{Error: core.UploadMessage(err)})
	}
	return c.JSON(http.StatusCreated, record)
}

func createStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrIncompletePayload),
		errors.Is(err, gallery.ErrInvalidCategory),
		errors.Is(err, commands.ErrDecode),
		errors.Is(err, commands.ErrSurface):
		return http.StatusBadRequest
	case errors.Is(err, gallery.ErrCapacityExceeded):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadGateway
	}
}

func (s *APIService) deleteImageHandler(c echo.Context) error {
	id := c.Param("id")
	if err := s.coreService.DeleteImage(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusBadGateway, errorResponse{Error: core.MessagePurgeFailure})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIService) analysisHandler(c echo.Context) error {
	var req analysisRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: validationMessage(err)})
	}

	report, err := s.coreService.AnalyzeFrame(c.Request().Context(), req.Frame)
	if err != nil {
		kind, message := analysis.Classify(err)
		status := http.StatusBadGateway
		if kind == analysis.KindConfiguration {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, errorResponse{Error: message, Kind: string(kind)})
	}
	return c.JSON(http.StatusOK, analysisResponse{Report: report})
}

func setNoCache(c echo.Context) {
	c.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	c.Response().Header().Set("Pragma", "no-cache")
	c.Response().Header().Set("Expires", "0")
}

// validationMessage unwraps the text of the validator's HTTP error
func validationMessage(err error) string {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if message, ok := httpErr.Message.(string); ok {
			return message
		}
	}
	return err.Error()
}
