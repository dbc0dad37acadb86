package frontend

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jo-hoe/sitelog/internal/backend/analysis"
	"github.com/jo-hoe/sitelog/internal/backend/gallery"
	"github.com/jo-hoe/sitelog/internal/core"
)

const (
	MainPageName    = "index.html"
	AdminPageName   = "admin.html"
	ScannerPageName = "scanner.html"

	portalKeyHeader = "X-Portal-Key"
	filterAll       = "All"
	tabUpload       = "upload"
	tabManage       = "manage"

	// maxUploadBytes bounds the multipart image read into memory
	maxUploadBytes = 32 << 20
)

var errUploadTooLarge = errors.New("uploaded file exceeds the size limit")

type serviceOffering struct {
	Title       string
	Description string
}

var offerings = []serviceOffering{
	{Title: "Precision Dismantling", Description: "Expert manual unbuilding to ensure material integrity and maximum asset preservation."},
	{Title: "Salvage Logistics", Description: "Coordinated extraction and transport of high-value timber, steel, and architectural components."},
	{Title: "Site Risk Management", Description: "Comprehensive site safety audits and controlled deconstruction in high-density areas."},
	{Title: "Corporate Strip-outs", Description: "Highly efficient dismantling of commercial interiors for renovation or redevelopment."},
}

type filterOption struct {
	Label  string
	Active bool
}

// card is a record prepared for display. Src is only trusted for image data URIs.
type card struct {
	ID          string
	Title       string
	Description string
	Category    string
	CreatedAt   int64
	Src         any
}

type galleryView struct {
	Filters []filterOption
	Cards   []card
}

type indexView struct {
	Services []serviceOffering
	Gallery  galleryView
	WhatsApp string
}

type toast struct {
	Message string
	Success bool
}

type portalView struct {
	Headers    string
	Tab        string
	Categories []gallery.Category
	Cards      []card
	Toast      *toast
	Confirm    string
}

type scannerView struct {
	Configured    bool
	CameraMessage string
}

type reportView struct {
	Report  string
	Message string
	Kind    string
}

type FrontendService struct {
	coreService    *core.CoreService
	config         *core.ServiceConfig
	maxUploadBytes int64
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService:    coreService,
		config:         config,
		maxUploadBytes: maxUploadBytes,
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = newTemplate()

	e.GET("/", service.rootRedirectHandler)
	e.GET("/"+MainPageName, service.indexHandler)
	e.GET("/htmx/gallery", service.htmxGalleryHandler)

	e.GET("/admin", service.adminHandler)
	e.POST("/htmx/portal/unlock", service.htmxUnlockHandler)
	portal := e.Group("/htmx/portal", service.requirePortalKey)
	portal.POST("/upload", service.htmxUploadImageHandler)
	portal.GET("/images", service.htmxListImagesHandler)
	portal.DELETE("/image/:id", service.htmxDeleteImageHandler)

	e.GET("/scanner", service.scannerHandler)
	e.POST("/htmx/scanner/analyze", service.htmxAnalyzeHandler)

	e.GET("/icon.svg", service.iconHandler)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	images := service.coreService.ListImages(ctx.Request().Context(), "")
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, MainPageName, indexView{
		Services: offerings,
		Gallery:  buildGalleryView(images, filterAll),
		WhatsApp: service.config.Contact.WhatsApp,
	})
}

func (service *FrontendService) htmxGalleryHandler(ctx echo.Context) error {
	filter := strings.TrimSpace(ctx.QueryParam("category"))
	if filter == "" {
		filter = filterAll
	}
	images := service.coreService.ListImages(ctx.Request().Context(), filter)
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "gallery", buildGalleryView(images, filter))
}

func (service *FrontendService) adminHandler(ctx echo.Context) error {
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, AdminPageName, portalView{})
}

func (service *FrontendService) htmxUnlockHandler(ctx echo.Context) error {
	passphrase := ctx.FormValue("passphrase")
	if !service.coreService.Unlock(passphrase) {
		return ctx.Render(http.StatusOK, "portal-login", portalView{
			Toast: &toast{Message: core.MessageAccessDenied},
		})
	}
	slog.Info("portal: unlocked", "remote_ip", ctx.RealIP())
	return service.renderDashboard(ctx, passphrase, tabUpload, nil)
}

// requirePortalKey sends the login view back into the portal container when
// the request does not carry the passphrase header
func (service *FrontendService) requirePortalKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if service.coreService.Authorized(ctx.Request().Header.Get(portalKeyHeader)) {
			return next(ctx)
		}
		slog.Warn("portal: request without valid key", "route", ctx.Path(), "remote_ip", ctx.RealIP())
		ctx.Response().Header().Set("HX-Retarget", "#portal")
		ctx.Response().Header().Set("HX-Reswap", "innerHTML")
		return ctx.Render(http.StatusOK, "portal-login", portalView{
			Toast: &toast{Message: core.MessageAccessDenied},
		})
	}
}

func (service *FrontendService) htmxUploadImageHandler(ctx echo.Context) error {
	key := ctx.Request().Header.Get(portalKeyHeader)

	var image []byte
	file, err := ctx.FormFile("image")
	if err == nil {
		image, err = readUpload(file.Open, service.maxUploadBytes)
		if errors.Is(err, errUploadTooLarge) {
			slog.Warn("htmxUploadImageHandler: rejected oversized upload",
				"filename", file.Filename, "size_bytes", file.Size, "limit_bytes", service.maxUploadBytes)
			return service.renderDashboard(ctx, key, tabUpload, &toast{Message: core.MessageUploadTooLarge})
		}
		if err != nil {
			slog.Error("htmxUploadImageHandler: failed to read uploaded file",
				"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
			return service.renderDashboard(ctx, key, tabUpload, &toast{Message: core.MessageEngineError})
		}
	}

	record, err := service.coreService.AddImage(ctx.Request().Context(), core.NewUpload{
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
		Category:    ctx.FormValue("category"),
		Image:       image,
	})
	if err != nil {
		slog.Error("htmxUploadImageHandler: failed to store uploaded image", "error", err)
		return service.renderDashboard(ctx, key, tabUpload, &toast{Message: core.UploadMessage(err)})
	}

	slog.Info("htmxUploadImageHandler: field log stored", "record_id", record.ID, "category", record.Category)
	return service.renderDashboard(ctx, key, tabManage, &toast{Message: core.MessageUploadComplete, Success: true})
}

// readUpload reads at most limit bytes of the uploaded file and fails with
// errUploadTooLarge when more is left
func readUpload(open func() (multipart.File, error), limit int64) ([]byte, error) {
	src, err := open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("failed to close uploaded file reader", "error", cerr)
		}
	}()
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errUploadTooLarge
	}
	return data, nil
}

func (service *FrontendService) htmxListImagesHandler(ctx echo.Context) error {
	images := service.coreService.ListImages(ctx.Request().Context(), "")
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "manage-list", portalView{Cards: buildCards(images), Confirm: core.MessageConfirmPurge})
}

func (service *FrontendService) htmxDeleteImageHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	result := &toast{Message: core.MessagePurged, Success: true}
	if err := service.coreService.DeleteImage(ctx.Request().Context(), id); err != nil {
		slog.Error("htmxDeleteImageHandler: failed to delete image", "image_id", id, "error", err)
		result = &toast{Message: core.MessagePurgeFailure}
	}

	images := service.coreService.ListImages(ctx.Request().Context(), "")
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "manage-list", portalView{
		Cards:   buildCards(images),
		Toast:   result,
		Confirm: core.MessageConfirmPurge,
	})
}

func (service *FrontendService) renderDashboard(ctx echo.Context, key, tab string, result *toast) error {
	headers, err := json.Marshal(map[string]string{portalKeyHeader: key})
	if err != nil {
		return err
	}
	images := service.coreService.ListImages(ctx.Request().Context(), "")
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "portal-dashboard", portalView{
		Headers:    string(headers),
		Tab:        tab,
		Categories: gallery.Categories(),
		Cards:      buildCards(images),
		Toast:      result,
		Confirm:    core.MessageConfirmPurge,
	})
}

func (service *FrontendService) scannerHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, ScannerPageName, scannerView{
		Configured:    service.coreService.AnalysisConfigured(),
		CameraMessage: core.MessageCameraRequired,
	})
}

func (service *FrontendService) htmxAnalyzeHandler(ctx echo.Context) error {
	report, err := service.coreService.AnalyzeFrame(ctx.Request().Context(), ctx.FormValue("frame"))
	if err != nil {
		kind, message := analysis.Classify(err)
		return ctx.Render(http.StatusOK, "scan-error", reportView{Message: message, Kind: string(kind)})
	}
	return ctx.Render(http.StatusOK, "report", reportView{Report: report})
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}

func buildGalleryView(images []gallery.ProjectImage, active string) galleryView {
	filters := make([]filterOption, 0, len(gallery.Categories())+1)
	filters = append(filters, filterOption{Label: filterAll, Active: strings.EqualFold(active, filterAll)})
	for _, category := range gallery.Categories() {
		filters = append(filters, filterOption{Label: category.String(), Active: active == category.String()})
	}
	return galleryView{
		Filters: filters,
		Cards:   buildCards(images),
	}
}

func buildCards(images []gallery.ProjectImage) []card {
	cards := make([]card, 0, len(images))
	for _, image := range images {
		cards = append(cards, card{
			ID:          image.ID,
			Title:       image.Title,
			Description: image.Description,
			Category:    image.Category.String(),
			CreatedAt:   image.CreatedAt,
			Src:         imageSource(image.URL),
		})
	}
	return cards
}

// imageSource marks image data URIs as safe for src attributes. Other values
// go through the template's URL filter; rejected ones render as the broken
// image placeholder.
func imageSource(url string) any {
	if strings.HasPrefix(strings.ToLower(url), "data:image/") {
		return template.URL(url)
	}
	return url
}
