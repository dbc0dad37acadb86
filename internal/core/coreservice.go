package core

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jo-hoe/sitelog/internal/backend/analysis"
	"github.com/jo-hoe/sitelog/internal/backend/commandstructure"
	"github.com/jo-hoe/sitelog/internal/backend/database"
	"github.com/jo-hoe/sitelog/internal/backend/gallery"
	"github.com/jo-hoe/sitelog/internal/backend/metrics"
	"github.com/jo-hoe/sitelog/internal/common"
)

// ErrIncompletePayload is returned when an upload lacks a title or an image
var ErrIncompletePayload = errors.New("incomplete payload")

// NewUpload is an owner upload before compression
type NewUpload struct {
	Title       string
	Description string
	Category    string
	Image       []byte
}

type CoreService struct {
	config          *ServiceConfig
	databaseService database.DocumentService
	store           *gallery.Store
	pipeline        *commandstructure.CommandInvoker
	analyzer        *analysis.Client
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	if err := validateCommands(config.UploadPipeline); err != nil {
		return nil, fmt.Errorf("failed to build upload pipeline: %w", err)
	}
	pipeline, err := commandstructure.NewCommandInvokerFromConfig(commandstructure.DefaultRegistry, config.pipelineConfigs())
	if err != nil {
		return nil, fmt.Errorf("failed to build upload pipeline: %w", err)
	}

	databaseService, err := getDatabaseService(config)
	if err != nil {
		return nil, err
	}

	slog.Info("core service initialized",
		"store_type", config.Store.Type,
		"capacity_limit", config.Store.CapacityLimit,
		"upload_pipeline", pipeline.Names())

	return &CoreService{
		config:          config,
		databaseService: databaseService,
		store:           gallery.NewStore(databaseService, config.Store.CapacityLimit),
		pipeline:        pipeline,
		analyzer:        analysis.NewClient(config.analysisConfig(), nil),
	}, nil
}

func getDatabaseService(config *ServiceConfig) (database.DocumentService, error) {
	databaseService, err := database.NewDatabase(config.Store.Type, config.Store.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return databaseService, nil
}

// ListImages returns the gallery, optionally narrowed to one category.
// An empty filter or "All" returns everything.
func (service *CoreService) ListImages(ctx context.Context, filter string) []gallery.ProjectImage {
	images := service.store.List(ctx)
	if filter == "" || strings.EqualFold(filter, "All") {
		return images
	}
	return gallery.FilterByCategory(images, gallery.Category(filter))
}

// AddImage runs the upload pipeline on the image and stores the result as
// a new record. An empty category falls back to Construction Sites.
func (service *CoreService) AddImage(ctx context.Context, upload NewUpload) (*gallery.ProjectImage, error) {
	if upload.Title == "" || len(upload.Image) == 0 {
		return nil, ErrIncompletePayload
	}

	category := gallery.CategoryConstruction
	if strings.TrimSpace(upload.Category) != "" {
		parsed, err := gallery.ParseCategory(upload.Category)
		if err != nil {
			return nil, err
		}
		category = parsed
	}

	processed, err := service.pipeline.Execute(upload.Image)
	if err != nil {
		return nil, err
	}
	metrics.RecordCompressedImage(len(processed))

	payload := common.EncodeDataURI(http.DetectContentType(processed), processed)
	return service.store.Create(ctx, gallery.NewImage{
		Title:       upload.Title,
		Description: upload.Description,
		Category:    category,
	}, payload)
}

func (service *CoreService) DeleteImage(ctx context.Context, id string) error {
	return service.store.Delete(ctx, id)
}

// Unlock checks a passphrase entered on the portal login
func (service *CoreService) Unlock(passphrase string) bool {
	ok := service.Authorized(passphrase)
	if !ok {
		slog.Warn("portal: unlock rejected")
	}
	return ok
}

// Authorized checks the key sent with portal requests
func (service *CoreService) Authorized(key string) bool {
	expected := service.config.Portal.Passphrase
	return subtle.ConstantTimeCompare([]byte(key), []byte(expected)) == 1
}

// AnalysisConfigured reports whether the site scanner can reach the model
func (service *CoreService) AnalysisConfigured() bool {
	return service.analyzer.Configured()
}

// AnalyzeFrame sends one captured camera frame, given as a data URI, for analysis
func (service *CoreService) AnalyzeFrame(ctx context.Context, frameDataURI string) (string, error) {
	report, err := service.analyzeFrame(ctx, frameDataURI)
	if err != nil {
		kind, _ := analysis.Classify(err)
		metrics.RecordAnalysis(string(kind))
		slog.Error("analysis: frame analysis failed", "kind", kind, "error", err)
		return "", err
	}
	metrics.RecordAnalysis(metrics.OutcomeSuccess)
	return report, nil
}

func (service *CoreService) analyzeFrame(ctx context.Context, frameDataURI string) (string, error) {
	if !service.analyzer.Configured() {
		return "", analysis.ErrMissingCredential
	}
	_, frame, err := common.ParseDataURI(frameDataURI)
	if err != nil {
		return "", fmt.Errorf("invalid frame: %w", err)
	}
	return service.analyzer.Analyze(ctx, frame)
}

func (service *CoreService) Close() error {
	return service.databaseService.Close()
}
