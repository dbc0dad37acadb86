package commands

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/sitelog/internal/backend/commandstructure"
	"github.com/jo-hoe/sitelog/internal/common"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 800
	DefaultQuality      = 0.5
	// DefaultMaxPixels caps the declared width*height of a source image
	DefaultMaxPixels = 40_000_000
)

var (
	// ErrDecode is returned when the source image cannot be decoded
	ErrDecode = errors.New("image decode error")
	// ErrSurface is returned when no drawing surface can be allocated for the output
	ErrSurface = errors.New("image surface error")
)

// CompressParams represents typed parameters for the compress command
type CompressParams struct {
	MaxDimension int
	Quality      float64
	MaxPixels    int
}

// NewCompressParamsFromMap creates CompressParams from a generic map, applying defaults
func NewCompressParamsFromMap(params map[string]any) (*CompressParams, error) {
	maxDimension := commandstructure.GetIntParam(params, "maxDimension", DefaultMaxDimension)
	quality := commandstructure.GetFloatParam(params, "quality", DefaultQuality)
	maxPixels := commandstructure.GetIntParam(params, "maxPixels", DefaultMaxPixels)
	if err := validateCompressParams(maxDimension, quality); err != nil {
		return nil, err
	}
	if maxPixels <= 0 {
		return nil, fmt.Errorf("maxPixels must be positive, got %d", maxPixels)
	}
	return &CompressParams{
		MaxDimension: maxDimension,
		Quality:      quality,
		MaxPixels:    maxPixels,
	}, nil
}

func validateCompressParams(maxDimension int, quality float64) error {
	if maxDimension <= 0 {
		return fmt.Errorf("maxDimension must be positive, got %d", maxDimension)
	}
	if quality <= 0 || quality > 1 {
		return fmt.Errorf("quality must be in (0, 1], got %v", quality)
	}
	return nil
}

// CompressCommand bounds the longer side of an image and re-encodes it as JPEG
type CompressCommand struct {
	name   string
	params *CompressParams
}

// NewCompressCommand creates a new compress command from configuration parameters
func NewCompressCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewCompressParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &CompressCommand{
		name:   "CompressCommand",
		params: typedParams,
	}, nil
}

// NewCompressCommandWithParams creates a new compress command from concrete typed parameters
func NewCompressCommandWithParams(maxDimension int, quality float64) (*CompressCommand, error) {
	if err := validateCompressParams(maxDimension, quality); err != nil {
		return nil, err
	}
	return &CompressCommand{
		name: "CompressCommand",
		params: &CompressParams{
			MaxDimension: maxDimension,
			Quality:      quality,
			MaxPixels:    DefaultMaxPixels,
		},
	}, nil
}

func (c *CompressCommand) Name() string {
	return c.name
}

func (c *CompressCommand) GetParams() *CompressParams {
	return c.params
}

// Execute decodes the image, scales it so the longer side is at most
// MaxDimension and encodes the result as JPEG at the configured quality
func (c *CompressCommand) Execute(imageData []byte) ([]byte, error) {
	img, format, err := decodeImage(imageData, c.params.MaxPixels)
	if err != nil {
		slog.Error("CompressCommand: failed to decode image", "error", err, "input_size_bytes", len(imageData))
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	targetWidth, targetHeight := computeTargetDimensions(bounds.Dx(), bounds.Dy(), c.params.MaxDimension)
	slog.Debug("CompressCommand: scaling image",
		"format", format,
		"original_width", bounds.Dx(),
		"original_height", bounds.Dy(),
		"target_width", targetWidth,
		"target_height", targetHeight)

	dst, err := createSurface(targetWidth, targetHeight)
	if err != nil {
		return nil, err
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	buf.Grow(targetWidth * targetHeight / 4)
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(c.params.Quality)}); err != nil {
		slog.Error("CompressCommand: failed to encode image", "error", err)
		return nil, fmt.Errorf("failed to encode JPEG image: %w", err)
	}

	slog.Debug("CompressCommand: compression complete",
		"input_size_bytes", len(imageData),
		"output_size_bytes", buf.Len())
	return buf.Bytes(), nil
}

// CompressDataURI compresses the image carried by a data URI and returns the
// result as an image/jpeg data URI
func (c *CompressCommand) CompressDataURI(source string) (string, error) {
	_, data, err := common.ParseDataURI(source)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	compressed, err := c.Execute(data)
	if err != nil {
		return "", err
	}
	return common.EncodeDataURI("image/jpeg", compressed), nil
}

// computeTargetDimensions applies scale = min(1, maxDimension/longerSide) to
// both sides. Each side stays at least one pixel.
func computeTargetDimensions(width, height, maxDimension int) (int, int) {
	longer := max(width, height)
	if longer <= 0 || width <= 0 || height <= 0 {
		return 0, 0
	}
	scale := math.Min(1, float64(maxDimension)/float64(longer))
	targetWidth := max(1, int(math.Round(float64(width)*scale)))
	targetHeight := max(1, int(math.Round(float64(height)*scale)))
	return min(targetWidth, maxDimension), min(targetHeight, maxDimension)
}

// createSurface allocates the off-screen RGBA target on a white background,
// JPEG has no alpha channel
func createSurface(width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: cannot allocate %dx%d surface", ErrSurface, width, height)
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	return dst, nil
}

func jpegQuality(quality float64) int {
	q := int(math.Round(quality * 100))
	return min(max(q, 1), 100)
}

// decodeImage checks the declared size against maxPixels before any pixel
// buffer is allocated. Raster images come back upright according to their
// EXIF orientation tag.
func decodeImage(data []byte, maxPixels int) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}
	if isSVGData(data) {
		img, err := rasterizeSVG(data, maxPixels)
		return img, "svg", err
	}

	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	if err := checkPixelCount(config.Width, config.Height, maxPixels); err != nil {
		return nil, format, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, format, err
	}
	return img, format, nil
}

func checkPixelCount(width, height, maxPixels int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if int64(width)*int64(height) > int64(maxPixels) {
		return fmt.Errorf("image size %dx%d exceeds the limit of %d pixels", width, height, maxPixels)
	}
	return nil
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("CompressCommand", NewCompressCommand); err != nil {
		panic(fmt.Sprintf("failed to register CompressCommand: %v", err))
	}
}
