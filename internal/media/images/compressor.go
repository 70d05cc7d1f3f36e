// Package images normalizes uploaded cover images into square JPEGs.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log/slog"
	"math"

	"github.com/disintegration/gift"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/errors"
)

// OutputContentType and OutputExtension describe every compressed image.
const (
	OutputContentType = "image/jpeg"
	OutputExtension   = ".jpg"
)

// maxPixels rejects images whose decoded canvas would be unreasonably large.
const maxPixels = 50_000_000

// AcceptedTypes lists the upload MIME types the compressor decodes.
var AcceptedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Options tunes the compression pipeline.
type Options struct {
	MaxInputBytes  int64
	TargetSize     int
	MaxOutputBytes int64
	InitialQuality int
	MinQuality     int
	QualityStep    int
}

// DefaultOptions returns the production pipeline settings: 10MB uploads,
// 600x600 output, and JPEG quality stepping from 80 down to 30 until the
// output fits in 500KB.
func DefaultOptions() Options {
	return Options{
		MaxInputBytes:  10 << 20,
		TargetSize:     600,
		MaxOutputBytes: 500 << 10,
		InitialQuality: 80,
		MinQuality:     30,
		QualityStep:    10,
	}
}

// Result is a compressed cover image.
type Result struct {
	Data           []byte
	ContentType    string
	Extension      string
	BlurHash       string
	Width          int
	Height         int
	// Quality is the JPEG quality of Data, 0 when the input is kept as is.
	Quality        int
	OriginalSize   int64
	CompressedSize int64
	// Passthrough is set when the input was already a conforming JPEG and
	// re-encoding could not make it smaller.
	Passthrough bool
}

// SavedPercent is the size reduction relative to the input, rounded to one decimal.
// It is negative when the output is larger than the input.
func (r *Result) SavedPercent() float64 {
	if r.OriginalSize == 0 {
		return 0
	}
	saved := float64(r.OriginalSize-r.CompressedSize) / float64(r.OriginalSize) * 100
	return math.Round(saved*10) / 10
}

// Stats summarizes the result for API responses.
func (r *Result) Stats() domain.CompressionStats {
	return domain.CompressionStats{
		Summary: fmt.Sprintf("%s → %s (%.1f%% saved)",
			humanize.Bytes(uint64(r.OriginalSize)), humanize.Bytes(uint64(r.CompressedSize)), r.SavedPercent()),
		OriginalBytes:   r.OriginalSize,
		CompressedBytes: r.CompressedSize,
		SavedPercent:    r.SavedPercent(),
		Quality:         r.Quality,
		Width:           r.Width,
		Height:          r.Height,
	}
}

// Compressor center-crops images to a square, scales them to a fixed size,
// and searches JPEG quality downward until the output fits the byte budget.
// It is stateless and safe for concurrent use.
type Compressor struct {
	opts   Options
	logger *slog.Logger
}

// NewCompressor creates a Compressor.
func NewCompressor(opts Options, logger *slog.Logger) *Compressor {
	return &Compressor{opts: opts, logger: logger}
}

// Options returns the compressor's settings.
func (c *Compressor) Options() Options {
	return c.opts
}

// Validate checks the upload's size and sniffed content type.
// Returns the detected MIME type.
func (c *Compressor) Validate(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.Validation("image file is empty")
	}
	if int64(len(data)) > c.opts.MaxInputBytes {
		return "", errors.Validationf("image is %s, the limit is %s",
			humanize.Bytes(uint64(len(data))), humanize.Bytes(uint64(c.opts.MaxInputBytes)))
	}

	mtype := mimetype.Detect(data)
	for _, accepted := range AcceptedTypes {
		if mtype.Is(accepted) {
			return accepted, nil
		}
	}
	return "", errors.Validationf("unsupported image type %s (accepted: jpeg, png, webp, gif)", mtype.String())
}

// Compress runs the full pipeline on an encoded image.
func (c *Compressor) Compress(data []byte) (*Result, error) {
	if c.opts.TargetSize <= 0 || c.opts.InitialQuality < c.opts.MinQuality || c.opts.QualityStep <= 0 {
		return nil, errors.Environment("image canvas unavailable: invalid pipeline settings", nil)
	}

	mimeType, err := c.Validate(data)
	if err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Decode(err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Decode(fmt.Errorf("image has no pixels"))
	}
	if cfg.Width*cfg.Height > maxPixels {
		return nil, errors.Validationf("image is %dx%d, too many pixels", cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Decode(err)
	}

	canvas := c.render(src)

	encoded, quality, err := c.encode(canvas)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Data:           encoded,
		ContentType:    OutputContentType,
		Extension:      OutputExtension,
		Width:          c.opts.TargetSize,
		Height:         c.opts.TargetSize,
		Quality:        quality,
		OriginalSize:   int64(len(data)),
		CompressedSize: int64(len(encoded)),
	}

	// A conforming JPEG that we cannot shrink is returned as-is, which keeps
	// the pipeline idempotent on its own output.
	if mimeType == OutputContentType &&
		cfg.Width == c.opts.TargetSize && cfg.Height == c.opts.TargetSize &&
		int64(len(data)) <= c.opts.MaxOutputBytes && len(encoded) >= len(data) {
		result.Data = data
		result.CompressedSize = int64(len(data))
		result.Quality = 0
		result.Passthrough = true
	}

	if hash, err := BlurHash(canvas); err != nil {
		c.logger.Warn("blurhash failed", "error", err)
	} else {
		result.BlurHash = hash
	}

	c.logger.Debug("image compressed",
		"source_type", mimeType,
		"source_width", cfg.Width,
		"source_height", cfg.Height,
		"quality", result.Quality,
		"original", humanize.Bytes(uint64(result.OriginalSize)),
		"compressed", humanize.Bytes(uint64(result.CompressedSize)),
		"passthrough", result.Passthrough,
	)

	return result, nil
}

// render crops src to its centered square and scales it onto an opaque
// TargetSize x TargetSize canvas. Transparent pixels become white.
func (c *Compressor) render(src image.Image) *image.RGBA {
	size := c.opts.TargetSize
	g := gift.New(
		gift.Crop(CenterCropRect(src.Bounds())),
		gift.Resize(size, size, gift.LanczosResampling),
	)
	scaled := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(scaled, src)

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), scaled, scaled.Bounds().Min, draw.Over)
	return canvas
}

// encode walks quality from InitialQuality down by QualityStep. It stops at
// the first encoding within MaxOutputBytes, or accepts the attempt at the
// lowest quality not below MinQuality regardless of size.
func (c *Compressor) encode(img image.Image) ([]byte, int, error) {
	var buf bytes.Buffer
	quality := c.opts.InitialQuality
	for {
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, 0, errors.Environment("jpeg encoder unavailable", err)
		}

		if int64(buf.Len()) <= c.opts.MaxOutputBytes || quality-c.opts.QualityStep < c.opts.MinQuality {
			return bytes.Clone(buf.Bytes()), quality, nil
		}
		quality -= c.opts.QualityStep
	}
}

// CenterCropRect returns the largest square centered in b. The longer
// dimension is trimmed by (longer-shorter)/2 on each side.
func CenterCropRect(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	side := min(w, h)
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2
	return image.Rect(x0, y0, x0+side, y0+side)
}
