// Package compress implements the image compression engine: it bounds an
// image's resolution, then searches downward through JPEG quality levels
// until the encoded payload fits the configured size budget.
package compress

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding for CompressBytes

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/phototrack/phototrack/imageutil"
	"github.com/phototrack/phototrack/model"
)

const (
	// DefaultMaxSizeBytes is the target stored size (500 KiB).
	DefaultMaxSizeBytes = 500 * 1024

	// DefaultMaxDimension bounds the larger output dimension in pixels.
	DefaultMaxDimension = 1920

	// Quality search parameters. Starting at 90 and stepping down by 10
	// to a floor of 10 means the search re-encodes at most 9 times.
	DefaultQualityStart = 90
	DefaultQualityFloor = 10
	DefaultQualityStep  = 10

	// base64Overhead models the textual data-URI encoding overhead of the
	// stored representation relative to the raw encoded bytes.
	base64Overhead = 1.37
)

// DecodeError indicates the input bytes could not be decoded as an image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RenderError indicates a drawing surface could not be prepared for the
// requested output dimensions.
type RenderError struct {
	Width, Height int
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("cannot render %dx%d drawing surface", e.Width, e.Height)
}

// Options configures a compression engine.
type Options struct {
	// MaxSizeBytes is the target encoded size the quality search aims
	// for, measured with the data-URI overhead applied. 0 = default.
	MaxSizeBytes int64

	// MaxDimension bounds the larger output dimension. 0 = default.
	MaxDimension int

	// QualityStart, QualityFloor, QualityStep control the quality
	// search. Zero values use the defaults.
	QualityStart int
	QualityFloor int
	QualityStep  int
}

// Result is the outcome of a compression run.
type Result struct {
	// Data holds the encoded JPEG bytes.
	Data []byte
	// MimeType is always image/jpeg; the engine normalizes formats.
	MimeType string
	// Size is len(Data) in bytes.
	Size int64
	// Width and Height are the output dimensions.
	Width, Height int
	// Quality is the JPEG quality the search settled on.
	Quality int
}

// DataURI returns the encoded payload as a data-URI string, the
// representation stored in image records.
func (r *Result) DataURI() string {
	return imageutil.EncodeDataURI(r.MimeType, r.Data)
}

// Engine compresses images into the bounded stored representation.
type Engine struct {
	maxSizeBytes int64
	maxDimension int
	qualityStart int
	qualityFloor int
	qualityStep  int
}

// NewEngine creates an engine with the given options, filling in
// defaults for zero values.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		maxSizeBytes: opts.MaxSizeBytes,
		maxDimension: opts.MaxDimension,
		qualityStart: opts.QualityStart,
		qualityFloor: opts.QualityFloor,
		qualityStep:  opts.QualityStep,
	}
	if e.maxSizeBytes <= 0 {
		e.maxSizeBytes = DefaultMaxSizeBytes
	}
	if e.maxDimension <= 0 {
		e.maxDimension = DefaultMaxDimension
	}
	if e.qualityStart <= 0 {
		e.qualityStart = DefaultQualityStart
	}
	if e.qualityFloor <= 0 {
		e.qualityFloor = DefaultQualityFloor
	}
	if e.qualityStep <= 0 {
		e.qualityStep = DefaultQualityStep
	}
	return e
}

// CompressBytes decodes raw image bytes and compresses the result.
// Fails with a DecodeError if the bytes are not a decodable image.
func (e *Engine) CompressBytes(ctx context.Context, data []byte) (*Result, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return e.Compress(ctx, img)
}

// Compress bounds the image's resolution and runs the quality search.
//
// The search does not guarantee the size target is met: when the floor
// quality still exceeds the target, the floor-quality encoding is
// returned anyway. That is accepted behavior, not an error.
func (e *Engine) Compress(ctx context.Context, src image.Image) (*Result, error) {
	if src == nil {
		return nil, &DecodeError{Err: fmt.Errorf("image is nil")}
	}

	bounded, err := e.boundResolution(src)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return e.qualitySearch(ctx, bounded)
}

// CompressRegion extracts a source-pixel sub-region and compresses it.
// Pixel extraction lives here so the crop controller stays pure geometry.
func (e *Engine) CompressRegion(ctx context.Context, src image.Image, region model.PixelRect) (*Result, error) {
	if src == nil {
		return nil, &DecodeError{Err: fmt.Errorf("image is nil")}
	}
	if region.Width <= 0 || region.Height <= 0 {
		return nil, &RenderError{Width: region.Width, Height: region.Height}
	}

	rect := image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height)
	cropped := imaging.Crop(src, rect)
	if cropped.Bounds().Empty() {
		return nil, &RenderError{Width: region.Width, Height: region.Height}
	}

	return e.Compress(ctx, cropped)
}

// boundResolution downscales the image so that neither dimension exceeds
// the configured maximum, preserving aspect ratio. Images already within
// bounds pass through unchanged.
func (e *Engine) boundResolution(src image.Image) (image.Image, error) {
	srcBounds := src.Bounds()
	width := srcBounds.Dx()
	height := srcBounds.Dy()

	if width <= 0 || height <= 0 {
		return nil, &RenderError{Width: width, Height: height}
	}
	if width <= e.maxDimension && height <= e.maxDimension {
		return src, nil
	}

	var targetWidth, targetHeight int
	if width > height {
		targetWidth = e.maxDimension
		targetHeight = int(float64(height) / float64(width) * float64(e.maxDimension))
	} else {
		targetHeight = e.maxDimension
		targetWidth = int(float64(width) / float64(height) * float64(e.maxDimension))
	}
	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, srcBounds, draw.Over, nil)
	return dst, nil
}

// qualitySearch encodes at decreasing quality until the payload fits the
// size budget or the floor quality is reached. Terminates in at most
// (start-floor)/step + 1 encodes (9 with the defaults).
func (e *Engine) qualitySearch(ctx context.Context, img image.Image) (*Result, error) {
	quality := e.qualityStart

	data, err := encodeJPEG(img, quality)
	if err != nil {
		return nil, fmt.Errorf("jpeg encoding at quality %d: %w", quality, err)
	}

	for float64(len(data))*base64Overhead > float64(e.maxSizeBytes) && quality > e.qualityFloor {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		quality -= e.qualityStep
		data, err = encodeJPEG(img, quality)
		if err != nil {
			return nil, fmt.Errorf("jpeg encoding at quality %d: %w", quality, err)
		}
	}

	bounds := img.Bounds()
	return &Result{
		Data:     data,
		MimeType: imageutil.MimeJPEG,
		Size:     int64(len(data)),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Quality:  quality,
	}, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
