package compress

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/phototrack/phototrack/imageutil"
	"github.com/phototrack/phototrack/model"
)

// createTestImage creates a checkerboard test image.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/10+y/10)%2 == 0 {
				img.Set(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				img.Set(x, y, color.RGBA{0, 255, 0, 255})
			}
		}
	}
	return img
}

func createTestImageBytes(width, height int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, createTestImage(width, height))
	return buf.Bytes()
}

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine(Options{})
	if e.maxSizeBytes != DefaultMaxSizeBytes {
		t.Errorf("Expected maxSizeBytes %d, got %d", DefaultMaxSizeBytes, e.maxSizeBytes)
	}
	if e.maxDimension != DefaultMaxDimension {
		t.Errorf("Expected maxDimension %d, got %d", DefaultMaxDimension, e.maxDimension)
	}
	if e.qualityStart != DefaultQualityStart || e.qualityFloor != DefaultQualityFloor || e.qualityStep != DefaultQualityStep {
		t.Errorf("Expected default quality search parameters, got %d/%d/%d",
			e.qualityStart, e.qualityFloor, e.qualityStep)
	}
}

func TestCompressSmallImagePassesThrough(t *testing.T) {
	e := NewEngine(Options{})
	result, err := e.Compress(context.Background(), createTestImage(100, 80))
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if result.Width != 100 || result.Height != 80 {
		t.Errorf("Expected dimensions preserved, got %dx%d", result.Width, result.Height)
	}
	if result.MimeType != imageutil.MimeJPEG {
		t.Errorf("Expected JPEG output, got %q", result.MimeType)
	}
	if result.Quality != DefaultQualityStart {
		t.Errorf("Expected a small image to settle at quality %d, got %d", DefaultQualityStart, result.Quality)
	}
	if result.Size != int64(len(result.Data)) {
		t.Errorf("Size %d does not match data length %d", result.Size, len(result.Data))
	}
}

func TestCompressBoundsLargeDimensions(t *testing.T) {
	e := NewEngine(Options{})
	result, err := e.Compress(context.Background(), createTestImage(4000, 2000))
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if result.Width != DefaultMaxDimension {
		t.Errorf("Expected width bounded to %d, got %d", DefaultMaxDimension, result.Width)
	}
	if result.Height != 960 {
		t.Errorf("Expected aspect-preserving height 960, got %d", result.Height)
	}
}

func TestCompressBoundsPortraitDimensions(t *testing.T) {
	e := NewEngine(Options{})
	result, err := e.Compress(context.Background(), createTestImage(1000, 3000))
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if result.Height != DefaultMaxDimension {
		t.Errorf("Expected height bounded to %d, got %d", DefaultMaxDimension, result.Height)
	}
	if result.Width != 640 {
		t.Errorf("Expected aspect-preserving width 640, got %d", result.Width)
	}
}

func TestQualitySearchStopsAtFloor(t *testing.T) {
	// A tiny size budget forces the search all the way down.
	e := NewEngine(Options{MaxSizeBytes: 1})
	result, err := e.Compress(context.Background(), createTestImage(400, 400))
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if result.Quality != DefaultQualityFloor {
		t.Errorf("Expected floor quality %d, got %d", DefaultQualityFloor, result.Quality)
	}
	if len(result.Data) == 0 {
		t.Error("Expected floor-quality data to be returned even over budget")
	}
}

func TestCompressBytes(t *testing.T) {
	e := NewEngine(Options{})
	result, err := e.CompressBytes(context.Background(), createTestImageBytes(200, 200))
	if err != nil {
		t.Fatalf("CompressBytes failed: %v", err)
	}
	if result.Width != 200 || result.Height != 200 {
		t.Errorf("Expected 200x200, got %dx%d", result.Width, result.Height)
	}
}

func TestCompressBytesDecodeError(t *testing.T) {
	e := NewEngine(Options{})
	_, err := e.CompressBytes(context.Background(), []byte("not an image"))
	if err == nil {
		t.Fatal("Expected error for undecodable bytes")
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("Expected DecodeError, got %T: %v", err, err)
	}
}

func TestCompressNilImage(t *testing.T) {
	e := NewEngine(Options{})
	if _, err := e.Compress(context.Background(), nil); err == nil {
		t.Error("Expected error for nil image")
	}
}

func TestCompressCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEngine(Options{})
	if _, err := e.Compress(ctx, createTestImage(100, 100)); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestCompressRegion(t *testing.T) {
	e := NewEngine(Options{})
	region := model.PixelRect{X: 10, Y: 20, Width: 120, Height: 60}
	result, err := e.CompressRegion(context.Background(), createTestImage(400, 300), region)
	if err != nil {
		t.Fatalf("CompressRegion failed: %v", err)
	}
	if result.Width != 120 || result.Height != 60 {
		t.Errorf("Expected cropped dimensions 120x60, got %dx%d", result.Width, result.Height)
	}
}

func TestCompressRegionInvalidRect(t *testing.T) {
	e := NewEngine(Options{})
	_, err := e.CompressRegion(context.Background(), createTestImage(100, 100), model.PixelRect{Width: 0, Height: 50})
	if err == nil {
		t.Fatal("Expected error for zero-width region")
	}
	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Errorf("Expected RenderError, got %T: %v", err, err)
	}
}

func TestResultDataURI(t *testing.T) {
	e := NewEngine(Options{})
	result, err := e.Compress(context.Background(), createTestImage(50, 50))
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	uri := result.DataURI()
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Errorf("Unexpected data URI prefix: %.40q", uri)
	}
}
