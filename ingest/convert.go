package ingest

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/rwcarlsen/goexif/exif"

	// Decoders for the accepted non-standard formats; normalized to
	// JPEG before the rest of the pipeline sees them.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/phototrack/phototrack/imageutil"
	"github.com/phototrack/phototrack/model"
)

// conversionQuality is the JPEG quality used when normalizing formats,
// matching the start of the compression quality search.
const conversionQuality = 90

// ConvertToJPEG transcodes raw image bytes of any registered format
// into JPEG bytes.
func ConvertToJPEG(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: conversionQuality}); err != nil {
		return nil, fmt.Errorf("re-encode %s as jpeg: %w", format, err)
	}
	return buf.Bytes(), nil
}

// SuggestDate extracts the photo date from EXIF metadata when present.
// The second return is false when the file carries no usable EXIF date.
func SuggestDate(f File) (string, bool) {
	x, err := exif.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return "", false
	}
	taken, err := x.DateTime()
	if err != nil {
		return "", false
	}
	return taken.Format(model.DateLayout), true
}

// ReadFile loads a file from disk into the pipeline's ingress form,
// deriving the MIME type from the file extension.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return File{
		Name:     filepath.Base(path),
		MIMEType: imageutil.MIMEFromFileName(path),
		Data:     data,
	}, nil
}
