// Package imageutil provides the stateless helpers shared by the image
// pipeline: data-URI conversions, file-size formatting, record id
// generation, and image type acceptance checks.
package imageutil

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MIME types produced or consumed by the pipeline.
const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeWebP = "image/webp"
	MimeBMP  = "image/bmp"
	MimeTIFF = "image/tiff"
)

// acceptedTypes is the allow-list of image types the ingestion pipeline
// accepts, checked by declared MIME type first.
var acceptedTypes = map[string]bool{
	MimeJPEG: true,
	MimePNG:  true,
	MimeWebP: true,
	MimeBMP:  true,
	MimeTIFF: true,
}

// extensionTypes maps file extensions to MIME types. Used as a fallback
// because some platforms hand over files without a MIME type.
var extensionTypes = map[string]string{
	".jpg":  MimeJPEG,
	".jpeg": MimeJPEG,
	".png":  MimePNG,
	".webp": MimeWebP,
	".bmp":  MimeBMP,
	".tif":  MimeTIFF,
	".tiff": MimeTIFF,
}

// IsAcceptedType reports whether a file with the declared MIME type and
// name is accepted by the ingestion pipeline. The extension fallback
// covers platforms that omit the MIME type for some formats.
func IsAcceptedType(mimeType, fileName string) bool {
	if acceptedTypes[strings.ToLower(mimeType)] {
		return true
	}
	_, ok := extensionTypes[strings.ToLower(filepath.Ext(fileName))]
	return ok
}

// MIMEFromFileName returns the MIME type implied by the file extension,
// or empty if the extension is not recognized.
func MIMEFromFileName(fileName string) string {
	return extensionTypes[strings.ToLower(filepath.Ext(fileName))]
}

// NeedsConversion reports whether a file must be transcoded to JPEG
// before entering the compression pipeline. JPEG and PNG decode natively
// everywhere; the remaining accepted formats are normalized first.
func NeedsConversion(mimeType, fileName string) bool {
	mt := strings.ToLower(mimeType)
	if mt == "" {
		mt = MIMEFromFileName(fileName)
	}
	switch mt {
	case MimeWebP, MimeBMP, MimeTIFF:
		return true
	}
	return false
}

// NewRecordID generates an opaque unique record id.
func NewRecordID() string {
	return "img_" + uuid.NewString()
}

// EncodeDataURI wraps raw image bytes in a data-URI string, the textual
// payload representation used by stored records and the export format.
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI extracts the MIME type and raw bytes from a data-URI.
func DecodeDataURI(uri string) (mimeType string, data []byte, err error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, fmt.Errorf("not a data URI")
	}
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return "", nil, fmt.Errorf("malformed data URI: missing payload separator")
	}
	header := uri[len("data:"):comma]
	mimeType = header
	if semi := strings.IndexByte(header, ';'); semi >= 0 {
		mimeType = header[:semi]
	}
	if mimeType == "" {
		mimeType = MimeJPEG
	}
	data, err = base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return "", nil, fmt.Errorf("malformed data URI payload: %w", err)
	}
	return mimeType, data, nil
}

// FormatFileSize renders a byte count for display: bytes below 1 KiB,
// then one-decimal KB and MB.
func FormatFileSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}
