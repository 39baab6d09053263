// Package model defines the persisted data types shared by the storage,
// query, and ingestion layers.
package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used throughout the application.
// Dates are date-only; no time-of-day or timezone component is stored.
const DateLayout = "2006-01-02"

// EnvelopeVersion is the current backup schema version.
const EnvelopeVersion = "1.0"

// Measurements holds optional body measurements in centimeters.
// Each field is independently optional; a nil pointer means the
// measurement was not taken. The key set is fixed.
type Measurements struct {
	Chest     *float64 `json:"chest,omitempty"`
	Waist     *float64 `json:"waist,omitempty"`
	Belly     *float64 `json:"belly,omitempty"`
	Hips      *float64 `json:"hips,omitempty"`
	Thigh     *float64 `json:"thigh,omitempty"`
	Calf      *float64 `json:"calf,omitempty"`
	UpperArm  *float64 `json:"upperArm,omitempty"`
	Shoulders *float64 `json:"shoulders,omitempty"`
}

// IsEmpty reports whether no measurement is set.
func (m *Measurements) IsEmpty() bool {
	if m == nil {
		return true
	}
	return m.Chest == nil && m.Waist == nil && m.Belly == nil &&
		m.Hips == nil && m.Thigh == nil && m.Calf == nil &&
		m.UpperArm == nil && m.Shoulders == nil
}

// CropSettings records the last applied crop rectangle in source-pixel
// space plus the display zoom and aspect metadata it was chosen with.
// It is informational; the crop is never re-derived from it.
type CropSettings struct {
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Width       float64  `json:"width"`
	Height      float64  `json:"height"`
	Zoom        float64  `json:"zoom"`
	AspectRatio *float64 `json:"aspectRatio"` // nil = freeform
}

// PixelRect is a rectangle in source-pixel coordinates.
type PixelRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ImageRecord is the persisted unit: one stored photo with its metadata.
//
// ID and UploadTimestamp are fixed at creation. After creation a record
// may only be mutated to edit Measurements or to re-crop (which replaces
// ImageData, FileSize and CropSettings while keeping OriginalImageData).
type ImageRecord struct {
	ID              string `json:"id"`
	ImageData       string `json:"imageData"` // data-URI encoded payload
	Date            string `json:"date"`      // YYYY-MM-DD, when the photo was taken
	UploadTimestamp int64  `json:"uploadTimestamp"`
	MimeType        string `json:"mimeType"`
	FileName        string `json:"fileName"`
	FileSize        int64  `json:"fileSize"` // bytes after compression

	Measurements *Measurements `json:"measurements,omitempty"`

	// OriginalImageData retains the uncropped source when a crop was
	// applied, so the record can be re-cropped without re-uploading.
	OriginalImageData string        `json:"originalImageData,omitempty"`
	CropSettings      *CropSettings `json:"cropSettings,omitempty"`
}

// Normalize brings a record into canonical form: an all-empty
// measurements object becomes absent rather than an empty value.
func (r *ImageRecord) Normalize() {
	if r.Measurements.IsEmpty() {
		r.Measurements = nil
	}
}

// Validate checks the record invariants that every stored record must
// satisfy. It does not check ID uniqueness; that is the store's job.
func (r *ImageRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record is missing an id")
	}
	if r.ImageData == "" {
		return fmt.Errorf("record %s has no image data", r.ID)
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return fmt.Errorf("record %s has invalid date %q: %w", r.ID, r.Date, err)
	}
	if r.CropSettings != nil && r.OriginalImageData == "" {
		return fmt.Errorf("record %s has crop settings but no original image data", r.ID)
	}
	if r.Measurements != nil && r.Measurements.IsEmpty() {
		return fmt.Errorf("record %s has an empty measurements object", r.ID)
	}
	return nil
}

// ParseDate parses a record date string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ExportEnvelope is the versioned wrapper used for bulk export/import.
// It is the sole durable interchange format.
type ExportEnvelope struct {
	Version    string        `json:"version"`
	ExportDate string        `json:"exportDate"` // RFC 3339 export instant
	Images     []ImageRecord `json:"images"`
}
