// Package ingest coordinates the upload pipeline: validate the selected
// files, normalize non-standard formats, optionally crop, compress, and
// persist the assembled records sequentially.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/phototrack/phototrack/compress"
	"github.com/phototrack/phototrack/datequery"
	"github.com/phototrack/phototrack/imageutil"
	"github.com/phototrack/phototrack/model"
	"github.com/phototrack/phototrack/store"
)

// File is a raw user-selected file: the sole ingress into the pipeline.
type File struct {
	Name     string
	MIMEType string // may be empty; the extension fallback covers that
	Data     []byte
}

// ValidationError reports a file rejected by the type allow-list.
type ValidationError struct {
	Name     string
	MIMEType string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: unsupported image type %q", e.Name, e.MIMEType)
}

// ConversionError reports a file that could not be transcoded to JPEG.
type ConversionError struct {
	Name string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: format conversion failed: %v", e.Name, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// FileError pairs a per-file failure with the file it belongs to.
type FileError struct {
	Name string
	Err  error
}

// CropRequest describes a crop to apply to a single-file batch: the
// resolved source-pixel rectangle plus the display settings to persist.
type CropRequest struct {
	Rect     model.PixelRect
	Settings model.CropSettings
}

// BatchOptions configures one ProcessFiles call.
type BatchOptions struct {
	// Date is the photo date for the batch (YYYY-MM-DD). When empty,
	// the EXIF capture date of the first file is used if available,
	// falling back to today.
	Date string

	// Measurements attach to the first record of the batch only.
	Measurements *model.Measurements

	// Crop applies only when exactly one file survives validation and
	// conversion; multi-file batches skip cropping uniformly.
	Crop *CropRequest
}

// BatchResult reports what a ProcessFiles call accomplished.
type BatchResult struct {
	// Records are the persisted records, in submission order.
	Records []model.ImageRecord
	// Skipped lists files excluded by validation or conversion.
	Skipped []FileError
}

// Hooks are the plain callbacks the core exposes to its collaborators.
// All hooks are optional.
type Hooks struct {
	OnUploadSuccess func(rec model.ImageRecord)
	OnDelete        func(id string)
	OnSelect        func(id string)
}

// Orchestrator drives the upload pipeline against an injected store and
// compression engine.
type Orchestrator struct {
	store  store.Store
	engine *compress.Engine
	hooks  Hooks

	now func() time.Time

	// mu guards lastTS. Files within a batch persist sequentially so
	// upload timestamps stay strictly increasing in submission order.
	mu     sync.Mutex
	lastTS int64
}

// NewOrchestrator creates an orchestrator over the given store and
// compression engine.
func NewOrchestrator(s store.Store, engine *compress.Engine, hooks Hooks) *Orchestrator {
	return &Orchestrator{
		store:  s,
		engine: engine,
		hooks:  hooks,
		now:    time.Now,
	}
}

// ProcessFiles runs the pipeline for a batch of selected files.
//
// Files failing validation or conversion are reported in
// BatchResult.Skipped and the batch continues without them. A decode,
// render or persistence failure aborts the remaining batch; records
// already persisted stay persisted.
func (o *Orchestrator) ProcessFiles(ctx context.Context, files []File, opts BatchOptions) (*BatchResult, error) {
	result := &BatchResult{}

	pending := o.validate(files, result)
	pending = o.convert(pending, result)
	if len(pending) == 0 {
		return result, nil
	}

	date, err := o.batchDate(pending, opts)
	if err != nil {
		return result, err
	}

	crop := opts.Crop
	if len(pending) != 1 {
		crop = nil
	}

	for i, f := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rec, err := o.buildRecord(ctx, f, date, crop)
		if err != nil {
			return result, fmt.Errorf("processing %s: %w", f.Name, err)
		}
		if i == 0 {
			rec.Measurements = opts.Measurements
		}
		rec.Normalize()

		if err := o.store.Put(ctx, *rec); err != nil {
			return result, fmt.Errorf("persisting %s: %w", f.Name, err)
		}

		log.Printf("stored %s as %s (%s)", f.Name, rec.ID, imageutil.FormatFileSize(rec.FileSize))
		result.Records = append(result.Records, *rec)
		if o.hooks.OnUploadSuccess != nil {
			o.hooks.OnUploadSuccess(*rec)
		}
	}

	return result, nil
}

// validate applies the type allow-list, collecting per-file errors.
func (o *Orchestrator) validate(files []File, result *BatchResult) []File {
	var pending []File
	for _, f := range files {
		if !imageutil.IsAcceptedType(f.MIMEType, f.Name) {
			result.Skipped = append(result.Skipped, FileError{
				Name: f.Name,
				Err:  &ValidationError{Name: f.Name, MIMEType: f.MIMEType},
			})
			continue
		}
		pending = append(pending, f)
	}
	return pending
}

// convert transcodes non-standard formats to JPEG before any further
// processing, collecting per-file errors.
func (o *Orchestrator) convert(files []File, result *BatchResult) []File {
	var pending []File
	for _, f := range files {
		if imageutil.NeedsConversion(f.MIMEType, f.Name) {
			data, err := ConvertToJPEG(f.Data)
			if err != nil {
				result.Skipped = append(result.Skipped, FileError{
					Name: f.Name,
					Err:  &ConversionError{Name: f.Name, Err: err},
				})
				continue
			}
			f.Data = data
			f.MIMEType = imageutil.MimeJPEG
		}
		pending = append(pending, f)
	}
	return pending
}

// batchDate resolves the photo date for the batch.
func (o *Orchestrator) batchDate(pending []File, opts BatchOptions) (string, error) {
	if opts.Date != "" {
		if !datequery.IsValidDate(opts.Date) {
			return "", fmt.Errorf("invalid photo date %q", opts.Date)
		}
		return opts.Date, nil
	}
	if date, ok := SuggestDate(pending[0]); ok {
		return date, nil
	}
	return datequery.Today(), nil
}

// buildRecord compresses one file (with the optional crop) and
// assembles the record to persist.
func (o *Orchestrator) buildRecord(ctx context.Context, f File, date string, crop *CropRequest) (*model.ImageRecord, error) {
	rec := &model.ImageRecord{
		ID:       imageutil.NewRecordID(),
		Date:     date,
		FileName: f.Name,
	}

	if crop != nil {
		img, _, err := image.Decode(bytes.NewReader(f.Data))
		if err != nil {
			return nil, &compress.DecodeError{Err: err}
		}
		original, err := o.engine.Compress(ctx, img)
		if err != nil {
			return nil, err
		}
		cropped, err := o.engine.CompressRegion(ctx, img, crop.Rect)
		if err != nil {
			return nil, err
		}
		rec.ImageData = cropped.DataURI()
		rec.OriginalImageData = original.DataURI()
		settings := crop.Settings
		rec.CropSettings = &settings
		rec.MimeType = cropped.MimeType
		rec.FileSize = cropped.Size
	} else {
		res, err := o.engine.CompressBytes(ctx, f.Data)
		if err != nil {
			return nil, err
		}
		rec.ImageData = res.DataURI()
		rec.MimeType = res.MimeType
		rec.FileSize = res.Size
	}

	rec.UploadTimestamp = o.nextTimestamp()
	return rec, nil
}

// nextTimestamp returns a millisecond timestamp strictly greater than
// any previously handed out by this orchestrator.
func (o *Orchestrator) nextTimestamp() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	ts := o.now().UnixMilli()
	if ts <= o.lastTS {
		ts = o.lastTS + 1
	}
	o.lastTS = ts
	return ts
}

// Recrop re-crops an existing record from its retained original,
// replacing the stored payload, size and crop settings.
func (o *Orchestrator) Recrop(ctx context.Context, id string, rect model.PixelRect, settings model.CropSettings) (*model.ImageRecord, error) {
	rec, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("record %s not found", id)
	}
	source := rec.OriginalImageData
	if source == "" {
		// First crop of an uncropped record: the current payload
		// becomes the retained original.
		source = rec.ImageData
	}

	_, data, err := imageutil.DecodeDataURI(source)
	if err != nil {
		return nil, fmt.Errorf("recrop %s: %w", id, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &compress.DecodeError{Err: err}
	}

	res, err := o.engine.CompressRegion(ctx, img, rect)
	if err != nil {
		return nil, err
	}

	rec.ImageData = res.DataURI()
	rec.MimeType = res.MimeType
	rec.FileSize = res.Size
	rec.OriginalImageData = source
	rec.CropSettings = &settings

	if err := o.store.Put(ctx, *rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateMeasurements replaces a record's measurements; an all-empty set
// clears them.
func (o *Orchestrator) UpdateMeasurements(ctx context.Context, id string, m *model.Measurements) (*model.ImageRecord, error) {
	rec, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("record %s not found", id)
	}

	rec.Measurements = m
	rec.Normalize()
	if err := o.store.Put(ctx, *rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes a record and fires the delete hook.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	if err := o.store.Delete(ctx, id); err != nil {
		return err
	}
	if o.hooks.OnDelete != nil {
		o.hooks.OnDelete(id)
	}
	return nil
}

// Select fires the selection hook for the presentation layer.
func (o *Orchestrator) Select(id string) {
	if o.hooks.OnSelect != nil {
		o.hooks.OnSelect(id)
	}
}
