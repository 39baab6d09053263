// Package store provides the local persistence layer for image records:
// an indexed key-value store queryable by id, by photo date, and by
// upload time, with versioned bulk export/import.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phototrack/phototrack/model"
)

// Store is the persistence contract. All operations may suspend pending
// storage I/O and honor context cancellation.
//
// The secondary orderings (by date, by upload time) are maintained by
// the implementation itself on every Put and Delete; callers never
// manage them.
type Store interface {
	// Put inserts or replaces a record by id.
	Put(ctx context.Context, rec model.ImageRecord) error

	// Get returns the record with the given id, or nil if absent.
	Get(ctx context.Context, id string) (*model.ImageRecord, error)

	// GetAll returns every record, in no implied order.
	GetAll(ctx context.Context) ([]model.ImageRecord, error)

	// GetByDateRange returns records whose date lies within
	// [start, end] inclusive, via the date index.
	GetByDateRange(ctx context.Context, start, end string) ([]model.ImageRecord, error)

	// Delete removes a record. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// Clear removes all records.
	Clear(ctx context.Context) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// ExportAll snapshots every record into a versioned envelope.
	ExportAll(ctx context.Context) (*model.ExportEnvelope, error)

	// ImportAll inserts or overwrites every syntactically valid record
	// in the envelope within a single transaction, returning the number
	// of records accepted. Malformed individual entries are skipped; a
	// malformed envelope fails with a FormatError.
	ImportAll(ctx context.Context, env *model.ExportEnvelope) (int, error)

	// Close releases the underlying storage handle.
	Close() error
}

// QuotaError indicates the storage backend ran out of space.
type QuotaError struct {
	Err error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("storage quota exceeded: %v", e.Err)
}

func (e *QuotaError) Unwrap() error { return e.Err }

// FormatError indicates a malformed export envelope on import.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid export file format: " + e.Reason
}

// validateEnvelope rejects envelopes missing the version or the images
// array. Individual record problems are handled per-entry by ImportAll.
func validateEnvelope(env *model.ExportEnvelope) error {
	if env == nil {
		return &FormatError{Reason: "envelope is missing"}
	}
	if env.Version == "" {
		return &FormatError{Reason: "missing version"}
	}
	if env.Images == nil {
		return &FormatError{Reason: "missing images array"}
	}
	return nil
}

// importable reports whether an imported entry carries the minimum
// required fields and parses as a valid record. Entries failing this
// check are skipped, not fatal.
func importable(rec *model.ImageRecord) bool {
	if rec.ID == "" || rec.ImageData == "" || rec.Date == "" {
		return false
	}
	rec.Normalize()
	return rec.Validate() == nil
}

// DecodeEnvelope parses export-file bytes into an envelope, mapping
// structural JSON problems to a FormatError.
func DecodeEnvelope(data []byte) (*model.ExportEnvelope, error) {
	var env model.ExportEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &FormatError{Reason: err.Error()}
	}
	if err := validateEnvelope(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

// EncodeEnvelope renders an envelope as the on-disk export document.
func EncodeEnvelope(env *model.ExportEnvelope) ([]byte, error) {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export envelope: %w", err)
	}
	return data, nil
}
