package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/phototrack/phototrack/model"
)

// SQLiteStore implements Store on an embedded SQLite database.
//
// The by-date and by-upload orderings are plain SQL indexes on the
// images table; the database keeps them consistent with every write.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS images (
    id TEXT PRIMARY KEY,
    image_data TEXT NOT NULL,
    date TEXT NOT NULL,
    upload_ts INTEGER NOT NULL,
    mime_type TEXT NOT NULL DEFAULT '',
    file_name TEXT NOT NULL DEFAULT '',
    file_size INTEGER NOT NULL DEFAULT 0,
    measurements TEXT,
    original_image_data TEXT,
    crop_settings TEXT
);

CREATE INDEX IF NOT EXISTS idx_images_date ON images(date);
CREATE INDEX IF NOT EXISTS idx_images_upload ON images(upload_ts);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);
`

// schemaVersion is the current database schema version. Fresh databases
// start here; the version table gates future migrations.
const schemaVersion = 1

// NewSQLiteStore opens (creating if necessary) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("open store: database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("open store: creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create base schema: %w", err)
	}

	var version int
	err := db.QueryRow("SELECT version FROM schema_version").Scan(&version)
	if err == sql.ErrNoRows {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}
	return nil
}

// Put inserts or replaces a record by id. Records are normalized and
// validated before they hit the database.
func (s *SQLiteStore) Put(ctx context.Context, rec model.ImageRecord) error {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("put record: %w", err)
	}

	measurements, cropSettings, err := encodeOptional(&rec)
	if err != nil {
		return fmt.Errorf("put record %s: %w", rec.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO images
			(id, image_data, date, upload_ts, mime_type, file_name, file_size,
			 measurements, original_image_data, crop_settings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ImageData, rec.Date, rec.UploadTimestamp,
		rec.MimeType, rec.FileName, rec.FileSize,
		measurements, nullString(rec.OriginalImageData), cropSettings)
	if err != nil {
		return wrapStorageErr("put record "+rec.ID, err)
	}
	return nil
}

// Get returns the record with the given id, or nil if absent.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.ImageRecord, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM images WHERE id = ?", id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return rec, nil
}

// GetAll returns every stored record.
func (s *SQLiteStore) GetAll(ctx context.Context) ([]model.ImageRecord, error) {
	return s.queryRecords(ctx, selectColumns+" FROM images")
}

// GetByDateRange returns records with date within [start, end]
// inclusive, served by the date index.
func (s *SQLiteStore) GetByDateRange(ctx context.Context, start, end string) ([]model.ImageRecord, error) {
	return s.queryRecords(ctx,
		selectColumns+" FROM images WHERE date >= ? AND date <= ? ORDER BY date", start, end)
}

// Delete removes a record; deleting an absent id is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM images WHERE id = ?", id); err != nil {
		return wrapStorageErr("delete record "+id, err)
	}
	return nil
}

// Clear removes all records.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM images"); err != nil {
		return wrapStorageErr("clear store", err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM images").Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// ExportAll snapshots all records plus the schema version and export
// instant into an envelope.
func (s *SQLiteStore) ExportAll(ctx context.Context) (*model.ExportEnvelope, error) {
	images, err := s.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if images == nil {
		images = []model.ImageRecord{}
	}
	return &model.ExportEnvelope{
		Version:    model.EnvelopeVersion,
		ExportDate: time.Now().UTC().Format(time.RFC3339),
		Images:     images,
	}, nil
}

// ImportAll applies an envelope within a single transaction. A
// transaction failure rolls everything back: nothing is imported on
// failure. Entries missing id, imageData or date are skipped and do not
// count toward the returned total.
func (s *SQLiteStore) ImportAll(ctx context.Context, env *model.ExportEnvelope) (int, error) {
	if err := validateEnvelope(env); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapStorageErr("import", err)
	}
	defer tx.Rollback()

	imported := 0
	for i := range env.Images {
		rec := env.Images[i]
		if !importable(&rec) {
			continue
		}
		measurements, cropSettings, err := encodeOptional(&rec)
		if err != nil {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO images
				(id, image_data, date, upload_ts, mime_type, file_name, file_size,
				 measurements, original_image_data, crop_settings)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.ImageData, rec.Date, rec.UploadTimestamp,
			rec.MimeType, rec.FileName, rec.FileSize,
			measurements, nullString(rec.OriginalImageData), cropSettings)
		if err != nil {
			return 0, wrapStorageErr("import record "+rec.ID, err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, wrapStorageErr("import commit", err)
	}
	return imported, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const selectColumns = `SELECT id, image_data, date, upload_ts, mime_type, file_name, file_size,
	measurements, original_image_data, crop_settings`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.ImageRecord, error) {
	var rec model.ImageRecord
	var measurements, original, cropSettings sql.NullString

	err := row.Scan(&rec.ID, &rec.ImageData, &rec.Date, &rec.UploadTimestamp,
		&rec.MimeType, &rec.FileName, &rec.FileSize,
		&measurements, &original, &cropSettings)
	if err != nil {
		return nil, err
	}

	if measurements.Valid {
		m := &model.Measurements{}
		if err := json.Unmarshal([]byte(measurements.String), m); err != nil {
			return nil, fmt.Errorf("decode measurements for %s: %w", rec.ID, err)
		}
		rec.Measurements = m
	}
	if original.Valid {
		rec.OriginalImageData = original.String
	}
	if cropSettings.Valid {
		cs := &model.CropSettings{}
		if err := json.Unmarshal([]byte(cropSettings.String), cs); err != nil {
			return nil, fmt.Errorf("decode crop settings for %s: %w", rec.ID, err)
		}
		rec.CropSettings = cs
	}
	return &rec, nil
}

func (s *SQLiteStore) queryRecords(ctx context.Context, query string, args ...any) ([]model.ImageRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []model.ImageRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// encodeOptional serializes the nullable JSON columns of a record.
func encodeOptional(rec *model.ImageRecord) (measurements, cropSettings sql.NullString, err error) {
	if rec.Measurements != nil {
		data, err := json.Marshal(rec.Measurements)
		if err != nil {
			return measurements, cropSettings, fmt.Errorf("encode measurements: %w", err)
		}
		measurements = sql.NullString{String: string(data), Valid: true}
	}
	if rec.CropSettings != nil {
		data, err := json.Marshal(rec.CropSettings)
		if err != nil {
			return measurements, cropSettings, fmt.Errorf("encode crop settings: %w", err)
		}
		cropSettings = sql.NullString{String: string(data), Valid: true}
	}
	return measurements, cropSettings, nil
}

// wrapStorageErr maps backend failures onto the error taxonomy:
// out-of-space conditions surface as a QuotaError.
func wrapStorageErr(op string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "disk is full") || strings.Contains(msg, "database or disk is full") {
		return &QuotaError{Err: fmt.Errorf("%s: %w", op, err)}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// nullString converts an empty string to NULL for database storage.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
