package store

import (
	"context"
	"sync"
	"time"

	"github.com/phototrack/phototrack/model"
)

// MemStore is an in-memory Store used by tests and by callers that want
// the orchestrator and query layer without a database on disk.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]model.ImageRecord

	// PutErr, when set, is returned by every Put. Tests use it to
	// simulate storage failures mid-batch.
	PutErr error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]model.ImageRecord)}
}

func (s *MemStore) Put(ctx context.Context, rec model.ImageRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.PutErr != nil {
		return s.PutErr
	}
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

func (s *MemStore) Get(ctx context.Context, id string) (*model.ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemStore) GetAll(ctx context.Context) ([]model.ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]model.ImageRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	return records, nil
}

func (s *MemStore) GetByDateRange(ctx context.Context, start, end string) ([]model.ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []model.ImageRecord
	for _, rec := range s.records {
		if rec.Date >= start && rec.Date <= end {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s *MemStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *MemStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]model.ImageRecord)
	return nil
}

func (s *MemStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemStore) ExportAll(ctx context.Context) (*model.ExportEnvelope, error) {
	images, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
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

// ImportAll mirrors the SQLite semantics: the batch is all-or-nothing,
// so entries are staged and applied only after the whole envelope has
// been walked.
func (s *MemStore) ImportAll(ctx context.Context, env *model.ExportEnvelope) (int, error) {
	if err := validateEnvelope(env); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	staged := make([]model.ImageRecord, 0, len(env.Images))
	for i := range env.Images {
		rec := env.Images[i]
		if !importable(&rec) {
			continue
		}
		staged = append(staged, rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range staged {
		s.records[rec.ID] = rec
	}
	return len(staged), nil
}

func (s *MemStore) Close() error { return nil }
