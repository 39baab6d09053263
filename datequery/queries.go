package datequery

import (
	"context"
	"sort"

	"github.com/phototrack/phototrack/model"
	"github.com/phototrack/phototrack/store"
)

// Queries serves comparison lookups against an injected store.
type Queries struct {
	store store.Store
}

// NewQueries creates a query service over the given store.
func NewQueries(s store.Store) *Queries {
	return &Queries{store: s}
}

// ClosestToDate finds the stored record nearest the target date.
// Records are scanned in ascending upload order, so when two records
// are equidistant the earliest upload wins deterministically.
func (q *Queries) ClosestToDate(ctx context.Context, targetDate, excludeID string) (*model.ImageRecord, error) {
	records, err := q.byUploadOrder(ctx)
	if err != nil {
		return nil, err
	}
	return ClosestToDate(records, targetDate, excludeID)
}

// FindByDateOffset finds the stored record closest to baseDate minus
// daysOffset days, the lookup behind "compare with N days ago".
func (q *Queries) FindByDateOffset(ctx context.Context, baseDate string, daysOffset int, excludeID string) (*model.ImageRecord, error) {
	records, err := q.byUploadOrder(ctx)
	if err != nil {
		return nil, err
	}
	return FindByDateOffset(records, baseDate, daysOffset, excludeID)
}

// Sorted returns all stored records sorted by date.
func (q *Queries) Sorted(ctx context.Context, order SortOrder) ([]model.ImageRecord, error) {
	records, err := q.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return SortByDate(records, order), nil
}

func (q *Queries) byUploadOrder(ctx context.Context) ([]model.ImageRecord, error) {
	records, err := q.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UploadTimestamp < records[j].UploadTimestamp
	})
	return records, nil
}
