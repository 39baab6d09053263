// Package datequery implements date arithmetic over image records:
// sorting, human-readable date differences, and nearest-date search used
// by the comparison features.
package datequery

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/phototrack/phototrack/model"
)

// SortOrder selects the direction of a date sort.
type SortOrder string

const (
	Newest SortOrder = "newest"
	Oldest SortOrder = "oldest"
)

// SortByDate returns a new slice of records stably sorted by their date
// field. The input is never mutated. Records with unparseable dates sort
// as the zero time.
func SortByDate(records []model.ImageRecord, order SortOrder) []model.ImageRecord {
	sorted := make([]model.ImageRecord, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := model.ParseDate(sorted[i].Date)
		b, _ := model.ParseDate(sorted[j].Date)
		if order == Newest {
			return b.Before(a)
		}
		return a.Before(b)
	})
	return sorted
}

// Difference describes the gap between two calendar dates.
//
// Months uses the days/30 approximation rather than true calendar
// months. The formatted wording depends on it, so it is kept as-is.
type Difference struct {
	Days      int
	Weeks     int
	Months    int
	Formatted string
}

// DateDifference computes the absolute calendar-day gap between two
// dates and its tiered human-readable description.
func DateDifference(dateA, dateB string) (Difference, error) {
	a, err := model.ParseDate(dateA)
	if err != nil {
		return Difference{}, err
	}
	b, err := model.ParseDate(dateB)
	if err != nil {
		return Difference{}, err
	}

	days := int(math.Abs(b.Sub(a).Hours()) / 24)
	weeks := days / 7
	months := days / 30

	return Difference{
		Days:      days,
		Weeks:     weeks,
		Months:    months,
		Formatted: formatDifference(days, weeks, months),
	}, nil
}

func formatDifference(days, weeks, months int) string {
	switch {
	case days == 0:
		return "Same day"
	case days == 1:
		return "1 day apart"
	case days < 7:
		return fmt.Sprintf("%d days apart", days)
	case weeks == 1:
		return "1 week apart"
	case weeks < 4:
		if rem := days % 7; rem > 0 {
			return fmt.Sprintf("%d weeks, %d days apart", weeks, rem)
		}
		return fmt.Sprintf("%d weeks apart", weeks)
	case months == 1:
		return "1 month apart"
	case months < 12:
		if rem := (days - months*30) / 7; rem > 0 {
			return fmt.Sprintf("%d months, %d weeks apart", months, rem)
		}
		return fmt.Sprintf("%d months apart", months)
	default:
		years := months / 12
		rem := months % 12
		unit := "years"
		if years == 1 {
			unit = "year"
		}
		if rem > 0 {
			return fmt.Sprintf("%d %s, %d months apart", years, unit, rem)
		}
		return fmt.Sprintf("%d %s apart", years, unit)
	}
}

// ClosestToDate scans records in the given order and returns the one
// whose date is nearest the target, excluding excludeID if non-empty.
// Ties go to the first record encountered (strict less-than). Returns
// nil when no candidate exists.
func ClosestToDate(records []model.ImageRecord, targetDate string, excludeID string) (*model.ImageRecord, error) {
	target, err := model.ParseDate(targetDate)
	if err != nil {
		return nil, err
	}

	var closest *model.ImageRecord
	smallest := time.Duration(math.MaxInt64)

	for i := range records {
		if excludeID != "" && records[i].ID == excludeID {
			continue
		}
		d, err := model.ParseDate(records[i].Date)
		if err != nil {
			continue
		}
		diff := d.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		if diff < smallest {
			smallest = diff
			closest = &records[i]
		}
	}

	if closest == nil {
		return nil, nil
	}
	rec := *closest
	return &rec, nil
}

// FindByDateOffset finds the record closest to baseDate minus
// daysOffset days.
func FindByDateOffset(records []model.ImageRecord, baseDate string, daysOffset int, excludeID string) (*model.ImageRecord, error) {
	base, err := model.ParseDate(baseDate)
	if err != nil {
		return nil, err
	}
	target := base.AddDate(0, 0, -daysOffset).Format(model.DateLayout)
	return ClosestToDate(records, target, excludeID)
}

// FormatDate renders a record date as "Jan 2, 2006".
func FormatDate(date string) string {
	t, err := model.ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2, 2006")
}

// FormatDateShort renders a record date as "Jan 2".
func FormatDateShort(date string) string {
	t, err := model.ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2")
}

// Today returns today's date in record-date form.
func Today() string {
	return time.Now().Format(model.DateLayout)
}

// DateOffset returns the date the given number of days before today.
func DateOffset(days int) string {
	return time.Now().AddDate(0, 0, -days).Format(model.DateLayout)
}

// IsValidDate reports whether a string parses as a record date.
func IsValidDate(date string) bool {
	_, err := model.ParseDate(date)
	return err == nil
}

// RelativeDescription compares two dates for display: "Same date",
// "Earlier" or "Later" (of the first relative to the second).
func RelativeDescription(dateA, dateB string) string {
	a, errA := model.ParseDate(dateA)
	b, errB := model.ParseDate(dateB)
	if errA != nil || errB != nil {
		return ""
	}
	switch {
	case a.Equal(b):
		return "Same date"
	case a.Before(b):
		return "Earlier"
	default:
		return "Later"
	}
}
