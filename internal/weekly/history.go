// Package weekly computes a driver's rolling 8-day on-duty total, the
// weekly_used input the HOS scheduler needs to decide whether a 34-hour
// restart is due before a new trip begins.
package weekly

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/draymaster/tripplanner/internal/domain"
)

// rollingWindowDays is the FMCSA look-back window for the 70-hour/8-day
// limit: today plus the 7 preceding calendar days.
const rollingWindowDays = 8

// RodReader reads a driver's persisted daily logs. Satisfied by
// repository.DailyRodRepository; narrowed here to the one method this
// package needs.
type RodReader interface {
	ListSince(ctx context.Context, driverID uuid.UUID, sinceDate string) ([]domain.PersistedDailyRod, error)
}

// OnDutyHours sums on-duty hours (which already include driving time, per
// the scheduler's own duty-time accounting) across the 8 calendar days
// ending on asOfDate, inclusive. asOfDate must be formatted "2006-01-02".
func OnDutyHours(ctx context.Context, reader RodReader, driverID uuid.UUID, asOfDate string) (float64, error) {
	since, err := windowStart(asOfDate)
	if err != nil {
		return 0, fmt.Errorf("weekly: %w", err)
	}

	rods, err := reader.ListSince(ctx, driverID, since)
	if err != nil {
		return 0, fmt.Errorf("weekly: list daily rods: %w", err)
	}

	var total float64
	for _, rod := range rods {
		day := rod.Date
		if len(day) > len(asOfDate) {
			day = day[:len(asOfDate)]
		}
		if day > asOfDate {
			continue
		}
		total += rod.OnDutyHours
	}
	return total, nil
}

func windowStart(asOfDate string) (string, error) {
	t, err := parseDate(asOfDate)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, -(rollingWindowDays - 1)).Format("2006-01-02"), nil
}

func parseDate(date string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}
