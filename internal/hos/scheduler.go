// Package hos implements the FMCSA Hours-of-Service scheduler: the core
// state machine that converts a linear sequence of planned activity
// segments and an absolute start instant into a calendar-aligned sequence
// of daily Record-of-Duty-Status logs.
//
// Schedule is a pure function. It performs no I/O and, given equal inputs,
// always returns equal outputs. Duty-time bookkeeping is done in integer
// seconds internally so that the regulatory thresholds (11h, 14h, 8h,
// 30min, 10h, 34h, 70h) compare exactly, with hours rendered only on
// output, per the system's floating-point design note.
package hos

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/draymaster/tripplanner/internal/domain"
)

// ErrInvalidSegment is returned when a planned segment carries a negative
// or non-finite duration, or an unrecognized type.
var ErrInvalidSegment = errors.New("invalid segment")

const (
	elevenHours     int64 = 11 * 3600
	fourteenHours   int64 = 14 * 3600
	eightHours      int64 = 8 * 3600
	thirtyMinutes   int64 = 30 * 60
	tenHours        int64 = 10 * 3600
	thirtyFourHours int64 = 34 * 3600
	seventyHours    int64 = 70 * 3600
)

// state carries the scheduler's running variables across segments, per
// §4.3's "State" subsection.
type state struct {
	loc         *time.Location
	currentTime time.Time
	dayStart    time.Time

	dailyDriving int64
	dailyOnDuty  int64
	dailyOffDuty int64

	tourDriving        int64
	tourOnDuty         int64
	consecutiveDriving int64
	contiguousOffDuty  int64
	weeklyOnDuty       int64

	entries []domain.DutyEntry
	logs    []domain.DailyLog
}

// Schedule converts segments, an absolute start instant, and the driver's
// already-used rolling 8-day on-duty hours into a day-aligned sequence of
// DailyLogs. The start instant's time.Location is treated as the driver's
// home timezone for local-day partitioning; pass start.In(time.UTC) when
// the driver's timezone is unknown.
func Schedule(start time.Time, segments []domain.PlannedSegment, weeklyUsedHours float64) ([]domain.DailyLog, error) {
	if err := validateSegments(segments); err != nil {
		return nil, err
	}

	loc := start.Location()
	if loc == nil {
		loc = time.UTC
	}
	start = start.In(loc)

	dayStart := floorToDay(start, loc)
	s := &state{
		loc:          loc,
		currentTime:  dayStart,
		dayStart:     dayStart,
		weeklyOnDuty: hoursToSeconds(weeklyUsedHours),
	}

	if start.After(s.dayStart) {
		gap := int64(start.Sub(s.dayStart).Seconds())
		s.emitEntry(domain.StatusOffDuty, gap, "Off Duty")
	}

	if s.weeklyOnDuty > seventyHours {
		s.runSegment(domain.SegmentOffDuty, thirtyFourHours, "34-hour Restart", true)
	}

	for _, seg := range segments {
		if seg.DurationHours == 0 {
			continue
		}
		s.runSegment(seg.Type, hoursToSeconds(seg.DurationHours), seg.Location, false)
	}

	s.maybeSplitMidnight()
	nextMidnight := s.dayStart.AddDate(0, 0, 1)
	if s.currentTime.Before(nextMidnight) {
		gap := int64(nextMidnight.Sub(s.currentTime).Seconds())
		s.emitEntry(domain.StatusOffDuty, gap, "Off Duty")
	}
	s.closeDay()

	return s.logs, nil
}

func validateSegments(segments []domain.PlannedSegment) error {
	for i, seg := range segments {
		if math.IsNaN(seg.DurationHours) || math.IsInf(seg.DurationHours, 0) || seg.DurationHours < 0 {
			return fmt.Errorf("%w: segment %d has invalid duration %v", ErrInvalidSegment, i, seg.DurationHours)
		}
		switch seg.Type {
		case domain.SegmentDrive, domain.SegmentOnDuty, domain.SegmentOffDuty:
		default:
			return fmt.Errorf("%w: segment %d has unknown type %q", ErrInvalidSegment, i, seg.Type)
		}
	}
	return nil
}

// runSegment processes one activity — either an input PlannedSegment or a
// scheduler-synthesized break — to completion, chunking at local midnight
// and inserting further breaks as the regulatory limits demand.
//
// isSyntheticBreak marks a scheduler-inserted rest/reset/restart: if such
// a break straddles midnight, every chunk after the first is logged as
// generic "Off Duty" rather than the break's own label, per the midnight
// split filler rule.
func (s *state) runSegment(segType domain.SegmentType, totalSeconds int64, location string, isSyntheticBreak bool) {
	remaining := totalSeconds
	first := true

	for remaining > 0 {
		s.maybeSplitMidnight()
		untilMidnight := s.untilMidnightSeconds()

		label := location
		if isSyntheticBreak && !first {
			label = "Off Duty"
		}

		switch segType {
		case domain.SegmentDrive:
			if s.tourDriving+remaining >= elevenHours {
				if allowance := elevenHours - s.tourDriving; allowance > 0 {
					chunk := min3(allowance, remaining, untilMidnight)
					s.emitEntry(domain.StatusDriving, chunk, label)
					remaining -= chunk
					first = false
					continue
				}
				s.runSegment(domain.SegmentOffDuty, tenHours, "Rest Break (10 hours)", true)
				continue
			}
			if s.consecutiveDriving+remaining > eightHours {
				if allowance := eightHours - s.consecutiveDriving; allowance > 0 {
					chunk := min3(allowance, remaining, untilMidnight)
					s.emitEntry(domain.StatusDriving, chunk, label)
					remaining -= chunk
					first = false
					continue
				}
				s.runSegment(domain.SegmentOffDuty, thirtyMinutes, "30-min Break", true)
				continue
			}
			chunk := min2(remaining, untilMidnight)
			s.emitEntry(domain.StatusDriving, chunk, label)
			remaining -= chunk
			first = false

		case domain.SegmentOnDuty:
			if s.tourOnDuty+remaining > fourteenHours {
				if allowance := fourteenHours - s.tourOnDuty; allowance > 0 {
					chunk := min3(allowance, remaining, untilMidnight)
					s.emitEntry(domain.StatusOnDuty, chunk, label)
					remaining -= chunk
					first = false
					continue
				}
				s.runSegment(domain.SegmentOffDuty, tenHours, "14-hour Reset", true)
				continue
			}
			chunk := min2(remaining, untilMidnight)
			s.emitEntry(domain.StatusOnDuty, chunk, label)
			remaining -= chunk
			first = false

		case domain.SegmentOffDuty:
			chunk := min2(remaining, untilMidnight)
			s.emitEntry(domain.StatusOffDuty, chunk, label)
			remaining -= chunk
			first = false
		}
	}
}

// emitEntry records one DutyEntry of chunkSeconds at the current time,
// advances current_time, and updates every running counter per §4.3 step 4.
func (s *state) emitEntry(status domain.DutyStatus, chunkSeconds int64, location string) {
	startTime := s.currentTime
	endTime := s.currentTime.Add(time.Duration(chunkSeconds) * time.Second)
	s.currentTime = endTime

	s.entries = append(s.entries, domain.DutyEntry{
		StartTime:     formatClock(startTime),
		EndTime:       s.formatEndClock(endTime),
		Status:        status,
		Location:      location,
		DurationHours: secondsToHours(chunkSeconds),
	})

	switch status {
	case domain.StatusDriving:
		s.dailyDriving += chunkSeconds
		s.dailyOnDuty += chunkSeconds
		s.tourDriving += chunkSeconds
		s.tourOnDuty += chunkSeconds
		s.consecutiveDriving += chunkSeconds
		s.weeklyOnDuty += chunkSeconds
		s.contiguousOffDuty = 0
	case domain.StatusOnDuty:
		s.dailyOnDuty += chunkSeconds
		s.tourOnDuty += chunkSeconds
		s.weeklyOnDuty += chunkSeconds
		s.contiguousOffDuty = 0
	case domain.StatusOffDuty:
		s.dailyOffDuty += chunkSeconds
		s.contiguousOffDuty += chunkSeconds
		if chunkSeconds >= thirtyMinutes {
			s.consecutiveDriving = 0
		}
		if s.contiguousOffDuty >= tenHours {
			s.tourDriving = 0
			s.tourOnDuty = 0
		}
		if s.contiguousOffDuty >= thirtyFourHours {
			s.weeklyOnDuty = 0
		}
	}
}

// maybeSplitMidnight closes out the open day and opens a new one for as
// many local midnights as current_time has crossed.
func (s *state) maybeSplitMidnight() {
	for {
		next := s.dayStart.AddDate(0, 0, 1)
		if s.currentTime.Before(next) {
			return
		}
		s.closeDay()
		s.dayStart = next
		s.entries = nil
		s.dailyDriving, s.dailyOnDuty, s.dailyOffDuty = 0, 0, 0

		if s.currentTime.After(s.dayStart) {
			gap := int64(s.currentTime.Sub(s.dayStart).Seconds())
			s.dailyOffDuty += gap
			s.entries = append(s.entries, domain.DutyEntry{
				StartTime:     "00:00",
				EndTime:       formatClock(s.currentTime),
				Status:        domain.StatusOffDuty,
				Location:      "Off Duty",
				DurationHours: secondsToHours(gap),
			})
		}
	}
}

func (s *state) untilMidnightSeconds() int64 {
	next := s.dayStart.AddDate(0, 0, 1)
	return int64(next.Sub(s.currentTime).Seconds())
}

func (s *state) closeDay() {
	s.logs = append(s.logs, domain.DailyLog{
		Date:    s.dayStart.Format("2006-01-02"),
		Entries: s.entries,
		Totals: domain.DailyTotals{
			DrivingHours: secondsToHours(s.dailyDriving),
			OnDutyHours:  secondsToHours(s.dailyOnDuty),
			OffDutyHours: secondsToHours(s.dailyOffDuty),
		},
	})
}

func (s *state) formatEndClock(end time.Time) string {
	if !end.Before(s.dayStart.AddDate(0, 0, 1)) {
		return domain.EndOfDay
	}
	return formatClock(end)
}

func floorToDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func formatClock(t time.Time) string {
	return t.Format("15:04")
}

func hoursToSeconds(hours float64) int64 {
	return int64(math.Round(hours * 3600))
}

func secondsToHours(seconds int64) float64 {
	return float64(seconds) / 3600
}

func min2(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func min3(a, b, c int64) int64 {
	return min2(min2(a, b), c)
}
