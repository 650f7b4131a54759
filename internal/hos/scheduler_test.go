package hos

import (
	"math"
	"testing"
	"time"

	"github.com/draymaster/tripplanner/internal/domain"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("tzdata unavailable for %s: %v", name, err)
	}
	return loc
}

func startAt(t *testing.T, hour, minute int) time.Time {
	loc := mustLoc(t, "America/Chicago")
	return time.Date(2026, time.March, 2, hour, minute, 0, 0, loc)
}

func seg(segType domain.SegmentType, hours float64, location string) domain.PlannedSegment {
	return domain.PlannedSegment{Type: segType, DurationHours: hours, Location: location}
}

const epsilonHours = 1e-6

func sumEntryHours(log domain.DailyLog) float64 {
	var total float64
	for _, e := range log.Entries {
		total += e.DurationHours
	}
	return total
}

func checkInvariants(t *testing.T, logs []domain.DailyLog) {
	t.Helper()
	for _, log := range logs {
		sum := sumEntryHours(log)
		if math.Abs(sum-24.0) > epsilonHours {
			t.Errorf("day %s: entries sum to %v, want 24.0", log.Date, sum)
		}

		// On-duty hours already include driving time, so on-duty plus
		// off-duty covers the whole day.
		if math.Abs(log.Totals.OnDutyHours+log.Totals.OffDutyHours-24.0) > epsilonHours {
			t.Errorf("day %s: on-duty plus off-duty totals %+v do not sum to 24.0", log.Date, log.Totals)
		}

		if log.Totals.DrivingHours > 11.0+epsilonHours {
			t.Errorf("day %s: driving hours %v exceeds 11", log.Date, log.Totals.DrivingHours)
		}

		wantStart := "00:00"
		for i, e := range log.Entries {
			if e.StartTime != wantStart {
				t.Errorf("day %s entry %d: start %s, want contiguous start %s", log.Date, i, e.StartTime, wantStart)
			}
			if e.DurationHours <= 0 {
				t.Errorf("day %s entry %d: non-positive duration %v", log.Date, i, e.DurationHours)
			}
			wantStart = e.EndTime
		}
		if last := log.Entries[len(log.Entries)-1]; last.EndTime != domain.EndOfDay {
			t.Errorf("day %s: last entry ends at %s, want %s", log.Date, last.EndTime, domain.EndOfDay)
		}
	}
}

func TestSchedule_ShortDriveNoBreaks(t *testing.T) {
	start := startAt(t, 8, 0)
	segments := []domain.PlannedSegment{
		seg(domain.SegmentOnDuty, 1.0, "Pickup Location"),
		seg(domain.SegmentDrive, 4.0, "Route Segment 1 (200 mi)"),
		seg(domain.SegmentOnDuty, 1.0, "Dropoff Location"),
	}

	logs, err := Schedule(start, segments, 0)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	checkInvariants(t, logs)

	if len(logs) != 1 {
		t.Fatalf("got %d daily logs, want 1", len(logs))
	}
	if logs[0].Totals.DrivingHours != 4.0 {
		t.Errorf("driving hours = %v, want 4.0", logs[0].Totals.DrivingHours)
	}
	if logs[0].Totals.OnDutyHours != 6.0 {
		t.Errorf("on-duty hours = %v, want 6.0 (2h duty + 4h driving)", logs[0].Totals.OnDutyHours)
	}
}

// Scenario: start 08:00, one drive of 12h -> 11h driving, 10h off-duty rest
// break, 1h driving, crossing into day+1.
func TestSchedule_LongDriveInsertsTenHourBreak(t *testing.T) {
	start := startAt(t, 8, 0)
	segments := []domain.PlannedSegment{
		seg(domain.SegmentDrive, 12.0, "Long Haul"),
	}

	logs, err := Schedule(start, segments, 0)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	checkInvariants(t, logs)

	if len(logs) != 2 {
		t.Fatalf("got %d daily logs, want 2", len(logs))
	}

	var totalDriving float64
	var sawTenHourBreak bool
	for _, log := range logs {
		totalDriving += log.Totals.DrivingHours
		for _, e := range log.Entries {
			if e.Status == domain.StatusOffDuty && e.DurationHours >= 1.0 && e.Location == "Rest Break (10 hours)" {
				sawTenHourBreak = true
			}
		}
	}
	if math.Abs(totalDriving-12.0) > epsilonHours {
		t.Errorf("total driving across days = %v, want 12.0", totalDriving)
	}
	if !sawTenHourBreak {
		t.Errorf("expected a 10-hour rest break entry somewhere in the logs")
	}
}

// Scenario: start 08:00, one drive of 9h -> 30-min break after 8h driving,
// no 10-hour rest appears.
func TestSchedule_NineHourDriveInsertsThirtyMinuteBreakOnly(t *testing.T) {
	start := startAt(t, 8, 0)
	segments := []domain.PlannedSegment{
		seg(domain.SegmentDrive, 9.0, "Regional Run"),
	}

	logs, err := Schedule(start, segments, 0)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	checkInvariants(t, logs)

	var sawThirtyMinBreak, sawTenHourBreak bool
	var totalDriving float64
	for _, log := range logs {
		totalDriving += log.Totals.DrivingHours
		for _, e := range log.Entries {
			if e.Status != domain.StatusOffDuty {
				continue
			}
			switch e.Location {
			case "30-min Break":
				sawThirtyMinBreak = true
			case "Rest Break (10 hours)":
				sawTenHourBreak = true
			}
		}
	}
	if !sawThirtyMinBreak {
		t.Errorf("expected a 30-minute break entry")
	}
	if sawTenHourBreak {
		t.Errorf("did not expect a 10-hour rest break for a 9-hour drive")
	}
	if math.Abs(totalDriving-9.0) > epsilonHours {
		t.Errorf("total driving = %v, want 9.0", totalDriving)
	}
}

// Scenario: weekly_used of 75h (over the 70h cap) triggers a 34-hour
// restart before any segment is processed, spanning multiple calendar days.
func TestSchedule_OverSeventyHoursTriggersRestart(t *testing.T) {
	start := startAt(t, 8, 0)
	segments := []domain.PlannedSegment{
		seg(domain.SegmentDrive, 2.0, "Short Hop"),
	}

	logs, err := Schedule(start, segments, 75.0)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	checkInvariants(t, logs)

	if len(logs) < 2 {
		t.Fatalf("34-hour restart should span at least 2 calendar days, got %d", len(logs))
	}

	var sawRestart bool
	for _, log := range logs {
		for _, e := range log.Entries {
			if e.Location == "34-hour Restart" {
				sawRestart = true
			}
		}
	}
	if !sawRestart {
		t.Errorf("expected a 34-hour restart entry")
	}
}

// Scenario: start 22:00, one drive of 4h -> two DailyLogs split at local
// midnight, each entry fully contained within its own day.
func TestSchedule_MidnightSplitsDriveAcrossDays(t *testing.T) {
	start := startAt(t, 22, 0)
	segments := []domain.PlannedSegment{
		seg(domain.SegmentDrive, 4.0, "Overnight Run"),
	}

	logs, err := Schedule(start, segments, 0)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	checkInvariants(t, logs)

	if len(logs) != 2 {
		t.Fatalf("got %d daily logs, want 2", len(logs))
	}
	if logs[0].Totals.DrivingHours != 2.0 {
		t.Errorf("day 1 driving hours = %v, want 2.0", logs[0].Totals.DrivingHours)
	}
	if logs[1].Totals.DrivingHours != 2.0 {
		t.Errorf("day 2 driving hours = %v, want 2.0", logs[1].Totals.DrivingHours)
	}
}

// Scenario: a long-trip segment plan that already pre-aligns its own 10-hour
// rest breaks (each drive chunk <= 11h) should pass through without the
// scheduler inserting any further breaks of its own.
func TestSchedule_PreAlignedLongTripIsNoOp(t *testing.T) {
	start := startAt(t, 6, 0)
	segments := []domain.PlannedSegment{
		seg(domain.SegmentOnDuty, 1.0, "Pickup Location"),
		seg(domain.SegmentDrive, 11.0, "Route Segment 1 (600 mi)"),
		seg(domain.SegmentOffDuty, 10.0, "Rest Break (10 hours)"),
		seg(domain.SegmentDrive, 11.0, "Route Segment 2 (600 mi)"),
		seg(domain.SegmentOffDuty, 10.0, "Rest Break (10 hours)"),
		seg(domain.SegmentDrive, 8.0, "Route Segment 3 (300 mi)"),
		seg(domain.SegmentOnDuty, 1.0, "Dropoff Location"),
	}

	logs, err := Schedule(start, segments, 0)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	checkInvariants(t, logs)

	var totalDriving float64
	for _, log := range logs {
		totalDriving += log.Totals.DrivingHours
	}
	if math.Abs(totalDriving-30.0) > epsilonHours {
		t.Errorf("total driving = %v, want 30.0", totalDriving)
	}
}

func TestSchedule_RejectsNegativeDuration(t *testing.T) {
	start := startAt(t, 8, 0)
	segments := []domain.PlannedSegment{
		seg(domain.SegmentDrive, -1.0, "Bad Segment"),
	}

	if _, err := Schedule(start, segments, 0); err == nil {
		t.Errorf("expected an error for a negative-duration segment")
	}
}

func TestSchedule_RejectsUnknownSegmentType(t *testing.T) {
	start := startAt(t, 8, 0)
	segments := []domain.PlannedSegment{
		{Type: domain.SegmentType("loitering"), DurationHours: 1.0, Location: "?"},
	}

	if _, err := Schedule(start, segments, 0); err == nil {
		t.Errorf("expected an error for an unrecognized segment type")
	}
}

func TestSchedule_SkipsZeroDurationSegment(t *testing.T) {
	start := startAt(t, 8, 0)
	segments := []domain.PlannedSegment{
		seg(domain.SegmentDrive, 0.0, "Nothing"),
		seg(domain.SegmentDrive, 2.0, "Real Drive"),
	}

	logs, err := Schedule(start, segments, 0)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	checkInvariants(t, logs)
	if logs[0].Totals.DrivingHours != 2.0 {
		t.Errorf("driving hours = %v, want 2.0", logs[0].Totals.DrivingHours)
	}
}

func TestSchedule_LeadingOffDutyPreambleWhenStartingMidDay(t *testing.T) {
	start := startAt(t, 9, 30)
	segments := []domain.PlannedSegment{
		seg(domain.SegmentDrive, 1.0, "Quick Hop"),
	}

	logs, err := Schedule(start, segments, 0)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	checkInvariants(t, logs)

	first := logs[0].Entries[0]
	if first.StartTime != "00:00" || first.EndTime != "09:30" || first.Status != domain.StatusOffDuty {
		t.Errorf("expected leading off-duty preamble 00:00-09:30, got %+v", first)
	}
}
