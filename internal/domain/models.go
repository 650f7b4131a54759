// Package domain holds the core types shared by the route client, segment
// planner, HOS scheduler, and trip planner.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Coordinate is a (longitude, latitude) pair in decimal degrees.
type Coordinate struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// LineString is an ordered sequence of coordinates describing a route's
// geometry. Must contain at least two points to be meaningful.
type LineString []Coordinate

// Route is the result of a directions lookup: distance, duration, and the
// geometry that produced them. Ephemeral per request.
type Route struct {
	DistanceMiles  float64    `json:"distance"`
	DurationHours  float64    `json:"duration"`
	Geometry       LineString `json:"geometry"`
}

// SegmentType identifies what a PlannedSegment counts against.
type SegmentType string

const (
	SegmentDrive   SegmentType = "drive"
	SegmentOnDuty  SegmentType = "on_duty"
	SegmentOffDuty SegmentType = "off_duty"
)

// PlannedSegment is one intended activity interval produced by the segment
// planner and consumed by the HOS scheduler. Private to the request.
type PlannedSegment struct {
	Type         SegmentType
	DurationHours float64
	Location     string
}

// DutyStatus is the realized status of a DutyEntry inside a daily log.
type DutyStatus string

const (
	StatusDriving DutyStatus = "driving"
	StatusOnDuty  DutyStatus = "on_duty"
	StatusOffDuty DutyStatus = "off_duty"
)

// EndOfDay is the sentinel end-time for an entry that runs to local midnight.
const EndOfDay = "24:00"

// DutyEntry is one contiguous interval inside a DailyLog, always fully
// contained within a single local calendar day.
type DutyEntry struct {
	StartTime     string     `json:"start_time"`
	EndTime       string     `json:"end_time"`
	Status        DutyStatus `json:"status"`
	Location      string     `json:"location"`
	DurationHours float64    `json:"duration_hours"`
}

// DailyTotals summarizes the duty-time breakdown for one DailyLog.
type DailyTotals struct {
	DrivingHours float64 `json:"driving_hours"`
	OnDutyHours  float64 `json:"on_duty_hours"`
	OffDutyHours float64 `json:"off_duty_hours"`
}

// DailyLog is one 24-hour Record of Duty Status page, from local midnight
// to local midnight, with every minute accounted for.
type DailyLog struct {
	Date    string      `json:"date"`
	Entries []DutyEntry `json:"entries"`
	Totals  DailyTotals `json:"totals"`
}

// Driver is a durable record identifying whose HOS clock a trip plan is
// measured against.
type Driver struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	HomeTimezone string    `json:"home_tz" db:"home_tz"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// PersistedDailyRod is the durable, per-(driver, date) Record of Duty
// Status, created or updated in place whenever a driver is attached to a
// trip plan.
type PersistedDailyRod struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	DriverID     uuid.UUID   `json:"driver_id" db:"driver_id"`
	Date         string      `json:"date" db:"date"`
	DrivingHours float64     `json:"driving_hours" db:"driving_hours"`
	OnDutyHours  float64     `json:"on_duty_hours" db:"on_duty_hours"`
	OffDutyHours float64     `json:"off_duty_hours" db:"off_duty_hours"`
	Entries      []DutyEntry `json:"entries" db:"entries"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}
