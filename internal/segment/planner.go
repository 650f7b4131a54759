// Package segment turns a single route (distance + duration) into the
// linear sequence of planned activities the HOS scheduler consumes: a
// pickup stop, one or more drive legs interleaved with fueling or rest
// stops, and a dropoff stop.
package segment

import (
	"fmt"

	"github.com/draymaster/tripplanner/internal/domain"
)

const (
	maxDriveLegMiles   = 1000.0
	maxDriveLegHours   = 11.0
	fuelingStopHours   = 0.5
	restBreakHours     = 10.0
	pickupDutyHours    = 1.0
	dropoffDutyHours   = 1.0
)

// Plan builds the segment list for one route. Routes whose total driving
// duration fits within a single 11-hour drive window are split by
// distance, every 1000 miles, with a short fueling stop between legs.
// Longer routes are split by duration, every 11 hours, with a full 10-hour
// rest break between legs so each leg is already schedule-legal on its own.
func Plan(route domain.Route) []domain.PlannedSegment {
	segments := []domain.PlannedSegment{
		{Type: domain.SegmentOnDuty, DurationHours: pickupDutyHours, Location: "Pickup Location"},
	}

	if route.DurationHours <= maxDriveLegHours {
		segments = append(segments, planByDistance(route)...)
	} else {
		segments = append(segments, planByDuration(route)...)
	}

	segments = append(segments, domain.PlannedSegment{
		Type: domain.SegmentOnDuty, DurationHours: dropoffDutyHours, Location: "Dropoff Location",
	})
	return segments
}

func planByDistance(route domain.Route) []domain.PlannedSegment {
	if route.DistanceMiles <= 0 || route.DurationHours <= 0 {
		return nil
	}

	var segments []domain.PlannedSegment
	remainingDistance := route.DistanceMiles
	leg := 1
	for remainingDistance > 0 {
		legDistance := remainingDistance
		if legDistance > maxDriveLegMiles {
			legDistance = maxDriveLegMiles
		}
		legDriveHours := (legDistance / route.DistanceMiles) * route.DurationHours

		segments = append(segments, domain.PlannedSegment{
			Type:          domain.SegmentDrive,
			DurationHours: legDriveHours,
			Location:      fmt.Sprintf("Route Segment %d (%.0f mi)", leg, legDistance),
		})

		remainingDistance -= legDistance
		if remainingDistance > 0 {
			segments = append(segments, domain.PlannedSegment{
				Type: domain.SegmentOnDuty, DurationHours: fuelingStopHours, Location: "Fueling Stop",
			})
		}
		leg++
	}
	return segments
}

func planByDuration(route domain.Route) []domain.PlannedSegment {
	var segments []domain.PlannedSegment
	remainingDuration := route.DurationHours
	leg := 1
	for remainingDuration > 0 {
		legHours := remainingDuration
		if legHours > maxDriveLegHours {
			legHours = maxDriveLegHours
		}

		segments = append(segments, domain.PlannedSegment{
			Type:          domain.SegmentDrive,
			DurationHours: legHours,
			Location:      fmt.Sprintf("Route Segment %d", leg),
		})

		remainingDuration -= legHours
		if remainingDuration > 0 {
			segments = append(segments, domain.PlannedSegment{
				Type: domain.SegmentOffDuty, DurationHours: restBreakHours, Location: "Rest Break (10 hours)",
			})
		}
		leg++
	}
	return segments
}

// RouteSegmentCount returns how many equal driving legs a route of the
// given duration splits into for reporting purposes: one leg per started
// 11-hour block.
func RouteSegmentCount(durationHours float64) int {
	if durationHours <= 0 {
		return 1
	}
	n := int(durationHours / maxDriveLegHours)
	if float64(n)*maxDriveLegHours < durationHours {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}
