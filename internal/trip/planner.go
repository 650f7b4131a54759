// Package trip orchestrates a single trip-planning request: resolve the
// route, split it into activity segments, run the HOS scheduler, persist
// the result for an identified driver, and assemble the response the HTTP
// layer serializes.
package trip

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/draymaster/tripplanner/internal/apperrors"
	"github.com/draymaster/tripplanner/internal/domain"
	"github.com/draymaster/tripplanner/internal/events"
	"github.com/draymaster/tripplanner/internal/hos"
	"github.com/draymaster/tripplanner/internal/logger"
	"github.com/draymaster/tripplanner/internal/repository"
	"github.com/draymaster/tripplanner/internal/routeclient"
	"github.com/draymaster/tripplanner/internal/segment"
	"github.com/draymaster/tripplanner/internal/validation"
	"github.com/draymaster/tripplanner/internal/weekly"
)

const (
	fuelCostPerMile = 0.15
	tollCostPerMile = 0.05
	restStopHours   = 8.0
	weeklyLimitHours = 70.0
)

var restStopAmenities = []string{"Fuel", "Food", "Restrooms", "Parking"}

var coordValidator = validation.NewCoordinateValidator()

// Request is a trip-planning request, mirroring the original system's
// plan-trip payload.
type Request struct {
	CurrentLocation       domain.Coordinate
	Pickup                domain.Coordinate
	Dropoff               domain.Coordinate
	DriverID              string
	CurrentCycleUsedHours float64
	StartDate             string // "2006-01-02", optional
	StartTime             string // "15:04", optional
}

// Response is the assembled trip plan.
type Response struct {
	Route         RouteInfo          `json:"route"`
	DailyLogs     []domain.DailyLog  `json:"daily_logs"`
	TotalDistance float64            `json:"total_distance"`
	TotalDuration float64            `json:"total_duration"`
	HOSCompliance HOSCompliance      `json:"hos_compliance"`
	RestStops     []RestStop         `json:"rest_stops"`
	RouteSegments []RouteSegmentInfo `json:"route_segments"`
}

// RouteInfo carries the resolved route plus the derived cost estimates.
type RouteInfo struct {
	Distance          float64           `json:"distance"`
	Duration          float64           `json:"duration"`
	Geometry          domain.LineString `json:"geometry"`
	Statistics        RouteStatistics   `json:"statistics"`
	EstimatedFuelCost float64           `json:"estimated_fuel_cost"`
	EstimatedTolls    float64           `json:"estimated_tolls"`
}

// RouteStatistics holds derived route metrics.
type RouteStatistics struct {
	AverageSpeed float64 `json:"average_speed"`
}

// HOSCompliance reports whether the generated schedule complies with the
// regulatory limits it was built to satisfy. The scheduler only ever
// produces compliant schedules, so this is always true by construction;
// the shape is kept so a future rules engine can populate it.
type HOSCompliance struct {
	IsCompliant bool     `json:"is_compliant"`
	Violations  []string `json:"violations"`
	Warnings    []string `json:"warnings"`
}

// RestStop is a suggested stopping point along the route.
type RestStop struct {
	Location      domain.Coordinate `json:"location"`
	Distance      float64           `json:"distance"`
	TimeFromStart float64           `json:"time_from_start"`
	Amenities     []string          `json:"amenities"`
}

// RouteSegmentInfo describes one leg of the route for map rendering.
type RouteSegmentInfo struct {
	SegmentNumber int               `json:"segment_number"`
	StartDistance float64           `json:"start_distance"`
	EndDistance   float64           `json:"end_distance"`
	Distance      float64           `json:"distance"`
	Duration      float64           `json:"duration"`
	Coordinates   domain.LineString `json:"coordinates"`
}

// Planner wires the route client, segment planner, and HOS scheduler to
// the persistence and event-publishing layers.
type Planner struct {
	routes   routeclient.Client
	drivers  repository.DriverRepository
	rods     repository.DailyRodRepository
	producer *events.Producer
	log      *logger.Logger
}

// NewPlanner builds a trip Planner. producer may be nil, in which case
// events are skipped entirely (useful for tests and offline tooling).
func NewPlanner(routes routeclient.Client, drivers repository.DriverRepository, rods repository.DailyRodRepository, producer *events.Producer, log *logger.Logger) *Planner {
	if log == nil {
		log = logger.Default()
	}
	return &Planner{routes: routes, drivers: drivers, rods: rods, producer: producer, log: log}
}

// PlanTrip resolves a route, schedules it against HOS limits, persists the
// result for an identified driver, and returns the assembled response.
func (p *Planner) PlanTrip(ctx context.Context, req Request) (*Response, error) {
	if err := coordValidator.ValidateCoordinates(req.CurrentLocation.Latitude, req.CurrentLocation.Longitude); err != nil {
		return nil, apperrors.InvalidInput(err.Error(), "current_location", req.CurrentLocation)
	}
	if err := coordValidator.ValidateCoordinates(req.Pickup.Latitude, req.Pickup.Longitude); err != nil {
		return nil, apperrors.InvalidInput(err.Error(), "pickup", req.Pickup)
	}
	if err := coordValidator.ValidateCoordinates(req.Dropoff.Latitude, req.Dropoff.Longitude); err != nil {
		return nil, apperrors.InvalidInput(err.Error(), "dropoff", req.Dropoff)
	}

	loc := time.UTC
	weeklyUsed := req.CurrentCycleUsedHours
	var driverID uuid.UUID
	hasDriver := false

	if req.DriverID != "" {
		id, err := uuid.Parse(req.DriverID)
		if err != nil {
			return nil, apperrors.InvalidInput("driver_id is not a valid identifier", "driver_id", req.DriverID)
		}
		driver, err := p.drivers.GetByID(ctx, id)
		if err != nil {
			return nil, apperrors.PersistenceFailure("get driver", err)
		}
		if driver == nil {
			return nil, apperrors.UnknownDriver(req.DriverID)
		}
		hasDriver = true
		driverID = id
		if driver.HomeTimezone != "" {
			if l, err := time.LoadLocation(driver.HomeTimezone); err == nil {
				loc = l
			}
		}

		asOf := time.Now().In(loc).Format("2006-01-02")
		used, err := weekly.OnDutyHours(ctx, p.rods, id, asOf)
		if err != nil {
			return nil, apperrors.PersistenceFailure("compute weekly on-duty hours", err)
		}
		weeklyUsed = used
	}

	start, err := resolveStart(req, loc)
	if err != nil {
		return nil, apperrors.InvalidInput("start_date/start_time is malformed", "start_time", req.StartTime)
	}

	route, err := p.routes.GetRoute(ctx, req.CurrentLocation, req.Pickup, req.Dropoff)
	if err != nil {
		return nil, apperrors.Internal("resolve route", err)
	}

	segments := segment.Plan(route)
	logs, err := hos.Schedule(start, segments, weeklyUsed)
	if err != nil {
		return nil, apperrors.Internal("build HOS schedule", err)
	}

	if hasDriver {
		if err := p.persistLogs(ctx, driverID, logs); err != nil {
			return nil, err
		}
	}

	p.publishEvents(ctx, req.DriverID, route, logs, weeklyUsed)

	return &Response{
		Route:         buildRouteInfo(route),
		DailyLogs:     logs,
		TotalDistance: route.DistanceMiles,
		TotalDuration: route.DurationHours,
		HOSCompliance: HOSCompliance{IsCompliant: true, Violations: []string{}, Warnings: []string{}},
		RestStops:     restStops(route),
		RouteSegments: routeSegmentInfos(route),
	}, nil
}

func (p *Planner) persistLogs(ctx context.Context, driverID uuid.UUID, logs []domain.DailyLog) error {
	for _, log := range logs {
		rod := &domain.PersistedDailyRod{
			DriverID:     driverID,
			Date:         log.Date,
			DrivingHours: log.Totals.DrivingHours,
			OnDutyHours:  log.Totals.OnDutyHours,
			OffDutyHours: log.Totals.OffDutyHours,
			Entries:      log.Entries,
		}
		if err := p.rods.Upsert(ctx, rod); err != nil {
			return apperrors.PersistenceFailure(fmt.Sprintf("upsert daily rod for %s", log.Date), err)
		}
	}
	return nil
}

func (p *Planner) publishEvents(ctx context.Context, driverID string, route domain.Route, logs []domain.DailyLog, weeklyUsed float64) {
	if p.producer == nil {
		return
	}

	tripEvent := events.NewEvent(events.TopicTripPlanned, events.TripPlannedData{
		DriverID:      driverID,
		DistanceMiles: route.DistanceMiles,
		DurationHours: route.DurationHours,
		DailyLogCount: len(logs),
	})
	if err := p.producer.Publish(ctx, events.TopicTripPlanned, tripEvent); err != nil {
		p.log.Warnw("failed to publish trip-planned event", "error", err)
	}

	if weeklyUsed > weeklyLimitHours {
		restartEvent := events.NewEvent(events.TopicHOSRestartTriggered, events.HOSRestartTriggeredData{
			DriverID:        driverID,
			WeeklyUsedHours: weeklyUsed,
		})
		if err := p.producer.Publish(ctx, events.TopicHOSRestartTriggered, restartEvent); err != nil {
			p.log.Warnw("failed to publish restart-triggered event", "error", err)
		}
	}
}

func resolveStart(req Request, loc *time.Location) (time.Time, error) {
	if req.StartDate == "" || req.StartTime == "" {
		return time.Now().In(loc), nil
	}
	combined := req.StartDate + "T" + req.StartTime + ":00"
	return time.ParseInLocation("2006-01-02T15:04:05", combined, loc)
}

func buildRouteInfo(route domain.Route) RouteInfo {
	var avgSpeed float64
	if route.DurationHours > 0 {
		avgSpeed = route.DistanceMiles / route.DurationHours
	}
	return RouteInfo{
		Distance:          route.DistanceMiles,
		Duration:          route.DurationHours,
		Geometry:          route.Geometry,
		Statistics:        RouteStatistics{AverageSpeed: avgSpeed},
		EstimatedFuelCost: route.DistanceMiles * fuelCostPerMile,
		EstimatedTolls:    route.DistanceMiles * tollCostPerMile,
	}
}

// restStops places a rest stop every restStopHours of driving, interpolating
// its coordinate and cumulative distance along the route geometry, grounded
// on calculate_rest_stops in the original system's trips/views.py.
func restStops(route domain.Route) []RestStop {
	if route.DurationHours <= 0 || len(route.Geometry) < 2 {
		return nil
	}

	restIntervals := int(route.DurationHours / restStopHours)
	stops := make([]RestStop, 0, restIntervals)
	for i := 1; i <= restIntervals; i++ {
		timeFromStart := float64(i) * restStopHours
		ratio := timeFromStart / route.DurationHours
		idx := clampIndex(int(ratio*float64(len(route.Geometry))), len(route.Geometry)-1)
		stops = append(stops, RestStop{
			Location:      route.Geometry[idx],
			Distance:      ratio * route.DistanceMiles,
			TimeFromStart: timeFromStart,
			Amenities:     restStopAmenities,
		})
	}
	return stops
}

// routeSegmentInfos divides the route into equal-distance legs for map
// rendering, grounded on split_route_segments in the original system's
// trips/views.py.
func routeSegmentInfos(route domain.Route) []RouteSegmentInfo {
	if route.DistanceMiles <= 0 || len(route.Geometry) < 2 {
		return nil
	}

	n := segment.RouteSegmentCount(route.DurationHours)
	segmentDistance := route.DistanceMiles / float64(n)
	infos := make([]RouteSegmentInfo, n)
	for i := 0; i < n; i++ {
		startDistance := float64(i) * segmentDistance
		endDistance := min(float64(i+1)*segmentDistance, route.DistanceMiles)

		startIdx := clampIndex(int((startDistance/route.DistanceMiles)*float64(len(route.Geometry))), len(route.Geometry)-1)
		endIdx := clampIndex(int((endDistance/route.DistanceMiles)*float64(len(route.Geometry))), len(route.Geometry)-1)
		if endIdx < startIdx {
			endIdx = startIdx
		}

		infos[i] = RouteSegmentInfo{
			SegmentNumber: i + 1,
			StartDistance: startDistance,
			EndDistance:   endDistance,
			Distance:      endDistance - startDistance,
			Duration:      (endDistance - startDistance) / route.DistanceMiles * route.DurationHours,
			Coordinates:   route.Geometry[startIdx : endIdx+1],
		}
	}
	return infos
}

func clampIndex(idx, max int) int {
	if idx > max {
		return max
	}
	if idx < 0 {
		return 0
	}
	return idx
}
