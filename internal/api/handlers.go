// Package api exposes the trip-planning HTTP surface: POST /plan-trip/,
// GET /drivers/, and GET /drivers/{id}/logs/, built on the Go 1.22
// pattern-based ServeMux rather than an external router.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/draymaster/tripplanner/internal/apperrors"
	"github.com/draymaster/tripplanner/internal/domain"
	"github.com/draymaster/tripplanner/internal/logger"
	"github.com/draymaster/tripplanner/internal/repository"
	"github.com/draymaster/tripplanner/internal/trip"
)

// Server holds the dependencies the HTTP handlers need.
type Server struct {
	planner *trip.Planner
	drivers repository.DriverRepository
	rods    repository.DailyRodRepository
	log     *logger.Logger
}

// NewServer builds an API server.
func NewServer(planner *trip.Planner, drivers repository.DriverRepository, rods repository.DailyRodRepository, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{planner: planner, drivers: drivers, rods: rods, log: log}
}

// Routes builds the HTTP mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /plan-trip/", s.handlePlanTrip)
	mux.HandleFunc("GET /drivers/", s.handleListDrivers)
	mux.HandleFunc("GET /drivers/{id}/logs/", s.handleDriverLogs)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleHealth)
	return mux
}

// planTripPayload is the wire shape of a plan-trip request. Coordinate
// pairs are [longitude, latitude], matching the route providers' own
// GeoJSON convention.
type planTripPayload struct {
	CurrentLocation       [2]float64 `json:"current_location"`
	Pickup                [2]float64 `json:"pickup"`
	Dropoff               [2]float64 `json:"dropoff"`
	DriverID              string     `json:"driver_id,omitempty"`
	CurrentCycleUsedHours float64    `json:"current_cycle_used_hours"`
	StartDate             string     `json:"start_date,omitempty"`
	StartTime             string     `json:"start_time,omitempty"`
}

func (s *Server) handlePlanTrip(w http.ResponseWriter, r *http.Request) {
	var payload planTripPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperrors.InvalidInput("request body is not valid JSON", "body", err.Error()))
		return
	}

	req := trip.Request{
		CurrentLocation:       toCoordinate(payload.CurrentLocation),
		Pickup:                toCoordinate(payload.Pickup),
		Dropoff:               toCoordinate(payload.Dropoff),
		DriverID:              payload.DriverID,
		CurrentCycleUsedHours: payload.CurrentCycleUsedHours,
		StartDate:             payload.StartDate,
		StartTime:             payload.StartTime,
	}

	resp, err := s.planner.PlanTrip(r.Context(), req)
	if err != nil {
		s.log.WithError(err).Warnw("plan-trip request failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := s.drivers.GetAll(r.Context())
	if err != nil {
		writeError(w, apperrors.PersistenceFailure("list drivers", err))
		return
	}
	writeJSON(w, http.StatusOK, drivers)
}

func (s *Server) handleDriverLogs(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput("id is not a valid identifier", "id", r.PathValue("id")))
		return
	}

	driver, err := s.drivers.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, apperrors.PersistenceFailure("get driver", err))
		return
	}
	if driver == nil {
		writeError(w, apperrors.UnknownDriver(id.String()))
		return
	}

	logs, err := s.rods.ListByDriverID(r.Context(), id)
	if err != nil {
		writeError(w, apperrors.PersistenceFailure("list daily rods", err))
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toCoordinate(pair [2]float64) domain.Coordinate {
	return domain.Coordinate{Longitude: pair[0], Latitude: pair[1]}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// errorResponse is the wire shape for a failed request.
type errorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	status := apperrors.StatusCode(err)
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal("unexpected error", err)
	}
	writeJSON(w, status, errorResponse{Error: appErr.Message, Code: appErr.Code, Details: appErr.Details})
}
