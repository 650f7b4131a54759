// Package repository persists drivers and their daily Records of Duty
// Status, following the draymaster driver-service repository pattern:
// narrow interfaces per aggregate, backed by a sqlx/lib-pq Postgres
// implementation.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/draymaster/tripplanner/internal/domain"
)

// DriverRepository defines driver data access methods.
type DriverRepository interface {
	Create(ctx context.Context, driver *domain.Driver) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Driver, error)
	GetAll(ctx context.Context) ([]domain.Driver, error)
}

// DailyRodRepository defines Record-of-Duty-Status persistence. Upsert is
// the workhorse: the trip planner calls it once per DailyLog the scheduler
// returns for an identified driver, replacing whatever was on file for
// that (driver, date) pair.
type DailyRodRepository interface {
	Upsert(ctx context.Context, rod *domain.PersistedDailyRod) error
	ListByDriverID(ctx context.Context, driverID uuid.UUID) ([]domain.PersistedDailyRod, error)
	ListSince(ctx context.Context, driverID uuid.UUID, sinceDate string) ([]domain.PersistedDailyRod, error)
}
