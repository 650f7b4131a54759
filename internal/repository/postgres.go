package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/draymaster/tripplanner/internal/domain"
)

// PostgresDriverRepository implements DriverRepository against Postgres.
type PostgresDriverRepository struct {
	db *sqlx.DB
}

// NewPostgresDriverRepository creates a new PostgreSQL driver repository.
func NewPostgresDriverRepository(db *sqlx.DB) *PostgresDriverRepository {
	return &PostgresDriverRepository{db: db}
}

func (r *PostgresDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (id, name, home_tz, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query,
		driver.ID, driver.Name, driver.HomeTimezone, driver.CreatedAt, driver.UpdatedAt)
	return err
}

func (r *PostgresDriverRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Driver, error) {
	var d domain.Driver
	query := `SELECT * FROM drivers WHERE id = $1`
	err := r.db.GetContext(ctx, &d, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PostgresDriverRepository) GetAll(ctx context.Context) ([]domain.Driver, error) {
	var drivers []domain.Driver
	query := `SELECT * FROM drivers ORDER BY name`
	err := r.db.SelectContext(ctx, &drivers, query)
	return drivers, err
}

// PostgresDailyRodRepository implements DailyRodRepository against
// Postgres, storing each DailyLog's entries as a jsonb column.
type PostgresDailyRodRepository struct {
	db *sqlx.DB
}

// NewPostgresDailyRodRepository creates a new PostgreSQL daily-rod repository.
func NewPostgresDailyRodRepository(db *sqlx.DB) *PostgresDailyRodRepository {
	return &PostgresDailyRodRepository{db: db}
}

// rodRow mirrors PersistedDailyRod with a jsonb-scannable Entries column;
// sqlx can't marshal a []domain.DutyEntry into a jsonb column directly.
type rodRow struct {
	ID           uuid.UUID      `db:"id"`
	DriverID     uuid.UUID      `db:"driver_id"`
	Date         string         `db:"date"`
	DrivingHours float64        `db:"driving_hours"`
	OnDutyHours  float64        `db:"on_duty_hours"`
	OffDutyHours float64        `db:"off_duty_hours"`
	Entries      entriesJSON    `db:"entries"`
	CreatedAt    sql.NullTime   `db:"created_at"`
	UpdatedAt    sql.NullTime   `db:"updated_at"`
}

func (row rodRow) toDomain() domain.PersistedDailyRod {
	return domain.PersistedDailyRod{
		ID:           row.ID,
		DriverID:     row.DriverID,
		Date:         row.Date,
		DrivingHours: row.DrivingHours,
		OnDutyHours:  row.OnDutyHours,
		OffDutyHours: row.OffDutyHours,
		Entries:      []domain.DutyEntry(row.Entries),
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}

type entriesJSON []domain.DutyEntry

func (e entriesJSON) Value() (driver.Value, error) {
	return json.Marshal([]domain.DutyEntry(e))
}

func (e *entriesJSON) Scan(src interface{}) error {
	if src == nil {
		*e = nil
		return nil
	}
	bytes, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("entriesJSON: unsupported scan type %T", src)
	}
	return json.Unmarshal(bytes, e)
}

// Upsert inserts or replaces the (driver_id, date) Record of Duty Status,
// matching the original system's update_or_create semantics.
func (r *PostgresDailyRodRepository) Upsert(ctx context.Context, rod *domain.PersistedDailyRod) error {
	if rod.ID == uuid.Nil {
		rod.ID = uuid.New()
	}
	query := `
		INSERT INTO daily_rods (id, driver_id, date, driving_hours, on_duty_hours, off_duty_hours, entries, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (driver_id, date) DO UPDATE SET
			driving_hours = EXCLUDED.driving_hours,
			on_duty_hours = EXCLUDED.on_duty_hours,
			off_duty_hours = EXCLUDED.off_duty_hours,
			entries = EXCLUDED.entries,
			updated_at = now()`

	_, err := r.db.ExecContext(ctx, query,
		rod.ID, rod.DriverID, rod.Date, rod.DrivingHours, rod.OnDutyHours, rod.OffDutyHours,
		entriesJSON(rod.Entries))
	return err
}

func (r *PostgresDailyRodRepository) ListByDriverID(ctx context.Context, driverID uuid.UUID) ([]domain.PersistedDailyRod, error) {
	var rows []rodRow
	query := `SELECT * FROM daily_rods WHERE driver_id = $1 ORDER BY date DESC`
	if err := r.db.SelectContext(ctx, &rows, query, driverID); err != nil {
		return nil, err
	}
	return toDomainRods(rows), nil
}

func (r *PostgresDailyRodRepository) ListSince(ctx context.Context, driverID uuid.UUID, sinceDate string) ([]domain.PersistedDailyRod, error) {
	var rows []rodRow
	query := `SELECT * FROM daily_rods WHERE driver_id = $1 AND date >= $2 ORDER BY date DESC`
	if err := r.db.SelectContext(ctx, &rows, query, driverID, sinceDate); err != nil {
		return nil, err
	}
	return toDomainRods(rows), nil
}

func toDomainRods(rows []rodRow) []domain.PersistedDailyRod {
	rods := make([]domain.PersistedDailyRod, len(rows))
	for i, row := range rows {
		rods[i] = row.toDomain()
	}
	return rods
}
