package weekly

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/draymaster/tripplanner/internal/domain"
)

type mockRodReader struct {
	rods      []domain.PersistedDailyRod
	gotSince  string
	returnErr error
}

func (m *mockRodReader) ListSince(_ context.Context, _ uuid.UUID, sinceDate string) ([]domain.PersistedDailyRod, error) {
	m.gotSince = sinceDate
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return m.rods, nil
}

func TestOnDutyHours_SumsAcrossRods(t *testing.T) {
	reader := &mockRodReader{
		rods: []domain.PersistedDailyRod{
			{Date: "2026-02-24", OnDutyHours: 10},
			{Date: "2026-02-25", OnDutyHours: 8},
			{Date: "2026-02-26", OnDutyHours: 12},
		},
	}

	got, err := OnDutyHours(context.Background(), reader, uuid.New(), "2026-03-02")
	if err != nil {
		t.Fatalf("OnDutyHours() error = %v", err)
	}
	if math.Abs(got-30) > 1e-9 {
		t.Errorf("OnDutyHours() = %v, want 30", got)
	}
}

func TestOnDutyHours_WindowStartIsEightDaysInclusive(t *testing.T) {
	reader := &mockRodReader{}
	if _, err := OnDutyHours(context.Background(), reader, uuid.New(), "2026-03-02"); err != nil {
		t.Fatalf("OnDutyHours() error = %v", err)
	}
	if reader.gotSince != "2026-02-23" {
		t.Errorf("window start = %s, want 2026-02-23 (8 days inclusive of 2026-03-02)", reader.gotSince)
	}
}

func TestOnDutyHours_NoRodsReturnsZero(t *testing.T) {
	reader := &mockRodReader{}
	got, err := OnDutyHours(context.Background(), reader, uuid.New(), "2026-03-02")
	if err != nil {
		t.Fatalf("OnDutyHours() error = %v", err)
	}
	if got != 0 {
		t.Errorf("OnDutyHours() = %v, want 0", got)
	}
}

func TestOnDutyHours_RejectsMalformedDate(t *testing.T) {
	reader := &mockRodReader{}
	if _, err := OnDutyHours(context.Background(), reader, uuid.New(), "not-a-date"); err == nil {
		t.Errorf("expected an error for a malformed asOfDate")
	}
}

func TestOnDutyHours_PropagatesReaderError(t *testing.T) {
	reader := &mockRodReader{returnErr: context.DeadlineExceeded}
	if _, err := OnDutyHours(context.Background(), reader, uuid.New(), "2026-03-02"); err == nil {
		t.Errorf("expected the reader's error to propagate")
	}
}
