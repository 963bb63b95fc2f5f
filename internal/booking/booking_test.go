package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ricirt/booking-backend/internal/booking"
	"github.com/ricirt/booking-backend/internal/clock"
	"github.com/ricirt/booking-backend/internal/domain"
	"github.com/ricirt/booking-backend/internal/repository"
)

const (
	providerID = "11111111-1111-1111-1111-111111111111"
	userID     = "22222222-2222-2222-2222-222222222222"
	otherUser  = "33333333-3333-3333-3333-333333333333"
	zoneSP     = "America/Sao_Paulo"
)

type fixture struct {
	engine *booking.Engine
	appts  *repository.MockAppointmentStore
	outbox *repository.MockOutboxStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	appts := repository.NewMockAppointmentStore()
	outbox := repository.NewMockOutboxStore()
	schedules := repository.NewMockWorkScheduleStore()

	// Monday 09:00-12:00 (weekday 1 under 0=Sunday).
	schedules.AddBlock(domain.WorkHourBlock{
		ProviderID: providerID,
		Weekday:    1,
		StartTime:  domain.LocalTime{Hour: 9, Minute: 0},
		EndTime:    domain.LocalTime{Hour: 12, Minute: 0},
	})

	engine := booking.New(repository.NewMockBeginner(), appts, schedules, outbox, clock.New(), 30)
	return &fixture{engine: engine, appts: appts, outbox: outbox}
}

// 2099-11-02 is a Monday; far enough out that the past check never trips.
const mondaySlot = "2099-11-02T09:00:00-03:00"

func TestCreateAppointment_HappyPath(t *testing.T) {
	f := newFixture(t)

	created, err := f.engine.CreateAppointment(context.Background(), userID, providerID, mondaySlot, zoneSP)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Status != domain.AppointmentPending {
		t.Fatalf("expected PENDING, got %s", created.Status)
	}

	appt, err := f.appts.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	wantUTC := time.Date(2099, 11, 2, 12, 0, 0, 0, time.UTC)
	if !appt.StartsAt.Equal(wantUTC) {
		t.Fatalf("expected starts_at %v, got %v", wantUTC, appt.StartsAt)
	}
	if !appt.EndsAt.Equal(wantUTC.Add(30 * time.Minute)) {
		t.Fatalf("expected ends_at = starts_at + 30m, got %v", appt.EndsAt)
	}

	if n := f.outbox.CountByAggregateAndType(created.ID, domain.EventApptCreated); n != 1 {
		t.Fatalf("expected exactly one APPT_CREATED event, got %d", n)
	}
}

func TestCreateAppointment_SlotTaken(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.CreateAppointment(context.Background(), userID, providerID, mondaySlot, zoneSP); err != nil {
		t.Fatal(err)
	}

	_, err := f.engine.CreateAppointment(context.Background(), otherUser, providerID, mondaySlot, zoneSP)
	if !errors.Is(err, domain.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestCreateAppointment_NaiveInstantRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CreateAppointment(context.Background(), userID, providerID, "2099-11-02T09:00:00", zoneSP)
	if !errors.Is(err, domain.ErrBadInput) {
		t.Fatalf("expected ErrBadInput for offset-naive instant, got %v", err)
	}
}

func TestCreateAppointment_PastRejected(t *testing.T) {
	f := newFixture(t)

	// 2015-11-02 is a Monday inside the work block, but long gone.
	_, err := f.engine.CreateAppointment(context.Background(), userID, providerID, "2015-11-02T09:00:00-02:00", zoneSP)
	if !errors.Is(err, domain.ErrBadInput) {
		t.Fatalf("expected ErrBadInput for a past slot, got %v", err)
	}
}

func TestCreateAppointment_OutsideWorkHours(t *testing.T) {
	f := newFixture(t)

	cases := map[string]string{
		"after block end":        "2099-11-02T12:30:00-03:00",
		"at block end":           "2099-11-02T12:00:00-03:00",
		"end exceeds block end":  "2099-11-02T11:45:00-03:00",
		"before block start":     "2099-11-02T08:30:00-03:00",
		"weekday with no blocks": "2099-11-03T09:00:00-03:00", // Tuesday
	}
	for name, iso := range cases {
		if _, err := f.engine.CreateAppointment(context.Background(), userID, providerID, iso, zoneSP); !errors.Is(err, domain.ErrBadInput) {
			t.Errorf("%s: expected ErrBadInput, got %v", name, err)
		}
	}
}

// The last slot of the block is bookable: it starts before block end and its
// end lands exactly on it. It also need not align to block start.
func TestCreateAppointment_BlockBoundary(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.CreateAppointment(context.Background(), userID, providerID, "2099-11-02T11:30:00-03:00", zoneSP); err != nil {
		t.Fatalf("slot ending exactly at block end should be bookable: %v", err)
	}
	if _, err := f.engine.CreateAppointment(context.Background(), otherUser, providerID, "2099-11-02T09:15:00-03:00", zoneSP); err != nil {
		t.Fatalf("off-grid-but-inside-block slot should be bookable: %v", err)
	}
}

func TestCreateAppointment_UnknownZone(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CreateAppointment(context.Background(), userID, providerID, mondaySlot, "Mars/Olympus_Mons")
	if !errors.Is(err, domain.ErrBadInput) {
		t.Fatalf("expected ErrBadInput for unknown zone, got %v", err)
	}
}

func TestCancelAppointment_Idempotent(t *testing.T) {
	f := newFixture(t)

	created, err := f.engine.CreateAppointment(context.Background(), userID, providerID, mondaySlot, zoneSP)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		result, err := f.engine.CancelAppointment(context.Background(), created.ID, userID)
		if err != nil {
			t.Fatalf("cancel #%d: %v", i+1, err)
		}
		if result.Status != domain.AppointmentCanceled {
			t.Fatalf("cancel #%d: expected CANCELED, got %s", i+1, result.Status)
		}
	}

	if n := f.outbox.CountByAggregateAndType(created.ID, domain.EventApptCanceled); n != 1 {
		t.Fatalf("expected exactly one APPT_CANCELED event after two cancels, got %d", n)
	}
}

func TestCancelAppointment_Forbidden(t *testing.T) {
	f := newFixture(t)

	created, err := f.engine.CreateAppointment(context.Background(), userID, providerID, mondaySlot, zoneSP)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.engine.CancelAppointment(context.Background(), created.ID, otherUser); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCancelAppointment_NotFound(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.CancelAppointment(context.Background(), "missing", userID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelFreesSlotForRebooking(t *testing.T) {
	f := newFixture(t)

	created, err := f.engine.CreateAppointment(context.Background(), userID, providerID, mondaySlot, zoneSP)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.CancelAppointment(context.Background(), created.ID, userID); err != nil {
		t.Fatal(err)
	}

	if _, err := f.engine.CreateAppointment(context.Background(), otherUser, providerID, mondaySlot, zoneSP); err != nil {
		t.Fatalf("canceled slot should be bookable again: %v", err)
	}
}
