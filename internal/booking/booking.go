// Package booking implements appointment creation and cancellation. A
// create persists the PENDING row and appends the outbox event in one
// transaction; per-slot uniqueness is enforced by the store's partial
// unique index, never by a read-then-write check here.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ricirt/booking-backend/internal/clock"
	"github.com/ricirt/booking-backend/internal/domain"
	"github.com/ricirt/booking-backend/internal/repository"
)

type Engine struct {
	beginner     repository.Beginner
	appointments repository.AppointmentStore
	schedules    repository.WorkScheduleStore
	outbox       repository.OutboxStore
	clock        *clock.ClockTZ
	slotDuration int
}

func New(
	beginner repository.Beginner,
	appointments repository.AppointmentStore,
	schedules repository.WorkScheduleStore,
	outbox repository.OutboxStore,
	clk *clock.ClockTZ,
	slotDurationMinutes int,
) *Engine {
	return &Engine{
		beginner:     beginner,
		appointments: appointments,
		schedules:    schedules,
		outbox:       outbox,
		clock:        clk,
		slotDuration: slotDurationMinutes,
	}
}

// CreatedAppointment is the result of CreateAppointment.
type CreatedAppointment struct {
	ID     string
	Status domain.AppointmentStatus
}

// CreateAppointment validates the requested slot, inserts a PENDING
// appointment, and appends an APPT_CREATED outbox event in the same
// transaction.
func (e *Engine) CreateAppointment(ctx context.Context, userID, providerID, startsAtISO, zone string) (*CreatedAppointment, error) {
	startsAt, err := time.Parse(time.RFC3339, startsAtISO)
	if err != nil {
		return nil, fmt.Errorf("%w: starts_at_iso must carry an explicit offset", domain.ErrBadInput)
	}

	startsLocal, err := e.toZone(startsAt, zone)
	if err != nil {
		return nil, err
	}
	endsLocal := addMinutes(startsLocal, e.slotDuration)

	nowLocal, err := e.clock.NowIn(zone)
	if err != nil {
		return nil, err
	}
	if !startsLocal.After(nowLocal) {
		return nil, fmt.Errorf("%w: cannot book in the past", domain.ErrBadInput)
	}

	withinHours, err := e.isWithinWorkHours(ctx, providerID, startsLocal, endsLocal, zone)
	if err != nil {
		return nil, err
	}
	if !withinHours {
		return nil, fmt.Errorf("%w: outside provider work hours", domain.ErrBadInput)
	}

	startsUTC := startsLocal.UTC()
	endsUTC := endsLocal.UTC()

	appt := &domain.Appointment{
		ID:         uuid.NewString(),
		UserID:     userID,
		ProviderID: providerID,
		StartsAt:   startsUTC,
		EndsAt:     endsUTC,
		Status:     domain.AppointmentPending,
		CreatedAt:  e.clock.NowUTC(),
		UpdatedAt:  e.clock.NowUTC(),
	}

	tx, err := e.beginner.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	defer tx.Rollback(ctx)

	if err := e.appointments.InsertPending(ctx, tx, appt); err != nil {
		if errors.Is(err, domain.ErrSlotTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}

	payload := map[string]any{
		"provider_id": providerID,
		"starts_at":   startsUTC.Format(time.RFC3339),
	}
	event := &domain.OutboxEvent{
		ID:            uuid.NewString(),
		AggregateType: "Appointment",
		AggregateID:   appt.ID,
		EventType:     domain.EventApptCreated,
		Payload:       payload,
		CreatedAt:     e.clock.NowUTC(),
	}
	if err := e.outbox.Append(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}

	return &CreatedAppointment{ID: appt.ID, Status: domain.AppointmentPending}, nil
}

// CancelAppointment sets the appointment CANCELED and appends an
// APPT_CANCELED outbox event in the same transaction. Cancelling an
// already-CANCELED appointment succeeds without emitting a second event.
func (e *Engine) CancelAppointment(ctx context.Context, appointmentID, userID string) (*CreatedAppointment, error) {
	appt, err := e.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if appt.Status == domain.AppointmentCanceled {
		return &CreatedAppointment{ID: appt.ID, Status: domain.AppointmentCanceled}, nil
	}

	tx, err := e.beginner.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	defer tx.Rollback(ctx)

	if err := e.appointments.Cancel(ctx, tx, appointmentID); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}

	event := &domain.OutboxEvent{
		ID:            uuid.NewString(),
		AggregateType: "Appointment",
		AggregateID:   appt.ID,
		EventType:     domain.EventApptCanceled,
		Payload:       map[string]any{"starts_at": appt.StartsAt.UTC().Format(time.RFC3339)},
		CreatedAt:     e.clock.NowUTC(),
	}
	if err := e.outbox.Append(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}

	return &CreatedAppointment{ID: appt.ID, Status: domain.AppointmentCanceled}, nil
}

// ListMyAppointments delegates to AppointmentStore.ListByUser.
func (e *Engine) ListMyAppointments(ctx context.Context, userID string) ([]*domain.Appointment, error) {
	return e.appointments.ListByUser(ctx, userID)
}

func (e *Engine) toZone(t time.Time, zone string) (time.Time, error) {
	loc, err := loadLocationFor(zone)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

// isWithinWorkHours: block.start <= starts_local < block.end AND
// starts_local+slot <= block.end. The slot need not align to block.start.
func (e *Engine) isWithinWorkHours(ctx context.Context, providerID string, startsLocal, endsLocal time.Time, zone string) (bool, error) {
	weekday := e.clock.WeekdayDB(startsLocal)

	blocks, err := e.schedules.BlocksFor(ctx, providerID, weekday)
	if err != nil {
		return false, err
	}
	if len(blocks) == 0 {
		return false, nil
	}

	for _, block := range blocks {
		blockStart, err := e.clock.LocalDateTime(startsLocal, block.StartTime, zone)
		if err != nil {
			return false, err
		}
		blockEnd, err := e.clock.LocalDateTime(startsLocal, block.EndTime, zone)
		if err != nil {
			return false, err
		}
		if !startsLocal.Before(blockStart) && startsLocal.Before(blockEnd) && !endsLocal.After(blockEnd) {
			return true, nil
		}
	}
	return false, nil
}

func addMinutes(t time.Time, minutes int) time.Time {
	return t.Add(time.Duration(minutes) * time.Minute)
}

func loadLocationFor(zone string) (*time.Location, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", domain.ErrBadInput, zone)
	}
	return loc, nil
}
