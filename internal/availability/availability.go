// Package availability computes, for a provider on a local calendar date in
// an IANA zone, the ordered list of free slot starts: candidates generated
// from the provider's work-hour blocks, minus taken slots, minus anything
// at or before the zone's current wall clock.
package availability

import (
	"context"
	"sort"
	"time"

	"github.com/ricirt/booking-backend/internal/clock"
	"github.com/ricirt/booking-backend/internal/domain"
	"github.com/ricirt/booking-backend/internal/repository"
)

// widenWindow brackets the local day with ±2h of UTC slack so a DST shift
// never clips a real candidate out of the slots_taken query; the exact
// local-date filter happens at the candidate level, since every candidate
// is already bound to date D by construction.
const widenWindow = 2 * time.Hour

type Engine struct {
	schedules    repository.WorkScheduleStore
	appointments repository.AppointmentStore
	clock        *clock.ClockTZ
	slotDuration int
}

func New(schedules repository.WorkScheduleStore, appointments repository.AppointmentStore, clk *clock.ClockTZ, slotDurationMinutes int) *Engine {
	return &Engine{schedules: schedules, appointments: appointments, clock: clk, slotDuration: slotDurationMinutes}
}

// Compute returns the ordered list of available local instants, formatted
// as offset-bearing ISO-8601 strings.
func (e *Engine) Compute(ctx context.Context, providerID string, dateISO string, zone string) ([]string, error) {
	day, err := e.clock.ParseDate(dateISO)
	if err != nil {
		return nil, err
	}

	nowLocal, err := e.clock.NowIn(zone)
	if err != nil {
		return nil, err
	}

	weekday, err := e.weekdayFor(day, zone)
	if err != nil {
		return nil, err
	}

	blocks, err := e.schedules.BlocksFor(ctx, providerID, weekday)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return []string{}, nil
	}

	candidates, err := e.generateCandidates(day, zone, blocks)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []string{}, nil
	}

	dayStartUTC, err := e.clock.LocalDateTime(day, domain.LocalTime{}, zone)
	if err != nil {
		return nil, err
	}
	dayStartUTC = dayStartUTC.UTC()
	windowFrom := dayStartUTC.Add(-widenWindow)
	windowTo := dayStartUTC.Add(24*time.Hour + widenWindow)

	taken, err := e.appointments.SlotsTaken(ctx, providerID, windowFrom, windowTo)
	if err != nil {
		return nil, err
	}

	var available []time.Time
	for _, candidate := range candidates {
		if _, isTaken := taken[candidate.UTC()]; isTaken {
			continue
		}
		if !candidate.After(nowLocal) {
			continue
		}
		available = append(available, candidate)
	}

	sort.Slice(available, func(i, j int) bool { return available[i].Before(available[j]) })

	result := make([]string, 0, len(available))
	for _, t := range available {
		result = append(result, t.Format(time.RFC3339))
	}
	return result, nil
}

// weekdayFor resolves D's weekday under the 0=Sunday storage convention by
// building local midnight for D in zone and reading its Go weekday (which is
// already 0=Sunday, per ClockTZ.WeekdayDB).
func (e *Engine) weekdayFor(day time.Time, zone string) (int, error) {
	localMidnight, err := e.clock.LocalDateTime(day, domain.LocalTime{}, zone)
	if err != nil {
		return 0, err
	}
	return e.clock.WeekdayDB(localMidnight), nil
}

// generateCandidates builds every slot start across all blocks for the day,
// de-duplicating overlapping blocks at the exact local-instant level.
func (e *Engine) generateCandidates(day time.Time, zone string, blocks []domain.WorkHourBlock) ([]time.Time, error) {
	seen := make(map[time.Time]struct{})
	var candidates []time.Time

	for _, block := range blocks {
		start, err := e.clock.LocalDateTime(day, block.StartTime, zone)
		if err != nil {
			return nil, err
		}
		end, err := e.clock.LocalDateTime(day, block.EndTime, zone)
		if err != nil {
			return nil, err
		}

		step := time.Duration(e.slotDuration) * time.Minute
		for cur := start; !cur.Add(step).After(end); cur = cur.Add(step) {
			if _, dup := seen[cur]; dup {
				continue
			}
			seen[cur] = struct{}{}
			candidates = append(candidates, cur)
		}
	}
	return candidates, nil
}
