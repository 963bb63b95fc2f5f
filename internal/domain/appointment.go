package domain

import "time"

// AppointmentStatus tracks the lifecycle of an Appointment.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "PENDING"
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentCanceled  AppointmentStatus = "CANCELED"
)

// Appointment is the core booking entity. StartsAt/EndsAt are always UTC
// instants; all wall-clock reasoning happens before persistence (see
// internal/booking and internal/availability).
type Appointment struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	ProviderID string            `json:"provider_id"`
	StartsAt   time.Time         `json:"starts_at"`
	EndsAt     time.Time         `json:"ends_at"`
	Status     AppointmentStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// WorkHourBlock is a local time-of-day interval on a weekday during which a
// provider accepts bookings. Weekday follows the storage convention of
// 0=Sunday..6=Saturday; callers converting from time.Time.Weekday() must go
// through clock.WeekdayDB even though the two happen to agree today.
type WorkHourBlock struct {
	ProviderID string
	Weekday    int // 0=Sunday .. 6=Saturday
	StartTime  LocalTime
	EndTime    LocalTime
}

// LocalTime is a wall-clock time of day with minute resolution, the
// granularity work-hour rows and the slot grid are defined at.
type LocalTime struct {
	Hour   int
	Minute int
}

func (t LocalTime) Before(o LocalTime) bool {
	return t.Hour < o.Hour || (t.Hour == o.Hour && t.Minute < o.Minute)
}

func (t LocalTime) Equal(o LocalTime) bool {
	return t.Hour == o.Hour && t.Minute == o.Minute
}

func (t LocalTime) Add(minutes int) LocalTime {
	total := t.Hour*60 + t.Minute + minutes
	return LocalTime{Hour: total / 60, Minute: total % 60}
}

// AddMinutesWithinDay reports whether adding minutes keeps the result within
// the same day (no midnight spans are allowed on a WorkHourBlock).
func (t LocalTime) AddMinutesWithinDay(minutes int) (LocalTime, bool) {
	total := t.Hour*60 + t.Minute + minutes
	if total > 24*60 {
		return LocalTime{}, false
	}
	return LocalTime{Hour: total / 60 % 24, Minute: total % 60}, true
}
