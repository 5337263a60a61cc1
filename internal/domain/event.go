package domain

import (
	"slices"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
)

type Event struct {
	ID          string  `json:"id"`
	CommunityID string  `json:"community_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     *string `json:"end_time,omitempty"`
	TimeZone    string  `json:"time_zone"`
	Location    string  `json:"location"`
	CreatedBy   string  `json:"created_by"`

	// UTC instants derived from Date, StartTime, EndTime and TimeZone.
	DateAt   time.Time  `json:"date_at"`
	StartsAt time.Time  `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`

	MaxParticipants *int `json:"max_participants"`

	RegisteredParticipants []string          `json:"registered_participants"`
	RegistrationCount      int               `json:"registration_count"`
	AttendanceLog          []AttendanceEntry `json:"attendance_log"`
	Version                int               `json:"-"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

type AttendanceEntry struct {
	UserID   string    `json:"user_id"`
	MarkedAt time.Time `json:"marked_at"`
	Verified bool      `json:"verified"`
}

// EventView is an event annotated with everything computed at read time.
type EventView struct {
	Event
	Status         EventStatus `json:"status"`
	AvailableSlots *int        `json:"available_slots"`
}

type EventPage struct {
	Events   []EventView `json:"events"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int64       `json:"total"`
}

// ComputeStatus classifies the event relative to now. An event without an end
// time completes the moment its date arrives.
func ComputeStatus(e Event, now time.Time) EventStatus {
	if now.Before(e.DateAt) {
		return EventStatusUpcoming
	}
	if e.EndsAt == nil {
		return EventStatusCompleted
	}
	if !now.After(*e.EndsAt) {
		return EventStatusOngoing
	}
	return EventStatusCompleted
}

// AvailableSlots returns nil for unlimited events and is floored at zero.
func AvailableSlots(maxParticipants *int, activeCount int) *int {
	if maxParticipants == nil {
		return nil
	}
	slots := max(0, *maxParticipants-activeCount)
	return &slots
}

func (e Event) IsDeleted() bool {
	return e.DeletedAt != nil
}

func (e Event) HasAttendance(userID string) bool {
	return slices.ContainsFunc(e.AttendanceLog, func(a AttendanceEntry) bool {
		return a.UserID == userID
	})
}

// View annotates the event using activeCount as the authoritative figure.
func (e Event) View(now time.Time, activeCount int) EventView {
	e.RegistrationCount = activeCount
	return EventView{
		Event:          e,
		Status:         ComputeStatus(e, now),
		AvailableSlots: AvailableSlots(e.MaxParticipants, activeCount),
	}
}

// ResolveSchedule turns the wall-clock date and times into UTC instants in the
// given location.
func ResolveSchedule(date, startTime string, endTime *string, loc *time.Location) (dateAt, startsAt time.Time, endsAt *time.Time, err error) {
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, nil, err
	}
	startsAt, err = atClock(day, startTime)
	if err != nil {
		return time.Time{}, time.Time{}, nil, err
	}
	if endTime != nil {
		end, err := atClock(day, *endTime)
		if err != nil {
			return time.Time{}, time.Time{}, nil, err
		}
		end = end.UTC()
		endsAt = &end
	}
	return day.UTC(), startsAt.UTC(), endsAt, nil
}

func atClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
