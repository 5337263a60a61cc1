package domain

import "time"

type RegistrationStatus string

const (
	RegistrationStatusRegistered RegistrationStatus = "registered"
	RegistrationStatusAttended   RegistrationStatus = "attended"
	RegistrationStatusCancelled  RegistrationStatus = "cancelled"
)

// IsActive reports whether the status holds a capacity slot.
func (s RegistrationStatus) IsActive() bool {
	return s == RegistrationStatusRegistered || s == RegistrationStatusAttended
}

type Registration struct {
	ID            string             `json:"id"`
	EventID       string             `json:"event_id"`
	UserID        string             `json:"user_id"`
	Status        RegistrationStatus `json:"status"`
	TicketPayload string             `json:"ticket_payload"`
	TicketImage   string             `json:"ticket_image"`
	RegisteredAt  time.Time          `json:"registered_at"`
	AttendedAt    *time.Time         `json:"attended_at,omitempty"`
	CancelledAt   *time.Time         `json:"cancelled_at,omitempty"`
}

type Ticket struct {
	Payload string `json:"payload"`
	Image   string `json:"image"`
}

func (r Registration) Ticket() Ticket {
	return Ticket{Payload: r.TicketPayload, Image: r.TicketImage}
}

// RegistrationResult reports whether Register created a new entry or returned
// the one already held by the user.
type RegistrationResult struct {
	Registration Registration
	Created      bool
}

type AttendanceResult struct {
	Registration  Registration `json:"registration"`
	AlreadyMarked bool         `json:"already_marked"`
}
