package response

import (
	"time"

	"github.com/vietanh2810/community-events/internal/domain"
)

type RegistrationResponse struct {
	RegistrationID string                    `json:"registration_id"`
	EventID        string                    `json:"event_id"`
	Status         domain.RegistrationStatus `json:"status"`
	Ticket         domain.Ticket             `json:"ticket"`
	Created        bool                      `json:"created"`
	RegisteredAt   time.Time                 `json:"registered_at"`
}

func NewRegistrationResponse(res domain.RegistrationResult) RegistrationResponse {
	return RegistrationResponse{
		RegistrationID: res.Registration.ID,
		EventID:        res.Registration.EventID,
		Status:         res.Registration.Status,
		Ticket:         res.Registration.Ticket(),
		Created:        res.Created,
		RegisteredAt:   res.Registration.RegisteredAt,
	}
}

type ActiveCountResponse struct {
	EventID string `json:"event_id"`
	Count   int    `json:"count"`
}
