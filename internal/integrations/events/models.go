package events

import (
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// EventType имя события жизненного цикла записи
type EventType string

const (
	AppointmentCreated EventType = "appointment.created"
	AppointmentUpdated EventType = "appointment.updated"
	AppointmentDeleted EventType = "appointment.deleted"
)

// Envelope тело сообщения в топике
type Envelope struct {
	EventID    string             `json:"eventId"`
	EventType  EventType          `json:"eventType"`
	OccurredAt time.Time          `json:"occurredAt"`
	ActorID    string             `json:"actorId,omitempty"`
	Data       AppointmentPayload `json:"data"`
}

// AppointmentPayload снимок записи
type AppointmentPayload struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customerId"`
	TherapistID  *string   `json:"therapistId"`
	ServiceID    string    `json:"serviceId"`
	StartAt      time.Time `json:"startAt"`
	EndAt        time.Time `json:"endAt"`
	Status       string    `json:"status"`
	Notes        *string   `json:"notes,omitempty"`
	ReminderSent bool      `json:"reminderSent"`
}

func payloadFromDomain(a *domain.Appointment) AppointmentPayload {
	return AppointmentPayload{
		ID:           a.ID,
		CustomerID:   a.CustomerID,
		TherapistID:  a.TherapistID,
		ServiceID:    a.ServiceID,
		StartAt:      a.StartAt.UTC(),
		EndAt:        a.EndAt.UTC(),
		Status:       string(a.Status),
		Notes:        a.Notes,
		ReminderSent: a.ReminderSent,
	}
}
