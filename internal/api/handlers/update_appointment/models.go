package update_appointment

import updateAppointment "github.com/m04kA/SMC-AgendaService/internal/usecase/update_appointment"

// UpdateAppointmentRequest HTTP request model, отсутствующие поля не меняются
type UpdateAppointmentRequest struct {
	CustomerID   *string `json:"customerId,omitempty"`
	TherapistID  *string `json:"therapistId,omitempty"`
	ServiceID    *string `json:"serviceId,omitempty"`
	StartAt      *string `json:"startAt,omitempty"`
	Status       *string `json:"status,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	ReminderSent *bool   `json:"reminderSent,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *UpdateAppointmentRequest) ToUseCaseRequest(actorID, appointmentID string) *updateAppointment.Request {
	return &updateAppointment.Request{
		ActorID:       actorID,
		AppointmentID: appointmentID,
		CustomerID:    r.CustomerID,
		TherapistID:   r.TherapistID,
		ServiceID:     r.ServiceID,
		StartAt:       r.StartAt,
		Status:        r.Status,
		Notes:         r.Notes,
		ReminderSent:  r.ReminderSent,
	}
}
