package models

import (
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// Запросы

// ListRequest фильтры списка записей. Даты в формате YYYY-MM-DD (целый локальный
// день) или ISO-8601 timestamp.
type ListRequest struct {
	TherapistID *string
	CustomerID  *string
	Status      *string
	StartDate   *string
	EndDate     *string
	Page        int
	PageSize    int
}

// Ответы

// AppointmentResponse запись в ответе API
type AppointmentResponse struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customerId"`
	TherapistID  *string   `json:"therapistId"`
	ServiceID    string    `json:"serviceId"`
	StartAt      time.Time `json:"startAt"`
	EndAt        time.Time `json:"endAt"`
	Status       string    `json:"status"`
	Notes        *string   `json:"notes"`
	ReminderSent bool      `json:"reminderSent"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AppointmentListResponse страница записей
type AppointmentListResponse struct {
	Items    []AppointmentResponse `json:"items"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"pageSize"`
	Total    int                   `json:"total"`
}

// FromDomainAppointment конвертирует доменную запись, время в UTC
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	if a == nil {
		return nil
	}
	return &AppointmentResponse{
		ID:           a.ID,
		CustomerID:   a.CustomerID,
		TherapistID:  a.TherapistID,
		ServiceID:    a.ServiceID,
		StartAt:      a.StartAt.UTC(),
		EndAt:        a.EndAt.UTC(),
		Status:       string(a.Status),
		Notes:        a.Notes,
		ReminderSent: a.ReminderSent,
		CreatedAt:    a.CreatedAt.UTC(),
		UpdatedAt:    a.UpdatedAt.UTC(),
	}
}

// FromDomainAppointments конвертирует список, никогда не возвращает nil
func FromDomainAppointments(list []*domain.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, *FromDomainAppointment(a))
	}
	return out
}
