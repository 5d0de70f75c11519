package create_appointment

import (
	"github.com/m04kA/SMC-AgendaService/internal/domain"
	createAppointment "github.com/m04kA/SMC-AgendaService/internal/usecase/create_appointment"
)

// CustomerData данные для регистрации клиента вместе с записью
type CustomerData struct {
	Name     string  `json:"name"`
	LastName *string `json:"lastName,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Rut      *string `json:"rut,omitempty"`
}

// CreateAppointmentRequest HTTP request model
type CreateAppointmentRequest struct {
	ServiceID    string        `json:"serviceId"`
	CustomerID   *string       `json:"customerId,omitempty"`
	CustomerData *CustomerData `json:"customerData,omitempty"`
	TherapistID  *string       `json:"therapistId,omitempty"`
	StartAt      string        `json:"startAt"` // "2024-03-11T10:00:00" или со смещением
	Status       *string       `json:"status,omitempty"`
	Notes        *string       `json:"notes,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateAppointmentRequest) ToUseCaseRequest(actorID string) *createAppointment.Request {
	req := &createAppointment.Request{
		ActorID:     actorID,
		ServiceID:   r.ServiceID,
		CustomerID:  r.CustomerID,
		TherapistID: r.TherapistID,
		StartAt:     r.StartAt,
		Status:      r.Status,
		Notes:       r.Notes,
	}
	if r.CustomerData != nil {
		req.CustomerData = &domain.CustomerData{
			Name:     r.CustomerData.Name,
			LastName: r.CustomerData.LastName,
			Email:    r.CustomerData.Email,
			Phone:    r.CustomerData.Phone,
			Rut:      r.CustomerData.Rut,
		}
	}
	return req
}
