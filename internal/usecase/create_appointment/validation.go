package create_appointment

import (
	"strings"
	"unicode/utf8"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

func validateRequest(req *Request) error {
	if strings.TrimSpace(req.ServiceID) == "" {
		return ErrInvalidInput.Withf("serviceId is required")
	}
	if req.Notes != nil && utf8.RuneCountInString(*req.Notes) > domain.MaxNotesLength {
		return ErrInvalidInput.Withf("notes must be at most %d characters", domain.MaxNotesLength)
	}
	if req.Status != nil {
		if _, err := domain.ParseAppointmentStatus(*req.Status); err != nil {
			return ErrInvalidInput.Withf("unknown status %q", *req.Status)
		}
	}
	if req.CustomerData != nil {
		fields := []struct {
			name  string
			value *string
		}{
			{"name", &req.CustomerData.Name},
			{"lastName", req.CustomerData.LastName},
			{"email", req.CustomerData.Email},
			{"phone", req.CustomerData.Phone},
			{"rut", req.CustomerData.Rut},
		}
		for _, f := range fields {
			if f.value != nil && utf8.RuneCountInString(*f.value) > domain.MaxCustomerFieldLength {
				return ErrInvalidInput.Withf("customerData.%s must be at most %d characters", f.name, domain.MaxCustomerFieldLength)
			}
		}
	}
	return nil
}

// hasCustomerData сообщает, можно ли зарегистрировать клиента из запроса
func hasCustomerData(d *domain.CustomerData) bool {
	return d != nil && strings.TrimSpace(d.Name) != "" && d.HasContact()
}

// normalizeCustomerData обрезает пробелы, пустые опциональные поля становятся nil
func normalizeCustomerData(d domain.CustomerData) domain.CustomerData {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		if v == "" {
			return nil
		}
		return &v
	}

	out := domain.CustomerData{
		Name:     strings.TrimSpace(d.Name),
		LastName: trim(d.LastName),
		Email:    trim(d.Email),
		Phone:    trim(d.Phone),
		Rut:      trim(d.Rut),
	}
	if out.Email != nil {
		lower := strings.ToLower(*out.Email)
		out.Email = &lower
	}
	return out
}
