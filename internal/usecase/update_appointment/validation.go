package update_appointment

import (
	"strings"
	"unicode/utf8"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

func validateRequest(req *Request) error {
	if strings.TrimSpace(req.AppointmentID) == "" {
		return ErrInvalidInput.Withf("appointment id is required")
	}

	blank := func(s *string) bool { return s != nil && strings.TrimSpace(*s) == "" }
	switch {
	case blank(req.CustomerID):
		return ErrInvalidInput.Withf("customerId must not be empty")
	case blank(req.TherapistID):
		return ErrInvalidInput.Withf("therapistId must not be empty")
	case blank(req.ServiceID):
		return ErrInvalidInput.Withf("serviceId must not be empty")
	}

	if req.Notes != nil && utf8.RuneCountInString(*req.Notes) > domain.MaxNotesLength {
		return ErrInvalidInput.Withf("notes must be at most %d characters", domain.MaxNotesLength)
	}
	if req.Status != nil {
		if _, err := domain.ParseAppointmentStatus(*req.Status); err != nil {
			return ErrInvalidInput.Withf("unknown status %q", *req.Status)
		}
	}
	return nil
}
