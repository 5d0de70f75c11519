package update_appointment

import "github.com/m04kA/SMC-AgendaService/pkg/apperror"

var (
	ErrAppointmentNotFound = apperror.NotFound("appointment_not_found", "appointment not found")
	ErrServiceNotFound     = apperror.NotFound("service_not_found", "service not found")
	ErrCustomerNotFound    = apperror.NotFound("customer_not_found", "customer not found")
	ErrTherapistNotFound   = apperror.NotFound("therapist_not_found", "therapist not found")
	ErrInvalidStartAt      = apperror.BadRequest("invalid_start_at", "startAt must be an ISO-8601 timestamp")
	ErrTimeUnavailable     = apperror.Conflict("time_unavailable", "the requested time is not available")
	ErrInvalidInput        = apperror.BadRequest("invalid_input", "invalid input data")
	ErrInternal            = apperror.Internal("internal_error", "update_appointment: internal error")
)
