package appointments

import "github.com/m04kA/SMC-AgendaService/pkg/apperror"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = apperror.NotFound("appointment_not_found", "appointment not found")

	// ErrInvalidStatus возвращается при неизвестном статусе в фильтре
	ErrInvalidStatus = apperror.BadRequest("invalid_status", "unknown appointment status")

	// ErrInvalidDateRange возвращается, когда startDate или endDate не разбираются или endDate раньше startDate
	ErrInvalidDateRange = apperror.BadRequest("invalid_date_range", "startDate and endDate must be YYYY-MM-DD or ISO-8601, startDate <= endDate")

	// ErrInternal возвращается при внутренней ошибке
	ErrInternal = apperror.Internal("internal_error", "appointments: internal error")
)
