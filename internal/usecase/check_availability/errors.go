package check_availability

import "github.com/m04kA/SMC-AgendaService/pkg/apperror"

var (
	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = apperror.NotFound("service_not_found", "service not found")

	// ErrInvalidDate возвращается, когда дата не в формате YYYY-MM-DD или ISO-8601
	ErrInvalidDate = apperror.BadRequest("invalid_date", "date must be YYYY-MM-DD")

	// ErrInvalidDuration возвращается, когда длительность не положительная
	ErrInvalidDuration = apperror.BadRequest("invalid_duration", "durationMinutes must be a positive integer")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = apperror.BadRequest("invalid_input", "serviceId is required")

	// ErrInternal возвращается при внутренней ошибке
	ErrInternal = apperror.Internal("internal_error", "check_availability: internal error")
)
