package create_appointment

import "github.com/m04kA/SMC-AgendaService/pkg/apperror"

var (
	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = apperror.NotFound("service_not_found", "service not found")

	// ErrCustomerNotFound возвращается, когда клиент customerId не найден
	ErrCustomerNotFound = apperror.NotFound("customer_not_found", "customer not found")

	// ErrTherapistNotFound возвращается, когда терапевт therapistId не найден
	ErrTherapistNotFound = apperror.NotFound("therapist_not_found", "therapist not found")

	// ErrCustomerRequired возвращается, когда нет ни customerId, ни пригодных customerData
	ErrCustomerRequired = apperror.BadRequest("customer_required", "customerId or customerData with a name and an email, phone or rut is required")

	// ErrCustomerDuplicate возвращается, когда customerData совпадают с существующим клиентом
	ErrCustomerDuplicate = apperror.Conflict("customer_duplicate", "a customer with the same contact data already exists")

	// ErrInvalidStartAt возвращается, когда startAt не в формате ISO-8601
	ErrInvalidStartAt = apperror.BadRequest("invalid_start_at", "startAt must be an ISO-8601 timestamp")

	// ErrTimeUnavailable возвращается, когда у терапевта уже есть пересекающаяся запись
	ErrTimeUnavailable = apperror.Conflict("time_unavailable", "the requested time is not available")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = apperror.BadRequest("invalid_input", "invalid input data")

	// ErrInternal возвращается при внутренней ошибке
	ErrInternal = apperror.Internal("internal_error", "create_appointment: internal error")
)
