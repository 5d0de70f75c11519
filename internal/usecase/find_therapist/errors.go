package find_therapist

import "github.com/m04kA/SMC-AgendaService/pkg/apperror"

var (
	// ErrNoTherapistAvailable возвращается, когда нет свободного квалифицированного терапевта
	ErrNoTherapistAvailable = apperror.Conflict("no_therapist_available", "no therapist available for the requested time")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = apperror.BadRequest("invalid_input", "find_therapist: invalid input data")

	// ErrInternal возвращается при внутренней ошибке
	ErrInternal = apperror.Internal("internal_error", "find_therapist: internal error")
)
