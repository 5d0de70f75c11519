package schedules

import "github.com/m04kA/SMC-AgendaService/pkg/apperror"

var (
	// ErrTherapistNotFound возвращается, когда терапевт не найден
	ErrTherapistNotFound = apperror.NotFound("therapist_not_found", "therapist not found")

	// ErrInvalidSchedule возвращается при неверном дне недели, формате времени или start >= end
	ErrInvalidSchedule = apperror.BadRequest("invalid_schedule", "invalid schedule entry")

	// ErrDuplicateScheduleDay возвращается, когда на один день больше одной активной записи
	ErrDuplicateScheduleDay = apperror.BadRequest("duplicate_schedule_day", "only one active schedule entry per day is allowed")

	// ErrInternal возвращается при внутренней ошибке
	ErrInternal = apperror.Internal("internal_error", "schedules: internal error")
)
