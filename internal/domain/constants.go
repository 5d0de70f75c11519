package domain

// Пагинация списка записей по умолчанию
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Константы бизнес-валидации
const (
	MaxNotesLength         = 1000
	MaxCustomerFieldLength = 255
)

// Константы форматов времени
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// InactiveStatuses статусы, освобождающие время терапевта.
// Проверки конфликтов и доступности их не учитывают.
var InactiveStatuses = []AppointmentStatus{
	StatusCancelled,
	StatusNoShow,
}
