package appointment

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("appointment.repository: appointment not found")

	// ErrOverlap возвращается, когда exclusion constraint отклоняет
	// запись, пересекающуюся с другой активной записью того же терапевта
	ErrOverlap = errors.New("appointment.repository: overlapping appointment")

	// ErrSerialization возвращается, когда сериализуемая транзакция проиграла конфликт
	ErrSerialization = errors.New("appointment.repository: serialization failure")

	// ErrReferenceNotFound возвращается, когда связанный клиент, терапевт или услуга не найдены
	ErrReferenceNotFound = errors.New("appointment.repository: referenced record not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("appointment.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("appointment.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования строки результата
	ErrScanRow = errors.New("appointment.repository: failed to scan row")
)
