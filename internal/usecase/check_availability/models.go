package check_availability

// Request запрос доступности
type Request struct {
	ServiceID       string
	Date            string // YYYY-MM-DD в часовом поясе клиники, timestamp сводится к локальной дате
	DurationMinutes *int   // переопределяет длительность услуги
	TherapistID     *string
}
