package create_appointment

import "github.com/m04kA/SMC-AgendaService/internal/domain"

// Request запрос на создание записи
type Request struct {
	ActorID      string
	ServiceID    string
	CustomerID   *string
	CustomerData *domain.CustomerData // регистрирует нового клиента, если CustomerID пустой
	TherapistID  *string              // подбор терапевта, если пусто
	StartAt      string               // ISO-8601, без смещения читается как местное время клиники
	Status       *string              // pending, если пусто
	Notes        *string
}
