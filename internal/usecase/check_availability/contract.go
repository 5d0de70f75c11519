package check_availability

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/infra/cache/availability"
)

// ServiceRepository интерфейс для работы с каталогом услуг
type ServiceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Service, error)
}

// TherapistRepository интерфейс для работы с терапевтами
type TherapistRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Therapist, error)
	FindActiveQualifiedFor(ctx context.Context, serviceID string) ([]*domain.Therapist, error)
}

// AppointmentRepository интерфейс для работы с записями
type AppointmentRepository interface {
	FindOverlapping(ctx context.Context, q domain.OverlapQuery) ([]*domain.Appointment, error)
}

// Cache кэш доступности, availability.Noop при выключенном Redis
type Cache interface {
	Get(ctx context.Context, key availability.Key) (*domain.Availability, string, error)
	Set(ctx context.Context, slot string, value *domain.Availability) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
