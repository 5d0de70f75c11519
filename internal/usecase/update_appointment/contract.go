package update_appointment

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// ServiceRepository интерфейс для работы с каталогом услуг
type ServiceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Service, error)
}

// CustomerRepository интерфейс для работы с клиентами
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

// TherapistRepository интерфейс для работы с терапевтами
type TherapistRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Therapist, error)
}

// AppointmentRepository интерфейс для работы с записями
type AppointmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	FindOverlapping(ctx context.Context, q domain.OverlapQuery) ([]*domain.Appointment, error)
	Update(ctx context.Context, id string, patch domain.AppointmentPatch) (*domain.Appointment, error)
}

// TransactionManager выполняет обновление в одной сериализуемой транзакции
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier побочные эффекты после коммита
type Notifier interface {
	AppointmentChanged(ctx context.Context, actorID string, action domain.AuditAction, current, previous *domain.Appointment)
}

// Metrics счетчик конфликтов бронирования
type Metrics interface {
	IncBookingConflict(reason string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
