package create_appointment

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/usecase/find_therapist"
)

// ServiceRepository интерфейс для работы с каталогом услуг
type ServiceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Service, error)
}

// CustomerRepository интерфейс для работы с клиентами
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	FindByRut(ctx context.Context, rut string) (*domain.Customer, error)
	Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
}

// TherapistRepository интерфейс для работы с терапевтами
type TherapistRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Therapist, error)
}

// AppointmentRepository интерфейс для работы с записями
type AppointmentRepository interface {
	FindOverlapping(ctx context.Context, q domain.OverlapQuery) ([]*domain.Appointment, error)
	Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error)
}

// TherapistFinder подбор терапевта для записей без него
type TherapistFinder interface {
	Execute(ctx context.Context, req *find_therapist.Request) (*domain.Therapist, error)
}

// TransactionManager выполняет создание целиком в одной сериализуемой транзакции
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
