package find_therapist

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// TherapistRepository интерфейс для работы с терапевтами
type TherapistRepository interface {
	FindActiveQualifiedFor(ctx context.Context, serviceID string) ([]*domain.Therapist, error)
}

// AppointmentRepository интерфейс для работы с записями
type AppointmentRepository interface {
	FindOverlapping(ctx context.Context, q domain.OverlapQuery) ([]*domain.Appointment, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
