package schedules

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// TherapistRepository интерфейс для работы с терапевтами и их расписанием
type TherapistRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Therapist, error)
	ListSchedules(ctx context.Context, therapistID string, includeInactive bool) ([]domain.WeeklySchedule, error)
	ReplaceSchedules(ctx context.Context, therapistID string, entries []domain.WeeklySchedule) ([]domain.WeeklySchedule, error)
}

// TransactionManager выполняет замену атомарно
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier побочные эффекты после коммита
type Notifier interface {
	SchedulesReplaced(ctx context.Context, actorID, therapistID string, schedules []domain.WeeklySchedule)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
