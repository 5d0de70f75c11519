package get_schedules

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/service/schedules/models"
)

type ScheduleService interface {
	GetSchedules(ctx context.Context, therapistID string, includeInactive bool) ([]models.ScheduleResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
