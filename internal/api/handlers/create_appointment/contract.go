package create_appointment

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	createAppointment "github.com/m04kA/SMC-AgendaService/internal/usecase/create_appointment"
)

type CreateAppointmentUseCase interface {
	Execute(ctx context.Context, req *createAppointment.Request) (*domain.Appointment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
