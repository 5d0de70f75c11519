package check_availability

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	checkAvailability "github.com/m04kA/SMC-AgendaService/internal/usecase/check_availability"
)

type CheckAvailabilityUseCase interface {
	Execute(ctx context.Context, req *checkAvailability.Request) (*domain.Availability, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
