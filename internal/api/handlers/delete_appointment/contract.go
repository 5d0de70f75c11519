package delete_appointment

import "context"

type AppointmentService interface {
	Delete(ctx context.Context, actorID, id string) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
