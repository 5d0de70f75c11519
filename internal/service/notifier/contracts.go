package notifier

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/integrations/events"
)

// AuditRecorder асинхронно записывает аудит
type AuditRecorder interface {
	Record(userID string, action domain.AuditAction, entity domain.AuditEntity, entityID string, details *string)
}

// EventPublisher публикует события жизненного цикла записей
type EventPublisher interface {
	PublishAppointment(ctx context.Context, eventType events.EventType, actorID string, appt *domain.Appointment) error
}

// CacheInvalidator сбрасывает закэшированную доступность
type CacheInvalidator interface {
	InvalidateDates(ctx context.Context, dates ...string) error
	InvalidateAll(ctx context.Context) error
}

// Metrics считает изменения записей и потерянные события
type Metrics interface {
	IncAppointment(action string)
	IncEventPublishFailure(eventType string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
