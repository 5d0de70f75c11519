package domain

import "time"

// AuditAction тип изменения в журнале аудита
type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
)

// AuditEntity тип измененной сущности
type AuditEntity string

const (
	EntityAppointment AuditEntity = "APPOINTMENT"
	EntityTherapist   AuditEntity = "THERAPIST"
)

// AuditLog одна запись журнала аудита
type AuditLog struct {
	ID        string
	UserID    string
	Action    AuditAction
	Entity    AuditEntity
	EntityID  string
	Details   *string
	CreatedAt time.Time
}
