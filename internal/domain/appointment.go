package domain

import (
	"fmt"
	"time"
)

// AppointmentStatus статус жизненного цикла записи
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
	StatusCompleted AppointmentStatus = "completed"
)

// Appointment забронированный слот процедуры. StartAt и EndAt абсолютные
// моменты (UTC), слот [StartAt, EndAt).
type Appointment struct {
	ID           string
	CustomerID   string
	TherapistID  *string // nil, пока терапевт не назначен
	ServiceID    string
	StartAt      time.Time
	EndAt        time.Time
	Status       AppointmentStatus
	Notes        *string
	ReminderSent bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive возвращает true, если запись занимает время терапевта
func (a *Appointment) IsActive() bool {
	return a.Status.IsActive()
}

// Overlaps сообщает, пересекает ли запись [start, end)
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return Overlaps(a.StartAt, a.EndAt, start, end)
}

// IsActive возвращает false для отмененных записей и неявок
func (s AppointmentStatus) IsActive() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// IsValid проверяет, что статус известен
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusNoShow, StatusCompleted:
		return true
	}
	return false
}

// ParseAppointmentStatus конвертирует значение из API в статус.
// "no-show" принимается как синоним "no_show".
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	if s == "no-show" {
		return StatusNoShow, nil
	}
	status := AppointmentStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown appointment status %q", s)
	}
	return status, nil
}

// Overlaps предикат пересечения полуоткрытых интервалов: стык не пересечение
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// HasConflict сообщает, пересекает ли [start, end) хоть одна активная запись
func HasConflict(appointments []*Appointment, start, end time.Time) bool {
	for _, a := range appointments {
		if a.IsActive() && a.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// AppointmentsFilter фильтр списка записей
type AppointmentsFilter struct {
	TherapistID *string
	CustomerID  *string
	Status      *AppointmentStatus
	StartFrom   *time.Time // start_at >= StartFrom
	StartTo     *time.Time // start_at <= StartTo
	Page        int
	PageSize    int
}

// Offset возвращает смещение строк для запрошенной страницы
func (f AppointmentsFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Normalize применяет значения пагинации по умолчанию и ограничения
func (f AppointmentsFilter) Normalize() AppointmentsFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

// OverlapQuery выбирает активные записи указанных терапевтов,
// пересекающие [Start, End)
type OverlapQuery struct {
	TherapistIDs []string
	Start        time.Time
	End          time.Time
	ExcludeID    *string
}

// AppointmentPatch поля, изменяемые обновлением. nil означает без изменений
type AppointmentPatch struct {
	CustomerID   *string
	TherapistID  *string
	ServiceID    *string
	StartAt      *time.Time
	EndAt        *time.Time
	Status       *AppointmentStatus
	Notes        *string
	ReminderSent *bool
}

// IsEmpty сообщает, что patch ничего не меняет
func (p AppointmentPatch) IsEmpty() bool {
	return p.CustomerID == nil && p.TherapistID == nil && p.ServiceID == nil &&
		p.StartAt == nil && p.EndAt == nil && p.Status == nil &&
		p.Notes == nil && p.ReminderSent == nil
}

// Apply возвращает копию a с примененным patch
func (p AppointmentPatch) Apply(a Appointment) Appointment {
	if p.CustomerID != nil {
		a.CustomerID = *p.CustomerID
	}
	if p.TherapistID != nil {
		id := *p.TherapistID
		a.TherapistID = &id
	}
	if p.ServiceID != nil {
		a.ServiceID = *p.ServiceID
	}
	if p.StartAt != nil {
		a.StartAt = *p.StartAt
	}
	if p.EndAt != nil {
		a.EndAt = *p.EndAt
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Notes != nil {
		notes := *p.Notes
		a.Notes = &notes
	}
	if p.ReminderSent != nil {
		a.ReminderSent = *p.ReminderSent
	}
	return a
}
