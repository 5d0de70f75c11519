// Package notifier выполняет побочные эффекты закоммиченной записи: аудит,
// событие жизненного цикла и инвалидацию кэша доступности. Ни один
// из них не может сломать исходную операцию.
package notifier

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/integrations/events"
	"github.com/m04kA/SMC-AgendaService/pkg/businesstime"
)

const effectTimeout = 5 * time.Second

// Service запускает побочные эффекты после коммита
type Service struct {
	audit     AuditRecorder
	publisher EventPublisher
	cache     CacheInvalidator
	zone      *businesstime.Zone
	metrics   Metrics
	logger    Logger
}

// NewService создает новый экземпляр notifier. metrics может быть nil
func NewService(
	audit AuditRecorder,
	publisher EventPublisher,
	cache CacheInvalidator,
	zone *businesstime.Zone,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		audit:     audit,
		publisher: publisher,
		cache:     cache,
		zone:      zone,
		metrics:   metrics,
		logger:    logger,
	}
}

// AppointmentChanged вызывается после коммита изменения записи.
// current сохраненная строка (удаленная для DELETE), previous строка
// до обновления, иначе nil.
func (s *Service) AppointmentChanged(
	ctx context.Context,
	actorID string,
	action domain.AuditAction,
	current *domain.Appointment,
	previous *domain.Appointment,
) {
	if current == nil {
		return
	}

	// Запрос мог уже завершиться, эффекты все равно выполняются
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), effectTimeout)
	defer cancel()

	if s.metrics != nil {
		s.metrics.IncAppointment(strings.ToLower(string(action)))
	}

	s.audit.Record(actorID, action, domain.EntityAppointment, current.ID, appointmentDetails(current, previous))

	eventType := eventTypeFor(action)
	if err := s.publisher.PublishAppointment(ctx, eventType, actorID, current); err != nil {
		s.logger.Error("AppointmentChanged: failed to publish %s for id=%s: %v", eventType, current.ID, err)
		if s.metrics != nil {
			s.metrics.IncEventPublishFailure(string(eventType))
		}
	}

	dates := s.touchedDates(current, previous)
	if err := s.cache.InvalidateDates(ctx, dates...); err != nil {
		s.logger.Warn("AppointmentChanged: failed to invalidate availability for dates=%v: %v", dates, err)
	}
}

// touchedDates перечисляет локальные даты, которые запись занимала до и
// после изменения, сначала текущие, без повторов
func (s *Service) touchedDates(current, previous *domain.Appointment) []string {
	var dates []string
	add := func(a *domain.Appointment) {
		last := a.EndAt.Add(-time.Nanosecond)
		if last.Before(a.StartAt) {
			last = a.StartAt
		}
		for _, d := range []string{s.zone.LocalDate(a.StartAt), s.zone.LocalDate(last)} {
			if !slices.Contains(dates, d) {
				dates = append(dates, d)
			}
		}
	}

	add(current)
	if previous != nil {
		add(previous)
	}
	return dates
}

// SchedulesReplaced вызывается после замены недельного расписания терапевта
func (s *Service) SchedulesReplaced(ctx context.Context, actorID, therapistID string, schedules []domain.WeeklySchedule) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), effectTimeout)
	defer cancel()

	s.audit.Record(actorID, domain.AuditUpdate, domain.EntityTherapist, therapistID, scheduleDetails(schedules))

	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Warn("SchedulesReplaced: failed to invalidate availability for therapist=%s: %v", therapistID, err)
	}
}

func eventTypeFor(action domain.AuditAction) events.EventType {
	switch action {
	case domain.AuditCreate:
		return events.AppointmentCreated
	case domain.AuditDelete:
		return events.AppointmentDeleted
	default:
		return events.AppointmentUpdated
	}
}

type appointmentSnapshot struct {
	CustomerID  string    `json:"customerId"`
	TherapistID *string   `json:"therapistId"`
	ServiceID   string    `json:"serviceId"`
	StartAt     time.Time `json:"startAt"`
	EndAt       time.Time `json:"endAt"`
	Status      string    `json:"status"`
}

func snapshot(a *domain.Appointment) *appointmentSnapshot {
	if a == nil {
		return nil
	}
	return &appointmentSnapshot{
		CustomerID:  a.CustomerID,
		TherapistID: a.TherapistID,
		ServiceID:   a.ServiceID,
		StartAt:     a.StartAt.UTC(),
		EndAt:       a.EndAt.UTC(),
		Status:      string(a.Status),
	}
}

func appointmentDetails(current, previous *domain.Appointment) *string {
	details := struct {
		Before *appointmentSnapshot `json:"before,omitempty"`
		After  *appointmentSnapshot `json:"after"`
	}{
		Before: snapshot(previous),
		After:  snapshot(current),
	}
	return marshalDetails(details)
}

func scheduleDetails(schedules []domain.WeeklySchedule) *string {
	type entry struct {
		DayOfWeek string `json:"dayOfWeek"`
		StartTime string `json:"startTime"`
		EndTime   string `json:"endTime"`
		IsActive  bool   `json:"isActive"`
	}
	entries := make([]entry, 0, len(schedules))
	for _, sch := range schedules {
		entries = append(entries, entry{
			DayOfWeek: string(sch.DayOfWeek),
			StartTime: sch.StartTime.String(),
			EndTime:   sch.EndTime.String(),
			IsActive:  sch.IsActive,
		})
	}
	return marshalDetails(map[string]interface{}{"schedules": entries})
}

func marshalDetails(v interface{}) *string {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(raw)
	return &s
}
