package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AgendaService/internal/service/appointments/models"
	"github.com/m04kA/SMC-AgendaService/pkg/businesstime"
	"github.com/m04kA/SMC-AgendaService/pkg/ptr"
)

// Service чтение и удаление записей
type Service struct {
	appointmentRepo AppointmentRepository
	txManager       TransactionManager
	notifier        Notifier
	zone            *businesstime.Zone
	logger          Logger
}

// NewService создает новый экземпляр сервиса записей
func NewService(
	appointmentRepo AppointmentRepository,
	txManager TransactionManager,
	notifier Notifier,
	zone *businesstime.Zone,
	logger Logger,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		txManager:       txManager,
		notifier:        notifier,
		zone:            zone,
		logger:          logger,
	}
}

// List возвращает страницу записей (новые первыми) и общее количество
func (s *Service) List(ctx context.Context, req *models.ListRequest) (*models.AppointmentListResponse, error) {
	s.logger.Info("List: therapist=%v, customer=%v, status=%v, page=%d, pageSize=%d",
		ptr.Deref(req.TherapistID, ""), ptr.Deref(req.CustomerID, ""), ptr.Deref(req.Status, ""), req.Page, req.PageSize)

	filter, err := s.toFilter(req)
	if err != nil {
		s.logger.Warn("List: invalid filter: %v", err)
		return nil, err
	}

	var (
		items []*domain.Appointment
		total int
	)
	err = s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		if items, err = s.appointmentRepo.List(txCtx, filter); err != nil {
			return err
		}
		total, err = s.appointmentRepo.Count(txCtx, filter)
		return err
	})
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: returning %d of %d appointments", len(items), total)
	return &models.AppointmentListResponse{
		Items:    models.FromDomainAppointments(items),
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Total:    total,
	}, nil
}

// GetByID возвращает запись по ID
func (s *Service) GetByID(ctx context.Context, id string) (*models.AppointmentResponse, error) {
	s.logger.Info("GetByID: fetching appointment id=%s", id)

	appt, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("GetByID: appointment id=%s not found", id)
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("GetByID: repository error for appointment id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainAppointment(appt), nil
}

// Delete удаляет запись безвозвратно
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	s.logger.Info("Delete: appointment id=%s by actor=%s", id, actorID)

	var removed *domain.Appointment
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		appt, err := s.appointmentRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.appointmentRepo.Delete(txCtx, id); err != nil {
			return err
		}
		removed = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("Delete: appointment id=%s not found", id)
			return ErrAppointmentNotFound
		}
		s.logger.Error("Delete: repository error for appointment id=%s: %v", id, err)
		return fmt.Errorf("%w: Delete - repository error: %v", ErrInternal, err)
	}

	s.notifier.AppointmentChanged(ctx, actorID, domain.AuditDelete, removed, nil)

	s.logger.Info("Delete: appointment id=%s deleted", id)
	return nil
}

func (s *Service) toFilter(req *models.ListRequest) (domain.AppointmentsFilter, error) {
	filter := domain.AppointmentsFilter{
		TherapistID: nonBlank(req.TherapistID),
		CustomerID:  nonBlank(req.CustomerID),
		Page:        req.Page,
		PageSize:    req.PageSize,
	}.Normalize()

	if status := nonBlank(req.Status); status != nil {
		st, err := domain.ParseAppointmentStatus(*status)
		if err != nil {
			return filter, ErrInvalidStatus.Withf("unknown appointment status %q", *status)
		}
		filter.Status = &st
	}

	if v := nonBlank(req.StartDate); v != nil {
		from, err := s.rangeBound(*v, false)
		if err != nil {
			return filter, ErrInvalidDateRange
		}
		filter.StartFrom = &from
	}
	if v := nonBlank(req.EndDate); v != nil {
		to, err := s.rangeBound(*v, true)
		if err != nil {
			return filter, ErrInvalidDateRange
		}
		filter.StartTo = &to
	}
	if filter.StartFrom != nil && filter.StartTo != nil && filter.StartTo.Before(*filter.StartFrom) {
		return filter, ErrInvalidDateRange
	}

	return filter, nil
}

// rangeBound читает дату как целый локальный день, timestamp как есть
func (s *Service) rangeBound(text string, upper bool) (time.Time, error) {
	if _, err := time.Parse(businesstime.DateFormat, text); err == nil {
		dayStart, dayEnd, err := s.zone.LocalDayBoundsUTC(text)
		if err != nil {
			return time.Time{}, err
		}
		if upper {
			return dayEnd.Add(-time.Microsecond), nil
		}
		return dayStart, nil
	}
	return s.zone.ParseFlexibleTimestamp(text)
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
