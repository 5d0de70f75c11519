package schedules

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	therapistRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/therapist"
	"github.com/m04kA/SMC-AgendaService/internal/service/schedules/models"
	"github.com/m04kA/SMC-AgendaService/pkg/ptr"
	"github.com/m04kA/SMC-AgendaService/pkg/types"
)

// Service управляет недельным расписанием терапевтов
type Service struct {
	therapistRepo TherapistRepository
	txManager     TransactionManager
	notifier      Notifier
	logger        Logger
	newID         func() string
}

// NewService создает новый экземпляр сервиса расписаний
func NewService(therapistRepo TherapistRepository, txManager TransactionManager, notifier Notifier, logger Logger) *Service {
	return &Service{
		therapistRepo: therapistRepo,
		txManager:     txManager,
		notifier:      notifier,
		logger:        logger,
		newID:         uuid.NewString,
	}
}

// GetSchedules возвращает недельное расписание терапевта
func (s *Service) GetSchedules(ctx context.Context, therapistID string, includeInactive bool) ([]models.ScheduleResponse, error) {
	s.logger.Info("GetSchedules: therapist=%s, includeInactive=%t", therapistID, includeInactive)

	if err := s.ensureTherapist(ctx, therapistID); err != nil {
		return nil, err
	}

	entries, err := s.therapistRepo.ListSchedules(ctx, therapistID, includeInactive)
	if err != nil {
		s.logger.Error("GetSchedules: repository error for therapist=%s: %v", therapistID, err)
		return nil, fmt.Errorf("%w: GetSchedules - list schedules: %v", ErrInternal, err)
	}

	return models.FromDomainSchedules(entries), nil
}

// ReplaceSchedules заменяет недельное расписание терапевта целиком
func (s *Service) ReplaceSchedules(ctx context.Context, req *models.ReplaceRequest) ([]models.ScheduleResponse, error) {
	s.logger.Info("ReplaceSchedules: therapist=%s, entries=%d, actor=%s", req.TherapistID, len(req.Entries), req.ActorID)

	// 1. Валидируем записи расписания
	entries, err := s.toDomain(req.TherapistID, req.Entries)
	if err != nil {
		s.logger.Warn("ReplaceSchedules: validation failed for therapist=%s: %v", req.TherapistID, err)
		return nil, err
	}

	// 2. Заменяем расписание в транзакции
	var saved []domain.WeeklySchedule
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.ensureTherapist(txCtx, req.TherapistID); err != nil {
			return err
		}
		var err error
		saved, err = s.therapistRepo.ReplaceSchedules(txCtx, req.TherapistID, entries)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrTherapistNotFound) || errors.Is(err, ErrInternal) {
			return nil, err
		}
		s.logger.Error("ReplaceSchedules: repository error for therapist=%s: %v", req.TherapistID, err)
		return nil, fmt.Errorf("%w: ReplaceSchedules - replace schedules: %v", ErrInternal, err)
	}

	// 3. Аудит и инвалидация кэша
	s.notifier.SchedulesReplaced(ctx, req.ActorID, req.TherapistID, saved)

	s.logger.Info("ReplaceSchedules: therapist=%s now has %d entries", req.TherapistID, len(saved))
	return models.FromDomainSchedules(saved), nil
}

func (s *Service) ensureTherapist(ctx context.Context, therapistID string) error {
	_, err := s.therapistRepo.GetByID(ctx, therapistID)
	if err == nil {
		return nil
	}
	if errors.Is(err, therapistRepo.ErrTherapistNotFound) {
		s.logger.Warn("therapist=%s not found", therapistID)
		return ErrTherapistNotFound
	}
	s.logger.Error("failed to load therapist=%s: %v", therapistID, err)
	return fmt.Errorf("%w: load therapist: %v", ErrInternal, err)
}

func (s *Service) toDomain(therapistID string, entries []models.ScheduleEntry) ([]domain.WeeklySchedule, error) {
	out := make([]domain.WeeklySchedule, 0, len(entries))
	activeDays := make(map[domain.DayOfWeek]bool, len(entries))

	for i, e := range entries {
		day, err := domain.ParseDayOfWeek(e.DayOfWeek)
		if err != nil {
			return nil, ErrInvalidSchedule.Withf("entry %d: unknown dayOfWeek %q", i, e.DayOfWeek)
		}
		start, err := types.NewTimeStringFromString(e.StartTime)
		if err != nil {
			return nil, ErrInvalidSchedule.Withf("entry %d: startTime must be HH:MM", i)
		}
		end, err := types.NewTimeStringFromString(e.EndTime)
		if err != nil {
			return nil, ErrInvalidSchedule.Withf("entry %d: endTime must be HH:MM", i)
		}

		entry := domain.WeeklySchedule{
			ID:          s.newID(),
			TherapistID: therapistID,
			DayOfWeek:   day,
			StartTime:   start,
			EndTime:     end,
			IsActive:    ptr.Deref(e.IsActive, true),
		}
		iv, err := entry.Interval()
		if err != nil || iv.Start >= iv.End {
			return nil, ErrInvalidSchedule.Withf("entry %d: startTime must be before endTime", i)
		}

		if entry.IsActive {
			if activeDays[day] {
				return nil, ErrDuplicateScheduleDay.Withf("more than one active entry for %s", day)
			}
			activeDays[day] = true
		}
		out = append(out, entry)
	}

	return out, nil
}
