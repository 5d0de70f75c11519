package find_therapist

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/pkg/businesstime"
	"github.com/m04kA/SMC-AgendaService/pkg/intervals"
)

// UseCase подбирает терапевта для записи, созданной без него.
//
// Кандидаты перебираются в порядке репозитория (created_at, id). Побеждает первый,
// чье расписание покрывает слот и у кого нет пересекающейся активной
// записи. На одних и тех же данных результат детерминирован.
type UseCase struct {
	therapistRepo   TherapistRepository
	appointmentRepo AppointmentRepository
	zone            *businesstime.Zone
	bounds          businesstime.DayBounds
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	therapistRepo TherapistRepository,
	appointmentRepo AppointmentRepository,
	zone *businesstime.Zone,
	bounds businesstime.DayBounds,
	logger Logger,
) *UseCase {
	return &UseCase{
		therapistRepo:   therapistRepo,
		appointmentRepo: appointmentRepo,
		zone:            zone,
		bounds:          bounds,
		logger:          logger,
	}
}

// Execute возвращает первого свободного квалифицированного терапевта или ErrNoTherapistAvailable.
// Вызывается внутри транзакции создания, поэтому чтение пересечений блокирует строки.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*domain.Therapist, error) {
	if req.ServiceID == "" || !req.EndAt.After(req.StartAt) {
		return nil, fmt.Errorf("%w: service and a non-empty slot are required", ErrInvalidInput)
	}

	// 1. Получаем активных квалифицированных терапевтов
	candidates, err := uc.therapistRepo.FindActiveQualifiedFor(ctx, req.ServiceID)
	if err != nil {
		uc.logger.Error("FindTherapist: failed to load therapists for service=%s: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: load therapists: %v", ErrInternal, err)
	}
	if len(candidates) == 0 {
		uc.logger.Warn("FindTherapist: no therapist qualified for service=%s", req.ServiceID)
		return nil, ErrNoTherapistAvailable
	}

	// 2. Переводим слот в локальные минуты
	day := domain.DayOfWeekFromWeekday(uc.zone.Weekday(req.StartAt))
	startMin := uc.zone.MinutesSinceLocalMidnight(req.StartAt)
	endMin := startMin + int(req.EndAt.Sub(req.StartAt).Minutes())

	// 3. Фильтруем по расписанию
	scheduled := make([]*domain.Therapist, 0, len(candidates))
	for _, t := range candidates {
		if uc.coversSlot(t, day, startMin, endMin) {
			scheduled = append(scheduled, t)
		}
	}
	if len(scheduled) == 0 {
		uc.logger.Warn("FindTherapist: nobody works %s %s-%s for service=%s",
			day, businesstime.FormatMinutes(startMin), businesstime.FormatMinutes(endMin), req.ServiceID)
		return nil, ErrNoTherapistAvailable
	}

	// 4. Загружаем записи локального дня одним запросом для всех кандидатов
	dayStart, dayEnd, err := uc.zone.LocalDayBoundsUTC(uc.zone.LocalDate(req.StartAt))
	if err != nil {
		return nil, fmt.Errorf("%w: day bounds: %v", ErrInternal, err)
	}

	ids := make([]string, 0, len(scheduled))
	for _, t := range scheduled {
		ids = append(ids, t.ID)
	}

	booked, err := uc.appointmentRepo.FindOverlapping(ctx, domain.OverlapQuery{
		TherapistIDs: ids,
		Start:        dayStart,
		End:          dayEnd,
	})
	if err != nil {
		uc.logger.Error("FindTherapist: failed to load appointments: %v", err)
		return nil, fmt.Errorf("%w: load appointments: %w", ErrInternal, err)
	}

	byTherapist := make(map[string][]*domain.Appointment, len(ids))
	for _, a := range booked {
		if a.TherapistID != nil {
			byTherapist[*a.TherapistID] = append(byTherapist[*a.TherapistID], a)
		}
	}

	// 5. Выбираем первого кандидата без пересечений
	for _, t := range scheduled {
		if domain.HasConflict(byTherapist[t.ID], req.StartAt, req.EndAt) {
			continue
		}
		uc.logger.Info("FindTherapist: assigned therapist=%s for service=%s at %s",
			t.ID, req.ServiceID, req.StartAt.Format(time.RFC3339))
		return t, nil
	}

	uc.logger.Warn("FindTherapist: all %d scheduled therapists are busy for service=%s", len(scheduled), req.ServiceID)
	return nil, ErrNoTherapistAvailable
}

func (uc *UseCase) coversSlot(t *domain.Therapist, day domain.DayOfWeek, startMin, endMin int) bool {
	schedule := t.ScheduleFor(day)
	if schedule == nil {
		return false
	}

	working, err := schedule.Interval()
	if err != nil {
		uc.logger.Warn("FindTherapist: therapist=%s has a malformed %s schedule: %v", t.ID, day, err)
		return false
	}

	working, ok := uc.bounds.Clamp(working)
	if !ok {
		return false
	}

	return fitsIn(working, startMin, endMin)
}

func fitsIn(working intervals.Interval, startMin, endMin int) bool {
	return startMin >= working.Start && endMin <= working.End
}
