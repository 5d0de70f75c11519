package check_availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/infra/cache/availability"
	catalogRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/catalog"
	therapistRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/therapist"
	"github.com/m04kA/SMC-AgendaService/pkg/businesstime"
	"github.com/m04kA/SMC-AgendaService/pkg/intervals"
	"github.com/m04kA/SMC-AgendaService/pkg/ptr"
)

const tracerName = "github.com/m04kA/SMC-AgendaService/internal/usecase/check_availability"

// UseCase считает свободные интервалы одного локального дня для услуги
type UseCase struct {
	serviceRepo     ServiceRepository
	therapistRepo   TherapistRepository
	appointmentRepo AppointmentRepository
	cache           Cache
	zone            *businesstime.Zone
	bounds          businesstime.DayBounds
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	serviceRepo ServiceRepository,
	therapistRepo TherapistRepository,
	appointmentRepo AppointmentRepository,
	cache Cache,
	zone *businesstime.Zone,
	bounds businesstime.DayBounds,
	logger Logger,
) *UseCase {
	return &UseCase{
		serviceRepo:     serviceRepo,
		therapistRepo:   therapistRepo,
		appointmentRepo: appointmentRepo,
		cache:           cache,
		zone:            zone,
		bounds:          bounds,
		logger:          logger,
	}
}

// Execute возвращает доступность по запросу. Без терапевта
// свободные интервалы всех квалифицированных терапевтов объединяются.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*domain.Availability, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "CheckAvailability")
	defer span.End()
	span.SetAttributes(
		attribute.String("service.id", req.ServiceID),
		attribute.String("date", req.Date),
		attribute.String("therapist.id", ptr.Deref(req.TherapistID, "")),
	)

	result, err := uc.execute(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*domain.Availability, error) {
	uc.logger.Info("CheckAvailability: service=%s, date=%s, duration=%v, therapist=%v",
		req.ServiceID, req.Date, ptr.Deref(req.DurationMinutes, 0), ptr.Deref(req.TherapistID, ""))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CheckAvailability: validation failed: %v", err)
		return nil, err
	}

	date, err := uc.zone.ParseDate(req.Date)
	if err != nil {
		uc.logger.Warn("CheckAvailability: invalid date=%q: %v", req.Date, err)
		return nil, ErrInvalidDate
	}

	// 2. Определяем длительность
	service, err := uc.serviceRepo.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			uc.logger.Warn("CheckAvailability: service id=%s not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("CheckAvailability: failed to get service id=%s: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: get service: %v", ErrInternal, err)
	}
	duration := ptr.Deref(req.DurationMinutes, service.DurationMinutes)

	// 3. Проверяем кэш
	key := availability.Key{
		Date:            date,
		ServiceID:       req.ServiceID,
		DurationMinutes: duration,
		TherapistID:     ptr.Deref(req.TherapistID, ""),
	}
	cached, slot, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.logger.Warn("CheckAvailability: cache read failed: %v", err)
	}
	if cached != nil {
		return cached, nil
	}

	// 4. Границы дня и день недели
	dayStart, dayEnd, err := uc.zone.LocalDayBoundsUTC(date)
	if err != nil {
		return nil, fmt.Errorf("%w: day bounds: %v", ErrInternal, err)
	}
	day := domain.DayOfWeekFromWeekday(uc.zone.Weekday(dayStart))

	// 5. Получаем кандидатов
	candidates, err := uc.candidates(ctx, req)
	if err != nil {
		return nil, err
	}

	// 6. Считаем свободное время каждого кандидата
	free, err := uc.freeTime(ctx, candidates, day, date, dayStart, dayEnd, duration)
	if err != nil {
		return nil, err
	}

	freeIntervals, err := toFreeIntervals(free)
	if err != nil {
		return nil, fmt.Errorf("%w: format intervals: %v", ErrInternal, err)
	}

	result := &domain.Availability{
		Date:                   date,
		Timezone:               uc.zone.Name(),
		ServiceID:              req.ServiceID,
		ServiceDurationMinutes: duration,
		FreeIntervals:          freeIntervals,
	}

	if err := uc.cache.Set(ctx, slot, result); err != nil {
		uc.logger.Warn("CheckAvailability: cache write failed: %v", err)
	}

	uc.logger.Info("CheckAvailability: %d free intervals for service=%s on %s from %d therapists",
		len(freeIntervals), req.ServiceID, date, len(candidates))
	return result, nil
}

// candidates возвращает запрошенного терапевта, если он есть и активен,
// иначе всех активных терапевтов, квалифицированных для услуги
func (uc *UseCase) candidates(ctx context.Context, req *Request) ([]*domain.Therapist, error) {
	if req.TherapistID != nil && *req.TherapistID != "" {
		t, err := uc.therapistRepo.GetByID(ctx, *req.TherapistID)
		if err != nil {
			if errors.Is(err, therapistRepo.ErrTherapistNotFound) {
				uc.logger.Warn("CheckAvailability: therapist id=%s not found", *req.TherapistID)
				return nil, nil
			}
			uc.logger.Error("CheckAvailability: failed to get therapist id=%s: %v", *req.TherapistID, err)
			return nil, fmt.Errorf("%w: get therapist: %v", ErrInternal, err)
		}
		if !t.IsActive {
			uc.logger.Warn("CheckAvailability: therapist id=%s is inactive", t.ID)
			return nil, nil
		}
		return []*domain.Therapist{t}, nil
	}

	list, err := uc.therapistRepo.FindActiveQualifiedFor(ctx, req.ServiceID)
	if err != nil {
		uc.logger.Error("CheckAvailability: failed to load therapists for service=%s: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: load therapists: %v", ErrInternal, err)
	}
	return list, nil
}

func (uc *UseCase) freeTime(
	ctx context.Context,
	candidates []*domain.Therapist,
	day domain.DayOfWeek,
	date string,
	dayStart, dayEnd time.Time,
	duration int,
) ([]intervals.Interval, error) {
	scheduled := make([]*domain.Therapist, 0, len(candidates))
	ids := make([]string, 0, len(candidates))
	for _, t := range candidates {
		if t.ScheduleFor(day) != nil {
			scheduled = append(scheduled, t)
			ids = append(ids, t.ID)
		}
	}
	if len(scheduled) == 0 {
		return []intervals.Interval{}, nil
	}

	booked, err := uc.appointmentRepo.FindOverlapping(ctx, domain.OverlapQuery{
		TherapistIDs: ids,
		Start:        dayStart,
		End:          dayEnd,
	})
	if err != nil {
		uc.logger.Error("CheckAvailability: failed to load appointments: %v", err)
		return nil, fmt.Errorf("%w: load appointments: %v", ErrInternal, err)
	}

	byTherapist := make(map[string][]*domain.Appointment, len(ids))
	for _, a := range booked {
		if a.TherapistID != nil {
			byTherapist[*a.TherapistID] = append(byTherapist[*a.TherapistID], a)
		}
	}

	var all []intervals.Interval
	for _, t := range scheduled {
		free, err := freeMinutes(t, day, date, byTherapist[t.ID], uc.zone, uc.bounds, duration)
		if err != nil {
			uc.logger.Warn("CheckAvailability: skipping therapist: %v", err)
			continue
		}
		all = append(all, free...)
	}

	if len(scheduled) == 1 {
		if all == nil {
			return []intervals.Interval{}, nil
		}
		return all, nil
	}
	return intervals.Merge(all), nil
}
