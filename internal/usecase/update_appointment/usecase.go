package update_appointment

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/catalog"
	customerRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/customer"
	therapistRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/therapist"
	"github.com/m04kA/SMC-AgendaService/pkg/apperror"
	"github.com/m04kA/SMC-AgendaService/pkg/businesstime"
	"github.com/m04kA/SMC-AgendaService/pkg/txmanager"
)

const tracerName = "github.com/m04kA/SMC-AgendaService/internal/usecase/update_appointment"

// UseCase применяет частичное обновление к записи
type UseCase struct {
	serviceRepo     ServiceRepository
	customerRepo    CustomerRepository
	therapistRepo   TherapistRepository
	appointmentRepo AppointmentRepository
	txManager       TransactionManager
	notifier        Notifier
	zone            *businesstime.Zone
	metrics         Metrics
	logger          Logger
}

// NewUseCase создает новый экземпляр use case. metrics может быть nil
func NewUseCase(
	serviceRepo ServiceRepository,
	customerRepo CustomerRepository,
	therapistRepo TherapistRepository,
	appointmentRepo AppointmentRepository,
	txManager TransactionManager,
	notifier Notifier,
	zone *businesstime.Zone,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		serviceRepo:     serviceRepo,
		customerRepo:    customerRepo,
		therapistRepo:   therapistRepo,
		appointmentRepo: appointmentRepo,
		txManager:       txManager,
		notifier:        notifier,
		zone:            zone,
		metrics:         metrics,
		logger:          logger,
	}
}

// Execute обновляет запись и возвращает сохраненную строку.
// Пустой запрос возвращает текущую строку без записи в БД.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*domain.Appointment, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "UpdateAppointment")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", req.AppointmentID))

	result, err := uc.execute(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*domain.Appointment, error) {
	uc.logger.Info("UpdateAppointment: actor=%s, id=%s", req.ActorID, req.AppointmentID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("UpdateAppointment: validation failed: %v", err)
		return nil, err
	}

	var (
		previous *domain.Appointment
		result   *domain.Appointment
	)

	// 2. Выполняем операции с БД в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2.1. Получаем текущую запись
		existing, err := uc.appointmentRepo.GetByID(txCtx, req.AppointmentID)
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
				uc.logger.Warn("UpdateAppointment: appointment id=%s not found", req.AppointmentID)
				return ErrAppointmentNotFound
			}
			uc.logger.Error("UpdateAppointment: failed to get appointment id=%s: %v", req.AppointmentID, err)
			return fmt.Errorf("%w: get appointment: %v", ErrInternal, err)
		}

		if req.isEmpty() {
			result = existing
			return nil
		}

		// 2.2. Формируем изменения
		patch, err := uc.buildPatch(txCtx, req, existing)
		if err != nil {
			return err
		}

		// 2.3. Повторно проверяем пересечения для итоговой строки
		updated := patch.Apply(*existing)
		if needsConflictCheck(patch, &updated) {
			overlapping, err := uc.appointmentRepo.FindOverlapping(txCtx, domain.OverlapQuery{
				TherapistIDs: []string{*updated.TherapistID},
				Start:        updated.StartAt,
				End:          updated.EndAt,
				ExcludeID:    &existing.ID,
			})
			if err != nil {
				if errors.Is(err, appointmentRepo.ErrSerialization) {
					uc.logger.Warn("UpdateAppointment: overlap check lost a concurrent booking race: %v", err)
					return ErrTimeUnavailable
				}
				uc.logger.Error("UpdateAppointment: failed to check overlaps: %v", err)
				return fmt.Errorf("%w: check overlaps: %v", ErrInternal, err)
			}
			if domain.HasConflict(overlapping, updated.StartAt, updated.EndAt) {
				uc.logger.Warn("UpdateAppointment: therapist=%s busy at %s", *updated.TherapistID, updated.StartAt)
				return ErrTimeUnavailable
			}
		}

		// 2.4. Сохраняем только измененные поля
		stored, err := uc.appointmentRepo.Update(txCtx, existing.ID, patch)
		if err != nil {
			switch {
			case errors.Is(err, appointmentRepo.ErrAppointmentNotFound):
				return ErrAppointmentNotFound
			case errors.Is(err, appointmentRepo.ErrOverlap), errors.Is(err, appointmentRepo.ErrSerialization):
				uc.logger.Warn("UpdateAppointment: storage rejected overlapping booking: %v", err)
				return ErrTimeUnavailable
			}
			uc.logger.Error("UpdateAppointment: failed to update appointment id=%s: %v", existing.ID, err)
			return fmt.Errorf("%w: update appointment: %v", ErrInternal, err)
		}

		previous = existing
		result = stored
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrSerialization) {
			uc.logger.Warn("UpdateAppointment: serialization conflict: %v", err)
			err = ErrTimeUnavailable
		}
		if uc.metrics != nil && errors.Is(err, ErrTimeUnavailable) {
			if appErr, ok := apperror.From(err); ok {
				uc.metrics.IncBookingConflict(appErr.Code)
			}
		}
		return nil, err
	}

	// 3. Побочные эффекты после коммита
	if previous != nil {
		uc.notifier.AppointmentChanged(ctx, req.ActorID, domain.AuditUpdate, result, previous)
		uc.logger.Info("UpdateAppointment: updated appointment id=%s", result.ID)
	}
	return result, nil
}

// buildPatch проверяет ссылки и вычисляет новый интервал
func (uc *UseCase) buildPatch(ctx context.Context, req *Request, existing *domain.Appointment) (domain.AppointmentPatch, error) {
	patch := domain.AppointmentPatch{
		Notes:        req.Notes,
		ReminderSent: req.ReminderSent,
	}

	if req.Status != nil {
		status, _ := domain.ParseAppointmentStatus(*req.Status)
		patch.Status = &status
	}

	if req.CustomerID != nil {
		if _, err := uc.customerRepo.GetByID(ctx, *req.CustomerID); err != nil {
			if errors.Is(err, customerRepo.ErrCustomerNotFound) {
				uc.logger.Warn("UpdateAppointment: customer id=%s not found", *req.CustomerID)
				return patch, ErrCustomerNotFound
			}
			return patch, fmt.Errorf("%w: get customer: %v", ErrInternal, err)
		}
		patch.CustomerID = req.CustomerID
	}

	if req.TherapistID != nil {
		if _, err := uc.therapistRepo.GetByID(ctx, *req.TherapistID); err != nil {
			if errors.Is(err, therapistRepo.ErrTherapistNotFound) {
				uc.logger.Warn("UpdateAppointment: therapist id=%s not found", *req.TherapistID)
				return patch, ErrTherapistNotFound
			}
			return patch, fmt.Errorf("%w: get therapist: %v", ErrInternal, err)
		}
		patch.TherapistID = req.TherapistID
	}

	if req.StartAt == nil && req.ServiceID == nil {
		return patch, nil
	}

	// при смене startAt или serviceId endAt пересчитывается по итоговой услуге
	serviceID := existing.ServiceID
	if req.ServiceID != nil {
		serviceID = *req.ServiceID
	}
	service, err := uc.serviceRepo.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			uc.logger.Warn("UpdateAppointment: service id=%s not found", serviceID)
			return patch, ErrServiceNotFound
		}
		return patch, fmt.Errorf("%w: get service: %v", ErrInternal, err)
	}

	startAt := existing.StartAt
	if req.StartAt != nil {
		startAt, err = uc.zone.ParseFlexibleTimestamp(*req.StartAt)
		if err != nil {
			uc.logger.Warn("UpdateAppointment: invalid startAt=%q: %v", *req.StartAt, err)
			return patch, ErrInvalidStartAt
		}
		patch.StartAt = &startAt
	}
	endAt := startAt.Add(service.Duration())

	patch.ServiceID = req.ServiceID
	patch.EndAt = &endAt
	return patch, nil
}

// needsConflictCheck сообщает, может ли обновление создать пересечение:
// итоговая запись активна, у нее есть терапевт, и изменились время, длительность,
// терапевт или статус.
func needsConflictCheck(patch domain.AppointmentPatch, updated *domain.Appointment) bool {
	if !updated.IsActive() || updated.TherapistID == nil {
		return false
	}
	return patch.StartAt != nil || patch.ServiceID != nil || patch.TherapistID != nil || patch.Status != nil
}
