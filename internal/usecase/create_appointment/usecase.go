package create_appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/catalog"
	customerRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/customer"
	therapistRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/therapist"
	"github.com/m04kA/SMC-AgendaService/internal/usecase/find_therapist"
	"github.com/m04kA/SMC-AgendaService/pkg/apperror"
	"github.com/m04kA/SMC-AgendaService/pkg/businesstime"
	"github.com/m04kA/SMC-AgendaService/pkg/ptr"
	"github.com/m04kA/SMC-AgendaService/pkg/txmanager"
)

const tracerName = "github.com/m04kA/SMC-AgendaService/internal/usecase/create_appointment"

// UseCase создает новую запись
type UseCase struct {
	serviceRepo     ServiceRepository
	customerRepo    CustomerRepository
	therapistRepo   TherapistRepository
	appointmentRepo AppointmentRepository
	finder          TherapistFinder
	txManager       TransactionManager
	notifier        Notifier
	zone            *businesstime.Zone
	metrics         Metrics
	logger          Logger
	newID           func() string
}

// NewUseCase создает новый экземпляр use case. metrics может быть nil
func NewUseCase(
	serviceRepo ServiceRepository,
	customerRepo CustomerRepository,
	therapistRepo TherapistRepository,
	appointmentRepo AppointmentRepository,
	finder TherapistFinder,
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
		finder:          finder,
		txManager:       txManager,
		notifier:        notifier,
		zone:            zone,
		metrics:         metrics,
		logger:          logger,
		newID:           uuid.NewString,
	}
}

// Execute создает запись.
// Все чтения и вставка идут в одной сериализуемой транзакции, поэтому
// зарегистрированный по пути клиент откатывается при неудачной записи.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*domain.Appointment, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "CreateAppointment")
	defer span.End()
	span.SetAttributes(
		attribute.String("service.id", req.ServiceID),
		attribute.String("start_at", req.StartAt),
	)

	result, err := uc.execute(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("appointment.id", result.ID))
	return result, nil
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*domain.Appointment, error) {
	uc.logger.Info("CreateAppointment: actor=%s, service=%s, customer=%v, therapist=%v, startAt=%s",
		req.ActorID, req.ServiceID, ptr.Deref(req.CustomerID, ""), ptr.Deref(req.TherapistID, ""), req.StartAt)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateAppointment: validation failed: %v", err)
		return nil, err
	}

	var result *domain.Appointment

	// 2. Выполняем операции с БД в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2.1. Получаем услугу
		service, err := uc.serviceRepo.GetByID(txCtx, req.ServiceID)
		if err != nil {
			if errors.Is(err, catalogRepo.ErrServiceNotFound) {
				uc.logger.Warn("CreateAppointment: service id=%s not found", req.ServiceID)
				return ErrServiceNotFound
			}
			uc.logger.Error("CreateAppointment: failed to get service id=%s: %v", req.ServiceID, err)
			return fmt.Errorf("%w: get service: %v", ErrInternal, err)
		}

		// 2.2. Получаем или регистрируем клиента
		customer, err := uc.resolveCustomer(txCtx, req)
		if err != nil {
			return err
		}

		// 2.3. Вычисляем интервал записи
		startAt, err := uc.zone.ParseFlexibleTimestamp(req.StartAt)
		if err != nil {
			uc.logger.Warn("CreateAppointment: invalid startAt=%q: %v", req.StartAt, err)
			return ErrInvalidStartAt
		}
		endAt := startAt.Add(service.Duration())

		// 2.4. Определяем терапевта
		therapistID, err := uc.resolveTherapist(txCtx, req, startAt, endAt)
		if err != nil {
			return err
		}

		// 2.5. Повторно проверяем пересечения у выбранного терапевта (блокирует строки)
		overlapping, err := uc.appointmentRepo.FindOverlapping(txCtx, domain.OverlapQuery{
			TherapistIDs: []string{therapistID},
			Start:        startAt,
			End:          endAt,
		})
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrSerialization) {
				uc.logger.Warn("CreateAppointment: overlap check lost a concurrent booking race: %v", err)
				return ErrTimeUnavailable
			}
			uc.logger.Error("CreateAppointment: failed to check overlaps: %v", err)
			return fmt.Errorf("%w: check overlaps: %v", ErrInternal, err)
		}
		if domain.HasConflict(overlapping, startAt, endAt) {
			uc.logger.Warn("CreateAppointment: therapist=%s busy at %s", therapistID, startAt)
			return ErrTimeUnavailable
		}

		// 2.6. Создаем запись
		status := domain.StatusPending
		if req.Status != nil {
			status, _ = domain.ParseAppointmentStatus(*req.Status)
		}

		created, err := uc.appointmentRepo.Create(txCtx, &domain.Appointment{
			ID:          uc.newID(),
			CustomerID:  customer.ID,
			TherapistID: ptr.Ptr(therapistID),
			ServiceID:   service.ID,
			StartAt:     startAt,
			EndAt:       endAt,
			Status:      status,
			Notes:       req.Notes,
		})
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrOverlap) || errors.Is(err, appointmentRepo.ErrSerialization) {
				uc.logger.Warn("CreateAppointment: storage rejected overlapping booking: %v", err)
				return ErrTimeUnavailable
			}
			uc.logger.Error("CreateAppointment: failed to create appointment: %v", err)
			return fmt.Errorf("%w: create appointment: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrSerialization) {
			uc.logger.Warn("CreateAppointment: serialization conflict: %v", err)
			err = ErrTimeUnavailable
		}
		uc.countConflict(err)
		return nil, err
	}

	// 3. Побочные эффекты после коммита
	uc.notifier.AppointmentChanged(ctx, req.ActorID, domain.AuditCreate, result, nil)

	uc.logger.Info("CreateAppointment: created appointment id=%s for therapist=%s at %s",
		result.ID, ptr.Deref(result.TherapistID, ""), result.StartAt)
	return result, nil
}

// resolveCustomer загружает указанного клиента или регистрирует нового
func (uc *UseCase) resolveCustomer(ctx context.Context, req *Request) (*domain.Customer, error) {
	if req.CustomerID != nil && strings.TrimSpace(*req.CustomerID) != "" {
		customer, err := uc.customerRepo.GetByID(ctx, *req.CustomerID)
		if err != nil {
			if errors.Is(err, customerRepo.ErrCustomerNotFound) {
				uc.logger.Warn("CreateAppointment: customer id=%s not found", *req.CustomerID)
				return nil, ErrCustomerNotFound
			}
			uc.logger.Error("CreateAppointment: failed to get customer id=%s: %v", *req.CustomerID, err)
			return nil, fmt.Errorf("%w: get customer: %v", ErrInternal, err)
		}
		return customer, nil
	}

	if !hasCustomerData(req.CustomerData) {
		uc.logger.Warn("CreateAppointment: no customer identification")
		return nil, ErrCustomerRequired
	}

	data := normalizeCustomerData(*req.CustomerData)

	duplicates, err := uc.duplicateFields(ctx, data)
	if err != nil {
		return nil, err
	}
	if len(duplicates) > 0 {
		uc.logger.Warn("CreateAppointment: customer already exists with the same %s", strings.Join(duplicates, ", "))
		return nil, ErrCustomerDuplicate.Withf("a customer with the same %s already exists", strings.Join(duplicates, ", "))
	}

	customer, err := uc.customerRepo.Create(ctx, &domain.Customer{
		ID:       uc.newID(),
		Name:     data.Name,
		LastName: data.LastName,
		Email:    data.Email,
		Phone:    data.Phone,
		Rut:      data.Rut,
	})
	if err != nil {
		if errors.Is(err, customerRepo.ErrDuplicate) {
			uc.logger.Warn("CreateAppointment: concurrent customer registration: %v", err)
			return nil, ErrCustomerDuplicate
		}
		uc.logger.Error("CreateAppointment: failed to create customer: %v", err)
		return nil, fmt.Errorf("%w: create customer: %v", ErrInternal, err)
	}

	uc.logger.Info("CreateAppointment: registered customer id=%s", customer.ID)
	return customer, nil
}

// duplicateFields перечисляет контактные поля, уже занятые другим клиентом
func (uc *UseCase) duplicateFields(ctx context.Context, data domain.CustomerData) ([]string, error) {
	lookups := []struct {
		field string
		value *string
		find  func(context.Context, string) (*domain.Customer, error)
	}{
		{"email", data.Email, uc.customerRepo.FindByEmail},
		{"phone", data.Phone, uc.customerRepo.FindByPhone},
		{"rut", data.Rut, uc.customerRepo.FindByRut},
	}

	var fields []string
	for _, l := range lookups {
		if l.value == nil {
			continue
		}
		_, err := l.find(ctx, *l.value)
		if err == nil {
			fields = append(fields, l.field)
			continue
		}
		if !errors.Is(err, customerRepo.ErrCustomerNotFound) {
			uc.logger.Error("CreateAppointment: failed to look up customer by %s: %v", l.field, err)
			return nil, fmt.Errorf("%w: find customer by %s: %v", ErrInternal, l.field, err)
		}
	}
	return fields, nil
}

// resolveTherapist проверяет указанного терапевта или запускает подбор
func (uc *UseCase) resolveTherapist(ctx context.Context, req *Request, startAt, endAt time.Time) (string, error) {
	if req.TherapistID != nil && strings.TrimSpace(*req.TherapistID) != "" {
		t, err := uc.therapistRepo.GetByID(ctx, *req.TherapistID)
		if err != nil {
			if errors.Is(err, therapistRepo.ErrTherapistNotFound) {
				uc.logger.Warn("CreateAppointment: therapist id=%s not found", *req.TherapistID)
				return "", ErrTherapistNotFound
			}
			uc.logger.Error("CreateAppointment: failed to get therapist id=%s: %v", *req.TherapistID, err)
			return "", fmt.Errorf("%w: get therapist: %v", ErrInternal, err)
		}
		return t.ID, nil
	}

	t, err := uc.finder.Execute(ctx, &find_therapist.Request{
		ServiceID: req.ServiceID,
		StartAt:   startAt,
		EndAt:     endAt,
	})
	if err != nil {
		if errors.Is(err, find_therapist.ErrNoTherapistAvailable) {
			return "", err
		}
		if errors.Is(err, appointmentRepo.ErrSerialization) {
			uc.logger.Warn("CreateAppointment: assignment search lost a concurrent booking race: %v", err)
			return "", ErrTimeUnavailable
		}
		uc.logger.Error("CreateAppointment: assignment search failed: %v", err)
		return "", fmt.Errorf("%w: find therapist: %v", ErrInternal, err)
	}
	return t.ID, nil
}

func (uc *UseCase) countConflict(err error) {
	if uc.metrics == nil || apperror.KindOf(err) != apperror.KindConflict {
		return
	}
	if appErr, ok := apperror.From(err); ok {
		uc.metrics.IncBookingConflict(appErr.Code)
	}
}
