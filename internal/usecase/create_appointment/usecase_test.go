package create_appointment

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/catalog"
	customerRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/customer"
	therapistRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/therapist"
	"github.com/m04kA/SMC-AgendaService/internal/usecase/find_therapist"
	"github.com/m04kA/SMC-AgendaService/pkg/apperror"
	"github.com/m04kA/SMC-AgendaService/pkg/businesstime"
	"github.com/m04kA/SMC-AgendaService/pkg/logger"
	"github.com/m04kA/SMC-AgendaService/pkg/ptr"
	"github.com/m04kA/SMC-AgendaService/pkg/txmanager"
)

// store in-memory замена всех репозиториев, которые трогает use case
type store struct {
	services     map[string]*domain.Service
	therapists   []*domain.Therapist
	customers    map[string]*domain.Customer
	appointments map[string]*domain.Appointment

	createErr  error
	overlapErr error
}

func newStore() *store {
	return &store{
		services:     map[string]*domain.Service{},
		customers:    map[string]*domain.Customer{},
		appointments: map[string]*domain.Appointment{},
	}
}

type serviceRepo struct{ s *store }

func (r serviceRepo) GetByID(_ context.Context, id string) (*domain.Service, error) {
	if svc, ok := r.s.services[id]; ok {
		return svc, nil
	}
	return nil, catalogRepo.ErrServiceNotFound
}

type customerRepoStub struct{ s *store }

func (r customerRepoStub) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	if c, ok := r.s.customers[id]; ok {
		return c, nil
	}
	return nil, customerRepo.ErrCustomerNotFound
}

func (r customerRepoStub) find(match func(*domain.Customer) *string, value string) (*domain.Customer, error) {
	for _, c := range r.s.customers {
		if v := match(c); v != nil && *v == value {
			return c, nil
		}
	}
	return nil, customerRepo.ErrCustomerNotFound
}

func (r customerRepoStub) FindByEmail(_ context.Context, v string) (*domain.Customer, error) {
	return r.find(func(c *domain.Customer) *string { return c.Email }, v)
}

func (r customerRepoStub) FindByPhone(_ context.Context, v string) (*domain.Customer, error) {
	return r.find(func(c *domain.Customer) *string { return c.Phone }, v)
}

func (r customerRepoStub) FindByRut(_ context.Context, v string) (*domain.Customer, error) {
	return r.find(func(c *domain.Customer) *string { return c.Rut }, v)
}

func (r customerRepoStub) Create(_ context.Context, c *domain.Customer) (*domain.Customer, error) {
	created := *c
	r.s.customers[c.ID] = &created
	return &created, nil
}

type therapistRepoStub struct{ s *store }

func (r therapistRepoStub) GetByID(_ context.Context, id string) (*domain.Therapist, error) {
	for _, t := range r.s.therapists {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, therapistRepo.ErrTherapistNotFound
}

func (r therapistRepoStub) FindActiveQualifiedFor(_ context.Context, serviceID string) ([]*domain.Therapist, error) {
	var out []*domain.Therapist
	for _, t := range r.s.therapists {
		if t.IsActive && t.IsQualifiedFor(serviceID) {
			out = append(out, t)
		}
	}
	return out, nil
}

type appointmentRepoStub struct{ s *store }

func (r appointmentRepoStub) FindOverlapping(_ context.Context, q domain.OverlapQuery) ([]*domain.Appointment, error) {
	if r.s.overlapErr != nil {
		return nil, r.s.overlapErr
	}
	ids := make(map[string]bool)
	for _, id := range q.TherapistIDs {
		ids[id] = true
	}
	var out []*domain.Appointment
	for _, a := range r.s.appointments {
		if a.TherapistID == nil || !ids[*a.TherapistID] || !a.IsActive() || !a.Overlaps(q.Start, q.End) {
			continue
		}
		if q.ExcludeID != nil && a.ID == *q.ExcludeID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r appointmentRepoStub) Create(_ context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	if r.s.createErr != nil {
		return nil, r.s.createErr
	}
	created := *a
	r.s.appointments[a.ID] = &created
	return &created, nil
}

// txStub выполняет транзакции по очереди и откатывает store при ошибке
type txStub struct {
	mu  sync.Mutex
	s   *store
	err error
}

func (tx *txStub) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	customers := make(map[string]*domain.Customer, len(tx.s.customers))
	for k, v := range tx.s.customers {
		customers[k] = v
	}
	appointments := make(map[string]*domain.Appointment, len(tx.s.appointments))
	for k, v := range tx.s.appointments {
		appointments[k] = v
	}

	err := fn(ctx)
	if err == nil {
		err = tx.err
	}
	if err != nil {
		tx.s.customers = customers
		tx.s.appointments = appointments
	}
	return err
}

type notifierStub struct {
	mu    sync.Mutex
	calls []*domain.Appointment
}

func (n *notifierStub) AppointmentChanged(_ context.Context, _ string, action domain.AuditAction, current, _ *domain.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if action == domain.AuditCreate {
		n.calls = append(n.calls, current)
	}
}

type metricsStub struct {
	mu        sync.Mutex
	conflicts map[string]int
}

func (m *metricsStub) IncBookingConflict(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts[reason]++
}

type fixture struct {
	uc       *UseCase
	store    *store
	tx       *txStub
	notifier *notifierStub
	metrics  *metricsStub
}

// 2024-03-11 понедельник, Сантьяго в этот день UTC-3
func local(h, m int) time.Time {
	return time.Date(2024, 3, 11, h+3, m, 0, 0, time.UTC)
}

func workingTherapist(id string) *domain.Therapist {
	return &domain.Therapist{
		ID:         id,
		IsActive:   true,
		ServiceIDs: []string{"svc-45", "svc-60"},
		Schedules: []domain.WeeklySchedule{
			{DayOfWeek: domain.Monday, StartTime: "09:00", EndTime: "17:00", IsActive: true},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	zone, err := businesstime.NewZone("America/Santiago")
	require.NoError(t, err)
	bounds, err := businesstime.ParseDayBounds("08:30", "21:00")
	require.NoError(t, err)

	s := newStore()
	s.services["svc-45"] = &domain.Service{ID: "svc-45", DurationMinutes: 45, IsActive: true}
	s.services["svc-60"] = &domain.Service{ID: "svc-60", DurationMinutes: 60, IsActive: true}
	s.customers["cust-1"] = &domain.Customer{
		ID: "cust-1", Name: "Ana",
		Email: ptr.Ptr("ana@example.com"), Phone: ptr.Ptr("+56911111111"), Rut: ptr.Ptr("11.111.111-1"),
	}
	s.therapists = []*domain.Therapist{workingTherapist("T1"), workingTherapist("T2")}

	tx := &txStub{s: s}
	n := &notifierStub{}
	m := &metricsStub{conflicts: map[string]int{}}
	finder := find_therapist.NewUseCase(therapistRepoStub{s}, appointmentRepoStub{s}, zone, bounds, logger.Nop())

	var seq int
	var seqMu sync.Mutex
	uc := NewUseCase(serviceRepo{s}, customerRepoStub{s}, therapistRepoStub{s}, appointmentRepoStub{s},
		finder, tx, n, zone, m, logger.Nop())
	uc.newID = func() string {
		seqMu.Lock()
		defer seqMu.Unlock()
		seq++
		return fmt.Sprintf("id-%d", seq)
	}

	return &fixture{uc: uc, store: s, tx: tx, notifier: n, metrics: m}
}

func (f *fixture) book(therapistID string, start, end time.Time) {
	id := fmt.Sprintf("existing-%d", len(f.store.appointments)+1)
	f.store.appointments[id] = &domain.Appointment{
		ID: id, CustomerID: "cust-1", TherapistID: ptr.Ptr(therapistID), ServiceID: "svc-45",
		StartAt: start, EndAt: end, Status: domain.StatusConfirmed,
	}
}

func TestExecute_CreatesWithWallClockStart(t *testing.T) {
	f := newFixture(t)

	got, err := f.uc.Execute(context.Background(), &Request{
		ActorID:    "user-1",
		ServiceID:  "svc-45",
		CustomerID: ptr.Ptr("cust-1"),
		StartAt:    "2024-03-11T10:00:00",
		Notes:      ptr.Ptr("first visit"),
	})
	require.NoError(t, err)

	assert.True(t, got.StartAt.Equal(local(10, 0)))
	assert.True(t, got.EndAt.Equal(local(10, 45)))
	assert.Equal(t, "T1", *got.TherapistID)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, "first visit", *got.Notes)
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, got.ID, f.notifier.calls[0].ID)
}

func TestExecute_ExplicitTherapistConflict(t *testing.T) {
	f := newFixture(t)
	f.book("T1", local(10, 0), local(10, 45))

	_, err := f.uc.Execute(context.Background(), &Request{
		ServiceID:   "svc-45",
		CustomerID:  ptr.Ptr("cust-1"),
		TherapistID: ptr.Ptr("T1"),
		StartAt:     "2024-03-11T13:15:00Z", // 10:15 по местному времени
	})
	require.ErrorIs(t, err, ErrTimeUnavailable)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, 1, f.metrics.conflicts["time_unavailable"])
	assert.Empty(t, f.notifier.calls)
}

func TestExecute_ExplicitTherapistOutsideScheduleIsAccepted(t *testing.T) {
	f := newFixture(t)

	got, err := f.uc.Execute(context.Background(), &Request{
		ServiceID:   "svc-45",
		CustomerID:  ptr.Ptr("cust-1"),
		TherapistID: ptr.Ptr("T2"),
		StartAt:     "2024-03-11T19:00:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "T2", *got.TherapistID)
}

func TestExecute_AssignsFreeTherapist(t *testing.T) {
	f := newFixture(t)
	f.book("T1", local(9, 0), local(17, 0))

	got, err := f.uc.Execute(context.Background(), &Request{
		ServiceID:  "svc-60",
		CustomerID: ptr.Ptr("cust-1"),
		StartAt:    "2024-03-11T11:00:00-03:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "T2", *got.TherapistID)
}

func TestExecute_NoTherapistAvailable(t *testing.T) {
	f := newFixture(t)
	f.book("T1", local(9, 0), local(17, 0))
	f.book("T2", local(11, 0), local(11, 30))

	_, err := f.uc.Execute(context.Background(), &Request{
		ServiceID:  "svc-60",
		CustomerID: ptr.Ptr("cust-1"),
		StartAt:    "2024-03-11T11:00:00",
	})
	require.ErrorIs(t, err, find_therapist.ErrNoTherapistAvailable)
	assert.Equal(t, 1, f.metrics.conflicts["no_therapist_available"])
}

func TestExecute_CustomerResolution(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		want    error
		kind    apperror.Kind
		message string
	}{
		{
			name: "neither customerId nor customerData",
			req:  &Request{ServiceID: "svc-45", StartAt: "2024-03-11T10:00:00"},
			want: ErrCustomerRequired,
			kind: apperror.KindBadRequest,
		},
		{
			name: "customerData without contact",
			req:  &Request{ServiceID: "svc-45", StartAt: "2024-03-11T10:00:00", CustomerData: &domain.CustomerData{Name: "Luis"}},
			want: ErrCustomerRequired,
			kind: apperror.KindBadRequest,
		},
		{
			name: "unknown customerId",
			req:  &Request{ServiceID: "svc-45", StartAt: "2024-03-11T10:00:00", CustomerID: ptr.Ptr("ghost")},
			want: ErrCustomerNotFound,
			kind: apperror.KindNotFound,
		},
		{
			name: "duplicate email",
			req: &Request{ServiceID: "svc-45", StartAt: "2024-03-11T10:00:00", CustomerData: &domain.CustomerData{
				Name: "Luis", Email: ptr.Ptr(" ANA@example.com "),
			}},
			want:    ErrCustomerDuplicate,
			kind:    apperror.KindConflict,
			message: "a customer with the same email already exists",
		},
		{
			name: "duplicate email and rut",
			req: &Request{ServiceID: "svc-45", StartAt: "2024-03-11T10:00:00", CustomerData: &domain.CustomerData{
				Name: "Luis", Email: ptr.Ptr("ana@example.com"), Phone: ptr.Ptr("+56922222222"), Rut: ptr.Ptr("11.111.111-1"),
			}},
			want:    ErrCustomerDuplicate,
			kind:    apperror.KindConflict,
			message: "a customer with the same email, rut already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.uc.Execute(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
			if tt.message != "" {
				appErr, ok := apperror.From(err)
				require.True(t, ok)
				assert.Equal(t, tt.message, appErr.Message)
			}
		})
	}
}

func TestExecute_RegistersCustomer(t *testing.T) {
	f := newFixture(t)

	got, err := f.uc.Execute(context.Background(), &Request{
		ServiceID: "svc-45",
		StartAt:   "2024-03-11T10:00:00",
		CustomerData: &domain.CustomerData{
			Name: " Luis ", Email: ptr.Ptr("Luis@Example.com"), Phone: ptr.Ptr(" "),
		},
	})
	require.NoError(t, err)

	customer, ok := f.store.customers[got.CustomerID]
	require.True(t, ok)
	assert.Equal(t, "Luis", customer.Name)
	assert.Equal(t, "luis@example.com", *customer.Email)
	assert.Nil(t, customer.Phone)
}

func TestExecute_InvalidStartAtRollsBackCustomer(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Execute(context.Background(), &Request{
		ServiceID:    "svc-45",
		StartAt:      "tomorrow at ten",
		CustomerData: &domain.CustomerData{Name: "Luis", Email: ptr.Ptr("luis@example.com")},
	})
	require.ErrorIs(t, err, ErrInvalidStartAt)
	assert.Len(t, f.store.customers, 1)
}

func TestExecute_ValidationAndLookups(t *testing.T) {
	long := make([]byte, 1001)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name string
		req  *Request
		want error
	}{
		{name: "missing service", req: &Request{CustomerID: ptr.Ptr("cust-1"), StartAt: "2024-03-11T10:00:00"}, want: ErrInvalidInput},
		{name: "unknown service", req: &Request{ServiceID: "svc-x", CustomerID: ptr.Ptr("cust-1"), StartAt: "2024-03-11T10:00:00"}, want: ErrServiceNotFound},
		{name: "unknown therapist", req: &Request{ServiceID: "svc-45", CustomerID: ptr.Ptr("cust-1"), TherapistID: ptr.Ptr("ghost"), StartAt: "2024-03-11T10:00:00"}, want: ErrTherapistNotFound},
		{name: "unknown status", req: &Request{ServiceID: "svc-45", CustomerID: ptr.Ptr("cust-1"), StartAt: "2024-03-11T10:00:00", Status: ptr.Ptr("done")}, want: ErrInvalidInput},
		{name: "notes too long", req: &Request{ServiceID: "svc-45", CustomerID: ptr.Ptr("cust-1"), StartAt: "2024-03-11T10:00:00", Notes: ptr.Ptr(string(long))}, want: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.uc.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExecute_StorageGuards(t *testing.T) {
	tests := []struct {
		name        string
		therapistID *string
		overlapErr  error
		createErr   error
		txErr       error
	}{
		{name: "exclusion constraint", createErr: fmt.Errorf("%w: Create", appointmentRepo.ErrOverlap)},
		{name: "serialization failure on insert", createErr: fmt.Errorf("%w: Create", appointmentRepo.ErrSerialization)},
		{name: "serialization failure on commit", txErr: fmt.Errorf("%w: commit", txmanager.ErrSerialization)},
		{
			name:        "serialization failure on overlap read",
			therapistID: ptr.Ptr("T1"),
			overlapErr:  fmt.Errorf("%w: FindOverlapping", appointmentRepo.ErrSerialization),
		},
		{
			name:       "serialization failure during assignment search",
			overlapErr: fmt.Errorf("%w: FindOverlapping", appointmentRepo.ErrSerialization),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.store.overlapErr = tt.overlapErr
			f.store.createErr = tt.createErr
			f.tx.err = tt.txErr

			_, err := f.uc.Execute(context.Background(), &Request{
				ServiceID: "svc-45", CustomerID: ptr.Ptr("cust-1"), TherapistID: tt.therapistID, StartAt: "2024-03-11T10:00:00",
			})
			assert.ErrorIs(t, err, ErrTimeUnavailable)
			assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
			assert.Empty(t, f.notifier.calls)
		})
	}
}

func TestExecute_UnexpectedStorageError(t *testing.T) {
	f := newFixture(t)
	f.store.createErr = errors.New("disk full")

	_, err := f.uc.Execute(context.Background(), &Request{
		ServiceID: "svc-45", CustomerID: ptr.Ptr("cust-1"), StartAt: "2024-03-11T10:00:00",
	})
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
}

func TestExecute_NoDoubleBooking(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewSource(42))

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		startMin := 9*60 + 15*rng.Intn(28)
		service := []string{"svc-45", "svc-60"}[rng.Intn(2)]
		var therapistID *string
		if rng.Intn(2) == 0 {
			therapistID = ptr.Ptr([]string{"T1", "T2"}[rng.Intn(2)])
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			start := local(startMin/60, startMin%60).Format(time.RFC3339)
			_, _ = f.uc.Execute(context.Background(), &Request{
				ServiceID: service, CustomerID: ptr.Ptr("cust-1"), TherapistID: therapistID, StartAt: start,
			})
		}()
	}
	wg.Wait()

	byTherapist := map[string][]*domain.Appointment{}
	for _, a := range f.store.appointments {
		byTherapist[*a.TherapistID] = append(byTherapist[*a.TherapistID], a)
	}
	require.NotEmpty(t, byTherapist)

	for id, list := range byTherapist {
		sort.Slice(list, func(i, j int) bool { return list[i].StartAt.Before(list[j].StartAt) })
		for i := 1; i < len(list); i++ {
			assert.False(t, list[i-1].Overlaps(list[i].StartAt, list[i].EndAt),
				"therapist %s: %s overlaps %s", id, list[i-1].ID, list[i].ID)
		}
	}
	assert.Equal(t, len(f.store.appointments), len(f.notifier.calls))
}
