package update_appointment

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/catalog"
	customerRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/customer"
	therapistRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/therapist"
	"github.com/m04kA/SMC-AgendaService/pkg/apperror"
	"github.com/m04kA/SMC-AgendaService/pkg/businesstime"
	"github.com/m04kA/SMC-AgendaService/pkg/logger"
	"github.com/m04kA/SMC-AgendaService/pkg/ptr"
)

type store struct {
	services     map[string]*domain.Service
	customers    map[string]bool
	therapists   map[string]bool
	appointments map[string]*domain.Appointment
}

func (s *store) GetService(id string) (*domain.Service, error) {
	if svc, ok := s.services[id]; ok {
		return svc, nil
	}
	return nil, catalogRepo.ErrServiceNotFound
}

type serviceRepoStub struct{ s *store }

func (r serviceRepoStub) GetByID(_ context.Context, id string) (*domain.Service, error) {
	return r.s.GetService(id)
}

type customerRepoStub struct{ s *store }

func (r customerRepoStub) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	if r.s.customers[id] {
		return &domain.Customer{ID: id}, nil
	}
	return nil, customerRepo.ErrCustomerNotFound
}

type therapistRepoStub struct{ s *store }

func (r therapistRepoStub) GetByID(_ context.Context, id string) (*domain.Therapist, error) {
	if r.s.therapists[id] {
		return &domain.Therapist{ID: id, IsActive: true}, nil
	}
	return nil, therapistRepo.ErrTherapistNotFound
}

type appointmentRepoStub struct {
	s          *store
	updates    int
	overlapErr error
	updateErr  error
}

func (r *appointmentRepoStub) GetByID(_ context.Context, id string) (*domain.Appointment, error) {
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *appointmentRepoStub) FindOverlapping(_ context.Context, q domain.OverlapQuery) ([]*domain.Appointment, error) {
	if r.overlapErr != nil {
		return nil, r.overlapErr
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
		if q.ExcludeID != nil && *q.ExcludeID == a.ID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *appointmentRepoStub) Update(_ context.Context, id string, patch domain.AppointmentPatch) (*domain.Appointment, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	r.updates++
	updated := patch.Apply(*a)
	r.s.appointments[id] = &updated
	cp := updated
	return &cp, nil
}

type txStub struct{}

func (txStub) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type notification struct {
	current, previous *domain.Appointment
}

type notifierStub struct{ calls []notification }

func (n *notifierStub) AppointmentChanged(_ context.Context, _ string, _ domain.AuditAction, current, previous *domain.Appointment) {
	n.calls = append(n.calls, notification{current, previous})
}

type metricsStub struct{ conflicts int }

func (m *metricsStub) IncBookingConflict(string) { m.conflicts++ }

type fixture struct {
	uc       *UseCase
	store    *store
	repo     *appointmentRepoStub
	notifier *notifierStub
	metrics  *metricsStub
}

// 2024-03-11 понедельник, Сантьяго в этот день UTC-3
func local(h, m int) time.Time {
	return time.Date(2024, 3, 11, h+3, m, 0, 0, time.UTC)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	zone, err := businesstime.NewZone("America/Santiago")
	require.NoError(t, err)

	s := &store{
		services: map[string]*domain.Service{
			"svc-30": {ID: "svc-30", DurationMinutes: 30},
			"svc-90": {ID: "svc-90", DurationMinutes: 90},
		},
		customers:  map[string]bool{"cust-1": true, "cust-2": true},
		therapists: map[string]bool{"T1": true, "T2": true},
		appointments: map[string]*domain.Appointment{
			"a1": {ID: "a1", CustomerID: "cust-1", TherapistID: ptr.Ptr("T1"), ServiceID: "svc-30",
				StartAt: local(10, 0), EndAt: local(10, 30), Status: domain.StatusConfirmed},
			"a2": {ID: "a2", CustomerID: "cust-2", TherapistID: ptr.Ptr("T1"), ServiceID: "svc-30",
				StartAt: local(11, 0), EndAt: local(11, 30), Status: domain.StatusPending},
			"a3": {ID: "a3", CustomerID: "cust-2", TherapistID: ptr.Ptr("T1"), ServiceID: "svc-30",
				StartAt: local(11, 0), EndAt: local(11, 30), Status: domain.StatusCancelled},
		},
	}

	repo := &appointmentRepoStub{s: s}
	n := &notifierStub{}
	m := &metricsStub{}
	uc := NewUseCase(serviceRepoStub{s}, customerRepoStub{s}, therapistRepoStub{s}, repo, txStub{}, n, zone, m, logger.Nop())
	return &fixture{uc: uc, store: s, repo: repo, notifier: n, metrics: m}
}

func TestExecute_MoveStartRecomputesEnd(t *testing.T) {
	f := newFixture(t)

	got, err := f.uc.Execute(context.Background(), &Request{
		ActorID: "user-1", AppointmentID: "a1", StartAt: ptr.Ptr("2024-03-11T10:15:00"),
	})
	require.NoError(t, err)

	assert.True(t, got.StartAt.Equal(local(10, 15)))
	assert.True(t, got.EndAt.Equal(local(10, 45)))
	require.Len(t, f.notifier.calls, 1)
	assert.True(t, f.notifier.calls[0].previous.StartAt.Equal(local(10, 0)))
}

func TestExecute_ServiceChangeExtendsIntoConflict(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Execute(context.Background(), &Request{AppointmentID: "a1", ServiceID: ptr.Ptr("svc-90")})
	require.ErrorIs(t, err, ErrTimeUnavailable)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, 1, f.metrics.conflicts)
	assert.Zero(t, f.repo.updates)
}

func TestExecute_ConflictRules(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		wantErr error
	}{
		{name: "move onto active appointment", req: &Request{AppointmentID: "a1", StartAt: ptr.Ptr("2024-03-11T11:15:00")}, wantErr: ErrTimeUnavailable},
		{name: "back to back is fine", req: &Request{AppointmentID: "a1", StartAt: ptr.Ptr("2024-03-11T10:30:00")}},
		{name: "overlap with itself is ignored", req: &Request{AppointmentID: "a2", StartAt: ptr.Ptr("2024-03-11T11:10:00")}},
		{name: "reactivating a cancelled appointment into a busy slot", req: &Request{AppointmentID: "a3", Status: ptr.Ptr("pending")}, wantErr: ErrTimeUnavailable},
		{name: "moving a cancelled appointment is not checked", req: &Request{AppointmentID: "a3", StartAt: ptr.Ptr("2024-03-11T10:00:00")}},
		{name: "switching to a free therapist", req: &Request{AppointmentID: "a2", TherapistID: ptr.Ptr("T2")}},
		{name: "cancelling is always allowed", req: &Request{AppointmentID: "a2", Status: ptr.Ptr("cancelled")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.uc.Execute(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestExecute_PatchFieldsOnly(t *testing.T) {
	f := newFixture(t)

	got, err := f.uc.Execute(context.Background(), &Request{
		AppointmentID: "a2",
		CustomerID:    ptr.Ptr("cust-1"),
		Notes:         ptr.Ptr("bring x-rays"),
		ReminderSent:  ptr.Ptr(true),
		Status:        ptr.Ptr("no-show"),
	})
	require.NoError(t, err)

	assert.Equal(t, "cust-1", got.CustomerID)
	assert.Equal(t, "bring x-rays", *got.Notes)
	assert.True(t, got.ReminderSent)
	assert.Equal(t, domain.StatusNoShow, got.Status)
	assert.True(t, got.StartAt.Equal(local(11, 0)), "time untouched")
	assert.True(t, got.EndAt.Equal(local(11, 30)))
}

func TestExecute_EmptyRequestDoesNotWrite(t *testing.T) {
	f := newFixture(t)

	got, err := f.uc.Execute(context.Background(), &Request{AppointmentID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)
	assert.Zero(t, f.repo.updates)
	assert.Empty(t, f.notifier.calls)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
		want error
		kind apperror.Kind
	}{
		{name: "unknown appointment", req: &Request{AppointmentID: "ghost", Notes: ptr.Ptr("x")}, want: ErrAppointmentNotFound, kind: apperror.KindNotFound},
		{name: "unknown customer", req: &Request{AppointmentID: "a1", CustomerID: ptr.Ptr("ghost")}, want: ErrCustomerNotFound, kind: apperror.KindNotFound},
		{name: "unknown therapist", req: &Request{AppointmentID: "a1", TherapistID: ptr.Ptr("ghost")}, want: ErrTherapistNotFound, kind: apperror.KindNotFound},
		{name: "unknown service", req: &Request{AppointmentID: "a1", ServiceID: ptr.Ptr("ghost")}, want: ErrServiceNotFound, kind: apperror.KindNotFound},
		{name: "bad startAt", req: &Request{AppointmentID: "a1", StartAt: ptr.Ptr("soon")}, want: ErrInvalidStartAt, kind: apperror.KindBadRequest},
		{name: "bad status", req: &Request{AppointmentID: "a1", Status: ptr.Ptr("archived")}, want: ErrInvalidInput, kind: apperror.KindBadRequest},
		{name: "blank therapist", req: &Request{AppointmentID: "a1", TherapistID: ptr.Ptr(" ")}, want: ErrInvalidInput, kind: apperror.KindBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.uc.Execute(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
			assert.Zero(t, f.repo.updates)
		})
	}
}

func TestExecute_StorageGuards(t *testing.T) {
	tests := []struct {
		name       string
		overlapErr error
		updateErr  error
	}{
		{name: "serialization failure on overlap read", overlapErr: fmt.Errorf("%w: FindOverlapping", appointmentRepo.ErrSerialization)},
		{name: "exclusion constraint", updateErr: fmt.Errorf("%w: Update", appointmentRepo.ErrOverlap)},
		{name: "serialization failure on update", updateErr: fmt.Errorf("%w: Update", appointmentRepo.ErrSerialization)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.overlapErr = tt.overlapErr
			f.repo.updateErr = tt.updateErr

			_, err := f.uc.Execute(context.Background(), &Request{
				AppointmentID: "a1", StartAt: ptr.Ptr("2024-03-11T10:15:00"),
			})
			require.ErrorIs(t, err, ErrTimeUnavailable)
			assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
			assert.Equal(t, 1, f.metrics.conflicts)
			assert.Empty(t, f.notifier.calls)
		})
	}
}

func TestExecute_NoDoubleBookingAcrossUpdates(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewSource(7))

	ids := []string{"a1", "a2", "a3"}
	for i := 0; i < 300; i++ {
		req := &Request{AppointmentID: ids[rng.Intn(len(ids))]}
		switch rng.Intn(4) {
		case 0:
			m := 9*60 + 5*rng.Intn(96)
			req.StartAt = ptr.Ptr(local(m/60, m%60).Format(time.RFC3339))
		case 1:
			req.ServiceID = ptr.Ptr([]string{"svc-30", "svc-90"}[rng.Intn(2)])
		case 2:
			req.TherapistID = ptr.Ptr([]string{"T1", "T2"}[rng.Intn(2)])
		default:
			req.Status = ptr.Ptr([]string{"pending", "confirmed", "cancelled", "no_show", "completed"}[rng.Intn(5)])
		}
		_, _ = f.uc.Execute(context.Background(), req)
	}

	byTherapist := map[string][]*domain.Appointment{}
	for _, a := range f.store.appointments {
		if a.IsActive() {
			byTherapist[*a.TherapistID] = append(byTherapist[*a.TherapistID], a)
		}
	}
	for id, list := range byTherapist {
		sort.Slice(list, func(i, j int) bool { return list[i].StartAt.Before(list[j].StartAt) })
		for i := 1; i < len(list); i++ {
			assert.False(t, list[i-1].Overlaps(list[i].StartAt, list[i].EndAt),
				fmt.Sprintf("therapist %s: %s overlaps %s", id, list[i-1].ID, list[i].ID))
		}
	}
}
