package get_schedules

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-AgendaService/internal/service/schedules"
	"github.com/m04kA/SMC-AgendaService/internal/service/schedules/models"
	"github.com/m04kA/SMC-AgendaService/pkg/logger"
)

type serviceStub struct {
	includeInactive bool
	calls           int
}

func (s *serviceStub) GetSchedules(_ context.Context, therapistID string, includeInactive bool) ([]models.ScheduleResponse, error) {
	s.calls++
	s.includeInactive = includeInactive
	if therapistID != "t1" {
		return nil, schedules.ErrTherapistNotFound
	}
	return []models.ScheduleResponse{{ID: "s1", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "17:00", IsActive: true}}, nil
}

func get(h *Handler, path string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/therapists/{therapistId}/schedules", h.Handle).Methods(http.MethodGet)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandle(t *testing.T) {
	svc := &serviceStub{}
	h := NewHandler(svc, logger.Nop())

	rec := get(h, "/api/v1/therapists/t1/schedules?includeInactive=true")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.includeInactive)
	assert.JSONEq(t, `[{"id":"s1","dayOfWeek":"MONDAY","startTime":"09:00","endTime":"17:00","isActive":true}]`, rec.Body.String())

	rec = get(h, "/api/v1/therapists/t1/schedules")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.includeInactive)

	rec = get(h, "/api/v1/therapists/ghost/schedules")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"therapist_not_found"`)
}

func TestHandle_InvalidFlag(t *testing.T) {
	svc := &serviceStub{}
	rec := get(NewHandler(svc, logger.Nop()), "/api/v1/therapists/t1/schedules?includeInactive=maybe")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.calls)
}
