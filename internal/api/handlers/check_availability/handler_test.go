package check_availability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	checkAvailability "github.com/m04kA/SMC-AgendaService/internal/usecase/check_availability"
	"github.com/m04kA/SMC-AgendaService/pkg/logger"
)

type useCaseStub struct {
	got    *checkAvailability.Request
	result *domain.Availability
	err    error
}

func (s *useCaseStub) Execute(_ context.Context, req *checkAvailability.Request) (*domain.Availability, error) {
	s.got = req
	return s.result, s.err
}

func TestHandle_OK(t *testing.T) {
	uc := &useCaseStub{result: &domain.Availability{
		Date:                   "2024-03-11",
		Timezone:               "America/Santiago",
		ServiceID:              "svc-1",
		ServiceDurationMinutes: 30,
		FreeIntervals: []domain.FreeInterval{
			{Start: "09:00", End: "10:00"},
			{Start: "10:45", End: "17:00"},
		},
	}}
	h := NewHandler(uc, logger.Nop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/appointments/availability?serviceId=svc-1&date=2024-03-11&durationMinutes=30&therapistId=t-1", nil)
	h.Handle(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "svc-1", uc.got.ServiceID)
	assert.Equal(t, "2024-03-11", uc.got.Date)
	assert.Equal(t, 30, *uc.got.DurationMinutes)
	assert.Equal(t, "t-1", *uc.got.TherapistID)

	assert.JSONEq(t, `{
		"date": "2024-03-11",
		"timezone": "America/Santiago",
		"serviceId": "svc-1",
		"serviceDurationMinutes": 30,
		"freeIntervals": [{"start": "09:00", "end": "10:00"}, {"start": "10:45", "end": "17:00"}]
	}`, rec.Body.String())
}

func TestHandle_EmptyIntervalsIsArray(t *testing.T) {
	uc := &useCaseStub{result: &domain.Availability{Date: "2024-03-17", ServiceID: "svc-1"}}
	h := NewHandler(uc, logger.Nop())

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/appointments/availability?serviceId=svc-1&date=2024-03-17", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []interface{}{}, body["freeIntervals"])
	assert.Nil(t, uc.got.DurationMinutes)
	assert.Nil(t, uc.got.TherapistID)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "non numeric duration", query: "serviceId=svc-1&date=2024-03-11&durationMinutes=abc", wantStatus: http.StatusBadRequest, wantCode: "bad_request"},
		{name: "unknown service", query: "serviceId=nope&date=2024-03-11", err: checkAvailability.ErrServiceNotFound, wantStatus: http.StatusNotFound, wantCode: "service_not_found"},
		{name: "bad date", query: "serviceId=svc-1&date=tomorrow", err: checkAvailability.ErrInvalidDate, wantStatus: http.StatusBadRequest, wantCode: "invalid_date"},
		{name: "internal", query: "serviceId=svc-1&date=2024-03-11", err: checkAvailability.ErrInternal, wantStatus: http.StatusInternalServerError, wantCode: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&useCaseStub{err: tt.err}, logger.Nop())
			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/appointments/availability?"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}
