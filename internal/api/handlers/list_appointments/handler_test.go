package list_appointments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AgendaService/internal/service/appointments"
	"github.com/m04kA/SMC-AgendaService/internal/service/appointments/models"
	"github.com/m04kA/SMC-AgendaService/pkg/logger"
)

type serviceStub struct {
	got    *models.ListRequest
	result *models.AppointmentListResponse
	err    error
}

func (s *serviceStub) List(_ context.Context, req *models.ListRequest) (*models.AppointmentListResponse, error) {
	s.got = req
	return s.result, s.err
}

func TestHandle_PassesFilters(t *testing.T) {
	start := time.Date(2024, 3, 11, 13, 0, 0, 0, time.UTC)
	svc := &serviceStub{result: &models.AppointmentListResponse{
		Items: []models.AppointmentResponse{{
			ID: "a1", CustomerID: "c1", ServiceID: "s1", Status: "pending",
			StartAt: start, EndAt: start.Add(time.Hour), CreatedAt: start, UpdatedAt: start,
		}},
		Page:     2,
		PageSize: 10,
		Total:    11,
	}}
	h := NewHandler(svc, logger.Nop())

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/appointments?therapistId=t1&status=pending&startDate=2024-03-11&endDate=2024-03-12&page=2&pageSize=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t1", *svc.got.TherapistID)
	assert.Nil(t, svc.got.CustomerID)
	assert.Equal(t, "pending", *svc.got.Status)
	assert.Equal(t, "2024-03-11", *svc.got.StartDate)
	assert.Equal(t, "2024-03-12", *svc.got.EndDate)
	assert.Equal(t, 2, svc.got.Page)
	assert.Equal(t, 10, svc.got.PageSize)

	assert.Contains(t, rec.Body.String(), `"total":11`)
	assert.Contains(t, rec.Body.String(), `"startAt":"2024-03-11T13:00:00Z"`)
}

func TestHandle_InvalidPage(t *testing.T) {
	for _, q := range []string{"page=abc", "page=0", "pageSize=-5"} {
		svc := &serviceStub{}
		h := NewHandler(svc, logger.Nop())
		rec := httptest.NewRecorder()
		h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/appointments?"+q, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Nil(t, svc.got, q)
	}
}

func TestHandle_ServiceErrors(t *testing.T) {
	h := NewHandler(&serviceStub{err: appointments.ErrInvalidStatus}, logger.Nop())
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/appointments?status=archived", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"invalid_status"`)

	h = NewHandler(&serviceStub{err: appointments.ErrInternal}, logger.Nop())
	rec = httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
