package list_appointments

import (
	"net/http"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
)

const msgInvalidPagination = "page and pageSize must be positive integers"

type Handler struct {
	service AppointmentService
	logger  Logger
}

func NewHandler(service AppointmentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/appointments
// Query params: therapistId, customerId, status, startDate, endDate, page, pageSize (все опциональны)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := ToServiceRequest(r.URL.Query())
	if err != nil {
		h.logger.Warn("GET /appointments - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPagination)
		return
	}

	result, err := h.service.List(r.Context(), req)
	if err != nil {
		if handlers.IsInternal(err) {
			h.logger.Error("GET /appointments - Failed to list appointments: error=%v", err)
		} else {
			h.logger.Warn("GET /appointments - Rejected: %v", err)
		}
		handlers.RespondAppError(w, err)
		return
	}

	h.logger.Info("GET /appointments - Appointments retrieved: count=%d, total=%d", len(result.Items), result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
