package check_availability

import (
	"net/http"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
)

const msgInvalidDuration = "durationMinutes must be an integer"

type Handler struct {
	useCase CheckAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase CheckAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/appointments/availability
// Query params: serviceId, date, durationMinutes (опционально), therapistId (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := ToUseCaseRequest(r.URL.Query())
	if err != nil {
		h.logger.Warn("GET /appointments/availability - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDuration)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req)
	if err != nil {
		if handlers.IsInternal(err) {
			h.logger.Error("GET /appointments/availability - Failed to compute availability: service_id=%s, date=%s, error=%v",
				req.ServiceID, req.Date, err)
		} else {
			h.logger.Warn("GET /appointments/availability - Rejected: service_id=%s, date=%s, reason=%v",
				req.ServiceID, req.Date, err)
		}
		handlers.RespondAppError(w, err)
		return
	}

	h.logger.Info("GET /appointments/availability - Availability computed: service_id=%s, date=%s, intervals=%d",
		req.ServiceID, result.Date, len(result.FreeIntervals))
	handlers.RespondJSON(w, http.StatusOK, FromDomain(result))
}
