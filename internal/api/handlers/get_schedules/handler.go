package get_schedules

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
)

const msgInvalidIncludeInactive = "includeInactive must be true or false"

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/therapists/{therapistId}/schedules
// Query params: includeInactive (опционально, по умолчанию false)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	therapistID := mux.Vars(r)["therapistId"]

	includeInactive := false
	if v := r.URL.Query().Get("includeInactive"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			h.logger.Warn("GET /therapists/{id}/schedules - Invalid includeInactive: %q", v)
			handlers.RespondBadRequest(w, msgInvalidIncludeInactive)
			return
		}
		includeInactive = parsed
	}

	result, err := h.service.GetSchedules(r.Context(), therapistID, includeInactive)
	if err != nil {
		if handlers.IsInternal(err) {
			h.logger.Error("GET /therapists/{id}/schedules - Failed to get schedules: therapist_id=%s, error=%v", therapistID, err)
		} else {
			h.logger.Warn("GET /therapists/{id}/schedules - Therapist not found: therapist_id=%s", therapistID)
		}
		handlers.RespondAppError(w, err)
		return
	}

	h.logger.Info("GET /therapists/{id}/schedules - Schedules retrieved: therapist_id=%s, count=%d", therapistID, len(result))
	handlers.RespondJSON(w, http.StatusOK, result)
}
