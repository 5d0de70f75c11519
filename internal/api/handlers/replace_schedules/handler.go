package replace_schedules

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	"github.com/m04kA/SMC-AgendaService/internal/api/middleware"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgMissingUserID      = "missing user id"
)

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

// Handle PUT /api/v1/therapists/{therapistId}/schedules
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	therapistID := mux.Vars(r)["therapistId"]

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PUT /therapists/{id}/schedules - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req ReplaceSchedulesRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /therapists/{id}/schedules - Invalid request body: therapist_id=%s, error=%v", therapistID, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.ReplaceSchedules(r.Context(), req.ToServiceRequest(userID, therapistID))
	if err != nil {
		if handlers.IsInternal(err) {
			h.logger.Error("PUT /therapists/{id}/schedules - Failed to replace schedules: therapist_id=%s, error=%v", therapistID, err)
		} else {
			h.logger.Warn("PUT /therapists/{id}/schedules - Rejected: therapist_id=%s, reason=%v", therapistID, err)
		}
		handlers.RespondAppError(w, err)
		return
	}

	h.logger.Info("PUT /therapists/{id}/schedules - Schedules replaced: therapist_id=%s, count=%d, user_id=%s",
		therapistID, len(result), userID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
