package replace_schedules

import "github.com/m04kA/SMC-AgendaService/internal/service/schedules/models"

// ReplaceSchedulesRequest HTTP request model. Список заменяет всё
// недельное расписание, пустой список его очищает.
type ReplaceSchedulesRequest struct {
	Schedules []models.ScheduleEntry `json:"schedules"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *ReplaceSchedulesRequest) ToServiceRequest(actorID, therapistID string) *models.ReplaceRequest {
	return &models.ReplaceRequest{
		ActorID:     actorID,
		TherapistID: therapistID,
		Entries:     r.Schedules,
	}
}
