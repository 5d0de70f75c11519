package models

import "github.com/m04kA/SMC-AgendaService/internal/domain"

// ScheduleEntry одно рабочее окно недели
type ScheduleEntry struct {
	DayOfWeek string `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	IsActive  *bool  `json:"isActive,omitempty"` // по умолчанию true
}

// ReplaceRequest новое недельное расписание терапевта целиком
type ReplaceRequest struct {
	ActorID     string
	TherapistID string
	Entries     []ScheduleEntry
}

// ScheduleResponse запись расписания в ответе API
type ScheduleResponse struct {
	ID        string `json:"id"`
	DayOfWeek string `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	IsActive  bool   `json:"isActive"`
}

// FromDomainSchedules конвертирует записи, никогда не возвращает nil
func FromDomainSchedules(entries []domain.WeeklySchedule) []ScheduleResponse {
	out := make([]ScheduleResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ScheduleResponse{
			ID:        e.ID,
			DayOfWeek: string(e.DayOfWeek),
			StartTime: string(e.StartTime),
			EndTime:   string(e.EndTime),
			IsActive:  e.IsActive,
		})
	}
	return out
}
