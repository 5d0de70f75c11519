package check_availability

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	checkAvailability "github.com/m04kA/SMC-AgendaService/internal/usecase/check_availability"
)

// FreeIntervalResponse свободное окно, HH:MM в часовом поясе клиники
type FreeIntervalResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	Date                   string                 `json:"date"`
	Timezone               string                 `json:"timezone"`
	ServiceID              string                 `json:"serviceId"`
	ServiceDurationMinutes int                    `json:"serviceDurationMinutes"`
	FreeIntervals          []FreeIntervalResponse `json:"freeIntervals"`
}

// ToUseCaseRequest создает запрос use case из query параметров
func ToUseCaseRequest(q url.Values) (*checkAvailability.Request, error) {
	req := &checkAvailability.Request{
		ServiceID: strings.TrimSpace(q.Get("serviceId")),
		Date:      strings.TrimSpace(q.Get("date")),
	}

	if v := strings.TrimSpace(q.Get("durationMinutes")); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("durationMinutes: %w", err)
		}
		req.DurationMinutes = &d
	}
	if v := strings.TrimSpace(q.Get("therapistId")); v != "" {
		req.TherapistID = &v
	}
	return req, nil
}

// FromDomain конвертирует рассчитанную доступность в HTTP response
func FromDomain(a *domain.Availability) *AvailabilityResponse {
	free := make([]FreeIntervalResponse, 0, len(a.FreeIntervals))
	for _, iv := range a.FreeIntervals {
		free = append(free, FreeIntervalResponse{Start: iv.Start.String(), End: iv.End.String()})
	}
	return &AvailabilityResponse{
		Date:                   a.Date,
		Timezone:               a.Timezone,
		ServiceID:              a.ServiceID,
		ServiceDurationMinutes: a.ServiceDurationMinutes,
		FreeIntervals:          free,
	}
}
