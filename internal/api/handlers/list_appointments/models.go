package list_appointments

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/m04kA/SMC-AgendaService/internal/service/appointments/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров
func ToServiceRequest(q url.Values) (*models.ListRequest, error) {
	req := &models.ListRequest{
		TherapistID: optional(q, "therapistId"),
		CustomerID:  optional(q, "customerId"),
		Status:      optional(q, "status"),
		StartDate:   optional(q, "startDate"),
		EndDate:     optional(q, "endDate"),
	}

	var err error
	if req.Page, err = optionalInt(q, "page"); err != nil {
		return nil, err
	}
	if req.PageSize, err = optionalInt(q, "pageSize"); err != nil {
		return nil, err
	}
	return req, nil
}

func optional(q url.Values, key string) *string {
	if v := q.Get(key); v != "" {
		return &v
	}
	return nil
}

func optionalInt(q url.Values, key string) (int, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}
