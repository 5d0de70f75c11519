package check_availability

import "strings"

func validateRequest(req *Request) error {
	if strings.TrimSpace(req.ServiceID) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(req.Date) == "" {
		return ErrInvalidDate
	}
	if req.DurationMinutes != nil && *req.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	return nil
}
