package find_therapist

import "time"

// Request слот, для которого ищется терапевт
type Request struct {
	ServiceID string
	StartAt   time.Time // UTC
	EndAt     time.Time // UTC
}
