package update_appointment

// Request частичное обновление. nil поля не меняются
type Request struct {
	ActorID       string
	AppointmentID string

	CustomerID   *string
	TherapistID  *string
	ServiceID    *string
	StartAt      *string // ISO-8601, без смещения читается как местное время клиники
	Status       *string
	Notes        *string
	ReminderSent *bool
}

func (r *Request) isEmpty() bool {
	return r.CustomerID == nil && r.TherapistID == nil && r.ServiceID == nil &&
		r.StartAt == nil && r.Status == nil && r.Notes == nil && r.ReminderSent == nil
}
