package domain

import "github.com/m04kA/SMC-AgendaService/pkg/types"

// FreeInterval свободное окно в местном времени клиники
type FreeInterval struct {
	Start types.TimeString
	End   types.TimeString
}

// Availability свободное время одного локального дня для услуги
type Availability struct {
	Date                   string
	Timezone               string
	ServiceID              string
	ServiceDurationMinutes int
	FreeIntervals          []FreeInterval
}
