package businesstime

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AgendaService/pkg/intervals"
	"github.com/m04kA/SMC-AgendaService/pkg/types"
)

// ErrInvalidDayBounds возвращается, когда время открытия не раньше времени закрытия
var ErrInvalidDayBounds = errors.New("businesstime: invalid business day bounds")

// DayBounds общие часы работы, ограничивающие каждый рабочий интервал,
// например 08:30-21:00.
type DayBounds struct {
	StartMinute int
	EndMinute   int
}

// ParseDayBounds собирает DayBounds из двух значений "HH:MM"
func ParseDayBounds(start, end string) (DayBounds, error) {
	s, err := types.TimeString(start).Minutes()
	if err != nil {
		return DayBounds{}, fmt.Errorf("%w: start: %v", ErrInvalidDayBounds, err)
	}
	e, err := types.TimeString(end).Minutes()
	if err != nil {
		return DayBounds{}, fmt.Errorf("%w: end: %v", ErrInvalidDayBounds, err)
	}
	if s >= e {
		return DayBounds{}, fmt.Errorf("%w: %s >= %s", ErrInvalidDayBounds, start, end)
	}
	return DayBounds{StartMinute: s, EndMinute: e}, nil
}

// Clamp пересекает рабочий интервал с часами работы
func (b DayBounds) Clamp(i intervals.Interval) (intervals.Interval, bool) {
	return intervals.Clamp(i, b.StartMinute, b.EndMinute)
}

func (b DayBounds) String() string {
	return FormatMinutes(b.StartMinute) + "-" + FormatMinutes(b.EndMinute)
}
