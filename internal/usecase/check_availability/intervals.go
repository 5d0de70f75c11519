package check_availability

import (
	"fmt"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/pkg/businesstime"
	"github.com/m04kA/SMC-AgendaService/pkg/intervals"
	"github.com/m04kA/SMC-AgendaService/pkg/types"
)

// freeMinutes считает свободное время терапевта на локальную дату:
// рабочее окно в границах дня минус занятое время, остаются отрезки >= duration.
func freeMinutes(
	therapist *domain.Therapist,
	day domain.DayOfWeek,
	date string,
	booked []*domain.Appointment,
	zone *businesstime.Zone,
	bounds businesstime.DayBounds,
	duration int,
) ([]intervals.Interval, error) {
	schedule := therapist.ScheduleFor(day)
	if schedule == nil {
		return nil, nil
	}

	working, err := schedule.Interval()
	if err != nil {
		return nil, fmt.Errorf("therapist=%s schedule %s: %w", therapist.ID, day, err)
	}
	working, ok := bounds.Clamp(working)
	if !ok {
		return nil, nil
	}

	busy := make([]intervals.Interval, 0, len(booked))
	for _, a := range booked {
		if !a.IsActive() {
			continue
		}
		if iv, ok := busyInterval(a, date, zone); ok {
			busy = append(busy, iv)
		}
	}

	free := intervals.Subtract([]intervals.Interval{working}, intervals.Merge(busy))
	return intervals.FilterByDuration(free, duration), nil
}

// busyInterval переводит запись в локальные минуты. Записи
// должны укладываться в один локальный день, край, выходящий в
// соседний день, обрезается по полуночи.
func busyInterval(a *domain.Appointment, date string, zone *businesstime.Zone) (intervals.Interval, bool) {
	start := zone.MinutesSinceLocalMidnight(a.StartAt)
	if zone.LocalDate(a.StartAt) < date {
		start = 0
	}
	end := zone.MinutesSinceLocalMidnight(a.EndAt)
	if zone.LocalDate(a.EndAt) > date {
		end = types.MinutesPerDay
	}

	iv := intervals.Interval{Start: start, End: end}
	return iv, !iv.IsEmpty()
}

func toFreeIntervals(in []intervals.Interval) ([]domain.FreeInterval, error) {
	out := make([]domain.FreeInterval, 0, len(in))
	for _, iv := range in {
		start, err := types.FromMinutes(iv.Start)
		if err != nil {
			return nil, err
		}
		end, err := types.FromMinutes(iv.End)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.FreeInterval{Start: start, End: end})
	}
	return out, nil
}
