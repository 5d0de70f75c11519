package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AgendaService/pkg/intervals"
	"github.com/m04kA/SMC-AgendaService/pkg/types"
)

// DayOfWeek день недели в записи расписания
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
	Sunday    DayOfWeek = "SUNDAY"
)

var weekdays = map[time.Weekday]DayOfWeek{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// DayOfWeekFromWeekday конвертирует time.Weekday
func DayOfWeekFromWeekday(w time.Weekday) DayOfWeek {
	return weekdays[w]
}

// ParseDayOfWeek принимает любой регистр
func ParseDayOfWeek(s string) (DayOfWeek, error) {
	d := DayOfWeek(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range weekdays {
		if known == d {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown day of week %q", s)
}

// WeeklySchedule повторяющееся рабочее окно терапевта
type WeeklySchedule struct {
	ID          string
	TherapistID string
	DayOfWeek   DayOfWeek
	StartTime   types.TimeString
	EndTime     types.TimeString
	IsActive    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Interval переводит запись в минуты от полуночи
func (s *WeeklySchedule) Interval() (intervals.Interval, error) {
	start, err := s.StartTime.Minutes()
	if err != nil {
		return intervals.Interval{}, err
	}
	end, err := s.EndTime.Minutes()
	if err != nil {
		return intervals.Interval{}, err
	}
	return intervals.Interval{Start: start, End: end}, nil
}

// Therapist специалист, которого можно назначить на запись
type Therapist struct {
	ID         string
	Name       string
	LastName   string
	Email      *string
	Phone      *string
	IsActive   bool
	ServiceIDs []string
	Schedules  []WeeklySchedule

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScheduleFor возвращает первую активную запись расписания на день или nil,
// если терапевт в этот день не работает
func (t *Therapist) ScheduleFor(day DayOfWeek) *WeeklySchedule {
	for i := range t.Schedules {
		if t.Schedules[i].IsActive && t.Schedules[i].DayOfWeek == day {
			return &t.Schedules[i]
		}
	}
	return nil
}

// IsQualifiedFor сообщает, оказывает ли терапевт услугу
func (t *Therapist) IsQualifiedFor(serviceID string) bool {
	for _, id := range t.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}
