// Package businesstime переводит абсолютные моменты времени в местное время
// часового пояса клиники и обратно. Пояс всегда передается явно, локальный
// часовой пояс сервера не используется.
//
// Timestamp без смещения читается как местное время клиники. При переводе
// часов действуют правила:
//   - неоднозначное время (часы переводят назад): берется более ранний момент;
//   - несуществующее время (часы переводят вперед): время сдвигается
//     вперед на длину разрыва, то есть читается со смещением, действовавшим
//     до перевода.
package businesstime

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/m04kA/SMC-AgendaService/pkg/types"
)

// DateFormat формат календарной даты в API
const DateFormat = "2006-01-02"

var (
	// ErrInvalidTimestamp возвращается для значений не в формате ISO-8601
	ErrInvalidTimestamp = errors.New("businesstime: invalid timestamp")

	// ErrInvalidDate возвращается для дат не в формате YYYY-MM-DD
	ErrInvalidDate = errors.New("businesstime: invalid date")

	// ErrUnknownZone возвращается, когда IANA пояс не удалось загрузить
	ErrUnknownZone = errors.New("businesstime: unknown timezone")
)

// absoluteLayouts форматы с явным смещением
var absoluteLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04Z07",
}

// wallClockLayouts читаются в поясе клиники
var wallClockLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	DateFormat,
}

// Zone часовой пояс клиники
type Zone struct {
	name string
	loc  *time.Location
}

// NewZone загружает IANA пояс, например "America/Santiago"
func NewZone(name string) (*Zone, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownZone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnknownZone, name, err)
	}
	return &Zone{name: name, loc: loc}, nil
}

// NewZoneFromLocation оборачивает уже загруженный location
func NewZoneFromLocation(loc *time.Location) *Zone {
	return &Zone{name: loc.String(), loc: loc}
}

// Name возвращает IANA имя пояса
func (z *Zone) Name() string {
	return z.name
}

// Location возвращает исходный *time.Location
func (z *Zone) Location() *time.Location {
	return z.loc
}

// ParseFlexibleTimestamp разбирает ISO-8601 timestamp. Значение с явным
// смещением ("Z", "+03:00", "+03") абсолютное, остальные читаются как местное время
// клиники. Результат в UTC.
func (z *Zone) ParseFlexibleTimestamp(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTimestamp)
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), nil
		}
	}

	for _, layout := range wallClockLayouts {
		t, err := time.Parse(layout, text)
		if err != nil {
			continue
		}
		return z.resolveWallClock(t).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, text)
}

// ParseDate валидирует дату YYYY-MM-DD и возвращает ее нормализованной.
// Полный timestamp тоже принимается и сводится к локальной дате.
func (z *Zone) ParseDate(text string) (string, error) {
	text = strings.TrimSpace(text)
	if d, err := time.Parse(DateFormat, text); err == nil {
		return d.Format(DateFormat), nil
	}
	t, err := z.ParseFlexibleTimestamp(text)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, text)
	}
	return z.LocalDate(t), nil
}

// LocalDayBoundsUTC возвращает UTC моменты начала локального дня и
// начала следующего локального дня.
func (z *Zone) LocalDayBoundsUTC(date string) (start, end time.Time, err error) {
	d, err := time.Parse(DateFormat, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	start = z.resolveWallClock(d).UTC()
	end = z.resolveWallClock(d.AddDate(0, 0, 1)).UTC()
	return start, end, nil
}

// MinutesSinceLocalMidnight возвращает минуту суток t в поясе
// клиники, в диапазоне [0, 1439].
func (z *Zone) MinutesSinceLocalMidnight(t time.Time) int {
	local := t.In(z.loc)
	return local.Hour()*60 + local.Minute()
}

// LocalDate возвращает дату t в поясе клиники в формате YYYY-MM-DD
func (z *Zone) LocalDate(t time.Time) string {
	return t.In(z.loc).Format(DateFormat)
}

// Weekday возвращает день недели t в поясе клиники
func (z *Zone) Weekday(t time.Time) time.Weekday {
	return t.In(z.loc).Weekday()
}

// FormatMinutes форматирует минуты от полуночи как "HH:MM"
func FormatMinutes(m int) string {
	ts, err := types.FromMinutes(m)
	if err != nil {
		return ""
	}
	return ts.String()
}

// resolveWallClock переводит поля времени w (location игнорируется) в
// момент в поясе клиники по правилам перевода часов из описания пакета.
func (z *Zone) resolveWallClock(w time.Time) time.Time {
	naive := time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), time.UTC)

	_, offBefore := naive.Add(-24 * time.Hour).In(z.loc).Zone()
	_, offAfter := naive.Add(24 * time.Hour).In(z.loc).Zone()

	early := naive.Add(-time.Duration(max(offBefore, offAfter)) * time.Second)
	late := naive.Add(-time.Duration(min(offBefore, offAfter)) * time.Second)

	switch {
	case matchesWallClock(early, naive, z.loc):
		return early
	case matchesWallClock(late, naive, z.loc):
		return late
	default:
		// разрыв: читаем со смещением до перевода
		return naive.Add(-time.Duration(offBefore) * time.Second)
	}
}

func matchesWallClock(candidate, naive time.Time, loc *time.Location) bool {
	local := candidate.In(loc)
	return local.Year() == naive.Year() &&
		local.Month() == naive.Month() &&
		local.Day() == naive.Day() &&
		local.Hour() == naive.Hour() &&
		local.Minute() == naive.Minute() &&
		local.Second() == naive.Second()
}
