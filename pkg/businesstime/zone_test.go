package businesstime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AgendaService/pkg/intervals"
)

func mustZone(t *testing.T, name string) *Zone {
	t.Helper()
	z, err := NewZone(name)
	require.NoError(t, err)
	return z
}

func TestNewZone(t *testing.T) {
	z := mustZone(t, "America/Santiago")
	assert.Equal(t, "America/Santiago", z.Name())

	_, err := NewZone("Mars/Olympus_Mons")
	assert.ErrorIs(t, err, ErrUnknownZone)

	_, err = NewZone("")
	assert.ErrorIs(t, err, ErrUnknownZone)
}

func TestParseFlexibleTimestamp(t *testing.T) {
	z := mustZone(t, "America/New_York")

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "utc designator is absolute",
			input: "2024-03-10T14:00:00Z",
			want:  time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC),
		},
		{
			name:  "numeric offset is absolute",
			input: "2024-03-10T14:00:00+03:00",
			want:  time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC),
		},
		{
			name:  "hour-only offset is absolute",
			input: "2024-03-10T14:00:00+03",
			want:  time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC),
		},
		{
			name:  "hour-only negative offset without seconds",
			input: "2024-03-10T14:00-05",
			want:  time.Date(2024, 3, 10, 19, 0, 0, 0, time.UTC),
		},
		{
			name:  "offset-less is business wall clock (EDT)",
			input: "2024-03-10T14:00:00",
			want:  time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC),
		},
		{
			name:  "offset-less without seconds",
			input: "2024-01-15T09:30",
			want:  time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "date only is local midnight",
			input: "2024-01-15",
			want:  time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := z.ParseFlexibleTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseFlexibleTimestamp_Invalid(t *testing.T) {
	z := mustZone(t, "America/Santiago")

	for _, input := range []string{"", "tomorrow", "2024-13-01T10:00:00", "10:00"} {
		_, err := z.ParseFlexibleTimestamp(input)
		assert.ErrorIs(t, err, ErrInvalidTimestamp, "input %q", input)
	}
}

func TestParseFlexibleTimestamp_DST(t *testing.T) {
	z := mustZone(t, "America/New_York")

	// 2024-03-10 02:30 в Нью-Йорке не существует, сдвигается на 03:30 EDT
	got, err := z.ParseFlexibleTimestamp("2024-03-10T02:30:00")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 10, 7, 30, 0, 0, time.UTC).Equal(got), "got %s", got)

	// 2024-11-03 01:30 наступает дважды, берется более ранний момент (EDT)
	got, err = z.ParseFlexibleTimestamp("2024-11-03T01:30:00")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 11, 3, 5, 30, 0, 0, time.UTC).Equal(got), "got %s", got)
}

func TestLocalDayBoundsUTC(t *testing.T) {
	z := mustZone(t, "America/New_York")

	start, end, err := z.LocalDayBoundsUTC("2024-01-15")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC).Equal(start))
	assert.True(t, time.Date(2024, 1, 16, 5, 0, 0, 0, time.UTC).Equal(end))

	// день перевода часов вперед длится 23 часа
	start, end, err = z.LocalDayBoundsUTC("2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, 23*time.Hour, end.Sub(start))

	_, _, err = z.LocalDayBoundsUTC("2024-02-30")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDayBoundsRoundTrip(t *testing.T) {
	for _, name := range []string{"America/Santiago", "Europe/Moscow", "UTC", "Asia/Kolkata"} {
		z := mustZone(t, name)
		for _, date := range []string{"2024-01-15", "2024-06-20", "2024-10-01"} {
			start, end, err := z.LocalDayBoundsUTC(date)
			require.NoError(t, err)
			assert.Equal(t, 0, z.MinutesSinceLocalMidnight(start), "%s %s", name, date)
			assert.Equal(t, 1439, z.MinutesSinceLocalMidnight(end.Add(-time.Minute)), "%s %s", name, date)
			assert.Equal(t, date, z.LocalDate(start))
		}
	}
}

func TestMinutesSinceLocalMidnight_IgnoresServerZone(t *testing.T) {
	z := mustZone(t, "America/Santiago")
	// 22:00 при UTC+9 это 13:00Z, то есть 10:00 в Сантьяго (UTC-3 в январе)
	instant := time.Date(2024, 1, 15, 22, 0, 0, 0, time.FixedZone("server", 9*3600))
	assert.Equal(t, 600, z.MinutesSinceLocalMidnight(instant))
	assert.Equal(t, "2024-01-15", z.LocalDate(instant))
	assert.Equal(t, time.Monday, z.Weekday(instant))
}

func TestParseDate(t *testing.T) {
	z := mustZone(t, "America/Santiago")

	got, err := z.ParseDate("2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", got)

	got, err = z.ParseDate("2024-03-10T02:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09", got, "02:00Z is the previous evening in Santiago")

	_, err = z.ParseDate("03/10/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDayBounds(t *testing.T) {
	b, err := ParseDayBounds("08:30", "21:00")
	require.NoError(t, err)
	assert.Equal(t, DayBounds{StartMinute: 510, EndMinute: 1260}, b)
	assert.Equal(t, "08:30-21:00", b.String())

	got, ok := b.Clamp(intervals.Interval{Start: 480, End: 1080})
	require.True(t, ok)
	assert.Equal(t, intervals.Interval{Start: 510, End: 1080}, got)

	_, err = ParseDayBounds("21:00", "08:30")
	assert.ErrorIs(t, err, ErrInvalidDayBounds)

	_, err = ParseDayBounds("8:30", "21:00")
	assert.ErrorIs(t, err, ErrInvalidDayBounds)
}
