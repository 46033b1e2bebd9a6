package timeconv_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/timeconv"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, time.March, 10, hour, minute, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestLoadZone_Rejects(t *testing.T) {
	for _, zone := range []string{"", "Local", "Mars/Olympus"} {
		_, err := timeconv.LoadZone(zone)
		require.ErrorIs(t, err, domain.ErrInvalidTimeZone, zone)

		var zoneErr *domain.InvalidTimeZoneError
		require.ErrorAs(t, err, &zoneErr)
		assert.Equal(t, zone, zoneErr.Zone)
	}
}

func TestWallInstantRoundTrip(t *testing.T) {
	instant := time.Date(2025, time.July, 1, 6, 30, 0, 0, time.UTC)

	wall, err := timeconv.WallFromInstant(instant, "Europe/Moscow")
	require.NoError(t, err)
	assert.Equal(t, "2025-07-01T09:30:00", wall.String())

	back, err := timeconv.InstantFromWall(wall, "Europe/Moscow")
	require.NoError(t, err)
	assert.True(t, back.Equal(instant))
}

func TestWallFromInstant_CrossesDateLine(t *testing.T) {
	instant := time.Date(2025, time.July, 1, 22, 0, 0, 0, time.UTC)

	wall, err := timeconv.WallFromInstant(instant, "Asia/Shanghai")
	require.NoError(t, err)
	assert.Equal(t, domain.NewLocalDate(2025, time.July, 2), wall.Date)
	assert.Equal(t, 6, wall.Clock.Hour)
}

func TestInstantFromWallString_DiscardsEmbeddedOffset(t *testing.T) {
	got, err := timeconv.InstantFromWallString("2025-03-10T09:00:00+05:00", "Asia/Shanghai")
	require.NoError(t, err)

	want := time.Date(2025, time.March, 10, 1, 0, 0, 0, time.UTC)
	assert.True(t, got.Equal(want), "got %s", got.UTC())

	got, err = timeconv.InstantFromWallString("2025-03-10 09:00", "Asia/Shanghai")
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	_, err = timeconv.InstantFromWallString("not a time", "Asia/Shanghai")
	assert.ErrorIs(t, err, domain.ErrInvalidTime)

	_, err = timeconv.InstantFromWallString("2025-03-10 09:00", "Nowhere/Atlantis")
	assert.ErrorIs(t, err, domain.ErrInvalidTimeZone)
}

func TestPeriodsIntersect(t *testing.T) {
	tests := []struct {
		name string
		p1   domain.Interval
		p2   domain.Interval
		want bool
	}{
		{"overlapping", timeconv.Span(at(9, 0), at(13, 0)), timeconv.Span(at(12, 0), at(16, 0)), true},
		{"contained", timeconv.Span(at(9, 0), at(17, 0)), timeconv.Span(at(10, 0), at(11, 0)), true},
		{"disjoint", timeconv.Span(at(9, 0), at(10, 0)), timeconv.Span(at(11, 0), at(12, 0)), false},
		{"back to back", timeconv.Span(at(9, 0), at(13, 0)), timeconv.Span(at(13, 0), at(17, 0)), false},
		{"identical", timeconv.Span(at(9, 0), at(13, 0)), timeconv.Span(at(9, 0), at(13, 0)), true},
		{"open end", domain.Interval{From: ptr(at(9, 0))}, timeconv.Span(at(20, 0), at(21, 0)), true},
		{"open start before", domain.Interval{To: ptr(at(8, 0))}, timeconv.Span(at(9, 0), at(10, 0)), false},
		{"fully open", domain.Interval{}, timeconv.Span(at(9, 0), at(10, 0)), true},
		{"reversed is malformed", timeconv.Span(at(13, 0), at(9, 0)), timeconv.Span(at(10, 0), at(11, 0)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timeconv.PeriodsIntersect(tt.p1, tt.p2))
			assert.Equal(t, tt.want, timeconv.PeriodsIntersect(tt.p2, tt.p1), "symmetry")
		})
	}
}

func TestPeriodContains(t *testing.T) {
	day := timeconv.Span(at(0, 0), at(23, 59))

	assert.True(t, timeconv.PeriodContains(day, timeconv.Span(at(9, 0), at(17, 0))))
	assert.True(t, timeconv.PeriodContains(day, day))
	assert.False(t, timeconv.PeriodContains(timeconv.Span(at(9, 0), at(17, 0)), day))
	assert.True(t, timeconv.PeriodContains(domain.Interval{}, day))
	assert.True(t, timeconv.PeriodContains(domain.Interval{From: ptr(at(8, 0))}, timeconv.Span(at(9, 0), at(23, 0))))
	assert.False(t, timeconv.PeriodContains(day, domain.Interval{From: ptr(at(9, 0))}))
}

func TestMonthPeriod(t *testing.T) {
	p, err := timeconv.MonthPeriod("2024-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", p.From.String())
	assert.Equal(t, "2024-02-29", p.To.String())
	assert.Len(t, p.Days(), 29)

	p, err = timeconv.MonthPeriod("2025-12")
	require.NoError(t, err)
	assert.Equal(t, "2025-12-31", p.To.String())

	for _, code := range []string{"2025-13", "2025-3", "202503", "march"} {
		_, err := timeconv.MonthPeriod(code)
		assert.ErrorIs(t, err, domain.ErrInvalidMonthCode, code)
	}
}

func TestPeriodValidate(t *testing.T) {
	from := domain.NewLocalDate(2025, time.March, 10)
	assert.NoError(t, timeconv.Period{From: from, To: from}.Validate())
	assert.ErrorIs(t, timeconv.Period{From: from, To: from.AddDays(-1)}.Validate(), domain.ErrInvalidPeriod)
	assert.Empty(t, timeconv.DatesBetween(from, from.AddDays(-1)))
}

func TestParseLocalDateAndTime(t *testing.T) {
	d, err := timeconv.ParseLocalDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, -9, domain.NewLocalDate(2025, time.March, 1).DaysSince(d))

	_, err = timeconv.ParseLocalDate("10.03.2025")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	tm, err := timeconv.ParseLocalTime("07:45")
	require.NoError(t, err)
	assert.Equal(t, domain.LocalTime{Hour: 7, Minute: 45}, tm)

	_, err = timeconv.ParseLocalTime("25:00")
	assert.ErrorIs(t, err, domain.ErrInvalidTime)
}
