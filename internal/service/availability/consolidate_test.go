package availability

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidate_MergesOverlapping(t *testing.T) {
	slots, err := Consolidate([][2]string{{"09:00", "10:00"}, {"09:30", "11:00"}})
	require.NoError(t, err)
	assert.Equal(t, []Slot{{Start: "09:00", End: "11:00"}}, slots)
}

func TestConsolidate_MergesAdjacentAndSorts(t *testing.T) {
	slots, err := Consolidate([][2]string{
		{"14:00", "15:00"},
		{"8:00", "9:00"},
		{"09:00", "10:30"},
		{"13:00", "14:00"},
		{"10:00", "10:15"},
	})
	require.NoError(t, err)
	assert.Equal(t, []Slot{
		{Start: "08:00", End: "10:30"},
		{Start: "13:00", End: "15:00"},
	}, slots)
}

func TestConsolidate_ContainedSlot(t *testing.T) {
	slots, err := Consolidate([][2]string{{"09:00", "17:00"}, {"12:00", "13:00"}})
	require.NoError(t, err)
	assert.Equal(t, []Slot{{Start: "09:00", End: "17:00"}}, slots)
}

func TestConsolidate_Empty(t *testing.T) {
	slots, err := Consolidate(nil)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestConsolidate_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"reversed":   {"11:00", "10:00"},
		"empty":      {"10:00", "10:00"},
		"bad hour":   {"25:00", "26:00"},
		"bad minute": {"10:60", "11:00"},
		"no colon":   {"1000", "1100"},
		"garbage":    {"ab:cd", "11:00"},
	}
	for name, pair := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Consolidate([][2]string{pair})
			assert.ErrorIs(t, err, app_errors.ErrInvalidTimeSlot)
		})
	}
}

func TestParseClock_EndOfDay(t *testing.T) {
	m, err := ParseClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, 24*60, m)

	_, err = ParseClock("24:30")
	assert.Error(t, err)
}

func TestWeek_SevenDaysFromSunday(t *testing.T) {
	// Thursday
	now := time.Date(2026, time.October, 15, 13, 45, 0, 0, time.UTC)
	avail := models.WeeklyAvailability{
		"Monday":  {{"09:00", "10:00"}, {"09:30", "11:00"}},
		"wed":     {{"18:00", "20:00"}},
		"FRIDAY":  {{"12:00", "13:00"}, {"13:00", "14:00"}},
		"tuesday": {},
	}

	week, err := Week(avail, now)
	require.NoError(t, err)
	require.Len(t, week, 7)

	assert.Equal(t, "2026-10-11", week[0].Date)
	assert.Equal(t, "Sunday", week[0].Weekday)
	assert.Equal(t, "2026-10-17", week[6].Date)

	assert.False(t, week[0].Available)
	assert.Equal(t, NotAvailable, week[0].Label)

	assert.True(t, week[1].Available)
	assert.Equal(t, []Slot{{Start: "09:00", End: "11:00"}}, week[1].Slots)

	assert.False(t, week[2].Available, "tuesday has no slots")
	assert.Equal(t, NotAvailable, week[2].Label)

	assert.Equal(t, []Slot{{Start: "18:00", End: "20:00"}}, week[3].Slots)
	assert.False(t, week[4].Available)
	assert.Equal(t, []Slot{{Start: "12:00", End: "14:00"}}, week[5].Slots)
	assert.False(t, week[6].Available)
}

func TestWeek_UnknownWeekday(t *testing.T) {
	_, err := Week(models.WeeklyAvailability{"someday": {{"09:00", "10:00"}}}, time.Now())
	assert.ErrorIs(t, err, app_errors.ErrInvalidTimeSlot)
}

func TestStartOfWeek_OnSunday(t *testing.T) {
	sunday := time.Date(2026, time.October, 18, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC), StartOfWeek(sunday))
}

func TestEvents(t *testing.T) {
	now := time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)
	week, err := Week(models.WeeklyAvailability{"monday": {{"09:00", "10:00"}, {"14:00", "15:30"}}}, now)
	require.NoError(t, err)

	events := Events(week, time.UTC, "Calculus tutoring")
	require.Len(t, events, 2)
	assert.Equal(t, time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC), events[0].Start)
	assert.Equal(t, time.Date(2026, time.October, 12, 15, 30, 0, 0, time.UTC), events[1].End)
	assert.Equal(t, "Calculus tutoring", events[1].Title)
}

func TestNormalize(t *testing.T) {
	out, err := Normalize(models.WeeklyAvailability{
		"Mon":    {{"10:00", "11:00"}, {"09:00", "10:00"}},
		"monday": {{"16:00", "17:00"}},
		"sunday": {},
	})
	require.NoError(t, err)
	assert.Equal(t, models.WeeklyAvailability{
		"monday": {{"09:00", "11:00"}, {"16:00", "17:00"}},
	}, out)
}

func TestCovers(t *testing.T) {
	avail := models.WeeklyAvailability{"monday": {{"09:00", "10:00"}, {"10:00", "12:00"}}}
	monday := time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC)

	ok, err := Covers(avail, monday.Add(9*time.Hour+30*time.Minute), monday.Add(11*time.Hour+30*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok, "booking spanning merged slots is covered")

	ok, err = Covers(avail, monday.Add(11*time.Hour+30*time.Minute), monday.Add(12*time.Hour+30*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	tuesday := monday.AddDate(0, 0, 1)
	ok, err = Covers(avail, tuesday.Add(9*time.Hour), tuesday.Add(10*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Covers(avail, monday.Add(10*time.Hour), monday.Add(9*time.Hour))
	assert.ErrorIs(t, err, app_errors.ErrInvalidTimeSlot)
}

func TestCovers_UntilMidnight(t *testing.T) {
	avail := models.WeeklyAvailability{"friday": {{"22:00", "24:00"}}}
	friday := time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC)

	ok, err := Covers(avail, friday.Add(23*time.Hour), friday.Add(24*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvents_DaylightSavingDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// clocks go forward on Sunday 2026-03-08
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, ny)
	week, err := Week(models.WeeklyAvailability{"sunday": {{"09:00", "10:00"}, {"22:00", "24:00"}}}, now)
	require.NoError(t, err)
	require.Equal(t, "2026-03-08", week[0].Date)

	events := Events(week, ny, "Office hours")
	require.Len(t, events, 2)
	assert.Equal(t, time.Date(2026, time.March, 8, 9, 0, 0, 0, ny), events[0].Start)
	assert.Equal(t, time.Date(2026, time.March, 8, 10, 0, 0, 0, ny), events[0].End)
	assert.Equal(t, time.Date(2026, time.March, 9, 0, 0, 0, 0, ny), events[1].End)

	ok, err := Covers(models.WeeklyAvailability{"sunday": {{"09:00", "10:00"}}}, events[0].Start, events[0].End)
	require.NoError(t, err)
	assert.True(t, ok, "rendered events are bookable")
}

func TestCovers_PartialMinuteOverrun(t *testing.T) {
	avail := models.WeeklyAvailability{"monday": {{"09:00", "10:00"}}}
	start := time.Date(2026, time.October, 12, 9, 0, 30, 0, time.UTC)

	ok, err := Covers(avail, start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "ends 30s after the slot")

	ok, err = Covers(avail, start, start.Add(59*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}
