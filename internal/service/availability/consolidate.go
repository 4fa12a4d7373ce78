package availability

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const NotAvailable = "Not available"

const minutesPerDay = 24 * 60

type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Day struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	Available bool   `json:"available"`
	Label     string `json:"label,omitempty"`
	Slots     []Slot `json:"slots"`
}

type Event struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type span struct {
	start, end int
}

// ParseClock converts "HH:MM" into minutes since midnight. "24:00" is accepted
// so a slot can run to the end of the day.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", app_errors.ErrInvalidTimeSlot, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || len(hh) == 0 || len(hh) > 2 {
		return 0, fmt.Errorf("%w: %q", app_errors.ErrInvalidTimeSlot, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", app_errors.ErrInvalidTimeSlot, s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", app_errors.ErrInvalidTimeSlot, s)
	}
	return h*60 + m, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func merge(pairs [][2]string) ([]span, error) {
	spans := make([]span, 0, len(pairs))
	for _, p := range pairs {
		start, err := ParseClock(p[0])
		if err != nil {
			return nil, err
		}
		end, err := ParseClock(p[1])
		if err != nil {
			return nil, err
		}
		if start >= end {
			return nil, fmt.Errorf("%w: %s-%s ends before it starts", app_errors.ErrInvalidTimeSlot, p[0], p[1])
		}
		spans = append(spans, span{start: start, end: end})
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start == spans[j].start {
			return spans[i].end < spans[j].end
		}
		return spans[i].start < spans[j].start
	})

	merged := make([]span, 0, len(spans))
	for _, s := range spans {
		n := len(merged)
		if n > 0 && s.start <= merged[n-1].end {
			if s.end > merged[n-1].end {
				merged[n-1].end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged, nil
}

// Consolidate merges overlapping and touching [start, end] pairs into a
// sorted, non-overlapping list.
func Consolidate(pairs [][2]string) ([]Slot, error) {
	spans, err := merge(pairs)
	if err != nil {
		return nil, err
	}
	slots := make([]Slot, 0, len(spans))
	for _, s := range spans {
		slots = append(slots, Slot{Start: formatClock(s.start), End: formatClock(s.end)})
	}
	return slots, nil
}

// ParseWeekday accepts full English weekday names and their three letter
// abbreviations, case-insensitively.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || n == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", app_errors.ErrInvalidTimeSlot, name)
}

func byWeekday(avail models.WeeklyAvailability) (map[time.Weekday][][2]string, error) {
	out := make(map[time.Weekday][][2]string, len(avail))
	for name, pairs := range avail {
		d, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		out[d] = append(out[d], pairs...)
	}
	return out, nil
}

// Normalize validates a provider's declared availability and rewrites it with
// lowercase weekday keys and consolidated slots. Days without slots are
// dropped.
func Normalize(avail models.WeeklyAvailability) (models.WeeklyAvailability, error) {
	days, err := byWeekday(avail)
	if err != nil {
		return nil, err
	}
	out := make(models.WeeklyAvailability, len(days))
	for d, pairs := range days {
		slots, err := Consolidate(pairs)
		if err != nil {
			return nil, err
		}
		if len(slots) == 0 {
			continue
		}
		key := strings.ToLower(d.String())
		for _, s := range slots {
			out[key] = append(out[key], [2]string{s.Start, s.End})
		}
	}
	return out, nil
}

// StartOfWeek returns midnight of the Sunday that begins the week containing t,
// in t's location.
func StartOfWeek(t time.Time) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

// Week lays the availability over the seven days of the calendar week that
// contains now. Days without slots are marked not available.
func Week(avail models.WeeklyAvailability, now time.Time) ([]Day, error) {
	days, err := byWeekday(avail)
	if err != nil {
		return nil, err
	}

	start := StartOfWeek(now)
	week := make([]Day, 0, 7)
	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i)
		slots, err := Consolidate(days[date.Weekday()])
		if err != nil {
			return nil, err
		}
		day := Day{
			Date:      date.Format(time.DateOnly),
			Weekday:   date.Weekday().String(),
			Available: len(slots) > 0,
			Slots:     slots,
		}
		if !day.Available {
			day.Label = NotAvailable
		}
		week = append(week, day)
	}
	return week, nil
}

// Events turns a consolidated week into concrete calendar entries in loc.
func Events(week []Day, loc *time.Location, title string) []Event {
	var events []Event
	for _, d := range week {
		date, err := time.ParseInLocation(time.DateOnly, d.Date, loc)
		if err != nil {
			continue
		}
		for _, s := range d.Slots {
			from, err1 := ParseClock(s.Start)
			to, err2 := ParseClock(s.End)
			if err1 != nil || err2 != nil {
				continue
			}
			events = append(events, Event{
				Title: title,
				Start: clockOn(date, from),
				End:   clockOn(date, to),
			})
		}
	}
	return events
}

// clockOn returns the wall-clock time minutes after midnight on date's day.
// 24:00 is the next day's midnight.
func clockOn(date time.Time, minutes int) time.Time {
	y, m, d := date.Date()
	if minutes >= minutesPerDay {
		return time.Date(y, m, d, 0, 0, 0, 0, date.Location()).AddDate(0, 0, 1)
	}
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, date.Location())
}

// Covers reports whether [start, end) falls entirely inside one consolidated
// slot of start's weekday. Both times are read in start's location and must
// be on the same calendar day.
func Covers(avail models.WeeklyAvailability, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, app_errors.ErrInvalidTimeSlot
	}
	end = end.In(start.Location())
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	from := start.Hour()*60 + start.Minute()
	to := end.Hour()*60 + end.Minute()
	if end.Second() != 0 || end.Nanosecond() != 0 {
		// a partial minute still occupies that minute
		to++
	}
	if sy != ey || sm != em || sd != ed {
		// allow a booking that ends exactly at midnight
		next := time.Date(sy, sm, sd+1, 0, 0, 0, 0, start.Location())
		if !end.Equal(next) {
			return false, nil
		}
		to = minutesPerDay
	}

	days, err := byWeekday(avail)
	if err != nil {
		return false, err
	}
	spans, err := merge(days[start.Weekday()])
	if err != nil {
		return false, err
	}
	for _, s := range spans {
		if from >= s.start && to <= s.end {
			return true, nil
		}
	}
	return false, nil
}
