package schedule

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidDate     = errors.New("invalid date format")
	ErrInvalidTime     = errors.New("invalid time format")
	ErrInvalidInterval = errors.New("invalid interval: end must be after start")
	ErrNotHourAligned  = errors.New("working hour slot must start on the hour")
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if !iv.Valid() {
		return Interval{}, ErrInvalidInterval
	}
	return iv, nil
}

func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Minutes is the interval length rounded to the nearest minute.
func (i Interval) Minutes() int {
	return int(math.Round(float64(i.End.Sub(i.Start)) / float64(time.Minute)))
}

func (i Interval) String() string {
	return i.Start.UTC().Format(time.RFC3339) + "/" + i.End.UTC().Format(time.RFC3339)
}

// Overlaps uses strict inequalities: intervals that only touch do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation(DateLayout, dateStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

// DayBounds returns the first and last millisecond of the UTC day containing date.
func DayBounds(date time.Time) (time.Time, time.Time) {
	d := date.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Millisecond)
	return start, end
}

// DatesCovered lists every UTC date (YYYY-MM-DD) that the interval touches.
func DatesCovered(iv Interval) []string {
	if !iv.Valid() {
		return nil
	}
	dayStart, _ := DayBounds(iv.Start)
	dates := make([]string, 0, 1)
	for cursor := dayStart; cursor.Before(iv.End); cursor = cursor.Add(24 * time.Hour) {
		dates = append(dates, cursor.Format(DateLayout))
	}
	return dates
}

func ParseClockToMinutes(timeStr string) (int, error) {
	tm, err := time.Parse("15:04", timeStr)
	if err != nil {
		return 0, ErrInvalidTime
	}
	return tm.Hour()*60 + tm.Minute(), nil
}

// ParseWorkingHours accepts a comma separated list such as "09:00,10:00,11:00".
func ParseWorkingHours(raw string) ([]string, error) {
	parts := strings.Split(raw, ",")
	hours := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		hours = append(hours, p)
	}
	if err := ValidateWorkingHours(hours); err != nil {
		return nil, err
	}
	return hours, nil
}

func ValidateWorkingHours(hours []string) error {
	if len(hours) == 0 {
		return errors.New("working hours must not be empty")
	}
	seen := make(map[string]struct{}, len(hours))
	for _, h := range hours {
		minutes, err := ParseClockToMinutes(h)
		if err != nil {
			return fmt.Errorf("%w: %q", err, h)
		}
		if minutes%60 != 0 {
			return fmt.Errorf("%w: %q", ErrNotHourAligned, h)
		}
		if _, dup := seen[h]; dup {
			return fmt.Errorf("duplicate working hour %q", h)
		}
		seen[h] = struct{}{}
	}
	return nil
}

func FilterReserved(slots []string, reserved map[string]bool) []string {
	filtered := make([]string, 0, len(slots))
	for _, s := range slots {
		if !reserved[s] {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// BookedSlots marks the working-hour slots of the UTC day starting at dayStart that are
// occupied by busy. An interval occupies every hour from its start hour up to, but not
// including, its end hour; the end hour itself is occupied only when the interval ends
// past the top of that hour. Intervals are clipped to the day.
func BookedSlots(workingHours []string, dayStart time.Time, busy []Interval) (booked, available []string, err error) {
	dayEnd := dayStart.Add(24 * time.Hour)
	reserved := make(map[string]bool, len(workingHours))

	slotHours := make([]int, len(workingHours))
	for i, label := range workingHours {
		minutes, err := ParseClockToMinutes(label)
		if err != nil {
			return nil, nil, err
		}
		slotHours[i] = minutes / 60
	}

	for _, b := range busy {
		if !b.End.After(dayStart) || !b.Start.Before(dayEnd) {
			continue
		}
		startHour := 0
		if b.Start.After(dayStart) {
			startHour = int(b.Start.Sub(dayStart) / time.Hour)
		}
		endHour := 24
		partial := false
		if b.End.Before(dayEnd) {
			offset := b.End.Sub(dayStart)
			endHour = int(offset / time.Hour)
			partial = offset%time.Hour != 0
		}

		for i, h := range slotHours {
			if h >= startHour && (h < endHour || (h == endHour && partial)) {
				reserved[workingHours[i]] = true
			}
		}
	}

	booked = make([]string, 0, len(reserved))
	for _, label := range workingHours {
		if reserved[label] {
			booked = append(booked, label)
		}
	}
	return booked, FilterReserved(workingHours, reserved), nil
}
