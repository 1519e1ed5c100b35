package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultHours = []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 1, hour, minute, 0, 0, time.UTC)
}

func TestOverlapsSymmetric(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"disjoint", Interval{at(9, 0), at(10, 0)}, Interval{at(11, 0), at(12, 0)}, false},
		{"touching", Interval{at(9, 0), at(10, 0)}, Interval{at(10, 0), at(11, 0)}, false},
		{"partial", Interval{at(9, 0), at(10, 30)}, Interval{at(10, 0), at(11, 0)}, true},
		{"contained", Interval{at(9, 0), at(12, 0)}, Interval{at(10, 0), at(11, 0)}, true},
		{"identical", Interval{at(9, 0), at(10, 0)}, Interval{at(9, 0), at(10, 0)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.a, tc.b))
			assert.Equal(t, Overlaps(tc.a, tc.b), Overlaps(tc.b, tc.a))
		})
	}
}

func TestNewIntervalRejectsEmpty(t *testing.T) {
	_, err := NewInterval(at(10, 0), at(10, 0))
	require.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewInterval(at(11, 0), at(10, 0))
	require.ErrorIs(t, err, ErrInvalidInterval)

	iv, err := NewInterval(at(9, 0), at(10, 30))
	require.NoError(t, err)
	assert.Equal(t, 90, iv.Minutes())
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	start, end := DayBounds(time.Date(2024, 3, 5, 1, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 4, 23, 59, 59, int(999*time.Millisecond), time.UTC), end)
}

func TestDatesCovered(t *testing.T) {
	iv := Interval{Start: time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 3, 1, 0, 0, 0, time.UTC)}
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, DatesCovered(iv))

	sameDay := Interval{Start: at(9, 0), End: at(10, 0)}
	assert.Equal(t, []string{"2024-01-01"}, DatesCovered(sameDay))
}

func TestParseWorkingHours(t *testing.T) {
	hours, err := ParseWorkingHours("09:00, 10:00,11:00")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "11:00"}, hours)

	_, err = ParseWorkingHours("09:30")
	require.ErrorIs(t, err, ErrNotHourAligned)

	_, err = ParseWorkingHours("nine")
	require.ErrorIs(t, err, ErrInvalidTime)

	_, err = ParseWorkingHours("")
	require.Error(t, err)
}

func TestBookedSlotsPartialEndHour(t *testing.T) {
	day, _ := DayBounds(at(0, 0))
	booked, available, err := BookedSlots(defaultHours, day, []Interval{{Start: at(9, 0), End: at(11, 30)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "11:00"}, booked)
	assert.Equal(t, []string{"12:00", "13:00", "14:00", "15:00", "16:00"}, available)
}

func TestBookedSlotsEndOnHourBoundary(t *testing.T) {
	day, _ := DayBounds(at(0, 0))
	booked, available, err := BookedSlots(defaultHours, day, []Interval{{Start: at(9, 0), End: at(11, 0)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, booked)
	assert.Equal(t, []string{"11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}, available)
}

func TestBookedSlotsSpanningWholeDay(t *testing.T) {
	day, _ := DayBounds(at(0, 0))
	busy := []Interval{{Start: day.Add(-2 * time.Hour), End: day.Add(30 * time.Hour)}}
	booked, available, err := BookedSlots(defaultHours, day, busy)
	require.NoError(t, err)
	assert.Equal(t, defaultHours, booked)
	assert.Empty(t, available)
}

func TestBookedSlotsClipsPreviousDay(t *testing.T) {
	day, _ := DayBounds(at(0, 0))
	busy := []Interval{{Start: day.Add(-time.Hour), End: at(9, 15)}}
	booked, _, err := BookedSlots(defaultHours, day, busy)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, booked)
}

func TestBookedSlotsNoAppointments(t *testing.T) {
	day, _ := DayBounds(at(0, 0))
	booked, available, err := BookedSlots(defaultHours, day, nil)
	require.NoError(t, err)
	assert.Empty(t, booked)
	assert.Equal(t, defaultHours, available)
}

func TestFilterReserved(t *testing.T) {
	slots := []string{"09:00", "10:00", "11:00"}
	reserved := map[string]bool{"10:00": true}
	assert.Equal(t, []string{"09:00", "11:00"}, FilterReserved(slots, reserved))
}
