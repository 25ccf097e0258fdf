package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayOfWeek names a weekday the way sessions and availability windows store it.
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

// AllDays lists the week starting on Monday.
var AllDays = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayToDay = map[time.Weekday]DayOfWeek{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// DayFromWeekday converts a time.Weekday.
func DayFromWeekday(w time.Weekday) DayOfWeek {
	return weekdayToDay[w]
}

// DayOf returns the weekday of the instant in its own location.
func DayOf(t time.Time) DayOfWeek {
	return DayFromWeekday(t.Weekday())
}

// ParseDayOfWeek accepts day names in any case, e.g. "monday" or "MONDAY".
func ParseDayOfWeek(raw string) (DayOfWeek, error) {
	day := DayOfWeek(strings.ToUpper(strings.TrimSpace(raw)))
	if !day.Valid() {
		return "", fmt.Errorf("invalid day of week %q", raw)
	}
	return day, nil
}

// Valid reports whether the value is one of the seven weekdays.
func (d DayOfWeek) Valid() bool {
	for _, day := range AllDays {
		if d == day {
			return true
		}
	}
	return false
}

// Weekday converts back to time.Weekday. Invalid values map to Monday.
func (d DayOfWeek) Weekday() time.Weekday {
	for w, day := range weekdayToDay {
		if day == d {
			return w
		}
	}
	return time.Monday
}

// ParseClock converts "HH:MM" into minutes after midnight. "24:00" is accepted as end of day.
func ParseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock hours %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock minutes %q", raw)
	}
	if hours < 0 || hours > 24 || minutes < 0 || minutes > 59 || (hours == 24 && minutes != 0) {
		return 0, fmt.Errorf("clock value %q out of range", raw)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes after midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// MinuteOfDay returns minutes after midnight for the instant in its own location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// ClockRange is a daily window such as 09:00-17:00.
type ClockRange struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Minutes returns the parsed bounds. ok is false for malformed or empty ranges.
func (r ClockRange) Minutes() (start, end int, ok bool) {
	s, err := ParseClock(r.StartTime)
	if err != nil {
		return 0, 0, false
	}
	e, err := ParseClock(r.EndTime)
	if err != nil || e <= s {
		return 0, 0, false
	}
	return s, e, true
}

// Contains reports whether [start,end) in minutes lies entirely inside the range.
func (r ClockRange) Contains(start, end int) bool {
	s, e, ok := r.Minutes()
	if !ok {
		return false
	}
	return start >= s && end <= e
}

// TimeWindow is a clock range bound to a weekday.
type TimeWindow struct {
	DayOfWeek DayOfWeek `json:"dayOfWeek"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
}

// Range drops the weekday.
func (w TimeWindow) Range() ClockRange {
	return ClockRange{StartTime: w.StartTime, EndTime: w.EndTime}
}
