package models

import (
	"sort"
	"strings"

	"github.com/lib/pq"
)

// DefaultConstraintWeight applies to constraints stored without a weight.
const DefaultConstraintWeight = 1.0

func normalizeIDSet(values []string, upper bool) pq.StringArray {
	seen := make(map[string]struct{}, len(values))
	result := make(pq.StringArray, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if upper {
			value = strings.ToUpper(value)
		}
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func normalizeWindows(windows []TimeWindow) []TimeWindow {
	result := make([]TimeWindow, 0, len(windows))
	for _, w := range windows {
		day, err := ParseDayOfWeek(string(w.DayOfWeek))
		if err != nil {
			continue
		}
		window := TimeWindow{DayOfWeek: day, StartTime: strings.TrimSpace(w.StartTime), EndTime: strings.TrimSpace(w.EndTime)}
		if _, _, ok := window.Range().Minutes(); !ok {
			continue
		}
		result = append(result, window)
	}
	return result
}

// Normalize returns a copy with ids trimmed, equipment upper-cased and deduplicated, malformed
// availability windows dropped and a negative capacity clamped to zero.
func (v Venue) Normalize() Venue {
	v.ID = strings.TrimSpace(v.ID)
	if v.Capacity < 0 {
		v.Capacity = 0
	}
	v.Equipment = normalizeIDSet(v.Equipment, true)
	v.windowsDeclared = v.windowsDeclared || len(v.Availability) > 0
	v.Availability = normalizeWindows(v.Availability)
	return v
}

// Normalize returns a copy with availability keyed by valid weekdays only. Days without a usable
// window are removed, which makes the lecturer unavailable on them.
func (l Lecturer) Normalize() Lecturer {
	l.ID = strings.TrimSpace(l.ID)
	l.Subjects = normalizeIDSet(l.Subjects, false)
	availability := make(WeeklyAvailability, len(l.Availability))
	for rawDay, ranges := range l.Availability {
		day, err := ParseDayOfWeek(string(rawDay))
		if err != nil {
			continue
		}
		for _, r := range ranges {
			r = ClockRange{StartTime: strings.TrimSpace(r.StartTime), EndTime: strings.TrimSpace(r.EndTime)}
			if _, _, ok := r.Minutes(); ok {
				availability[day] = append(availability[day], r)
			}
		}
	}
	for day, ranges := range availability {
		sort.Slice(ranges, func(i, j int) bool { return ranges[i].StartTime < ranges[j].StartTime })
		availability[day] = ranges
	}
	l.Availability = availability
	l.Preferences.PreferredTimeSlots = normalizeWindows(l.Preferences.PreferredTimeSlots)
	if l.MaxHoursPerDay <= 0 {
		l.MaxHoursPerDay = l.Preferences.MaxHoursPerDay
	}
	if l.MaxHoursPerWeek <= 0 {
		l.MaxHoursPerWeek = l.Preferences.MaxHoursPerWeek
	}
	if l.Preferences.MinimumBreakBetweenClasses < 0 {
		l.Preferences.MinimumBreakBetweenClasses = 0
	}
	return l
}

// Normalize returns a copy with a non-negative size and deduplicated course ids.
func (g StudentGroup) Normalize() StudentGroup {
	g.ID = strings.TrimSpace(g.ID)
	if g.Size < 0 {
		g.Size = 0
	}
	g.Courses = normalizeIDSet(g.Courses, false)
	return g
}

// Normalize returns a copy with equipment upper-cased, group ids deduplicated and a non-negative duration.
func (c Course) Normalize() Course {
	c.ID = strings.TrimSpace(c.ID)
	c.Code = strings.TrimSpace(c.Code)
	c.LecturerID = strings.TrimSpace(c.LecturerID)
	if c.Duration < 0 {
		c.Duration = 0
	}
	c.RequiredEquipment = normalizeIDSet(c.RequiredEquipment, true)
	c.StudentGroups = normalizeIDSet(c.StudentGroups, false)
	return c
}

// Normalize returns a copy with upper-cased enums, MEDIUM as default priority and a weight in [0,1].
// A zero weight means "unset" and becomes DefaultConstraintWeight.
func (c Constraint) Normalize() Constraint {
	c.ID = strings.TrimSpace(c.ID)
	c.Type = ConstraintType(strings.ToUpper(strings.TrimSpace(string(c.Type))))
	c.Priority = Priority(strings.ToUpper(strings.TrimSpace(string(c.Priority))))
	if c.Priority == "" {
		c.Priority = PriorityMedium
	}
	c.Entities = normalizeIDSet(c.Entities, false)
	switch {
	case c.Weight <= 0:
		c.Weight = DefaultConstraintWeight
	case c.Weight > 1:
		c.Weight = 1
	}
	return c
}

// Normalize returns a copy with trimmed references, deduplicated groups and a weekday derived from
// StartTime when none was supplied.
func (s Session) Normalize() Session {
	s.ID = strings.TrimSpace(s.ID)
	s.CourseID = strings.TrimSpace(s.CourseID)
	s.LecturerID = strings.TrimSpace(s.LecturerID)
	s.VenueID = strings.TrimSpace(s.VenueID)
	s.StudentGroups = normalizeIDSet(s.StudentGroups, false)
	s.DayOfWeek = DayOfWeek(strings.ToUpper(strings.TrimSpace(string(s.DayOfWeek))))
	if s.DayOfWeek == "" && !s.StartTime.IsZero() {
		s.DayOfWeek = DayOf(s.StartTime)
	}
	return s
}
