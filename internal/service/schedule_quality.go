package service

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/engine"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// ScheduleQualityConfig holds the thresholds of the advisory quality pass.
type ScheduleQualityConfig struct {
	WorkingStartHour     int
	WorkingEndHour       int
	WorkingDays          []models.DayOfWeek
	MaxGapMinutes        int
	MinBreakMinutes      int
	UnderusedUtilization float64
	OverloadUtilization  float64
}

// ParseWorkingDays keeps the valid day names.
func ParseWorkingDays(raw []string) []models.DayOfWeek {
	return lo.FilterMap(raw, func(item string, _ int) (models.DayOfWeek, bool) {
		day, err := models.ParseDayOfWeek(item)
		return day, err == nil
	})
}

func (c ScheduleQualityConfig) withDefaults() ScheduleQualityConfig {
	if c.WorkingEndHour <= c.WorkingStartHour || c.WorkingStartHour < 0 || c.WorkingEndHour > 24 {
		c.WorkingStartHour, c.WorkingEndHour = 7, 22
	}
	if len(c.WorkingDays) == 0 {
		c.WorkingDays = models.AllDays
	}
	if c.MaxGapMinutes <= 0 {
		c.MaxGapMinutes = 180
	}
	if c.MinBreakMinutes <= 0 {
		c.MinBreakMinutes = 15
	}
	if c.UnderusedUtilization <= 0 {
		c.UnderusedUtilization = 0.3
	}
	if c.OverloadUtilization <= 0 {
		c.OverloadUtilization = 0.9
	}
	return c
}

func (c ScheduleQualityConfig) apply(report *dto.ScheduleValidationReport, sessions []models.Session, ref *engine.Reference) {
	c.checkWorkingWindow(report, sessions)
	c.checkSpacing(report, sessions)
	report.VenueUtilization = c.venueUtilization(report, sessions, ref)
}

func (c ScheduleQualityConfig) checkWorkingWindow(report *dto.ScheduleValidationReport, sessions []models.Session) {
	opening, closing := c.WorkingStartHour*60, c.WorkingEndHour*60
	for _, session := range sessions {
		start, end := session.ClockMinutes()
		switch {
		case !lo.Contains(c.WorkingDays, session.DayOfWeek):
			report.Warnings = append(report.Warnings, fmt.Sprintf("Session %s is on %s, outside the working days", session.ID, session.DayOfWeek))
		case start < opening || end > closing:
			report.Warnings = append(report.Warnings, fmt.Sprintf("Session %s (%s-%s) falls outside working hours %s-%s",
				session.ID, models.FormatClock(start), models.FormatClock(end), models.FormatClock(opening), models.FormatClock(closing)))
		}
	}
}

// checkSpacing flags long idle gaps in a group's day and back-to-back sessions for groups and lecturers.
func (c ScheduleQualityConfig) checkSpacing(report *dto.ScheduleValidationReport, sessions []models.Session) {
	byGroup := map[string][]models.Session{}
	byLecturer := map[string][]models.Session{}
	for _, session := range sessions {
		for _, groupID := range session.StudentGroups {
			byGroup[groupID] = append(byGroup[groupID], session)
		}
		if session.LecturerID != "" {
			byLecturer[session.LecturerID] = append(byLecturer[session.LecturerID], session)
		}
	}

	for _, groupID := range sortedKeys(byGroup) {
		c.walkDays(byGroup[groupID], func(day models.DayOfWeek, prev, next models.Session, gap int) {
			if gap > c.MaxGapMinutes {
				report.Warnings = append(report.Warnings, fmt.Sprintf("Student group %s has a %d minute gap on %s between sessions %s and %s",
					groupID, gap, day, prev.ID, next.ID))
				report.Suggestions = append(report.Suggestions, fmt.Sprintf("Move session %s closer to session %s to shorten the gap for group %s",
					next.ID, prev.ID, groupID))
			}
			if gap >= 0 && gap < c.MinBreakMinutes {
				report.Warnings = append(report.Warnings, fmt.Sprintf("Student group %s has back-to-back sessions %s and %s on %s (%d minute break)",
					groupID, prev.ID, next.ID, day, gap))
			}
		})
	}
	for _, lecturerID := range sortedKeys(byLecturer) {
		c.walkDays(byLecturer[lecturerID], func(day models.DayOfWeek, prev, next models.Session, gap int) {
			if gap >= 0 && gap < c.MinBreakMinutes {
				report.Warnings = append(report.Warnings, fmt.Sprintf("Lecturer %s has back-to-back sessions %s and %s on %s (%d minute break)",
					lecturerID, prev.ID, next.ID, day, gap))
				report.Suggestions = append(report.Suggestions, fmt.Sprintf("Leave at least %d minutes between sessions %s and %s",
					c.MinBreakMinutes, prev.ID, next.ID))
			}
		})
	}
}

// walkDays visits consecutive sessions per weekday in start order. Overlapping pairs report a negative gap.
func (c ScheduleQualityConfig) walkDays(sessions []models.Session, visit func(day models.DayOfWeek, prev, next models.Session, gap int)) {
	days := lo.GroupBy(sessions, func(s models.Session) models.DayOfWeek { return s.DayOfWeek })
	for _, day := range models.AllDays {
		list := days[day]
		if len(list) < 2 {
			continue
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].StartTime.Before(list[j].StartTime) })
		for i := 1; i < len(list); i++ {
			_, prevEnd := list[i-1].ClockMinutes()
			nextStart, _ := list[i].ClockMinutes()
			visit(day, list[i-1], list[i], nextStart-prevEnd)
		}
	}
}

func (c ScheduleQualityConfig) venueUtilization(report *dto.ScheduleValidationReport, sessions []models.Session, ref *engine.Reference) []dto.VenueUtilization {
	opening, closing := c.WorkingStartHour*60, c.WorkingEndHour*60
	booked := map[string]int{}
	for _, session := range sessions {
		if !lo.Contains(c.WorkingDays, session.DayOfWeek) {
			continue
		}
		start, end := session.ClockMinutes()
		booked[session.VenueID] += overlapMinutes(start, end, opening, closing)
	}

	utilization := make([]dto.VenueUtilization, 0, len(ref.Venues()))
	for _, venue := range ref.Venues() {
		available := c.availableMinutes(venue)
		if available == 0 {
			continue
		}
		entry := dto.VenueUtilization{
			VenueID:          venue.ID,
			BookedMinutes:    booked[venue.ID],
			AvailableMinutes: available,
			Utilization:      float64(booked[venue.ID]) / float64(available),
		}
		utilization = append(utilization, entry)

		percent := entry.Utilization * 100
		switch {
		case entry.Utilization < c.UnderusedUtilization:
			report.Warnings = append(report.Warnings, fmt.Sprintf("Venue %s is underused (%.1f%% of working hours)", venue.ID, percent))
			report.Suggestions = append(report.Suggestions, fmt.Sprintf("Consolidate sessions into venue %s or release it for other use", venue.ID))
		case entry.Utilization > c.OverloadUtilization:
			report.Warnings = append(report.Warnings, fmt.Sprintf("Venue %s is overloaded (%.1f%% of working hours)", venue.ID, percent))
			report.Suggestions = append(report.Suggestions, fmt.Sprintf("Move some sessions out of venue %s to spread the load", venue.ID))
		}
	}
	return utilization
}

// availableMinutes is the venue's open time inside the working window across working days.
func (c ScheduleQualityConfig) availableMinutes(venue models.Venue) int {
	opening, closing := c.WorkingStartHour*60, c.WorkingEndHour*60
	if venue.AlwaysAvailable() {
		return (closing - opening) * len(c.WorkingDays)
	}
	return lo.SumBy(venue.Availability, func(w models.TimeWindow) int {
		if !lo.Contains(c.WorkingDays, w.DayOfWeek) {
			return 0
		}
		start, end, ok := w.Range().Minutes()
		if !ok {
			return 0
		}
		return overlapMinutes(start, end, opening, closing)
	})
}

func overlapMinutes(start, end, windowStart, windowEnd int) int {
	from, to := max(start, windowStart), min(end, windowEnd)
	if to <= from {
		return 0
	}
	return to - from
}

func sortedKeys(m map[string][]models.Session) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
