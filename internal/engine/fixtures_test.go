package engine

import (
	"time"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// mondayOf2024 is a Monday; offsets of 0..6 days give MONDAY..SUNDAY.
var mondayOf2024 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func at(dayOffset, hour, minute int) time.Time {
	return mondayOf2024.AddDate(0, 0, dayOffset).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func session(id string, dayOffset, startHour, startMinute, durationMinutes int, venue, lecturer string, groups ...string) models.Session {
	start := at(dayOffset, startHour, startMinute)
	return models.Session{
		ID:            id,
		ScheduleID:    "schedule-1",
		CourseID:      "course-" + id,
		LecturerID:    lecturer,
		VenueID:       venue,
		StudentGroups: groups,
		StartTime:     start,
		EndTime:       start.Add(time.Duration(durationMinutes) * time.Minute),
		DayOfWeek:     models.DayOf(start),
	}
}

func fullWeek() models.WeeklyAvailability {
	availability := models.WeeklyAvailability{}
	for _, day := range models.AllDays {
		availability[day] = []models.ClockRange{{StartTime: "00:00", EndTime: "24:00"}}
	}
	return availability
}

func testEntities() models.SchedulingEntities {
	return models.SchedulingEntities{
		Venues: []models.Venue{
			{ID: "room-a", Capacity: 30, Equipment: []string{models.EquipmentWhiteboard}},
			{ID: "room-b", Capacity: 60, Equipment: []string{models.EquipmentProjector, models.EquipmentWhiteboard}},
		},
		Lecturers: []models.Lecturer{
			{ID: "lec-1", Availability: fullWeek()},
			{ID: "lec-2", Availability: fullWeek()},
		},
		StudentGroups: []models.StudentGroup{
			{ID: "g-25", Size: 25},
			{ID: "g-35", Size: 35},
			{ID: "g-10", Size: 10},
		},
	}
}
