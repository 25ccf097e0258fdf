package engine

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// LecturerAvailable reports whether [start,end) minutes on day fits inside one of the lecturer's
// windows. A day without windows means unavailable.
func LecturerAvailable(l models.Lecturer, day models.DayOfWeek, start, end int) bool {
	for _, window := range l.Availability[day] {
		if window.Contains(start, end) {
			return true
		}
	}
	return false
}

// VenueAvailable reports whether [start,end) minutes on day fits the venue's windows. A venue that
// declares no windows at all is always available.
func VenueAvailable(v models.Venue, day models.DayOfWeek, start, end int) bool {
	if v.AlwaysAvailable() {
		return true
	}
	for _, window := range v.Availability {
		if window.DayOfWeek == day && window.Range().Contains(start, end) {
			return true
		}
	}
	return false
}

// AvailabilityIssue is a single reason a session falls outside declared availability.
type AvailabilityIssue struct {
	EntityID    string
	Description string
}

// CheckAvailability evaluates the session against its lecturer and venue. Either may be nil to skip it.
func CheckAvailability(s models.Session, lecturer *models.Lecturer, venue *models.Venue) []AvailabilityIssue {
	start, end := s.ClockMinutes()
	span := fmt.Sprintf("%s %s-%s", s.DayOfWeek, models.FormatClock(start), models.FormatClock(end))

	var issues []AvailabilityIssue
	if lecturer != nil && !LecturerAvailable(*lecturer, s.DayOfWeek, start, end) {
		issues = append(issues, AvailabilityIssue{
			EntityID:    lecturer.ID,
			Description: fmt.Sprintf("lecturer %s is not available on %s", lecturer.ID, span),
		})
	}
	if venue != nil && !VenueAvailable(*venue, s.DayOfWeek, start, end) {
		issues = append(issues, AvailabilityIssue{
			EntityID:    venue.ID,
			Description: fmt.Sprintf("venue %s is not available on %s", venue.ID, span),
		})
	}
	return issues
}

// SessionAvailability resolves lecturer and venue from the reference and runs CheckAvailability.
func SessionAvailability(s models.Session, ref *Reference) []AvailabilityIssue {
	var lecturer *models.Lecturer
	if l, ok := ref.Lecturer(s.LecturerID); ok {
		lecturer = &l
	}
	var venue *models.Venue
	if v, ok := ref.Venue(s.VenueID); ok {
		venue = &v
	}
	return CheckAvailability(s, lecturer, venue)
}
