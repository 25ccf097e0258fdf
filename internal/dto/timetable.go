package dto

import (
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// CreateScheduleRequest opens an empty DRAFT schedule.
type CreateScheduleRequest struct {
	Name string         `json:"name" validate:"required,max=200"`
	Meta types.JSONText `json:"meta"`
}

// SessionDraft is the payload for adding a session to a schedule. DayOfWeek is derived from
// StartTime when omitted.
type SessionDraft struct {
	CourseID      string    `json:"courseId" validate:"required"`
	LecturerID    string    `json:"lecturerId" validate:"required"`
	VenueID       string    `json:"venueId" validate:"required"`
	StudentGroups []string  `json:"studentGroups" validate:"required,min=1,dive,required"`
	StartTime     time.Time `json:"startTime" validate:"required"`
	EndTime       time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	DayOfWeek     string    `json:"dayOfWeek" validate:"omitempty,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
}

// SessionPatch replaces only the fields that are set.
type SessionPatch struct {
	CourseID      *string    `json:"courseId" validate:"omitempty,min=1"`
	LecturerID    *string    `json:"lecturerId" validate:"omitempty,min=1"`
	VenueID       *string    `json:"venueId" validate:"omitempty,min=1"`
	StudentGroups *[]string  `json:"studentGroups" validate:"omitempty,min=1,dive,required"`
	StartTime     *time.Time `json:"startTime"`
	EndTime       *time.Time `json:"endTime"`
	DayOfWeek     *string    `json:"dayOfWeek" validate:"omitempty,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
}

// Empty reports whether the patch changes nothing.
func (p SessionPatch) Empty() bool {
	return p.CourseID == nil && p.LecturerID == nil && p.VenueID == nil && p.StudentGroups == nil &&
		p.StartTime == nil && p.EndTime == nil && p.DayOfWeek == nil
}

// PublishScheduleRequest captures the publisher identity.
type PublishScheduleRequest struct {
	PublishedBy string `json:"publishedBy" validate:"required"`
}

// VenueUtilization is the booked share of a venue's open time in the working window.
type VenueUtilization struct {
	VenueID          string  `json:"venueId"`
	BookedMinutes    int     `json:"bookedMinutes"`
	AvailableMinutes int     `json:"availableMinutes"`
	Utilization      float64 `json:"utilization"`
}

// ScheduleValidationReport is the outcome of validating a whole schedule. Warnings and suggestions
// are advisory only.
type ScheduleValidationReport struct {
	ScheduleID       string                   `json:"scheduleId"`
	Version          int                      `json:"version"`
	Valid            bool                     `json:"valid"`
	Clashes          []models.Clash           `json:"clashes"`
	Warnings         []string                 `json:"warnings"`
	Suggestions      []string                 `json:"suggestions"`
	Constraints      *models.ValidationResult `json:"constraints,omitempty"`
	VenueUtilization []VenueUtilization       `json:"venueUtilization"`
	GeneratedAt      time.Time                `json:"generatedAt"`
}

// SessionQuery filters session listings.
type SessionQuery struct {
	DayOfWeek  string `form:"dayOfWeek"`
	LecturerID string `form:"lecturerId"`
	VenueID    string `form:"venueId"`
	GroupID    string `form:"groupId"`
}

// DetectClashesRequest runs the clash detector on an ad-hoc session set.
type DetectClashesRequest struct {
	Sessions []models.Session `json:"sessions" validate:"required,min=1"`
}
