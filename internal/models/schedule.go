package models

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// ScheduleStatus represents lifecycle phases for a timetable.
type ScheduleStatus string

const (
	ScheduleStatusDraft     ScheduleStatus = "DRAFT"
	ScheduleStatusPublished ScheduleStatus = "PUBLISHED"
	ScheduleStatusArchived  ScheduleStatus = "ARCHIVED"
)

// Valid reports whether s is a known lifecycle phase.
func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleStatusDraft, ScheduleStatusPublished, ScheduleStatusArchived:
		return true
	}
	return false
}

// Schedule is a versioned collection of sessions.
type Schedule struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Version     int            `db:"version" json:"version"`
	Status      ScheduleStatus `db:"status" json:"status"`
	Meta        types.JSONText `db:"meta" json:"meta"`
	PublishedBy *string        `db:"published_by" json:"published_by,omitempty"`
	PublishedAt *time.Time     `db:"published_at" json:"published_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Session is one scheduled occurrence of a course. It belongs to exactly one schedule.
type Session struct {
	ID            string         `db:"id" json:"id"`
	ScheduleID    string         `db:"schedule_id" json:"scheduleId"`
	CourseID      string         `db:"course_id" json:"courseId"`
	LecturerID    string         `db:"lecturer_id" json:"lecturerId"`
	VenueID       string         `db:"venue_id" json:"venueId"`
	StudentGroups pq.StringArray `db:"student_groups" json:"studentGroups"`
	StartTime     time.Time      `db:"start_time" json:"startTime"`
	EndTime       time.Time      `db:"end_time" json:"endTime"`
	DayOfWeek     DayOfWeek      `db:"day_of_week" json:"dayOfWeek"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// Validate checks the session invariants: start before end and a weekday that agrees with the start.
func (s Session) Validate() error {
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return fmt.Errorf("session %s requires start and end time", s.ID)
	}
	if !s.StartTime.Before(s.EndTime) {
		return fmt.Errorf("session %s must start before it ends", s.ID)
	}
	if !s.DayOfWeek.Valid() {
		return fmt.Errorf("session %s has invalid day of week %q", s.ID, s.DayOfWeek)
	}
	if DayOf(s.StartTime) != s.DayOfWeek {
		return fmt.Errorf("session %s day of week %s does not match start time (%s)", s.ID, s.DayOfWeek, DayOf(s.StartTime))
	}
	return nil
}

// Overlaps reports half-open interval overlap on the same weekday. Touching endpoints do not overlap.
func (s Session) Overlaps(other Session) bool {
	if s.DayOfWeek != other.DayOfWeek {
		return false
	}
	return s.StartTime.Before(other.EndTime) && other.StartTime.Before(s.EndTime)
}

// DurationMinutes returns the session length.
func (s Session) DurationMinutes() int {
	return int(s.EndTime.Sub(s.StartTime) / time.Minute)
}

// ClockMinutes returns start and end as minutes after midnight. Sessions crossing midnight end at 24:00.
func (s Session) ClockMinutes() (start, end int) {
	start = MinuteOfDay(s.StartTime)
	end = start + s.DurationMinutes()
	if end > 24*60 {
		end = 24 * 60
	}
	return start, end
}

// HasGroup reports whether the group attends the session.
func (s Session) HasGroup(groupID string) bool {
	for _, g := range s.StudentGroups {
		if g == groupID {
			return true
		}
	}
	return false
}
