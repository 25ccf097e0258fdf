package models

import (
	"time"

	"github.com/lib/pq"
)

// Equipment values recognised across venues and courses.
const (
	EquipmentProjector       = "PROJECTOR"
	EquipmentWhiteboard      = "WHITEBOARD"
	EquipmentComputers       = "COMPUTERS"
	EquipmentLabBench        = "LAB_BENCH"
	EquipmentAudioSystem     = "AUDIO_SYSTEM"
	EquipmentVideoConference = "VIDEO_CONFERENCE"
)

// Venue is a bookable room. An empty Availability list means the venue is always open.
type Venue struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Capacity     int            `db:"capacity" json:"capacity"`
	Equipment    pq.StringArray `db:"equipment" json:"equipment"`
	Availability TimeWindows    `db:"availability" json:"availability"`
	Location     string         `db:"location" json:"location"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`

	// windowsDeclared survives normalization dropping every malformed window.
	windowsDeclared bool
}

// AlwaysAvailable reports whether the venue never declared availability windows. A venue whose
// declared windows were all malformed is not always available; it is never available.
func (v Venue) AlwaysAvailable() bool {
	return len(v.Availability) == 0 && !v.windowsDeclared
}

// HasEquipment reports whether the venue carries the item.
func (v Venue) HasEquipment(item string) bool {
	for _, e := range v.Equipment {
		if e == item {
			return true
		}
	}
	return false
}

// LecturerPreferences captures soft wishes of a lecturer.
type LecturerPreferences struct {
	PreferredTimeSlots         []TimeWindow `json:"preferredTimeSlots"`
	MaxHoursPerDay             int          `json:"maxHoursPerDay"`
	MaxHoursPerWeek            int          `json:"maxHoursPerWeek"`
	MinimumBreakBetweenClasses int          `json:"minimumBreakBetweenClasses"`
	AvoidBackToBackClasses     bool         `json:"avoidBackToBackClasses"`
}

// Lecturer teaches courses. A weekday missing from Availability means the lecturer is unavailable that day.
type Lecturer struct {
	ID              string              `db:"id" json:"id"`
	Name            string              `db:"name" json:"name"`
	Subjects        pq.StringArray      `db:"subjects" json:"subjects"`
	Availability    WeeklyAvailability  `db:"availability" json:"availability"`
	Preferences     LecturerPreferences `db:"preferences" json:"preferences"`
	MaxHoursPerDay  int                 `db:"max_hours_per_day" json:"maxHoursPerDay"`
	MaxHoursPerWeek int                 `db:"max_hours_per_week" json:"maxHoursPerWeek"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at" json:"updated_at"`
}

// StudentGroup is a cohort attending sessions together.
type StudentGroup struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Size      int            `db:"size" json:"size"`
	Courses   pq.StringArray `db:"courses" json:"courses"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// Course is the unit being scheduled; Duration is in minutes.
type Course struct {
	ID                string         `db:"id" json:"id"`
	Code              string         `db:"code" json:"code"`
	Name              string         `db:"name" json:"name"`
	Duration          int            `db:"duration" json:"duration"`
	RequiredEquipment pq.StringArray `db:"required_equipment" json:"requiredEquipment"`
	StudentGroups     pq.StringArray `db:"student_groups" json:"studentGroups"`
	LecturerID        string         `db:"lecturer_id" json:"lecturerId"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}
