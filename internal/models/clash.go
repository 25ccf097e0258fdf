package models

import (
	"fmt"
	"strings"
)

// ClashType enumerates detectable conflicts.
type ClashType string

const (
	ClashVenueDoubleBooking    ClashType = "VENUE_DOUBLE_BOOKING"
	ClashLecturerConflict      ClashType = "LECTURER_CONFLICT"
	ClashStudentGroupOverlap   ClashType = "STUDENT_GROUP_OVERLAP"
	ClashEquipmentConflict     ClashType = "EQUIPMENT_CONFLICT"
	ClashCapacityExceeded      ClashType = "CAPACITY_EXCEEDED"
	ClashAvailabilityViolation ClashType = "AVAILABILITY_VIOLATION"
	ClashPreferenceViolation   ClashType = "PREFERENCE_VIOLATION"
)

// Effort estimates how much work a resolution takes.
type Effort string

const (
	EffortLow    Effort = "LOW"
	EffortMedium Effort = "MEDIUM"
	EffortHigh   Effort = "HIGH"
)

// Resolution is a candidate fix for a clash.
type Resolution struct {
	Description       string  `json:"description"`
	OptimizationScore float64 `json:"optimizationScore"`
	Effort            Effort  `json:"effort"`
}

// Clash is a concrete detected conflict.
type Clash struct {
	ID                   string       `json:"id"`
	Type                 ClashType    `json:"type"`
	Severity             Priority     `json:"severity"`
	AffectedEntities     []string     `json:"affectedEntities"`
	Description          string       `json:"description"`
	ScheduleID           string       `json:"scheduleId,omitempty"`
	SessionIDs           []string     `json:"sessionIds"`
	Magnitude            int          `json:"magnitude,omitempty"`
	IsResolved           bool         `json:"isResolved"`
	SuggestedResolutions []Resolution `json:"suggestedResolutions,omitempty"`
}

// ClashConflictError is returned when a mutation would introduce new clashes.
type ClashConflictError struct {
	Message string  `json:"message"`
	Clashes []Clash `json:"clashes"`
}

// Error implements the error interface for conflict errors.
func (e *ClashConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Clashes) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Clashes))
	for _, clash := range e.Clashes {
		parts = append(parts, clash.Description)
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, "; "))
}
