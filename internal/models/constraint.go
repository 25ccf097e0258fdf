package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// ConstraintType selects the evaluator applied to a constraint.
type ConstraintType string

const (
	ConstraintHardAvailability     ConstraintType = "HARD_AVAILABILITY"
	ConstraintVenueCapacity        ConstraintType = "VENUE_CAPACITY"
	ConstraintEquipmentRequirement ConstraintType = "EQUIPMENT_REQUIREMENT"
	ConstraintLecturerPreference   ConstraintType = "LECTURER_PREFERENCE"
	ConstraintStudentBreak         ConstraintType = "STUDENT_BREAK"
	ConstraintTimeWindow           ConstraintType = "TIME_WINDOW"
	ConstraintDepartmentPolicy     ConstraintType = "DEPARTMENT_POLICY"
	ConstraintConsecutiveSessions  ConstraintType = "CONSECUTIVE_SESSIONS"
)

// Known reports whether the type is one of the built-in constraint types.
func (t ConstraintType) Known() bool {
	switch t {
	case ConstraintHardAvailability, ConstraintVenueCapacity, ConstraintEquipmentRequirement,
		ConstraintLecturerPreference, ConstraintStudentBreak, ConstraintTimeWindow,
		ConstraintDepartmentPolicy, ConstraintConsecutiveSessions:
		return true
	}
	return false
}

// Priority ranks constraints and clashes.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Factor converts a priority into a scoring multiplier.
func (p Priority) Factor() float64 {
	switch p {
	case PriorityCritical:
		return 2.0
	case PriorityHigh:
		return 1.5
	case PriorityLow:
		return 0.5
	default:
		return 1.0
	}
}

// ConstraintRule is the {field, operator, value} triple of a constraint. Payload carries the value
// as raw JSON whose shape depends on the constraint type.
type ConstraintRule struct {
	Field    string         `json:"field,omitempty"`
	Operator string         `json:"operator,omitempty"`
	Payload  types.JSONText `json:"value,omitempty"`
}

// Decode unmarshals the rule value into dest. An empty value leaves dest untouched.
func (r ConstraintRule) Decode(dest interface{}) error {
	if len(r.Payload) == 0 || string(r.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Payload, dest); err != nil {
		return fmt.Errorf("decode rule value: %w", err)
	}
	return nil
}

// Constraint is a configurable rule evaluated against a session set.
type Constraint struct {
	ID          string         `db:"id" json:"id"`
	Type        ConstraintType `db:"type" json:"type"`
	Priority    Priority       `db:"priority" json:"priority"`
	Entities    pq.StringArray `db:"entities" json:"entities"`
	Rule        ConstraintRule `db:"rule" json:"rule"`
	IsActive    bool           `db:"is_active" json:"isActive"`
	Weight      float64        `db:"weight" json:"weight"`
	Description string         `db:"description" json:"description"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// ViolationSeverity splits violations into must-fix and penalty-only.
type ViolationSeverity string

const (
	SeverityHard ViolationSeverity = "hard"
	SeveritySoft ViolationSeverity = "soft"
)

// Violation is a single failed evaluation of a constraint.
type Violation struct {
	ConstraintID   string            `json:"constraintId"`
	ConstraintType ConstraintType    `json:"constraintType"`
	Severity       ViolationSeverity `json:"severity"`
	Priority       Priority          `json:"priority"`
	SessionIDs     []string          `json:"sessionIds"`
	EntityIDs      []string          `json:"entityIds"`
	Description    string            `json:"description"`
	ViolationScore float64           `json:"violationScore"`
	Weight         float64           `json:"weight"`
}

// ValidationSummary counts evaluated and violated constraints.
type ValidationSummary struct {
	TotalConstraints    int `json:"totalConstraints"`
	ViolatedConstraints int `json:"violatedConstraints"`
}

// ValidationResult is the outcome of validating a session set against constraints.
type ValidationResult struct {
	Violations     []Violation       `json:"violations"`
	HardViolations []Violation       `json:"hardViolations"`
	SoftViolations []Violation       `json:"softViolations"`
	TotalScore     float64           `json:"totalScore"`
	IsValid        bool              `json:"isValid"`
	Summary        ValidationSummary `json:"summary"`
}

// ConstraintFilter narrows constraint listings. Zero values match everything.
type ConstraintFilter struct {
	IDs        []string
	Type       ConstraintType
	ActiveOnly bool
}

// Matches applies the filter in memory.
func (f ConstraintFilter) Matches(c Constraint) bool {
	if f.Type != "" && c.Type != f.Type {
		return false
	}
	if f.ActiveOnly && !c.IsActive {
		return false
	}
	if len(f.IDs) == 0 {
		return true
	}
	for _, id := range f.IDs {
		if id == c.ID {
			return true
		}
	}
	return false
}
