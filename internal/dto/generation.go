package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// GenerationParameters mirrors models.OptimizationParameters with request validation tags. Range
// checks that depend on configuration live in the service.
type GenerationParameters struct {
	Weights             models.ObjectiveWeights `json:"weights"`
	MaxSolveTimeSeconds int                     `json:"maxSolveTimeSeconds" validate:"required"`
	StartDate           time.Time               `json:"startDate" validate:"required"`
	EndDate             time.Time               `json:"endDate" validate:"required"`
	WorkingHours        models.WorkingHours     `json:"workingHours"`
}

// Model converts to the optimizer contract type.
func (p GenerationParameters) Model() models.OptimizationParameters {
	return models.OptimizationParameters{
		Weights:             p.Weights,
		MaxSolveTimeSeconds: p.MaxSolveTimeSeconds,
		StartDate:           p.StartDate,
		EndDate:             p.EndDate,
		WorkingHours:        p.WorkingHours,
	}
}

// GenerateTimetableRequest captures POST /timetables/generate payload. Empty id lists select every
// stored entity of that kind.
type GenerateTimetableRequest struct {
	Name          string               `json:"name" validate:"required,max=200"`
	Parameters    GenerationParameters `json:"parameters"`
	VenueIDs      []string             `json:"venueIds"`
	CourseIDs     []string             `json:"courseIds"`
	ConstraintIDs []string             `json:"constraintIds"`
	Persist       bool                 `json:"persist"`
	RequestedBy   string               `json:"requestedBy"`
}

// GenerationJobResponse is returned after enqueueing a generation.
type GenerationJobResponse struct {
	ID       string                     `json:"id"`
	Status   models.GenerationJobStatus `json:"status"`
	Progress models.GenerationProgress  `json:"progress"`
}

// GenerationJobStatusResponse exposes job progress and, once finished, the result.
type GenerationJobStatusResponse struct {
	ID         string                     `json:"id"`
	Status     models.GenerationJobStatus `json:"status"`
	Progress   models.GenerationProgress  `json:"progress"`
	Result     *models.GenerationResult   `json:"result,omitempty"`
	Error      *string                    `json:"error,omitempty"`
	FinishedAt *time.Time                 `json:"finishedAt,omitempty"`
}

// CreateConstraintRequest registers a constraint.
type CreateConstraintRequest struct {
	Type        models.ConstraintType `json:"type" validate:"required"`
	Priority    models.Priority       `json:"priority" validate:"omitempty,oneof=CRITICAL HIGH MEDIUM LOW"`
	Entities    []string              `json:"entities"`
	Rule        models.ConstraintRule `json:"rule"`
	IsActive    *bool                 `json:"isActive"`
	Weight      float64               `json:"weight" validate:"gte=0,lte=1"`
	Description string                `json:"description" validate:"max=500"`
}

// UpdateConstraintRequest replaces only the fields that are set.
type UpdateConstraintRequest struct {
	Priority    *models.Priority       `json:"priority" validate:"omitempty,oneof=CRITICAL HIGH MEDIUM LOW"`
	Entities    *[]string              `json:"entities"`
	Rule        *models.ConstraintRule `json:"rule"`
	IsActive    *bool                  `json:"isActive"`
	Weight      *float64               `json:"weight" validate:"omitempty,gte=0,lte=1"`
	Description *string                `json:"description" validate:"omitempty,max=500"`
}

// ConstraintQuery filters constraint listings.
type ConstraintQuery struct {
	Type       models.ConstraintType `form:"type"`
	ActiveOnly bool                  `form:"activeOnly"`
}

// SetConstraintActiveRequest toggles a constraint.
type SetConstraintActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// ValidateSessionsRequest validates an ad-hoc session set against stored active constraints.
type ValidateSessionsRequest struct {
	Sessions      []models.Session `json:"sessions" validate:"required,min=1"`
	ConstraintIDs []string         `json:"constraintIds"`
}
