package models

import "time"

// ObjectiveWeights balance the optimizer objectives. They must sum to 1.0.
type ObjectiveWeights struct {
	ConflictMinimization   float64 `json:"conflictMinimization"`
	PreferenceSatisfaction float64 `json:"preferenceSatisfaction"`
	ResourceUtilization    float64 `json:"resourceUtilization"`
	WorkloadBalance        float64 `json:"workloadBalance"`
}

// Sum adds all weights.
func (w ObjectiveWeights) Sum() float64 {
	return w.ConflictMinimization + w.PreferenceSatisfaction + w.ResourceUtilization + w.WorkloadBalance
}

// WorkingHours is the daily template candidate slots are generated from.
type WorkingHours struct {
	StartHour int         `json:"startHour"`
	EndHour   int         `json:"endHour"`
	Days      []DayOfWeek `json:"days"`
}

// OptimizationParameters tune a generation request.
type OptimizationParameters struct {
	Weights             ObjectiveWeights `json:"weights"`
	MaxSolveTimeSeconds int              `json:"maxSolveTimeSeconds"`
	StartDate           time.Time        `json:"startDate"`
	EndDate             time.Time        `json:"endDate"`
	WorkingHours        WorkingHours     `json:"workingHours"`
}

// SchedulingEntities is the read-only snapshot handed to the optimizer.
type SchedulingEntities struct {
	Venues        []Venue        `json:"venues"`
	Lecturers     []Lecturer     `json:"lecturers"`
	Courses       []Course       `json:"courses"`
	StudentGroups []StudentGroup `json:"studentGroups"`
}

// OptimizationRequest is sent to the external optimizer.
type OptimizationRequest struct {
	Entities    SchedulingEntities     `json:"entities"`
	Constraints []Constraint           `json:"constraints"`
	Parameters  OptimizationParameters `json:"parameters"`
}

// OptimizationSolution is the optimizer's proposed timetable.
type OptimizationSolution struct {
	Sessions  []Session `json:"sessions"`
	Feasible  bool      `json:"feasible"`
	Score     float64   `json:"score"`
	Conflicts []Clash   `json:"conflicts"`
}

// OptimizationResponse is returned by the external optimizer.
type OptimizationResponse struct {
	Success               bool                  `json:"success"`
	Solution              *OptimizationSolution `json:"solution,omitempty"`
	Message               string                `json:"message"`
	ProcessingTimeSeconds float64               `json:"processingTimeSeconds"`
}

// GenerationProgress is reported to callers while a timetable is generated.
type GenerationProgress struct {
	Stage           string   `json:"stage"`
	ProgressPercent int      `json:"progressPercent"`
	Message         string   `json:"message"`
	CurrentStep     int      `json:"currentStep,omitempty"`
	TotalSteps      int      `json:"totalSteps,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	Errors          []string `json:"errors,omitempty"`
}

// ProgressFunc receives progress synchronously. Implementations should return quickly.
type ProgressFunc func(GenerationProgress)
