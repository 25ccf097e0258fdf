package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// GenerationSource records who produced a generated timetable.
type GenerationSource string

const (
	GenerationSourceOptimizer GenerationSource = "optimizer"
	GenerationSourceFallback  GenerationSource = "fallback"
)

// GenerationResult is the outcome of an automated timetable generation. Success is false only for
// unrecoverable input problems, which are listed in Errors.
type GenerationResult struct {
	Success               bool              `json:"success"`
	ScheduleID            *string           `json:"scheduleId,omitempty"`
	Sessions              []Session         `json:"sessions"`
	Score                 float64           `json:"score"`
	FallbackUsed          bool              `json:"fallbackUsed"`
	Source                GenerationSource  `json:"source,omitempty"`
	Unscheduled           []string          `json:"unscheduled,omitempty"`
	Warnings              []string          `json:"warnings"`
	Errors                []string          `json:"errors"`
	Clashes               []Clash           `json:"clashes"`
	Validation            *ValidationResult `json:"validation,omitempty"`
	ProcessingTimeSeconds float64           `json:"processingTimeSeconds"`
}

// Value marshals the result for JSONB persistence.
func (r GenerationResult) Value() (driver.Value, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal generation result: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload.
func (r *GenerationResult) Scan(value interface{}) error {
	if value == nil {
		*r = GenerationResult{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for GenerationResult", value)
	}
	if len(data) == 0 {
		*r = GenerationResult{}
		return nil
	}
	if err := json.Unmarshal(data, r); err != nil {
		return fmt.Errorf("unmarshal generation result: %w", err)
	}
	return nil
}

// GenerationJobStatus captures background job lifecycle states.
type GenerationJobStatus string

const (
	GenerationJobQueued    GenerationJobStatus = "QUEUED"
	GenerationJobRunning   GenerationJobStatus = "RUNNING"
	GenerationJobCompleted GenerationJobStatus = "COMPLETED"
	GenerationJobFailed    GenerationJobStatus = "FAILED"
	GenerationJobCancelled GenerationJobStatus = "CANCELLED"
)

// Terminal reports whether the job will not change any more.
func (s GenerationJobStatus) Terminal() bool {
	return s == GenerationJobCompleted || s == GenerationJobFailed || s == GenerationJobCancelled
}

// GenerationJob tracks an asynchronous generation request.
type GenerationJob struct {
	ID           string              `json:"id"`
	Status       GenerationJobStatus `json:"status"`
	Progress     GenerationProgress  `json:"progress"`
	Result       *GenerationResult   `json:"result,omitempty"`
	RequestedBy  string              `json:"requestedBy,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	FinishedAt   *time.Time          `json:"finishedAt,omitempty"`
	ErrorMessage *string             `json:"error,omitempty"`
}
