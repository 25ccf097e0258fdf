package engine

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// ValidationContext bundles the read-only snapshot a validation run works against.
type ValidationContext struct {
	Venues        []models.Venue
	Lecturers     []models.Lecturer
	Courses       []models.Course
	StudentGroups []models.StudentGroup
	Constraints   []models.Constraint
}

// Entities drops the constraint list.
func (c ValidationContext) Entities() models.SchedulingEntities {
	return models.SchedulingEntities{
		Venues:        c.Venues,
		Lecturers:     c.Lecturers,
		Courses:       c.Courses,
		StudentGroups: c.StudentGroups,
	}
}

// EvaluationInput is handed to a ConstraintEvaluator. Sessions holds only the sessions the
// constraint's entity list touches; AllSessions is the full set for rules that need neighbours.
type EvaluationInput struct {
	Constraint  models.Constraint
	Sessions    []models.Session
	AllSessions []models.Session
	Reference   *Reference
}

// Finding is an evaluator's raw result. The validator stamps constraint identity, severity and weight.
type Finding struct {
	SessionIDs  []string
	EntityIDs   []string
	Description string
	// Score in [0,1]; values outside are clamped.
	Score float64
}

// ConstraintEvaluator evaluates one constraint type.
type ConstraintEvaluator interface {
	Evaluate(in EvaluationInput) []Finding
}

// EvaluatorFunc adapts a function to ConstraintEvaluator.
type EvaluatorFunc func(in EvaluationInput) []Finding

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(in EvaluationInput) []Finding {
	return f(in)
}

// Validator scores session sets against constraints. Evaluators are looked up in a registry keyed by
// constraint type, so new types only need a Register call.
type Validator struct {
	mu         sync.RWMutex
	evaluators map[models.ConstraintType]ConstraintEvaluator
}

// NewValidator returns a validator with the built-in evaluators registered.
func NewValidator() *Validator {
	v := &Validator{evaluators: make(map[models.ConstraintType]ConstraintEvaluator)}
	v.Register(models.ConstraintHardAvailability, EvaluatorFunc(evaluateHardAvailability))
	v.Register(models.ConstraintVenueCapacity, EvaluatorFunc(evaluateVenueCapacity))
	v.Register(models.ConstraintEquipmentRequirement, EvaluatorFunc(evaluateEquipmentRequirement))
	v.Register(models.ConstraintLecturerPreference, EvaluatorFunc(evaluateLecturerPreference))
	v.Register(models.ConstraintStudentBreak, EvaluatorFunc(evaluateStudentBreak))
	v.Register(models.ConstraintTimeWindow, EvaluatorFunc(evaluateTimeWindow))
	v.Register(models.ConstraintDepartmentPolicy, EvaluatorFunc(evaluateDepartmentPolicy))
	v.Register(models.ConstraintConsecutiveSessions, EvaluatorFunc(evaluateConsecutiveSessions))
	return v
}

// Register adds or replaces the evaluator for a constraint type.
func (v *Validator) Register(kind models.ConstraintType, evaluator ConstraintEvaluator) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.evaluators[kind] = evaluator
}

func (v *Validator) evaluator(kind models.ConstraintType) (ConstraintEvaluator, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	e, ok := v.evaluators[kind]
	return e, ok
}

// ValidateConstraints evaluates every active constraint of ctx against sessions. Inactive
// constraints are skipped entirely. Unknown types count as evaluated without violations.
func (v *Validator) ValidateConstraints(sessions []models.Session, ctx ValidationContext) models.ValidationResult {
	ref := NewReference(ctx.Entities())
	normalized := make([]models.Session, len(sessions))
	for i, s := range sessions {
		normalized[i] = s.Normalize()
	}

	result := models.ValidationResult{
		Violations:     []models.Violation{},
		HardViolations: []models.Violation{},
		SoftViolations: []models.Violation{},
	}
	violated := make(map[string]struct{})

	for _, raw := range ctx.Constraints {
		c := raw.Normalize()
		if !c.IsActive {
			continue
		}
		result.Summary.TotalConstraints++

		evaluator, ok := v.evaluator(c.Type)
		if !ok {
			continue
		}
		findings := evaluator.Evaluate(EvaluationInput{
			Constraint:  c,
			Sessions:    scopeSessions(c, normalized),
			AllSessions: normalized,
			Reference:   ref,
		})
		severity := SeverityOf(c)
		for _, f := range findings {
			violation := models.Violation{
				ConstraintID:   c.ID,
				ConstraintType: c.Type,
				Severity:       severity,
				Priority:       c.Priority,
				SessionIDs:     nonNil(f.SessionIDs),
				EntityIDs:      nonNil(f.EntityIDs),
				Description:    f.Description,
				ViolationScore: clamp01(f.Score),
				Weight:         c.Weight,
			}
			result.Violations = append(result.Violations, violation)
			if severity == models.SeverityHard {
				result.HardViolations = append(result.HardViolations, violation)
			} else {
				result.SoftViolations = append(result.SoftViolations, violation)
			}
			violated[c.ID] = struct{}{}
		}
	}

	result.Summary.ViolatedConstraints = len(violated)
	result.IsValid = len(result.HardViolations) == 0
	result.TotalScore = Score(result.HardViolations, result.SoftViolations)
	return result
}

// SeverityOf classifies a constraint. DEPARTMENT_POLICY and CONSECUTIVE_SESSIONS are hard only at
// CRITICAL or HIGH priority. Unknown types are soft.
func SeverityOf(c models.Constraint) models.ViolationSeverity {
	switch c.Type {
	case models.ConstraintHardAvailability,
		models.ConstraintVenueCapacity,
		models.ConstraintEquipmentRequirement,
		models.ConstraintStudentBreak,
		models.ConstraintTimeWindow:
		return models.SeverityHard
	case models.ConstraintDepartmentPolicy, models.ConstraintConsecutiveSessions:
		if c.Priority == models.PriorityCritical || c.Priority == models.PriorityHigh {
			return models.SeverityHard
		}
		return models.SeveritySoft
	default:
		return models.SeveritySoft
	}
}

// Score folds violations into [0,1]:
//
//	penalty = Σhard factor·(1+score) + Σsoft weight·factor·score·0.5
//	score   = 1 / (1 + penalty)
//
// Every term is non-negative, so adding a violation never raises the score.
func Score(hard, soft []models.Violation) float64 {
	penalty := 0.0
	for _, v := range hard {
		penalty += v.Priority.Factor() * (1 + clamp01(v.ViolationScore))
	}
	for _, v := range soft {
		weight := v.Weight
		if weight <= 0 {
			weight = models.DefaultConstraintWeight
		}
		penalty += weight * v.Priority.Factor() * clamp01(v.ViolationScore) * 0.5
	}
	return 1 / (1 + penalty)
}

// scopeSessions keeps the sessions whose id, course, lecturer, venue or any group is listed in the
// constraint's entities. An empty entity list applies to every session.
func scopeSessions(c models.Constraint, sessions []models.Session) []models.Session {
	if len(c.Entities) == 0 {
		return sessions
	}
	return lo.Filter(sessions, func(s models.Session, _ int) bool {
		return touches(c, s)
	})
}

func touches(c models.Constraint, s models.Session) bool {
	for _, id := range c.Entities {
		if id == s.ID || id == s.CourseID || id == s.LecturerID || id == s.VenueID || s.HasGroup(id) {
			return true
		}
	}
	return false
}

func listed(c models.Constraint, id string) bool {
	return len(c.Entities) == 0 || lo.Contains([]string(c.Entities), id)
}

// byDay groups sessions per weekday, each slice sorted by start time.
func byDay(sessions []models.Session) map[models.DayOfWeek][]models.Session {
	days := make(map[models.DayOfWeek][]models.Session)
	for _, s := range sessions {
		days[s.DayOfWeek] = append(days[s.DayOfWeek], s)
	}
	for _, list := range days {
		sort.SliceStable(list, func(i, j int) bool { return list[i].StartTime.Before(list[j].StartTime) })
	}
	return days
}

func sortedDays(days map[models.DayOfWeek][]models.Session) []models.DayOfWeek {
	return lo.Filter(models.AllDays, func(d models.DayOfWeek, _ int) bool {
		_, ok := days[d]
		return ok
	})
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
