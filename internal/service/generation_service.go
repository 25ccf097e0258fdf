package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/engine"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	"github.com/noah-isme/sma-timetable-engine/internal/optimizer"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

// Generation progress stages.
const (
	StageInitializing     = "initializing"
	StageLoadingEntities  = "loading_entities"
	StageValidatingInput  = "validating_input"
	StageOptimizing       = "optimizing"
	StageFallback         = "fallback"
	StageValidatingResult = "validating_result"
	StagePersisting       = "persisting"
	StageCompleted        = "completed"
)

const (
	minSolveTimeSeconds = 10
	maxSolveTimeSeconds = 3600
	weightTolerance     = 0.001

	fallbackProgressFrom = 40
	fallbackProgressTo   = 90
)

// Optimizer proposes a complete timetable. internal/optimizer.Client is the production implementation.
type Optimizer interface {
	Optimize(ctx context.Context, req models.OptimizationRequest) (*models.OptimizationResponse, error)
}

type generatedScheduleWriter interface {
	Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error
}

type generatedSessionWriter interface {
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, sessions []*models.Session) error
}

// GenerationDefaults fill parameters the request leaves unset.
type GenerationDefaults struct {
	WorkingHours models.WorkingHours
}

// TimetableGenerationService produces a whole timetable: one optimizer attempt, the local fallback
// scheduler when that fails, a clash and constraint re-check, and optional persistence as a DRAFT.
type TimetableGenerationService struct {
	reference   referenceLoader
	constraints activeConstraintLister
	optimizer   Optimizer
	fallback    *engine.FallbackScheduler
	rules       *engine.Validator
	schedules   generatedScheduleWriter
	sessions    generatedSessionWriter
	tx          txProvider
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	defaults    GenerationDefaults
}

// NewTimetableGenerationService wires generation dependencies. A nil optimizer sends every request
// straight to the fallback scheduler.
func NewTimetableGenerationService(
	reference referenceLoader,
	constraints activeConstraintLister,
	opt Optimizer,
	schedules generatedScheduleWriter,
	sessions generatedSessionWriter,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	defaults GenerationDefaults,
) *TimetableGenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableGenerationService{
		reference:   reference,
		constraints: constraints,
		optimizer:   opt,
		fallback:    engine.NewFallbackScheduler(),
		rules:       engine.NewValidator(),
		schedules:   schedules,
		sessions:    sessions,
		tx:          tx,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		defaults:    defaults,
	}
}

// GenerateAutomatedTimetable runs the generation pipeline. Malformed requests fail with VALIDATION_ERROR,
// bad parameters with CONFIGURATION_ERROR, both before any work. Unusable input data yields a result
// with Success=false and Errors. Optimizer failures are recovered by the fallback and only show up as
// warnings. A cancelled ctx returns ctx.Err().
func (s *TimetableGenerationService) GenerateAutomatedTimetable(ctx context.Context, req dto.GenerateTimetableRequest, progress models.ProgressFunc) (*models.GenerationResult, error) {
	started := time.Now()
	tracker := newProgressTracker(progress)
	tracker.stage(StageInitializing, 0, "starting timetable generation")

	params, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	result := &models.GenerationResult{
		Sessions: []models.Session{},
		Warnings: []string{},
		Errors:   []string{},
		Clashes:  []models.Clash{},
	}
	finish := func(res *models.GenerationResult) *models.GenerationResult {
		res.ProcessingTimeSeconds = time.Since(started).Seconds()
		s.metrics.ObserveGeneration(res.Source, res.Success, time.Since(started))
		return res
	}

	tracker.stage(StageLoadingEntities, 10, "loading scheduling entities")
	entities, constraints, missing, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}

	tracker.stage(StageValidatingInput, 20, "checking entity integrity")
	if problems := append(missing, checkIntegrity(entities)...); len(problems) > 0 {
		result.Errors = problems
		tracker.fail(problems)
		return finish(result), nil
	}

	scheduleID := ""
	if req.Persist {
		scheduleID = uuid.NewString()
	}

	tracker.stage(StageOptimizing, 30, "requesting optimized timetable")
	sessions, score, ok := s.optimize(ctx, models.OptimizationRequest{Entities: entities, Constraints: constraints, Parameters: params}, result)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok {
		result.Source = models.GenerationSourceOptimizer
	} else {
		fb, err := s.fallback.Schedule(ctx, engine.FallbackInput{
			ScheduleID:   scheduleID,
			Entities:     entities,
			StartDate:    params.StartDate,
			EndDate:      params.EndDate,
			WorkingHours: params.WorkingHours,
		}, tracker.scaled(StageFallback, fallbackProgressFrom, fallbackProgressTo))
		s.metrics.RecordFallbackRun()
		if err != nil {
			return nil, err
		}
		result.FallbackUsed = true
		result.Source = models.GenerationSourceFallback
		result.Warnings = append(result.Warnings, fb.Warnings...)
		result.Unscheduled = fb.Unscheduled
		if !fb.Success {
			result.Errors = append(result.Errors, fb.Errors...)
			tracker.fail(result.Errors)
			return finish(result), nil
		}
		sessions, score = fb.Sessions, fb.Score
	}

	tracker.stage(StageValidatingResult, 90, "re-checking generated timetable")
	sessions = lo.Map(sessions, func(session models.Session, _ int) models.Session {
		session.ScheduleID = scheduleID
		return session.Normalize()
	})
	ref := engine.NewReference(entities)
	result.Clashes = engine.NewClashDetector(ref).DetectAllClashes(sessions)
	if len(result.Clashes) > 0 {
		s.metrics.RecordClashes(result.Clashes)
		result.Warnings = append(result.Warnings, fmt.Sprintf("Generated timetable contains %d clashes", len(result.Clashes)))
	}
	validation := s.rules.ValidateConstraints(sessions, engine.ValidationContext{
		Venues:        entities.Venues,
		Lecturers:     entities.Lecturers,
		Courses:       entities.Courses,
		StudentGroups: entities.StudentGroups,
		Constraints:   constraints,
	})
	result.Validation = &validation
	result.Sessions = sessions
	result.Score = score
	result.Success = true

	if req.Persist {
		tracker.stage(StagePersisting, 95, "saving draft schedule")
		if err := s.persist(ctx, scheduleID, req, result); err != nil {
			return nil, err
		}
		result.ScheduleID = &scheduleID
	}

	tracker.done(result)
	s.logger.Info("timetable generated",
		zap.String("source", string(result.Source)),
		zap.Int("sessions", len(result.Sessions)),
		zap.Int("unscheduled", len(result.Unscheduled)),
		zap.Int("clashes", len(result.Clashes)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return finish(result), nil
}

// CheckRequest reports the errors GenerateAutomatedTimetable would reject req with, without running it.
func (s *TimetableGenerationService) CheckRequest(req dto.GenerateTimetableRequest) error {
	_, err := s.prepare(req)
	return err
}

func (s *TimetableGenerationService) prepare(req dto.GenerateTimetableRequest) (models.OptimizationParameters, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.OptimizationParameters{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	params := s.withDefaults(req.Parameters.Model())
	if err := checkParameters(params); err != nil {
		return models.OptimizationParameters{}, err
	}
	return params, nil
}

func (s *TimetableGenerationService) withDefaults(params models.OptimizationParameters) models.OptimizationParameters {
	hours := params.WorkingHours
	if hours.StartHour == 0 && hours.EndHour == 0 {
		hours.StartHour, hours.EndHour = s.defaults.WorkingHours.StartHour, s.defaults.WorkingHours.EndHour
	}
	if len(hours.Days) == 0 {
		hours.Days = s.defaults.WorkingHours.Days
	}
	params.WorkingHours = hours
	return params
}

// checkParameters rejects parameter sets no run could honour.
func checkParameters(params models.OptimizationParameters) error {
	var problems []string
	if sum := params.Weights.Sum(); math.Abs(sum-1) > weightTolerance {
		problems = append(problems, fmt.Sprintf("objective weights must sum to 1.0, got %.3f", sum))
	}
	if params.MaxSolveTimeSeconds < minSolveTimeSeconds || params.MaxSolveTimeSeconds > maxSolveTimeSeconds {
		problems = append(problems, fmt.Sprintf("maxSolveTimeSeconds must be between %d and %d", minSolveTimeSeconds, maxSolveTimeSeconds))
	}
	hours := params.WorkingHours
	if hours.StartHour < 0 || hours.EndHour > 24 || hours.StartHour >= hours.EndHour {
		problems = append(problems, fmt.Sprintf("working hours %d-%d are invalid", hours.StartHour, hours.EndHour))
	}
	for _, day := range hours.Days {
		if !day.Valid() {
			problems = append(problems, fmt.Sprintf("working day %q is invalid", day))
		}
	}
	if params.EndDate.Before(params.StartDate) {
		problems = append(problems, "endDate must not be before startDate")
	}
	if len(problems) > 0 {
		return appErrors.Clone(appErrors.ErrConfiguration, strings.Join(problems, "; ")).WithDetails(problems)
	}
	return nil
}

// load fetches the snapshot and narrows it to the requested venues and courses. Requested ids that do
// not exist are returned as integrity problems.
func (s *TimetableGenerationService) load(ctx context.Context, req dto.GenerateTimetableRequest) (models.SchedulingEntities, []models.Constraint, []string, error) {
	entities, err := s.reference.Load(ctx)
	if err != nil {
		return models.SchedulingEntities{}, nil, nil, err
	}
	var constraints []models.Constraint
	if s.constraints != nil {
		constraints, err = s.constraints.List(ctx, models.ConstraintFilter{IDs: req.ConstraintIDs, ActiveOnly: true})
		if err != nil {
			return models.SchedulingEntities{}, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load constraints")
		}
	}

	var missing []string
	if len(req.VenueIDs) > 0 {
		entities.Venues = lo.Filter(entities.Venues, func(v models.Venue, _ int) bool { return lo.Contains(req.VenueIDs, v.ID) })
		found := lo.Map(entities.Venues, func(v models.Venue, _ int) string { return v.ID })
		missing = append(missing, lo.Map(lo.Without(lo.Uniq(req.VenueIDs), found...), func(id string, _ int) string {
			return fmt.Sprintf("Venue %s not found", id)
		})...)
	}
	if len(req.CourseIDs) > 0 {
		entities.Courses = lo.Filter(entities.Courses, func(c models.Course, _ int) bool { return lo.Contains(req.CourseIDs, c.ID) })
		found := lo.Map(entities.Courses, func(c models.Course, _ int) string { return c.ID })
		missing = append(missing, lo.Map(lo.Without(lo.Uniq(req.CourseIDs), found...), func(id string, _ int) string {
			return fmt.Sprintf("Course %s not found", id)
		})...)
	}
	return entities, constraints, missing, nil
}

// checkIntegrity lists the input problems that make generation pointless.
func checkIntegrity(entities models.SchedulingEntities) []string {
	ref := engine.NewReference(entities)
	var problems []string
	if len(ref.Venues()) == 0 {
		problems = append(problems, engine.NoVenuesMessage)
	}
	if len(ref.Courses()) == 0 {
		problems = append(problems, "No courses to schedule")
	}
	largest := lo.MaxBy(ref.Venues(), func(a, b models.Venue) bool { return a.Capacity > b.Capacity })

	for _, course := range ref.Courses() {
		if course.LecturerID != "" {
			if _, ok := ref.Lecturer(course.LecturerID); !ok {
				problems = append(problems, fmt.Sprintf("Course %s references unknown lecturer %s", course.ID, course.LecturerID))
			}
		}
		for _, groupID := range course.StudentGroups {
			if _, ok := ref.StudentGroup(groupID); !ok {
				problems = append(problems, fmt.Sprintf("Course %s references unknown student group %s", course.ID, groupID))
			}
		}
		if attendees := ref.GroupsSize(course.StudentGroups); len(ref.Venues()) > 0 && attendees > largest.Capacity {
			problems = append(problems, fmt.Sprintf("Course %s needs %d seats but the largest venue holds %d", course.ID, attendees, largest.Capacity))
		}
	}
	return problems
}

// optimize makes exactly one optimizer call. Any failure becomes a warning on result.
func (s *TimetableGenerationService) optimize(ctx context.Context, req models.OptimizationRequest, result *models.GenerationResult) ([]models.Session, float64, bool) {
	if s.optimizer == nil {
		result.Warnings = append(result.Warnings, "Optimizer disabled; used fallback scheduler")
		return nil, 0, false
	}

	resp, err := s.optimizer.Optimize(ctx, req)
	switch {
	case err != nil:
	case resp == nil || resp.Solution == nil:
		err = &optimizer.Error{Reason: optimizer.ReasonRejected, Message: "empty solution"}
	case !resp.Success:
		message := resp.Message
		if message == "" {
			message = "optimization unsuccessful"
		}
		err = &optimizer.Error{Reason: optimizer.ReasonRejected, Message: message}
	}
	if err != nil {
		reason := optimizer.ReasonTransport
		var optErr *optimizer.Error
		if errors.As(err, &optErr) {
			reason = optErr.Reason
		}
		s.metrics.RecordOptimizerFailure(reason)
		external := appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "optimizer call failed")
		s.logger.Warn("optimizer failed, using fallback scheduler", zap.String("reason", reason), zap.Error(external))
		result.Warnings = append(result.Warnings, fmt.Sprintf("Optimizer unavailable (%s); used fallback scheduler", err.Error()))
		return nil, 0, false
	}

	solution := resp.Solution
	if !solution.Feasible {
		result.Warnings = append(result.Warnings, "Optimizer returned an infeasible solution")
	}
	return solution.Sessions, solution.Score, true
}

func (s *TimetableGenerationService) persist(ctx context.Context, scheduleID string, req dto.GenerateTimetableRequest, result *models.GenerationResult) error {
	meta, err := json.Marshal(map[string]any{
		"source":       result.Source,
		"score":        result.Score,
		"fallbackUsed": result.FallbackUsed,
		"requestedBy":  req.RequestedBy,
		"unscheduled":  result.Unscheduled,
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule metadata")
	}

	schedule := &models.Schedule{ID: scheduleID, Name: req.Name, Status: models.ScheduleStatusDraft, Meta: types.JSONText(meta)}
	rows := make([]*models.Session, len(result.Sessions))
	for i := range result.Sessions {
		rows[i] = &result.Sessions[i]
	}
	return inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.schedules.Create(ctx, tx, schedule); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
		}
		if err := s.sessions.CreateBatch(ctx, tx, rows); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store generated sessions")
		}
		return nil
	})
}

// progressTracker forwards progress to the caller and remembers the last snapshot.
type progressTracker struct {
	fn models.ProgressFunc
}

func newProgressTracker(fn models.ProgressFunc) *progressTracker {
	return &progressTracker{fn: fn}
}

func (t *progressTracker) emit(p models.GenerationProgress) {
	if t.fn != nil {
		t.fn(p)
	}
}

func (t *progressTracker) stage(stage string, percent int, message string) {
	t.emit(models.GenerationProgress{Stage: stage, ProgressPercent: percent, Message: message})
}

func (t *progressTracker) fail(problems []string) {
	t.emit(models.GenerationProgress{Stage: StageCompleted, ProgressPercent: 100, Message: "generation aborted", Errors: problems})
}

func (t *progressTracker) done(result *models.GenerationResult) {
	t.emit(models.GenerationProgress{
		Stage:           StageCompleted,
		ProgressPercent: 100,
		Message:         fmt.Sprintf("generated %d sessions", len(result.Sessions)),
		Warnings:        result.Warnings,
	})
}

// scaled maps a sub-step's 0-100 progress onto [from, to] of the overall run.
func (t *progressTracker) scaled(stage string, from, to int) models.ProgressFunc {
	return func(p models.GenerationProgress) {
		p.ProgressPercent = from + p.ProgressPercent*(to-from)/100
		p.Stage = stage
		t.emit(p)
	}
}
