package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/engine"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

type scheduleRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	List(ctx context.Context, status models.ScheduleStatus) ([]models.Schedule, error)
	BumpVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleStatus, publishedBy *string) error
}

type sessionRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, sessions []*models.Session) error
	Update(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
	FindByID(ctx context.Context, id string) (*models.Session, error)
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.Session, error)
}

type referenceLoader interface {
	Load(ctx context.Context) (models.SchedulingEntities, error)
}

type activeConstraintLister interface {
	List(ctx context.Context, filter models.ConstraintFilter) ([]models.Constraint, error)
}

// ScheduleMutationService is the only writer of a schedule's session set. Every write is checked
// against the clash detector first and either fully applies or leaves the schedule untouched.
//
// Writers on the same schedule are serialized by an in-process lock. Running several API replicas
// against one database reopens the check-then-write race between processes.
type ScheduleMutationService struct {
	schedules   scheduleRepository
	sessions    sessionRepository
	reference   referenceLoader
	constraints activeConstraintLister
	tx          txProvider
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	rules       *engine.Validator
	logger      *zap.Logger
	quality     ScheduleQualityConfig
	locks       *scheduleLocks
}

// NewScheduleMutationService wires schedule dependencies.
func NewScheduleMutationService(
	schedules scheduleRepository,
	sessions sessionRepository,
	reference referenceLoader,
	constraints activeConstraintLister,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	quality ScheduleQualityConfig,
) *ScheduleMutationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleMutationService{
		schedules:   schedules,
		sessions:    sessions,
		reference:   reference,
		constraints: constraints,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		rules:       engine.NewValidator(),
		logger:      logger,
		quality:     quality.withDefaults(),
		locks:       newScheduleLocks(),
	}
}

// CreateSchedule opens an empty DRAFT schedule.
func (s *ScheduleMutationService) CreateSchedule(ctx context.Context, req dto.CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	schedule := &models.Schedule{Name: strings.TrimSpace(req.Name), Meta: req.Meta}
	if err := s.schedules.Create(ctx, nil, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

// GetSchedule returns one schedule.
func (s *ScheduleMutationService) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	return s.loadSchedule(ctx, id)
}

// ListSchedules returns schedules, optionally restricted to one status.
func (s *ScheduleMutationService) ListSchedules(ctx context.Context, status models.ScheduleStatus) ([]models.Schedule, error) {
	schedules, err := s.schedules.List(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return schedules, nil
}

// ListSessions returns the schedule's sessions filtered by query. Reads take no lock.
func (s *ScheduleMutationService) ListSessions(ctx context.Context, scheduleID string, query dto.SessionQuery) ([]models.Session, error) {
	if _, err := s.loadSchedule(ctx, scheduleID); err != nil {
		return nil, err
	}
	sessions, err := s.listSessions(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	day := models.DayOfWeek(strings.ToUpper(query.DayOfWeek))
	return lo.Filter(sessions, func(session models.Session, _ int) bool {
		return (day == "" || session.DayOfWeek == day) &&
			(query.LecturerID == "" || session.LecturerID == query.LecturerID) &&
			(query.VenueID == "" || session.VenueID == query.VenueID) &&
			(query.GroupID == "" || session.HasGroup(query.GroupID))
	}), nil
}

// AddSession persists the draft unless it clashes with the schedule's existing sessions.
func (s *ScheduleMutationService) AddSession(ctx context.Context, scheduleID string, draft dto.SessionDraft) (session *models.Session, err error) {
	defer func() { s.metrics.RecordMutation("add", err) }()

	if err := s.validator.Struct(draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	unlock := s.locks.lock(scheduleID)
	defer unlock()

	if _, err := s.writableSchedule(ctx, scheduleID); err != nil {
		return nil, err
	}

	candidate := models.Session{
		ScheduleID:    scheduleID,
		CourseID:      draft.CourseID,
		LecturerID:    draft.LecturerID,
		VenueID:       draft.VenueID,
		StudentGroups: draft.StudentGroups,
		StartTime:     draft.StartTime,
		EndTime:       draft.EndTime,
		DayOfWeek:     models.DayOfWeek(draft.DayOfWeek),
	}.Normalize()
	if err := candidate.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	ref, err := s.loadReference(ctx)
	if err != nil {
		return nil, err
	}
	if err := ensureSessionReferences(ref, candidate); err != nil {
		return nil, err
	}

	existing, err := s.listSessions(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if clashes := engine.NewClashDetector(ref).DetectSessionClashes(candidate, existing); len(clashes) > 0 {
		s.metrics.RecordClashes(clashes)
		return nil, conflictError("session clashes with the existing timetable", clashes)
	}

	err = inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.sessions.Create(ctx, tx, &candidate); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
		}
		return s.bumpVersion(ctx, tx, scheduleID)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateReports(ctx, scheduleID)
	s.logger.Info("session added", zap.String("schedule_id", scheduleID), zap.String("session_id", candidate.ID))
	return &candidate, nil
}

// UpdateSession merges patch into the session. Only clashes the merged session would newly introduce
// reject the update; clashes it already had are tolerated.
func (s *ScheduleMutationService) UpdateSession(ctx context.Context, sessionID string, patch dto.SessionPatch) (session *models.Session, err error) {
	defer func() { s.metrics.RecordMutation("update", err) }()

	if err := s.validator.Struct(patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if patch.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "update must change at least one field")
	}

	current, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.lock(current.ScheduleID)
	defer unlock()

	// reload under the lock; a concurrent writer may have moved or removed it
	if current, err = s.loadSession(ctx, sessionID); err != nil {
		return nil, err
	}
	if _, err := s.writableSchedule(ctx, current.ScheduleID); err != nil {
		return nil, err
	}

	merged := applySessionPatch(*current, patch).Normalize()
	if err := merged.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	ref, err := s.loadReference(ctx)
	if err != nil {
		return nil, err
	}
	if err := ensureSessionReferences(ref, merged); err != nil {
		return nil, err
	}

	all, err := s.listSessions(ctx, current.ScheduleID)
	if err != nil {
		return nil, err
	}
	others := lo.Filter(all, func(other models.Session, _ int) bool { return other.ID != sessionID })

	detector := engine.NewClashDetector(ref)
	before := lo.SliceToMap(detector.DetectSessionClashes(*current, others), func(c models.Clash) (string, struct{}) {
		return c.ID, struct{}{}
	})
	introduced := lo.Filter(detector.DetectSessionClashes(merged, others), func(c models.Clash, _ int) bool {
		_, existed := before[c.ID]
		return !existed
	})
	if len(introduced) > 0 {
		s.metrics.RecordClashes(introduced)
		return nil, conflictError("update would introduce new clashes", introduced)
	}

	err = inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.sessions.Update(ctx, tx, &merged); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "session not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
		}
		return s.bumpVersion(ctx, tx, merged.ScheduleID)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateReports(ctx, merged.ScheduleID)
	return &merged, nil
}

// RemoveSession deletes a session. Removal never adds clashes, so no check is run.
func (s *ScheduleMutationService) RemoveSession(ctx context.Context, sessionID string) (err error) {
	defer func() { s.metrics.RecordMutation("remove", err) }()

	current, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(current.ScheduleID)
	defer unlock()

	if _, err := s.writableSchedule(ctx, current.ScheduleID); err != nil {
		return err
	}

	err = inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.sessions.Delete(ctx, tx, sessionID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "session not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
		}
		return s.bumpVersion(ctx, tx, current.ScheduleID)
	})
	if err != nil {
		return err
	}

	s.invalidateReports(ctx, current.ScheduleID)
	return nil
}

// ValidateSchedule runs clash detection over every session pair, validates active constraints and
// adds the advisory quality pass. Reports are cached per schedule version.
func (s *ScheduleMutationService) ValidateSchedule(ctx context.Context, scheduleID string) (*dto.ScheduleValidationReport, error) {
	schedule, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	var cached dto.ScheduleValidationReport
	if s.cache.Get(ctx, reportCacheKey(schedule.ID, schedule.Version), &cached) {
		return &cached, nil
	}

	report, err := s.validate(ctx, schedule)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, reportCacheKey(schedule.ID, schedule.Version), report, 0)
	return report, nil
}

// PublishSchedule validates the schedule and marks it PUBLISHED when no clash exists.
func (s *ScheduleMutationService) PublishSchedule(ctx context.Context, scheduleID string, req dto.PublishScheduleRequest) (schedule *models.Schedule, err error) {
	defer func() { s.metrics.RecordMutation("publish", err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publish payload")
	}

	unlock := s.locks.lock(scheduleID)
	defer unlock()

	current, err := s.writableSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	report, err := s.validate(ctx, current)
	if err != nil {
		return nil, err
	}
	if len(report.Clashes) > 0 {
		return nil, conflictError(fmt.Sprintf("schedule has %d unresolved clashes", len(report.Clashes)), report.Clashes)
	}

	publisher := strings.TrimSpace(req.PublishedBy)
	if err := s.schedules.UpdateStatus(ctx, nil, scheduleID, models.ScheduleStatusPublished, &publisher); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish schedule")
	}
	s.invalidateReports(ctx, scheduleID)
	s.logger.Info("schedule published", zap.String("schedule_id", scheduleID), zap.String("published_by", publisher))
	return s.loadSchedule(ctx, scheduleID)
}

// ArchiveSchedule freezes a schedule. Archived schedules reject every further mutation.
func (s *ScheduleMutationService) ArchiveSchedule(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	unlock := s.locks.lock(scheduleID)
	defer unlock()

	if _, err := s.writableSchedule(ctx, scheduleID); err != nil {
		return nil, err
	}
	if err := s.schedules.UpdateStatus(ctx, nil, scheduleID, models.ScheduleStatusArchived, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive schedule")
	}
	s.invalidateReports(ctx, scheduleID)
	return s.loadSchedule(ctx, scheduleID)
}

// DetectClashes runs the clash detector over an unsaved session set. Nothing is persisted.
func (s *ScheduleMutationService) DetectClashes(ctx context.Context, req dto.DetectClashesRequest) ([]models.Clash, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clash detection payload")
	}
	sessions := make([]models.Session, 0, len(req.Sessions))
	for i, raw := range req.Sessions {
		session := raw.Normalize()
		if err := session.Validate(); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session %d: %s", i, err.Error()))
		}
		sessions = append(sessions, session)
	}

	ref, err := s.loadReference(ctx)
	if err != nil {
		return nil, err
	}
	clashes := engine.NewClashDetector(ref).DetectAllClashes(sessions)
	s.metrics.RecordClashes(clashes)
	return clashes, nil
}

func (s *ScheduleMutationService) validate(ctx context.Context, schedule *models.Schedule) (*dto.ScheduleValidationReport, error) {
	sessions, err := s.listSessions(ctx, schedule.ID)
	if err != nil {
		return nil, err
	}
	entities, err := s.reference.Load(ctx)
	if err != nil {
		return nil, err
	}
	ref := engine.NewReference(entities)

	clashes := engine.NewClashDetector(ref).DetectAllClashes(sessions)
	s.metrics.RecordClashes(clashes)

	report := &dto.ScheduleValidationReport{
		ScheduleID:  schedule.ID,
		Version:     schedule.Version,
		Valid:       len(clashes) == 0,
		Clashes:     clashes,
		Warnings:    []string{},
		Suggestions: []string{},
		GeneratedAt: time.Now().UTC(),
	}

	if s.constraints != nil {
		active, err := s.constraints.List(ctx, models.ConstraintFilter{ActiveOnly: true})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load constraints")
		}
		result := s.rules.ValidateConstraints(sessions, engine.ValidationContext{
			Venues:        entities.Venues,
			Lecturers:     entities.Lecturers,
			Courses:       entities.Courses,
			StudentGroups: entities.StudentGroups,
			Constraints:   active,
		})
		report.Constraints = &result
	}

	s.quality.apply(report, sessions, ref)
	return report, nil
}

func (s *ScheduleMutationService) loadSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

func (s *ScheduleMutationService) writableSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.loadSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	if schedule.Status == models.ScheduleStatusArchived {
		return nil, appErrors.Clone(appErrors.ErrConflict, "schedule is archived")
	}
	return schedule, nil
}

func (s *ScheduleMutationService) loadSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

func (s *ScheduleMutationService) listSessions(ctx context.Context, scheduleID string) ([]models.Session, error) {
	sessions, err := s.sessions.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}

func (s *ScheduleMutationService) loadReference(ctx context.Context) (*engine.Reference, error) {
	entities, err := s.reference.Load(ctx)
	if err != nil {
		return nil, err
	}
	return engine.NewReference(entities), nil
}

func (s *ScheduleMutationService) bumpVersion(ctx context.Context, exec sqlx.ExtContext, scheduleID string) error {
	if _, err := s.schedules.BumpVersion(ctx, exec, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bump schedule version")
	}
	return nil
}

func (s *ScheduleMutationService) invalidateReports(ctx context.Context, scheduleID string) {
	s.cache.Invalidate(ctx, reportCachePattern(scheduleID))
}

func applySessionPatch(session models.Session, patch dto.SessionPatch) models.Session {
	if patch.CourseID != nil {
		session.CourseID = *patch.CourseID
	}
	if patch.LecturerID != nil {
		session.LecturerID = *patch.LecturerID
	}
	if patch.VenueID != nil {
		session.VenueID = *patch.VenueID
	}
	if patch.StudentGroups != nil {
		session.StudentGroups = append([]string(nil), (*patch.StudentGroups)...)
	}
	if patch.StartTime != nil {
		session.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		session.EndTime = *patch.EndTime
	}
	switch {
	case patch.DayOfWeek != nil:
		session.DayOfWeek = models.DayOfWeek(*patch.DayOfWeek)
	case patch.StartTime != nil:
		session.DayOfWeek = models.DayOf(session.StartTime)
	}
	return session
}

// ensureSessionReferences fails with NOT_FOUND when the session points at unknown entities.
func ensureSessionReferences(ref *engine.Reference, session models.Session) error {
	var missing []string
	if _, ok := ref.Course(session.CourseID); !ok {
		missing = append(missing, "course "+session.CourseID)
	}
	if _, ok := ref.Lecturer(session.LecturerID); !ok {
		missing = append(missing, "lecturer "+session.LecturerID)
	}
	if _, ok := ref.Venue(session.VenueID); !ok {
		missing = append(missing, "venue "+session.VenueID)
	}
	for _, groupID := range session.StudentGroups {
		if _, ok := ref.StudentGroup(groupID); !ok {
			missing = append(missing, "student group "+groupID)
		}
	}
	if len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "unknown "+strings.Join(missing, ", "))
	}
	return nil
}

func conflictError(message string, clashes []models.Clash) error {
	conflict := &models.ClashConflictError{Message: message, Clashes: clashes}
	return appErrors.Wrap(conflict, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message).WithDetails(clashes)
}
