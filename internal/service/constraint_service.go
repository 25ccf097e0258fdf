package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/engine"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

// ConstraintStore persists constraints. Postgres and in-memory implementations exist.
type ConstraintStore interface {
	FindByID(ctx context.Context, id string) (*models.Constraint, error)
	List(ctx context.Context, filter models.ConstraintFilter) ([]models.Constraint, error)
	Create(ctx context.Context, c *models.Constraint) error
	Update(ctx context.Context, c *models.Constraint) error
	Delete(ctx context.Context, id string) error
}

type scheduleSessionReader interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.Session, error)
}

// ConstraintService manages constraint definitions and runs the constraint validator.
type ConstraintService struct {
	store     ConstraintStore
	sessions  scheduleSessionReader
	reference referenceLoader
	rules     *engine.Validator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConstraintService wires the constraint store. rules may be nil for the built-in evaluators.
func NewConstraintService(store ConstraintStore, sessions scheduleSessionReader, reference referenceLoader, rules *engine.Validator, validate *validator.Validate, logger *zap.Logger) *ConstraintService {
	if rules == nil {
		rules = engine.NewValidator()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConstraintService{store: store, sessions: sessions, reference: reference, rules: rules, validator: validate, logger: logger}
}

// List returns constraints matching the query.
func (s *ConstraintService) List(ctx context.Context, query dto.ConstraintQuery) ([]models.Constraint, error) {
	filter := models.ConstraintFilter{
		Type:       models.ConstraintType(strings.ToUpper(strings.TrimSpace(string(query.Type)))),
		ActiveOnly: query.ActiveOnly,
	}
	constraints, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list constraints")
	}
	return constraints, nil
}

// Get returns one constraint.
func (s *ConstraintService) Get(ctx context.Context, id string) (*models.Constraint, error) {
	constraint, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "constraint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load constraint")
	}
	return constraint, nil
}

// Create stores a new constraint. Constraints are active unless the request says otherwise.
func (s *ConstraintService) Create(ctx context.Context, req dto.CreateConstraintRequest) (*models.Constraint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid constraint payload")
	}
	constraint := models.Constraint{
		Type:        req.Type,
		Priority:    req.Priority,
		Entities:    req.Entities,
		Rule:        req.Rule,
		IsActive:    req.IsActive == nil || *req.IsActive,
		Weight:      req.Weight,
		Description: strings.TrimSpace(req.Description),
	}.Normalize()
	if !constraint.Type.Known() {
		s.logger.Info("storing constraint with unregistered type", zap.String("type", string(constraint.Type)))
	}

	if err := s.store.Create(ctx, &constraint); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create constraint")
	}
	return &constraint, nil
}

// Update applies the set fields of req.
func (s *ConstraintService) Update(ctx context.Context, id string, req dto.UpdateConstraintRequest) (*models.Constraint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid constraint payload")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	if req.Priority != nil {
		updated.Priority = *req.Priority
	}
	if req.Entities != nil {
		updated.Entities = *req.Entities
	}
	if req.Rule != nil {
		updated.Rule = *req.Rule
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if req.Weight != nil {
		updated.Weight = *req.Weight
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	updated = updated.Normalize()

	if err := s.store.Update(ctx, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "constraint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update constraint")
	}
	return &updated, nil
}

// SetActive toggles whether the constraint takes part in validation.
func (s *ConstraintService) SetActive(ctx context.Context, id string, req dto.SetConstraintActiveRequest) (*models.Constraint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "isActive is required")
	}
	return s.Update(ctx, id, dto.UpdateConstraintRequest{IsActive: req.IsActive})
}

// Delete removes a constraint.
func (s *ConstraintService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "constraint not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete constraint")
	}
	return nil
}

// ValidateSessions validates an ad-hoc session set against stored active constraints, optionally
// restricted to constraintIDs.
func (s *ConstraintService) ValidateSessions(ctx context.Context, req dto.ValidateSessionsRequest) (*models.ValidationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid validation payload")
	}
	return s.run(ctx, req.Sessions, req.ConstraintIDs)
}

// ValidateSchedule validates a stored schedule's sessions against every active constraint.
func (s *ConstraintService) ValidateSchedule(ctx context.Context, scheduleID string) (*models.ValidationResult, error) {
	sessions, err := s.sessions.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return s.run(ctx, sessions, nil)
}

func (s *ConstraintService) run(ctx context.Context, sessions []models.Session, constraintIDs []string) (*models.ValidationResult, error) {
	constraints, err := s.store.List(ctx, models.ConstraintFilter{IDs: constraintIDs, ActiveOnly: true})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load constraints")
	}
	entities, err := s.reference.Load(ctx)
	if err != nil {
		return nil, err
	}
	result := s.rules.ValidateConstraints(sessions, engine.ValidationContext{
		Venues:        entities.Venues,
		Lecturers:     entities.Lecturers,
		Courses:       entities.Courses,
		StudentGroups: entities.StudentGroups,
		Constraints:   constraints,
	})
	return &result, nil
}
