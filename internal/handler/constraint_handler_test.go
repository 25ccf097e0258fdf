package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

type constraintManagerStub struct {
	err       error
	query     dto.ConstraintQuery
	created   dto.CreateConstraintRequest
	updated   dto.UpdateConstraintRequest
	toggled   dto.SetConstraintActiveRequest
	deleted   string
	validated dto.ValidateSessionsRequest
}

func (s *constraintManagerStub) List(ctx context.Context, query dto.ConstraintQuery) ([]models.Constraint, error) {
	s.query = query
	return []models.Constraint{{ID: "c-1"}}, s.err
}

func (s *constraintManagerStub) Get(ctx context.Context, id string) (*models.Constraint, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Constraint{ID: id}, nil
}

func (s *constraintManagerStub) Create(ctx context.Context, req dto.CreateConstraintRequest) (*models.Constraint, error) {
	s.created = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.Constraint{ID: "c-new", Type: req.Type, IsActive: true}, nil
}

func (s *constraintManagerStub) Update(ctx context.Context, id string, req dto.UpdateConstraintRequest) (*models.Constraint, error) {
	s.updated = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.Constraint{ID: id}, nil
}

func (s *constraintManagerStub) SetActive(ctx context.Context, id string, req dto.SetConstraintActiveRequest) (*models.Constraint, error) {
	s.toggled = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.Constraint{ID: id, IsActive: *req.IsActive}, nil
}

func (s *constraintManagerStub) Delete(ctx context.Context, id string) error {
	s.deleted = id
	return s.err
}

func (s *constraintManagerStub) ValidateSessions(ctx context.Context, req dto.ValidateSessionsRequest) (*models.ValidationResult, error) {
	s.validated = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.ValidationResult{IsValid: true}, nil
}

func (s *constraintManagerStub) ValidateSchedule(ctx context.Context, scheduleID string) (*models.ValidationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.ValidationResult{IsValid: false, Summary: models.ValidationSummary{TotalConstraints: 3, ViolatedConstraints: 1}}, nil
}

func constraintRouter(stub *constraintManagerStub) http.Handler {
	return newTestRouter(Handlers{
		Schedules:   &ScheduleHandler{service: &scheduleMutatorStub{}},
		Constraints: &ConstraintHandler{service: stub},
		Generation:  &GenerationHandler{generator: &generatorStub{}, jobs: &jobsStub{}},
		Export:      &ExportHandler{service: &exporterStub{}},
	})
}

func TestConstraintHandlerCRUD(t *testing.T) {
	stub := &constraintManagerStub{}
	router := constraintRouter(stub)

	w := performRequest(router, http.MethodPost, "/api/v1/constraints",
		[]byte(`{"type":"TIME_WINDOW","priority":"HIGH","rule":{"value":{"startTime":"08:00","endTime":"16:00"}}}`))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.ConstraintTimeWindow, stub.created.Type)
	assert.JSONEq(t, `{"startTime":"08:00","endTime":"16:00"}`, string(stub.created.Rule.Payload))

	w = performRequest(router, http.MethodGet, "/api/v1/constraints?type=TIME_WINDOW&activeOnly=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, stub.query.ActiveOnly)
	assert.Equal(t, models.ConstraintTimeWindow, stub.query.Type)

	w = performRequest(router, http.MethodPut, "/api/v1/constraints/c-1", []byte(`{"weight":0.4}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.updated.Weight)
	assert.Equal(t, 0.4, *stub.updated.Weight)

	w = performRequest(router, http.MethodPatch, "/api/v1/constraints/c-1/active", []byte(`{"isActive":false}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isActive":false`)

	w = performRequest(router, http.MethodDelete, "/api/v1/constraints/c-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "c-1", stub.deleted)
}

func TestConstraintHandlerValidation(t *testing.T) {
	stub := &constraintManagerStub{}
	router := constraintRouter(stub)

	w := performRequest(router, http.MethodPost, "/api/v1/constraints/validate", []byte(`{"sessions":[{"id":"s1"}],"constraintIds":["c-1"]}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"c-1"}, stub.validated.ConstraintIDs)

	w = performRequest(router, http.MethodGet, "/api/v1/schedules/sched-1/constraint-violations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"violatedConstraints":1`)
}

func TestConstraintHandlerErrors(t *testing.T) {
	router := constraintRouter(&constraintManagerStub{err: appErrors.Clone(appErrors.ErrNotFound, "constraint not found")})

	w := performRequest(router, http.MethodGet, "/api/v1/constraints/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, http.MethodPost, "/api/v1/constraints", []byte(`[`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
