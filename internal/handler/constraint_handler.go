package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	"github.com/noah-isme/sma-timetable-engine/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/response"
)

type constraintManager interface {
	List(ctx context.Context, query dto.ConstraintQuery) ([]models.Constraint, error)
	Get(ctx context.Context, id string) (*models.Constraint, error)
	Create(ctx context.Context, req dto.CreateConstraintRequest) (*models.Constraint, error)
	Update(ctx context.Context, id string, req dto.UpdateConstraintRequest) (*models.Constraint, error)
	SetActive(ctx context.Context, id string, req dto.SetConstraintActiveRequest) (*models.Constraint, error)
	Delete(ctx context.Context, id string) error
	ValidateSessions(ctx context.Context, req dto.ValidateSessionsRequest) (*models.ValidationResult, error)
	ValidateSchedule(ctx context.Context, scheduleID string) (*models.ValidationResult, error)
}

// ConstraintHandler manages scheduling constraints.
type ConstraintHandler struct {
	service constraintManager
}

// NewConstraintHandler constructs the handler.
func NewConstraintHandler(svc *service.ConstraintService) *ConstraintHandler {
	return &ConstraintHandler{service: svc}
}

// List godoc
// @Summary List constraints
// @Tags Constraints
// @Produce json
// @Param type query string false "Constraint type"
// @Param activeOnly query bool false "Only active constraints"
// @Success 200 {object} response.Envelope
// @Router /constraints [get]
func (h *ConstraintHandler) List(c *gin.Context) {
	var query dto.ConstraintQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid constraint query"))
		return
	}
	constraints, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, constraints, map[string]interface{}{"total": len(constraints)})
}

// Get godoc
// @Summary Get a constraint
// @Tags Constraints
// @Produce json
// @Param id path string true "Constraint ID"
// @Success 200 {object} response.Envelope
// @Router /constraints/{id} [get]
func (h *ConstraintHandler) Get(c *gin.Context) {
	constraint, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, constraint)
}

// Create godoc
// @Summary Create a constraint
// @Tags Constraints
// @Accept json
// @Produce json
// @Param payload body dto.CreateConstraintRequest true "Constraint payload"
// @Success 201 {object} response.Envelope
// @Router /constraints [post]
func (h *ConstraintHandler) Create(c *gin.Context) {
	var req dto.CreateConstraintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid constraint payload"))
		return
	}
	constraint, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, constraint)
}

// Update godoc
// @Summary Update a constraint
// @Tags Constraints
// @Accept json
// @Produce json
// @Param id path string true "Constraint ID"
// @Param payload body dto.UpdateConstraintRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /constraints/{id} [put]
func (h *ConstraintHandler) Update(c *gin.Context) {
	var req dto.UpdateConstraintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid constraint payload"))
		return
	}
	constraint, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, constraint)
}

// SetActive godoc
// @Summary Enable or disable a constraint
// @Tags Constraints
// @Accept json
// @Produce json
// @Param id path string true "Constraint ID"
// @Param payload body dto.SetConstraintActiveRequest true "Active flag"
// @Success 200 {object} response.Envelope
// @Router /constraints/{id}/active [patch]
func (h *ConstraintHandler) SetActive(c *gin.Context) {
	var req dto.SetConstraintActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid constraint payload"))
		return
	}
	constraint, err := h.service.SetActive(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, constraint)
}

// Delete godoc
// @Summary Delete a constraint
// @Tags Constraints
// @Param id path string true "Constraint ID"
// @Success 204
// @Router /constraints/{id} [delete]
func (h *ConstraintHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ValidateSessions godoc
// @Summary Validate an unsaved session set against active constraints
// @Tags Constraints
// @Accept json
// @Produce json
// @Param payload body dto.ValidateSessionsRequest true "Sessions and optional constraint ids"
// @Success 200 {object} response.Envelope
// @Router /constraints/validate [post]
func (h *ConstraintHandler) ValidateSessions(c *gin.Context) {
	var req dto.ValidateSessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validation payload"))
		return
	}
	result, err := h.service.ValidateSessions(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// ValidateSchedule godoc
// @Summary Validate a stored schedule against active constraints
// @Tags Constraints
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/constraint-violations [get]
func (h *ConstraintHandler) ValidateSchedule(c *gin.Context) {
	result, err := h.service.ValidateSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
