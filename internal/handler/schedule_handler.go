package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	"github.com/noah-isme/sma-timetable-engine/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/logger"
	"github.com/noah-isme/sma-timetable-engine/pkg/response"
)

type scheduleMutator interface {
	CreateSchedule(ctx context.Context, req dto.CreateScheduleRequest) (*models.Schedule, error)
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	ListSchedules(ctx context.Context, status models.ScheduleStatus) ([]models.Schedule, error)
	ListSessions(ctx context.Context, scheduleID string, query dto.SessionQuery) ([]models.Session, error)
	AddSession(ctx context.Context, scheduleID string, draft dto.SessionDraft) (*models.Session, error)
	UpdateSession(ctx context.Context, sessionID string, patch dto.SessionPatch) (*models.Session, error)
	RemoveSession(ctx context.Context, sessionID string) error
	ValidateSchedule(ctx context.Context, scheduleID string) (*dto.ScheduleValidationReport, error)
	PublishSchedule(ctx context.Context, scheduleID string, req dto.PublishScheduleRequest) (*models.Schedule, error)
	ArchiveSchedule(ctx context.Context, scheduleID string) (*models.Schedule, error)
	DetectClashes(ctx context.Context, req dto.DetectClashesRequest) ([]models.Clash, error)
}

// ScheduleHandler exposes schedule and session endpoints.
type ScheduleHandler struct {
	service scheduleMutator
	logger  *zap.Logger
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.ScheduleMutationService, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: svc, logger: logger}
}

// Create godoc
// @Summary Create an empty draft schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	schedule, err := h.service.CreateSchedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// List godoc
// @Summary List schedules
// @Tags Schedules
// @Produce json
// @Param status query string false "DRAFT, PUBLISHED or ARCHIVED"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	status := models.ScheduleStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	if status != "" && !status.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be DRAFT, PUBLISHED or ARCHIVED"))
		return
	}
	schedules, err := h.service.ListSchedules(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, map[string]interface{}{"total": len(schedules)})
}

// Get godoc
// @Summary Get a schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.service.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schedule)
}

// Sessions godoc
// @Summary List sessions of a schedule
// @Tags Sessions
// @Produce json
// @Param id path string true "Schedule ID"
// @Param dayOfWeek query string false "Weekday"
// @Param lecturerId query string false "Lecturer ID"
// @Param venueId query string false "Venue ID"
// @Param groupId query string false "Student group ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/sessions [get]
func (h *ScheduleHandler) Sessions(c *gin.Context) {
	var query dto.SessionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session query"))
		return
	}
	sessions, err := h.service.ListSessions(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, map[string]interface{}{"total": len(sessions)})
}

// AddSession godoc
// @Summary Add a session
// @Description Rejected with 409 and the clash list when the session clashes with the existing timetable.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.SessionDraft true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id}/sessions [post]
func (h *ScheduleHandler) AddSession(c *gin.Context) {
	var draft dto.SessionDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	session, err := h.service.AddSession(c.Request.Context(), c.Param("id"), draft)
	if err != nil {
		h.logRejected(c, "add", err)
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// UpdateSession godoc
// @Summary Update a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SessionPatch true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id} [patch]
func (h *ScheduleHandler) UpdateSession(c *gin.Context) {
	var patch dto.SessionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	session, err := h.service.UpdateSession(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.logRejected(c, "update", err)
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// RemoveSession godoc
// @Summary Remove a session
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *ScheduleHandler) RemoveSession(c *gin.Context) {
	if err := h.service.RemoveSession(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Validate godoc
// @Summary Validate a schedule
// @Description Clashes, constraint violations, quality warnings and venue utilization.
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/validation [get]
func (h *ScheduleHandler) Validate(c *gin.Context) {
	report, err := h.service.ValidateSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// Publish godoc
// @Summary Publish a schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.PublishScheduleRequest true "Publisher"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id}/publish [post]
func (h *ScheduleHandler) Publish(c *gin.Context) {
	var req dto.PublishScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid publish payload"))
		return
	}
	schedule, err := h.service.PublishSchedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.logRejected(c, "publish", err)
		response.Error(c, err)
		return
	}
	response.OK(c, schedule)
}

// Archive godoc
// @Summary Archive a schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/archive [post]
func (h *ScheduleHandler) Archive(c *gin.Context) {
	schedule, err := h.service.ArchiveSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schedule)
}

// DetectClashes godoc
// @Summary Detect clashes in an unsaved session set
// @Tags Clashes
// @Accept json
// @Produce json
// @Param payload body dto.DetectClashesRequest true "Sessions"
// @Success 200 {object} response.Envelope
// @Router /clashes/detect [post]
func (h *ScheduleHandler) DetectClashes(c *gin.Context) {
	var req dto.DetectClashesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid clash detection payload"))
		return
	}
	clashes, err := h.service.DetectClashes(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clashes, map[string]interface{}{"total": len(clashes)})
}

func (h *ScheduleHandler) logRejected(c *gin.Context, operation string, err error) {
	if !appErrors.Is(err, appErrors.ErrConflict) {
		return
	}
	logger.FromGin(c, h.logger).Info("schedule mutation rejected",
		zap.String("operation", operation),
		zap.String("target", c.Param("id")),
		zap.String("reason", appErrors.FromError(err).Message),
	)
}
