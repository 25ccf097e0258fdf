package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	"github.com/noah-isme/sma-timetable-engine/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/logger"
	"github.com/noah-isme/sma-timetable-engine/pkg/response"
)

type timetableGenerator interface {
	GenerateAutomatedTimetable(ctx context.Context, req dto.GenerateTimetableRequest, progress models.ProgressFunc) (*models.GenerationResult, error)
}

type generationJobs interface {
	Submit(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationJobResponse, error)
	Status(ctx context.Context, id string) (*dto.GenerationJobStatusResponse, error)
	Cancel(ctx context.Context, id string) (*dto.GenerationJobStatusResponse, error)
}

// GenerationHandler exposes automated timetable generation, inline and as background jobs.
type GenerationHandler struct {
	generator timetableGenerator
	jobs      generationJobs
	logger    *zap.Logger
}

// NewGenerationHandler constructs the handler.
func NewGenerationHandler(generator *service.TimetableGenerationService, jobs *service.GenerationJobService, logger *zap.Logger) *GenerationHandler {
	return &GenerationHandler{generator: generator, jobs: jobs, logger: logger}
}

// Generate godoc
// @Summary Generate a timetable and wait for the result
// @Description Uses the external optimizer when configured and falls back to the greedy scheduler otherwise.
// @Tags Generation
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *GenerationHandler) Generate(c *gin.Context) {
	req, ok := bindGenerationRequest(c)
	if !ok {
		return
	}
	log := logger.FromGin(c, h.logger)
	result, err := h.generator.GenerateAutomatedTimetable(c.Request.Context(), req, func(p models.GenerationProgress) {
		log.Debug("generation progress", zap.String("stage", p.Stage), zap.Int("percent", p.ProgressPercent))
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	response.JSON(c, status, result, nil)
}

// SubmitJob godoc
// @Summary Queue a timetable generation
// @Tags Generation
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 202 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /timetables/generation-jobs [post]
func (h *GenerationHandler) SubmitJob(c *gin.Context) {
	req, ok := bindGenerationRequest(c)
	if !ok {
		return
	}
	job, err := h.jobs.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Location", "/api/v1/timetables/generation-jobs/"+job.ID)
	response.Accepted(c, job)
}

// JobStatus godoc
// @Summary Get generation job progress
// @Tags Generation
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/generation-jobs/{id} [get]
func (h *GenerationHandler) JobStatus(c *gin.Context) {
	status, err := h.jobs.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, status)
}

// CancelJob godoc
// @Summary Cancel a queued or running generation
// @Tags Generation
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/generation-jobs/{id} [delete]
func (h *GenerationHandler) CancelJob(c *gin.Context) {
	status, err := h.jobs.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, status)
}

func bindGenerationRequest(c *gin.Context) (dto.GenerateTimetableRequest, bool) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return req, false
	}
	return req, true
}
