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

type generatorStub struct {
	result *models.GenerationResult
	err    error
	got    dto.GenerateTimetableRequest
}

func (g *generatorStub) GenerateAutomatedTimetable(ctx context.Context, req dto.GenerateTimetableRequest, progress models.ProgressFunc) (*models.GenerationResult, error) {
	g.got = req
	if progress != nil {
		progress(models.GenerationProgress{Stage: "optimizing", ProgressPercent: 30})
	}
	return g.result, g.err
}

type jobsStub struct {
	err       error
	submitted dto.GenerateTimetableRequest
	cancelled string
}

func (j *jobsStub) Submit(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationJobResponse, error) {
	j.submitted = req
	if j.err != nil {
		return nil, j.err
	}
	return &dto.GenerationJobResponse{ID: "job-1", Status: models.GenerationJobQueued}, nil
}

func (j *jobsStub) Status(ctx context.Context, id string) (*dto.GenerationJobStatusResponse, error) {
	if j.err != nil {
		return nil, j.err
	}
	return &dto.GenerationJobStatusResponse{ID: id, Status: models.GenerationJobRunning,
		Progress: models.GenerationProgress{Stage: "optimizing", ProgressPercent: 45}}, nil
}

func (j *jobsStub) Cancel(ctx context.Context, id string) (*dto.GenerationJobStatusResponse, error) {
	j.cancelled = id
	if j.err != nil {
		return nil, j.err
	}
	return &dto.GenerationJobStatusResponse{ID: id, Status: models.GenerationJobCancelled}, nil
}

func generationRouter(generator *generatorStub, jobs *jobsStub) http.Handler {
	return newTestRouter(Handlers{
		Schedules:   &ScheduleHandler{service: &scheduleMutatorStub{}},
		Constraints: &ConstraintHandler{service: &constraintManagerStub{}},
		Generation:  &GenerationHandler{generator: generator, jobs: jobs},
		Export:      &ExportHandler{service: &exporterStub{}},
	})
}

const generationPayload = `{"name":"Semester 1","parameters":{"weights":{"conflictMinimization":0.4,"preferenceSatisfaction":0.3,"resourceUtilization":0.2,"workloadBalance":0.1},"maxSolveTimeSeconds":60,"startDate":"2024-01-01T00:00:00Z","endDate":"2024-01-05T00:00:00Z"},"persist":true}`

func TestGenerationHandlerGenerate(t *testing.T) {
	generator := &generatorStub{result: &models.GenerationResult{Success: true, FallbackUsed: true, Source: models.GenerationSourceFallback}}
	router := generationRouter(generator, &jobsStub{})

	w := performRequest(router, http.MethodPost, "/api/v1/timetables/generate", []byte(generationPayload))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Semester 1", generator.got.Name)
	assert.True(t, generator.got.Persist)
	assert.Equal(t, 60, generator.got.Parameters.MaxSolveTimeSeconds)
}

func TestGenerationHandlerGenerateUnsuccessful(t *testing.T) {
	generator := &generatorStub{result: &models.GenerationResult{Success: false, Errors: []string{"No venues available for scheduling"}}}
	router := generationRouter(generator, &jobsStub{})

	w := performRequest(router, http.MethodPost, "/api/v1/timetables/generate", []byte(generationPayload))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "No venues available")
}

func TestGenerationHandlerGenerateConfigurationError(t *testing.T) {
	generator := &generatorStub{err: appErrors.Clone(appErrors.ErrConfiguration, "objective weights must sum to 1")}
	router := generationRouter(generator, &jobsStub{})

	w := performRequest(router, http.MethodPost, "/api/v1/timetables/generate", []byte(generationPayload))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "CONFIGURATION_ERROR", decodeEnvelope(t, w).Error.Code)

	w = performRequest(router, http.MethodPost, "/api/v1/timetables/generate", []byte(`{"name":1}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerationHandlerJobs(t *testing.T) {
	jobs := &jobsStub{}
	router := generationRouter(&generatorStub{}, jobs)

	w := performRequest(router, http.MethodPost, "/api/v1/timetables/generation-jobs", []byte(generationPayload))
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "/api/v1/timetables/generation-jobs/job-1", w.Header().Get("Location"))
	assert.Equal(t, "Semester 1", jobs.submitted.Name)

	w = performRequest(router, http.MethodGet, "/api/v1/timetables/generation-jobs/job-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"progressPercent":45`)

	w = performRequest(router, http.MethodDelete, "/api/v1/timetables/generation-jobs/job-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "job-1", jobs.cancelled)
	assert.Contains(t, w.Body.String(), string(models.GenerationJobCancelled))
}

func TestGenerationHandlerQueueFull(t *testing.T) {
	router := generationRouter(&generatorStub{}, &jobsStub{err: appErrors.Clone(appErrors.ErrTooManyRequests, "generation queue is full")})

	w := performRequest(router, http.MethodPost, "/api/v1/timetables/generation-jobs", []byte(generationPayload))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
