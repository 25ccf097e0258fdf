package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-engine/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/export"
	"github.com/noah-isme/sma-timetable-engine/pkg/response"
)

type scheduleExporter interface {
	Export(ctx context.Context, scheduleID string, opts service.ExportOptions) (*service.ExportResult, error)
}

// ExportHandler streams rendered schedules.
type ExportHandler struct {
	service scheduleExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ScheduleExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Download a schedule as CSV, PDF or iCalendar
// @Tags Schedules
// @Produce text/csv
// @Produce application/pdf
// @Produce text/calendar
// @Param id path string true "Schedule ID"
// @Param format query string false "csv (default), pdf or ics"
// @Param repeatUntil query string false "Last date of weekly recurrence for ics, YYYY-MM-DD"
// @Success 200 {file} file
// @Router /schedules/{id}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(strings.ToLower(c.DefaultQuery("format", string(export.FormatCSV))))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	opts := service.ExportOptions{Format: format}
	if raw := c.Query("repeatUntil"); raw != "" {
		until, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "repeatUntil must be YYYY-MM-DD"))
			return
		}
		opts.RepeatUntil = until
	}

	result, err := h.service.Export(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
