package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/engine"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/export"
)

type scheduleReader interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type icsRenderer interface {
	Render(name string, events []export.Event) ([]byte, error)
}

// ExportOptions narrow an export. RepeatUntil only applies to ICS.
type ExportOptions struct {
	Format      export.Format
	RepeatUntil time.Time
}

// ExportResult is a rendered schedule document.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ScheduleExportService renders a schedule's sessions as CSV, PDF or an iCalendar feed.
type ScheduleExportService struct {
	schedules scheduleReader
	sessions  scheduleSessionReader
	reference referenceLoader
	csv       csvRenderer
	pdf       pdfRenderer
	ics       icsRenderer
	logger    *zap.Logger
}

// NewScheduleExportService constructs an export service. Nil renderers use the pkg/export defaults.
func NewScheduleExportService(schedules scheduleReader, sessions scheduleSessionReader, reference referenceLoader, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer, ics icsRenderer) *ScheduleExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if ics == nil {
		ics = export.NewICSExporter()
	}
	return &ScheduleExportService{
		schedules: schedules,
		sessions:  sessions,
		reference: reference,
		csv:       csv,
		pdf:       pdf,
		ics:       ics,
		logger:    logger,
	}
}

// Export renders the schedule in the requested format.
func (s *ScheduleExportService) Export(ctx context.Context, scheduleID string, opts ExportOptions) (*ExportResult, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	sessions, err := s.sessions.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	entities, err := s.reference.Load(ctx)
	if err != nil {
		return nil, err
	}
	ref := engine.NewReference(entities)
	sortSessions(sessions)

	var body []byte
	switch opts.Format {
	case export.FormatCSV:
		body, err = s.csv.Render(sessionDataset(schedule, sessions, ref))
	case export.FormatPDF:
		body, err = s.pdf.Render(sessionDataset(schedule, sessions, ref))
	case export.FormatICS:
		body, err = s.ics.Render(schedule.Name, sessionEvents(sessions, ref, opts.RepeatUntil))
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", opts.Format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule export")
	}

	s.logger.Debug("schedule exported",
		zap.String("schedule_id", scheduleID),
		zap.String("format", string(opts.Format)),
		zap.Int("sessions", len(sessions)),
	)
	return &ExportResult{
		Filename:    buildFilename(schedule, opts.Format),
		ContentType: opts.Format.ContentType(),
		Body:        body,
	}, nil
}

func sortSessions(sessions []models.Session) {
	order := make(map[models.DayOfWeek]int, len(models.AllDays))
	for i, day := range models.AllDays {
		order[day] = i
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].DayOfWeek != sessions[j].DayOfWeek {
			return order[sessions[i].DayOfWeek] < order[sessions[j].DayOfWeek]
		}
		si, _ := sessions[i].ClockMinutes()
		sj, _ := sessions[j].ClockMinutes()
		if si != sj {
			return si < sj
		}
		return sessions[i].ID < sessions[j].ID
	})
}

func sessionDataset(schedule *models.Schedule, sessions []models.Session, ref *engine.Reference) export.Dataset {
	dataset := export.Dataset{
		Title: fmt.Sprintf("%s (v%d, %s)", schedule.Name, schedule.Version, schedule.Status),
		Columns: []export.Column{
			{Key: "day", Label: "Day", Width: 1},
			{Key: "start", Label: "Start", Width: 0.7},
			{Key: "end", Label: "End", Width: 0.7},
			{Key: "course", Label: "Course", Width: 2.5},
			{Key: "lecturer", Label: "Lecturer", Width: 2},
			{Key: "venue", Label: "Venue", Width: 1.5},
			{Key: "groups", Label: "Student Groups", Width: 2},
		},
		Rows: make([]map[string]string, 0, len(sessions)),
	}
	for _, session := range sessions {
		start, end := session.ClockMinutes()
		dataset.Rows = append(dataset.Rows, map[string]string{
			"day":      string(session.DayOfWeek),
			"start":    models.FormatClock(start),
			"end":      models.FormatClock(end),
			"course":   courseLabel(ref, session.CourseID),
			"lecturer": lecturerLabel(ref, session.LecturerID),
			"venue":    venueLabel(ref, session.VenueID),
			"groups":   strings.Join(groupLabels(ref, session.StudentGroups), ", "),
		})
	}
	return dataset
}

func sessionEvents(sessions []models.Session, ref *engine.Reference, repeatUntil time.Time) []export.Event {
	events := make([]export.Event, 0, len(sessions))
	for _, session := range sessions {
		events = append(events, export.Event{
			UID:         session.ID,
			Summary:     courseLabel(ref, session.CourseID),
			Description: fmt.Sprintf("Lecturer: %s\nGroups: %s", lecturerLabel(ref, session.LecturerID), strings.Join(groupLabels(ref, session.StudentGroups), ", ")),
			Location:    venueLabel(ref, session.VenueID),
			Start:       session.StartTime,
			End:         session.EndTime,
			Weekly:      true,
			RepeatUntil: repeatUntil,
		})
	}
	return events
}

func courseLabel(ref *engine.Reference, id string) string {
	if course, ok := ref.Course(id); ok && course.Name != "" {
		if course.Code != "" {
			return course.Code + " " + course.Name
		}
		return course.Name
	}
	return id
}

func lecturerLabel(ref *engine.Reference, id string) string {
	if lecturer, ok := ref.Lecturer(id); ok && lecturer.Name != "" {
		return lecturer.Name
	}
	return id
}

func venueLabel(ref *engine.Reference, id string) string {
	if venue, ok := ref.Venue(id); ok && venue.Name != "" {
		return venue.Name
	}
	return id
}

func groupLabels(ref *engine.Reference, ids []string) []string {
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		if group, ok := ref.StudentGroup(id); ok && group.Name != "" {
			labels = append(labels, group.Name)
			continue
		}
		labels = append(labels, id)
	}
	return labels
}

func buildFilename(schedule *models.Schedule, format export.Format) string {
	return fmt.Sprintf("%s_v%d.%s", sanitizeFilename(schedule.Name), schedule.Version, format)
}

func sanitizeFilename(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return "schedule"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
