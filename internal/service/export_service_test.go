package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/export"
)

type datasetCapture struct {
	data export.Dataset
}

func (c *datasetCapture) Render(data export.Dataset) ([]byte, error) {
	c.data = data
	return []byte("rendered"), nil
}

func newExportFixture(sessions ...models.Session) *ScheduleExportService {
	schedules := newScheduleRepoStub(models.Schedule{ID: "sched-1", Name: "Semester 1", Version: 3, Status: models.ScheduleStatusPublished})
	return NewScheduleExportService(schedules, newSessionRepoStub(sessions...), &referenceStub{entities: testEntities()}, nil, nil, nil, nil)
}

func TestScheduleExportServiceCSV(t *testing.T) {
	svc := newExportFixture(
		testSession("s2", 1, 9, 60, "room-b", "lec-2", "g-2"),
		testSession("s1", 0, 13, 60, "room-a", "lec-1", "g-1"),
		testSession("s0", 0, 8, 60, "room-a", "lec-1", "g-1"),
	)

	result, err := svc.Export(context.Background(), "sched-1", ExportOptions{Format: export.FormatCSV})
	require.NoError(t, err)
	assert.Equal(t, "semester_1_v3.csv", result.Filename)
	assert.Equal(t, export.FormatCSV.ContentType(), result.ContentType)

	lines := strings.Split(strings.TrimSpace(string(result.Body)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Day,Start,End,Course,Lecturer,Venue,Student Groups", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "MONDAY,08:00,09:00,MTH101 Calculus,Dr. Ada,Room A,Class 10A")
	assert.Contains(t, lines[2], "MONDAY,13:00")
	assert.Contains(t, lines[3], "TUESDAY,09:00")
}

func TestScheduleExportServicePDFUsesDataset(t *testing.T) {
	capture := &datasetCapture{}
	schedules := newScheduleRepoStub(models.Schedule{ID: "sched-1", Name: "Semester 1", Version: 3, Status: models.ScheduleStatusDraft})
	svc := NewScheduleExportService(schedules, newSessionRepoStub(testSession("s1", 0, 9, 60, "room-a", "lec-1", "g-1")), &referenceStub{entities: testEntities()}, nil, nil, capture, nil)

	result, err := svc.Export(context.Background(), "sched-1", ExportOptions{Format: export.FormatPDF})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "Semester 1 (v3, DRAFT)", capture.data.Title)
	require.Len(t, capture.data.Rows, 1)
	assert.Equal(t, "Room A", capture.data.Rows[0]["venue"])
}

func TestScheduleExportServiceICS(t *testing.T) {
	svc := newExportFixture(testSession("s1", 0, 9, 60, "room-a", "lec-1", "g-1"))

	result, err := svc.Export(context.Background(), "sched-1", ExportOptions{Format: export.FormatICS, RepeatUntil: mondayOf2024.AddDate(0, 3, 0)})
	require.NoError(t, err)
	body := string(result.Body)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "UID:s1")
	assert.Contains(t, body, "SUMMARY:MTH101 Calculus")
	assert.Contains(t, body, "LOCATION:Room A")
	assert.Contains(t, body, "RRULE:FREQ=WEEKLY")
	assert.Contains(t, body, "20240401T000000Z")
	assert.Equal(t, "semester_1_v3.ics", result.Filename)
}

func TestScheduleExportServiceErrors(t *testing.T) {
	svc := newExportFixture()

	_, err := svc.Export(context.Background(), "missing", ExportOptions{Format: export.FormatCSV})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Export(context.Background(), "sched-1", ExportOptions{Format: "xlsx"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "schedule", sanitizeFilename("  "))
	assert.Equal(t, "term-1_a-b", sanitizeFilename("Term:1 A/B"))
}
