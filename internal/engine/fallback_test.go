package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

func fallbackInput(entities models.SchedulingEntities) FallbackInput {
	return FallbackInput{
		ScheduleID:   "schedule-1",
		Entities:     entities,
		StartDate:    mondayOf2024,
		EndDate:      mondayOf2024.AddDate(0, 0, 4),
		WorkingHours: models.WorkingHours{StartHour: 8, EndHour: 10, Days: []models.DayOfWeek{models.Monday, models.Tuesday}},
	}
}

func TestFallbackSchedulerNoVenues(t *testing.T) {
	entities := testEntities()
	entities.Venues = nil
	entities.Courses = []models.Course{{ID: "math", Duration: 60, LecturerID: "lec-1", StudentGroups: []string{"g-10"}}}

	result, err := NewFallbackScheduler().Schedule(context.Background(), fallbackInput(entities), nil)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, []string{NoVenuesMessage}, result.Errors)
	assert.Empty(t, result.Sessions)
}

func TestFallbackSchedulerPlacesCoursesWithoutClashes(t *testing.T) {
	entities := testEntities()
	entities.Courses = []models.Course{
		{ID: "math", Duration: 60, LecturerID: "lec-1", StudentGroups: []string{"g-25"}},
		{ID: "physics", Duration: 60, LecturerID: "lec-1", StudentGroups: []string{"g-35"}, RequiredEquipment: []string{"PROJECTOR"}},
		{ID: "art", Duration: 60, LecturerID: "lec-2", StudentGroups: []string{"g-25"}},
	}
	var stages []string

	result, err := NewFallbackScheduler().Schedule(context.Background(), fallbackInput(entities), func(p models.GenerationProgress) {
		stages = append(stages, p.Stage)
	})

	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, FallbackScore, result.Score)
	require.Len(t, result.Sessions, 3)
	assert.Empty(t, result.Unscheduled)
	assert.Empty(t, NewClashDetector(NewReference(entities)).DetectAllClashes(result.Sessions))

	assert.Equal(t, at(0, 8, 0), result.Sessions[0].StartTime)
	assert.Equal(t, "room-a", result.Sessions[0].VenueID)
	assert.Equal(t, at(0, 9, 0), result.Sessions[1].StartTime, "lecturer is busy at 08:00")
	assert.Equal(t, "room-b", result.Sessions[1].VenueID)
	assert.Equal(t, at(0, 9, 0), result.Sessions[2].StartTime, "group g-25 is busy at 08:00")
	assert.Equal(t, "schedule-1", result.Sessions[2].ScheduleID)

	assert.Equal(t, StagePreparing, stages[0])
	assert.Equal(t, StageCompleted, stages[len(stages)-1])
	assert.Contains(t, stages, StagePlacing)
}

func TestFallbackSchedulerReportsUnplaceableCourses(t *testing.T) {
	entities := testEntities()
	entities.Courses = []models.Course{
		{ID: "huge", Duration: 60, LecturerID: "lec-1", StudentGroups: []string{"g-25", "g-35", "g-10"}},
		{ID: "long", Duration: 180, LecturerID: "lec-1", StudentGroups: []string{"g-10"}},
		{ID: "ok", Duration: 60, LecturerID: "lec-2", StudentGroups: []string{"g-10"}},
	}

	result, err := NewFallbackScheduler().Schedule(context.Background(), fallbackInput(entities), nil)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"huge", "long"}, result.Unscheduled)
	assert.Len(t, result.Warnings, 2)
	require.Len(t, result.Sessions, 1)
	assert.Equal(t, "ok", result.Sessions[0].CourseID)
}

func TestFallbackSchedulerIsDeterministic(t *testing.T) {
	entities := testEntities()
	entities.Courses = []models.Course{
		{ID: "math", Duration: 60, LecturerID: "lec-1", StudentGroups: []string{"g-25"}},
		{ID: "art", Duration: 90, LecturerID: "lec-2", StudentGroups: []string{"g-10"}},
	}

	first, err := NewFallbackScheduler().Schedule(context.Background(), fallbackInput(entities), nil)
	require.NoError(t, err)
	second, err := NewFallbackScheduler().Schedule(context.Background(), fallbackInput(entities), nil)
	require.NoError(t, err)

	assert.Equal(t, first.Sessions, second.Sessions)
}

func TestFallbackSchedulerCancellationBetweenCourses(t *testing.T) {
	entities := testEntities()
	entities.Courses = []models.Course{
		{ID: "math", Duration: 60, LecturerID: "lec-1", StudentGroups: []string{"g-25"}},
		{ID: "art", Duration: 60, LecturerID: "lec-2", StudentGroups: []string{"g-10"}},
	}
	ctx, cancel := context.WithCancel(context.Background())

	result, err := NewFallbackScheduler().Schedule(ctx, fallbackInput(entities), func(p models.GenerationProgress) {
		if p.Stage == StagePlacing && p.CurrentStep == 1 {
			cancel()
		}
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, result.Success)
	assert.Len(t, result.Sessions, 1)
}

func TestCandidateSlotsHonourWorkingDays(t *testing.T) {
	slots, err := candidateSlots(mondayOf2024, mondayOf2024.AddDate(0, 0, 13), models.WorkingHours{
		StartHour: 9, EndHour: 12, Days: []models.DayOfWeek{"wednesday"},
	})
	require.NoError(t, err)
	require.Len(t, slots, 6)
	assert.Equal(t, time.Wednesday, slots[0].start.Weekday())
	assert.Equal(t, 9, slots[0].start.Hour())

	_, err = candidateSlots(mondayOf2024, mondayOf2024.AddDate(0, 0, -1), models.WorkingHours{})
	assert.Error(t, err)
}
