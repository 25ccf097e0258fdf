package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

const (
	// FallbackScore marks schedules produced locally instead of by the optimizer.
	FallbackScore = 0.3
	// NoVenuesMessage is reported when there is nothing to place sessions in.
	NoVenuesMessage = "No venues available for scheduling"

	defaultStartHour = 7
	defaultEndHour   = 22
)

var sessionNamespace = uuid.MustParse("1d0f7a9c-54e2-4b8b-8d6a-3e9a0c2f7b15")

// Fallback progress stages.
const (
	StagePreparing = "preparing"
	StagePlacing   = "placing"
	StageCompleted = "completed"
)

// FallbackInput is everything the greedy scheduler needs.
type FallbackInput struct {
	ScheduleID   string
	Entities     models.SchedulingEntities
	StartDate    time.Time
	EndDate      time.Time
	WorkingHours models.WorkingHours
}

// FallbackResult is the possibly partial placement.
type FallbackResult struct {
	Success     bool             `json:"success"`
	Sessions    []models.Session `json:"sessions"`
	Unscheduled []string         `json:"unscheduled"`
	Warnings    []string         `json:"warnings"`
	Errors      []string         `json:"errors"`
	Score       float64          `json:"score"`
	TotalSlots  int              `json:"totalSlots"`
}

// FallbackScheduler places one session per course greedily: courses in input order, slots in
// generation order, venues in input order. It never backtracks.
type FallbackScheduler struct{}

// NewFallbackScheduler builds a scheduler.
func NewFallbackScheduler() *FallbackScheduler {
	return &FallbackScheduler{}
}

type slot struct {
	start  time.Time
	dayEnd time.Time
}

// Schedule runs the greedy placement. Progress is reported synchronously with percentages local to
// this run. Cancellation is observed between courses; the partial result is returned with ctx.Err().
func (f *FallbackScheduler) Schedule(ctx context.Context, in FallbackInput, progress models.ProgressFunc) (FallbackResult, error) {
	report := func(p models.GenerationProgress) {
		if progress != nil {
			progress(p)
		}
	}
	result := FallbackResult{
		Sessions:    []models.Session{},
		Unscheduled: []string{},
		Warnings:    []string{},
		Errors:      []string{},
	}

	report(models.GenerationProgress{Stage: StagePreparing, ProgressPercent: 0, Message: "preparing candidate slots"})

	ref := NewReference(in.Entities)
	if len(ref.Venues()) == 0 {
		result.Errors = append(result.Errors, NoVenuesMessage)
		return result, nil
	}

	slots, err := candidateSlots(in.StartDate, in.EndDate, in.WorkingHours)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}
	result.TotalSlots = len(slots)

	detector := NewClashDetector(ref)
	courses := ref.Courses()
	total := len(courses)

	for i, course := range courses {
		select {
		case <-ctx.Done():
			result.Warnings = append(result.Warnings, fmt.Sprintf("fallback scheduling cancelled after %d of %d courses", i, total))
			return result, ctx.Err()
		default:
		}

		report(models.GenerationProgress{
			Stage:           StagePlacing,
			ProgressPercent: i * 100 / total,
			Message:         fmt.Sprintf("placing course %s", course.ID),
			CurrentStep:     i + 1,
			TotalSteps:      total,
		})

		session, warning, ok := placeCourse(detector, ref, course, slots, result.Sessions, in.ScheduleID)
		if !ok {
			result.Unscheduled = append(result.Unscheduled, course.ID)
			result.Warnings = append(result.Warnings, warning)
			continue
		}
		result.Sessions = append(result.Sessions, session)
	}

	result.Success = true
	result.Score = FallbackScore
	report(models.GenerationProgress{
		Stage:           StageCompleted,
		ProgressPercent: 100,
		Message:         fmt.Sprintf("placed %d of %d courses", len(result.Sessions), total),
		CurrentStep:     total,
		TotalSteps:      total,
		Warnings:        result.Warnings,
	})
	return result, nil
}

func placeCourse(detector *ClashDetector, ref *Reference, course models.Course, slots []slot, placed []models.Session, scheduleID string) (models.Session, string, bool) {
	if course.Duration <= 0 {
		return models.Session{}, fmt.Sprintf("course %s has no duration and was not scheduled", course.ID), false
	}
	attendees := ref.GroupsSize(course.StudentGroups)
	venues := lo.Filter(ref.Venues(), func(v models.Venue, _ int) bool {
		return v.Capacity >= attendees && len(missingEquipment(course.RequiredEquipment, v)) == 0
	})
	if len(venues) == 0 {
		return models.Session{}, fmt.Sprintf("course %s: no venue fits %d attendees with the required equipment", course.ID, attendees), false
	}

	length := time.Duration(course.Duration) * time.Minute
	for _, sl := range slots {
		end := sl.start.Add(length)
		if end.After(sl.dayEnd) {
			continue
		}
		for _, venue := range venues {
			candidate := models.Session{
				ID:            uuid.NewSHA1(sessionNamespace, []byte(course.ID+"@"+sl.start.Format(time.RFC3339))).String(),
				ScheduleID:    scheduleID,
				CourseID:      course.ID,
				LecturerID:    course.LecturerID,
				VenueID:       venue.ID,
				StudentGroups: append([]string(nil), course.StudentGroups...),
				StartTime:     sl.start,
				EndTime:       end,
				DayOfWeek:     models.DayOf(sl.start),
			}
			if len(detector.DetectSessionClashes(candidate, placed)) == 0 {
				return candidate, "", true
			}
		}
	}
	return models.Session{}, fmt.Sprintf("course %s could not be placed in any clash-free slot", course.ID), false
}

// candidateSlots expands every date in [start,end] whose weekday is a working day into hourly
// starts between the working hours. A zero range falls back to the week of 2024-01-01.
func candidateSlots(start, end time.Time, hours models.WorkingHours) ([]slot, error) {
	if start.IsZero() && end.IsZero() {
		start = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 6)
	}
	if end.IsZero() {
		end = start
	}
	if end.Before(start) {
		return nil, fmt.Errorf("invalid date range: end %s is before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	startHour, endHour := hours.StartHour, hours.EndHour
	if startHour == 0 && endHour == 0 {
		startHour, endHour = defaultStartHour, defaultEndHour
	}
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return nil, fmt.Errorf("invalid working hours %d-%d", startHour, endHour)
	}
	days := lo.FilterMap(hours.Days, func(d models.DayOfWeek, _ int) (models.DayOfWeek, bool) {
		day, err := models.ParseDayOfWeek(string(d))
		return day, err == nil
	})
	if len(days) == 0 {
		days = models.AllDays
	}

	loc := start.Location()
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)

	var slots []slot
	for date := first; !date.After(last); date = date.AddDate(0, 0, 1) {
		if !lo.Contains(days, models.DayOf(date)) {
			continue
		}
		dayEnd := date.Add(time.Duration(endHour) * time.Hour)
		for h := startHour; h < endHour; h++ {
			slots = append(slots, slot{start: date.Add(time.Duration(h) * time.Hour), dayEnd: dayEnd})
		}
	}
	return slots, nil
}
