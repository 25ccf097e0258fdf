package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

func clashesOfType(clashes []models.Clash, kind models.ClashType) []models.Clash {
	var out []models.Clash
	for _, c := range clashes {
		if c.Type == kind {
			out = append(out, c)
		}
	}
	return out
}

func TestDetectSessionClashesVenueDoubleBookingIsSymmetric(t *testing.T) {
	detector := NewClashDetector(NewReference(testEntities()))
	a := session("a", 0, 9, 0, 90, "room-b", "lec-1", "g-10")
	b := session("b", 0, 10, 0, 60, "room-b", "lec-2", "g-25")

	ab := clashesOfType(detector.DetectSessionClashes(a, []models.Session{b}), models.ClashVenueDoubleBooking)
	ba := clashesOfType(detector.DetectSessionClashes(b, []models.Session{a}), models.ClashVenueDoubleBooking)

	require.Len(t, ab, 1)
	require.Len(t, ba, 1)
	assert.Equal(t, ab[0].ID, ba[0].ID)
	assert.ElementsMatch(t, []string{"a", "b"}, ab[0].SessionIDs)
	assert.Equal(t, models.PriorityHigh, ab[0].Severity)
	assert.Equal(t, "schedule-1", ab[0].ScheduleID)
	assert.NotEmpty(t, ab[0].SuggestedResolutions)
}

func TestDetectSessionClashesTouchingIntervalsDoNotOverlap(t *testing.T) {
	detector := NewClashDetector(NewReference(testEntities()))
	a := session("a", 0, 9, 0, 60, "room-b", "lec-1", "g-10")
	b := session("b", 0, 10, 0, 60, "room-b", "lec-1", "g-10")

	assert.Empty(t, detector.DetectSessionClashes(a, []models.Session{b}))
	assert.Empty(t, detector.DetectSessionClashes(b, []models.Session{a}))
	assert.Empty(t, detector.DetectAllClashes([]models.Session{a, b}))
}

func TestDetectSessionClashesDifferentDaysNeverOverlap(t *testing.T) {
	detector := NewClashDetector(NewReference(testEntities()))
	a := session("a", 0, 9, 0, 60, "room-b", "lec-1", "g-10")
	b := session("b", 1, 9, 0, 60, "room-b", "lec-1", "g-10")

	assert.Empty(t, detector.DetectSessionClashes(a, []models.Session{b}))
}

func TestDetectSessionClashesLecturerAndGroups(t *testing.T) {
	detector := NewClashDetector(NewReference(testEntities()))
	a := session("a", 2, 9, 0, 60, "room-a", "lec-1", "g-10", "g-25")
	b := session("b", 2, 9, 30, 60, "room-b", "lec-1", "g-25")

	clashes := detector.DetectSessionClashes(a, []models.Session{b})

	lecturer := clashesOfType(clashes, models.ClashLecturerConflict)
	require.Len(t, lecturer, 1)
	assert.Equal(t, []string{"lec-1"}, lecturer[0].AffectedEntities)

	groups := clashesOfType(clashes, models.ClashStudentGroupOverlap)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"g-25"}, groups[0].AffectedEntities)
	assert.Contains(t, groups[0].Description, "g-25")
	assert.Empty(t, clashesOfType(clashes, models.ClashVenueDoubleBooking))
}

func TestDetectSessionClashesSkipsItself(t *testing.T) {
	detector := NewClashDetector(NewReference(testEntities()))
	a := session("a", 0, 9, 0, 60, "room-b", "lec-1", "g-10")

	assert.Empty(t, detector.DetectSessionClashes(a, []models.Session{a}))
}

func TestDetectSessionClashesCapacityMagnitude(t *testing.T) {
	detector := NewClashDetector(NewReference(testEntities()))

	over := session("a", 0, 9, 0, 60, "room-a", "lec-1", "g-25", "g-35")
	capacity := clashesOfType(detector.DetectSessionClashes(over, nil), models.ClashCapacityExceeded)
	require.Len(t, capacity, 1)
	assert.Equal(t, 30, capacity[0].Magnitude)
	assert.Equal(t, models.PriorityHigh, capacity[0].Severity)

	fits := session("a", 0, 9, 0, 60, "room-a", "lec-1", "g-25")
	assert.Empty(t, clashesOfType(detector.DetectSessionClashes(fits, nil), models.ClashCapacityExceeded))
}

func TestDetectSessionClashesCapacitySuggestsLargerVenue(t *testing.T) {
	detector := NewClashDetector(NewReference(testEntities()))
	over := session("a", 0, 9, 0, 60, "room-a", "lec-1", "g-25", "g-10")

	capacity := clashesOfType(detector.DetectSessionClashes(over, nil), models.ClashCapacityExceeded)
	require.Len(t, capacity, 1)
	require.NotEmpty(t, capacity[0].SuggestedResolutions)
	assert.Contains(t, capacity[0].SuggestedResolutions[0].Description, "room-b")
	assert.Equal(t, models.EffortLow, capacity[0].SuggestedResolutions[0].Effort)
}

func TestDetectSessionClashesEquipment(t *testing.T) {
	entities := testEntities()
	entities.Courses = []models.Course{{ID: "course-a", Duration: 60, RequiredEquipment: []string{"projector", "computers"}}}
	detector := NewClashDetector(NewReference(entities))

	s := session("a", 0, 9, 0, 60, "room-a", "lec-1", "g-10")
	equipment := clashesOfType(detector.DetectSessionClashes(s, nil), models.ClashEquipmentConflict)
	require.Len(t, equipment, 1)
	assert.Contains(t, equipment[0].Description, "PROJECTOR")
	assert.Contains(t, equipment[0].Description, "COMPUTERS")
	assert.Equal(t, 2, equipment[0].Magnitude)
}

func TestDetectSessionClashesAvailability(t *testing.T) {
	entities := testEntities()
	entities.Lecturers = []models.Lecturer{{
		ID:           "lec-1",
		Availability: models.WeeklyAvailability{models.Monday: {{StartTime: "09:00", EndTime: "17:00"}}},
	}}
	entities.Venues[0].Availability = models.TimeWindows{{DayOfWeek: models.Monday, StartTime: "08:00", EndTime: "12:00"}}
	detector := NewClashDetector(NewReference(entities))

	wednesday := session("a", 2, 8, 0, 60, "room-b", "lec-1", "g-10")
	availability := clashesOfType(detector.DetectSessionClashes(wednesday, nil), models.ClashAvailabilityViolation)
	require.Len(t, availability, 1)
	assert.Equal(t, []string{"lec-1"}, availability[0].AffectedEntities)

	monday := session("a", 0, 10, 0, 90, "room-b", "lec-1", "g-10")
	assert.Empty(t, clashesOfType(detector.DetectSessionClashes(monday, nil), models.ClashAvailabilityViolation))

	venueClosed := session("a", 0, 13, 0, 60, "room-a", "lec-1", "g-10")
	venueIssues := clashesOfType(detector.DetectSessionClashes(venueClosed, nil), models.ClashAvailabilityViolation)
	require.Len(t, venueIssues, 1)
	assert.Equal(t, []string{"room-a"}, venueIssues[0].AffectedEntities)
}

func TestDetectSessionClashesUnknownEntitiesSkipChecks(t *testing.T) {
	detector := NewClashDetector(NewReference(models.SchedulingEntities{}))
	s := session("a", 0, 9, 0, 60, "ghost-room", "ghost-lecturer", "ghost-group")

	assert.Empty(t, detector.DetectSessionClashes(s, nil))
}

func TestDetectAllClashesEvaluatesEachPairOnce(t *testing.T) {
	detector := NewClashDetector(NewReference(testEntities()))
	sessions := []models.Session{
		session("a", 0, 9, 0, 60, "room-b", "lec-1", "g-10"),
		session("b", 0, 9, 30, 60, "room-b", "lec-2", "g-25"),
		session("c", 0, 9, 45, 30, "room-b", "lec-2", "g-35"),
	}

	clashes := detector.DetectAllClashes(sessions)

	assert.Len(t, clashesOfType(clashes, models.ClashVenueDoubleBooking), 3)
	assert.Len(t, clashesOfType(clashes, models.ClashLecturerConflict), 1)
	ids := map[string]struct{}{}
	for _, c := range clashes {
		ids[c.ID] = struct{}{}
	}
	assert.Len(t, ids, len(clashes))
}

func TestLecturerAndVenueAvailabilityAsymmetry(t *testing.T) {
	assert.False(t, LecturerAvailable(models.Lecturer{ID: "lec"}, models.Monday, 600, 660))
	assert.True(t, VenueAvailable(models.Venue{ID: "room"}, models.Monday, 600, 660))
}

func TestVenueWithOnlyMalformedWindowsIsNeverAvailable(t *testing.T) {
	venue := models.Venue{ID: "room", Availability: models.TimeWindows{
		{DayOfWeek: "someday", StartTime: "08:00", EndTime: "12:00"},
		{DayOfWeek: models.Monday, StartTime: "12:00", EndTime: "08:00"},
	}}.Normalize()

	assert.Empty(t, venue.Availability)
	assert.False(t, venue.AlwaysAvailable())
	assert.False(t, VenueAvailable(venue, models.Monday, 600, 660))
	assert.False(t, VenueAvailable(venue.Normalize(), models.Monday, 600, 660))
}
