package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

var clashNamespace = uuid.MustParse("6f1c5b1e-3d4a-4f7e-9a51-2c1d7e8b9f03")

// ClashDetector finds hard conflicts between sessions. It only reads its reference snapshot, so a
// single detector may be shared between goroutines.
type ClashDetector struct {
	ref *Reference
}

// NewClashDetector binds the detector to a reference snapshot. A nil reference disables the
// capacity, equipment and availability checks.
func NewClashDetector(ref *Reference) *ClashDetector {
	return &ClashDetector{ref: ref}
}

// DetectSessionClashes compares candidate with each of others and runs the per-session checks on
// candidate. An entry of others sharing the candidate's non-empty id is skipped.
func (d *ClashDetector) DetectSessionClashes(candidate models.Session, others []models.Session) []models.Clash {
	clashes := make([]models.Clash, 0)
	for _, other := range others {
		if candidate.ID != "" && other.ID == candidate.ID {
			continue
		}
		clashes = append(clashes, d.pairClashes(candidate, other)...)
	}
	clashes = append(clashes, d.sessionClashes(candidate)...)
	return clashes
}

// DetectAllClashes validates a whole session set. Every unordered pair is compared exactly once,
// so the cost is O(n²) in the number of sessions; schedules hold a few hundred sessions at most.
// Per-session checks run once per session.
func (d *ClashDetector) DetectAllClashes(sessions []models.Session) []models.Clash {
	clashes := make([]models.Clash, 0)
	for i := 0; i < len(sessions); i++ {
		for j := i + 1; j < len(sessions); j++ {
			clashes = append(clashes, d.pairClashes(sessions[i], sessions[j])...)
		}
	}
	for _, s := range sessions {
		clashes = append(clashes, d.sessionClashes(s)...)
	}
	return clashes
}

func (d *ClashDetector) pairClashes(a, b models.Session) []models.Clash {
	if !a.Overlaps(b) {
		return nil
	}
	var clashes []models.Clash
	window := overlapLabel(a, b)

	if a.VenueID != "" && a.VenueID == b.VenueID {
		clashes = append(clashes, d.newClash(models.ClashVenueDoubleBooking, a, []string{a.ID, b.ID}, []string{a.VenueID},
			fmt.Sprintf("venue %s is double-booked by sessions %s and %s on %s", a.VenueID, a.ID, b.ID, window), 0))
	}
	if a.LecturerID != "" && a.LecturerID == b.LecturerID {
		clashes = append(clashes, d.newClash(models.ClashLecturerConflict, a, []string{a.ID, b.ID}, []string{a.LecturerID},
			fmt.Sprintf("lecturer %s is assigned to sessions %s and %s on %s", a.LecturerID, a.ID, b.ID, window), 0))
	}
	shared := lo.Intersect([]string(a.StudentGroups), []string(b.StudentGroups))
	if len(shared) > 0 {
		sort.Strings(shared)
		clashes = append(clashes, d.newClash(models.ClashStudentGroupOverlap, a, []string{a.ID, b.ID}, shared,
			fmt.Sprintf("student groups %s attend overlapping sessions %s and %s on %s", strings.Join(shared, ", "), a.ID, b.ID, window), 0))
	}
	return clashes
}

func (d *ClashDetector) sessionClashes(s models.Session) []models.Clash {
	if d.ref == nil {
		return nil
	}
	var clashes []models.Clash

	venue, hasVenue := d.ref.Venue(s.VenueID)
	if hasVenue {
		attendees := d.ref.Attendees(s)
		if attendees > venue.Capacity {
			overage := attendees - venue.Capacity
			clash := d.newClash(models.ClashCapacityExceeded, s, []string{s.ID}, append([]string{venue.ID}, s.StudentGroups...),
				fmt.Sprintf("session %s has %d attendees but venue %s holds %d (over by %d)", s.ID, attendees, venue.ID, venue.Capacity, overage), overage)
			clashes = append(clashes, clash)
		}
		if course, ok := d.ref.Course(s.CourseID); ok {
			missing := missingEquipment(course.RequiredEquipment, venue)
			if len(missing) > 0 {
				clashes = append(clashes, d.newClash(models.ClashEquipmentConflict, s, []string{s.ID}, append([]string{venue.ID, course.ID}, missing...),
					fmt.Sprintf("venue %s lacks equipment required by course %s: %s", venue.ID, course.ID, strings.Join(missing, ", ")), len(missing)))
			}
		}
	}

	for _, issue := range SessionAvailability(s, d.ref) {
		clashes = append(clashes, d.newClash(models.ClashAvailabilityViolation, s, []string{s.ID}, []string{issue.EntityID},
			fmt.Sprintf("session %s: %s", s.ID, issue.Description), 0))
	}
	return clashes
}

func (d *ClashDetector) newClash(kind models.ClashType, owner models.Session, sessionIDs, entities []string, description string, magnitude int) models.Clash {
	ids := append([]string(nil), sessionIDs...)
	sort.Strings(ids)
	key := string(kind) + ":" + strings.Join(ids, ",")
	if kind == models.ClashAvailabilityViolation || kind == models.ClashEquipmentConflict {
		key += ":" + strings.Join(entities, ",")
	}
	clash := models.Clash{
		ID:               uuid.NewSHA1(clashNamespace, []byte(key)).String(),
		Type:             kind,
		Severity:         models.PriorityHigh,
		AffectedEntities: lo.Uniq(entities),
		Description:      description,
		ScheduleID:       owner.ScheduleID,
		SessionIDs:       ids,
		Magnitude:        magnitude,
	}
	clash.SuggestedResolutions = d.suggestResolutions(clash, owner)
	return clash
}

func missingEquipment(required []string, venue models.Venue) []string {
	return lo.Filter(required, func(item string, _ int) bool {
		return !venue.HasEquipment(item)
	})
}

func overlapLabel(a, b models.Session) string {
	start := a.StartTime
	if b.StartTime.After(start) {
		start = b.StartTime
	}
	end := a.EndTime
	if b.EndTime.Before(end) {
		end = b.EndTime
	}
	return fmt.Sprintf("%s %s-%s", a.DayOfWeek, start.Format("15:04"), end.Format("15:04"))
}
