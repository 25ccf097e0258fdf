package engine

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

func (d *ClashDetector) suggestResolutions(clash models.Clash, s models.Session) []models.Resolution {
	switch clash.Type {
	case models.ClashVenueDoubleBooking:
		resolutions := []models.Resolution{}
		if alt, ok := d.alternativeVenue(s, nil); ok {
			resolutions = append(resolutions, models.Resolution{
				Description:       fmt.Sprintf("move session %s to venue %s", s.ID, alt.ID),
				OptimizationScore: 0.85,
				Effort:            models.EffortLow,
			})
		}
		return append(resolutions, models.Resolution{
			Description:       "reschedule one of the sessions to a free time slot",
			OptimizationScore: 0.7,
			Effort:            models.EffortMedium,
		})
	case models.ClashLecturerConflict:
		return []models.Resolution{
			{Description: "reschedule one of the sessions to a slot the lecturer is free", OptimizationScore: 0.75, Effort: models.EffortMedium},
			{Description: "assign a substitute lecturer qualified for the course", OptimizationScore: 0.5, Effort: models.EffortHigh},
		}
	case models.ClashStudentGroupOverlap:
		return []models.Resolution{
			{Description: "reschedule one of the sessions so the groups are free", OptimizationScore: 0.8, Effort: models.EffortMedium},
			{Description: "split the shared groups across separate sessions", OptimizationScore: 0.4, Effort: models.EffortHigh},
		}
	case models.ClashCapacityExceeded:
		resolutions := []models.Resolution{}
		if alt, ok := d.alternativeVenue(s, nil); ok {
			resolutions = append(resolutions, models.Resolution{
				Description:       fmt.Sprintf("move session %s to venue %s (capacity %d)", s.ID, alt.ID, alt.Capacity),
				OptimizationScore: 0.9,
				Effort:            models.EffortLow,
			})
		}
		return append(resolutions, models.Resolution{
			Description:       "split the session into smaller groups",
			OptimizationScore: 0.5,
			Effort:            models.EffortHigh,
		})
	case models.ClashEquipmentConflict:
		resolutions := []models.Resolution{}
		if course, ok := d.ref.Course(s.CourseID); ok {
			if alt, ok := d.alternativeVenue(s, course.RequiredEquipment); ok {
				resolutions = append(resolutions, models.Resolution{
					Description:       fmt.Sprintf("move session %s to equipped venue %s", s.ID, alt.ID),
					OptimizationScore: 0.85,
					Effort:            models.EffortLow,
				})
			}
		}
		return append(resolutions, models.Resolution{
			Description:       "arrange portable equipment for the session",
			OptimizationScore: 0.6,
			Effort:            models.EffortMedium,
		})
	case models.ClashAvailabilityViolation:
		return []models.Resolution{
			{Description: "reschedule the session inside the declared availability", OptimizationScore: 0.8, Effort: models.EffortMedium},
			{Description: "assign a lecturer or venue available at this time", OptimizationScore: 0.5, Effort: models.EffortHigh},
		}
	default:
		return nil
	}
}

// alternativeVenue picks the first other venue that fits the session's attendees, carries the
// equipment and is open at the session's time.
func (d *ClashDetector) alternativeVenue(s models.Session, equipment []string) (models.Venue, bool) {
	if d.ref == nil {
		return models.Venue{}, false
	}
	attendees := d.ref.Attendees(s)
	start, end := s.ClockMinutes()
	for _, v := range d.ref.Venues() {
		if v.ID == s.VenueID || v.Capacity < attendees {
			continue
		}
		if len(missingEquipment(equipment, v)) > 0 {
			continue
		}
		if !VenueAvailable(v, s.DayOfWeek, start, end) {
			continue
		}
		return v, true
	}
	return models.Venue{}, false
}
