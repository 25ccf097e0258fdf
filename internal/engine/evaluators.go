package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

const defaultMaxGapMinutes = 15

func evaluateHardAvailability(in EvaluationInput) []Finding {
	var findings []Finding
	for _, s := range in.Sessions {
		var lecturer *models.Lecturer
		if l, ok := in.Reference.Lecturer(s.LecturerID); ok && listedOrScopedBySession(in.Constraint, s, l.ID) {
			lecturer = &l
		}
		var venue *models.Venue
		if v, ok := in.Reference.Venue(s.VenueID); ok && listedOrScopedBySession(in.Constraint, s, v.ID) {
			venue = &v
		}
		for _, issue := range CheckAvailability(s, lecturer, venue) {
			findings = append(findings, Finding{
				SessionIDs:  []string{s.ID},
				EntityIDs:   []string{issue.EntityID},
				Description: issue.Description,
				Score:       1,
			})
		}
	}
	return findings
}

// listedOrScopedBySession decides whether an entity of s is covered. When the constraint names the
// session or its course directly every entity is covered; otherwise only the listed ones.
func listedOrScopedBySession(c models.Constraint, s models.Session, entityID string) bool {
	if listed(c, entityID) {
		return true
	}
	return lo.Contains([]string(c.Entities), s.ID) || lo.Contains([]string(c.Entities), s.CourseID)
}

type capacityRule struct {
	MaxCapacity int `json:"maxCapacity"`
	Threshold   int `json:"threshold"`
}

// decodeCapacityLimit accepts either a bare number or {"maxCapacity": n} / {"threshold": n}.
func decodeCapacityLimit(rule models.ConstraintRule) int {
	var n float64
	if err := rule.Decode(&n); err == nil && n > 0 {
		return int(n)
	}
	var r capacityRule
	if err := rule.Decode(&r); err == nil {
		if r.MaxCapacity > 0 {
			return r.MaxCapacity
		}
		return r.Threshold
	}
	return 0
}

func evaluateVenueCapacity(in EvaluationInput) []Finding {
	threshold := decodeCapacityLimit(in.Constraint.Rule)
	var findings []Finding
	for _, s := range in.Sessions {
		venue, ok := in.Reference.Venue(s.VenueID)
		if !ok {
			continue
		}
		limit := threshold
		if limit <= 0 {
			limit = venue.Capacity
		}
		attendees := in.Reference.Attendees(s)
		if attendees <= limit {
			continue
		}
		overage := attendees - limit
		score := 1.0
		if limit > 0 {
			score = float64(overage) / float64(limit)
		}
		findings = append(findings, Finding{
			SessionIDs:  []string{s.ID},
			EntityIDs:   append([]string{venue.ID}, s.StudentGroups...),
			Description: fmt.Sprintf("session %s has %d attendees at venue %s, %d over the limit of %d", s.ID, attendees, venue.ID, overage, limit),
			Score:       score,
		})
	}
	return findings
}

func decodeEquipment(rule models.ConstraintRule) []string {
	var items []string
	if err := rule.Decode(&items); err != nil {
		var wrapped struct {
			Equipment []string `json:"equipment"`
		}
		if err := rule.Decode(&wrapped); err == nil {
			items = wrapped.Equipment
		}
	}
	return lo.Uniq(lo.Map(items, func(item string, _ int) string {
		return strings.ToUpper(strings.TrimSpace(item))
	}))
}

func evaluateEquipmentRequirement(in EvaluationInput) []Finding {
	required := decodeEquipment(in.Constraint.Rule)
	var findings []Finding
	for _, s := range in.Sessions {
		venue, ok := in.Reference.Venue(s.VenueID)
		if !ok {
			continue
		}
		items := required
		if len(items) == 0 {
			if course, ok := in.Reference.Course(s.CourseID); ok {
				items = course.RequiredEquipment
			}
		}
		if len(items) == 0 {
			continue
		}
		missing := missingEquipment(items, venue)
		if len(missing) == 0 {
			continue
		}
		findings = append(findings, Finding{
			SessionIDs:  []string{s.ID},
			EntityIDs:   append([]string{venue.ID}, missing...),
			Description: fmt.Sprintf("venue %s assigned to session %s is missing required equipment: %s", venue.ID, s.ID, strings.Join(missing, ", ")),
			Score:       float64(len(missing)) / float64(len(items)),
		})
	}
	return findings
}

func evaluateLecturerPreference(in EvaluationInput) []Finding {
	var findings []Finding
	lecturerIDs := lo.Uniq(lo.Map(in.Sessions, func(s models.Session, _ int) string { return s.LecturerID }))
	for _, lecturerID := range lecturerIDs {
		lecturer, ok := in.Reference.Lecturer(lecturerID)
		if !ok {
			continue
		}
		prefs := lecturer.Preferences
		scoped := lo.Filter(in.Sessions, func(s models.Session, _ int) bool { return s.LecturerID == lecturerID })

		if len(prefs.PreferredTimeSlots) > 0 {
			for _, s := range scoped {
				if inPreferredSlot(s, prefs.PreferredTimeSlots) {
					continue
				}
				findings = append(findings, Finding{
					SessionIDs:  []string{s.ID},
					EntityIDs:   []string{lecturer.ID},
					Description: fmt.Sprintf("session %s is outside the preferred time slots of lecturer %s", s.ID, lecturer.ID),
					Score:       1,
				})
			}
		}

		all := lo.Filter(in.AllSessions, func(s models.Session, _ int) bool { return s.LecturerID == lecturerID })
		days := byDay(all)
		for _, day := range sortedDays(days) {
			list := days[day]
			for i := 1; i < len(list); i++ {
				prev, next := list[i-1], list[i]
				gap := int(next.StartTime.Sub(prev.EndTime) / time.Minute)
				switch {
				case gap == 0 && prefs.AvoidBackToBackClasses:
					findings = append(findings, Finding{
						SessionIDs:  []string{prev.ID, next.ID},
						EntityIDs:   []string{lecturer.ID},
						Description: fmt.Sprintf("lecturer %s has back-to-back sessions %s and %s on %s", lecturer.ID, prev.ID, next.ID, day),
						Score:       1,
					})
				case gap >= 0 && gap < prefs.MinimumBreakBetweenClasses:
					findings = append(findings, Finding{
						SessionIDs: []string{prev.ID, next.ID},
						EntityIDs:  []string{lecturer.ID},
						Description: fmt.Sprintf("lecturer %s has only %d minutes between sessions %s and %s on %s, prefers %d",
							lecturer.ID, gap, prev.ID, next.ID, day, prefs.MinimumBreakBetweenClasses),
						Score: float64(prefs.MinimumBreakBetweenClasses-gap) / float64(prefs.MinimumBreakBetweenClasses),
					})
				}
			}

			if lecturer.MaxHoursPerDay > 0 {
				limit := lecturer.MaxHoursPerDay * 60
				total := lo.SumBy(list, func(s models.Session) int { return s.DurationMinutes() })
				if total > limit {
					findings = append(findings, Finding{
						SessionIDs: lo.Map(list, func(s models.Session, _ int) string { return s.ID }),
						EntityIDs:  []string{lecturer.ID},
						Description: fmt.Sprintf("lecturer %s teaches %s on %s, more than the maximum of %d hours per day",
							lecturer.ID, formatHours(total), day, lecturer.MaxHoursPerDay),
						Score: float64(total-limit) / float64(limit),
					})
				}
			}
		}
	}
	return findings
}

func inPreferredSlot(s models.Session, slots []models.TimeWindow) bool {
	start, end := s.ClockMinutes()
	for _, slot := range slots {
		if slot.DayOfWeek == s.DayOfWeek && slot.Range().Contains(start, end) {
			return true
		}
	}
	return false
}

func formatHours(minutes int) string {
	if minutes%60 == 0 {
		return fmt.Sprintf("%dh", minutes/60)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}

type breakRule struct {
	MinBreakMinutes int `json:"minBreakMinutes"`
}

// evaluateStudentBreak checks the gap between consecutive sessions of each listed group on the same
// day. Overlapping sessions are left to the clash detector.
func evaluateStudentBreak(in EvaluationInput) []Finding {
	var rule breakRule
	if err := in.Constraint.Rule.Decode(&rule); err != nil || rule.MinBreakMinutes <= 0 {
		return nil
	}
	groups := lo.Uniq(lo.FlatMap(in.AllSessions, func(s models.Session, _ int) []string { return s.StudentGroups }))
	groups = lo.Filter(groups, func(g string, _ int) bool { return listed(in.Constraint, g) })

	var findings []Finding
	for _, group := range groups {
		own := lo.Filter(in.AllSessions, func(s models.Session, _ int) bool { return s.HasGroup(group) })
		days := byDay(own)
		for _, day := range sortedDays(days) {
			list := days[day]
			for i := 1; i < len(list); i++ {
				prev, next := list[i-1], list[i]
				gap := int(next.StartTime.Sub(prev.EndTime) / time.Minute)
				if gap < 0 || gap >= rule.MinBreakMinutes {
					continue
				}
				findings = append(findings, Finding{
					SessionIDs: []string{prev.ID, next.ID},
					EntityIDs:  []string{group},
					Description: fmt.Sprintf("student group %s gets %d minutes of break time between sessions %s and %s on %s, minimum is %d",
						group, gap, prev.ID, next.ID, day, rule.MinBreakMinutes),
					Score: float64(rule.MinBreakMinutes-gap) / float64(rule.MinBreakMinutes),
				})
			}
		}
	}
	return findings
}

type windowRule struct {
	StartTime string             `json:"startTime"`
	EndTime   string             `json:"endTime"`
	Days      []models.DayOfWeek `json:"days"`
}

func evaluateTimeWindow(in EvaluationInput) []Finding {
	var rule windowRule
	if err := in.Constraint.Rule.Decode(&rule); err != nil {
		return nil
	}
	windowStart, windowEnd, ok := models.ClockRange{StartTime: rule.StartTime, EndTime: rule.EndTime}.Minutes()
	if !ok {
		return nil
	}
	days := make(map[models.DayOfWeek]struct{}, len(rule.Days))
	for _, d := range rule.Days {
		if day, err := models.ParseDayOfWeek(string(d)); err == nil {
			days[day] = struct{}{}
		}
	}

	var findings []Finding
	for _, s := range in.Sessions {
		if len(days) > 0 {
			if _, ok := days[s.DayOfWeek]; !ok {
				continue
			}
		}
		start, end := s.ClockMinutes()
		if start >= windowStart && end <= windowEnd {
			continue
		}
		outside := 0
		if start < windowStart {
			outside += min(windowStart, end) - start
		}
		if end > windowEnd {
			outside += end - max(windowEnd, start)
		}
		score := 1.0
		if d := end - start; d > 0 {
			score = float64(outside) / float64(d)
		}
		findings = append(findings, Finding{
			SessionIDs: []string{s.ID},
			EntityIDs:  []string{},
			Description: fmt.Sprintf("session %s (%s-%s) falls outside the allowed time window %s-%s",
				s.ID, models.FormatClock(start), models.FormatClock(end), rule.StartTime, rule.EndTime),
			Score: score,
		})
	}
	return findings
}

// evaluateDepartmentPolicy compares one session attribute against the rule value and reports every
// session for which the comparison does not hold. Unknown fields or operators yield nothing.
func evaluateDepartmentPolicy(in EvaluationInput) []Finding {
	rule := in.Constraint.Rule
	if rule.Field == "" || rule.Operator == "" {
		return nil
	}
	var expected interface{}
	if err := rule.Decode(&expected); err != nil || expected == nil {
		return nil
	}

	var findings []Finding
	for _, s := range in.Sessions {
		actual, ok := sessionAttribute(s, rule.Field, in.Reference)
		if !ok {
			continue
		}
		holds, ok := compare(actual, rule.Operator, expected)
		if !ok {
			continue
		}
		if holds {
			continue
		}
		description := in.Constraint.Description
		if description == "" {
			description = "department policy"
		}
		findings = append(findings, Finding{
			SessionIDs:  []string{s.ID},
			EntityIDs:   []string{},
			Description: fmt.Sprintf("session %s breaks %s: %s %s %s (actual %v)", s.ID, description, rule.Field, rule.Operator, string(rule.Payload), actual),
			Score:       1,
		})
	}
	return findings
}

func sessionAttribute(s models.Session, field string, ref *Reference) (interface{}, bool) {
	start, end := s.ClockMinutes()
	switch field {
	case "durationMinutes":
		return float64(s.DurationMinutes()), true
	case "startHour":
		return float64(start) / 60, true
	case "endHour":
		return float64(end) / 60, true
	case "attendees":
		return float64(ref.Attendees(s)), true
	case "dayOfWeek":
		return string(s.DayOfWeek), true
	case "venueId":
		return s.VenueID, true
	case "lecturerId":
		return s.LecturerID, true
	case "courseId":
		return s.CourseID, true
	default:
		return nil, false
	}
}

func compare(actual interface{}, operator string, expected interface{}) (bool, bool) {
	switch strings.ToLower(operator) {
	case "in", "not_in":
		values, ok := expected.([]interface{})
		if !ok {
			return false, false
		}
		found := lo.ContainsBy(values, func(v interface{}) bool { return equalValues(actual, v) })
		if strings.ToLower(operator) == "in" {
			return found, true
		}
		return !found, true
	case "eq", "==", "=":
		return equalValues(actual, expected), true
	case "ne", "!=":
		return !equalValues(actual, expected), true
	}

	a, aok := actual.(float64)
	e, eok := expected.(float64)
	if !aok || !eok {
		return false, false
	}
	switch strings.ToLower(operator) {
	case "lt", "<":
		return a < e, true
	case "lte", "<=":
		return a <= e, true
	case "gt", ">":
		return a > e, true
	case "gte", ">=":
		return a >= e, true
	default:
		return false, false
	}
}

func equalValues(actual, expected interface{}) bool {
	if a, ok := actual.(string); ok {
		e, ok := expected.(string)
		return ok && strings.EqualFold(a, e)
	}
	a, aok := actual.(float64)
	e, eok := expected.(float64)
	return aok && eok && a == e
}

type consecutiveRule struct {
	MaxConsecutive int  `json:"maxConsecutive"`
	MaxGapMinutes  *int `json:"maxGapMinutes"`
}

// evaluateConsecutiveSessions flags runs of sessions, per lecturer and per group and day, that are
// longer than maxConsecutive. Sessions separated by at most maxGapMinutes belong to the same run.
func evaluateConsecutiveSessions(in EvaluationInput) []Finding {
	var rule consecutiveRule
	if err := in.Constraint.Rule.Decode(&rule); err != nil || rule.MaxConsecutive <= 0 {
		return nil
	}
	maxGap := defaultMaxGapMinutes
	if rule.MaxGapMinutes != nil && *rule.MaxGapMinutes >= 0 {
		maxGap = *rule.MaxGapMinutes
	}

	var findings []Finding
	check := func(kind, id string, own []models.Session) {
		days := byDay(own)
		for _, day := range sortedDays(days) {
			list := days[day]
			run := []models.Session{list[0]}
			flush := func() {
				if len(run) > rule.MaxConsecutive {
					findings = append(findings, Finding{
						SessionIDs: lo.Map(run, func(s models.Session, _ int) string { return s.ID }),
						EntityIDs:  []string{id},
						Description: fmt.Sprintf("%s %s has %d consecutive sessions on %s, maximum is %d",
							kind, id, len(run), day, rule.MaxConsecutive),
						Score: float64(len(run)-rule.MaxConsecutive) / float64(len(run)),
					})
				}
			}
			for i := 1; i < len(list); i++ {
				gap := int(list[i].StartTime.Sub(run[len(run)-1].EndTime) / time.Minute)
				if gap >= 0 && gap <= maxGap {
					run = append(run, list[i])
					continue
				}
				flush()
				run = []models.Session{list[i]}
			}
			flush()
		}
	}

	for _, lecturerID := range lo.Uniq(lo.Map(in.Sessions, func(s models.Session, _ int) string { return s.LecturerID })) {
		if lecturerID == "" {
			continue
		}
		check("lecturer", lecturerID, lo.Filter(in.AllSessions, func(s models.Session, _ int) bool { return s.LecturerID == lecturerID }))
	}
	groups := lo.Uniq(lo.FlatMap(in.Sessions, func(s models.Session, _ int) []string { return s.StudentGroups }))
	for _, group := range groups {
		check("student group", group, lo.Filter(in.AllSessions, func(s models.Session, _ int) bool { return s.HasGroup(group) }))
	}
	return findings
}
