// Package engine holds the pure scheduling rules: clash detection, constraint validation and the
// greedy fallback scheduler. Nothing in this package performs I/O; callers hand in snapshots.
package engine

import "github.com/noah-isme/sma-timetable-engine/internal/models"

// Reference is an immutable, normalized snapshot of the entities sessions point at.
type Reference struct {
	venues    map[string]models.Venue
	lecturers map[string]models.Lecturer
	courses   map[string]models.Course
	groups    map[string]models.StudentGroup

	venueOrder    []models.Venue
	lecturerOrder []models.Lecturer
	courseOrder   []models.Course
	groupOrder    []models.StudentGroup
}

// NewReference normalizes every entity once and indexes it by id. Input order is preserved for
// deterministic iteration; later duplicates of an id replace earlier ones in the index only.
func NewReference(entities models.SchedulingEntities) *Reference {
	ref := &Reference{
		venues:    make(map[string]models.Venue, len(entities.Venues)),
		lecturers: make(map[string]models.Lecturer, len(entities.Lecturers)),
		courses:   make(map[string]models.Course, len(entities.Courses)),
		groups:    make(map[string]models.StudentGroup, len(entities.StudentGroups)),
	}
	for _, v := range entities.Venues {
		v = v.Normalize()
		if _, seen := ref.venues[v.ID]; !seen {
			ref.venueOrder = append(ref.venueOrder, v)
		}
		ref.venues[v.ID] = v
	}
	for _, l := range entities.Lecturers {
		l = l.Normalize()
		if _, seen := ref.lecturers[l.ID]; !seen {
			ref.lecturerOrder = append(ref.lecturerOrder, l)
		}
		ref.lecturers[l.ID] = l
	}
	for _, c := range entities.Courses {
		c = c.Normalize()
		if _, seen := ref.courses[c.ID]; !seen {
			ref.courseOrder = append(ref.courseOrder, c)
		}
		ref.courses[c.ID] = c
	}
	for _, g := range entities.StudentGroups {
		g = g.Normalize()
		if _, seen := ref.groups[g.ID]; !seen {
			ref.groupOrder = append(ref.groupOrder, g)
		}
		ref.groups[g.ID] = g
	}
	return ref
}

// Venue looks up a venue.
func (r *Reference) Venue(id string) (models.Venue, bool) {
	if r == nil {
		return models.Venue{}, false
	}
	v, ok := r.venues[id]
	return v, ok
}

// Lecturer looks up a lecturer.
func (r *Reference) Lecturer(id string) (models.Lecturer, bool) {
	if r == nil {
		return models.Lecturer{}, false
	}
	l, ok := r.lecturers[id]
	return l, ok
}

// Course looks up a course.
func (r *Reference) Course(id string) (models.Course, bool) {
	if r == nil {
		return models.Course{}, false
	}
	c, ok := r.courses[id]
	return c, ok
}

// StudentGroup looks up a student group.
func (r *Reference) StudentGroup(id string) (models.StudentGroup, bool) {
	if r == nil {
		return models.StudentGroup{}, false
	}
	g, ok := r.groups[id]
	return g, ok
}

// Venues returns venues in input order.
func (r *Reference) Venues() []models.Venue {
	if r == nil {
		return nil
	}
	return r.venueOrder
}

// Lecturers returns lecturers in input order.
func (r *Reference) Lecturers() []models.Lecturer {
	if r == nil {
		return nil
	}
	return r.lecturerOrder
}

// Courses returns courses in input order.
func (r *Reference) Courses() []models.Course {
	if r == nil {
		return nil
	}
	return r.courseOrder
}

// StudentGroups returns groups in input order.
func (r *Reference) StudentGroups() []models.StudentGroup {
	if r == nil {
		return nil
	}
	return r.groupOrder
}

// GroupsSize sums the sizes of known groups. Unknown ids count as zero.
func (r *Reference) GroupsSize(groupIDs []string) int {
	total := 0
	for _, id := range groupIDs {
		if g, ok := r.StudentGroup(id); ok {
			total += g.Size
		}
	}
	return total
}

// Attendees is the number of students expected in the session.
func (r *Reference) Attendees(s models.Session) int {
	return r.GroupsSize(s.StudentGroups)
}
