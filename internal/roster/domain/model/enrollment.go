package model

import "sort"

// Enrollment is one edge of the student-course relation. It has no identity
// beyond its two endpoints.
type Enrollment struct {
	StudentID  int64  `json:"studentId"`
	CourseCode string `json:"courseCode"`
}

// EnrollmentSet is a set of edges
type EnrollmentSet map[Enrollment]struct{}

// NewEnrollmentSet builds a set from edges
func NewEnrollmentSet(edges ...Enrollment) EnrollmentSet {
	s := make(EnrollmentSet, len(edges))
	for _, e := range edges {
		s.Add(e)
	}
	return s
}

// EnrollmentsFor builds the edges of one student
func EnrollmentsFor(studentID int64, codes []string) EnrollmentSet {
	s := make(EnrollmentSet, len(codes))
	for _, c := range codes {
		s.Add(Enrollment{StudentID: studentID, CourseCode: c})
	}
	return s
}

func (s EnrollmentSet) Add(e Enrollment)    { s[e] = struct{}{} }
func (s EnrollmentSet) Remove(e Enrollment) { delete(s, e) }
func (s EnrollmentSet) Len() int            { return len(s) }

// Has reports membership
func (s EnrollmentSet) Has(e Enrollment) bool {
	_, ok := s[e]
	return ok
}

// ReplaceStudent drops every edge of studentID and adds one per code
func (s EnrollmentSet) ReplaceStudent(studentID int64, codes []string) {
	for e := range s {
		if e.StudentID == studentID {
			delete(s, e)
		}
	}
	for _, c := range codes {
		s.Add(Enrollment{StudentID: studentID, CourseCode: c})
	}
}

// RemoveStudent drops every edge of studentID
func (s EnrollmentSet) RemoveStudent(studentID int64) {
	s.ReplaceStudent(studentID, nil)
}

// RemoveCourse drops every edge of code
func (s EnrollmentSet) RemoveCourse(code string) {
	for e := range s {
		if e.CourseCode == code {
			delete(s, e)
		}
	}
}

// CodesOf returns the sorted course codes of studentID
func (s EnrollmentSet) CodesOf(studentID int64) []string {
	out := []string{}
	for e := range s {
		if e.StudentID == studentID {
			out = append(out, e.CourseCode)
		}
	}
	sort.Strings(out)
	return out
}

// StudentsOf returns the sorted student ids enrolled in code
func (s EnrollmentSet) StudentsOf(code string) []int64 {
	out := []int64{}
	for e := range s {
		if e.CourseCode == code {
			out = append(out, e.StudentID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equal reports set equality
func (s EnrollmentSet) Equal(other EnrollmentSet) bool {
	if len(s) != len(other) {
		return false
	}
	for e := range s {
		if !other.Has(e) {
			return false
		}
	}
	return true
}
