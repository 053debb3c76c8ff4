package model

import (
	"regexp"
	"strings"

	sharederrors "roster-console/internal/shared/errors"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Student is assigned its id by the server. Courses is denormalized and
// never authoritative.
type Student struct {
	ID        int64    `json:"id,omitempty"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Courses   []Course `json:"courses,omitempty"`
}

// StudentInput is the writable part of a Student
type StudentInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// FullName joins first and last name
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Input strips the id and relationships
func (s Student) Input() StudentInput {
	return StudentInput{FirstName: s.FirstName, LastName: s.LastName, Email: s.Email}
}

// Summary returns the student without its course list
func (s Student) Summary() Student {
	s.Courses = nil
	return s
}

// Validate checks the input before it is submitted
func (in StudentInput) Validate() error {
	ve := sharederrors.NewValidationErrors()
	if strings.TrimSpace(in.FirstName) == "" {
		ve.Add("firstName", "First name is required", in.FirstName)
	}
	if strings.TrimSpace(in.LastName) == "" {
		ve.Add("lastName", "Last name is required", in.LastName)
	}
	if !emailRegex.MatchString(strings.TrimSpace(in.Email)) {
		ve.Add("email", "Please enter a valid email address", in.Email)
	}
	if appErr := ve.ToAppError(); appErr != nil {
		return appErr.WithComponent("student-repository")
	}
	return nil
}

// StudentIDs returns the ids of students in order
func StudentIDs(students []Student) []int64 {
	ids := make([]int64, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}
	return ids
}
