package model

import (
	"regexp"
	"strings"
	"unicode/utf8"

	sharederrors "roster-console/internal/shared/errors"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

var courseCodeRegex = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// Course is keyed by its user-assigned code. Students is denormalized and
// never authoritative.
type Course struct {
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Students    []Student `json:"students,omitempty"`
}

// ValidCourseCode reports whether code is 2-10 uppercase letters or digits
func ValidCourseCode(code string) bool {
	return courseCodeRegex.MatchString(code)
}

// Summary returns the course without its student list
func (c Course) Summary() Course {
	c.Students = nil
	return c
}

// Validate checks the course before it is submitted
func (c Course) Validate() error {
	ve := sharederrors.NewValidationErrors()
	switch {
	case strings.TrimSpace(c.Code) == "":
		ve.Add("code", "Course code is required", c.Code)
	case utf8.RuneCountInString(c.Code) < 2:
		ve.Add("code", "Course code must be at least 2 characters", c.Code)
	case utf8.RuneCountInString(c.Code) > 10:
		ve.Add("code", "Course code cannot exceed 10 characters", c.Code)
	case !ValidCourseCode(c.Code):
		ve.Add("code", "Course code must contain only uppercase letters and numbers", c.Code)
	}

	titleLen := utf8.RuneCountInString(c.Title)
	if strings.TrimSpace(c.Title) == "" {
		ve.Add("title", "Course title is required", c.Title)
	} else if titleLen > MaxTitleLength {
		ve.Add("title", "Course title cannot exceed 100 characters", c.Title)
	}
	if utf8.RuneCountInString(c.Description) > MaxDescriptionLength {
		ve.Add("description", "Course description cannot exceed 500 characters", len(c.Description))
	}

	if appErr := ve.ToAppError(); appErr != nil {
		return appErr.WithComponent("course-repository")
	}
	return nil
}

// CourseCodes returns the codes of courses in order
func CourseCodes(courses []Course) []string {
	codes := make([]string, len(courses))
	for i, c := range courses {
		codes[i] = c.Code
	}
	return codes
}
