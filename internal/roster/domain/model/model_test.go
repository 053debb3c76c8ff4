package model

import (
	"strings"
	"testing"

	sharederrors "roster-console/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidCourseCode(t *testing.T) {
	for _, code := range []string{"CS101", "MATH200", "AB", "0123456789", "X1"} {
		assert.True(t, ValidCourseCode(code), code)
		assert.NoError(t, Course{Code: code, Title: "Intro"}.Validate(), code)
	}
	for _, code := range []string{"cs-101", "", "A", "ABCDEFGHIJK", "cs101", "CS 101", "ÄB"} {
		assert.False(t, ValidCourseCode(code), code)
		err := Course{Code: code, Title: "Intro"}.Validate()
		require.Error(t, err, code)
		assert.True(t, sharederrors.IsValidation(err), code)
	}
}

func TestCourse_ValidateMessages(t *testing.T) {
	err := Course{Code: "cs-101", Title: "", Description: strings.Repeat("x", 501)}.Validate()
	require.Error(t, err)

	var appErr *sharederrors.AppError
	require.ErrorAs(t, err, &appErr)
	fieldErrs := appErr.Details["validation_errors"].([]sharederrors.ValidationError)
	require.Len(t, fieldErrs, 3)
	assert.Equal(t, "Course code must contain only uppercase letters and numbers", fieldErrs[0].Message)
	assert.Equal(t, "Course title is required", fieldErrs[1].Message)
	assert.Equal(t, "description", fieldErrs[2].Field)

	assert.Error(t, Course{Code: "CS101", Title: strings.Repeat("t", 101)}.Validate())

	for code, msg := range map[string]string{
		"":            "Course code is required",
		"A":           "Course code must be at least 2 characters",
		"ABCDEFGHIJK": "Course code cannot exceed 10 characters",
	} {
		err := Course{Code: code, Title: "Intro"}.Validate()
		var appErr *sharederrors.AppError
		require.ErrorAs(t, err, &appErr, code)
		fields, ok := appErr.Details["validation_errors"].([]sharederrors.ValidationError)
		require.True(t, ok, code)
		require.Len(t, fields, 1, code)
		assert.Equal(t, msg, fields[0].Message, code)
	}
	assert.NoError(t, Course{Code: "CS101", Title: strings.Repeat("t", 100), Description: strings.Repeat("d", 500)}.Validate())
}

func TestStudentInput_Validate(t *testing.T) {
	assert.NoError(t, StudentInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}.Validate())

	err := StudentInput{FirstName: " ", LastName: "", Email: "not-an-email"}.Validate()
	require.Error(t, err)
	var appErr *sharederrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Len(t, appErr.Details["validation_errors"], 3)
	assert.Equal(t, "student-repository", appErr.Component)
}

func TestEnrollmentSet(t *testing.T) {
	s := NewEnrollmentSet(
		Enrollment{StudentID: 42, CourseCode: "CS101"},
		Enrollment{StudentID: 42, CourseCode: "MATH200"},
		Enrollment{StudentID: 7, CourseCode: "CS101"},
		Enrollment{StudentID: 7, CourseCode: "CS101"},
	)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"CS101", "MATH200"}, s.CodesOf(42))
	assert.Equal(t, []int64{7, 42}, s.StudentsOf("CS101"))

	s.ReplaceStudent(42, []string{"MATH200"})
	assert.False(t, s.Has(Enrollment{StudentID: 42, CourseCode: "CS101"}))
	assert.Equal(t, []int64{7}, s.StudentsOf("CS101"))

	s.RemoveCourse("CS101")
	assert.Empty(t, s.StudentsOf("CS101"))

	s.RemoveStudent(42)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, []string{}, s.CodesOf(42))

	assert.True(t, EnrollmentsFor(1, []string{"A1", "B2"}).Equal(NewEnrollmentSet(
		Enrollment{StudentID: 1, CourseCode: "B2"},
		Enrollment{StudentID: 1, CourseCode: "A1"},
	)))
}

func TestParseSort(t *testing.T) {
	order, err := ParseSort("id,asc")
	require.NoError(t, err)
	assert.Equal(t, SortSpec{Field: "id", Direction: Asc}, order)
	assert.Equal(t, "id,asc", order.String())

	order, err = ParseSort("lastName, DESC")
	require.NoError(t, err)
	assert.Equal(t, "lastName,desc", order.String())

	order, err = ParseSort("email")
	require.NoError(t, err)
	assert.Equal(t, Asc, order.Direction)

	order, err = ParseSort("")
	require.NoError(t, err)
	assert.True(t, order.IsZero())
	assert.Equal(t, "", order.String())

	_, err = ParseSort("id,sideways")
	assert.Error(t, err)
	_, err = ParseSort(",asc")
	assert.Error(t, err)
}

func TestSinglePage(t *testing.T) {
	p := SinglePage([]Student{{ID: 1}, {ID: 2}})
	assert.Equal(t, int64(2), p.TotalElements)
	assert.Equal(t, 1, p.TotalPages)
	assert.True(t, p.First && p.Last)

	empty := SinglePage[Student](nil)
	assert.NotNil(t, empty.Content)
	assert.True(t, empty.Empty)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestStudentHelpers(t *testing.T) {
	s := Student{ID: 3, FirstName: "Grace", LastName: "Hopper", Email: "g@navy.mil", Courses: []Course{{Code: "CS101"}}}
	assert.Equal(t, "Grace Hopper", s.FullName())
	assert.Nil(t, s.Summary().Courses)
	assert.Equal(t, StudentInput{FirstName: "Grace", LastName: "Hopper", Email: "g@navy.mil"}, s.Input())
	assert.Equal(t, []int64{3}, StudentIDs([]Student{s}))
	assert.Equal(t, []string{"CS101"}, CourseCodes(s.Courses))
}
