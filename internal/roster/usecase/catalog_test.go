package usecase

import (
	"context"
	"testing"

	"roster-console/internal/roster/domain/model"
	sharederrors "roster-console/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = []model.Course{
	{Code: "CS101", Title: "Intro to Programming", Description: "Variables and loops", Students: []model.Student{{ID: 1}, {ID: 2}}},
	{Code: "MATH200", Title: "Linear Algebra", Description: "Matrices"},
	{Code: "PHYS150", Title: "Mechanics", Description: "Programming-free physics", Students: []model.Student{{ID: 3}}},
}

func TestFilter(t *testing.T) {
	assert.Len(t, Filter(catalog, ""), 3)
	assert.Len(t, Filter(catalog, "   "), 3)
	assert.Equal(t, []string{"MATH200"}, model.CourseCodes(Filter(catalog, "math")))
	assert.Equal(t, []string{"CS101", "PHYS150"}, model.CourseCodes(Filter(catalog, "PROGRAMMING")))
	assert.Empty(t, Filter(catalog, "biology"))
}

func TestWhere(t *testing.T) {
	got, err := Where(catalog, `course.studentCount > 0 && course.code.startsWith("CS")`)
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101"}, model.CourseCodes(got))

	got, err = Where(catalog, `course.title.contains("a")`)
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101", "MATH200", "PHYS150"}, model.CourseCodes(got))
}

func TestWhere_Invalid(t *testing.T) {
	_, err := Where(catalog, `course.code ==`)
	require.Error(t, err)
	assert.True(t, sharederrors.IsValidation(err))

	_, err = Where(catalog, `1 + 2`)
	require.Error(t, err)
	assert.True(t, sharederrors.IsValidation(err))

	_, err = Where(catalog, `course.code`)
	require.Error(t, err)
	assert.True(t, sharederrors.IsValidation(err))
}

func TestStudentDirectory_Browse(t *testing.T) {
	roster := newMemoryRoster()
	roster.addStudent(1, "Ada")
	roster.addStudent(2, "Alan")
	dir := NewStudentDirectory(studentRepo{roster})

	page, err := dir.Browse(context.Background(), "", model.PageRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalElements)

	page, err = dir.Browse(context.Background(), " Alan ", model.PageRequest{Page: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, model.StudentIDs(page.Content))
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 0, page.Number)
}
