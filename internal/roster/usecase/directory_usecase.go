package usecase

import (
	"context"
	"strings"

	"roster-console/internal/roster/domain/model"
	"roster-console/internal/roster/domain/repository"
)

// StudentDirectory serves the paged student list
type StudentDirectory struct {
	students repository.StudentRepository
}

func NewStudentDirectory(students repository.StudentRepository) *StudentDirectory {
	return &StudentDirectory{students: students}
}

// Browse returns one page of students. A non-blank query switches to the
// server-side search, whose results come back as a single page.
func (d *StudentDirectory) Browse(ctx context.Context, query string, req model.PageRequest) (*model.Page[model.Student], error) {
	if q := strings.TrimSpace(query); q != "" {
		found, err := d.students.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		page := model.SinglePage(found)
		return &page, nil
	}
	return d.students.ListPage(ctx, req)
}
