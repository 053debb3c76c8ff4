package usecase

import (
	"context"
	"fmt"
	"time"

	"roster-console/internal/roster/domain/model"
	"roster-console/internal/roster/domain/repository"
	"roster-console/internal/shared/logger"

	"golang.org/x/sync/errgroup"
)

const maxRecentEnrollments = 5

// DashboardUsecase computes the summary shown on the dashboard
type DashboardUsecase struct {
	students repository.StudentRepository
	courses  repository.CourseRepository
	now      func() time.Time
	log      logger.Logger
}

func NewDashboardUsecase(students repository.StudentRepository, courses repository.CourseRepository, log logger.Logger) *DashboardUsecase {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &DashboardUsecase{
		students: students,
		courses:  courses,
		now:      time.Now,
		log:      log.WithComponent("dashboard"),
	}
}

// WithNow replaces the clock used for recent enrollment dates
func (d *DashboardUsecase) WithNow(now func() time.Time) *DashboardUsecase {
	d.now = now
	return d
}

// Stats loads students and courses in parallel. Any failure is logged and
// yields zero stats; it is never returned to the caller.
func (d *DashboardUsecase) Stats(ctx context.Context) model.DashboardStats {
	var students []model.Student
	var courses []model.Course

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, err = d.students.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		courses, err = d.courses.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		d.log.WithContext(ctx).Errorf("Error fetching dashboard data: %v", err)
		return ZeroStats()
	}

	return BuildStats(students, courses, d.now())
}

// ZeroStats is the dashboard shown when data could not be loaded
func ZeroStats() model.DashboardStats {
	return model.DashboardStats{
		StudentCourseRatio: "0",
		RecentEnrollments:  []model.RecentEnrollment{},
	}
}

// BuildStats derives the dashboard from already loaded lists. Recent
// enrollments are illustrative: student i paired with course i mod n, dated
// i days before now.
func BuildStats(students []model.Student, courses []model.Course, now time.Time) model.DashboardStats {
	stats := ZeroStats()
	stats.TotalStudents = len(students)
	stats.TotalCourses = len(courses)
	if len(courses) == 0 {
		return stats
	}

	stats.StudentCourseRatio = fmt.Sprintf("%.1f", float64(len(students))/float64(len(courses)))
	for i := 0; i < min(maxRecentEnrollments, len(students)); i++ {
		stats.RecentEnrollments = append(stats.RecentEnrollments, model.RecentEnrollment{
			Student: students[i].Summary(),
			Course:  courses[i%len(courses)].Summary(),
			Date:    now.AddDate(0, 0, -i),
		})
	}
	return stats
}
