// Package remote implements the roster repositories over the remote REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"roster-console/internal/roster/adapter/httpapi"
	"roster-console/internal/roster/config"
	"roster-console/internal/roster/domain/model"
	"roster-console/internal/roster/domain/repository"
	sharederrors "roster-console/internal/shared/errors"
	"roster-console/internal/shared/logger"
)

// StudentRepository is the remote implementation of repository.StudentRepository
type StudentRepository struct {
	client   *httpapi.Client
	log      logger.Logger
	pageSize int
	sort     model.SortSpec
}

var _ repository.StudentRepository = (*StudentRepository)(nil)

// NewStudentRepository creates a student repository. Paging defaults come
// from cfg when it is non-nil.
func NewStudentRepository(client *httpapi.Client, cfg *config.Config, log logger.Logger) *StudentRepository {
	if log == nil {
		log = logger.NewNopLogger()
	}
	r := &StudentRepository{
		client:   client,
		log:      log.WithComponent("student-repository"),
		pageSize: 10,
		sort:     model.SortSpec{Field: "id", Direction: model.Asc},
	}
	if cfg != nil {
		if cfg.DefaultPageSize > 0 {
			r.pageSize = cfg.DefaultPageSize
		}
		if order, err := model.ParseSort(cfg.DefaultSort); err == nil && !order.IsZero() {
			r.sort = order
		}
	}
	return r
}

func studentPath(id int64) string {
	return "/students/" + strconv.FormatInt(id, 10)
}

// List returns all students
func (r *StudentRepository) List(ctx context.Context) ([]model.Student, error) {
	raw, err := r.client.DoRaw(ctx, http.MethodGet, "/students", nil)
	if err != nil {
		return nil, err
	}
	res, err := httpapi.NormalizeList[model.Student](raw, "students")
	if err != nil {
		return nil, err
	}
	if !res.Ok() {
		r.log.WithContext(ctx).Warn("unexpected response shape for student list, treating as empty")
	}
	return res.Items, nil
}

// ListPage returns one page of students. Zero size and sort fall back to the
// configured defaults.
func (r *StudentRepository) ListPage(ctx context.Context, req model.PageRequest) (*model.Page[model.Student], error) {
	if req.Page < 0 {
		req.Page = 0
	}
	if req.Size <= 0 {
		req.Size = r.pageSize
	}
	if req.Sort.IsZero() {
		req.Sort = r.sort
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("size", strconv.Itoa(req.Size))
	q.Set("sort", req.Sort.String())

	var page model.Page[model.Student]
	if err := r.client.Get(ctx, "/students/paged?"+q.Encode(), &page); err != nil {
		return nil, err
	}
	if page.Content == nil {
		page.Content = []model.Student{}
	}
	return &page, nil
}

// Get returns a student with its enrolled courses
func (r *StudentRepository) Get(ctx context.Context, id int64) (*model.Student, error) {
	raw, err := r.client.DoRaw(ctx, http.MethodGet, studentPath(id), nil)
	if err != nil {
		return nil, err
	}
	if isEmptyBody(raw) {
		return nil, sharederrors.NewNotFoundError(fmt.Sprintf("student %d", id)).WithComponent("student-repository")
	}
	var s model.Student
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, sharederrors.NewTransportError("failed to decode student", err).WithComponent("student-repository")
	}
	return &s, nil
}

// Search runs a server-side search
func (r *StudentRepository) Search(ctx context.Context, query string) ([]model.Student, error) {
	raw, err := r.client.DoRaw(ctx, http.MethodGet, "/students/search?query="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}
	res, err := httpapi.NormalizeList[model.Student](raw, "students")
	if err != nil {
		return nil, err
	}
	if !res.Ok() {
		r.log.WithContext(ctx).Warn("unexpected response shape for student search, treating as empty")
	}
	return res.Items, nil
}

// Create validates and creates a student
func (r *StudentRepository) Create(ctx context.Context, in model.StudentInput) (*model.Student, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var created model.Student
	if err := r.client.Post(ctx, "/students", in, &created); err != nil {
		return nil, err
	}
	r.log.WithContext(ctx).Infof("Student created: %d", created.ID)
	return &created, nil
}

// Update validates and replaces a student's fields. The id never changes.
func (r *StudentRepository) Update(ctx context.Context, id int64, in model.StudentInput) (*model.Student, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var updated model.Student
	if err := r.client.Put(ctx, studentPath(id), in, &updated); err != nil {
		return nil, err
	}
	updated.ID = id
	return &updated, nil
}

// Delete removes a student
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	if err := r.client.Delete(ctx, studentPath(id)); err != nil {
		return err
	}
	r.log.WithContext(ctx).Infof("Student deleted: %d", id)
	return nil
}

// EnrolledCourses returns the student's courses. Both a bare list and an
// object wrapping it under "courses" are accepted.
func (r *StudentRepository) EnrolledCourses(ctx context.Context, id int64) ([]model.Course, error) {
	raw, err := r.client.DoRaw(ctx, http.MethodGet, studentPath(id)+"/courses", nil)
	if err != nil {
		return nil, err
	}
	res, err := httpapi.NormalizeList[model.Course](raw, "courses")
	if err != nil {
		return nil, err
	}
	if !res.Ok() {
		r.log.WithContext(ctx).WithFields(map[string]interface{}{"student_id": id}).
			Warn("unexpected response shape for enrolled courses, treating as empty")
	}
	return res.Items, nil
}

// ReplaceEnrolledCourses submits the complete list of course codes
func (r *StudentRepository) ReplaceEnrolledCourses(ctx context.Context, id int64, codes []string) error {
	if codes == nil {
		codes = []string{}
	}
	return r.client.Post(ctx, studentPath(id)+"/courses", codes, nil)
}

func isEmptyBody(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
