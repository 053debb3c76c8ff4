package usecase

import (
	"fmt"
	"strings"

	"roster-console/internal/roster/domain/model"
	sharederrors "roster-console/internal/shared/errors"

	"github.com/google/cel-go/cel"
)

// Filter keeps courses whose code, title or description contains query,
// ignoring case. A blank query returns every course.
func Filter(courses []model.Course, query string) []model.Course {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return courses
	}
	out := make([]model.Course, 0, len(courses))
	for _, c := range courses {
		if strings.Contains(strings.ToLower(c.Code), q) ||
			strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.Description), q) {
			out = append(out, c)
		}
	}
	return out
}

// CourseQuery is a compiled CEL predicate over a variable named course with
// the fields code, title, description and studentCount.
type CourseQuery struct {
	expr    string
	program cel.Program
}

var courseEnv = mustCourseEnv()

func mustCourseEnv() *cel.Env {
	env, err := cel.NewEnv(cel.Variable("course", cel.MapType(cel.StringType, cel.DynType)))
	if err != nil {
		panic(fmt.Sprintf("course query environment: %v", err))
	}
	return env
}

// CompileCourseQuery parses and type-checks expr
func CompileCourseQuery(expr string) (*CourseQuery, error) {
	ast, issues := courseEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, sharederrors.NewValidationError(fmt.Sprintf("invalid course query: %v", issues.Err())).
			WithComponent("catalog")
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, sharederrors.NewValidationError("course query must evaluate to a boolean").
			WithComponent("catalog")
	}
	program, err := courseEnv.Program(ast)
	if err != nil {
		return nil, sharederrors.NewValidationError(fmt.Sprintf("failed to create course query program: %v", err)).
			WithComponent("catalog")
	}
	return &CourseQuery{expr: expr, program: program}, nil
}

func (q *CourseQuery) String() string { return q.expr }

// Match evaluates the query against c
func (q *CourseQuery) Match(c model.Course) (bool, error) {
	out, _, err := q.program.Eval(map[string]interface{}{
		"course": map[string]interface{}{
			"code":         c.Code,
			"title":        c.Title,
			"description":  c.Description,
			"studentCount": int64(len(c.Students)),
		},
	})
	if err != nil {
		return false, sharederrors.NewValidationError(fmt.Sprintf("course query evaluation error: %v", err)).
			WithComponent("catalog")
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, sharederrors.NewValidationError("course query did not return a boolean").WithComponent("catalog")
	}
	return result, nil
}

// Where compiles expr and keeps the matching courses
func Where(courses []model.Course, expr string) ([]model.Course, error) {
	q, err := CompileCourseQuery(expr)
	if err != nil {
		return nil, err
	}
	out := make([]model.Course, 0, len(courses))
	for _, c := range courses {
		ok, err := q.Match(c)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}
