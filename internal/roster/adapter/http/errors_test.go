package http

import (
	"errors"
	"fmt"
	"testing"

	"roster-console/internal/roster/usecase"
	"roster-console/internal/shared/advisory"
	sharederrors "roster-console/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	ve := sharederrors.NewValidationErrors()
	ve.Add("code", "Course code is required", "")

	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", ve.ToAppError(), fiber.StatusBadRequest, ""},
		{"not found", sharederrors.NewNotFoundError("student 4"), fiber.StatusNotFound, "student 4 not found"},
		{"conflict", sharederrors.NewConflictError("busy"), fiber.StatusConflict, "busy"},
		{"rate limited", sharederrors.NewRateLimitedError(), fiber.StatusTooManyRequests, "API Error: 429 Too Many Requests - Please try again later"},
		{"api 4xx", sharederrors.NewAPIError(409, "Course with code CS101 already exists"), fiber.StatusConflict, "Course with code CS101 already exists"},
		{"api 5xx", sharederrors.NewAPIError(500, "API Error: 500 Internal Server Error"), fiber.StatusBadGateway, MsgRetryLater},
		{"transport", sharederrors.NewTransportError("dial", errors.New("refused")), fiber.StatusBadGateway, MsgRetryLater},
		{"plain", errors.New("boom"), fiber.StatusInternalServerError, MsgRetryLater},
		{"wrapped api", fmt.Errorf("step: %w", sharederrors.NewAPIError(404, "Student not found with id: 9")), fiber.StatusNotFound, "Student not found with id: 9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, resp := statusFor(tc.err)
			assert.Equal(t, tc.status, status)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, resp.Error)
			}
		})
	}
}

func TestStatusFor_ValidationFieldsAndAdvisory(t *testing.T) {
	ve := sharederrors.NewValidationErrors()
	ve.Add("email", "Please enter a valid email address", "x")
	_, resp := statusFor(ve.ToAppError())
	if assert.Len(t, resp.Fields, 1) {
		assert.Equal(t, "email", resp.Fields[0].Field)
	}

	_, resp = statusFor(sharederrors.NewRateLimitedError().WithDetail(advisory.DetailKey, true))
	if assert.NotNil(t, resp.Advisory) {
		assert.Equal(t, "API Rate Limit Reached", resp.Advisory.Title)
	}
}

func TestStatusFor_SuppressedAdvisoryIsOmitted(t *testing.T) {
	status, resp := statusFor(sharederrors.NewRateLimitedError().WithDetail(advisory.DetailKey, false))
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Nil(t, resp.Advisory)

	_, resp = statusFor(sharederrors.NewRateLimitedError())
	assert.Nil(t, resp.Advisory)
}

func TestStatusFor_BulkErrorKeepsUnderlyingStatus(t *testing.T) {
	err := &usecase.BulkError{CourseCode: "CS101", Applied: []int64{1}, Failed: 2, Step: 2, Err: sharederrors.NewRateLimitedError()}
	status, _ := statusFor(err)
	assert.Equal(t, fiber.StatusTooManyRequests, status)
}
