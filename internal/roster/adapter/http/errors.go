package http

import (
	"errors"

	"roster-console/internal/roster/usecase"
	"roster-console/internal/shared/advisory"
	sharederrors "roster-console/internal/shared/errors"
	"roster-console/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// MsgRetryLater is shown for upstream and transport failures
const MsgRetryLater = "Something went wrong. Please try again later."

// ErrorResponse is the body of every failed gateway response
type ErrorResponse struct {
	Error    string                         `json:"error"`
	Type     sharederrors.ErrorType         `json:"type,omitempty"`
	Fields   []sharederrors.ValidationError `json:"fields,omitempty"`
	Advisory *advisory.Advisory             `json:"advisory,omitempty"`
	Bulk     *BulkFailure                   `json:"bulk,omitempty"`
}

// BulkFailure describes where a bulk enrollment stopped
type BulkFailure struct {
	Applied []int64 `json:"applied"`
	Failed  int64   `json:"failed"`
	Step    int     `json:"step"`
}

// statusFor maps a classified error to the gateway status and message
func statusFor(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Type: sharederrors.TypeOf(err)}

	var appErr *sharederrors.AppError
	if !errors.As(err, &appErr) {
		resp.Error = MsgRetryLater
		resp.Type = sharederrors.ErrorTypeInternal
		return fiber.StatusInternalServerError, resp
	}

	switch appErr.Type {
	case sharederrors.ErrorTypeValidation:
		resp.Error = appErr.Message
		if fields, ok := appErr.Details["validation_errors"].([]sharederrors.ValidationError); ok {
			resp.Fields = fields
		}
		return fiber.StatusBadRequest, resp
	case sharederrors.ErrorTypeNotFound:
		resp.Error = appErr.Message
		return fiber.StatusNotFound, resp
	case sharederrors.ErrorTypeConflict:
		resp.Error = appErr.Message
		return fiber.StatusConflict, resp
	case sharederrors.ErrorTypeRateLimited:
		resp.Error = appErr.Message
		if fired, _ := appErr.Details[advisory.DetailKey].(bool); fired {
			resp.Advisory = &advisory.Advisory{Title: advisory.DefaultTitle, Message: advisory.DefaultMessage}
		}
		return fiber.StatusTooManyRequests, resp
	case sharederrors.ErrorTypeAPI:
		// 4xx keeps the server message
		if appErr.HTTPCode >= 400 && appErr.HTTPCode < 500 {
			resp.Error = appErr.Message
			return appErr.HTTPCode, resp
		}
		resp.Error = MsgRetryLater
		return fiber.StatusBadGateway, resp
	case sharederrors.ErrorTypeTransport:
		resp.Error = MsgRetryLater
		return fiber.StatusBadGateway, resp
	case sharederrors.ErrorTypeAuthentication:
		resp.Error = appErr.Message
		return fiber.StatusUnauthorized, resp
	default:
		resp.Error = MsgRetryLater
		return fiber.StatusInternalServerError, resp
	}
}

// handleError writes err as JSON and logs server-side failures
func handleError(c *fiber.Ctx, log logger.Logger, err error) error {
	status, resp := statusFor(err)

	var bulk *usecase.BulkError
	if errors.As(err, &bulk) {
		resp.Bulk = &BulkFailure{Applied: bulk.Applied, Failed: bulk.Failed, Step: bulk.Step}
	}

	if status >= fiber.StatusInternalServerError {
		log.WithContext(c.UserContext()).Errorf("%s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(resp)
}
