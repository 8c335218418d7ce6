package httperr

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
)

// BusinessError is a request problem found at the transport edge, before
// the booking service is reached, such as a malformed path id.
type BusinessError struct {
	Code string
}

func (e BusinessError) Error() string {
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	return errors.As(err, &be) && be.Code == code
}

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

type conflictDetails struct {
	BookingID string `json:"booking_id"`
	Reference string `json:"reference"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type transitionDetails struct {
	Current string `json:"current_status"`
	Action  string `json:"action"`
}

// Status resolves the HTTP status and error code for a service error.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, booking.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, booking.ErrSchedulingConflict):
		return http.StatusConflict, "scheduling_conflict"
	case errors.Is(err, booking.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, "invalid_transition"
	case errors.Is(err, booking.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound, "booking_not_found"
	case errors.Is(err, booking.ErrReferenceExhausted):
		return http.StatusServiceUnavailable, "reference_exhausted"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "storage_timeout"
	}

	var be BusinessError
	if errors.As(err, &be) {
		return http.StatusBadRequest, be.Code
	}

	return http.StatusInternalServerError, "internal_error"
}

// FromDomain writes the response for an error returned by the booking
// service. Unknown errors are reported without their message.
func FromDomain(c *gin.Context, err error) {
	status, code := Status(err)

	resp := HTTPError{Code: code, Message: err.Error()}

	var ce *booking.ConflictError
	if errors.As(err, &ce) {
		resp.Details = conflictDetails{
			BookingID: ce.BookingID.String(),
			Reference: ce.Reference,
			Date:      ce.Date.Format(booking.DateLayout),
			StartTime: ce.Window.Start.String(),
			EndTime:   ce.Window.End.String(),
		}
	}

	var te *booking.TransitionError
	if errors.As(err, &te) {
		resp.Details = transitionDetails{
			Current: string(te.Current),
			Action:  string(te.Action),
		}
	}

	if status == http.StatusNotFound {
		resp.Message = "Booking not found."
	}
	if status == http.StatusGatewayTimeout {
		resp.Message = "Storage did not respond in time."
	}
	if status == http.StatusInternalServerError {
		resp.Message = "Internal error."
	}

	c.JSON(status, resp)
}
