package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	earningdomain "github.com/tablenest/tablenest/internal/earning/domain"
	payoutdomain "github.com/tablenest/tablenest/internal/payout/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case errors.Is(err, payoutdomain.ErrBookingNotFound),
		errors.Is(err, payoutdomain.ErrVenueNotFound),
		errors.Is(err, payoutdomain.ErrConciergeNotFound),
		errors.Is(err, earningdomain.ErrBookingNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case errors.Is(err, payoutdomain.ErrDistributionInProgress):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "distribution already in progress",
		}
	case errors.Is(err, earningdomain.ErrPartialLedger):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, payoutdomain.ErrBookingNotFinalized),
		errors.Is(err, payoutdomain.ErrRegimeMismatch),
		errors.Is(err, payoutdomain.ErrInvalidFee),
		errors.Is(err, payoutdomain.ErrInvalidGuestCount),
		errors.Is(err, payoutdomain.ErrInvalidRate),
		errors.Is(err, payoutdomain.ErrInvalidMultiplier),
		errors.Is(err, earningdomain.ErrInvalidRole),
		errors.Is(err, earningdomain.ErrInvalidBooking),
		errors.Is(err, earningdomain.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) {
		return vErr
	}
	var val ValidationErrors
	if errors.As(err, &val) {
		return &val
	}
	return nil
}

// classifyErrorForLog buckets an error into (type, code) for request logs.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if asValidationErrors(err) != nil {
		return "validation_error", "invalid_request"
	}

	switch {
	case errors.Is(err, payoutdomain.ErrBookingNotFound),
		errors.Is(err, payoutdomain.ErrVenueNotFound),
		errors.Is(err, payoutdomain.ErrConciergeNotFound),
		errors.Is(err, earningdomain.ErrBookingNotFound):
		return "not_found", err.Error()
	case errors.Is(err, payoutdomain.ErrDistributionInProgress),
		errors.Is(err, earningdomain.ErrPartialLedger):
		return "conflict", err.Error()
	case errors.Is(err, payoutdomain.ErrBookingNotFinalized),
		errors.Is(err, payoutdomain.ErrRegimeMismatch):
		return "unprocessable", err.Error()
	case errors.Is(err, earningdomain.ErrNotConservative):
		return "internal_error", "earnings_not_conservative"
	}

	return "internal_error", "internal_error"
}
