package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yatrafleet/service-booking/internal/domain"
)

// Envelope is the uniform response body for successful requests.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody is the uniform response body for failed requests.
type ErrorBody struct {
	Success bool         `json:"success"`
	Error   ErrorDetails `json:"error"`
}

// ErrorDetails carries the machine-readable error information.
type ErrorDetails struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	Reason        string `json:"reason,omitempty"`
	BookingNumber string `json:"booking_number,omitempty"`
}

// Success writes a 200 response with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// NoContent writes a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes a 200 response with pagination metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"pagination": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorBody{
		Error: ErrorDetails{Code: "bad_request", Message: message},
	})
}

// Error maps a domain error to its HTTP status and writes the response.
func Error(c *gin.Context, err error) {
	var (
		validationErr  *domain.ValidationError
		notFoundErr    *domain.NotFoundError
		conflictErr    *domain.ConflictError
		stateErr       *domain.InvalidStateError
		forbiddenErr   *domain.ForbiddenError
		unavailableErr *domain.UnavailableError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorBody{
			Error: ErrorDetails{Code: "validation_error", Message: validationErr.Message},
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, ErrorBody{
			Error: ErrorDetails{Code: "not_found", Message: notFoundErr.Error()},
		})
	case errors.As(err, &unavailableErr):
		c.JSON(http.StatusConflict, ErrorBody{
			Error: ErrorDetails{
				Code:          "vehicle_unavailable",
				Message:       unavailableErr.Message,
				Reason:        string(unavailableErr.Reason),
				BookingNumber: unavailableErr.BookingNumber,
			},
		})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, ErrorBody{
			Error: ErrorDetails{Code: "conflict", Message: conflictErr.Message},
		})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorBody{
			Error: ErrorDetails{Code: "invalid_state", Message: stateErr.Error()},
		})
	case errors.As(err, &forbiddenErr):
		c.JSON(http.StatusForbidden, ErrorBody{
			Error: ErrorDetails{Code: "forbidden", Message: forbiddenErr.Message},
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorBody{
			Error: ErrorDetails{Code: "internal_error", Message: "internal server error"},
		})
	}
}
