package handler

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yatrafleet/service-booking/internal/application"
	"github.com/yatrafleet/service-booking/internal/middleware"
	"github.com/yatrafleet/service-booking/internal/response"
)

// AvailabilityHandler handles fleet availability queries.
type AvailabilityHandler struct {
	service *application.BookingService
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(service *application.BookingService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// RegisterRoutes registers the availability endpoint. The check fans out
// scheduling queries across the whole fleet and may hit the travel time
// provider, so it is rate limited per IP.
func (h *AvailabilityHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *middleware.JWTManager, rps float64, burst int) {
	authMW := middleware.Auth(jwtManager)

	r.POST("/api/v1/availability",
		authMW,
		middleware.RateLimit(rate.Limit(rps), burst),
		h.CheckAvailability,
	)
}

// CheckAvailability handles POST /api/v1/availability. It returns one
// verdict per schedulable vehicle for the proposed window.
func (h *AvailabilityHandler) CheckAvailability(c *gin.Context) {
	var req application.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	verdicts, err := h.service.CheckAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, verdicts)
}
