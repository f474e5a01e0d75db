package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/yatrafleet/service-booking/internal/application"
	"github.com/yatrafleet/service-booking/internal/middleware"
	"github.com/yatrafleet/service-booking/internal/response"
)

// AdminHandler serves the admin dashboard endpoints.
type AdminHandler struct {
	bookings *application.BookingService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(bookings *application.BookingService) *AdminHandler {
	return &AdminHandler{bookings: bookings}
}

// RegisterRoutes registers admin routes. Every route requires the admin role.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *middleware.JWTManager) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.Auth(jwtManager), middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.GET("/bookings/stats", h.GetBookingStats)
	}
}

// GetBookingStats handles GET /api/v1/admin/bookings/stats.
func (h *AdminHandler) GetBookingStats(c *gin.Context) {
	stats, err := h.bookings.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
