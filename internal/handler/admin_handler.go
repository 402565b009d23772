package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shareit/service-booking/internal/application"
	"github.com/shareit/service-booking/internal/platform/apperr"
	"github.com/shareit/service-booking/internal/platform/auth"
	"github.com/shareit/service-booking/internal/platform/middleware"
	"github.com/shareit/service-booking/internal/platform/response"
)

const (
	defaultAdminLimit = 20
	maxAdminLimit     = 100
)

// AdminBookingHandler serves booking oversight for operators holding an
// admin token.
type AdminBookingHandler struct {
	service *application.BookingService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// ListBookings handles GET /api/v1/admin/bookings?status=&item_id=&page=&limit=.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	q, err := adminQueryFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	bookings, total, err := h.service.ListAllBookings(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, q.Page, q.Limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// adminQueryFrom clamps paging to sane bounds instead of rejecting it.
func adminQueryFrom(c *gin.Context) (application.AdminBookingQuery, error) {
	q := application.AdminBookingQuery{Status: c.Query("status"), Page: 1, Limit: defaultAdminLimit}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		q.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 && limit <= maxAdminLimit {
		q.Limit = limit
	}
	if raw := c.Query("item_id"); raw != "" {
		itemID, err := uuid.Parse(raw)
		if err != nil {
			return q, apperr.NewInvalidArgument("invalid item_id")
		}
		q.ItemID = &itemID
	}
	return q, nil
}
