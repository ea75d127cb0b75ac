package handler

import (
	"net/http"

	"apartment_booking/internal/logger"
	"apartment_booking/internal/model"
	"apartment_booking/internal/service"

	"github.com/gin-gonic/gin"
)

// BookingHandler handles booking requests
type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(s service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{service: s, log: log}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	renter, ok := identity(c)
	if !ok {
		return
	}
	var req model.CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := h.service.CreateBooking(c.Request.Context(), renter, req)
	if err != nil {
		respondError(c, h.log, err, "Failed to create booking")
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	query := service.BookingQuery{
		Role:   c.Query("role"),
		Status: queryString(c, "status"),
	}
	if query.ApartmentID, ok = queryInt64(c, "apartment_id"); !ok {
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), caller, query)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve bookings")
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}

	booking, err := h.service.GetBooking(c.Request.Context(), id, caller)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve booking")
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}
	var req model.UpdateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := h.service.UpdateBooking(c.Request.Context(), id, caller, req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update booking")
		return
	}
	c.JSON(http.StatusOK, booking)
}

// RegisterBookingRoutes registers booking routes
func (h *BookingHandler) RegisterBookingRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	bookings := rg.Group("/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)   // renter, listing owner or admin
		bookings.PUT("/:id", h.UpdateBooking) // service enforces transitions per relation
	}
}
