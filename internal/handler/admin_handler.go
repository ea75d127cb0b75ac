package handler

import (
	"fmt"
	"net/http"
	"time"

	"apartment_booking/internal/logger"
	"apartment_booking/internal/model"
	"apartment_booking/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves marketplace statistics and exports
type AdminHandler struct {
	service service.AdminService
	log     *logger.Logger
}

func NewAdminHandler(s service.AdminService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{service: s, log: log}
}

func (h *AdminHandler) GetStatistics(c *gin.Context) {
	stats, err := h.service.GetStatistics(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func parseBookingFilters(c *gin.Context) (model.BookingFilters, bool) {
	var filters model.BookingFilters
	var ok bool
	filters.Status = queryString(c, "status")
	if filters.ApartmentID, ok = queryInt64(c, "apartment_id"); !ok {
		return filters, false
	}
	if filters.StartDate, ok = queryDate(c, "start_date"); !ok {
		return filters, false
	}
	if filters.EndDate, ok = queryDate(c, "end_date"); !ok {
		return filters, false
	}
	return filters, true
}

func (h *AdminHandler) ExportBookingsCSV(c *gin.Context) {
	filters, ok := parseBookingFilters(c)
	if !ok {
		return
	}

	csvBuffer, err := h.service.ExportBookingsCSV(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.log, err, "Failed to export bookings to CSV")
		return
	}

	fileName := fmt.Sprintf("bookings_export_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "text/csv", csvBuffer.Bytes())
}

// RegisterAdminRoutes registers admin-only routes
func (h *AdminHandler) RegisterAdminRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	adminRoutes := rg.Group("/admin")
	adminRoutes.Use(authMW)
	adminRoutes.Use(adminMW)
	{
		adminRoutes.GET("/stats", h.GetStatistics)
		adminRoutes.GET("/bookings/export/csv", h.ExportBookingsCSV)
	}
}
