package handler

import (
	"net/http"
	"strconv"
	"strings"

	"apartment_booking/internal/logger"
	"apartment_booking/internal/model"
	"apartment_booking/internal/service"

	"github.com/gin-gonic/gin"
)

// ApartmentHandler serves listings, moderation and listing images
type ApartmentHandler struct {
	service service.ApartmentService
	log     *logger.Logger
}

func NewApartmentHandler(s service.ApartmentService, log *logger.Logger) *ApartmentHandler {
	return &ApartmentHandler{service: s, log: log}
}

func (h *ApartmentHandler) CreateApartment(c *gin.Context) {
	owner, ok := identity(c)
	if !ok {
		return
	}
	var req model.CreateApartmentRequest
	if !bindJSON(c, &req) {
		return
	}

	apartment, err := h.service.CreateApartment(c.Request.Context(), owner, req)
	if err != nil {
		respondError(c, h.log, err, "Failed to create apartment")
		return
	}
	c.JSON(http.StatusCreated, apartment)
}

// parseApartmentQuery reads listing filters from the query string
func parseApartmentQuery(c *gin.Context) (service.ApartmentQuery, bool) {
	var q service.ApartmentQuery
	var ok bool
	f := &q.Filters

	f.City = queryString(c, "city")
	f.ModerationStatus = queryString(c, "moderation_status")
	if f.MinPrice, ok = queryInt64(c, "min_price"); !ok {
		return q, false
	}
	if f.MaxPrice, ok = queryInt64(c, "max_price"); !ok {
		return q, false
	}
	if f.Bedrooms, ok = queryInt(c, "bedrooms"); !ok {
		return q, false
	}
	if f.Guests, ok = queryInt(c, "guests"); !ok {
		return q, false
	}
	for _, raw := range c.QueryArray("amenities") {
		f.Amenities = append(f.Amenities, strings.Split(raw, ",")...)
	}

	checkIn, ok := queryDate(c, "check_in")
	if !ok {
		return q, false
	}
	checkOut, ok := queryDate(c, "check_out")
	if !ok {
		return q, false
	}
	switch {
	case checkIn != nil && checkOut != nil:
		stay := model.NewDateRange(*checkIn, *checkOut)
		f.Stay = &stay
	case checkIn != nil || checkOut != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in and check_out must be given together"})
		return q, false
	}

	if raw := c.Query("mine"); raw != "" {
		mine, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mine format"})
			return q, false
		}
		q.Mine = mine
	}
	return q, true
}

func (h *ApartmentHandler) ListApartments(c *gin.Context) {
	query, ok := parseApartmentQuery(c)
	if !ok {
		return
	}
	apartments, err := h.service.ListApartments(c.Request.Context(), viewer(c), query)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve apartments")
		return
	}
	c.JSON(http.StatusOK, apartments)
}

func (h *ApartmentHandler) GetApartment(c *gin.Context) {
	id, ok := pathID(c, "id", "apartment")
	if !ok {
		return
	}
	apartment, err := h.service.GetApartment(c.Request.Context(), id, viewer(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve apartment")
		return
	}
	c.JSON(http.StatusOK, apartment)
}

func (h *ApartmentHandler) UpdateApartment(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "apartment")
	if !ok {
		return
	}
	var req model.UpdateApartmentRequest
	if !bindJSON(c, &req) {
		return
	}

	apartment, err := h.service.UpdateApartment(c.Request.Context(), id, caller, req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update apartment")
		return
	}
	c.JSON(http.StatusOK, apartment)
}

func (h *ApartmentHandler) DeleteApartment(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "apartment")
	if !ok {
		return
	}

	if err := h.service.DeleteApartment(c.Request.Context(), id, caller); err != nil {
		respondError(c, h.log, err, "Failed to delete apartment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Apartment deleted successfully"})
}

func (h *ApartmentHandler) Moderate(c *gin.Context) {
	admin, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "apartment")
	if !ok {
		return
	}
	var req model.ModerationRequest
	if !bindJSON(c, &req) {
		return
	}

	apartment, err := h.service.Moderate(c.Request.Context(), id, admin, req.Status)
	if err != nil {
		respondError(c, h.log, err, "Failed to moderate apartment")
		return
	}
	c.JSON(http.StatusOK, apartment)
}

func (h *ApartmentHandler) UploadImage(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "apartment")
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required: " + err.Error()})
		return
	}

	apartment, err := h.service.UploadImage(c.Request.Context(), id, caller, file)
	if err != nil {
		respondError(c, h.log, err, "Failed to upload image")
		return
	}
	c.JSON(http.StatusOK, apartment)
}

func (h *ApartmentHandler) BookedDates(c *gin.Context) {
	id, ok := pathID(c, "id", "apartment")
	if !ok {
		return
	}
	ranges, err := h.service.BookedDates(c.Request.Context(), id, viewer(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve booked dates")
		return
	}

	c.JSON(http.StatusOK, ranges)
}

// RegisterApartmentRoutes registers listing routes. Reads use optional auth
// so owners and admins also see listings awaiting moderation.
func (h *ApartmentHandler) RegisterApartmentRoutes(rg *gin.RouterGroup, authMW, optionalAuthMW, adminMW gin.HandlerFunc) {
	apartments := rg.Group("/apartments")
	{
		apartments.GET("", optionalAuthMW, h.ListApartments)
		apartments.GET("/:id", optionalAuthMW, h.GetApartment)
		apartments.GET("/:id/booked-dates", optionalAuthMW, h.BookedDates)

		apartments.POST("", authMW, h.CreateApartment)
		apartments.PUT("/:id", authMW, h.UpdateApartment)
		apartments.DELETE("/:id", authMW, h.DeleteApartment)
		apartments.POST("/:id/image", authMW, h.UploadImage)
		apartments.PUT("/:id/moderation", authMW, adminMW, h.Moderate)
	}
}
