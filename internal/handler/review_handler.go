package handler

import (
	"net/http"

	"apartment_booking/internal/logger"
	"apartment_booking/internal/model"
	"apartment_booking/internal/service"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	service service.ReviewService
	log     *logger.Logger
}

func NewReviewHandler(s service.ReviewService, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{service: s, log: log}
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	author, ok := identity(c)
	if !ok {
		return
	}
	var req model.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.service.CreateReview(c.Request.Context(), author, req)
	if err != nil {
		respondError(c, h.log, err, "Failed to create review")
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) ListReviews(c *gin.Context) {
	reviews, err := h.service.ListReviews(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve reviews")
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) ApartmentReviews(c *gin.Context) {
	apartmentID, ok := pathID(c, "apartment_id", "apartment")
	if !ok {
		return
	}
	result, err := h.service.ApartmentReviews(c.Request.Context(), apartmentID, viewer(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve reviews")
		return
	}
	c.JSON(http.StatusOK, result)
}

// RegisterReviewRoutes registers review routes; reads are public
func (h *ReviewHandler) RegisterReviewRoutes(rg *gin.RouterGroup, authMW, optionalAuthMW gin.HandlerFunc) {
	reviews := rg.Group("/reviews")
	{
		reviews.GET("", h.ListReviews)
		reviews.GET("/:apartment_id", optionalAuthMW, h.ApartmentReviews)
		reviews.POST("", authMW, h.CreateReview)
	}
}
