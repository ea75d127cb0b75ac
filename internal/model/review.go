package model

import "time"

// Review is a guest's rating of a completed stay. One per booking.
type Review struct {
	ID            int64     `json:"id"`
	ApartmentID   int64     `json:"apartment_id"`
	BookingID     int64     `json:"booking_id"`
	AuthorID      int64     `json:"created_by"`
	Rating        int       `json:"rating"`
	Cleanliness   int       `json:"cleanliness"`
	Communication int       `json:"communication"`
	Location      int       `json:"location"`
	Value         int       `json:"value"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateReviewRequest is used for POST /reviews
type CreateReviewRequest struct {
	BookingID     int64  `json:"booking_id" binding:"required,gt=0"`
	Rating        int    `json:"rating" binding:"required,min=1,max=5"`
	Cleanliness   int    `json:"cleanliness" binding:"required,min=1,max=5"`
	Communication int    `json:"communication" binding:"required,min=1,max=5"`
	Location      int    `json:"location" binding:"required,min=1,max=5"`
	Value         int    `json:"value" binding:"required,min=1,max=5"`
	Comment       string `json:"comment" binding:"max=2000"`
}

// ReviewSummary aggregates the reviews of a listing
type ReviewSummary struct {
	Count         int     `json:"count"`
	AverageRating float64 `json:"average_rating"`
}

// ApartmentReviews is the response of GET /reviews/:apartment_id
type ApartmentReviews struct {
	Summary ReviewSummary `json:"summary"`
	Reviews []Review      `json:"reviews"`
}
