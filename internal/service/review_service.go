package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"apartment_booking/internal/logger"
	"apartment_booking/internal/model"
	"apartment_booking/internal/repository"
)

// ReviewService admits and lists guest reviews
type ReviewService interface {
	CreateReview(ctx context.Context, author model.Identity, req model.CreateReviewRequest) (*model.Review, error)
	ListReviews(ctx context.Context) ([]model.Review, error)
	// ApartmentReviews hides listings the viewer cannot see, like GetApartment
	ApartmentReviews(ctx context.Context, apartmentID int64, viewer model.Identity) (*model.ApartmentReviews, error)
}

type reviewService struct {
	reviews    repository.ReviewRepository
	bookings   repository.BookingRepository
	apartments repository.ApartmentRepository
	log        *logger.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(reviews repository.ReviewRepository, bookings repository.BookingRepository,
	apartments repository.ApartmentRepository, log *logger.Logger) ReviewService {
	return &reviewService{reviews: reviews, bookings: bookings, apartments: apartments, log: log.With("component", "reviews")}
}

func checkRating(field string, v int) error {
	if v < 1 || v > 5 {
		return invalid(field, "must be between 1 and 5")
	}
	return nil
}

// CreateReview stores one review per booking. Only the renter of a
// completed booking may review it.
func (s *reviewService) CreateReview(ctx context.Context, author model.Identity, req model.CreateReviewRequest) (*model.Review, error) {
	ratings := []struct {
		field string
		value int
	}{
		{"rating", req.Rating},
		{"cleanliness", req.Cleanliness},
		{"communication", req.Communication},
		{"location", req.Location},
		{"value", req.Value},
	}
	for _, r := range ratings {
		if err := checkRating(r.field, r.value); err != nil {
			return nil, err
		}
	}

	booking, err := s.bookings.FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking for review: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.RenterID != author.UserID {
		return nil, fmt.Errorf("%w: only the guest of a booking can review it", ErrForbidden)
	}
	if booking.Status != model.BookingCompleted {
		return nil, invalid("booking_id", "only completed stays can be reviewed")
	}

	existing, err := s.reviews.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateReview
	}

	review := &model.Review{
		ApartmentID:   booking.ApartmentID,
		BookingID:     booking.ID,
		AuthorID:      author.UserID,
		Rating:        req.Rating,
		Cleanliness:   req.Cleanliness,
		Communication: req.Communication,
		Location:      req.Location,
		Value:         req.Value,
		Comment:       strings.TrimSpace(req.Comment),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("failed to create review in repo: %w", err)
	}
	return review, nil
}

func (s *reviewService) ListReviews(ctx context.Context) ([]model.Review, error) {
	reviews, err := s.reviews.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (s *reviewService) ApartmentReviews(ctx context.Context, apartmentID int64, viewer model.Identity) (*model.ApartmentReviews, error) {
	apartment, err := s.apartments.FindByID(ctx, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find apartment for reviews: %w", err)
	}
	if apartment == nil || !apartment.VisibleTo(viewer.UserID, viewer.Role) {
		return nil, ErrApartmentNotFound
	}

	reviews, err := s.reviews.ListByApartment(ctx, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list apartment reviews: %w", err)
	}
	summary, err := s.reviews.Summary(ctx, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize apartment reviews: %w", err)
	}
	return &model.ApartmentReviews{Summary: summary, Reviews: reviews}, nil
}
