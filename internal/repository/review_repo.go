package repository

import (
	"context"
	"errors"
	"fmt"

	"apartment_booking/internal/model"

	"github.com/jackc/pgx/v5"
)

// ReviewRepository defines operations for review data
type ReviewRepository interface {
	Finder[model.Review]
	Create(ctx context.Context, review *model.Review) error
	FindByBookingID(ctx context.Context, bookingID int64) (*model.Review, error)
	List(ctx context.Context) ([]model.Review, error)
	ListByApartment(ctx context.Context, apartmentID int64) ([]model.Review, error)
	Summary(ctx context.Context, apartmentID int64) (model.ReviewSummary, error)
}

type reviewRepository struct {
	db DBTX
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(db DBTX) ReviewRepository {
	return &reviewRepository{db: db}
}

const reviewColumns = `id, apartment_id, booking_id, author_id, rating, cleanliness,
	communication, location, value, comment, created_at`

func scanReview(row scanner) (*model.Review, error) {
	rv := &model.Review{}
	err := row.Scan(
		&rv.ID, &rv.ApartmentID, &rv.BookingID, &rv.AuthorID, &rv.Rating, &rv.Cleanliness,
		&rv.Communication, &rv.Location, &rv.Value, &rv.Comment, &rv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rv, nil
}

// Create inserts a review. A second review for the same booking yields ErrDuplicate.
func (r *reviewRepository) Create(ctx context.Context, rv *model.Review) error {
	sql := `INSERT INTO reviews (apartment_id, booking_id, author_id, rating, cleanliness, communication, location, value, comment)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, sql,
		rv.ApartmentID, rv.BookingID, rv.AuthorID, rv.Rating, rv.Cleanliness,
		rv.Communication, rv.Location, rv.Value, rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) findOne(ctx context.Context, where string, arg any) (*model.Review, error) {
	rv, err := scanReview(r.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rv, nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id int64) (*model.Review, error) {
	rv, err := r.findOne(ctx, "id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to find review by ID: %w", err)
	}
	return rv, nil
}

func (r *reviewRepository) FindByBookingID(ctx context.Context, bookingID int64) (*model.Review, error) {
	rv, err := r.findOne(ctx, "booking_id = $1", bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find review by booking: %w", err)
	}
	return rv, nil
}

func (r *reviewRepository) List(ctx context.Context) ([]model.Review, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reviewColumns+` FROM reviews ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	reviews, err := collectRows(rows, scanReview)
	if err != nil {
		return nil, fmt.Errorf("failed to read review rows: %w", err)
	}
	return reviews, nil
}

func (r *reviewRepository) ListByApartment(ctx context.Context, apartmentID int64) ([]model.Review, error) {
	sql := `SELECT ` + reviewColumns + ` FROM reviews WHERE apartment_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, sql, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query apartment reviews: %w", err)
	}
	reviews, err := collectRows(rows, scanReview)
	if err != nil {
		return nil, fmt.Errorf("failed to read review rows: %w", err)
	}
	return reviews, nil
}

// Summary returns the review count and mean overall rating of an apartment
func (r *reviewRepository) Summary(ctx context.Context, apartmentID int64) (model.ReviewSummary, error) {
	var s model.ReviewSummary
	sql := `SELECT COUNT(*), COALESCE(AVG(rating), 0)::float8 FROM reviews WHERE apartment_id = $1`
	if err := r.db.QueryRow(ctx, sql, apartmentID).Scan(&s.Count, &s.AverageRating); err != nil {
		return s, fmt.Errorf("failed to summarize reviews: %w", err)
	}
	return s, nil
}
