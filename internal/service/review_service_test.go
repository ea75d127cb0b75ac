package service

import (
	"context"
	"testing"

	"apartment_booking/internal/logger"
	"apartment_booking/internal/model"
	"apartment_booking/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewRequest(bookingID int64, rating int) model.CreateReviewRequest {
	return model.CreateReviewRequest{
		BookingID: bookingID, Rating: rating, Cleanliness: 5, Communication: 4, Location: 5, Value: 4,
		Comment: " Cosy place ",
	}
}

func TestReviewService_CreateReview(t *testing.T) {
	store := testhelpers.NewStore()
	svc := NewReviewService(store.Reviews(), store.Bookings(), store.Apartments(), logger.Discard())
	ctx := context.Background()

	owner := testhelpers.SeedUser(t, store, "owner", model.RoleUser)
	guest := model.IdentityOf(testhelpers.SeedUser(t, store, "guest", model.RoleUser))
	stranger := model.IdentityOf(testhelpers.SeedUser(t, store, "stranger", model.RoleUser))
	a := testhelpers.SeedApartment(t, store, owner.ID, model.ModerationApproved)
	done := testhelpers.SeedBooking(t, store, a.ID, guest.UserID, testhelpers.Day(2025, 6, 1), testhelpers.Day(2025, 6, 3), model.BookingCompleted)
	upcoming := testhelpers.SeedBooking(t, store, a.ID, guest.UserID, testhelpers.Day(2025, 7, 1), testhelpers.Day(2025, 7, 3), model.BookingConfirmed)

	_, err := svc.CreateReview(ctx, stranger, reviewRequest(done.ID, 5))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CreateReview(ctx, guest, reviewRequest(upcoming.ID, 5))
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.CreateReview(ctx, guest, reviewRequest(done.ID, 6))
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.CreateReview(ctx, guest, reviewRequest(9999, 5))
	assert.ErrorIs(t, err, ErrBookingNotFound)

	rv, err := svc.CreateReview(ctx, guest, reviewRequest(done.ID, 5))
	require.NoError(t, err)
	assert.Equal(t, a.ID, rv.ApartmentID)
	assert.Equal(t, "Cosy place", rv.Comment)

	_, err = svc.CreateReview(ctx, guest, reviewRequest(done.ID, 3))
	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestReviewService_ApartmentReviews(t *testing.T) {
	store := testhelpers.NewStore()
	svc := NewReviewService(store.Reviews(), store.Bookings(), store.Apartments(), logger.Discard())
	ctx := context.Background()

	owner := testhelpers.SeedUser(t, store, "owner", model.RoleUser)
	guest := model.IdentityOf(testhelpers.SeedUser(t, store, "guest", model.RoleUser))
	a := testhelpers.SeedApartment(t, store, owner.ID, model.ModerationApproved)
	for i, rating := range []int{5, 4} {
		in := testhelpers.Day(2025, 6, 1+i*5)
		b := testhelpers.SeedBooking(t, store, a.ID, guest.UserID, in, in.AddDate(0, 0, 2), model.BookingCompleted)
		_, err := svc.CreateReview(ctx, guest, reviewRequest(b.ID, rating))
		require.NoError(t, err)
	}

	got, err := svc.ApartmentReviews(ctx, a.ID, model.Identity{})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Summary.Count)
	assert.InDelta(t, 4.5, got.Summary.AverageRating, 0.001)
	assert.Len(t, got.Reviews, 2)

	all, err := svc.ListReviews(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.ApartmentReviews(ctx, 9999, model.Identity{})
	assert.ErrorIs(t, err, ErrApartmentNotFound)
}

func TestReviewService_ApartmentReviewsHiddenListing(t *testing.T) {
	store := testhelpers.NewStore()
	svc := NewReviewService(store.Reviews(), store.Bookings(), store.Apartments(), logger.Discard())
	ctx := context.Background()

	owner := model.IdentityOf(testhelpers.SeedUser(t, store, "owner", model.RoleUser))
	other := model.IdentityOf(testhelpers.SeedUser(t, store, "other", model.RoleUser))
	admin := model.IdentityOf(testhelpers.SeedUser(t, store, "admin", model.RoleAdmin))

	for _, status := range []string{model.ModerationPending, model.ModerationRejected} {
		a := testhelpers.SeedApartment(t, store, owner.UserID, status)

		_, err := svc.ApartmentReviews(ctx, a.ID, model.Identity{})
		assert.ErrorIs(t, err, ErrApartmentNotFound, status)
		_, err = svc.ApartmentReviews(ctx, a.ID, other)
		assert.ErrorIs(t, err, ErrApartmentNotFound, status)

		got, err := svc.ApartmentReviews(ctx, a.ID, owner)
		require.NoError(t, err, status)
		assert.Equal(t, 0, got.Summary.Count)
		_, err = svc.ApartmentReviews(ctx, a.ID, admin)
		assert.NoError(t, err, status)
	}
}

func TestReviewService_CreateReviewReportsFirstBadRating(t *testing.T) {
	store := testhelpers.NewStore()
	svc := NewReviewService(store.Reviews(), store.Bookings(), store.Apartments(), logger.Discard())
	ctx := context.Background()

	owner := testhelpers.SeedUser(t, store, "owner", model.RoleUser)
	guest := model.IdentityOf(testhelpers.SeedUser(t, store, "guest", model.RoleUser))
	a := testhelpers.SeedApartment(t, store, owner.ID, model.ModerationApproved)
	done := testhelpers.SeedBooking(t, store, a.ID, guest.UserID, testhelpers.Day(2025, 6, 1), testhelpers.Day(2025, 6, 3), model.BookingCompleted)

	zero := model.CreateReviewRequest{BookingID: done.ID}
	lateFields := model.CreateReviewRequest{BookingID: done.ID, Rating: 5, Cleanliness: 5, Communication: 0, Location: 9, Value: 0}
	for i := 0; i < 20; i++ {
		_, err := svc.CreateReview(ctx, guest, zero)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "rating", verr.Field)

		_, err = svc.CreateReview(ctx, guest, lateFields)
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "communication", verr.Field)
	}
}
