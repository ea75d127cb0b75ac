package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"apartment_booking/internal/lock"
	"apartment_booking/internal/logger"
	"apartment_booking/internal/model"
	"apartment_booking/internal/repository"
)

// Status moves a listing owner (or an admin) may make
var ownerTransitions = map[string][]string{
	model.BookingPending:   {model.BookingConfirmed, model.BookingCancelled},
	model.BookingConfirmed: {model.BookingCompleted, model.BookingCancelled},
}

// Status moves a renter may make on their own booking
var renterTransitions = map[string][]string{
	model.BookingPending:   {model.BookingCancelled},
	model.BookingConfirmed: {model.BookingCancelled},
}

func allowed(table map[string][]string, from, to string) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// BookingQuery narrows the bookings a caller sees
type BookingQuery struct {
	Role        string // "renter", "owner" or empty for both
	Status      *string
	ApartmentID *int64
}

// BookingService defines operations on the booking ledger
type BookingService interface {
	CreateBooking(ctx context.Context, renter model.Identity, req model.CreateBookingRequest) (*model.Booking, error)
	GetBooking(ctx context.Context, id int64, caller model.Identity) (*model.Booking, error)
	ListBookings(ctx context.Context, caller model.Identity, query BookingQuery) ([]model.Booking, error)
	UpdateBooking(ctx context.Context, id int64, caller model.Identity, req model.UpdateBookingRequest) (*model.Booking, error)
}

type bookingService struct {
	bookings   repository.BookingRepository
	apartments repository.ApartmentRepository
	locks      *lock.KeyedMutex
	now        func() time.Time
	log        *logger.Logger
}

// NewBookingService creates a new BookingService. Admissions for one
// apartment are serialized through locks; now defaults to time.Now.
func NewBookingService(bookings repository.BookingRepository, apartments repository.ApartmentRepository,
	locks *lock.KeyedMutex, now func() time.Time, log *logger.Logger) BookingService {
	if now == nil {
		now = time.Now
	}
	if locks == nil {
		locks = lock.NewKeyedMutex()
	}
	return &bookingService{
		bookings:   bookings,
		apartments: apartments,
		locks:      locks,
		now:        now,
		log:        log.With("component", "bookings"),
	}
}

func (s *bookingService) parseStay(req model.CreateBookingRequest) (model.DateRange, error) {
	checkIn, err := model.ParseDate(req.CheckIn)
	if err != nil {
		return model.DateRange{}, invalid("check_in", "%v", err)
	}
	checkOut, err := model.ParseDate(req.CheckOut)
	if err != nil {
		return model.DateRange{}, invalid("check_out", "%v", err)
	}
	stay := model.NewDateRange(checkIn, checkOut)
	if !stay.Valid() {
		return stay, invalid("check_out", "must be after check_in")
	}
	if stay.CheckIn.Before(model.TruncateDay(s.now())) {
		return stay, invalid("check_in", "must not be in the past")
	}
	return stay, nil
}

// CreateBooking admits a pending booking if no active booking of the
// apartment overlaps the requested stay. The price is computed here from
// the listing's current nightly rate.
func (s *bookingService) CreateBooking(ctx context.Context, renter model.Identity, req model.CreateBookingRequest) (*model.Booking, error) {
	if renter.UserID == 0 {
		return nil, ErrUnauthenticated
	}
	stay, err := s.parseStay(req)
	if err != nil {
		return nil, err
	}
	if req.Guests < 1 {
		return nil, invalid("guests", "must be at least 1")
	}

	apartment, err := s.apartments.FindByID(ctx, req.ApartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find apartment for booking: %w", err)
	}
	if apartment == nil || !apartment.VisibleTo(renter.UserID, renter.Role) {
		return nil, ErrApartmentNotFound
	}
	if apartment.OwnerID == renter.UserID {
		return nil, fmt.Errorf("%w: owners cannot book their own apartment", ErrForbidden)
	}
	if !apartment.IsApproved() || !apartment.IsAvailable {
		return nil, ErrApartmentNotBooked
	}
	if req.Guests > apartment.MaxGuests {
		return nil, invalid("guests", "apartment accepts at most %d guests", apartment.MaxGuests)
	}

	booking := &model.Booking{
		ApartmentID:     apartment.ID,
		RenterID:        renter.UserID,
		CheckIn:         stay.CheckIn,
		CheckOut:        stay.CheckOut,
		Guests:          req.Guests,
		TotalPrice:      apartment.PricePerNight * int64(stay.Nights()),
		Status:          model.BookingPending,
		SpecialRequests: emptyToNil(req.SpecialRequests),
	}

	unlock := s.locks.Lock(apartment.ID)
	defer unlock()

	if err := s.bookings.CreateIfAvailable(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			s.log.Info("booking rejected: dates overlap",
				"apartment_id", apartment.ID, "renter_id", renter.UserID,
				"check_in", req.CheckIn, "check_out", req.CheckOut)
			return nil, ErrDateConflict
		}
		return nil, fmt.Errorf("failed to create booking in repo: %w", err)
	}
	s.log.Info("booking admitted", "booking_id", booking.ID, "apartment_id", apartment.ID,
		"renter_id", renter.UserID, "nights", stay.Nights(), "total_price", booking.TotalPrice)
	return booking, nil
}

// access loads a booking with its apartment and tells how the caller relates to it
func (s *bookingService) access(ctx context.Context, id int64, caller model.Identity) (*model.Booking, bool, bool, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, false, false, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	if booking == nil {
		return nil, false, false, ErrBookingNotFound
	}
	isRenter := caller.UserID != 0 && booking.RenterID == caller.UserID

	isOwner := false
	apartment, err := s.apartments.FindByID(ctx, booking.ApartmentID)
	if err != nil {
		return nil, false, false, fmt.Errorf("failed to find apartment of booking: %w", err)
	}
	if apartment != nil && caller.UserID != 0 && apartment.OwnerID == caller.UserID {
		isOwner = true
	}

	if !isRenter && !isOwner && !caller.IsAdmin() {
		return nil, false, false, ErrForbidden
	}
	return booking, isRenter, isOwner, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id int64, caller model.Identity) (*model.Booking, error) {
	booking, _, _, err := s.access(ctx, id, caller)
	return booking, err
}

// ListBookings returns the caller's bookings as renter and the bookings on
// apartments they own. Admins see every booking.
func (s *bookingService) ListBookings(ctx context.Context, caller model.Identity, query BookingQuery) ([]model.Booking, error) {
	filters := model.BookingFilters{Status: query.Status, ApartmentID: query.ApartmentID}
	switch strings.ToLower(query.Role) {
	case "renter":
		filters.RenterID = &caller.UserID
	case "owner":
		filters.OwnerID = &caller.UserID
	case "":
		if !caller.IsAdmin() {
			filters.RenterID = &caller.UserID
			filters.OwnerID = &caller.UserID
		}
	default:
		return nil, invalid("role", "must be renter or owner")
	}

	bookings, err := s.bookings.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// UpdateBooking applies a status transition and/or a special requests edit.
// Dates are immutable; cancelled and completed bookings are final. A booking
// can only be completed once its check-out day has come.
func (s *bookingService) UpdateBooking(ctx context.Context, id int64, caller model.Identity, req model.UpdateBookingRequest) (*model.Booking, error) {
	if req.Status == nil && req.SpecialRequests == nil {
		return nil, invalid("status", "nothing to update")
	}
	booking, isRenter, isOwner, err := s.access(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	if booking.Terminal() {
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, booking.Status)
	}

	from := booking.Status
	if req.Status != nil && *req.Status != from {
		to := *req.Status
		switch {
		case (isOwner || caller.IsAdmin()) && allowed(ownerTransitions, from, to):
		case isRenter && allowed(renterTransitions, from, to):
		case isRenter && !isOwner && !caller.IsAdmin() && allowed(ownerTransitions, from, to):
			return nil, fmt.Errorf("%w: only the apartment owner can set status %s", ErrForbidden, to)
		default:
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
		if to == model.BookingCompleted && s.now().Before(booking.CheckOut) {
			return nil, fmt.Errorf("%w: stay ends on %s", ErrInvalidTransition, booking.CheckOut.Format(model.DateLayout))
		}
		booking.Status = to
	}

	if req.SpecialRequests != nil {
		if !isRenter {
			return nil, fmt.Errorf("%w: only the renter can edit special requests", ErrForbidden)
		}
		if from != model.BookingPending {
			return nil, fmt.Errorf("%w: special requests can only change while pending", ErrInvalidTransition)
		}
		booking.SpecialRequests = emptyToNil(req.SpecialRequests)
	}

	if err := s.bookings.UpdateStatus(ctx, booking, from); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingModified
		}
		return nil, fmt.Errorf("failed to update booking in repo: %w", err)
	}
	if booking.Status != from {
		s.log.Info("booking status changed", "booking_id", id, "from", from, "to", booking.Status, "by", caller.UserID)
	}
	return booking, nil
}
