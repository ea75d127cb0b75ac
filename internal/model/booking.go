package model

import (
	"encoding/json"
	"time"
)

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
)

// Booking is a reservation of a listing by a renter
type Booking struct {
	ID              int64     `json:"id"`
	ApartmentID     int64     `json:"apartment_id"`
	RenterID        int64     `json:"renter_id"`
	CheckIn         time.Time `json:"check_in"`
	CheckOut        time.Time `json:"check_out"`
	Guests          int       `json:"guests"`
	TotalPrice      int64     `json:"total_price"` // In kopecks
	Status          string    `json:"status"`
	SpecialRequests *string   `json:"special_requests,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type bookingJSON Booking

type bookingWire struct {
	bookingJSON
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

// MarshalJSON writes check_in and check_out as YYYY-MM-DD, the format requests use
func (b Booking) MarshalJSON() ([]byte, error) {
	return json.Marshal(bookingWire{
		bookingJSON: bookingJSON(b),
		CheckIn:     b.CheckIn.Format(DateLayout),
		CheckOut:    b.CheckOut.Format(DateLayout),
	})
}

func (b *Booking) UnmarshalJSON(data []byte) error {
	var w bookingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*b = Booking(w.bookingJSON)
	for _, d := range []struct {
		raw string
		dst *time.Time
	}{{w.CheckIn, &b.CheckIn}, {w.CheckOut, &b.CheckOut}} {
		if d.raw == "" {
			continue
		}
		t, err := ParseDate(d.raw)
		if err != nil {
			return err
		}
		*d.dst = t
	}
	return nil
}

func (b *Booking) Range() DateRange {
	return NewDateRange(b.CheckIn, b.CheckOut)
}

// Active reports whether the booking still holds its dates
func (b *Booking) Active() bool {
	return b.Status != BookingCancelled
}

func (b *Booking) Terminal() bool {
	return b.Status == BookingCancelled || b.Status == BookingCompleted
}

// CreateBookingRequest is used for creating a new booking. The total price is
// always computed by the server from the listing's nightly price.
type CreateBookingRequest struct {
	ApartmentID     int64   `json:"apartment_id" binding:"required,gt=0"`
	CheckIn         string  `json:"check_in" binding:"required,isodate"`
	CheckOut        string  `json:"check_out" binding:"required,isodate"`
	Guests          int     `json:"guests" binding:"required,gte=1"`
	SpecialRequests *string `json:"special_requests,omitempty" binding:"omitempty,max=1000"`
}

// UpdateBookingRequest changes status or special requests; dates are immutable
type UpdateBookingRequest struct {
	Status          *string `json:"status,omitempty" binding:"omitempty,oneof=pending confirmed cancelled completed"`
	SpecialRequests *string `json:"special_requests,omitempty" binding:"omitempty,max=1000"`
}

// BookingFilters contains filter parameters for booking queries
type BookingFilters struct {
	RenterID    *int64
	OwnerID     *int64 // bookings on listings owned by this user
	ApartmentID *int64
	Status      *string
	StartDate   *time.Time // check_in on or after
	EndDate     *time.Time // check_in on or before
}
