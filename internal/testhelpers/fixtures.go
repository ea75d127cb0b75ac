package testhelpers

import (
	"context"
	"testing"
	"time"

	"apartment_booking/internal/model"
	"apartment_booking/internal/utils"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Password is the plaintext password of every seeded user
const Password = "secret123"

// Day returns UTC midnight of the given calendar date
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SeedUser stores an account with a bcrypt hash of Password
func SeedUser(t *testing.T, s *Store, login, role string) *model.User {
	t.Helper()
	hash, err := utils.HashPasswordWithCost(Password, bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{
		Login:        login,
		Email:        login + "@example.com",
		PasswordHash: hash,
		Role:         role,
		FullName:     "Test " + login,
	}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

// SeedApartment stores a listing owned by ownerID in the given moderation state
func SeedApartment(t *testing.T, s *Store, ownerID int64, status string) *model.Apartment {
	t.Helper()
	a := &model.Apartment{
		OwnerID:          ownerID,
		Title:            "Flat in the centre",
		Description:      "Two rooms, quiet yard",
		City:             "Kazan",
		Address:          "Baumana 10",
		PricePerNight:    500000,
		Bedrooms:         2,
		Bathrooms:        1,
		MaxGuests:        4,
		Amenities:        []string{"Kitchen", "Wi-Fi"},
		IsAvailable:      true,
		ModerationStatus: status,
	}
	require.NoError(t, s.Apartments().Create(context.Background(), a))
	return a
}

// SeedBooking stores a booking directly, bypassing admission
func SeedBooking(t *testing.T, s *Store, apartmentID, renterID int64, in, out time.Time, status string) *model.Booking {
	t.Helper()
	b := &model.Booking{
		ApartmentID: apartmentID,
		RenterID:    renterID,
		CheckIn:     in,
		CheckOut:    out,
		Guests:      1,
		TotalPrice:  int64(model.NewDateRange(in, out).Nights()) * 500000,
		Status:      status,
	}
	require.NoError(t, s.Bookings().CreateIfAvailable(context.Background(), b))
	return b
}
