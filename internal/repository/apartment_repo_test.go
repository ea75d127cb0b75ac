package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"apartment_booking/internal/model"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var apartmentCols = []string{"id", "owner_id", "title", "description", "city", "address", "price_per_night",
	"bedrooms", "bathrooms", "max_guests", "image_ref", "amenities", "is_available",
	"moderation_status", "created_at", "updated_at"}

func TestApartmentRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewApartmentRepository(mock)

	a := &model.Apartment{OwnerID: 1, Title: "Loft", City: "Kazan", Address: "Baumana 1", PricePerNight: 350000,
		Bedrooms: 1, Bathrooms: 1, MaxGuests: 2, Amenities: []string{"Balcony", "Wi-Fi"},
		IsAvailable: true, ModerationStatus: model.ModerationPending}
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO apartments`)).
		WithArgs(a.OwnerID, a.Title, a.Description, a.City, a.Address, a.PricePerNight,
			a.Bedrooms, a.Bathrooms, a.MaxGuests, a.Amenities, a.IsAvailable, a.ModerationStatus).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))

	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, int64(7), a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApartmentRepository_List_PublicWithStay(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewApartmentRepository(mock)

	approved := model.ModerationApproved
	city := "Kazan"
	guests := 3
	stay := model.NewDateRange(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC))
	amenities := []string{"Wi-Fi"}
	now := time.Now()

	mock.ExpectQuery(`a\.moderation_status = \$1 AND lower\(a\.city\) = lower\(\$2\) AND a\.max_guests >= \$3 AND a\.amenities @> \$4 AND a\.is_available AND NOT EXISTS`).
		WithArgs(approved, city, guests, amenities, stay.CheckOut, stay.CheckIn).
		WillReturnRows(pgxmock.NewRows(apartmentCols).AddRow(
			int64(7), int64(1), "Loft", "", "Kazan", "Baumana 1", int64(350000),
			1, 1, 4, nil, []string{"Balcony", "Wi-Fi"}, true,
			approved, now, now,
		))

	list, err := repo.List(context.Background(), model.ApartmentFilters{
		ModerationStatus: &approved, City: &city, Guests: &guests, Amenities: amenities, Stay: &stay,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.ElementsMatch(t, []string{"Wi-Fi", "Balcony"}, list[0].Amenities)
	assert.Nil(t, list[0].ImageRef)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApartmentRepository_Delete_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewApartmentRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM apartments WHERE id = $1`)).WithArgs(int64(9)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 9), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
