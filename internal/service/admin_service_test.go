package service

import (
	"context"
	"encoding/csv"
	"testing"

	"apartment_booking/internal/model"
	"apartment_booking/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_Statistics(t *testing.T) {
	store := testhelpers.NewStore()
	svc := NewAdminService(store.Stats(), store.Bookings())
	ctx := context.Background()

	owner := testhelpers.SeedUser(t, store, "owner", model.RoleUser)
	guest := testhelpers.SeedUser(t, store, "guest", model.RoleUser)
	_, err := store.Users().UpdateModeration(ctx, guest.ID, model.RoleUser, true)
	require.NoError(t, err)
	a := testhelpers.SeedApartment(t, store, owner.ID, model.ModerationApproved)
	testhelpers.SeedApartment(t, store, owner.ID, model.ModerationPending)
	testhelpers.SeedBooking(t, store, a.ID, guest.ID, testhelpers.Day(2025, 6, 1), testhelpers.Day(2025, 6, 3), model.BookingCompleted)
	testhelpers.SeedBooking(t, store, a.ID, guest.ID, testhelpers.Day(2025, 6, 3), testhelpers.Day(2025, 6, 4), model.BookingPending)

	stats, err := svc.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ListingsByStatus[model.ModerationApproved])
	assert.Equal(t, int64(1), stats.ListingsByStatus[model.ModerationPending])
	assert.Equal(t, int64(1), stats.BookingsByStatus[model.BookingCompleted])
	assert.Equal(t, int64(2*500000), stats.CompletedRevenue)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.BlockedUsers)
	require.Len(t, stats.TopCities, 1)
	assert.Equal(t, "Kazan", stats.TopCities[0].City)
	assert.Equal(t, int64(2), stats.TopCities[0].BookingCount)
}

func TestAdminService_ExportBookingsCSV(t *testing.T) {
	store := testhelpers.NewStore()
	svc := NewAdminService(store.Stats(), store.Bookings())
	ctx := context.Background()

	owner := testhelpers.SeedUser(t, store, "owner", model.RoleUser)
	guest := testhelpers.SeedUser(t, store, "guest", model.RoleUser)
	a := testhelpers.SeedApartment(t, store, owner.ID, model.ModerationApproved)
	testhelpers.SeedBooking(t, store, a.ID, guest.ID, testhelpers.Day(2025, 6, 1), testhelpers.Day(2025, 6, 4), model.BookingConfirmed)
	testhelpers.SeedBooking(t, store, a.ID, guest.ID, testhelpers.Day(2025, 7, 1), testhelpers.Day(2025, 7, 2), model.BookingCancelled)

	confirmed := model.BookingConfirmed
	buf, err := svc.ExportBookingsCSV(ctx, model.BookingFilters{Status: &confirmed})
	require.NoError(t, err)

	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ID", records[0][0])
	row := records[1]
	assert.Equal(t, "2025-06-01", row[3])
	assert.Equal(t, "3", row[5])
	assert.Equal(t, "15000.00", row[7])
	assert.Equal(t, model.BookingConfirmed, row[8])

	start, end := testhelpers.Day(2025, 7, 1), testhelpers.Day(2025, 6, 1)
	_, err = svc.ExportBookingsCSV(ctx, model.BookingFilters{StartDate: &start, EndDate: &end})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestFormatKopecks(t *testing.T) {
	assert.Equal(t, "0.00", formatKopecks(0))
	assert.Equal(t, "12.05", formatKopecks(1205))
	assert.Equal(t, "-0.50", formatKopecks(-50))
}
