package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBooking_JSONDates(t *testing.T) {
	note := "late arrival"
	b := Booking{
		ID:              7,
		ApartmentID:     3,
		RenterID:        5,
		CheckIn:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:        time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		Guests:          2,
		TotalPrice:      1500000,
		Status:          BookingPending,
		SpecialRequests: &note,
		CreatedAt:       time.Date(2025, 5, 1, 15, 30, 0, 0, time.UTC),
	}

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"check_in":"2025-06-01"`)
	assert.Contains(t, string(data), `"check_out":"2025-06-04"`)
	assert.Contains(t, string(data), `"created_at":"2025-05-01T15:30:00Z"`)

	ptrData, err := json.Marshal(&b)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(ptrData))

	var got Booking
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, b.CheckIn, got.CheckIn)
	assert.Equal(t, b.CheckOut, got.CheckOut)
	assert.Equal(t, 3, got.Range().Nights())
	assert.Equal(t, "late arrival", *got.SpecialRequests)
	assert.True(t, b.CreatedAt.Equal(got.CreatedAt))

	assert.Error(t, json.Unmarshal([]byte(`{"check_in":"01.06.2025"}`), &got))
}

func TestDateRange_JSON(t *testing.T) {
	r := NewDateRange(time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC), time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC))

	data, err := json.Marshal([]DateRange{r})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"check_in":"2025-06-10","check_out":"2025-06-13"}]`, string(data))

	var got []DateRange
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, r, got[0])
}
