package model

// AggregatedStats represents the marketplace statistics for admin
type AggregatedStats struct {
	ListingsByStatus map[string]int64 `json:"listings_by_status"`
	BookingsByStatus map[string]int64 `json:"bookings_by_status"`
	CompletedRevenue int64            `json:"completed_revenue"` // In kopecks
	TotalUsers       int64            `json:"total_users"`
	BlockedUsers     int64            `json:"blocked_users"`
	TopCities        []CityStat       `json:"top_cities"`
}

type CityStat struct {
	City          string `json:"city"`
	ListingCount  int64  `json:"listing_count"`
	BookingCount  int64  `json:"booking_count"`
	BookedRevenue int64  `json:"booked_revenue"`
}
