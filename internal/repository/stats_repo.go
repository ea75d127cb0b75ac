package repository

import (
	"context"
	"fmt"

	"apartment_booking/internal/model"
)

// StatsRepository computes marketplace aggregates for admins
type StatsRepository interface {
	GetAggregatedStats(ctx context.Context, topCities int) (*model.AggregatedStats, error)
}

type statsRepository struct {
	db DBTX
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db DBTX) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) countBy(ctx context.Context, sql string) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}

// GetAggregatedStats calculates aggregated statistics for admin
func (r *statsRepository) GetAggregatedStats(ctx context.Context, topCities int) (*model.AggregatedStats, error) {
	stats := &model.AggregatedStats{TopCities: []model.CityStat{}}

	var err error
	stats.ListingsByStatus, err = r.countBy(ctx, `SELECT moderation_status, COUNT(*) FROM apartments GROUP BY moderation_status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count listings by status: %w", err)
	}

	stats.BookingsByStatus, err = r.countBy(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}

	err = r.db.QueryRow(ctx, `SELECT COALESCE(SUM(total_price), 0)::bigint FROM bookings WHERE status = 'completed'`).
		Scan(&stats.CompletedRevenue)
	if err != nil {
		return nil, fmt.Errorf("failed to sum completed revenue: %w", err)
	}

	err = r.db.QueryRow(ctx, `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_blocked) FROM users`).
		Scan(&stats.TotalUsers, &stats.BlockedUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	citySQL := `
        SELECT
            a.city,
            COUNT(DISTINCT a.id) AS listing_count,
            COUNT(b.id) AS booking_count,
            COALESCE(SUM(b.total_price), 0)::bigint AS booked_revenue
        FROM apartments a
        LEFT JOIN bookings b ON b.apartment_id = a.id AND b.status <> 'cancelled'
        GROUP BY a.city
        ORDER BY booking_count DESC, listing_count DESC, a.city
        LIMIT $1`
	rows, err := r.db.Query(ctx, citySQL, topCities)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats by city: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cs model.CityStat
		if err := rows.Scan(&cs.City, &cs.ListingCount, &cs.BookingCount, &cs.BookedRevenue); err != nil {
			return nil, fmt.Errorf("failed to scan city stats: %w", err)
		}
		stats.TopCities = append(stats.TopCities, cs)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating city stats: %w", err)
	}

	return stats, nil
}
