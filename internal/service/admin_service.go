package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"apartment_booking/internal/model"
	"apartment_booking/internal/repository"
)

// TopCitiesLimit is how many cities the admin statistics rank
const TopCitiesLimit = 5

// AdminService exposes marketplace statistics and exports
type AdminService interface {
	GetStatistics(ctx context.Context) (*model.AggregatedStats, error)
	ExportBookingsCSV(ctx context.Context, filters model.BookingFilters) (*bytes.Buffer, error)
}

type adminService struct {
	stats    repository.StatsRepository
	bookings repository.BookingRepository
}

// NewAdminService creates a new AdminService
func NewAdminService(stats repository.StatsRepository, bookings repository.BookingRepository) AdminService {
	return &adminService{stats: stats, bookings: bookings}
}

func (s *adminService) GetStatistics(ctx context.Context) (*model.AggregatedStats, error) {
	stats, err := s.stats.GetAggregatedStats(ctx, TopCitiesLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregated stats for admin: %w", err)
	}
	return stats, nil
}

// formatKopecks renders a minor-unit amount as rubles with two decimals
func formatKopecks(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (s *adminService) ExportBookingsCSV(ctx context.Context, filters model.BookingFilters) (*bytes.Buffer, error) {
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return nil, invalid("end_date", "must not be before start_date")
	}
	bookings, err := s.bookings.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookings for CSV export: %w", err)
	}

	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)

	header := []string{"ID", "ApartmentID", "RenterID", "CheckIn", "CheckOut", "Nights", "Guests",
		"TotalPrice", "Status", "SpecialRequests", "CreatedAt"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, b := range bookings {
		var requests string
		if b.SpecialRequests != nil {
			requests = *b.SpecialRequests
		}
		row := []string{
			strconv.FormatInt(b.ID, 10),
			strconv.FormatInt(b.ApartmentID, 10),
			strconv.FormatInt(b.RenterID, 10),
			b.CheckIn.Format(model.DateLayout),
			b.CheckOut.Format(model.DateLayout),
			strconv.Itoa(b.Range().Nights()),
			strconv.Itoa(b.Guests),
			formatKopecks(b.TotalPrice),
			b.Status,
			requests,
			b.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("error flushing CSV writer: %w", err)
	}
	return buffer, nil
}
