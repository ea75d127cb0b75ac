package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"apartment_booking/internal/model"

	"github.com/jackc/pgx/v5"
)

// BookingRepository defines operations for the booking ledger
type BookingRepository interface {
	Finder[model.Booking]
	// CreateIfAvailable inserts the booking unless an active booking of the
	// same apartment overlaps it. Check and insert run in one transaction
	// holding an advisory lock on the apartment id.
	CreateIfAvailable(ctx context.Context, booking *model.Booking) error
	List(ctx context.Context, filters model.BookingFilters) ([]model.Booking, error)
	// UpdateStatus writes status and special requests if the stored status is
	// still fromStatus. Returns ErrNotFound otherwise.
	UpdateStatus(ctx context.Context, booking *model.Booking, fromStatus string) error
	ActiveRanges(ctx context.Context, apartmentID int64) ([]model.DateRange, error)
	CountOpen(ctx context.Context, apartmentID int64) (int64, error)
}

type bookingRepository struct {
	db DBTX
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DBTX) BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `b.id, b.apartment_id, b.renter_id, b.check_in, b.check_out, b.guests,
	b.total_price, b.status, b.special_requests, b.created_at, b.updated_at`

const overlapSQL = `SELECT EXISTS (
        SELECT 1 FROM bookings
        WHERE apartment_id = $1 AND status <> 'cancelled'
          AND check_in < $2 AND check_out > $3)`

func scanBooking(row scanner) (*model.Booking, error) {
	b := &model.Booking{}
	err := row.Scan(
		&b.ID, &b.ApartmentID, &b.RenterID, &b.CheckIn, &b.CheckOut, &b.Guests,
		&b.TotalPrice, &b.Status, &b.SpecialRequests, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) CreateIfAvailable(ctx context.Context, b *model.Booking) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin booking transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, b.ApartmentID); err != nil {
		return fmt.Errorf("failed to lock apartment %d: %w", b.ApartmentID, err)
	}

	var conflict bool
	if err = tx.QueryRow(ctx, overlapSQL, b.ApartmentID, b.CheckOut, b.CheckIn).Scan(&conflict); err != nil {
		return fmt.Errorf("failed to check booking overlap: %w", err)
	}
	if conflict {
		err = ErrOverlap
		return err
	}

	sql := `INSERT INTO bookings (apartment_id, renter_id, check_in, check_out, guests, total_price, status, special_requests)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, sql,
		b.ApartmentID, b.RenterID, b.CheckIn, b.CheckOut, b.Guests, b.TotalPrice, b.Status, b.SpecialRequests,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isExclusionViolation(err) {
			err = ErrOverlap
			return err
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		if isExclusionViolation(err) {
			err = ErrOverlap
			return err
		}
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	return nil
}

// FindByID retrieves a booking by its ID
func (r *bookingRepository) FindByID(ctx context.Context, id int64) (*model.Booking, error) {
	sql := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`
	b, err := scanBooking(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return b, nil
}

// List retrieves bookings matching the filters, newest first. RenterID and
// OwnerID together select bookings where the user is either party.
func (r *bookingRepository) List(ctx context.Context, filters model.BookingFilters) ([]model.Booking, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + bookingColumns + ` FROM bookings b JOIN apartments a ON a.id = b.apartment_id`)

	args := []any{}
	var conditions []string
	add := func(format string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	switch {
	case filters.RenterID != nil && filters.OwnerID != nil:
		args = append(args, *filters.RenterID, *filters.OwnerID)
		conditions = append(conditions, fmt.Sprintf("(b.renter_id = $%d OR a.owner_id = $%d)", len(args)-1, len(args)))
	case filters.RenterID != nil:
		add("b.renter_id = $%d", *filters.RenterID)
	case filters.OwnerID != nil:
		add("a.owner_id = $%d", *filters.OwnerID)
	}
	if filters.ApartmentID != nil {
		add("b.apartment_id = $%d", *filters.ApartmentID)
	}
	if filters.Status != nil && *filters.Status != "" {
		add("b.status = $%d", *filters.Status)
	}
	if filters.StartDate != nil {
		add("b.check_in >= $%d", *filters.StartDate)
	}
	if filters.EndDate != nil {
		add("b.check_in <= $%d", *filters.EndDate)
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY b.created_at DESC, b.id DESC")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	bookings, err := collectRows(rows, scanBooking)
	if err != nil {
		return nil, fmt.Errorf("failed to read booking rows: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, b *model.Booking, fromStatus string) error {
	sql := `UPDATE bookings SET status = $1, special_requests = $2
            WHERE id = $3 AND status = $4 RETURNING updated_at`
	err := r.db.QueryRow(ctx, sql, b.Status, b.SpecialRequests, b.ID, fromStatus).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update booking: %w", err)
	}
	return nil
}

// ActiveRanges lists the stays still holding dates on an apartment
func (r *bookingRepository) ActiveRanges(ctx context.Context, apartmentID int64) ([]model.DateRange, error) {
	sql := `SELECT check_in, check_out FROM bookings
            WHERE apartment_id = $1 AND status <> 'cancelled' ORDER BY check_in`
	rows, err := r.db.Query(ctx, sql, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query booked ranges: %w", err)
	}
	defer rows.Close()

	ranges := []model.DateRange{}
	for rows.Next() {
		var dr model.DateRange
		if err := rows.Scan(&dr.CheckIn, &dr.CheckOut); err != nil {
			return nil, fmt.Errorf("failed to scan booked range: %w", err)
		}
		ranges = append(ranges, dr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating booked ranges: %w", err)
	}
	return ranges, nil
}

// CountOpen counts pending and confirmed bookings of an apartment
func (r *bookingRepository) CountOpen(ctx context.Context, apartmentID int64) (int64, error) {
	var n int64
	sql := `SELECT COUNT(*) FROM bookings WHERE apartment_id = $1 AND status IN ('pending', 'confirmed')`
	if err := r.db.QueryRow(ctx, sql, apartmentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count open bookings: %w", err)
	}
	return n, nil
}
