package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"apartment_booking/internal/model"

	"github.com/jackc/pgx/v5"
)

// ApartmentRepository defines operations for listing data
type ApartmentRepository interface {
	Finder[model.Apartment]
	Create(ctx context.Context, apartment *model.Apartment) error
	List(ctx context.Context, filters model.ApartmentFilters) ([]model.Apartment, error)
	Update(ctx context.Context, apartment *model.Apartment) error
	UpdateModerationStatus(ctx context.Context, id int64, status string) error
	UpdateImageRef(ctx context.Context, id int64, ref *string) error
	Delete(ctx context.Context, id int64) error
}

type apartmentRepository struct {
	db DBTX
}

// NewApartmentRepository creates a new ApartmentRepository
func NewApartmentRepository(db DBTX) ApartmentRepository {
	return &apartmentRepository{db: db}
}

const apartmentColumns = `a.id, a.owner_id, a.title, a.description, a.city, a.address, a.price_per_night,
	a.bedrooms, a.bathrooms, a.max_guests, a.image_ref, a.amenities, a.is_available,
	a.moderation_status, a.created_at, a.updated_at`

func scanApartment(row scanner) (*model.Apartment, error) {
	a := &model.Apartment{}
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.Title, &a.Description, &a.City, &a.Address, &a.PricePerNight,
		&a.Bedrooms, &a.Bathrooms, &a.MaxGuests, &a.ImageRef, &a.Amenities, &a.IsAvailable,
		&a.ModerationStatus, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if a.Amenities == nil {
		a.Amenities = []string{}
	}
	return a, nil
}

// Create inserts a new listing into the database
func (r *apartmentRepository) Create(ctx context.Context, a *model.Apartment) error {
	sql := `INSERT INTO apartments (owner_id, title, description, city, address, price_per_night,
                bedrooms, bathrooms, max_guests, amenities, is_available, moderation_status)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql,
		a.OwnerID, a.Title, a.Description, a.City, a.Address, a.PricePerNight,
		a.Bedrooms, a.Bathrooms, a.MaxGuests, a.Amenities, a.IsAvailable, a.ModerationStatus,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create apartment: %w", err)
	}
	return nil
}

// FindByID retrieves a listing by its ID
func (r *apartmentRepository) FindByID(ctx context.Context, id int64) (*model.Apartment, error) {
	sql := `SELECT ` + apartmentColumns + ` FROM apartments a WHERE a.id = $1`
	a, err := scanApartment(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find apartment by ID: %w", err)
	}
	return a, nil
}

// List retrieves listings matching the filters, newest first
func (r *apartmentRepository) List(ctx context.Context, filters model.ApartmentFilters) ([]model.Apartment, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + apartmentColumns + ` FROM apartments a`)

	args := []any{}
	var conditions []string
	add := func(format string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if filters.OwnerID != nil {
		add("a.owner_id = $%d", *filters.OwnerID)
	}
	if filters.ModerationStatus != nil && *filters.ModerationStatus != "" {
		add("a.moderation_status = $%d", *filters.ModerationStatus)
	}
	if filters.City != nil && *filters.City != "" {
		add("lower(a.city) = lower($%d)", *filters.City)
	}
	if filters.MinPrice != nil {
		add("a.price_per_night >= $%d", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		add("a.price_per_night <= $%d", *filters.MaxPrice)
	}
	if filters.Bedrooms != nil {
		if *filters.Bedrooms >= 4 {
			add("a.bedrooms >= $%d", *filters.Bedrooms)
		} else {
			add("a.bedrooms = $%d", *filters.Bedrooms)
		}
	}
	if filters.Guests != nil {
		add("a.max_guests >= $%d", *filters.Guests)
	}
	if len(filters.Amenities) > 0 {
		add("a.amenities @> $%d", filters.Amenities)
	}
	if filters.Stay != nil {
		args = append(args, filters.Stay.CheckOut, filters.Stay.CheckIn)
		conditions = append(conditions, fmt.Sprintf(`a.is_available AND NOT EXISTS (
            SELECT 1 FROM bookings b
            WHERE b.apartment_id = a.id AND b.status <> 'cancelled'
              AND b.check_in < $%d AND b.check_out > $%d)`, len(args)-1, len(args)))
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY a.created_at DESC, a.id DESC")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query apartments: %w", err)
	}
	apartments, err := collectRows(rows, scanApartment)
	if err != nil {
		return nil, fmt.Errorf("failed to read apartment rows: %w", err)
	}
	return apartments, nil
}

// Update modifies the owner-editable fields of a listing
func (r *apartmentRepository) Update(ctx context.Context, a *model.Apartment) error {
	sql := `UPDATE apartments
            SET title = $1, description = $2, city = $3, address = $4, price_per_night = $5,
                bedrooms = $6, bathrooms = $7, max_guests = $8, amenities = $9, is_available = $10
            WHERE id = $11 RETURNING updated_at`
	err := r.db.QueryRow(ctx, sql,
		a.Title, a.Description, a.City, a.Address, a.PricePerNight,
		a.Bedrooms, a.Bathrooms, a.MaxGuests, a.Amenities, a.IsAvailable, a.ID,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update apartment: %w", err)
	}
	return nil
}

// UpdateModerationStatus sets the moderation status of a listing
func (r *apartmentRepository) UpdateModerationStatus(ctx context.Context, id int64, status string) error {
	sql := `UPDATE apartments SET moderation_status = $1 WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, sql, status, id)
	if err != nil {
		return fmt.Errorf("failed to update moderation status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateImageRef stores (or clears) the image reference of a listing
func (r *apartmentRepository) UpdateImageRef(ctx context.Context, id int64, ref *string) error {
	sql := `UPDATE apartments SET image_ref = $1 WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, sql, ref, id)
	if err != nil {
		return fmt.Errorf("failed to update image reference: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a listing; its bookings and reviews cascade
func (r *apartmentRepository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM apartments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete apartment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
