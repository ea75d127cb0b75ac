package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"apartment_booking/internal/logger"
	"apartment_booking/internal/model"
	"apartment_booking/internal/repository"
	"apartment_booking/internal/storage"
)

const MaxFileSize = 5 * 1024 * 1024 // 5MB

var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ApartmentQuery is a listing search as issued by a viewer
type ApartmentQuery struct {
	Filters model.ApartmentFilters
	Mine    bool // only the viewer's own listings, in every moderation state
}

// ApartmentService defines operations for listings and their moderation.
// A zero model.Identity stands for an anonymous viewer.
type ApartmentService interface {
	CreateApartment(ctx context.Context, owner model.Identity, req model.CreateApartmentRequest) (*model.Apartment, error)
	GetApartment(ctx context.Context, id int64, viewer model.Identity) (*model.Apartment, error)
	ListApartments(ctx context.Context, viewer model.Identity, query ApartmentQuery) ([]model.Apartment, error)
	UpdateApartment(ctx context.Context, id int64, caller model.Identity, req model.UpdateApartmentRequest) (*model.Apartment, error)
	DeleteApartment(ctx context.Context, id int64, caller model.Identity) error
	Moderate(ctx context.Context, id int64, admin model.Identity, status string) (*model.Apartment, error)
	UploadImage(ctx context.Context, id int64, caller model.Identity, file *multipart.FileHeader) (*model.Apartment, error)
	BookedDates(ctx context.Context, id int64, viewer model.Identity) ([]model.DateRange, error)
}

type apartmentService struct {
	repo     repository.ApartmentRepository
	bookings repository.BookingRepository
	images   storage.ImageStore
	log      *logger.Logger
}

// NewApartmentService creates a new ApartmentService
func NewApartmentService(repo repository.ApartmentRepository, bookings repository.BookingRepository, images storage.ImageStore, log *logger.Logger) ApartmentService {
	return &apartmentService{repo: repo, bookings: bookings, images: images, log: log.With("component", "apartments")}
}

func (s *apartmentService) CreateApartment(ctx context.Context, owner model.Identity, req model.CreateApartmentRequest) (*model.Apartment, error) {
	if owner.UserID == 0 {
		return nil, ErrUnauthenticated
	}
	apartment := &model.Apartment{
		OwnerID:          owner.UserID,
		Title:            strings.TrimSpace(req.Title),
		Description:      strings.TrimSpace(req.Description),
		City:             strings.TrimSpace(req.City),
		Address:          strings.TrimSpace(req.Address),
		PricePerNight:    req.PricePerNight,
		Bedrooms:         req.Bedrooms,
		Bathrooms:        req.Bathrooms,
		MaxGuests:        req.MaxGuests,
		Amenities:        model.NormalizeAmenities(req.Amenities),
		IsAvailable:      true,
		ModerationStatus: model.ModerationPending,
	}
	if err := validateApartment(apartment); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, apartment); err != nil {
		return nil, fmt.Errorf("failed to create apartment in repo: %w", err)
	}
	s.log.Info("apartment created", "apartment_id", apartment.ID, "owner_id", owner.UserID)
	return apartment, nil
}

func validateApartment(a *model.Apartment) error {
	switch {
	case a.Title == "":
		return invalid("title", "is required")
	case a.City == "":
		return invalid("city", "is required")
	case a.Address == "":
		return invalid("address", "is required")
	case a.PricePerNight <= 0:
		return invalid("price_per_night", "must be greater than zero")
	case a.Bedrooms < 0:
		return invalid("bedrooms", "must not be negative")
	case a.Bathrooms < 0:
		return invalid("bathrooms", "must not be negative")
	case a.MaxGuests < 1:
		return invalid("max_guests", "must be at least 1")
	}
	return nil
}

// load returns the listing or ErrApartmentNotFound
func (s *apartmentService) load(ctx context.Context, id int64) (*model.Apartment, error) {
	apartment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find apartment by ID: %w", err)
	}
	if apartment == nil {
		return nil, ErrApartmentNotFound
	}
	return apartment, nil
}

// GetApartment hides non-approved listings from everyone but the owner and admins
func (s *apartmentService) GetApartment(ctx context.Context, id int64, viewer model.Identity) (*model.Apartment, error) {
	apartment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !apartment.VisibleTo(viewer.UserID, viewer.Role) {
		return nil, ErrApartmentNotFound
	}
	return apartment, nil
}

func (s *apartmentService) ListApartments(ctx context.Context, viewer model.Identity, query ApartmentQuery) ([]model.Apartment, error) {
	filters := query.Filters
	switch {
	case query.Mine:
		if viewer.UserID == 0 {
			return nil, ErrUnauthenticated
		}
		filters.OwnerID = &viewer.UserID
	case viewer.IsAdmin():
		// admins see every state unless they filter
	default:
		approved := model.ModerationApproved
		filters.ModerationStatus = &approved
	}
	if filters.MinPrice != nil && filters.MaxPrice != nil && *filters.MinPrice > *filters.MaxPrice {
		return nil, invalid("min_price", "must not exceed max_price")
	}
	if filters.Stay != nil && !filters.Stay.Valid() {
		return nil, invalid("check_out", "must be after check_in")
	}
	filters.Amenities = model.NormalizeAmenities(filters.Amenities)

	apartments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list apartments: %w", err)
	}
	return apartments, nil
}

func canManage(a *model.Apartment, caller model.Identity) bool {
	return caller.IsAdmin() || (caller.UserID != 0 && a.OwnerID == caller.UserID)
}

func (s *apartmentService) UpdateApartment(ctx context.Context, id int64, caller model.Identity, req model.UpdateApartmentRequest) (*model.Apartment, error) {
	apartment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(apartment, caller) {
		return nil, ErrForbidden
	}

	if req.Title != nil {
		apartment.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		apartment.Description = strings.TrimSpace(*req.Description)
	}
	if req.City != nil {
		apartment.City = strings.TrimSpace(*req.City)
	}
	if req.Address != nil {
		apartment.Address = strings.TrimSpace(*req.Address)
	}
	if req.PricePerNight != nil {
		apartment.PricePerNight = *req.PricePerNight
	}
	if req.Bedrooms != nil {
		apartment.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		apartment.Bathrooms = *req.Bathrooms
	}
	if req.MaxGuests != nil {
		apartment.MaxGuests = *req.MaxGuests
	}
	if req.Amenities != nil {
		apartment.Amenities = model.NormalizeAmenities(*req.Amenities)
	}
	if req.IsAvailable != nil {
		apartment.IsAvailable = *req.IsAvailable
	}
	if err := validateApartment(apartment); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, apartment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApartmentNotFound
		}
		return nil, fmt.Errorf("failed to update apartment in repo: %w", err)
	}
	return apartment, nil
}

// DeleteApartment removes a listing that holds no pending or confirmed bookings
func (s *apartmentService) DeleteApartment(ctx context.Context, id int64, caller model.Identity) error {
	apartment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(apartment, caller) {
		return ErrForbidden
	}

	open, err := s.bookings.CountOpen(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count open bookings: %w", err)
	}
	if open > 0 {
		return ErrApartmentHasOpen
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrApartmentNotFound
		}
		return fmt.Errorf("failed to delete apartment in repo: %w", err)
	}
	if apartment.ImageRef != nil {
		s.removeImage(ctx, *apartment.ImageRef)
	}
	s.log.Info("apartment deleted", "apartment_id", id, "by", caller.UserID)
	return nil
}

// Moderate moves a listing between moderation states. Only approved
// listings are public and bookable.
func (s *apartmentService) Moderate(ctx context.Context, id int64, admin model.Identity, status string) (*model.Apartment, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	apartment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanModerate(apartment.ModerationStatus, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, apartment.ModerationStatus, status)
	}

	if err := s.repo.UpdateModerationStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApartmentNotFound
		}
		return nil, fmt.Errorf("failed to update moderation status: %w", err)
	}
	s.log.Info("apartment moderated", "apartment_id", id, "from", apartment.ModerationStatus, "to", status, "admin_id", admin.UserID)
	apartment.ModerationStatus = status
	return apartment, nil
}

func (s *apartmentService) UploadImage(ctx context.Context, id int64, caller model.Identity, fileHeader *multipart.FileHeader) (*model.Apartment, error) {
	apartment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if apartment.OwnerID != caller.UserID {
		return nil, ErrForbidden
	}

	if fileHeader.Size > MaxFileSize {
		return nil, ErrFileSizeExceeded
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	contentType, ok := allowedImageTypes[ext]
	if !ok {
		return nil, ErrInvalidFileFormat
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	key := storage.ObjectKey("apartments/"+strconv.FormatInt(id, 10), fileHeader.Filename)
	ref, err := s.images.Save(ctx, key, src, fileHeader.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	if err := s.repo.UpdateImageRef(ctx, id, &ref); err != nil {
		s.removeImage(ctx, ref)
		return nil, fmt.Errorf("failed to update apartment with image reference: %w", err)
	}
	if apartment.ImageRef != nil {
		s.removeImage(ctx, *apartment.ImageRef)
	}
	apartment.ImageRef = &ref
	return apartment, nil
}

func (s *apartmentService) removeImage(ctx context.Context, ref string) {
	if err := s.images.Delete(ctx, ref); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Warn("failed to remove stored image", "ref", ref, "error", err)
	}
}

// BookedDates lists the ranges held by non-cancelled bookings
func (s *apartmentService) BookedDates(ctx context.Context, id int64, viewer model.Identity) ([]model.DateRange, error) {
	if _, err := s.GetApartment(ctx, id, viewer); err != nil {
		return nil, err
	}
	ranges, err := s.bookings.ActiveRanges(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked dates: %w", err)
	}
	return ranges, nil
}
