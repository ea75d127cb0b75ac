package model

import (
	"sort"
	"strings"
	"time"
)

const (
	ModerationPending  = "pending"
	ModerationApproved = "approved"
	ModerationRejected = "rejected"
)

// Apartment is a rental listing
type Apartment struct {
	ID               int64     `json:"id"`
	OwnerID          int64     `json:"owner_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	City             string    `json:"city"`
	Address          string    `json:"address"`
	PricePerNight    int64     `json:"price_per_night"` // In kopecks
	Bedrooms         int       `json:"bedrooms"`
	Bathrooms        int       `json:"bathrooms"`
	MaxGuests        int       `json:"max_guests"`
	ImageRef         *string   `json:"image_url,omitempty"`
	Amenities        []string  `json:"amenities"`
	IsAvailable      bool      `json:"is_available"`
	ModerationStatus string    `json:"moderation_status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (a *Apartment) IsApproved() bool {
	return a.ModerationStatus == ModerationApproved
}

// VisibleTo reports whether the listing can be shown to the given viewer.
// Pass viewerID 0 for anonymous requests.
func (a *Apartment) VisibleTo(viewerID int64, viewerRole string) bool {
	if a.IsApproved() || viewerRole == RoleAdmin {
		return true
	}
	return viewerID != 0 && a.OwnerID == viewerID
}

// CanModerate reports whether a listing may move from one moderation status to another
func CanModerate(from, to string) bool {
	switch to {
	case ModerationApproved:
		return from == ModerationPending || from == ModerationRejected
	case ModerationRejected:
		return from == ModerationPending || from == ModerationApproved
	default:
		return false
	}
}

// NormalizeAmenities trims, deduplicates and sorts amenity names so that
// stored sets compare equal regardless of input order.
func NormalizeAmenities(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// CreateApartmentRequest is used for creating a new listing
type CreateApartmentRequest struct {
	Title         string   `json:"title" binding:"required,max=200"`
	Description   string   `json:"description"`
	City          string   `json:"city" binding:"required"`
	Address       string   `json:"address" binding:"required"`
	PricePerNight int64    `json:"price_per_night" binding:"required,gt=0"`
	Bedrooms      int      `json:"bedrooms" binding:"gte=0"`
	Bathrooms     int      `json:"bathrooms" binding:"gte=0"`
	MaxGuests     int      `json:"max_guests" binding:"required,gte=1"`
	Amenities     []string `json:"amenities" binding:"omitempty,dive,max=64"`
}

// UpdateApartmentRequest allows partial listing updates by the owner
type UpdateApartmentRequest struct {
	Title         *string   `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Description   *string   `json:"description,omitempty"`
	City          *string   `json:"city,omitempty" binding:"omitempty,min=1"`
	Address       *string   `json:"address,omitempty" binding:"omitempty,min=1"`
	PricePerNight *int64    `json:"price_per_night,omitempty" binding:"omitempty,gt=0"`
	Bedrooms      *int      `json:"bedrooms,omitempty" binding:"omitempty,gte=0"`
	Bathrooms     *int      `json:"bathrooms,omitempty" binding:"omitempty,gte=0"`
	MaxGuests     *int      `json:"max_guests,omitempty" binding:"omitempty,gte=1"`
	Amenities     *[]string `json:"amenities,omitempty"`
	IsAvailable   *bool     `json:"is_available,omitempty"`
}

// ModerationRequest is the admin payload for PUT /apartments/:id/moderation
type ModerationRequest struct {
	Status string `json:"status" binding:"required,oneof=pending approved rejected"`
}

// ApartmentFilters contains filter parameters for listing queries
type ApartmentFilters struct {
	City             *string
	MinPrice         *int64
	MaxPrice         *int64
	Bedrooms         *int // 4 means "4 or more"
	Guests           *int
	Amenities        []string
	Stay             *DateRange // only listings free for the whole stay
	OwnerID          *int64
	ModerationStatus *string
}
