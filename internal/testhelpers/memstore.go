// Package testhelpers holds in-memory repositories and fixtures shared by
// service and handler tests.
package testhelpers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"apartment_booking/internal/model"
	"apartment_booking/internal/repository"
)

// Store is an in-memory stand-in for the Postgres schema. All repositories
// built from one Store see the same data.
type Store struct {
	mu     sync.Mutex
	nextID int64

	users      map[int64]model.User
	apartments map[int64]model.Apartment
	bookings   map[int64]model.Booking
	reviews    map[int64]model.Review

	// AdmissionDelay is slept between the overlap check and the insert of
	// CreateIfAvailable. The check and the insert are not atomic here, so
	// callers must serialize admissions themselves.
	AdmissionDelay time.Duration

	// Err, when set, is returned by every repository call
	Err error
}

func NewStore() *Store {
	return &Store{
		users:      map[int64]model.User{},
		apartments: map[int64]model.Apartment{},
		bookings:   map[int64]model.Booking{},
		reviews:    map[int64]model.Review{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Users() repository.UserRepository           { return &userRepo{s} }
func (s *Store) Apartments() repository.ApartmentRepository { return &apartmentRepo{s} }
func (s *Store) Bookings() repository.BookingRepository     { return &bookingRepo{s} }
func (s *Store) Reviews() repository.ReviewRepository       { return &reviewRepo{s} }
func (s *Store) Stats() repository.StatsRepository          { return &statsRepo{s} }

// --- users ---

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, existing := range r.s.users {
		if existing.Login == u.Login || existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	now := time.Now()
	u.ID = r.s.id()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Preferences == nil {
		u.Preferences = map[string]any{}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepo) get(match func(model.User) bool) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, u := range r.s.users {
		if match(u) {
			u.ExpandPreferences()
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) FindByID(_ context.Context, id int64) (*model.User, error) {
	return r.get(func(u model.User) bool { return u.ID == id })
}

func (r *userRepo) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	u, err := r.get(func(u model.User) bool { return u.Login == login })
	if u != nil || err != nil {
		return u, err
	}
	return r.FindByEmail(ctx, login)
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(email)
	return r.get(func(u model.User) bool { return u.Email == email })
}

func (r *userRepo) List(_ context.Context, f model.UserFilters) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := []model.User{}
	for _, u := range r.s.users {
		if f.Role != nil && *f.Role != "" && u.Role != *f.Role {
			continue
		}
		if f.IsBlocked != nil && u.IsBlocked != *f.IsBlocked {
			continue
		}
		if f.Search != nil && *f.Search != "" {
			q := strings.ToLower(*f.Search)
			if !strings.Contains(strings.ToLower(u.Login), q) && !strings.Contains(u.Email, q) &&
				!strings.Contains(strings.ToLower(u.FullName), q) {
				continue
			}
		}
		u.ExpandPreferences()
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *userRepo) UpdateProfile(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepo) UpdateModeration(_ context.Context, id int64, role string, isBlocked bool) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Role, u.IsBlocked, u.UpdatedAt = role, isBlocked, time.Now()
	r.s.users[id] = u
	u.ExpandPreferences()
	return &u, nil
}

func (r *userRepo) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash, u.LegacyPassword = hash, false
	r.s.users[id] = u
	return nil
}

// --- apartments ---

type apartmentRepo struct{ s *Store }

func (r *apartmentRepo) Create(_ context.Context, a *model.Apartment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	now := time.Now()
	a.ID = r.s.id()
	a.CreatedAt, a.UpdatedAt = now, now
	a.Amenities = append([]string{}, a.Amenities...)
	r.s.apartments[a.ID] = *a
	return nil
}

func (r *apartmentRepo) FindByID(_ context.Context, id int64) (*model.Apartment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	a, ok := r.s.apartments[id]
	if !ok {
		return nil, nil
	}
	a.Amenities = append([]string{}, a.Amenities...)
	return &a, nil
}

func (r *apartmentRepo) List(_ context.Context, f model.ApartmentFilters) ([]model.Apartment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := []model.Apartment{}
	for _, a := range r.s.apartments {
		if !r.s.matchApartment(a, f) {
			continue
		}
		a.Amenities = append([]string{}, a.Amenities...)
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) matchApartment(a model.Apartment, f model.ApartmentFilters) bool {
	switch {
	case f.OwnerID != nil && a.OwnerID != *f.OwnerID,
		f.ModerationStatus != nil && *f.ModerationStatus != "" && a.ModerationStatus != *f.ModerationStatus,
		f.City != nil && *f.City != "" && !strings.EqualFold(a.City, *f.City),
		f.MinPrice != nil && a.PricePerNight < *f.MinPrice,
		f.MaxPrice != nil && a.PricePerNight > *f.MaxPrice,
		f.Guests != nil && a.MaxGuests < *f.Guests:
		return false
	}
	if f.Bedrooms != nil {
		if *f.Bedrooms >= 4 && a.Bedrooms < *f.Bedrooms || *f.Bedrooms < 4 && a.Bedrooms != *f.Bedrooms {
			return false
		}
	}
	for _, want := range f.Amenities {
		found := false
		for _, have := range a.Amenities {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Stay != nil {
		if !a.IsAvailable {
			return false
		}
		for _, b := range s.bookings {
			if b.ApartmentID == a.ID && b.Active() && b.Range().Overlaps(*f.Stay) {
				return false
			}
		}
	}
	return true
}

func (r *apartmentRepo) Update(_ context.Context, a *model.Apartment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	stored, ok := r.s.apartments[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	a.UpdatedAt = time.Now()
	a.ModerationStatus, a.ImageRef, a.OwnerID = stored.ModerationStatus, stored.ImageRef, stored.OwnerID
	a.Amenities = append([]string{}, a.Amenities...)
	r.s.apartments[a.ID] = *a
	return nil
}

func (r *apartmentRepo) UpdateModerationStatus(_ context.Context, id int64, status string) error {
	return r.mutate(id, func(a *model.Apartment) { a.ModerationStatus = status })
}

func (r *apartmentRepo) UpdateImageRef(_ context.Context, id int64, ref *string) error {
	return r.mutate(id, func(a *model.Apartment) { a.ImageRef = ref })
}

func (r *apartmentRepo) mutate(id int64, fn func(*model.Apartment)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	a, ok := r.s.apartments[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&a)
	a.UpdatedAt = time.Now()
	r.s.apartments[id] = a
	return nil
}

func (r *apartmentRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.apartments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.apartments, id)
	for bid, b := range r.s.bookings {
		if b.ApartmentID == id {
			delete(r.s.bookings, bid)
		}
	}
	for rid, rv := range r.s.reviews {
		if rv.ApartmentID == id {
			delete(r.s.reviews, rid)
		}
	}
	return nil
}

// --- bookings ---

type bookingRepo struct{ s *Store }

func (r *bookingRepo) CreateIfAvailable(_ context.Context, b *model.Booking) error {
	r.s.mu.Lock()
	if r.s.Err != nil {
		r.s.mu.Unlock()
		return r.s.Err
	}
	for _, existing := range r.s.bookings {
		if existing.ApartmentID == b.ApartmentID && existing.Active() && existing.Range().Overlaps(b.Range()) {
			r.s.mu.Unlock()
			return repository.ErrOverlap
		}
	}
	delay := r.s.AdmissionDelay
	r.s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	b.ID = r.s.id()
	b.CreatedAt, b.UpdatedAt = now, now
	r.s.bookings[b.ID] = *b
	return nil
}

func (r *bookingRepo) FindByID(_ context.Context, id int64) (*model.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *bookingRepo) List(_ context.Context, f model.BookingFilters) ([]model.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := []model.Booking{}
	for _, b := range r.s.bookings {
		owner := r.s.apartments[b.ApartmentID].OwnerID
		switch {
		case f.RenterID != nil && f.OwnerID != nil:
			if b.RenterID != *f.RenterID && owner != *f.OwnerID {
				continue
			}
		case f.RenterID != nil && b.RenterID != *f.RenterID,
			f.OwnerID != nil && owner != *f.OwnerID:
			continue
		}
		if f.ApartmentID != nil && b.ApartmentID != *f.ApartmentID ||
			f.Status != nil && *f.Status != "" && b.Status != *f.Status ||
			f.StartDate != nil && b.CheckIn.Before(*f.StartDate) ||
			f.EndDate != nil && b.CheckIn.After(*f.EndDate) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *bookingRepo) UpdateStatus(_ context.Context, b *model.Booking, fromStatus string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	stored, ok := r.s.bookings[b.ID]
	if !ok || stored.Status != fromStatus {
		return repository.ErrNotFound
	}
	stored.Status, stored.SpecialRequests, stored.UpdatedAt = b.Status, b.SpecialRequests, time.Now()
	b.UpdatedAt = stored.UpdatedAt
	r.s.bookings[b.ID] = stored
	return nil
}

func (r *bookingRepo) ActiveRanges(_ context.Context, apartmentID int64) ([]model.DateRange, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := []model.DateRange{}
	for _, b := range r.s.bookings {
		if b.ApartmentID == apartmentID && b.Active() {
			out = append(out, b.Range())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

func (r *bookingRepo) CountOpen(_ context.Context, apartmentID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	var n int64
	for _, b := range r.s.bookings {
		if b.ApartmentID == apartmentID && (b.Status == model.BookingPending || b.Status == model.BookingConfirmed) {
			n++
		}
	}
	return n, nil
}

// --- reviews ---

type reviewRepo struct{ s *Store }

func (r *reviewRepo) Create(_ context.Context, rv *model.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, existing := range r.s.reviews {
		if existing.BookingID == rv.BookingID {
			return repository.ErrDuplicate
		}
	}
	rv.ID = r.s.id()
	rv.CreatedAt = time.Now()
	r.s.reviews[rv.ID] = *rv
	return nil
}

func (r *reviewRepo) find(match func(model.Review) bool) (*model.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, rv := range r.s.reviews {
		if match(rv) {
			return &rv, nil
		}
	}
	return nil, nil
}

func (r *reviewRepo) FindByID(_ context.Context, id int64) (*model.Review, error) {
	return r.find(func(rv model.Review) bool { return rv.ID == id })
}

func (r *reviewRepo) FindByBookingID(_ context.Context, bookingID int64) (*model.Review, error) {
	return r.find(func(rv model.Review) bool { return rv.BookingID == bookingID })
}

func (r *reviewRepo) list(match func(model.Review) bool) ([]model.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := []model.Review{}
	for _, rv := range r.s.reviews {
		if match(rv) {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *reviewRepo) List(_ context.Context) ([]model.Review, error) {
	return r.list(func(model.Review) bool { return true })
}

func (r *reviewRepo) ListByApartment(_ context.Context, apartmentID int64) ([]model.Review, error) {
	return r.list(func(rv model.Review) bool { return rv.ApartmentID == apartmentID })
}

func (r *reviewRepo) Summary(ctx context.Context, apartmentID int64) (model.ReviewSummary, error) {
	reviews, err := r.ListByApartment(ctx, apartmentID)
	if err != nil {
		return model.ReviewSummary{}, err
	}
	s := model.ReviewSummary{Count: len(reviews)}
	if s.Count == 0 {
		return s, nil
	}
	var total int
	for _, rv := range reviews {
		total += rv.Rating
	}
	s.AverageRating = float64(total) / float64(s.Count)
	return s, nil
}

// --- stats ---

type statsRepo struct{ s *Store }

func (r *statsRepo) GetAggregatedStats(_ context.Context, topCities int) (*model.AggregatedStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	stats := &model.AggregatedStats{
		ListingsByStatus: map[string]int64{},
		BookingsByStatus: map[string]int64{},
		TopCities:        []model.CityStat{},
	}
	cities := map[string]*model.CityStat{}
	for _, a := range r.s.apartments {
		stats.ListingsByStatus[a.ModerationStatus]++
		c, ok := cities[a.City]
		if !ok {
			c = &model.CityStat{City: a.City}
			cities[a.City] = c
		}
		c.ListingCount++
	}
	for _, b := range r.s.bookings {
		stats.BookingsByStatus[b.Status]++
		if b.Status == model.BookingCompleted {
			stats.CompletedRevenue += b.TotalPrice
		}
		if c, ok := cities[r.s.apartments[b.ApartmentID].City]; ok && b.Active() {
			c.BookingCount++
			c.BookedRevenue += b.TotalPrice
		}
	}
	for _, u := range r.s.users {
		stats.TotalUsers++
		if u.IsBlocked {
			stats.BlockedUsers++
		}
	}
	for _, c := range cities {
		stats.TopCities = append(stats.TopCities, *c)
	}
	sort.Slice(stats.TopCities, func(i, j int) bool {
		a, b := stats.TopCities[i], stats.TopCities[j]
		if a.BookingCount != b.BookingCount {
			return a.BookingCount > b.BookingCount
		}
		if a.ListingCount != b.ListingCount {
			return a.ListingCount > b.ListingCount
		}
		return a.City < b.City
	})
	if len(stats.TopCities) > topCities {
		stats.TopCities = stats.TopCities[:topCities]
	}
	return stats, nil
}
