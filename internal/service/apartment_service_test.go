package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"apartment_booking/internal/logger"
	"apartment_booking/internal/model"
	"apartment_booking/internal/storage"
	"apartment_booking/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apartmentFixture struct {
	store  *testhelpers.Store
	svc    ApartmentService
	dir    string
	owner  model.Identity
	other  model.Identity
	admin  model.Identity
	anon   model.Identity
	images storage.ImageStore
}

func newApartmentFixture(t *testing.T) *apartmentFixture {
	store := testhelpers.NewStore()
	dir := t.TempDir()
	images, err := storage.NewLocalStore(dir, "/uploads")
	require.NoError(t, err)
	return &apartmentFixture{
		store:  store,
		svc:    NewApartmentService(store.Apartments(), store.Bookings(), images, logger.Discard()),
		dir:    dir,
		owner:  model.IdentityOf(testhelpers.SeedUser(t, store, "owner", model.RoleUser)),
		other:  model.IdentityOf(testhelpers.SeedUser(t, store, "other", model.RoleUser)),
		admin:  model.IdentityOf(testhelpers.SeedUser(t, store, "admin", model.RoleAdmin)),
		images: images,
	}
}

func createRequest() model.CreateApartmentRequest {
	return model.CreateApartmentRequest{
		Title:         " Loft ",
		City:          "Kazan",
		Address:       "Baumana 1",
		PricePerNight: 350000,
		Bedrooms:      1,
		Bathrooms:     1,
		MaxGuests:     2,
		Amenities:     []string{"Wi-Fi", " Balcony", "Wi-Fi", ""},
	}
}

func TestApartmentService_CreateStartsPending(t *testing.T) {
	f := newApartmentFixture(t)

	a, err := f.svc.CreateApartment(context.Background(), f.owner, createRequest())
	require.NoError(t, err)
	assert.Equal(t, model.ModerationPending, a.ModerationStatus)
	assert.Equal(t, f.owner.UserID, a.OwnerID)
	assert.Equal(t, "Loft", a.Title)
	assert.True(t, a.IsAvailable)
	assert.Equal(t, []string{"Balcony", "Wi-Fi"}, a.Amenities)

	req := createRequest()
	req.PricePerNight = 0
	_, err = f.svc.CreateApartment(context.Background(), f.owner, req)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestApartmentService_Visibility(t *testing.T) {
	f := newApartmentFixture(t)
	ctx := context.Background()
	pending := testhelpers.SeedApartment(t, f.store, f.owner.UserID, model.ModerationPending)
	approved := testhelpers.SeedApartment(t, f.store, f.owner.UserID, model.ModerationApproved)

	_, err := f.svc.GetApartment(ctx, pending.ID, f.anon)
	assert.ErrorIs(t, err, ErrApartmentNotFound)
	_, err = f.svc.GetApartment(ctx, pending.ID, f.other)
	assert.ErrorIs(t, err, ErrApartmentNotFound)
	_, err = f.svc.GetApartment(ctx, pending.ID, f.owner)
	assert.NoError(t, err)
	_, err = f.svc.GetApartment(ctx, pending.ID, f.admin)
	assert.NoError(t, err)

	first, err := f.svc.GetApartment(ctx, approved.ID, f.anon)
	require.NoError(t, err)
	second, err := f.svc.GetApartment(ctx, approved.ID, f.anon)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	public, err := f.svc.ListApartments(ctx, f.anon, ApartmentQuery{})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, approved.ID, public[0].ID)

	mine, err := f.svc.ListApartments(ctx, f.owner, ApartmentQuery{Mine: true})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := f.svc.ListApartments(ctx, f.admin, ApartmentQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.ListApartments(ctx, f.anon, ApartmentQuery{Mine: true})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestApartmentService_ListFilters(t *testing.T) {
	f := newApartmentFixture(t)
	ctx := context.Background()
	a := testhelpers.SeedApartment(t, f.store, f.owner.UserID, model.ModerationApproved)
	b := testhelpers.SeedApartment(t, f.store, f.owner.UserID, model.ModerationApproved)
	testhelpers.SeedBooking(t, f.store, a.ID, f.other.UserID, testhelpers.Day(2025, 6, 1), testhelpers.Day(2025, 6, 5), model.BookingConfirmed)

	stay := model.NewDateRange(testhelpers.Day(2025, 6, 3), testhelpers.Day(2025, 6, 4))
	free, err := f.svc.ListApartments(ctx, f.anon, ApartmentQuery{Filters: model.ApartmentFilters{Stay: &stay}})
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, b.ID, free[0].ID)

	after := model.NewDateRange(testhelpers.Day(2025, 6, 5), testhelpers.Day(2025, 6, 6))
	free, err = f.svc.ListApartments(ctx, f.anon, ApartmentQuery{Filters: model.ApartmentFilters{Stay: &after}})
	require.NoError(t, err)
	assert.Len(t, free, 2)

	list, err := f.svc.ListApartments(ctx, f.anon, ApartmentQuery{Filters: model.ApartmentFilters{Amenities: []string{"Wi-Fi", "Sauna"}}})
	require.NoError(t, err)
	assert.Empty(t, list)

	low, high := int64(600000), int64(100)
	_, err = f.svc.ListApartments(ctx, f.anon, ApartmentQuery{Filters: model.ApartmentFilters{MinPrice: &low, MaxPrice: &high}})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestApartmentService_Moderation(t *testing.T) {
	f := newApartmentFixture(t)
	ctx := context.Background()
	a := testhelpers.SeedApartment(t, f.store, f.owner.UserID, model.ModerationPending)

	_, err := f.svc.Moderate(ctx, a.ID, f.owner, model.ModerationApproved)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.Moderate(ctx, a.ID, f.admin, model.ModerationApproved)
	require.NoError(t, err)
	assert.Equal(t, model.ModerationApproved, got.ModerationStatus)

	_, err = f.svc.Moderate(ctx, a.ID, f.admin, model.ModerationApproved)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.svc.Moderate(ctx, a.ID, f.admin, model.ModerationPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.Moderate(ctx, a.ID, f.admin, model.ModerationRejected)
	require.NoError(t, err)
	_, err = f.svc.GetApartment(ctx, a.ID, f.anon)
	assert.ErrorIs(t, err, ErrApartmentNotFound)
}

func TestApartmentService_UpdateAndDelete(t *testing.T) {
	f := newApartmentFixture(t)
	ctx := context.Background()
	a := testhelpers.SeedApartment(t, f.store, f.owner.UserID, model.ModerationApproved)

	title := "Renamed"
	_, err := f.svc.UpdateApartment(ctx, a.ID, f.other, model.UpdateApartmentRequest{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.UpdateApartment(ctx, a.ID, f.owner, model.UpdateApartmentRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, model.ModerationApproved, got.ModerationStatus)

	b := testhelpers.SeedBooking(t, f.store, a.ID, f.other.UserID, testhelpers.Day(2025, 6, 1), testhelpers.Day(2025, 6, 5), model.BookingPending)
	err = f.svc.DeleteApartment(ctx, a.ID, f.owner)
	assert.ErrorIs(t, err, ErrApartmentHasOpen)

	cancelled := *b
	cancelled.Status = model.BookingCancelled
	require.NoError(t, f.store.Bookings().UpdateStatus(ctx, &cancelled, model.BookingPending))

	assert.ErrorIs(t, f.svc.DeleteApartment(ctx, a.ID, f.other), ErrForbidden)
	require.NoError(t, f.svc.DeleteApartment(ctx, a.ID, f.admin))
	_, err = f.svc.GetApartment(ctx, a.ID, f.admin)
	assert.ErrorIs(t, err, ErrApartmentNotFound)
}

func formFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	return form.File["image"][0]
}

func TestApartmentService_UploadImage(t *testing.T) {
	f := newApartmentFixture(t)
	ctx := context.Background()
	a := testhelpers.SeedApartment(t, f.store, f.owner.UserID, model.ModerationApproved)

	_, err := f.svc.UploadImage(ctx, a.ID, f.other, formFile(t, "x.png", []byte("png")))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.UploadImage(ctx, a.ID, f.owner, formFile(t, "notes.pdf", []byte("pdf")))
	assert.ErrorIs(t, err, ErrInvalidFileFormat)

	got, err := f.svc.UploadImage(ctx, a.ID, f.owner, formFile(t, "Photo.JPG", []byte("first")))
	require.NoError(t, err)
	require.NotNil(t, got.ImageRef)
	first := *got.ImageRef
	assert.True(t, strings.HasPrefix(first, "/uploads/apartments/"))
	assert.True(t, strings.HasSuffix(first, ".jpg"))

	firstPath := filepath.Join(f.dir, filepath.FromSlash(strings.TrimPrefix(first, "/uploads/")))
	data, err := os.ReadFile(firstPath)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	got, err = f.svc.UploadImage(ctx, a.ID, f.owner, formFile(t, "second.webp", []byte("second")))
	require.NoError(t, err)
	assert.NotEqual(t, first, *got.ImageRef)
	_, err = os.Stat(firstPath)
	assert.True(t, os.IsNotExist(err), "previous image removed")

	stored, _ := f.store.Apartments().FindByID(ctx, a.ID)
	assert.Equal(t, *got.ImageRef, *stored.ImageRef)
}

func TestApartmentService_UploadImageTooLarge(t *testing.T) {
	f := newApartmentFixture(t)
	a := testhelpers.SeedApartment(t, f.store, f.owner.UserID, model.ModerationApproved)

	big := formFile(t, "big.png", bytes.Repeat([]byte{1}, MaxFileSize+1))
	_, err := f.svc.UploadImage(context.Background(), a.ID, f.owner, big)
	assert.ErrorIs(t, err, ErrFileSizeExceeded)
}

func TestApartmentService_BookedDates(t *testing.T) {
	f := newApartmentFixture(t)
	ctx := context.Background()
	a := testhelpers.SeedApartment(t, f.store, f.owner.UserID, model.ModerationApproved)
	testhelpers.SeedBooking(t, f.store, a.ID, f.other.UserID, testhelpers.Day(2025, 6, 10), testhelpers.Day(2025, 6, 12), model.BookingConfirmed)
	testhelpers.SeedBooking(t, f.store, a.ID, f.other.UserID, testhelpers.Day(2025, 6, 1), testhelpers.Day(2025, 6, 3), model.BookingCancelled)
	testhelpers.SeedBooking(t, f.store, a.ID, f.other.UserID, testhelpers.Day(2025, 6, 1), testhelpers.Day(2025, 6, 4), model.BookingPending)

	ranges, err := f.svc.BookedDates(ctx, a.ID, f.anon)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, testhelpers.Day(2025, 6, 1), ranges[0].CheckIn)
	assert.Equal(t, 3, ranges[0].Nights())
}
