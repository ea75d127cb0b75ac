package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"apartment_booking/internal/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type BookingRepoTestSuite struct {
	suite.Suite
	mock pgxmock.PgxPoolIface
	repo BookingRepository
	ctx  context.Context
}

func (s *BookingRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(s.T(), err)
	s.mock = mock
	s.repo = NewBookingRepository(mock)
	s.ctx = context.Background()
}

func (s *BookingRepoTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
	s.mock.Close()
}

func TestBookingRepoTestSuite(t *testing.T) {
	suite.Run(t, new(BookingRepoTestSuite))
}

func newBooking() *model.Booking {
	return &model.Booking{
		ApartmentID: 7,
		RenterID:    3,
		CheckIn:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		Guests:      2,
		TotalPrice:  4 * 500000,
		Status:      model.BookingPending,
	}
}

var (
	lockSQL    = regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)
	existsSQL  = regexp.QuoteMeta(`SELECT EXISTS (`)
	insertBSQL = regexp.QuoteMeta(`INSERT INTO bookings`)
)

func (s *BookingRepoTestSuite) TestCreateIfAvailable_Success() {
	b := newBooking()
	created := time.Now()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(lockSQL).WithArgs(b.ApartmentID).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	s.mock.ExpectQuery(existsSQL).WithArgs(b.ApartmentID, b.CheckOut, b.CheckIn).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	s.mock.ExpectQuery(insertBSQL).
		WithArgs(b.ApartmentID, b.RenterID, b.CheckIn, b.CheckOut, b.Guests, b.TotalPrice, b.Status, b.SpecialRequests).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), created, created))
	s.mock.ExpectCommit()

	err := s.repo.CreateIfAvailable(s.ctx, b)
	s.NoError(err)
	s.Equal(int64(11), b.ID)
	s.Equal(created, b.CreatedAt)
}

func (s *BookingRepoTestSuite) TestCreateIfAvailable_OverlapRollsBack() {
	b := newBooking()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(lockSQL).WithArgs(b.ApartmentID).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	s.mock.ExpectQuery(existsSQL).WithArgs(b.ApartmentID, b.CheckOut, b.CheckIn).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	s.mock.ExpectRollback()

	err := s.repo.CreateIfAvailable(s.ctx, b)
	s.ErrorIs(err, ErrOverlap)
	s.Zero(b.ID)
}

func (s *BookingRepoTestSuite) TestCreateIfAvailable_ExclusionConstraint() {
	b := newBooking()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(lockSQL).WithArgs(b.ApartmentID).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	s.mock.ExpectQuery(existsSQL).WithArgs(b.ApartmentID, b.CheckOut, b.CheckIn).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	s.mock.ExpectQuery(insertBSQL).
		WithArgs(b.ApartmentID, b.RenterID, b.CheckIn, b.CheckOut, b.Guests, b.TotalPrice, b.Status, b.SpecialRequests).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ExclusionViolation, ConstraintName: "bookings_no_overlap"})
	s.mock.ExpectRollback()

	err := s.repo.CreateIfAvailable(s.ctx, b)
	s.ErrorIs(err, ErrOverlap)
}

func (s *BookingRepoTestSuite) TestCreateIfAvailable_LockFailure() {
	b := newBooking()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(lockSQL).WithArgs(b.ApartmentID).WillReturnError(errors.New("connection reset"))
	s.mock.ExpectRollback()

	err := s.repo.CreateIfAvailable(s.ctx, b)
	s.Error(err)
	s.NotErrorIs(err, ErrOverlap)
	s.Contains(err.Error(), "connection reset")
}

func (s *BookingRepoTestSuite) TestFindByID_NotFound() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings b WHERE b.id = $1`)).WithArgs(int64(99)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	b, err := s.repo.FindByID(s.ctx, 99)
	s.NoError(err)
	s.Nil(b)
}

func (s *BookingRepoTestSuite) TestList_RenterOrOwner() {
	renter, owner := int64(3), int64(3)
	status := model.BookingPending
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	cols := []string{"id", "apartment_id", "renter_id", "check_in", "check_out", "guests",
		"total_price", "status", "special_requests", "created_at", "updated_at"}
	s.mock.ExpectQuery(regexp.QuoteMeta(`(b.renter_id = $1 OR a.owner_id = $2) AND b.status = $3`)).
		WithArgs(renter, owner, status).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(int64(1), int64(7), int64(3), day, day.AddDate(0, 0, 2), 2, int64(1000), status, nil, day, day))

	bookings, err := s.repo.List(s.ctx, model.BookingFilters{RenterID: &renter, OwnerID: &owner, Status: &status})
	s.NoError(err)
	s.Len(bookings, 1)
	s.Equal(int64(7), bookings[0].ApartmentID)
	s.Nil(bookings[0].SpecialRequests)
}

func (s *BookingRepoTestSuite) TestUpdateStatus_StaleStatus() {
	b := newBooking()
	b.ID = 5
	b.Status = model.BookingConfirmed

	s.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE bookings SET status = $1`)).
		WithArgs(b.Status, b.SpecialRequests, b.ID, model.BookingPending).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}))

	err := s.repo.UpdateStatus(s.ctx, b, model.BookingPending)
	s.ErrorIs(err, ErrNotFound)
}

func (s *BookingRepoTestSuite) TestActiveRanges() {
	in := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT check_in, check_out FROM bookings`)).WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"check_in", "check_out"}).
			AddRow(in, in.AddDate(0, 0, 4)).
			AddRow(in.AddDate(0, 0, 10), in.AddDate(0, 0, 12)))

	ranges, err := s.repo.ActiveRanges(s.ctx, 7)
	s.NoError(err)
	s.Len(ranges, 2)
	s.Equal(4, ranges[0].Nights())
}
