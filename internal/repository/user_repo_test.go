package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"apartment_booking/internal/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "login", "email", "password_hash", "legacy_password", "role", "is_blocked", "full_name",
	"phone", "date_of_birth", "address", "passport_series", "passport_number", "passport_issued_by",
	"passport_issue_date", "preferences", "profile_completed", "created_at", "updated_at"}

func newUserMock(t *testing.T) (pgxmock.PgxPoolIface, UserRepository) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock, NewUserRepository(mock)
}

func TestUserRepository_Create_Duplicate(t *testing.T) {
	mock, repo := newUserMock(t)
	u := &model.User{Login: "anna", Email: "a@x.com", PasswordHash: "hash", Role: model.RoleUser, FullName: "Anna"}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs(u.Login, u.Email, u.PasswordHash, u.Role, u.FullName).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), u)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_FindByLogin_ExpandsPreferences(t *testing.T) {
	mock, repo := newUserMock(t)
	now := time.Now()
	prefs := `{"smoking":false,"pets":"cat"}`

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE login = $1 OR email = lower($1)`)).WithArgs("anna").
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(
			int64(1), "anna", "a@x.com", "hash", false, model.RoleUser, false, "Anna",
			nil, nil, nil, nil, nil, nil,
			nil, &prefs, true, now, now,
		))

	u, err := repo.FindByLogin(context.Background(), "anna")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "cat", u.Preferences["pets"])
	assert.Equal(t, false, u.Preferences["smoking"])
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	mock, repo := newUserMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows(userCols))

	u, err := repo.FindByID(context.Background(), 42)
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserRepository_List_Filters(t *testing.T) {
	mock, repo := newUserMock(t)
	blocked := true
	search := "Ann"

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE is_blocked = $1 AND (lower(login) LIKE $2`)).
		WithArgs(true, "%ann%").
		WillReturnRows(pgxmock.NewRows(userCols))

	users, err := repo.List(context.Background(), model.UserFilters{IsBlocked: &blocked, Search: &search})
	assert.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserRepository_UpdatePasswordHash(t *testing.T) {
	mock, repo := newUserMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET password_hash = $1, legacy_password = FALSE`)).
		WithArgs("newhash", int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET password_hash = $1`)).
		WithArgs("newhash", int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.NoError(t, repo.UpdatePasswordHash(context.Background(), 1, "newhash"))
	assert.ErrorIs(t, repo.UpdatePasswordHash(context.Background(), 2, "newhash"), ErrNotFound)
}
