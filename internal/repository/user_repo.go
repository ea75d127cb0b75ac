package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"apartment_booking/internal/model"

	"github.com/jackc/pgx/v5"
)

// UserRepository defines operations for user data
type UserRepository interface {
	Finder[model.User]
	Create(ctx context.Context, user *model.User) error
	FindByLogin(ctx context.Context, login string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, filters model.UserFilters) ([]model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdateModeration(ctx context.Context, id int64, role string, isBlocked bool) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, login, email, password_hash, legacy_password, role, is_blocked, full_name,
	phone, date_of_birth, address, passport_series, passport_number, passport_issued_by,
	passport_issue_date, preferences, profile_completed, created_at, updated_at`

func scanUser(row scanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.Login, &u.Email, &u.PasswordHash, &u.LegacyPassword, &u.Role, &u.IsBlocked, &u.FullName,
		&u.Phone, &u.DateOfBirth, &u.Address, &u.PassportSeries, &u.PassportNumber, &u.PassportIssuedBy,
		&u.PassportIssueDate, &u.PreferencesRaw, &u.ProfileCompleted, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.ExpandPreferences()
	return u, nil
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (login, email, password_hash, role, full_name)
            VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, user.Login, user.Email, user.PasswordHash, user.Role, user.FullName).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) findOne(ctx context.Context, where string, arg any) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(r.db.QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found is not an error, service layer handles it
		}
		return nil, err
	}
	return user, nil
}

// FindByID retrieves a user by their ID
func (r *userRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := r.findOne(ctx, "id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByLogin retrieves a user by login name or, failing that, by email
func (r *userRepository) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	user, err := r.findOne(ctx, "login = $1 OR email = lower($1) ORDER BY (login = $1) DESC LIMIT 1", login)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by login: %w", err)
	}
	return user, nil
}

// FindByEmail retrieves a user by email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := r.findOne(ctx, "email = lower($1)", email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// List retrieves users for admin with optional filters
func (r *userRepository) List(ctx context.Context, filters model.UserFilters) ([]model.User, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + userColumns + ` FROM users`)

	args := []any{}
	var conditions []string

	if filters.Role != nil && *filters.Role != "" {
		args = append(args, *filters.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filters.IsBlocked != nil {
		args = append(args, *filters.IsBlocked)
		conditions = append(conditions, fmt.Sprintf("is_blocked = $%d", len(args)))
	}
	if filters.Search != nil && *filters.Search != "" {
		args = append(args, "%"+strings.ToLower(*filters.Search)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(lower(login) LIKE $%d OR email LIKE $%d OR lower(full_name) LIKE $%d)", n, n, n))
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	users, err := collectRows(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("failed to read user rows: %w", err)
	}
	return users, nil
}

// UpdateProfile stores the self-editable profile fields
func (r *userRepository) UpdateProfile(ctx context.Context, u *model.User) error {
	sql := `UPDATE users SET
                full_name = $1, phone = $2, date_of_birth = $3, address = $4,
                passport_series = $5, passport_number = $6, passport_issued_by = $7,
                passport_issue_date = $8, preferences = $9, profile_completed = $10
            WHERE id = $11 RETURNING updated_at`
	err := r.db.QueryRow(ctx, sql,
		u.FullName, u.Phone, u.DateOfBirth, u.Address,
		u.PassportSeries, u.PassportNumber, u.PassportIssuedBy,
		u.PassportIssueDate, u.PreferencesRaw, u.ProfileCompleted, u.ID,
	).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return nil
}

// UpdateModeration sets role and block flag, returning the updated user
func (r *userRepository) UpdateModeration(ctx context.Context, id int64, role string, isBlocked bool) (*model.User, error) {
	sql := `UPDATE users SET role = $1, is_blocked = $2 WHERE id = $3 RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, sql, role, isBlocked, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user moderation: %w", err)
	}
	return user, nil
}

// UpdatePasswordHash stores a bcrypt hash and clears the legacy flag
func (r *userRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	sql := `UPDATE users SET password_hash = $1, legacy_password = FALSE WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, sql, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
