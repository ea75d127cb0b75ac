package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"apartment_booking/internal/logger"
	"apartment_booking/internal/model"
	"apartment_booking/internal/repository"
)

// UserService covers self-service profiles and admin account moderation
type UserService interface {
	UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error)
	ListUsers(ctx context.Context, filters model.UserFilters) ([]model.User, error)
	ModerateUser(ctx context.Context, admin model.Identity, userID int64, req model.AdminUserUpdateRequest) (*model.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	log      *logger.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, log *logger.Logger) UserService {
	return &userService{userRepo: userRepo, log: log.With("component", "users")}
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := model.ParseDate(*value)
	if err != nil {
		return nil, invalid(field, "%v", err)
	}
	return &t, nil
}

// emptyToNil lets clients clear an optional text field by sending ""
func emptyToNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for profile update: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, invalid("full_name", "must not be empty")
		}
		user.FullName = name
	}
	if req.Phone != nil {
		user.Phone = emptyToNil(req.Phone)
	}
	if req.Address != nil {
		user.Address = emptyToNil(req.Address)
	}
	if req.PassportSeries != nil {
		user.PassportSeries = emptyToNil(req.PassportSeries)
	}
	if req.PassportNumber != nil {
		user.PassportNumber = emptyToNil(req.PassportNumber)
	}
	if req.PassportIssuedBy != nil {
		user.PassportIssuedBy = emptyToNil(req.PassportIssuedBy)
	}
	if req.DateOfBirth != nil {
		if user.DateOfBirth, err = parseOptionalDate("date_of_birth", req.DateOfBirth); err != nil {
			return nil, err
		}
	}
	if req.PassportIssueDate != nil {
		if user.PassportIssueDate, err = parseOptionalDate("passport_issue_date", req.PassportIssueDate); err != nil {
			return nil, err
		}
	}
	if req.Preferences != nil {
		raw, err := json.Marshal(req.Preferences)
		if err != nil {
			return nil, invalid("preferences", "must be a JSON object")
		}
		text := string(raw)
		user.PreferencesRaw = &text
	}
	if req.ProfileCompleted != nil {
		user.ProfileCompleted = *req.ProfileCompleted
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile in repo: %w", err)
	}
	user.ExpandPreferences()
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, filters model.UserFilters) ([]model.User, error) {
	users, err := s.userRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ModerateUser changes role and block flag. Admins cannot demote or block themselves.
func (s *userService) ModerateUser(ctx context.Context, admin model.Identity, userID int64, req model.AdminUserUpdateRequest) (*model.User, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for moderation: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	role, blocked := user.Role, user.IsBlocked
	if req.Role != nil {
		role = *req.Role
	}
	if req.IsBlocked != nil {
		blocked = *req.IsBlocked
	}
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, invalid("role", "must be one of user, admin")
	}
	if userID == admin.UserID && (role != model.RoleAdmin || blocked) {
		return nil, invalid("id", "admins cannot demote or block their own account")
	}

	updated, err := s.userRepo.UpdateModeration(ctx, userID, role, blocked)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user moderation: %w", err)
	}
	s.log.Info("user moderated", "admin_id", admin.UserID, "user_id", userID, "role", role, "blocked", blocked)
	return updated, nil
}
