package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"apartment_booking/internal/logger"
	"apartment_booking/internal/model"
	"apartment_booking/internal/repository"
	"apartment_booking/internal/utils"
)

// AuthService provides authentication related services
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, string, error)
	Login(ctx context.Context, login, password string) (*model.User, string, error)
	Me(ctx context.Context, userID int64) (*model.User, error)
	Refresh(ctx context.Context, caller model.Identity, tokenString string) (string, error)
	// MigrateLegacyCredential verifies a plaintext password carried over from
	// the previous system and replaces it with a bcrypt hash. It reports
	// whether the password matched.
	MigrateLegacyCredential(ctx context.Context, user *model.User, password string) (bool, error)
}

// AuthConfig holds the tunables of AuthService
type AuthConfig struct {
	BcryptCost        int
	InitialAdminEmail string
}

type authService struct {
	userRepo repository.UserRepository
	jwtUtil  *utils.JWTUtil
	cfg      AuthConfig
	log      *logger.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, jwtUtil *utils.JWTUtil, cfg AuthConfig, log *logger.Logger) AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = utils.DefaultBcryptCost
	}
	return &authService{
		userRepo: userRepo,
		jwtUtil:  jwtUtil,
		cfg:      cfg,
		log:      log.With("component", "auth"),
	}
}

// Register creates a new user account
func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	login := strings.TrimSpace(req.Login)
	if login == "" {
		login = email
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, "", invalid("full_name", "is required")
	}

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser == nil && login != email {
		existingUser, err = s.userRepo.FindByLogin(ctx, login)
		if err != nil {
			return nil, "", fmt.Errorf("failed to check existing login: %w", err)
		}
	}
	if existingUser != nil {
		return nil, "", ErrUserAlreadyExists
	}

	hashedPassword, err := utils.HashPasswordWithCost(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, "", err
	}

	userRole := model.RoleUser
	if s.cfg.InitialAdminEmail != "" && email == s.cfg.InitialAdminEmail {
		userRole = model.RoleAdmin
		s.log.Info("registering initial admin account", "email", email)
	}

	user := &model.User{
		Login:        login,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         userRole,
		FullName:     fullName,
		Preferences:  map[string]any{},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrUserAlreadyExists
		}
		return nil, "", fmt.Errorf("failed to create user in repository: %w", err)
	}

	token, err := s.jwtUtil.GenerateToken(model.IdentityOf(user))
	if err != nil {
		s.log.Error("user created but token generation failed", "user_id", user.ID, "error", err)
		return user, "", fmt.Errorf("user created, but failed to generate token: %w", err)
	}
	return user, token, nil
}

// Login authenticates a user and returns a JWT token. Blocked accounts are
// reported only once the password matched.
func (s *authService) Login(ctx context.Context, login, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		return nil, "", fmt.Errorf("error finding user by login: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	var ok bool
	if user.LegacyPassword {
		ok, err = s.MigrateLegacyCredential(ctx, user, password)
		if err != nil {
			return nil, "", err
		}
	} else {
		ok = utils.CheckPasswordHash(password, user.PasswordHash)
	}
	if !ok {
		return nil, "", ErrInvalidCredentials
	}
	if user.IsBlocked {
		return nil, "", ErrAccountBlocked
	}

	token, err := s.jwtUtil.GenerateToken(model.IdentityOf(user))
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

func (s *authService) MigrateLegacyCredential(ctx context.Context, user *model.User, password string) (bool, error) {
	if !user.LegacyPassword {
		return utils.CheckPasswordHash(password, user.PasswordHash), nil
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(user.PasswordHash)) != 1 {
		return false, nil
	}

	hash, err := utils.HashPasswordWithCost(password, s.cfg.BcryptCost)
	if err != nil {
		return false, err
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return false, fmt.Errorf("failed to store migrated password hash: %w", err)
	}
	user.PasswordHash, user.LegacyPassword = hash, false
	s.log.Info("migrated legacy credential to bcrypt", "user_id", user.ID)
	return true, nil
}

// Me loads the account behind a resolved identity
func (s *authService) Me(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Refresh re-mints the presented token with a new expiry. Blocked accounts
// cannot extend their session.
func (s *authService) Refresh(ctx context.Context, caller model.Identity, tokenString string) (string, error) {
	user, err := s.userRepo.FindByID(ctx, caller.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to load user for refresh: %w", err)
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	if user.IsBlocked {
		return "", ErrAccountBlocked
	}

	token, err := s.jwtUtil.RefreshToken(tokenString)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return token, nil
}
