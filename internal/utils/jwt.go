package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"apartment_booking/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification
var ErrInvalidToken = errors.New("invalid or expired token")

// JWTClaims custom claims for JWT
type JWTClaims struct {
	UserID   int64  `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

func (c *JWTClaims) Identity() model.Identity {
	return model.Identity{UserID: c.UserID, Email: c.Email, Role: c.Role, FullName: c.FullName}
}

// JWTUtil provides JWT generation and validation
type JWTUtil struct {
	secretKey       string
	expirationHours int64
	now             func() time.Time
}

// NewJWTUtil creates a new JWTUtil
func NewJWTUtil(secretKey string, expirationHours int64) *JWTUtil {
	return &JWTUtil{secretKey: secretKey, expirationHours: expirationHours, now: time.Now}
}

// WithClock replaces the time source used for issuing and verifying tokens
func (ju *JWTUtil) WithClock(now func() time.Time) *JWTUtil {
	ju.now = now
	return ju
}

// TTL is the validity window of freshly minted tokens
func (ju *JWTUtil) TTL() time.Duration {
	return time.Hour * time.Duration(ju.expirationHours)
}

// GenerateToken generates a new JWT token embedding the identity
func (ju *JWTUtil) GenerateToken(id model.Identity) (string, error) {
	now := ju.now()
	claims := &JWTClaims{
		UserID:   id.UserID,
		Email:    id.Email,
		Role:     id.Role,
		FullName: id.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ju.TTL())),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(id.UserID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(ju.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates the JWT token
func (ju *JWTUtil) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ju.secretKey), nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(ju.now))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// RefreshToken re-mints a token for the same identity with a new expiry.
// The presented token must still be valid.
func (ju *JWTUtil) RefreshToken(tokenString string) (string, error) {
	claims, err := ju.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return ju.GenerateToken(claims.Identity())
}
