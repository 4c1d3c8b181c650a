package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidName is returned when a display name doesn't meet constraints.
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidUserID is returned when issuing a token without a user ID.
	ErrInvalidUserID = errors.New("invalid user id")
)

const maxNameLength = 32

// Service issues and validates player identities.
type Service struct {
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(jwtConfig *JWTConfig) *Service {
	return &Service{jwtConfig: jwtConfig}
}

// Identity is an issued player identity.
type Identity struct {
	UserID string
	Name   string
	Token  string
}

// CreateGuest issues a token for a fresh guest identity. An empty name falls
// back to "guest_" plus the first characters of the generated ID.
func (s *Service) CreateGuest(name string) (Identity, error) {
	name = strings.TrimSpace(name)
	if len(name) > maxNameLength {
		return Identity{}, ErrInvalidName
	}

	userID := uuid.NewString()
	if name == "" {
		name = "guest_" + userID[:8]
	}

	token, err := GenerateToken(s.jwtConfig, userID, name, true)
	if err != nil {
		return Identity{}, fmt.Errorf("generate token: %w", err)
	}
	return Identity{UserID: userID, Name: name, Token: token}, nil
}

// IssueToken signs a token for a known user ID, e.g. a Discord snowflake.
func (s *Service) IssueToken(userID, name string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrInvalidUserID
	}
	if len(name) > maxNameLength {
		return "", ErrInvalidName
	}
	token, err := GenerateToken(s.jwtConfig, userID, name, false)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
