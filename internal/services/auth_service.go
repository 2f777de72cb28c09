package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthDisabled       = errors.New("authentication is not configured")
)

// AuthService issues and verifies tokens for the operator account allowed to modify products.
type AuthService struct {
	username     string
	passwordHash []byte // bcrypt
	jwtSecret    []byte
	tokenTTL     time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(username, passwordHash, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		username:     username,
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecret),
		tokenTTL:     tokenTTL,
	}
}

// Enabled reports whether both a signing secret and an operator password hash are configured.
// A disabled service issues no tokens and accepts none.
func (s *AuthService) Enabled() bool {
	return len(s.jwtSecret) > 0 && len(s.passwordHash) > 0
}

// IssueToken checks the operator credentials and returns a signed JWT.
func (s *AuthService) IssueToken(username, password string) (string, error) {
	if !s.Enabled() || username != s.username {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"exp": now.Add(s.tokenTTL).Unix(),
		"iat": now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("invalid token: %w", ErrAuthDisabled)
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
