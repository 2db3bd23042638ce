package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// PasswordCost is the bcrypt cost used by HashPassword.
var PasswordCost = 12

// TokenManager signs and validates HS256 access and refresh tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// GenerateJWT creates a short-lived access token bound to a session.
func (m *TokenManager) GenerateJWT(userID, email, sessionID string) (string, time.Time, error) {
	expiresAt := m.now().Add(m.accessTTL)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"sid":   sessionID,
		"type":  TokenTypeAccess,
		"iat":   m.now().Unix(),
		"exp":   expiresAt.Unix(),
	}
	signed, err := m.sign(claims)
	return signed, expiresAt, err
}

// GenerateRefreshToken creates a long-lived refresh token tied to a single session.
func (m *TokenManager) GenerateRefreshToken(userID, sessionID string) (string, time.Time, error) {
	expiresAt := m.now().Add(m.refreshTTL)
	claims := jwt.MapClaims{
		"sub":  userID,
		"sid":  sessionID,
		"type": TokenTypeRefresh,
		"iat":  m.now().Unix(),
		"exp":  expiresAt.Unix(),
	}
	signed, err := m.sign(claims)
	return signed, expiresAt, err
}

func (m *TokenManager) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateJWT parses tokenStr and checks its signature, expiry and type.
func (m *TokenManager) ValidateJWT(tokenStr, tokenType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("token parsing error: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	if t, _ := claims["type"].(string); t != tokenType {
		return nil, fmt.Errorf("expected %s token, got %q", tokenType, t)
	}
	if sub, _ := claims["sub"].(string); sub == "" {
		return nil, errors.New("token has no subject")
	}
	if sid, _ := claims["sid"].(string); sid == "" {
		return nil, errors.New("token has no session")
	}
	return claims, nil
}

// ClaimString returns a string claim or "".
func ClaimString(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}

func ValidatePassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	return string(bytes), err
}
