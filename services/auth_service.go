package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"siteguard/models"
	"siteguard/repository"
	"siteguard/utils"
)

// ClientInfo describes the device a session is opened from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type AuthService struct {
	repo   repository.Repository
	tokens *utils.TokenManager
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(repo repository.Repository, tokens *utils.TokenManager, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{repo: repo, tokens: tokens, log: log, now: time.Now}
}

func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest, client ClientInfo) (*models.AuthResponse, error) {
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleSiteEngineer
	}
	now := s.now()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user signed up", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.openSession(ctx, user, client)
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, client ClientInfo) (*models.AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.ValidatePassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.openSession(ctx, user, client)
}

// Refresh exchanges a refresh token for a new token pair. The old session
// is replaced so a refresh token can be used only once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*models.AuthResponse, error) {
	claims, err := s.tokens.ValidateJWT(refreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sessionID := utils.ClaimString(claims, "sid")
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.RefreshToken != refreshToken || !s.now().Before(session.RefreshTokenExpiresAt) {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := s.repo.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("rotate session: %w", err)
	}
	return s.openSession(ctx, user, client)
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Authenticate resolves an access token to its user and live session.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, *models.Session, error) {
	claims, err := s.tokens.ValidateJWT(accessToken, utils.TokenTypeAccess)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	session, err := s.repo.GetSession(ctx, utils.ClaimString(claims, "sid"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	if session.UserID != utils.ClaimString(claims, "sub") {
		return nil, nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	return user, session, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}
	return user, nil
}

// CleanupExpiredSessions removes sessions whose refresh token has expired.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.CleanupExpiredSessions(ctx, s.now())
}

func (s *AuthService) openSession(ctx context.Context, user *models.User, client ClientInfo) (*models.AuthResponse, error) {
	sessionID := uuid.NewString()
	token, expiresAt, err := s.tokens.GenerateJWT(user.ID, user.Email, sessionID)
	if err != nil {
		return nil, err
	}
	refresh, refreshExpiresAt, err := s.tokens.GenerateRefreshToken(user.ID, sessionID)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:                    sessionID,
		UserID:                user.ID,
		RefreshToken:          refresh,
		IPAddress:             client.IPAddress,
		UserAgent:             client.UserAgent,
		ExpiresAt:             expiresAt,
		RefreshTokenExpiresAt: refreshExpiresAt,
		CreatedAt:             s.now(),
	}
	if err := s.repo.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &models.AuthResponse{
		Token:            token,
		RefreshToken:     refresh,
		ExpiresAt:        expiresAt.Unix(),
		RefreshExpiresAt: refreshExpiresAt.Unix(),
		User:             *user,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
