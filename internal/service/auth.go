package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/borisrunfast/auction-house/internal/apperror"
	"github.com/borisrunfast/auction-house/internal/auth"
	"github.com/borisrunfast/auction-house/internal/gateway"
	"github.com/borisrunfast/auction-house/internal/model"
	"github.com/borisrunfast/auction-house/internal/repository"
)

// AuthService orchestrates login, registration and logout: it forwards
// credentials to the remote API and manages the local session record plus
// its signed cookie token.
type AuthService struct {
	gw       *gateway.Client
	sessions repository.SessionRepository
	tokens   *auth.TokenService
	logger   *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(
	gw *gateway.Client,
	sessions repository.SessionRepository,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		gw:       gw,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
}

// Login authenticates against the remote API, persists a new session
// record with the access token and profile snapshot, and returns the
// signed cookie value for the browser.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", apperror.ValidationFailed("email", "Email and password are required.")
	}

	data, err := s.gw.Login(ctx, email, password)
	if err != nil {
		return "", fmt.Errorf("logging in: %w", err)
	}

	profile := data.Profile
	session := &model.Session{
		AccessToken: data.AccessToken,
		User:        &profile,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}

	signed, err := s.tokens.Generate(session.ID)
	if err != nil {
		return "", fmt.Errorf("signing session cookie: %w", err)
	}

	s.logger.Info("user logged in", slog.String("name", profile.Name))
	return signed, nil
}

// Register validates the form locally (matching passwords) and creates the
// account remotely. The user logs in afterwards; no session is created.
func (s *AuthService) Register(ctx context.Context, name, email, password, confirmPassword string) (*model.Profile, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, apperror.ValidationFailed("name", "Name, email and password are required.")
	}
	if password != confirmPassword {
		return nil, apperror.ValidationFailed("confirmPassword", "Passwords do not match. Please try again.")
	}

	profile, err := s.gw.Register(ctx, name, email, password)
	if err != nil {
		return nil, fmt.Errorf("registering: %w", err)
	}

	s.logger.Info("user registered", slog.String("name", profile.Name))
	return profile, nil
}

// Logout destroys the session record. Safe to call for an already-gone
// session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	s.logger.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// RefreshProfile re-fetches the session user's profile and updates the
// cached snapshot, keeping the credit balance current. Used
// opportunistically by the home page; failures are the caller's to
// tolerate.
func (s *AuthService) RefreshProfile(ctx context.Context, session *model.Session) error {
	if !session.LoggedIn() {
		return nil
	}

	profile, err := s.gw.GetProfile(ctx, session.AccessToken, session.UserName())
	if err != nil {
		return fmt.Errorf("refreshing profile: %w", err)
	}

	session.User = profile
	if err := s.sessions.Update(ctx, session); err != nil {
		return fmt.Errorf("storing refreshed profile: %w", err)
	}
	return nil
}
