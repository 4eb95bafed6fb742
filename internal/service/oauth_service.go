// Package service provides business logic implementations.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/config"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
	apierrors "github.com/ritrax1/GOAuth2BlogDemo/internal/pkg/errors"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/repository"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// ErrOAuthNotConfigured is returned when Google credentials are missing.
var ErrOAuthNotConfigured = errors.New("google oauth is not configured")

// OAuthUserInfo contains the Google profile fields used for login.
type OAuthUserInfo struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// OAuthService defines the Google sign-in interface.
type OAuthService interface {
	// GetAuthURL returns the Google consent URL carrying state.
	GetAuthURL(state string) (string, error)

	// HandleCallback exchanges the code, upserts the user and begins a session.
	// It returns the user and the new session ID.
	HandleCallback(ctx context.Context, code string) (*models.User, string, error)
}

type oauthService struct {
	config      *oauth2.Config
	userInfoURL string
	userRepo    repository.UserRepository
	sessions    SessionService
	httpClient  *http.Client
	now         func() time.Time
}

// NewOAuthService creates a new OAuth service with the given configuration.
func NewOAuthService(
	cfg *config.AuthConfig,
	userRepo repository.UserRepository,
	sessions SessionService,
) OAuthService {
	svc := &oauthService{
		userInfoURL: googleUserInfoURL,
		userRepo:    userRepo,
		sessions:    sessions,
		now:         time.Now,
	}

	if cfg.OAuthGoogleID != "" && cfg.OAuthGoogleSecret != "" {
		svc.config = &oauth2.Config{
			ClientID:     cfg.OAuthGoogleID,
			ClientSecret: cfg.OAuthGoogleSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  strings.TrimRight(cfg.OAuthCallbackURL, "/") + "/auth/google/callback",
			Scopes:       []string{"profile", "email"},
		}
	}

	return svc
}

// NewOAuthServiceWithClient creates a new OAuth service with a custom HTTP client.
// This is primarily used for testing.
func NewOAuthServiceWithClient(
	cfg *config.AuthConfig,
	userRepo repository.UserRepository,
	sessions SessionService,
	httpClient *http.Client,
) OAuthService {
	svc := NewOAuthService(cfg, userRepo, sessions).(*oauthService)
	svc.httpClient = httpClient
	return svc
}

func (s *oauthService) GetAuthURL(state string) (string, error) {
	if s.config == nil {
		return "", ErrOAuthNotConfigured
	}
	return s.config.AuthCodeURL(state), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, code string) (*models.User, string, error) {
	if s.config == nil {
		return nil, "", apierrors.NewUpstreamAuthError("Google sign-in is not configured", ErrOAuthNotConfigured)
	}
	if code == "" {
		return nil, "", apierrors.ErrUpstreamAuth.WithMessage("Missing authorization code")
	}

	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, "", apierrors.NewUpstreamAuthError("Token exchange failed", err)
	}

	info, err := s.fetchGoogleUser(s.config.Client(ctx, token))
	if err != nil {
		return nil, "", apierrors.NewUpstreamAuthError("Failed to fetch user info", err)
	}

	user, err := s.findOrCreateUser(ctx, info)
	if err != nil {
		return nil, "", err
	}

	session, err := s.sessions.Begin(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, session.ID, nil
}

func (s *oauthService) fetchGoogleUser(client *http.Client) (*OAuthUserInfo, error) {
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Google user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google API returned status %d", resp.StatusCode)
	}

	var data struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode Google user response: %w", err)
	}
	if data.ID == "" {
		return nil, errors.New("google user response has no id")
	}

	return &OAuthUserInfo{
		ID:      data.ID,
		Email:   data.Email,
		Name:    data.Name,
		Picture: data.Picture,
	}, nil
}

// findOrCreateUser upserts by Google id. Returning users get their display
// name, picture and email overwritten with the provider's current values.
func (s *oauthService) findOrCreateUser(ctx context.Context, info *OAuthUserInfo) (*models.User, error) {
	now := s.now().UTC()
	name := displayName(info)

	user, err := s.userRepo.GetByGoogleID(ctx, info.ID)
	if err != nil {
		return nil, apierrors.NewPersistenceError("load user", err)
	}
	if user != nil {
		user.DisplayName = name
		user.PictureURL = info.Picture
		user.Email = info.Email
		user.LastLoginAt = &now
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, apierrors.NewPersistenceError("update user", err)
		}
		return user, nil
	}

	user = &models.User{
		GoogleID:    info.ID,
		DisplayName: name,
		Email:       info.Email,
		PictureURL:  info.Picture,
		LastLoginAt: &now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apierrors.NewPersistenceError("create user", err)
	}
	return user, nil
}

func displayName(info *OAuthUserInfo) string {
	if name := strings.TrimSpace(info.Name); name != "" {
		return name
	}
	if info.Email != "" {
		return info.Email
	}
	return "Anonymous"
}

// Compile-time check to ensure oauthService implements OAuthService.
var _ OAuthService = (*oauthService)(nil)
