package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
	apierrors "github.com/ritrax1/GOAuth2BlogDemo/internal/pkg/errors"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/repository"
)

const defaultSessionExpiry = 7 * 24 * time.Hour

// SessionService manages server-side sessions and resolves them to principals.
type SessionService interface {
	// Begin starts a session for the user.
	Begin(ctx context.Context, userID uuid.UUID) (*models.Session, error)

	// Resolve returns the principal for a live session, or nil when the
	// session is unknown, expired, or its user no longer exists.
	Resolve(ctx context.Context, sessionID string) (*models.Principal, error)

	// End deletes the session. Ending an unknown session is not an error.
	End(ctx context.Context, sessionID string) error
}

type sessionService struct {
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	expiry      time.Duration
	now         func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	expiry time.Duration,
) SessionService {
	if expiry <= 0 {
		expiry = defaultSessionExpiry
	}
	return &sessionService{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		expiry:      expiry,
		now:         time.Now,
	}
}

func (s *sessionService) Begin(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, apierrors.ErrInternal.WithCause(err)
	}

	now := s.now().UTC()
	session := &models.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(s.expiry),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, apierrors.NewPersistenceError("create session", err)
	}
	return session, nil
}

func (s *sessionService) Resolve(ctx context.Context, sessionID string) (*models.Principal, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, apierrors.NewPersistenceError("load session", err)
	}
	if session == nil || session.Expired(s.now()) {
		return nil, nil
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, apierrors.NewPersistenceError("load user", err)
	}
	if user == nil {
		return nil, nil
	}
	return models.NewPrincipal(user, session.ID), nil
}

func (s *sessionService) End(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return apierrors.NewPersistenceError("delete session", err)
	}
	return nil
}

// newSessionID returns 32 random bytes, base64url encoded.
func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

var _ SessionService = (*sessionService)(nil)
