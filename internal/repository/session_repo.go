package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/database"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
)

const sessionKeyPrefix = "session:"

type redisSessionRepo struct {
	rdb *database.Redis
}

// NewRedisSessionRepository stores sessions as JSON values whose TTL matches ExpiresAt.
func NewRedisSessionRepository(rdb *database.Redis) SessionRepository {
	return &redisSessionRepo{rdb: rdb}
}

func (r *redisSessionRepo) Create(ctx context.Context, session *models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}

	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.rdb.Set(ctx, sessionKeyPrefix+session.ID, b, ttl)
}

func (r *redisSessionRepo) Get(ctx context.Context, id string) (*models.Session, error) {
	b, err := r.rdb.Get(ctx, sessionKeyPrefix+id)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal(b, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if session.Expired(time.Now()) {
		return nil, nil
	}
	return &session, nil
}

func (r *redisSessionRepo) Delete(ctx context.Context, id string) error {
	return r.rdb.Delete(ctx, sessionKeyPrefix+id)
}

var _ SessionRepository = (*redisSessionRepo)(nil)
