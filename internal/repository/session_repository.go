package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionRepository keeps the server-side half of a session: session id -> user id.
// A token whose session key is gone (signed out, expired) no longer resolves.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func userSessionsKey(userID uuid.UUID) string {
	return fmt.Sprintf("user_sessions:%s", userID)
}

// CreateSession stores the session and indexes it under its user. The index
// lives as long as the newest session it holds.
func (r *SessionRepository) CreateSession(ctx context.Context, sessionID string, userID uuid.UUID, ttl time.Duration) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sessionID), userID.String(), ttl)
		pipe.SAdd(ctx, userSessionsKey(userID), sessionID)
		pipe.Expire(ctx, userSessionsKey(userID), ttl)
		return nil
	})
	return err
}

// GetSessionUser returns uuid.Nil, nil when the session does not exist.
func (r *SessionRepository) GetSessionUser(ctx context.Context, sessionID string) (uuid.UUID, error) {
	val, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		// corrupted entry, treat as absent
		return uuid.Nil, nil
	}
	return userID, nil
}

func (r *SessionRepository) DeleteSession(ctx context.Context, userID uuid.UUID, sessionID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(sessionID))
		pipe.SRem(ctx, userSessionsKey(userID), sessionID)
		return nil
	})
	return err
}

// DeleteUserSessions removes every session of userID and returns how many were indexed.
func (r *SessionRepository) DeleteUserSessions(ctx context.Context, userID uuid.UUID) (int, error) {
	ids, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return 0, err
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userSessionsKey(userID))

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	return len(ids), nil
}
