package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type CodePurpose string

const (
	CodePurposeVerify CodePurpose = "verify"
	CodePurposeReset  CodePurpose = "reset"
)

// CodeRepository stores hashed one-time codes keyed by purpose and email,
// next to a counter of wrong guesses against the current code.
type CodeRepository struct {
	client *redis.Client
}

func NewCodeRepository(client *redis.Client) *CodeRepository {
	return &CodeRepository{client: client}
}

func codeKey(purpose CodePurpose, email string) string {
	return fmt.Sprintf("code:%s:%s", purpose, email)
}

func attemptsKey(purpose CodePurpose, email string) string {
	return codeKey(purpose, email) + ":attempts"
}

// SaveCode replaces any code already issued for the same purpose and email
// and resets its attempt counter.
func (r *CodeRepository) SaveCode(ctx context.Context, purpose CodePurpose, email, codeHash string, ttl time.Duration) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, codeKey(purpose, email), codeHash, ttl)
		pipe.Del(ctx, attemptsKey(purpose, email))
		return nil
	})
	return err
}

// TakeCode removes the live code and returns it with its remaining lifetime.
// Only one caller can take a given code. Returns "", 0, nil when none exists.
func (r *CodeRepository) TakeCode(ctx context.Context, purpose CodePurpose, email string) (string, time.Duration, error) {
	key := codeKey(purpose, email)

	var ttl *redis.DurationCmd
	var val *redis.StringCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		ttl = pipe.PTTL(ctx, key)
		val = pipe.GetDel(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", 0, err
	}

	hash, err := val.Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", 0, nil
		}
		return "", 0, err
	}
	return hash, ttl.Val(), nil
}

// RestoreCode puts a taken code back unless a newer one was issued meanwhile.
func (r *CodeRepository) RestoreCode(ctx context.Context, purpose CodePurpose, email, codeHash string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.SetNX(ctx, codeKey(purpose, email), codeHash, ttl).Err()
}

// RecordFailure counts a wrong guess and returns the total for the current code.
// The counter lives no longer than the code it belongs to.
func (r *CodeRepository) RecordFailure(ctx context.Context, purpose CodePurpose, email string, ttl time.Duration) (int64, error) {
	key := attemptsKey(purpose, email)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		if ttl > 0 {
			pipe.PExpire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (r *CodeRepository) ClearAttempts(ctx context.Context, purpose CodePurpose, email string) error {
	return r.client.Del(ctx, attemptsKey(purpose, email)).Err()
}
