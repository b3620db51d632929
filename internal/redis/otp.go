package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrOTPNotFound = errors.New("otp not found or expired")

// OTPStore keeps one-time codes in a shared expiring store so that any
// instance can verify a code issued by another. Keys expire on their own;
// Consume deletes on read so a code is verifiable at most once.
type OTPStore interface {
	Put(ctx context.Context, mobile, code string, ttl time.Duration) error
	Consume(ctx context.Context, mobile string) (string, error)
}

type redisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) OTPStore {
	return &redisOTPStore{client: client}
}

func otpKey(mobile string) string {
	return fmt.Sprintf("otp:%s", mobile)
}

func (s *redisOTPStore) Put(ctx context.Context, mobile, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, otpKey(mobile), code, ttl).Err(); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

func (s *redisOTPStore) Consume(ctx context.Context, mobile string) (string, error) {
	code, err := s.client.GetDel(ctx, otpKey(mobile)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrOTPNotFound
		}
		return "", fmt.Errorf("consume otp: %w", err)
	}
	return code, nil
}
