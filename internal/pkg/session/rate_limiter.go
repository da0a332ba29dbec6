// internal/pkg/session/rate_limiter.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// CheckLoginAttempt checks if login attempt is allowed.
// Allows up to 5 attempts per 15 minutes per ip+email pair.
func (r *RateLimiter) CheckLoginAttempt(ctx context.Context, ip, email string) (bool, int64, error) {
	key := fmt.Sprintf("ratelimit:login:%s:%s", ip, email)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment login attempt: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, key, 15*time.Minute)
	}

	maxAttempts := int64(5)
	remaining := maxAttempts - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= maxAttempts, remaining, nil
}

// ResetLoginAttempts resets the login attempt counter after a successful login.
func (r *RateLimiter) ResetLoginAttempts(ctx context.Context, ip, email string) error {
	key := fmt.Sprintf("ratelimit:login:%s:%s", ip, email)
	return r.client.Del(ctx, key).Err()
}

// CheckFeedbackSubmission limits public feedback posts per client IP.
// Allows up to 20 submissions per hour.
func (r *RateLimiter) CheckFeedbackSubmission(ctx context.Context, ip string) (bool, error) {
	key := fmt.Sprintf("ratelimit:feedback:%s", ip)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment feedback attempt: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, key, time.Hour)
	}

	return count <= 20, nil
}

// CheckReportGeneration limits report generation requests per account.
// Allows up to 10 requests per 10 minutes.
func (r *RateLimiter) CheckReportGeneration(ctx context.Context, accountID int64) (bool, error) {
	key := fmt.Sprintf("ratelimit:report:%d", accountID)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment report attempt: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, key, 10*time.Minute)
	}

	return count <= 10, nil
}
