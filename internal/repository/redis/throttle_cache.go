package redis

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"dalada-backend/internal/client"
	"dalada-backend/internal/util"
)

const (
	resendPrefix  = "otp_resend:"
	attemptPrefix = "otp_attempts:"
)

// ThrottleCache enforces the resend window and the per-record verification
// guess cap with TTL keys. The TTL key is atomic (SET NX), which closes the
// check-then-act window a createdAt comparison would leave open under
// concurrent sends for the same identifier.
type ThrottleCache struct {
	client *client.RedisClient
}

func NewThrottleCache(client *client.RedisClient) *ThrottleCache {
	return &ThrottleCache{client: client}
}

// ReserveSend tries to claim the resend slot for an identifier. When the
// window is already held, ok is false and retryAfterSec reports the remaining
// wait in whole seconds (at least 1).
func (c *ThrottleCache) ReserveSend(ctx context.Context, identifier string, window time.Duration) (ok bool, retryAfterSec int, err error) {
	key := resendPrefix + identifier

	set, err := c.client.SetNX(ctx, key, "1", window)
	if err != nil {
		util.Error("Failed to reserve resend slot",
			zap.String("identifier", identifier),
			zap.Error(err))
		return false, 0, fmt.Errorf("failed to reserve resend slot: %w", err)
	}
	if set {
		return true, 0, nil
	}

	ttl, err := c.client.PTTL(ctx, key)
	if err != nil {
		return false, 0, fmt.Errorf("failed to read resend window: %w", err)
	}
	if ttl <= 0 {
		// Key expired between SETNX and PTTL; treat as one second left.
		return false, 1, nil
	}
	return false, int(math.Ceil(ttl.Seconds())), nil
}

// ReleaseSend drops the resend reservation; used when a send fails after the
// slot was claimed so the caller is not locked out for a failed delivery.
func (c *ThrottleCache) ReleaseSend(ctx context.Context, identifier string) error {
	if err := c.client.Del(ctx, resendPrefix+identifier); err != nil {
		return fmt.Errorf("failed to release resend slot: %w", err)
	}
	return nil
}

// IncrementAttempts bumps the guess counter for an OTP record and returns the
// new count. The counter expires with the code.
func (c *ThrottleCache) IncrementAttempts(ctx context.Context, otpID string, ttl time.Duration) (int, error) {
	count, err := c.client.IncrWithExpire(ctx, attemptPrefix+otpID, ttl)
	if err != nil {
		util.Error("Failed to increment verify attempts",
			zap.String("otp_id", otpID),
			zap.Error(err))
		return 0, fmt.Errorf("failed to increment verify attempts: %w", err)
	}
	return int(count), nil
}

// ResetAttempts clears the guess counter, typically after the record it
// guarded has been deleted.
func (c *ThrottleCache) ResetAttempts(ctx context.Context, otpID string) error {
	if err := c.client.Del(ctx, attemptPrefix+otpID); err != nil {
		return fmt.Errorf("failed to reset verify attempts: %w", err)
	}
	return nil
}
