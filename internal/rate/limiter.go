package rate

import (
	"context"
	"fmt"
	"time"

	"connecta/pkg/xerrors"
)

type counter interface {
	GetTTL(ctx context.Context, namespace, key string) (time.Duration, error)
	IncrWithExpire(ctx context.Context, namespace, key string, window time.Duration) (int64, error)
	Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
}

// Limiter throttles OTP issuance per account: a cooldown between requests,
// a cap per window, and an extended block once the cap is exceeded.
type Limiter struct {
	cache       counter
	window      time.Duration
	maxInWindow int
	cooldown    time.Duration
}

func NewLimiter(cache counter, window time.Duration, max int, cooldown time.Duration) *Limiter {
	return &Limiter{cache: cache, window: window, maxInWindow: max, cooldown: cooldown}
}

func (l *Limiter) CanRequest(ctx context.Context, accountID, purpose string) error {
	blockKey := fmt.Sprintf("block:%s:%s", accountID, purpose)
	lastKey := fmt.Sprintf("last:%s:%s", accountID, purpose)
	countKey := fmt.Sprintf("count:%s:%s", accountID, purpose)

	if ttl, _ := l.cache.GetTTL(ctx, "otp_rate", blockKey); ttl > 0 {
		return fmt.Errorf("%w: try again in %d seconds", xerrors.ErrTooManyOTPRequests, int(ttl.Seconds()))
	}

	if ttl, _ := l.cache.GetTTL(ctx, "otp_rate", lastKey); ttl > 0 {
		return fmt.Errorf("%w: wait %d seconds before requesting another code", xerrors.ErrTooManyOTPRequests, int(ttl.Seconds()))
	}

	cnt, err := l.cache.IncrWithExpire(ctx, "otp_rate", countKey, l.window)
	if err != nil {
		return err
	}
	if int(cnt) > l.maxInWindow {
		_ = l.cache.Set(ctx, "otp_rate", blockKey, "1", l.window*3)
		return fmt.Errorf("%w: try again in %d seconds", xerrors.ErrTooManyOTPRequests, int((l.window * 3).Seconds()))
	}

	_ = l.cache.Set(ctx, "otp_rate", lastKey, "1", l.cooldown)
	return nil
}
