// Package otp manages the one-time-code lifecycle: issue a code into the
// expiring cache, dispatch it to the account's email or phone, and consume
// it on first successful verification.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"connecta/internal/domain"
	"connecta/pkg/cache"
	"connecta/pkg/xerrors"
)

const namespace = "otp"

// Store is the slice of the cache the OTP lifecycle needs.
type Store interface {
	Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
	CompareAndDelete(ctx context.Context, namespace, key, expected string) (int, error)
}

type RateLimiter interface {
	CanRequest(ctx context.Context, accountID, purpose string) error
}

type Dispatcher interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, body string) error
}

type Service struct {
	store      Store
	limiter    RateLimiter
	dispatcher Dispatcher
	ttl        time.Duration
	logger     *zap.Logger
}

func NewService(store Store, limiter RateLimiter, dispatcher Dispatcher, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		limiter:    limiter,
		dispatcher: dispatcher,
		ttl:        ttl,
		logger:     logger,
	}
}

// Issue generates a fresh 6-digit code for the account, overwriting any
// unconsumed one, and dispatches it. Email wins when the account has both
// destinations. The code is returned for the caller's tests and must never
// be written to a client response.
func (s *Service) Issue(ctx context.Context, account *domain.Account, purpose string) (string, error) {
	if account.Email == "" && account.Phone == "" {
		return "", xerrors.ErrNoRecipient
	}

	if s.limiter != nil {
		if err := s.limiter.CanRequest(ctx, account.ID, purpose); err != nil {
			return "", err
		}
	}

	code := randomCode(6)
	if err := s.store.Set(ctx, namespace, account.ID, code, s.ttl); err != nil {
		return "", err
	}

	body := fmt.Sprintf("Your OTP code is: %s. It is valid for %d minutes.",
		code, int(s.ttl.Minutes()))

	var err error
	if account.Email != "" {
		err = s.dispatcher.SendEmail(ctx, account.Email, "Your OTP Code", body)
	} else {
		err = s.dispatcher.SendSMS(ctx, account.Phone, body)
	}
	if err != nil {
		// the code stays issued; the account owner can retry delivery
		s.logger.Warn("otp dispatch failed",
			zap.String("account_id", account.ID), zap.Error(err))
	}

	return code, nil
}

// Verify consumes the entry on match. The compare-and-delete is atomic in
// the store, so of two racing verifications at most one succeeds and the
// loser sees not-found. A missing entry is deliberately indistinguishable
// between never-issued, expired, and already-used.
func (s *Service) Verify(ctx context.Context, accountID, submitted string) error {
	res, err := s.store.CompareAndDelete(ctx, namespace, accountID, submitted)
	if err != nil {
		return err
	}
	switch res {
	case cache.CADDeleted:
		return nil
	case cache.CADMismatch:
		return xerrors.ErrInvalidOTP
	default:
		return xerrors.ErrOTPNotFound
	}
}

// randomCode returns a uniformly random numeric string in
// [10^(digits-1), 10^digits).
func randomCode(digits int) string {
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits-1)), nil)
	span := new(big.Int).Mul(low, big.NewInt(9))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		panic(err)
	}
	return n.Add(n, low).String()
}
