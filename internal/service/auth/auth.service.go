// Package auth covers credential checks and the OTP-backed password reset
// flow. Token issuance itself is delegated to the jwtutil issuer.
package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"connecta/internal/domain"
	"connecta/internal/repository"
	"connecta/pkg/jwtutil"
	"connecta/pkg/phone"
	"connecta/pkg/xerrors"
)

type OTPService interface {
	Issue(ctx context.Context, account *domain.Account, purpose string) (string, error)
	Verify(ctx context.Context, accountID, submitted string) error
}

type Service struct {
	repo         repository.AccountRepository
	otp          OTPService
	issuer       *jwtutil.Issuer
	storeTimeout time.Duration
}

func NewService(repo repository.AccountRepository, otp OTPService, issuer *jwtutil.Issuer, storeTimeout time.Duration) *Service {
	return &Service{repo: repo, otp: otp, issuer: issuer, storeTimeout: storeTimeout}
}

func (s *Service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// lookup resolves an account by email or raw phone. A phone that fails
// normalization simply cannot match anything stored, so it is treated as
// not found rather than invalid input.
func (s *Service) lookup(ctx context.Context, email, rawPhone string) (*domain.Account, error) {
	canonical := ""
	if rawPhone != "" {
		if p, err := phone.Normalize(rawPhone); err == nil {
			canonical = p
		}
	}
	if email == "" && canonical == "" {
		return nil, xerrors.ErrAccountNotFound
	}
	return s.repo.GetByEmailOrPhone(ctx, email, canonical)
}

// Login checks the password and returns the account with a signed 7-day
// token.
func (s *Service) Login(ctx context.Context, email, rawPhone, password string) (*domain.Account, string, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	a, err := s.lookup(ctx, email, rawPhone)
	if err != nil {
		return nil, "", err
	}
	if !a.IsActive || a.IsBlocked {
		return nil, "", xerrors.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return nil, "", xerrors.ErrInvalidCredentials
	}

	token, err := s.issuer.Sign(a.ID, a.DisplayID, a.Email, a.Role)
	if err != nil {
		return nil, "", err
	}
	return a, token, nil
}

// SendOTP issues a code for the account identified by email or phone.
func (s *Service) SendOTP(ctx context.Context, email, rawPhone string) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	a, err := s.lookup(ctx, email, rawPhone)
	if err != nil {
		return err
	}
	_, err = s.otp.Issue(ctx, a, "password_reset")
	return err
}

// VerifyOTP consumes the pending code for the account.
func (s *Service) VerifyOTP(ctx context.Context, email, rawPhone, code string) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	a, err := s.lookup(ctx, email, rawPhone)
	if err != nil {
		return err
	}
	return s.otp.Verify(ctx, a.ID, code)
}

// ResetPassword rehashes and stores the new password. Callers gate it
// behind VerifyOTP; it performs no credential check of its own, matching
// the reset flow's contract.
func (s *Service) ResetPassword(ctx context.Context, email, rawPhone, newPassword string) error {
	if newPassword == "" {
		return xerrors.ErrInvalidRequest
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	a, err := s.lookup(ctx, email, rawPhone)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePasswordHash(ctx, a.ID, string(hash))
}
