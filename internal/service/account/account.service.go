// Package account is the lifecycle manager: creation with display-id
// allocation, status flag toggles, password changes, deletion.
package account

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"connecta/internal/domain"
	"connecta/internal/events"
	"connecta/internal/repository"
	"connecta/pkg/phone"
	"connecta/pkg/xerrors"
)

// displayIDAttempts bounds the allocation retry loop; beyond it the create
// fails with a transient error the caller may retry.
const displayIDAttempts = 5

type Service struct {
	repo         repository.AccountRepository
	producer     events.Producer
	storeTimeout time.Duration
	logger       *zap.Logger
}

func NewService(repo repository.AccountRepository, producer events.Producer, storeTimeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		repo:         repo,
		producer:     producer,
		storeTimeout: storeTimeout,
		logger:       logger,
	}
}

func (s *Service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *Service) Create(ctx context.Context, in domain.NewAccountInput) (*domain.Account, error) {
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.Password == "" {
		return nil, xerrors.ErrMissingFields
	}

	canonical, err := phone.Normalize(in.Phone)
	if err != nil {
		return nil, xerrors.ErrInvalidPhone
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	exists, err := s.repo.ExistsByEmailOrPhone(ctx, in.Email, canonical)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, xerrors.ErrDuplicateAccount
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	displayID, err := s.allocateDisplayID(ctx)
	if err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}

	now := time.Now()
	a := &domain.Account{
		ID:            ulid.Make().String(),
		DisplayID:     displayID,
		Name:          in.Name,
		Email:         in.Email,
		Phone:         canonical,
		PasswordHash:  string(hash),
		Role:          role,
		ProfileFor:    in.ProfileFor,
		Gender:        in.Gender,
		DOB:           in.DOB,
		MaritalStatus: in.MaritalStatus,
		Religion:      in.Religion,
		District:      in.District,
		State:         in.State,
		Location:      in.Location,
		Profession:    in.Profession,
		About:         in.About,
		Image:         in.Image,
		IsActive:      true,
		IsPrivate:     in.IsPrivate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	if err := s.producer.AccountCreated(events.AccountEvent{
		AccountID:  a.ID,
		DisplayID:  a.DisplayID,
		OccurredAt: now,
	}); err != nil {
		s.logger.Warn("account.created event publish failed",
			zap.String("account_id", a.ID), zap.Error(err))
	}
	return a, nil
}

// allocateDisplayID reads the highest allocated sequence and claims the
// next one. Two racing creations can read the same maximum, so a claim
// conflict just retries with a fresh read; attempts are bounded.
func (s *Service) allocateDisplayID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < displayIDAttempts; attempt++ {
		max, err := s.repo.MaxDisplaySeq(ctx)
		if err != nil {
			return "", err
		}
		seq := max + 1
		switch err := s.repo.AllocateDisplaySeq(ctx, seq); err {
		case nil:
			return FormatDisplayID(seq), nil
		case repository.ErrSeqTaken:
			continue
		default:
			return "", err
		}
	}
	return "", fmt.Errorf("%w: display id allocation contended", xerrors.ErrTransient)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Account, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, role string) ([]domain.Account, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.List(ctx, role)
}

func (s *Service) Update(ctx context.Context, id string, upd domain.AccountUpdate) (*domain.Account, error) {
	if upd.Phone != nil {
		canonical, err := phone.Normalize(*upd.Phone)
		if err != nil {
			return nil, xerrors.ErrInvalidPhone
		}
		upd.Phone = &canonical
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.Update(ctx, id, upd)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.producer.AccountDeleted(events.AccountEvent{
		AccountID:  id,
		Reason:     "explicit_delete",
		OccurredAt: time.Now(),
	}); err != nil {
		s.logger.Warn("account.deleted event publish failed",
			zap.String("account_id", id), zap.Error(err))
	}
	return nil
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.SetActive(ctx, id, active)
}

func (s *Service) SetBlockedGlobally(ctx context.Context, id string, blocked bool) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.SetBlockedGlobally(ctx, id, blocked)
}

func (s *Service) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(oldPassword)) != nil {
		return xerrors.ErrInvalidOldPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePasswordHash(ctx, id, string(hash))
}
