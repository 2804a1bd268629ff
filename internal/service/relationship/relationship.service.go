// Package relationship is the state machine over ordered (requester,
// target) account pairs: follow requests, mirrored follow edges, blocks and
// reports. Every transition loads the pair's relation snapshot first and
// rejects precondition violations before touching the store.
package relationship

import (
	"context"
	"time"

	"go.uber.org/zap"

	"connecta/internal/domain"
	"connecta/internal/events"
	"connecta/internal/repository"
	"connecta/pkg/xerrors"
)

type Service struct {
	repo         repository.RelationshipRepository
	producer     events.Producer
	blockSevers  bool
	storeTimeout time.Duration
	logger       *zap.Logger
}

func NewService(repo repository.RelationshipRepository, producer events.Producer, blockSevers bool, storeTimeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		repo:         repo,
		producer:     producer,
		blockSevers:  blockSevers,
		storeTimeout: storeTimeout,
		logger:       logger,
	}
}

func (s *Service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// RequestFollow returns the resulting relation state: "pending" for private
// targets, "following" otherwise.
func (s *Service) RequestFollow(ctx context.Context, requesterID, targetID string) (string, error) {
	if requesterID == targetID {
		return "", xerrors.ErrSelfReference
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	rel, err := s.repo.Relation(ctx, requesterID, targetID)
	if err != nil {
		return "", err
	}
	switch {
	case rel.BlockedByTarget:
		return "", xerrors.ErrBlocked
	case rel.Following:
		return "", xerrors.ErrAlreadyFollowing
	case rel.Pending:
		return "", xerrors.ErrAlreadyPending
	}

	if rel.TargetIsPrivate {
		if err := s.repo.AddFollowRequest(ctx, targetID, requesterID); err != nil {
			return "", err
		}
		return domain.RelationPending, nil
	}

	if err := s.repo.EstablishFollow(ctx, requesterID, targetID, false); err != nil {
		return "", err
	}
	return domain.RelationFollowing, nil
}

// ApproveFollowRequest moves a pending requester into the mirrored
// follower/following pair and clears the pending entry in the same
// transaction. Idempotent when nothing is pending.
func (s *Service) ApproveFollowRequest(ctx context.Context, targetID, requesterID string) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	rel, err := s.repo.Relation(ctx, requesterID, targetID)
	if err != nil {
		return err
	}
	if !rel.TargetIsPrivate {
		return xerrors.ErrNotPrivate
	}
	if !rel.Pending {
		return nil
	}
	return s.repo.EstablishFollow(ctx, requesterID, targetID, true)
}

// CancelFollowRequest is idempotent: removing an absent request is a no-op.
func (s *Service) CancelFollowRequest(ctx context.Context, targetID, requesterID string) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	_, err := s.repo.RemoveFollowRequest(ctx, targetID, requesterID)
	return err
}

// Unfollow removes the mirrored pair when present, no-op otherwise.
func (s *Service) Unfollow(ctx context.Context, requesterID, targetID string) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	rel, err := s.repo.Relation(ctx, requesterID, targetID)
	if err != nil {
		return err
	}
	if rel.BlockedByTarget {
		return xerrors.ErrBlocked
	}
	_, err = s.repo.RemoveFollow(ctx, requesterID, targetID)
	return err
}

func (s *Service) Block(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == blockedID {
		return xerrors.ErrSelfReference
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if _, err := s.repo.Relation(ctx, blockerID, blockedID); err != nil {
		return err
	}
	return s.repo.Block(ctx, blockerID, blockedID, s.blockSevers)
}

func (s *Service) Unblock(ctx context.Context, blockerID, blockedID string) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	_, err := s.repo.Unblock(ctx, blockerID, blockedID)
	return err
}

// Report records a distinct reporter against the target. Crossing the
// threshold deletes the target account irreversibly (same transaction) and
// emits an account.deleted event.
func (s *Service) Report(ctx context.Context, reporterID, targetID string) (*domain.ReportResult, error) {
	if reporterID == targetID {
		return nil, xerrors.ErrSelfReference
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if _, err := s.repo.Relation(ctx, reporterID, targetID); err != nil {
		return nil, err
	}

	count, deleted, err := s.repo.Report(ctx, targetID, reporterID, domain.ReportThreshold)
	if err != nil {
		return nil, err
	}
	if deleted {
		if err := s.producer.AccountDeleted(events.AccountEvent{
			AccountID:  targetID,
			Reason:     "report_threshold",
			OccurredAt: time.Now(),
		}); err != nil {
			s.logger.Warn("account.deleted event publish failed",
				zap.String("account_id", targetID), zap.Error(err))
		}
		return &domain.ReportResult{Outcome: domain.ReportAccountDeleted, Count: count}, nil
	}
	return &domain.ReportResult{Outcome: domain.ReportRecorded, Count: count}, nil
}

func (s *Service) Followers(ctx context.Context, accountID string) ([]domain.Account, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.Followers(ctx, accountID)
}

func (s *Service) Following(ctx context.Context, accountID string) ([]domain.Account, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.Following(ctx, accountID)
}

func (s *Service) FollowRequests(ctx context.Context, targetID string) ([]domain.Account, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.ListFollowRequests(ctx, targetID)
}

func (s *Service) VisibleAccounts(ctx context.Context, viewerID string) ([]domain.Account, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.VisibleAccounts(ctx, viewerID)
}

func (s *Service) ReportedAccounts(ctx context.Context) ([]domain.Account, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.ReportedAccounts(ctx)
}
