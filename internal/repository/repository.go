package repository

import (
	"context"
	"errors"

	"connecta/internal/domain"
	"connecta/pkg/xerrors"
)

// ErrSeqTaken signals a lost race on display-id allocation; the caller's
// bounded retry loop handles it.
var ErrSeqTaken = errors.New("display sequence already allocated")

type AccountRepository interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Account, error)
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
	List(ctx context.Context, role string) ([]domain.Account, error)
	Update(ctx context.Context, id string, upd domain.AccountUpdate) (*domain.Account, error)
	Delete(ctx context.Context, id string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	SetActive(ctx context.Context, id string, active bool) error
	SetBlockedGlobally(ctx context.Context, id string, blocked bool) error

	MaxDisplaySeq(ctx context.Context) (int, error)
	AllocateDisplaySeq(ctx context.Context, seq int) error
}

type RelationshipRepository interface {
	// Relation loads everything needed to decide a transition for the
	// ordered (requester, target) pair. Fails with ErrAccountNotFound if
	// either account is absent.
	Relation(ctx context.Context, requesterID, targetID string) (*domain.Relation, error)

	// EstablishFollow writes both halves of the mirrored edge in one
	// transaction; when clearRequest is set it also removes the pending
	// request row.
	EstablishFollow(ctx context.Context, followerID, targetID string, clearRequest bool) error
	RemoveFollow(ctx context.Context, followerID, targetID string) (bool, error)

	AddFollowRequest(ctx context.Context, targetID, requesterID string) error
	RemoveFollowRequest(ctx context.Context, targetID, requesterID string) (bool, error)
	ListFollowRequests(ctx context.Context, targetID string) ([]domain.Account, error)

	// Block adds the directional block; with severEdges it also deletes any
	// follow edge in either direction, all in one transaction.
	Block(ctx context.Context, blockerID, blockedID string, severEdges bool) error
	Unblock(ctx context.Context, blockerID, blockedID string) (bool, error)

	// Report records the reporter and deletes the target account in the
	// same transaction once the distinct-reporter count reaches threshold.
	Report(ctx context.Context, targetID, reporterID string, threshold int) (count int, deleted bool, err error)

	Followers(ctx context.Context, accountID string) ([]domain.Account, error)
	Following(ctx context.Context, accountID string) ([]domain.Account, error)
	VisibleAccounts(ctx context.Context, viewerID string) ([]domain.Account, error)
	ReportedAccounts(ctx context.Context) ([]domain.Account, error)
}

// storeErr translates low-level store failures into the domain taxonomy;
// deadline expiry becomes a retryable transient error.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return xerrors.ErrTransient
	}
	return err
}
