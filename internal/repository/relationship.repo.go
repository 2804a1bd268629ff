package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"connecta/internal/domain"
	"connecta/pkg/xerrors"
)

type RelationshipRepo struct {
	db *pgxpool.Pool
}

func NewRelationshipRepo(db *pgxpool.Pool) *RelationshipRepo {
	return &RelationshipRepo{db: db}
}

func (r *RelationshipRepo) Relation(ctx context.Context, requesterID, targetID string) (*domain.Relation, error) {
	rel := &domain.Relation{RequesterID: requesterID, TargetID: targetID}

	var requesterExists bool
	err := r.db.QueryRow(ctx, `
		SELECT t.is_private,
			EXISTS(SELECT 1 FROM account_followers f
				WHERE f.account_id=$2 AND f.follower_id=$1),
			EXISTS(SELECT 1 FROM follow_requests q
				WHERE q.account_id=$2 AND q.requester_id=$1),
			EXISTS(SELECT 1 FROM blocked_accounts b
				WHERE b.account_id=$2 AND b.blocked_id=$1),
			EXISTS(SELECT 1 FROM blocked_accounts b
				WHERE b.account_id=$1 AND b.blocked_id=$2),
			EXISTS(SELECT 1 FROM accounts r WHERE r.id=$1)
		FROM accounts t WHERE t.id=$2
	`, requesterID, targetID).Scan(
		&rel.TargetIsPrivate, &rel.Following, &rel.Pending,
		&rel.BlockedByTarget, &rel.BlockedByRequester, &requesterExists,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrAccountNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	if !requesterExists {
		return nil, xerrors.ErrAccountNotFound
	}
	return rel, nil
}

// EstablishFollow writes both halves of the mirrored edge inside one
// transaction so the follower/following invariant cannot diverge.
func (r *RelationshipRepo) EstablishFollow(ctx context.Context, followerID, targetID string, clearRequest bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO account_followers (account_id, follower_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, targetID, followerID); err != nil {
		return storeErr(err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO account_following (account_id, follows_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, followerID, targetID); err != nil {
		return storeErr(err)
	}
	if clearRequest {
		if _, err := tx.Exec(ctx, `
			DELETE FROM follow_requests WHERE account_id=$1 AND requester_id=$2
		`, targetID, followerID); err != nil {
			return storeErr(err)
		}
	}
	return storeErr(tx.Commit(ctx))
}

func (r *RelationshipRepo) RemoveFollow(ctx context.Context, followerID, targetID string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, storeErr(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		DELETE FROM account_followers WHERE account_id=$1 AND follower_id=$2
	`, targetID, followerID)
	if err != nil {
		return false, storeErr(err)
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM account_following WHERE account_id=$1 AND follows_id=$2
	`, followerID, targetID); err != nil {
		return false, storeErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, storeErr(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RelationshipRepo) AddFollowRequest(ctx context.Context, targetID, requesterID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO follow_requests (account_id, requester_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, targetID, requesterID)
	return storeErr(err)
}

func (r *RelationshipRepo) RemoveFollowRequest(ctx context.Context, targetID, requesterID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM follow_requests WHERE account_id=$1 AND requester_id=$2
	`, targetID, requesterID)
	if err != nil {
		return false, storeErr(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RelationshipRepo) ListFollowRequests(ctx context.Context, targetID string) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+prefixedAccountColumns+`
		FROM follow_requests q
		JOIN accounts a ON a.id = q.requester_id
		WHERE q.account_id = $1
		ORDER BY q.created_at DESC
	`, targetID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (r *RelationshipRepo) Block(ctx context.Context, blockerID, blockedID string, severEdges bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO blocked_accounts (account_id, blocked_id) VALUES ($1, $2)
	`, blockerID, blockedID); err != nil {
		if xerrors.ParsePGErrorCode(err) == xerrors.PGUniqueViolation {
			return xerrors.ErrAlreadyBlocked
		}
		return storeErr(err)
	}

	if severEdges {
		// drop edges in both directions, and any pending request
		for _, q := range []string{
			`DELETE FROM account_followers WHERE (account_id=$1 AND follower_id=$2) OR (account_id=$2 AND follower_id=$1)`,
			`DELETE FROM account_following WHERE (account_id=$1 AND follows_id=$2) OR (account_id=$2 AND follows_id=$1)`,
			`DELETE FROM follow_requests WHERE (account_id=$1 AND requester_id=$2) OR (account_id=$2 AND requester_id=$1)`,
		} {
			if _, err := tx.Exec(ctx, q, blockerID, blockedID); err != nil {
				return storeErr(err)
			}
		}
	}
	return storeErr(tx.Commit(ctx))
}

func (r *RelationshipRepo) Unblock(ctx context.Context, blockerID, blockedID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM blocked_accounts WHERE account_id=$1 AND blocked_id=$2
	`, blockerID, blockedID)
	if err != nil {
		return false, storeErr(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RelationshipRepo) Report(ctx context.Context, targetID, reporterID string, threshold int) (int, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, false, storeErr(err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO account_reports (account_id, reporter_id) VALUES ($1, $2)
	`, targetID, reporterID); err != nil {
		if xerrors.ParsePGErrorCode(err) == xerrors.PGUniqueViolation {
			return 0, false, xerrors.ErrAlreadyReported
		}
		return 0, false, storeErr(err)
	}

	var count int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM account_reports WHERE account_id=$1
	`, targetID).Scan(&count); err != nil {
		return 0, false, storeErr(err)
	}

	deleted := false
	if count >= threshold {
		// threshold crossed: the account goes, edges cascade with it
		if _, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, targetID); err != nil {
			return 0, false, storeErr(err)
		}
		deleted = true
	} else {
		if _, err := tx.Exec(ctx, `
			UPDATE accounts SET is_reported=TRUE, updated_at=NOW() WHERE id=$1
		`, targetID); err != nil {
			return 0, false, storeErr(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, storeErr(err)
	}
	return count, deleted, nil
}

const prefixedAccountColumns = `a.id, a.display_id, a.name, a.email, a.phone,
	a.password_hash, a.role, a.profile_for, a.gender, a.dob, a.marital_status,
	a.religion, a.district, a.state, a.location, a.profession, a.about, a.image,
	a.is_active, a.is_blocked, a.is_reported, a.is_private, a.created_at, a.updated_at`

func (r *RelationshipRepo) Followers(ctx context.Context, accountID string) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+prefixedAccountColumns+`
		FROM account_followers f
		JOIN accounts a ON a.id = f.follower_id
		WHERE f.account_id = $1
		ORDER BY f.created_at DESC
	`, accountID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (r *RelationshipRepo) Following(ctx context.Context, accountID string) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+prefixedAccountColumns+`
		FROM account_following g
		JOIN accounts a ON a.id = g.follows_id
		WHERE g.account_id = $1
		ORDER BY g.created_at DESC
	`, accountID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// VisibleAccounts lists active accounts the viewer has not blocked and that
// have not blocked the viewer, excluding the viewer itself.
func (r *RelationshipRepo) VisibleAccounts(ctx context.Context, viewerID string) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+prefixedAccountColumns+`
		FROM accounts a
		WHERE a.id <> $1
		  AND a.is_active
		  AND NOT EXISTS(SELECT 1 FROM blocked_accounts b
			WHERE b.account_id=$1 AND b.blocked_id=a.id)
		  AND NOT EXISTS(SELECT 1 FROM blocked_accounts b
			WHERE b.account_id=a.id AND b.blocked_id=$1)
		ORDER BY a.display_id
	`, viewerID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (r *RelationshipRepo) ReportedAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+prefixedAccountColumns+`
		FROM accounts a
		WHERE a.is_reported
		ORDER BY a.display_id
	`)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}
