package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"connecta/internal/domain"
	"connecta/pkg/xerrors"
)

const accountColumns = `id, display_id, name, email, phone, password_hash, role,
	profile_for, gender, dob, marital_status, religion, district, state,
	location, profession, about, image,
	is_active, is_blocked, is_reported, is_private, created_at, updated_at`

type AccountRepo struct {
	db *pgxpool.Pool
}

func NewAccountRepo(db *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{db: db}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var profileFor, gender, maritalStatus, religion, district, state,
		location, profession, about, image *string
	var dob *time.Time

	err := row.Scan(
		&a.ID, &a.DisplayID, &a.Name, &a.Email, &a.Phone, &a.PasswordHash, &a.Role,
		&profileFor, &gender, &dob, &maritalStatus, &religion, &district, &state,
		&location, &profession, &about, &image,
		&a.IsActive, &a.IsBlocked, &a.IsReported, &a.IsPrivate, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.ProfileFor = deref(profileFor)
	a.Gender = deref(gender)
	a.DOB = dob
	a.MaritalStatus = deref(maritalStatus)
	a.Religion = deref(religion)
	a.District = deref(district)
	a.State = deref(state)
	a.Location = deref(location)
	a.Profession = deref(profession)
	a.About = deref(about)
	a.Image = deref(image)
	return &a, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (id, display_id, name, email, phone, password_hash, role,
			profile_for, gender, dob, marital_status, religion, district, state,
			location, profession, about, image, is_private, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`, a.ID, a.DisplayID, a.Name, a.Email, a.Phone, a.PasswordHash, a.Role,
		nullable(a.ProfileFor), nullable(a.Gender), a.DOB, nullable(a.MaritalStatus),
		nullable(a.Religion), nullable(a.District), nullable(a.State),
		nullable(a.Location), nullable(a.Profession), nullable(a.About),
		nullable(a.Image), a.IsPrivate, a.CreatedAt, a.UpdatedAt)
	if err != nil && xerrors.ParsePGErrorCode(err) == xerrors.PGUniqueViolation {
		return xerrors.ErrDuplicateAccount
	}
	return storeErr(err)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrAccountNotFound
	}
	return a, storeErr(err)
}

// GetByEmailOrPhone matches either identifier; phone must already be
// canonical.
func (r *AccountRepo) GetByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE ($1 <> '' AND email=$1) OR ($2 <> '' AND phone=$2)
		LIMIT 1
	`, email, phone)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrAccountNotFound
	}
	return a, storeErr(err)
}

func (r *AccountRepo) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM accounts
			WHERE ($1 <> '' AND email=$1) OR ($2 <> '' AND phone=$2)
		)
	`, email, phone).Scan(&exists)
	return exists, storeErr(err)
}

func (r *AccountRepo) List(ctx context.Context, role string) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE ($1 = '' OR role = $1)
		ORDER BY display_id
	`, role)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func collectAccounts(rows pgx.Rows) ([]domain.Account, error) {
	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, storeErr(rows.Err())
}

func (r *AccountRepo) Update(ctx context.Context, id string, upd domain.AccountUpdate) (*domain.Account, error) {
	set := []string{"updated_at = NOW()"}
	args := []interface{}{id}

	add := func(col string, v interface{}) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.ProfileFor != nil {
		add("profile_for", *upd.ProfileFor)
	}
	if upd.Gender != nil {
		add("gender", *upd.Gender)
	}
	if upd.MaritalStatus != nil {
		add("marital_status", *upd.MaritalStatus)
	}
	if upd.Religion != nil {
		add("religion", *upd.Religion)
	}
	if upd.District != nil {
		add("district", *upd.District)
	}
	if upd.State != nil {
		add("state", *upd.State)
	}
	if upd.Location != nil {
		add("location", *upd.Location)
	}
	if upd.Profession != nil {
		add("profession", *upd.Profession)
	}
	if upd.About != nil {
		add("about", *upd.About)
	}
	if upd.Image != nil {
		add("image", *upd.Image)
	}
	if upd.IsPrivate != nil {
		add("is_private", *upd.IsPrivate)
	}

	query := `UPDATE accounts SET ` + strings.Join(set, ", ") +
		` WHERE id = $1 RETURNING ` + accountColumns

	a, err := scanAccount(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrAccountNotFound
	}
	if err != nil && xerrors.ParsePGErrorCode(err) == xerrors.PGUniqueViolation {
		return nil, xerrors.ErrDuplicateAccount
	}
	return a, storeErr(err)
}

func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		return storeErr(err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET password_hash=$2, updated_at=NOW() WHERE id=$1`, id, hash)
	if err != nil {
		return storeErr(err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.setFlag(ctx, id, "is_active", active)
}

func (r *AccountRepo) SetBlockedGlobally(ctx context.Context, id string, blocked bool) error {
	return r.setFlag(ctx, id, "is_blocked", blocked)
}

func (r *AccountRepo) setFlag(ctx context.Context, id, column string, v bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET `+column+`=$2, updated_at=NOW() WHERE id=$1`, id, v)
	if err != nil {
		return storeErr(err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepo) MaxDisplaySeq(ctx context.Context) (int, error) {
	var max int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM display_id_allocations`).Scan(&max)
	return max, storeErr(err)
}

// AllocateDisplaySeq claims a sequence number. The allocation log is
// append-only, so numbers stay monotonic and are never handed out twice
// even after the owning account is deleted.
func (r *AccountRepo) AllocateDisplaySeq(ctx context.Context, seq int) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO display_id_allocations (seq) VALUES ($1)`, seq)
	if err != nil && xerrors.ParsePGErrorCode(err) == xerrors.PGUniqueViolation {
		return ErrSeqTaken
	}
	return storeErr(err)
}
