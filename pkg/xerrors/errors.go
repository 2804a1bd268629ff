package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrTransient      = errors.New("temporary store failure, retry later")
)

// Registration / Login
var (
	ErrMissingFields      = errors.New("name, email, phone, and password are required")
	ErrInvalidPhone       = errors.New("phone number must reduce to exactly 10 digits")
	ErrDuplicateAccount   = errors.New("email or phone already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOldPassword = errors.New("invalid old password")
)

// OTP
var (
	ErrOTPNotFound        = errors.New("otp expired or invalid")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrNoRecipient        = errors.New("account has no email or phone to deliver otp")
	ErrTooManyOTPRequests = errors.New("too many otp requests")
)

// Relationship engine
var (
	ErrSelfReference    = errors.New("operation cannot target the same account")
	ErrBlocked          = errors.New("account is blocked by the target")
	ErrAlreadyFollowing = errors.New("already following")
	ErrAlreadyPending   = errors.New("follow request already pending")
	ErrNotPrivate       = errors.New("account is not private")
	ErrAlreadyBlocked   = errors.New("already blocked")
	ErrAlreadyReported  = errors.New("already reported by this account")
)

const (
	PGUniqueViolation = "23505"
)

func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return "unknown"
}

// ConstraintName returns the violated constraint for unique violations,
// "" otherwise. Repositories use it to tell email/phone/display_id
// collisions apart on a single insert.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
