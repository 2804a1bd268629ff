package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"connecta/pkg/response"
	"connecta/pkg/xerrors"
)

// httpStatus maps domain failures to client-visible statuses. Anything not
// in the taxonomy is an internal fault and must not leak its message.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, xerrors.ErrAccountNotFound),
		errors.Is(err, xerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, xerrors.ErrDuplicateAccount),
		errors.Is(err, xerrors.ErrAlreadyFollowing),
		errors.Is(err, xerrors.ErrAlreadyPending),
		errors.Is(err, xerrors.ErrAlreadyBlocked),
		errors.Is(err, xerrors.ErrAlreadyReported),
		errors.Is(err, xerrors.ErrNotPrivate):
		return http.StatusConflict
	case errors.Is(err, xerrors.ErrMissingFields),
		errors.Is(err, xerrors.ErrInvalidPhone),
		errors.Is(err, xerrors.ErrInvalidRequest),
		errors.Is(err, xerrors.ErrSelfReference),
		errors.Is(err, xerrors.ErrNoRecipient),
		errors.Is(err, xerrors.ErrOTPNotFound),
		errors.Is(err, xerrors.ErrInvalidOTP):
		return http.StatusBadRequest
	case errors.Is(err, xerrors.ErrInvalidCredentials),
		errors.Is(err, xerrors.ErrInvalidOldPassword),
		errors.Is(err, xerrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, xerrors.ErrBlocked):
		return http.StatusForbidden
	case errors.Is(err, xerrors.ErrTooManyOTPRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, xerrors.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		response.Error(w, status, "internal server error")
		return
	}
	response.Error(w, status, err.Error())
}
