package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"connecta/internal/domain"
	"connecta/internal/media"
	"connecta/internal/service/account"
	"connecta/internal/service/auth"
	"connecta/internal/storage"
	"connecta/pkg/response"
	"connecta/pkg/xerrors"
)

const (
	maxUploadBytes = 10 << 20
	imageMaxDim    = 800
	imageQuality   = 80
)

type AuthHandler struct {
	accounts *account.Service
	auth     *auth.Service
	store    storage.ObjectStore
	logger   *zap.Logger
}

func NewAuthHandler(accounts *account.Service, authSvc *auth.Service, store storage.ObjectStore, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, auth: authSvc, store: store, logger: logger}
}

func (h *AuthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.Message(w, http.StatusOK, "ok")
}

// CreateUser accepts multipart (with optional image) or plain JSON.
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, domain.RoleUser)
}

func (h *AuthHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, domain.RoleAdmin)
}

func (h *AuthHandler) create(w http.ResponseWriter, r *http.Request, role string) {
	in, err := h.decodeNewAccount(r)
	if err != nil {
		writeErr(w, h.logger, err)
		return
	}
	in.Role = role

	a, err := h.accounts.Create(r.Context(), *in)
	if err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusCreated, a)
}

func (h *AuthHandler) decodeNewAccount(r *http.Request) (*domain.NewAccountInput, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, xerrors.ErrInvalidRequest
		}

		in := &domain.NewAccountInput{
			Name:          r.FormValue("name"),
			Email:         r.FormValue("email"),
			Phone:         r.FormValue("phone"),
			Password:      r.FormValue("password"),
			ProfileFor:    r.FormValue("profileFor"),
			Gender:        r.FormValue("gender"),
			MaritalStatus: r.FormValue("maritalStatus"),
			Religion:      r.FormValue("religion"),
			District:      r.FormValue("district"),
			State:         r.FormValue("state"),
			Location:      r.FormValue("location"),
			Profession:    r.FormValue("profession"),
			About:         r.FormValue("about"),
			IsPrivate:     r.FormValue("isPrivate") == "true",
		}
		if dob := r.FormValue("dob"); dob != "" {
			if t, err := time.Parse("2006-01-02", dob); err == nil {
				in.DOB = &t
			}
		}

		file, _, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			small, err := media.Downscale(file, imageMaxDim, imageMaxDim, imageQuality)
			if err != nil {
				return nil, xerrors.ErrInvalidRequest
			}
			// uploads are re-encoded as jpeg regardless of original format
			ref, err := h.store.Save(r.Context(), ".jpg", small)
			if err != nil {
				return nil, err
			}
			in.Image = ref
		}
		return in, nil
	}

	var body struct {
		domain.NewAccountInput
		DOB string `json:"dob"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, xerrors.ErrInvalidRequest
	}
	in := body.NewAccountInput
	if body.DOB != "" {
		if t, err := time.Parse("2006-01-02", body.DOB); err == nil {
			in.DOB = &t
		}
	}
	return &in, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, h.logger, xerrors.ErrInvalidRequest)
		return
	}

	a, token, err := h.auth.Login(r.Context(), req.Email, req.Phone, req.Password)
	if err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"user":  a,
		"token": token,
	})
}

type otpRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, h.logger, xerrors.ErrInvalidRequest)
		return
	}
	if err := h.auth.SendOTP(r.Context(), req.Email, req.Phone); err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.Message(w, http.StatusOK, "OTP sent successfully")
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, h.logger, xerrors.ErrInvalidRequest)
		return
	}
	if err := h.auth.VerifyOTP(r.Context(), req.Email, req.Phone, req.OTP); err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.Message(w, http.StatusOK, "OTP verified successfully")
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword verifies the pending OTP and rehashes in one request.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, h.logger, xerrors.ErrInvalidRequest)
		return
	}
	if err := h.auth.VerifyOTP(r.Context(), req.Email, req.Phone, req.OTP); err != nil {
		writeErr(w, h.logger, err)
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.Email, req.Phone, req.NewPassword); err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.Message(w, http.StatusOK, "Password reset successfully")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, h.logger, xerrors.ErrInvalidRequest)
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), chi.URLParam(r, "id"), req.OldPassword, req.NewPassword); err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.Message(w, http.StatusOK, "Password changed successfully")
}

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.List(r.Context(), domain.RoleUser)
	if err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, users)
}

func (h *AuthHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.accounts.List(r.Context(), domain.RoleAdmin)
	if err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, admins)
}

func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	a, err := h.accounts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, a)
}

func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var upd domain.AccountUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeErr(w, h.logger, xerrors.ErrInvalidRequest)
		return
	}
	a, err := h.accounts.Update(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, a)
}

func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.Message(w, http.StatusOK, "Account deleted successfully")
}

func (h *AuthHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, h.logger, xerrors.ErrInvalidRequest)
		return
	}
	if err := h.accounts.SetActive(r.Context(), chi.URLParam(r, "id"), req.Active); err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.Message(w, http.StatusOK, "Account status updated")
}

func (h *AuthHandler) BlockGlobally(w http.ResponseWriter, r *http.Request) {
	h.setGlobalBlock(w, r, true, "Account blocked successfully")
}

func (h *AuthHandler) UnblockGlobally(w http.ResponseWriter, r *http.Request) {
	h.setGlobalBlock(w, r, false, "Account unblocked successfully")
}

func (h *AuthHandler) setGlobalBlock(w http.ResponseWriter, r *http.Request, blocked bool, msg string) {
	if err := h.accounts.SetBlockedGlobally(r.Context(), chi.URLParam(r, "id"), blocked); err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.Message(w, http.StatusOK, msg)
}
