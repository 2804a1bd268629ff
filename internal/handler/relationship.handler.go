package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"connecta/internal/middleware"
	"connecta/internal/service/relationship"
	"connecta/pkg/response"
	"connecta/pkg/xerrors"
)

type RelationshipHandler struct {
	rel    *relationship.Service
	logger *zap.Logger
}

func NewRelationshipHandler(rel *relationship.Service, logger *zap.Logger) *RelationshipHandler {
	return &RelationshipHandler{rel: rel, logger: logger}
}

// requester resolves the acting account from the bearer token.
func requester(r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return "", false
	}
	return claims.AccountID, true
}

func (h *RelationshipHandler) Follow(w http.ResponseWriter, r *http.Request) {
	me, ok := requester(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no token provided")
		return
	}

	state, err := h.rel.RequestFollow(r.Context(), me, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"state": state})
}

func (h *RelationshipHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	me, ok := requester(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no token provided")
		return
	}

	if err := h.rel.Unfollow(r.Context(), me, chi.URLParam(r, "id")); err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.Message(w, http.StatusOK, "Unfollowed successfully")
}

// ConfirmFollow approves {id}'s pending request to the authenticated
// account.
func (h *RelationshipHandler) ConfirmFollow(w http.ResponseWriter, r *http.Request) {
	me, ok := requester(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no token provided")
		return
	}

	if err := h.rel.ApproveFollowRequest(r.Context(), me, chi.URLParam(r, "id")); err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.Message(w, http.StatusOK, "Follow request approved")
}

// RemoveRequest drops {id}'s pending request to the authenticated account.
func (h *RelationshipHandler) RemoveRequest(w http.ResponseWriter, r *http.Request) {
	me, ok := requester(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no token provided")
		return
	}

	if err := h.rel.CancelFollowRequest(r.Context(), me, chi.URLParam(r, "id")); err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.Message(w, http.StatusOK, "Follow request removed")
}

func (h *RelationshipHandler) FollowRequests(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.rel.FollowRequests(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, accounts)
}

func (h *RelationshipHandler) Followers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.rel.Followers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, accounts)
}

func (h *RelationshipHandler) Following(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.rel.Following(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, accounts)
}

type targetRequest struct {
	TargetID string `json:"targetId"`
}

func (h *RelationshipHandler) Block(w http.ResponseWriter, r *http.Request) {
	me, ok := requester(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no token provided")
		return
	}

	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetID == "" {
		writeErr(w, h.logger, xerrors.ErrInvalidRequest)
		return
	}

	if err := h.rel.Block(r.Context(), me, req.TargetID); err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.Message(w, http.StatusOK, "Blocked successfully")
}

func (h *RelationshipHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	me, ok := requester(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no token provided")
		return
	}

	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetID == "" {
		writeErr(w, h.logger, xerrors.ErrInvalidRequest)
		return
	}

	if err := h.rel.Unblock(r.Context(), me, req.TargetID); err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.Message(w, http.StatusOK, "Unblocked successfully")
}

func (h *RelationshipHandler) Report(w http.ResponseWriter, r *http.Request) {
	me, ok := requester(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no token provided")
		return
	}

	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetID == "" {
		writeErr(w, h.logger, xerrors.ErrInvalidRequest)
		return
	}

	result, err := h.rel.Report(r.Context(), me, req.TargetID)
	if err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

func (h *RelationshipHandler) Visible(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.rel.VisibleAccounts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, accounts)
}

func (h *RelationshipHandler) Reported(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.rel.ReportedAccounts(r.Context())
	if err != nil {
		writeErr(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, accounts)
}
