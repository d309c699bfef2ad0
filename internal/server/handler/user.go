package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arisanhub/arisand/internal/domain"
)

// UserService is the slice of the profile service the HTTP layer uses.
type UserService interface {
	Get(ctx context.Context, wallet string) (domain.UserProfile, error)
	Upsert(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error)
}

// UserHandler serves wallet profile endpoints.
type UserHandler struct {
	svc    UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(svc UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logHandler(logger, "user")}
}

// userResponse is the JSON shape of one wallet profile.
type userResponse struct {
	WalletAddress   string    `json:"wallet_address"`
	Username        string    `json:"username"`
	AvatarURL       string    `json:"avatar_url"`
	ReputationScore int       `json:"reputation_score"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toUserResponse(p domain.UserProfile) userResponse {
	return userResponse{
		WalletAddress:   p.WalletAddress,
		Username:        p.Username,
		AvatarURL:       p.AvatarURL,
		ReputationScore: p.ReputationScore,
		UpdatedAt:       p.UpdatedAt,
	}
}

// GetUser returns the profile for a wallet.
// GET /api/users/{wallet}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	wallet := pathParam(r, "wallet")
	if !common.IsHexAddress(wallet) {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	profile, err := h.svc.Get(r.Context(), wallet)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get user failed",
			slog.String("wallet", wallet),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(profile))
}

// upsertUserRequest is the JSON body for profile creation and updates.
type upsertUserRequest struct {
	WalletAddress string `json:"wallet_address"`
	Username      string `json:"username"`
	AvatarURL     string `json:"avatar_url"`
}

// UpsertUser creates or updates a wallet profile. Missing username and avatar
// fields are filled with wallet-derived defaults.
// POST /api/users
func (h *UserHandler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	var req upsertUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !common.IsHexAddress(req.WalletAddress) {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	profile, err := h.svc.Upsert(r.Context(), domain.UserProfile{
		WalletAddress: req.WalletAddress,
		Username:      req.Username,
		AvatarURL:     req.AvatarURL,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "upsert user failed",
			slog.String("wallet", req.WalletAddress),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to save user")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(profile))
}
