package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arisanhub/arisand/internal/chain"
	"github.com/arisanhub/arisand/internal/domain"
	"github.com/arisanhub/arisand/internal/service"
)

// GroupService is the slice of the group service the HTTP layer depends on.
// Declared here so handler tests can substitute a fake.
type GroupService interface {
	List(ctx context.Context) []domain.Group
	Get(ctx context.Context, address string) (domain.Group, error)
	Create(ctx context.Context, p service.CreateGroupParams) (chain.CreateResult, error)
	Join(ctx context.Context, address string) (chain.JoinResult, error)
	PickWinner(ctx context.Context, address string) (chain.WinnerResult, error)
	ClaimPrize(ctx context.Context, address string) (common.Hash, error)
	PendingPrize(ctx context.Context, address string) (string, error)
	Balance(ctx context.Context, wallet string) string
	WalletGroups(ctx context.Context, wallet string) ([]string, error)
}

// GroupHandler serves the group endpoints: listing, detail, and the four
// transactional operations (create, join, draw, claim).
type GroupHandler struct {
	svc    GroupService
	logger *slog.Logger
}

// NewGroupHandler creates a GroupHandler.
func NewGroupHandler(svc GroupService, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{svc: svc, logger: logHandler(logger, "group")}
}

// participantResponse is the JSON shape of one group member.
type participantResponse struct {
	WalletAddress string `json:"wallet_address"`
	HasPaid       bool   `json:"has_paid"`
	HasWon        bool   `json:"has_won"`
	JoinedAt      int64  `json:"joined_at"`
}

// groupResponse is the JSON shape of one merged group view.
type groupResponse struct {
	Address         string                `json:"address"`
	Name            string                `json:"name"`
	Description     string                `json:"description"`
	EntryFee        float64               `json:"entry_fee"`
	Currency        string                `json:"currency"`
	CyclePeriod     string                `json:"cycle_period"`
	MaxParticipants int                   `json:"max_participants"`
	CurrentCycle    int                   `json:"current_cycle"`
	Status          string                `json:"status"`
	PoolBalance     float64               `json:"pool_balance"`
	Owner           string                `json:"owner"`
	Participants    []participantResponse `json:"participants"`
	NotIndexed      bool                  `json:"not_indexed,omitempty"`
}

func toGroupResponse(g domain.Group) groupResponse {
	parts := make([]participantResponse, 0, len(g.Participants))
	for _, p := range g.Participants {
		parts = append(parts, participantResponse{
			WalletAddress: p.WalletAddress,
			HasPaid:       p.HasPaid,
			HasWon:        p.HasWon,
			JoinedAt:      p.JoinedAt,
		})
	}
	return groupResponse{
		Address:         g.Address,
		Name:            g.Name,
		Description:     g.Description,
		EntryFee:        g.EntryFee,
		Currency:        g.Currency,
		CyclePeriod:     g.CyclePeriod,
		MaxParticipants: g.MaxParticipants,
		CurrentCycle:    g.CurrentCycle,
		Status:          string(g.Status),
		PoolBalance:     g.PoolBalance,
		Owner:           g.Owner,
		Participants:    parts,
		NotIndexed:      g.NotIndexed,
	}
}

// ListGroups returns every known group, merged from chain and mirror.
// GET /api/groups
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups := h.svc.List(r.Context())

	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"groups": out,
		"count":  len(out),
	})
}

// GetGroup returns one group's merged view.
// GET /api/groups/{address}
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")

	group, err := h.svc.Get(r.Context(), address)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get group failed",
			slog.String("address", address),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load group")
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

// createGroupRequest is the JSON body for group creation.
type createGroupRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	EntryFee        string `json:"entry_fee"`
	MaxParticipants int    `json:"max_participants"`
	Duration        string `json:"duration"`
}

// CreateGroup deploys a new group contract and mirrors it off-chain.
// POST /api/groups
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	res, err := h.svc.Create(r.Context(), service.CreateGroupParams{
		Name:            req.Name,
		Description:     req.Description,
		EntryFee:        req.EntryFee,
		MaxParticipants: req.MaxParticipants,
		Duration:        req.Duration,
	})
	if err != nil {
		h.writeTxError(w, r, "create group", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"group_address": res.GroupAddress.Hex(),
		"tx_hash":       res.TxHash.Hex(),
	})
}

// JoinGroup enrolls the service wallet in a group, approving the entry fee
// first when the current allowance does not cover it.
// POST /api/groups/{address}/join
func (h *GroupHandler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")
	if !common.IsHexAddress(address) {
		writeError(w, http.StatusBadRequest, "invalid group address")
		return
	}

	res, err := h.svc.Join(r.Context(), address)
	if err != nil {
		h.writeTxError(w, r, "join group", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tx_hash":  res.TxHash.Hex(),
		"approved": res.Approved,
	})
}

// DrawWinner triggers the on-chain winner draw for the current cycle.
// POST /api/groups/{address}/draw
func (h *GroupHandler) DrawWinner(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")
	if !common.IsHexAddress(address) {
		writeError(w, http.StatusBadRequest, "invalid group address")
		return
	}

	res, err := h.svc.PickWinner(r.Context(), address)
	if err != nil && !errors.Is(err, domain.ErrDecode) {
		h.writeTxError(w, r, "draw winner", err)
		return
	}

	body := map[string]any{"tx_hash": res.TxHash.Hex()}
	if err == nil {
		body["winner"] = res.Winner.Hex()
		body["amount"] = res.Amount.String()
		body["timestamp"] = res.Timestamp
	}
	writeJSON(w, http.StatusOK, body)
}

// ClaimPrize withdraws the service wallet's pending prize from a group.
// POST /api/groups/{address}/claim
func (h *GroupHandler) ClaimPrize(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")
	if !common.IsHexAddress(address) {
		writeError(w, http.StatusBadRequest, "invalid group address")
		return
	}

	txHash, err := h.svc.ClaimPrize(r.Context(), address)
	if err != nil {
		h.writeTxError(w, r, "claim prize", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tx_hash": txHash.Hex()})
}

// PendingPrize reports the service wallet's claimable amount in a group.
// GET /api/groups/{address}/prize
func (h *GroupHandler) PendingPrize(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")
	if !common.IsHexAddress(address) {
		writeError(w, http.StatusBadRequest, "invalid group address")
		return
	}

	amount, err := h.svc.PendingPrize(r.Context(), address)
	if err != nil {
		h.writeTxError(w, r, "pending prize", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"amount": amount})
}

// Balance reports a wallet's token balance as a display string.
// GET /api/balance/{wallet}
func (h *GroupHandler) Balance(w http.ResponseWriter, r *http.Request) {
	wallet := pathParam(r, "wallet")
	writeJSON(w, http.StatusOK, map[string]any{
		"wallet":  wallet,
		"balance": h.svc.Balance(r.Context(), wallet),
	})
}

// WalletGroups lists the group addresses a wallet has joined.
// GET /api/users/{wallet}/groups
func (h *GroupHandler) WalletGroups(w http.ResponseWriter, r *http.Request) {
	wallet := pathParam(r, "wallet")
	if !common.IsHexAddress(wallet) {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	addrs, err := h.svc.WalletGroups(r.Context(), wallet)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "wallet groups failed",
			slog.String("wallet", wallet),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load wallet groups")
		return
	}
	if addrs == nil {
		addrs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"groups": addrs,
		"count":  len(addrs),
	})
}

// writeTxError maps domain errors from the write path onto HTTP statuses.
func (h *GroupHandler) writeTxError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNoSigner):
		writeError(w, http.StatusServiceUnavailable, "service wallet is not configured")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "group not found")
	case errors.Is(err, domain.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid amount")
	case errors.Is(err, domain.ErrGroupFull):
		writeError(w, http.StatusConflict, "group is full")
	case errors.Is(err, domain.ErrAlreadyJoined):
		writeError(w, http.StatusConflict, "wallet already joined this group")
	case errors.Is(err, domain.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, "insufficient token balance")
	case errors.Is(err, domain.ErrTxReverted):
		writeError(w, http.StatusUnprocessableEntity, "transaction reverted")
	case errors.Is(err, domain.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "transaction confirmation timed out")
	default:
		h.logger.ErrorContext(r.Context(), op+" failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}
