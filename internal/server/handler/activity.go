package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arisanhub/arisand/internal/domain"
)

// ActivityService is the slice of the history aggregator the HTTP layer uses.
type ActivityService interface {
	GroupHistory(ctx context.Context, address string) []domain.EventRecord
	GroupWinners(ctx context.Context, address string) ([]domain.WinnerRecord, error)
	RecentActivity(ctx context.Context, limit int) ([]domain.ActivityEntry, error)
	Stats(ctx context.Context) (domain.AdminStats, error)
}

// ActivityHandler serves event history, winner logs, and the global feed.
type ActivityHandler struct {
	svc    ActivityService
	logger *slog.Logger
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(svc ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{svc: svc, logger: logHandler(logger, "activity")}
}

// eventResponse is the JSON shape of one decoded on-chain event.
type eventResponse struct {
	Type        string `json:"type"`
	Participant string `json:"participant"`
	Amount      string `json:"amount"`
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	Timestamp   int64  `json:"timestamp,omitempty"`
}

// winnerResponse is the JSON shape of one recorded draw.
type winnerResponse struct {
	GroupAddress  string    `json:"group_address"`
	WinnerAddress string    `json:"winner_address"`
	CycleNumber   int       `json:"cycle_number"`
	PrizeAmount   string    `json:"prize_amount"`
	TxHash        string    `json:"tx_hash"`
	CreatedAt     time.Time `json:"created_at"`
}

// activityResponse is one row of the global winners feed.
type activityResponse struct {
	GroupName   string    `json:"group_name"`
	GroupAddr   string    `json:"group_address"`
	Winner      string    `json:"winner"`
	PrizeAmount string    `json:"prize_amount"`
	TxHash      string    `json:"tx_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// History returns a group's merged event feed, newest block first.
// GET /api/groups/{address}/history
func (h *ActivityHandler) History(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")
	if !common.IsHexAddress(address) {
		writeError(w, http.StatusBadRequest, "invalid group address")
		return
	}

	events := h.svc.GroupHistory(r.Context(), address)
	out := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, eventResponse{
			Type:        string(ev.Type),
			Participant: ev.Participant,
			Amount:      ev.Amount,
			BlockNumber: ev.BlockNumber,
			TxHash:      ev.TxHash,
			Timestamp:   ev.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": out,
		"count":  len(out),
	})
}

// Winners returns a group's winner log in cycle order.
// GET /api/groups/{address}/winners
func (h *ActivityHandler) Winners(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")
	if !common.IsHexAddress(address) {
		writeError(w, http.StatusBadRequest, "invalid group address")
		return
	}

	winners, err := h.svc.GroupWinners(r.Context(), address)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list winners failed",
			slog.String("address", address),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load winners")
		return
	}

	out := make([]winnerResponse, 0, len(winners))
	for _, rec := range winners {
		out = append(out, winnerResponse{
			GroupAddress:  rec.GroupAddress,
			WinnerAddress: rec.WinnerAddress,
			CycleNumber:   rec.CycleNumber,
			PrizeAmount:   rec.PrizeAmount,
			TxHash:        rec.TxHash,
			CreatedAt:     rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"winners": out,
		"count":   len(out),
	})
}

// Recent returns the latest draws across all groups.
// GET /api/activity
func (h *ActivityHandler) Recent(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	entries, err := h.svc.RecentActivity(r.Context(), opts.Limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "recent activity failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load activity")
		return
	}

	out := make([]activityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityResponse{
			GroupName:   e.GroupName,
			GroupAddr:   e.GroupAddr,
			Winner:      e.Winner,
			PrizeAmount: e.PrizeAmount,
			TxHash:      e.TxHash,
			CreatedAt:   e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"activity": out,
		"count":    len(out),
	})
}

// Stats returns global counters for the admin dashboard.
// GET /api/stats
func (h *ActivityHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "stats failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_users":   stats.TotalUsers,
		"total_winners": stats.TotalWinners,
	})
}
