package chain

import (
	"context"
	"log/slog"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/arisanhub/arisand/internal/domain"
)

// logFilterer is the log-query slice of the RPC backend. Satisfied by
// *ethclient.Client and by test fakes.
type logFilterer interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// History aggregates a group's on-chain activity from event logs: joins and
// draws emitted by the group itself, plus token transfers out of the group,
// which represent prize payouts.
type History struct {
	backend logFilterer
	token   common.Address
	logger  *slog.Logger
}

// NewHistory builds a history aggregator on top of an established client.
func NewHistory(c *Client, logger *slog.Logger) *History {
	return &History{backend: c.ec, token: c.token, logger: logger}
}

// GroupHistory returns the merged event feed for one group, newest block
// first. Each of the three underlying queries degrades to an empty stream on
// failure so a flaky RPC never blanks the whole feed.
func (h *History) GroupHistory(ctx context.Context, group common.Address) []domain.EventRecord {
	var records []domain.EventRecord

	records = append(records, h.query(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{group},
		Topics:    [][]common.Hash{{arisanABI.Events["Joined"].ID}},
	})...)
	records = append(records, h.query(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{group},
		Topics:    [][]common.Hash{{arisanABI.Events["WinnerPicked"].ID}},
	})...)
	// Transfers FROM the group contract are prize payouts.
	records = append(records, h.query(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{h.token},
		Topics: [][]common.Hash{
			{erc20ABI.Events["Transfer"].ID},
			{common.BytesToHash(group.Bytes())},
		},
	})...)

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].BlockNumber > records[j].BlockNumber
	})
	return records
}

// query runs one log filter and converts every decodable log into an event
// record. Errors degrade to an empty slice.
func (h *History) query(ctx context.Context, q ethereum.FilterQuery) []domain.EventRecord {
	logs, err := h.backend.FilterLogs(ctx, q)
	if err != nil {
		h.logger.Warn("event query failed", "error", err)
		return nil
	}

	records := make([]domain.EventRecord, 0, len(logs))
	for _, lg := range logs {
		dec, err := DecodeLog(lg)
		if err != nil {
			continue
		}
		rec := domain.EventRecord{
			BlockNumber: dec.BlockNumber,
			TxHash:      dec.TxHash.Hex(),
		}
		switch {
		case dec.Joined != nil:
			rec.Type = domain.EventJoined
			rec.Participant = domain.NormalizeAddress(dec.Joined.Participant.Hex())
			rec.Amount = FormatUnits(dec.Joined.Amount, fallbackTokenDigits)
		case dec.Winner != nil:
			rec.Type = domain.EventWinner
			rec.Participant = domain.NormalizeAddress(dec.Winner.Winner.Hex())
			rec.Amount = FormatUnits(dec.Winner.Amount, fallbackTokenDigits)
			if dec.Winner.Timestamp != nil {
				rec.Timestamp = dec.Winner.Timestamp.Int64()
			}
		case dec.Transfer != nil:
			rec.Type = domain.EventClaimed
			rec.Participant = domain.NormalizeAddress(dec.Transfer.To.Hex())
			rec.Amount = FormatUnits(dec.Transfer.Value, fallbackTokenDigits)
		default:
			continue
		}
		records = append(records, rec)
	}
	return records
}
