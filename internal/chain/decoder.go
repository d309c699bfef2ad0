package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/arisanhub/arisand/internal/domain"
)

// Typed views of the contract events this service reacts to.

type CreatedEvent struct {
	GroupAddress common.Address
	Creator      common.Address
	Name         string
	EntryFee     *big.Int
}

type JoinedEvent struct {
	Participant common.Address
	Amount      *big.Int
}

type WinnerPickedEvent struct {
	Winner    common.Address
	Amount    *big.Int
	Timestamp *big.Int
}

type TransferEvent struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

// Decoded is one recognized log, with exactly one of the event pointers set.
type Decoded struct {
	Name        string
	Created     *CreatedEvent
	Joined      *JoinedEvent
	Winner      *WinnerPickedEvent
	Transfer    *TransferEvent
	BlockNumber uint64
	TxHash      common.Hash
}

// DecodeLog maps a raw log onto one of the known event shapes by its topic0
// signature. Logs that match no known event return domain.ErrDecode.
func DecodeLog(lg types.Log) (*Decoded, error) {
	if len(lg.Topics) == 0 {
		return nil, domain.ErrDecode
	}
	dec := &Decoded{
		BlockNumber: lg.BlockNumber,
		TxHash:      lg.TxHash,
	}
	switch lg.Topics[0] {
	case factoryABI.Events["ArisanCreated"].ID:
		if len(lg.Topics) < 3 {
			return nil, fmt.Errorf("%w: ArisanCreated topics", domain.ErrDecode)
		}
		out, err := factoryABI.Unpack("ArisanCreated", lg.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: ArisanCreated data: %v", domain.ErrDecode, err)
		}
		dec.Name = "ArisanCreated"
		dec.Created = &CreatedEvent{
			GroupAddress: common.BytesToAddress(lg.Topics[1].Bytes()),
			Creator:      common.BytesToAddress(lg.Topics[2].Bytes()),
			Name:         out[0].(string),
			EntryFee:     out[1].(*big.Int),
		}
	case arisanABI.Events["Joined"].ID:
		if len(lg.Topics) < 2 {
			return nil, fmt.Errorf("%w: Joined topics", domain.ErrDecode)
		}
		out, err := arisanABI.Unpack("Joined", lg.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: Joined data: %v", domain.ErrDecode, err)
		}
		dec.Name = "Joined"
		dec.Joined = &JoinedEvent{
			Participant: common.BytesToAddress(lg.Topics[1].Bytes()),
			Amount:      out[0].(*big.Int),
		}
	case arisanABI.Events["WinnerPicked"].ID:
		if len(lg.Topics) < 2 {
			return nil, fmt.Errorf("%w: WinnerPicked topics", domain.ErrDecode)
		}
		out, err := arisanABI.Unpack("WinnerPicked", lg.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: WinnerPicked data: %v", domain.ErrDecode, err)
		}
		dec.Name = "WinnerPicked"
		dec.Winner = &WinnerPickedEvent{
			Winner:    common.BytesToAddress(lg.Topics[1].Bytes()),
			Amount:    out[0].(*big.Int),
			Timestamp: out[1].(*big.Int),
		}
	case erc20ABI.Events["Transfer"].ID:
		if len(lg.Topics) < 3 {
			return nil, fmt.Errorf("%w: Transfer topics", domain.ErrDecode)
		}
		out, err := erc20ABI.Unpack("Transfer", lg.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: Transfer data: %v", domain.ErrDecode, err)
		}
		dec.Name = "Transfer"
		dec.Transfer = &TransferEvent{
			From:  common.BytesToAddress(lg.Topics[1].Bytes()),
			To:    common.BytesToAddress(lg.Topics[2].Bytes()),
			Value: out[0].(*big.Int),
		}
	default:
		return nil, domain.ErrDecode
	}
	return dec, nil
}

// FirstCreated scans a receipt for the factory's creation event.
func FirstCreated(receipt *types.Receipt) (*CreatedEvent, error) {
	for _, lg := range receipt.Logs {
		dec, err := DecodeLog(*lg)
		if err != nil {
			continue
		}
		if dec.Created != nil {
			return dec.Created, nil
		}
	}
	return nil, domain.ErrDecode
}

// FirstWinner scans a receipt for the draw result event.
func FirstWinner(receipt *types.Receipt) (*WinnerPickedEvent, error) {
	for _, lg := range receipt.Logs {
		dec, err := DecodeLog(*lg)
		if err != nil {
			continue
		}
		if dec.Winner != nil {
			return dec.Winner, nil
		}
	}
	return nil, domain.ErrDecode
}

// FirstJoined scans a receipt for the membership event.
func FirstJoined(receipt *types.Receipt) (*JoinedEvent, error) {
	for _, lg := range receipt.Logs {
		dec, err := DecodeLog(*lg)
		if err != nil {
			continue
		}
		if dec.Joined != nil {
			return dec.Joined, nil
		}
	}
	return nil, domain.ErrDecode
}
