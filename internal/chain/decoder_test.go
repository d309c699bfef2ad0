package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arisanhub/arisand/internal/domain"
)

var (
	testWallet = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testGroup  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testTxHash = common.HexToHash("0xabcdef0000000000000000000000000000000000000000000000000000000001")
)

func packEventData(t *testing.T, a abi.ABI, event string, vals ...interface{}) []byte {
	t.Helper()
	data, err := a.Events[event].Inputs.NonIndexed().Pack(vals...)
	require.NoError(t, err)
	return data
}

func addrTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func joinedLog(t *testing.T, block uint64) types.Log {
	return types.Log{
		Topics:      []common.Hash{arisanABI.Events["Joined"].ID, addrTopic(testWallet)},
		Data:        packEventData(t, arisanABI, "Joined", big.NewInt(5_000_000)),
		BlockNumber: block,
		TxHash:      testTxHash,
	}
}

func winnerLog(t *testing.T, block uint64) types.Log {
	return types.Log{
		Topics:      []common.Hash{arisanABI.Events["WinnerPicked"].ID, addrTopic(testWallet)},
		Data:        packEventData(t, arisanABI, "WinnerPicked", big.NewInt(15_000_000), big.NewInt(1_700_000_000)),
		BlockNumber: block,
		TxHash:      testTxHash,
	}
}

func transferLog(t *testing.T, block uint64, from, to common.Address) types.Log {
	return types.Log{
		Topics:      []common.Hash{erc20ABI.Events["Transfer"].ID, addrTopic(from), addrTopic(to)},
		Data:        packEventData(t, erc20ABI, "Transfer", big.NewInt(15_000_000)),
		BlockNumber: block,
		TxHash:      testTxHash,
	}
}

func createdLog(t *testing.T, group, creator common.Address) types.Log {
	return types.Log{
		Topics:      []common.Hash{factoryABI.Events["ArisanCreated"].ID, addrTopic(group), addrTopic(creator)},
		Data:        packEventData(t, factoryABI, "ArisanCreated", "Office Pool", big.NewInt(5_000_000)),
		BlockNumber: 10,
		TxHash:      testTxHash,
	}
}

func TestDecodeLogJoined(t *testing.T) {
	dec, err := DecodeLog(joinedLog(t, 42))
	require.NoError(t, err)
	require.NotNil(t, dec.Joined)
	assert.Equal(t, "Joined", dec.Name)
	assert.Equal(t, testWallet, dec.Joined.Participant)
	assert.Equal(t, int64(5_000_000), dec.Joined.Amount.Int64())
	assert.Equal(t, uint64(42), dec.BlockNumber)
	assert.Equal(t, testTxHash, dec.TxHash)
}

func TestDecodeLogWinnerPicked(t *testing.T) {
	dec, err := DecodeLog(winnerLog(t, 43))
	require.NoError(t, err)
	require.NotNil(t, dec.Winner)
	assert.Equal(t, testWallet, dec.Winner.Winner)
	assert.Equal(t, int64(15_000_000), dec.Winner.Amount.Int64())
	assert.Equal(t, int64(1_700_000_000), dec.Winner.Timestamp.Int64())
}

func TestDecodeLogTransfer(t *testing.T) {
	dec, err := DecodeLog(transferLog(t, 44, testGroup, testWallet))
	require.NoError(t, err)
	require.NotNil(t, dec.Transfer)
	assert.Equal(t, testGroup, dec.Transfer.From)
	assert.Equal(t, testWallet, dec.Transfer.To)
}

func TestDecodeLogCreated(t *testing.T) {
	dec, err := DecodeLog(createdLog(t, testGroup, testWallet))
	require.NoError(t, err)
	require.NotNil(t, dec.Created)
	assert.Equal(t, testGroup, dec.Created.GroupAddress)
	assert.Equal(t, testWallet, dec.Created.Creator)
	assert.Equal(t, "Office Pool", dec.Created.Name)
	assert.Equal(t, int64(5_000_000), dec.Created.EntryFee.Int64())
}

func TestDecodeLogUnknownSignature(t *testing.T) {
	_, err := DecodeLog(types.Log{
		Topics: []common.Hash{common.HexToHash("0xdeadbeef00000000000000000000000000000000000000000000000000000000")},
	})
	assert.ErrorIs(t, err, domain.ErrDecode)

	_, err = DecodeLog(types.Log{})
	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestFirstWinnerSkipsForeignLogs(t *testing.T) {
	receipt := &types.Receipt{
		Logs: []*types.Log{
			{Topics: []common.Hash{common.HexToHash("0x01")}},
			ptr(transferLog(t, 44, testGroup, testWallet)),
			ptr(winnerLog(t, 44)),
		},
	}
	winner, err := FirstWinner(receipt)
	require.NoError(t, err)
	assert.Equal(t, testWallet, winner.Winner)
}

func TestFirstCreatedMissing(t *testing.T) {
	receipt := &types.Receipt{Logs: []*types.Log{ptr(joinedLog(t, 1))}}
	_, err := FirstCreated(receipt)
	assert.ErrorIs(t, err, domain.ErrDecode)
}

func ptr(lg types.Log) *types.Log { return &lg }
