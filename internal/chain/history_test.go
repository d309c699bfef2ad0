package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arisanhub/arisand/internal/domain"
)

type fakeFilterer struct {
	logs    map[common.Hash][]types.Log
	failing map[common.Hash]bool
	queries []ethereum.FilterQuery
}

func (f *fakeFilterer) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.queries = append(f.queries, q)
	sig := q.Topics[0][0]
	if f.failing[sig] {
		return nil, errors.New("rpc down")
	}
	return f.logs[sig], nil
}

func newTestHistory(f *fakeFilterer) *History {
	return &History{backend: f, token: testToken, logger: testLogger()}
}

func TestGroupHistoryMergesAndSortsNewestFirst(t *testing.T) {
	f := &fakeFilterer{logs: map[common.Hash][]types.Log{
		arisanABI.Events["Joined"].ID:       {joinedLog(t, 5)},
		arisanABI.Events["WinnerPicked"].ID: {winnerLog(t, 9)},
		erc20ABI.Events["Transfer"].ID:      {transferLog(t, 7, testGroup, testWallet)},
	}}

	records := newTestHistory(f).GroupHistory(context.Background(), testGroup)
	require.Len(t, records, 3)
	assert.Equal(t, domain.EventWinner, records[0].Type)
	assert.Equal(t, domain.EventClaimed, records[1].Type)
	assert.Equal(t, domain.EventJoined, records[2].Type)

	// Payouts are attributed to the transfer recipient.
	assert.Equal(t, domain.NormalizeAddress(testWallet.Hex()), records[1].Participant)
	// The draw event is the only one carrying a contract timestamp.
	assert.Equal(t, int64(1_700_000_000), records[0].Timestamp)
	assert.Zero(t, records[1].Timestamp)
}

func TestGroupHistoryPayoutQueryScopedToGroup(t *testing.T) {
	f := &fakeFilterer{}
	newTestHistory(f).GroupHistory(context.Background(), testGroup)

	require.Len(t, f.queries, 3)
	transfers := f.queries[2]
	assert.Equal(t, []common.Address{testToken}, transfers.Addresses)
	require.Len(t, transfers.Topics, 2)
	assert.Equal(t, common.BytesToHash(testGroup.Bytes()), transfers.Topics[1][0])
}

func TestGroupHistoryDegradesPerStream(t *testing.T) {
	f := &fakeFilterer{
		logs: map[common.Hash][]types.Log{
			arisanABI.Events["Joined"].ID: {joinedLog(t, 5)},
		},
		failing: map[common.Hash]bool{
			erc20ABI.Events["Transfer"].ID: true,
		},
	}

	records := newTestHistory(f).GroupHistory(context.Background(), testGroup)
	require.Len(t, records, 1)
	assert.Equal(t, domain.EventJoined, records[0].Type)
}

func TestGroupHistoryAllStreamsDownIsEmpty(t *testing.T) {
	f := &fakeFilterer{failing: map[common.Hash]bool{
		arisanABI.Events["Joined"].ID:       true,
		arisanABI.Events["WinnerPicked"].ID: true,
		erc20ABI.Events["Transfer"].ID:      true,
	}}

	records := newTestHistory(f).GroupHistory(context.Background(), testGroup)
	assert.Empty(t, records)
}
