package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arisanhub/arisand/internal/domain"
)

// fakeBackend routes eth_call by target address and method selector.
type fakeBackend struct {
	handler func(msg ethereum.CallMsg) ([]byte, error)
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	return f.handler(msg)
}
func (f *fakeBackend) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, errors.New("not implemented")
}
func (f *fakeBackend) SendTransaction(context.Context, *types.Transaction) error {
	return errors.New("not implemented")
}
func (f *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, errors.New("not implemented")
}

func newTestReader(handler func(msg ethereum.CallMsg) ([]byte, error)) *Reader {
	return &Reader{
		backend:     &fakeBackend{handler: handler},
		factory:     testFactory,
		token:       testToken,
		logger:      testLogger(),
		listTimeout: 2 * time.Second,
	}
}

func packOutput(t *testing.T, parsed interface {
	Pack(...interface{}) ([]byte, error)
}, vals ...interface{}) []byte {
	t.Helper()
	out, err := parsed.Pack(vals...)
	require.NoError(t, err)
	return out
}

func selector(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	return common.Bytes2Hex(data[:4])
}

// healthyGroupHandler answers every view a group hydration makes.
func healthyGroupHandler(t *testing.T, group, broken common.Address) func(msg ethereum.CallMsg) ([]byte, error) {
	fee, _ := new(big.Int).SetString("5000000000000000000", 10) // 5 at 18 decimals
	return func(msg ethereum.CallMsg) ([]byte, error) {
		to := *msg.To
		if to == broken {
			return nil, errors.New("execution reverted")
		}
		switch to {
		case testFactory:
			return packOutput(t, factoryABI.Methods["getDeployedArisans"].Outputs, []common.Address{group, broken}), nil
		case testToken:
			switch selector(msg.Data) {
			case selector(erc20ABI.Methods["symbol"].ID):
				return packOutput(t, erc20ABI.Methods["symbol"].Outputs, "USDT"), nil
			case selector(erc20ABI.Methods["decimals"].ID):
				return packOutput(t, erc20ABI.Methods["decimals"].Outputs, uint8(6)), nil
			}
		case group:
			switch selector(msg.Data) {
			case selector(arisanABI.Methods["name"].ID):
				return packOutput(t, arisanABI.Methods["name"].Outputs, "Office Pool"), nil
			case selector(arisanABI.Methods["description"].ID):
				return packOutput(t, arisanABI.Methods["description"].Outputs, "weekly savings"), nil
			case selector(arisanABI.Methods["entryFee"].ID):
				return packOutput(t, arisanABI.Methods["entryFee"].Outputs, fee), nil
			case selector(arisanABI.Methods["maxParticipants"].ID):
				return packOutput(t, arisanABI.Methods["maxParticipants"].Outputs, big.NewInt(5)), nil
			case selector(arisanABI.Methods["owner"].ID):
				return packOutput(t, arisanABI.Methods["owner"].Outputs, testWallet), nil
			case selector(arisanABI.Methods["getParticipants"].ID):
				return packOutput(t, arisanABI.Methods["getParticipants"].Outputs, []participantTuple{
					{WalletAddress: testWallet, HasPaid: true, HasWon: false, JoinedAt: big.NewInt(1_700_000_000)},
					{WalletAddress: testGroup, HasPaid: true, HasWon: true, JoinedAt: big.NewInt(1_700_000_100)},
				}), nil
			}
		}
		return nil, errors.New("unexpected call")
	}
}

func TestListGroupsHydratesAndSkipsUnreadable(t *testing.T) {
	broken := common.HexToAddress("0x5555555555555555555555555555555555555555")
	r := newTestReader(healthyGroupHandler(t, testGroup, broken))

	groups := r.ListGroups(context.Background())
	require.Len(t, groups, 1, "unreadable groups are dropped, not fatal")

	g := groups[0]
	assert.Equal(t, domain.NormalizeAddress(testGroup.Hex()), g.Address)
	assert.Equal(t, "Office Pool", g.Name)
	assert.Equal(t, "weekly savings", g.Description)
	assert.InDelta(t, 5.0, g.EntryFee, 1e-9)
	assert.Equal(t, "5000000000000000000", g.EntryFeeRaw.String())
	assert.Equal(t, "USDT", g.Currency)
	assert.Equal(t, 5, g.MaxParticipants)
	assert.Equal(t, domain.GroupStatusOpen, g.Status)
	assert.InDelta(t, 10.0, g.PoolBalance, 1e-9, "two members at 5 each")
	assert.Equal(t, domain.NormalizeAddress(testWallet.Hex()), g.Owner)

	require.Len(t, g.Participants, 2)
	assert.True(t, g.Participants[0].HasPaid)
	assert.True(t, g.Participants[1].HasWon)
	assert.Equal(t, int64(1_700_000_000), g.Participants[0].JoinedAt)
}

func TestListGroupsListingFailureIsEmpty(t *testing.T) {
	r := newTestReader(func(msg ethereum.CallMsg) ([]byte, error) {
		return nil, errors.New("rpc down")
	})
	groups := r.ListGroups(context.Background())
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestTokenDecimalsFallsBackTo18(t *testing.T) {
	r := newTestReader(func(msg ethereum.CallMsg) ([]byte, error) {
		return nil, errors.New("no decimals here")
	})
	assert.Equal(t, uint8(18), r.TokenDecimals(context.Background()))
}

func TestDeployedGroupsOrderPreserved(t *testing.T) {
	a := common.HexToAddress("0x000000000000000000000000000000000000000a")
	b := common.HexToAddress("0x000000000000000000000000000000000000000b")
	r := newTestReader(func(msg ethereum.CallMsg) ([]byte, error) {
		return packOutput(t, factoryABI.Methods["getDeployedArisans"].Outputs, []common.Address{b, a}), nil
	})
	addrs, err := r.DeployedGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []common.Address{b, a}, addrs)
}
