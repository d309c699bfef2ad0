package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/arisanhub/arisand/internal/domain"
)

const (
	defaultListTimeout  = 15 * time.Second
	defaultTokenSymbol  = "USDT"
	fallbackTokenDigits = 18
)

// participantTuple mirrors the on-chain participant struct layout.
type participantTuple struct {
	WalletAddress common.Address
	HasPaid       bool
	HasWon        bool
	JoinedAt      *big.Int
}

// Reader serves read-only contract views. Every method is a plain eth_call;
// nothing here spends gas.
type Reader struct {
	backend ethBackend
	factory common.Address
	token   common.Address
	logger  *slog.Logger

	listTimeout time.Duration

	symbolOnce sync.Once
	symbol     string
}

// NewReader builds a Reader on top of an established chain client.
func NewReader(c *Client, logger *slog.Logger) *Reader {
	return &Reader{
		backend:     c.ec,
		factory:     c.factory,
		token:       c.token,
		logger:      logger,
		listTimeout: defaultListTimeout,
	}
}

// call packs a method call, runs it through eth_call, and returns the
// unpacked outputs.
func (r *Reader) call(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}
	raw, err := r.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s on %s: %w", method, to.Hex(), err)
	}
	out, err := parsed.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s: %w", method, err)
	}
	return out, nil
}

// DeployedGroups returns every group address the factory has deployed, in
// factory order.
func (r *Reader) DeployedGroups(ctx context.Context) ([]common.Address, error) {
	out, err := r.call(ctx, r.factory, factoryABI, "getDeployedArisans")
	if err != nil {
		return nil, err
	}
	addrs := *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address)
	return addrs, nil
}

// EntryFee returns the raw entry fee of a group.
func (r *Reader) EntryFee(ctx context.Context, group common.Address) (*big.Int, error) {
	out, err := r.call(ctx, group, arisanABI, "entryFee")
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// MaxParticipants returns the participant cap of a group.
func (r *Reader) MaxParticipants(ctx context.Context, group common.Address) (int, error) {
	out, err := r.call(ctx, group, arisanABI, "maxParticipants")
	if err != nil {
		return 0, err
	}
	max := abi.ConvertType(out[0], new(big.Int)).(*big.Int)
	return int(max.Int64()), nil
}

// Owner returns the admin wallet of a group.
func (r *Reader) Owner(ctx context.Context, group common.Address) (common.Address, error) {
	out, err := r.call(ctx, group, arisanABI, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// Participants returns the current member roster of a group.
func (r *Reader) Participants(ctx context.Context, group common.Address) ([]domain.Participant, error) {
	out, err := r.call(ctx, group, arisanABI, "getParticipants")
	if err != nil {
		return nil, err
	}
	raw := *abi.ConvertType(out[0], new([]participantTuple)).(*[]participantTuple)
	parts := make([]domain.Participant, 0, len(raw))
	for _, p := range raw {
		joined := int64(0)
		if p.JoinedAt != nil {
			joined = p.JoinedAt.Int64()
		}
		parts = append(parts, domain.Participant{
			WalletAddress: domain.NormalizeAddress(p.WalletAddress.Hex()),
			HasPaid:       p.HasPaid,
			HasWon:        p.HasWon,
			JoinedAt:      joined,
		})
	}
	return parts, nil
}

// PendingPrize returns the unclaimed prize balance a wallet holds in a group.
func (r *Reader) PendingPrize(ctx context.Context, group, wallet common.Address) (*big.Int, error) {
	out, err := r.call(ctx, group, arisanABI, "pendingWithdrawals", wallet)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// TokenDecimals returns the settlement token's decimals, falling back to 18
// when the token does not answer. The fallback keeps amount formatting
// working against non-standard tokens.
func (r *Reader) TokenDecimals(ctx context.Context) uint8 {
	out, err := r.call(ctx, r.token, erc20ABI, "decimals")
	if err != nil {
		r.logger.Warn("token decimals unavailable, assuming 18", "error", err)
		return fallbackTokenDigits
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8)
}

// TokenSymbol returns the settlement token's display symbol, cached after the
// first successful read.
func (r *Reader) TokenSymbol(ctx context.Context) string {
	r.symbolOnce.Do(func() {
		r.symbol = defaultTokenSymbol
		out, err := r.call(ctx, r.token, erc20ABI, "symbol")
		if err != nil {
			r.logger.Warn("token symbol unavailable", "error", err)
			return
		}
		r.symbol = *abi.ConvertType(out[0], new(string)).(*string)
	})
	return r.symbol
}

// TokenBalance returns a wallet's settlement token balance.
func (r *Reader) TokenBalance(ctx context.Context, wallet common.Address) (*big.Int, error) {
	out, err := r.call(ctx, r.token, erc20ABI, "balanceOf", wallet)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// TokenAllowance returns how much a spender may pull from a wallet.
func (r *Reader) TokenAllowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	out, err := r.call(ctx, r.token, erc20ABI, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// GroupDetails assembles the full chain view of one group: static metadata,
// roster, and the derived fields the dashboards expect.
func (r *Reader) GroupDetails(ctx context.Context, group common.Address) (domain.Group, error) {
	var (
		name, description string
		fee               *big.Int
		max               int
		owner             common.Address
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := r.call(gctx, group, arisanABI, "name")
		if err != nil {
			return err
		}
		name = *abi.ConvertType(out[0], new(string)).(*string)
		return nil
	})
	g.Go(func() error {
		out, err := r.call(gctx, group, arisanABI, "description")
		if err != nil {
			return err
		}
		description = *abi.ConvertType(out[0], new(string)).(*string)
		return nil
	})
	g.Go(func() (err error) {
		fee, err = r.EntryFee(gctx, group)
		return err
	})
	g.Go(func() (err error) {
		max, err = r.MaxParticipants(gctx, group)
		return err
	})
	g.Go(func() (err error) {
		owner, err = r.Owner(gctx, group)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Group{}, err
	}

	parts, err := r.Participants(ctx, group)
	if err != nil {
		return domain.Group{}, err
	}

	display := FormatUnits(fee, fallbackTokenDigits)
	feeFloat, _ := strconv.ParseFloat(display, 64)

	return domain.Group{
		Address:         domain.NormalizeAddress(group.Hex()),
		Name:            name,
		Description:     description,
		EntryFee:        feeFloat,
		EntryFeeRaw:     fee,
		Currency:        r.TokenSymbol(ctx),
		CyclePeriod:     "Weekly",
		MaxParticipants: max,
		CurrentCycle:    1,
		Status:          domain.GroupStatusOpen,
		PoolBalance:     float64(len(parts)) * feeFloat,
		Owner:           domain.NormalizeAddress(owner.Hex()),
		Participants:    parts,
	}, nil
}

// ListGroups fetches the factory listing and hydrates every group in
// parallel. Groups that fail to hydrate are dropped from the result; a
// listing failure or overall timeout degrades to an empty slice so callers
// can fall back to cached views.
func (r *Reader) ListGroups(ctx context.Context) []domain.Group {
	ctx, cancel := context.WithTimeout(ctx, r.listTimeout)
	defer cancel()

	addrs, err := r.DeployedGroups(ctx)
	if err != nil {
		r.logger.Warn("group listing unavailable", "error", err)
		return []domain.Group{}
	}

	results := make([]*domain.Group, len(addrs))
	var wg sync.WaitGroup
	for i, addr := range addrs {
		wg.Add(1)
		go func(i int, addr common.Address) {
			defer wg.Done()
			grp, err := r.GroupDetails(ctx, addr)
			if err != nil {
				r.logger.Warn("skipping unreadable group", "address", addr.Hex(), "error", err)
				return
			}
			results[i] = &grp
		}(i, addr)
	}
	wg.Wait()

	if ctx.Err() != nil {
		r.logger.Warn("group listing timed out", "timeout", r.listTimeout)
		return []domain.Group{}
	}

	groups := make([]domain.Group, 0, len(results))
	for _, g := range results {
		if g != nil {
			groups = append(groups, *g)
		}
	}
	return groups
}
