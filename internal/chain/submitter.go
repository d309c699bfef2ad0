package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/arisanhub/arisand/internal/domain"
)

const (
	receiptPollAttempts = 30
	receiptPollInterval = 2 * time.Second
)

// Submitter signs calldata into a legacy transaction, broadcasts it, and
// waits for the receipt. Implemented by TxSubmitter; tests substitute fakes.
type Submitter interface {
	From() common.Address
	Submit(ctx context.Context, to common.Address, calldata []byte, gasLimit uint64) (*types.Receipt, error)
}

// TxSubmitter is the ethclient-backed Submitter. Gas limits are fixed by the
// caller per operation rather than estimated, so a mispriced estimate can
// never stall a draw.
type TxSubmitter struct {
	backend ethBackend
	chainID *big.Int
	key     *ecdsa.PrivateKey
	from    common.Address
	logger  *slog.Logger
}

// NewTxSubmitter builds a submitter for the given signing key.
func NewTxSubmitter(c *Client, key *ecdsa.PrivateKey, logger *slog.Logger) (*TxSubmitter, error) {
	if key == nil {
		return nil, domain.ErrNoSigner
	}
	return &TxSubmitter{
		backend: c.ec,
		chainID: c.ChainID(),
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		logger:  logger,
	}, nil
}

// From returns the signing wallet address.
func (s *TxSubmitter) From() common.Address { return s.from }

// Submit signs and broadcasts a transaction, then polls for its receipt. A
// mined-but-reverted transaction returns domain.ErrTxReverted; a receipt that
// never appears within the polling window returns domain.ErrTimeout.
func (s *TxSubmitter) Submit(ctx context.Context, to common.Address, calldata []byte, gasLimit uint64) (*types.Receipt, error) {
	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain: gas price: %w", err)
	}
	nonce, err := s.backend.PendingNonceAt(ctx, s.from)
	if err != nil {
		return nil, fmt.Errorf("chain: pending nonce: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    big.NewInt(0),
		Data:     calldata,
	})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(s.chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("chain: sign tx: %w", err)
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("chain: send tx: %w", err)
	}

	hash := signed.Hash()
	s.logger.Info("transaction sent", "tx", hash.Hex(), "to", to.Hex(), "gas_limit", gasLimit)

	for i := 0; i < receiptPollAttempts; i++ {
		receipt, err := s.backend.TransactionReceipt(ctx, hash)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("chain: wait receipt: %w", ctx.Err())
			case <-time.After(receiptPollInterval):
				continue
			}
		}
		if receipt.Status != types.ReceiptStatusSuccessful {
			return nil, fmt.Errorf("%w: tx %s", domain.ErrTxReverted, hash.Hex())
		}
		return receipt, nil
	}
	return nil, fmt.Errorf("%w: tx %s not mined", domain.ErrTimeout, hash.Hex())
}
