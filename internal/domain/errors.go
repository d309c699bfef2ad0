package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrInvalidAmount rejects malformed or non-positive numeric input
	// before any remote call is made.
	ErrInvalidAmount = errors.New("invalid amount")

	// Join preconditions, detected by cheap reads before any gas is spent.
	ErrGroupFull           = errors.New("group is full")
	ErrAlreadyJoined       = errors.New("already joined")
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrTxReverted is surfaced generically: on-chain revert reasons are not
	// reliably decodable.
	ErrTxReverted = errors.New("transaction reverted")

	// ErrDecode marks a confirmed transaction whose receipt logs matched no
	// known event signature. The transaction itself still succeeded.
	ErrDecode = errors.New("no decodable event in receipt")

	ErrTimeout  = errors.New("operation timed out")
	ErrNoSigner = errors.New("no signing key configured")

	// ErrLockHeld means another instance already owns a distributed lock.
	ErrLockHeld = errors.New("lock already held")
)
