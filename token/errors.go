package token

import "errors"

var (
	// ErrNotOwner is returned when a caller lacks the owner role
	ErrNotOwner = errors.New("caller is not the owner")

	// ErrLedgerPaused is returned when a balance-mutating operation is
	// attempted while the ledger is paused
	ErrLedgerPaused = errors.New("ledger is paused")

	// ErrInvalidAmount is returned when a staking operation receives a zero amount
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance is returned when the caller's spendable balance
	// cannot cover the requested amount
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientStake is returned when an unstake exceeds the caller's staked amount
	ErrInsufficientStake = errors.New("insufficient staked amount")

	// ErrSupplyCapExceeded is returned when a mint would push total supply past the cap
	ErrSupplyCapExceeded = errors.New("supply cap exceeded")

	// ErrRateTooHigh is returned when a reward rate update exceeds 1000 basis points
	ErrRateTooHigh = errors.New("reward rate too high")

	// ErrNoRewardsAvailable is returned when a claim computes a zero reward
	ErrNoRewardsAvailable = errors.New("no rewards available")
)
