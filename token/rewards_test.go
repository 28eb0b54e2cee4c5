package token

import (
	"math/big"
	"testing"
	"time"

	"github.com/nexusverse/core/common"
)

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), decimalsFactor)
}

func TestCalculateRewardFullYear(t *testing.T) {
	// 1000 tokens staked at 500 bps for one year accrues exactly 50 tokens
	reward := calculateReward(tokens(1000), 500, secondsPerYear)
	if reward.Cmp(tokens(50)) != 0 {
		t.Errorf("expected reward of 50 tokens; got %s", reward.String())
	}
}

func TestCalculateRewardHalfYear(t *testing.T) {
	reward := calculateReward(tokens(1000), 500, secondsPerYear/2)
	if reward.Cmp(tokens(25)) != 0 {
		t.Errorf("expected reward of 25 tokens; got %s", reward.String())
	}
}

func TestCalculateRewardZeroStake(t *testing.T) {
	reward := calculateReward(new(big.Int), 500, secondsPerYear)
	if reward.Sign() != 0 {
		t.Errorf("expected zero reward for zero stake; got %s", reward.String())
	}
}

func TestCalculateRewardZeroRate(t *testing.T) {
	reward := calculateReward(tokens(1000), 0, secondsPerYear)
	if reward.Sign() != 0 {
		t.Errorf("expected zero reward at zero rate; got %s", reward.String())
	}
}

func TestCalculateRewardNonPositiveElapsed(t *testing.T) {
	if reward := calculateReward(tokens(1000), 500, 0); reward.Sign() != 0 {
		t.Errorf("expected zero reward for zero elapsed time; got %s", reward.String())
	}
	if reward := calculateReward(tokens(1000), 500, -1); reward.Sign() != 0 {
		t.Errorf("expected zero reward for negative elapsed time; got %s", reward.String())
	}
}

func TestCalculateRewardTruncates(t *testing.T) {
	// 1 base unit at 1 bps for 1 second rounds down to zero
	reward := calculateReward(big.NewInt(1), 1, 1)
	if reward.Sign() != 0 {
		t.Errorf("expected truncation to zero; got %s", reward.String())
	}
}

func TestCalculateRewardMonotonic(t *testing.T) {
	staked := tokens(12345)
	prev := new(big.Int)

	for _, elapsed := range []int64{1, 60, 3600, 86400, secondsPerYear, secondsPerYear * 2} {
		reward := calculateReward(staked, 750, elapsed)
		if reward.Cmp(prev) < 0 {
			t.Errorf("reward decreased as elapsed time grew; %s after %d seconds", reward.String(), elapsed)
		}
		prev = reward
	}
}

func TestCalculateRewardProportionalToStake(t *testing.T) {
	single := calculateReward(tokens(1000), 500, secondsPerYear)
	double := calculateReward(tokens(2000), 500, secondsPerYear)

	if double.Cmp(new(big.Int).Mul(single, big.NewInt(2))) != 0 {
		t.Errorf("expected reward to scale linearly with stake; %s vs %s", single.String(), double.String())
	}
}

func TestPendingRewardWithoutCheckpoint(t *testing.T) {
	ledger := &Ledger{RewardRate: 500}
	account := &Account{
		Address:      common.StringOrNil("0xabc"),
		StakedAmount: NewAmountFromTokens(1000),
	}

	if reward := pendingReward(ledger, account, time.Now()); !reward.IsZero() {
		t.Errorf("expected zero pending reward without an accrual checkpoint; got %s", reward.String())
	}
}

func TestPendingRewardAtCheckpoint(t *testing.T) {
	now := time.Now()
	ledger := &Ledger{RewardRate: 500}
	account := &Account{
		Address:          common.StringOrNil("0xabc"),
		StakedAmount:     NewAmountFromTokens(1000),
		StakingStartTime: &now,
	}

	if reward := pendingReward(ledger, account, now); !reward.IsZero() {
		t.Errorf("expected zero pending reward at the accrual checkpoint; got %s", reward.String())
	}
}

func TestPendingRewardAfterOneYear(t *testing.T) {
	checkpoint := time.Now().Add(-1 * secondsPerYear * time.Second)
	ledger := &Ledger{RewardRate: 500}
	account := &Account{
		Address:          common.StringOrNil("0xabc"),
		StakedAmount:     NewAmountFromTokens(1000),
		StakingStartTime: &checkpoint,
	}

	reward := pendingReward(ledger, account, checkpoint.Add(secondsPerYear*time.Second))
	if reward.BigInt().Cmp(tokens(50)) != 0 {
		t.Errorf("expected 50 tokens pending after one year; got %s", reward.String())
	}
}
