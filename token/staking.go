/*
 * Copyright 2024-2026 NexusVerse Labs
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package token

import (
	"math/big"
	"time"

	"github.com/jinzhu/gorm"
	dbconf "github.com/kthomas/go-db-config"
)

// secondsPerYear is the reward accrual period denominator
const secondsPerYear = 31536000

// basisPointsDenominator scales the reward rate; 10000 bps == 100%
const basisPointsDenominator = 10000

// calculateReward computes the time-proportional staking reward:
// staked × rate × elapsed / (secondsPerYear × 10000), floor division
func calculateReward(staked *big.Int, rateBps uint64, elapsedSeconds int64) *big.Int {
	if staked == nil || staked.Sign() == 0 || rateBps == 0 || elapsedSeconds <= 0 {
		return new(big.Int)
	}

	reward := new(big.Int).Mul(staked, new(big.Int).SetUint64(rateBps))
	reward.Mul(reward, big.NewInt(elapsedSeconds))
	reward.Div(reward, big.NewInt(secondsPerYear*basisPointsDenominator))
	return reward
}

// pendingReward computes the unclaimed reward for the given account at the
// given instant
func pendingReward(ledger *Ledger, account *Account, now time.Time) *Amount {
	if account.StakedAmount.IsZero() || account.StakingStartTime == nil {
		return NewAmount(nil)
	}

	elapsed := now.Unix() - account.StakingStartTime.Unix()
	return NewAmount(calculateReward(account.StakedAmount.BigInt(), ledger.RewardRate, elapsed))
}

// settleRewards mints any pending reward to the account and moves the accrual
// checkpoint to now, so settled time is never counted twice; returns the
// settled reward, which may be zero
func settleRewards(tx *gorm.DB, ledger *Ledger, account *Account, now time.Time) (*Amount, error) {
	reward := pendingReward(ledger, account, now)
	if !reward.IsZero() {
		supply := ledger.TotalSupply.Add(reward)
		if supply.BigInt().Cmp(MaxSupply) > 0 {
			return nil, ErrSupplyCapExceeded
		}
		account.Balance = account.Balance.Add(reward)
		ledger.TotalSupply = supply
	}

	if !account.StakedAmount.IsZero() {
		checkpoint := now
		account.StakingStartTime = &checkpoint
	}

	return reward, nil
}

// Stake locks amount of the caller's balance in the staking pool, settling
// any pending rewards first
func Stake(caller string, amount *Amount) error {
	err := mutate(func(tx *gorm.DB) error {
		ledger, err := requireLedger(tx)
		if err != nil {
			return err
		}
		if ledger.Paused {
			return ErrLedgerPaused
		}
		if amount.IsZero() {
			return ErrInvalidAmount
		}

		account, err := resolveAccount(tx, caller)
		if err != nil {
			return err
		}

		if _, err := settleRewards(tx, ledger, account, time.Now()); err != nil {
			return err
		}

		if account.Balance.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}

		pool, err := resolveAccount(tx, StakingPoolAddress)
		if err != nil {
			return err
		}

		account.Balance = account.Balance.Sub(amount)
		pool.Balance = pool.Balance.Add(amount)

		account.StakedAmount = account.StakedAmount.Add(amount)
		checkpoint := time.Now()
		account.StakingStartTime = &checkpoint
		ledger.TotalStaked = ledger.TotalStaked.Add(amount)

		if err := saveAccount(tx, account); err != nil {
			return err
		}
		if err := saveAccount(tx, pool); err != nil {
			return err
		}
		return saveLedger(tx, ledger)
	})
	if err != nil {
		return err
	}

	dispatchNotification(caller, notificationStaked, map[string]interface{}{
		"address": caller,
		"amount":  amount.String(),
	})
	return nil
}

// Unstake releases amount of the caller's staked balance from the pool,
// settling pending rewards first; the accrual checkpoint moves only as a
// consequence of that settlement
func Unstake(caller string, amount *Amount) error {
	err := mutate(func(tx *gorm.DB) error {
		ledger, err := requireLedger(tx)
		if err != nil {
			return err
		}
		if ledger.Paused {
			return ErrLedgerPaused
		}
		if amount.IsZero() {
			return ErrInvalidAmount
		}

		account, err := resolveAccount(tx, caller)
		if err != nil {
			return err
		}
		if account.StakedAmount.Cmp(amount) < 0 {
			return ErrInsufficientStake
		}

		if _, err := settleRewards(tx, ledger, account, time.Now()); err != nil {
			return err
		}

		pool, err := resolveAccount(tx, StakingPoolAddress)
		if err != nil {
			return err
		}

		account.StakedAmount = account.StakedAmount.Sub(amount)
		ledger.TotalStaked = ledger.TotalStaked.Sub(amount)

		pool.Balance = pool.Balance.Sub(amount)
		account.Balance = account.Balance.Add(amount)

		if account.StakedAmount.IsZero() {
			account.StakingStartTime = nil
		}

		if err := saveAccount(tx, account); err != nil {
			return err
		}
		if err := saveAccount(tx, pool); err != nil {
			return err
		}
		return saveLedger(tx, ledger)
	})
	if err != nil {
		return err
	}

	dispatchNotification(caller, notificationUnstaked, map[string]interface{}{
		"address": caller,
		"amount":  amount.String(),
	})
	return nil
}

// ClaimRewards settles pending rewards to the caller without changing the
// staked amount; fails when the computed reward is zero
func ClaimRewards(caller string) error {
	var claimed *Amount

	err := mutate(func(tx *gorm.DB) error {
		ledger, err := requireLedger(tx)
		if err != nil {
			return err
		}
		if ledger.Paused {
			return ErrLedgerPaused
		}

		account, err := resolveAccount(tx, caller)
		if err != nil {
			return err
		}

		reward, err := settleRewards(tx, ledger, account, time.Now())
		if err != nil {
			return err
		}
		if reward.IsZero() {
			return ErrNoRewardsAvailable
		}
		claimed = reward

		if err := saveAccount(tx, account); err != nil {
			return err
		}
		return saveLedger(tx, ledger)
	})
	if err != nil {
		return err
	}

	dispatchNotification(caller, notificationRewardsClaimed, map[string]interface{}{
		"address": caller,
		"amount":  claimed.String(),
	})
	return nil
}

// CalculateRewards returns the unclaimed reward currently accrued for the
// given address; zero for addresses with no stake
func CalculateRewards(db *gorm.DB, address string) (*Amount, error) {
	if db == nil {
		db = dbconf.DatabaseConnection()
	}

	ledger, err := GetLedger(db)
	if err != nil {
		return nil, err
	}

	account := GetAccount(db, address)
	return pendingReward(ledger, account, time.Now()), nil
}
