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
	"encoding/json"
	"time"

	"github.com/jinzhu/gorm"
	dbconf "github.com/kthomas/go-db-config"
	redisutil "github.com/kthomas/go-redisutil"
	"github.com/nexusverse/core/audit"
	"github.com/nexusverse/core/authz"
	"github.com/nexusverse/core/common"
	"github.com/nexusverse/core/state"
	provide "github.com/provideplatform/provide-go/api"
)

// StakingPoolAddress is the reserved ledger-owned account that physically
// holds all staked balances; total_staked must equal the staking-contributed
// portion of its balance at all times
const StakingPoolAddress = "0x0000000000000000000000000000000000000001"

// maxRewardRateBps caps the annual staking reward rate at 10%
const maxRewardRateBps = uint64(1000)

// ledgerLockKey serializes every mutating ledger operation; the execution
// model is single-writer, so intermediate states are never observable
const ledgerLockKey = "nexus.token.ledger.lock"

const supplyTrailName = "token supply trail"

// Ledger is the singleton global accounting state
type Ledger struct {
	provide.Model

	TotalSupply *Amount `sql:"not null;type:numeric(78)" json:"total_supply"`
	TotalStaked *Amount `sql:"not null;type:numeric(78)" json:"total_staked"`
	RewardRate  uint64  `sql:"not null;default:0" json:"reward_rate"`
	Paused      bool    `sql:"not null;default:false" json:"paused"`
}

// TableName returns the table name for the model
func (l *Ledger) TableName() string {
	return "ledgers"
}

// Account is an address-keyed balance entry; rows are created implicitly on
// first balance-affecting operation and only ever zeroed, never deleted
type Account struct {
	provide.Model

	Address          *string    `sql:"not null" json:"address"`
	Balance          *Amount    `sql:"not null;type:numeric(78)" json:"balance"`
	StakedAmount     *Amount    `sql:"not null;type:numeric(78)" json:"staked_amount"`
	StakingStartTime *time.Time `json:"staking_start_time,omitempty"`
}

// TableName returns the table name for the model
func (a *Account) TableName() string {
	return "accounts"
}

// mutate runs fn inside a database transaction guarded by the ledger-wide
// distributed lock; fn either fully applies or fully reverts
func mutate(fn func(tx *gorm.DB) error) error {
	return redisutil.WithRedlock(ledgerLockKey, func() error {
		tx := dbconf.DatabaseConnection().Begin()
		if errs := tx.GetErrors(); len(errs) > 0 {
			return errs[0]
		}

		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}

		if errs := tx.Commit().GetErrors(); len(errs) > 0 {
			return errs[0]
		}

		return nil
	})
}

// requireLedger resolves the singleton ledger row for update within the
// given transaction
func requireLedger(tx *gorm.DB) (*Ledger, error) {
	ledger := &Ledger{}
	result := tx.Set("gorm:query_option", "FOR UPDATE").First(&ledger)
	if errs := result.GetErrors(); len(errs) > 0 {
		return nil, errs[0]
	}
	return ledger, nil
}

// resolveAccount loads the account for the given address within the given
// transaction, creating a zeroed entry on first use
func resolveAccount(tx *gorm.DB, address string) (*Account, error) {
	account := &Account{}
	tx.Set("gorm:query_option", "FOR UPDATE").Where("address = ?", address).Find(&account)
	if account.Address != nil {
		return account, nil
	}

	account = &Account{
		Address:      common.StringOrNil(address),
		Balance:      NewAmount(nil),
		StakedAmount: NewAmount(nil),
	}
	result := tx.Create(&account)
	if errs := result.GetErrors(); len(errs) > 0 {
		return nil, errs[0]
	}

	common.Log.Debugf("initialized ledger account for address: %s", address)
	return account, nil
}

func saveAccount(tx *gorm.DB, account *Account) error {
	if errs := tx.Save(&account).GetErrors(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func saveLedger(tx *gorm.DB, ledger *Ledger) error {
	if errs := tx.Save(&ledger).GetErrors(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Transfer moves amount from the sender to the recipient; blocked entirely
// while the ledger is paused
func Transfer(sender, recipient string, amount *Amount) error {
	err := mutate(func(tx *gorm.DB) error {
		ledger, err := requireLedger(tx)
		if err != nil {
			return err
		}
		if ledger.Paused {
			return ErrLedgerPaused
		}

		from, err := resolveAccount(tx, sender)
		if err != nil {
			return err
		}
		if from.Balance.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}

		to, err := resolveAccount(tx, recipient)
		if err != nil {
			return err
		}

		from.Balance = from.Balance.Sub(amount)
		to.Balance = to.Balance.Add(amount)

		if err := saveAccount(tx, from); err != nil {
			return err
		}
		return saveAccount(tx, to)
	})
	if err != nil {
		return err
	}

	dispatchNotification(sender, notificationTransferred, map[string]interface{}{
		"from":   sender,
		"to":     recipient,
		"amount": amount.String(),
	})
	return nil
}

// Mint creates amount new tokens for the given recipient; owner-only and
// bounded by the supply cap. Minting remains available while paused
func Mint(caller, recipient string, amount *Amount) error {
	err := mutate(func(tx *gorm.DB) error {
		if !authz.IsOwner(tx, caller) {
			return ErrNotOwner
		}

		ledger, err := requireLedger(tx)
		if err != nil {
			return err
		}

		return mintUnchecked(tx, ledger, recipient, amount)
	})
	if err != nil {
		return err
	}

	appendSupplyTrail("mint", recipient, amount)
	dispatchNotification(recipient, notificationMinted, map[string]interface{}{
		"to":     recipient,
		"amount": amount.String(),
	})
	return nil
}

// mintUnchecked applies a cap-checked mint to the given account without any
// authorization check; callers gate access
func mintUnchecked(tx *gorm.DB, ledger *Ledger, recipient string, amount *Amount) error {
	supply := ledger.TotalSupply.Add(amount)
	if supply.BigInt().Cmp(MaxSupply) > 0 {
		return ErrSupplyCapExceeded
	}

	account, err := resolveAccount(tx, recipient)
	if err != nil {
		return err
	}

	account.Balance = account.Balance.Add(amount)
	ledger.TotalSupply = supply

	if err := saveAccount(tx, account); err != nil {
		return err
	}
	return saveLedger(tx, ledger)
}

// Burn destroys amount of the caller's tokens, decreasing total supply
func Burn(caller string, amount *Amount) error {
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
		if account.Balance.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}

		account.Balance = account.Balance.Sub(amount)
		ledger.TotalSupply = ledger.TotalSupply.Sub(amount)

		if err := saveAccount(tx, account); err != nil {
			return err
		}
		return saveLedger(tx, ledger)
	})
	if err != nil {
		return err
	}

	appendSupplyTrail("burn", caller, amount)
	dispatchNotification(caller, notificationBurned, map[string]interface{}{
		"from":   caller,
		"amount": amount.String(),
	})
	return nil
}

// Pause halts all balance-mutating operations; owner-only. The flag is not
// guarded against redundant toggles beyond its own semantics
func Pause(caller string) error {
	return setPaused(caller, true)
}

// Unpause resumes balance-mutating operations; owner-only
func Unpause(caller string) error {
	return setPaused(caller, false)
}

func setPaused(caller string, paused bool) error {
	err := mutate(func(tx *gorm.DB) error {
		if !authz.IsOwner(tx, caller) {
			return ErrNotOwner
		}

		ledger, err := requireLedger(tx)
		if err != nil {
			return err
		}

		ledger.Paused = paused
		return saveLedger(tx, ledger)
	})
	if err != nil {
		return err
	}

	event := notificationPaused
	if !paused {
		event = notificationUnpaused
	}
	dispatchNotification(caller, event, map[string]interface{}{})
	return nil
}

// UpdateRewardRate sets the annual staking reward rate in basis points;
// owner-only, capped at 1000 (10%)
func UpdateRewardRate(caller string, rate uint64) error {
	err := mutate(func(tx *gorm.DB) error {
		if !authz.IsOwner(tx, caller) {
			return ErrNotOwner
		}
		if rate > maxRewardRateBps {
			return ErrRateTooHigh
		}

		ledger, err := requireLedger(tx)
		if err != nil {
			return err
		}

		ledger.RewardRate = rate
		return saveLedger(tx, ledger)
	})
	if err != nil {
		return err
	}

	dispatchNotification(caller, notificationRateUpdated, map[string]interface{}{
		"reward_rate": rate,
	})
	return nil
}

// GetLedger returns the singleton ledger state
func GetLedger(db *gorm.DB) (*Ledger, error) {
	if db == nil {
		db = dbconf.DatabaseConnection()
	}

	ledger := &Ledger{}
	result := db.First(&ledger)
	if errs := result.GetErrors(); len(errs) > 0 {
		return nil, errs[0]
	}
	return ledger, nil
}

// GetAccount returns the account for the given address, or a zeroed view for
// addresses the ledger has never seen
func GetAccount(db *gorm.DB, address string) *Account {
	if db == nil {
		db = dbconf.DatabaseConnection()
	}

	account := &Account{}
	db.Where("address = ?", address).Find(&account)
	if account.Address == nil {
		account.Address = common.StringOrNil(address)
		account.Balance = NewAmount(nil)
		account.StakedAmount = NewAmount(nil)
	}
	return account
}

// ExportState returns a point-in-time checkpoint of the global accounting
// state, anchored to the current supply trail root when one exists
func ExportState() (*state.State, error) {
	ledger, err := GetLedger(nil)
	if err != nil {
		return nil, err
	}

	checkpoint := &state.State{
		ID:          ledger.ID,
		Epoch:       uint64(time.Now().Unix()),
		TotalSupply: common.StringOrNil(ledger.TotalSupply.String()),
		TotalStaked: common.StringOrNil(ledger.TotalStaked.String()),
		RewardRate:  ledger.RewardRate,
		Paused:      ledger.Paused,
	}

	if trail := audit.ResolveTrail(supplyTrailName); trail != nil {
		if root, err := trail.Root(); err == nil {
			checkpoint.AuditRoot = root
		}
	}

	return checkpoint, nil
}

// appendSupplyTrail anchors a supply-changing operation in the append-only
// supply audit trail; the owning transaction has already committed, so trail
// failures are logged and never unwind ledger state
func appendSupplyTrail(operation, address string, amount *Amount) {
	record, _ := json.Marshal(map[string]interface{}{
		"operation": operation,
		"address":   address,
		"amount":    amount.String(),
		"timestamp": time.Now().Unix(),
	})

	if err := audit.Append(supplyTrailName, string(record)); err != nil {
		common.Log.Warningf("failed to append %s record to supply trail; %s", operation, err.Error())
	}
}
