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
	"errors"

	"github.com/gin-gonic/gin"
	dbconf "github.com/kthomas/go-db-config"
	provide "github.com/provideplatform/provide-go/common"
	util "github.com/provideplatform/provide-go/common/util"
)

// InstallAPI registers the token ledger API handlers with gin
func InstallAPI(r *gin.Engine) {
	r.GET("/api/v1/ledger", ledgerDetailsHandler)
	r.GET("/api/v1/ledger/state", ledgerStateHandler)
	r.POST("/api/v1/ledger/transfer", transferHandler)
	r.POST("/api/v1/ledger/mint", mintHandler)
	r.POST("/api/v1/ledger/burn", burnHandler)
	r.POST("/api/v1/ledger/pause", pauseHandler)
	r.POST("/api/v1/ledger/unpause", unpauseHandler)
	r.POST("/api/v1/ledger/rate", updateRewardRateHandler)

	r.POST("/api/v1/staking/stake", stakeHandler)
	r.POST("/api/v1/staking/unstake", unstakeHandler)
	r.POST("/api/v1/staking/claim", claimRewardsHandler)
	r.GET("/api/v1/staking/rewards/:address", calculateRewardsHandler)

	r.GET("/api/v1/accounts", listAccountsHandler)
	r.GET("/api/v1/accounts/:address", accountDetailsHandler)
}

func authorized(c *gin.Context) bool {
	appID := util.AuthorizedSubjectID(c, "application")
	orgID := util.AuthorizedSubjectID(c, "organization")
	userID := util.AuthorizedSubjectID(c, "user")
	if appID == nil && orgID == nil && userID == nil {
		provide.RenderError("unauthorized", 401, c)
		return false
	}
	return true
}

// ledgerOpParams is the common payload for balance-mutating operations; the
// caller address is supplied by the hosting environment per its own
// authentication of the request
type ledgerOpParams struct {
	Address   string  `json:"address"`
	Recipient string  `json:"to"`
	Amount    *Amount `json:"amount"`
	Rate      *uint64 `json:"rate"`
}

func parseLedgerOpParams(c *gin.Context) *ledgerOpParams {
	buf, err := c.GetRawData()
	if err != nil {
		provide.RenderError(err.Error(), 400, c)
		return nil
	}

	params := &ledgerOpParams{}
	err = json.Unmarshal(buf, &params)
	if err != nil {
		provide.RenderError(err.Error(), 422, c)
		return nil
	}

	if params.Address == "" {
		provide.RenderError("caller address required", 422, c)
		return nil
	}

	return params
}

// renderLedgerError maps typed ledger errors onto HTTP statuses; every error
// aborted the entire operation with no partial state change
func renderLedgerError(err error, c *gin.Context) {
	switch {
	case errors.Is(err, ErrNotOwner):
		provide.RenderError(err.Error(), 403, c)
	case errors.Is(err, ErrLedgerPaused):
		provide.RenderError(err.Error(), 409, c)
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrInsufficientStake),
		errors.Is(err, ErrSupplyCapExceeded),
		errors.Is(err, ErrRateTooHigh),
		errors.Is(err, ErrNoRewardsAvailable):
		provide.RenderError(err.Error(), 422, c)
	default:
		provide.RenderError(err.Error(), 500, c)
	}
}

func ledgerDetailsHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	ledger, err := GetLedger(nil)
	if err != nil {
		provide.RenderError(err.Error(), 500, c)
		return
	}
	provide.Render(ledger, 200, c)
}

func ledgerStateHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	checkpoint, err := ExportState()
	if err != nil {
		provide.RenderError(err.Error(), 500, c)
		return
	}
	provide.Render(checkpoint, 200, c)
}

func transferHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseLedgerOpParams(c)
	if params == nil {
		return
	}
	if params.Recipient == "" {
		provide.RenderError("recipient address required", 422, c)
		return
	}
	if params.Amount == nil {
		provide.RenderError("amount required", 422, c)
		return
	}

	if err := Transfer(params.Address, params.Recipient, params.Amount); err != nil {
		renderLedgerError(err, c)
		return
	}

	provide.Render(nil, 204, c)
}

func mintHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseLedgerOpParams(c)
	if params == nil {
		return
	}
	if params.Recipient == "" {
		provide.RenderError("recipient address required", 422, c)
		return
	}
	if params.Amount == nil {
		provide.RenderError("amount required", 422, c)
		return
	}

	if err := Mint(params.Address, params.Recipient, params.Amount); err != nil {
		renderLedgerError(err, c)
		return
	}

	provide.Render(nil, 204, c)
}

func burnHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseLedgerOpParams(c)
	if params == nil {
		return
	}
	if params.Amount == nil {
		provide.RenderError("amount required", 422, c)
		return
	}

	if err := Burn(params.Address, params.Amount); err != nil {
		renderLedgerError(err, c)
		return
	}

	provide.Render(nil, 204, c)
}

func pauseHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseLedgerOpParams(c)
	if params == nil {
		return
	}

	if err := Pause(params.Address); err != nil {
		renderLedgerError(err, c)
		return
	}

	provide.Render(nil, 204, c)
}

func unpauseHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseLedgerOpParams(c)
	if params == nil {
		return
	}

	if err := Unpause(params.Address); err != nil {
		renderLedgerError(err, c)
		return
	}

	provide.Render(nil, 204, c)
}

func updateRewardRateHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseLedgerOpParams(c)
	if params == nil {
		return
	}
	if params.Rate == nil {
		provide.RenderError("rate required", 422, c)
		return
	}

	if err := UpdateRewardRate(params.Address, *params.Rate); err != nil {
		renderLedgerError(err, c)
		return
	}

	provide.Render(nil, 204, c)
}

func stakeHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseLedgerOpParams(c)
	if params == nil {
		return
	}
	if params.Amount == nil {
		provide.RenderError("amount required", 422, c)
		return
	}

	if err := Stake(params.Address, params.Amount); err != nil {
		renderLedgerError(err, c)
		return
	}

	provide.Render(nil, 204, c)
}

func unstakeHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseLedgerOpParams(c)
	if params == nil {
		return
	}
	if params.Amount == nil {
		provide.RenderError("amount required", 422, c)
		return
	}

	if err := Unstake(params.Address, params.Amount); err != nil {
		renderLedgerError(err, c)
		return
	}

	provide.Render(nil, 204, c)
}

func claimRewardsHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseLedgerOpParams(c)
	if params == nil {
		return
	}

	if err := ClaimRewards(params.Address); err != nil {
		renderLedgerError(err, c)
		return
	}

	provide.Render(nil, 204, c)
}

func calculateRewardsHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	reward, err := CalculateRewards(nil, c.Param("address"))
	if err != nil {
		provide.RenderError(err.Error(), 500, c)
		return
	}

	provide.Render(map[string]interface{}{
		"address": c.Param("address"),
		"rewards": reward.String(),
	}, 200, c)
}

func listAccountsHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	db := dbconf.DatabaseConnection()
	query := db.Order("accounts.created_at ASC")

	var accounts []*Account
	provide.Paginate(c, query, &Account{}).Find(&accounts)
	provide.Render(accounts, 200, c)
}

func accountDetailsHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	account := GetAccount(nil, c.Param("address"))
	provide.Render(account, 200, c)
}
