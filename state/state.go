package state

import uuid "github.com/kthomas/go.uuid"

// State is a point-in-time checkpoint of the ledger's global accounting
// state, optionally anchored to the supply audit trail root current at the
// time of export
type State struct {
	ID    uuid.UUID `json:"id"`
	Epoch uint64    `json:"epoch"`

	TotalSupply *string `json:"total_supply"`
	TotalStaked *string `json:"total_staked"`
	RewardRate  uint64  `json:"reward_rate"`
	Paused      bool    `json:"paused"`

	AuditRoot *string `json:"audit_root,omitempty"`
}
