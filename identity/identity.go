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

package identity

import (
	"encoding/json"
	"time"

	"github.com/jinzhu/gorm"
	dbconf "github.com/kthomas/go-db-config"
	redisutil "github.com/kthomas/go-redisutil"
	"github.com/nexusverse/core/audit"
	"github.com/nexusverse/core/authz"
	"github.com/nexusverse/core/common"
	provide "github.com/provideplatform/provide-go/api"
)

// registryLockKey serializes every mutating registry operation
const registryLockKey = "nexus.identity.registry.lock"

const verificationTrailName = "identity verification trail"

// Identity binds a self-asserted identity commitment to an address; one
// record per address, overwritten if the address registers again after
// revocation
type Identity struct {
	provide.Model

	Address      *string `sql:"not null" json:"address"`
	IdentityHash *string `sql:"not null" json:"identity_hash"`
	Metadata     *string `json:"metadata,omitempty"`
	IsVerified   bool    `sql:"not null;default:false" json:"is_verified"`
	IsActive     bool    `sql:"not null;default:true" json:"is_active"`
}

// TableName returns the table name for the model
func (i *Identity) TableName() string {
	return "identities"
}

// HashBinding is the reverse index from identity commitment to address,
// maintained transactionally with the identity row; the binding is deleted
// on revocation, which frees the commitment for reuse by a new registration
type HashBinding struct {
	provide.Model

	IdentityHash *string `sql:"not null" json:"identity_hash"`
	Address      *string `sql:"not null" json:"address"`
}

// TableName returns the table name for the model
func (b *HashBinding) TableName() string {
	return "identity_hash_bindings"
}

// VerificationRecord is an append-only audit entry for a verification
// attempt; records are never mutated or deleted
type VerificationRecord struct {
	provide.Model

	Address  *string `sql:"not null" json:"address"`
	Verifier *string `sql:"not null" json:"verifier"`
	IsValid  bool    `sql:"not null" json:"is_valid"`
	Reason   *string `json:"reason,omitempty"`
}

// TableName returns the table name for the model
func (r *VerificationRecord) TableName() string {
	return "verification_records"
}

// mutate runs fn inside a database transaction guarded by the registry-wide
// distributed lock; fn either fully applies or fully reverts
func mutate(fn func(tx *gorm.DB) error) error {
	return redisutil.WithRedlock(registryLockKey, func() error {
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

func resolveIdentity(tx *gorm.DB, address string) *Identity {
	ident := &Identity{}
	tx.Where("address = ?", address).Find(&ident)
	if ident.Address == nil {
		return nil
	}
	return ident
}

func saveIdentity(tx *gorm.DB, ident *Identity) error {
	if errs := tx.Save(&ident).GetErrors(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Register binds the given identity commitment to the caller address with an
// unverified, active identity and records the reverse-index mapping
func Register(caller, identityHash, metadata string) error {
	err := mutate(func(tx *gorm.DB) error {
		if common.IsZeroHash(identityHash) {
			return ErrInvalidHash
		}

		existing := resolveIdentity(tx, caller)
		if existing != nil && existing.IsActive {
			return ErrAlreadyRegistered
		}

		binding := &HashBinding{}
		tx.Where("identity_hash = ?", identityHash).Find(&binding)
		if binding.Address != nil {
			return ErrHashAlreadyUsed
		}

		if existing != nil {
			// re-registration after revocation overwrites the inactive record
			existing.IdentityHash = common.StringOrNil(identityHash)
			existing.Metadata = common.StringOrNil(metadata)
			existing.IsVerified = false
			existing.IsActive = true
			if err := saveIdentity(tx, existing); err != nil {
				return err
			}
		} else {
			ident := &Identity{
				Address:      common.StringOrNil(caller),
				IdentityHash: common.StringOrNil(identityHash),
				Metadata:     common.StringOrNil(metadata),
				IsVerified:   false,
				IsActive:     true,
			}
			if errs := tx.Create(&ident).GetErrors(); len(errs) > 0 {
				return errs[0]
			}
		}

		binding = &HashBinding{
			IdentityHash: common.StringOrNil(identityHash),
			Address:      common.StringOrNil(caller),
		}
		if errs := tx.Create(&binding).GetErrors(); len(errs) > 0 {
			return errs[0]
		}

		return nil
	})
	if err != nil {
		return err
	}

	dispatchNotification(caller, notificationRegistered, map[string]interface{}{
		"address":       caller,
		"identity_hash": identityHash,
	})
	return nil
}

// Verify records a verification outcome for the given user's identity;
// authorized-verifier-only. A true outcome is final; a false outcome leaves
// the identity eligible for further attempts
func Verify(verifier, user string, isValid bool, reason string) error {
	err := mutate(func(tx *gorm.DB) error {
		if !authz.IsVerifier(tx, verifier) {
			return ErrNotAuthorizedVerifier
		}

		ident := resolveIdentity(tx, user)
		if ident == nil || !ident.IsActive {
			return ErrIdentityNotFound
		}
		if ident.IsVerified {
			return ErrAlreadyVerified
		}

		ident.IsVerified = isValid
		if err := saveIdentity(tx, ident); err != nil {
			return err
		}

		record := &VerificationRecord{
			Address:  common.StringOrNil(user),
			Verifier: common.StringOrNil(verifier),
			IsValid:  isValid,
			Reason:   common.StringOrNil(reason),
		}
		if errs := tx.Create(&record).GetErrors(); len(errs) > 0 {
			return errs[0]
		}

		return nil
	})
	if err != nil {
		return err
	}

	appendVerificationTrail(user, verifier, isValid, reason)

	event := notificationVerified
	if !isValid {
		event = notificationRejected
	}
	dispatchNotification(user, event, map[string]interface{}{
		"address":  user,
		"verifier": verifier,
		"is_valid": isValid,
		"reason":   reason,
	})
	return nil
}

// Revoke deactivates the given user's identity and deletes the reverse-index
// binding; owner-only and irreversible through any registry operation
func Revoke(caller, user string) error {
	err := mutate(func(tx *gorm.DB) error {
		if !authz.IsOwner(tx, caller) {
			return ErrNotOwner
		}

		ident := resolveIdentity(tx, user)
		if ident == nil || !ident.IsActive {
			return ErrIdentityNotFound
		}

		ident.IsActive = false
		if err := saveIdentity(tx, ident); err != nil {
			return err
		}

		result := tx.Where("identity_hash = ?", *ident.IdentityHash).Delete(&HashBinding{})
		if errs := result.GetErrors(); len(errs) > 0 {
			return errs[0]
		}

		return nil
	})
	if err != nil {
		return err
	}

	dispatchNotification(user, notificationRevoked, map[string]interface{}{
		"address": user,
	})
	return nil
}

// UpdateMetadata replaces the caller's opaque metadata reference; the
// registry never dereferences or validates its content
func UpdateMetadata(caller, metadata string) error {
	err := mutate(func(tx *gorm.DB) error {
		ident := resolveIdentity(tx, caller)
		if ident == nil || !ident.IsActive {
			return ErrIdentityNotFound
		}

		ident.Metadata = common.StringOrNil(metadata)
		return saveIdentity(tx, ident)
	})
	if err != nil {
		return err
	}

	dispatchNotification(caller, notificationMetadataUpdated, map[string]interface{}{
		"address": caller,
	})
	return nil
}

// AuthorizeVerifier adds the given address to the verifier set; owner-only
func AuthorizeVerifier(caller, verifier string) error {
	err := mutate(func(tx *gorm.DB) error {
		if !authz.IsOwner(tx, caller) {
			return ErrNotOwner
		}
		if common.IsZeroAddress(verifier) {
			return ErrInvalidAddress
		}
		if authz.IsVerifier(tx, verifier) {
			return ErrAlreadyAuthorized
		}

		return authz.GrantRole(tx, verifier, authz.RoleVerifier)
	})
	if err != nil {
		return err
	}

	dispatchNotification(verifier, notificationVerifierAuthorized, map[string]interface{}{
		"verifier": verifier,
	})
	return nil
}

// RevokeVerifier removes the given address from the verifier set; owner-only,
// and the owner's own authorization can never be revoked
func RevokeVerifier(caller, verifier string) error {
	err := mutate(func(tx *gorm.DB) error {
		if !authz.IsOwner(tx, caller) {
			return ErrNotOwner
		}
		if common.IsZeroAddress(verifier) {
			return ErrInvalidAddress
		}
		if authz.IsOwner(tx, verifier) {
			return ErrCannotRevokeOwner
		}
		if !authz.IsVerifier(tx, verifier) {
			return ErrNotAuthorized
		}

		return authz.RevokeRole(tx, verifier, authz.RoleVerifier)
	})
	if err != nil {
		return err
	}

	dispatchNotification(verifier, notificationVerifierRevoked, map[string]interface{}{
		"verifier": verifier,
	})
	return nil
}

// GetIdentity returns the identity record for the given address, or nil when
// none exists
func GetIdentity(db *gorm.DB, address string) *Identity {
	if db == nil {
		db = dbconf.DatabaseConnection()
	}

	ident := &Identity{}
	db.Where("address = ?", address).Find(&ident)
	if ident.Address == nil {
		return nil
	}
	return ident
}

// HasVerifiedIdentity returns true if the given address holds an active,
// verified identity
func HasVerifiedIdentity(db *gorm.DB, address string) bool {
	ident := GetIdentity(db, address)
	return ident != nil && ident.IsActive && ident.IsVerified
}

// GetAddressByIdentityHash resolves the address currently bound to the given
// commitment, or nil when the commitment is unbound
func GetAddressByIdentityHash(db *gorm.DB, identityHash string) *string {
	if db == nil {
		db = dbconf.DatabaseConnection()
	}

	binding := &HashBinding{}
	db.Where("identity_hash = ?", identityHash).Find(&binding)
	return binding.Address
}

// GetVerificationCount returns the number of verification attempts recorded
// for the given address
func GetVerificationCount(db *gorm.DB, address string) int {
	if db == nil {
		db = dbconf.DatabaseConnection()
	}

	count := 0
	db.Model(&VerificationRecord{}).Where("address = ?", address).Count(&count)
	return count
}

// appendVerificationTrail anchors the verification attempt in the registry's
// merkle audit trail; trail failures are logged and never unwind the
// committed operation
func appendVerificationTrail(address, verifier string, isValid bool, reason string) {
	record, _ := json.Marshal(map[string]interface{}{
		"address":   address,
		"verifier":  verifier,
		"is_valid":  isValid,
		"reason":    reason,
		"timestamp": time.Now().Unix(),
	})

	if err := audit.Append(verificationTrailName, string(record)); err != nil {
		common.Log.Warningf("failed to append verification record to audit trail; %s", err.Error())
	}
}
