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

package authz

import (
	"github.com/jinzhu/gorm"
	dbconf "github.com/kthomas/go-db-config"
	"github.com/nexusverse/core/common"
	provide "github.com/provideplatform/provide-go/api"
)

// RoleOwner may mint, pause, adjust the reward rate, revoke identities and
// manage the verifier set; it can never lose its verifier authorization
const RoleOwner = "owner"

// RoleVerifier may attest to the validity of registered identities
const RoleVerifier = "verifier"

// Role binds an address to a named role; the address→role set replaces the
// implicit module-level owner/verifier singletons of the originating system
type Role struct {
	provide.Model

	Address *string `sql:"not null" json:"address"`
	Role    *string `sql:"not null" json:"role"`
}

// TableName returns the table name for the model
func (r *Role) TableName() string {
	return "roles"
}

// Bootstrap upserts the configured owner address with the owner role and
// auto-authorizes it as a verifier
func Bootstrap(db *gorm.DB) error {
	owner := common.RequireOwnerAddress()

	for _, role := range []string{RoleOwner, RoleVerifier} {
		if HasRole(db, owner, role) {
			continue
		}
		if err := GrantRole(db, owner, role); err != nil {
			return err
		}
	}

	common.Log.Debugf("bootstrapped owner role assignments for address: %s", owner)
	return nil
}

// GrantRole assigns the given role to the given address within the given
// transaction context
func GrantRole(tx *gorm.DB, address, role string) error {
	assignment := &Role{
		Address: common.StringOrNil(address),
		Role:    common.StringOrNil(role),
	}

	result := tx.Create(&assignment)
	errors := result.GetErrors()
	if len(errors) > 0 {
		return errors[0]
	}

	return nil
}

// RevokeRole removes the given role assignment within the given transaction context
func RevokeRole(tx *gorm.DB, address, role string) error {
	result := tx.Where("address = ? AND role = ?", address, role).Delete(&Role{})
	errors := result.GetErrors()
	if len(errors) > 0 {
		return errors[0]
	}

	return nil
}

// HasRole returns true if the given address holds the given role
func HasRole(db *gorm.DB, address, role string) bool {
	if db == nil {
		db = dbconf.DatabaseConnection()
	}

	count := 0
	db.Model(&Role{}).Where("address = ? AND role = ?", address, role).Count(&count)
	return count > 0
}

// IsOwner returns true if the given address holds the owner role
func IsOwner(db *gorm.DB, address string) bool {
	return HasRole(db, address, RoleOwner)
}

// IsVerifier returns true if the given address holds the verifier role
func IsVerifier(db *gorm.DB, address string) bool {
	return HasRole(db, address, RoleVerifier)
}
