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
	"errors"

	"github.com/gin-gonic/gin"
	dbconf "github.com/kthomas/go-db-config"
	"github.com/nexusverse/core/authz"
	provide "github.com/provideplatform/provide-go/common"
	util "github.com/provideplatform/provide-go/common/util"
)

// InstallAPI registers the identity registry API handlers with gin
func InstallAPI(r *gin.Engine) {
	r.GET("/api/v1/identities", listIdentitiesHandler)
	r.POST("/api/v1/identities", registerIdentityHandler)
	r.GET("/api/v1/identities/:address", identityDetailsHandler)
	r.POST("/api/v1/identities/:address/verify", verifyIdentityHandler)
	r.POST("/api/v1/identities/:address/revoke", revokeIdentityHandler)
	r.PUT("/api/v1/identities/:address/metadata", updateMetadataHandler)
	r.GET("/api/v1/identities/:address/verifications", verificationHistoryHandler)
	r.GET("/api/v1/identities/hash/:hash", addressByHashHandler)
	r.POST("/api/v1/identities/commitment", calculateCommitmentHandler)

	r.POST("/api/v1/verifiers", authorizeVerifierHandler)
	r.POST("/api/v1/verifiers/:address/revoke", revokeVerifierHandler)
	r.GET("/api/v1/verifiers/:address", verifierDetailsHandler)
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

type registryOpParams struct {
	Address      string `json:"address"`
	IdentityHash string `json:"identity_hash"`
	Metadata     string `json:"metadata"`
	Verifier     string `json:"verifier"`
	IsValid      *bool  `json:"is_valid"`
	Reason       string `json:"reason"`
	Preimage     string `json:"preimage"`
}

func parseRegistryOpParams(c *gin.Context) *registryOpParams {
	buf, err := c.GetRawData()
	if err != nil {
		provide.RenderError(err.Error(), 400, c)
		return nil
	}

	params := &registryOpParams{}
	err = json.Unmarshal(buf, &params)
	if err != nil {
		provide.RenderError(err.Error(), 422, c)
		return nil
	}

	return params
}

// renderRegistryError maps typed registry errors onto HTTP statuses
func renderRegistryError(err error, c *gin.Context) {
	switch {
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrNotAuthorizedVerifier), errors.Is(err, ErrCannotRevokeOwner):
		provide.RenderError(err.Error(), 403, c)
	case errors.Is(err, ErrIdentityNotFound):
		provide.RenderError(err.Error(), 404, c)
	case errors.Is(err, ErrAlreadyRegistered), errors.Is(err, ErrAlreadyVerified),
		errors.Is(err, ErrAlreadyAuthorized), errors.Is(err, ErrHashAlreadyUsed):
		provide.RenderError(err.Error(), 409, c)
	case errors.Is(err, ErrInvalidHash), errors.Is(err, ErrInvalidAddress), errors.Is(err, ErrNotAuthorized):
		provide.RenderError(err.Error(), 422, c)
	default:
		provide.RenderError(err.Error(), 500, c)
	}
}

func listIdentitiesHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	db := dbconf.DatabaseConnection()
	query := db.Order("identities.created_at ASC")

	var identities []*Identity
	provide.Paginate(c, query, &Identity{}).Find(&identities)
	provide.Render(identities, 200, c)
}

func registerIdentityHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseRegistryOpParams(c)
	if params == nil {
		return
	}
	if params.Address == "" {
		provide.RenderError("caller address required", 422, c)
		return
	}

	if err := Register(params.Address, params.IdentityHash, params.Metadata); err != nil {
		renderRegistryError(err, c)
		return
	}

	provide.Render(GetIdentity(nil, params.Address), 201, c)
}

func identityDetailsHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	ident := GetIdentity(nil, c.Param("address"))
	if ident == nil {
		provide.RenderError("identity not found", 404, c)
		return
	}
	provide.Render(ident, 200, c)
}

func verifyIdentityHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseRegistryOpParams(c)
	if params == nil {
		return
	}
	if params.Verifier == "" {
		provide.RenderError("verifier address required", 422, c)
		return
	}
	if params.IsValid == nil {
		provide.RenderError("verification outcome required", 422, c)
		return
	}

	if err := Verify(params.Verifier, c.Param("address"), *params.IsValid, params.Reason); err != nil {
		renderRegistryError(err, c)
		return
	}

	provide.Render(nil, 204, c)
}

func revokeIdentityHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseRegistryOpParams(c)
	if params == nil {
		return
	}
	if params.Address == "" {
		provide.RenderError("caller address required", 422, c)
		return
	}

	if err := Revoke(params.Address, c.Param("address")); err != nil {
		renderRegistryError(err, c)
		return
	}

	provide.Render(nil, 204, c)
}

func updateMetadataHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseRegistryOpParams(c)
	if params == nil {
		return
	}

	if err := UpdateMetadata(c.Param("address"), params.Metadata); err != nil {
		renderRegistryError(err, c)
		return
	}

	provide.Render(nil, 204, c)
}

func verificationHistoryHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	db := dbconf.DatabaseConnection()
	query := db.Where("address = ?", c.Param("address")).Order("verification_records.created_at ASC")

	var records []*VerificationRecord
	provide.Paginate(c, query, &VerificationRecord{}).Find(&records)
	provide.Render(records, 200, c)
}

func addressByHashHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	address := GetAddressByIdentityHash(nil, c.Param("hash"))
	if address == nil {
		provide.RenderError("identity hash not bound", 404, c)
		return
	}

	provide.Render(map[string]interface{}{
		"identity_hash": c.Param("hash"),
		"address":       address,
	}, 200, c)
}

func calculateCommitmentHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseRegistryOpParams(c)
	if params == nil {
		return
	}
	if params.Preimage == "" {
		provide.RenderError("preimage required", 422, c)
		return
	}

	provide.Render(map[string]interface{}{
		"identity_hash": CalculateCommitment([]byte(params.Preimage)),
	}, 200, c)
}

func authorizeVerifierHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseRegistryOpParams(c)
	if params == nil {
		return
	}
	if params.Address == "" {
		provide.RenderError("caller address required", 422, c)
		return
	}

	if err := AuthorizeVerifier(params.Address, params.Verifier); err != nil {
		renderRegistryError(err, c)
		return
	}

	provide.Render(nil, 204, c)
}

func revokeVerifierHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	params := parseRegistryOpParams(c)
	if params == nil {
		return
	}
	if params.Address == "" {
		provide.RenderError("caller address required", 422, c)
		return
	}

	if err := RevokeVerifier(params.Address, c.Param("address")); err != nil {
		renderRegistryError(err, c)
		return
	}

	provide.Render(nil, 204, c)
}

func verifierDetailsHandler(c *gin.Context) {
	if !authorized(c) {
		return
	}

	provide.Render(map[string]interface{}{
		"address":    c.Param("address"),
		"authorized": authz.IsVerifier(nil, c.Param("address")),
	}, 200, c)
}
