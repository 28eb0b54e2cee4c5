// +build integration

package identity

import (
	"fmt"
	"sync"
	"testing"

	dbconf "github.com/kthomas/go-db-config"
	redisutil "github.com/kthomas/go-redisutil"

	"github.com/nexusverse/core/authz"
	"github.com/nexusverse/core/common"
)

var bootstrapOnce sync.Once

func requireOwner(t *testing.T) string {
	bootstrapOnce.Do(func() {
		redisutil.RequireRedis()
		if err := authz.Bootstrap(dbconf.DatabaseConnection()); err != nil {
			t.Fatalf("failed to bootstrap authorization roles; %s", err.Error())
		}
	})
	return common.RequireOwnerAddress()
}

func addressFactory() string {
	return "0x" + common.SHA256(common.RandomString(32))[0:40]
}

func hashFactory() string {
	return CalculateCommitment([]byte(common.RandomString(32)))
}

func verifierFactory(t *testing.T) string {
	owner := requireOwner(t)
	verifier := addressFactory()
	if err := AuthorizeVerifier(owner, verifier); err != nil {
		t.Fatalf("failed to authorize verifier; %s", err.Error())
	}
	return verifier
}

func TestRegisterIdentity(t *testing.T) {
	requireOwner(t)
	user := addressFactory()
	hash := hashFactory()

	if err := Register(user, hash, `{"display_name":"alice"}`); err != nil {
		t.Fatalf("failed to register identity; %s", err.Error())
	}

	ident := GetIdentity(dbconf.DatabaseConnection(), user)
	if ident == nil {
		t.Fatal("expected a registered identity")
	}
	if ident.IdentityHash == nil || *ident.IdentityHash != hash {
		t.Error("expected the registered identity to carry its commitment")
	}
	if ident.IsVerified {
		t.Error("expected a fresh registration to be unverified")
	}

	bound := GetAddressByIdentityHash(dbconf.DatabaseConnection(), hash)
	if bound == nil || *bound != user {
		t.Error("expected the commitment to resolve back to the registrant")
	}
}

func TestRegisterRejectsZeroHash(t *testing.T) {
	requireOwner(t)

	if err := Register(addressFactory(), common.ZeroHash, ""); err != ErrInvalidHash {
		t.Errorf("expected ErrInvalidHash; got %v", err)
	}
	if err := Register(addressFactory(), "", ""); err != ErrInvalidHash {
		t.Errorf("expected ErrInvalidHash; got %v", err)
	}
}

func TestRegisterRejectsDuplicateAddress(t *testing.T) {
	requireOwner(t)
	user := addressFactory()

	if err := Register(user, hashFactory(), ""); err != nil {
		t.Fatalf("failed to register identity; %s", err.Error())
	}
	if err := Register(user, hashFactory(), ""); err != ErrAlreadyRegistered {
		t.Errorf("expected ErrAlreadyRegistered; got %v", err)
	}
}

func TestRegisterRejectsBoundHash(t *testing.T) {
	requireOwner(t)
	hash := hashFactory()
	latecomer := addressFactory()

	if err := Register(addressFactory(), hash, ""); err != nil {
		t.Fatalf("failed to register identity; %s", err.Error())
	}
	if err := Register(latecomer, hash, ""); err != ErrHashAlreadyUsed {
		t.Errorf("expected ErrHashAlreadyUsed; got %v", err)
	}
	if GetIdentity(dbconf.DatabaseConnection(), latecomer) != nil {
		t.Error("expected the rejected registration to leave no identity behind")
	}
}

func TestVerifyIdentity(t *testing.T) {
	verifier := verifierFactory(t)
	user := addressFactory()

	if err := Register(user, hashFactory(), ""); err != nil {
		t.Fatalf("failed to register identity; %s", err.Error())
	}

	if err := Verify(verifier, user, true, "documents checked"); err != nil {
		t.Fatalf("failed to verify identity; %s", err.Error())
	}

	if !HasVerifiedIdentity(dbconf.DatabaseConnection(), user) {
		t.Error("expected the identity to be verified")
	}
	if GetVerificationCount(dbconf.DatabaseConnection(), user) != 1 {
		t.Error("expected a single verification record")
	}
}

func TestVerifyRequiresAuthorizedVerifier(t *testing.T) {
	requireOwner(t)
	user := addressFactory()

	if err := Register(user, hashFactory(), ""); err != nil {
		t.Fatalf("failed to register identity; %s", err.Error())
	}

	if err := Verify(addressFactory(), user, true, ""); err != ErrNotAuthorizedVerifier {
		t.Errorf("expected ErrNotAuthorizedVerifier; got %v", err)
	}
	if HasVerifiedIdentity(dbconf.DatabaseConnection(), user) {
		t.Error("expected the rejected attempt to leave the identity unverified")
	}
}

func TestVerifyUnknownIdentity(t *testing.T) {
	verifier := verifierFactory(t)

	if err := Verify(verifier, addressFactory(), true, ""); err != ErrIdentityNotFound {
		t.Errorf("expected ErrIdentityNotFound; got %v", err)
	}
}

func TestRejectedVerificationRemainsRetryable(t *testing.T) {
	verifier := verifierFactory(t)
	user := addressFactory()

	if err := Register(user, hashFactory(), ""); err != nil {
		t.Fatalf("failed to register identity; %s", err.Error())
	}

	if err := Verify(verifier, user, false, "documents expired"); err != nil {
		t.Fatalf("failed to record rejection; %s", err.Error())
	}
	if HasVerifiedIdentity(dbconf.DatabaseConnection(), user) {
		t.Error("expected a rejected identity to remain unverified")
	}

	// a rejection leaves the identity eligible for another attempt
	if err := Verify(verifier, user, true, "documents renewed"); err != nil {
		t.Fatalf("failed to verify after rejection; %s", err.Error())
	}
	if !HasVerifiedIdentity(dbconf.DatabaseConnection(), user) {
		t.Error("expected the identity to be verified on retry")
	}
	if GetVerificationCount(dbconf.DatabaseConnection(), user) != 2 {
		t.Error("expected both verification attempts in the audit trail")
	}
}

func TestVerifyAlreadyVerified(t *testing.T) {
	verifier := verifierFactory(t)
	user := addressFactory()

	if err := Register(user, hashFactory(), ""); err != nil {
		t.Fatalf("failed to register identity; %s", err.Error())
	}
	if err := Verify(verifier, user, true, ""); err != nil {
		t.Fatalf("failed to verify identity; %s", err.Error())
	}

	if err := Verify(verifier, user, true, ""); err != ErrAlreadyVerified {
		t.Errorf("expected ErrAlreadyVerified; got %v", err)
	}
}

func TestRevokeIdentityFreesHash(t *testing.T) {
	owner := requireOwner(t)
	user := addressFactory()
	hash := hashFactory()

	if err := Register(user, hash, ""); err != nil {
		t.Fatalf("failed to register identity; %s", err.Error())
	}

	if err := Revoke(addressFactory(), user); err != ErrNotOwner {
		t.Errorf("expected ErrNotOwner; got %v", err)
	}

	if err := Revoke(owner, user); err != nil {
		t.Fatalf("failed to revoke identity; %s", err.Error())
	}

	ident := GetIdentity(dbconf.DatabaseConnection(), user)
	if ident == nil || ident.IsActive {
		t.Error("expected the revoked identity to be deactivated")
	}
	if HasVerifiedIdentity(dbconf.DatabaseConnection(), user) {
		t.Error("expected a revoked identity to lose verified standing")
	}
	if GetAddressByIdentityHash(dbconf.DatabaseConnection(), hash) != nil {
		t.Error("expected revocation to release the commitment binding")
	}

	// the released commitment is usable by a new registrant
	if err := Register(addressFactory(), hash, ""); err != nil {
		t.Errorf("expected the released commitment to be registrable; got %v", err)
	}

	// the revoked address itself may re-register
	if err := Register(user, hashFactory(), ""); err != nil {
		t.Errorf("expected the revoked address to re-register; got %v", err)
	}
}

func TestUpdateMetadata(t *testing.T) {
	requireOwner(t)
	user := addressFactory()

	if err := UpdateMetadata(user, "{}"); err != ErrIdentityNotFound {
		t.Errorf("expected ErrIdentityNotFound; got %v", err)
	}

	if err := Register(user, hashFactory(), `{"display_name":"alice"}`); err != nil {
		t.Fatalf("failed to register identity; %s", err.Error())
	}
	if err := UpdateMetadata(user, `{"display_name":"alice v2"}`); err != nil {
		t.Fatalf("failed to update metadata; %s", err.Error())
	}

	ident := GetIdentity(dbconf.DatabaseConnection(), user)
	if ident == nil || ident.Metadata == nil || *ident.Metadata != `{"display_name":"alice v2"}` {
		t.Error("expected updated metadata on the identity")
	}
}

func TestVerifierLifecycle(t *testing.T) {
	owner := requireOwner(t)
	verifier := addressFactory()

	if err := AuthorizeVerifier(addressFactory(), verifier); err != ErrNotOwner {
		t.Errorf("expected ErrNotOwner; got %v", err)
	}
	if err := AuthorizeVerifier(owner, fmt.Sprintf("0x%040d", 0)); err != ErrInvalidAddress {
		t.Errorf("expected ErrInvalidAddress; got %v", err)
	}

	if err := AuthorizeVerifier(owner, verifier); err != nil {
		t.Fatalf("failed to authorize verifier; %s", err.Error())
	}
	if err := AuthorizeVerifier(owner, verifier); err != ErrAlreadyAuthorized {
		t.Errorf("expected ErrAlreadyAuthorized; got %v", err)
	}
	if !authz.IsVerifier(dbconf.DatabaseConnection(), verifier) {
		t.Error("expected the verifier role to be granted")
	}

	if err := RevokeVerifier(owner, verifier); err != nil {
		t.Fatalf("failed to revoke verifier; %s", err.Error())
	}
	if authz.IsVerifier(dbconf.DatabaseConnection(), verifier) {
		t.Error("expected the verifier role to be revoked")
	}
	if err := RevokeVerifier(owner, verifier); err != ErrNotAuthorized {
		t.Errorf("expected ErrNotAuthorized; got %v", err)
	}
}

func TestOwnerVerifierIrrevocable(t *testing.T) {
	owner := requireOwner(t)

	if err := RevokeVerifier(owner, owner); err != ErrCannotRevokeOwner {
		t.Errorf("expected ErrCannotRevokeOwner; got %v", err)
	}
	if !authz.IsVerifier(dbconf.DatabaseConnection(), owner) {
		t.Error("expected the owner to retain the verifier role")
	}
}
