package providers

import (
	"hash"

	gnarkhash "github.com/consensys/gnark-crypto/hash"
	dbconf "github.com/kthomas/go-db-config"
	uuid "github.com/kthomas/go.uuid"
	"github.com/nexusverse/core/audit/providers/dmt"
)

// TrailProviderDenseMerkleTree dense merkle tree trail provider
const TrailProviderDenseMerkleTree = "dmt"

// TrailProvider provides a common interface to interact with append-only
// audit trail storage facilities
type TrailProvider interface {
	Contains(val string) bool
	Height() int
	Insert(val string) (root []byte, err error)
	Root() (root *string, err error)
}

// InitDenseMerkleTreeTrailProvider initializes a durable dense merkle tree trail
func InitDenseMerkleTreeTrailProvider(id uuid.UUID) *dmt.Trail {
	return dmt.InitTrail(dbconf.DatabaseConnection(), id, hashFactory())
}

func hashFactory() hash.Hash {
	return gnarkhash.MIMC_BN254.New()
}
