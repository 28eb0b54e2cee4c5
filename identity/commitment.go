package identity

import (
	"encoding/hex"

	mimc "github.com/consensys/gnark-crypto/hash"
)

// CalculateCommitment derives the identity commitment for the given preimage
// using MiMC over BN254; clients use this to produce the digest the registry
// binds to their address without revealing the underlying identity claim
func CalculateCommitment(preimage []byte) string {
	digest := mimc.MIMC_BN254.New()
	digest.Write(preimage)
	return "0x" + hex.EncodeToString(digest.Sum(nil))
}
