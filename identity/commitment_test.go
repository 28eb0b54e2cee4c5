package identity

import (
	"strings"
	"testing"
)

func TestCalculateCommitmentDeterministic(t *testing.T) {
	first := CalculateCommitment([]byte("test identity claim"))
	second := CalculateCommitment([]byte("test identity claim"))

	if first != second {
		t.Errorf("expected deterministic commitment; got %s and %s", first, second)
	}
}

func TestCalculateCommitmentDistinctPreimages(t *testing.T) {
	first := CalculateCommitment([]byte("claim one"))
	second := CalculateCommitment([]byte("claim two"))

	if first == second {
		t.Errorf("expected distinct commitments for distinct preimages; got %s", first)
	}
}

func TestCalculateCommitmentFormat(t *testing.T) {
	commitment := CalculateCommitment([]byte("test identity claim"))

	if !strings.HasPrefix(commitment, "0x") {
		t.Errorf("expected 0x-prefixed commitment; got %s", commitment)
	}

	// MiMC over BN254 yields a 32-byte digest
	if len(commitment) != 66 {
		t.Errorf("expected 66-character commitment; got %d characters", len(commitment))
	}
}
