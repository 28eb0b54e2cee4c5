package providers

import (
	"bytes"
	"testing"
)

func TestHashFactory(t *testing.T) {
	h := hashFactory()
	h.Write([]byte("supply trail record"))
	digest := h.Sum(nil)

	// MiMC over BN254 yields a 32-byte digest
	if len(digest) != 32 {
		t.Errorf("expected a 32-byte digest; got %d bytes", len(digest))
	}

	h.Reset()
	h.Write([]byte("supply trail record"))
	if !bytes.Equal(digest, h.Sum(nil)) {
		t.Error("expected deterministic digests for identical input")
	}
}
