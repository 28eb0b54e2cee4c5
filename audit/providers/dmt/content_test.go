package dmt

import (
	"crypto/sha256"
	"encoding/json"
	"testing"
)

func TestTrailContentRoundTrip(t *testing.T) {
	content := newTrailContent(sha256.New(), "verification record")

	raw, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("failed to marshal anchored record; %s", err.Error())
	}

	restored := &trailContent{hash: sha256.New()}
	if err := json.Unmarshal(raw, restored); err != nil {
		t.Fatalf("failed to unmarshal anchored record; %s", err.Error())
	}

	equal, err := content.Equals(restored)
	if err != nil {
		t.Fatalf("failed to compare anchored records; %s", err.Error())
	}
	if !equal {
		t.Error("expected the restored record to hash to the same leaf")
	}
}

func TestTrailContentRequiresValue(t *testing.T) {
	if _, err := json.Marshal(newTrailContent(sha256.New(), "")); err == nil {
		t.Error("expected marshaling an empty record to fail")
	}
}

func TestTrailContentRequiresHash(t *testing.T) {
	content := &trailContent{value: []byte("verification record")}
	if _, err := content.CalculateHash(); err == nil {
		t.Error("expected hashing without a configured hash function to fail")
	}
}
