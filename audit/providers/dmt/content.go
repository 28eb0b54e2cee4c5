package dmt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"hash"

	"github.com/providenetwork/merkletree"
)

// trailContent is a single anchored audit record; the raw record bytes are
// persisted alongside the tree so the trail can be rebuilt and re-verified on
// import, and leaves are hashed with the trail's configured hash function
type trailContent struct {
	hash  hash.Hash
	value []byte
}

// contentEnvelope is the persisted JSON form of an anchored record
type contentEnvelope struct {
	Value string `json:"value"`
}

func newTrailContent(h hash.Hash, val string) *trailContent {
	return &trailContent{
		hash:  h,
		value: []byte(val),
	}
}

// CalculateHash returns the leaf hash of the anchored record
func (tc *trailContent) CalculateHash() ([]byte, error) {
	if tc.hash == nil {
		return nil, errors.New("anchored record requires a configured hash function")
	}
	tc.hash.Reset()
	tc.hash.Write(tc.value)
	return tc.hash.Sum(nil), nil
}

// Equals returns true if the given content hashes to the same leaf
func (tc *trailContent) Equals(other merkletree.Content) (bool, error) {
	h0, err := tc.CalculateHash()
	if err != nil {
		return false, err
	}

	h1, err := other.CalculateHash()
	if err != nil {
		return false, err
	}

	return bytes.Equal(h0, h1), nil
}

func (tc *trailContent) MarshalJSON() ([]byte, error) {
	if len(tc.value) == 0 {
		return nil, errors.New("failed to marshal anchored record without a value")
	}

	return json.Marshal(&contentEnvelope{
		Value: base64.RawStdEncoding.EncodeToString(tc.value),
	})
}

func (tc *trailContent) UnmarshalJSON(raw []byte) error {
	envelope := &contentEnvelope{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return err
	}
	if envelope.Value == "" {
		return errors.New("failed to unmarshal anchored record without a value")
	}

	value, err := base64.RawStdEncoding.DecodeString(envelope.Value)
	if err != nil {
		return err
	}

	tc.value = value
	return nil
}
