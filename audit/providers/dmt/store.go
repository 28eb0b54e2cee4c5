package dmt

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"sync"

	"github.com/jinzhu/gorm"
	uuid "github.com/kthomas/go.uuid"
	"github.com/nexusverse/core/common"
	"github.com/providenetwork/merkletree"
)

// Trail is a dense merkle tree over an append-only sequence of audit records,
// persisted to postgres on every insertion
type Trail struct {
	db     *gorm.DB
	hash   hash.Hash
	id     *uuid.UUID
	mutex  *sync.Mutex
	tree   *merkletree.MerkleTree
	values []merkletree.Content
}

// InitTrail initializes the dense merkle tree trail for the given store id,
// importing any previously persisted state
func InitTrail(db *gorm.DB, id uuid.UUID, h hash.Hash) *Trail {
	values, err := loadValues(db, id, h)
	if err != nil {
		common.Log.Warningf("failed to load audit trail %s; %s", id, err.Error())
		return nil
	}

	instance := &Trail{
		db:     db,
		hash:   h,
		id:     &id,
		mutex:  &sync.Mutex{},
		values: values,
	}

	if len(values) > 0 {
		tree, err := merkletree.NewTreeWithHashStrategy(values, func() hash.Hash {
			return h
		})
		if err != nil {
			common.Log.Warningf("failed to rebuild audit trail %s; %s", id, err.Error())
			return nil
		}

		valid, err := tree.VerifyTree()
		if err != nil || !valid {
			common.Log.Warningf("failed to verify imported audit trail %s", id)
			return nil
		}

		instance.tree = tree
		common.Log.Debugf("imported dense merkle tree for audit trail %s; root: %s", id, hex.EncodeToString(tree.MerkleRoot()))
	}

	return instance
}

// loadValues resolves the most recently persisted value set for the trail
func loadValues(db *gorm.DB, id uuid.UUID, h hash.Hash) ([]merkletree.Content, error) {
	values := make([]merkletree.Content, 0)

	rows, err := db.Raw(`SELECT "values" FROM trees WHERE store_id = ? ORDER BY id DESC LIMIT 1`, id).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve audit trail from store: %s; %s", id, err.Error())
	}
	defer rows.Close()

	for rows.Next() {
		var valuesRaw json.RawMessage
		err = rows.Scan(&valuesRaw)
		if err != nil {
			return nil, fmt.Errorf("failed to scan the store for audit trail; %s", err.Error())
		}

		var contents []*trailContent
		err = json.Unmarshal(valuesRaw, &contents)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal persisted audit trail values; %s", err.Error())
		}

		for _, tc := range contents {
			tc.hash = h
			values = append(values, tc)
		}
	}

	return values, nil
}

// commit persists the current state of the trail to the database
func (s *Trail) commit() error {
	values, _ := json.Marshal(s.values)
	root := s.tree.MerkleRoot()

	db := s.db.Exec(`INSERT INTO trees (store_id, "values", root) VALUES (?, ?, ?)`, s.id, values, hex.EncodeToString(root))
	if db.RowsAffected == 0 {
		return fmt.Errorf("failed to persist audit trail values for store: %s", s.id)
	}

	return nil
}

// Contains returns true if the given value has been anchored in the trail
func (s *Trail) Contains(val string) bool {
	if s.tree == nil {
		return false
	}

	incl, err := s.tree.VerifyContent(newTrailContent(s.hash, val))
	if err != nil {
		return false
	}
	return incl
}

// Height returns the number of anchored records
func (s *Trail) Height() int {
	return len(s.values)
}

// Insert anchors the given value in the trail and returns the new root
func (s *Trail) Insert(val string) (root []byte, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.values = append(s.values, newTrailContent(s.hash, val))

	if s.tree == nil {
		s.tree, err = merkletree.NewTreeWithHashStrategy(s.values, func() hash.Hash {
			return s.hash
		})
		if err != nil {
			return nil, err
		}
	} else {
		err = s.tree.RebuildTreeWith(s.values)
		if err != nil {
			return nil, err
		}
	}

	err = s.commit()
	if err != nil {
		return nil, err
	}

	return s.tree.MerkleRoot(), nil
}

// Root returns the current merkle root of the trail
func (s *Trail) Root() (root *string, err error) {
	if s.tree == nil || s.tree.MerkleRoot() == nil || len(s.tree.MerkleRoot()) == 0 {
		return nil, errors.New("trail does not contain a valid root")
	}
	return common.StringOrNil(hex.EncodeToString(s.tree.MerkleRoot())), nil
}
