package audit

import (
	dbconf "github.com/kthomas/go-db-config"
	uuid "github.com/kthomas/go.uuid"
	trailstorage "github.com/nexusverse/core/audit/providers"
	"github.com/nexusverse/core/common"
	provide "github.com/provideplatform/provide-go/api"
)

// Store model; a named, tamper-evident, append-only audit trail
type Store struct {
	provide.Model

	Name        *string `sql:"not null" json:"name"`
	Description *string `json:"description"`
	Provider    *string `sql:"not null" json:"provider"`
}

// TableName returns the table name for the model
func (s *Store) TableName() string {
	return "stores"
}

func (s *Store) trailProviderFactory() trailstorage.TrailProvider {
	if s.Provider == nil {
		common.Log.Warning("failed to initialize trail provider; no provider defined")
		return nil
	}

	switch *s.Provider {
	case trailstorage.TrailProviderDenseMerkleTree:
		return trailstorage.InitDenseMerkleTreeTrailProvider(s.ID)
	default:
		common.Log.Warningf("failed to initialize trail provider; unknown provider: %s", *s.Provider)
	}

	return nil
}

// Create a store
func (s *Store) Create() bool {
	if !s.validate() {
		return false
	}

	db := dbconf.DatabaseConnection()

	if db.NewRecord(s) {
		result := db.Create(&s)
		rowsAffected := result.RowsAffected
		errors := result.GetErrors()
		if len(errors) > 0 {
			for _, err := range errors {
				s.Errors = append(s.Errors, &provide.Error{
					Message: common.StringOrNil(err.Error()),
				})
			}
		}
		if !db.NewRecord(s) {
			success := rowsAffected > 0
			if success {
				common.Log.Debugf("initialized %s audit trail store: %s", *s.Provider, s.ID)
			}

			return success
		}
	}

	return false
}

// validate the store params
func (s *Store) validate() bool {
	s.Errors = make([]*provide.Error, 0)

	if s.Name == nil {
		s.Errors = append(s.Errors, &provide.Error{
			Message: common.StringOrNil("store name required"),
		})
	}

	if s.Provider == nil {
		s.Errors = append(s.Errors, &provide.Error{
			Message: common.StringOrNil("store provider required"),
		})
	}

	return len(s.Errors) == 0
}

// Insert anchors the given value in the store's trail
func (s *Store) Insert(val string) (root []byte, err error) {
	provider := s.trailProviderFactory()
	if provider == nil {
		return nil, errTrailProviderUnavailable(s)
	}
	return provider.Insert(val)
}

// Root returns the current merkle root of the store's trail
func (s *Store) Root() (*string, error) {
	provider := s.trailProviderFactory()
	if provider == nil {
		return nil, errTrailProviderUnavailable(s)
	}
	return provider.Root()
}

// Height returns the number of records anchored in the store's trail
func (s *Store) Height() (int, error) {
	provider := s.trailProviderFactory()
	if provider == nil {
		return 0, errTrailProviderUnavailable(s)
	}
	return provider.Height(), nil
}

// Contains returns true if the given value has been anchored in the store's trail
func (s *Store) Contains(val string) (bool, error) {
	provider := s.trailProviderFactory()
	if provider == nil {
		return false, errTrailProviderUnavailable(s)
	}
	return provider.Contains(val), nil
}

// Find resolves the store with the given id
func Find(id uuid.UUID) *Store {
	db := dbconf.DatabaseConnection()
	store := &Store{}
	db.Where("id = ?", id).Find(&store)
	if store.ID == uuid.Nil {
		return nil
	}
	return store
}

// ResolveTrail resolves the named audit trail store, initializing it with the
// dense merkle tree provider on first use
func ResolveTrail(name string) *Store {
	db := dbconf.DatabaseConnection()

	store := &Store{}
	db.Where("name = ?", name).Find(&store)
	if store.ID != uuid.Nil {
		return store
	}

	store = &Store{
		Name:     common.StringOrNil(name),
		Provider: common.StringOrNil(trailstorage.TrailProviderDenseMerkleTree),
	}
	if store.Create() {
		return store
	}

	return nil
}

// Append anchors the given value in the named trail
func Append(name, val string) error {
	store := ResolveTrail(name)
	if store == nil {
		return errTrailUnresolvable(name)
	}

	_, err := store.Insert(val)
	return err
}
