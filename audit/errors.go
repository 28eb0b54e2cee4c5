package audit

import "fmt"

func errTrailProviderUnavailable(s *Store) error {
	return fmt.Errorf("failed to resolve trail provider for audit store %s", s.ID)
}

func errTrailUnresolvable(name string) error {
	return fmt.Errorf("failed to resolve audit trail: %s", name)
}
