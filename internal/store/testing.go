package store

import "context"

// OpenMemory opens a migrated in-memory sqlite store.
// This is only intended for use in tests.
func OpenMemory() (*Store, error) {
	return Open(context.Background(), DriverSQLite, ":memory:")
}
