package storage

import "fmt"

// NewStore resolves a backend by name. The empty kind selects the in-memory
// store, which is what the library and CLI default to.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("micronas: unknown store backend %q (want memory or sqlite)", kind)
	}
}

// CloseIfSupported closes stores that hold external resources; the memory
// store is a no-op.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
