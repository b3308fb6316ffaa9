//go:build !sqlite

package storage

import "fmt"

func newSQLiteStore(_ string) (Store, error) {
	return nil, fmt.Errorf("micronas built without sqlite support; rebuild with -tags sqlite")
}
