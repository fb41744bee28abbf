package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// OpenDB opens (or creates) the badger database at path. Badger's own
// logging follows the verbosity of the application logger.
func OpenDB(ctx context.Context, path string, logger *slog.Logger) (*badger.DB, error) {
	options := badger.DefaultOptions(path)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return db, nil
}

// OpenInMemoryDB is used by tests and by tools that only need a scratch store.
func OpenInMemoryDB() (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}
