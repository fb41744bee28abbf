//go:generate go run go.uber.org/mock/mockgen -source=ledger.go -destination=../mocks/mock_ledger_repository.go -package=mocks
package repositories

import (
	"fmt"
	"ftp-lab/domain"
	"ftp-lab/errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const ledgerPrefix = "download:"

// ILedgerRepository is the persisted record of unfinished downloads.
type ILedgerRepository interface {
	Record(entry domain.LedgerEntry) error
	Get(scope, destination string) (domain.LedgerEntry, error)
	Remove(scope, destination string) error
	List(scope string) ([]domain.LedgerEntry, error)
}

type LedgerRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewLedgerRepository(db *badger.DB, log *slog.Logger) *LedgerRepository {
	return &LedgerRepository{db: db, log: log}
}

// ledgerKey is "download:{scope}:{destination}". Scopes never contain ':'
// after the address part because usernames are restricted to [A-Za-z0-9_-],
// so a prefix scan over one scope cannot pick up another.
func ledgerKey(scope, destination string) []byte {
	return []byte(scopePrefix(scope) + destination)
}

func scopePrefix(scope string) string {
	return ledgerPrefix + scope + ":"
}

// Record stores or replaces the entry for its destination.
func (l LedgerRepository) Record(entry domain.LedgerEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(ledgerKey(entry.Scope, entry.Destination), encodeLedgerEntry(entry))
	})
	if err != nil {
		return fmt.Errorf("record download %s: %w", entry.Destination, err)
	}
	l.log.Debug("Download recorded in ledger", "destination", entry.Destination, "expected_size", entry.ExpectedSize)
	return nil
}

func (l LedgerRepository) Get(scope, destination string) (domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(ledgerKey(scope, destination))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrLedgerEntryMissing
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			entry, err = decodeLedgerEntry(val)
			return err
		})
	})
	return entry, err
}

// Remove deletes the entry. Removing an absent entry is not an error.
func (l LedgerRepository) Remove(scope, destination string) error {
	err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(ledgerKey(scope, destination))
	})
	if err != nil {
		return fmt.Errorf("remove download %s: %w", destination, err)
	}
	l.log.Debug("Download removed from ledger", "destination", destination)
	return nil
}

// List returns the entries of one scope, ordered by destination.
// An empty scope lists every entry.
func (l LedgerRepository) List(scope string) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	prefix := []byte(ledgerPrefix)
	if scope != "" {
		prefix = []byte(scopePrefix(scope))
	}

	err := l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				entry, err := decodeLedgerEntry(val)
				if err != nil {
					l.log.Warn("Skipping unreadable ledger entry", "key", string(item.Key()), "error", err)
					return nil
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	return entries, nil
}

func encodeLedgerEntry(e domain.LedgerEntry) []byte {
	var b []byte
	b = appendString(b, ledgerFieldScope, e.Scope)
	b = appendString(b, ledgerFieldDestination, e.Destination)
	b = appendInt64(b, ledgerFieldExpectedSize, e.ExpectedSize)
	b = appendString(b, ledgerFieldPartialPath, e.PartialPath)
	b = appendInt64(b, ledgerFieldCreatedAt, e.CreatedAt.UnixNano())
	return b
}

func decodeLedgerEntry(val []byte) (domain.LedgerEntry, error) {
	r, err := decodeRecord(val)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	return domain.LedgerEntry{
		Scope:        r.strings[ledgerFieldScope],
		Destination:  r.strings[ledgerFieldDestination],
		ExpectedSize: r.ints[ledgerFieldExpectedSize],
		PartialPath:  r.strings[ledgerFieldPartialPath],
		CreatedAt:    time.Unix(0, r.ints[ledgerFieldCreatedAt]).UTC(),
	}, nil
}
