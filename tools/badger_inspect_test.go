package main

import (
	"bytes"
	"ftp-lab/domain"
	"ftp-lab/repositories"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestDumpLedger(t *testing.T) {
	req := require.New(t)
	db, err := repositories.OpenInMemoryDB()
	req.NoError(err)
	defer db.Close()
	ledger := repositories.NewLedgerRepository(db, logs.GetLoggerFromLevel(slog.LevelDebug))
	dir := t.TempDir()
	partial := filepath.Join(dir, "data.bin"+domain.PartialSuffix)
	req.NoError(os.WriteFile(partial, make([]byte, 250), 0o644))
	req.NoError(ledger.Record(domain.LedgerEntry{Scope: "srv:1/alice", Destination: "docs/data.bin", ExpectedSize: 1000, PartialPath: partial}))
	req.NoError(ledger.Record(domain.LedgerEntry{Scope: "srv:1/alice", Destination: "lost.bin", ExpectedSize: 10, PartialPath: filepath.Join(dir, "lost.bin.download")}))
	var out bytes.Buffer

	req.NoError(dumpLedger(&out, ledger, ""))

	text := out.String()
	req.Contains(text, "docs/data.bin")
	req.Contains(text, "25%")
	req.Contains(text, "missing")
}

func TestDumpUsers(t *testing.T) {
	req := require.New(t)
	db, err := repositories.OpenInMemoryDB()
	req.NoError(err)
	defer db.Close()
	users := repositories.NewUserRepository(db)
	_, err = users.CreateUser("alice", "Alice", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA")
	req.NoError(err)
	var out bytes.Buffer

	req.NoError(dumpUsers(&out, users))

	req.Contains(out.String(), "alice")
	req.NotContains(out.String(), "aGFzaA")
}
