package domain

import (
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// PartialSuffix marks a download that has not completed yet.
const PartialSuffix = ".download"

// LedgerEntry records an in-flight download. It exists exactly as long as a
// partial file smaller than ExpectedSize sits at PartialPath.
type LedgerEntry struct {
	Scope        string // server address and user the download belongs to
	Destination  string // server path relative to the user's home root
	ExpectedSize int64
	PartialPath  string
	CreatedAt    time.Time
}

// FinalPath is where the partial file is renamed once complete: the
// destination's base name next to the partial file.
func (e LedgerEntry) FinalPath() string {
	return filepath.Join(filepath.Dir(e.PartialPath), path.Base(e.Destination))
}

// PartialName is the file name of an unfinished download. Downloads sharing
// a base name but not a scope or a destination never share a partial file.
func PartialName(scope, destination string) string {
	tag := uuid.NewSHA1(uuid.NameSpaceURL, []byte(scope+"\x00"+destination)).String()[:8]
	return path.Base(destination) + "." + tag + PartialSuffix
}

// ResumeCandidate is a ledger entry together with what is already on disk.
type ResumeCandidate struct {
	Entry    LedgerEntry
	Received int64
}

func (c ResumeCandidate) Percent() int {
	if c.Entry.ExpectedSize <= 0 {
		return 100
	}
	return int(c.Received * 100 / c.Entry.ExpectedSize)
}

// LedgerScope identifies the client identity a ledger entry belongs to:
// the server address and the authenticated user.
func LedgerScope(addr, user string) string {
	return addr + "/" + user
}
