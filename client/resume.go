package client

import (
	"fmt"
	"ftp-lab/domain"
	"ftp-lab/errors"
	"ftp-lab/repositories"
	"ftp-lab/transfer"
	"os"
	"path/filepath"
	"slices"

	"github.com/samber/lo"
)

// Candidates lists this user's unfinished downloads with the bytes already on disk.
func (s *Session) Candidates() ([]domain.ResumeCandidate, error) {
	entries, err := s.ledger.List(s.scope())
	if err != nil {
		return nil, err
	}
	return lo.Map(entries, func(e domain.LedgerEntry, _ int) domain.ResumeCandidate {
		return domain.ResumeCandidate{Entry: e, Received: partialSize(e.PartialPath)}
	}), nil
}

// Resume asks the server for the missing tail of a download and appends it
// to the partial file. A refusal keeps the ledger entry and matches
// ErrSizeMismatch: the remote file changed or vanished.
func (s *Session) Resume(candidate domain.ResumeCandidate, progress transfer.Progress) (string, error) {
	entry := candidate.Entry
	received := partialSize(entry.PartialPath)

	resp, err := s.roundTrip(domain.ResendCommand{
		FileSize:     entry.ExpectedSize,
		ReceivedSize: received,
		AbsFilename:  entry.Destination,
	})
	if err != nil {
		return "", err
	}
	if resp.Status != domain.StatusFileReady {
		return "", fmt.Errorf("%w: %s: %w", errors.ErrSizeMismatch, entry.Destination, newStatusError(resp))
	}
	// A bare 301 is accepted: the server already checked the size it was sent.
	if resp.FileSize != nil && *resp.FileSize != entry.ExpectedSize {
		return "", fmt.Errorf("%w: file ready with an unexpected size", errors.ErrMalformedFrame)
	}

	f, err := os.OpenFile(entry.PartialPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if derr := s.discard(entry.ExpectedSize - received); derr != nil {
			return "", derr
		}
		return "", fmt.Errorf("open %s: %w", entry.PartialPath, err)
	}
	s.log.Info("Resuming download", "destination", entry.Destination, "offset", received, "size", entry.ExpectedSize)
	return s.receive(f, entry, received, progress)
}

// Forget abandons an unfinished download: the entry and its partial file go.
func (s *Session) Forget(candidate domain.ResumeCandidate) error {
	entry := candidate.Entry
	if err := s.ledger.Remove(entry.Scope, entry.Destination); err != nil {
		return err
	}
	if err := os.Remove(entry.PartialPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", entry.PartialPath, err)
	}
	s.log.Info("Download abandoned", "destination", entry.Destination)
	return nil
}

type InconsistencyReason string

const (
	ReasonPartialMissing   InconsistencyReason = "partial file missing"
	ReasonPartialOversized InconsistencyReason = "partial file not smaller than expected size"
	ReasonOrphanPartial    InconsistencyReason = "partial file without ledger entry"
)

// Inconsistency is a disagreement between the ledger and the download directory.
type Inconsistency struct {
	Path   string
	Entry  *domain.LedgerEntry
	Reason InconsistencyReason
}

// Reconcile compares the ledger with the partial files in dir. It reports
// entries whose partial file is missing or already complete, and partial
// files no entry accounts for. Nothing is modified.
func Reconcile(ledger repositories.ILedgerRepository, scope, dir string) ([]Inconsistency, error) {
	entries, err := ledger.List(scope)
	if err != nil {
		return nil, err
	}

	var found []Inconsistency
	for _, e := range entries {
		info, err := os.Stat(e.PartialPath)
		switch {
		case err != nil:
			found = append(found, Inconsistency{Path: e.PartialPath, Entry: lo.ToPtr(e), Reason: ReasonPartialMissing})
		case info.Size() >= e.ExpectedSize:
			found = append(found, Inconsistency{Path: e.PartialPath, Entry: lo.ToPtr(e), Reason: ReasonPartialOversized})
		}
	}

	// Partial files may belong to any user of this client.
	all, err := ledger.List("")
	if err != nil {
		return nil, err
	}
	known := lo.SliceToMap(all, func(e domain.LedgerEntry) (string, struct{}) {
		return filepath.Clean(e.PartialPath), struct{}{}
	})

	partials, err := filepath.Glob(filepath.Join(dir, "*"+domain.PartialSuffix))
	if err != nil {
		return nil, err
	}
	slices.Sort(partials)
	for _, p := range partials {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if _, ok := known[filepath.Clean(abs)]; !ok {
			found = append(found, Inconsistency{Path: abs, Reason: ReasonOrphanPartial})
		}
	}
	return found, nil
}

// Reconcile checks this session's ledger scope against the download directory.
func (s *Session) Reconcile() ([]Inconsistency, error) {
	return Reconcile(s.ledger, s.scope(), s.downloadDir)
}

func partialSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
