package server

import (
	"cmp"
	"fmt"
	"ftp-lab/domain"
	"ftp-lab/errors"
	"ftp-lab/sandbox"
	"ftp-lab/transfer"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
)

const uploadSuffix = ".upload"

// handleGet serves a file of the working directory: 301 and the bytes, 300
// when there is no such regular file, 352 when the name leaves home.
func (s *session) handleGet(c domain.GetCommand) error {
	path, err := sandbox.ResolveIn(s.state.HomeRoot, s.state.CurrentDir, c.Filename)
	if err != nil {
		return s.replyPathError("get", c.Filename, err)
	}
	return s.sendFile(path, 0)
}

// handleResend serves the tail of a file named relative to the home root.
// The client's recorded size must still match the file on disk, otherwise
// the partial data it holds belongs to another version and 300 is returned.
func (s *session) handleResend(c domain.ResendCommand) error {
	// 1. Resolve against home, whatever the working directory is
	name := strings.TrimLeft(filepath.FromSlash(c.AbsFilename), string(filepath.Separator))
	path, err := sandbox.ResolveIn(s.state.HomeRoot, s.state.HomeRoot, name)
	if err != nil {
		return s.replyPathError("resend", c.AbsFilename, err)
	}

	// 2. Check the size and the offset before anything is streamed
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return s.reply(domain.NewResponse(domain.StatusNotFound))
	}
	if info.Size() != c.FileSize {
		s.log.Warn("Resend refused",
			"file", c.AbsFilename, "error", errors.ErrSizeMismatch,
			"expected", c.FileSize, "actual", info.Size())
		return s.reply(domain.NewResponse(domain.StatusNotFound))
	}
	if c.ReceivedSize < 0 || c.ReceivedSize > c.FileSize {
		s.log.Warn("Resend refused", "file", c.AbsFilename, "received", c.ReceivedSize, "size", c.FileSize)
		return s.reply(domain.NewResponse(domain.StatusNotFound))
	}
	return s.sendFile(path, c.ReceivedSize)
}

// sendFile answers 301 with the file size then streams bytes from offset on.
func (s *session) sendFile(path string, offset int64) error {
	f, err := os.Open(path)
	if err != nil {
		return s.reply(domain.NewResponse(domain.StatusNotFound))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return s.reply(domain.NewResponse(domain.StatusNotFound))
	}

	size := info.Size()
	resp := domain.NewResponse(domain.StatusFileReady)
	resp.FileSize = lo.ToPtr(size)
	if err := s.reply(resp); err != nil {
		return err
	}

	sent, err := transfer.Send(s.conn, f, offset, size, nil)
	if err != nil {
		return fmt.Errorf("send %s: %w", path, err)
	}
	s.log.Info("File sent", "file", s.relative(path), "offset", offset, "bytes", sent, "mime", detectMime(path))
	return nil
}

// handlePut never replies: the client streams the body right after the frame.
func (s *session) handlePut(c domain.PutCommand) error {
	if c.FileSize < 0 {
		s.log.Warn("Upload refused", "file", c.LocalFile, "size", c.FileSize)
		return nil
	}

	// 1. Keep the base name only, and only directly inside the working directory
	name := baseName(c.LocalFile)
	dest, err := sandbox.ResolveIn(s.state.HomeRoot, s.state.CurrentDir, name)
	if err != nil || dest == s.state.CurrentDir || filepath.Dir(dest) != s.state.CurrentDir {
		s.log.Warn("Upload refused", "file", c.LocalFile, "error", err)
		return s.discard(c.FileSize)
	}

	// 2. Pick a free final name, then receive into a fresh temp file next to
	// it, so no existing file is ever truncated
	dest = availableName(dest, s.now())
	f, err := os.CreateTemp(s.state.CurrentDir, "."+name+"-*"+uploadSuffix)
	if err == nil {
		err = f.Chmod(0o644)
	}
	if err != nil {
		if f != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
		s.log.Error("Upload refused", "file", name, "error", err)
		return s.discard(c.FileSize)
	}
	tmp := f.Name()

	_, err = transfer.Receive(s.conn, f, 0, c.FileSize, nil)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("receive %s: %w", name, err)
	}

	// 3. Publish the complete file under its final name
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		s.log.Error("Upload could not be finalized", "file", name, "error", err)
		return nil
	}
	s.log.Info("File received", "file", s.relative(dest), "bytes", c.FileSize, "mime", detectMime(dest))
	return nil
}

// handleLs lists the working directory. Files carry their size, directories
// only their name and time. A listing that does not fit a frame is a 401.
func (s *session) handleLs() error {
	dirEntries, err := os.ReadDir(s.state.CurrentDir)
	if err != nil {
		s.log.Error("Listing failed", "dir", s.state.RelativeDir(), "error", err)
		return s.reply(domain.NewResponse(domain.StatusListFailed))
	}

	entries := make([]domain.FileEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			continue
		}
		entry := domain.FileEntry{Name: de.Name(), IsDir: info.IsDir(), ModTime: info.ModTime()}
		if !entry.IsDir {
			entry.Size = info.Size()
		}
		entries = append(entries, entry)
	}
	sortEntries(entries)

	resp := domain.NewResponse(domain.StatusListOK)
	resp.Entries = entries
	if _, err := s.codec.EncodeResponse(resp); err != nil {
		s.log.Warn("Listing does not fit in a frame", "entries", len(entries), "error", err)
		return s.reply(domain.NewResponse(domain.StatusListFailed))
	}
	return s.reply(resp)
}

// handleCd moves inside home and answers the new directory relative to it.
func (s *session) handleCd(c domain.CdCommand) error {
	dir, err := sandbox.ResolveDir(s.state.HomeRoot, s.state.CurrentDir, c.TargetDir)
	if err != nil {
		s.log.Info("Directory change refused", "target", c.TargetDir, "error", err)
		return s.reply(domain.NewResponse(domain.StatusDirNotFound))
	}
	s.state.CurrentDir = dir
	resp := domain.NewResponse(domain.StatusDirChanged)
	resp.RelativeDir = s.state.RelativeDir()
	return s.reply(resp)
}

// handleMkdir checks the name first (502), then existence (501).
func (s *session) handleMkdir(c domain.MkdirCommand) error {
	if err := sandbox.ValidateDirName(c.Dirname); err != nil {
		return s.reply(domain.NewResponse(domain.StatusMkdirIllegal))
	}
	path, err := sandbox.ResolveIn(s.state.HomeRoot, s.state.CurrentDir, c.Dirname)
	if err != nil {
		return s.reply(domain.NewResponse(domain.StatusMkdirIllegal))
	}
	if _, err := os.Lstat(path); err == nil {
		return s.reply(domain.NewResponse(domain.StatusMkdirExists))
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		s.log.Error("Mkdir failed", "dir", c.Dirname, "error", err)
		return s.reply(domain.NewResponse(domain.StatusPermissionDenied))
	}
	s.log.Info("Directory created", "dir", s.relative(path))
	return s.reply(domain.NewResponse(domain.StatusMkdirOK))
}

// handleRm removes a file (600) or an empty directory (601). A non-empty
// directory fails with 602 and nothing is removed.
func (s *session) handleRm(c domain.RmCommand) error {
	path, err := sandbox.ResolveIn(s.state.HomeRoot, s.state.CurrentDir, c.Filename)
	if err != nil {
		return s.replyPathError("rm", c.Filename, err)
	}
	// The working directory and its ancestors are never removable.
	if sandbox.Contains(path, s.state.CurrentDir) {
		return s.reply(domain.NewResponse(domain.StatusPermissionDenied))
	}

	info, err := os.Lstat(path)
	if err != nil {
		return s.reply(domain.NewResponse(domain.StatusNotFound))
	}
	if err := os.Remove(path); err != nil {
		s.log.Info("Delete failed", "target", s.relative(path), "error", err)
		return s.reply(domain.NewResponse(domain.StatusDeleteFailed))
	}
	s.log.Info("Deleted", "target", s.relative(path), "dir", info.IsDir())
	if info.IsDir() {
		return s.reply(domain.NewResponse(domain.StatusDirDeleted))
	}
	return s.reply(domain.NewResponse(domain.StatusFileDeleted))
}

// replyPathError maps a sandbox failure onto a status code.
func (s *session) replyPathError(action, requested string, err error) error {
	if errors.Is(err, errors.ErrPathRejected) {
		s.log.Warn("Path outside home refused", "action", action, "path", requested)
		return s.reply(domain.NewResponse(domain.StatusPermissionDenied))
	}
	return s.reply(domain.NewResponse(domain.StatusNotFound))
}

func (s *session) relative(path string) string {
	rel, err := filepath.Rel(s.state.HomeRoot, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// sortEntries puts directories first, then orders by name.
func sortEntries(entries []domain.FileEntry) {
	slices.SortFunc(entries, func(a, b domain.FileEntry) int {
		if a.IsDir != b.IsDir {
			return lo.Ternary(a.IsDir, -1, 1)
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

func detectMime(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "unknown"
	}
	return mt.String()
}

// baseName keeps the last element of a client path, whatever its separator.
func baseName(localFile string) string {
	if i := strings.LastIndexAny(localFile, `/\`); i >= 0 {
		return localFile[i+1:]
	}
	return localFile
}
