// Package client drives a file-transfer session from the user's side:
// one method per command, each a single request/response exchange.
package client

import (
	"context"
	"fmt"
	"ftp-lab/domain"
	"ftp-lab/errors"
	"ftp-lab/protocol"
	"ftp-lab/repositories"
	"ftp-lab/transfer"
	"io"
	"log/slog"
	"net"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/samber/lo"
)

// MaxAuthAttempts is how many logins Login tries before giving up.
const MaxAuthAttempts = 3

type Options struct {
	FrameSize   int
	DownloadDir string
	Ledger      repositories.ILedgerRepository
	Log         *slog.Logger
	DialTimeout time.Duration
}

type Session struct {
	conn        net.Conn
	codec       protocol.Codec
	ledger      repositories.ILedgerRepository
	log         *slog.Logger
	addr        string
	downloadDir string
	username    string
	currentDir  string
}

// Credentials supplies the username and password for a login attempt.
type Credentials func(attempt int) (username, password string, err error)

// Dial opens the TCP connection to addr. The session starts unauthenticated
// in the home directory; the ledger is mandatory because every download is
// recorded before its first byte arrives.
func Dial(ctx context.Context, addr string, opts Options) (*Session, error) {
	// 1. Check the options and resolve the download directory once
	if opts.Ledger == nil {
		return nil, fmt.Errorf("dial %s: no ledger configured", addr)
	}
	downloadDir, err := filepath.Abs(lo.CoalesceOrEmpty(opts.DownloadDir, "."))
	if err != nil {
		return nil, fmt.Errorf("download dir: %w", err)
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	// 2. Connect, DialTimeout 0 leaves the OS default
	dialer := net.Dialer{Timeout: opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	log.Info("Connected", "addr", addr)

	return &Session{
		conn:        conn,
		codec:       protocol.NewCodec(opts.FrameSize),
		ledger:      opts.Ledger,
		log:         log,
		addr:        addr,
		downloadDir: downloadDir,
		currentDir:  ".",
	}, nil
}

func (s *Session) Username() string   { return s.username }
func (s *Session) CurrentDir() string { return s.currentDir }

// Close drops the connection. The server treats it as a clean logout.
func (s *Session) Close() error {
	return s.conn.Close()
}

// scope ties ledger entries to this server and user.
func (s *Session) scope() string {
	return domain.LedgerScope(s.addr, s.username)
}

// roundTrip writes one command frame and reads the single reply frame.
// Failures here leave the stream unusable.
func (s *Session) roundTrip(cmd domain.Command) (domain.Response, error) {
	if err := s.codec.WriteCommand(s.conn, cmd); err != nil {
		return domain.Response{}, err
	}
	resp, err := s.codec.ReadResponse(s.conn)
	if err != nil {
		return domain.Response{}, err
	}
	s.log.Debug("Reply received", "action", cmd.Action(), "status", int(resp.Status))
	return resp, nil
}

// Authenticate sends one auth command. Wrong credentials yield a
// StatusError matching ErrInvalidCredentials.
func (s *Session) Authenticate(username, password string) error {
	resp, err := s.roundTrip(domain.AuthCommand{Username: username, Password: password})
	if err != nil {
		return err
	}
	if resp.Status != domain.StatusAuthOK {
		return newStatusError(resp)
	}
	s.username = username
	s.currentDir = "."
	s.log = s.log.With("user", username)
	s.log.Info("Authenticated")
	return nil
}

// Login asks for credentials up to MaxAuthAttempts times. Only wrong
// credentials are retried; a transport error ends the login at once.
func (s *Session) Login(prompt Credentials) error {
	for attempt := 1; attempt <= MaxAuthAttempts; attempt++ {
		username, password, err := prompt(attempt)
		if err != nil {
			return err
		}
		err = s.Authenticate(username, password)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errors.ErrInvalidCredentials) {
			return err
		}
		s.log.Info("Authentication failed", "attempt", attempt)
	}
	return fmt.Errorf("%w: %d failed logins", errors.ErrTooManyAuthAttempts, MaxAuthAttempts)
}

// List returns the working directory, directories first. A listing too
// large for one frame comes back as a 401 StatusError.
func (s *Session) List() ([]domain.FileEntry, error) {
	resp, err := s.roundTrip(domain.LsCommand{})
	if err != nil {
		return nil, err
	}
	if resp.Status != domain.StatusListOK {
		return nil, newStatusError(resp)
	}
	return resp.Entries, nil
}

// Cd changes the server working directory and returns it relative to home.
func (s *Session) Cd(dir string) (string, error) {
	resp, err := s.roundTrip(domain.CdCommand{TargetDir: dir})
	if err != nil {
		return "", err
	}
	if resp.Status != domain.StatusDirChanged {
		return "", newStatusError(resp)
	}
	s.currentDir = lo.CoalesceOrEmpty(resp.RelativeDir, ".")
	return s.currentDir, nil
}

// Mkdir creates name in the working directory. Names outside
// [A-Za-z0-9_-] are refused with 502 before the server touches the disk.
func (s *Session) Mkdir(name string) error {
	resp, err := s.roundTrip(domain.MkdirCommand{Dirname: name})
	if err != nil {
		return err
	}
	if resp.Status != domain.StatusMkdirOK {
		return newStatusError(resp)
	}
	return nil
}

// Remove deletes a file or an empty directory and returns 600 or 601.
func (s *Session) Remove(name string) (domain.StatusCode, error) {
	resp, err := s.roundTrip(domain.RmCommand{Filename: name})
	if err != nil {
		return 0, err
	}
	if resp.Status != domain.StatusFileDeleted && resp.Status != domain.StatusDirDeleted {
		return 0, newStatusError(resp)
	}
	return resp.Status, nil
}

// Put uploads a local regular file into the server working directory.
// The server sends no reply for an upload.
func (s *Session) Put(localPath string, progress transfer.Progress) (int64, error) {
	// 1. Only regular files are sent, checked before anything goes on the wire
	f, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errors.ErrNotFound, localPath)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s is not a regular file", errors.ErrNotFound, localPath)
	}

	// 2. Announce the size, then stream the body right behind the frame
	size := info.Size()
	if err := s.codec.WriteCommand(s.conn, domain.PutCommand{FileSize: size, LocalFile: localPath}); err != nil {
		return 0, err
	}
	sent, err := transfer.Send(s.conn, f, 0, size, transfer.NewPercentTracker(progress))
	if err != nil {
		return sent, err
	}
	s.log.Info("File uploaded", "file", filepath.Base(localPath), "bytes", sent)
	return sent, nil
}

// Get downloads name from the server working directory into the download
// directory and returns the local path. The ledger holds the download from
// the first byte on; a broken transfer leaves the entry and the partial file
// behind for Resume.
func (s *Session) Get(name string, progress transfer.Progress) (string, error) {
	resp, err := s.roundTrip(domain.GetCommand{Filename: name})
	if err != nil {
		return "", err
	}
	if resp.Status != domain.StatusFileReady {
		return "", newStatusError(resp)
	}
	if resp.FileSize == nil || *resp.FileSize < 0 {
		return "", fmt.Errorf("%w: file ready without a size", errors.ErrMalformedFrame)
	}

	// 1. Record the download before reading any byte of the body.
	// The partial file name is unique per scope and destination.
	size := *resp.FileSize
	destination := path.Clean(path.Join(s.currentDir, filepath.ToSlash(name)))
	entry := domain.LedgerEntry{
		Scope:        s.scope(),
		Destination:  destination,
		ExpectedSize: size,
		PartialPath:  filepath.Join(s.downloadDir, domain.PartialName(s.scope(), destination)),
	}
	if err := s.ledger.Record(entry); err != nil {
		// The body is on its way regardless and must not be read as frames.
		if derr := s.discard(size); derr != nil {
			return "", derr
		}
		return "", err
	}

	// 2. Receive into the partial file, renamed once complete
	f, err := os.OpenFile(entry.PartialPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		_ = s.ledger.Remove(entry.Scope, entry.Destination)
		if derr := s.discard(size); derr != nil {
			return "", derr
		}
		return "", fmt.Errorf("open %s: %w", entry.PartialPath, err)
	}
	return s.receive(f, entry, 0, progress)
}

// receive appends the rest of entry's body to f, then completes the download.
func (s *Session) receive(f *os.File, entry domain.LedgerEntry, already int64, progress transfer.Progress) (string, error) {
	_, err := transfer.Receive(s.conn, f, already, entry.ExpectedSize, transfer.NewPercentTracker(progress))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		s.log.Warn("Download interrupted", "destination", entry.Destination, "error", err)
		return "", err
	}
	return s.complete(entry)
}

// complete drops the ledger entry and gives the file its final name.
func (s *Session) complete(entry domain.LedgerEntry) (string, error) {
	if err := s.ledger.Remove(entry.Scope, entry.Destination); err != nil {
		return "", err
	}
	final := entry.FinalPath()
	if err := os.Rename(entry.PartialPath, final); err != nil {
		return "", fmt.Errorf("finalize %s: %w", final, err)
	}
	s.log.Info("File downloaded", "destination", entry.Destination, "file", final, "bytes", entry.ExpectedSize)
	return final, nil
}

// discard drains a body nobody will store so the next read starts on a frame.
func (s *Session) discard(size int64) error {
	_, err := transfer.Receive(s.conn, io.Discard, 0, size, nil)
	return err
}
