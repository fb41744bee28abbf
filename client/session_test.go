package client

import (
	"bytes"
	"context"
	"ftp-lab/domain"
	"ftp-lab/errors"
	"ftp-lab/mocks"
	"ftp-lab/protocol"
	"ftp-lab/repositories"
	"ftp-lab/server"
	"ftp-lab/services"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type stubAuth struct {
	home string
}

func (a stubAuth) Login(username, password string) (services.Account, error) {
	if username == "alice" && password == "secret123" {
		return services.Account{Username: "alice", HomeRoot: a.home}, nil
	}
	return services.Account{}, errors.ErrInvalidCredentials
}

func startServer(t *testing.T) (string, string) {
	t.Helper()
	home := t.TempDir()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	srv := server.NewServer(server.Config{}, stubAuth{home: home}, log)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String(), home
}

func newLedger(t *testing.T) *repositories.LedgerRepository {
	t.Helper()
	db, err := repositories.OpenInMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repositories.NewLedgerRepository(db, logs.GetLoggerFromLevel(slog.LevelDebug))
}

func dialSession(t *testing.T, addr string, ledger repositories.ILedgerRepository, downloadDir string) *Session {
	t.Helper()
	s, err := Dial(context.Background(), addr, Options{
		DownloadDir: downloadDir,
		Ledger:      ledger,
		Log:         logs.GetLoggerFromLevel(slog.LevelDebug),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func fixedCredentials(username, password string) (Credentials, *int) {
	calls := 0
	return func(int) (string, string, error) {
		calls++
		return username, password, nil
	}, &calls
}

func TestSession_Login(t *testing.T) {
	t.Run("should give up after three wrong logins", func(t *testing.T) {
		req := require.New(t)
		addr, _ := startServer(t)
		s := dialSession(t, addr, newLedger(t), t.TempDir())
		prompt, calls := fixedCredentials("alice", "wrong")

		err := s.Login(prompt)

		req.ErrorIs(err, errors.ErrTooManyAuthAttempts)
		req.Equal(MaxAuthAttempts, *calls)
		req.Empty(s.Username())
	})

	t.Run("should succeed on a later attempt", func(t *testing.T) {
		req := require.New(t)
		addr, _ := startServer(t)
		s := dialSession(t, addr, newLedger(t), t.TempDir())

		err := s.Login(func(attempt int) (string, string, error) {
			if attempt < 2 {
				return "alice", "wrong", nil
			}
			return "alice", "secret123", nil
		})

		req.NoError(err)
		req.Equal("alice", s.Username())
		req.Equal(".", s.CurrentDir())
	})

	t.Run("should surface a wrong password as invalid credentials", func(t *testing.T) {
		req := require.New(t)
		addr, _ := startServer(t)
		s := dialSession(t, addr, newLedger(t), t.TempDir())

		err := s.Authenticate("alice", "nope")

		var statusErr *StatusError
		req.ErrorAs(err, &statusErr)
		req.Equal(domain.StatusAuthFailed, statusErr.Status)
		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}

func TestSession_Get(t *testing.T) {
	t.Run("should download and clear the ledger entry", func(t *testing.T) {
		req := require.New(t)
		addr, home := startServer(t)
		payload := bytes.Repeat([]byte("abc"), 10000)
		req.NoError(os.MkdirAll(filepath.Join(home, "docs"), 0o755))
		req.NoError(os.WriteFile(filepath.Join(home, "docs", "data.bin"), payload, 0o644))
		ledger := newLedger(t)
		downloads := t.TempDir()
		s := dialSession(t, addr, ledger, downloads)
		req.NoError(s.Authenticate("alice", "secret123"))
		_, err := s.Cd("docs")
		req.NoError(err)

		var last int64
		local, err := s.Get("data.bin", func(done, total int64) { last = done })

		req.NoError(err)
		req.Equal(filepath.Join(downloads, "data.bin"), local)
		got, err := os.ReadFile(local)
		req.NoError(err)
		req.Equal(payload, got)
		req.Equal(int64(len(payload)), last)
		req.NoFileExists(local + domain.PartialSuffix)
		entries, err := ledger.List("")
		req.NoError(err)
		req.Empty(entries)
	})

	t.Run("should not record anything for a missing file", func(t *testing.T) {
		req := require.New(t)
		addr, _ := startServer(t)
		ledger := newLedger(t)
		s := dialSession(t, addr, ledger, t.TempDir())
		req.NoError(s.Authenticate("alice", "secret123"))

		_, err := s.Get("missing.bin", nil)

		req.ErrorIs(err, errors.ErrNotFound)
		entries, err := ledger.List("")
		req.NoError(err)
		req.Empty(entries)
	})

	t.Run("should stay in sync when the ledger cannot record", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		addr, home := startServer(t)
		req.NoError(os.WriteFile(filepath.Join(home, "a.txt"), bytes.Repeat([]byte("z"), 20000), 0o644))
		ledger := mocks.NewMockILedgerRepository(ctrl)
		ledger.EXPECT().Record(gomock.Any()).Return(errors.ErrInconsistentLedger)
		downloads := t.TempDir()
		s := dialSession(t, addr, ledger, downloads)
		req.NoError(s.Authenticate("alice", "secret123"))

		_, err := s.Get("a.txt", nil)

		req.ErrorIs(err, errors.ErrInconsistentLedger)
		partials, err := filepath.Glob(filepath.Join(downloads, "*"+domain.PartialSuffix))
		req.NoError(err)
		req.Empty(partials)
		entries, err := s.List()
		req.NoError(err)
		req.Len(entries, 1)
	})
}

func TestSession_Interrupted(t *testing.T) {
	req := require.New(t)
	payload := bytes.Repeat([]byte("0123456789"), 100)
	addr := startBrokenServer(t, payload, 400)
	ledger := newLedger(t)
	downloads := t.TempDir()
	s := dialSession(t, addr, ledger, downloads)
	req.NoError(s.Authenticate("alice", "secret123"))

	_, err := s.Get("data.bin", nil)

	req.ErrorIs(err, errors.ErrConnectionLost)
	candidates, err := s.Candidates()
	req.NoError(err)
	req.Len(candidates, 1)
	req.Equal(filepath.Join(downloads, domain.PartialName(candidates[0].Entry.Scope, "data.bin")), candidates[0].Entry.PartialPath)
	partial, err := os.ReadFile(candidates[0].Entry.PartialPath)
	req.NoError(err)
	req.Equal(payload[:400], partial)

	req.Equal("data.bin", candidates[0].Entry.Destination)
	req.Equal(int64(len(payload)), candidates[0].Entry.ExpectedSize)
	req.Equal(int64(400), candidates[0].Received)
	req.Equal(40, candidates[0].Percent())
}

// startBrokenServer accepts one login, announces payload for any get, sends
// the first cut bytes and drops the connection.
func startBrokenServer(t *testing.T, payload []byte, cut int) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		codec := protocol.NewCodec(0)
		for {
			cmd, err := codec.ReadCommand(conn)
			if err != nil {
				return
			}
			switch cmd.(type) {
			case domain.AuthCommand:
				_ = codec.WriteResponse(conn, domain.NewResponse(domain.StatusAuthOK))
			case domain.GetCommand:
				resp := domain.NewResponse(domain.StatusFileReady)
				size := int64(len(payload))
				resp.FileSize = &size
				_ = codec.WriteResponse(conn, resp)
				_, _ = conn.Write(payload[:cut])
				return
			}
		}
	}()
	return ln.Addr().String()
}

func TestSession_Resume(t *testing.T) {
	payload := bytes.Repeat([]byte("resume-me"), 3000)

	seed := func(t *testing.T, ledger *repositories.LedgerRepository, downloads, addr string, received int) domain.LedgerEntry {
		entry := domain.LedgerEntry{
			Scope:        domain.LedgerScope(addr, "alice"),
			Destination:  "docs/data.bin",
			ExpectedSize: int64(len(payload)),
			PartialPath:  filepath.Join(downloads, "data.bin"+domain.PartialSuffix),
		}
		require.NoError(t, os.WriteFile(entry.PartialPath, payload[:received], 0o644))
		require.NoError(t, ledger.Record(entry))
		return entry
	}

	t.Run("should append the missing tail and finalize", func(t *testing.T) {
		req := require.New(t)
		addr, home := startServer(t)
		req.NoError(os.MkdirAll(filepath.Join(home, "docs"), 0o755))
		req.NoError(os.WriteFile(filepath.Join(home, "docs", "data.bin"), payload, 0o644))
		ledger := newLedger(t)
		downloads := t.TempDir()
		seed(t, ledger, downloads, addr, 10000)
		s := dialSession(t, addr, ledger, downloads)
		req.NoError(s.Authenticate("alice", "secret123"))

		candidates, err := s.Candidates()
		req.NoError(err)
		req.Len(candidates, 1)
		req.Equal(int64(10000), candidates[0].Received)

		local, err := s.Resume(candidates[0], nil)

		req.NoError(err)
		got, err := os.ReadFile(local)
		req.NoError(err)
		req.Equal(payload, got)
		remaining, err := s.Candidates()
		req.NoError(err)
		req.Empty(remaining)
	})

	t.Run("should keep the entry when the remote file changed", func(t *testing.T) {
		req := require.New(t)
		addr, home := startServer(t)
		req.NoError(os.MkdirAll(filepath.Join(home, "docs"), 0o755))
		req.NoError(os.WriteFile(filepath.Join(home, "docs", "data.bin"), payload[:100], 0o644))
		ledger := newLedger(t)
		downloads := t.TempDir()
		seed(t, ledger, downloads, addr, 50)
		s := dialSession(t, addr, ledger, downloads)
		req.NoError(s.Authenticate("alice", "secret123"))
		candidates, err := s.Candidates()
		req.NoError(err)

		_, err = s.Resume(candidates[0], nil)

		req.ErrorIs(err, errors.ErrSizeMismatch)
		remaining, err := s.Candidates()
		req.NoError(err)
		req.Len(remaining, 1)
	})

	t.Run("should only offer downloads of the same identity", func(t *testing.T) {
		req := require.New(t)
		addr, _ := startServer(t)
		ledger := newLedger(t)
		downloads := t.TempDir()
		req.NoError(ledger.Record(domain.LedgerEntry{
			Scope:        domain.LedgerScope(addr, "bob"),
			Destination:  "x.bin",
			ExpectedSize: 10,
			PartialPath:  filepath.Join(downloads, "x.bin"+domain.PartialSuffix),
		}))
		s := dialSession(t, addr, ledger, downloads)
		req.NoError(s.Authenticate("alice", "secret123"))

		candidates, err := s.Candidates()

		req.NoError(err)
		req.Empty(candidates)
	})
}

// startResendServer answers one login, then any resend with a 301 carrying
// announced (nothing when nil) followed by the tail of payload.
func startResendServer(t *testing.T, payload []byte, announced *int64) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		codec := protocol.NewCodec(0)
		for {
			cmd, err := codec.ReadCommand(conn)
			if err != nil {
				return
			}
			switch c := cmd.(type) {
			case domain.AuthCommand:
				_ = codec.WriteResponse(conn, domain.NewResponse(domain.StatusAuthOK))
			case domain.ResendCommand:
				resp := domain.NewResponse(domain.StatusFileReady)
				resp.FileSize = announced
				_ = codec.WriteResponse(conn, resp)
				if announced == nil || *announced == int64(len(payload)) {
					_, _ = conn.Write(payload[c.ReceivedSize:])
				}
			}
		}
	}()
	return ln.Addr().String()
}

func TestSession_ResumeAnnouncedSize(t *testing.T) {
	payload := bytes.Repeat([]byte("tail"), 2500)

	resume := func(t *testing.T, announced *int64) (*Session, domain.LedgerEntry, string, error) {
		addr := startResendServer(t, payload, announced)
		ledger := newLedger(t)
		downloads := t.TempDir()
		scope := domain.LedgerScope(addr, "alice")
		entry := domain.LedgerEntry{
			Scope:        scope,
			Destination:  "data.bin",
			ExpectedSize: int64(len(payload)),
			PartialPath:  filepath.Join(downloads, domain.PartialName(scope, "data.bin")),
		}
		require.NoError(t, os.WriteFile(entry.PartialPath, payload[:3000], 0o644))
		require.NoError(t, ledger.Record(entry))
		s := dialSession(t, addr, ledger, downloads)
		require.NoError(t, s.Authenticate("alice", "secret123"))

		local, err := s.Resume(domain.ResumeCandidate{Entry: entry, Received: 3000}, nil)
		return s, entry, local, err
	}

	t.Run("should accept a file ready reply without a size", func(t *testing.T) {
		req := require.New(t)

		s, _, local, err := resume(t, nil)

		req.NoError(err)
		got, err := os.ReadFile(local)
		req.NoError(err)
		req.Equal(payload, got)
		remaining, err := s.Candidates()
		req.NoError(err)
		req.Empty(remaining)
	})

	t.Run("should refuse a file ready reply announcing another size", func(t *testing.T) {
		req := require.New(t)
		other := int64(len(payload) + 1)

		s, entry, _, err := resume(t, &other)

		req.ErrorIs(err, errors.ErrMalformedFrame)
		remaining, err := s.Candidates()
		req.NoError(err)
		req.Len(remaining, 1)
		req.FileExists(entry.PartialPath)
	})
}

func TestSession_Commands(t *testing.T) {
	req := require.New(t)
	addr, home := startServer(t)
	local := filepath.Join(t.TempDir(), "upload.txt")
	req.NoError(os.WriteFile(local, []byte("uploaded content"), 0o644))
	s := dialSession(t, addr, newLedger(t), t.TempDir())
	req.NoError(s.Authenticate("alice", "secret123"))

	req.NoError(s.Mkdir("inbox"))
	req.ErrorIs(s.Mkdir("inbox"), errors.ErrAlreadyExists)
	req.ErrorIs(s.Mkdir("../x"), errors.ErrIllegalName)

	dir, err := s.Cd("inbox")
	req.NoError(err)
	req.Equal("inbox", dir)

	sent, err := s.Put(local, nil)
	req.NoError(err)
	req.Equal(int64(16), sent)

	entries, err := s.List()
	req.NoError(err)
	req.Len(entries, 1)
	req.Equal("upload.txt", entries[0].Name)
	req.FileExists(filepath.Join(home, "inbox", "upload.txt"))

	_, err = s.Put(filepath.Join(t.TempDir(), "missing"), nil)
	req.ErrorIs(err, errors.ErrNotFound)

	status, err := s.Remove("upload.txt")
	req.NoError(err)
	req.Equal(domain.StatusFileDeleted, status)

	_, err = s.Cd("..")
	req.NoError(err)
	status, err = s.Remove("inbox")
	req.NoError(err)
	req.Equal(domain.StatusDirDeleted, status)

	_, err = s.Cd("..")
	req.ErrorIs(err, errors.ErrNotFound)
}
