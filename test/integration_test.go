package test

import (
	"context"
	"crypto/rand"
	"ftp-lab/auth"
	"ftp-lab/client"
	"ftp-lab/domain"
	"ftp-lab/errors"
	"ftp-lab/protocol"
	"ftp-lab/repositories"
	"ftp-lab/server"
	"ftp-lab/services"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const fileSize = 5000

// countingAuth records how many logins reached the server.
type countingAuth struct {
	*services.AuthService
	calls atomic.Int32
}

func (c *countingAuth) Login(username, password string) (services.Account, error) {
	c.calls.Add(1)
	return c.AuthService.Login(username, password)
}

type stack struct {
	addr      string
	home      string
	downloads string
	auth      *countingAuth
	ledger    *repositories.LedgerRepository
	content   []byte
}

// newStack starts a server with one account "alice" whose home holds readme.txt.
func newStack(t *testing.T) *stack {
	t.Helper()
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	accounts, err := repositories.OpenInMemoryDB()
	req.NoError(err)
	t.Cleanup(func() { _ = accounts.Close() })
	authService := services.NewAuthService(repositories.NewUserRepository(accounts), t.TempDir(), log)
	account, err := authService.Register(auth.RegisterRequest{Username: "alice", Password: "secret123"})
	req.NoError(err)

	content := make([]byte, fileSize)
	_, err = rand.Read(content)
	req.NoError(err)
	req.NoError(os.WriteFile(filepath.Join(account.HomeRoot, "readme.txt"), content, 0o644))

	counting := &countingAuth{AuthService: authService}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.NewServer(server.Config{}, counting, log).Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	ledgerDB, err := repositories.OpenDB(context.Background(), t.TempDir(), log)
	req.NoError(err)
	t.Cleanup(func() { _ = ledgerDB.Close() })

	return &stack{
		addr:      ln.Addr().String(),
		home:      account.HomeRoot,
		downloads: t.TempDir(),
		auth:      counting,
		ledger:    repositories.NewLedgerRepository(ledgerDB, log),
		content:   content,
	}
}

func (s *stack) dial(t *testing.T, addr string) *client.Session {
	t.Helper()
	session, err := client.Dial(context.Background(), addr, client.Options{
		DownloadDir: s.downloads,
		Ledger:      s.ledger,
		Log:         logs.GetLoggerFromLevel(slog.LevelDebug),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func Test_ScenarioA_Download(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	session := s.dial(t, s.addr)
	req.NoError(session.Authenticate("alice", "secret123"))

	local, err := session.Get("readme.txt", nil)

	req.NoError(err)
	got, err := os.ReadFile(local)
	req.NoError(err)
	req.Len(got, fileSize)
	req.Equal(s.content, got)
	entries, err := s.ledger.List("")
	req.NoError(err)
	req.Empty(entries)
}

func Test_ScenarioB_InterruptedThenResumed(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	// The first connection through the proxy dies after the auth reply,
	// the 301 reply and 2000 body bytes.
	proxy := startCuttingProxy(t, s.addr, int64(2*protocol.DefaultFrameSize+2000))

	first := s.dial(t, proxy)
	req.NoError(first.Authenticate("alice", "secret123"))
	_, err := first.Get("readme.txt", nil)
	req.ErrorIs(err, errors.ErrConnectionLost)

	// Then the ledger and the partial file survive the drop
	candidates, err := first.Candidates()
	req.NoError(err)
	req.Len(candidates, 1)
	req.Equal(int64(fileSize), candidates[0].Entry.ExpectedSize)
	req.Equal(domain.PartialName(candidates[0].Entry.Scope, "readme.txt"), filepath.Base(candidates[0].Entry.PartialPath))
	req.Equal(int64(2000), candidates[0].Received)

	// When a new session of the same identity resumes
	second := s.dial(t, proxy)
	req.NoError(second.Authenticate("alice", "secret123"))
	candidates, err = second.Candidates()
	req.NoError(err)
	req.Len(candidates, 1)
	local, err := second.Resume(candidates[0], nil)

	// Then the file is complete and the ledger is clear
	req.NoError(err)
	got, err := os.ReadFile(local)
	req.NoError(err)
	req.Equal(s.content, got)
	req.NoFileExists(candidates[0].Entry.PartialPath)
	entries, err := s.ledger.List("")
	req.NoError(err)
	req.Empty(entries)
}

func Test_InterruptedDownloadsWithSameBaseName(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	contents := map[string][]byte{}
	for _, dir := range []string{"a", "b"} {
		content := make([]byte, fileSize)
		_, err := rand.Read(content)
		req.NoError(err)
		req.NoError(os.MkdirAll(filepath.Join(s.home, dir), 0o755))
		req.NoError(os.WriteFile(filepath.Join(s.home, dir, "x.txt"), content, 0o644))
		contents[dir+"/x.txt"] = content
	}
	// Frames before the body: auth, cd and the 301 reply.
	frames := int64(3 * protocol.DefaultFrameSize)
	proxy := startCuttingProxy(t, s.addr, frames+2000, frames+1000)

	// Given a/x.txt then b/x.txt both cut mid-download
	for _, dir := range []string{"a", "b"} {
		session := s.dial(t, proxy)
		req.NoError(session.Authenticate("alice", "secret123"))
		_, err := session.Cd(dir)
		req.NoError(err)
		_, err = session.Get("x.txt", nil)
		req.ErrorIs(err, errors.ErrConnectionLost)
	}

	// Then each keeps its own partial file
	session := s.dial(t, proxy)
	req.NoError(session.Authenticate("alice", "secret123"))
	candidates, err := session.Candidates()
	req.NoError(err)
	req.Len(candidates, 2)
	req.Equal("a/x.txt", candidates[0].Entry.Destination)
	req.Equal(int64(2000), candidates[0].Received)
	req.Equal("b/x.txt", candidates[1].Entry.Destination)
	req.Equal(int64(1000), candidates[1].Received)
	req.NotEqual(candidates[0].Entry.PartialPath, candidates[1].Entry.PartialPath)

	// When both are resumed one after the other
	for _, c := range candidates {
		local, err := session.Resume(c, nil)
		req.NoError(err)
		got, err := os.ReadFile(local)
		req.NoError(err)
		req.Equal(contents[c.Entry.Destination], got, c.Entry.Destination)
		req.NoFileExists(c.Entry.PartialPath)
	}

	// Then nothing is left in the ledger
	entries, err := s.ledger.List("")
	req.NoError(err)
	req.Empty(entries)
}

func Test_ScenarioC_CdOutsideHome(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	session := s.dial(t, s.addr)
	req.NoError(session.Authenticate("alice", "secret123"))

	_, err := session.Cd("../../etc")

	var statusErr *client.StatusError
	req.ErrorAs(err, &statusErr)
	req.Equal(domain.StatusDirNotFound, statusErr.Status)
	req.Equal(".", session.CurrentDir())
	entries, err := session.List()
	req.NoError(err)
	req.Len(entries, 1)
	req.Equal("readme.txt", entries[0].Name)
}

func Test_ScenarioD_ThreeFailedLogins(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	session := s.dial(t, s.addr)
	prompts := 0

	err := session.Login(func(int) (string, string, error) {
		prompts++
		return "alice", "not-the-password1", nil
	})

	req.ErrorIs(err, errors.ErrTooManyAuthAttempts)
	req.Equal(3, prompts)
	req.Equal(int32(3), s.auth.calls.Load())
}

// startCuttingProxy forwards to target. Connection n is closed on both sides
// once limits[n] bytes went from the server to the client; connections past
// the last limit are forwarded untouched.
func startCuttingProxy(t *testing.T, target string, limits ...int64) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var wg sync.WaitGroup
	t.Cleanup(func() {
		_ = ln.Close()
		wg.Wait()
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for n := 0; ; n++ {
			down, err := ln.Accept()
			if err != nil {
				return
			}
			up, err := net.Dial("tcp", target)
			if err != nil {
				_ = down.Close()
				return
			}
			wg.Add(1)
			limit := int64(-1)
			if n < len(limits) {
				limit = limits[n]
			}
			go func() {
				defer wg.Done()
				defer down.Close()
				defer up.Close()
				go func() {
					_, _ = io.Copy(up, down)
					_ = up.Close()
				}()
				if limit >= 0 {
					_, _ = io.CopyN(down, up, limit)
					return
				}
				_, _ = io.Copy(down, up)
			}()
		}
	}()
	return ln.Addr().String()
}
