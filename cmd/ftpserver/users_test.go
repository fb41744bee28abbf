package main

import (
	"bytes"
	"ftp-lab/errors"
	"ftp-lab/repositories"
	"ftp-lab/services"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*services.AuthService, string) {
	t.Helper()
	db, err := repositories.OpenInMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	base := t.TempDir()
	return services.NewAuthService(repositories.NewUserRepository(db), base, logs.GetLoggerFromLevel(slog.LevelDebug)), base
}

func TestUserCommands(t *testing.T) {
	req := require.New(t)
	svc, base := newAuthService(t)
	var out bytes.Buffer

	// Given a created user
	code, err := createUser(svc, []string{"-password", "secret123", "alice"}, os.Stdin, &out)
	req.NoError(err)
	req.Equal(exitOK, code)
	req.DirExists(filepath.Join(base, "alice"))

	// When listing
	out.Reset()
	code, err = listUsers(svc, &out)
	req.NoError(err)
	req.Equal(exitOK, code)
	req.Contains(out.String(), "alice")

	// Then deleting archives the home
	out.Reset()
	code, err = deleteUser(svc, []string{"alice"}, &out)
	req.NoError(err)
	req.Equal(exitOK, code)
	req.NoDirExists(filepath.Join(base, "alice"))
	req.Contains(out.String(), "del_alice_")

	_, err = deleteUser(svc, []string{"alice"}, &out)
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestCreateUser_Invalid(t *testing.T) {
	req := require.New(t)
	svc, _ := newAuthService(t)
	var out bytes.Buffer

	code, err := createUser(svc, []string{"-password", "secret123", "../evil"}, os.Stdin, &out)

	req.Equal(exitRuntime, code)
	req.ErrorIs(err, errors.ErrInvalidAccount)

	code, err = createUser(svc, nil, os.Stdin, &out)
	req.Equal(exitConfig, code)
	req.Error(err)
}

func TestPromptNewPassword_Piped(t *testing.T) {
	req := require.New(t)
	r, w, err := os.Pipe()
	req.NoError(err)
	_, err = w.WriteString("secret123\nsecret123\n")
	req.NoError(err)
	req.NoError(w.Close())
	var out bytes.Buffer

	password, err := promptNewPassword(r, &out)

	req.NoError(err)
	req.Equal("secret123", password)
}
