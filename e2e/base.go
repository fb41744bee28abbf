package e2e

import (
	"context"
	"fmt"
	"ftp-lab/client"
	"ftp-lab/repositories"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type BaseSuite struct {
	suite.Suite
	Config Config
	ledger *badger.DB
	log    *slog.Logger
}

// SetupSuite loads the environment configuration and skips the suite when
// no server address is configured
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("E2E_SERVER_ADDR not set")
	}
	s.ledger, err = repositories.OpenInMemoryDB()
	s.Require().NoError(err)
	s.log = logs.GetLoggerFromLevel(slog.LevelDebug)
}

func (s *BaseSuite) TearDownSuite() {
	if s.ledger != nil {
		s.Require().NoError(s.ledger.Close())
	}
}

// Header prints a colorized step header in the test logs
func (s *BaseSuite) Header(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// WithSession dials the configured server, logs in and hands the session to fn
func (s *BaseSuite) WithSession(name, downloadDir string, fn func(session *client.Session)) {
	s.Header(name)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	session, err := client.Dial(ctx, s.Config.ServerAddr, client.Options{
		FrameSize:   s.Config.FrameSize,
		DownloadDir: downloadDir,
		Ledger:      repositories.NewLedgerRepository(s.ledger, s.log),
		Log:         s.log,
		DialTimeout: 5 * time.Second,
	})
	s.Require().NoError(err, "Failed to connect to server at "+s.Config.ServerAddr)
	defer session.Close()

	s.Require().NoError(session.Authenticate(s.Config.Username, s.Config.Password))
	fn(session)
}
