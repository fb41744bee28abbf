package main

import (
	"bufio"
	"context"
	"fmt"
	"ftp-lab/client"
	"ftp-lab/repositories"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	config, err := LoadConfig(args)
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.OpenDB(ctx, config.LedgerPath, log)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = db.Close() }()
	ledger := repositories.NewLedgerRepository(db, log)

	session, err := client.Dial(ctx, config.Address(), client.Options{
		FrameSize:   config.FrameSize,
		DownloadDir: config.DownloadDir,
		Ledger:      ledger,
		Log:         log,
	})
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = session.Close() }()

	// Closing the connection unblocks a transfer in progress on Ctrl+C.
	unwatch := context.AfterFunc(ctx, func() { _ = session.Close() })
	defer unwatch()

	sh := newShell(session, bufio.NewReader(os.Stdin), os.Stdin, os.Stdout, config.Colours)
	if err := sh.login(config.Username, config.Password); err != nil {
		return exitRuntime, err
	}
	sh.reportInconsistencies()
	if err := sh.offerResume(); err != nil {
		return exitRuntime, err
	}
	if err := sh.loop(); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}
