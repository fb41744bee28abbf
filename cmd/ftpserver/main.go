package main

import (
	"context"
	"fmt"
	"ftp-lab/internal"
	"ftp-lab/repositories"
	"ftp-lab/runtime/workers"
	"ftp-lab/server"
	"ftp-lab/services"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const usage = `usage: ftpserver [command]

commands:
  start                                  serve clients (default)
  createuser [-display NAME] [-password PASS] USER
  deleteuser USER                        remove USER, archive its home
  users                                  list accounts
  usage                                  disk usage of the home base dir
`

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
	}
	os.Exit(code)
}

// run loads the configuration, opens the account store and dispatches to
// the requested command. Deferred cleanups run before main exits.
func run(args []string) (int, error) {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log, closeLog, err := internal.NewLogger(config.LogLevel, config.LogFile)
	if err != nil {
		return exitConfig, err
	}
	defer func() { _ = closeLog() }()

	command := "start"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.OpenDB(ctx, config.AccountDBPath, log)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		log.Debug("Closing account store")
		_ = db.Close()
	}()

	authService := services.NewAuthService(repositories.NewUserRepository(db), config.HomeBaseDir, log)

	switch command {
	case "start":
		return start(ctx, config, authService, log)
	case "createuser":
		return createUser(authService, args, os.Stdin, os.Stdout)
	case "deleteuser":
		return deleteUser(authService, args, os.Stdout)
	case "users":
		return listUsers(authService, os.Stdout)
	case "usage":
		return reportUsage(authService, config.HomeBaseDir, os.Stdout)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return exitOK, nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return exitConfig, fmt.Errorf("unknown command %q", command)
	}
}

// start serves clients until SIGINT or SIGTERM.
func start(ctx context.Context, config internal.Config, authService *services.AuthService, log *slog.Logger) (int, error) {
	if err := os.MkdirAll(config.HomeBaseDir, 0o755); err != nil {
		return exitRuntime, fmt.Errorf("home base dir: %w", err)
	}

	srv := server.NewServer(server.Config{
		FrameSize:       config.FrameSize,
		MaxAuthAttempts: config.MaxAuthAttempts,
	}, authService, log)

	listener := server.NewListenerWorker(srv, config.Address(), log)
	if err := listener.Bind(ctx); err != nil {
		return exitRuntime, err
	}

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(listener)

	log.Info("Starting file server", "address", config.Address(), "home_base_dir", config.HomeBaseDir)
	sup.Run(ctx)
	log.Info("Program stopped cleanly")
	return exitOK, nil
}
