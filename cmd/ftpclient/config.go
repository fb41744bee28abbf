package main

import (
	"flag"
	"fmt"
	"net"
	"strconv"

	"github.com/kelseyhightower/envconfig"
)

// Config is the client configuration: FTP_* environment variables,
// overridden by command-line flags.
type Config struct {
	Server      string `envconfig:"SERVER" default:"127.0.0.1"`
	Port        int    `envconfig:"PORT" default:"20000"`
	Username    string `envconfig:"USERNAME"`
	Password    string `envconfig:"PASSWORD"`
	LedgerPath  string `envconfig:"LEDGER_PATH" default:"./.ftp-ledger"`
	DownloadDir string `envconfig:"DOWNLOAD_DIR" default:"."`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"WARN"`
	FrameSize   int    `envconfig:"FRAME_SIZE" default:"1024"`
	// FTP_COLOURS enables the coloured prompt
	Colours bool `envconfig:"COLOURS" default:"true"`
}

func LoadConfig(args []string) (Config, error) {
	var cfg Config
	if err := envconfig.Process("ftp", &cfg); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("ftpclient", flag.ContinueOnError)
	fs.StringVar(&cfg.Server, "s", cfg.Server, "server host")
	fs.IntVar(&cfg.Port, "P", cfg.Port, "server port")
	fs.StringVar(&cfg.Username, "u", cfg.Username, "username")
	fs.StringVar(&cfg.Password, "p", cfg.Password, "password")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("port must be within 1-65535, got %d", cfg.Port)
	}
	return cfg, nil
}

func (c Config) Address() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
}
