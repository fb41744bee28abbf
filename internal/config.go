package internal

import (
	"fmt"
	"ftp-lab/protocol"
	"path/filepath"
	"time"
)

// Config is the server configuration, read from the environment.
type Config struct {
	Host            string        `env:"HOST,default=0.0.0.0"`
	Port            int           `env:"PORT,default=20000"`
	HomeBaseDir     string        `env:"HOME_BASE_DIR,default=./home"`
	AccountDBPath   string        `env:"ACCOUNT_DB_PATH,default=./accounts"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	LogFile         string        `env:"LOG_FILE"`
	FrameSize       int           `env:"FRAME_SIZE,default=1024"`
	MaxAuthAttempts int           `env:"MAX_AUTH_ATTEMPTS,default=0"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate rejects values the server cannot run with and makes the home
// base directory absolute.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be within 0-65535, got %d", c.Port)
	}
	if c.FrameSize < 128 {
		return fmt.Errorf("FRAME_SIZE must be at least 128, got %d (default %d)", c.FrameSize, protocol.DefaultFrameSize)
	}
	if c.MaxAuthAttempts < 0 {
		return fmt.Errorf("MAX_AUTH_ATTEMPTS must not be negative, got %d", c.MaxAuthAttempts)
	}
	home, err := filepath.Abs(c.HomeBaseDir)
	if err != nil {
		return fmt.Errorf("HOME_BASE_DIR: %w", err)
	}
	c.HomeBaseDir = home
	return nil
}
