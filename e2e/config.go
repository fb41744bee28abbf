package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_SERVER_ADDR points at a running ftpserver; the suite is skipped when empty
	ServerAddr string `envconfig:"E2E_SERVER_ADDR"`
	Username   string `envconfig:"E2E_USERNAME" default:"e2e"`
	Password   string `envconfig:"E2E_PASSWORD"`
	// E2E_FRAME_SIZE must match the server FRAME_SIZE
	FrameSize int `envconfig:"E2E_FRAME_SIZE" default:"1024"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
