package app

import (
	coreconfig "github.com/Vladislavbro/tango-bot/core/config"
	coredatabase "github.com/Vladislavbro/tango-bot/core/database"
	"github.com/Vladislavbro/tango-bot/internal/health"
)

// Config is the full bot configuration: the core settings plus the
// optional journal database and ops server.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Health   health.Config       `yaml:"health"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads path (optional) and the environment, then validates.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	return &cfg, nil
}
