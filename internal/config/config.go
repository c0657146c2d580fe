package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Discord DiscordConfig `yaml:"discord"`
	Poll    PollConfig    `yaml:"poll"`
	Player  PlayerConfig  `yaml:"player"`
	Artwork ArtworkConfig `yaml:"artwork"`
	Status  StatusConfig  `yaml:"status"`
}

type DiscordConfig struct {
	// AppID is the Discord application ID the presence is published
	// under. Must be numeric.
	AppID   string        `yaml:"app_id" env:"MUSICORD_DISCORD_APP_ID"`
	Timeout time.Duration `yaml:"timeout" env:"MUSICORD_DISCORD_TIMEOUT"`
}

type PollConfig struct {
	Interval        time.Duration `yaml:"interval" env:"MUSICORD_POLL_INTERVAL"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"MUSICORD_SHUTDOWN_TIMEOUT"`
}

type PlayerConfig struct {
	// Source selects the probe backend: "applescript" or "mpd".
	Source string `yaml:"source" env:"MUSICORD_PLAYER_SOURCE"`
	// MPDAddress is host:port or an absolute unix socket path.
	MPDAddress string `yaml:"mpd_address" env:"MUSICORD_MPD_ADDRESS"`
	// DisplayName is the activity name shown as "Listening to <name>".
	DisplayName string `yaml:"display_name" env:"MUSICORD_DISPLAY_NAME"`
}

type ArtworkConfig struct {
	Enabled bool `yaml:"enabled" env:"MUSICORD_ARTWORK_ENABLED"`
}

type StatusConfig struct {
	Enabled bool   `yaml:"enabled" env:"MUSICORD_STATUS_ENABLED"`
	Host    string `yaml:"host" env:"MUSICORD_STATUS_HOST"`
	Port    int    `yaml:"port" env:"MUSICORD_STATUS_PORT"`
}

func defaultConfig() *Config {
	return &Config{
		Discord: DiscordConfig{
			AppID:   "1410325920039960657",
			Timeout: 2 * time.Second,
		},
		Poll: PollConfig{
			Interval:        15 * time.Second,
			ShutdownTimeout: 3 * time.Second,
		},
		Player: PlayerConfig{
			Source:      "applescript",
			MPDAddress:  "127.0.0.1:6600",
			DisplayName: "Apple Music",
		},
		Artwork: ArtworkConfig{
			Enabled: true,
		},
		Status: StatusConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    7707,
		},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist (the daemon is expected to run unconfigured), then
// applies MUSICORD_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Discord.AppID == "" {
		return fmt.Errorf("discord.app_id is required")
	}
	for _, r := range c.Discord.AppID {
		if r < '0' || r > '9' {
			return fmt.Errorf("discord.app_id must be numeric, got %q", c.Discord.AppID)
		}
	}
	switch c.Player.Source {
	case "applescript", "mpd":
	default:
		return fmt.Errorf("player.source must be %q or %q, got %q", "applescript", "mpd", c.Player.Source)
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if c.Discord.Timeout <= 0 {
		return fmt.Errorf("discord.timeout must be positive")
	}
	return nil
}
