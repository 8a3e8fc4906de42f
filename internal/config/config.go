// Package config loads scenesync settings from SCENESYNC_* environment
// variables. Command-line flags override what is loaded here.
package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"

	"github.com/roach88/scenesync/internal/clock"
	"github.com/roach88/scenesync/internal/engine"
	"github.com/roach88/scenesync/internal/transport"
)

// Config holds the session settings.
type Config struct {
	ServerIP string `env:"SCENESYNC_SERVER_IP" envDefault:"127.0.0.1"`

	DistributionPort int `env:"SCENESYNC_DISTRIBUTION_PORT" envDefault:"5555"`
	SyncPort         int `env:"SCENESYNC_SYNC_PORT" envDefault:"5556"`
	UpdatePort       int `env:"SCENESYNC_UPDATE_PORT" envDefault:"5557"`
	CommandPort      int `env:"SCENESYNC_COMMAND_PORT" envDefault:"5558"`

	// ClientID 0 asks Resolve to pick one.
	ClientID int `env:"SCENESYNC_CLIENT_ID" envDefault:"0"`
	SceneID  int `env:"SCENESYNC_SCENE_ID" envDefault:"254"`

	Rate int  `env:"SCENESYNC_RATE" envDefault:"60"`
	Ping bool `env:"SCENESYNC_PING" envDefault:"true"`

	PingInterval time.Duration `env:"SCENESYNC_PING_INTERVAL" envDefault:"1s"`
	PollInterval time.Duration `env:"SCENESYNC_POLL_INTERVAL" envDefault:"10ms"`
	ReplyTimeout time.Duration `env:"SCENESYNC_REPLY_TIMEOUT" envDefault:"100ms"`

	DBPath string `env:"SCENESYNC_DB_PATH"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config with defaults applied.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no session can run with.
func (c Config) Validate() error {
	var errs []error
	if net.ParseIP(c.ServerIP) == nil {
		errs = append(errs, fmt.Errorf("server ip %q is not an IP address", c.ServerIP))
	}
	ports := []struct {
		name string
		port int
	}{
		{"distribution", c.DistributionPort},
		{"sync", c.SyncPort},
		{"update", c.UpdatePort},
		{"command", c.CommandPort},
	}
	seen := map[int]string{}
	for _, p := range ports {
		if p.port < 1 || p.port > 65535 {
			errs = append(errs, fmt.Errorf("%s port %d outside 1..65535", p.name, p.port))
			continue
		}
		if other, ok := seen[p.port]; ok {
			errs = append(errs, fmt.Errorf("%s port %d already used by %s", p.name, p.port, other))
		}
		seen[p.port] = p.name
	}
	if c.ClientID < 0 || c.ClientID > 255 {
		errs = append(errs, fmt.Errorf("client id %d outside 0..255", c.ClientID))
	}
	if c.SceneID < 0 || c.SceneID > 255 {
		errs = append(errs, fmt.Errorf("scene id %d outside 0..255", c.SceneID))
	}
	if _, err := clock.CycleLength(c.Rate); err != nil {
		errs = append(errs, err)
	}
	if c.PingInterval <= 0 || c.PollInterval <= 0 || c.ReplyTimeout <= 0 {
		errs = append(errs, errors.New("intervals must be positive"))
	}
	return errors.Join(errs...)
}

// Resolve replaces a zero ClientID with one derived from a random UUID.
// The result is never 0.
func (c *Config) Resolve() error {
	if c.ClientID != 0 {
		return nil
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Errorf("derive client id: %w", err)
	}
	c.ClientID = DeriveClientID(id)
	return nil
}

// DeriveClientID folds a UUID into 1..255.
func DeriveClientID(id uuid.UUID) int {
	var sum int
	for _, b := range id {
		sum += int(b)
	}
	return sum%255 + 1
}

// Endpoints returns the four tcp endpoints of the session.
func (c Config) Endpoints() transport.Endpoints {
	return transport.NewEndpoints(c.ServerIP, c.DistributionPort, c.SyncPort, c.UpdatePort, c.CommandPort)
}

// Engine returns the engine settings. Call Resolve first.
func (c Config) Engine() engine.Config {
	return engine.Config{
		ClientID:     uint8(c.ClientID),
		Endpoints:    c.Endpoints(),
		Rate:         c.Rate,
		Ping:         c.Ping,
		PingInterval: c.PingInterval,
		PollInterval: c.PollInterval,
		ReplyTimeout: c.ReplyTimeout,
	}
}
