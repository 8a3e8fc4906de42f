package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/scenesync/internal/config"
)

// SessionFlags override the SCENESYNC_* environment for commands that talk
// to a server.
type SessionFlags struct {
	ServerIP string
	ClientID int
	SceneID  int
	Rate     int
	NoPing   bool
}

func (f *SessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ServerIP, "server", "", "server IP address (SCENESYNC_SERVER_IP)")
	cmd.Flags().IntVar(&f.ClientID, "client-id", 0, "client id, 0 derives one (SCENESYNC_CLIENT_ID)")
	cmd.Flags().IntVar(&f.SceneID, "scene-id", 0, "scene id (SCENESYNC_SCENE_ID)")
	cmd.Flags().IntVar(&f.Rate, "rate", 0, "clock rate in steps per second (SCENESYNC_RATE)")
	cmd.Flags().BoolVar(&f.NoPing, "no-ping", false, "disable RTT measurement (SCENESYNC_PING=false)")
}

// load reads the environment, applies the flags that were set, validates
// the result and resolves the client id.
func (f *SessionFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerIP = f.ServerIP
	}
	if flags.Changed("client-id") {
		cfg.ClientID = f.ClientID
	}
	if flags.Changed("scene-id") {
		cfg.SceneID = f.SceneID
	}
	if flags.Changed("rate") {
		cfg.Rate = f.Rate
	}
	if flags.Changed("no-ping") {
		cfg.Ping = !f.NoPing
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if err := cfg.Resolve(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}
