package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/scenesync/internal/engine"
	"github.com/roach88/scenesync/internal/scene"
	"github.com/roach88/scenesync/internal/scenefile"
	"github.com/roach88/scenesync/internal/store"
	"github.com/roach88/scenesync/internal/transport"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Session  SessionFlags
	Database string

	// Dialer overrides the ZeroMQ transport (for testing).
	Dialer transport.Dialer
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve <scene.cue>",
		Short: "Join a session and distribute a scene",
		Long: `Load a CUE scene, connect to the server and keep the scene in sync
until interrupted.

With --db, scene package requests are answered from the database and every
message is journaled under a new session id.

Example:
  scenesync serve ./studio.cue
  scenesync serve --db ./scenesync.db --server 10.0.0.5 ./studio.cue --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (SCENESYNC_DB_PATH)")
	opts.Session.register(cmd)

	return cmd
}

func runServe(opts *ServeOptions, scenePath string, cmd *cobra.Command) error {
	cfg, err := opts.Session.load(cmd)
	if err != nil {
		return err
	}
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.DBPath
	}

	slog.Info("loading scene", "path", scenePath)
	doc, err := scenefile.Load(scenePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scene", err)
	}
	if cfg.SceneID != int(scene.DefaultSceneID) {
		doc.SceneID = uint8(cfg.SceneID)
	}
	built, err := scenefile.Build(doc)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build scene", err)
	}
	slog.Info("scene ready", "scene_id", built.Scene.ID(), "entities", built.Scene.Len())

	engOpts := []engine.Option{engine.WithWatcher(scene.NewWatcher(built.Scene))}
	if dbPath != "" {
		slog.Info("opening database", "path", dbPath)
		st, err := store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		session, err := st.StartSession()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start journal session", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Journal session %s\n", session)
		engOpts = append(engOpts, engine.WithPackages(st), engine.WithJournal(st))
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = transport.NewZMQ()
	}
	eng, err := engine.New(built.Scene, dialer, cfg.Engine(), engOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create engine", err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := eng.Start(ctx); err != nil {
		if engine.IsOpenFailed(err) {
			return WrapExitError(ExitCommandError, "transport unavailable", err)
		}
		return WrapExitError(ExitFailure, "failed to start engine", err)
	}
	defer eng.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Client %d distributing scene %d (%d entities) to %s.\n",
		eng.ClientID(), built.Scene.ID(), built.Scene.Len(), cfg.ServerIP)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "engine error", err)
	}

	slog.Info("engine stopped gracefully")
	return nil
}
