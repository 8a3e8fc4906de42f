package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/scenesync/internal/config"
	"github.com/roach88/scenesync/internal/engine"
	"github.com/roach88/scenesync/internal/scenefile"
	"github.com/roach88/scenesync/internal/store"
	"github.com/roach88/scenesync/internal/transport"
	"github.com/roach88/scenesync/internal/value"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - defaults to the latest session
	All      bool   // print unchanged parameters too
}

// ReplayParameter is one parameter after replay.
type ReplayParameter struct {
	Entity  int    `json:"entity"`
	Object  string `json:"object"`
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Value   string `json:"value"`
	Changed bool   `json:"changed"`
}

// ReplayResult holds the state reached by replaying a session.
type ReplayResult struct {
	Session    string            `json:"session"`
	ClientID   int               `json:"client_id"`
	Messages   int               `json:"messages"`
	Clock      int               `json:"clock"`
	Parameters []ReplayParameter `json:"parameters"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scene.cue>",
		Short: "Replay a journaled session into a fresh scene",
		Long: `Re-dispatch the inbound messages of a journaled session, in the order
they were recorded, into a freshly built scene and print the parameter
values they leave behind. Nothing is sent.

Exit codes:
  0 - Replay completed
  2 - Command error (database, session or scene not found)

Examples:
  scenesync replay --db ./scenesync.db ./studio.cue
  scenesync replay --db ./scenesync.db --session 0190f3c2-... ./studio.cue --all`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to replay (default: latest)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "print unchanged parameters too")

	return cmd
}

func runReplay(opts *ReplayOptions, scenePath string, cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	doc, err := scenefile.Load(scenePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scene", err)
	}
	built, err := scenefile.Build(doc)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build scene", err)
	}

	return withStore(opts.Database, func(ctx context.Context, st *store.Store) error {
		session := opts.Session
		if session == "" {
			if session, err = latestSession(ctx, st); err != nil {
				return err
			}
		}

		entries, err := st.ReadJournal(ctx, session)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		if len(entries) == 0 {
			return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", session))
		}

		local := replayClientID(entries)
		eng, err := engine.New(built.Scene, transport.NewMemory(), engine.Config{
			ClientID: local,
			Rate:     cfg.Rate,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create engine", err)
		}

		result := ReplayResult{Session: session, ClientID: int(local)}
		for _, e := range entries {
			if e.Direction != store.DirectionIn {
				continue
			}
			eng.Dispatch(e.Message)
			result.Messages++
		}
		slog.Debug("replay finished", "session", session, "messages", result.Messages)
		result.Clock = int(eng.Clock().Now())

		result.Parameters = []ReplayParameter{}
		for _, ent := range built.Scene.Entities() {
			for _, p := range ent.Parameters() {
				changed := !value.Near(p.Value(), p.Initial(), 0)
				if !changed && !opts.All {
					continue
				}
				result.Parameters = append(result.Parameters, ReplayParameter{
					Entity:  int(ent.ID()),
					Object:  ent.Name(),
					Index:   p.Index(),
					Name:    p.Name(),
					Kind:    p.Kind().String(),
					Value:   value.Format(p.Value()),
					Changed: changed,
				})
			}
		}

		return newOutputFormatter(opts.RootOptions, cmd).Success(result, func(w io.Writer) {
			outputReplayText(w, result)
		})
	})
}

// latestSession returns the newest session id. Ids are UUIDv7, so the
// lexical maximum is the latest.
func latestSession(ctx context.Context, st *store.Store) (string, error) {
	sessions, err := st.Sessions(ctx)
	if err != nil {
		return "", WrapExitError(ExitFailure, "failed to list sessions", err)
	}
	if len(sessions) == 0 {
		return "", NewExitError(ExitCommandError, "no sessions found")
	}
	return sessions[len(sessions)-1].ID, nil
}

// replayClientID picks the id the replaying engine runs as: the sender of
// the session's outbound messages, or else an id no inbound message used.
func replayClientID(entries []store.JournalEntry) uint8 {
	used := map[uint8]bool{}
	for _, e := range entries {
		if e.Direction == store.DirectionOut && e.ClientID != 0 {
			return e.ClientID
		}
		used[e.ClientID] = true
	}
	for id := 255; id > 0; id-- {
		if !used[uint8(id)] {
			return uint8(id)
		}
	}
	return 255
}

func outputReplayText(w io.Writer, result ReplayResult) {
	fmt.Fprintf(w, "Session: %s\n", result.Session)
	fmt.Fprintf(w, "Replayed %d inbound messages as client %d, clock %d\n", result.Messages, result.ClientID, result.Clock)
	if len(result.Parameters) == 0 {
		fmt.Fprintln(w, "No parameters changed.")
		return
	}
	fmt.Fprintln(w)
	for _, p := range result.Parameters {
		marker := " "
		if p.Changed {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %d/%d %s.%s = %s\n", marker, p.Entity, p.Index, p.Object, p.Name, p.Value)
	}
}
