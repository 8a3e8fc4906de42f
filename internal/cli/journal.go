package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/scenesync/internal/store"
	"github.com/roach88/scenesync/internal/wire"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Database  string
	Direction string // optional "in" or "out" filter
}

// JournalLine is one journaled message as printed.
type JournalLine struct {
	Seq        int64     `json:"seq"`
	Direction  string    `json:"direction"`
	ClientID   int       `json:"client_id"`
	Time       int       `json:"time"`
	Kind       string    `json:"kind"`
	Text       string    `json:"text"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal [session]",
		Short: "Show journaled sessions and messages",
		Long: `Without a session id, list the journaled sessions.
With one, print its messages in the order they were recorded.

Examples:
  scenesync journal --db ./scenesync.db
  scenesync journal --db ./scenesync.db 0190f3c2-... --direction in`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts.Database, func(ctx context.Context, st *store.Store) error {
				if len(args) == 0 {
					return listSessions(ctx, opts, st, cmd)
				}
				return showJournal(ctx, opts, st, args[0], cmd)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Direction, "direction", "", "only show in or out messages")

	return cmd
}

func listSessions(ctx context.Context, opts *JournalOptions, st *store.Store, cmd *cobra.Command) error {
	sessions, err := st.Sessions(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list sessions", err)
	}

	return newOutputFormatter(opts.RootOptions, cmd).Success(sessions, func(w io.Writer) {
		if len(sessions) == 0 {
			fmt.Fprintln(w, "No sessions found.")
			return
		}
		for _, s := range sessions {
			fmt.Fprintf(w, "%s  %6d messages  %s .. %s\n",
				s.ID, s.Messages, s.First.Format(time.RFC3339), s.Last.Format(time.RFC3339))
		}
	})
}

func showJournal(ctx context.Context, opts *JournalOptions, st *store.Store, session string, cmd *cobra.Command) error {
	if opts.Direction != "" && opts.Direction != store.DirectionIn && opts.Direction != store.DirectionOut {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid direction %q: must be in or out", opts.Direction))
	}

	entries, err := st.ReadJournal(ctx, session)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read journal", err)
	}
	if len(entries) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", session))
	}

	lines := make([]JournalLine, 0, len(entries))
	for _, e := range entries {
		if opts.Direction != "" && e.Direction != opts.Direction {
			continue
		}
		lines = append(lines, JournalLine{
			Seq:        e.Seq,
			Direction:  e.Direction,
			ClientID:   int(e.ClientID),
			Time:       int(e.Time),
			Kind:       e.Kind.String(),
			Text:       wire.Describe(e.Message),
			RecordedAt: e.RecordedAt,
		})
	}

	return newOutputFormatter(opts.RootOptions, cmd).Success(lines, func(w io.Writer) {
		fmt.Fprintf(w, "Session: %s\n\n", session)
		for _, l := range lines {
			fmt.Fprintf(w, "[%d] %-3s %s\n", l.Seq, l.Direction, l.Text)
		}
	})
}
