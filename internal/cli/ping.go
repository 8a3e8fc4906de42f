package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/scenesync/internal/clock"
	"github.com/roach88/scenesync/internal/transport"
	"github.com/roach88/scenesync/internal/wire"
)

// PingOptions holds flags for the ping command.
type PingOptions struct {
	*RootOptions
	Session  SessionFlags
	Count    int
	Interval time.Duration
	Timeout  time.Duration
	Endpoint string // overrides the command endpoint

	// Dialer overrides the ZeroMQ transport (for testing).
	Dialer transport.Dialer
}

// PingSample is one answered ping.
type PingSample struct {
	Seq     int     `json:"seq"`
	Steps   int     `json:"steps"`
	Elapsed float64 `json:"elapsed_ms"`
	Own     bool    `json:"own,omitempty"` // echoed with our client id, not counted
}

// PingResult summarizes a ping run.
type PingResult struct {
	Endpoint string       `json:"endpoint"`
	ClientID int          `json:"client_id"`
	Sent     int          `json:"sent"`
	Samples  []PingSample `json:"samples"`
	Estimate float64      `json:"estimate_steps"`
	OneWay   int          `json:"one_way_steps"`
}

// NewPingCommand creates the ping command.
func NewPingCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PingOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Measure round-trip time to the server",
		Long: `Send PING requests on the command channel and report the round-trip
estimate in clock steps, computed the same way a serving client does.

Exit codes:
  0 - At least one reply was counted
  1 - No usable reply
  2 - Command error (bad configuration, server unreachable)

Examples:
  scenesync ping --server 10.0.0.5 --count 10
  scenesync ping --endpoint tcp://127.0.0.1:5558 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPing(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Count, "count", "c", 5, "number of pings")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "pause between pings (default SCENESYNC_PING_INTERVAL)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Second, "overall deadline")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "command endpoint, overrides --server")
	opts.Session.register(cmd)

	return cmd
}

func runPing(opts *PingOptions, cmd *cobra.Command) error {
	if opts.Count < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("count must be positive, got %d", opts.Count))
	}
	cfg, err := opts.Session.load(cmd)
	if err != nil {
		return err
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = cfg.Endpoints().Command
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = cfg.PingInterval
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithTimeout(parentCtx, opts.Timeout)
	defer cancel()

	dialer := opts.Dialer
	if dialer == nil {
		dialer = transport.NewZMQ()
	}
	req, err := dialer.Request(ctx, endpoint)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open command channel", err)
	}
	defer req.Close()

	clk, err := clock.New(cfg.Rate)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	rtt := clock.NewRTT()
	id := uint8(cfg.ClientID)

	last := time.Now()
	tick := func() time.Time {
		now := time.Now()
		clk.Advance(now.Sub(last))
		last = now
		return now
	}

	result := PingResult{Endpoint: endpoint, ClientID: cfg.ClientID, Samples: []PingSample{}}
	for i := 1; i <= opts.Count; i++ {
		if i > 1 {
			select {
			case <-ctx.Done():
			case <-time.After(interval):
			}
		}
		if ctx.Err() != nil {
			break
		}

		sent := tick()
		start := clk.Now()
		result.Sent++
		reply, err := req.Request(wire.NewPing(id, start))
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return WrapExitError(ExitCommandError, "ping failed", err)
		}
		now := tick()

		sample := PingSample{
			Seq:     i,
			Steps:   clock.Distance(int(clk.Now()), int(start), clk.Cycle()),
			Elapsed: float64(now.Sub(sent).Microseconds()) / 1000,
		}
		if r, err := wire.NewReader(reply); err == nil && r.Header.ClientID == id {
			sample.Own = true
		} else {
			rtt.Add(sample.Steps)
		}
		slog.Debug("pong", "seq", i, "steps", sample.Steps, "own", sample.Own)
		result.Samples = append(result.Samples, sample)
	}
	result.Estimate = rtt.Estimate()
	result.OneWay = rtt.OneWay()

	counted := len(rtt.Samples())
	err = newOutputFormatter(opts.RootOptions, cmd).Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "PING %s as client %d\n", endpoint, cfg.ClientID)
		for _, s := range result.Samples {
			note := ""
			if s.Own {
				note = " (own id, ignored)"
			}
			fmt.Fprintf(w, "  seq=%d steps=%d time=%.3fms%s\n", s.Seq, s.Steps, s.Elapsed, note)
		}
		fmt.Fprintf(w, "%d sent, %d replies, rtt %.2f steps, one-way %d steps\n",
			result.Sent, len(result.Samples), result.Estimate, result.OneWay)
	})
	if err != nil {
		return err
	}

	if counted == 0 {
		return NewExitError(ExitFailure, "no usable replies")
	}
	return nil
}
