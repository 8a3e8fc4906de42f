package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scenesync/internal/wire"
)

// DecodedMessage is one decoded wire message.
type DecodedMessage struct {
	Hex      string `json:"hex"`
	Kind     string `json:"kind,omitempty"`
	ClientID int    `json:"client_id"`
	Time     int    `json:"time"`
	Text     string `json:"text"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <hex>...",
		Short: "Decode wire messages",
		Long: `Decode hex-encoded wire messages into their records.

Spaces and colons inside an argument are ignored, so bytes copied from a
packet capture can be pasted as they are.

Examples:
  scenesync decode 070002
  scenesync decode "07 00 01 07 01 00 01"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runDecode(opts *RootOptions, args []string, cmd *cobra.Command) error {
	messages := make([]DecodedMessage, 0, len(args))
	for i, arg := range args {
		clean := strings.NewReplacer(" ", "", ":", "").Replace(arg)
		msg, err := hex.DecodeString(clean)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("argument %d is not hex", i+1), err)
		}
		messages = append(messages, decodeMessage(msg))
	}

	return newOutputFormatter(opts, cmd).Success(messages, func(w io.Writer) {
		for _, m := range messages {
			fmt.Fprintln(w, m.Text)
		}
	})
}

func decodeMessage(msg []byte) DecodedMessage {
	d := DecodedMessage{Hex: hex.EncodeToString(msg), Text: wire.Describe(msg)}
	if r, err := wire.NewReader(msg); err == nil {
		d.Kind = r.Header.Kind.String()
		d.ClientID = int(r.Header.ClientID)
		d.Time = int(r.Header.Time)
	}
	return d
}
