package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/scenesync/internal/engine"
	"github.com/roach88/scenesync/internal/store"
)

// PackagesOptions holds flags shared by the packages subcommands.
type PackagesOptions struct {
	*RootOptions
	Database string
}

// PackageEntry is one stored package as printed by packages list.
type PackageEntry struct {
	Name      string    `json:"name"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
	Known     bool      `json:"known"`
}

// NewPackagesCommand creates the packages command group.
func NewPackagesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PackagesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "packages",
		Short: "Manage scene packages answered on the distribution channel",
		Long: `Manage the byte buffers a serving client returns when a peer requests
a scene package by name.

Known package names: ` + strings.Join(engine.Packages, ", "),
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newPackagesImportCommand(opts))
	cmd.AddCommand(newPackagesListCommand(opts))
	cmd.AddCommand(newPackagesDeleteCommand(opts))
	return cmd
}

func newPackagesImportCommand(opts *PackagesOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "import <name> <file>",
		Short: "Store a file as a package",
		Example: `  scenesync packages import --db ./scenesync.db nodes ./nodes.bin
  scenesync packages import --db ./scenesync.db --force custom ./blob.bin`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			if !engine.IsPackage(name) && !force {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("unknown package %q (known: %s); use --force to store it anyway",
						name, strings.Join(engine.Packages, ", ")))
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read package file", err)
			}
			return withStore(opts.Database, func(ctx context.Context, st *store.Store) error {
				if err := st.PutPackage(ctx, name, data); err != nil {
					return WrapExitError(ExitFailure, "failed to store package", err)
				}
				return outputPackageChange(opts, cmd, "imported", name, len(data))
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "accept names outside the known package list")
	return cmd
}

func newPackagesListCommand(opts *PackagesOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List stored packages",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts.Database, func(ctx context.Context, st *store.Store) error {
				infos, err := st.ListPackages(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to list packages", err)
				}
				entries := make([]PackageEntry, 0, len(infos))
				for _, info := range infos {
					entries = append(entries, PackageEntry{
						Name:      info.Name,
						Size:      info.Size,
						UpdatedAt: info.UpdatedAt,
						Known:     engine.IsPackage(info.Name),
					})
				}

				return newOutputFormatter(opts.RootOptions, cmd).Success(entries, func(w io.Writer) {
					if len(entries) == 0 {
						fmt.Fprintln(w, "No packages stored.")
						return
					}
					for _, e := range entries {
						marker := ""
						if !e.Known {
							marker = " (not requested by peers)"
						}
						fmt.Fprintf(w, "%-12s %8d bytes  %s%s\n", e.Name, e.Size, e.UpdatedAt.Format(time.RFC3339), marker)
					}
				})
			})
		},
	}
}

func newPackagesDeleteCommand(opts *PackagesOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <name>",
		Short:         "Remove a stored package",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts.Database, func(ctx context.Context, st *store.Store) error {
				if err := st.DeletePackage(ctx, args[0]); err != nil {
					return WrapExitError(ExitFailure, "failed to delete package", err)
				}
				return outputPackageChange(opts, cmd, "deleted", args[0], 0)
			})
		},
	}
}

func outputPackageChange(opts *PackagesOptions, cmd *cobra.Command, action, name string, size int) error {
	data := map[string]any{"action": action, "name": name, "size": size}
	return newOutputFormatter(opts.RootOptions, cmd).Success(data, func(w io.Writer) {
		if action == "imported" {
			fmt.Fprintf(w, "✓ %s %s (%d bytes)\n", action, name, size)
			return
		}
		fmt.Fprintf(w, "✓ %s %s\n", action, name)
	})
}

// withStore opens the database for the duration of fn.
func withStore(path string, fn func(ctx context.Context, st *store.Store) error) error {
	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()
	return fn(context.Background(), st)
}
