// Package cli is the tasknest command line. Each invocation is one process: it
// resumes the persisted session, runs one command and exits.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tasknest/internal/config"
	"tasknest/internal/logging"
	"tasknest/internal/storage"
)

// StorageOpener opens the backing store. storage.Open is the production opener.
type StorageOpener func(ctx context.Context, cfg *config.Config) (storage.Storage, func() error, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Remote  string

	cfg  *config.Config
	open StorageOpener
	app  *App
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Run executes the CLI with args and releases the storage however the command ends.
func Run(ctx context.Context, cfg *config.Config, open StorageOpener, args []string, stdout, stderr io.Writer) error {
	opts := &RootOptions{cfg: cfg, open: open}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if opts.app != nil {
		if cerr := opts.app.Close(); cerr != nil && err == nil {
			err = cerr
		}
		opts.app = nil
	}
	return err
}

// NewRootCommand creates the root command for the tasknest CLI.
func NewRootCommand(cfg *config.Config, open StorageOpener) *cobra.Command {
	return newRootCommand(&RootOptions{cfg: cfg, open: open})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tasknest",
		Short:         "TaskNest - a small multi-user task tracker",
		Long:          "Track tasks with owners and assignees. Admins see and manage everything; users see what they own or are assigned.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Verbose {
				logging.InitTo(cmd.ErrOrStderr(), "debug", opts.cfg.LogFile)
			} else {
				logging.Discard()
			}
			app, err := OpenApp(cmd.Context(), opts.cfg, opts.open, opts.Remote)
			if err != nil {
				return err
			}
			opts.app = app
			if opts.Verbose {
				app.logTaskChanges()
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr at debug level")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Remote, "remote", opts.cfg.RemoteURL, "authenticate against the TaskNest server at this URL")

	// Add subcommands
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewTaskCommand(opts))
	cmd.AddCommand(NewUsersCommand(opts))

	return cmd
}

func (o *RootOptions) output(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
