package cli

import (
	"io"

	"github.com/spf13/cobra"

	apperrors "tasknest/internal/errors"
	"tasknest/internal/model"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Log in and remember the session",
		Long: `Log in and remember the session for later commands.

The predefined accounts need their configured password. Any other email is
accepted with any non-empty password.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := rootOpts.app.Session.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return rootOpts.output(cmd).Print(user, func(w io.Writer) error {
				return printf(w, "Logged in as %s\n", describeUser(user))
			})
		},
	}
}

// RegisterOptions holds flags for the register command.
type RegisterOptions struct {
	*RootOptions
	Name string
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register <email> <password>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := opts.app.Session.Register(cmd.Context(), opts.Name, args[0], args[1])
			if err != nil {
				return err
			}
			return opts.output(cmd).Print(user, func(w io.Writer) error {
				return printf(w, "Registered and logged in as %s\n", describeUser(user))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "display name (defaults to the email's local part)")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			return rootOpts.output(cmd).Message("Logged out")
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user := rootOpts.app.Session.Current()
			return rootOpts.output(cmd).Print(user, func(w io.Writer) error {
				if user == nil {
					return printf(w, "Not logged in\n")
				}
				return printf(w, "%s\n", describeUser(user))
			})
		},
	}
}

// requireSession returns the current identity or ErrNotAuthenticated.
func requireSession(opts *RootOptions) (*model.User, error) {
	user := opts.app.Session.Current()
	if user == nil {
		return nil, apperrors.ErrNotAuthenticated
	}
	return user, nil
}
