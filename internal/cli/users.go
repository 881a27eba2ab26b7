package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewUsersCommand creates the admin-only users command group.
func NewUsersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users (admin only)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every known user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := rootOpts.app.Admin.ListUsers(cmd.Context(), rootOpts.app.Session.Current())
			if err != nil {
				return err
			}
			return rootOpts.output(cmd).Users(users)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user with every task they own or are assigned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := rootOpts.app.Admin.DeleteUser(cmd.Context(), rootOpts.app.Session.Current(), args[0])
			if err != nil {
				return err
			}
			return rootOpts.output(cmd).Message("Deleted user %s and %d task(s)", args[0], removed)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "tasks <id>",
		Short: "List the tasks a user owns or is assigned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := rootOpts.app.Admin.UserTasks(cmd.Context(), rootOpts.app.Session.Current(), args[0])
			if err != nil {
				return err
			}
			return rootOpts.output(cmd).Tasks(tasks)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Change a user's display name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := rootOpts.app.Admin.RenameUser(cmd.Context(), rootOpts.app.Session.Current(), args[0], args[1])
			if err != nil {
				return err
			}
			return rootOpts.output(cmd).Print(user, func(w io.Writer) error {
				return printf(w, "Renamed %s\n", describeUser(user))
			})
		},
	})

	return cmd
}
