package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	apperrors "tasknest/internal/errors"
	"tasknest/internal/model"
	"tasknest/internal/service"
)

var errNoChanges = errors.New("nothing to update: pass at least one field flag")

// NewTaskCommand creates the task command group.
func NewTaskCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, list and change tasks",
	}

	cmd.AddCommand(newTaskAddCommand(rootOpts))
	cmd.AddCommand(newTaskListCommand(rootOpts, "list", "List the tasks you can see", func(ctx context.Context, app *App, actor *model.User) ([]model.Task, error) {
		return app.Tasks.AllTasks(ctx, actor)
	}))
	cmd.AddCommand(newTaskListCommand(rootOpts, "mine", "List the tasks you own", func(ctx context.Context, app *App, actor *model.User) ([]model.Task, error) {
		return app.Tasks.UserTasks(ctx, actor.ID)
	}))
	cmd.AddCommand(newTaskListCommand(rootOpts, "assigned", "List the tasks assigned to you", func(ctx context.Context, app *App, actor *model.User) ([]model.Task, error) {
		return app.Tasks.AssignedTasks(ctx, actor.ID)
	}))
	cmd.AddCommand(newTaskGetCommand(rootOpts))
	cmd.AddCommand(newTaskUpdateCommand(rootOpts))
	cmd.AddCommand(newTaskDeleteCommand(rootOpts))

	return cmd
}

// TaskFieldOptions holds the task field flags shared by add and update.
type TaskFieldOptions struct {
	*RootOptions
	Title       string
	Description string
	Priority    string
	DueDate     string
	AssignedTo  string
	Completed   bool
}

func (o *TaskFieldOptions) register(cmd *cobra.Command, withTitle bool) {
	if withTitle {
		cmd.Flags().StringVar(&o.Title, "title", "", "new title")
	}
	cmd.Flags().StringVarP(&o.Description, "description", "d", "", "description")
	cmd.Flags().StringVarP(&o.Priority, "priority", "p", "", "low, medium or high")
	cmd.Flags().StringVar(&o.DueDate, "due", "", "due date as YYYY-MM-DD")
	cmd.Flags().StringVar(&o.AssignedTo, "assign", "", "id of the user to assign")
	cmd.Flags().BoolVar(&o.Completed, "completed", false, "mark as completed")
}

func newTaskAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TaskFieldOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task owned by you",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := opts.app.Tasks.AddTask(cmd.Context(), opts.app.Session.Current(), model.TaskFields{
				Title:       args[0],
				Description: opts.Description,
				Priority:    model.Priority(opts.Priority),
				DueDate:     opts.DueDate,
				Completed:   opts.Completed,
				AssignedTo:  opts.AssignedTo,
			})
			if err != nil {
				return err
			}
			return opts.output(cmd).Task(task)
		},
	}
	opts.register(cmd, false)

	return cmd
}

// TaskListOptions holds flags for the listing commands.
type TaskListOptions struct {
	*RootOptions
	Filter string
}

type taskLister func(ctx context.Context, app *App, actor *model.User) ([]model.Task, error)

func newTaskListCommand(rootOpts *RootOptions, use, short string, list taskLister) *cobra.Command {
	opts := &TaskListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := model.ParseTaskFilter(opts.Filter)
			if err != nil {
				return err
			}
			actor, err := requireSession(opts.RootOptions)
			if err != nil {
				return err
			}
			tasks, err := list(cmd.Context(), opts.app, actor)
			if err != nil {
				return err
			}
			return opts.output(cmd).Tasks(service.FilterTasks(tasks, filter))
		},
	}

	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "all", "all, active or completed")

	return cmd
}

func newTaskGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := requireSession(rootOpts)
			if err != nil {
				return err
			}
			task, err := rootOpts.app.Tasks.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !service.CanView(actor, task) {
				return fmt.Errorf("%w: %s", apperrors.ErrTaskNotFound, args[0])
			}
			return rootOpts.output(cmd).Task(task)
		},
	}
}

func newTaskUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TaskFieldOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Long: `Change fields of a task. Only the flags given are applied.

Owners and admins may change anything. If the task is assigned to you, you may
only change --completed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := opts.patch(cmd)
			if patch.Empty() {
				return errNoChanges
			}
			task, err := opts.app.Tasks.UpdateTask(cmd.Context(), opts.app.Session.Current(), args[0], patch)
			if err != nil {
				return err
			}
			return opts.output(cmd).Task(task)
		},
	}
	opts.register(cmd, true)

	return cmd
}

// patch keeps only the flags the user actually set.
func (o *TaskFieldOptions) patch(cmd *cobra.Command) model.TaskPatch {
	var p model.TaskPatch
	flags := cmd.Flags()
	if flags.Changed("title") {
		p.Title = &o.Title
	}
	if flags.Changed("description") {
		p.Description = &o.Description
	}
	if flags.Changed("priority") {
		priority := model.Priority(o.Priority)
		p.Priority = &priority
	}
	if flags.Changed("due") {
		p.DueDate = &o.DueDate
	}
	if flags.Changed("assign") {
		p.AssignedTo = &o.AssignedTo
	}
	if flags.Changed("completed") {
		p.Completed = &o.Completed
	}
	return p
}

func newTaskDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task you own (admins: any task)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.app.Tasks.DeleteTask(cmd.Context(), rootOpts.app.Session.Current(), args[0]); err != nil {
				return err
			}
			return rootOpts.output(cmd).Message("Deleted task %s", args[0])
		},
	}
}
