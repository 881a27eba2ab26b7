package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"tasknest/internal/model"
)

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Print writes data as indented JSON, or hands the writer to text in text mode.
func (f *OutputFormatter) Print(data interface{}, text func(w io.Writer) error) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	return text(f.Writer)
}

// Message prints a one-line confirmation, or {"message": ...} in JSON mode.
func (f *OutputFormatter) Message(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return f.Print(map[string]string{"message": msg}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, msg)
		return err
	})
}

// User prints one identity.
func (f *OutputFormatter) User(u *model.User) error {
	return f.Print(u, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, describeUser(u))
		return err
	})
}

// Users prints identities as a table.
func (f *OutputFormatter) Users(users []model.User) error {
	return f.Print(users, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE")
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role)
		}
		return tw.Flush()
	})
}

// Task prints one task with every field.
func (f *OutputFormatter) Task(t *model.Task) error {
	return f.Print(t, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
		fmt.Fprintf(tw, "ID:\t%s\n", t.ID)
		fmt.Fprintf(tw, "Title:\t%s\n", t.Title)
		if t.Description != "" {
			fmt.Fprintf(tw, "Description:\t%s\n", t.Description)
		}
		fmt.Fprintf(tw, "Priority:\t%s\n", t.Priority)
		fmt.Fprintf(tw, "Due:\t%s\n", orDash(t.DueDate))
		fmt.Fprintf(tw, "Status:\t%s\n", status(t))
		fmt.Fprintf(tw, "Owner:\t%s\n", t.UserID)
		fmt.Fprintf(tw, "Assigned to:\t%s\n", orDash(t.AssignedTo))
		fmt.Fprintf(tw, "Created:\t%s\n", t.CreatedAt.Format("2006-01-02 15:04"))
		return tw.Flush()
	})
}

// Tasks prints tasks as a table.
func (f *OutputFormatter) Tasks(tasks []model.Task) error {
	return f.Print(tasks, func(w io.Writer) error {
		if len(tasks) == 0 {
			_, err := fmt.Fprintln(w, "No tasks.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tPRIORITY\tDUE\tSTATUS\tOWNER\tASSIGNEE")
		for i := range tasks {
			t := &tasks[i]
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				t.ID, t.Title, t.Priority, orDash(t.DueDate), status(t), t.UserID, orDash(t.AssignedTo))
		}
		return tw.Flush()
	})
}

func describeUser(u *model.User) string {
	return fmt.Sprintf("%s <%s> (%s, id %s)", u.Name, u.Email, u.Role, u.ID)
}

func status(t *model.Task) string {
	if t.Completed {
		return "done"
	}
	return "open"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printf(w io.Writer, format string, args ...interface{}) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
