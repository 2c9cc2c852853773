package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"todoboard-backend/internal/tasks"
)

func NewAddCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a pending task",
		ArgsUsage: "<text>",
		Action:    runAdd,
	}
}

func NewListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "Show the board: pending and completed columns",
		Action:  runList,
	}
}

func NewStatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show task counts",
		Action: runStats,
	}
}

func NewToggleCommand() *cli.Command {
	return &cli.Command{
		Name:      "toggle",
		Usage:     "Flip a task between pending and completed",
		ArgsUsage: "<task_id>",
		Action: runOnTask("toggle <task_id>", func(ws *workspace, id int64) error {
			t, ok := ws.board.Store.ToggleTask(id)
			if !ok {
				fmt.Fprintf(stdout, "No task %d.\n", id)
				return nil
			}
			fmt.Fprintf(stdout, "%d is now %s.\n", t.ID, columnName(t.Completed))
			return nil
		}),
	}
}

func NewDoneCommand() *cli.Command {
	return setCompletedCommand("done", "Mark a task completed", true)
}

func NewUndoCommand() *cli.Command {
	return setCompletedCommand("undo", "Move a task back to pending", false)
}

func setCompletedCommand(name, usage string, completed bool) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<task_id>",
		Action: runOnTask(name+" <task_id>", func(ws *workspace, id int64) error {
			if _, ok := ws.board.Store.Get(id); !ok {
				fmt.Fprintf(stdout, "No task %d.\n", id)
				return nil
			}
			if _, changed := ws.board.Store.SetCompleted(id, completed); !changed {
				fmt.Fprintf(stdout, "%d is already %s.\n", id, columnName(completed))
				return nil
			}
			fmt.Fprintf(stdout, "%d is now %s.\n", id, columnName(completed))
			return nil
		}),
	}
}

func NewRemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete a task",
		ArgsUsage: "<task_id>",
		Action: runOnTask("rm <task_id>", func(ws *workspace, id int64) error {
			t, ok := ws.board.Store.DeleteTask(id)
			if !ok {
				fmt.Fprintf(stdout, "No task %d.\n", id)
				return nil
			}
			fmt.Fprintf(stdout, "Deleted %d: %s\n", t.ID, t.Text)
			return nil
		}),
	}
}

// NewMoveCommand drags a task onto a column, the way the board does it.
func NewMoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "move",
		Usage:     "Drag a task onto the pending or completed column",
		ArgsUsage: "<task_id> <pending|completed>",
		Action:    runMove,
	}
}

func runAdd(_ context.Context, cmd *cli.Command) error {
	text := strings.Join(cmd.Args().Slice(), " ")

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	t, created := ws.board.Store.AddTask(text)
	if !created {
		fmt.Fprintln(stdout, "Nothing added: task text is blank.")
		return nil
	}
	if err := ws.board.Store.Persist(); err != nil {
		return fmt.Errorf("save board: %w", err)
	}

	fmt.Fprintf(stdout, "Added %d: %s\n", t.ID, t.Text)
	return nil
}

func runList(_ context.Context, cmd *cli.Command) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	h := ws.session.Header()
	if h.LoggedIn {
		fmt.Fprintf(stdout, "%s (%s)\n\n", h.Title, h.DisplayName)
	} else {
		fmt.Fprintf(stdout, "%s\n\n", h.Title)
	}

	cols := tasks.SplitColumns(ws.board.Store.Tasks())
	if cols.Stats.Total == 0 {
		fmt.Fprintln(stdout, "No tasks yet.")
		return nil
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	printColumn(w, "PENDING", cols.Pending)
	fmt.Fprintln(w)
	printColumn(w, "COMPLETED", cols.Completed)
	if err := w.Flush(); err != nil {
		return err
	}

	printStats(cols.Stats)
	return nil
}

func printColumn(w *tabwriter.Writer, title string, list []tasks.Task) {
	fmt.Fprintf(w, "%s (%d)\n", title, len(list))
	if len(list) == 0 {
		fmt.Fprintln(w, "  -")
		return
	}
	fmt.Fprintln(w, "ID\tCREATED\tTEXT")
	for _, t := range list {
		created := t.CreatedAt
		if ts, err := t.Created(); err == nil {
			created = ts.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", t.ID, created, t.Text)
	}
}

func runStats(_ context.Context, cmd *cli.Command) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	printStats(ws.board.Store.Stats())
	return nil
}

func printStats(s tasks.Stats) {
	fmt.Fprintf(stdout, "Total: %d  Pending: %d  Completed: %d\n", s.Total, s.Pending, s.Completed)
}

func runMove(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("usage: todo move <task_id> <pending|completed>")
	}
	id, err := taskIDArg(cmd, "move <task_id> <pending|completed>")
	if err != nil {
		return err
	}
	zone, err := tasks.ParseZone(cmd.Args().Get(1))
	if err != nil {
		return err
	}

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	drag := ws.board.Drag
	if _, ok := drag.BeginDragID(id); !ok {
		fmt.Fprintf(stdout, "No task %d.\n", id)
		return nil
	}
	drag.DragOver()

	_, t, changed := drag.Drop(zone)
	if !changed {
		fmt.Fprintf(stdout, "%d stays where it is.\n", id)
		return nil
	}
	if err := ws.board.Store.Persist(); err != nil {
		return fmt.Errorf("save board: %w", err)
	}

	fmt.Fprintf(stdout, "%d is now %s.\n", t.ID, columnName(t.Completed))
	return nil
}

func columnName(completed bool) string {
	if completed {
		return "completed"
	}
	return "pending"
}
