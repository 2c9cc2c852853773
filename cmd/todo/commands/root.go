package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"todoboard-backend/internal/config"
	"todoboard-backend/internal/session"
	"todoboard-backend/internal/storage"
	"todoboard-backend/internal/tasks"
)

// stdout is where commands print; tests replace it.
var stdout io.Writer = os.Stdout

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "todo",
		Usage: "Keep a pending/completed task board on disk",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the board file (default from DATA_FILE or config)",
			},
			&cli.StringFlag{
				Name:  "client",
				Usage: "Board to work on",
				Value: tasks.DefaultClientID,
			},
			&cli.StringFlag{
				Name:  "api",
				Usage: "Base URL of the todo API, for login and signup",
				Value: "http://localhost:8080",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewAddCommand(),
			NewListCommand(),
			NewStatsCommand(),
			NewToggleCommand(),
			NewDoneCommand(),
			NewUndoCommand(),
			NewRemoveCommand(),
			NewMoveCommand(),
			NewSignupCommand(),
			NewLoginCommand(),
			NewLogoutCommand(),
			NewWhoamiCommand(),
		},
		DefaultCommand: "list",
	}
}

// workspace is the opened board file: one board and the session next to it.
type workspace struct {
	board   *tasks.Board
	session *session.Session
}

func openWorkspace(cmd *cli.Command) (*workspace, error) {
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	path := cmd.String("data")
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		path = cfg.DataFile
	}

	clientID := cmd.String("client")
	if !tasks.ValidClientID(clientID) {
		return nil, fmt.Errorf("invalid client id %q", clientID)
	}

	kv, err := storage.NewFile(path)
	if err != nil {
		return nil, fmt.Errorf("open board file: %w", err)
	}
	slog.Debug("board file opened", "path", kv.Path(), "client", clientID)

	sess := session.New(storage.WithPrefix(kv, "client:"+clientID+":"))
	sess.Restore()

	return &workspace{
		board:   tasks.NewRegistry(kv).Board(clientID),
		session: sess,
	}, nil
}

func taskIDArg(cmd *cli.Command, usage string) (int64, error) {
	raw := cmd.Args().First()
	if raw == "" {
		return 0, fmt.Errorf("usage: todo %s", usage)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return id, nil
}

// runOnTask opens the board, applies fn to the task named by the first
// argument and saves the result.
func runOnTask(usage string, fn func(ws *workspace, id int64) error) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		id, err := taskIDArg(cmd, usage)
		if err != nil {
			return err
		}
		ws, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		if err := fn(ws, id); err != nil {
			return err
		}
		return ws.board.Store.Persist()
	}
}
