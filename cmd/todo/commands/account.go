package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"todoboard-backend/internal/session"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

func credentialFlags(withName bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "email", Usage: "Account email", Required: true},
		&cli.StringFlag{Name: "password", Usage: "Account password", Required: true},
	}
	if withName {
		flags = append([]cli.Flag{&cli.StringFlag{Name: "name", Usage: "Display name"}}, flags...)
	}
	return flags
}

func NewSignupCommand() *cli.Command {
	return &cli.Command{
		Name:   "signup",
		Usage:  "Create an account on the API and log in",
		Flags:  credentialFlags(true),
		Action: runAuth("/auth/register"),
	}
}

func NewLoginCommand() *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Log in against the API",
		Flags:  credentialFlags(false),
		Action: runAuth("/auth/login"),
	}
}

func NewLogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the logged-in user",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			if token := ws.session.Token(); token != "" && cmd.IsSet("api") {
				notifyLogout(ctx, cmd, token)
			}
			if err := ws.session.Logout(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			fmt.Fprintln(stdout, "Logged out.")
			return nil
		},
	}
}

func NewWhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show who is logged in",
		Action: func(_ context.Context, cmd *cli.Command) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			h := ws.session.Header()
			if !h.LoggedIn {
				links := make([]string, 0, len(h.Links))
				for _, l := range h.Links {
					links = append(links, l.Label)
				}
				fmt.Fprintf(stdout, "Not logged in (%s).\n", strings.Join(links, ", "))
				return nil
			}
			fmt.Fprintln(stdout, h.DisplayName)
			return nil
		},
	}
}

// notifyLogout tells the API the token is being dropped. Logging out works
// offline too, so failures are only logged.
func notifyLogout(ctx context.Context, cmd *cli.Command, token string) {
	url := strings.TrimRight(cmd.String("api"), "/") + "/auth/logout"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		slog.Warn("build logout request failed", "error", err)
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Client-Id", cmd.String("client"))
	req.Header.Set("X-Platform", "cli")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Warn("api logout failed", "error", err)
		return
	}
	resp.Body.Close()
	slog.Debug("api logout", "status", resp.StatusCode)
}

type authReply struct {
	Token string `json:"token"`
	User  struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

func runAuth(path string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		ws, err := openWorkspace(cmd)
		if err != nil {
			return err
		}

		body, err := json.Marshal(map[string]string{
			"name":     cmd.String("name"),
			"email":    cmd.String("email"),
			"password": cmd.String("password"),
		})
		if err != nil {
			return err
		}

		url := strings.TrimRight(cmd.String("api"), "/") + path
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Client-Id", cmd.String("client"))
		req.Header.Set("X-Platform", "cli")

		resp, err := httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("reach api: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("%s failed: %s", strings.TrimPrefix(path, "/auth/"), strings.TrimSpace(string(msg)))
		}

		var reply authReply
		if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
			return fmt.Errorf("decode reply: %w", err)
		}

		u := session.User{Name: reply.User.Name, Email: reply.User.Email}
		if err := ws.session.Login(reply.Token, u); err != nil {
			return fmt.Errorf("save session: %w", err)
		}

		fmt.Fprintf(stdout, "Logged in as %s.\n", u.DisplayName())
		return nil
	}
}
