package main

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"auth-client/internal/auth/provider"
	"auth-client/internal/bootstrap"
)

func (c *cli) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session with timed messages and auth state events",
		Long: `shell keeps one client alive, so the in-memory session store and the
provider's signed-in state carry over between commands.

Commands: login, signup, logout, status, quit`,
		Args: cobra.NoArgs,
		RunE: c.runShell,
	}
}

func (c *cli) runShell(cmd *cobra.Command, args []string) error {
	s, err := c.openConsole(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	timeout := s.app.Config.MessageTimeout
	box := bootstrap.NewMessageBox(timeout, s.renderer.Message)
	defer box.Clear()

	unsubscribe := s.app.Client.ObserveAuthState(func(change provider.StateChange) {
		if change.User != nil {
			s.renderer.Printf("[auth] %s %s", change.Kind, change.User.Email)
			return
		}
		s.renderer.Printf("[auth] %s", change.Kind)
	})
	defer unsubscribe()

	ctx := cmd.Context()
	for ctx.Err() == nil {
		line, err := s.prompter.Line("authctl> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.TrimSpace(line) {
		case "":
		case "login", "signup":
			box.Clear()
			form, err := s.prompter.Form(bootstrap.FormType(strings.TrimSpace(line)))
			if err != nil {
				return err
			}
			box.Show(s.app.Client.HandleSubmit(ctx, form).Message)
		case "logout":
			box.Clear()
			box.Show(bootstrap.LogoutMessage(s.app.Client.Logout(ctx)))
		case "status":
			if err := s.status(cmd, 0); err != nil {
				s.renderer.Printf("status: %v", err)
			}
		case "quit", "exit":
			return nil
		default:
			s.renderer.Printf("unknown command %q (login, signup, logout, status, quit)", line)
		}
	}
	return nil
}
