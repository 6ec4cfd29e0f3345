package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"auth-client/internal/app"
	"auth-client/internal/auth/provider"
	"auth-client/internal/bootstrap"
	"auth-client/internal/config"
	"auth-client/internal/logger"
	"auth-client/internal/terminal"
)

// errReported marks a failure whose message was already rendered.
var errReported = errors.New("reported")

// cli carries flag values and the collaborators commands are built with.
type cli struct {
	profile string
	// provider replaces the configured identity provider when set.
	provider provider.IdentityProvider
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "authctl",
		Short: "Email/password sign-in against a hosted identity provider",
		Long: `authctl signs in with the configured identity provider and exchanges the
identity token for a first-party session cookie at the backend.

Configuration comes from the environment (AUTH_*, REDIS_*, DATABASE_*,
LOG_*). To keep a session between invocations use a persistent store:

  AUTH_SESSION_STORE=sql DATABASE_DSN=file:auth.db authctl login
  AUTH_SESSION_STORE=sql DATABASE_DSN=file:auth.db authctl logout`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&c.profile, "profile", "p", "", "session profile (overrides AUTH_PROFILE)")
	root.AddCommand(
		c.loginCmd(),
		c.signupCmd(),
		c.logoutCmd(),
		c.statusCmd(),
		c.shellCmd(),
	)
	return root
}

// console is what every command needs: the wired app and the terminal.
type console struct {
	app      *app.App
	prompter *terminal.Prompter
	renderer *terminal.Renderer
	nav      *terminal.Navigator
}

func (c *cli) openConsole(cmd *cobra.Command) (*console, error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return nil, errReported
	}
	if c.profile != "" {
		cfg.Profile = c.profile
	}

	if err := logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		return nil, err
	}

	renderer := terminal.NewRenderer(cmd.OutOrStdout())
	s := &console{
		prompter: terminal.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		renderer: renderer,
	}

	a, err := app.New(cmd.Context(), cfg, app.Deps{
		Navigator: bootstrap.NavigatorFunc(func(route string) { s.nav.Navigate(route) }),
		Provider:  c.provider,
	})
	if err != nil {
		logger.Error("failed to initialize client", map[string]any{
			"error": err,
		})
		return nil, errReported
	}
	s.app = a
	s.nav = terminal.NewNavigator(a.BackendURL(), renderer)
	return s, nil
}

func (s *console) Close() {
	if err := s.app.Close(); err != nil {
		logger.Warn("cleanup failed", map[string]any{
			"error": err,
		})
	}
}
