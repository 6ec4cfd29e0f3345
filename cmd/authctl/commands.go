package main

import (
	"time"

	"github.com/spf13/cobra"

	"auth-client/internal/bootstrap"
)

func (c *cli) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and establish a backend session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runForm(cmd, bootstrap.FormLogin)
		},
	}
}

func (c *cli) signupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long: `Create an email/password account at the identity provider.

With AUTH_SIGNUP_POLICY=login-redirect (default) the next step is login.
With AUTH_SIGNUP_POLICY=auto-login the session is established right away.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runForm(cmd, bootstrap.FormSignup)
		},
	}
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out at the provider and end the backend session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openConsole(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			err = s.app.Client.Logout(cmd.Context())
			s.renderer.Message(bootstrap.LogoutMessage(err))
			if err != nil {
				return errReported
			}
			return nil
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the persisted session and recent attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openConsole(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			limit, _ := cmd.Flags().GetInt("events")
			return s.status(cmd, limit)
		},
	}
	cmd.Flags().IntP("events", "n", 5, "number of recent attempts to show (needs DATABASE_DSN)")
	return cmd
}

func (c *cli) runForm(cmd *cobra.Command, kind bootstrap.FormType) error {
	s, err := c.openConsole(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	form, err := s.prompter.Form(kind)
	if err != nil {
		return err
	}

	out := s.app.Client.HandleSubmit(cmd.Context(), form)
	s.renderer.Message(out.Message)
	if !out.OK() {
		return errReported
	}
	return nil
}

func (s *console) status(cmd *cobra.Command, limit int) error {
	rec, err := s.app.Session(cmd.Context())
	if err != nil {
		return err
	}
	if rec == nil {
		s.renderer.Printf("profile %q: no session", s.app.Config.Profile)
		return nil
	}

	s.renderer.Printf("profile %q: signed in as %s (uid %s)", rec.Profile, rec.Email, rec.UserID)
	s.renderer.Printf("  since %s, expires %s", rec.CreatedAt.Format(time.RFC3339), rec.ExpiresAt.Format(time.RFC3339))

	if s.app.Events == nil || rec.Email == "" || limit <= 0 {
		return nil
	}
	events, err := s.app.Events.Recent(cmd.Context(), rec.Email, limit)
	if err != nil {
		return err
	}
	for _, e := range events {
		s.renderer.Printf("  %s  %-8s %s", e.At.Format(time.RFC3339), e.Action, e.Code)
	}
	return nil
}
